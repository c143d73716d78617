package celestial

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"sync"
	"time"

	"space-mining-server/internal/resources"
	"space-mining-server/internal/shared/clock"
)

const (
	nameAttempts     = 50
	minDistance      = 1.0
	maxDistance      = 5.0
	minDifficulty    = 0.8
	maxDifficulty    = 1.5
	minBonusAmount   = 50
	maxBonusAmount   = 200
	nameNumberMin    = 1000
	nameNumberSpread = 9000
)

type Range struct {
	Min float64 `yaml:"min" json:"min"`
	Max float64 `yaml:"max" json:"max"`
}

// Archetype bounds the resource modifiers of one family of asteroids.
type Archetype struct {
	Name        string  `yaml:"name" json:"name"`
	Iron        Range   `yaml:"iron" json:"iron"`
	RareMetals  Range   `yaml:"rare_metals" json:"rare_metals"`
	Crystals    Range   `yaml:"crystals" json:"crystals"`
	Fuel        Range   `yaml:"fuel" json:"fuel"`
	BonusChance float64 `yaml:"bonus_chance" json:"bonus_chance"`
}

func (a Archetype) rangeFor(k resources.Kind) Range {
	switch k {
	case resources.Iron:
		return a.Iron
	case resources.RareMetals:
		return a.RareMetals
	case resources.Crystals:
		return a.Crystals
	default:
		return a.Fuel
	}
}

type NamePool struct {
	Prefixes []string `yaml:"prefixes"`
	Suffixes []string `yaml:"suffixes"`
}

// NameChecker reports whether a body name is already taken.
type NameChecker interface {
	NameExists(ctx context.Context, name string) (bool, error)
}

type Generator struct {
	archetypes []Archetype
	names      NamePool
	clock      clock.Clock

	mu  sync.Mutex
	rng *rand.Rand
}

func NewGenerator(archetypes []Archetype, names NamePool, clk clock.Clock, rng *rand.Rand) *Generator {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &Generator{
		archetypes: archetypes,
		names:      names,
		clock:      clk,
		rng:        rng,
	}
}

// Generate builds a new asteroid expiring daysUntilExpire days from now.
// The asteroid is not persisted.
func (g *Generator) Generate(ctx context.Context, daysUntilExpire int, checker NameChecker) (*Body, error) {
	if len(g.archetypes) == 0 {
		return nil, fmt.Errorf("no asteroid archetypes configured")
	}

	name, err := g.uniqueName(ctx, checker)
	if err != nil {
		return nil, err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	archetype := g.archetypes[g.rng.IntN(len(g.archetypes))]

	var mods resources.Modifiers
	for _, k := range resources.Kinds {
		mods.Set(k, round(g.uniform(archetype.rangeFor(k)), 2))
	}

	distance := round(g.uniform(Range{minDistance, maxDistance}), 1)
	difficulty := round(g.uniform(Range{minDifficulty, maxDifficulty}), 2)
	expiresAt := g.clock.Now().Add(time.Duration(daysUntilExpire) * 24 * time.Hour)

	var bonus *resources.Resources
	if g.rng.Float64() < archetype.BonusChance {
		kind := resources.Kinds[g.rng.IntN(len(resources.Kinds))]
		amount := int64(math.Round(g.uniform(Range{minBonusAmount, maxBonusAmount})))
		bonus = &resources.Resources{}
		bonus.Set(kind, amount)
	}

	body := NewAsteroid(name, distance, mods, difficulty, expiresAt, bonus)
	body.Description = fmt.Sprintf("A %s asteroid drifting through the outer lanes.", archetype.Name)
	return body, nil
}

func (g *Generator) uniqueName(ctx context.Context, checker NameChecker) (string, error) {
	for i := 0; i < nameAttempts; i++ {
		name := g.randomName()
		if checker == nil {
			return name, nil
		}
		taken, err := checker.NameExists(ctx, name)
		if err != nil {
			return "", fmt.Errorf("failed to check asteroid name: %w", err)
		}
		if !taken {
			return name, nil
		}
	}
	return fmt.Sprintf("AST-%d", g.clock.Now().UnixMilli()), nil
}

func (g *Generator) randomName() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	prefix := pick(g.rng, g.names.Prefixes, "AST")
	suffix := pick(g.rng, g.names.Suffixes, "")
	number := nameNumberMin + g.rng.IntN(nameNumberSpread)
	if suffix == "" {
		return fmt.Sprintf("%s-%d", prefix, number)
	}
	return fmt.Sprintf("%s-%d %s", prefix, number, suffix)
}

// uniform must be called with g.mu held
func (g *Generator) uniform(r Range) float64 {
	return r.Min + g.rng.Float64()*(r.Max-r.Min)
}

func pick(rng *rand.Rand, options []string, fallback string) string {
	if len(options) == 0 {
		return fallback
	}
	return options[rng.IntN(len(options))]
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
