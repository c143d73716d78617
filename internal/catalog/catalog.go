// Package catalog loads the game's static balance data: faction modifiers,
// ship templates, seed bodies and asteroid generation tables.
package catalog

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"

	"space-mining-server/internal/celestial"
	"space-mining-server/internal/faction"
	"space-mining-server/internal/fleet"
	"space-mining-server/internal/resources"

	"gopkg.in/yaml.v3"
)

//go:embed balance.yaml
var defaultBalance []byte

type ShipTemplate struct {
	Name            string              `yaml:"name"`
	Description     string              `yaml:"description"`
	CargoCapacity   int                 `yaml:"cargo_capacity"`
	FuelConsumption float64             `yaml:"fuel_consumption"`
	Speed           int                 `yaml:"speed"`
	Tier            int                 `yaml:"tier"`
	BaseBuildCost   resources.Resources `yaml:"base_build_cost"`
}

type CelestialBody struct {
	Name              string              `yaml:"name"`
	Type              celestial.BodyType  `yaml:"type"`
	Distance          float64             `yaml:"distance"`
	MiningDifficulty  float64             `yaml:"mining_difficulty"`
	MaxMines          int                 `yaml:"max_mines"`
	ResourceModifiers resources.Modifiers `yaml:"resource_modifiers"`
	Description       string              `yaml:"description"`
}

type Asteroids struct {
	Archetypes []celestial.Archetype `yaml:"archetypes"`
	Names      celestial.NamePool    `yaml:"names"`
}

type Catalog struct {
	StartingResources resources.Resources                 `yaml:"starting_resources"`
	Factions          map[faction.Faction]faction.Modifiers `yaml:"factions"`
	ShipTemplates     []ShipTemplate                      `yaml:"ship_templates"`
	CelestialBodies   []CelestialBody                     `yaml:"celestial_bodies"`
	Asteroids         Asteroids                           `yaml:"asteroids"`
}

// Load reads the balance file at path, or the built-in balance when path is empty
func Load(path string) (*Catalog, error) {
	data := defaultBalance
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read balance file: %w", err)
		}
		data = raw
	}
	return Parse(data)
}

func Parse(data []byte) (*Catalog, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var c Catalog
	if err := dec.Decode(&c); err != nil {
		return nil, fmt.Errorf("failed to parse balance data: %w", err)
	}
	if err := c.validate(); err != nil {
		return nil, fmt.Errorf("invalid balance data: %w", err)
	}
	return &c, nil
}

func (c *Catalog) validate() error {
	for _, f := range faction.All {
		m, ok := c.Factions[f]
		if !ok {
			return fmt.Errorf("faction %s missing", f)
		}
		if m.ShipSpeed < 0 || m.BuildCostReduction < 0 {
			return fmt.Errorf("faction %s has negative modifiers", f)
		}
	}

	if len(c.ShipTemplates) == 0 {
		return fmt.Errorf("at least one ship template is required")
	}
	seen := make(map[string]bool)
	for _, t := range c.ShipTemplates {
		if t.Name == "" || seen[t.Name] {
			return fmt.Errorf("ship template names must be unique and non-empty (%q)", t.Name)
		}
		seen[t.Name] = true
		if t.Tier < 1 || t.Tier > 3 {
			return fmt.Errorf("ship template %s: tier must be 1-3", t.Name)
		}
		if t.CargoCapacity < 1 || t.Speed < 1 || t.FuelConsumption < 0 {
			return fmt.Errorf("ship template %s: cargo and speed must be positive", t.Name)
		}
	}

	for _, b := range c.CelestialBodies {
		if !b.Type.IsValid() {
			return fmt.Errorf("celestial body %s: unknown type %q", b.Name, b.Type)
		}
		if b.Distance <= 0 || b.MiningDifficulty <= 0 || b.MaxMines < 1 {
			return fmt.Errorf("celestial body %s: distance, difficulty and max mines must be positive", b.Name)
		}
	}

	if len(c.Asteroids.Archetypes) == 0 {
		return fmt.Errorf("at least one asteroid archetype is required")
	}
	for _, a := range c.Asteroids.Archetypes {
		for _, r := range []celestial.Range{a.Iron, a.RareMetals, a.Crystals, a.Fuel} {
			if r.Min <= 0 || r.Max < r.Min {
				return fmt.Errorf("archetype %s: ranges must be positive and ordered", a.Name)
			}
		}
		if a.BonusChance < 0 || a.BonusChance > 1 {
			return fmt.Errorf("archetype %s: bonus chance must be within [0,1]", a.Name)
		}
	}
	return nil
}

func (c *Catalog) FactionTable() faction.Table {
	return faction.NewTable(c.Factions)
}

func (c *Catalog) Templates() []fleet.Template {
	templates := make([]fleet.Template, 0, len(c.ShipTemplates))
	for _, t := range c.ShipTemplates {
		templates = append(templates, fleet.Template{
			Name:            t.Name,
			Description:     t.Description,
			CargoCapacity:   t.CargoCapacity,
			FuelConsumption: t.FuelConsumption,
			Speed:           t.Speed,
			Tier:            t.Tier,
			BaseBuildCost:   t.BaseBuildCost,
		})
	}
	return templates
}

func (c *Catalog) PermanentBodies() []*celestial.Body {
	bodies := make([]*celestial.Body, 0, len(c.CelestialBodies))
	for _, b := range c.CelestialBodies {
		body := celestial.NewPermanentBody(b.Name, b.Type, b.Distance, b.ResourceModifiers, b.MiningDifficulty, b.MaxMines)
		body.Description = b.Description
		bodies = append(bodies, body)
	}
	return bodies
}
