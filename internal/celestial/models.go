package celestial

import (
	"encoding/json"
	"time"

	"space-mining-server/internal/resources"
)

type BodyType string

const (
	BodyTypePlanet   BodyType = "planet"
	BodyTypeMoon     BodyType = "moon"
	BodyTypeAsteroid BodyType = "asteroid"
)

func (t BodyType) IsValid() bool {
	return t == BodyTypePlanet || t == BodyTypeMoon || t == BodyTypeAsteroid
}

// Permanent bodies host player mines and never expire.
type Permanent struct {
	MaxMines int
}

// Temporary bodies are mined only through missions and are purged after ExpiresAt.
type Temporary struct {
	ExpiresAt      time.Time
	BonusResources *resources.Resources
	BonusClaimed   bool
}

// Body is a planet, moon or asteroid. Exactly one of Permanent and Temporary is set.
type Body struct {
	ID                int
	Name              string
	Type              BodyType
	Distance          float64
	ResourceModifiers resources.Modifiers
	MiningDifficulty  float64
	Description       string
	CreatedAt         time.Time

	Permanent *Permanent
	Temporary *Temporary
}

func NewPermanentBody(name string, bodyType BodyType, distance float64, mods resources.Modifiers, difficulty float64, maxMines int) *Body {
	return &Body{
		Name:              name,
		Type:              bodyType,
		Distance:          distance,
		ResourceModifiers: mods,
		MiningDifficulty:  difficulty,
		Permanent:         &Permanent{MaxMines: maxMines},
	}
}

func NewAsteroid(name string, distance float64, mods resources.Modifiers, difficulty float64, expiresAt time.Time, bonus *resources.Resources) *Body {
	return &Body{
		Name:              name,
		Type:              BodyTypeAsteroid,
		Distance:          distance,
		ResourceModifiers: mods,
		MiningDifficulty:  difficulty,
		Temporary:         &Temporary{ExpiresAt: expiresAt, BonusResources: bonus},
	}
}

func (b *Body) IsTemporary() bool {
	return b.Temporary != nil
}

func (b *Body) MaxMines() int {
	if b.Permanent == nil {
		return 0
	}
	return b.Permanent.MaxMines
}

// IsExpired is false for permanent bodies
func (b *Body) IsExpired(now time.Time) bool {
	return b.Temporary != nil && !now.Before(b.Temporary.ExpiresAt)
}

// ExpiresBefore reports whether a temporary body disappears before t
func (b *Body) ExpiresBefore(t time.Time) bool {
	return b.Temporary != nil && b.Temporary.ExpiresAt.Before(t)
}

// UnclaimedBonus returns the one-time bonus if it is still available
func (b *Body) UnclaimedBonus() *resources.Resources {
	if b.Temporary == nil || b.Temporary.BonusClaimed || b.Temporary.BonusResources == nil {
		return nil
	}
	return b.Temporary.BonusResources
}

type bodyJSON struct {
	ID                int                  `json:"id"`
	Name              string               `json:"name"`
	Type              BodyType             `json:"type"`
	Distance          float64              `json:"distance"`
	ResourceModifiers resources.Modifiers  `json:"resource_modifiers"`
	MiningDifficulty  float64              `json:"mining_difficulty"`
	Description       string               `json:"description,omitempty"`
	IsTemporary       bool                 `json:"is_temporary"`
	MaxMines          int                  `json:"max_mines"`
	ExpiresAt         *time.Time           `json:"expires_at,omitempty"`
	BonusResources    *resources.Resources `json:"bonus_resources,omitempty"`
	BonusClaimed      bool                 `json:"bonus_claimed,omitempty"`
	CreatedAt         time.Time            `json:"created_at"`
}

func (b Body) MarshalJSON() ([]byte, error) {
	out := bodyJSON{
		ID:                b.ID,
		Name:              b.Name,
		Type:              b.Type,
		Distance:          b.Distance,
		ResourceModifiers: b.ResourceModifiers,
		MiningDifficulty:  b.MiningDifficulty,
		Description:       b.Description,
		MaxMines:          b.MaxMines(),
		CreatedAt:         b.CreatedAt,
	}
	if b.Temporary != nil {
		expires := b.Temporary.ExpiresAt
		out.IsTemporary = true
		out.ExpiresAt = &expires
		out.BonusResources = b.Temporary.BonusResources
		out.BonusClaimed = b.Temporary.BonusClaimed
	}
	return json.Marshal(out)
}

// PlayerMine is the requesting player's own mine on a body, when they have one.
type PlayerMine struct {
	Level         int       `json:"level"`
	LastCollected time.Time `json:"last_collected"`
}

// BodyView is a body as listed for one player.
type BodyView struct {
	Body
	CurrentMines        int         `json:"current_mines"`
	PlayerMine          *PlayerMine `json:"player_mine,omitempty"`
	CanBuildMine        bool        `json:"can_build_mine"`
	EstimatedTravelTime int         `json:"estimated_travel_time"`
	TimeUntilExpire     *int64      `json:"time_until_expire_ms,omitempty"`
}

func (v BodyView) MarshalJSON() ([]byte, error) {
	base, err := json.Marshal(v.Body)
	if err != nil {
		return nil, err
	}
	var merged map[string]interface{}
	if err := json.Unmarshal(base, &merged); err != nil {
		return nil, err
	}
	merged["current_mines"] = v.CurrentMines
	merged["can_build_mine"] = v.CanBuildMine
	merged["estimated_travel_time"] = v.EstimatedTravelTime
	if v.PlayerMine != nil {
		merged["player_mine"] = v.PlayerMine
	}
	if v.TimeUntilExpire != nil {
		merged["time_until_expire_ms"] = *v.TimeUntilExpire
	}
	return json.Marshal(merged)
}

type ListStats struct {
	Total       int `json:"total"`
	Planets     int `json:"planets"`
	Moons       int `json:"moons"`
	Asteroids   int `json:"asteroids"`
	PlayerMines int `json:"player_mines"`
}

type ListResult struct {
	Bodies []BodyView `json:"bodies"`
	Stats  ListStats  `json:"stats"`
}

type AsteroidList struct {
	Asteroids      []Body `json:"asteroids"`
	Count          int    `json:"count"`
	CleanedExpired int64  `json:"cleaned_expired"`
}
