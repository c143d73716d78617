package player

import (
	"time"

	"space-mining-server/internal/faction"
	"space-mining-server/internal/resources"
)

type PlayerRole string

const (
	PlayerRoleUser  PlayerRole = "user"
	PlayerRoleAdmin PlayerRole = "admin"
)

func (r PlayerRole) String() string {
	return string(r)
}

func (r PlayerRole) IsValid() bool {
	return r == PlayerRoleUser || r == PlayerRoleAdmin
}

func ParsePlayerRole(s string) PlayerRole {
	if s == "admin" {
		return PlayerRoleAdmin
	}
	return PlayerRoleUser
}

type Player struct {
	ID        int                 `json:"id"`
	Username  string              `json:"username"`
	Faction   faction.Faction     `json:"faction"`
	Role      PlayerRole          `json:"role"`
	Resources resources.Resources `json:"resources"`
	CreatedAt time.Time           `json:"created_at"`
	UpdatedAt time.Time           `json:"updated_at"`
}

// Actor identifies the player on whose behalf a game action runs.
type Actor struct {
	PlayerID int
	Faction  faction.Faction
}

func (p *Player) Actor() Actor {
	return Actor{PlayerID: p.ID, Faction: p.Faction}
}

// Summary is the public listing shape; balances stay private.
type Summary struct {
	ID        int             `json:"id"`
	Username  string          `json:"username"`
	Faction   faction.Faction `json:"faction"`
	CreatedAt time.Time       `json:"created_at"`
}

type Profile struct {
	Player    *Player             `json:"player"`
	Resources resources.Resources `json:"resources"`
	Modifiers faction.Modifiers   `json:"faction_modifiers"`
}
