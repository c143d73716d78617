package faction

import (
	"fmt"
	"strings"

	"space-mining-server/internal/resources"
)

type Faction string

const (
	EU    Faction = "EU"
	China Faction = "CHINA"
	USA   Faction = "USA"
	Japan Faction = "JAPAN"
)

var All = []Faction{EU, China, USA, Japan}

func Parse(s string) (Faction, error) {
	f := Faction(strings.ToUpper(strings.TrimSpace(s)))
	for _, known := range All {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown faction %q", s)
}

// Modifiers are the static bonuses a faction applies to mining, ship speed and build costs.
// A zero ShipSpeed or BuildCostReduction reads as 1.0.
type Modifiers struct {
	MiningBonus        resources.Multipliers `json:"mining_bonus" yaml:"mining_bonus"`
	ShipSpeed          float64               `json:"ship_speed" yaml:"ship_speed"`
	BuildCostReduction float64               `json:"build_cost_reduction" yaml:"build_cost_reduction"`
}

func Neutral() Modifiers {
	return Modifiers{MiningBonus: resources.Multipliers{}, ShipSpeed: 1, BuildCostReduction: 1}
}

func (m Modifiers) Speed() float64 {
	if m.ShipSpeed == 0 {
		return 1
	}
	return m.ShipSpeed
}

func (m Modifiers) CostReduction() float64 {
	if m.BuildCostReduction == 0 {
		return 1
	}
	return m.BuildCostReduction
}

// Table is an immutable faction lookup built once at startup.
type Table struct {
	entries map[Faction]Modifiers
}

func NewTable(entries map[Faction]Modifiers) Table {
	copied := make(map[Faction]Modifiers, len(entries))
	for f, m := range entries {
		bonus := make(resources.Multipliers, len(m.MiningBonus))
		for k, v := range m.MiningBonus {
			bonus[k] = v
		}
		m.MiningBonus = bonus
		copied[f] = m
	}
	return Table{entries: copied}
}

// Lookup returns neutral modifiers for factions not in the table
func (t Table) Lookup(f Faction) Modifiers {
	if m, ok := t.entries[f]; ok {
		return m
	}
	return Neutral()
}

func (t Table) Has(f Faction) bool {
	_, ok := t.entries[f]
	return ok
}
