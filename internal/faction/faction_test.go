package faction

import (
	"testing"

	"space-mining-server/internal/resources"
)

func TestParse(t *testing.T) {
	f, err := Parse(" japan ")
	if err != nil || f != Japan {
		t.Fatalf("expected JAPAN got %v %v", f, err)
	}
	if _, err := Parse("MARS"); err == nil {
		t.Fatalf("expected unknown faction error")
	}
}

func TestLookupUnknownIsNeutral(t *testing.T) {
	table := NewTable(map[Faction]Modifiers{
		EU: {MiningBonus: resources.Multipliers{resources.Crystals: 1.25}, ShipSpeed: 1.0, BuildCostReduction: 0.9},
	})

	m := table.Lookup(USA)
	if m.Speed() != 1 || m.CostReduction() != 1 || m.MiningBonus.Get(resources.Iron) != 1 {
		t.Fatalf("expected neutral modifiers got %+v", m)
	}

	eu := table.Lookup(EU)
	if eu.CostReduction() != 0.9 || eu.MiningBonus.Get(resources.Crystals) != 1.25 {
		t.Fatalf("unexpected EU modifiers %+v", eu)
	}
}

func TestTableIsolatedFromSource(t *testing.T) {
	src := map[Faction]Modifiers{China: {MiningBonus: resources.Multipliers{resources.Iron: 1.3}}}
	table := NewTable(src)
	src[China].MiningBonus[resources.Iron] = 9

	if got := table.Lookup(China).MiningBonus.Get(resources.Iron); got != 1.3 {
		t.Fatalf("table should not alias caller maps, got %v", got)
	}
}

func TestZeroMultipliersReadAsOne(t *testing.T) {
	var m Modifiers
	if m.Speed() != 1 || m.CostReduction() != 1 {
		t.Fatalf("zero values should read as 1")
	}
}
