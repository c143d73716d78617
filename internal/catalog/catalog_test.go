package catalog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"space-mining-server/internal/faction"
	"space-mining-server/internal/resources"
)

func TestLoadDefaultBalance(t *testing.T) {
	c, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if c.StartingResources != (resources.Resources{Iron: 100, RareMetals: 20, Crystals: 10, Fuel: 50}) {
		t.Fatalf("unexpected starting resources %+v", c.StartingResources)
	}

	table := c.FactionTable()
	eu := table.Lookup(faction.EU)
	if eu.CostReduction() != 0.9 || eu.MiningBonus.Get(resources.Crystals) != 1.25 {
		t.Fatalf("unexpected EU modifiers %+v", eu)
	}
	china := table.Lookup(faction.China)
	if china.MiningBonus.Get(resources.Iron) != 1.3 || china.Speed() != 0.95 {
		t.Fatalf("unexpected CHINA modifiers %+v", china)
	}

	templates := c.Templates()
	if len(templates) != 3 || templates[1].Name != "Miner" || templates[1].CargoCapacity != 150 {
		t.Fatalf("unexpected templates %+v", templates)
	}

	bodies := c.PermanentBodies()
	if len(bodies) != 8 {
		t.Fatalf("expected 8 permanent bodies got %d", len(bodies))
	}
	for _, b := range bodies {
		if b.IsTemporary() || b.MaxMines() < 1 {
			t.Fatalf("seed body %s should be permanent with mine slots", b.Name)
		}
	}

	if len(c.Asteroids.Archetypes) != 5 || len(c.Asteroids.Names.Prefixes) != 15 {
		t.Fatalf("unexpected asteroid tables %+v", c.Asteroids)
	}
}

func TestParseRejectsMissingFaction(t *testing.T) {
	broken := strings.Replace(string(defaultBalance), "  JAPAN:", "  MARS:", 1)
	if _, err := Parse([]byte(broken)); err == nil {
		t.Fatalf("expected missing faction to be rejected")
	}
}

func TestParseRejectsUnknownFields(t *testing.T) {
	broken := string(defaultBalance) + "\nunexpected_section: true\n"
	if _, err := Parse([]byte(broken)); err == nil {
		t.Fatalf("expected unknown field to be rejected")
	}
}

func TestLoadOverrideFile(t *testing.T) {
	tuned := strings.Replace(string(defaultBalance), "  iron: 100\n", "  iron: 500\n", 1)
	path := filepath.Join(t.TempDir(), "balance.yaml")
	if err := os.WriteFile(path, []byte(tuned), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	c, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.StartingResources.Iron != 500 {
		t.Fatalf("expected override to apply, got %d", c.StartingResources.Iron)
	}
}
