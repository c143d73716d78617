package resources

import "testing"

func TestShortfallReportsFirstMissingKind(t *testing.T) {
	balance := Resources{Iron: 200, RareMetals: 10, Crystals: 0, Fuel: 5}
	cost := Resources{Iron: 150, RareMetals: 50, Crystals: 25}

	kind, short := Shortfall(balance, cost)
	if !short || kind != RareMetals {
		t.Fatalf("expected rare_metals shortfall got %v %v", kind, short)
	}

	if _, short := Shortfall(Resources{Iron: 150, RareMetals: 50, Crystals: 25}, cost); short {
		t.Fatalf("exact balance should cover cost")
	}
}

func TestScaleFloorsEachComponent(t *testing.T) {
	got := Resources{Iron: 150, RareMetals: 50, Crystals: 25}.Scale(0.9)
	want := Resources{Iron: 135, RareMetals: 45, Crystals: 22}
	if got != want {
		t.Fatalf("expected %+v got %+v", want, got)
	}
}

func TestAddNegateTotal(t *testing.T) {
	a := Resources{Iron: 10, RareMetals: 3, Crystals: 2, Fuel: 5}
	if !a.Add(a.Negate()).IsZero() {
		t.Fatalf("a + -a should be zero")
	}
	if a.Total() != 20 {
		t.Fatalf("expected total 20 got %d", a.Total())
	}
}

func TestMultipliersDefaultToOne(t *testing.T) {
	m := Multipliers{Crystals: 1.25}
	if m.Get(Crystals) != 1.25 || m.Get(Iron) != 1 {
		t.Fatalf("unexpected multipliers %v %v", m.Get(Crystals), m.Get(Iron))
	}
	var empty Multipliers
	if empty.Get(Fuel) != 1 {
		t.Fatalf("nil multipliers should read as 1")
	}
}

func TestParseKind(t *testing.T) {
	if k, err := ParseKind("rare_metals"); err != nil || k != RareMetals {
		t.Fatalf("unexpected parse %v %v", k, err)
	}
	if _, err := ParseKind("gold"); err == nil {
		t.Fatalf("expected unknown kind error")
	}
}
