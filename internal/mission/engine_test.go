package mission

import (
	"testing"
	"time"

	"space-mining-server/internal/resources"
)

// midRand always returns the middle of the range, so jitter leaves values unchanged
type midRand struct{}

func (midRand) IntN(n int) int { return n / 2 }

type lowRand struct{}

func (lowRand) IntN(n int) int { return 0 }

var (
	minerSnapshot = ShipSnapshot{Name: "Miner #1", TemplateName: "Miner", CargoCapacity: 150, Speed: 6, FuelConsumption: 2}
	rockSnapshot  = TargetSnapshot{Name: "Rock", Type: "asteroid", IsTemporary: true, Distance: 3, ResourceModifiers: resources.DefaultModifiers(), MiningDifficulty: 1}
)

func TestNewPlanTimeline(t *testing.T) {
	start := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	plan := NewPlan(minerSnapshot, rockSnapshot, start)

	if plan.TravelTimeMinutes != 25 || plan.MiningTimeMinutes != 18 || plan.TotalTimeMinutes != 68 {
		t.Fatalf("unexpected durations %+v", plan)
	}
	if plan.FuelNeeded != 12 {
		t.Fatalf("expected 12 fuel got %d", plan.FuelNeeded)
	}
	if !plan.ArrivalTime.Equal(start.Add(25*time.Minute)) ||
		!plan.MiningEndTime.Equal(start.Add(43*time.Minute)) ||
		!plan.ReturnTime.Equal(start.Add(68*time.Minute)) {
		t.Fatalf("unexpected timeline %+v", plan.Timeline)
	}
}

func TestTravelTimeHasFloor(t *testing.T) {
	if got := TravelTimeMinutes(0.01, 20); got != 1 {
		t.Fatalf("expected minimum of 1 minute got %d", got)
	}
	if got := TravelTimeMinutes(1, 0); got != 50 {
		t.Fatalf("speed below 1 should count as 1, got %d", got)
	}
}

func TestFuelNeededRoundsUp(t *testing.T) {
	if got := FuelNeeded(1.3, 1.5); got != 4 {
		t.Fatalf("expected ceil(3.9)=4 got %d", got)
	}
}

func TestDeriveStatus(t *testing.T) {
	start := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	tl := NewPlan(minerSnapshot, rockSnapshot, start).Timeline

	cases := []struct {
		name    string
		current Status
		at      time.Duration
		want    Status
	}{
		{"just launched", StatusInProgress, 0, StatusInProgress},
		{"at arrival", StatusInProgress, 25 * time.Minute, StatusMining},
		{"mining over", StatusMining, 43 * time.Minute, StatusReturning},
		{"returned", StatusReturning, 68 * time.Minute, StatusCompleted},
		{"stale returning row", StatusReturning, 3 * time.Hour, StatusCompleted},
		{"collected stays collected", StatusCollected, 3 * time.Hour, StatusCollected},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := DeriveStatus(c.current, tl, start.Add(c.at)); got != c.want {
				t.Fatalf("expected %s got %s", c.want, got)
			}
		})
	}
}

func TestReadyAndProgress(t *testing.T) {
	start := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	tl := NewPlan(minerSnapshot, rockSnapshot, start).Timeline

	if IsReadyToCollect(StatusReturning, tl, start.Add(67*time.Minute)) {
		t.Fatalf("mission must not be ready before return")
	}
	if !IsReadyToCollect(StatusReturning, tl, start.Add(68*time.Minute)) {
		t.Fatalf("mission past return time should be ready even with a stale status")
	}
	if IsReadyToCollect(StatusCollected, tl, start.Add(5*time.Hour)) {
		t.Fatalf("collected mission is never ready")
	}

	if got := Progress(tl, start.Add(-time.Minute)); got != 0 {
		t.Fatalf("expected 0 got %d", got)
	}
	if got := Progress(tl, start.Add(34*time.Minute)); got != 50 {
		t.Fatalf("expected 50 got %d", got)
	}
	if got := Progress(tl, start.Add(2*time.Hour)); got != 100 {
		t.Fatalf("expected 100 got %d", got)
	}
}

func TestComputeYield(t *testing.T) {
	mods := resources.DefaultModifiers()
	bonus := resources.Multipliers{resources.Crystals: 1.25}

	got := ComputeYield(150, mods, bonus, nil, midRand{})
	want := resources.Resources{Iron: 37, RareMetals: 37, Crystals: 46, Fuel: 37}
	if got != want {
		t.Fatalf("expected %+v got %+v", want, got)
	}

	withBonus := ComputeYield(150, mods, bonus, &resources.Resources{Iron: 100}, midRand{})
	if withBonus.Iron != 137 {
		t.Fatalf("expected bonus added to iron got %d", withBonus.Iron)
	}
}

func TestComputeYieldWeightsModifiersTwice(t *testing.T) {
	mods := resources.Modifiers{Iron: 2, RareMetals: 1, Crystals: 1, Fuel: 0}

	got := ComputeYield(100, mods, nil, nil, nil)
	// iron: 2/4 * 100 * 2
	if got.Iron != 100 || got.RareMetals != 25 || got.Fuel != 0 {
		t.Fatalf("unexpected yield %+v", got)
	}
}

func TestJitterStaysWithinTenPercent(t *testing.T) {
	if got := jitter(100, lowRand{}); got != 90 {
		t.Fatalf("expected lower bound 90 got %d", got)
	}
	if got := jitter(9, lowRand{}); got != 9 {
		t.Fatalf("small values are not jittered, got %d", got)
	}
	if got := jitter(0, lowRand{}); got != 0 {
		t.Fatalf("expected 0 got %d", got)
	}
}
