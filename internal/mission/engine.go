package mission

import (
	"math"
	"time"

	"space-mining-server/internal/resources"
)

const (
	travelMinutesPerAU   = 10.0
	speedDivisor         = 5.0
	baseMiningMinutes    = 15.0
	cargoPerMiningMinute = 50.0
	yieldVariance        = 0.1
)

// Rand is the random source used for yield jitter
type Rand interface {
	IntN(n int) int
}

// TravelTimeMinutes is the one-way flight time. adjustedSpeed already carries the faction modifier.
func TravelTimeMinutes(distance float64, adjustedSpeed int) int {
	if adjustedSpeed < 1 {
		adjustedSpeed = 1
	}
	minutes := int(math.Round(distance * travelMinutesPerAU / (float64(adjustedSpeed) / speedDivisor)))
	if minutes < 1 {
		return 1
	}
	return minutes
}

func MiningTimeMinutes(cargoCapacity int, miningDifficulty float64) int {
	return int(math.Round((baseMiningMinutes + float64(cargoCapacity)/cargoPerMiningMinute) * miningDifficulty))
}

// FuelNeeded covers the round trip
func FuelNeeded(distance, fuelConsumption float64) int64 {
	return int64(math.Ceil(distance * fuelConsumption * 2))
}

type Timeline struct {
	StartTime     time.Time `json:"start_time"`
	ArrivalTime   time.Time `json:"arrival_time"`
	MiningEndTime time.Time `json:"mining_end_time"`
	ReturnTime    time.Time `json:"return_time"`
}

type Plan struct {
	Timeline
	TravelTimeMinutes int   `json:"travel_time_minutes"`
	MiningTimeMinutes int   `json:"mining_time_minutes"`
	TotalTimeMinutes  int   `json:"total_time_minutes"`
	FuelNeeded        int64 `json:"fuel_needed"`
}

// NewPlan schedules a round trip starting at start. The return leg takes as long as the outbound one.
func NewPlan(ship ShipSnapshot, target TargetSnapshot, start time.Time) Plan {
	travel := TravelTimeMinutes(target.Distance, ship.Speed)
	mining := MiningTimeMinutes(ship.CargoCapacity, target.MiningDifficulty)

	arrival := start.Add(time.Duration(travel) * time.Minute)
	miningEnd := arrival.Add(time.Duration(mining) * time.Minute)

	return Plan{
		Timeline: Timeline{
			StartTime:     start,
			ArrivalTime:   arrival,
			MiningEndTime: miningEnd,
			ReturnTime:    miningEnd.Add(time.Duration(travel) * time.Minute),
		},
		TravelTimeMinutes: travel,
		MiningTimeMinutes: mining,
		TotalTimeMinutes:  travel*2 + mining,
		FuelNeeded:        FuelNeeded(target.Distance, ship.FuelConsumption),
	}
}

// DeriveStatus computes the phase from the timeline. Only an explicit collect reaches collected.
func DeriveStatus(current Status, t Timeline, now time.Time) Status {
	switch {
	case current == StatusCollected:
		return StatusCollected
	case !now.Before(t.ReturnTime):
		return StatusCompleted
	case !now.Before(t.MiningEndTime):
		return StatusReturning
	case !now.Before(t.ArrivalTime):
		return StatusMining
	default:
		return StatusInProgress
	}
}

func IsReadyToCollect(status Status, t Timeline, now time.Time) bool {
	return status == StatusCompleted || (!now.Before(t.ReturnTime) && status != StatusCollected)
}

// Progress is the elapsed share of the round trip in whole percent
func Progress(t Timeline, now time.Time) int {
	if !now.Before(t.ReturnTime) {
		return 100
	}
	if !now.After(t.StartTime) {
		return 0
	}
	total := t.ReturnTime.Sub(t.StartTime)
	return int(math.Round(float64(now.Sub(t.StartTime)) / float64(total) * 100))
}

// ComputeYield splits the cargo hold across resources. Each share is weighted by the
// body modifier twice, once for the allocation and once for intensity.
func ComputeYield(cargoCapacity int, mods resources.Modifiers, miningBonus resources.Multipliers, bonus *resources.Resources, rng Rand) resources.Resources {
	total := mods.Sum()

	var out resources.Resources
	for _, k := range resources.Kinds {
		var amount int64
		if total > 0 {
			m := mods.Get(k)
			amount = int64(math.Floor(m / total * float64(cargoCapacity) * m))
		}
		amount = int64(math.Floor(float64(amount) * miningBonus.Get(k)))
		if bonus != nil {
			amount += bonus.Get(k)
		}
		out.Set(k, jitter(amount, rng))
	}
	return out
}

func jitter(v int64, rng Rand) int64 {
	variance := int64(math.Floor(float64(v) * yieldVariance))
	if variance <= 0 || rng == nil {
		if v < 0 {
			return 0
		}
		return v
	}
	out := v + int64(rng.IntN(int(variance*2+1))) - variance
	if out < 0 {
		return 0
	}
	return out
}
