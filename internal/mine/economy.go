package mine

import (
	"math"
	"time"

	"space-mining-server/internal/resources"
)

const (
	MaxLevel             = 5
	MaxAccumulationHours = 24.0

	upgradeCostMultiplier = 1.5
	levelProductionBonus  = 0.5
)

var (
	baseBuildCost   = resources.Resources{Iron: 150, RareMetals: 50, Crystals: 25}
	baseHourlyYield = resources.Resources{Iron: 10, RareMetals: 3, Crystals: 2, Fuel: 5}
)

// BuildCost is the price of bringing a mine to targetLevel. Level 1 is the initial build.
func BuildCost(targetLevel int, reduction float64) resources.Resources {
	levelMultiplier := 1.0
	if targetLevel > 1 {
		levelMultiplier = math.Pow(upgradeCostMultiplier, float64(targetLevel-1))
	}

	var cost resources.Resources
	for _, k := range resources.Kinds {
		cost.Set(k, int64(math.Floor(float64(baseBuildCost.Get(k))*levelMultiplier*reduction)))
	}
	return cost
}

func ProductionPerHour(level int, mods resources.Modifiers, bonus resources.Multipliers) resources.Resources {
	levelBonus := 1 + float64(level-1)*levelProductionBonus

	var out resources.Resources
	for _, k := range resources.Kinds {
		out.Set(k, int64(math.Floor(float64(baseHourlyYield.Get(k))*levelBonus*mods.Get(k)*bonus.Get(k))))
	}
	return out
}

type Accumulation struct {
	Resources resources.Resources
	Hours     float64
}

// Accumulate is the production banked since lastCollected. Hours past the cap are lost.
func Accumulate(level int, lastCollected time.Time, mods resources.Modifiers, bonus resources.Multipliers, now time.Time) Accumulation {
	hours := now.Sub(lastCollected).Hours()
	if hours < 0 {
		hours = 0
	}
	if hours > MaxAccumulationHours {
		hours = MaxAccumulationHours
	}

	perHour := ProductionPerHour(level, mods, bonus)
	var out resources.Resources
	for _, k := range resources.Kinds {
		out.Set(k, int64(math.Floor(float64(perHour.Get(k))*hours)))
	}
	return Accumulation{Resources: out, Hours: hours}
}

func roundHours(h float64) float64 {
	return math.Round(h*100) / 100
}
