package fleet

import (
	"time"

	"space-mining-server/internal/resources"
)

type ShipStatus string

const (
	ShipStatusIdle      ShipStatus = "idle"
	ShipStatusOnMission ShipStatus = "on_mission"
	ShipStatusReturning ShipStatus = "returning"
)

func (s ShipStatus) String() string {
	return string(s)
}

// Template is an immutable shipyard catalog entry
type Template struct {
	ID              int                 `json:"id"`
	Name            string              `json:"name"`
	Description     string              `json:"description"`
	CargoCapacity   int                 `json:"cargo_capacity"`
	FuelConsumption float64             `json:"fuel_consumption"`
	Speed           int                 `json:"speed"`
	Tier            int                 `json:"tier"`
	BaseBuildCost   resources.Resources `json:"base_build_cost"`
	CreatedAt       time.Time           `json:"created_at"`
}

type Ship struct {
	ID               int        `json:"id"`
	OwnerID          int        `json:"owner_id"`
	TemplateID       int        `json:"template_id"`
	Name             string     `json:"name"`
	Status           ShipStatus `json:"status"`
	CurrentMissionID *int       `json:"current_mission_id,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
	Template         *Template  `json:"template,omitempty"`
}

func (s *Ship) IsIdle() bool {
	return s.Status == ShipStatusIdle
}

// TemplateView is a template priced for one faction
type TemplateView struct {
	Template
	AdjustedBuildCost    resources.Resources `json:"adjusted_build_cost"`
	CostReduction        float64             `json:"cost_reduction"`
	CostReductionPercent int                 `json:"cost_reduction_percent"`
}

type ShipView struct {
	Ship
	AdjustedSpeed int `json:"adjusted_speed"`
}

type Stats struct {
	TotalShips         int `json:"total_ships"`
	IdleShips          int `json:"idle_ships"`
	OnMissionShips     int `json:"on_mission_ships"`
	TotalCargoCapacity int `json:"total_cargo_capacity"`
}

type FleetResult struct {
	Ships             []ShipView `json:"ships"`
	Stats             Stats      `json:"stats"`
	SpeedBonusPercent int        `json:"speed_bonus_percent"`
}

type BuildResult struct {
	Ship      ShipView            `json:"ship"`
	Cost      resources.Resources `json:"cost"`
	Resources resources.Resources `json:"resources"`
}

type ScrapResult struct {
	ShipName  string              `json:"ship_name"`
	Refund    resources.Resources `json:"refund"`
	Resources resources.Resources `json:"resources"`
}
