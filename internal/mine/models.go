package mine

import (
	"time"

	"space-mining-server/internal/celestial"
	"space-mining-server/internal/resources"
	"space-mining-server/internal/shared/errors"
)

// Mine is one player's producer on a permanent body, joined with the body fields it needs.
type Mine struct {
	ID                int                 `json:"id"`
	BodyID            int                 `json:"celestial_body_id"`
	OwnerID           int                 `json:"owner_id"`
	Level             int                 `json:"level"`
	LastCollected     time.Time           `json:"last_collected"`
	CreatedAt         time.Time           `json:"created_at"`
	BodyName          string              `json:"celestial_body_name"`
	BodyType          celestial.BodyType  `json:"celestial_body_type"`
	ResourceModifiers resources.Modifiers `json:"resource_modifiers"`
}

type MineView struct {
	Mine
	ProductionPerHour    resources.Resources  `json:"production_per_hour"`
	AccumulatedResources resources.Resources  `json:"accumulated_resources"`
	HoursAccumulated     float64              `json:"hours_accumulated"`
	UpgradeCost          *resources.Resources `json:"upgrade_cost"`
	CanUpgrade           bool                 `json:"can_upgrade"`
}

type Stats struct {
	TotalMines             int                 `json:"total_mines"`
	TotalProductionPerHour resources.Resources `json:"total_production_per_hour"`
	TotalAccumulated       resources.Resources `json:"total_accumulated"`
	MaxAccumulationHours   float64             `json:"max_accumulation_hours"`
}

type ListResult struct {
	Mines []MineView `json:"mines"`
	Stats Stats      `json:"stats"`
}

type PreviewBody struct {
	ID                int                 `json:"id"`
	Name              string              `json:"name"`
	Type              celestial.BodyType  `json:"type"`
	ResourceModifiers resources.Modifiers `json:"resource_modifiers"`
	CurrentMines      int                 `json:"current_mines"`
	MaxMines          int                 `json:"max_mines"`
}

type Preview struct {
	Body              PreviewBody         `json:"celestial_body"`
	Level             int                 `json:"level"`
	BuildCost         resources.Resources `json:"build_cost"`
	ProductionPerHour resources.Resources `json:"production_per_hour"`
	ProductionPerDay  resources.Resources `json:"production_per_day"`
	PlayerResources   resources.Resources `json:"player_resources"`
	CanBuild          bool                `json:"can_build"`
	Issues            []errors.Issue      `json:"issues"`
}

type BuildResult struct {
	Mine      MineView            `json:"mine"`
	Cost      resources.Resources `json:"cost"`
	Resources resources.Resources `json:"resources"`
}

type UpgradeResult struct {
	Mine          MineView            `json:"mine"`
	PreviousLevel int                 `json:"previous_level"`
	Cost          resources.Resources `json:"cost"`
	Resources     resources.Resources `json:"resources"`
}

type Collection struct {
	BodyID           int                 `json:"celestial_body_id"`
	BodyName         string              `json:"celestial_body_name"`
	Collected        resources.Resources `json:"collected"`
	HoursAccumulated float64             `json:"hours_accumulated"`
}

type CollectResult struct {
	Collection
	Resources resources.Resources `json:"resources"`
}

type CollectAllResult struct {
	TotalCollected resources.Resources `json:"total_collected"`
	MinesCollected int                 `json:"mines_collected"`
	Details        []Collection        `json:"details"`
	Resources      resources.Resources `json:"resources"`
}
