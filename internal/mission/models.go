package mission

import (
	"fmt"
	"time"

	"space-mining-server/internal/celestial"
	"space-mining-server/internal/fleet"
	"space-mining-server/internal/resources"
	"space-mining-server/internal/shared/errors"
)

type Status string

const (
	StatusInProgress Status = "in_progress"
	StatusMining     Status = "mining"
	StatusReturning  Status = "returning"
	StatusCompleted  Status = "completed"
	StatusCollected  Status = "collected"
)

var allStatuses = []Status{StatusInProgress, StatusMining, StatusReturning, StatusCompleted, StatusCollected}

func ParseStatus(s string) (Status, error) {
	for _, st := range allStatuses {
		if string(st) == s {
			return st, nil
		}
	}
	return "", fmt.Errorf("unknown mission status %q", s)
}

const TypeMining = "mining"

// ShipSnapshot freezes the ship stats a mission was launched with
type ShipSnapshot struct {
	Name            string  `json:"name"`
	TemplateName    string  `json:"template_name"`
	CargoCapacity   int     `json:"cargo_capacity"`
	Speed           int     `json:"speed"`
	FuelConsumption float64 `json:"fuel_consumption"`
}

// TargetSnapshot freezes the target body as it was at launch
type TargetSnapshot struct {
	Name              string              `json:"name"`
	Type              celestial.BodyType  `json:"type"`
	IsTemporary       bool                `json:"is_temporary"`
	Distance          float64             `json:"distance"`
	ResourceModifiers resources.Modifiers `json:"resource_modifiers"`
	MiningDifficulty  float64             `json:"mining_difficulty"`
}

func snapshotShip(ship *fleet.Ship, adjustedSpeed int) ShipSnapshot {
	return ShipSnapshot{
		Name:            ship.Name,
		TemplateName:    ship.Template.Name,
		CargoCapacity:   ship.Template.CargoCapacity,
		Speed:           adjustedSpeed,
		FuelConsumption: ship.Template.FuelConsumption,
	}
}

func snapshotTarget(body *celestial.Body) TargetSnapshot {
	return TargetSnapshot{
		Name:              body.Name,
		Type:              body.Type,
		IsTemporary:       body.IsTemporary(),
		Distance:          body.Distance,
		ResourceModifiers: body.ResourceModifiers,
		MiningDifficulty:  body.MiningDifficulty,
	}
}

// Mission is one round trip of one ship to one asteroid. ShipID and TargetID
// become nil when the ship is scrapped or the asteroid purged; the snapshots stay.
type Mission struct {
	ID                int                  `json:"id"`
	OwnerID           int                  `json:"owner_id"`
	ShipID            *int                 `json:"ship_id"`
	TargetID          *int                 `json:"target_id"`
	Type              string               `json:"type"`
	Status            Status               `json:"status"`
	Times             Timeline             `json:"times"`
	TravelTimeMinutes int                  `json:"travel_time_minutes"`
	MiningTimeMinutes int                  `json:"mining_time_minutes"`
	FuelUsed          int64                `json:"fuel_used"`
	Distance          float64              `json:"distance"`
	Ship              ShipSnapshot         `json:"ship"`
	Target            TargetSnapshot       `json:"target"`
	MinedResources    *resources.Resources `json:"mined_resources,omitempty"`
	BonusCollected    bool                 `json:"bonus_collected"`
	CreatedAt         time.Time            `json:"created_at"`
	UpdatedAt         time.Time            `json:"updated_at"`
}

type MissionView struct {
	Mission
	TotalTimeMinutes int  `json:"total_time_minutes"`
	Progress         int  `json:"progress"`
	IsReadyToCollect bool `json:"is_ready_to_collect"`
}

// ListFilter narrows a mission listing. Status wins over ActiveOnly.
type ListFilter struct {
	Status     Status
	ActiveOnly bool
	Limit      int
}

type Stats struct {
	Total          int `json:"total"`
	InProgress     int `json:"in_progress"`
	Mining         int `json:"mining"`
	Returning      int `json:"returning"`
	ReadyToCollect int `json:"ready_to_collect"`
}

type ListResult struct {
	Missions []MissionView `json:"missions"`
	Stats    Stats         `json:"stats"`
}

type PreviewShip struct {
	ID              int              `json:"id"`
	Name            string           `json:"name"`
	Status          fleet.ShipStatus `json:"status"`
	TemplateName    string           `json:"template_name"`
	CargoCapacity   int              `json:"cargo_capacity"`
	Speed           int              `json:"speed"`
	FuelConsumption float64          `json:"fuel_consumption"`
}

type PreviewTarget struct {
	ID                int                 `json:"id"`
	Name              string              `json:"name"`
	Type              celestial.BodyType  `json:"type"`
	Distance          float64             `json:"distance"`
	MiningDifficulty  float64             `json:"mining_difficulty"`
	ResourceModifiers resources.Modifiers `json:"resource_modifiers"`
	ExpiresAt         *time.Time          `json:"expires_at,omitempty"`
}

type Preview struct {
	Ship       PreviewShip    `json:"ship"`
	Target     PreviewTarget  `json:"target"`
	Mission    Plan           `json:"mission"`
	PlayerFuel int64          `json:"player_fuel"`
	CanSend    bool           `json:"can_send"`
	Issues     []errors.Issue `json:"issues"`
}

type SendResult struct {
	Mission   MissionView         `json:"mission"`
	Resources resources.Resources `json:"resources"`
}

type Collected struct {
	MissionID      int                 `json:"mission_id"`
	ShipName       string              `json:"ship_name"`
	TargetName     string              `json:"target_name"`
	MinedResources resources.Resources `json:"mined_resources"`
	BonusCollected bool                `json:"bonus_collected"`
}

type CollectResult struct {
	Collected
	Resources resources.Resources `json:"resources"`
}

type CollectAllResult struct {
	CollectedCount int                 `json:"collected_count"`
	TotalResources resources.Resources `json:"total_resources"`
	Missions       []Collected         `json:"missions"`
	Resources      resources.Resources `json:"resources"`
}
