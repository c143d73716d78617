package player

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"space-mining-server/internal/faction"
	"space-mining-server/internal/resources"
	"space-mining-server/internal/shared/database"
	"space-mining-server/internal/shared/errors"
)

type fakeStore struct {
	players []Player
}

func (f *fakeStore) GetPlayerCount(ctx context.Context) (int, error) {
	return len(f.players), nil
}

func (f *fakeStore) GetAllPlayers(ctx context.Context) ([]Player, error) {
	return f.players, nil
}

func (f *fakeStore) GetPlayerByID(ctx context.Context, id int, tx *database.Tx) (*Player, error) {
	for _, p := range f.players {
		if p.ID == id {
			return &p, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) GetPlayerByUsername(ctx context.Context, username string, tx *database.Tx) (*Player, error) {
	for _, p := range f.players {
		if p.Username == username {
			return &p, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) CreatePlayer(ctx context.Context, username string, fa faction.Faction, role PlayerRole, starting resources.Resources, tx *database.Tx) (*Player, error) {
	p := Player{ID: len(f.players) + 1, Username: username, Faction: fa, Role: role, Resources: starting}
	f.players = append(f.players, p)
	return &p, nil
}

var starting = resources.Resources{Iron: 500, RareMetals: 100, Crystals: 50, Fuel: 200}

func newTestService() (*Service, *fakeStore) {
	store := &fakeStore{}
	factions := faction.NewTable(map[faction.Faction]faction.Modifiers{
		faction.Japan: {MiningBonus: resources.Multipliers{resources.Fuel: 1.1}, ShipSpeed: 1.05, BuildCostReduction: 0.95},
	})
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewService(store, factions, starting, logger), store
}

func TestRegisterGrantsStartingBalance(t *testing.T) {
	svc, _ := newTestService()

	p, err := svc.Register(context.Background(), "  belter ", "japan", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Username != "belter" || p.Faction != faction.Japan || p.Role != PlayerRoleUser {
		t.Fatalf("unexpected player %+v", p)
	}
	if p.Resources != starting {
		t.Fatalf("expected starting balance got %+v", p.Resources)
	}
}

func TestRegisterValidation(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	if _, err := svc.Register(ctx, "ab", "EU", PlayerRoleUser); errors.GetType(err) != errors.ErrorTypeValidation {
		t.Fatalf("expected validation error for short username got %v", err)
	}
	if _, err := svc.Register(ctx, "belter", "MARS", PlayerRoleUser); errors.GetType(err) != errors.ErrorTypeValidation {
		t.Fatalf("expected validation error for unknown faction got %v", err)
	}

	if _, err := svc.Register(ctx, "belter", "EU", PlayerRoleUser); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.Register(ctx, "belter", "USA", PlayerRoleUser); errors.GetReason(err) != "username_taken" {
		t.Fatalf("expected username_taken got %v", err)
	}
}

func TestGetProfileIncludesFactionModifiers(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	p, err := svc.Register(ctx, "belter", "JAPAN", PlayerRoleUser)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	profile, err := svc.GetProfile(ctx, p.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if profile.Modifiers.CostReduction() != 0.95 || profile.Modifiers.MiningBonus.Get(resources.Fuel) != 1.1 {
		t.Fatalf("unexpected modifiers %+v", profile.Modifiers)
	}
	if profile.Resources != starting {
		t.Fatalf("unexpected resources %+v", profile.Resources)
	}

	if _, err := svc.GetProfile(ctx, 99); errors.GetType(err) != errors.ErrorTypeNotFound {
		t.Fatalf("expected not found got %v", err)
	}
}

func TestGetAllPlayersHidesBalances(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	for _, name := range []string{"alpha", "bravo"} {
		if _, err := svc.Register(ctx, name, "EU", PlayerRoleUser); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	summaries, err := svc.GetAllPlayers(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(summaries) != 2 || summaries[1].Username != "bravo" {
		t.Fatalf("unexpected summaries %+v", summaries)
	}
}
