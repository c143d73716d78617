package celestial

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"space-mining-server/internal/resources"
	"space-mining-server/internal/shared/clock"
	"space-mining-server/internal/shared/config"
	"space-mining-server/internal/shared/database"
	"space-mining-server/internal/shared/errors"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fakeStore struct {
	bodies []Body
}

func (f *fakeStore) Create(ctx context.Context, body *Body, tx *database.Tx) (*Body, error) {
	created := *body
	created.ID = len(f.bodies) + 1
	f.bodies = append(f.bodies, created)
	return &created, nil
}

func (f *fakeStore) GetByID(ctx context.Context, id int, tx *database.Tx) (*Body, error) {
	for _, b := range f.bodies {
		if b.ID == id {
			return &b, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) ListActive(ctx context.Context, now time.Time) ([]Body, error) {
	var out []Body
	for _, b := range f.bodies {
		if !b.IsTemporary() || b.Temporary.ExpiresAt.After(now) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (f *fakeStore) ListPermanent(ctx context.Context) ([]Body, error) {
	var out []Body
	for _, b := range f.bodies {
		if !b.IsTemporary() {
			out = append(out, b)
		}
	}
	return out, nil
}

func (f *fakeStore) ListActiveAsteroids(ctx context.Context, now time.Time) ([]Body, error) {
	var out []Body
	for _, b := range f.bodies {
		if b.IsTemporary() && b.Temporary.ExpiresAt.After(now) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (f *fakeStore) NameExists(ctx context.Context, name string, tx *database.Tx) (bool, error) {
	for _, b := range f.bodies {
		if b.Name == name {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	kept := f.bodies[:0]
	var deleted int64
	for _, b := range f.bodies {
		if b.IsTemporary() && b.Temporary.ExpiresAt.Before(now) {
			deleted++
			continue
		}
		kept = append(kept, b)
	}
	f.bodies = kept
	return deleted, nil
}

type fakeMines map[int]MineSummary

func (f fakeMines) MineSummaries(ctx context.Context, playerID int) (map[int]MineSummary, error) {
	return f, nil
}

type noTx struct{}

func (noTx) WithTx(ctx context.Context, fn func(tx *database.Tx) error) error {
	return fn(nil)
}

type closedGate struct{}

func (closedGate) Allow(context.Context) bool { return false }

func newTestService(gate CleanupGate) (*Service, *fakeStore, *testClock) {
	clk := &testClock{now: time.Date(2025, 2, 1, 12, 0, 0, 0, time.UTC)}
	store := &fakeStore{}

	mars := NewPermanentBody("Mars", BodyTypePlanet, 1.5, resources.DefaultModifiers(), 1, 2)
	luna := NewPermanentBody("Luna", BodyTypeMoon, 0.5, resources.DefaultModifiers(), 0.8, 1)
	rock := NewAsteroid("Rock", 3, resources.DefaultModifiers(), 1, clk.now.Add(time.Hour), nil)
	stale := NewAsteroid("Stale", 2, resources.DefaultModifiers(), 1, clk.now.Add(-time.Hour), nil)
	for _, b := range []*Body{mars, luna, rock, stale} {
		if _, err := store.Create(context.Background(), b, nil); err != nil {
			panic(err)
		}
	}

	mines := fakeMines{
		1: {Count: 1, Own: &PlayerMine{Level: 2, LastCollected: clk.now}},
		2: {Count: 1},
	}
	gen := newTestGenerator(testArchetypes, clk.now)
	cfg := config.GameConfig{MaxSpawnPerRequest: 10, MissionListLimit: 50}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	return NewService(store, mines, gen, gate, noTx{}, clk, cfg, logger), store, clk
}

func TestListBodiesAnnotatesMineState(t *testing.T) {
	svc, _, _ := newTestService(closedGate{})

	result, err := svc.ListBodies(context.Background(), 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Stats.Total != 3 || result.Stats.Planets != 1 || result.Stats.Moons != 1 || result.Stats.Asteroids != 1 || result.Stats.PlayerMines != 1 {
		t.Fatalf("unexpected stats %+v", result.Stats)
	}

	byName := make(map[string]BodyView)
	for _, v := range result.Bodies {
		byName[v.Name] = v
	}
	if v := byName["Mars"]; v.PlayerMine == nil || v.PlayerMine.Level != 2 || v.CanBuildMine || v.EstimatedTravelTime != 15 {
		t.Fatalf("unexpected Mars view %+v", v)
	}
	if v := byName["Luna"]; v.CurrentMines != 1 || v.CanBuildMine {
		t.Fatalf("full moon should not be buildable: %+v", v)
	}
	if v := byName["Rock"]; v.CanBuildMine || v.TimeUntilExpire == nil || *v.TimeUntilExpire != time.Hour.Milliseconds() {
		t.Fatalf("unexpected asteroid view %+v", v)
	}
}

func TestListAsteroidsRunsLazyCleanup(t *testing.T) {
	svc, store, clk := newTestService(NewCleanupGate(nil, time.Minute, clock.Fixed(time.Date(2025, 2, 1, 12, 0, 0, 0, time.UTC))))

	list, err := svc.ListAsteroids(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if list.Count != 1 || list.CleanedExpired != 1 || len(store.bodies) != 3 {
		t.Fatalf("expected the stale asteroid purged: %+v", list)
	}

	clk.Advance(2 * time.Hour)
	list, err = svc.ListAsteroids(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if list.Count != 0 || list.CleanedExpired != 0 {
		t.Fatalf("gate should skip the sweep but still hide expired rocks: %+v", list)
	}
}

func TestGetBody(t *testing.T) {
	svc, _, clk := newTestService(closedGate{})
	ctx := context.Background()

	if _, err := svc.GetBody(ctx, 0); errors.GetType(err) != errors.ErrorTypeValidation {
		t.Fatalf("expected validation error got %v", err)
	}
	if _, err := svc.GetBody(ctx, 99); errors.GetType(err) != errors.ErrorTypeNotFound {
		t.Fatalf("expected not found got %v", err)
	}

	body, err := svc.GetBody(ctx, 3)
	if err != nil || body.Name != "Rock" {
		t.Fatalf("unexpected result %+v %v", body, err)
	}

	clk.Advance(time.Hour)
	if _, err := svc.GetBody(ctx, 3); errors.GetReason(err) != "asteroid_expired" {
		t.Fatalf("expected asteroid_expired got %v", err)
	}
}

func TestSpawnAsteroids(t *testing.T) {
	svc, store, _ := newTestService(closedGate{})
	ctx := context.Background()

	if _, err := svc.SpawnAsteroids(ctx, 11, 3); errors.GetType(err) != errors.ErrorTypeValidation {
		t.Fatalf("expected validation error for count got %v", err)
	}
	if _, err := svc.SpawnAsteroids(ctx, 2, 31); errors.GetType(err) != errors.ErrorTypeValidation {
		t.Fatalf("expected validation error for days got %v", err)
	}

	spawned, err := svc.SpawnAsteroids(ctx, 3, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(spawned) != 3 || len(store.bodies) != 7 {
		t.Fatalf("expected 3 new asteroids got %d (stored %d)", len(spawned), len(store.bodies))
	}
	seen := make(map[string]bool)
	for _, b := range spawned {
		if seen[b.Name] {
			t.Fatalf("duplicate asteroid name %q", b.Name)
		}
		seen[b.Name] = true
	}
}

func TestSeedPermanentSkipsExisting(t *testing.T) {
	svc, store, _ := newTestService(closedGate{})

	seed := []*Body{
		NewPermanentBody("Mars", BodyTypePlanet, 1.5, resources.DefaultModifiers(), 1, 2),
		NewPermanentBody("Europa", BodyTypeMoon, 5.2, resources.DefaultModifiers(), 1.4, 1),
	}
	created, err := svc.SeedPermanent(context.Background(), seed)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created != 1 || len(store.bodies) != 5 {
		t.Fatalf("expected only Europa created, got %d", created)
	}
}

func TestLocalGateThrottles(t *testing.T) {
	clk := &testClock{now: time.Date(2025, 2, 1, 12, 0, 0, 0, time.UTC)}
	gate := NewCleanupGate(nil, time.Minute, clk)
	ctx := context.Background()

	if !gate.Allow(ctx) {
		t.Fatalf("first sweep should be allowed")
	}
	if gate.Allow(ctx) {
		t.Fatalf("second sweep within the interval should be throttled")
	}
	clk.Advance(time.Minute)
	if !gate.Allow(ctx) {
		t.Fatalf("sweep should be allowed after the interval")
	}
}
