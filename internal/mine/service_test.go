package mine

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"space-mining-server/internal/celestial"
	"space-mining-server/internal/faction"
	"space-mining-server/internal/ledger"
	"space-mining-server/internal/player"
	"space-mining-server/internal/resources"
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

type fakeBodies map[int]*celestial.Body

func (f fakeBodies) GetByID(ctx context.Context, id int, tx *database.Tx) (*celestial.Body, error) {
	return f[id], nil
}

func (f fakeBodies) GetByIDForUpdate(ctx context.Context, id int, tx *database.Tx) (*celestial.Body, error) {
	return f[id], nil
}

type fakeStore struct {
	bodies fakeBodies
	mines  []*Mine
}

func (f *fakeStore) find(bodyID, ownerID int) *Mine {
	for _, m := range f.mines {
		if m.BodyID == bodyID && m.OwnerID == ownerID {
			return m
		}
	}
	return nil
}

func (f *fakeStore) ListByOwner(ctx context.Context, ownerID int, tx *database.Tx) ([]Mine, error) {
	var out []Mine
	for _, m := range f.mines {
		if m.OwnerID == ownerID {
			out = append(out, *m)
		}
	}
	return out, nil
}

func (f *fakeStore) ListByOwnerForUpdate(ctx context.Context, ownerID int, tx *database.Tx) ([]Mine, error) {
	return f.ListByOwner(ctx, ownerID, tx)
}

func (f *fakeStore) GetForUpdate(ctx context.Context, bodyID, ownerID int, tx *database.Tx) (*Mine, error) {
	m := f.find(bodyID, ownerID)
	if m == nil {
		return nil, nil
	}
	copied := *m
	return &copied, nil
}

func (f *fakeStore) Occupancy(ctx context.Context, bodyID, ownerID int, tx *database.Tx) (int, int, error) {
	count, level := 0, 0
	for _, m := range f.mines {
		if m.BodyID != bodyID {
			continue
		}
		count++
		if m.OwnerID == ownerID {
			level = m.Level
		}
	}
	return count, level, nil
}

func (f *fakeStore) Create(ctx context.Context, bodyID, ownerID int, now time.Time, tx *database.Tx) (*Mine, error) {
	body := f.bodies[bodyID]
	m := &Mine{
		ID:                len(f.mines) + 1,
		BodyID:            bodyID,
		OwnerID:           ownerID,
		Level:             1,
		LastCollected:     now,
		CreatedAt:         now,
		BodyName:          body.Name,
		BodyType:          body.Type,
		ResourceModifiers: body.ResourceModifiers,
	}
	f.mines = append(f.mines, m)
	copied := *m
	return &copied, nil
}

func (f *fakeStore) byID(id int) *Mine {
	for _, m := range f.mines {
		if m.ID == id {
			return m
		}
	}
	return nil
}

func (f *fakeStore) SetLevel(ctx context.Context, mineID, level int, tx *database.Tx) error {
	f.byID(mineID).Level = level
	return nil
}

func (f *fakeStore) MarkCollected(ctx context.Context, mineID int, at time.Time, tx *database.Tx) error {
	f.byID(mineID).LastCollected = at
	return nil
}

type ledgerTx struct {
	ledger *ledger.Memory
}

func (l ledgerTx) WithTx(ctx context.Context, fn func(tx *database.Tx) error) error {
	snap := l.ledger.Snapshot()
	if err := fn(nil); err != nil {
		l.ledger.Restore(snap)
		return err
	}
	return nil
}

type fixture struct {
	svc   *Service
	store *fakeStore
	mem   *ledger.Memory
	clock *testClock
}

func newFixture() *fixture {
	mars := celestial.NewPermanentBody("Mars", celestial.BodyTypePlanet, 1.5, resources.DefaultModifiers(), 1.0, 2)
	mars.ID = 1
	titan := celestial.NewPermanentBody("Titan", celestial.BodyTypeMoon, 9.5, resources.Modifiers{Iron: 0.5, RareMetals: 1, Crystals: 2, Fuel: 3}, 1.4, 5)
	titan.ID = 2
	rock := celestial.NewAsteroid("Vesta-1234 Prime", 2, resources.DefaultModifiers(), 1, time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC), nil)
	rock.ID = 3
	bodies := fakeBodies{1: mars, 2: titan, 3: rock}

	store := &fakeStore{bodies: bodies}
	mem := ledger.NewMemory()
	for id := 1; id <= 3; id++ {
		mem.Open(id, resources.Resources{Iron: 1000, RareMetals: 500, Crystals: 300, Fuel: 50})
	}
	clk := &testClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	factions := faction.NewTable(map[faction.Faction]faction.Modifiers{
		faction.EU:    {MiningBonus: resources.Multipliers{resources.Crystals: 1.25}, ShipSpeed: 1, BuildCostReduction: 0.9},
		faction.China: {MiningBonus: resources.Multipliers{resources.Iron: 1.3}, ShipSpeed: 0.95, BuildCostReduction: 0.85},
	})
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	return &fixture{
		svc:   NewService(store, bodies, mem, factions, ledgerTx{ledger: mem}, clk, logger),
		store: store,
		mem:   mem,
		clock: clk,
	}
}

var euActor = player.Actor{PlayerID: 1, Faction: faction.EU}

func (f *fixture) balance(t *testing.T, playerID int) resources.Resources {
	t.Helper()
	bal, err := f.mem.GetBalance(context.Background(), playerID, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return bal
}

func TestBuildMineDebitsReducedCost(t *testing.T) {
	f := newFixture()

	result, err := f.svc.Build(context.Background(), euActor, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Cost != (resources.Resources{Iron: 135, RareMetals: 45, Crystals: 22}) {
		t.Fatalf("unexpected cost %+v", result.Cost)
	}
	if result.Mine.Level != 1 || !result.Mine.LastCollected.Equal(f.clock.Now()) {
		t.Fatalf("unexpected mine %+v", result.Mine.Mine)
	}
	if bal := f.balance(t, 1); bal.Iron != 865 || bal.Crystals != 278 {
		t.Fatalf("unexpected balance %+v", bal)
	}
}

func TestBuildMineRejections(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	if _, err := f.svc.Build(ctx, euActor, 3); errors.GetReason(err) != "temporary_body" {
		t.Fatalf("expected temporary_body got %v", err)
	}
	if _, err := f.svc.Build(ctx, euActor, 99); errors.GetType(err) != errors.ErrorTypeNotFound {
		t.Fatalf("expected not found got %v", err)
	}

	if _, err := f.svc.Build(ctx, euActor, 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := f.svc.Build(ctx, euActor, 1); errors.GetReason(err) != "mine_exists" {
		t.Fatalf("expected mine_exists got %v", err)
	}

	if _, err := f.svc.Build(ctx, player.Actor{PlayerID: 2, Faction: faction.China}, 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	before := f.balance(t, 3)
	if _, err := f.svc.Build(ctx, player.Actor{PlayerID: 3, Faction: faction.USA}, 1); errors.GetReason(err) != "mine_slots_full" {
		t.Fatalf("expected mine_slots_full got %v", err)
	}
	if f.balance(t, 3) != before {
		t.Fatalf("rejected build must not change the balance")
	}
}

func TestBuildMineInsufficientFunds(t *testing.T) {
	f := newFixture()
	f.mem.Open(1, resources.Resources{Iron: 500, RareMetals: 10, Crystals: 5})

	_, err := f.svc.Build(context.Background(), euActor, 1)
	if errors.GetReason(err) != "insufficient_rare_metals" {
		t.Fatalf("expected insufficient_rare_metals got %v", err)
	}
	if len(f.store.mines) != 0 {
		t.Fatalf("no mine should exist after a failed build")
	}
}

func TestPreviewListsEveryIssue(t *testing.T) {
	f := newFixture()
	f.mem.Open(1, resources.Resources{Iron: 10})

	preview, err := f.svc.Preview(context.Background(), euActor, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if preview.CanBuild {
		t.Fatalf("asteroid preview must not be buildable")
	}
	reasons := make(map[string]bool)
	for _, issue := range preview.Issues {
		reasons[issue.Reason] = true
	}
	for _, want := range []string{"temporary_body", "insufficient_iron", "insufficient_rare_metals", "insufficient_crystals"} {
		if !reasons[want] {
			t.Fatalf("missing issue %s in %+v", want, preview.Issues)
		}
	}
}

func TestPreviewProductionPerDay(t *testing.T) {
	f := newFixture()

	preview, err := f.svc.Preview(context.Background(), euActor, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !preview.CanBuild || len(preview.Issues) != 0 {
		t.Fatalf("expected buildable preview got %+v", preview.Issues)
	}
	// Titan crystals 2x with the EU 1.25 bonus
	if preview.ProductionPerHour.Crystals != 5 || preview.ProductionPerDay.Crystals != 120 {
		t.Fatalf("unexpected crystal output %+v / %+v", preview.ProductionPerHour, preview.ProductionPerDay)
	}
}

func TestCollectCreditsAndResets(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	if _, err := f.svc.Build(ctx, euActor, 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := f.svc.Collect(ctx, euActor, 1); errors.GetReason(err) != "nothing_to_collect" {
		t.Fatalf("expected nothing_to_collect right after build got %v", err)
	}

	before := f.balance(t, 1)
	f.clock.Advance(2 * time.Hour)

	result, err := f.svc.Collect(ctx, euActor, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := resources.Resources{Iron: 20, RareMetals: 6, Crystals: 4, Fuel: 10}
	if result.Collected != want || result.HoursAccumulated != 2 {
		t.Fatalf("expected %+v got %+v over %v", want, result.Collected, result.HoursAccumulated)
	}
	if result.Resources != before.Add(want) {
		t.Fatalf("expected balance %+v got %+v", before.Add(want), result.Resources)
	}
	if !f.store.find(1, 1).LastCollected.Equal(f.clock.Now()) {
		t.Fatalf("lastCollected must reset to now")
	}
	if _, err := f.svc.Collect(ctx, euActor, 1); errors.GetReason(err) != "nothing_to_collect" {
		t.Fatalf("expected second collect to report nothing_to_collect got %v", err)
	}
}

func TestCollectOverflowIsDiscarded(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	_, _ = f.svc.Build(ctx, euActor, 1)
	f.clock.Advance(100 * time.Hour)

	result, err := f.svc.Collect(ctx, euActor, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.HoursAccumulated != MaxAccumulationHours || result.Collected.Iron != 240 {
		t.Fatalf("expected a 24h cap got %+v", result.Collection)
	}
}

func TestCollectAllSumsAndIsRetrySafe(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	if _, err := f.svc.CollectAll(ctx, euActor); errors.GetReason(err) != "no_mines" {
		t.Fatalf("expected no_mines got %v", err)
	}

	_, _ = f.svc.Build(ctx, euActor, 1)
	_, _ = f.svc.Build(ctx, euActor, 2)
	f.clock.Advance(time.Hour)

	result, err := f.svc.CollectAll(ctx, euActor)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.MinesCollected != 2 {
		t.Fatalf("expected two mines collected got %d", result.MinesCollected)
	}
	// Mars 10/3/2*1.25=2/5 plus Titan 5/3/5/15
	want := resources.Resources{Iron: 15, RareMetals: 6, Crystals: 7, Fuel: 20}
	if result.TotalCollected != want {
		t.Fatalf("expected %+v got %+v", want, result.TotalCollected)
	}

	if _, err := f.svc.CollectAll(ctx, euActor); errors.GetReason(err) != "nothing_to_collect" {
		t.Fatalf("expected retry to report nothing_to_collect got %v", err)
	}
}

func TestUpgradeKeepsBankedProduction(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	_, _ = f.svc.Build(ctx, euActor, 1)
	built := f.store.find(1, 1).LastCollected
	f.clock.Advance(3 * time.Hour)

	result, err := f.svc.Upgrade(ctx, euActor, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.PreviousLevel != 1 || result.Mine.Level != 2 {
		t.Fatalf("unexpected levels %d -> %d", result.PreviousLevel, result.Mine.Level)
	}
	if result.Cost != BuildCost(2, 0.9) {
		t.Fatalf("unexpected upgrade cost %+v", result.Cost)
	}
	if !f.store.find(1, 1).LastCollected.Equal(built) {
		t.Fatalf("upgrade must not reset lastCollected")
	}
}

func TestUpgradeStopsAtMaxLevel(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.mem.Open(1, resources.Resources{Iron: 100000, RareMetals: 100000, Crystals: 100000})
	_, _ = f.svc.Build(ctx, euActor, 1)

	for level := 2; level <= MaxLevel; level++ {
		if _, err := f.svc.Upgrade(ctx, euActor, 1); err != nil {
			t.Fatalf("upgrade to %d failed: %v", level, err)
		}
	}
	if _, err := f.svc.Upgrade(ctx, euActor, 1); errors.GetReason(err) != "max_level" {
		t.Fatalf("expected max_level got %v", err)
	}

	list, err := f.svc.List(ctx, euActor)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if list.Mines[0].CanUpgrade || list.Mines[0].UpgradeCost != nil {
		t.Fatalf("max level mine must not offer an upgrade")
	}
}

func TestUpgradeWithoutMine(t *testing.T) {
	f := newFixture()
	if _, err := f.svc.Upgrade(context.Background(), euActor, 1); errors.GetType(err) != errors.ErrorTypeNotFound {
		t.Fatalf("expected not found got %v", err)
	}
}
