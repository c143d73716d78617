package ledger

import (
	"context"
	"sync"

	"space-mining-server/internal/resources"
	"space-mining-server/internal/shared/database"
	"space-mining-server/internal/shared/errors"
)

// Memory is an in-process ledger with the same guarantees as Repository.
// It backs service tests and local tooling that runs without Postgres.
type Memory struct {
	mu       sync.Mutex
	balances map[int]resources.Resources
}

func NewMemory() *Memory {
	return &Memory{balances: make(map[int]resources.Resources)}
}

func (m *Memory) Open(playerID int, balance resources.Resources) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.balances[playerID] = balance
}

func (m *Memory) GetBalance(_ context.Context, playerID int, _ *database.Tx) (resources.Resources, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	bal, ok := m.balances[playerID]
	if !ok {
		return resources.Resources{}, errors.NotFoundf("player %d not found", playerID)
	}
	return bal, nil
}

func (m *Memory) ApplyDelta(_ context.Context, playerID int, delta resources.Resources, _ *database.Tx) (resources.Resources, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	bal, ok := m.balances[playerID]
	if !ok {
		return resources.Resources{}, errors.NotFoundf("player %d not found", playerID)
	}

	next := bal.Add(delta)
	for _, k := range resources.Kinds {
		if next.Get(k) < 0 {
			return resources.Resources{}, InsufficientFor(bal, delta.Negate())
		}
	}
	m.balances[playerID] = next
	return next, nil
}

// Snapshot copies every balance; Restore puts a snapshot back.
func (m *Memory) Snapshot() map[int]resources.Resources {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make(map[int]resources.Resources, len(m.balances))
	for id, bal := range m.balances {
		out[id] = bal
	}
	return out
}

func (m *Memory) Restore(snapshot map[int]resources.Resources) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.balances = make(map[int]resources.Resources, len(snapshot))
	for id, bal := range snapshot {
		m.balances[id] = bal
	}
}
