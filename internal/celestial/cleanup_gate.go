package celestial

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"space-mining-server/internal/shared/clock"
	sharedredis "space-mining-server/internal/shared/redis"
)

const cleanupGateKey = "space-mining:celestial:cleanup"

// CleanupGate throttles the lazy expired-asteroid sweep that runs before listings.
type CleanupGate interface {
	Allow(ctx context.Context) bool
}

// NewCleanupGate shares the throttle across instances through Redis when a client is available.
func NewCleanupGate(client *sharedredis.Client, interval time.Duration, clk clock.Clock) CleanupGate {
	if client == nil || client.Client == nil {
		return &localGate{interval: interval, clock: clk}
	}
	return &redisGate{client: client, interval: interval}
}

type redisGate struct {
	client   *sharedredis.Client
	interval time.Duration
}

func (g *redisGate) Allow(ctx context.Context) bool {
	if g.interval <= 0 {
		return true
	}
	acquired, err := g.client.SetNX(ctx, cleanupGateKey, time.Now().UTC().Format(time.RFC3339), g.interval).Result()
	if err != nil {
		slog.With("component", "celestial_cleanup_gate").Warn("Redis gate unavailable, running cleanup", "error", err)
		return true
	}
	return acquired
}

type localGate struct {
	interval time.Duration
	clock    clock.Clock

	mu   sync.Mutex
	last time.Time
}

func (g *localGate) Allow(context.Context) bool {
	if g.interval <= 0 {
		return true
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.clock.Now()
	if !g.last.IsZero() && now.Sub(g.last) < g.interval {
		return false
	}
	g.last = now
	return true
}
