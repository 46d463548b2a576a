// Package presence is the session registry behind the per-player
// connectivity signal. It tracks which players hold a live real-time
// connection, with explicit creation on connect and teardown on
// disconnect or TTL expiry. The engine never reads it directly: the
// transport layer mirrors every change into the store's is_connected
// flag, which is all the turn navigator consumes.
package presence

import (
	"context"
	"sync"
	"time"
)

type Registry interface {
	// Connect registers a live connection for the player.
	Connect(ctx context.Context, playerID string) error
	// Heartbeat extends the player's TTL without changing state.
	Heartbeat(ctx context.Context, playerID string) error
	// Disconnect tears the registration down immediately.
	Disconnect(ctx context.Context, playerID string) error
	IsConnected(ctx context.Context, playerID string) (bool, error)
	Close() error
}

// Memory is the in-process registry: a deadline map swept by a janitor
// goroutine. onExpire fires for sessions that die by TTL rather than an
// explicit disconnect, so the caller can flip the stored flag.
type Memory struct {
	ttl      time.Duration
	onExpire func(playerID string)

	mu        sync.Mutex
	deadlines map[string]time.Time
	done      chan struct{}
	closeOnce sync.Once
}

func NewMemory(ttl time.Duration, onExpire func(playerID string)) *Memory {
	m := &Memory{
		ttl:       ttl,
		onExpire:  onExpire,
		deadlines: make(map[string]time.Time),
		done:      make(chan struct{}),
	}
	go m.sweep()
	return m
}

func (m *Memory) Connect(_ context.Context, playerID string) error {
	m.mu.Lock()
	m.deadlines[playerID] = time.Now().Add(m.ttl)
	m.mu.Unlock()
	return nil
}

func (m *Memory) Heartbeat(ctx context.Context, playerID string) error {
	return m.Connect(ctx, playerID)
}

func (m *Memory) Disconnect(_ context.Context, playerID string) error {
	m.mu.Lock()
	delete(m.deadlines, playerID)
	m.mu.Unlock()
	return nil
}

func (m *Memory) IsConnected(_ context.Context, playerID string) (bool, error) {
	m.mu.Lock()
	deadline, ok := m.deadlines[playerID]
	m.mu.Unlock()
	return ok && time.Now().Before(deadline), nil
}

func (m *Memory) Close() error {
	m.closeOnce.Do(func() { close(m.done) })
	return nil
}

func (m *Memory) sweep() {
	interval := m.ttl / 2
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-m.done:
			return
		case now := <-ticker.C:
			var expired []string
			m.mu.Lock()
			for id, deadline := range m.deadlines {
				if now.After(deadline) {
					delete(m.deadlines, id)
					expired = append(expired, id)
				}
			}
			m.mu.Unlock()

			if m.onExpire != nil {
				for _, id := range expired {
					m.onExpire(id)
				}
			}
		}
	}
}
