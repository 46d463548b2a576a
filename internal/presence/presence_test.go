package presence

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestMemoryConnectDisconnect(t *testing.T) {
	m := NewMemory(time.Minute, nil)
	defer m.Close()
	ctx := context.Background()

	ok, err := m.IsConnected(ctx, "p1")
	if err != nil {
		t.Fatalf("IsConnected: %v", err)
	}
	if ok {
		t.Error("expected p1 disconnected before Connect")
	}

	if err := m.Connect(ctx, "p1"); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	ok, _ = m.IsConnected(ctx, "p1")
	if !ok {
		t.Error("expected p1 connected after Connect")
	}

	if err := m.Disconnect(ctx, "p1"); err != nil {
		t.Fatalf("Disconnect: %v", err)
	}
	ok, _ = m.IsConnected(ctx, "p1")
	if ok {
		t.Error("expected p1 disconnected after Disconnect")
	}
}

func TestMemoryTTLExpiry(t *testing.T) {
	m := NewMemory(30*time.Millisecond, nil)
	defer m.Close()
	ctx := context.Background()

	m.Connect(ctx, "p1")
	time.Sleep(60 * time.Millisecond)

	// The deadline has passed even if the janitor has not swept yet.
	ok, _ := m.IsConnected(ctx, "p1")
	if ok {
		t.Error("expected p1 disconnected after TTL")
	}
}

func TestMemoryHeartbeatExtends(t *testing.T) {
	m := NewMemory(80*time.Millisecond, nil)
	defer m.Close()
	ctx := context.Background()

	m.Connect(ctx, "p1")
	for i := 0; i < 4; i++ {
		time.Sleep(40 * time.Millisecond)
		if err := m.Heartbeat(ctx, "p1"); err != nil {
			t.Fatalf("Heartbeat: %v", err)
		}
	}

	// 160 ms past the original deadline, but heartbeats kept it alive.
	ok, _ := m.IsConnected(ctx, "p1")
	if !ok {
		t.Error("expected p1 still connected with heartbeats")
	}
}

func TestMemoryOnExpireFires(t *testing.T) {
	var mu sync.Mutex
	expired := map[string]bool{}

	m := NewMemory(50*time.Millisecond, func(playerID string) {
		mu.Lock()
		expired[playerID] = true
		mu.Unlock()
	})
	defer m.Close()
	ctx := context.Background()

	m.Connect(ctx, "dead")
	m.Connect(ctx, "alive")

	// The janitor sweeps at 1s minimum; keep one session alive across it.
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		m.Heartbeat(ctx, "alive")
		mu.Lock()
		done := expired["dead"]
		mu.Unlock()
		if done {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}

	mu.Lock()
	defer mu.Unlock()
	if !expired["dead"] {
		t.Error("expected onExpire for the silent session")
	}
	if expired["alive"] {
		t.Error("onExpire must not fire for a heartbeating session")
	}
}

func TestMemoryCloseIdempotent(t *testing.T) {
	m := NewMemory(time.Second, nil)
	if err := m.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := m.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
}

func TestMemoryDisconnectSkipsOnExpire(t *testing.T) {
	fired := make(chan string, 1)
	m := NewMemory(50*time.Millisecond, func(playerID string) {
		fired <- playerID
	})
	defer m.Close()
	ctx := context.Background()

	m.Connect(ctx, "p1")
	m.Disconnect(ctx, "p1")

	select {
	case id := <-fired:
		t.Errorf("unexpected onExpire for %s after explicit disconnect", id)
	case <-time.After(1500 * time.Millisecond):
	}
}
