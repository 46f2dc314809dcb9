package service

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
)

func newTestStore(ttl time.Duration, maxViews int) (*viewStore, *time.Time) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	s := newViewStore(ttl, maxViews, 10*time.Millisecond, NewMetrics(prometheus.NewRegistry()), zerolog.Nop())
	s.now = func() time.Time { return now }
	return s, &now
}

func TestViewStore_Sweep(t *testing.T) {
	s, now := newTestStore(time.Minute, 0)

	s.put("u1/p1", &view{})
	*now = now.Add(30 * time.Second)
	s.put("u1/p2", &view{})
	*now = now.Add(45 * time.Second)

	if n := s.sweep(); n != 1 {
		t.Errorf("sweep() = %d, want 1", n)
	}
	if s.get("u1/p1") != nil {
		t.Error("idle view survived the sweep")
	}
	if s.get("u1/p2") == nil {
		t.Error("recent view was evicted")
	}
	if got := testutil.ToFloat64(s.metrics.Views); got != 1 {
		t.Errorf("views gauge = %v, want 1", got)
	}
}

func TestViewStore_GetRefreshesLastUsed(t *testing.T) {
	s, now := newTestStore(time.Minute, 0)

	s.put("k", &view{})
	*now = now.Add(50 * time.Second)
	s.get("k")
	*now = now.Add(50 * time.Second)

	if n := s.sweep(); n != 0 {
		t.Errorf("sweep() = %d, want 0", n)
	}
}

func TestViewStore_MaxViewsEvictsLeastRecentlyUsed(t *testing.T) {
	s, now := newTestStore(time.Hour, 2)

	s.put("a", &view{})
	*now = now.Add(time.Second)
	s.put("b", &view{})
	*now = now.Add(time.Second)
	s.get("a")
	*now = now.Add(time.Second)
	s.put("c", &view{})

	if s.len() != 2 {
		t.Fatalf("len() = %d, want 2", s.len())
	}
	if s.get("b") != nil {
		t.Error("least recently used view was kept")
	}
	if s.get("a") == nil || s.get("c") == nil {
		t.Error("recent views were evicted")
	}
	if got := testutil.ToFloat64(s.metrics.Evicted); got != 1 {
		t.Errorf("evicted = %v, want 1", got)
	}
}

func TestViewStore_JanitorStartStop(t *testing.T) {
	s, _ := newTestStore(time.Minute, 0)

	s.StartJanitor(context.Background())
	s.StartJanitor(context.Background())

	stopped := make(chan struct{})
	go func() {
		s.StopJanitor()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("janitor did not stop")
	}

	s.mu.Lock()
	running := s.running
	s.mu.Unlock()
	if running {
		t.Error("janitor still marked running after stop")
	}

	// stopping twice is a no-op
	s.StopJanitor()
}

func TestViewStore_JanitorSweeps(t *testing.T) {
	s, now := newTestStore(time.Minute, 0)
	s.put("idle", &view{})
	*now = now.Add(2 * time.Minute)

	s.StartJanitor(context.Background())
	defer s.StopJanitor()

	deadline := time.After(time.Second)
	for s.len() != 0 {
		select {
		case <-deadline:
			t.Fatal("janitor never evicted the idle view")
		case <-time.After(5 * time.Millisecond):
		}
	}
}
