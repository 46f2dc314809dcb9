package service

import (
	"context"
	"sync"
	"time"

	"github.com/forum-thread-engine/internal/models"
	"github.com/forum-thread-engine/internal/thread"
	"github.com/rs/zerolog"
)

// view is the in-memory page state of one viewer on one post. Every field
// below mu is guarded by it.
type view struct {
	mu          sync.Mutex
	post        models.Post
	tree        thread.Tree
	attachments []models.Material
	version     uint64
	stale       bool
}

// snapshot copies the view for a response. The tree is immutable and shared.
func (v *view) snapshot(maxDepth int) *ThreadView {
	return &ThreadView{
		Post:        v.post,
		Comments:    v.tree,
		Attachments: v.attachments,
		MaxDepth:    maxDepth,
		Version:     v.version,
	}
}

type storeEntry struct {
	view     *view
	lastUsed time.Time
}

// viewStore keeps thread views and evicts the idle ones
type viewStore struct {
	ttl      time.Duration
	maxViews int
	every    time.Duration
	metrics  *Metrics
	log      zerolog.Logger
	now      func() time.Time

	entriesMu sync.Mutex
	entries   map[string]*storeEntry

	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	running bool
	mu      sync.Mutex
}

func newViewStore(ttl time.Duration, maxViews int, every time.Duration, metrics *Metrics, log zerolog.Logger) *viewStore {
	if every <= 0 {
		every = time.Minute
	}
	return &viewStore{
		ttl:      ttl,
		maxViews: maxViews,
		every:    every,
		metrics:  metrics,
		log:      log.With().Str("component", "view_store").Logger(),
		now:      time.Now,
		entries:  make(map[string]*storeEntry),
	}
}

func viewKey(viewer, postID string) string {
	return viewer + "/" + postID
}

// get returns the view under key and marks it used
func (s *viewStore) get(key string) *view {
	s.entriesMu.Lock()
	defer s.entriesMu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		return nil
	}
	e.lastUsed = s.now()
	return e.view
}

// put stores v under key, replacing any previous view
func (s *viewStore) put(key string, v *view) {
	s.entriesMu.Lock()
	defer s.entriesMu.Unlock()

	s.entries[key] = &storeEntry{view: v, lastUsed: s.now()}
	if s.maxViews > 0 {
		for len(s.entries) > s.maxViews {
			s.evictOldestLocked()
		}
	}
	s.metrics.Views.Set(float64(len(s.entries)))
}

func (s *viewStore) len() int {
	s.entriesMu.Lock()
	defer s.entriesMu.Unlock()
	return len(s.entries)
}

func (s *viewStore) evictOldestLocked() {
	var oldestKey string
	var oldest time.Time
	for k, e := range s.entries {
		if oldestKey == "" || e.lastUsed.Before(oldest) {
			oldestKey, oldest = k, e.lastUsed
		}
	}
	delete(s.entries, oldestKey)
	s.metrics.Evicted.Inc()
}

// sweep drops views idle longer than the TTL
func (s *viewStore) sweep() int {
	s.entriesMu.Lock()
	defer s.entriesMu.Unlock()

	cutoff := s.now().Add(-s.ttl)
	evicted := 0
	for k, e := range s.entries {
		if e.lastUsed.Before(cutoff) {
			delete(s.entries, k)
			evicted++
		}
	}
	s.metrics.Evicted.Add(float64(evicted))
	s.metrics.Views.Set(float64(len(s.entries)))
	return evicted
}

// StartJanitor launches the eviction loop. It returns once the loop is
// registered, so a following StopJanitor always stops it.
func (s *viewStore) StartJanitor(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return
	}
	s.running = true
	s.ctx, s.cancel = context.WithCancel(ctx)

	s.wg.Add(1)
	go s.runJanitor()

	s.log.Info().Dur("ttl", s.ttl).Dur("interval", s.every).Msg("View janitor started")
}

func (s *viewStore) runJanitor() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.every)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			s.log.Info().Msg("View janitor stopping")
			return
		case <-ticker.C:
			if n := s.sweep(); n > 0 {
				s.log.Debug().Int("evicted", n).Msg("Evicted idle thread views")
			}
		}
	}
}

// StopJanitor stops the eviction loop and waits for it to exit
func (s *viewStore) StopJanitor() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}

	s.cancel()
	s.wg.Wait()
	s.running = false
	s.log.Info().Msg("View janitor stopped")
}
