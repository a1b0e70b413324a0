package server

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/goliatone/go-healthform/pkg/controller"
)

// SessionMetrics tracks how many sessions the store holds.
type SessionMetrics interface {
	SessionOpened()
	SessionClosed()
}

type session struct {
	form    *controller.Controller
	touched time.Time
}

// Store keeps one form controller per browser flow, in memory only. Sessions
// idle for longer than ttl are dropped by Evict unless a request is in flight.
type Store struct {
	mu      sync.Mutex
	items   map[string]*session
	ttl     time.Duration
	now     func() time.Time
	metrics SessionMetrics
	logger  *zap.Logger
}

// NewStore builds a Store. A zero ttl keeps sessions forever.
func NewStore(ttl time.Duration, metrics SessionMetrics, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		items:   make(map[string]*session),
		ttl:     ttl,
		now:     time.Now,
		metrics: metrics,
		logger:  logger,
	}
}

// Create stores form under a new random id.
func (s *Store) Create(form *controller.Controller) string {
	id := uuid.NewString()

	s.mu.Lock()
	s.items[id] = &session{form: form, touched: s.now()}
	s.mu.Unlock()

	if s.metrics != nil {
		s.metrics.SessionOpened()
	}
	return id
}

// Get returns the controller for id and refreshes its expiry.
func (s *Store) Get(id string) (*controller.Controller, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.items[id]
	if !ok {
		return nil, false
	}
	item.touched = s.now()
	return item.form, true
}

// Len reports the number of live sessions.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// Evict drops expired sessions and returns how many were removed.
func (s *Store) Evict() int {
	if s.ttl <= 0 {
		return 0
	}
	cutoff := s.now().Add(-s.ttl)

	s.mu.Lock()
	var removed int
	for id, item := range s.items {
		if item.touched.After(cutoff) {
			continue
		}
		if item.form.State().Status == controller.StatusPending {
			continue
		}
		delete(s.items, id)
		removed++
	}
	s.mu.Unlock()

	if s.metrics != nil {
		for i := 0; i < removed; i++ {
			s.metrics.SessionClosed()
		}
	}
	if removed > 0 {
		s.logger.Debug("sessions evicted", zap.Int("count", removed))
	}
	return removed
}

// RunJanitor evicts on every interval tick until ctx ends.
func (s *Store) RunJanitor(ctx context.Context, interval time.Duration) {
	if s.ttl <= 0 || interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Evict()
		}
	}
}
