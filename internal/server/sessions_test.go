package server

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/goliatone/go-healthform/pkg/controller"
	"github.com/goliatone/go-healthform/pkg/model"
	"github.com/goliatone/go-healthform/pkg/validation"
)

type countingSessions struct {
	mu             sync.Mutex
	opened, closed int
}

func (c *countingSessions) SessionOpened() { c.mu.Lock(); c.opened++; c.mu.Unlock() }
func (c *countingSessions) SessionClosed() { c.mu.Lock(); c.closed++; c.mu.Unlock() }

type blockingSubmitter struct{ release chan struct{} }

func (b blockingSubmitter) Submit(ctx context.Context, _ *validation.Record) (model.SubmissionResult, error) {
	select {
	case <-b.release:
	case <-ctx.Done():
	}
	return model.SubmissionResult{}, nil
}

func TestStore_EvictsIdleSessions(t *testing.T) {
	counter := &countingSessions{}
	store := NewStore(time.Minute, counter, nil)
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	oldID := store.Create(controller.New(model.Default(), nil))
	now = now.Add(45 * time.Second)
	freshID := store.Create(controller.New(model.Default(), nil))

	now = now.Add(30 * time.Second)
	assert.Equal(t, 1, store.Evict())

	_, ok := store.Get(oldID)
	assert.False(t, ok)
	_, ok = store.Get(freshID)
	assert.True(t, ok)
	assert.Equal(t, 2, counter.opened)
	assert.Equal(t, 1, counter.closed)
}

func TestStore_KeepsPendingSessions(t *testing.T) {
	release := make(chan struct{})
	defer close(release)

	store := NewStore(time.Minute, nil, nil)
	now := time.Now()
	store.now = func() time.Time { return now }

	form := controller.New(model.Default(), blockingSubmitter{release: release}, controller.WithValues(model.FormValues{
		"height": "170", "weight": "70", "ap_hi": "120", "ap_lo": "80", "age_years": "45",
		"gender": "1", "cholesterol": "1", "gluc": "1", "smoke": "0", "alco": "0", "active": "1",
	}))
	state := form.Submit(context.Background())
	assert.Equal(t, controller.StatusPending, state.Status)
	store.Create(form)

	now = now.Add(time.Hour)
	assert.Equal(t, 0, store.Evict())
	assert.Equal(t, 1, store.Len())
}

func TestStore_ZeroTTLKeepsEverything(t *testing.T) {
	store := NewStore(0, nil, nil)
	store.Create(controller.New(model.Default(), nil))
	assert.Equal(t, 0, store.Evict())
	assert.Equal(t, 1, store.Len())
}
