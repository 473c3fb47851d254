// Package store keeps live wizard instances in memory. Drafts are never
// persisted: a restart loses all progress, so there is deliberately no
// database or cache backing here.
package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"coopgate/internal/wizard/models"
	dErrors "coopgate/pkg/domain-errors"
	psync "coopgate/pkg/platform/sync"
)

// Error contract: methods return CodeNotFound domain errors when the wizard
// does not exist, CodeConflict when a submission is already in flight, and
// nil on success.

// InMemoryStore stores wizards in memory. Reads hand out deep copies so
// callers never alias store-owned state; mutations run under a per-wizard
// sharded lock so read-modify-write sequences are atomic without a global
// write lock.
type InMemoryStore struct {
	mu      sync.RWMutex
	wizards map[uuid.UUID]*models.Wizard
	locks   *psync.ShardedMutex
}

// New constructs an empty in-memory wizard store.
func New() *InMemoryStore {
	return &InMemoryStore{
		wizards: make(map[uuid.UUID]*models.Wizard),
		locks:   psync.NewShardedMutex(),
	}
}

func (s *InMemoryStore) Create(_ context.Context, w *models.Wizard) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.wizards[w.ID] = w.Clone()
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, id uuid.UUID) (*models.Wizard, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if w, ok := s.wizards[id]; ok {
		return w.Clone(), nil
	}
	return nil, dErrors.New(dErrors.CodeNotFound, "wizard not found")
}

// Mutate applies fn to the wizard under its per-instance lock and stores the
// result. fn receives a private copy; returning an error discards the change.
func (s *InMemoryStore) Mutate(_ context.Context, id uuid.UUID, fn func(*models.Wizard) error) (*models.Wizard, error) {
	key := id.String()
	s.locks.Lock(key)
	defer s.locks.Unlock(key)

	s.mu.RLock()
	current, ok := s.wizards[id]
	s.mu.RUnlock()
	if !ok {
		return nil, dErrors.New(dErrors.CodeNotFound, "wizard not found")
	}

	updated := current.Clone()
	if err := fn(updated); err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.wizards[id] = updated
	s.mu.Unlock()
	return updated.Clone(), nil
}

// BeginSubmit atomically marks the wizard as submitting. A wizard that is
// already in flight yields CodeConflict so re-entrant submissions are
// rejected without any network call.
func (s *InMemoryStore) BeginSubmit(ctx context.Context, id uuid.UUID) (*models.Wizard, error) {
	return s.Mutate(ctx, id, func(w *models.Wizard) error {
		if w.Submitting {
			return dErrors.New(dErrors.CodeConflict, "a submission is already in progress")
		}
		w.Submitting = true
		return nil
	})
}

// EndSubmit clears the in-flight flag. Called in a deferred cleanup step so
// the flag is released regardless of the submission outcome.
func (s *InMemoryStore) EndSubmit(ctx context.Context, id uuid.UUID) {
	_, _ = s.Mutate(ctx, id, func(w *models.Wizard) error {
		w.Submitting = false
		return nil
	})
}

func (s *InMemoryStore) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.wizards[id]; !ok {
		return dErrors.New(dErrors.CodeNotFound, "wizard not found")
	}
	delete(s.wizards, id)
	return nil
}

// DeleteExpired removes wizards idle past the cutoff. The time parameter is
// injected for testability (no hidden time.Now() calls).
func (s *InMemoryStore) DeleteExpired(_ context.Context, cutoff time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	deleted := 0
	for id, w := range s.wizards {
		if w.UpdatedAt.Before(cutoff) {
			delete(s.wizards, id)
			deleted++
		}
	}
	return deleted, nil
}

// Count reports the number of live wizard instances.
func (s *InMemoryStore) Count(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.wizards)
}
