package groups

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// Fetcher retrieves the live group list from the upstream core API.
type Fetcher interface {
	FetchGroups(ctx context.Context) ([]Group, error)
}

// FallbackObserver is notified whenever the static table is served in place
// of the upstream list. Wired to the prometheus fallback counter.
type FallbackObserver interface {
	IncrementGroupFallbacks()
}

// Source caches the upstream group list with a TTL. Concurrent cache misses
// are collapsed to a single upstream call via singleflight.
type Source struct {
	fetcher  Fetcher
	logger   *slog.Logger
	observer FallbackObserver
	ttl      time.Duration
	now      func() time.Time

	sf singleflight.Group

	mu        sync.RWMutex
	cached    []Group
	fetchedAt time.Time
}

// SourceOption configures a Source.
type SourceOption func(*Source)

// WithClock injects the time source, for tests.
func WithClock(now func() time.Time) SourceOption {
	return func(s *Source) { s.now = now }
}

// WithFallbackObserver wires the fallback metric.
func WithFallbackObserver(o FallbackObserver) SourceOption {
	return func(s *Source) { s.observer = o }
}

func NewSource(fetcher Fetcher, ttl time.Duration, logger *slog.Logger, opts ...SourceOption) *Source {
	s := &Source{
		fetcher: fetcher,
		logger:  logger,
		ttl:     ttl,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// List returns the current group list. Fetch failures and empty results are a
// silent degrade to the static table: logged for diagnostics, never surfaced
// to the caller as an error.
func (s *Source) List(ctx context.Context) []Group {
	if cached, ok := s.fresh(); ok {
		return cached
	}

	result, err, _ := s.sf.Do("groups", func() (any, error) {
		// Re-check under singleflight: another caller may have refreshed
		// the cache while this one waited.
		if cached, ok := s.fresh(); ok {
			return cached, nil
		}

		fetched, err := s.fetcher.FetchGroups(ctx)
		if err != nil {
			return nil, err
		}
		if len(fetched) == 0 {
			s.logger.WarnContext(ctx, "upstream returned no groups, serving static table")
			return nil, errEmptyList
		}

		s.mu.Lock()
		s.cached = fetched
		s.fetchedAt = s.now()
		s.mu.Unlock()
		return fetched, nil
	})
	if err != nil {
		s.logger.WarnContext(ctx, "group list unavailable, serving static table", "error", err)
		if s.observer != nil {
			s.observer.IncrementGroupFallbacks()
		}
		// Stale data beats the static table when we have it.
		s.mu.RLock()
		stale := s.cached
		s.mu.RUnlock()
		if len(stale) > 0 {
			return stale
		}
		return Static()
	}
	return result.([]Group)
}

// Resolve maps an identifier to a display name using the current list.
func (s *Source) Resolve(ctx context.Context, id string) string {
	return ResolveName(s.List(ctx), id)
}

func (s *Source) fresh() ([]Group, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.cached) == 0 {
		return nil, false
	}
	if s.now().Sub(s.fetchedAt) > s.ttl {
		return nil, false
	}
	return s.cached, true
}

var errEmptyList = errEmpty{}

type errEmpty struct{}

func (errEmpty) Error() string { return "empty group list" }
