package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/pokepacks/pokepacks/internal/domain/catalog"
)

// DefaultCheckInterval is how often the reset job looks at the clock.
const DefaultCheckInterval = time.Minute

var ErrNotStocked = errors.New("store has not been stocked yet")

// SetLister provides every set that may appear in the store.
type SetLister interface {
	ListSets(ctx context.Context) ([]catalog.Set, error)
}

// Store holds the daily rotation and rebuilds it at UTC midnight.
type Store struct {
	sets SetLister
	now  func() time.Time

	mu      sync.RWMutex
	rng     *rand.Rand
	current Rotation
}

// New returns an empty store. A nil source seeds a fresh PCG; a nil now uses
// the wall clock.
func New(sets SetLister, src rand.Source, now func() time.Time) *Store {
	if src == nil {
		src = rand.NewPCG(rand.Uint64(), rand.Uint64())
	}
	if now == nil {
		now = time.Now
	}
	return &Store{sets: sets, rng: rand.New(src), now: now}
}

// Current returns today's rotation.
func (s *Store) Current() (Rotation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.current.ResetAt.IsZero() {
		return Rotation{}, ErrNotStocked
	}
	return s.current, nil
}

// Restock builds a new rotation from the full set list.
func (s *Store) Restock(ctx context.Context) (Rotation, error) {
	sets, err := s.sets.ListSets(ctx)
	if err != nil {
		return Rotation{}, fmt.Errorf("failed to list sets: %w", err)
	}

	s.mu.Lock()
	rotation := NewRotation(sets, s.now(), s.rng)
	s.current = rotation
	s.mu.Unlock()

	slog.Info("Store restocked",
		slog.String("type", "sys"),
		slog.Int("offers", len(rotation.Offers)),
		slog.Time("next_reset", rotation.ResetAt),
	)
	return rotation, nil
}

// due reports whether the rotation is missing or past its reset time.
func (s *Store) due() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.ResetAt.IsZero() || !s.now().Before(s.current.ResetAt)
}

// CheckReset restocks when the reset time has passed. It reports whether it did.
func (s *Store) CheckReset(ctx context.Context) (bool, error) {
	if !s.due() {
		return false, nil
	}
	if _, err := s.Restock(ctx); err != nil {
		return false, err
	}
	return true, nil
}

// StartResetJob checks for the daily reset every interval until ctx is done.
func (s *Store) StartResetJob(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultCheckInterval
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := s.CheckReset(ctx); err != nil {
					slog.Error("Store reset failed",
						slog.String("type", "sys"),
						slog.Any("error", err),
					)
				}
			}
		}
	}()
}
