package store

import (
	"context"
	"sync"
	"time"

	"github.com/wpmcp/tokenbroker/models"
)

// SweepInterval is how often the in-memory registry drops expired entries.
// The sweep only bounds memory; Consume filters on expiry regardless.
const SweepInterval = time.Minute

// PendingAuthorizationStore guards the redirect round-trip of the OAuth flow.
// Register inserts state created by /oauth/authorize; Consume is an atomic
// get-and-delete performed by the callback. A consumed or expired state never
// resolves again.
type PendingAuthorizationStore interface {
	Register(ctx context.Context, pa models.PendingAuthorization) error
	Consume(ctx context.Context, state string) (models.PendingAuthorization, bool, error)
}

// MemoryPendingStore is the in-process implementation, the default for the
// single-machine deployment the broker targets.
type MemoryPendingStore struct {
	mu      sync.Mutex
	entries map[string]models.PendingAuthorization
	done    chan struct{}
	once    sync.Once
}

// NewMemoryPendingStore creates the store and starts the background sweep.
func NewMemoryPendingStore() *MemoryPendingStore {
	s := &MemoryPendingStore{
		entries: make(map[string]models.PendingAuthorization),
		done:    make(chan struct{}),
	}
	go s.sweep()
	return s
}

// Register inserts the pending authorization. A colliding state is silently
// overwritten: state is caller-generated high-entropy randomness and a
// collision is not a correctness concern.
func (s *MemoryPendingStore) Register(_ context.Context, pa models.PendingAuthorization) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[pa.State] = pa
	return nil
}

// Consume atomically removes and returns the pending authorization for state.
// Expired entries are treated identically to absent ones.
func (s *MemoryPendingStore) Consume(_ context.Context, state string) (models.PendingAuthorization, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pa, ok := s.entries[state]
	if !ok {
		return models.PendingAuthorization{}, false, nil
	}
	delete(s.entries, state)
	if pa.Expired(time.Now()) {
		return models.PendingAuthorization{}, false, nil
	}
	return pa, true, nil
}

// Close stops the background sweep.
func (s *MemoryPendingStore) Close() {
	s.once.Do(func() { close(s.done) })
}

func (s *MemoryPendingStore) sweep() {
	ticker := time.NewTicker(SweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-s.done:
			return
		case now := <-ticker.C:
			s.mu.Lock()
			for state, pa := range s.entries {
				if pa.Expired(now) {
					delete(s.entries, state)
				}
			}
			s.mu.Unlock()
		}
	}
}
