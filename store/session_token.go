package store

import (
	"log/slog"

	"github.com/wpmcp/tokenbroker/models"
)

// SessionTokenStore persists the broker's sessions (upstream WordPress.com
// tokens plus metadata) in a file-backed collection. Sessions are immutable
// after creation; expired sessions become invisible to readers on the next
// load.
type SessionTokenStore struct {
	col *fileCollection[models.SessionToken]
}

// NewSessionTokenStore opens (or creates) the session collection at path.
func NewSessionTokenStore(path string, log *slog.Logger) (*SessionTokenStore, error) {
	col, err := newFileCollection[models.SessionToken](path, log)
	if err != nil {
		return nil, err
	}
	return &SessionTokenStore{col: col}, nil
}

// Put persists a session.
func (s *SessionTokenStore) Put(session models.SessionToken) error {
	return s.col.mutate(func(entries map[string]models.SessionToken) {
		entries[session.ID] = session
	})
}

// Get returns the session with the given id, if present and not expired.
func (s *SessionTokenStore) Get(id string) (models.SessionToken, bool) {
	session, ok := s.col.snapshot()[id]
	return session, ok
}

// LatestValid returns the non-expired session with the greatest expiry. Ties
// are broken by id so the result is stable.
func (s *SessionTokenStore) LatestValid() (models.SessionToken, bool) {
	var (
		best  models.SessionToken
		found bool
	)
	for _, session := range s.col.snapshot() {
		if !found {
			best, found = session, true
			continue
		}
		if session.ExpiresAt.After(best.ExpiresAt) ||
			(session.ExpiresAt.Equal(best.ExpiresAt) && session.ID < best.ID) {
			best = session
		}
	}
	return best, found
}
