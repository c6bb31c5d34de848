package store

import (
	"log/slog"

	"github.com/wpmcp/tokenbroker/models"
)

// AuthorizationCodeStore persists the broker's single-use internal codes.
// Deletion happens on successful redemption; expired codes become invisible
// on the next load.
type AuthorizationCodeStore struct {
	col *fileCollection[models.AuthorizationCode]
}

// NewAuthorizationCodeStore opens (or creates) the code collection at path.
func NewAuthorizationCodeStore(path string, log *slog.Logger) (*AuthorizationCodeStore, error) {
	col, err := newFileCollection[models.AuthorizationCode](path, log)
	if err != nil {
		return nil, err
	}
	return &AuthorizationCodeStore{col: col}, nil
}

// Put persists a code.
func (s *AuthorizationCodeStore) Put(code models.AuthorizationCode) error {
	return s.col.mutate(func(entries map[string]models.AuthorizationCode) {
		entries[code.Code] = code
	})
}

// Get returns the code, if present and not expired. The code is not consumed;
// redemption deletes it separately only after the PKCE verifier matched, so a
// mismatched attempt leaves the code redeemable by the legitimate holder.
func (s *AuthorizationCodeStore) Get(code string) (models.AuthorizationCode, bool) {
	ac, ok := s.col.snapshot()[code]
	return ac, ok
}

// Delete removes a code. Deleting an absent code is a no-op.
func (s *AuthorizationCodeStore) Delete(code string) error {
	return s.col.mutate(func(entries map[string]models.AuthorizationCode) {
		delete(entries, code)
	})
}
