package store

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/wpmcp/tokenbroker/models"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestSessionStore(t *testing.T) (*SessionTokenStore, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tokens.json")
	s, err := NewSessionTokenStore(path, testLogger())
	if err != nil {
		t.Fatalf("NewSessionTokenStore: %v", err)
	}
	return s, path
}

func session(id string, expiresIn time.Duration) models.SessionToken {
	now := time.Now()
	return models.SessionToken{
		ID:          id,
		AccessToken: "tok-" + id,
		UserInfo:    models.UserInfo{BlogID: "42", BlogURL: "http://example.com"},
		CreatedAt:   now,
		ExpiresAt:   now.Add(expiresIn),
	}
}

func TestSessionPutGet(t *testing.T) {
	s, _ := newTestSessionStore(t)

	want := session("a", time.Hour)
	if err := s.Put(want); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, ok := s.Get("a")
	if !ok {
		t.Fatal("session not found after Put")
	}
	if got.AccessToken != want.AccessToken || got.UserInfo.BlogID != "42" {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}

func TestSessionSurvivesReopen(t *testing.T) {
	s, path := newTestSessionStore(t)
	if err := s.Put(session("a", time.Hour)); err != nil {
		t.Fatalf("Put: %v", err)
	}

	reopened, err := NewSessionTokenStore(path, testLogger())
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if _, ok := reopened.Get("a"); !ok {
		t.Fatal("session lost across reopen")
	}
}

func TestExpiredSessionInvisible(t *testing.T) {
	s, _ := newTestSessionStore(t)
	if err := s.Put(session("dead", -time.Minute)); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if _, ok := s.Get("dead"); ok {
		t.Fatal("expired session returned by Get")
	}
	if _, ok := s.LatestValid(); ok {
		t.Fatal("expired session returned by LatestValid")
	}
}

func TestLatestValid(t *testing.T) {
	s, _ := newTestSessionStore(t)
	for _, sess := range []models.SessionToken{
		session("old", 10*time.Minute),
		session("new", time.Hour),
		session("expired", -time.Minute),
	} {
		if err := s.Put(sess); err != nil {
			t.Fatalf("Put: %v", err)
		}
	}

	got, ok := s.LatestValid()
	if !ok {
		t.Fatal("no session returned")
	}
	if got.ID != "new" {
		t.Fatalf("LatestValid = %q, want %q", got.ID, "new")
	}
}

func TestLatestValidTieBrokenByID(t *testing.T) {
	s, _ := newTestSessionStore(t)
	exp := time.Now().Add(time.Hour).Truncate(time.Second)

	a := session("a", 0)
	a.ExpiresAt = exp
	b := session("b", 0)
	b.ExpiresAt = exp
	if err := s.Put(b); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := s.Put(a); err != nil {
		t.Fatalf("Put: %v", err)
	}

	for i := 0; i < 5; i++ {
		got, ok := s.LatestValid()
		if !ok || got.ID != "a" {
			t.Fatalf("tie-break not stable: got %q ok=%v", got.ID, ok)
		}
	}
}

func TestCorruptStoreTreatedAsEmpty(t *testing.T) {
	s, path := newTestSessionStore(t)
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, ok := s.Get("anything"); ok {
		t.Fatal("corrupt store returned an entry")
	}
	// A mutation on a corrupt store starts from empty and succeeds.
	if err := s.Put(session("fresh", time.Hour)); err != nil {
		t.Fatalf("Put after corruption: %v", err)
	}
	if _, ok := s.Get("fresh"); !ok {
		t.Fatal("session lost after recovering from corruption")
	}
}
