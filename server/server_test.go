package server

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/wpmcp/tokenbroker/store"
	"github.com/wpmcp/tokenbroker/wordpress"
)

const testBrokerSecret = "test-broker-secret"

func init() {
	gin.SetMode(gin.TestMode)
}

// stubUpstream imitates the WordPress.com token endpoint. Responses are
// swappable per test through the respond field.
type stubUpstream struct {
	ts       *httptest.Server
	respond  func(w http.ResponseWriter, r *http.Request)
	lastForm map[string][]string
}

func newStubUpstream(t *testing.T) *stubUpstream {
	t.Helper()
	u := &stubUpstream{}
	u.respond = func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"access_token": "wp-upstream-token",
			"token_type":   "bearer",
			"scope":        "global",
			"blog_id":      "42",
			"blog_url":     "https://example.wordpress.com",
		})
	}
	u.ts = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.ParseForm()
		u.lastForm = r.Form
		u.respond(w, r)
	}))
	t.Cleanup(u.ts.Close)
	return u
}

func newTestServer(t *testing.T, upstream *stubUpstream) (*Server, *gin.Engine) {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	dir := t.TempDir()

	sessions, err := store.NewSessionTokenStore(filepath.Join(dir, "tokens.json"), logger)
	require.NoError(t, err)
	codes, err := store.NewAuthorizationCodeStore(filepath.Join(dir, "codes.json"), logger)
	require.NoError(t, err)

	pending := store.NewMemoryPendingStore()
	t.Cleanup(pending.Close)

	cfg := &AppConfig{
		ListenAddr:    "127.0.0.1:0",
		DataDir:       dir,
		SigningSecret: "unit-test-signing-secret",
		BrokerSecret:  testBrokerSecret,
		SessionTTL:    time.Hour,
		WordPress: WordPressConfig{
			ClientID:     "client-1",
			ClientSecret: "secret-1",
			RedirectURI:  "http://127.0.0.1:8090/oauth/callback",
			Scope:        "global",
		},
		Pending: PendingConfig{Backend: "memory"},
	}

	wpCfg := wordpress.Config{
		ClientID:     cfg.WordPress.ClientID,
		ClientSecret: cfg.WordPress.ClientSecret,
		RedirectURI:  cfg.WordPress.RedirectURI,
		Scope:        cfg.WordPress.Scope,
	}
	if upstream != nil {
		wpCfg.AuthURL = upstream.ts.URL + "/authorize"
		wpCfg.TokenURL = upstream.ts.URL + "/token"
	}

	s, err := NewServer(cfg, logger, sessions, codes, pending, nil, wordpress.New(wpCfg))
	require.NoError(t, err)
	return s, NewGinEngine(s)
}

// perform runs a request against the router from a loopback peer.
func perform(router *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	req.RemoteAddr = "127.0.0.1:54321"
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}
