package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/wpmcp/tokenbroker/errors"
	"github.com/wpmcp/tokenbroker/generates"
	"github.com/wpmcp/tokenbroker/models"
	"github.com/wpmcp/tokenbroker/store"
	"github.com/wpmcp/tokenbroker/wordpress"
)

// Server orchestrates the OAuth flow: authorize -> callback -> token. It is
// the only owner of the pending, session and code stores; the access guard
// reads the session store but never mutates it.
type Server struct {
	Config *AppConfig

	logger    *slog.Logger
	sessions  *store.SessionTokenStore
	codes     *store.AuthorizationCodeStore
	pending   store.PendingAuthorizationStore
	events    *store.AuthEventStore // nil when the history is disabled
	wordpress *wordpress.Client
	generate  *generates.BrokerAccessGenerate
	limiter   *rateLimiter
}

// NewServer wires the flow controller. events may be nil.
func NewServer(
	cfg *AppConfig,
	logger *slog.Logger,
	sessions *store.SessionTokenStore,
	codes *store.AuthorizationCodeStore,
	pending store.PendingAuthorizationStore,
	events *store.AuthEventStore,
	wp *wordpress.Client,
) (*Server, error) {
	generate, err := generates.NewBrokerAccessGenerate([]byte(cfg.SigningSecret), cfg.SessionTTL)
	if err != nil {
		return nil, err
	}

	return &Server{
		Config:    cfg,
		logger:    logger,
		sessions:  sessions,
		codes:     codes,
		pending:   pending,
		events:    events,
		wordpress: wp,
		generate:  generate,
		limiter:   newRateLimiter(guardMaxRequests, guardWindow),
	}, nil
}

// oauthError translates a flow error to its JSON body and status code.
func oauthError(c *gin.Context, err error) {
	data, status := errors.Data(err)
	c.JSON(status, data)
}

// recordEvent appends to the auth history when it is enabled. Failures are
// logged and never fail the request.
func (s *Server) recordEvent(ctx context.Context, event models.AuthEvent) {
	if s.events == nil {
		return
	}
	if err := s.events.Record(ctx, event); err != nil {
		s.logger.Warn("failed to record auth event", "type", event.Type, "error", err)
	}
}

// redact shortens a sensitive value for logging. Full token values never
// reach the log.
func redact(v string) string {
	if len(v) <= 6 {
		return "***"
	}
	return v[:6] + "..."
}

// HandleHealth reports liveness only.
func (s *Server) HandleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "time": time.Now().UTC().Format(time.RFC3339)})
}
