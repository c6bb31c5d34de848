package models

import "time"

// Response modes for delivering the internal authorization code back to the
// caller at the end of the callback step.
const (
	// ResponseModeRedirect redirects to the caller-supplied redirect URI
	// (typically a private URI scheme understood by the orchestrating client).
	ResponseModeRedirect = "redirect"
	// ResponseModeWeb renders an HTML page with the code for manual flows.
	ResponseModeWeb = "web"
)

// DefaultPendingAuthorizationTTL is how long an authorization may stay
// pending between the authorize redirect and the upstream callback.
const DefaultPendingAuthorizationTTL = 10 * time.Minute

// PendingAuthorization is the state registered when a client initiates the
// OAuth flow via /oauth/authorize. It is keyed by the client-supplied state
// parameter and consumed exactly once by the upstream callback; an unknown or
// already-consumed state is the CSRF/replay defense.
type PendingAuthorization struct {
	State         string    `json:"state"`
	CodeChallenge string    `json:"code_challenge"`
	RedirectURI   string    `json:"redirect_uri,omitempty"`
	ResponseMode  string    `json:"response_mode,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	ExpiresAt     time.Time `json:"expires_at"`
}

// Expired reports whether the pending authorization is past its expiry at now.
func (pa PendingAuthorization) Expired(now time.Time) bool {
	return now.After(pa.ExpiresAt)
}
