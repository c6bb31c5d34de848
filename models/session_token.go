package models

import "time"

// DefaultSessionTTL is the policy duration an upstream WordPress.com token is
// treated as valid, independent of the upstream's own stated lifetime. The
// broker performs no refresh exchange; when a session expires the human goes
// through the consent flow again.
const DefaultSessionTTL = time.Hour

// UserInfo identifies the WordPress.com account/site an upstream token was
// issued for.
type UserInfo struct {
	BlogID  string `json:"blog_id"`
	BlogURL string `json:"blog_url"`
}

// SessionToken pairs an upstream WordPress.com access token with its expiry
// and user metadata. Created once per successful OAuth callback and immutable
// afterwards. The AccessToken value is sensitive and must never be logged in
// full.
type SessionToken struct {
	ID          string    `json:"id"`
	AccessToken string    `json:"access_token"`
	Scope       string    `json:"scope,omitempty"`
	UserInfo    UserInfo  `json:"user_info"`
	CreatedAt   time.Time `json:"created_at"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// Expired reports whether the session is past its expiry at now.
func (st SessionToken) Expired(now time.Time) bool {
	return now.After(st.ExpiresAt)
}
