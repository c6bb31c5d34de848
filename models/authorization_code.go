package models

import "time"

// DefaultAuthorizationCodeTTL bounds how long a minted code may wait before
// redemption.
const DefaultAuthorizationCodeTTL = 10 * time.Minute

// AuthorizationCode is the broker's internal single-use code, minted at
// callback time alongside a SessionToken and redeemed at /oauth/token. It is
// distinct from the upstream's authorization code. The code carries a copy of
// the PKCE challenge it was bound to at authorize time; redemption requires
// the matching verifier, so a stolen code alone is useless.
type AuthorizationCode struct {
	Code          string    `json:"code"`
	SessionID     string    `json:"session_id"`
	CodeChallenge string    `json:"code_challenge"`
	CreatedAt     time.Time `json:"created_at"`
	ExpiresAt     time.Time `json:"expires_at"`
}

// Expired reports whether the code is past its expiry at now.
func (ac AuthorizationCode) Expired(now time.Time) bool {
	return now.After(ac.ExpiresAt)
}
