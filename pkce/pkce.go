// Package pkce implements the RFC 7636 S256 challenge/verifier relationship.
package pkce

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
)

// MethodS256 is the only supported code_challenge_method.
const MethodS256 = "S256"

var (
	ErrInvalidCodeChallenge       = errors.New("invalid code challenge")
	ErrUnsupportedChallengeMethod = errors.New("unsupported code challenge method")
)

// Challenge computes base64url(sha256(verifier)).
func Challenge(verifier string) string {
	sum := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

// Verify recomputes the challenge from verifier and compares it to challenge
// in constant time.
func Verify(verifier, challenge string) bool {
	if verifier == "" || challenge == "" {
		return false
	}
	computed := Challenge(verifier)
	return subtle.ConstantTimeCompare([]byte(computed), []byte(challenge)) == 1
}

// ValidateChallenge checks the PKCE parameters of an authorize request. Only
// the S256 method is accepted; anything else fails before any state is
// registered.
func ValidateChallenge(codeChallenge, codeChallengeMethod string) error {
	if codeChallenge == "" {
		return fmt.Errorf("%w: code_challenge is required", ErrInvalidCodeChallenge)
	}
	if codeChallengeMethod == "" {
		return fmt.Errorf("%w: code_challenge_method is required", ErrInvalidCodeChallenge)
	}
	if codeChallengeMethod != MethodS256 {
		return fmt.Errorf("%w: %s", ErrUnsupportedChallengeMethod, codeChallengeMethod)
	}
	// base64url(sha256) is 43 characters; RFC 7636 allows up to 128.
	if len(codeChallenge) < 43 || len(codeChallenge) > 128 {
		return fmt.Errorf("%w: invalid code_challenge length", ErrInvalidCodeChallenge)
	}
	return nil
}
