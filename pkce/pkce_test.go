package pkce

import (
	"crypto/rand"
	"encoding/base64"
	"strings"
	"testing"
)

func randomVerifier(t *testing.T) string {
	t.Helper()
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		t.Fatalf("rand: %v", err)
	}
	return base64.RawURLEncoding.EncodeToString(b)
}

func TestChallengeRoundtrip(t *testing.T) {
	for i := 0; i < 20; i++ {
		v := randomVerifier(t)
		if !Verify(v, Challenge(v)) {
			t.Fatalf("verifier %q did not match its own challenge", v)
		}
	}
}

func TestVerifyRejectsOtherVerifier(t *testing.T) {
	v1 := randomVerifier(t)
	v2 := randomVerifier(t)
	if v1 == v2 {
		t.Fatal("expected distinct verifiers")
	}
	if Verify(v1, Challenge(v2)) {
		t.Fatal("verifier matched a challenge derived from a different verifier")
	}
}

func TestVerifyEmptyInputs(t *testing.T) {
	v := randomVerifier(t)
	if Verify("", Challenge(v)) {
		t.Fatal("empty verifier must not verify")
	}
	if Verify(v, "") {
		t.Fatal("empty challenge must not verify")
	}
}

func TestValidateChallenge(t *testing.T) {
	valid := Challenge(randomVerifier(t))

	if err := ValidateChallenge(valid, "S256"); err != nil {
		t.Fatalf("valid S256 challenge rejected: %v", err)
	}
	if err := ValidateChallenge("", "S256"); err == nil {
		t.Fatal("missing challenge accepted")
	}
	if err := ValidateChallenge(valid, ""); err == nil {
		t.Fatal("missing method accepted")
	}
	if err := ValidateChallenge(valid, "plain"); err == nil {
		t.Fatal("plain method accepted")
	}
	if err := ValidateChallenge("short", "S256"); err == nil {
		t.Fatal("short challenge accepted")
	}
	if err := ValidateChallenge(strings.Repeat("a", 129), "S256"); err == nil {
		t.Fatal("overlong challenge accepted")
	}
}
