package generates

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/wpmcp/tokenbroker/models"
)

var (
	ErrInvalidCredential = errors.New("invalid bearer credential")
	ErrMissingSignedKey  = errors.New("signing key is required")
)

// BrokerClaims are the claims carried by the broker's bearer credential. The
// subject is the session id; blog identity rides along so downstream callers
// can label requests without a validate round-trip.
type BrokerClaims struct {
	jwt.RegisteredClaims
	BlogID  string `json:"blog_id,omitempty"`
	BlogURL string `json:"blog_url,omitempty"`
}

// BrokerAccessGenerate mints and verifies the broker's signed bearer
// credentials (HMAC JWTs over the session identity).
type BrokerAccessGenerate struct {
	SignedKey    []byte
	SignedMethod jwt.SigningMethod
	TTL          time.Duration
}

// NewBrokerAccessGenerate creates a generator signing with HS256.
func NewBrokerAccessGenerate(key []byte, ttl time.Duration) (*BrokerAccessGenerate, error) {
	if len(key) == 0 {
		return nil, ErrMissingSignedKey
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &BrokerAccessGenerate{
		SignedKey:    key,
		SignedMethod: jwt.SigningMethodHS256,
		TTL:          ttl,
	}, nil
}

// Token mints a credential for the given session.
func (g *BrokerAccessGenerate) Token(session models.SessionToken) (string, error) {
	now := time.Now()
	claims := &BrokerClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   session.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(g.TTL)),
			ID:        uuid.NewString(),
		},
		BlogID:  session.UserInfo.BlogID,
		BlogURL: session.UserInfo.BlogURL,
	}

	return jwt.NewWithClaims(g.SignedMethod, claims).SignedString(g.SignedKey)
}

// Parse verifies the signature and expiry of a credential and returns its
// claims. Any decode, signature or expiry failure comes back as
// ErrInvalidCredential; callers report {valid:false} and never propagate the
// raw parse error past the endpoint boundary.
func (g *BrokerAccessGenerate) Parse(credential string) (*BrokerClaims, error) {
	claims := &BrokerClaims{}
	token, err := jwt.ParseWithClaims(credential, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != g.SignedMethod.Alg() {
			return nil, ErrInvalidCredential
		}
		return g.SignedKey, nil
	}, jwt.WithValidMethods([]string{g.SignedMethod.Alg()}))
	if err != nil || !token.Valid {
		return nil, ErrInvalidCredential
	}
	if claims.Subject == "" {
		return nil, ErrInvalidCredential
	}
	return claims, nil
}
