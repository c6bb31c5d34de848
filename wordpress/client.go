// Package wordpress talks to the WordPress.com OAuth2 endpoints.
package wordpress

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/oauth2"
)

// WordPress.com public API OAuth2 endpoints.
const (
	DefaultAuthURL  = "https://public-api.wordpress.com/oauth2/authorize"
	DefaultTokenURL = "https://public-api.wordpress.com/oauth2/token"

	// DefaultTimeout bounds the server-to-server token exchange. A timeout is
	// treated like any other upstream failure.
	DefaultTimeout = 10 * time.Second
)

// Config holds the upstream client registration. AuthURL/TokenURL are
// overridable for tests.
type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
	Scope        string
	AuthURL      string
	TokenURL     string
	Timeout      time.Duration
}

// Token is the result of a successful code exchange. WordPress.com returns
// blog identity as extra fields alongside the standard token response.
type Token struct {
	AccessToken string
	TokenType   string
	Scope       string
	BlogID      string
	BlogURL     string
}

// Client performs the authorization-code grant against WordPress.com.
type Client struct {
	conf    *oauth2.Config
	timeout time.Duration
	http    *http.Client
}

// New builds a client from cfg, applying WordPress.com defaults for anything
// unset.
func New(cfg Config) *Client {
	if cfg.AuthURL == "" {
		cfg.AuthURL = DefaultAuthURL
	}
	if cfg.TokenURL == "" {
		cfg.TokenURL = DefaultTokenURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	conf := &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  cfg.RedirectURI,
		Endpoint: oauth2.Endpoint{
			AuthURL:   cfg.AuthURL,
			TokenURL:  cfg.TokenURL,
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}
	if cfg.Scope != "" {
		conf.Scopes = []string{cfg.Scope}
	}

	return &Client{
		conf:    conf,
		timeout: cfg.Timeout,
		http:    &http.Client{Timeout: cfg.Timeout},
	}
}

// AuthCodeURL returns the consent URL carrying the configured client id,
// redirect URI and scope plus the caller's state.
func (c *Client) AuthCodeURL(state string) string {
	return c.conf.AuthCodeURL(state)
}

// Exchange redeems an upstream authorization code for an access token. The
// call is bounded by the configured timeout; any non-2xx response, malformed
// body or timeout surfaces as an error with no partial result.
func (c *Client) Exchange(ctx context.Context, code string) (Token, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.http)

	tok, err := c.conf.Exchange(ctx, code)
	if err != nil {
		return Token{}, fmt.Errorf("wordpress token exchange: %w", err)
	}
	if tok.AccessToken == "" {
		return Token{}, fmt.Errorf("wordpress token exchange: empty access token in response")
	}

	return Token{
		AccessToken: tok.AccessToken,
		TokenType:   tok.TokenType,
		Scope:       extraString(tok, "scope"),
		BlogID:      extraString(tok, "blog_id"),
		BlogURL:     extraString(tok, "blog_url"),
	}, nil
}

// extraString coerces an extra token-response field to a string. WordPress.com
// sends blog_id as a string, but defend against numeric encodings too.
func extraString(tok *oauth2.Token, key string) string {
	switch v := tok.Extra(key).(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case json.Number:
		return v.String()
	default:
		return ""
	}
}
