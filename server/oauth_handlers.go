package server

import (
	"crypto/rand"
	"encoding/hex"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/wpmcp/tokenbroker/errors"
	"github.com/wpmcp/tokenbroker/models"
	"github.com/wpmcp/tokenbroker/pkce"
)

// HandleAuthorize is step A of the flow. It validates the PKCE parameters,
// registers the pending state and redirects the browser to the WordPress.com
// consent page. No upstream call happens here and a validation failure leaves
// no state behind.
func (s *Server) HandleAuthorize(c *gin.Context) {
	state := c.Query("state")
	codeChallenge := c.Query("code_challenge")
	codeChallengeMethod := c.Query("code_challenge_method")
	redirectURI := c.Query("redirect_uri")
	responseMode := c.DefaultQuery("response_mode", models.ResponseModeRedirect)

	if state == "" {
		oauthError(c, errors.ErrInvalidRequest)
		return
	}
	if err := pkce.ValidateChallenge(codeChallenge, codeChallengeMethod); err != nil {
		s.logger.Info("authorize rejected", "error", err)
		oauthError(c, errors.ErrInvalidRequest)
		return
	}
	switch responseMode {
	case models.ResponseModeRedirect:
		if redirectURI == "" {
			oauthError(c, errors.ErrInvalidRequest)
			return
		}
		if _, err := url.Parse(redirectURI); err != nil {
			oauthError(c, errors.ErrInvalidRequest)
			return
		}
	case models.ResponseModeWeb:
		// No redirect URI needed; the code is rendered on the success page.
	default:
		oauthError(c, errors.ErrInvalidRequest)
		return
	}

	now := time.Now()
	pa := models.PendingAuthorization{
		State:         state,
		CodeChallenge: codeChallenge,
		RedirectURI:   redirectURI,
		ResponseMode:  responseMode,
		CreatedAt:     now,
		ExpiresAt:     now.Add(models.DefaultPendingAuthorizationTTL),
	}
	if err := s.pending.Register(c.Request.Context(), pa); err != nil {
		s.logger.Error("failed to register pending authorization", "error", err)
		oauthError(c, errors.ErrServerError)
		return
	}

	s.recordEvent(c.Request.Context(), models.AuthEvent{
		Type:  models.EventAuthorizeStarted,
		State: state,
	})
	c.Redirect(http.StatusFound, s.wordpress.AuthCodeURL(state))
}

// HandleCallback is step B. The state is consumed before anything else; an
// unknown or expired state is rejected without touching the network. A failed
// upstream exchange leaves no session behind.
func (s *Server) HandleCallback(c *gin.Context) {
	upstreamCode := c.Query("code")
	state := c.Query("state")

	if upstreamCode == "" || state == "" {
		s.renderErrorPage(c, http.StatusBadRequest, "Missing parameters",
			"The callback did not include a code and state. Restart the authorization from your MCP client.")
		return
	}

	pa, ok, err := s.pending.Consume(c.Request.Context(), state)
	if err != nil {
		s.logger.Error("pending store failure", "error", err)
		s.renderErrorPage(c, http.StatusInternalServerError, "Authorization failed",
			"The broker could not verify this authorization. Restart the flow from your MCP client.")
		return
	}
	if !ok {
		s.logger.Warn("callback with invalid or expired state", "state", redact(state))
		s.recordEvent(c.Request.Context(), models.AuthEvent{
			Type:   models.EventCallbackFailed,
			State:  state,
			Detail: "invalid or expired state",
		})
		s.renderErrorPage(c, http.StatusBadRequest, "Invalid or expired state",
			"This authorization link was already used or has expired. Restart the flow from your MCP client.")
		return
	}

	tok, err := s.wordpress.Exchange(c.Request.Context(), upstreamCode)
	if err != nil {
		// Full detail stays in the log; the page gets a generic failure.
		s.logger.Error("upstream token exchange failed", "error", err)
		s.recordEvent(c.Request.Context(), models.AuthEvent{
			Type:   models.EventCallbackFailed,
			State:  state,
			Detail: "upstream exchange failed",
		})
		s.renderErrorPage(c, http.StatusInternalServerError, "Authentication failed",
			"WordPress.com did not accept the authorization. Restart the flow from your MCP client.")
		return
	}

	now := time.Now()
	session := models.SessionToken{
		ID:          uuid.NewString(),
		AccessToken: tok.AccessToken,
		Scope:       tok.Scope,
		UserInfo: models.UserInfo{
			BlogID:  tok.BlogID,
			BlogURL: tok.BlogURL,
		},
		CreatedAt: now,
		ExpiresAt: now.Add(s.Config.SessionTTL),
	}
	if err := s.sessions.Put(session); err != nil {
		s.logger.Error("failed to persist session", "error", err)
		s.renderErrorPage(c, http.StatusInternalServerError, "Authorization failed",
			"The broker could not store the new session. Restart the flow from your MCP client.")
		return
	}

	authCode := models.AuthorizationCode{
		Code:          randomToken(32),
		SessionID:     session.ID,
		CodeChallenge: pa.CodeChallenge,
		CreatedAt:     now,
		ExpiresAt:     now.Add(models.DefaultAuthorizationCodeTTL),
	}
	if err := s.codes.Put(authCode); err != nil {
		s.logger.Error("failed to persist authorization code", "error", err)
		s.renderErrorPage(c, http.StatusInternalServerError, "Authorization failed",
			"The broker could not issue an authorization code. Restart the flow from your MCP client.")
		return
	}

	s.logger.Info("session created",
		"session_id", session.ID,
		"blog_id", session.UserInfo.BlogID,
		"access_token", redact(session.AccessToken),
	)
	s.recordEvent(c.Request.Context(), models.AuthEvent{
		Type:      models.EventCallbackSuccess,
		State:     state,
		SessionID: session.ID,
	})

	if pa.ResponseMode == models.ResponseModeWeb {
		s.renderSuccessPage(c, session, authCode.Code)
		return
	}

	target, err := url.Parse(pa.RedirectURI)
	if err != nil {
		s.renderErrorPage(c, http.StatusBadRequest, "Invalid redirect",
			"The registered redirect URI could not be parsed. Restart the flow from your MCP client.")
		return
	}
	q := target.Query()
	q.Set("code", authCode.Code)
	q.Set("state", state)
	target.RawQuery = q.Encode()
	c.Redirect(http.StatusFound, target.String())
}

// HandleToken is step C: redeem an internal authorization code plus PKCE
// verifier for a signed bearer credential. The code is single-use, but a
// mismatched verifier does not consume it, so the legitimate holder can
// retry.
func (s *Server) HandleToken(c *gin.Context) {
	if c.PostForm("grant_type") != "authorization_code" {
		oauthError(c, errors.ErrUnsupportedGrantType)
		return
	}
	code := c.PostForm("code")
	verifier := c.PostForm("code_verifier")
	if code == "" || verifier == "" {
		oauthError(c, errors.ErrInvalidRequest)
		return
	}

	ac, ok := s.codes.Get(code)
	if !ok {
		s.recordEvent(c.Request.Context(), models.AuthEvent{
			Type:   models.EventRedeemFailed,
			Detail: "unknown or expired code",
		})
		oauthError(c, errors.ErrInvalidGrant)
		return
	}

	if !pkce.Verify(verifier, ac.CodeChallenge) {
		s.logger.Warn("code redemption with mismatched verifier", "session_id", ac.SessionID)
		s.recordEvent(c.Request.Context(), models.AuthEvent{
			Type:      models.EventRedeemFailed,
			SessionID: ac.SessionID,
			Detail:    "pkce verification failed",
		})
		oauthError(c, errors.ErrInvalidGrant)
		return
	}

	session, ok := s.sessions.Get(ac.SessionID)
	if !ok {
		s.recordEvent(c.Request.Context(), models.AuthEvent{
			Type:      models.EventRedeemFailed,
			SessionID: ac.SessionID,
			Detail:    "session missing or expired",
		})
		oauthError(c, errors.ErrInvalidGrant)
		return
	}

	if err := s.codes.Delete(code); err != nil {
		s.logger.Error("failed to delete redeemed code", "error", err)
		oauthError(c, errors.ErrServerError)
		return
	}

	credential, err := s.generate.Token(session)
	if err != nil {
		s.logger.Error("failed to sign bearer credential", "error", err)
		oauthError(c, errors.ErrServerError)
		return
	}

	s.recordEvent(c.Request.Context(), models.AuthEvent{
		Type:      models.EventCodeRedeemed,
		SessionID: session.ID,
	})
	c.JSON(http.StatusOK, gin.H{
		"access_token": credential,
		"token_type":   "Bearer",
		"expires_in":   int64(s.generate.TTL / time.Second),
		"blog_id":      session.UserInfo.BlogID,
		"blog_url":     session.UserInfo.BlogURL,
	})
}

// HandleValidate introspects a bearer credential. Malformed or tampered
// credentials report {valid:false}; nothing here throws past the boundary.
func (s *Server) HandleValidate(c *gin.Context) {
	auth := c.GetHeader("Authorization")
	parts := strings.SplitN(auth, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		c.JSON(http.StatusOK, gin.H{"valid": false})
		return
	}

	claims, err := s.generate.Parse(parts[1])
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"valid": false})
		return
	}

	session, ok := s.sessions.Get(claims.Subject)
	if !ok {
		c.JSON(http.StatusOK, gin.H{"valid": false})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"valid":           true,
		"wordpress_token": session.AccessToken,
		"user_info": gin.H{
			"blog_id":  session.UserInfo.BlogID,
			"blog_url": session.UserInfo.BlogURL,
		},
		"expires_at": session.ExpiresAt.UTC().Format(time.RFC3339),
	})
}

// randomToken returns n random bytes hex-encoded.
func randomToken(n int) string {
	b := make([]byte, n)
	rand.Read(b)
	return hex.EncodeToString(b)
}
