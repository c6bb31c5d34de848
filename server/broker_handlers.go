package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Broker endpoints sit behind the access guard and hand out raw WordPress.com
// tokens to the local MCP client.

// HandleCurrentToken returns the upstream token of the newest live session.
func (s *Server) HandleCurrentToken(c *gin.Context) {
	session, ok := s.sessions.LatestValid()
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{
			"error":             "no_valid_session",
			"error_description": "no WordPress.com session is currently active",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"access_token": session.AccessToken,
		"scope":        session.Scope,
		"blog_id":      session.UserInfo.BlogID,
		"blog_url":     session.UserInfo.BlogURL,
		"expires_at":   session.ExpiresAt.UTC().Format(time.RFC3339),
	})
}

// HandleWordPressToken resolves an authorization code to its session's
// upstream token. The lookup does not consume the code; redemption through
// the token endpoint stays the only consuming path.
func (s *Server) HandleWordPressToken(c *gin.Context) {
	code := c.Param("code")

	ac, ok := s.codes.Get(code)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{
			"error":             "invalid_code",
			"error_description": "unknown or expired authorization code",
		})
		return
	}

	session, ok := s.sessions.Get(ac.SessionID)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{
			"error":             "no_valid_session",
			"error_description": "the session behind this code is gone or expired",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"access_token": session.AccessToken,
		"scope":        session.Scope,
		"blog_id":      session.UserInfo.BlogID,
		"blog_url":     session.UserInfo.BlogURL,
		"expires_at":   session.ExpiresAt.UTC().Format(time.RFC3339),
	})
}

// HandleListEvents returns the most recent authorization events.
func (s *Server) HandleListEvents(c *gin.Context) {
	if s.events == nil {
		c.JSON(http.StatusOK, gin.H{"events": []any{}})
		return
	}

	events, err := s.events.ListRecent(c.Request.Context(), 100)
	if err != nil {
		s.logger.Error("failed to list auth events", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server_error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"events": events})
}
