package server

import (
	"crypto/subtle"
	"net"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/wpmcp/tokenbroker/models"
)

// BrokerSecretHeader carries the shared secret agreed out-of-band between the
// two trusted local processes.
const BrokerSecretHeader = "X-Broker-Secret"

// AccessGuard protects endpoints that reveal a live upstream token. Checks
// run in order: transport-level loopback origin (403), shared secret (401),
// sliding-window rate limit (429). Each failure short-circuits. With no
// shared secret configured the guard fails closed and rejects everything.
func (s *Server) AccessGuard() gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := remoteHost(c.Request.RemoteAddr)

		if !isLoopback(origin) {
			s.logger.Warn("guard rejected non-loopback origin", "origin", origin, "path", c.Request.URL.Path)
			s.recordEvent(c.Request.Context(), models.AuthEvent{
				Type:   models.EventGuardRejected,
				Origin: origin,
				Detail: "non-loopback origin",
			})
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error":             "access_denied",
				"error_description": "requests are accepted from localhost only",
			})
			return
		}

		secret := c.GetHeader(BrokerSecretHeader)
		if s.Config.BrokerSecret == "" ||
			subtle.ConstantTimeCompare([]byte(secret), []byte(s.Config.BrokerSecret)) != 1 {
			s.logger.Warn("guard rejected request with bad shared secret", "origin", origin, "path", c.Request.URL.Path)
			s.recordEvent(c.Request.Context(), models.AuthEvent{
				Type:   models.EventGuardRejected,
				Origin: origin,
				Detail: "missing or invalid shared secret",
			})
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":             "access_denied",
				"error_description": "missing or invalid broker secret",
			})
			return
		}

		if !s.limiter.Allow(origin) {
			s.logger.Warn("guard rate limit exceeded", "origin", origin, "path", c.Request.URL.Path)
			s.recordEvent(c.Request.Context(), models.AuthEvent{
				Type:   models.EventGuardRejected,
				Origin: origin,
				Detail: "rate limit exceeded",
			})
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":             "rate_limited",
				"error_description": "too many requests, slow down",
			})
			return
		}

		c.Next()
	}
}

// remoteHost extracts the host part of the transport peer address.
func remoteHost(remoteAddr string) string {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		return remoteAddr
	}
	return host
}

// isLoopback checks the transport-layer peer, never a spoofable header.
func isLoopback(host string) bool {
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
