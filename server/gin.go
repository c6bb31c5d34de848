package server

import (
	"github.com/gin-gonic/gin"
)

// NewGinEngine builds the router. The /oauth endpoints are public because the
// browser reaches them; everything under /broker stays behind the access
// guard.
func NewGinEngine(s *Server) *gin.Engine {
	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.Use(gin.Recovery())

	r.GET("/health", s.HandleHealth)

	r.GET("/oauth/authorize", s.HandleAuthorize)
	r.GET("/oauth/callback", s.HandleCallback)
	r.POST("/oauth/token", s.HandleToken)
	r.GET("/oauth/validate", s.HandleValidate)

	guarded := r.Group("/broker", s.AccessGuard())
	guarded.GET("/current-token", s.HandleCurrentToken)
	guarded.GET("/wordpress-token/:code", s.HandleWordPressToken)
	guarded.GET("/events", s.HandleListEvents)

	return r
}
