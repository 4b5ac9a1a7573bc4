package api

import (
	"time"

	"github.com/gin-gonic/gin"

	"gitlab.com/yelinaung/caja-gym/internal/auth"
	"gitlab.com/yelinaung/caja-gym/internal/logger"
	"gitlab.com/yelinaung/caja-gym/internal/models"
)

const userKey = "caja.user"

// authenticate resolves the bearer token to an active user.
func authenticate(gate *auth.Gate) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := gate.Authenticate(c.Request.Context(), c.GetHeader("Authorization"))
		if err != nil {
			writeError(c, err)
			return
		}
		c.Set(userKey, user)
		c.Next()
	}
}

func requireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := auth.RequireAdmin(currentUser(c)); err != nil {
			writeError(c, err)
			return
		}
		c.Next()
	}
}

func currentUser(c *gin.Context) *models.User {
	v, ok := c.Get(userKey)
	if !ok {
		return nil
	}
	user, _ := v.(*models.User)
	return user
}

// requestLogger writes one zerolog event per request.
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}

		status := c.Writer.Status()
		event := logger.Log.Info()
		switch {
		case status >= 500:
			event = logger.Log.Error()
		case status >= 400:
			event = logger.Log.Warn()
		}

		if user := currentUser(c); user != nil {
			event = event.Str("user_hash", logger.HashUserID(user.ID))
		}

		event.
			Str("method", c.Request.Method).
			Str("path", path).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Msg("HTTP request")
	}
}
