package server

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	authdomain "github.com/perkhub/perkstore/internal/auth/domain"
)

const contextUserKey = "auth_user"

// SessionRequired authenticates requests with an opaque bearer token
// and loads the owning user into the gin context.
func (s *Server) SessionRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := strings.TrimSpace(c.GetHeader("Authorization"))
		if header == "" {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		parts := strings.Fields(header)
		if len(parts) != 2 || parts[0] != "Bearer" || strings.TrimSpace(parts[1]) == "" {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		hash := authdomain.HashToken(parts[1])
		now := time.Now().UTC()

		var session authdomain.Session
		err := s.db.WithContext(c.Request.Context()).
			Where("token_hash = ? AND expires_at > ?", hash, now).
			First(&session).Error
		if err != nil {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		var user authdomain.User
		err = s.db.WithContext(c.Request.Context()).
			Where("id = ? AND is_active = true", session.UserID).
			First(&user).Error
		if err != nil {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		c.Set(contextUserKey, &user)
		c.Next()
	}
}

// currentUser returns the authenticated user loaded by SessionRequired.
func currentUser(c *gin.Context) (*authdomain.User, bool) {
	value, ok := c.Get(contextUserKey)
	if !ok {
		return nil, false
	}
	user, ok := value.(*authdomain.User)
	return user, ok && user != nil
}
