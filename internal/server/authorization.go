package server

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/perkhub/perkstore/internal/authorization"
)

func (s *Server) authorizeAction(c *gin.Context, object, action string) error {
	if s.authzSvc == nil {
		return ErrForbidden
	}
	user, ok := currentUser(c)
	if !ok {
		return ErrUnauthorized
	}
	err := s.authzSvc.Authorize(c.Request.Context(), user, object, action)
	if errors.Is(err, authorization.ErrForbidden) {
		return ErrForbidden
	}
	return err
}
