package server

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	authdomain "github.com/perkhub/perkstore/internal/auth/domain"
	"github.com/perkhub/perkstore/internal/auth/password"
	"gorm.io/gorm"
)

const sessionTTL = 24 * time.Hour

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (s *Server) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	username := strings.TrimSpace(req.Username)
	if username == "" || req.Password == "" {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	ctx := c.Request.Context()

	var user authdomain.User
	err := s.db.WithContext(ctx).
		Where("username = ? AND is_active = true", username).
		First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		AbortWithError(c, ErrUnauthorized)
		return
	}
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if !password.Verify(req.Password, user.Password) {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	token, err := authdomain.NewToken()
	if err != nil {
		AbortWithError(c, err)
		return
	}

	now := time.Now().UTC()
	session := authdomain.Session{
		ID:        s.genID.Generate(),
		UserID:    user.ID,
		TokenHash: authdomain.HashToken(token),
		ExpiresAt: now.Add(sessionTTL),
		CreatedAt: now,
	}
	if err := s.db.WithContext(ctx).Create(&session).Error; err != nil {
		AbortWithError(c, err)
		return
	}

	lastLogin := now
	_ = s.db.WithContext(ctx).Model(&authdomain.User{}).
		Where("id = ?", user.ID).
		Update("last_login", &lastLogin).Error

	actorID := user.ID
	_ = s.auditSvc.AuditLog(ctx, &actorID, "auth.login", "user", nil, map[string]any{
		"username": user.Username,
	})

	c.JSON(http.StatusOK, gin.H{"data": gin.H{
		"token":      token,
		"expires_at": session.ExpiresAt,
		"user":       user,
	}})
}

func (s *Server) Logout(c *gin.Context) {
	header := strings.TrimSpace(c.GetHeader("Authorization"))
	parts := strings.Fields(header)
	if len(parts) != 2 || parts[0] != "Bearer" {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	hash := authdomain.HashToken(parts[1])
	if err := s.db.WithContext(c.Request.Context()).
		Where("token_hash = ?", hash).
		Delete(&authdomain.Session{}).Error; err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
