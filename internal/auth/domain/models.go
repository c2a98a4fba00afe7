package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// User is an account that can sign in and place orders.
type User struct {
	ID          snowflake.ID `gorm:"primaryKey" json:"id"`
	Username    string       `gorm:"type:text;not null;uniqueIndex" json:"username"`
	Email       string       `gorm:"type:text;not null;uniqueIndex" json:"email"`
	FirstName   string       `gorm:"type:text" json:"first_name"`
	LastName    string       `gorm:"type:text" json:"last_name"`
	Password    string       `gorm:"type:text;not null" json:"-"`
	IsActive    bool         `gorm:"not null;default:true" json:"is_active"`
	IsSuperuser bool         `gorm:"not null;default:false" json:"is_superuser"`
	LastLogin   *time.Time   `json:"last_login,omitempty"`
	CreatedAt   time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt   time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (User) TableName() string { return "users" }

// Session is an opaque bearer token issued at login. Only the sha256
// of the token is stored.
type Session struct {
	ID        snowflake.ID `gorm:"primaryKey"`
	UserID    snowflake.ID `gorm:"not null;index"`
	TokenHash string       `gorm:"type:text;not null;uniqueIndex"`
	ExpiresAt time.Time    `gorm:"not null"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Session) TableName() string { return "sessions" }
