package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// Company owns project budgets.
type Company struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	Name      string       `gorm:"type:text;not null" json:"name"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Company) TableName() string { return "companies" }

// Project is a company-level budget users draw credit from.
type Project struct {
	ID          snowflake.ID `gorm:"primaryKey" json:"id"`
	CompanyID   snowflake.ID `gorm:"not null;index" json:"company_id"`
	Name        string       `gorm:"type:text;not null" json:"name"`
	Code        string       `gorm:"type:text;not null;uniqueIndex" json:"code"`
	Description string       `gorm:"type:text" json:"description"`
	Priority    int          `gorm:"not null;default:0" json:"priority"`
	StartDate   *time.Time   `gorm:"type:date" json:"start_date,omitempty"`
	EndDate     *time.Time   `gorm:"type:date" json:"end_date,omitempty"`
	CreatedAt   time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt   time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`

	ProductLimits []ProductLimit `gorm:"foreignKey:ProjectID" json:"product_limits,omitempty"`
}

// TableName sets the database table name.
func (Project) TableName() string { return "projects" }

// ProductLimit caps how much of one project's budget may be spent on one
// product. An absolute limit is preferred by the allocator over general
// balances.
type ProductLimit struct {
	ID            snowflake.ID    `gorm:"primaryKey" json:"id"`
	ProjectID     snowflake.ID    `gorm:"not null;index;uniqueIndex:ux_product_limits_project_product,priority:1" json:"project_id"`
	ProductID     snowflake.ID    `gorm:"not null;uniqueIndex:ux_product_limits_project_product,priority:2" json:"product_id"`
	Amount        decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"amount"`
	AbsoluteLimit bool            `gorm:"not null;default:false" json:"absolute_limit"`
	CreatedAt     time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt     time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (ProductLimit) TableName() string { return "product_limits" }

// Credit is one user's unscoped balance in one project.
type Credit struct {
	ID        snowflake.ID    `gorm:"primaryKey" json:"id"`
	UserID    snowflake.ID    `gorm:"not null;index;uniqueIndex:ux_credits_user_project,priority:1" json:"user_id"`
	ProjectID snowflake.ID    `gorm:"not null;uniqueIndex:ux_credits_user_project,priority:2" json:"project_id"`
	Amount    decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"amount"`
	CreatedAt time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Credit) TableName() string { return "credits" }
