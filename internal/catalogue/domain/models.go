package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// Product is a purchasable catalogue entry. Price is read exactly once
// per checkout to freeze line prices.
type Product struct {
	ID               snowflake.ID    `gorm:"primaryKey" json:"id"`
	Name             string          `gorm:"type:text;not null;index" json:"name"`
	Slug             string          `gorm:"type:text;not null" json:"slug"`
	Description      string          `gorm:"type:text" json:"description"`
	ShortDescription string          `gorm:"type:text" json:"short_description"`
	Rating           float64         `gorm:"not null;default:0" json:"rating"`
	Price            decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"price"`
	IsActive         bool            `gorm:"not null;default:true" json:"is_active"`
	IsDiscountable   bool            `gorm:"not null;default:true" json:"is_discountable"`
	CreatedAt        time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt        time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Product) TableName() string { return "products" }

// Category groups sub-categories.
type Category struct {
	ID       snowflake.ID `gorm:"primaryKey" json:"id"`
	Name     string       `gorm:"type:text;not null" json:"name"`
	IsActive bool         `gorm:"not null;default:true" json:"is_active"`

	SubCategories []SubCategory `gorm:"foreignKey:CategoryID" json:"sub_categories,omitempty"`
}

// TableName sets the database table name.
func (Category) TableName() string { return "categories" }

// SubCategory groups products under a category.
type SubCategory struct {
	ID         snowflake.ID `gorm:"primaryKey" json:"id"`
	CategoryID snowflake.ID `gorm:"not null;index" json:"category_id"`
	Name       string       `gorm:"type:text;not null" json:"name"`
	Slug       string       `gorm:"type:text;not null" json:"slug"`
	IsActive   bool         `gorm:"not null;default:true" json:"is_active"`
}

// TableName sets the database table name.
func (SubCategory) TableName() string { return "sub_categories" }

// PricedProduct is the frozen pricing snapshot the order assembler
// consumes at checkout time.
type PricedProduct struct {
	ID       snowflake.ID
	Price    decimal.Decimal
	IsActive bool
}
