package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type CreateProductRequest struct {
	Name             string
	Description      string
	ShortDescription string
	Price            decimal.Decimal
	IsActive         *bool
	IsDiscountable   *bool
}

type UpdateProductRequest struct {
	Name             *string
	Description      *string
	ShortDescription *string
	Price            *decimal.Decimal
	IsActive         *bool
	IsDiscountable   *bool
}

type ListProductsRequest struct {
	Name   string
	Active *bool
}

// Service is the catalogue reader/writer. PriceLookup runs inside the
// caller's transaction so checkout sees a consistent snapshot.
type Service interface {
	Create(ctx context.Context, req CreateProductRequest) (*Product, error)
	List(ctx context.Context, req ListProductsRequest) ([]Product, error)
	GetByID(ctx context.Context, id snowflake.ID) (*Product, error)
	Update(ctx context.Context, id snowflake.ID, req UpdateProductRequest) (*Product, error)
	ListCategories(ctx context.Context) ([]Category, error)

	PriceLookup(ctx context.Context, tx *gorm.DB, ids []snowflake.ID) (map[snowflake.ID]PricedProduct, error)
}

var (
	ErrProductNotFound    = errors.New("product_not_found")
	ErrProductUnavailable = errors.New("product_unavailable")
	ErrInvalidName        = errors.New("invalid_name")
	ErrInvalidPrice       = errors.New("invalid_price")
)
