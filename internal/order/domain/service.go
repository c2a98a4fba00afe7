package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

// PlaceOrderLine is one requested cart entry. Prices are never taken
// from the client; the assembler freezes them from the catalogue.
type PlaceOrderLine struct {
	ProductID snowflake.ID
	Quantity  int
}

type PlaceOrderRequest struct {
	UserID     snowflake.ID
	GuestEmail *string
	Lines      []PlaceOrderLine
}

type ListOrdersRequest struct {
	UserID    snowflake.ID
	PageToken string
	PageSize  int
}

type ListOrdersResponse struct {
	Orders        []Order `json:"orders"`
	NextPageToken string  `json:"next_page_token,omitempty"`
}

// Service assembles and persists orders. Place is the checkout entry
// point: one call, one transaction, all-or-nothing.
type Service interface {
	Place(ctx context.Context, req PlaceOrderRequest) (*Order, error)
	GetByID(ctx context.Context, id snowflake.ID) (*Order, error)
	List(ctx context.Context, req ListOrdersRequest) (ListOrdersResponse, error)
	UpdateStatus(ctx context.Context, id snowflake.ID, status OrderStatus) (*Order, error)
}

var (
	// ErrInsufficientCredit means the user's ranked sources could not
	// cover some line in full. Nothing is persisted.
	ErrInsufficientCredit = errors.New("insufficient_credit")
	// ErrProductUnavailable means a requested product was missing or
	// inactive at pricing time, before any allocation began.
	ErrProductUnavailable = errors.New("product_unavailable")
	// ErrStorage covers any persistence failure; the attempt is rolled
	// back and details stay in server-side logs.
	ErrStorage = errors.New("storage_failure")

	ErrOrderNotFound     = errors.New("order_not_found")
	ErrInvalidLines      = errors.New("invalid_lines")
	ErrInvalidQuantity   = errors.New("invalid_quantity")
	ErrInvalidStatus     = errors.New("invalid_status")
	ErrInvalidTransition = errors.New("invalid_status_transition")
)
