package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// OrderStatus drives the fulfillment state machine. Allocation only
// ever creates orders in INIT; everything after that is downstream.
type OrderStatus string

const (
	OrderStatusInit       OrderStatus = "INIT"
	OrderStatusPending    OrderStatus = "PENDING"
	OrderStatusConfirmed  OrderStatus = "CONFIRMED"
	OrderStatusPaid       OrderStatus = "PAID"
	OrderStatusProcessing OrderStatus = "PROCESSING"
	OrderStatusShipped    OrderStatus = "SHIPPED"
	OrderStatusDelivered  OrderStatus = "DELIVERED"
	OrderStatusCancelled  OrderStatus = "CANCELLED"
	OrderStatusRefunded   OrderStatus = "REFUNDED"
	OrderStatusReturned   OrderStatus = "RETURNED"
)

// statusTransitions encodes the allowed fulfillment moves.
var statusTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusInit:       {OrderStatusPending, OrderStatusCancelled},
	OrderStatusPending:    {OrderStatusConfirmed, OrderStatusCancelled},
	OrderStatusConfirmed:  {OrderStatusPaid, OrderStatusCancelled},
	OrderStatusPaid:       {OrderStatusProcessing, OrderStatusRefunded},
	OrderStatusProcessing: {OrderStatusShipped, OrderStatusCancelled},
	OrderStatusShipped:    {OrderStatusDelivered},
	OrderStatusDelivered:  {OrderStatusReturned, OrderStatusRefunded},
}

// CanTransition reports whether moving from one status to another is a
// legal fulfillment step.
func CanTransition(from, to OrderStatus) bool {
	for _, next := range statusTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Order is a placed checkout. Totals are frozen at placement time.
type Order struct {
	ID           snowflake.ID    `gorm:"primaryKey" json:"id"`
	Number       string          `gorm:"type:text;not null;uniqueIndex" json:"number"`
	UserID       snowflake.ID    `gorm:"index" json:"user_id"`
	GuestEmail   *string         `gorm:"type:text" json:"guest_email,omitempty"`
	Status       OrderStatus     `gorm:"type:text;not null" json:"status"`
	TotalInclTax decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"total_incl_tax"`
	TotalExclTax decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"total_excl_tax"`
	CreatedAt    time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt    time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`

	Lines []OrderLine `gorm:"foreignKey:OrderID" json:"lines,omitempty"`
}

// TableName sets the database table name.
func (Order) TableName() string { return "orders" }

// OrderLine is one product entry of an order with its price frozen at
// checkout time.
type OrderLine struct {
	ID               snowflake.ID    `gorm:"primaryKey" json:"id"`
	OrderID          snowflake.ID    `gorm:"not null;index" json:"order_id"`
	ProductID        snowflake.ID    `gorm:"not null" json:"product_id"`
	Quantity         int             `gorm:"not null" json:"quantity"`
	UnitPriceInclTax decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"unit_price_incl_tax"`
	UnitPriceExclTax decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"unit_price_excl_tax"`
	LinePriceInclTax decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"line_price_incl_tax"`
	LinePriceExclTax decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"line_price_excl_tax"`
}

// TableName sets the database table name.
func (OrderLine) TableName() string { return "order_lines" }

// FundingTransaction records that one credit source paid part or all of
// one order. Rows are immutable: the whole order either persists every
// transaction or none.
type FundingTransaction struct {
	ID        snowflake.ID    `gorm:"primaryKey" json:"id"`
	OrderID   snowflake.ID    `gorm:"not null;index" json:"order_id"`
	ProjectID snowflake.ID    `gorm:"not null" json:"project_id"`
	ProductID *snowflake.ID   `json:"product_id,omitempty"`
	Amount    decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"amount"`
	CreatedAt time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (FundingTransaction) TableName() string { return "funding_transactions" }
