package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Debit is one durable balance decrement, aggregated per source across
// all lines of an order. Balance is the source's value at locked-read
// time; the new balance is computed in Go with exact decimal arithmetic
// and Balance doubles as an optimistic guard in the UPDATE.
type Debit struct {
	ProjectID snowflake.ID
	ProductID *snowflake.ID
	Amount    decimal.Decimal
	Balance   decimal.Decimal
}

// Ledger is the durable store of credit grants and per-product caps.
// Both operations run inside the caller's transaction: the locked read
// and the decrement must share one commit boundary so concurrent orders
// cannot overdraw a balance.
type Ledger interface {
	// ListSourcesForUpdate returns every source the user may draw from,
	// ranked for allocation, with the backing rows locked for the
	// remainder of the transaction. Balances are always read fresh;
	// caching them across attempts is forbidden.
	ListSourcesForUpdate(ctx context.Context, tx *gorm.DB, userID snowflake.ID, productIDs []snowflake.ID) ([]Source, error)

	// ApplyDebits decrements the locked balances. A decrement that would
	// drive a balance negative affects zero rows and surfaces as
	// ErrBalanceConflict, aborting the transaction.
	ApplyDebits(ctx context.Context, tx *gorm.DB, userID snowflake.ID, debits []Debit) error
}

var (
	ErrInvalidUser     = errors.New("invalid_user")
	ErrBalanceConflict = errors.New("balance_conflict")
	ErrMissingTx       = errors.New("missing_transaction")
	ErrInvalidDebit    = errors.New("invalid_debit")
)
