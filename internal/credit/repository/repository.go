// Package repository implements the credit ledger store: the row-locked
// source read the resolver depends on, and the balance decrements the
// order assembler commits.
package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	creditdomain "github.com/perkhub/perkstore/internal/credit/domain"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Params struct {
	fx.In

	Log *zap.Logger
}

type Ledger struct {
	log *zap.Logger
}

func NewLedger(p Params) creditdomain.Ledger {
	return &Ledger{log: p.Log.Named("credit.ledger")}
}

type creditRow struct {
	ProjectID snowflake.ID
	Amount    decimal.Decimal
}

type limitRow struct {
	ProjectID     snowflake.ID
	ProductID     snowflake.ID
	Amount        decimal.Decimal
	AbsoluteLimit bool
}

// ListSourcesForUpdate loads the user's unscoped project balances and
// the per-product caps of those projects that apply to the requested
// products. Rows are locked for the duration of the transaction on
// postgres; sqlite serializes writers, so no lock clause is emitted.
func (l *Ledger) ListSourcesForUpdate(ctx context.Context, tx *gorm.DB, userID snowflake.ID, productIDs []snowflake.ID) ([]creditdomain.Source, error) {
	if tx == nil {
		return nil, creditdomain.ErrMissingTx
	}
	if userID == 0 {
		return nil, creditdomain.ErrInvalidUser
	}

	creditsQuery := tx.WithContext(ctx).
		Table("credits").
		Select("project_id, amount").
		Where("user_id = ? AND amount > 0", userID).
		Order("project_id ASC")
	if lockingSupported(tx) {
		creditsQuery = creditsQuery.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var credits []creditRow
	if err := creditsQuery.Scan(&credits).Error; err != nil {
		return nil, err
	}

	sources := make([]creditdomain.Source, 0, len(credits))
	for _, row := range credits {
		sources = append(sources, creditdomain.Source{
			ProjectID: row.ProjectID,
			Available: row.Amount,
		})
	}

	if len(productIDs) > 0 && len(credits) > 0 {
		projectIDs := make([]snowflake.ID, 0, len(credits))
		for _, row := range credits {
			projectIDs = append(projectIDs, row.ProjectID)
		}

		limitsQuery := tx.WithContext(ctx).
			Table("product_limits").
			Select("project_id, product_id, amount, absolute_limit").
			Where("project_id IN ? AND product_id IN ? AND amount > 0", projectIDs, productIDs).
			Order("project_id ASC, product_id ASC")
		if lockingSupported(tx) {
			limitsQuery = limitsQuery.Clauses(clause.Locking{Strength: "UPDATE"})
		}
		var limits []limitRow
		if err := limitsQuery.Scan(&limits).Error; err != nil {
			return nil, err
		}

		for _, row := range limits {
			productID := row.ProductID
			sources = append(sources, creditdomain.Source{
				ProjectID:     row.ProjectID,
				ProductID:     &productID,
				Available:     row.Amount,
				AbsoluteLimit: row.AbsoluteLimit,
			})
		}
	}

	return creditdomain.Rank(sources), nil
}

// ApplyDebits writes back the balances the transactions drew from. The
// new balance is computed here with exact decimal arithmetic; the
// amount = prior-balance guard in each UPDATE is the last line of
// defense: the rows were locked at read time, so zero rows affected
// means the attempt raced something it should not have.
func (l *Ledger) ApplyDebits(ctx context.Context, tx *gorm.DB, userID snowflake.ID, debits []creditdomain.Debit) error {
	if tx == nil {
		return creditdomain.ErrMissingTx
	}

	for _, debit := range debits {
		if !debit.Amount.IsPositive() {
			return creditdomain.ErrInvalidDebit
		}
		remaining := debit.Balance.Sub(debit.Amount)
		if remaining.IsNegative() {
			return creditdomain.ErrInvalidDebit
		}

		var result *gorm.DB
		if debit.ProductID != nil {
			result = tx.WithContext(ctx).Exec(
				`UPDATE product_limits
				 SET amount = ?, updated_at = CURRENT_TIMESTAMP
				 WHERE project_id = ? AND product_id = ? AND amount = ?`,
				remaining, debit.ProjectID, *debit.ProductID, debit.Balance,
			)
		} else {
			result = tx.WithContext(ctx).Exec(
				`UPDATE credits
				 SET amount = ?, updated_at = CURRENT_TIMESTAMP
				 WHERE user_id = ? AND project_id = ? AND amount = ?`,
				remaining, userID, debit.ProjectID, debit.Balance,
			)
		}
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			l.log.Error("credit debit conflict",
				zap.Int64("user_id", int64(userID)),
				zap.Int64("project_id", int64(debit.ProjectID)),
				zap.String("amount", debit.Amount.String()),
			)
			return creditdomain.ErrBalanceConflict
		}
	}
	return nil
}

func lockingSupported(tx *gorm.DB) bool {
	return tx.Dialector.Name() == "postgres"
}
