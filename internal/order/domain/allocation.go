package domain

import (
	"github.com/bwmarrin/snowflake"
	creditdomain "github.com/perkhub/perkstore/internal/credit/domain"
	"github.com/shopspring/decimal"
)

// LineRequest is one cart line with its unit price already frozen from
// the catalogue.
type LineRequest struct {
	ProductID snowflake.ID
	Quantity  int
	UnitPrice decimal.Decimal
}

// LineTotal is the frozen cost of the line, computed once.
func (l LineRequest) LineTotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Draw is one source paying part or all of one line.
type Draw struct {
	ProjectID snowflake.ID
	ProductID *snowflake.ID
	Amount    decimal.Decimal
}

// Allocate funds every line from the ranked sources, in cart order.
//
// Per line it makes two passes over the working copies: sources scoped
// to the line's product first, then unscoped sources. Each draw takes
// min(available, still needed); exhausted sources are skipped so no
// zero-amount draw is ever emitted. Balances mutated by earlier lines
// carry forward, so later lines see what is actually left. Any
// shortfall fails the entire attempt: the caller must persist nothing.
//
// The returned draws are grouped per line, in line order. Allocation is
// sequential and deterministic: given the same ranked sources and lines
// it always produces the same draws.
func Allocate(sources []creditdomain.Source, lines []LineRequest) ([][]Draw, error) {
	working := make([]creditdomain.Source, len(sources))
	copy(working, sources)

	allDraws := make([][]Draw, 0, len(lines))
	for _, line := range lines {
		needed := line.LineTotal()
		covered := decimal.Zero
		draws := make([]Draw, 0, 2)

		covered = drawPass(working, line, needed, covered, &draws, true)
		if covered.LessThan(needed) {
			covered = drawPass(working, line, needed, covered, &draws, false)
		}
		if covered.LessThan(needed) {
			return nil, ErrInsufficientCredit
		}
		allDraws = append(allDraws, draws)
	}
	return allDraws, nil
}

// drawPass runs one scoped or unscoped pass for a line, mutating the
// working balances in place.
func drawPass(working []creditdomain.Source, line LineRequest, needed, covered decimal.Decimal, draws *[]Draw, scoped bool) decimal.Decimal {
	for i := range working {
		if covered.GreaterThanOrEqual(needed) {
			break
		}
		source := &working[i]
		if scoped && !source.ScopedTo(line.ProductID) {
			continue
		}
		if !scoped && !source.Unscoped() {
			continue
		}

		amount := decimal.Min(source.Available, needed.Sub(covered))
		if !amount.IsPositive() {
			continue
		}

		*draws = append(*draws, Draw{
			ProjectID: source.ProjectID,
			ProductID: source.ProductID,
			Amount:    amount,
		})
		source.Available = source.Available.Sub(amount)
		covered = covered.Add(amount)
	}
	return covered
}

// AggregateDebits folds all draws of an order into one debit per source
// for the final balance decrement. Sources must be the same slice the
// draws were allocated from, so each debit carries the balance that was
// read under lock.
func AggregateDebits(sources []creditdomain.Source, allDraws [][]Draw) []creditdomain.Debit {
	type key struct {
		projectID snowflake.ID
		productID snowflake.ID
		scoped    bool
	}

	sourceKey := func(projectID snowflake.ID, productID *snowflake.ID) key {
		k := key{projectID: projectID}
		if productID != nil {
			k.productID = *productID
			k.scoped = true
		}
		return k
	}

	balances := make(map[key]decimal.Decimal, len(sources))
	for _, source := range sources {
		balances[sourceKey(source.ProjectID, source.ProductID)] = source.Available
	}

	totals := make(map[key]*creditdomain.Debit)
	order := make([]key, 0)
	for _, draws := range allDraws {
		for _, draw := range draws {
			k := sourceKey(draw.ProjectID, draw.ProductID)
			if existing, ok := totals[k]; ok {
				existing.Amount = existing.Amount.Add(draw.Amount)
				continue
			}
			totals[k] = &creditdomain.Debit{
				ProjectID: draw.ProjectID,
				ProductID: draw.ProductID,
				Amount:    draw.Amount,
				Balance:   balances[k],
			}
			order = append(order, k)
		}
	}

	debits := make([]creditdomain.Debit, 0, len(order))
	for _, k := range order {
		debits = append(debits, *totals[k])
	}
	return debits
}
