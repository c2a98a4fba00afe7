package domain

import (
	"sort"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// Source is one funding pool a user may draw on during a single
// allocation attempt. It is a plain value: the engine mutates working
// copies only, and nothing becomes durable until the order commits.
type Source struct {
	ProjectID snowflake.ID
	// ProductID restricts the source to one product; nil means the
	// source may fund any line.
	ProductID     *snowflake.ID
	Available     decimal.Decimal
	AbsoluteLimit bool
}

// ScopedTo reports whether the source may only fund the given product.
func (s Source) ScopedTo(productID snowflake.ID) bool {
	return s.ProductID != nil && *s.ProductID == productID
}

// Unscoped reports whether the source may fund any product.
func (s Source) Unscoped() bool {
	return s.ProductID == nil
}

// Rank orders sources for allocation: absolute per-product caps first so
// contractual maximums are honored before general budgets, then larger
// balances first to minimize the number of funding transactions. Ties
// break on project id ascending, with scoped sources ahead of unscoped
// ones, so allocation is fully deterministic.
func Rank(sources []Source) []Source {
	ranked := make([]Source, len(sources))
	copy(ranked, sources)
	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.AbsoluteLimit != b.AbsoluteLimit {
			return a.AbsoluteLimit
		}
		if cmp := a.Available.Cmp(b.Available); cmp != 0 {
			return cmp > 0
		}
		if a.ProjectID != b.ProjectID {
			return a.ProjectID < b.ProjectID
		}
		return !a.Unscoped() && b.Unscoped()
	})
	return ranked
}
