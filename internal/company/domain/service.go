package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

type CreateCompanyRequest struct {
	Name string
}

type ProductLimitRequest struct {
	ProductID     snowflake.ID
	Amount        decimal.Decimal
	AbsoluteLimit bool
}

type CreateProjectRequest struct {
	CompanyID     snowflake.ID
	Name          string
	Code          string
	Description   string
	Priority      int
	StartDate     *time.Time
	EndDate       *time.Time
	ProductLimits []ProductLimitRequest
}

type GrantCreditRequest struct {
	UserID    snowflake.ID
	ProjectID snowflake.ID
	Amount    decimal.Decimal
}

// Service administers the funding ledger the credit resolver reads:
// companies, projects, per-product caps, and per-user credit grants.
type Service interface {
	CreateCompany(ctx context.Context, req CreateCompanyRequest) (*Company, error)
	CreateProject(ctx context.Context, req CreateProjectRequest) (*Project, error)
	GrantCredit(ctx context.Context, req GrantCreditRequest) (*Credit, error)
	ListCredits(ctx context.Context, userID snowflake.ID) ([]Credit, error)
}

var (
	ErrInvalidName     = errors.New("invalid_name")
	ErrInvalidCode     = errors.New("invalid_code")
	ErrInvalidAmount   = errors.New("invalid_amount")
	ErrCompanyNotFound = errors.New("company_not_found")
	ErrProjectNotFound = errors.New("project_not_found")
	ErrUserNotFound    = errors.New("user_not_found")
	ErrCreditConflict  = errors.New("credit_conflict")
)
