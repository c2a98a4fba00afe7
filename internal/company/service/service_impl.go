package service

import (
	"context"
	"errors"
	"strings"

	"github.com/bwmarrin/snowflake"
	authdomain "github.com/perkhub/perkstore/internal/auth/domain"
	"github.com/perkhub/perkstore/internal/clock"
	companydomain "github.com/perkhub/perkstore/internal/company/domain"
	"github.com/perkhub/perkstore/pkg/repository"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
}

type Service struct {
	db  *gorm.DB
	log *zap.Logger

	genID       *snowflake.Node
	clock       clock.Clock
	companyRepo repository.Repository[companydomain.Company]
	creditRepo  repository.Repository[companydomain.Credit]
}

func NewService(p Params) companydomain.Service {
	return &Service{
		db:  p.DB,
		log: p.Log.Named("company.service"),

		genID:       p.GenID,
		clock:       p.Clock,
		companyRepo: repository.ProvideStore[companydomain.Company](p.DB),
		creditRepo:  repository.ProvideStore[companydomain.Credit](p.DB),
	}
}

func (s *Service) CreateCompany(ctx context.Context, req companydomain.CreateCompanyRequest) (*companydomain.Company, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, companydomain.ErrInvalidName
	}

	now := s.clock.Now()
	company := companydomain.Company{
		ID:        s.genID.Generate(),
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.companyRepo.Create(ctx, &company); err != nil {
		return nil, err
	}
	return &company, nil
}

// CreateProject inserts the project together with its product limits in
// one transaction.
func (s *Service) CreateProject(ctx context.Context, req companydomain.CreateProjectRequest) (*companydomain.Project, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, companydomain.ErrInvalidName
	}
	code := strings.TrimSpace(req.Code)
	if code == "" {
		return nil, companydomain.ErrInvalidCode
	}
	for _, limit := range req.ProductLimits {
		if limit.Amount.IsNegative() {
			return nil, companydomain.ErrInvalidAmount
		}
	}

	now := s.clock.Now()
	project := companydomain.Project{
		ID:          s.genID.Generate(),
		CompanyID:   req.CompanyID,
		Name:        name,
		Code:        code,
		Description: strings.TrimSpace(req.Description),
		Priority:    req.Priority,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&companydomain.Company{}).Where("id = ?", req.CompanyID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return companydomain.ErrCompanyNotFound
		}

		if err := tx.Create(&project).Error; err != nil {
			return err
		}
		for _, limit := range req.ProductLimits {
			record := companydomain.ProductLimit{
				ID:            s.genID.Generate(),
				ProjectID:     project.ID,
				ProductID:     limit.ProductID,
				Amount:        limit.Amount,
				AbsoluteLimit: limit.AbsoluteLimit,
				CreatedAt:     now,
				UpdatedAt:     now,
			}
			if err := tx.Create(&record).Error; err != nil {
				return err
			}
			project.ProductLimits = append(project.ProductLimits, record)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &project, nil
}

// GrantCredit creates or tops up a user's balance in a project.
func (s *Service) GrantCredit(ctx context.Context, req companydomain.GrantCreditRequest) (*companydomain.Credit, error) {
	if !req.Amount.IsPositive() {
		return nil, companydomain.ErrInvalidAmount
	}

	var granted companydomain.Credit
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user authdomain.User
		if err := tx.Where("id = ?", req.UserID).First(&user).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return companydomain.ErrUserNotFound
			}
			return err
		}
		var project companydomain.Project
		if err := tx.Where("id = ?", req.ProjectID).First(&project).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return companydomain.ErrProjectNotFound
			}
			return err
		}

		now := s.clock.Now()

		// The sum is computed here, not in SQL: the ledger carries exact
		// decimals and the database must never do float math on them.
		var existing companydomain.Credit
		err := tx.Where("user_id = ? AND project_id = ?", req.UserID, req.ProjectID).First(&existing).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			granted = companydomain.Credit{
				ID:        s.genID.Generate(),
				UserID:    req.UserID,
				ProjectID: req.ProjectID,
				Amount:    req.Amount,
				CreatedAt: now,
				UpdatedAt: now,
			}
			return tx.Create(&granted).Error
		}
		if err != nil {
			return err
		}

		total := existing.Amount.Add(req.Amount)
		result := tx.Exec(
			`UPDATE credits SET amount = ?, updated_at = ?
			 WHERE user_id = ? AND project_id = ? AND amount = ?`,
			total, now, req.UserID, req.ProjectID, existing.Amount,
		)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return companydomain.ErrCreditConflict
		}

		granted = existing
		granted.Amount = total
		granted.UpdatedAt = now
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &granted, nil
}

func (s *Service) ListCredits(ctx context.Context, userID snowflake.ID) ([]companydomain.Credit, error) {
	return s.creditRepo.Find(ctx, "user_id = ?", userID)
}
