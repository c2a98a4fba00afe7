package seed

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	authdomain "github.com/perkhub/perkstore/internal/auth/domain"
	"github.com/perkhub/perkstore/internal/auth/password"
	cataloguedomain "github.com/perkhub/perkstore/internal/catalogue/domain"
	companydomain "github.com/perkhub/perkstore/internal/company/domain"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	defaultAdminUsername = "admin"
	defaultAdminEmail    = "admin@perkhub.local"
	defaultAdminPassword = "admin"
)

// EnsureDefaultAdmin seeds the bootstrap superuser so a fresh install
// can be administered before real accounts exist.
func EnsureDefaultAdmin(db *gorm.DB) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return err
	}

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user authdomain.User
		err := tx.WithContext(ctx).
			Where("username = ?", defaultAdminUsername).
			First(&user).Error
		if err == nil {
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		hashed, err := password.Hash(defaultAdminPassword)
		if err != nil {
			return err
		}
		now := time.Now().UTC()
		user = authdomain.User{
			ID:          node.Generate(),
			Username:    defaultAdminUsername,
			Email:       strings.ToLower(defaultAdminEmail),
			Password:    hashed,
			IsActive:    true,
			IsSuperuser: true,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		return tx.WithContext(ctx).Create(&user).Error
	})
}

// SeedDemoData loads a small storefront so local development starts with
// something to buy: one company, one funded project, and a user with
// both scoped and unscoped credit.
func SeedDemoData(db *gorm.DB) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}

	node, err := snowflake.NewNode(2)
	if err != nil {
		return err
	}

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.WithContext(ctx).Model(&companydomain.Company{}).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return nil
		}

		now := time.Now().UTC()

		product := cataloguedomain.Product{
			ID:               node.Generate(),
			Name:             "Standing Desk",
			Slug:             "standing-desk",
			Description:      "Height adjustable standing desk.",
			ShortDescription: "Height adjustable desk",
			Price:            decimal.RequireFromString("499.00"),
			IsActive:         true,
			CreatedAt:        now,
			UpdatedAt:        now,
		}
		if err := tx.WithContext(ctx).Create(&product).Error; err != nil {
			return err
		}

		company := companydomain.Company{
			ID:        node.Generate(),
			Name:      "Demo Co",
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := tx.WithContext(ctx).Create(&company).Error; err != nil {
			return err
		}

		project := companydomain.Project{
			ID:        node.Generate(),
			CompanyID: company.ID,
			Name:      "Wellness 2026",
			Code:      "WELLNESS-2026",
			Priority:  1,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := tx.WithContext(ctx).Create(&project).Error; err != nil {
			return err
		}

		limit := companydomain.ProductLimit{
			ID:            node.Generate(),
			ProjectID:     project.ID,
			ProductID:     product.ID,
			Amount:        decimal.RequireFromString("500.00"),
			AbsoluteLimit: false,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if err := tx.WithContext(ctx).Create(&limit).Error; err != nil {
			return err
		}

		var admin authdomain.User
		if err := tx.WithContext(ctx).Where("username = ?", defaultAdminUsername).First(&admin).Error; err != nil {
			return err
		}
		credit := companydomain.Credit{
			ID:        node.Generate(),
			UserID:    admin.ID,
			ProjectID: project.ID,
			Amount:    decimal.RequireFromString("100.00"),
			CreatedAt: now,
			UpdatedAt: now,
		}
		return tx.WithContext(ctx).Create(&credit).Error
	})
}
