package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/perkhub/perkstore/internal/cache"
	cataloguedomain "github.com/perkhub/perkstore/internal/catalogue/domain"
	"github.com/perkhub/perkstore/internal/clock"
	"github.com/perkhub/perkstore/pkg/repository"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const categoryCacheTTL = 5 * time.Minute

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
	productRepo repository.Repository[cataloguedomain.Product]
	categories  *cache.TTLCache[string, []cataloguedomain.Category]
}

func NewService(p Params) cataloguedomain.Service {
	return &Service{
		db:  p.DB,
		log: p.Log.Named("catalogue.service"),

		genID:       p.GenID,
		clock:       p.Clock,
		productRepo: repository.ProvideStore[cataloguedomain.Product](p.DB),
		categories:  cache.NewTTLCache[string, []cataloguedomain.Category](),
	}
}

func (s *Service) Create(ctx context.Context, req cataloguedomain.CreateProductRequest) (*cataloguedomain.Product, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, cataloguedomain.ErrInvalidName
	}
	if req.Price.IsNegative() {
		return nil, cataloguedomain.ErrInvalidPrice
	}

	now := s.clock.Now()
	product := cataloguedomain.Product{
		ID:               s.genID.Generate(),
		Name:             name,
		Slug:             slugify(name),
		Description:      strings.TrimSpace(req.Description),
		ShortDescription: strings.TrimSpace(req.ShortDescription),
		Price:            req.Price,
		IsActive:         true,
		IsDiscountable:   true,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if req.IsActive != nil {
		product.IsActive = *req.IsActive
	}
	if req.IsDiscountable != nil {
		product.IsDiscountable = *req.IsDiscountable
	}

	if err := s.productRepo.Create(ctx, &product); err != nil {
		return nil, err
	}
	return &product, nil
}

func (s *Service) List(ctx context.Context, req cataloguedomain.ListProductsRequest) ([]cataloguedomain.Product, error) {
	query := s.db.WithContext(ctx).Model(&cataloguedomain.Product{})
	if name := strings.TrimSpace(req.Name); name != "" {
		query = query.Where("name LIKE ?", name+"%")
	}
	if req.Active != nil {
		query = query.Where("is_active = ?", *req.Active)
	}

	var products []cataloguedomain.Product
	if err := query.Order("name ASC").Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

func (s *Service) GetByID(ctx context.Context, id snowflake.ID) (*cataloguedomain.Product, error) {
	var product cataloguedomain.Product
	err := s.productRepo.First(ctx, &product, "id = ?", id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, cataloguedomain.ErrProductNotFound
	}
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (s *Service) Update(ctx context.Context, id snowflake.ID, req cataloguedomain.UpdateProductRequest) (*cataloguedomain.Product, error) {
	values := map[string]any{"updated_at": s.clock.Now()}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, cataloguedomain.ErrInvalidName
		}
		values["name"] = name
		values["slug"] = slugify(name)
	}
	if req.Description != nil {
		values["description"] = strings.TrimSpace(*req.Description)
	}
	if req.ShortDescription != nil {
		values["short_description"] = strings.TrimSpace(*req.ShortDescription)
	}
	if req.Price != nil {
		if req.Price.IsNegative() {
			return nil, cataloguedomain.ErrInvalidPrice
		}
		values["price"] = *req.Price
	}
	if req.IsActive != nil {
		values["is_active"] = *req.IsActive
	}
	if req.IsDiscountable != nil {
		values["is_discountable"] = *req.IsDiscountable
	}

	affected, err := s.productRepo.Updates(ctx, values, "id = ?", id)
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, cataloguedomain.ErrProductNotFound
	}
	return s.GetByID(ctx, id)
}

// ListCategories serves the category tree through a short TTL cache; it
// changes rarely and is read on every storefront render.
func (s *Service) ListCategories(ctx context.Context) ([]cataloguedomain.Category, error) {
	if cached, ok := s.categories.Get("tree"); ok {
		return cached, nil
	}

	var categories []cataloguedomain.Category
	err := s.db.WithContext(ctx).
		Preload("SubCategories", "is_active = ?", true).
		Where("is_active = ?", true).
		Order("name ASC").
		Find(&categories).Error
	if err != nil {
		return nil, err
	}

	s.categories.Set("tree", categories, categoryCacheTTL)
	return categories, nil
}

// PriceLookup loads current price and availability for the given
// products inside the caller's transaction. Any missing or inactive
// product fails the lookup.
func (s *Service) PriceLookup(ctx context.Context, tx *gorm.DB, ids []snowflake.ID) (map[snowflake.ID]cataloguedomain.PricedProduct, error) {
	if tx == nil {
		tx = s.db
	}

	var rows []cataloguedomain.PricedProduct
	err := tx.WithContext(ctx).
		Table("products").
		Select("id, price, is_active").
		Where("id IN ?", ids).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	priced := make(map[snowflake.ID]cataloguedomain.PricedProduct, len(rows))
	for _, row := range rows {
		priced[row.ID] = row
	}
	for _, id := range ids {
		product, ok := priced[id]
		if !ok || !product.IsActive {
			return nil, cataloguedomain.ErrProductUnavailable
		}
	}
	return priced, nil
}

func slugify(name string) string {
	slug := strings.ToLower(strings.TrimSpace(name))
	slug = strings.Join(strings.Fields(slug), "-")
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-':
			return r
		default:
			return -1
		}
	}, slug)
}
