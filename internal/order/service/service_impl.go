package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/bwmarrin/snowflake"
	cataloguedomain "github.com/perkhub/perkstore/internal/catalogue/domain"
	"github.com/perkhub/perkstore/internal/clock"
	creditdomain "github.com/perkhub/perkstore/internal/credit/domain"
	"github.com/perkhub/perkstore/internal/events"
	"github.com/perkhub/perkstore/internal/observability/logger"
	orderdomain "github.com/perkhub/perkstore/internal/order/domain"
	"github.com/perkhub/perkstore/pkg/db/pagination"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB           *gorm.DB
	Log          *zap.Logger
	GenID        *snowflake.Node
	Clock        clock.Clock
	CatalogueSvc cataloguedomain.Service
	Ledger       creditdomain.Ledger
	Outbox       *events.Outbox
}

type Service struct {
	db  *gorm.DB
	log *zap.Logger

	genID        *snowflake.Node
	clock        clock.Clock
	cataloguesvc cataloguedomain.Service
	ledger       creditdomain.Ledger
	outbox       *events.Outbox
}

func NewService(p Params) orderdomain.Service {
	return &Service{
		db:  p.DB,
		log: p.Log.Named("order.service"),

		genID:        p.GenID,
		clock:        p.Clock,
		cataloguesvc: p.CatalogueSvc,
		ledger:       p.Ledger,
		outbox:       p.Outbox,
	}
}

// Place runs one checkout attempt as a single sequential unit of work.
// Pricing, source resolution, allocation and every write share one
// transaction: either the order, its lines, its funding transactions
// and the balance decrements all commit, or none of them do.
func (s *Service) Place(ctx context.Context, req orderdomain.PlaceOrderRequest) (*orderdomain.Order, error) {
	if req.UserID == 0 {
		return nil, creditdomain.ErrInvalidUser
	}
	if len(req.Lines) == 0 {
		return nil, orderdomain.ErrInvalidLines
	}
	for _, line := range req.Lines {
		if line.Quantity <= 0 {
			return nil, orderdomain.ErrInvalidQuantity
		}
	}
	productIDs := distinctProductIDs(req.Lines)

	var placed orderdomain.Order
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		priced, err := s.cataloguesvc.PriceLookup(ctx, tx, productIDs)
		if err != nil {
			if errors.Is(err, cataloguedomain.ErrProductUnavailable) {
				return orderdomain.ErrProductUnavailable
			}
			return err
		}

		// Freeze line totals once, in cart order.
		lines := make([]orderdomain.LineRequest, 0, len(req.Lines))
		for _, line := range req.Lines {
			lines = append(lines, orderdomain.LineRequest{
				ProductID: line.ProductID,
				Quantity:  line.Quantity,
				UnitPrice: priced[line.ProductID].Price,
			})
		}

		sources, err := s.ledger.ListSourcesForUpdate(ctx, tx, req.UserID, productIDs)
		if err != nil {
			return err
		}

		allDraws, err := orderdomain.Allocate(sources, lines)
		if err != nil {
			return err
		}

		placed, err = s.persistOrder(ctx, tx, req, lines, sources, allDraws)
		return err
	})
	if err != nil {
		return nil, s.classify(ctx, err)
	}
	return &placed, nil
}

func (s *Service) persistOrder(ctx context.Context, tx *gorm.DB, req orderdomain.PlaceOrderRequest, lines []orderdomain.LineRequest, sources []creditdomain.Source, allDraws [][]orderdomain.Draw) (orderdomain.Order, error) {
	now := s.clock.Now()
	orderID := s.genID.Generate()

	order := orderdomain.Order{
		ID:           orderID,
		Number:       fmt.Sprintf("PS-%d", orderID),
		UserID:       req.UserID,
		GuestEmail:   req.GuestEmail,
		Status:       orderdomain.OrderStatusInit,
		TotalInclTax: decimalSum(lines),
		TotalExclTax: decimalSum(lines),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := tx.WithContext(ctx).Create(&order).Error; err != nil {
		return orderdomain.Order{}, err
	}

	for i, line := range lines {
		record := orderdomain.OrderLine{
			ID:               s.genID.Generate(),
			OrderID:          orderID,
			ProductID:        line.ProductID,
			Quantity:         line.Quantity,
			UnitPriceInclTax: line.UnitPrice,
			UnitPriceExclTax: line.UnitPrice,
			LinePriceInclTax: line.LineTotal(),
			LinePriceExclTax: line.LineTotal(),
		}
		if err := tx.WithContext(ctx).Create(&record).Error; err != nil {
			return orderdomain.Order{}, err
		}
		order.Lines = append(order.Lines, record)

		for _, draw := range allDraws[i] {
			txn := orderdomain.FundingTransaction{
				ID:        s.genID.Generate(),
				OrderID:   orderID,
				ProjectID: draw.ProjectID,
				ProductID: draw.ProductID,
				Amount:    draw.Amount,
				CreatedAt: now,
			}
			if err := tx.WithContext(ctx).Create(&txn).Error; err != nil {
				return orderdomain.Order{}, err
			}
		}
	}

	debits := orderdomain.AggregateDebits(sources, allDraws)
	if err := s.ledger.ApplyDebits(ctx, tx, req.UserID, debits); err != nil {
		return orderdomain.Order{}, err
	}

	payload := events.OrderCreatedPayload{
		OrderID:      orderID.String(),
		OrderNumber:  order.Number,
		UserID:       req.UserID.String(),
		TotalInclTax: order.TotalInclTax.String(),
		LineCount:    len(lines),
	}
	if err := s.outbox.PublishTx(ctx, tx, events.Event{
		Type:      events.EventOrderCreated,
		Payload:   payload.ToMap(),
		DedupeKey: "order.created:" + orderID.String(),
	}); err != nil {
		return orderdomain.Order{}, err
	}

	return order, nil
}

// classify maps internal failures onto the checkout error taxonomy.
// Domain sentinels pass through; anything else is logged with full
// detail and surfaced as an opaque storage failure.
func (s *Service) classify(ctx context.Context, err error) error {
	switch {
	case errors.Is(err, orderdomain.ErrInsufficientCredit),
		errors.Is(err, orderdomain.ErrProductUnavailable),
		errors.Is(err, creditdomain.ErrInvalidUser):
		return err
	default:
		logger.FromContext(ctx).Error("order placement failed", zap.Error(err))
		return orderdomain.ErrStorage
	}
}

func (s *Service) GetByID(ctx context.Context, id snowflake.ID) (*orderdomain.Order, error) {
	var order orderdomain.Order
	err := s.db.WithContext(ctx).
		Preload("Lines").
		Where("id = ?", id).
		First(&order).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, orderdomain.ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (s *Service) List(ctx context.Context, req orderdomain.ListOrdersRequest) (orderdomain.ListOrdersResponse, error) {
	limit := pagination.Pagination{PageSize: req.PageSize}.Limit()

	query := s.db.WithContext(ctx).Model(&orderdomain.Order{}).Order("id DESC").Limit(limit + 1)
	if req.UserID != 0 {
		query = query.Where("user_id = ?", req.UserID)
	}
	if cursor := pagination.DecodeToken(req.PageToken); cursor != 0 {
		query = query.Where("id < ?", cursor)
	}

	var orders []orderdomain.Order
	if err := query.Find(&orders).Error; err != nil {
		return orderdomain.ListOrdersResponse{}, err
	}

	resp := orderdomain.ListOrdersResponse{Orders: orders}
	if len(orders) > limit {
		resp.Orders = orders[:limit]
		resp.NextPageToken = pagination.EncodeToken(int64(orders[limit-1].ID))
	}
	return resp, nil
}

// UpdateStatus advances the fulfillment state machine. It never touches
// funding: credit moved at placement time and only refund flows outside
// this core move it back.
func (s *Service) UpdateStatus(ctx context.Context, id snowflake.ID, status orderdomain.OrderStatus) (*orderdomain.Order, error) {
	if !validStatus(status) {
		return nil, orderdomain.ErrInvalidStatus
	}

	var updated *orderdomain.Order
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var order orderdomain.Order
		if err := tx.Where("id = ?", id).First(&order).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return orderdomain.ErrOrderNotFound
			}
			return err
		}
		if !orderdomain.CanTransition(order.Status, status) {
			return orderdomain.ErrInvalidTransition
		}

		from := order.Status
		now := s.clock.Now()
		result := tx.Model(&orderdomain.Order{}).
			Where("id = ? AND status = ?", id, from).
			Updates(map[string]any{"status": status, "updated_at": now})
		if result.Error != nil {
			return result.Error
		}
		// Zero rows means a concurrent transition won between the read
		// and this guarded write; reporting success here would announce
		// a status the order never reached.
		if result.RowsAffected == 0 {
			return orderdomain.ErrInvalidTransition
		}

		payload := events.OrderStatusChangedPayload{
			OrderID:    id.String(),
			FromStatus: string(from),
			ToStatus:   string(status),
		}
		if err := s.outbox.PublishTx(ctx, tx, events.Event{
			Type:    events.EventOrderStatusChanged,
			Payload: payload.ToMap(),
		}); err != nil {
			return err
		}

		order.Status = status
		order.UpdatedAt = now
		updated = &order
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func validStatus(status orderdomain.OrderStatus) bool {
	switch status {
	case orderdomain.OrderStatusInit,
		orderdomain.OrderStatusPending,
		orderdomain.OrderStatusConfirmed,
		orderdomain.OrderStatusPaid,
		orderdomain.OrderStatusProcessing,
		orderdomain.OrderStatusShipped,
		orderdomain.OrderStatusDelivered,
		orderdomain.OrderStatusCancelled,
		orderdomain.OrderStatusRefunded,
		orderdomain.OrderStatusReturned:
		return true
	}
	return false
}

func decimalSum(lines []orderdomain.LineRequest) decimal.Decimal {
	total := decimal.Zero
	for _, line := range lines {
		total = total.Add(line.LineTotal())
	}
	return total
}

func distinctProductIDs(lines []orderdomain.PlaceOrderLine) []snowflake.ID {
	seen := make(map[snowflake.ID]bool, len(lines))
	ids := make([]snowflake.ID, 0, len(lines))
	for _, line := range lines {
		if seen[line.ProductID] {
			continue
		}
		seen[line.ProductID] = true
		ids = append(ids, line.ProductID)
	}
	return ids
}
