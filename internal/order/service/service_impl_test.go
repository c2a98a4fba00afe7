package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	cataloguedomain "github.com/perkhub/perkstore/internal/catalogue/domain"
	catalogueservice "github.com/perkhub/perkstore/internal/catalogue/service"
	"github.com/perkhub/perkstore/internal/clock"
	creditrepo "github.com/perkhub/perkstore/internal/credit/repository"
	"github.com/perkhub/perkstore/internal/events"
	orderdomain "github.com/perkhub/perkstore/internal/order/domain"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func setupOrderTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	ddl := []string{
		`CREATE TABLE IF NOT EXISTS products (
			id INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			slug TEXT NOT NULL,
			description TEXT,
			short_description TEXT,
			rating REAL NOT NULL DEFAULT 0,
			price NUMERIC NOT NULL,
			is_active BOOLEAN NOT NULL DEFAULT true,
			is_discountable BOOLEAN NOT NULL DEFAULT true,
			created_at DATETIME,
			updated_at DATETIME
		)`,
		`CREATE TABLE IF NOT EXISTS credits (
			id INTEGER PRIMARY KEY,
			user_id BIGINT NOT NULL,
			project_id BIGINT NOT NULL,
			amount NUMERIC NOT NULL,
			created_at DATETIME,
			updated_at DATETIME
		)`,
		`CREATE TABLE IF NOT EXISTS product_limits (
			id INTEGER PRIMARY KEY,
			project_id BIGINT NOT NULL,
			product_id BIGINT NOT NULL,
			amount NUMERIC NOT NULL,
			absolute_limit BOOLEAN NOT NULL DEFAULT false,
			created_at DATETIME,
			updated_at DATETIME
		)`,
		`CREATE TABLE IF NOT EXISTS orders (
			id INTEGER PRIMARY KEY,
			number TEXT NOT NULL UNIQUE,
			user_id BIGINT NOT NULL,
			guest_email TEXT,
			status TEXT NOT NULL,
			total_incl_tax NUMERIC NOT NULL,
			total_excl_tax NUMERIC NOT NULL,
			created_at DATETIME,
			updated_at DATETIME
		)`,
		`CREATE TABLE IF NOT EXISTS order_lines (
			id INTEGER PRIMARY KEY,
			order_id BIGINT NOT NULL,
			product_id BIGINT NOT NULL,
			quantity INTEGER NOT NULL,
			unit_price_incl_tax NUMERIC NOT NULL,
			unit_price_excl_tax NUMERIC NOT NULL,
			line_price_incl_tax NUMERIC NOT NULL,
			line_price_excl_tax NUMERIC NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS funding_transactions (
			id INTEGER PRIMARY KEY,
			order_id BIGINT NOT NULL,
			project_id BIGINT NOT NULL,
			product_id BIGINT,
			amount NUMERIC NOT NULL,
			created_at DATETIME
		)`,
		`CREATE TABLE IF NOT EXISTS order_events (
			id INTEGER PRIMARY KEY,
			event_type TEXT NOT NULL,
			payload TEXT,
			dedupe_key TEXT,
			published BOOLEAN NOT NULL DEFAULT false,
			created_at DATETIME
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS ux_order_events_dedupe
			ON order_events(dedupe_key) WHERE dedupe_key IS NOT NULL`,
	}
	for _, stmt := range ddl {
		if err := db.Exec(stmt).Error; err != nil {
			t.Fatalf("ddl: %v", err)
		}
	}
	return db
}

func newTestCatalogue(t *testing.T, db *gorm.DB, node *snowflake.Node) cataloguedomain.Service {
	t.Helper()
	return catalogueservice.NewService(catalogueservice.Params{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Clock: clock.SystemClock{},
	})
}

func newOrderTestService(t *testing.T, db *gorm.DB) (orderdomain.Service, *snowflake.Node) {
	t.Helper()
	node, err := snowflake.NewNode(7)
	if err != nil {
		t.Fatalf("snowflake node: %v", err)
	}

	svc := NewService(Params{
		DB:           db,
		Log:          zap.NewNop(),
		GenID:        node,
		Clock:        clock.Fixed{At: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)},
		CatalogueSvc: newTestCatalogue(t, db, node),
		Ledger:       creditrepo.NewLedger(creditrepo.Params{Log: zap.NewNop()}),
		Outbox:       events.NewOutbox(db, node),
	})
	return svc, node
}

func insertProduct(t *testing.T, db *gorm.DB, id int64, price string, active bool) {
	t.Helper()
	if err := db.Exec(
		`INSERT INTO products (id, name, slug, price, is_active) VALUES (?, ?, ?, ?, ?)`,
		id, fmt.Sprintf("product-%d", id), fmt.Sprintf("product-%d", id), price, active,
	).Error; err != nil {
		t.Fatalf("insert product: %v", err)
	}
}

func insertCredit(t *testing.T, db *gorm.DB, id, userID, projectID int64, amount string) {
	t.Helper()
	if err := db.Exec(
		`INSERT INTO credits (id, user_id, project_id, amount) VALUES (?, ?, ?, ?)`,
		id, userID, projectID, amount,
	).Error; err != nil {
		t.Fatalf("insert credit: %v", err)
	}
}

func insertProductLimit(t *testing.T, db *gorm.DB, id, projectID, productID int64, amount string, absolute bool) {
	t.Helper()
	if err := db.Exec(
		`INSERT INTO product_limits (id, project_id, product_id, amount, absolute_limit) VALUES (?, ?, ?, ?, ?)`,
		id, projectID, productID, amount, absolute,
	).Error; err != nil {
		t.Fatalf("insert product limit: %v", err)
	}
}

func creditBalance(t *testing.T, db *gorm.DB, userID, projectID int64) decimal.Decimal {
	t.Helper()
	var raw string
	if err := db.Raw(
		`SELECT amount FROM credits WHERE user_id = ? AND project_id = ?`, userID, projectID,
	).Scan(&raw).Error; err != nil {
		t.Fatalf("read credit balance: %v", err)
	}
	return decimal.RequireFromString(raw)
}

func limitBalance(t *testing.T, db *gorm.DB, projectID, productID int64) decimal.Decimal {
	t.Helper()
	var raw string
	if err := db.Raw(
		`SELECT amount FROM product_limits WHERE project_id = ? AND product_id = ?`, projectID, productID,
	).Scan(&raw).Error; err != nil {
		t.Fatalf("read limit balance: %v", err)
	}
	return decimal.RequireFromString(raw)
}

func TestPlaceLeavesExactRemainder(t *testing.T) {
	db := setupOrderTestDB(t)
	svc, _ := newOrderTestService(t, db)

	insertProduct(t, db, 100, "99.99", true)
	insertCredit(t, db, 1, 10, 1, "200.00")

	order, err := svc.Place(context.Background(), orderdomain.PlaceOrderRequest{
		UserID: 10,
		Lines: []orderdomain.PlaceOrderLine{
			{ProductID: 100, Quantity: 2},
		},
	})
	if err != nil {
		t.Fatalf("place: %v", err)
	}

	if order.Status != orderdomain.OrderStatusInit {
		t.Fatalf("expected INIT, got %s", order.Status)
	}
	if !order.TotalInclTax.Equal(decimal.RequireFromString("199.98")) {
		t.Fatalf("expected total 199.98, got %s", order.TotalInclTax)
	}
	if got := creditBalance(t, db, 10, 1); !got.Equal(decimal.RequireFromString("0.02")) {
		t.Fatalf("expected remaining 0.02, got %s", got)
	}

	var txnCount int64
	if err := db.Raw(`SELECT COUNT(*) FROM funding_transactions WHERE order_id = ?`, int64(order.ID)).Scan(&txnCount).Error; err != nil {
		t.Fatalf("count transactions: %v", err)
	}
	if txnCount != 1 {
		t.Fatalf("expected one funding transaction, got %d", txnCount)
	}
}

func TestPlaceCombinesScopedAndUnscoped(t *testing.T) {
	db := setupOrderTestDB(t)
	svc, _ := newOrderTestService(t, db)

	insertProduct(t, db, 100, "600.00", true)
	insertCredit(t, db, 1, 10, 1, "100.00")
	insertProductLimit(t, db, 2, 1, 100, "500.00", false)

	order, err := svc.Place(context.Background(), orderdomain.PlaceOrderRequest{
		UserID: 10,
		Lines: []orderdomain.PlaceOrderLine{
			{ProductID: 100, Quantity: 1},
		},
	})
	if err != nil {
		t.Fatalf("place: %v", err)
	}

	if got := limitBalance(t, db, 1, 100); !got.Equal(decimal.Zero) {
		t.Fatalf("scoped cap should be drained, got %s", got)
	}
	if got := creditBalance(t, db, 10, 1); !got.Equal(decimal.Zero) {
		t.Fatalf("unscoped balance should be drained, got %s", got)
	}

	var txnCount int64
	if err := db.Raw(`SELECT COUNT(*) FROM funding_transactions WHERE order_id = ?`, int64(order.ID)).Scan(&txnCount).Error; err != nil {
		t.Fatalf("count transactions: %v", err)
	}
	if txnCount != 2 {
		t.Fatalf("expected two funding transactions, got %d", txnCount)
	}
}

func TestPlaceInsufficientPersistsNothing(t *testing.T) {
	db := setupOrderTestDB(t)
	svc, _ := newOrderTestService(t, db)

	insertProduct(t, db, 100, "150.00", true)
	insertCredit(t, db, 1, 10, 1, "100.00")

	_, err := svc.Place(context.Background(), orderdomain.PlaceOrderRequest{
		UserID: 10,
		Lines: []orderdomain.PlaceOrderLine{
			{ProductID: 100, Quantity: 1},
		},
	})
	if !errors.Is(err, orderdomain.ErrInsufficientCredit) {
		t.Fatalf("expected ErrInsufficientCredit, got %v", err)
	}

	for _, table := range []string{"orders", "order_lines", "funding_transactions", "order_events"} {
		var count int64
		if err := db.Raw("SELECT COUNT(*) FROM " + table).Scan(&count).Error; err != nil {
			t.Fatalf("count %s: %v", table, err)
		}
		if count != 0 {
			t.Fatalf("%s must stay empty after failed placement, got %d rows", table, count)
		}
	}
	if got := creditBalance(t, db, 10, 1); !got.Equal(decimal.RequireFromString("100.00")) {
		t.Fatalf("balance must be untouched, got %s", got)
	}
}

func TestPlaceInactiveProductFails(t *testing.T) {
	db := setupOrderTestDB(t)
	svc, _ := newOrderTestService(t, db)

	insertProduct(t, db, 100, "10.00", false)
	insertCredit(t, db, 1, 10, 1, "100.00")

	_, err := svc.Place(context.Background(), orderdomain.PlaceOrderRequest{
		UserID: 10,
		Lines: []orderdomain.PlaceOrderLine{
			{ProductID: 100, Quantity: 1},
		},
	})
	if !errors.Is(err, orderdomain.ErrProductUnavailable) {
		t.Fatalf("expected ErrProductUnavailable, got %v", err)
	}
}

func TestPlaceUnknownProductFails(t *testing.T) {
	db := setupOrderTestDB(t)
	svc, _ := newOrderTestService(t, db)

	insertCredit(t, db, 1, 10, 1, "100.00")

	_, err := svc.Place(context.Background(), orderdomain.PlaceOrderRequest{
		UserID: 10,
		Lines: []orderdomain.PlaceOrderLine{
			{ProductID: 999, Quantity: 1},
		},
	})
	if !errors.Is(err, orderdomain.ErrProductUnavailable) {
		t.Fatalf("expected ErrProductUnavailable, got %v", err)
	}
}

func TestPlaceRejectsInvalidQuantity(t *testing.T) {
	db := setupOrderTestDB(t)
	svc, _ := newOrderTestService(t, db)

	_, err := svc.Place(context.Background(), orderdomain.PlaceOrderRequest{
		UserID: 10,
		Lines: []orderdomain.PlaceOrderLine{
			{ProductID: 100, Quantity: 0},
		},
	})
	if !errors.Is(err, orderdomain.ErrInvalidQuantity) {
		t.Fatalf("expected ErrInvalidQuantity, got %v", err)
	}
}

func TestPlaceMultiLineCarriesBalances(t *testing.T) {
	db := setupOrderTestDB(t)
	svc, _ := newOrderTestService(t, db)

	insertProduct(t, db, 100, "80.00", true)
	insertProduct(t, db, 101, "60.00", true)
	insertCredit(t, db, 1, 10, 1, "100.00")
	insertCredit(t, db, 2, 10, 2, "50.00")

	order, err := svc.Place(context.Background(), orderdomain.PlaceOrderRequest{
		UserID: 10,
		Lines: []orderdomain.PlaceOrderLine{
			{ProductID: 100, Quantity: 1},
			{ProductID: 101, Quantity: 1},
		},
	})
	if err != nil {
		t.Fatalf("place: %v", err)
	}
	if !order.TotalInclTax.Equal(decimal.RequireFromString("140.00")) {
		t.Fatalf("expected total 140.00, got %s", order.TotalInclTax)
	}

	if got := creditBalance(t, db, 10, 1); !got.Equal(decimal.RequireFromString("10.00")) {
		t.Fatalf("project 1 should keep 10.00, got %s", got)
	}
	if got := creditBalance(t, db, 10, 2); !got.Equal(decimal.Zero) {
		t.Fatalf("project 2 should be drained, got %s", got)
	}
}

func TestPlaceWritesOutboxEvent(t *testing.T) {
	db := setupOrderTestDB(t)
	svc, _ := newOrderTestService(t, db)

	insertProduct(t, db, 100, "10.00", true)
	insertCredit(t, db, 1, 10, 1, "100.00")

	order, err := svc.Place(context.Background(), orderdomain.PlaceOrderRequest{
		UserID: 10,
		Lines: []orderdomain.PlaceOrderLine{
			{ProductID: 100, Quantity: 1},
		},
	})
	if err != nil {
		t.Fatalf("place: %v", err)
	}

	var eventType string
	if err := db.Raw(
		`SELECT event_type FROM order_events WHERE dedupe_key = ?`,
		"order.created:"+order.ID.String(),
	).Scan(&eventType).Error; err != nil {
		t.Fatalf("read outbox: %v", err)
	}
	if eventType != events.EventOrderCreated {
		t.Fatalf("expected order.created event, got %q", eventType)
	}
}

func TestGetByIDLoadsLines(t *testing.T) {
	db := setupOrderTestDB(t)
	svc, _ := newOrderTestService(t, db)

	insertProduct(t, db, 100, "10.00", true)
	insertCredit(t, db, 1, 10, 1, "100.00")

	placed, err := svc.Place(context.Background(), orderdomain.PlaceOrderRequest{
		UserID: 10,
		Lines: []orderdomain.PlaceOrderLine{
			{ProductID: 100, Quantity: 2},
		},
	})
	if err != nil {
		t.Fatalf("place: %v", err)
	}

	got, err := svc.GetByID(context.Background(), placed.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(got.Lines) != 1 || got.Lines[0].Quantity != 2 {
		t.Fatalf("expected one line with quantity 2, got %+v", got.Lines)
	}
}

func TestGetByIDNotFound(t *testing.T) {
	db := setupOrderTestDB(t)
	svc, _ := newOrderTestService(t, db)

	_, err := svc.GetByID(context.Background(), 42)
	if !errors.Is(err, orderdomain.ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound, got %v", err)
	}
}

func TestUpdateStatusFollowsTransitions(t *testing.T) {
	db := setupOrderTestDB(t)
	svc, _ := newOrderTestService(t, db)

	insertProduct(t, db, 100, "10.00", true)
	insertCredit(t, db, 1, 10, 1, "100.00")

	placed, err := svc.Place(context.Background(), orderdomain.PlaceOrderRequest{
		UserID: 10,
		Lines: []orderdomain.PlaceOrderLine{
			{ProductID: 100, Quantity: 1},
		},
	})
	if err != nil {
		t.Fatalf("place: %v", err)
	}

	updated, err := svc.UpdateStatus(context.Background(), placed.ID, orderdomain.OrderStatusPending)
	if err != nil {
		t.Fatalf("update status: %v", err)
	}
	if updated.Status != orderdomain.OrderStatusPending {
		t.Fatalf("expected PENDING, got %s", updated.Status)
	}

	_, err = svc.UpdateStatus(context.Background(), placed.ID, orderdomain.OrderStatusShipped)
	if !errors.Is(err, orderdomain.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestListPaginates(t *testing.T) {
	db := setupOrderTestDB(t)
	svc, _ := newOrderTestService(t, db)

	insertProduct(t, db, 100, "1.00", true)
	insertCredit(t, db, 1, 10, 1, "100.00")

	for i := 0; i < 3; i++ {
		if _, err := svc.Place(context.Background(), orderdomain.PlaceOrderRequest{
			UserID: 10,
			Lines: []orderdomain.PlaceOrderLine{
				{ProductID: 100, Quantity: 1},
			},
		}); err != nil {
			t.Fatalf("place %d: %v", i, err)
		}
	}

	first, err := svc.List(context.Background(), orderdomain.ListOrdersRequest{UserID: 10, PageSize: 2})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(first.Orders) != 2 || first.NextPageToken == "" {
		t.Fatalf("expected first page of 2 with token, got %d orders", len(first.Orders))
	}

	second, err := svc.List(context.Background(), orderdomain.ListOrdersRequest{
		UserID:    10,
		PageSize:  2,
		PageToken: first.NextPageToken,
	})
	if err != nil {
		t.Fatalf("list second page: %v", err)
	}
	if len(second.Orders) != 1 || second.NextPageToken != "" {
		t.Fatalf("expected final page of 1, got %d orders", len(second.Orders))
	}
}

func TestUpdateStatusDetectsConcurrentTransition(t *testing.T) {
	db := setupOrderTestDB(t)
	svc, _ := newOrderTestService(t, db)

	insertProduct(t, db, 100, "10.00", true)
	insertCredit(t, db, 1, 10, 1, "100.00")

	placed, err := svc.Place(context.Background(), orderdomain.PlaceOrderRequest{
		UserID: 10,
		Lines: []orderdomain.PlaceOrderLine{
			{ProductID: 100, Quantity: 1},
		},
	})
	if err != nil {
		t.Fatalf("place: %v", err)
	}

	// Steal the row between the status read and the guarded write, the
	// way a concurrent transition does under read committed.
	stolen := false
	err = db.Callback().Update().Before("gorm:update").Register("steal_status", func(tx *gorm.DB) {
		if stolen {
			return
		}
		stolen = true
		tx.Session(&gorm.Session{NewDB: true}).Exec(
			`UPDATE orders SET status = ? WHERE id = ?`,
			string(orderdomain.OrderStatusCancelled), placed.ID,
		)
	})
	if err != nil {
		t.Fatalf("register callback: %v", err)
	}
	defer func() {
		_ = db.Callback().Update().Remove("steal_status")
	}()

	_, err = svc.UpdateStatus(context.Background(), placed.ID, orderdomain.OrderStatusPending)
	if !errors.Is(err, orderdomain.ErrInvalidTransition) {
		t.Fatalf("lost update must not be reported as success, got %v", err)
	}

	// The losing attempt rolls back whole, its stolen write included.
	var status string
	if err := db.Raw(`SELECT status FROM orders WHERE id = ?`, placed.ID).Scan(&status).Error; err != nil {
		t.Fatalf("read status: %v", err)
	}
	if status != string(orderdomain.OrderStatusInit) {
		t.Fatalf("losing attempt must leave the order untouched, got %s", status)
	}

	var changed int64
	if err := db.Table("order_events").
		Where("event_type = ?", events.EventOrderStatusChanged).
		Count(&changed).Error; err != nil {
		t.Fatalf("count events: %v", err)
	}
	if changed != 0 {
		t.Fatalf("losing transition must not emit a status_changed event, got %d", changed)
	}
}
