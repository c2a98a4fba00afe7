package events

import (
	"context"
	"fmt"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func setupOutboxTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.Exec(
		`CREATE TABLE IF NOT EXISTS order_events (
			id INTEGER PRIMARY KEY,
			event_type TEXT NOT NULL,
			payload TEXT,
			dedupe_key TEXT,
			published BOOLEAN NOT NULL DEFAULT false,
			created_at DATETIME
		)`,
	).Error; err != nil {
		t.Fatalf("create order_events: %v", err)
	}
	if err := db.Exec(
		`CREATE UNIQUE INDEX IF NOT EXISTS ux_order_events_dedupe
			ON order_events(dedupe_key) WHERE dedupe_key IS NOT NULL`,
	).Error; err != nil {
		t.Fatalf("create dedupe index: %v", err)
	}
	return db
}

func newTestOutbox(t *testing.T, db *gorm.DB) *Outbox {
	t.Helper()
	node, err := snowflake.NewNode(4)
	if err != nil {
		t.Fatalf("snowflake node: %v", err)
	}
	return NewOutbox(db, node)
}

func TestPublishDedupes(t *testing.T) {
	db := setupOutboxTestDB(t)
	outbox := newTestOutbox(t, db)

	event := Event{
		Type:      EventOrderCreated,
		Payload:   map[string]any{"order_id": "1"},
		DedupeKey: "order.created:1",
	}
	if err := outbox.Publish(context.Background(), event); err != nil {
		t.Fatalf("first publish: %v", err)
	}
	if err := outbox.Publish(context.Background(), event); err != nil {
		t.Fatalf("second publish: %v", err)
	}

	var count int64
	if err := db.Raw(`SELECT COUNT(*) FROM order_events`).Scan(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Fatalf("duplicate dedupe key must insert once, got %d rows", count)
	}
}

func TestPublishWithoutDedupeKeyAlwaysInserts(t *testing.T) {
	db := setupOutboxTestDB(t)
	outbox := newTestOutbox(t, db)

	event := Event{Type: EventOrderStatusChanged, Payload: map[string]any{"order_id": "1"}}
	for i := 0; i < 2; i++ {
		if err := outbox.Publish(context.Background(), event); err != nil {
			t.Fatalf("publish %d: %v", i, err)
		}
	}

	var count int64
	if err := db.Raw(`SELECT COUNT(*) FROM order_events`).Scan(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 rows, got %d", count)
	}
}

func TestPublishRejectsEmptyType(t *testing.T) {
	db := setupOutboxTestDB(t)
	outbox := newTestOutbox(t, db)

	if err := outbox.Publish(context.Background(), Event{Type: "  "}); err == nil {
		t.Fatal("expected error for empty event type")
	}
}
