package authorization

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/glebarez/sqlite"
	authdomain "github.com/perkhub/perkstore/internal/auth/domain"
	"go.uber.org/zap"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newTestService(t *testing.T) Service {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	enforcer, err := NewEnforcer(db)
	if err != nil {
		t.Fatalf("new enforcer: %v", err)
	}
	return NewService(zap.NewNop(), enforcer)
}

func TestAuthorizeSuperuserPassesEverything(t *testing.T) {
	svc := newTestService(t)
	admin := &authdomain.User{ID: 1, IsActive: true, IsSuperuser: true}

	for _, object := range []string{ObjectProduct, ObjectCompany, ObjectProject, ObjectCredit, ObjectOrder} {
		if err := svc.Authorize(context.Background(), admin, object, ActionWrite); err != nil {
			t.Fatalf("superuser write on %s: %v", object, err)
		}
	}
}

func TestAuthorizeMemberCanPlaceOrders(t *testing.T) {
	svc := newTestService(t)
	member := &authdomain.User{ID: 2, IsActive: true}

	if err := svc.Authorize(context.Background(), member, ObjectOrder, ActionWrite); err != nil {
		t.Fatalf("member must be able to place orders, got %v", err)
	}
	if err := svc.Authorize(context.Background(), member, ObjectCredit, ActionRead); err != nil {
		t.Fatalf("member must be able to read own credits, got %v", err)
	}
}

func TestAuthorizeMemberDeniedAdminActions(t *testing.T) {
	svc := newTestService(t)
	member := &authdomain.User{ID: 3, IsActive: true}

	cases := []struct{ object, action string }{
		{ObjectProduct, ActionWrite},
		{ObjectCompany, ActionWrite},
		{ObjectProject, ActionWrite},
		{ObjectCredit, ActionWrite},
		{ObjectOrder, ActionUpdateStatus},
	}
	for _, tc := range cases {
		err := svc.Authorize(context.Background(), member, tc.object, tc.action)
		if !errors.Is(err, ErrForbidden) {
			t.Fatalf("member %s %s: expected forbidden, got %v", tc.action, tc.object, err)
		}
	}
}

func TestAuthorizeInactiveActorDenied(t *testing.T) {
	svc := newTestService(t)
	inactive := &authdomain.User{ID: 4, IsSuperuser: true}

	err := svc.Authorize(context.Background(), inactive, ObjectOrder, ActionRead)
	if !errors.Is(err, ErrInvalidActor) {
		t.Fatalf("expected ErrInvalidActor, got %v", err)
	}

	err = svc.Authorize(context.Background(), nil, ObjectOrder, ActionRead)
	if !errors.Is(err, ErrInvalidActor) {
		t.Fatalf("expected ErrInvalidActor for nil actor, got %v", err)
	}
}

func TestEnforcerSeedsMemberGrantsOnce(t *testing.T) {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	if _, err := NewEnforcer(db); err != nil {
		t.Fatalf("first enforcer: %v", err)
	}
	if _, err := NewEnforcer(db); err != nil {
		t.Fatalf("second enforcer: %v", err)
	}

	var count int64
	if err := db.Table("casbin_rule").Count(&count).Error; err != nil {
		t.Fatalf("count rules: %v", err)
	}
	if count != int64(len(memberGrants)) {
		t.Fatalf("expected %d policy rows, got %d", len(memberGrants), count)
	}
}
