package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/perkhub/perkstore/internal/audit"
	"github.com/perkhub/perkstore/internal/authorization"
	"github.com/perkhub/perkstore/internal/catalogue"
	"github.com/perkhub/perkstore/internal/clock"
	"github.com/perkhub/perkstore/internal/company"
	"github.com/perkhub/perkstore/internal/config"
	"github.com/perkhub/perkstore/internal/credit"
	"github.com/perkhub/perkstore/internal/events"
	"github.com/perkhub/perkstore/internal/logger"
	"github.com/perkhub/perkstore/internal/migration"
	"github.com/perkhub/perkstore/internal/observability"
	"github.com/perkhub/perkstore/internal/order"
	"github.com/perkhub/perkstore/internal/seed"
	"github.com/perkhub/perkstore/internal/server"
	"github.com/perkhub/perkstore/pkg/db"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var version = "dev"

func main() {
	app := fx.New(
		config.Module,
		logger.Module,
		fx.Provide(func() *snowflake.Node {
			node, err := snowflake.NewNode(1)
			if err != nil {
				panic(err)
			}
			return node
		}),
		db.Module,
		clock.Module,
		observability.Module,
		fx.Invoke(func(conn *gorm.DB, cfg config.Config) error {
			sqlDB, err := conn.DB()
			if err != nil {
				return err
			}
			if err := migration.RunMigrations(sqlDB); err != nil {
				return err
			}
			if cfg.Bootstrap.EnsureDefaultAdmin {
				if err := seed.EnsureDefaultAdmin(conn); err != nil {
					return err
				}
			}
			if cfg.Bootstrap.SeedDemoData {
				return seed.SeedDemoData(conn)
			}
			return nil
		}),
		events.Module,
		audit.Module,
		authorization.Module,
		catalogue.Module,
		company.Module,
		credit.Module,
		order.Module,
		server.Module,
	)
	app.Run()
}
