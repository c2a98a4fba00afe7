package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	auditdomain "github.com/perkhub/perkstore/internal/audit/domain"
	"github.com/perkhub/perkstore/internal/authorization"
	cataloguedomain "github.com/perkhub/perkstore/internal/catalogue/domain"
	companydomain "github.com/perkhub/perkstore/internal/company/domain"
	"github.com/perkhub/perkstore/internal/config"
	obslogger "github.com/perkhub/perkstore/internal/observability/logger"
	"github.com/perkhub/perkstore/internal/observability/metrics"
	"github.com/perkhub/perkstore/internal/observability/tracing"
	orderdomain "github.com/perkhub/perkstore/internal/order/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	Config       config.Config
	DB           *gorm.DB
	Log          *zap.Logger
	GenID        *snowflake.Node
	HTTPMetrics  *metrics.HTTPMetrics
	OrderSvc     orderdomain.Service
	CatalogueSvc cataloguedomain.Service
	CompanySvc   companydomain.Service
	AuditSvc     auditdomain.Service
	AuthzSvc     authorization.Service
}

// Server holds the HTTP handlers and their dependencies.
type Server struct {
	cfg   config.Config
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node

	orderSvc     orderdomain.Service
	catalogueSvc cataloguedomain.Service
	companySvc   companydomain.Service
	auditSvc     auditdomain.Service
	authzSvc     authorization.Service

	checkoutLimiter *checkoutLimiter
	httpMetrics     *metrics.HTTPMetrics
}

func NewServer(p Params) *Server {
	return &Server{
		cfg:   p.Config,
		db:    p.DB,
		log:   p.Log.Named("server"),
		genID: p.GenID,

		orderSvc:     p.OrderSvc,
		catalogueSvc: p.CatalogueSvc,
		companySvc:   p.CompanySvc,
		auditSvc:     p.AuditSvc,
		authzSvc:     p.AuthzSvc,

		checkoutLimiter: newCheckoutLimiter(p.Config.CheckoutRateLimit, p.Config.CheckoutRateWindow),
		httpMetrics:     p.HTTPMetrics,
	}
}

// NewEngine builds the gin engine with the shared middleware chain.
func (s *Server) NewEngine() *gin.Engine {
	if s.cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(tracing.GinMiddleware("perkstore"))
	engine.Use(obslogger.GinMiddleware())
	if s.httpMetrics != nil {
		engine.Use(metrics.GinMiddleware(s.httpMetrics))
	}

	s.registerRoutes(engine)
	return engine
}

// RunHTTP starts the HTTP listener under the fx lifecycle.
func RunHTTP(lc fx.Lifecycle, s *Server, log *zap.Logger) {
	srv := &http.Server{
		Addr:              s.cfg.HTTPAddr,
		Handler:           s.NewEngine(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			ln, err := net.Listen("tcp", srv.Addr)
			if err != nil {
				return err
			}
			log.Info("http server listening", zap.String("addr", srv.Addr))
			go func() {
				if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Error("http server stopped", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return srv.Shutdown(ctx)
		},
	})
}

var Module = fx.Module("server",
	fx.Provide(NewServer),
	fx.Invoke(RunHTTP),
)
