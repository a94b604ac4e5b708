package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/smallbiznis/parkpro/internal/config"
	"github.com/smallbiznis/parkpro/internal/dashboard"
	dashboarddomain "github.com/smallbiznis/parkpro/internal/dashboard/domain"
	"github.com/smallbiznis/parkpro/internal/observability"
	obsmiddleware "github.com/smallbiznis/parkpro/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/parkpro/internal/observability/metrics"
	obstracing "github.com/smallbiznis/parkpro/internal/observability/tracing"
	"github.com/smallbiznis/parkpro/internal/parking"
	parkingdomain "github.com/smallbiznis/parkpro/internal/parking/domain"
	"github.com/smallbiznis/parkpro/internal/parking/liveevents"
	"github.com/smallbiznis/parkpro/internal/pricing"
	pricingdomain "github.com/smallbiznis/parkpro/internal/pricing/domain"
	"github.com/smallbiznis/parkpro/internal/providers"
	"github.com/smallbiznis/parkpro/internal/providers/pdf"
	"github.com/smallbiznis/parkpro/internal/ratelimit"
	"github.com/smallbiznis/parkpro/internal/rating"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	pricing.Module,
	rating.Module,
	providers.Module,
	parking.Module,
	dashboard.Module,
	ratelimit.Module,
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware(classifyErrorForLog))
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	return NewEngine(obsCfg, httpMetrics)
}

func run(lc fx.Lifecycle, r *gin.Engine, cfg config.Config, log *zap.Logger) {
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Fatal("http server stopped", zap.Error(err))
				}
			}()
			log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine       *gin.Engine
	cfg          config.Config
	db           *gorm.DB
	log          *zap.Logger
	parkingSvc   parkingdomain.Service
	pricingSvc   pricingdomain.Service
	dashboardSvc dashboarddomain.Service
	pdf          pdf.Provider
	liveEvents   *liveevents.Hub
	obsMetrics   *obsmetrics.Metrics
	entryLimiter *ratelimit.EntryLimiter
}

type ServerParams struct {
	fx.In

	Gin          *gin.Engine
	Cfg          config.Config
	DB           *gorm.DB `optional:"true"`
	Log          *zap.Logger
	ParkingSvc   parkingdomain.Service
	PricingSvc   pricingdomain.Service
	DashboardSvc dashboarddomain.Service
	PDF          pdf.Provider
	LiveEvents   *liveevents.Hub         `optional:"true"`
	ObsMetrics   *obsmetrics.Metrics     `optional:"true"`
	EntryLimiter *ratelimit.EntryLimiter `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:       p.Gin,
		cfg:          p.Cfg,
		db:           p.DB,
		log:          p.Log.Named("http.server"),
		parkingSvc:   p.ParkingSvc,
		pricingSvc:   p.PricingSvc,
		dashboardSvc: p.DashboardSvc,
		pdf:          p.PDF,
		liveEvents:   p.LiveEvents,
		obsMetrics:   p.ObsMetrics,
		entryLimiter: p.EntryLimiter,
	}

	svc.engine.GET("/health", svc.Health)
	svc.registerAPIRoutes()
	svc.registerFallback()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api")

	// -------- Sessions --------
	api.POST("/sessions", s.EntryRateLimit(), s.CreateSession)
	api.GET("/sessions/search", s.SearchParkedSessions)
	api.GET("/sessions/parked", s.ListParkedSessions)
	api.GET("/sessions/events", s.StreamSessionEvents)
	api.GET("/sessions/ws", s.SessionEventsWebSocket)
	api.GET("/sessions/:id", s.GetSession)
	api.POST("/sessions/:id/checkout", s.CheckoutSession)

	// -------- Receipts --------
	api.GET("/receipts/:id", s.GetReceipt)
	api.GET("/receipts/:id/pdf", s.GetReceiptPDF)

	// -------- Pricing --------
	api.GET("/pricing", s.GetPricingConfig)
	api.PUT("/pricing", s.UpdatePricingConfig)

	// -------- Dashboard --------
	api.GET("/dashboard", s.GetDashboard)
}

func (s *Server) registerFallback() {
	s.engine.NoRoute(func(c *gin.Context) {
		AbortWithError(c, ErrNotFound)
	})
}

func (s *Server) Health(c *gin.Context) {
	if s.db != nil {
		sqlDB, err := s.db.DB()
		if err == nil {
			err = sqlDB.PingContext(c.Request.Context())
		}
		if err != nil {
			s.log.Warn("health check database ping failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
