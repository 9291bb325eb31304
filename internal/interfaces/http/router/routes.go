package router

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"github.com/royalty/backend/internal/infrastructure/logger"
	"github.com/royalty/backend/internal/interfaces/http/handler"
	"github.com/royalty/backend/internal/interfaces/http/middleware"
)

// Handlers groups the HTTP handlers mounted by NewEngine
type Handlers struct {
	Receipts   *handler.ReceiptHandler
	Agreements *handler.AgreementHandler
	Payouts    *handler.PayoutHandler
	Exports    *handler.ExportHandler
	Statements *handler.StatementHandler
	Health     *handler.HealthHandler
}

// Options configures the engine's middleware chain
type Options struct {
	Logger         *zap.Logger
	Auth           middleware.AuthConfig
	CORS           middleware.CORSConfig
	Tracing        middleware.TracingConfig
	Profiling      middleware.ProfilingConfig
	Meter          metric.Meter
	MaxBodySize    int64
	TrustedProxies []string
}

// NewEngine builds the gin engine with the full middleware chain and all routes
func NewEngine(h Handlers, opts Options) (*gin.Engine, error) {
	middleware.SetupValidator()

	engine := gin.New()
	if err := engine.SetTrustedProxies(opts.TrustedProxies); err != nil {
		return nil, fmt.Errorf("invalid trusted proxies: %w", err)
	}

	engine.Use(
		logger.Recovery(opts.Logger),
		middleware.RequestID(),
		middleware.Secure(),
		middleware.CORSWithConfig(opts.CORS),
		middleware.TracingWithConfig(opts.Tracing),
		middleware.SpanErrorMarker(),
		middleware.HTTPMetricsWithMeter(opts.Meter),
		logger.GinMiddleware(opts.Logger),
	)
	if opts.MaxBodySize > 0 {
		engine.Use(middleware.BodyLimit(opts.MaxBodySize))
	}

	engine.GET("/health", h.Health.Health)
	engine.GET("/api/v1/health", h.Health.Health)

	NewAPI("v1",
		middleware.Authenticate(opts.Auth),
		middleware.TracingAttributeInjector(),
		middleware.ProfilingWithConfig(opts.Profiling),
	).Mount(
		receiptRoutes(h),
		agreementRoutes(h),
		payoutRoutes(h),
		adminRoutes(h),
	).Setup(engine)

	return engine, nil
}

func receiptRoutes(h Handlers) *DomainGroup {
	return NewDomainGroup("/receipts").
		POST("", h.Receipts.Register).
		GET("/:id", h.Receipts.Get).
		POST("/:id/distribute", h.Receipts.Distribute).
		GET("/:id/statement.pdf", h.Statements.Download)
}

func agreementRoutes(h Handlers) *DomainGroup {
	return NewDomainGroup("/agreements").
		POST("", h.Agreements.Create).
		GET("/:id", h.Agreements.Get)
}

func payoutRoutes(h Handlers) *DomainGroup {
	return NewDomainGroup("/payouts").
		GET("", h.Payouts.List).
		POST("/mark-paid", h.Payouts.MarkPaid)
}

func adminRoutes(h Handlers) *DomainGroup {
	admin := NewDomainGroup("/admin").Use(middleware.RequireAdmin())
	admin.Group("/payouts").
		PATCH("/:id/mark-paid", h.Payouts.AdminMarkPaid).
		GET("/export.csv", h.Exports.ExportCSV).
		POST("/exports", h.Exports.Archive)
	admin.Group("/receipts").
		GET("/:id/payouts", h.Receipts.ListPayouts)
	return admin
}
