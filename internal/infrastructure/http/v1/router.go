// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"

	"supplytrack/internal/core/types"
	"supplytrack/internal/domain/alerts"
	"supplytrack/internal/domain/audit"
	"supplytrack/internal/domain/catalogs/customer"
	"supplytrack/internal/domain/catalogs/product"
	"supplytrack/internal/domain/catalogs/supplier"
	"supplytrack/internal/domain/fulfillment"
	"supplytrack/internal/domain/invoices"
	"supplytrack/internal/domain/notify"
	"supplytrack/internal/domain/purchasing"
	"supplytrack/internal/domain/stockledger"
	"supplytrack/internal/infrastructure/http/v1/handlers"
	"supplytrack/internal/infrastructure/http/v1/middleware"
	"supplytrack/internal/infrastructure/storage/postgres"
	"supplytrack/internal/infrastructure/storage/postgres/catalog_repo"
	"supplytrack/internal/infrastructure/storage/postgres/document_repo"
	"supplytrack/internal/infrastructure/storage/postgres/register_repo"
	"supplytrack/pkg/logger"
)

// RouterConfig holds router configuration.
type RouterConfig struct {
	// Pool is the database connection pool (health checks).
	Pool *postgres.Pool

	// TxManager runs repository work in transactions.
	TxManager *postgres.TxManager

	// Logger for request logging.
	Logger *logger.Logger

	// TokenParser resolves bearer tokens for audit attribution.
	// Nil disables the identity middleware; all callers stay anonymous.
	TokenParser *middleware.TokenParser

	// Notifier delivers customer and supplier notifications.
	// Nil falls back to the log-backed notifier.
	Notifier notify.Notifier

	// TaxRate applies to invoice subtotals, e.g. 0.12 for VAT.
	TaxRate types.Money

	// AlertRule overrides the default reorder alert rule.
	AlertRule *alerts.Rule

	// AlertRecipient is the purchasing inbox for alert sweep summaries.
	AlertRecipient string
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) (*gin.Engine, error) {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())

	// Health endpoints (no identity required)
	healthHandler := handlers.NewHealthHandler(cfg.Pool)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
		health.GET("/info", healthHandler.Info)
	}

	notifier := cfg.Notifier
	if notifier == nil {
		notifier = notify.NewLogNotifier()
	}

	// Repositories
	auditRepo, err := postgres.NewAuditRepo(cfg.TxManager)
	if err != nil {
		return nil, err
	}
	productRepo := catalog_repo.NewProductRepo(cfg.TxManager)
	customerRepo := catalog_repo.NewCustomerRepo(cfg.TxManager)
	supplierRepo := catalog_repo.NewSupplierRepo(cfg.TxManager)
	orderRepo := document_repo.NewOrderRepo(cfg.TxManager)
	manualRepo := document_repo.NewManualOrderRepo(cfg.TxManager)
	deliveryRepo := document_repo.NewDeliveryRepo(cfg.TxManager)
	poRepo := document_repo.NewPurchaseOrderRepo(cfg.TxManager)
	invoiceRepo := document_repo.NewInvoiceRepo(cfg.TxManager)
	ledgerRepo := register_repo.NewLedgerRepo(cfg.TxManager)
	alertLogRepo := register_repo.NewAlertLogRepo(cfg.TxManager)

	// Services
	auditService := audit.NewService(auditRepo)
	ledgerService := stockledger.NewService(ledgerRepo, cfg.TxManager)
	productService := product.NewService(productRepo, auditService)
	customerService := customer.NewService(customerRepo, auditService)
	supplierService := supplier.NewService(supplierRepo, auditService)
	fulfillmentService := fulfillment.NewService(
		orderRepo, manualRepo, deliveryRepo, customerRepo,
		ledgerService, cfg.TxManager, auditService, notifier,
	)
	purchasingService := purchasing.NewService(
		poRepo, supplierRepo, ledgerService, cfg.TxManager, auditService, notifier,
	)
	invoiceService := invoices.NewService(
		invoiceRepo, orderRepo, manualRepo, customerRepo,
		cfg.TxManager, auditService, cfg.TaxRate,
	)
	alertService := alerts.NewService(
		productRepo, alertLogRepo, cfg.AlertRule, notifier, cfg.AlertRecipient,
	)

	// API v1
	api := router.Group("/api/v1")
	if cfg.TokenParser != nil {
		api.Use(middleware.Identity(cfg.TokenParser))
	}

	base := handlers.NewBaseHandler()

	catalog := api.Group("/catalog")
	{
		handlers.NewProductHandler(base, productService).RegisterRoutes(catalog.Group("/products"))
		handlers.NewCustomerHandler(base, customerService).RegisterRoutes(catalog.Group("/customers"))
		handlers.NewSupplierHandler(base, supplierService).RegisterRoutes(catalog.Group("/suppliers"))
	}

	handlers.NewOrderHandler(base, fulfillmentService, productService).
		RegisterRoutes(api.Group("/orders"))
	handlers.NewManualOrderHandler(base, fulfillmentService, productService).
		RegisterRoutes(api.Group("/manual-orders"))
	handlers.NewDeliveryHandler(base, fulfillmentService).
		RegisterRoutes(api.Group("/deliveries"))
	handlers.NewPurchaseOrderHandler(base, purchasingService).
		RegisterRoutes(api.Group("/purchase-orders"))
	handlers.NewInvoiceHandler(base, invoiceService).
		RegisterRoutes(api.Group("/invoices"))
	handlers.NewStockHandler(base, ledgerService).
		RegisterRoutes(api.Group("/stock"))
	handlers.NewAlertHandler(base, alertService).
		RegisterRoutes(api.Group("/alerts"))
	handlers.NewAuditHandler(base, auditService).
		RegisterRoutes(api.Group("/audit"))

	return router, nil
}
