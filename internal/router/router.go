package router

import (
	"time"

	"factorylink/internal/config"
	"factorylink/internal/handler"
	"factorylink/internal/infra"
	"factorylink/internal/middleware"
	"factorylink/internal/repository"
	"factorylink/internal/service"
	"factorylink/internal/worker"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Deps are the collaborators built by the composition root.
type Deps struct {
	Commerce   *infra.CommerceClient
	Notifier   infra.Notifier
	Dispatcher *worker.Dispatcher
}

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client, deps Deps) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS())
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.RateLimiter(1000, time.Minute)) // 1000 req/min per IP

	// ── Repositories ─────────────────────────────────────────────────────────
	materialRepo := repository.NewMaterialRepository(db)
	ledgerRepo := repository.NewLedgerRepository(db)
	bomRepo := repository.NewBOMRepository(db)
	productRepo := repository.NewProductRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	customerRepo := repository.NewCustomerRepository(db)
	supplierRepo := repository.NewSupplierRepository(db)
	poRepo := repository.NewPurchaseOrderRepository(db)
	priceRepo := repository.NewPriceHistoryRepository(db)

	// ── Services ─────────────────────────────────────────────────────────────
	retries := cfg.StockRetryAttempts
	ledgerSvc := service.NewLedgerService(materialRepo, ledgerRepo, retries)
	materialSvc := service.NewMaterialService(materialRepo, priceRepo, ledgerSvc)
	productSvc := service.NewProductService(productRepo)
	bomSvc := service.NewBOMService(bomRepo, productRepo, materialRepo)
	allocatorSvc := service.NewAllocatorService(bomRepo, materialRepo, productRepo, ledgerSvc, retries)
	syncSvc := service.NewInventorySyncService(productRepo, deps.Commerce)
	orderSvc := service.NewOrderService(orderRepo, productRepo, customerRepo, allocatorSvc, syncSvc,
		deps.Notifier, deps.Dispatcher, service.OrderOptions{
			AllocateOnManufacturing: cfg.AllocateOnManufacturing,
			StrictProgression:       cfg.StrictStatusProgression,
			Retries:                 retries,
		})
	poSvc := service.NewPurchaseOrderService(poRepo, supplierRepo, materialRepo, priceRepo, ledgerSvc, retries)
	partnerSvc := service.NewPartnerService(customerRepo, supplierRepo)

	// ── Handlers ─────────────────────────────────────────────────────────────
	materialsH := handler.NewMaterialsHandler(materialSvc, ledgerSvc)
	productsH := handler.NewProductsHandler(productSvc, bomSvc, allocatorSvc, syncSvc)
	ordersH := handler.NewOrdersHandler(orderSvc)
	posH := handler.NewPurchaseOrdersHandler(poSvc)
	partnersH := handler.NewPartnersHandler(partnerSvc)

	// ── Routes ───────────────────────────────────────────────────────────────
	r.GET("/health", handler.Health(db, rdb, deps.Commerce.Breaker()))

	v1 := r.Group("/v1")
	{
		materials := v1.Group("/materials")
		{
			materials.POST("", materialsH.Create)
			materials.GET("", materialsH.List)
			materials.GET("/alerts", materialsH.Alerts)
			materials.GET("/:id", materialsH.Get)
			materials.PUT("/:id", materialsH.Update)
			materials.DELETE("/:id", materialsH.Delete)
			materials.POST("/:id/transactions", materialsH.RecordTransaction)
			materials.GET("/:id/transactions", materialsH.ListTransactions)
			materials.GET("/:id/audit", materialsH.Audit)
			materials.GET("/:id/price-history", materialsH.PriceHistory)
		}

		products := v1.Group("/products")
		{
			products.POST("", productsH.Create)
			products.GET("", productsH.List)
			products.GET("/:id", productsH.Get)
			products.GET("/:id/bom", productsH.ListBOM)
			products.PUT("/:id/bom", productsH.SetBOMEntry)
			products.GET("/:id/cost", productsH.Cost)
			products.GET("/:id/producible", productsH.Producible)
			products.POST("/:id/allocate", productsH.Allocate)
			products.POST("/:id/reconcile", productsH.Reconcile)
		}
		v1.DELETE("/bom/:id", productsH.RemoveBOMEntry)

		orders := v1.Group("/orders")
		{
			orders.POST("", ordersH.Create)
			orders.GET("", ordersH.List)
			orders.GET("/:id", ordersH.Get)
			orders.PATCH("/:id/status", ordersH.SetStatus)
		}

		pos := v1.Group("/purchase-orders")
		{
			pos.POST("", posH.Create)
			pos.GET("/:id", posH.Get)
			pos.PATCH("/:id/status", posH.SetStatus)
		}

		v1.POST("/customers", partnersH.CreateCustomer)
		v1.GET("/customers", partnersH.ListCustomers)
		v1.POST("/suppliers", partnersH.CreateSupplier)
		v1.GET("/suppliers", partnersH.ListSuppliers)
	}

	return r
}
