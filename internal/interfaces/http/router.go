package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/stock-ledger/internal/application/integration"
	"github.com/jhoicas/stock-ledger/internal/application/inventory"
	"github.com/jhoicas/stock-ledger/internal/application/usecase"
	"github.com/jhoicas/stock-ledger/pkg/logger"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Movements      *inventory.MovementService
	Reconciliation *inventory.ReconciliationJob
	WarehouseUC    *usecase.WarehouseUseCase
	ProductUC      *usecase.ProductUseCase
	Consumers      *integration.Consumers
	JWTSecret      string
	Log            *logger.Logger
}

// Router registra las rutas de la API. Todo /api requiere Bearer Token.
func Router(app *fiber.App, deps RouterDeps) {
	protected := app.Group("/api", AuthMiddleware(deps.JWTSecret))

	readers := RequireRole(RoleAdmin, RoleBodeguero, RoleVendedor)
	writers := RequireRole(RoleAdmin, RoleBodeguero)
	admins := RequireRole(RoleAdmin)

	// Warehouses
	warehouses := protected.Group("/warehouses")
	warehouseHandler := NewWarehouseHandler(deps.WarehouseUC, deps.Log)
	warehouses.Post("/", admins, warehouseHandler.Create)
	warehouses.Get("/", readers, warehouseHandler.List)
	warehouses.Get("/:id", readers, warehouseHandler.GetByID)
	warehouses.Get("/:id/stock", readers, warehouseHandler.Stock)
	warehouses.Post("/:id/deactivate", admins, warehouseHandler.Deactivate)
	warehouses.Post("/:id/activate", admins, warehouseHandler.Activate)

	// Product references
	products := protected.Group("/products")
	productHandler := NewProductHandler(deps.ProductUC, deps.Log)
	products.Post("/", RequireRole(RoleAdmin, RoleIntegracion), productHandler.Register)
	products.Get("/:id", readers, productHandler.GetByID)

	// Inventory ledger
	invGroup := protected.Group("/inventory")
	inventoryHandler := NewInventoryHandler(deps.Movements, deps.Reconciliation, deps.Log)
	invGroup.Post("/inbound", writers, inventoryHandler.RecordInbound)
	invGroup.Post("/outbound", writers, inventoryHandler.RecordOutbound)
	invGroup.Post("/adjustments", writers, inventoryHandler.RecordAdjustment)
	invGroup.Post("/transfers", writers, inventoryHandler.RecordTransfer)
	invGroup.Get("/movements", readers, inventoryHandler.ListMovements)
	invGroup.Get("/movements/:id", readers, inventoryHandler.GetMovement)
	invGroup.Delete("/movements/:id", admins, inventoryHandler.ReverseMovement)
	invGroup.Get("/products/:id/stock", readers, inventoryHandler.GetProductStock)
	invGroup.Post("/reconciliations", admins, inventoryHandler.Reconcile)

	// Upstream integrations
	integrations := protected.Group("/integrations", RequireRole(RoleAdmin, RoleIntegracion, RoleVendedor, RoleBodeguero))
	integrationHandler := NewIntegrationHandler(deps.Consumers, deps.Log)
	integrations.Post("/sales/:id/complete", integrationHandler.CompleteSale)
	integrations.Post("/sales/:id/cancel", integrationHandler.CancelSale)
	integrations.Post("/shipments/:id/confirm", integrationHandler.ConfirmShipment)
	integrations.Post("/shipments/:id/cancel", integrationHandler.CancelShipment)
	integrations.Post("/claims/:id/approve", integrationHandler.ApproveClaim)
	integrations.Post("/purchases/:id/receive", integrationHandler.ReceivePurchase)
}
