package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/jhoicas/retail-ledger/internal/application/inventory"
	"github.com/jhoicas/retail-ledger/internal/application/pricing"
	"github.com/jhoicas/retail-ledger/internal/application/sales"
	"github.com/jhoicas/retail-ledger/internal/application/transfers"
	"github.com/jhoicas/retail-ledger/internal/infrastructure/cache"
	"github.com/rs/zerolog"
)

// Roles que pueden ajustar inventario (conteo físico).
var adjustRoles = []string{"admin", "bodeguero"}

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Stock     *inventory.StockService
	Sales     *sales.SaleService
	Receipts  *sales.ReceiptService
	Transfers *transfers.TransferService
	Prices    *pricing.Resolver

	Idempotency    cache.IdempotencyStore
	IdempotencyTTL time.Duration

	JWTSecret      string
	JWTIssuer      string
	ServiceName    string
	Logger         zerolog.Logger
	RequestTimeout time.Duration
}

// Router registra middlewares de petición, /health y las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	app.Use(requestid.New())
	app.Use(RequestContext(deps.Logger, deps.RequestTimeout))
	app.Use(RequestLogger())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": deps.ServiceName})
	})

	// Rutas protegidas (requieren Bearer Token)
	protected := app.Group("/api", AuthMiddleware(deps.JWTSecret, deps.JWTIssuer))
	idem := Idempotency(deps.Idempotency, deps.IdempotencyTTL)

	// Inventario: movimientos y saldos
	inv := protected.Group("/inventory")
	inventoryHandler := NewInventoryHandler(deps.Stock)
	inv.Post("/receive", inventoryHandler.Receive)
	inv.Post("/sell", inventoryHandler.Sell)
	inv.Post("/adjust", RequireRole(adjustRoles...), inventoryHandler.Adjust)
	inv.Post("/transfer", inventoryHandler.Transfer)
	inv.Get("/balance", inventoryHandler.Balance)
	inv.Get("/balances", inventoryHandler.TenantBalances)
	inv.Get("/stores/:id/balances", inventoryHandler.StoreBalances)
	inv.Get("/variants/:id/balances", inventoryHandler.VariantBalances)
	inv.Get("/movements", inventoryHandler.ListMovements)
	inv.Get("/movements/:id", inventoryHandler.GetMovement)

	// Ventas
	salesGroup := protected.Group("/sales")
	saleHandler := NewSaleHandler(deps.Sales, deps.Receipts)
	salesGroup.Post("/", idem, saleHandler.Create)
	salesGroup.Get("/:id", saleHandler.GetByID)
	salesGroup.Patch("/:id", saleHandler.Update)
	salesGroup.Post("/:id/cancel", saleHandler.Cancel)
	salesGroup.Get("/:id/receipt", saleHandler.Receipt)
	salesGroup.Get("/:id/movements", saleHandler.Movements)

	// Traslados
	transfersGroup := protected.Group("/transfers")
	transferHandler := NewTransferHandler(deps.Transfers)
	transfersGroup.Post("/", idem, transferHandler.Create)
	transfersGroup.Get("/:id", transferHandler.GetByID)

	// Precios
	if deps.Prices != nil {
		priceHandler := NewPriceHandler(deps.Prices)
		protected.Get("/prices/:store_id/:variant_id", priceHandler.EffectivePrice)
	}
}
