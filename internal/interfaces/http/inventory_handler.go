package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/retail-ledger/internal/application/dto"
	"github.com/jhoicas/retail-ledger/internal/application/inventory"
	"github.com/jhoicas/retail-ledger/internal/domain/entity"
)

// InventoryHandler operaciones del libro de stock (protegido).
type InventoryHandler struct {
	stock *inventory.StockService
}

// NewInventoryHandler construye el handler.
func NewInventoryHandler(stock *inventory.StockService) *InventoryHandler {
	return &InventoryHandler{stock: stock}
}

type balanceQuery struct {
	StoreID   string `query:"store_id" validate:"required,uuid"`
	VariantID string `query:"variant_id" validate:"required,uuid"`
}

type movementQuery struct {
	StoreID   string `query:"store_id" validate:"omitempty,uuid"`
	VariantID string `query:"variant_id" validate:"omitempty,uuid"`
	Limit     int    `query:"limit" validate:"min=0,max=500"`
	Offset    int    `query:"offset" validate:"min=0"`
}

// Receive godoc
// @Summary      Registrar entrada de stock
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.ReceiveRequest  true  "tienda, variante, cantidad y precio opcional"
// @Success      201   {object}  dto.MovementResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/inventory/receive [post]
func (h *InventoryHandler) Receive(c *fiber.Ctx) error {
	var in dto.ReceiveRequest
	if ok, err := bindJSON(c, &in); !ok {
		return err
	}
	mov, err := h.stock.Receive(c.UserContext(), ActorFrom(c), inventory.ReceiveInput{
		StoreID:   in.StoreID,
		VariantID: in.VariantID,
		Quantity:  in.Quantity,
		Price:     priceSnapshot(in.Price),
		Reference: in.Reference,
		Payload:   in.Payload,
	})
	if err != nil {
		return handleError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toMovementResponse(mov))
}

// Sell godoc
// @Summary      Registrar salida de stock
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.SellRequest  true  "tienda, variante y cantidad"
// @Success      201   {object}  dto.MovementResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/inventory/sell [post]
func (h *InventoryHandler) Sell(c *fiber.Ctx) error {
	var in dto.SellRequest
	if ok, err := bindJSON(c, &in); !ok {
		return err
	}
	mov, err := h.stock.Sell(c.UserContext(), ActorFrom(c), inventory.SellInput{
		StoreID:   in.StoreID,
		VariantID: in.VariantID,
		Quantity:  in.Quantity,
		Reference: in.Reference,
		Payload:   in.Payload,
	})
	if err != nil {
		return handleError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toMovementResponse(mov))
}

// Adjust godoc
// @Summary      Ajustar stock a un conteo físico
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.AdjustRequest  true  "tienda, variante y cantidad objetivo"
// @Success      200   {object}  dto.AdjustResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/inventory/adjust [post]
func (h *InventoryHandler) Adjust(c *fiber.Ctx) error {
	var in dto.AdjustRequest
	if ok, err := bindJSON(c, &in); !ok {
		return err
	}
	res, err := h.stock.Adjust(c.UserContext(), ActorFrom(c), inventory.AdjustInput{
		StoreID:        in.StoreID,
		VariantID:      in.VariantID,
		TargetQuantity: in.TargetQuantity,
		Reason:         in.Reason,
		Reference:      in.Reference,
	})
	if err != nil {
		return handleError(c, err)
	}
	out := dto.AdjustResponse{Previous: res.Previous, New: res.New, Difference: res.Difference}
	if res.Movement != nil {
		m := toMovementResponse(res.Movement)
		out.Movement = &m
	}
	return c.JSON(out)
}

// Transfer godoc
// @Summary      Trasladar una variante entre tiendas
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.TransferStockRequest  true  "origen, destino, variante y cantidad"
// @Success      201   {object}  dto.TransferMovementsResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/inventory/transfer [post]
func (h *InventoryHandler) Transfer(c *fiber.Ctx) error {
	var in dto.TransferStockRequest
	if ok, err := bindJSON(c, &in); !ok {
		return err
	}
	res, err := h.stock.Transfer(c.UserContext(), ActorFrom(c), inventory.TransferInput{
		FromStoreID: in.FromStoreID,
		ToStoreID:   in.ToStoreID,
		VariantID:   in.VariantID,
		Quantity:    in.Quantity,
		Reference:   in.Reference,
	})
	if err != nil {
		return handleError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.TransferMovementsResponse{
		Movements: [2]dto.MovementResponse{toMovementResponse(res.Out), toMovementResponse(res.In)},
	})
}

// Balance godoc
// @Summary      Saldo de una variante en una tienda
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        store_id    query  string  true  "tienda (UUID)"
// @Param        variant_id  query  string  true  "variante (UUID)"
// @Success      200  {object}  dto.BalanceResponse
// @Router       /api/inventory/balance [get]
func (h *InventoryHandler) Balance(c *fiber.Ctx) error {
	var q balanceQuery
	if ok, err := bindQuery(c, &q); !ok {
		return err
	}
	qty, err := h.stock.Balance(c.UserContext(), ActorFrom(c), q.StoreID, q.VariantID)
	if err != nil {
		return handleError(c, err)
	}
	return c.JSON(dto.BalanceResponse{StoreID: q.StoreID, VariantID: q.VariantID, Quantity: qty})
}

// StoreBalances godoc
// @Summary      Saldos de todas las variantes de una tienda
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "tienda (UUID)"
// @Success      200  {array}  dto.VariantBalanceResponse
// @Router       /api/inventory/stores/{id}/balances [get]
func (h *InventoryHandler) StoreBalances(c *fiber.Ctx) error {
	storeID, ok, err := pathUUID(c, "id")
	if !ok {
		return err
	}
	list, err := h.stock.BalanceByStore(c.UserContext(), ActorFrom(c), storeID)
	if err != nil {
		return handleError(c, err)
	}
	return c.JSON(toVariantBalances(list))
}

// VariantBalances godoc
// @Summary      Saldo de una variante en cada tienda
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "variante (UUID)"
// @Success      200  {array}  dto.StoreBalanceResponse
// @Router       /api/inventory/variants/{id}/balances [get]
func (h *InventoryHandler) VariantBalances(c *fiber.Ctx) error {
	variantID, ok, err := pathUUID(c, "id")
	if !ok {
		return err
	}
	list, err := h.stock.BalanceByVariant(c.UserContext(), ActorFrom(c), variantID)
	if err != nil {
		return handleError(c, err)
	}
	out := make([]dto.StoreBalanceResponse, 0, len(list))
	for _, b := range list {
		out = append(out, dto.StoreBalanceResponse{StoreID: b.StoreID, Quantity: b.Quantity})
	}
	return c.JSON(out)
}

// TenantBalances godoc
// @Summary      Saldo consolidado por variante en todas las tiendas
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Success      200  {array}  dto.VariantBalanceResponse
// @Router       /api/inventory/balances [get]
func (h *InventoryHandler) TenantBalances(c *fiber.Ctx) error {
	list, err := h.stock.BalanceByTenant(c.UserContext(), ActorFrom(c))
	if err != nil {
		return handleError(c, err)
	}
	return c.JSON(toVariantBalances(list))
}

// ListMovements godoc
// @Summary      Historial de movimientos (más recientes primero)
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        store_id    query  string  false  "filtrar por tienda"
// @Param        variant_id  query  string  false  "filtrar por variante"
// @Param        limit       query  int     false  "máximo 500, por defecto 50"
// @Param        offset      query  int     false  "desplazamiento"
// @Success      200  {object}  dto.MovementListResponse
// @Router       /api/inventory/movements [get]
func (h *InventoryHandler) ListMovements(c *fiber.Ctx) error {
	var q movementQuery
	if ok, err := bindQuery(c, &q); !ok {
		return err
	}
	page := dto.PageRequest{Limit: q.Limit, Offset: q.Offset}
	page.DefaultPage()
	list, err := h.stock.ListMovements(c.UserContext(), ActorFrom(c), inventory.MovementQuery{
		StoreID:   q.StoreID,
		VariantID: q.VariantID,
		Limit:     page.Limit,
		Offset:    page.Offset,
	})
	if err != nil {
		return handleError(c, err)
	}
	items := make([]dto.MovementResponse, 0, len(list))
	for _, m := range list {
		items = append(items, toMovementResponse(m))
	}
	return c.JSON(dto.MovementListResponse{Items: items, Page: dto.PageResponse{Limit: page.Limit, Offset: page.Offset}})
}

// GetMovement godoc
// @Summary      Un movimiento del libro
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "movimiento (UUID)"
// @Success      200  {object}  dto.MovementResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/inventory/movements/{id} [get]
func (h *InventoryHandler) GetMovement(c *fiber.Ctx) error {
	id, ok, err := pathUUID(c, "id")
	if !ok {
		return err
	}
	mov, err := h.stock.GetMovement(c.UserContext(), ActorFrom(c), id)
	if err != nil {
		return handleError(c, err)
	}
	return c.JSON(toMovementResponse(mov))
}

// ── mappers ───────────────────────────────────────────────────────────────────

func priceSnapshot(p dto.PriceSnapshotRequest) entity.PriceSnapshot {
	return entity.PriceSnapshot{
		Currency:        p.Currency,
		UnitPrice:       p.UnitPrice,
		DiscountPercent: p.DiscountPercent,
		DiscountAmount:  p.DiscountAmount,
		TaxPercent:      p.TaxPercent,
		TaxAmount:       p.TaxAmount,
		CampaignCode:    p.CampaignCode,
	}
}

func toMovementResponse(m *entity.Movement) dto.MovementResponse {
	return dto.MovementResponse{
		ID:              m.ID,
		StoreID:         m.StoreID,
		VariantID:       m.VariantID,
		Type:            m.Type,
		Quantity:        m.Quantity,
		Currency:        m.Price.Currency,
		UnitPrice:       m.Price.UnitPrice,
		DiscountPercent: m.Price.DiscountPercent,
		DiscountAmount:  m.Price.DiscountAmount,
		TaxPercent:      m.Price.TaxPercent,
		TaxAmount:       m.Price.TaxAmount,
		LineTotal:       m.Price.LineTotal,
		CampaignCode:    m.Price.CampaignCode,
		Reference:       m.Reference,
		SaleID:          m.SaleID,
		SaleLineID:      m.SaleLineID,
		Payload:         m.Payload,
		CreatedAt:       m.CreatedAt,
		CreatedBy:       m.CreatedBy,
	}
}

func toVariantBalances(list []entity.VariantBalance) []dto.VariantBalanceResponse {
	out := make([]dto.VariantBalanceResponse, 0, len(list))
	for _, b := range list {
		out = append(out, dto.VariantBalanceResponse{VariantID: b.VariantID, Quantity: b.Quantity})
	}
	return out
}
