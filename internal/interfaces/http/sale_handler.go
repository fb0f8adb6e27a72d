package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/retail-ledger/internal/application/dto"
	"github.com/jhoicas/retail-ledger/internal/application/sales"
)

// SaleHandler ventas con líneas, edición, cancelación y comprobante PDF (protegido).
type SaleHandler struct {
	sales    *sales.SaleService
	receipts *sales.ReceiptService
}

// NewSaleHandler construye el handler. receipts puede ser nil (sin comprobante PDF).
func NewSaleHandler(sales *sales.SaleService, receipts *sales.ReceiptService) *SaleHandler {
	return &SaleHandler{sales: sales, receipts: receipts}
}

// Create godoc
// @Summary      Crear venta (descuenta stock por línea)
// @Tags         sales
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        Idempotency-Key  header  string                 false  "reintentos seguros"
// @Param        body             body    dto.CreateSaleRequest  true   "tienda, cliente, metadata y líneas"
// @Success      201  {object}  dto.SaleResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/sales [post]
func (h *SaleHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateSaleRequest
	if ok, err := bindJSON(c, &in); !ok {
		return err
	}
	out, err := h.sales.CreateSale(c.UserContext(), ActorFrom(c), in)
	if err != nil {
		return handleError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// Update godoc
// @Summary      Editar venta (cliente, metadata y/o líneas)
// @Description  Si se envían líneas, se devuelven las anteriores al stock y se venden las nuevas.
// @Tags         sales
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                 true  "venta (UUID)"
// @Param        body  body  dto.UpdateSaleRequest  true  "campos a cambiar"
// @Success      200  {object}  dto.SaleResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/sales/{id} [patch]
func (h *SaleHandler) Update(c *fiber.Ctx) error {
	saleID, ok, err := pathUUID(c, "id")
	if !ok {
		return err
	}
	var in dto.UpdateSaleRequest
	if ok, err := bindJSON(c, &in); !ok {
		return err
	}
	if in.Lines != nil {
		if err := validate.Var(*in.Lines, "dive"); err != nil {
			return badRequest(c, "VALIDATION", "líneas inválidas", validationDetails(err))
		}
	}
	out, err := h.sales.UpdateSale(c.UserContext(), ActorFrom(c), saleID, in)
	if err != nil {
		return handleError(c, err)
	}
	return c.JSON(out)
}

// Cancel godoc
// @Summary      Cancelar venta (devuelve todo el stock)
// @Tags         sales
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                 true   "venta (UUID)"
// @Param        body  body  dto.CancelSaleRequest  false  "motivo"
// @Success      200  {object}  dto.SaleResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/sales/{id}/cancel [post]
func (h *SaleHandler) Cancel(c *fiber.Ctx) error {
	saleID, ok, err := pathUUID(c, "id")
	if !ok {
		return err
	}
	var in dto.CancelSaleRequest
	if len(c.Body()) > 0 {
		if ok, err := bindJSON(c, &in); !ok {
			return err
		}
	}
	out, err := h.sales.CancelSale(c.UserContext(), ActorFrom(c), saleID, in.Reason)
	if err != nil {
		return handleError(c, err)
	}
	return c.JSON(out)
}

// GetByID godoc
// @Summary      Obtener venta con líneas
// @Tags         sales
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "venta (UUID)"
// @Success      200  {object}  dto.SaleResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/sales/{id} [get]
func (h *SaleHandler) GetByID(c *fiber.Ctx) error {
	saleID, ok, err := pathUUID(c, "id")
	if !ok {
		return err
	}
	out, err := h.sales.GetSale(c.UserContext(), ActorFrom(c), saleID)
	if err != nil {
		return handleError(c, err)
	}
	return c.JSON(out)
}

// Movements godoc
// @Summary      Movimientos de inventario de la venta (salidas y devoluciones)
// @Tags         sales
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "venta (UUID)"
// @Success      200  {array}   dto.MovementResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/sales/{id}/movements [get]
func (h *SaleHandler) Movements(c *fiber.Ctx) error {
	saleID, ok, err := pathUUID(c, "id")
	if !ok {
		return err
	}
	list, err := h.sales.SaleMovements(c.UserContext(), ActorFrom(c), saleID)
	if err != nil {
		return handleError(c, err)
	}
	items := make([]dto.MovementResponse, 0, len(list))
	for _, m := range list {
		items = append(items, toMovementResponse(m))
	}
	return c.JSON(items)
}

// Receipt godoc
// @Summary      Descargar comprobante PDF de la venta
// @Tags         sales
// @Security     Bearer
// @Produce      application/pdf
// @Param        id  path  string  true  "venta (UUID)"
// @Success      200  {file}  binary
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/sales/{id}/receipt [get]
func (h *SaleHandler) Receipt(c *fiber.Ctx) error {
	if h.receipts == nil {
		return c.Status(fiber.StatusNotImplemented).JSON(dto.ErrorResponse{Code: "NOT_IMPLEMENTED", Message: "comprobantes PDF no configurados"})
	}
	saleID, ok, err := pathUUID(c, "id")
	if !ok {
		return err
	}
	pdf, filename, err := h.receipts.DownloadReceipt(c.UserContext(), ActorFrom(c), saleID)
	if err != nil {
		return handleError(c, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
	return c.Send(pdf)
}
