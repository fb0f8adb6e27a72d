package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/retail-ledger/internal/application/dto"
	"github.com/jhoicas/retail-ledger/internal/application/transfers"
)

// TransferHandler traslados multi-línea entre tiendas (protegido).
type TransferHandler struct {
	transfers *transfers.TransferService
}

// NewTransferHandler construye el handler.
func NewTransferHandler(transfers *transfers.TransferService) *TransferHandler {
	return &TransferHandler{transfers: transfers}
}

// Create godoc
// @Summary      Crear y ejecutar traslado
// @Description  Todas las líneas se aplican o ninguna. Cada línea guarda saldos antes/después.
// @Tags         transfers
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        Idempotency-Key  header  string                     false  "reintentos seguros"
// @Param        body             body    dto.CreateTransferRequest  true   "origen, destino y líneas"
// @Success      201  {object}  dto.TransferResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/transfers [post]
func (h *TransferHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateTransferRequest
	if ok, err := bindJSON(c, &in); !ok {
		return err
	}
	out, err := h.transfers.CreateAndExecuteTransfer(c.UserContext(), ActorFrom(c), in)
	if err != nil {
		return handleError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// GetByID godoc
// @Summary      Obtener traslado con líneas
// @Tags         transfers
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "traslado (UUID)"
// @Success      200  {object}  dto.TransferResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/transfers/{id} [get]
func (h *TransferHandler) GetByID(c *fiber.Ctx) error {
	id, ok, err := pathUUID(c, "id")
	if !ok {
		return err
	}
	out, err := h.transfers.GetTransfer(c.UserContext(), ActorFrom(c), id)
	if err != nil {
		return handleError(c, err)
	}
	return c.JSON(out)
}
