package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/retail-ledger/internal/application/dto"
	"github.com/jhoicas/retail-ledger/internal/application/pricing"
)

// PriceHandler consulta del precio efectivo por tienda (protegido).
type PriceHandler struct {
	resolver *pricing.Resolver
}

// NewPriceHandler construye el handler.
func NewPriceHandler(resolver *pricing.Resolver) *PriceHandler {
	return &PriceHandler{resolver: resolver}
}

// EffectivePrice godoc
// @Summary      Precio efectivo de una variante en una tienda
// @Tags         pricing
// @Security     Bearer
// @Produce      json
// @Param        store_id    path  string  true  "tienda (UUID)"
// @Param        variant_id  path  string  true  "variante (UUID)"
// @Success      200  {object}  dto.EffectivePriceResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/prices/{store_id}/{variant_id} [get]
func (h *PriceHandler) EffectivePrice(c *fiber.Ctx) error {
	storeID, ok, err := pathUUID(c, "store_id")
	if !ok {
		return err
	}
	variantID, ok, err := pathUUID(c, "variant_id")
	if !ok {
		return err
	}
	p, err := h.resolver.EffectivePrice(c.UserContext(), ActorFrom(c), storeID, variantID)
	if err != nil {
		return handleError(c, err)
	}
	return c.JSON(dto.EffectivePriceResponse{
		StoreID:         storeID,
		VariantID:       variantID,
		UnitPrice:       p.UnitPrice,
		Currency:        p.Currency,
		TaxPercent:      p.TaxPercent,
		DiscountPercent: p.DiscountPercent,
		IsOverride:      p.IsOverride,
	})
}
