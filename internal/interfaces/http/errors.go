package http

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/retail-ledger/internal/application/dto"
	"github.com/jhoicas/retail-ledger/internal/domain"
	"github.com/rs/zerolog"
)

// errorMapping código HTTP y código de error para cada sentinela del dominio.
var errorMapping = []struct {
	target error
	status int
	code   string
}{
	{domain.ErrMissingActor, fiber.StatusUnauthorized, "MISSING_ACTOR"},
	{domain.ErrUnauthorized, fiber.StatusUnauthorized, "UNAUTHORIZED"},
	{domain.ErrForbidden, fiber.StatusForbidden, "FORBIDDEN"},
	{domain.ErrVariantNotFound, fiber.StatusNotFound, "VARIANT_NOT_FOUND"},
	{domain.ErrNotFound, fiber.StatusNotFound, "NOT_FOUND"},
	{domain.ErrInsufficientStock, fiber.StatusConflict, "INSUFFICIENT_STOCK"},
	{domain.ErrAlreadyCancelled, fiber.StatusConflict, "ALREADY_CANCELLED"},
	{domain.ErrNotCancellable, fiber.StatusConflict, "NOT_CANCELLABLE"},
	{domain.ErrDuplicate, fiber.StatusConflict, "DUPLICATE"},
	{domain.ErrInvalidQuantity, fiber.StatusBadRequest, "INVALID_QUANTITY"},
	{domain.ErrSameSourceAndTarget, fiber.StatusBadRequest, "SAME_SOURCE_AND_TARGET"},
	{domain.ErrMustHaveLines, fiber.StatusBadRequest, "MUST_HAVE_LINES"},
	{domain.ErrInvalidCurrency, fiber.StatusBadRequest, "INVALID_CURRENCY"},
	{domain.ErrInvalidInput, fiber.StatusBadRequest, "VALIDATION"},
}

// handleError traduce un error de servicio a respuesta JSON. Las reglas de negocio
// rechazadas se registran en warn; lo inesperado en error y sale como 500 sin detalles.
func handleError(c *fiber.Ctx, err error) error {
	log := zerolog.Ctx(c.UserContext())

	if errors.Is(err, context.DeadlineExceeded) {
		log.Warn().Err(err).Msg("petición excedió el tiempo límite")
		return c.Status(fiber.StatusGatewayTimeout).JSON(dto.ErrorResponse{Code: "TIMEOUT", Message: "la operación excedió el tiempo límite"})
	}

	for _, m := range errorMapping {
		if errors.Is(err, m.target) {
			log.Warn().Err(err).Str("code", m.code).Msg("operación rechazada")
			return c.Status(m.status).JSON(dto.ErrorResponse{Code: m.code, Message: err.Error(), Details: errorDetails(err)})
		}
	}

	log.Error().Err(err).Msg("error interno")
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: "error interno"})
}

// errorDetails datos accionables de los errores tipados.
func errorDetails(err error) map[string]any {
	var insufficient *domain.InsufficientStockError
	if errors.As(err, &insufficient) {
		return map[string]any{
			"store_id":   insufficient.StoreID,
			"variant_id": insufficient.VariantID,
			"current":    insufficient.Current.String(),
			"requested":  insufficient.Requested.String(),
		}
	}
	var variants *domain.VariantNotFoundError
	if errors.As(err, &variants) {
		return map[string]any{"variant_ids": variants.IDs}
	}
	var notFound *domain.NotFoundError
	if errors.As(err, &notFound) {
		return map[string]any{"resource": notFound.Resource, "id": notFound.ID}
	}
	return nil
}

// badRequest respuesta 400 para cuerpos o parámetros mal formados.
func badRequest(c *fiber.Ctx, code, message string, details map[string]any) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: code, Message: message, Details: details})
}
