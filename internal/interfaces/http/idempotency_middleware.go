package http

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/retail-ledger/internal/application/dto"
	"github.com/jhoicas/retail-ledger/internal/infrastructure/cache"
	"github.com/rs/zerolog"
)

// HeaderIdempotencyKey cabecera que identifica reintentos de una misma petición.
const HeaderIdempotencyKey = "Idempotency-Key"

// Idempotency repite la respuesta guardada cuando llega otra petición con la misma
// Idempotency-Key (por tenant y ruta). Sin cabecera, la petición pasa tal cual.
// Solo se guardan respuestas < 500; un 5xx libera la llave para permitir el reintento.
// Debe ir después de AuthMiddleware.
func Idempotency(store cache.IdempotencyStore, ttl time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		key := c.Get(HeaderIdempotencyKey)
		if key == "" || store == nil {
			return c.Next()
		}
		if len(key) > 255 {
			return badRequest(c, "INVALID_IDEMPOTENCY_KEY", "Idempotency-Key demasiado larga", nil)
		}
		ctx := c.UserContext()
		log := zerolog.Ctx(ctx)
		fullKey := cache.Key(GetCompanyID(c), c.Method()+" "+c.Route().Path, key)

		reserved, err := store.Reserve(ctx, fullKey, ttl)
		if err != nil {
			log.Error().Err(err).Msg("idempotencia: reserva fallida")
			return c.Status(fiber.StatusServiceUnavailable).JSON(dto.ErrorResponse{Code: "IDEMPOTENCY_UNAVAILABLE", Message: "no se pudo verificar la llave de idempotencia"})
		}
		if !reserved {
			return replay(c, store, fullKey)
		}

		if err := c.Next(); err != nil {
			_ = store.Release(ctx, fullKey)
			return err
		}

		status := c.Response().StatusCode()
		if status >= fiber.StatusInternalServerError {
			_ = store.Release(ctx, fullKey)
			return nil
		}
		resp := cache.StoredResponse{
			Status:      status,
			ContentType: string(c.Response().Header.ContentType()),
			Body:        append([]byte(nil), c.Response().Body()...),
		}
		if err := store.Save(ctx, fullKey, resp, ttl); err != nil {
			log.Error().Err(err).Msg("idempotencia: no se pudo guardar la respuesta")
		}
		return nil
	}
}

func replay(c *fiber.Ctx, store cache.IdempotencyStore, key string) error {
	stored, err := store.Get(c.UserContext(), key)
	if errors.Is(err, cache.ErrInFlight) {
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "IDEMPOTENCY_IN_FLIGHT", Message: "una petición con la misma Idempotency-Key está en curso"})
	}
	if err != nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(dto.ErrorResponse{Code: "IDEMPOTENCY_UNAVAILABLE", Message: "no se pudo leer la respuesta guardada"})
	}
	if stored == nil {
		// venció entre Reserve y Get: tratar como en curso para que el cliente reintente
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "IDEMPOTENCY_IN_FLIGHT", Message: "reintente la petición"})
	}
	c.Set("Idempotent-Replayed", "true")
	if stored.ContentType != "" {
		c.Set(fiber.HeaderContentType, stored.ContentType)
	}
	return c.Status(stored.Status).Send(stored.Body)
}
