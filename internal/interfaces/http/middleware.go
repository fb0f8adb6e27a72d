package http

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

// RequestContext prepara el context.Context de cada petición: logger con request_id,
// trazas entrantes (traceparent) y tiempo límite. Los handlers usan c.UserContext().
func RequestContext(log zerolog.Logger, timeout time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqID, _ := c.Locals("requestid").(string)
		reqLog := log.With().Str("request_id", reqID).Logger()

		headers := make(propagation.MapCarrier)
		c.Request().Header.VisitAll(func(k, v []byte) { headers.Set(string(k), string(v)) })
		ctx := otel.GetTextMapPropagator().Extract(context.Background(), headers)
		ctx = reqLog.WithContext(ctx)

		if timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}
		c.SetUserContext(ctx)
		return c.Next()
	}
}

// RequestLogger registra método, ruta, estado y latencia de cada petición.
func RequestLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		status := c.Response().StatusCode()
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}

		log := zerolog.Ctx(c.UserContext())
		ev := log.Info()
		if status >= fiber.StatusInternalServerError {
			ev = log.Error().Err(err)
		}
		ev.Str("method", c.Method()).
			Str("path", c.Path()).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Str("tenant_id", GetCompanyID(c)).
			Msg("http")
		return err
	}
}
