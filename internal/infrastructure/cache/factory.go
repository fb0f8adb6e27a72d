package cache

import (
	"context"

	"github.com/rs/zerolog"
)

// Closer lo implementan ambos stores; main lo cierra al apagar.
type Closer interface {
	Close() error
}

// NewIdempotencyStore elige Redis si hay dirección configurada; si Redis no responde y
// allowFallback es true, cae al store en memoria con una advertencia.
func NewIdempotencyStore(ctx context.Context, cfg RedisConfig, allowFallback bool, log zerolog.Logger) (IdempotencyStore, Closer, error) {
	if cfg.Addr == "" {
		s := NewInMemoryIdempotencyStore()
		log.Info().Msg("idempotencia: store en memoria")
		return s, s, nil
	}
	rs, err := NewRedisIdempotencyStore(ctx, cfg)
	if err != nil {
		if !allowFallback {
			return nil, nil, err
		}
		log.Warn().Err(err).Str("addr", cfg.Addr).Msg("idempotencia: Redis no disponible, usando memoria")
		s := NewInMemoryIdempotencyStore()
		return s, s, nil
	}
	log.Info().Str("addr", cfg.Addr).Msg("idempotencia: store en Redis")
	return rs, rs, nil
}
