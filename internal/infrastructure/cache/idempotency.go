package cache

import (
	"context"
	"errors"
	"time"
)

// ErrInFlight la llave ya está reservada por una petición que aún no termina.
var ErrInFlight = errors.New("idempotency: petición en curso con la misma llave")

// StoredResponse respuesta HTTP guardada para repetirla ante reintentos con la misma llave.
type StoredResponse struct {
	Status      int    `json:"status"`
	ContentType string `json:"content_type"`
	Body        []byte `json:"body"`
}

// IdempotencyStore guarda la primera respuesta de cada llave durante un TTL.
//
// Flujo: Reserve -> (handler) -> Save, o Release si el handler falló y el cliente puede reintentar.
type IdempotencyStore interface {
	// Reserve marca la llave como en curso. false si ya existía (en curso o completada).
	Reserve(ctx context.Context, key string, ttl time.Duration) (bool, error)
	// Get devuelve la respuesta guardada; nil, nil si no existe; nil, ErrInFlight si sigue en curso.
	Get(ctx context.Context, key string) (*StoredResponse, error)
	Save(ctx context.Context, key string, resp StoredResponse, ttl time.Duration) error
	Release(ctx context.Context, key string) error
}

// Key compone la llave por tenant para que dos tenants no compartan respuestas.
func Key(tenantID, route, idempotencyKey string) string {
	return tenantID + ":" + route + ":" + idempotencyKey
}
