package repository

import (
	"context"

	"github.com/jhoicas/retail-ledger/internal/domain/entity"
)

// StoreRepository directorio de tiendas. Devuelve nil, nil si la tienda no existe en el tenant.
type StoreRepository interface {
	GetByID(ctx context.Context, tenantID, id string) (*entity.Store, error)
}
