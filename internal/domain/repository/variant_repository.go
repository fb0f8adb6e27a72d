package repository

import (
	"context"

	"github.com/jhoicas/retail-ledger/internal/domain/entity"
)

// VariantRepository directorio de variantes de producto (solo lectura para el motor).
type VariantRepository interface {
	GetByID(ctx context.Context, tenantID, id string) (*entity.ProductVariant, error)
	// GetByIDs devuelve las variantes encontradas en el tenant; las ausentes simplemente no vienen.
	GetByIDs(ctx context.Context, tenantID string, ids []string) ([]*entity.ProductVariant, error)
}
