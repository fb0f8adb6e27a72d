package repository

import (
	"context"

	"github.com/jhoicas/retail-ledger/internal/domain/entity"
)

// MovementFilter filtros opcionales para listar el historial de movimientos.
type MovementFilter struct {
	TenantID  string
	StoreID   string // vacío = todas las tiendas
	VariantID string // vacío = todas las variantes
}

// MovementRepository puerto del libro de movimientos. Solo inserta y lee: no existe update ni delete.
type MovementRepository interface {
	Append(ctx context.Context, m *entity.Movement) error
	GetByID(ctx context.Context, tenantID, id string) (*entity.Movement, error)
	List(ctx context.Context, f MovementFilter, limit, offset int) ([]*entity.Movement, error)
	ListBySale(ctx context.Context, tenantID, saleID string) ([]*entity.Movement, error)
}
