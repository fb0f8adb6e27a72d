package repository

import (
	"context"

	"github.com/jhoicas/retail-ledger/internal/domain/entity"
)

// SaleRepository define el puerto de persistencia para Sale y sus líneas.
type SaleRepository interface {
	Create(ctx context.Context, sale *entity.Sale) error
	// Update reescribe estado, cliente, totales, metadata y datos de cancelación.
	Update(ctx context.Context, sale *entity.Sale) error
	GetByID(ctx context.Context, tenantID, id string) (*entity.Sale, error)
	// GetForUpdate igual que GetByID pero bloquea la cabecera hasta el fin de la tx.
	GetForUpdate(ctx context.Context, tenantID, id string) (*entity.Sale, error)
	CreateLine(ctx context.Context, line *entity.SaleLine) error
	ListLines(ctx context.Context, tenantID, saleID string) ([]*entity.SaleLine, error)
	DeleteLines(ctx context.Context, tenantID, saleID string) error
}
