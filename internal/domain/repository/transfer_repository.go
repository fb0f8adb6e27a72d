package repository

import (
	"context"

	"github.com/jhoicas/retail-ledger/internal/domain/entity"
)

// TransferRepository define el puerto de persistencia para Transfer y sus líneas.
type TransferRepository interface {
	Create(ctx context.Context, t *entity.Transfer) error
	CreateLine(ctx context.Context, line *entity.TransferLine) error
	GetByID(ctx context.Context, tenantID, id string) (*entity.Transfer, error)
	ListLines(ctx context.Context, tenantID, transferID string) ([]*entity.TransferLine, error)
}
