package transfers

import (
	"context"

	"github.com/jhoicas/retail-ledger/internal/application/inventory"
	"github.com/jhoicas/retail-ledger/internal/domain/entity"
	"github.com/jhoicas/retail-ledger/internal/domain/repository"
)

// TxRunner abre la única transacción de cada traslado.
type TxRunner interface {
	Run(ctx context.Context, fn func(uow repository.UnitOfWork) error) error
}

// StockMutator primitiva de traslado; reutiliza la unidad de trabajo del caller.
type StockMutator interface {
	TransferInTx(ctx context.Context, uow repository.UnitOfWork, actor entity.Actor, in inventory.TransferInput) (*inventory.TransferResult, error)
}
