package memory

import (
	"context"

	"github.com/jhoicas/retail-ledger/internal/domain/repository"
)

// TxRunner ejecuta callbacks sobre DB con aislamiento serializable.
type TxRunner struct {
	db *DB
}

// NewTxRunner construye el runner sobre la base en memoria.
func NewTxRunner(db *DB) *TxRunner {
	return &TxRunner{db: db}
}

// Run toma el lock global, ejecuta fn y restaura la instantánea si fn falla o el contexto se cancela.
func (r *TxRunner) Run(ctx context.Context, fn func(uow repository.UnitOfWork) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	snapshot := r.db.state.clone()
	uow := &unitOfWork{st: r.db.state}
	err := fn(uow)
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		r.db.state = snapshot
		return err
	}
	return nil
}

type unitOfWork struct {
	st *state
}

func (u *unitOfWork) Movements() repository.MovementRepository { return movementRepo{u.st} }
func (u *unitOfWork) Balances() repository.BalanceRepository   { return balanceRepo{u.st} }
func (u *unitOfWork) Stores() repository.StoreRepository       { return storeRepo{u.st} }
func (u *unitOfWork) Variants() repository.VariantRepository   { return variantRepo{u.st} }
func (u *unitOfWork) Prices() repository.PriceRepository       { return priceRepo{u.st} }
func (u *unitOfWork) Sales() repository.SaleRepository         { return saleRepo{u.st} }
func (u *unitOfWork) Transfers() repository.TransferRepository { return transferRepo{u.st} }
