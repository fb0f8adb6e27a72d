package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jhoicas/retail-ledger/internal/application/inventory"
	"github.com/jhoicas/retail-ledger/internal/application/pricing"
	"github.com/jhoicas/retail-ledger/internal/application/sales"
	"github.com/jhoicas/retail-ledger/internal/application/transfers"
	"github.com/jhoicas/retail-ledger/internal/domain/repository"
)

var (
	_ inventory.TxRunner = (*TxRunner)(nil)
	_ pricing.TxRunner   = (*TxRunner)(nil)
	_ sales.TxRunner     = (*TxRunner)(nil)
	_ transfers.TxRunner = (*TxRunner)(nil)
)

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL.
type TxRunner struct {
	pool *pgxpool.Pool
}

// NewTxRunner construye el runner con el pool.
func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

// Run inicia una transacción READ COMMITTED, ejecuta fn con repos atados a la tx y hace Commit o Rollback.
// Los saldos se protegen con bloqueos de fila (stock_levels FOR UPDATE), no con el nivel de aislamiento.
func (r *TxRunner) Run(ctx context.Context, fn func(uow repository.UnitOfWork) error) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(NewUnitOfWork(tx)); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// unitOfWork repos que comparten el mismo Querier (normalmente una pgx.Tx).
type unitOfWork struct {
	q Querier
}

// NewUnitOfWork ata todos los repos a q. Con el pool (sin tx) sirve para lecturas sueltas.
func NewUnitOfWork(q Querier) repository.UnitOfWork {
	return &unitOfWork{q: q}
}

func (u *unitOfWork) Movements() repository.MovementRepository { return NewMovementRepository(u.q) }
func (u *unitOfWork) Balances() repository.BalanceRepository   { return NewBalanceRepository(u.q) }
func (u *unitOfWork) Stores() repository.StoreRepository       { return NewStoreRepository(u.q) }
func (u *unitOfWork) Variants() repository.VariantRepository   { return NewVariantRepository(u.q) }
func (u *unitOfWork) Prices() repository.PriceRepository       { return NewPriceRepository(u.q) }
func (u *unitOfWork) Sales() repository.SaleRepository         { return NewSaleRepository(u.q) }
func (u *unitOfWork) Transfers() repository.TransferRepository { return NewTransferRepository(u.q) }
