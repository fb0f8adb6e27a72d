package repository

import (
	"context"

	"github.com/jhoicas/retail-ledger/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// BalanceRepository resuelve saldos sumando el libro de movimientos.
// Usado dentro de transacciones para garantizar consistencia.
type BalanceRepository interface {
	// Balance devuelve SUM(quantity) de la llave; cero si no hay movimientos.
	Balance(ctx context.Context, key entity.BalanceKey) (decimal.Decimal, error)
	BalanceByStore(ctx context.Context, tenantID, storeID string) ([]entity.VariantBalance, error)
	BalanceByVariant(ctx context.Context, tenantID, variantID string) ([]entity.StoreBalance, error)
	BalanceByTenant(ctx context.Context, tenantID string) ([]entity.VariantBalance, error)
	// Lock bloquea la fila de stock_levels de cada llave (SELECT FOR UPDATE) hasta el fin de la tx.
	// Las llaves se bloquean en orden determinista.
	Lock(ctx context.Context, keys ...entity.BalanceKey) error
}
