package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/retail-ledger/internal/domain/entity"
	"github.com/jhoicas/retail-ledger/internal/domain/repository"
	"github.com/shopspring/decimal"
)

var _ repository.BalanceRepository = (*BalanceRepo)(nil)

// BalanceRepo saldos calculados como SUM(quantity) del libro.
type BalanceRepo struct {
	q Querier
}

// NewBalanceRepository construye el adaptador de saldos. Pasar pool o tx (Querier).
func NewBalanceRepository(q Querier) *BalanceRepo {
	return &BalanceRepo{q: q}
}

// Balance suma los movimientos de la llave. Cero si no hay movimientos.
func (r *BalanceRepo) Balance(ctx context.Context, key entity.BalanceKey) (decimal.Decimal, error) {
	query := `
		SELECT COALESCE(SUM(quantity), 0)
		FROM stock_movements WHERE tenant_id = $1 AND store_id = $2 AND variant_id = $3`
	var sum decimal.Decimal
	if err := r.q.QueryRow(ctx, query, key.TenantID, key.StoreID, key.VariantID).Scan(&sum); err != nil {
		return decimal.Zero, fmt.Errorf("balance: %w", err)
	}
	return sum, nil
}

// BalanceByStore saldo de cada variante con movimientos en la tienda.
func (r *BalanceRepo) BalanceByStore(ctx context.Context, tenantID, storeID string) ([]entity.VariantBalance, error) {
	query := `
		SELECT variant_id, SUM(quantity)
		FROM stock_movements WHERE tenant_id = $1 AND store_id = $2
		GROUP BY variant_id ORDER BY variant_id`
	rows, err := r.q.Query(ctx, query, tenantID, storeID)
	if err != nil {
		return nil, fmt.Errorf("balance by store: %w", err)
	}
	return collectVariantBalances(rows)
}

// BalanceByVariant saldo de la variante en cada tienda del tenant.
func (r *BalanceRepo) BalanceByVariant(ctx context.Context, tenantID, variantID string) ([]entity.StoreBalance, error) {
	query := `
		SELECT store_id, SUM(quantity)
		FROM stock_movements WHERE tenant_id = $1 AND variant_id = $2
		GROUP BY store_id ORDER BY store_id`
	rows, err := r.q.Query(ctx, query, tenantID, variantID)
	if err != nil {
		return nil, fmt.Errorf("balance by variant: %w", err)
	}
	defer rows.Close()
	list := []entity.StoreBalance{}
	for rows.Next() {
		var b entity.StoreBalance
		if err := rows.Scan(&b.StoreID, &b.Quantity); err != nil {
			return nil, fmt.Errorf("scan store balance: %w", err)
		}
		list = append(list, b)
	}
	return list, rows.Err()
}

// BalanceByTenant saldo consolidado de cada variante sumando todas las tiendas.
func (r *BalanceRepo) BalanceByTenant(ctx context.Context, tenantID string) ([]entity.VariantBalance, error) {
	query := `
		SELECT variant_id, SUM(quantity)
		FROM stock_movements WHERE tenant_id = $1
		GROUP BY variant_id ORDER BY variant_id`
	rows, err := r.q.Query(ctx, query, tenantID)
	if err != nil {
		return nil, fmt.Errorf("balance by tenant: %w", err)
	}
	return collectVariantBalances(rows)
}

// Lock crea (si falta) y bloquea con FOR UPDATE la fila de stock_levels de cada llave,
// siempre en el mismo orden. El bloqueo dura hasta el fin de la tx.
func (r *BalanceRepo) Lock(ctx context.Context, keys ...entity.BalanceKey) error {
	ensure := `
		INSERT INTO stock_levels (tenant_id, store_id, variant_id, quantity, updated_at)
		VALUES ($1, $2, $3, 0, now())
		ON CONFLICT (tenant_id, store_id, variant_id) DO NOTHING`
	lock := `
		SELECT 1 FROM stock_levels
		WHERE tenant_id = $1 AND store_id = $2 AND variant_id = $3
		FOR UPDATE`
	for _, k := range entity.SortBalanceKeys(keys) {
		if _, err := r.q.Exec(ctx, ensure, k.TenantID, k.StoreID, k.VariantID); err != nil {
			return fmt.Errorf("ensure stock level %s: %w", k, err)
		}
		var one int
		if err := r.q.QueryRow(ctx, lock, k.TenantID, k.StoreID, k.VariantID).Scan(&one); err != nil {
			return fmt.Errorf("lock stock level %s: %w", k, err)
		}
	}
	return nil
}

// Level lee la proyección materializada (no autoritativa) de una llave.
func (r *BalanceRepo) Level(ctx context.Context, key entity.BalanceKey) (*entity.StockLevel, error) {
	query := `
		SELECT tenant_id, store_id, variant_id, quantity, updated_at
		FROM stock_levels WHERE tenant_id = $1 AND store_id = $2 AND variant_id = $3`
	var l entity.StockLevel
	err := r.q.QueryRow(ctx, query, key.TenantID, key.StoreID, key.VariantID).Scan(
		&l.TenantID, &l.StoreID, &l.VariantID, &l.Quantity, &l.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get stock level: %w", err)
	}
	return &l, nil
}

func collectVariantBalances(rows pgx.Rows) ([]entity.VariantBalance, error) {
	defer rows.Close()
	list := []entity.VariantBalance{}
	for rows.Next() {
		var b entity.VariantBalance
		if err := rows.Scan(&b.VariantID, &b.Quantity); err != nil {
			return nil, fmt.Errorf("scan variant balance: %w", err)
		}
		list = append(list, b)
	}
	return list, rows.Err()
}
