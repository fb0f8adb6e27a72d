package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/retail-ledger/internal/domain/entity"
	"github.com/jhoicas/retail-ledger/internal/domain/repository"
)

var _ repository.PriceRepository = (*PriceRepo)(nil)

// PriceRepo overrides de precio por tienda (store_variant_prices).
type PriceRepo struct {
	q Querier
}

// NewPriceRepository construye el adaptador. Pasar pool o tx (Querier).
func NewPriceRepository(q Querier) *PriceRepo {
	return &PriceRepo{q: q}
}

// ListStorePrices overrides de la tienda para las variantes pedidas, en una sola consulta.
func (r *PriceRepo) ListStorePrices(ctx context.Context, tenantID, storeID string, variantIDs []string) ([]*entity.StorePrice, error) {
	list := []*entity.StorePrice{}
	if len(variantIDs) == 0 {
		return list, nil
	}
	query := `
		SELECT tenant_id, store_id, variant_id, unit_price, currency, tax_percent, discount_percent
		FROM store_variant_prices
		WHERE tenant_id = $1 AND store_id = $2 AND variant_id::text = ANY($3)`
	rows, err := r.q.Query(ctx, query, tenantID, storeID, variantIDs)
	if err != nil {
		return nil, fmt.Errorf("list store prices: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var p entity.StorePrice
		if err := rows.Scan(&p.TenantID, &p.StoreID, &p.VariantID, &p.UnitPrice, &p.Currency, &p.TaxPercent, &p.DiscountPercent); err != nil {
			return nil, fmt.Errorf("scan store price: %w", err)
		}
		list = append(list, &p)
	}
	return list, rows.Err()
}

// Upsert crea o reemplaza el override de una variante en una tienda.
func (r *PriceRepo) Upsert(ctx context.Context, p *entity.StorePrice) error {
	query := `
		INSERT INTO store_variant_prices (tenant_id, store_id, variant_id, unit_price, currency, tax_percent, discount_percent, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, now())
		ON CONFLICT (tenant_id, store_id, variant_id) DO UPDATE SET
			unit_price = EXCLUDED.unit_price,
			currency = EXCLUDED.currency,
			tax_percent = EXCLUDED.tax_percent,
			discount_percent = EXCLUDED.discount_percent,
			updated_at = now()`
	_, err := r.q.Exec(ctx, query, p.TenantID, p.StoreID, p.VariantID, p.UnitPrice, p.Currency, p.TaxPercent, p.DiscountPercent)
	if err != nil {
		return fmt.Errorf("upsert store price: %w", err)
	}
	return nil
}
