package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/retail-ledger/internal/domain"
	"github.com/jhoicas/retail-ledger/internal/domain/entity"
	"github.com/jhoicas/retail-ledger/internal/domain/repository"
)

var _ repository.VariantRepository = (*VariantRepo)(nil)

// VariantRepo variantes de producto sobre PostgreSQL (usable con pool o tx).
type VariantRepo struct {
	q Querier
}

// NewVariantRepository construye el adaptador. Pasar pool o tx (Querier).
func NewVariantRepository(q Querier) *VariantRepo {
	return &VariantRepo{q: q}
}

const variantSelect = `
	SELECT v.id, v.tenant_id, v.product_id, p.name, v.sku, v.name, v.currency, v.sale_price,
	       v.tax_percent, v.discount_percent, v.purchase_price, v.purchase_tax_percent,
	       v.attributes, v.created_at, v.updated_at
	FROM product_variants v
	JOIN products p ON p.id = v.product_id AND p.tenant_id = v.tenant_id`

// GetByID obtiene una variante del tenant con el nombre de su producto. nil, nil si no existe.
func (r *VariantRepo) GetByID(ctx context.Context, tenantID, id string) (*entity.ProductVariant, error) {
	if !isUUID(id) {
		return nil, nil
	}
	v, err := scanVariant(r.q.QueryRow(ctx, variantSelect+` WHERE v.tenant_id = $1 AND v.id = $2`, tenantID, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get variant: %w", err)
	}
	return v, nil
}

// GetByIDs carga varias variantes en una sola consulta; las ausentes no vienen en el resultado.
func (r *VariantRepo) GetByIDs(ctx context.Context, tenantID string, ids []string) ([]*entity.ProductVariant, error) {
	list := []*entity.ProductVariant{}
	if len(ids) == 0 {
		return list, nil
	}
	rows, err := r.q.Query(ctx, variantSelect+` WHERE v.tenant_id = $1 AND v.id::text = ANY($2)`, tenantID, ids)
	if err != nil {
		return nil, fmt.Errorf("get variants: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		v, err := scanVariant(rows)
		if err != nil {
			return nil, fmt.Errorf("scan variant: %w", err)
		}
		list = append(list, v)
	}
	return list, rows.Err()
}

// GetBySKU obtiene una variante por tenant y SKU (seed de catálogo).
func (r *VariantRepo) GetBySKU(ctx context.Context, tenantID, sku string) (*entity.ProductVariant, error) {
	v, err := scanVariant(r.q.QueryRow(ctx, variantSelect+` WHERE v.tenant_id = $1 AND v.sku = $2`, tenantID, sku))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get variant by sku: %w", err)
	}
	return v, nil
}

// UpsertProduct registra el producto padre si no existe y actualiza su nombre.
func (r *VariantRepo) UpsertProduct(ctx context.Context, tenantID, productID, name string) error {
	query := `
		INSERT INTO products (id, tenant_id, name, created_at, updated_at)
		VALUES ($1, $2, $3, now(), now())
		ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, updated_at = now()`
	if _, err := r.q.Exec(ctx, query, productID, tenantID, name); err != nil {
		return fmt.Errorf("upsert product: %w", err)
	}
	return nil
}

// Create persiste una variante nueva. SKU duplicado en el tenant -> domain.ErrDuplicate.
func (r *VariantRepo) Create(ctx context.Context, v *entity.ProductVariant) error {
	query := `
		INSERT INTO product_variants (id, tenant_id, product_id, sku, name, currency, sale_price,
			tax_percent, discount_percent, purchase_price, purchase_tax_percent, attributes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`
	_, err := r.q.Exec(ctx, query,
		v.ID, v.TenantID, v.ProductID, v.SKU, v.Name, v.Currency, v.SalePrice,
		v.TaxPercent, v.DiscountPercent, v.PurchasePrice, v.PurchaseTaxPercent, jsonOrNil(v.Attributes),
		v.CreatedAt, v.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert variant: %w", err)
	}
	return nil
}

func scanVariant(row pgx.Row) (*entity.ProductVariant, error) {
	var v entity.ProductVariant
	err := row.Scan(
		&v.ID, &v.TenantID, &v.ProductID, &v.ProductName, &v.SKU, &v.Name, &v.Currency, &v.SalePrice,
		&v.TaxPercent, &v.DiscountPercent, &v.PurchasePrice, &v.PurchaseTaxPercent,
		&v.Attributes, &v.CreatedAt, &v.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &v, nil
}
