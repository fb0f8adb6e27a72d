package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/retail-ledger/internal/domain/entity"
	"github.com/jhoicas/retail-ledger/internal/domain/repository"
)

var _ repository.SaleRepository = (*SaleRepo)(nil)

// SaleRepo ventas y sus líneas sobre PostgreSQL (usable con pool o tx).
type SaleRepo struct {
	q Querier
}

// NewSaleRepository construye el adaptador. Pasar pool o tx (Querier).
func NewSaleRepository(q Querier) *SaleRepo {
	return &SaleRepo{q: q}
}

const saleColumns = `
	id, tenant_id, store_id, status, customer_name, customer_email, customer_phone, customer_document,
	unit_price_total, line_total, currency, metadata, cancelled_at, cancelled_by,
	created_at, updated_at, created_by, updated_by`

// Create persiste la cabecera de la venta.
func (r *SaleRepo) Create(ctx context.Context, s *entity.Sale) error {
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	query := `
		INSERT INTO sales (` + saleColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`
	_, err := r.q.Exec(ctx, query,
		s.ID, s.TenantID, s.StoreID, s.Status,
		nullString(s.CustomerName), nullString(s.CustomerEmail), nullString(s.CustomerPhone), nullString(s.CustomerDocument),
		s.UnitPriceTotal, s.LineTotal, s.Currency, jsonOrNil(s.Metadata), s.CancelledAt, nullString(s.CancelledBy),
		s.CreatedAt, s.UpdatedAt, nullString(s.CreatedBy), nullString(s.UpdatedBy),
	)
	if err != nil {
		return fmt.Errorf("create sale: %w", err)
	}
	return nil
}

// Update reescribe estado, cliente, totales, metadata y datos de cancelación.
func (r *SaleRepo) Update(ctx context.Context, s *entity.Sale) error {
	query := `
		UPDATE sales SET
			status = $3, customer_name = $4, customer_email = $5, customer_phone = $6, customer_document = $7,
			unit_price_total = $8, line_total = $9, currency = $10, metadata = $11,
			cancelled_at = $12, cancelled_by = $13, updated_at = $14, updated_by = $15
		WHERE tenant_id = $1 AND id = $2`
	tag, err := r.q.Exec(ctx, query,
		s.TenantID, s.ID, s.Status,
		nullString(s.CustomerName), nullString(s.CustomerEmail), nullString(s.CustomerPhone), nullString(s.CustomerDocument),
		s.UnitPriceTotal, s.LineTotal, s.Currency, jsonOrNil(s.Metadata),
		s.CancelledAt, nullString(s.CancelledBy), s.UpdatedAt, nullString(s.UpdatedBy),
	)
	if err != nil {
		return fmt.Errorf("update sale: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update sale %s: no existe", s.ID)
	}
	return nil
}

// GetByID obtiene una venta del tenant. nil, nil si no existe.
func (r *SaleRepo) GetByID(ctx context.Context, tenantID, id string) (*entity.Sale, error) {
	return r.get(ctx, `SELECT `+saleColumns+` FROM sales WHERE tenant_id = $1 AND id = $2`, tenantID, id)
}

// GetForUpdate igual que GetByID pero bloquea la cabecera (FOR UPDATE) hasta el fin de la tx.
func (r *SaleRepo) GetForUpdate(ctx context.Context, tenantID, id string) (*entity.Sale, error) {
	return r.get(ctx, `SELECT `+saleColumns+` FROM sales WHERE tenant_id = $1 AND id = $2 FOR UPDATE`, tenantID, id)
}

func (r *SaleRepo) get(ctx context.Context, query, tenantID, id string) (*entity.Sale, error) {
	if !isUUID(id) {
		return nil, nil
	}
	var s entity.Sale
	var name, email, phone, document, cancelledBy, createdBy, updatedBy *string
	err := r.q.QueryRow(ctx, query, tenantID, id).Scan(
		&s.ID, &s.TenantID, &s.StoreID, &s.Status, &name, &email, &phone, &document,
		&s.UnitPriceTotal, &s.LineTotal, &s.Currency, &s.Metadata, &s.CancelledAt, &cancelledBy,
		&s.CreatedAt, &s.UpdatedAt, &createdBy, &updatedBy,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get sale: %w", err)
	}
	s.CustomerName = derefString(name)
	s.CustomerEmail = derefString(email)
	s.CustomerPhone = derefString(phone)
	s.CustomerDocument = derefString(document)
	s.CancelledBy = derefString(cancelledBy)
	s.CreatedBy = derefString(createdBy)
	s.UpdatedBy = derefString(updatedBy)
	return &s, nil
}

const saleLineColumns = `
	id, sale_id, tenant_id, variant_id, quantity, currency, unit_price, discount_percent, discount_amount,
	tax_percent, tax_amount, campaign_code, net_amount, line_total, created_at`

// CreateLine persiste una línea de venta con su precio congelado.
func (r *SaleRepo) CreateLine(ctx context.Context, l *entity.SaleLine) error {
	if l.ID == "" {
		l.ID = uuid.New().String()
	}
	query := `
		INSERT INTO sale_lines (` + saleLineColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`
	_, err := r.q.Exec(ctx, query,
		l.ID, l.SaleID, l.TenantID, l.VariantID, l.Quantity, l.Currency, l.UnitPrice, l.DiscountPercent, l.DiscountAmount,
		l.TaxPercent, l.TaxAmount, l.CampaignCode, l.NetAmount, l.LineTotal, l.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create sale line: %w", err)
	}
	return nil
}

// ListLines líneas de la venta en orden de creación.
func (r *SaleRepo) ListLines(ctx context.Context, tenantID, saleID string) ([]*entity.SaleLine, error) {
	query := `SELECT ` + saleLineColumns + `
		FROM sale_lines WHERE tenant_id = $1 AND sale_id = $2
		ORDER BY line_no`
	rows, err := r.q.Query(ctx, query, tenantID, saleID)
	if err != nil {
		return nil, fmt.Errorf("list sale lines: %w", err)
	}
	defer rows.Close()
	list := []*entity.SaleLine{}
	for rows.Next() {
		var l entity.SaleLine
		if err := rows.Scan(
			&l.ID, &l.SaleID, &l.TenantID, &l.VariantID, &l.Quantity, &l.Currency, &l.UnitPrice, &l.DiscountPercent, &l.DiscountAmount,
			&l.TaxPercent, &l.TaxAmount, &l.CampaignCode, &l.NetAmount, &l.LineTotal, &l.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan sale line: %w", err)
		}
		list = append(list, &l)
	}
	return list, rows.Err()
}

// DeleteLines borra las líneas de la venta; sus movimientos quedan en el libro.
func (r *SaleRepo) DeleteLines(ctx context.Context, tenantID, saleID string) error {
	if _, err := r.q.Exec(ctx, `DELETE FROM sale_lines WHERE tenant_id = $1 AND sale_id = $2`, tenantID, saleID); err != nil {
		return fmt.Errorf("delete sale lines: %w", err)
	}
	return nil
}
