package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/retail-ledger/internal/domain"
	"github.com/jhoicas/retail-ledger/internal/domain/entity"
	"github.com/jhoicas/retail-ledger/internal/domain/repository"
)

var _ repository.MovementRepository = (*MovementRepo)(nil)

// MovementRepo libro de movimientos sobre PostgreSQL (usable con pool o tx).
type MovementRepo struct {
	q Querier
}

// NewMovementRepository construye el adaptador. Pasar pool o tx (Querier).
func NewMovementRepository(q Querier) *MovementRepo {
	return &MovementRepo{q: q}
}

const movementColumns = `
	id, tenant_id, store_id, variant_id, type, quantity,
	currency, unit_price, discount_percent, discount_amount, tax_percent, tax_amount, line_total, campaign_code,
	reference, sale_id, sale_line_id, payload, created_at, updated_at, created_by, updated_by`

// Append inserta el movimiento y suma su cantidad a la proyección stock_levels.
func (r *MovementRepo) Append(ctx context.Context, m *entity.Movement) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	query := `
		INSERT INTO stock_movements (` + movementColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22)`
	p := m.Price
	_, err := r.q.Exec(ctx, query,
		m.ID, m.TenantID, m.StoreID, m.VariantID, m.Type, m.Quantity,
		p.Currency, p.UnitPrice, p.DiscountPercent, p.DiscountAmount, p.TaxPercent, p.TaxAmount, p.LineTotal, p.CampaignCode,
		nullString(m.Reference), nullString(m.SaleID), nullString(m.SaleLineID), jsonOrNil(m.Payload),
		m.CreatedAt, m.UpdatedAt, nullString(m.CreatedBy), nullString(m.UpdatedBy),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("append movement: %w", err)
	}

	level := `
		INSERT INTO stock_levels (tenant_id, store_id, variant_id, quantity, updated_at)
		VALUES ($1, $2, $3, $4, now())
		ON CONFLICT (tenant_id, store_id, variant_id)
		DO UPDATE SET quantity = stock_levels.quantity + EXCLUDED.quantity, updated_at = now()`
	if _, err := r.q.Exec(ctx, level, m.TenantID, m.StoreID, m.VariantID, m.Quantity); err != nil {
		return fmt.Errorf("project stock level: %w", err)
	}
	return nil
}

// GetByID obtiene un movimiento por ID dentro del tenant.
func (r *MovementRepo) GetByID(ctx context.Context, tenantID, id string) (*entity.Movement, error) {
	if !isUUID(id) {
		return nil, nil
	}
	query := `SELECT ` + movementColumns + ` FROM stock_movements WHERE tenant_id = $1 AND id = $2`
	m, err := scanMovement(r.q.QueryRow(ctx, query, tenantID, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get movement: %w", err)
	}
	return m, nil
}

// List historial filtrado por tienda y/o variante, más recientes primero.
func (r *MovementRepo) List(ctx context.Context, f repository.MovementFilter, limit, offset int) ([]*entity.Movement, error) {
	query := `SELECT ` + movementColumns + ` FROM stock_movements WHERE tenant_id = $1`
	args := []any{f.TenantID}
	pos := 2
	if f.StoreID != "" {
		query += fmt.Sprintf(" AND store_id = $%d", pos)
		args = append(args, f.StoreID)
		pos++
	}
	if f.VariantID != "" {
		query += fmt.Sprintf(" AND variant_id = $%d", pos)
		args = append(args, f.VariantID)
		pos++
	}
	query += fmt.Sprintf(" ORDER BY seq DESC LIMIT $%d OFFSET $%d", pos, pos+1)
	args = append(args, limit, offset)

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list movements: %w", err)
	}
	return collectMovements(rows)
}

// ListBySale movimientos ligados a una venta en orden cronológico.
func (r *MovementRepo) ListBySale(ctx context.Context, tenantID, saleID string) ([]*entity.Movement, error) {
	query := `SELECT ` + movementColumns + `
		FROM stock_movements WHERE tenant_id = $1 AND sale_id = $2
		ORDER BY seq`
	rows, err := r.q.Query(ctx, query, tenantID, saleID)
	if err != nil {
		return nil, fmt.Errorf("list movements by sale: %w", err)
	}
	return collectMovements(rows)
}

func collectMovements(rows pgx.Rows) ([]*entity.Movement, error) {
	defer rows.Close()
	list := []*entity.Movement{}
	for rows.Next() {
		m, err := scanMovement(rows)
		if err != nil {
			return nil, fmt.Errorf("scan movement: %w", err)
		}
		list = append(list, m)
	}
	return list, rows.Err()
}

func scanMovement(row pgx.Row) (*entity.Movement, error) {
	var m entity.Movement
	var reference, saleID, saleLineID, createdBy, updatedBy *string
	p := &m.Price
	err := row.Scan(
		&m.ID, &m.TenantID, &m.StoreID, &m.VariantID, &m.Type, &m.Quantity,
		&p.Currency, &p.UnitPrice, &p.DiscountPercent, &p.DiscountAmount, &p.TaxPercent, &p.TaxAmount, &p.LineTotal, &p.CampaignCode,
		&reference, &saleID, &saleLineID, &m.Payload, &m.CreatedAt, &m.UpdatedAt, &createdBy, &updatedBy,
	)
	if err != nil {
		return nil, err
	}
	m.Reference = derefString(reference)
	m.SaleID = derefString(saleID)
	m.SaleLineID = derefString(saleLineID)
	m.CreatedBy = derefString(createdBy)
	m.UpdatedBy = derefString(updatedBy)
	return &m, nil
}
