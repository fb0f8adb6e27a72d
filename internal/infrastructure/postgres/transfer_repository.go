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

var _ repository.TransferRepository = (*TransferRepo)(nil)

// TransferRepo traslados entre tiendas sobre PostgreSQL (usable con pool o tx).
type TransferRepo struct {
	q Querier
}

// NewTransferRepository construye el adaptador. Pasar pool o tx (Querier).
func NewTransferRepository(q Querier) *TransferRepo {
	return &TransferRepo{q: q}
}

// Create persiste la cabecera del traslado.
func (r *TransferRepo) Create(ctx context.Context, t *entity.Transfer) error {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	query := `
		INSERT INTO transfers (id, tenant_id, from_store_id, to_store_id, status, note, reference, created_at, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.q.Exec(ctx, query,
		t.ID, t.TenantID, t.FromStoreID, t.ToStoreID, t.Status, nullString(t.Note), t.Reference, t.CreatedAt, nullString(t.CreatedBy),
	)
	if err != nil {
		return fmt.Errorf("create transfer: %w", err)
	}
	return nil
}

// CreateLine persiste una línea con los saldos antes/después de ambas tiendas.
func (r *TransferRepo) CreateLine(ctx context.Context, l *entity.TransferLine) error {
	if l.ID == "" {
		l.ID = uuid.New().String()
	}
	query := `
		INSERT INTO transfer_lines (id, transfer_id, tenant_id, variant_id, quantity, from_before, from_after, to_before, to_after, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := r.q.Exec(ctx, query,
		l.ID, l.TransferID, l.TenantID, l.VariantID, l.Quantity, l.FromBefore, l.FromAfter, l.ToBefore, l.ToAfter, l.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create transfer line: %w", err)
	}
	return nil
}

// GetByID obtiene un traslado del tenant. nil, nil si no existe.
func (r *TransferRepo) GetByID(ctx context.Context, tenantID, id string) (*entity.Transfer, error) {
	if !isUUID(id) {
		return nil, nil
	}
	query := `
		SELECT id, tenant_id, from_store_id, to_store_id, status, note, reference, created_at, created_by
		FROM transfers WHERE tenant_id = $1 AND id = $2`
	var t entity.Transfer
	var note, createdBy *string
	err := r.q.QueryRow(ctx, query, tenantID, id).Scan(
		&t.ID, &t.TenantID, &t.FromStoreID, &t.ToStoreID, &t.Status, &note, &t.Reference, &t.CreatedAt, &createdBy,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get transfer: %w", err)
	}
	t.Note = derefString(note)
	t.CreatedBy = derefString(createdBy)
	return &t, nil
}

// ListLines líneas del traslado en orden de ejecución.
func (r *TransferRepo) ListLines(ctx context.Context, tenantID, transferID string) ([]*entity.TransferLine, error) {
	query := `
		SELECT id, transfer_id, tenant_id, variant_id, quantity, from_before, from_after, to_before, to_after, created_at
		FROM transfer_lines WHERE tenant_id = $1 AND transfer_id = $2
		ORDER BY line_no`
	rows, err := r.q.Query(ctx, query, tenantID, transferID)
	if err != nil {
		return nil, fmt.Errorf("list transfer lines: %w", err)
	}
	defer rows.Close()
	list := []*entity.TransferLine{}
	for rows.Next() {
		var l entity.TransferLine
		if err := rows.Scan(&l.ID, &l.TransferID, &l.TenantID, &l.VariantID, &l.Quantity,
			&l.FromBefore, &l.FromAfter, &l.ToBefore, &l.ToAfter, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan transfer line: %w", err)
		}
		list = append(list, &l)
	}
	return list, rows.Err()
}
