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

var _ repository.StoreRepository = (*StoreRepo)(nil)

// StoreRepo directorio de tiendas sobre PostgreSQL.
type StoreRepo struct {
	q Querier
}

// NewStoreRepository construye el adaptador. Pasar pool o tx (Querier).
func NewStoreRepository(q Querier) *StoreRepo {
	return &StoreRepo{q: q}
}

// GetByID obtiene una tienda del tenant. nil, nil si no existe.
func (r *StoreRepo) GetByID(ctx context.Context, tenantID, id string) (*entity.Store, error) {
	if !isUUID(id) {
		return nil, nil
	}
	query := `
		SELECT id, tenant_id, code, name, COALESCE(address, ''), created_at, updated_at
		FROM stores WHERE tenant_id = $1 AND id = $2`
	var s entity.Store
	err := r.q.QueryRow(ctx, query, tenantID, id).Scan(
		&s.ID, &s.TenantID, &s.Code, &s.Name, &s.Address, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get store: %w", err)
	}
	return &s, nil
}

// Create inserta una tienda (usado por el seed de catálogo).
func (r *StoreRepo) Create(ctx context.Context, s *entity.Store) error {
	query := `
		INSERT INTO stores (id, tenant_id, code, name, address, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.q.Exec(ctx, query, s.ID, s.TenantID, s.Code, s.Name, nullString(s.Address), s.CreatedAt, s.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("tienda %s: %w", s.Code, domain.ErrDuplicate)
		}
		return fmt.Errorf("create store: %w", err)
	}
	return nil
}
