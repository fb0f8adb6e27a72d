package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jhoicas/retail-ledger/internal/domain/entity"
	"github.com/jhoicas/retail-ledger/internal/infrastructure/catalog"
)

// ImportCatalog aplica el catálogo en una sola transacción. Tiendas y variantes ya existentes
// se omiten; los precios por tienda se reemplazan.
func ImportCatalog(ctx context.Context, pool *pgxpool.Pool, cat *catalog.Catalog) (catalog.Summary, error) {
	tx, err := pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return catalog.Summary{}, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	sum, err := cat.Apply(ctx, &catalogSink{tx: tx})
	if err != nil {
		return sum, err
	}
	if err := tx.Commit(ctx); err != nil {
		return sum, fmt.Errorf("commit: %w", err)
	}
	return sum, nil
}

// catalogSink escribe cada registro en un savepoint: un duplicado no aborta la transacción.
type catalogSink struct {
	tx pgx.Tx
}

func (s *catalogSink) SaveStore(ctx context.Context, st *entity.Store) error {
	return s.savepoint(ctx, func(q Querier) error {
		return NewStoreRepository(q).Create(ctx, st)
	})
}

func (s *catalogSink) SaveVariant(ctx context.Context, v *entity.ProductVariant) error {
	return s.savepoint(ctx, func(q Querier) error {
		repo := NewVariantRepository(q)
		if err := repo.UpsertProduct(ctx, v.TenantID, v.ProductID, v.ProductName); err != nil {
			return err
		}
		return repo.Create(ctx, v)
	})
}

func (s *catalogSink) SavePrice(ctx context.Context, p *entity.StorePrice) error {
	return NewPriceRepository(s.tx).Upsert(ctx, p)
}

func (s *catalogSink) savepoint(ctx context.Context, fn func(q Querier) error) error {
	sp, err := s.tx.Begin(ctx)
	if err != nil {
		return fmt.Errorf("savepoint: %w", err)
	}
	if err := fn(sp); err != nil {
		_ = sp.Rollback(ctx)
		return err
	}
	return sp.Commit(ctx)
}
