package memory

import (
	"context"

	"github.com/jhoicas/retail-ledger/internal/domain"
	"github.com/jhoicas/retail-ledger/internal/domain/entity"
)

// CatalogSink carga un catálogo importado en la base en memoria (modo desarrollo).
type CatalogSink struct {
	db *DB
}

// NewCatalogSink construye el destino sobre db.
func NewCatalogSink(db *DB) *CatalogSink {
	return &CatalogSink{db: db}
}

func (s *CatalogSink) SaveStore(_ context.Context, st *entity.Store) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if _, ok := s.db.state.stores[st.ID]; ok {
		return domain.ErrDuplicate
	}
	s.db.state.stores[st.ID] = *st
	return nil
}

func (s *CatalogSink) SaveVariant(_ context.Context, v *entity.ProductVariant) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if _, ok := s.db.state.variants[v.ID]; ok {
		return domain.ErrDuplicate
	}
	for _, existing := range s.db.state.variants {
		if existing.TenantID == v.TenantID && existing.SKU == v.SKU {
			return domain.ErrDuplicate
		}
	}
	s.db.state.variants[v.ID] = *v
	return nil
}

func (s *CatalogSink) SavePrice(_ context.Context, p *entity.StorePrice) error {
	s.db.SetStorePrice(*p)
	return nil
}
