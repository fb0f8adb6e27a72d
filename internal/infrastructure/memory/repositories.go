package memory

import (
	"context"
	"sort"

	"github.com/jhoicas/retail-ledger/internal/domain"
	"github.com/jhoicas/retail-ledger/internal/domain/entity"
	"github.com/jhoicas/retail-ledger/internal/domain/repository"
	"github.com/shopspring/decimal"
)

// ─── Movimientos ─────────────────────────────────────────────────────────────

type movementRepo struct{ st *state }

func (r movementRepo) Append(_ context.Context, m *entity.Movement) error {
	for _, existing := range r.st.movements {
		if existing.ID == m.ID {
			return domain.ErrDuplicate
		}
	}
	r.st.movements = append(r.st.movements, *m)
	key := entity.BalanceKey{TenantID: m.TenantID, StoreID: m.StoreID, VariantID: m.VariantID}
	r.st.levels[key] = r.st.levels[key].Add(m.Quantity)
	return nil
}

func (r movementRepo) GetByID(_ context.Context, tenantID, id string) (*entity.Movement, error) {
	for i := range r.st.movements {
		if m := r.st.movements[i]; m.ID == id && m.TenantID == tenantID {
			return &m, nil
		}
	}
	return nil, nil
}

func (r movementRepo) List(_ context.Context, f repository.MovementFilter, limit, offset int) ([]*entity.Movement, error) {
	var out []*entity.Movement
	// más recientes primero: recorrer el libro al revés
	for i := len(r.st.movements) - 1; i >= 0; i-- {
		m := r.st.movements[i]
		if m.TenantID != f.TenantID {
			continue
		}
		if f.StoreID != "" && m.StoreID != f.StoreID {
			continue
		}
		if f.VariantID != "" && m.VariantID != f.VariantID {
			continue
		}
		out = append(out, &m)
	}
	if offset >= len(out) {
		return []*entity.Movement{}, nil
	}
	out = out[offset:]
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (r movementRepo) ListBySale(_ context.Context, tenantID, saleID string) ([]*entity.Movement, error) {
	var out []*entity.Movement
	for _, m := range r.st.movements {
		if m.TenantID == tenantID && m.SaleID == saleID {
			m := m
			out = append(out, &m)
		}
	}
	return out, nil
}

// ─── Saldos ──────────────────────────────────────────────────────────────────

type balanceRepo struct{ st *state }

// Balance suma el libro; la proyección levels solo se usa para verificarla en tests.
func (r balanceRepo) Balance(_ context.Context, key entity.BalanceKey) (decimal.Decimal, error) {
	sum := decimal.Zero
	for _, m := range r.st.movements {
		if m.TenantID == key.TenantID && m.StoreID == key.StoreID && m.VariantID == key.VariantID {
			sum = sum.Add(m.Quantity)
		}
	}
	return sum, nil
}

func (r balanceRepo) BalanceByStore(_ context.Context, tenantID, storeID string) ([]entity.VariantBalance, error) {
	sums := map[string]decimal.Decimal{}
	for _, m := range r.st.movements {
		if m.TenantID == tenantID && m.StoreID == storeID {
			sums[m.VariantID] = sums[m.VariantID].Add(m.Quantity)
		}
	}
	return variantBalances(sums), nil
}

func (r balanceRepo) BalanceByVariant(_ context.Context, tenantID, variantID string) ([]entity.StoreBalance, error) {
	sums := map[string]decimal.Decimal{}
	for _, m := range r.st.movements {
		if m.TenantID == tenantID && m.VariantID == variantID {
			sums[m.StoreID] = sums[m.StoreID].Add(m.Quantity)
		}
	}
	out := make([]entity.StoreBalance, 0, len(sums))
	for id, q := range sums {
		out = append(out, entity.StoreBalance{StoreID: id, Quantity: q})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StoreID < out[j].StoreID })
	return out, nil
}

func (r balanceRepo) BalanceByTenant(_ context.Context, tenantID string) ([]entity.VariantBalance, error) {
	sums := map[string]decimal.Decimal{}
	for _, m := range r.st.movements {
		if m.TenantID == tenantID {
			sums[m.VariantID] = sums[m.VariantID].Add(m.Quantity)
		}
	}
	return variantBalances(sums), nil
}

// Lock no-op: TxRunner ya serializa todas las transacciones.
func (r balanceRepo) Lock(_ context.Context, keys ...entity.BalanceKey) error {
	for _, k := range keys {
		if _, ok := r.st.levels[k]; !ok {
			r.st.levels[k] = decimal.Zero
		}
	}
	return nil
}

func variantBalances(sums map[string]decimal.Decimal) []entity.VariantBalance {
	out := make([]entity.VariantBalance, 0, len(sums))
	for id, q := range sums {
		out = append(out, entity.VariantBalance{VariantID: id, Quantity: q})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].VariantID < out[j].VariantID })
	return out
}

// ─── Directorio ──────────────────────────────────────────────────────────────

type storeRepo struct{ st *state }

func (r storeRepo) GetByID(_ context.Context, tenantID, id string) (*entity.Store, error) {
	s, ok := r.st.stores[id]
	if !ok || s.TenantID != tenantID {
		return nil, nil
	}
	return &s, nil
}

type variantRepo struct{ st *state }

func (r variantRepo) GetByID(_ context.Context, tenantID, id string) (*entity.ProductVariant, error) {
	v, ok := r.st.variants[id]
	if !ok || v.TenantID != tenantID {
		return nil, nil
	}
	return &v, nil
}

func (r variantRepo) GetByIDs(ctx context.Context, tenantID string, ids []string) ([]*entity.ProductVariant, error) {
	out := make([]*entity.ProductVariant, 0, len(ids))
	seen := map[string]bool{}
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		v, _ := r.GetByID(ctx, tenantID, id)
		if v != nil {
			out = append(out, v)
		}
	}
	return out, nil
}

type priceRepo struct{ st *state }

func (r priceRepo) ListStorePrices(_ context.Context, tenantID, storeID string, variantIDs []string) ([]*entity.StorePrice, error) {
	out := make([]*entity.StorePrice, 0, len(variantIDs))
	for _, id := range variantIDs {
		if p, ok := r.st.prices[priceKey{tenantID, storeID, id}]; ok {
			out = append(out, &p)
		}
	}
	return out, nil
}

// ─── Ventas ──────────────────────────────────────────────────────────────────

type saleRepo struct{ st *state }

func (r saleRepo) Create(_ context.Context, s *entity.Sale) error {
	if _, ok := r.st.sales[s.ID]; ok {
		return domain.ErrDuplicate
	}
	r.st.sales[s.ID] = *s
	return nil
}

func (r saleRepo) Update(_ context.Context, s *entity.Sale) error {
	existing, ok := r.st.sales[s.ID]
	if !ok || existing.TenantID != s.TenantID {
		return domain.ErrNotFound
	}
	r.st.sales[s.ID] = *s
	return nil
}

func (r saleRepo) GetByID(_ context.Context, tenantID, id string) (*entity.Sale, error) {
	s, ok := r.st.sales[id]
	if !ok || s.TenantID != tenantID {
		return nil, nil
	}
	return &s, nil
}

func (r saleRepo) GetForUpdate(ctx context.Context, tenantID, id string) (*entity.Sale, error) {
	return r.GetByID(ctx, tenantID, id)
}

func (r saleRepo) CreateLine(_ context.Context, l *entity.SaleLine) error {
	r.st.saleLines = append(r.st.saleLines, *l)
	return nil
}

func (r saleRepo) ListLines(_ context.Context, tenantID, saleID string) ([]*entity.SaleLine, error) {
	var out []*entity.SaleLine
	for _, l := range r.st.saleLines {
		if l.TenantID == tenantID && l.SaleID == saleID {
			l := l
			out = append(out, &l)
		}
	}
	return out, nil
}

func (r saleRepo) DeleteLines(_ context.Context, tenantID, saleID string) error {
	kept := r.st.saleLines[:0:0]
	for _, l := range r.st.saleLines {
		if l.TenantID == tenantID && l.SaleID == saleID {
			continue
		}
		kept = append(kept, l)
	}
	r.st.saleLines = kept
	return nil
}

// ─── Traslados ───────────────────────────────────────────────────────────────

type transferRepo struct{ st *state }

func (r transferRepo) Create(_ context.Context, t *entity.Transfer) error {
	if _, ok := r.st.transfers[t.ID]; ok {
		return domain.ErrDuplicate
	}
	r.st.transfers[t.ID] = *t
	return nil
}

func (r transferRepo) CreateLine(_ context.Context, l *entity.TransferLine) error {
	r.st.transferLines = append(r.st.transferLines, *l)
	return nil
}

func (r transferRepo) GetByID(_ context.Context, tenantID, id string) (*entity.Transfer, error) {
	t, ok := r.st.transfers[id]
	if !ok || t.TenantID != tenantID {
		return nil, nil
	}
	return &t, nil
}

func (r transferRepo) ListLines(_ context.Context, tenantID, transferID string) ([]*entity.TransferLine, error) {
	var out []*entity.TransferLine
	for _, l := range r.st.transferLines {
		if l.TenantID == tenantID && l.TransferID == transferID {
			l := l
			out = append(out, &l)
		}
	}
	return out, nil
}
