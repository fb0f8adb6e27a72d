package pricing_test

import (
	"context"
	"testing"

	"github.com/jhoicas/retail-ledger/internal/application/pricing"
	"github.com/jhoicas/retail-ledger/internal/domain"
	"github.com/jhoicas/retail-ledger/internal/domain/entity"
	"github.com/jhoicas/retail-ledger/internal/infrastructure/memory"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

var actor = entity.Actor{TenantID: "t1", UserID: "u1"}

func newResolver(t *testing.T) (*pricing.Resolver, *memory.DB) {
	t.Helper()
	db := memory.NewDB()
	db.AddStore(entity.Store{ID: "s1", TenantID: "t1"})
	db.AddStore(entity.Store{ID: "s2", TenantID: "t1"})
	db.AddVariant(entity.ProductVariant{
		ID: "v1", TenantID: "t1", Currency: "COP",
		SalePrice:  dec("100"),
		TaxPercent: decimal.NewNullDecimal(dec("19")),
	})
	return pricing.NewResolver(memory.NewTxRunner(db)), db
}

func TestEffectivePrice_SinOverrideUsaDefaults(t *testing.T) {
	r, _ := newResolver(t)
	p, err := r.EffectivePrice(context.Background(), actor, "s1", "v1")
	require.NoError(t, err)
	assert.True(t, p.UnitPrice.Equal(dec("100")))
	assert.True(t, p.TaxPercent.Equal(dec("19")))
	assert.True(t, p.DiscountPercent.IsZero())
	assert.Equal(t, "COP", p.Currency)
	assert.False(t, p.IsOverride)
}

func TestEffectivePrice_OverrideCampoACampo(t *testing.T) {
	r, db := newResolver(t)
	usd := "USD"
	db.SetStorePrice(entity.StorePrice{
		TenantID: "t1", StoreID: "s1", VariantID: "v1",
		UnitPrice:       decimal.NewNullDecimal(dec("90")),
		Currency:        &usd,
		DiscountPercent: decimal.NewNullDecimal(dec("5")),
	})

	p, err := r.EffectivePrice(context.Background(), actor, "s1", "v1")
	require.NoError(t, err)
	assert.True(t, p.UnitPrice.Equal(dec("90")))
	assert.True(t, p.TaxPercent.Equal(dec("19")), "el impuesto sin override sigue viniendo de la variante")
	assert.True(t, p.DiscountPercent.Equal(dec("5")))
	assert.Equal(t, "USD", p.Currency)
	assert.True(t, p.IsOverride)

	other, err := r.EffectivePrice(context.Background(), actor, "s2", "v1")
	require.NoError(t, err)
	assert.True(t, other.UnitPrice.Equal(dec("100")), "el override es solo de su tienda")
}

func TestEffectivePrice_OtroTenant(t *testing.T) {
	r, _ := newResolver(t)
	_, err := r.EffectivePrice(context.Background(), entity.Actor{TenantID: "t2", UserID: "u"}, "s1", "v1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
