package catalog_test

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/jhoicas/retail-ledger/internal/domain"
	"github.com/jhoicas/retail-ledger/internal/domain/entity"
	"github.com/jhoicas/retail-ledger/internal/infrastructure/catalog"
	"github.com/jhoicas/retail-ledger/internal/infrastructure/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"
)

const (
	tenant  = "tenant-1"
	storeID = "11111111-1111-1111-1111-111111111111"
	varID   = "33333333-3333-3333-3333-333333333333"
	prodID  = "44444444-4444-4444-4444-444444444444"
)

const sample = `record,id,code,name,address,product_id,product_name,sku,currency,sale_price,tax_percent,discount_percent,purchase_price,store_id,variant_id,unit_price
store,` + storeID + `,S01,Tienda Centro,Calle 10,,,,,,,,,,,
variant,` + varID + `,,Camiseta M,,` + prodID + `,Camiseta,CAM-M,cop,"25000,50",19,,12000,,,
price,,,,,,,,,,,5,,` + storeID + `,` + varID + `,24000
`

// ──────────────────────────────────────────────────────────────────────────────
// Parse
// ──────────────────────────────────────────────────────────────────────────────

func TestParse_RegistrosDeLosTresTipos(t *testing.T) {
	cat, err := catalog.Parse(strings.NewReader(sample), tenant, catalog.EncodingUTF8)
	require.NoError(t, err)

	require.Len(t, cat.Stores, 1)
	assert.Equal(t, "S01", cat.Stores[0].Code)
	assert.Equal(t, tenant, cat.Stores[0].TenantID)

	require.Len(t, cat.Variants, 1)
	v := cat.Variants[0]
	assert.Equal(t, "COP", v.Currency)
	assert.Equal(t, "25000.5", v.SalePrice.String())
	assert.True(t, v.TaxPercent.Valid)
	assert.False(t, v.DiscountPercent.Valid)
	assert.Equal(t, "12000", v.PurchasePrice.Decimal.String())

	require.Len(t, cat.Prices, 1)
	p := cat.Prices[0]
	assert.Equal(t, "24000", p.UnitPrice.Decimal.String())
	assert.Equal(t, "5", p.DiscountPercent.Decimal.String())
	assert.Nil(t, p.Currency)
}

func TestParse_Latin1ConBOMIgnorado(t *testing.T) {
	raw := "record,id,code,name\nstore," + storeID + ",S02,Señor Café\n"
	encoded, err := charmap.ISO8859_1.NewEncoder().String(raw)
	require.NoError(t, err)

	cat, err := catalog.Parse(strings.NewReader(encoded), tenant, catalog.EncodingLatin1)
	require.NoError(t, err)
	require.Len(t, cat.Stores, 1)
	assert.Equal(t, "Señor Café", cat.Stores[0].Name)

	withBOM := append([]byte{0xEF, 0xBB, 0xBF}, []byte(raw)...)
	cat, err = catalog.Parse(bytes.NewReader(withBOM), tenant, "")
	require.NoError(t, err)
	assert.Len(t, cat.Stores, 1)
}

func TestParse_Errores(t *testing.T) {
	cases := []struct {
		name string
		csv  string
		line int
	}{
		{"id no uuid", "record,id,code,name\nstore,abc,S,Centro\n", 2},
		{"moneda inválida", "record,id,product_id,sku,name,currency,sale_price\nvariant," + varID + "," + prodID + ",X,X,C0P,10\n", 2},
		{"precio negativo", "record,id,product_id,sku,name,currency,sale_price\nvariant," + varID + "," + prodID + ",X,X,COP,-1\n", 2},
		{"tipo desconocido", "record,id\nfoo,1\n", 2},
		{"tienda sin nombre", "record,id,code\nstore," + storeID + ",S\n", 2},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := catalog.Parse(strings.NewReader(tc.csv), tenant, "")
			require.Error(t, err)
			var rowErr *catalog.RowError
			require.True(t, errors.As(err, &rowErr))
			assert.Equal(t, tc.line, rowErr.Line)
		})
	}
}

func TestParse_SinColumnaRecord(t *testing.T) {
	_, err := catalog.Parse(strings.NewReader("id,name\n1,x\n"), tenant, "")
	assert.ErrorIs(t, err, catalog.ErrMissingHeader)

	_, err = catalog.Parse(strings.NewReader(""), tenant, "")
	assert.ErrorIs(t, err, catalog.ErrMissingHeader)
}

func TestParse_CodificacionNoSoportada(t *testing.T) {
	_, err := catalog.Parse(strings.NewReader(sample), tenant, "ebcdic")
	assert.Error(t, err)
}

// ──────────────────────────────────────────────────────────────────────────────
// Apply
// ──────────────────────────────────────────────────────────────────────────────

func TestApply_MemoriaOmiteDuplicados(t *testing.T) {
	cat, err := catalog.Parse(strings.NewReader(sample), tenant, "")
	require.NoError(t, err)

	db := memory.NewDB()
	sink := memory.NewCatalogSink(db)
	sum, err := cat.Apply(context.Background(), sink)
	require.NoError(t, err)
	assert.Equal(t, catalog.Summary{Stores: 1, Variants: 1, Prices: 1}, sum)

	sum, err = cat.Apply(context.Background(), sink)
	require.NoError(t, err)
	assert.Equal(t, catalog.Summary{Prices: 1, Skipped: 2}, sum)
}

type failingSink struct{ *memory.CatalogSink }

func (failingSink) SaveStore(context.Context, *entity.Store) error { return domain.ErrInvalidInput }

func TestApply_ErrorDetieneLaCarga(t *testing.T) {
	cat, err := catalog.Parse(strings.NewReader(sample), tenant, "")
	require.NoError(t, err)

	_, err = cat.Apply(context.Background(), failingSink{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
