package http_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/retail-ledger/internal/application/dto"
	"github.com/jhoicas/retail-ledger/internal/application/inventory"
	"github.com/jhoicas/retail-ledger/internal/application/pricing"
	"github.com/jhoicas/retail-ledger/internal/application/sales"
	"github.com/jhoicas/retail-ledger/internal/application/transfers"
	"github.com/jhoicas/retail-ledger/internal/domain/entity"
	"github.com/jhoicas/retail-ledger/internal/infrastructure/cache"
	"github.com/jhoicas/retail-ledger/internal/infrastructure/memory"
	infrapdf "github.com/jhoicas/retail-ledger/internal/infrastructure/pdf"
	apphttp "github.com/jhoicas/retail-ledger/internal/interfaces/http"
)

const (
	storeS   = "11111111-1111-1111-1111-111111111111"
	storeT   = "22222222-2222-2222-2222-222222222222"
	variantV = "33333333-3333-3333-3333-333333333333"
	unknown  = "99999999-9999-9999-9999-999999999999"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test
// ──────────────────────────────────────────────────────────────────────────────

type apiFixture struct {
	app   *fiber.App
	db    *memory.DB
	idem  *cache.InMemoryIdempotencyStore
	token string
}

func newAPI(t *testing.T) *apiFixture {
	t.Helper()
	db := memory.NewDB()
	db.AddStore(entity.Store{ID: storeS, TenantID: testCompanyID, Code: "S", Name: "Centro"})
	db.AddStore(entity.Store{ID: storeT, TenantID: testCompanyID, Code: "T", Name: "Norte"})
	db.AddVariant(entity.ProductVariant{
		ID: variantV, TenantID: testCompanyID, ProductID: "44444444-4444-4444-4444-444444444444",
		ProductName: "Camiseta", SKU: "CAM-M", Name: "Camiseta M", Currency: "COP",
		SalePrice:  decimal.RequireFromString("100"),
		TaxPercent: decimal.NewNullDecimal(decimal.RequireFromString("19")),
	})

	runner := memory.NewTxRunner(db)
	stock := inventory.NewStockService(runner, zerolog.Nop())
	resolver := pricing.NewResolver(runner)
	saleSvc := sales.NewSaleService(runner, stock, resolver, zerolog.Nop())
	idem := cache.NewInMemoryIdempotencyStore()
	t.Cleanup(func() { _ = idem.Close() })

	app := fiber.New()
	apphttp.Router(app, apphttp.RouterDeps{
		Stock:          stock,
		Sales:          saleSvc,
		Receipts:       sales.NewReceiptService(saleSvc, infrapdf.NewMarotoReceiptGenerator("Retail Test")),
		Transfers:      transfers.NewTransferService(runner, stock, zerolog.Nop()),
		Prices:         resolver,
		Idempotency:    idem,
		IdempotencyTTL: time.Hour,
		JWTSecret:      testJWTSecret,
		JWTIssuer:      testIssuer,
		ServiceName:    "retail-ledger-test",
		Logger:         zerolog.Nop(),
		RequestTimeout: 5 * time.Second,
	})
	return &apiFixture{app: app, db: db, idem: idem, token: tokenForRole(t, "admin")}
}

func (f *apiFixture) do(t *testing.T, method, path string, body any, headers map[string]string) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Authorization", f.token)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := f.app.Test(req, -1)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func (f *apiFixture) receive(t *testing.T, storeID, qty string) {
	t.Helper()
	resp := f.do(t, http.MethodPost, "/api/inventory/receive", fiber.Map{
		"store_id": storeID, "variant_id": variantV, "quantity": qty,
	}, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
}

func (f *apiFixture) balance(t *testing.T, storeID string) string {
	t.Helper()
	resp := f.do(t, http.MethodGet, "/api/inventory/balance?store_id="+storeID+"&variant_id="+variantV, nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	return decode[dto.BalanceResponse](t, resp).Quantity.String()
}

// ──────────────────────────────────────────────────────────────────────────────
// Salud y autenticación
// ──────────────────────────────────────────────────────────────────────────────

func TestHealth_SinToken(t *testing.T) {
	f := newAPI(t)
	resp, err := f.app.Test(httptest.NewRequest(http.MethodGet, "/health", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get(fiber.HeaderXRequestID))
}

func TestAPI_SinTokenRetorna401(t *testing.T) {
	f := newAPI(t)
	resp, err := f.app.Test(httptest.NewRequest(http.MethodGet, "/api/inventory/balances", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

// ──────────────────────────────────────────────────────────────────────────────
// Inventario
// ──────────────────────────────────────────────────────────────────────────────

func TestInventario_EscenarioCompleto(t *testing.T) {
	f := newAPI(t)
	f.receive(t, storeS, "100")

	resp := f.do(t, http.MethodPost, "/api/inventory/sell", fiber.Map{"store_id": storeS, "variant_id": variantV, "quantity": "30"}, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "70", f.balance(t, storeS))

	resp = f.do(t, http.MethodPost, "/api/inventory/transfer", fiber.Map{
		"from_store_id": storeS, "to_store_id": storeT, "variant_id": variantV, "quantity": "20",
	}, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	pair := decode[dto.TransferMovementsResponse](t, resp)
	assert.Equal(t, pair.Movements[0].Reference, pair.Movements[1].Reference)
	assert.Equal(t, "50", f.balance(t, storeS))
	assert.Equal(t, "20", f.balance(t, storeT))

	resp = f.do(t, http.MethodPost, "/api/inventory/adjust", fiber.Map{"store_id": storeS, "variant_id": variantV, "target_quantity": "45"}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	adj := decode[dto.AdjustResponse](t, resp)
	assert.Equal(t, "-5", adj.Difference.String())
	require.NotNil(t, adj.Movement)

	resp = f.do(t, http.MethodPost, "/api/inventory/sell", fiber.Map{"store_id": storeS, "variant_id": variantV, "quantity": "1000"}, nil)
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	errBody := decode[dto.ErrorResponse](t, resp)
	assert.Equal(t, "INSUFFICIENT_STOCK", errBody.Code)
	assert.Equal(t, "45", errBody.Details["current"])
	assert.Equal(t, "1000", errBody.Details["requested"])
	assert.Equal(t, "45", f.balance(t, storeS))

	resp = f.do(t, http.MethodGet, "/api/inventory/movements?store_id="+storeS+"&limit=2", nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	list := decode[dto.MovementListResponse](t, resp)
	require.Len(t, list.Items, 2)
	assert.Equal(t, entity.MovementTypeADJUSTMENT, list.Items[0].Type, "el más reciente primero")
	assert.Equal(t, 2, list.Page.Limit)

	resp = f.do(t, http.MethodGet, "/api/inventory/variants/"+variantV+"/balances", nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	byStore := decode[[]dto.StoreBalanceResponse](t, resp)
	assert.Len(t, byStore, 2)
}

func TestInventario_ValidacionDeCuerpo(t *testing.T) {
	f := newAPI(t)

	resp := f.do(t, http.MethodPost, "/api/inventory/receive", fiber.Map{"variant_id": variantV, "quantity": "5"}, nil)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	body := decode[dto.ErrorResponse](t, resp)
	assert.Equal(t, "VALIDATION", body.Code)
	assert.Contains(t, body.Details["fields"], "store_id")

	resp = f.do(t, http.MethodPost, "/api/inventory/receive", fiber.Map{"store_id": "no-es-uuid", "variant_id": variantV, "quantity": "5"}, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestInventario_CantidadNoPositiva(t *testing.T) {
	f := newAPI(t)
	resp := f.do(t, http.MethodPost, "/api/inventory/receive", fiber.Map{"store_id": storeS, "variant_id": variantV, "quantity": "0"}, nil)

	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "INVALID_QUANTITY", decode[dto.ErrorResponse](t, resp).Code)
}

func TestInventario_TiendaInexistente(t *testing.T) {
	f := newAPI(t)
	resp := f.do(t, http.MethodPost, "/api/inventory/receive", fiber.Map{"store_id": unknown, "variant_id": variantV, "quantity": "1"}, nil)

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestInventario_TrasladoMismaTienda(t *testing.T) {
	f := newAPI(t)
	f.receive(t, storeS, "10")
	resp := f.do(t, http.MethodPost, "/api/inventory/transfer", fiber.Map{
		"from_store_id": storeS, "to_store_id": storeS, "variant_id": variantV, "quantity": "1",
	}, nil)

	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "SAME_SOURCE_AND_TARGET", decode[dto.ErrorResponse](t, resp).Code)
}

func TestInventario_AjusteRequiereRol(t *testing.T) {
	f := newAPI(t)
	f.token = tokenForRole(t, "vendedor")
	resp := f.do(t, http.MethodPost, "/api/inventory/adjust", fiber.Map{"store_id": storeS, "variant_id": variantV, "target_quantity": "3"}, nil)

	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Empty(t, f.db.Movements())
}

func TestInventario_IDDeRutaInvalido(t *testing.T) {
	f := newAPI(t)
	resp := f.do(t, http.MethodGet, "/api/inventory/stores/abc/balances", nil, nil)

	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "INVALID_ID", decode[dto.ErrorResponse](t, resp).Code)
}

// ──────────────────────────────────────────────────────────────────────────────
// Ventas
// ──────────────────────────────────────────────────────────────────────────────

func saleBody(qty string) fiber.Map {
	return fiber.Map{
		"store_id": storeS,
		"customer": fiber.Map{"name": "Ana"},
		"lines":    []fiber.Map{{"variant_id": variantV, "quantity": qty}},
	}
}

func TestVentas_CrearEditarCancelar(t *testing.T) {
	f := newAPI(t)
	f.receive(t, storeS, "10")

	resp := f.do(t, http.MethodPost, "/api/sales", saleBody("5"), nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	sale := decode[dto.SaleResponse](t, resp)
	require.Len(t, sale.Lines, 1)
	assert.Equal(t, "595", sale.LineTotal.String())
	assert.Equal(t, "5", f.balance(t, storeS))

	resp = f.do(t, http.MethodPatch, "/api/sales/"+sale.ID, fiber.Map{
		"lines": []fiber.Map{{"variant_id": variantV, "quantity": "2"}},
	}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "8", f.balance(t, storeS))

	resp = f.do(t, http.MethodPost, "/api/sales/"+sale.ID+"/cancel", fiber.Map{"reason": "cliente desistió"}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, entity.SaleStatusCancelled, decode[dto.SaleResponse](t, resp).Status)
	assert.Equal(t, "10", f.balance(t, storeS))

	resp = f.do(t, http.MethodPost, "/api/sales/"+sale.ID+"/cancel", nil, nil)
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "ALREADY_CANCELLED", decode[dto.ErrorResponse](t, resp).Code)

	resp = f.do(t, http.MethodGet, "/api/sales/"+sale.ID+"/movements", nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	trail := decode[[]dto.MovementResponse](t, resp)
	require.Len(t, trail, 4, "dos salidas y dos devoluciones compensatorias")
	net := decimal.Zero
	for _, m := range trail {
		assert.Equal(t, sale.ID, m.SaleID)
		net = net.Add(m.Quantity)
	}
	assert.True(t, net.IsZero())

	resp = f.do(t, http.MethodGet, "/api/inventory/movements/"+trail[0].ID, nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, trail[0].ID, decode[dto.MovementResponse](t, resp).ID)

	resp = f.do(t, http.MethodGet, "/api/inventory/movements/"+unknown, nil, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestVentas_IdempotencyKeyRepiteRespuesta(t *testing.T) {
	f := newAPI(t)
	f.receive(t, storeS, "10")
	headers := map[string]string{apphttp.HeaderIdempotencyKey: "venta-001"}

	first := f.do(t, http.MethodPost, "/api/sales", saleBody("3"), headers)
	require.Equal(t, http.StatusCreated, first.StatusCode)
	firstSale := decode[dto.SaleResponse](t, first)

	second := f.do(t, http.MethodPost, "/api/sales", saleBody("3"), headers)
	require.Equal(t, http.StatusCreated, second.StatusCode)
	assert.Equal(t, "true", second.Header.Get("Idempotent-Replayed"))
	assert.Equal(t, firstSale.ID, decode[dto.SaleResponse](t, second).ID)

	assert.Equal(t, "7", f.balance(t, storeS), "el reintento no descuenta de nuevo")
}

func TestVentas_SinLineas(t *testing.T) {
	f := newAPI(t)
	resp := f.do(t, http.MethodPost, "/api/sales", fiber.Map{"store_id": storeS, "lines": []fiber.Map{}}, nil)

	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "MUST_HAVE_LINES", decode[dto.ErrorResponse](t, resp).Code)
}

func TestVentas_NoEncontrada(t *testing.T) {
	f := newAPI(t)
	resp := f.do(t, http.MethodGet, "/api/sales/"+unknown, nil, nil)

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestVentas_ComprobantePDF(t *testing.T) {
	f := newAPI(t)
	f.receive(t, storeS, "10")
	resp := f.do(t, http.MethodPost, "/api/sales", saleBody("1"), nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	sale := decode[dto.SaleResponse](t, resp)

	resp = f.do(t, http.MethodGet, "/api/sales/"+sale.ID+"/receipt", nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/pdf", resp.Header.Get(fiber.HeaderContentType))
	assert.Contains(t, resp.Header.Get(fiber.HeaderContentDisposition), sale.ID)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(raw, []byte("%PDF")))
}

// ──────────────────────────────────────────────────────────────────────────────
// Traslados y precios
// ──────────────────────────────────────────────────────────────────────────────

func TestTraslados_CrearYConsultar(t *testing.T) {
	f := newAPI(t)
	f.receive(t, storeS, "10")

	resp := f.do(t, http.MethodPost, "/api/transfers", fiber.Map{
		"from_store_id": storeS, "to_store_id": storeT,
		"lines": []fiber.Map{{"variant_id": variantV, "quantity": "4"}},
	}, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	tr := decode[dto.TransferResponse](t, resp)
	require.Len(t, tr.Lines, 1)
	assert.Equal(t, "10", tr.Lines[0].FromBefore.String())
	assert.Equal(t, "6", tr.Lines[0].FromAfter.String())
	assert.Equal(t, "4", tr.Lines[0].ToAfter.String())

	resp = f.do(t, http.MethodGet, "/api/transfers/"+tr.ID, nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, tr.ID, decode[dto.TransferResponse](t, resp).ID)
}

func TestTraslados_StockInsuficienteNoEscribe(t *testing.T) {
	f := newAPI(t)
	f.receive(t, storeS, "2")

	resp := f.do(t, http.MethodPost, "/api/transfers", fiber.Map{
		"from_store_id": storeS, "to_store_id": storeT,
		"lines": []fiber.Map{{"variant_id": variantV, "quantity": "5"}},
	}, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Len(t, f.db.Movements(), 1)
}

func TestPrecios_OverrideDeTienda(t *testing.T) {
	f := newAPI(t)
	f.db.SetStorePrice(entity.StorePrice{
		TenantID: testCompanyID, StoreID: storeT, VariantID: variantV,
		UnitPrice: decimal.NewNullDecimal(decimal.RequireFromString("90")),
	})

	resp := f.do(t, http.MethodGet, "/api/prices/"+storeT+"/"+variantV, nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	p := decode[dto.EffectivePriceResponse](t, resp)
	assert.Equal(t, "90", p.UnitPrice.String())
	assert.Equal(t, "19", p.TaxPercent.String())
	assert.True(t, p.IsOverride)

	resp = f.do(t, http.MethodGet, "/api/prices/"+storeS+"/"+variantV, nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.False(t, decode[dto.EffectivePriceResponse](t, resp).IsOverride)
}
