package transfers_test

import (
	"context"
	"testing"

	"github.com/jhoicas/retail-ledger/internal/application/dto"
	"github.com/jhoicas/retail-ledger/internal/application/inventory"
	"github.com/jhoicas/retail-ledger/internal/application/transfers"
	"github.com/jhoicas/retail-ledger/internal/domain"
	"github.com/jhoicas/retail-ledger/internal/domain/entity"
	"github.com/jhoicas/retail-ledger/internal/infrastructure/memory"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var actor = entity.Actor{TenantID: "t1", UserID: "bodeguero-1"}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

type fixture struct {
	db        *memory.DB
	stock     *inventory.StockService
	transfers *transfers.TransferService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := memory.NewDB()
	db.AddStore(entity.Store{ID: "s", TenantID: "t1", Name: "Centro"})
	db.AddStore(entity.Store{ID: "t", TenantID: "t1", Name: "Norte"})
	db.AddVariant(entity.ProductVariant{ID: "v", TenantID: "t1", Currency: "COP", SalePrice: dec("10")})
	db.AddVariant(entity.ProductVariant{ID: "w", TenantID: "t1", Currency: "COP", SalePrice: dec("20")})
	runner := memory.NewTxRunner(db)
	stock := inventory.NewStockService(runner, zerolog.Nop())
	f := &fixture{db: db, stock: stock, transfers: transfers.NewTransferService(runner, stock, zerolog.Nop())}

	for _, v := range []string{"v", "w"} {
		_, err := stock.Receive(context.Background(), actor, inventory.ReceiveInput{StoreID: "s", VariantID: v, Quantity: dec("10")})
		require.NoError(t, err)
	}
	_, err := stock.Receive(context.Background(), actor, inventory.ReceiveInput{StoreID: "t", VariantID: "v", Quantity: dec("2")})
	require.NoError(t, err)
	return f
}

func (f *fixture) balance(t *testing.T, store, variant string) decimal.Decimal {
	t.Helper()
	q, err := f.stock.Balance(context.Background(), actor, store, variant)
	require.NoError(t, err)
	return q
}

func TestCreateAndExecuteTransfer_SnapshotsAntesDespues(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	resp, err := f.transfers.CreateAndExecuteTransfer(ctx, actor, dto.CreateTransferRequest{
		FromStoreID: "s", ToStoreID: "t", Note: "reposición",
		Lines: []dto.TransferLineRequest{
			{VariantID: "v", Quantity: dec("4")},
			{VariantID: "v", Quantity: dec("1")},
			{VariantID: "w", Quantity: dec("3")},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, entity.TransferStatusCompleted, resp.Status)
	require.Len(t, resp.Lines, 3)

	first, second := resp.Lines[0], resp.Lines[1]
	assert.True(t, first.FromBefore.Equal(dec("10")))
	assert.True(t, first.FromAfter.Equal(dec("6")))
	assert.True(t, first.ToBefore.Equal(dec("2")))
	assert.True(t, first.ToAfter.Equal(dec("6")))
	assert.True(t, second.FromBefore.Equal(first.FromAfter), "la segunda línea parte del saldo que dejó la primera")
	assert.True(t, second.ToAfter.Equal(dec("7")))

	assert.True(t, f.balance(t, "s", "v").Equal(dec("5")))
	assert.True(t, f.balance(t, "t", "v").Equal(dec("7")))
	assert.True(t, f.balance(t, "s", "w").Equal(dec("7")))
	assert.True(t, f.balance(t, "t", "w").Equal(dec("3")))

	var linked int
	for _, m := range f.db.Movements() {
		if m.Reference == resp.Reference {
			linked++
		}
	}
	assert.Equal(t, 6, linked, "dos movimientos por línea con la referencia del traslado")

	got, err := f.transfers.GetTransfer(ctx, actor, resp.ID)
	require.NoError(t, err)
	assert.Equal(t, resp.Reference, got.Reference)
	assert.Len(t, got.Lines, 3)
}

func TestCreateAndExecuteTransfer_FaltanteEnLineaKRevierteTodo(t *testing.T) {
	f := newFixture(t)
	before := len(f.db.Movements())

	_, err := f.transfers.CreateAndExecuteTransfer(context.Background(), actor, dto.CreateTransferRequest{
		FromStoreID: "s", ToStoreID: "t",
		Lines: []dto.TransferLineRequest{
			{VariantID: "v", Quantity: dec("4")},
			{VariantID: "w", Quantity: dec("11")},
		},
	})
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.Len(t, f.db.Movements(), before)
	assert.True(t, f.balance(t, "s", "v").Equal(dec("10")))
	assert.True(t, f.balance(t, "t", "v").Equal(dec("2")))
}

func TestCreateAndExecuteTransfer_Validaciones(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.transfers.CreateAndExecuteTransfer(ctx, actor, dto.CreateTransferRequest{FromStoreID: "s", ToStoreID: "s", Lines: []dto.TransferLineRequest{{VariantID: "v", Quantity: dec("1")}}})
	assert.ErrorIs(t, err, domain.ErrSameSourceAndTarget)

	_, err = f.transfers.CreateAndExecuteTransfer(ctx, actor, dto.CreateTransferRequest{FromStoreID: "s", ToStoreID: "t"})
	assert.ErrorIs(t, err, domain.ErrMustHaveLines)

	_, err = f.transfers.CreateAndExecuteTransfer(ctx, actor, dto.CreateTransferRequest{FromStoreID: "s", ToStoreID: "t", Lines: []dto.TransferLineRequest{{VariantID: "v", Quantity: dec("0")}}})
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)

	_, err = f.transfers.CreateAndExecuteTransfer(ctx, actor, dto.CreateTransferRequest{FromStoreID: "s", ToStoreID: "t", Lines: []dto.TransferLineRequest{{VariantID: "v", Quantity: dec("0.00001")}}})
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)

	_, err = f.transfers.CreateAndExecuteTransfer(ctx, actor, dto.CreateTransferRequest{FromStoreID: "s", ToStoreID: "x", Lines: []dto.TransferLineRequest{{VariantID: "v", Quantity: dec("1")}}})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.transfers.CreateAndExecuteTransfer(ctx, actor, dto.CreateTransferRequest{FromStoreID: "s", ToStoreID: "t", Lines: []dto.TransferLineRequest{{VariantID: "zz", Quantity: dec("1")}}})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestGetTransfer_OtroTenant(t *testing.T) {
	f := newFixture(t)
	resp, err := f.transfers.CreateAndExecuteTransfer(context.Background(), actor, dto.CreateTransferRequest{
		FromStoreID: "s", ToStoreID: "t",
		Lines: []dto.TransferLineRequest{{VariantID: "v", Quantity: dec("1")}},
	})
	require.NoError(t, err)

	_, err = f.transfers.GetTransfer(context.Background(), entity.Actor{TenantID: "t2", UserID: "u"}, resp.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
