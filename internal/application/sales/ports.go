package sales

import (
	"context"

	"github.com/jhoicas/retail-ledger/internal/application/dto"
	"github.com/jhoicas/retail-ledger/internal/application/inventory"
	"github.com/jhoicas/retail-ledger/internal/domain/entity"
	"github.com/jhoicas/retail-ledger/internal/domain/repository"
)

// TxRunner abre la única transacción de cada operación de venta.
type TxRunner interface {
	Run(ctx context.Context, fn func(uow repository.UnitOfWork) error) error
}

// StockMutator interfaz para integrar ventas con inventario.
// Ambos métodos usan la unidad de trabajo del caller; si retornan error (ej: stock insuficiente) el caller hace rollback.
type StockMutator interface {
	SellInTx(ctx context.Context, uow repository.UnitOfWork, actor entity.Actor, in inventory.SellInput) (*entity.Movement, error)
	ReturnSaleLineInTx(ctx context.Context, uow repository.UnitOfWork, actor entity.Actor, sale *entity.Sale, line *entity.SaleLine) (*entity.Movement, error)
}

// PriceResolver resuelve el precio efectivo (override de tienda, si no default de variante) en bloque.
type PriceResolver interface {
	EffectivePricesInTx(ctx context.Context, uow repository.UnitOfWork, tenantID, storeID string, variants []*entity.ProductVariant) (map[string]entity.EffectivePrice, error)
}

// ReceiptGenerator genera el comprobante PDF de una venta.
type ReceiptGenerator interface {
	GenerateSaleReceipt(ctx context.Context, sale *dto.SaleResponse) ([]byte, error)
}
