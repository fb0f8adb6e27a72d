package inventory

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/retail-ledger/internal/domain"
	"github.com/jhoicas/retail-ledger/internal/domain/entity"
	"github.com/jhoicas/retail-ledger/internal/domain/inventory"
	"github.com/jhoicas/retail-ledger/internal/domain/repository"
	"github.com/jhoicas/retail-ledger/pkg/telemetry"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/trace"
)

const (
	defaultListLimit = 50
	maxListLimit     = 500
)

// StockService registra las cuatro mutaciones primitivas del libro (IN, OUT, ADJUSTMENT, TRANSFER)
// con bloqueo de fila (SELECT FOR UPDATE) y Commit/Rollback.
// Los métodos …InTx reutilizan la unidad de trabajo del llamador y nunca abren su propia transacción.
type StockService struct {
	txRunner TxRunner
	log      zerolog.Logger
	tracer   trace.Tracer
	now      func() time.Time
}

// NewStockService construye el servicio.
func NewStockService(txRunner TxRunner, log zerolog.Logger) *StockService {
	return &StockService{
		txRunner: txRunner,
		log:      log,
		tracer:   telemetry.Tracer(),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// ReceiveInput entrada de stock (compra, devolución de cliente). Quantity > 0.
// Precio e impuesto no enviados se toman del precio de compra por defecto de la variante.
type ReceiveInput struct {
	StoreID   string
	VariantID string
	Quantity  decimal.Decimal
	Price     entity.PriceSnapshot
	Reference string
	Payload   json.RawMessage
}

// SellInput salida por venta. Quantity > 0; el movimiento se escribe con -Quantity.
type SellInput struct {
	StoreID    string
	VariantID  string
	Quantity   decimal.Decimal
	Price      entity.PriceSnapshot
	Reference  string
	SaleID     string
	SaleLineID string
	Payload    json.RawMessage
}

// AdjustInput conciliación contra un conteo físico.
type AdjustInput struct {
	StoreID        string
	VariantID      string
	TargetQuantity decimal.Decimal
	Reason         string
	Reference      string
}

// AdjustResult resultado del ajuste. Movement es nil cuando el saldo ya coincidía con el objetivo.
type AdjustResult struct {
	Previous   decimal.Decimal
	New        decimal.Decimal
	Difference decimal.Decimal
	Movement   *entity.Movement
}

// TransferInput traslado de una variante entre dos tiendas del mismo tenant.
type TransferInput struct {
	FromStoreID string
	ToStoreID   string
	VariantID   string
	Quantity    decimal.Decimal
	Reference   string
	Payload     json.RawMessage
}

// TransferResult par ordenado [salida, entrada] que comparte la misma referencia.
type TransferResult struct {
	Out *entity.Movement
	In  *entity.Movement
}

// MovementQuery filtros del historial de movimientos (store y variant opcionales).
type MovementQuery struct {
	StoreID   string
	VariantID string
	Limit     int
	Offset    int
}

type adjustPayload struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Reason string `json:"reason,omitempty"`
}

// SaleReturnReference referencia de la devolución compensatoria de una línea de venta.
func SaleReturnReference(saleID, lineID string) string {
	return "SALE-RETURN:" + saleID + ":" + lineID
}

// ─── Operaciones con transacción propia ──────────────────────────────────────

// Receive registra una entrada en su propia transacción.
func (s *StockService) Receive(ctx context.Context, actor entity.Actor, in ReceiveInput) (mov *entity.Movement, err error) {
	ctx, span := s.tracer.Start(ctx, "inventory.Receive")
	defer func() { telemetry.End(span, err) }()

	err = s.txRunner.Run(ctx, func(uow repository.UnitOfWork) error {
		var txErr error
		mov, txErr = s.ReceiveInTx(ctx, uow, actor, in)
		return txErr
	})
	if err != nil {
		return nil, err
	}
	s.logMovement(mov)
	return mov, nil
}

// Sell registra una salida en su propia transacción.
func (s *StockService) Sell(ctx context.Context, actor entity.Actor, in SellInput) (mov *entity.Movement, err error) {
	ctx, span := s.tracer.Start(ctx, "inventory.Sell")
	defer func() { telemetry.End(span, err) }()

	err = s.txRunner.Run(ctx, func(uow repository.UnitOfWork) error {
		var txErr error
		mov, txErr = s.SellInTx(ctx, uow, actor, in)
		return txErr
	})
	if err != nil {
		return nil, err
	}
	s.logMovement(mov)
	return mov, nil
}

// Adjust concilia el saldo contra TargetQuantity en su propia transacción.
func (s *StockService) Adjust(ctx context.Context, actor entity.Actor, in AdjustInput) (res *AdjustResult, err error) {
	ctx, span := s.tracer.Start(ctx, "inventory.Adjust")
	defer func() { telemetry.End(span, err) }()

	err = s.txRunner.Run(ctx, func(uow repository.UnitOfWork) error {
		var txErr error
		res, txErr = s.AdjustInTx(ctx, uow, actor, in)
		return txErr
	})
	if err != nil {
		return nil, err
	}
	if res.Movement != nil {
		s.logMovement(res.Movement)
	}
	return res, nil
}

// Transfer traslada stock entre tiendas en su propia transacción.
func (s *StockService) Transfer(ctx context.Context, actor entity.Actor, in TransferInput) (res *TransferResult, err error) {
	ctx, span := s.tracer.Start(ctx, "inventory.Transfer")
	defer func() { telemetry.End(span, err) }()

	err = s.txRunner.Run(ctx, func(uow repository.UnitOfWork) error {
		var txErr error
		res, txErr = s.TransferInTx(ctx, uow, actor, in)
		return txErr
	})
	if err != nil {
		return nil, err
	}
	s.logMovement(res.Out)
	s.logMovement(res.In)
	return res, nil
}

// ─── Operaciones dentro de la transacción del llamador ───────────────────────

// ReceiveInTx registra una entrada (IN) usando la unidad de trabajo del llamador.
func (s *StockService) ReceiveInTx(ctx context.Context, uow repository.UnitOfWork, actor entity.Actor, in ReceiveInput) (*entity.Movement, error) {
	if err := actor.Validate(); err != nil {
		return nil, err
	}
	if !inventory.ValidQuantity(in.Quantity) {
		return nil, domain.ErrInvalidQuantity
	}
	_, variant, err := s.resolve(ctx, uow, actor.TenantID, in.StoreID, in.VariantID)
	if err != nil {
		return nil, err
	}
	key := entity.BalanceKey{TenantID: actor.TenantID, StoreID: in.StoreID, VariantID: in.VariantID}
	if err := uow.Balances().Lock(ctx, key); err != nil {
		return nil, err
	}

	price := in.Price
	price.UnitPrice = inventory.ResolveEffective(price.UnitPrice, variant.PurchasePrice)
	price.TaxPercent = inventory.ResolveEffective(price.TaxPercent, variant.PurchaseTaxPercent)
	if price.UnitPrice.Valid {
		if price, err = completeSnapshot(price, in.Quantity, variant.Currency); err != nil {
			return nil, err
		}
	}

	mov := s.newMovement(actor, key, entity.MovementTypeIN, in.Quantity)
	mov.Price = price
	mov.Reference = in.Reference
	mov.Payload = in.Payload
	if err := uow.Movements().Append(ctx, mov); err != nil {
		return nil, err
	}
	return mov, nil
}

// SellInTx verifica saldo >= cantidad con la fila bloqueada y registra la salida (OUT).
// Es el punto de integración venta-inventario: la venta llama una vez por línea.
func (s *StockService) SellInTx(ctx context.Context, uow repository.UnitOfWork, actor entity.Actor, in SellInput) (*entity.Movement, error) {
	if err := actor.Validate(); err != nil {
		return nil, err
	}
	if !inventory.ValidQuantity(in.Quantity) {
		return nil, domain.ErrInvalidQuantity
	}
	if _, _, err := s.resolve(ctx, uow, actor.TenantID, in.StoreID, in.VariantID); err != nil {
		return nil, err
	}
	key := entity.BalanceKey{TenantID: actor.TenantID, StoreID: in.StoreID, VariantID: in.VariantID}
	if err := uow.Balances().Lock(ctx, key); err != nil {
		return nil, err
	}
	current, err := uow.Balances().Balance(ctx, key)
	if err != nil {
		return nil, err
	}
	if current.LessThan(in.Quantity) {
		return nil, &domain.InsufficientStockError{
			StoreID:   in.StoreID,
			VariantID: in.VariantID,
			Current:   current,
			Requested: in.Quantity,
		}
	}

	mov := s.newMovement(actor, key, entity.MovementTypeOUT, in.Quantity.Neg())
	mov.Price = in.Price
	mov.Reference = in.Reference
	mov.SaleID = in.SaleID
	mov.SaleLineID = in.SaleLineID
	mov.Payload = in.Payload
	if err := uow.Movements().Append(ctx, mov); err != nil {
		return nil, err
	}
	return mov, nil
}

// AdjustInTx calcula diff = objetivo − actual y escribe un ADJUSTMENT solo si diff != 0.
// Los ajustes no llevan precio; el payload guarda {from, to, reason} para auditoría.
func (s *StockService) AdjustInTx(ctx context.Context, uow repository.UnitOfWork, actor entity.Actor, in AdjustInput) (*AdjustResult, error) {
	if err := actor.Validate(); err != nil {
		return nil, err
	}
	if in.TargetQuantity.IsNegative() || !inventory.ValidScale(in.TargetQuantity) {
		return nil, domain.ErrInvalidQuantity
	}
	if _, _, err := s.resolve(ctx, uow, actor.TenantID, in.StoreID, in.VariantID); err != nil {
		return nil, err
	}
	key := entity.BalanceKey{TenantID: actor.TenantID, StoreID: in.StoreID, VariantID: in.VariantID}
	if err := uow.Balances().Lock(ctx, key); err != nil {
		return nil, err
	}
	current, err := uow.Balances().Balance(ctx, key)
	if err != nil {
		return nil, err
	}

	diff := in.TargetQuantity.Sub(current)
	if diff.IsZero() {
		return &AdjustResult{Previous: current, New: current, Difference: decimal.Zero}, nil
	}

	payload, err := json.Marshal(adjustPayload{From: current.String(), To: in.TargetQuantity.String(), Reason: in.Reason})
	if err != nil {
		return nil, fmt.Errorf("adjust payload: %w", err)
	}
	mov := s.newMovement(actor, key, entity.MovementTypeADJUSTMENT, diff)
	mov.Reference = in.Reference
	mov.Payload = payload
	if err := uow.Movements().Append(ctx, mov); err != nil {
		return nil, err
	}
	return &AdjustResult{Previous: current, New: in.TargetQuantity, Difference: diff, Movement: mov}, nil
}

// TransferInTx verifica el saldo de origen y escribe TRANSFER_OUT (-q) y TRANSFER_IN (+q) con la misma referencia.
func (s *StockService) TransferInTx(ctx context.Context, uow repository.UnitOfWork, actor entity.Actor, in TransferInput) (*TransferResult, error) {
	if err := actor.Validate(); err != nil {
		return nil, err
	}
	if in.FromStoreID == in.ToStoreID {
		return nil, domain.ErrSameSourceAndTarget
	}
	if !inventory.ValidQuantity(in.Quantity) {
		return nil, domain.ErrInvalidQuantity
	}
	if _, _, err := s.resolve(ctx, uow, actor.TenantID, in.FromStoreID, in.VariantID); err != nil {
		return nil, err
	}
	if err := s.resolveStore(ctx, uow, actor.TenantID, in.ToStoreID); err != nil {
		return nil, err
	}

	fromKey := entity.BalanceKey{TenantID: actor.TenantID, StoreID: in.FromStoreID, VariantID: in.VariantID}
	toKey := entity.BalanceKey{TenantID: actor.TenantID, StoreID: in.ToStoreID, VariantID: in.VariantID}
	if err := uow.Balances().Lock(ctx, fromKey, toKey); err != nil {
		return nil, err
	}
	current, err := uow.Balances().Balance(ctx, fromKey)
	if err != nil {
		return nil, err
	}
	if current.LessThan(in.Quantity) {
		return nil, &domain.InsufficientStockError{
			StoreID:   in.FromStoreID,
			VariantID: in.VariantID,
			Current:   current,
			Requested: in.Quantity,
		}
	}

	ref := in.Reference
	if ref == "" {
		ref = "TRANSFER:" + uuid.New().String()
	}
	out := s.newMovement(actor, fromKey, entity.MovementTypeTransferOUT, in.Quantity.Neg())
	out.Reference = ref
	out.Payload = in.Payload
	if err := uow.Movements().Append(ctx, out); err != nil {
		return nil, err
	}
	inMov := s.newMovement(actor, toKey, entity.MovementTypeTransferIN, in.Quantity)
	inMov.Reference = ref
	inMov.Payload = in.Payload
	if err := uow.Movements().Append(ctx, inMov); err != nil {
		return nil, err
	}
	return &TransferResult{Out: out, In: inMov}, nil
}

// ReturnSaleLineInTx devolución compensatoria: IN por la cantidad de la línea con su precio original.
// El historial nunca se edita; la reversa queda enlazada a la venta y a la línea.
func (s *StockService) ReturnSaleLineInTx(ctx context.Context, uow repository.UnitOfWork, actor entity.Actor, sale *entity.Sale, line *entity.SaleLine) (*entity.Movement, error) {
	if err := actor.Validate(); err != nil {
		return nil, err
	}
	if sale.TenantID != actor.TenantID || line.SaleID != sale.ID {
		return nil, domain.NewNotFound("sale", sale.ID)
	}
	key := entity.BalanceKey{TenantID: actor.TenantID, StoreID: sale.StoreID, VariantID: line.VariantID}
	if err := uow.Balances().Lock(ctx, key); err != nil {
		return nil, err
	}
	mov := s.newMovement(actor, key, entity.MovementTypeIN, line.Quantity)
	mov.Price = line.PriceSnapshot()
	mov.Reference = SaleReturnReference(sale.ID, line.ID)
	mov.SaleID = sale.ID
	mov.SaleLineID = line.ID
	if err := uow.Movements().Append(ctx, mov); err != nil {
		return nil, err
	}
	return mov, nil
}

// ─── Lecturas ────────────────────────────────────────────────────────────────

// Balance saldo actual de (tienda, variante) del tenant.
func (s *StockService) Balance(ctx context.Context, actor entity.Actor, storeID, variantID string) (qty decimal.Decimal, err error) {
	ctx, span := s.tracer.Start(ctx, "inventory.Balance")
	defer func() { telemetry.End(span, err) }()

	if err = actor.Validate(); err != nil {
		return decimal.Zero, err
	}
	err = s.txRunner.Run(ctx, func(uow repository.UnitOfWork) error {
		if _, _, err := s.resolve(ctx, uow, actor.TenantID, storeID, variantID); err != nil {
			return err
		}
		var txErr error
		qty, txErr = uow.Balances().Balance(ctx, entity.BalanceKey{TenantID: actor.TenantID, StoreID: storeID, VariantID: variantID})
		return txErr
	})
	return qty, err
}

// BalanceByStore saldos por variante de una tienda.
func (s *StockService) BalanceByStore(ctx context.Context, actor entity.Actor, storeID string) (out []entity.VariantBalance, err error) {
	if err = actor.Validate(); err != nil {
		return nil, err
	}
	err = s.txRunner.Run(ctx, func(uow repository.UnitOfWork) error {
		if err := s.resolveStore(ctx, uow, actor.TenantID, storeID); err != nil {
			return err
		}
		var txErr error
		out, txErr = uow.Balances().BalanceByStore(ctx, actor.TenantID, storeID)
		return txErr
	})
	return out, err
}

// BalanceByVariant saldos por tienda de una variante.
func (s *StockService) BalanceByVariant(ctx context.Context, actor entity.Actor, variantID string) (out []entity.StoreBalance, err error) {
	if err = actor.Validate(); err != nil {
		return nil, err
	}
	err = s.txRunner.Run(ctx, func(uow repository.UnitOfWork) error {
		v, err := uow.Variants().GetByID(ctx, actor.TenantID, variantID)
		if err != nil {
			return err
		}
		if v == nil {
			return domain.NewNotFound("variant", variantID)
		}
		var txErr error
		out, txErr = uow.Balances().BalanceByVariant(ctx, actor.TenantID, variantID)
		return txErr
	})
	return out, err
}

// BalanceByTenant saldos por variante sumando todas las tiendas del tenant.
func (s *StockService) BalanceByTenant(ctx context.Context, actor entity.Actor) (out []entity.VariantBalance, err error) {
	if err = actor.Validate(); err != nil {
		return nil, err
	}
	err = s.txRunner.Run(ctx, func(uow repository.UnitOfWork) error {
		var txErr error
		out, txErr = uow.Balances().BalanceByTenant(ctx, actor.TenantID)
		return txErr
	})
	return out, err
}

// ListMovements historial del libro, más recientes primero.
func (s *StockService) ListMovements(ctx context.Context, actor entity.Actor, q MovementQuery) (out []*entity.Movement, err error) {
	if err = actor.Validate(); err != nil {
		return nil, err
	}
	limit := q.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	offset := q.Offset
	if offset < 0 {
		offset = 0
	}
	err = s.txRunner.Run(ctx, func(uow repository.UnitOfWork) error {
		if q.StoreID != "" {
			if err := s.resolveStore(ctx, uow, actor.TenantID, q.StoreID); err != nil {
				return err
			}
		}
		var txErr error
		out, txErr = uow.Movements().List(ctx, repository.MovementFilter{
			TenantID:  actor.TenantID,
			StoreID:   q.StoreID,
			VariantID: q.VariantID,
		}, limit, offset)
		return txErr
	})
	return out, err
}

// GetMovement un movimiento del libro por id.
func (s *StockService) GetMovement(ctx context.Context, actor entity.Actor, id string) (mov *entity.Movement, err error) {
	if err = actor.Validate(); err != nil {
		return nil, err
	}
	err = s.txRunner.Run(ctx, func(uow repository.UnitOfWork) error {
		var txErr error
		mov, txErr = uow.Movements().GetByID(ctx, actor.TenantID, id)
		if txErr != nil {
			return txErr
		}
		if mov == nil {
			return domain.NewNotFound("movement", id)
		}
		return nil
	})
	return mov, err
}

// ─── Auxiliares ──────────────────────────────────────────────────────────────

// resolve valida que tienda y variante existan y pertenezcan al tenant.
func (s *StockService) resolve(ctx context.Context, uow repository.UnitOfWork, tenantID, storeID, variantID string) (*entity.Store, *entity.ProductVariant, error) {
	store, err := uow.Stores().GetByID(ctx, tenantID, storeID)
	if err != nil {
		return nil, nil, err
	}
	if store == nil || store.TenantID != tenantID {
		return nil, nil, domain.NewNotFound("store", storeID)
	}
	variant, err := uow.Variants().GetByID(ctx, tenantID, variantID)
	if err != nil {
		return nil, nil, err
	}
	if variant == nil || variant.TenantID != tenantID {
		return nil, nil, domain.NewNotFound("variant", variantID)
	}
	return store, variant, nil
}

func (s *StockService) resolveStore(ctx context.Context, uow repository.UnitOfWork, tenantID, storeID string) error {
	store, err := uow.Stores().GetByID(ctx, tenantID, storeID)
	if err != nil {
		return err
	}
	if store == nil || store.TenantID != tenantID {
		return domain.NewNotFound("store", storeID)
	}
	return nil
}

func (s *StockService) newMovement(actor entity.Actor, key entity.BalanceKey, typ string, qty decimal.Decimal) *entity.Movement {
	now := s.now()
	return &entity.Movement{
		ID:        uuid.New().String(),
		TenantID:  key.TenantID,
		StoreID:   key.StoreID,
		VariantID: key.VariantID,
		Type:      typ,
		Quantity:  qty,
		CreatedAt: now,
		UpdatedAt: now,
		CreatedBy: actor.UserID,
		UpdatedBy: actor.UserID,
	}
}

func (s *StockService) logMovement(m *entity.Movement) {
	s.log.Debug().
		Str("tenant_id", m.TenantID).
		Str("store_id", m.StoreID).
		Str("variant_id", m.VariantID).
		Str("movement_id", m.ID).
		Str("type", m.Type).
		Str("quantity", m.Quantity.String()).
		Msg("movimiento registrado")
}

// completeSnapshot fija moneda y total de línea de una entrada con precio.
func completeSnapshot(p entity.PriceSnapshot, qty decimal.Decimal, defaultCurrency string) (entity.PriceSnapshot, error) {
	cur := inventory.ResolveEffectiveString(p.Currency, &defaultCurrency)
	if cur != nil {
		code, err := inventory.NormalizeCurrency(*cur)
		if err != nil {
			return p, err
		}
		p.Currency = &code
	}
	if !p.LineTotal.Valid {
		amounts := inventory.CalculateLine(inventory.LineInput{
			Quantity:        qty,
			UnitPrice:       p.UnitPrice.Decimal,
			DiscountPercent: p.DiscountPercent,
			DiscountAmount:  p.DiscountAmount,
			TaxPercent:      p.TaxPercent,
			TaxAmount:       p.TaxAmount,
		})
		p.TaxAmount = decimal.NewNullDecimal(amounts.Tax)
		p.LineTotal = decimal.NewNullDecimal(amounts.Total)
	}
	return p, nil
}
