package sales

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/retail-ledger/internal/application/dto"
	"github.com/jhoicas/retail-ledger/internal/application/inventory"
	"github.com/jhoicas/retail-ledger/internal/domain"
	"github.com/jhoicas/retail-ledger/internal/domain/entity"
	domaininv "github.com/jhoicas/retail-ledger/internal/domain/inventory"
	"github.com/jhoicas/retail-ledger/internal/domain/repository"
	"github.com/jhoicas/retail-ledger/pkg/telemetry"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// SaleService crea, edita y cancela ventas. Cada línea descuenta inventario en la misma transacción
// que la cabecera; ediciones y cancelaciones devuelven stock con movimientos compensatorios.
type SaleService struct {
	txRunner TxRunner
	stock    StockMutator
	prices   PriceResolver
	log      zerolog.Logger
	tracer   trace.Tracer
	now      func() time.Time
}

// NewSaleService construye el servicio.
func NewSaleService(txRunner TxRunner, stock StockMutator, prices PriceResolver, log zerolog.Logger) *SaleService {
	return &SaleService{
		txRunner: txRunner,
		stock:    stock,
		prices:   prices,
		log:      log,
		tracer:   telemetry.Tracer(),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// CreateSale crea la venta directamente CONFIRMED, con sus líneas y una salida de inventario por línea.
func (s *SaleService) CreateSale(ctx context.Context, actor entity.Actor, in dto.CreateSaleRequest) (resp *dto.SaleResponse, err error) {
	ctx, span := s.tracer.Start(ctx, "sales.CreateSale", trace.WithAttributes(attribute.Int("sale.lines", len(in.Lines))))
	defer func() { telemetry.End(span, err) }()

	if err = actor.Validate(); err != nil {
		return nil, err
	}
	if err = validateLines(in.Lines); err != nil {
		return nil, err
	}
	metadata, err := mergeMetadata(nil, in.Metadata)
	if err != nil {
		return nil, err
	}

	err = s.txRunner.Run(ctx, func(uow repository.UnitOfWork) error {
		store, err := uow.Stores().GetByID(ctx, actor.TenantID, in.StoreID)
		if err != nil {
			return err
		}
		if store == nil {
			return domain.NewNotFound("store", in.StoreID)
		}

		now := s.now()
		sale := &entity.Sale{
			ID:        uuid.New().String(),
			TenantID:  actor.TenantID,
			StoreID:   store.ID,
			Status:    entity.SaleStatusConfirmed,
			Metadata:  metadata,
			CreatedAt: now,
			UpdatedAt: now,
			CreatedBy: actor.UserID,
			UpdatedBy: actor.UserID,
		}
		applyCustomer(sale, in.Customer)

		// La cabecera va primero: líneas y movimientos la referencian.
		if err := uow.Sales().Create(ctx, sale); err != nil {
			return err
		}
		if err := s.writeLines(ctx, uow, actor, sale, in.Lines); err != nil {
			return err
		}
		if err := uow.Sales().Update(ctx, sale); err != nil {
			return err
		}
		resp, err = s.load(ctx, uow, sale)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.log.Info().
		Str("tenant_id", actor.TenantID).
		Str("store_id", resp.StoreID).
		Str("sale_id", resp.ID).
		Int("lines", len(resp.Lines)).
		Str("line_total", resp.LineTotal.String()).
		Msg("venta creada")
	return resp, nil
}

// UpdateSale parchea cliente y metadata. Si trae líneas, reversa todas las existentes
// (devolución compensatoria), las borra y procesa el nuevo conjunto igual que CreateSale.
func (s *SaleService) UpdateSale(ctx context.Context, actor entity.Actor, saleID string, in dto.UpdateSaleRequest) (resp *dto.SaleResponse, err error) {
	ctx, span := s.tracer.Start(ctx, "sales.UpdateSale", trace.WithAttributes(attribute.String("sale.id", saleID)))
	defer func() { telemetry.End(span, err) }()

	if err = actor.Validate(); err != nil {
		return nil, err
	}
	if in.Lines != nil {
		if err = validateLines(*in.Lines); err != nil {
			return nil, err
		}
	}

	err = s.txRunner.Run(ctx, func(uow repository.UnitOfWork) error {
		sale, err := s.lockSale(ctx, uow, actor.TenantID, saleID)
		if err != nil {
			return err
		}
		if sale.IsCancelled() {
			return domain.ErrAlreadyCancelled
		}

		if in.Lines != nil {
			if err := s.reverseLines(ctx, uow, actor, sale); err != nil {
				return err
			}
			if err := uow.Sales().DeleteLines(ctx, actor.TenantID, sale.ID); err != nil {
				return err
			}
			if err := s.writeLines(ctx, uow, actor, sale, *in.Lines); err != nil {
				return err
			}
		}
		if in.Customer != nil {
			applyCustomer(sale, *in.Customer)
		}
		merged, err := mergeMetadata(sale.Metadata, in.Metadata)
		if err != nil {
			return err
		}
		sale.Metadata = merged
		sale.UpdatedAt = s.now()
		sale.UpdatedBy = actor.UserID
		if err := uow.Sales().Update(ctx, sale); err != nil {
			return err
		}
		resp, err = s.load(ctx, uow, sale)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.log.Info().
		Str("tenant_id", actor.TenantID).
		Str("sale_id", saleID).
		Bool("lines_replaced", in.Lines != nil).
		Msg("venta actualizada")
	return resp, nil
}

// CancelSale pasa CONFIRMED → CANCELLED devolviendo el stock de cada línea.
// El motivo se fusiona en la metadata existente bajo la llave "cancellation".
func (s *SaleService) CancelSale(ctx context.Context, actor entity.Actor, saleID, reason string) (resp *dto.SaleResponse, err error) {
	ctx, span := s.tracer.Start(ctx, "sales.CancelSale", trace.WithAttributes(attribute.String("sale.id", saleID)))
	defer func() { telemetry.End(span, err) }()

	if err = actor.Validate(); err != nil {
		return nil, err
	}

	err = s.txRunner.Run(ctx, func(uow repository.UnitOfWork) error {
		sale, err := s.lockSale(ctx, uow, actor.TenantID, saleID)
		if err != nil {
			return err
		}
		if sale.IsCancelled() {
			return domain.ErrAlreadyCancelled
		}
		if sale.Status != entity.SaleStatusConfirmed {
			return domain.ErrNotCancellable
		}
		if err := s.reverseLines(ctx, uow, actor, sale); err != nil {
			return err
		}

		now := s.now()
		cancellation, err := json.Marshal(map[string]any{
			"cancellation": map[string]string{
				"reason":       reason,
				"cancelled_by": actor.UserID,
				"cancelled_at": now.Format(time.RFC3339),
			},
		})
		if err != nil {
			return fmt.Errorf("cancellation metadata: %w", err)
		}
		merged, err := mergeMetadata(sale.Metadata, cancellation)
		if err != nil {
			return err
		}
		sale.Status = entity.SaleStatusCancelled
		sale.CancelledAt = &now
		sale.CancelledBy = actor.UserID
		sale.Metadata = merged
		sale.UpdatedAt = now
		sale.UpdatedBy = actor.UserID
		if err := uow.Sales().Update(ctx, sale); err != nil {
			return err
		}
		resp, err = s.load(ctx, uow, sale)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.log.Info().
		Str("tenant_id", actor.TenantID).
		Str("sale_id", saleID).
		Str("reason", reason).
		Msg("venta cancelada")
	return resp, nil
}

// GetSale representación estable de la venta con tienda, líneas e identidad de variante/producto.
func (s *SaleService) GetSale(ctx context.Context, actor entity.Actor, saleID string) (resp *dto.SaleResponse, err error) {
	if err = actor.Validate(); err != nil {
		return nil, err
	}
	err = s.txRunner.Run(ctx, func(uow repository.UnitOfWork) error {
		sale, err := uow.Sales().GetByID(ctx, actor.TenantID, saleID)
		if err != nil {
			return err
		}
		if sale == nil {
			return domain.NewNotFound("sale", saleID)
		}
		resp, err = s.load(ctx, uow, sale)
		return err
	})
	return resp, err
}

// SaleMovements rastro del libro de la venta: salidas y devoluciones compensatorias en orden cronológico.
func (s *SaleService) SaleMovements(ctx context.Context, actor entity.Actor, saleID string) (out []*entity.Movement, err error) {
	if err = actor.Validate(); err != nil {
		return nil, err
	}
	err = s.txRunner.Run(ctx, func(uow repository.UnitOfWork) error {
		sale, err := uow.Sales().GetByID(ctx, actor.TenantID, saleID)
		if err != nil {
			return err
		}
		if sale == nil {
			return domain.NewNotFound("sale", saleID)
		}
		out, err = uow.Movements().ListBySale(ctx, actor.TenantID, saleID)
		return err
	})
	return out, err
}

// ─── Líneas ──────────────────────────────────────────────────────────────────

// writeLines resuelve variantes en bloque (todo o nada), resuelve precios, calcula montos,
// persiste cada línea y ejecuta una venta de inventario por línea. Actualiza los totales de la cabecera.
func (s *SaleService) writeLines(ctx context.Context, uow repository.UnitOfWork, actor entity.Actor, sale *entity.Sale, lines []dto.SaleLineRequest) error {
	ids := make([]string, 0, len(lines))
	seen := make(map[string]bool, len(lines))
	for _, l := range lines {
		if !seen[l.VariantID] {
			seen[l.VariantID] = true
			ids = append(ids, l.VariantID)
		}
	}
	variants, err := uow.Variants().GetByIDs(ctx, actor.TenantID, ids)
	if err != nil {
		return err
	}
	byID := make(map[string]*entity.ProductVariant, len(variants))
	for _, v := range variants {
		if v.TenantID == actor.TenantID {
			byID[v.ID] = v
		}
	}
	var missing []string
	for _, id := range ids {
		if byID[id] == nil {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		return &domain.VariantNotFoundError{IDs: missing}
	}

	prices, err := s.prices.EffectivePricesInTx(ctx, uow, actor.TenantID, sale.StoreID, variants)
	if err != nil {
		return err
	}

	keys := make([]entity.BalanceKey, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, entity.BalanceKey{TenantID: actor.TenantID, StoreID: sale.StoreID, VariantID: id})
	}
	if err := uow.Balances().Lock(ctx, keys...); err != nil {
		return err
	}

	unitPriceTotal, lineTotal := decimal.Zero, decimal.Zero
	currencies := map[string]struct{}{}
	var currency string
	now := s.now()
	for _, req := range lines {
		line, err := buildLine(sale, req, prices[req.VariantID], now)
		if err != nil {
			return err
		}
		if err := uow.Sales().CreateLine(ctx, line); err != nil {
			return err
		}
		if _, err := s.stock.SellInTx(ctx, uow, actor, inventory.SellInput{
			StoreID:    sale.StoreID,
			VariantID:  line.VariantID,
			Quantity:   line.Quantity,
			Price:      line.PriceSnapshot(),
			Reference:  "SALE:" + sale.ID,
			SaleID:     sale.ID,
			SaleLineID: line.ID,
		}); err != nil {
			return err
		}
		unitPriceTotal = unitPriceTotal.Add(line.NetAmount)
		lineTotal = lineTotal.Add(line.LineTotal)
		currencies[line.Currency] = struct{}{}
		currency = line.Currency
	}

	sale.UnitPriceTotal = unitPriceTotal
	sale.LineTotal = lineTotal
	sale.Currency = nil
	if len(currencies) == 1 {
		sale.Currency = &currency
	}
	return nil
}

// buildLine valor explícito del llamador, si no el precio efectivo de la tienda, campo a campo.
func buildLine(sale *entity.Sale, req dto.SaleLineRequest, eff entity.EffectivePrice, now time.Time) (*entity.SaleLine, error) {
	unitPrice := domaininv.ResolveEffective(req.UnitPrice, decimal.NewNullDecimal(eff.UnitPrice)).Decimal
	if unitPrice.IsNegative() {
		return nil, fmt.Errorf("%w: precio unitario negativo", domain.ErrInvalidInput)
	}
	code := domaininv.ResolveEffectiveString(req.Currency, &eff.Currency)
	if code == nil {
		return nil, fmt.Errorf("%w: variante %s sin moneda", domain.ErrInvalidCurrency, req.VariantID)
	}
	currency, err := domaininv.NormalizeCurrency(*code)
	if err != nil {
		return nil, err
	}
	discountPct := domaininv.ResolveEffective(req.DiscountPercent, decimal.NewNullDecimal(eff.DiscountPercent))
	taxPct := domaininv.ResolveEffective(req.TaxPercent, decimal.NewNullDecimal(eff.TaxPercent))

	amounts := domaininv.CalculateLine(domaininv.LineInput{
		Quantity:        req.Quantity,
		UnitPrice:       unitPrice,
		DiscountPercent: discountPct,
		DiscountAmount:  req.DiscountAmount,
		TaxPercent:      taxPct,
		TaxAmount:       req.TaxAmount,
	})
	return &entity.SaleLine{
		ID:              uuid.New().String(),
		SaleID:          sale.ID,
		TenantID:        sale.TenantID,
		VariantID:       req.VariantID,
		Quantity:        req.Quantity,
		Currency:        currency,
		UnitPrice:       unitPrice,
		DiscountPercent: discountPct,
		DiscountAmount:  amounts.Discount,
		TaxPercent:      taxPct,
		TaxAmount:       amounts.Tax,
		CampaignCode:    req.CampaignCode,
		NetAmount:       amounts.Net,
		LineTotal:       amounts.Total,
		CreatedAt:       now,
	}, nil
}

func (s *SaleService) reverseLines(ctx context.Context, uow repository.UnitOfWork, actor entity.Actor, sale *entity.Sale) error {
	existing, err := uow.Sales().ListLines(ctx, actor.TenantID, sale.ID)
	if err != nil {
		return err
	}
	// Un solo Lock con todas las llaves; el repositorio las bloquea en orden.
	keys := make([]entity.BalanceKey, 0, len(existing))
	for _, line := range existing {
		keys = append(keys, entity.BalanceKey{TenantID: actor.TenantID, StoreID: sale.StoreID, VariantID: line.VariantID})
	}
	if len(keys) > 0 {
		if err := uow.Balances().Lock(ctx, keys...); err != nil {
			return err
		}
	}
	for _, line := range existing {
		if _, err := s.stock.ReturnSaleLineInTx(ctx, uow, actor, sale, line); err != nil {
			return err
		}
	}
	return nil
}

func (s *SaleService) lockSale(ctx context.Context, uow repository.UnitOfWork, tenantID, saleID string) (*entity.Sale, error) {
	sale, err := uow.Sales().GetForUpdate(ctx, tenantID, saleID)
	if err != nil {
		return nil, err
	}
	if sale == nil {
		return nil, domain.NewNotFound("sale", saleID)
	}
	return sale, nil
}

// ─── Auxiliares ──────────────────────────────────────────────────────────────

func validateLines(lines []dto.SaleLineRequest) error {
	if len(lines) == 0 {
		return domain.ErrMustHaveLines
	}
	for _, l := range lines {
		if l.VariantID == "" {
			return fmt.Errorf("%w: variant_id requerido", domain.ErrInvalidInput)
		}
		if !domaininv.ValidQuantity(l.Quantity) {
			return domain.ErrInvalidQuantity
		}
		for _, amount := range []decimal.NullDecimal{l.UnitPrice, l.DiscountAmount, l.TaxAmount} {
			if amount.Valid && !domaininv.ValidScale(amount.Decimal) {
				return fmt.Errorf("%w: montos con a lo sumo %d decimales", domain.ErrInvalidInput, domaininv.AmountScale)
			}
		}
	}
	return nil
}

func applyCustomer(sale *entity.Sale, c dto.CustomerInfo) {
	sale.CustomerName = c.Name
	sale.CustomerEmail = c.Email
	sale.CustomerPhone = c.Phone
	sale.CustomerDocument = c.Document
}

// mergeMetadata fusiona las llaves de patch sobre base (nivel superior). Ambos deben ser objetos JSON.
func mergeMetadata(base, patch json.RawMessage) (json.RawMessage, error) {
	if len(patch) == 0 || string(patch) == "null" {
		return base, nil
	}
	merged := map[string]json.RawMessage{}
	if len(base) > 0 && string(base) != "null" {
		if err := json.Unmarshal(base, &merged); err != nil {
			return nil, fmt.Errorf("metadata almacenada inválida: %w", err)
		}
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(patch, &fields); err != nil {
		return nil, fmt.Errorf("%w: metadata debe ser un objeto JSON", domain.ErrInvalidInput)
	}
	for k, v := range fields {
		merged[k] = v
	}
	out, err := json.Marshal(merged)
	if err != nil {
		return nil, fmt.Errorf("metadata: %w", err)
	}
	return out, nil
}

// load arma la respuesta leyendo tienda, líneas y variantes dentro de la misma transacción.
func (s *SaleService) load(ctx context.Context, uow repository.UnitOfWork, sale *entity.Sale) (*dto.SaleResponse, error) {
	store, err := uow.Stores().GetByID(ctx, sale.TenantID, sale.StoreID)
	if err != nil {
		return nil, err
	}
	lines, err := uow.Sales().ListLines(ctx, sale.TenantID, sale.ID)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(lines))
	for _, l := range lines {
		ids = append(ids, l.VariantID)
	}
	variants, err := uow.Variants().GetByIDs(ctx, sale.TenantID, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]*entity.ProductVariant, len(variants))
	for _, v := range variants {
		byID[v.ID] = v
	}
	return toResponse(sale, store, lines, byID), nil
}

func toResponse(sale *entity.Sale, store *entity.Store, lines []*entity.SaleLine, variants map[string]*entity.ProductVariant) *dto.SaleResponse {
	resp := &dto.SaleResponse{
		ID:       sale.ID,
		TenantID: sale.TenantID,
		StoreID:  sale.StoreID,
		Status:   sale.Status,
		Customer: dto.CustomerInfo{
			Name:     sale.CustomerName,
			Email:    sale.CustomerEmail,
			Phone:    sale.CustomerPhone,
			Document: sale.CustomerDocument,
		},
		UnitPriceTotal: sale.UnitPriceTotal,
		LineTotal:      sale.LineTotal,
		Currency:       sale.Currency,
		Metadata:       sale.Metadata,
		CancelledAt:    sale.CancelledAt,
		CancelledBy:    sale.CancelledBy,
		CreatedAt:      sale.CreatedAt,
		UpdatedAt:      sale.UpdatedAt,
		CreatedBy:      sale.CreatedBy,
		Lines:          make([]dto.SaleLineResponse, 0, len(lines)),
	}
	if store != nil {
		resp.StoreName = store.Name
	}
	for _, l := range lines {
		lr := dto.SaleLineResponse{
			ID:              l.ID,
			VariantID:       l.VariantID,
			Quantity:        l.Quantity,
			Currency:        l.Currency,
			UnitPrice:       l.UnitPrice,
			DiscountPercent: l.DiscountPercent,
			DiscountAmount:  l.DiscountAmount,
			TaxPercent:      l.TaxPercent,
			TaxAmount:       l.TaxAmount,
			CampaignCode:    l.CampaignCode,
			NetAmount:       l.NetAmount,
			LineTotal:       l.LineTotal,
		}
		if v := variants[l.VariantID]; v != nil {
			lr.SKU = v.SKU
			lr.VariantName = v.Name
			lr.ProductID = v.ProductID
			lr.ProductName = v.ProductName
		}
		resp.Lines = append(resp.Lines, lr)
	}
	return resp
}
