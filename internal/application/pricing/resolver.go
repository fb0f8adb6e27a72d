package pricing

import (
	"context"

	"github.com/jhoicas/retail-ledger/internal/domain"
	"github.com/jhoicas/retail-ledger/internal/domain/entity"
	"github.com/jhoicas/retail-ledger/internal/domain/inventory"
	"github.com/jhoicas/retail-ledger/internal/domain/repository"
	"github.com/shopspring/decimal"
)

// TxRunner ejecuta una función dentro de una transacción de solo lectura para el resolver.
type TxRunner interface {
	Run(ctx context.Context, fn func(uow repository.UnitOfWork) error) error
}

// Resolver mapea (tienda, variante) → precio efectivo: override de la tienda campo a campo, si no default de la variante.
type Resolver struct {
	txRunner TxRunner
}

// NewResolver construye el resolver.
func NewResolver(txRunner TxRunner) *Resolver {
	return &Resolver{txRunner: txRunner}
}

// EffectivePrice precio efectivo de una variante en una tienda del tenant.
func (r *Resolver) EffectivePrice(ctx context.Context, actor entity.Actor, storeID, variantID string) (*entity.EffectivePrice, error) {
	if err := actor.Validate(); err != nil {
		return nil, err
	}
	var out *entity.EffectivePrice
	err := r.txRunner.Run(ctx, func(uow repository.UnitOfWork) error {
		store, err := uow.Stores().GetByID(ctx, actor.TenantID, storeID)
		if err != nil {
			return err
		}
		if store == nil {
			return domain.NewNotFound("store", storeID)
		}
		variant, err := uow.Variants().GetByID(ctx, actor.TenantID, variantID)
		if err != nil {
			return err
		}
		if variant == nil {
			return domain.NewNotFound("variant", variantID)
		}
		prices, err := r.EffectivePricesInTx(ctx, uow, actor.TenantID, storeID, []*entity.ProductVariant{variant})
		if err != nil {
			return err
		}
		p := prices[variantID]
		out = &p
		return nil
	})
	return out, err
}

// EffectivePricesInTx versión masiva: una sola consulta de overrides para todas las variantes.
// Las variantes ya deben estar resueltas y validadas en el tenant.
func (r *Resolver) EffectivePricesInTx(ctx context.Context, uow repository.UnitOfWork, tenantID, storeID string, variants []*entity.ProductVariant) (map[string]entity.EffectivePrice, error) {
	ids := make([]string, 0, len(variants))
	for _, v := range variants {
		ids = append(ids, v.ID)
	}
	overrides, err := uow.Prices().ListStorePrices(ctx, tenantID, storeID, ids)
	if err != nil {
		return nil, err
	}
	byVariant := make(map[string]*entity.StorePrice, len(overrides))
	for _, o := range overrides {
		byVariant[o.VariantID] = o
	}

	out := make(map[string]entity.EffectivePrice, len(variants))
	for _, v := range variants {
		out[v.ID] = Effective(v, byVariant[v.ID])
	}
	return out, nil
}

// Effective combina override y default. Sin impuesto ni descuento en ninguno de los dos, quedan en cero.
func Effective(v *entity.ProductVariant, o *entity.StorePrice) entity.EffectivePrice {
	var ov entity.StorePrice
	if o != nil {
		ov = *o
	}
	unit := inventory.ResolveEffective(ov.UnitPrice, decimal.NewNullDecimal(v.SalePrice))
	tax := inventory.ResolveEffective(ov.TaxPercent, v.TaxPercent, decimal.NewNullDecimal(decimal.Zero))
	discount := inventory.ResolveEffective(ov.DiscountPercent, v.DiscountPercent, decimal.NewNullDecimal(decimal.Zero))
	currency := v.Currency
	if c := inventory.ResolveEffectiveString(ov.Currency); c != nil {
		currency = *c
	}
	return entity.EffectivePrice{
		VariantID:       v.ID,
		UnitPrice:       unit.Decimal,
		Currency:        currency,
		TaxPercent:      tax.Decimal,
		DiscountPercent: discount.Decimal,
		IsOverride:      ov.UnitPrice.Valid || ov.TaxPercent.Valid || ov.DiscountPercent.Valid || ov.Currency != nil,
	}
}
