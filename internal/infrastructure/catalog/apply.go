package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/jhoicas/retail-ledger/internal/domain"
	"github.com/jhoicas/retail-ledger/internal/domain/entity"
)

// Sink destino de la importación. domain.ErrDuplicate en tiendas o variantes significa que el
// registro ya existía y se omite.
type Sink interface {
	SaveStore(ctx context.Context, s *entity.Store) error
	SaveVariant(ctx context.Context, v *entity.ProductVariant) error
	SavePrice(ctx context.Context, p *entity.StorePrice) error
}

// Summary conteo de lo aplicado.
type Summary struct {
	Stores   int
	Variants int
	Prices   int
	Skipped  int
}

// Apply escribe tiendas, luego variantes y al final precios (dependen de ambas).
func (c *Catalog) Apply(ctx context.Context, sink Sink) (Summary, error) {
	var sum Summary
	for i := range c.Stores {
		err := sink.SaveStore(ctx, &c.Stores[i])
		switch {
		case errors.Is(err, domain.ErrDuplicate):
			sum.Skipped++
		case err != nil:
			return sum, fmt.Errorf("tienda %s: %w", c.Stores[i].Code, err)
		default:
			sum.Stores++
		}
	}
	for i := range c.Variants {
		err := sink.SaveVariant(ctx, &c.Variants[i])
		switch {
		case errors.Is(err, domain.ErrDuplicate):
			sum.Skipped++
		case err != nil:
			return sum, fmt.Errorf("variante %s: %w", c.Variants[i].SKU, err)
		default:
			sum.Variants++
		}
	}
	for i := range c.Prices {
		if err := sink.SavePrice(ctx, &c.Prices[i]); err != nil {
			return sum, fmt.Errorf("precio %s/%s: %w", c.Prices[i].StoreID, c.Prices[i].VariantID, err)
		}
		sum.Prices++
	}
	return sum, nil
}
