package repository

import (
	"context"

	"github.com/jhoicas/retail-ledger/internal/domain/entity"
)

// PriceRepository overrides de precio por tienda (store_variant_prices).
type PriceRepository interface {
	ListStorePrices(ctx context.Context, tenantID, storeID string, variantIDs []string) ([]*entity.StorePrice, error)
}
