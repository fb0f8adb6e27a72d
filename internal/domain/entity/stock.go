package entity

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// BalanceKey identifica un saldo: (tenant, tienda, variante).
type BalanceKey struct {
	TenantID  string
	StoreID   string
	VariantID string
}

func (k BalanceKey) String() string {
	return k.TenantID + ":" + k.StoreID + ":" + k.VariantID
}

// SortBalanceKeys ordena y deduplica las llaves; bloquear siempre en este orden evita deadlocks.
func SortBalanceKeys(keys []BalanceKey) []BalanceKey {
	seen := make(map[BalanceKey]struct{}, len(keys))
	out := make([]BalanceKey, 0, len(keys))
	for _, k := range keys {
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out
}

// StockLevel fila de stock_levels: ancla de bloqueo (SELECT FOR UPDATE) y proyección
// materializada del saldo. No es autoritativa: el saldo real sale del libro de movimientos.
type StockLevel struct {
	BalanceKey
	Quantity  decimal.Decimal
	UpdatedAt time.Time
}

// VariantBalance saldo de una variante (proyección por tienda o por tenant).
type VariantBalance struct {
	VariantID string
	Quantity  decimal.Decimal
}

// StoreBalance saldo de una tienda (proyección por variante).
type StoreBalance struct {
	StoreID  string
	Quantity decimal.Decimal
}
