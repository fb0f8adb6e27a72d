package entity

import "github.com/shopspring/decimal"

// StorePrice override de precio de una variante en una tienda. Campo nulo = usar default de la variante.
type StorePrice struct {
	TenantID        string
	StoreID         string
	VariantID       string
	UnitPrice       decimal.NullDecimal
	Currency        *string
	TaxPercent      decimal.NullDecimal
	DiscountPercent decimal.NullDecimal
}

// EffectivePrice precio efectivo de una variante en una tienda tras aplicar overrides.
type EffectivePrice struct {
	VariantID       string
	UnitPrice       decimal.Decimal
	Currency        string
	TaxPercent      decimal.Decimal
	DiscountPercent decimal.Decimal
	IsOverride      bool // true si algún campo vino del override de la tienda
}
