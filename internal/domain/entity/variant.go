package entity

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// ProductVariant representa una variante vendible (talla, color...) de un producto del tenant.
// Los precios aquí son los valores por defecto a nivel tenant; cada tienda puede sobreescribirlos.
type ProductVariant struct {
	ID                 string
	TenantID           string
	ProductID          string
	ProductName        string
	SKU                string // único por tenant
	Name               string
	Currency           string // ISO 4217
	SalePrice          decimal.Decimal
	TaxPercent         decimal.NullDecimal
	DiscountPercent    decimal.NullDecimal
	PurchasePrice      decimal.NullDecimal // precio de compra por defecto (entradas)
	PurchaseTaxPercent decimal.NullDecimal
	Attributes         json.RawMessage
	CreatedAt          time.Time
	UpdatedAt          time.Time
}
