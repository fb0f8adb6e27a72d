package entity

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// Tipos de movimiento del libro de stock.
const (
	MovementTypeIN          = "IN"           // entrada (compra, devolución de cliente)
	MovementTypeOUT         = "OUT"          // salida por venta
	MovementTypeTransferIN  = "TRANSFER_IN"  // entrada en tienda destino
	MovementTypeTransferOUT = "TRANSFER_OUT" // salida en tienda origen
	MovementTypeADJUSTMENT  = "ADJUSTMENT"   // conciliación contra conteo físico
)

// PriceSnapshot precio capturado en el momento del movimiento. Nunca se recalcula después.
type PriceSnapshot struct {
	Currency        *string
	UnitPrice       decimal.NullDecimal
	DiscountPercent decimal.NullDecimal
	DiscountAmount  decimal.NullDecimal
	TaxPercent      decimal.NullDecimal
	TaxAmount       decimal.NullDecimal
	LineTotal       decimal.NullDecimal
	CampaignCode    *string
}

// Movement es una entrada inmutable del libro de stock (append-only).
// El stock de (tenant, tienda, variante) es siempre la suma de Quantity de sus movimientos.
type Movement struct {
	ID         string
	TenantID   string
	StoreID    string
	VariantID  string
	Type       string
	Quantity   decimal.Decimal // con signo: IN/TRANSFER_IN >= 0, OUT/TRANSFER_OUT <= 0, ADJUSTMENT cualquiera
	Price      PriceSnapshot
	Reference  string
	SaleID     string // vacío si el movimiento no viene de una venta
	SaleLineID string
	Payload    json.RawMessage // datos libres de extensión; el libro no depende de su contenido
	CreatedAt  time.Time
	UpdatedAt  time.Time
	CreatedBy  string
	UpdatedBy  string
}

// HasValidSign verifica la convención de signo fija por tipo.
func (m *Movement) HasValidSign() bool {
	switch m.Type {
	case MovementTypeIN, MovementTypeTransferIN:
		return !m.Quantity.IsNegative()
	case MovementTypeOUT, MovementTypeTransferOUT:
		return !m.Quantity.IsPositive()
	case MovementTypeADJUSTMENT:
		return true
	}
	return false
}

// IsSaleReversal indica si es la devolución compensatoria de una línea de venta.
func (m *Movement) IsSaleReversal() bool {
	return m.Type == MovementTypeIN && m.SaleID != "" && m.SaleLineID != ""
}
