package entity

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// Estados de una venta.
const (
	SaleStatusDraft     = "DRAFT"     // no alcanzable por la API; las ventas nacen confirmadas
	SaleStatusConfirmed = "CONFIRMED" // líneas y salidas de stock ya registradas
	SaleStatusCancelled = "CANCELLED" // terminal
)

// Sale representa la cabecera de una venta.
type Sale struct {
	ID               string
	TenantID         string
	StoreID          string
	Status           string
	CustomerName     string
	CustomerEmail    string
	CustomerPhone    string
	CustomerDocument string
	UnitPriceTotal   decimal.Decimal // suma de netos por línea
	LineTotal        decimal.Decimal // suma de totales por línea
	Currency         *string         // nil si las líneas mezclan monedas
	Metadata         json.RawMessage
	CancelledAt      *time.Time
	CancelledBy      string
	CreatedAt        time.Time
	UpdatedAt        time.Time
	CreatedBy        string
	UpdatedBy        string
}

// IsCancelled indica si la venta ya está en estado terminal.
func (s *Sale) IsCancelled() bool { return s.Status == SaleStatusCancelled }

// SaleLine representa una línea de venta con su precio congelado.
type SaleLine struct {
	ID              string
	SaleID          string
	TenantID        string
	VariantID       string
	Quantity        decimal.Decimal
	Currency        string
	UnitPrice       decimal.Decimal
	DiscountPercent decimal.NullDecimal
	DiscountAmount  decimal.Decimal
	TaxPercent      decimal.NullDecimal
	TaxAmount       decimal.Decimal
	CampaignCode    *string
	NetAmount       decimal.Decimal
	LineTotal       decimal.Decimal
	CreatedAt       time.Time
}

// PriceSnapshot copia el precio de la línea para sellarlo en su movimiento.
func (l *SaleLine) PriceSnapshot() PriceSnapshot {
	cur := l.Currency
	return PriceSnapshot{
		Currency:        &cur,
		UnitPrice:       decimal.NewNullDecimal(l.UnitPrice),
		DiscountPercent: l.DiscountPercent,
		DiscountAmount:  decimal.NewNullDecimal(l.DiscountAmount),
		TaxPercent:      l.TaxPercent,
		TaxAmount:       decimal.NewNullDecimal(l.TaxAmount),
		LineTotal:       decimal.NewNullDecimal(l.LineTotal),
		CampaignCode:    l.CampaignCode,
	}
}
