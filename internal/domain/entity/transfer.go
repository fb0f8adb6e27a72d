package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransferStatusCompleted único estado en el modelo síncrono de un solo paso.
const TransferStatusCompleted = "COMPLETED"

// Transfer cabecera de un traslado entre tiendas.
type Transfer struct {
	ID          string
	TenantID    string
	FromStoreID string
	ToStoreID   string
	Status      string
	Note        string
	Reference   string // compartida por los movimientos TRANSFER_OUT/TRANSFER_IN
	CreatedAt   time.Time
	CreatedBy   string
}

// TransferLine cantidad trasladada y saldos antes/después en ambas tiendas (auditoría).
type TransferLine struct {
	ID         string
	TransferID string
	TenantID   string
	VariantID  string
	Quantity   decimal.Decimal
	FromBefore decimal.Decimal
	FromAfter  decimal.Decimal
	ToBefore   decimal.Decimal
	ToAfter    decimal.Decimal
	CreatedAt  time.Time
}
