package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransferLineRequest variante y cantidad a trasladar.
type TransferLineRequest struct {
	VariantID string          `json:"variant_id" validate:"required,uuid"`
	Quantity  decimal.Decimal `json:"quantity"`
}

// CreateTransferRequest body para POST /api/transfers.
type CreateTransferRequest struct {
	FromStoreID string                `json:"from_store_id" validate:"required,uuid"`
	ToStoreID   string                `json:"to_store_id" validate:"required,uuid"`
	Note        string                `json:"note,omitempty" validate:"max=500"`
	Lines       []TransferLineRequest `json:"lines" validate:"dive"`
}

// TransferResponse traslado con snapshots antes/después por línea.
type TransferResponse struct {
	ID          string                 `json:"id"`
	FromStoreID string                 `json:"from_store_id"`
	ToStoreID   string                 `json:"to_store_id"`
	Status      string                 `json:"status"`
	Note        string                 `json:"note,omitempty"`
	Reference   string                 `json:"reference"`
	CreatedAt   time.Time              `json:"created_at"`
	CreatedBy   string                 `json:"created_by"`
	Lines       []TransferLineResponse `json:"lines"`
}

// TransferLineResponse línea con saldos de ambas tiendas.
type TransferLineResponse struct {
	ID         string          `json:"id"`
	VariantID  string          `json:"variant_id"`
	Quantity   decimal.Decimal `json:"quantity"`
	FromBefore decimal.Decimal `json:"from_before"`
	FromAfter  decimal.Decimal `json:"from_after"`
	ToBefore   decimal.Decimal `json:"to_before"`
	ToAfter    decimal.Decimal `json:"to_after"`
}
