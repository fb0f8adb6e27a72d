package dto

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// PriceSnapshotRequest precio opcional enviado por el llamador en una entrada.
type PriceSnapshotRequest struct {
	Currency        *string             `json:"currency,omitempty" validate:"omitempty,len=3"`
	UnitPrice       decimal.NullDecimal `json:"unit_price"`
	DiscountPercent decimal.NullDecimal `json:"discount_percent"`
	DiscountAmount  decimal.NullDecimal `json:"discount_amount"`
	TaxPercent      decimal.NullDecimal `json:"tax_percent"`
	TaxAmount       decimal.NullDecimal `json:"tax_amount"`
	CampaignCode    *string             `json:"campaign_code,omitempty"`
}

// ReceiveRequest body para POST /api/inventory/receive.
type ReceiveRequest struct {
	StoreID   string               `json:"store_id" validate:"required,uuid"`
	VariantID string               `json:"variant_id" validate:"required,uuid"`
	Quantity  decimal.Decimal      `json:"quantity"`
	Price     PriceSnapshotRequest `json:"price"`
	Reference string               `json:"reference,omitempty" validate:"max=255"`
	Payload   json.RawMessage      `json:"payload,omitempty"`
}

// SellRequest body para POST /api/inventory/sell (venta suelta, sin cabecera de venta).
type SellRequest struct {
	StoreID   string          `json:"store_id" validate:"required,uuid"`
	VariantID string          `json:"variant_id" validate:"required,uuid"`
	Quantity  decimal.Decimal `json:"quantity"`
	Reference string          `json:"reference,omitempty" validate:"max=255"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

// AdjustRequest body para POST /api/inventory/adjust.
type AdjustRequest struct {
	StoreID        string          `json:"store_id" validate:"required,uuid"`
	VariantID      string          `json:"variant_id" validate:"required,uuid"`
	TargetQuantity decimal.Decimal `json:"target_quantity"`
	Reason         string          `json:"reason,omitempty" validate:"max=500"`
	Reference      string          `json:"reference,omitempty" validate:"max=255"`
}

// TransferStockRequest body para POST /api/inventory/transfer (una variante, sin cabecera).
type TransferStockRequest struct {
	FromStoreID string          `json:"from_store_id" validate:"required,uuid"`
	ToStoreID   string          `json:"to_store_id" validate:"required,uuid"`
	VariantID   string          `json:"variant_id" validate:"required,uuid"`
	Quantity    decimal.Decimal `json:"quantity"`
	Reference   string          `json:"reference,omitempty" validate:"max=255"`
}

// MovementResponse movimiento del libro en respuestas.
type MovementResponse struct {
	ID              string              `json:"id"`
	StoreID         string              `json:"store_id"`
	VariantID       string              `json:"variant_id"`
	Type            string              `json:"type"`
	Quantity        decimal.Decimal     `json:"quantity"`
	Currency        *string             `json:"currency,omitempty"`
	UnitPrice       decimal.NullDecimal `json:"unit_price"`
	DiscountPercent decimal.NullDecimal `json:"discount_percent"`
	DiscountAmount  decimal.NullDecimal `json:"discount_amount"`
	TaxPercent      decimal.NullDecimal `json:"tax_percent"`
	TaxAmount       decimal.NullDecimal `json:"tax_amount"`
	LineTotal       decimal.NullDecimal `json:"line_total"`
	CampaignCode    *string             `json:"campaign_code,omitempty"`
	Reference       string              `json:"reference,omitempty"`
	SaleID          string              `json:"sale_id,omitempty"`
	SaleLineID      string              `json:"sale_line_id,omitempty"`
	Payload         json.RawMessage     `json:"payload,omitempty"`
	CreatedAt       time.Time           `json:"created_at"`
	CreatedBy       string              `json:"created_by"`
}

// AdjustResponse resultado del ajuste; Movement es null si no hubo diferencia.
type AdjustResponse struct {
	Previous   decimal.Decimal   `json:"previous"`
	New        decimal.Decimal   `json:"new"`
	Difference decimal.Decimal   `json:"difference"`
	Movement   *MovementResponse `json:"movement"`
}

// TransferMovementsResponse par [salida, entrada] de un traslado.
type TransferMovementsResponse struct {
	Movements [2]MovementResponse `json:"movements"`
}

// BalanceResponse saldo de una llave.
type BalanceResponse struct {
	StoreID   string          `json:"store_id"`
	VariantID string          `json:"variant_id"`
	Quantity  decimal.Decimal `json:"quantity"`
}

// VariantBalanceResponse saldo por variante.
type VariantBalanceResponse struct {
	VariantID string          `json:"variant_id"`
	Quantity  decimal.Decimal `json:"quantity"`
}

// StoreBalanceResponse saldo por tienda.
type StoreBalanceResponse struct {
	StoreID  string          `json:"store_id"`
	Quantity decimal.Decimal `json:"quantity"`
}

// MovementListResponse página del historial.
type MovementListResponse struct {
	Items []MovementResponse `json:"items"`
	Page  PageResponse       `json:"page"`
}

// EffectivePriceResponse precio efectivo de una variante en una tienda.
type EffectivePriceResponse struct {
	StoreID         string          `json:"store_id"`
	VariantID       string          `json:"variant_id"`
	UnitPrice       decimal.Decimal `json:"unit_price"`
	Currency        string          `json:"currency"`
	TaxPercent      decimal.Decimal `json:"tax_percent"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
	IsOverride      bool            `json:"is_override"`
}
