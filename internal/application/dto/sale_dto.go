package dto

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// SaleLineRequest línea de venta. Precio, impuesto y descuento no enviados se resuelven por tienda/variante.
type SaleLineRequest struct {
	VariantID       string              `json:"variant_id" validate:"required,uuid"`
	Quantity        decimal.Decimal     `json:"quantity"`
	UnitPrice       decimal.NullDecimal `json:"unit_price"`
	Currency        *string             `json:"currency,omitempty" validate:"omitempty,len=3"`
	DiscountPercent decimal.NullDecimal `json:"discount_percent"`
	DiscountAmount  decimal.NullDecimal `json:"discount_amount"`
	TaxPercent      decimal.NullDecimal `json:"tax_percent"`
	TaxAmount       decimal.NullDecimal `json:"tax_amount"`
	CampaignCode    *string             `json:"campaign_code,omitempty"`
}

// CustomerInfo datos del cliente en la cabecera de la venta.
type CustomerInfo struct {
	Name     string `json:"name,omitempty" validate:"max=255"`
	Email    string `json:"email,omitempty" validate:"omitempty,email"`
	Phone    string `json:"phone,omitempty" validate:"max=50"`
	Document string `json:"document,omitempty" validate:"max=50"`
}

// CreateSaleRequest body para POST /api/sales.
type CreateSaleRequest struct {
	StoreID  string            `json:"store_id" validate:"required,uuid"`
	Customer CustomerInfo      `json:"customer"`
	Metadata json.RawMessage   `json:"metadata,omitempty"`
	Lines    []SaleLineRequest `json:"lines" validate:"dive"`
}

// UpdateSaleRequest body para PATCH /api/sales/:id. Lines nil = no tocar líneas.
type UpdateSaleRequest struct {
	Customer *CustomerInfo      `json:"customer,omitempty"`
	Metadata json.RawMessage    `json:"metadata,omitempty"`
	Lines    *[]SaleLineRequest `json:"lines,omitempty"`
}

// CancelSaleRequest body opcional para POST /api/sales/:id/cancel.
type CancelSaleRequest struct {
	Reason string `json:"reason,omitempty" validate:"max=500"`
}

// SaleResponse venta con líneas para GET /api/sales/:id. Los números van como strings decimales.
type SaleResponse struct {
	ID             string             `json:"id"`
	TenantID       string             `json:"tenant_id"`
	StoreID        string             `json:"store_id"`
	StoreName      string             `json:"store_name,omitempty"`
	Status         string             `json:"status"`
	Customer       CustomerInfo       `json:"customer"`
	UnitPriceTotal decimal.Decimal    `json:"unit_price_total"`
	LineTotal      decimal.Decimal    `json:"line_total"`
	Currency       *string            `json:"currency"`
	Metadata       json.RawMessage    `json:"metadata,omitempty"`
	CancelledAt    *time.Time         `json:"cancelled_at,omitempty"`
	CancelledBy    string             `json:"cancelled_by,omitempty"`
	CreatedAt      time.Time          `json:"created_at"`
	UpdatedAt      time.Time          `json:"updated_at"`
	CreatedBy      string             `json:"created_by"`
	Lines          []SaleLineResponse `json:"lines"`
}

// SaleLineResponse línea con identidad de variante y producto.
type SaleLineResponse struct {
	ID              string              `json:"id"`
	VariantID       string              `json:"variant_id"`
	SKU             string              `json:"sku,omitempty"`
	VariantName     string              `json:"variant_name,omitempty"`
	ProductID       string              `json:"product_id,omitempty"`
	ProductName     string              `json:"product_name,omitempty"`
	Quantity        decimal.Decimal     `json:"quantity"`
	Currency        string              `json:"currency"`
	UnitPrice       decimal.Decimal     `json:"unit_price"`
	DiscountPercent decimal.NullDecimal `json:"discount_percent"`
	DiscountAmount  decimal.Decimal     `json:"discount_amount"`
	TaxPercent      decimal.NullDecimal `json:"tax_percent"`
	TaxAmount       decimal.Decimal     `json:"tax_amount"`
	CampaignCode    *string             `json:"campaign_code,omitempty"`
	NetAmount       decimal.Decimal     `json:"net_amount"`
	LineTotal       decimal.Decimal     `json:"line_total"`
}
