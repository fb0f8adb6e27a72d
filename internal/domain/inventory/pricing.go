package inventory

import "github.com/shopspring/decimal"

// AmountScale decimales que persisten cantidades y montos (NUMERIC(18, 4)).
const AmountScale = 4

var hundred = decimal.NewFromInt(100)

// ValidScale indica si d cabe en AmountScale decimales sin redondeo.
func ValidScale(d decimal.Decimal) bool {
	return d.Equal(d.Round(AmountScale))
}

// ValidQuantity cantidad positiva con a lo sumo AmountScale decimales.
func ValidQuantity(q decimal.Decimal) bool {
	return q.IsPositive() && ValidScale(q)
}

// ResolveEffective devuelve el primer candidato con valor: valor del llamador → override de tienda → default de variante.
// Si ninguno tiene valor el resultado es nulo; el llamador decide el valor implícito.
func ResolveEffective(candidates ...decimal.NullDecimal) decimal.NullDecimal {
	for _, c := range candidates {
		if c.Valid {
			return c
		}
	}
	return decimal.NullDecimal{}
}

// ResolveEffectiveString igual que ResolveEffective para campos de texto (moneda, campaña).
func ResolveEffectiveString(candidates ...*string) *string {
	for _, c := range candidates {
		if c != nil && *c != "" {
			return c
		}
	}
	return nil
}

// LineInput datos de entrada del cálculo de una línea. Un monto explícito prevalece sobre su porcentaje.
type LineInput struct {
	Quantity        decimal.Decimal
	UnitPrice       decimal.Decimal
	DiscountPercent decimal.NullDecimal
	DiscountAmount  decimal.NullDecimal
	TaxPercent      decimal.NullDecimal
	TaxAmount       decimal.NullDecimal
}

// LineAmounts montos calculados de una línea.
type LineAmounts struct {
	Net      decimal.Decimal
	Discount decimal.Decimal
	Taxable  decimal.Decimal
	Tax      decimal.Decimal
	Total    decimal.Decimal
}

// CalculateLine cálculo puro de una línea de venta:
// neto = cant × precio; descuento = monto, si no neto × %/100; base = neto − descuento;
// impuesto = monto, si no base × %/100; total = base + impuesto.
// Cada monto se redondea a AmountScale antes de componer el siguiente, así el total
// coincide con lo que se persiste.
func CalculateLine(in LineInput) LineAmounts {
	net := in.Quantity.Mul(in.UnitPrice).Round(AmountScale)

	discount := decimal.Zero
	switch {
	case in.DiscountAmount.Valid:
		discount = in.DiscountAmount.Decimal
	case in.DiscountPercent.Valid:
		discount = net.Mul(in.DiscountPercent.Decimal).Div(hundred)
	}
	discount = discount.Round(AmountScale)

	taxable := net.Sub(discount)

	tax := decimal.Zero
	switch {
	case in.TaxAmount.Valid:
		tax = in.TaxAmount.Decimal
	case in.TaxPercent.Valid:
		tax = taxable.Mul(in.TaxPercent.Decimal).Div(hundred)
	}
	tax = tax.Round(AmountScale)

	return LineAmounts{
		Net:      net,
		Discount: discount,
		Taxable:  taxable,
		Tax:      tax,
		Total:    taxable.Add(tax),
	}
}
