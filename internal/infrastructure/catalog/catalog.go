// Package catalog importa tiendas, variantes y precios por tienda desde un CSV exportado
// de la hoja de cálculo del comercio.
//
// Cada fila lleva en la columna "record" su tipo:
//
//	store    id, code, name, address
//	variant  id, product_id, product_name, sku, name, currency, sale_price, tax_percent, discount_percent, purchase_price
//	price    store_id, variant_id, unit_price, currency, tax_percent, discount_percent
//
// Las columnas que no aplican al tipo se dejan vacías.
package catalog

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jhoicas/retail-ledger/internal/domain"
	"github.com/jhoicas/retail-ledger/internal/domain/entity"
	"github.com/jhoicas/retail-ledger/internal/domain/inventory"
	"github.com/shopspring/decimal"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// Codificaciones aceptadas del archivo.
const (
	EncodingUTF8   = "utf-8"
	EncodingLatin1 = "latin1"       // ISO-8859-1
	EncodingCP1252 = "windows-1252" // Excel en Windows
)

// ErrMissingHeader el archivo no trae la columna "record".
var ErrMissingHeader = errors.New("catalog: falta la columna record")

// Catalog contenido ya validado del archivo.
type Catalog struct {
	Stores   []entity.Store
	Variants []entity.ProductVariant
	Prices   []entity.StorePrice
}

// RowError error de una fila concreta (número de línea del archivo, encabezado = 1).
type RowError struct {
	Line int
	Err  error
}

func (e *RowError) Error() string { return fmt.Sprintf("línea %d: %v", e.Line, e.Err) }
func (e *RowError) Unwrap() error { return e.Err }

var validate = validator.New()

// Parse lee el CSV completo para el tenant. Falla en la primera fila inválida.
func Parse(r io.Reader, tenantID, encoding string) (*Catalog, error) {
	if strings.TrimSpace(tenantID) == "" {
		return nil, domain.ErrMissingActor
	}
	src, err := decoder(r, encoding)
	if err != nil {
		return nil, err
	}
	br := bufio.NewReader(src)
	if bom, _ := br.Peek(3); len(bom) == 3 && bom[0] == 0xEF && bom[1] == 0xBB && bom[2] == 0xBF {
		_, _ = br.Discard(3)
	}

	reader := csv.NewReader(br)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrMissingHeader
	}
	if err != nil {
		return nil, fmt.Errorf("catalog: leer encabezado: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}
	if _, ok := cols["record"]; !ok {
		return nil, ErrMissingHeader
	}

	now := time.Now().UTC()
	cat := &Catalog{}
	line := 1
	for {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, &RowError{Line: line, Err: err}
		}
		row := fields{cols: cols, rec: rec}
		if err := cat.add(row, tenantID, now); err != nil {
			return nil, &RowError{Line: line, Err: err}
		}
	}
	return cat, nil
}

func decoder(r io.Reader, encoding string) (io.Reader, error) {
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "", EncodingUTF8, "utf8":
		return r, nil
	case EncodingLatin1, "iso-8859-1", "iso8859-1":
		return transform.NewReader(r, charmap.ISO8859_1.NewDecoder()), nil
	case EncodingCP1252, "cp1252":
		return transform.NewReader(r, charmap.Windows1252.NewDecoder()), nil
	default:
		return nil, fmt.Errorf("catalog: codificación no soportada %q", encoding)
	}
}

func (c *Catalog) add(row fields, tenantID string, now time.Time) error {
	switch kind := strings.ToLower(row.get("record")); kind {
	case "":
		return nil // fila en blanco
	case "store":
		s := entity.Store{
			ID: row.get("id"), TenantID: tenantID,
			Code: row.get("code"), Name: row.get("name"), Address: row.get("address"),
			CreatedAt: now, UpdatedAt: now,
		}
		if err := uuidField("id", s.ID); err != nil {
			return err
		}
		if s.Code == "" || s.Name == "" {
			return fmt.Errorf("%w: tienda requiere code y name", domain.ErrInvalidInput)
		}
		c.Stores = append(c.Stores, s)
	case "variant":
		v, err := row.variant(tenantID, now)
		if err != nil {
			return err
		}
		c.Variants = append(c.Variants, v)
	case "price":
		p, err := row.price(tenantID)
		if err != nil {
			return err
		}
		c.Prices = append(c.Prices, p)
	default:
		return fmt.Errorf("%w: record desconocido %q", domain.ErrInvalidInput, kind)
	}
	return nil
}

type fields struct {
	cols map[string]int
	rec  []string
}

func (f fields) get(name string) string {
	i, ok := f.cols[name]
	if !ok || i >= len(f.rec) {
		return ""
	}
	return strings.TrimSpace(f.rec[i])
}

func (f fields) variant(tenantID string, now time.Time) (entity.ProductVariant, error) {
	v := entity.ProductVariant{
		ID: f.get("id"), TenantID: tenantID,
		ProductID: f.get("product_id"), ProductName: f.get("product_name"),
		SKU: f.get("sku"), Name: f.get("name"),
		CreatedAt: now, UpdatedAt: now,
	}
	if err := uuidField("id", v.ID); err != nil {
		return v, err
	}
	if err := uuidField("product_id", v.ProductID); err != nil {
		return v, err
	}
	if v.SKU == "" || v.Name == "" {
		return v, fmt.Errorf("%w: variante requiere sku y name", domain.ErrInvalidInput)
	}
	if v.ProductName == "" {
		v.ProductName = v.Name
	}
	cur, err := inventory.NormalizeCurrency(f.get("currency"))
	if err != nil {
		return v, err
	}
	v.Currency = cur

	price, err := f.decimal("sale_price")
	if err != nil {
		return v, err
	}
	if !price.Valid {
		return v, fmt.Errorf("%w: variante requiere sale_price", domain.ErrInvalidInput)
	}
	v.SalePrice = price.Decimal
	if v.TaxPercent, err = f.decimal("tax_percent"); err != nil {
		return v, err
	}
	if v.DiscountPercent, err = f.decimal("discount_percent"); err != nil {
		return v, err
	}
	if v.PurchasePrice, err = f.decimal("purchase_price"); err != nil {
		return v, err
	}
	return v, nil
}

func (f fields) price(tenantID string) (entity.StorePrice, error) {
	p := entity.StorePrice{TenantID: tenantID, StoreID: f.get("store_id"), VariantID: f.get("variant_id")}
	if err := uuidField("store_id", p.StoreID); err != nil {
		return p, err
	}
	if err := uuidField("variant_id", p.VariantID); err != nil {
		return p, err
	}
	var err error
	if p.UnitPrice, err = f.decimal("unit_price"); err != nil {
		return p, err
	}
	if p.TaxPercent, err = f.decimal("tax_percent"); err != nil {
		return p, err
	}
	if p.DiscountPercent, err = f.decimal("discount_percent"); err != nil {
		return p, err
	}
	if raw := f.get("currency"); raw != "" {
		cur, err := inventory.NormalizeCurrency(raw)
		if err != nil {
			return p, err
		}
		p.Currency = &cur
	}
	return p, nil
}

// decimal vacío = NULL. Acepta coma decimal ("1234,50") de hojas en español.
func (f fields) decimal(name string) (decimal.NullDecimal, error) {
	raw := f.get(name)
	if raw == "" {
		return decimal.NullDecimal{}, nil
	}
	if !strings.Contains(raw, ".") {
		raw = strings.Replace(raw, ",", ".", 1)
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.NullDecimal{}, fmt.Errorf("%w: %s=%q no es numérico", domain.ErrInvalidInput, name, raw)
	}
	if d.IsNegative() {
		return decimal.NullDecimal{}, fmt.Errorf("%w: %s no puede ser negativo", domain.ErrInvalidInput, name)
	}
	return decimal.NewNullDecimal(d), nil
}

func uuidField(name, value string) error {
	if err := validate.Var(value, "required,uuid"); err != nil {
		return fmt.Errorf("%w: %s debe ser un UUID", domain.ErrInvalidInput, name)
	}
	return nil
}
