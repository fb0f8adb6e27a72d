package domain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Errores de dominio. Los casos de uso los devuelven tal cual (o envueltos) y la capa HTTP los traduce.
var (
	ErrNotFound            = errors.New("recurso no encontrado")
	ErrInvalidInput        = errors.New("entrada inválida")
	ErrDuplicate           = errors.New("recurso duplicado")
	ErrUnauthorized        = errors.New("no autorizado")
	ErrForbidden           = errors.New("acceso denegado")
	ErrMissingActor        = errors.New("tenant o usuario ausente en el contexto")
	ErrInvalidQuantity     = errors.New("la cantidad debe ser mayor que cero")
	ErrInvalidCurrency     = errors.New("código de moneda inválido")
	ErrInsufficientStock   = errors.New("stock insuficiente")
	ErrSameSourceAndTarget = errors.New("la tienda de origen y destino no pueden ser la misma")
	ErrMustHaveLines       = errors.New("se requiere al menos una línea")
	ErrAlreadyCancelled    = errors.New("la venta ya está cancelada")
	ErrNotCancellable      = errors.New("la venta no se puede cancelar en su estado actual")
	ErrVariantNotFound     = errors.New("variante no encontrada")
)

// InsufficientStockError detalla el faltante de stock. errors.Is(err, ErrInsufficientStock) es true.
type InsufficientStockError struct {
	StoreID   string
	VariantID string
	Current   decimal.Decimal
	Requested decimal.Decimal
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("stock insuficiente: actual %s, solicitado %s (tienda %s, variante %s)",
		e.Current.String(), e.Requested.String(), e.StoreID, e.VariantID)
}

func (e *InsufficientStockError) Is(target error) bool { return target == ErrInsufficientStock }

// NotFoundError identifica el recurso ausente (o de otro tenant). errors.Is(err, ErrNotFound) es true.
type NotFoundError struct {
	Resource string // store, variant, sale, transfer
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q no encontrado", e.Resource, e.ID)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// NewNotFound atajo para construir un NotFoundError.
func NewNotFound(resource, id string) error {
	return &NotFoundError{Resource: resource, ID: id}
}

// VariantNotFoundError lista las variantes que no se pudieron resolver en una carga masiva.
type VariantNotFoundError struct {
	IDs []string
}

func (e *VariantNotFoundError) Error() string {
	return "variantes no encontradas: " + strings.Join(e.IDs, ", ")
}

func (e *VariantNotFoundError) Is(target error) bool { return target == ErrVariantNotFound }
