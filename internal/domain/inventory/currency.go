package inventory

import (
	"fmt"
	"strings"

	"github.com/jhoicas/retail-ledger/internal/domain"
	"golang.org/x/text/currency"
)

// NormalizeCurrency valida un código ISO 4217 y lo devuelve en mayúsculas.
func NormalizeCurrency(code string) (string, error) {
	unit, err := currency.ParseISO(strings.ToUpper(strings.TrimSpace(code)))
	if err != nil {
		return "", fmt.Errorf("%w: %q", domain.ErrInvalidCurrency, code)
	}
	return unit.String(), nil
}
