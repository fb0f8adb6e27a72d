package entity

import "github.com/jhoicas/retail-ledger/internal/domain"

// Actor tenant y usuario que ejecutan la operación. Se pasa explícitamente a cada caso de uso.
type Actor struct {
	TenantID string
	UserID   string
}

// Validate exige ambos campos; sin ellos ninguna escritura puede sellarse.
func (a Actor) Validate() error {
	if a.TenantID == "" || a.UserID == "" {
		return domain.ErrMissingActor
	}
	return nil
}
