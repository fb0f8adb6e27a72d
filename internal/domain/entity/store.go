package entity

import "time"

// Store representa una tienda o sucursal del tenant donde vive el stock.
type Store struct {
	ID        string
	TenantID  string
	Code      string
	Name      string
	Address   string
	CreatedAt time.Time
	UpdatedAt time.Time
}
