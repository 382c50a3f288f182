package entity

import "time"

// Warehouse representa una bodega del tenant. Solo puede desactivarse sin stock.
type Warehouse struct {
	ID        string
	TenantID  string
	Name      string
	Address   string
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
