package entity

import "time"

// WarehouseStock es el saldo materializado de un producto en una bodega.
// Una fila en cero se conserva; su ausencia equivale a cantidad cero.
type WarehouseStock struct {
	TenantID    string
	ProductID   string
	WarehouseID string
	Quantity    int64
	UpdatedAt   time.Time
}
