package dto

import "github.com/shopspring/decimal"

// DocumentLineRequest línea de una venta o despacho.
type DocumentLineRequest struct {
	ProductID   string `json:"product_id" validate:"required"`
	WarehouseID string `json:"warehouse_id" validate:"required"`
	Quantity    int64  `json:"quantity" validate:"gt=0"`
}

// DocumentRequest body de ventas y despachos (completar, confirmar o cancelar).
type DocumentRequest struct {
	Notes string                `json:"notes" validate:"max=1000"`
	Lines []DocumentLineRequest `json:"lines" validate:"required,min=1,dive"`
}

// ClaimLineRequest línea de un reclamo; la bodega la fija el reclamo.
type ClaimLineRequest struct {
	ProductID string `json:"product_id" validate:"required"`
	Quantity  int64  `json:"quantity" validate:"gt=0"`
}

// ClaimApproveRequest body de POST /api/integrations/claims/:id/approve.
type ClaimApproveRequest struct {
	Type                 string             `json:"type" validate:"required,max=50"`
	ReceivingWarehouseID string             `json:"receiving_warehouse_id" validate:"required_if=Type return"`
	Notes                string             `json:"notes" validate:"max=1000"`
	Lines                []ClaimLineRequest `json:"lines" validate:"required,min=1,dive"`
}

// PurchaseLineRequest línea recibida de una orden de compra.
type PurchaseLineRequest struct {
	ProductID   string           `json:"product_id" validate:"required"`
	WarehouseID string           `json:"warehouse_id" validate:"required"`
	Quantity    int64            `json:"quantity" validate:"gt=0"`
	UnitCost    *decimal.Decimal `json:"unit_cost,omitempty"`
}

// PurchaseReceiveRequest body de POST /api/integrations/purchases/:id/receive.
type PurchaseReceiveRequest struct {
	Notes string                `json:"notes" validate:"max=1000"`
	Lines []PurchaseLineRequest `json:"lines" validate:"required,min=1,dive"`
}
