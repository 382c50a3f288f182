package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// InboundRequest body para POST /api/inventory/inbound.
type InboundRequest struct {
	ProductID   string           `json:"product_id" validate:"required"`
	WarehouseID string           `json:"warehouse_id" validate:"required"`
	Quantity    int64            `json:"quantity" validate:"gt=0"`
	UnitCost    *decimal.Decimal `json:"unit_cost,omitempty"`
	Reason      string           `json:"reason" validate:"max=200"`
	Notes       string           `json:"notes" validate:"max=1000"`
	ReferenceID string           `json:"reference_id" validate:"max=100"`
}

// OutboundRequest body para POST /api/inventory/outbound.
type OutboundRequest struct {
	ProductID   string `json:"product_id" validate:"required"`
	WarehouseID string `json:"warehouse_id" validate:"required"`
	Quantity    int64  `json:"quantity" validate:"gt=0"`
	Reason      string `json:"reason" validate:"max=200"`
	Notes       string `json:"notes" validate:"max=1000"`
	ReferenceID string `json:"reference_id" validate:"max=100"`
}

// AdjustmentRequest body para POST /api/inventory/adjustments.
// Exactamente uno de target_quantity o delta; target_quantity exige warehouse_id.
type AdjustmentRequest struct {
	ProductID      string `json:"product_id" validate:"required"`
	WarehouseID    string `json:"warehouse_id"`
	TargetQuantity *int64 `json:"target_quantity,omitempty" validate:"omitempty,min=0,required_without=Delta,excluded_with=Delta"`
	Delta          *int64 `json:"delta,omitempty" validate:"required_without=TargetQuantity"`
	Reason         string `json:"reason" validate:"required,max=200"`
	Notes          string `json:"notes" validate:"max=1000"`
	ReferenceID    string `json:"reference_id" validate:"max=100"`
}

// TransferRequest body para POST /api/inventory/transfers.
type TransferRequest struct {
	ProductID       string `json:"product_id" validate:"required"`
	FromWarehouseID string `json:"from_warehouse_id" validate:"required"`
	ToWarehouseID   string `json:"to_warehouse_id" validate:"required,nefield=FromWarehouseID"`
	Quantity        int64  `json:"quantity" validate:"gt=0"`
	Reason          string `json:"reason" validate:"max=200"`
	Notes           string `json:"notes" validate:"max=1000"`
	ReferenceID     string `json:"reference_id" validate:"max=100"`
}

// MovementDTO una fila del libro.
type MovementDTO struct {
	ID                 string           `json:"id"`
	ProductID          string           `json:"product_id"`
	WarehouseID        string           `json:"warehouse_id,omitempty"`
	CounterWarehouseID string           `json:"counter_warehouse_id,omitempty"`
	Kind               string           `json:"kind"`
	Delta              int64            `json:"delta"`
	TransferGroupID    string           `json:"transfer_group_id,omitempty"`
	UnitCost           *decimal.Decimal `json:"unit_cost,omitempty"`
	Reason             string           `json:"reason,omitempty"`
	Notes              string           `json:"notes,omitempty"`
	ReferenceID        string           `json:"reference_id,omitempty"`
	CreatedBy          string           `json:"created_by,omitempty"`
	CreatedAt          time.Time        `json:"created_at"`
	ReversedAt         *time.Time       `json:"reversed_at,omitempty"`
	ReversedBy         string           `json:"reversed_by,omitempty"`
}

// BalanceDTO saldo resultante en una bodega.
type BalanceDTO struct {
	ProductID   string `json:"product_id"`
	WarehouseID string `json:"warehouse_id"`
	Quantity    int64  `json:"quantity"`
}

// ProductTotalDTO total resultante del producto.
type ProductTotalDTO struct {
	ProductID  string `json:"product_id"`
	TotalStock int64  `json:"total_stock"`
}

// MovementResponse respuesta de toda operación de escritura del libro.
type MovementResponse struct {
	Movements []MovementDTO     `json:"movements"`
	Totals    []ProductTotalDTO `json:"totals"`
	Balances  []BalanceDTO      `json:"balances"`
}

// MovementListRequest filtros de GET /api/inventory/movements.
type MovementListRequest struct {
	ProductID   string `query:"product_id"`
	WarehouseID string `query:"warehouse_id"`
	ReferenceID string `query:"reference_id"`
	Kind        string `query:"kind" validate:"omitempty,oneof=INBOUND OUTBOUND ADJUSTMENT TRANSFER_OUT TRANSFER_IN"`
	From        string `query:"from" validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
	To          string `query:"to" validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
	PageRequest
}

// MovementListResponse lista paginada del libro.
type MovementListResponse struct {
	Items []MovementDTO `json:"items"`
	Page  PageResponse  `json:"page"`
}

// ProductStockResponse total del producto y saldos por bodega.
type ProductStockResponse struct {
	ProductID  string          `json:"product_id"`
	SKU        string          `json:"sku"`
	TotalStock int64           `json:"total_stock"`
	Cost       decimal.Decimal `json:"cost"`
	Warehouses []BalanceDTO    `json:"warehouses"`
}

// ReconcileRequest body para POST /api/inventory/reconciliations.
type ReconcileRequest struct {
	DryRun    bool   `json:"dry_run"`
	ProductID string `json:"product_id,omitempty"`
}
