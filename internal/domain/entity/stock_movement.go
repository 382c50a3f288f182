package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// MovementKind tipo de movimiento del libro.
type MovementKind string

const (
	MovementInbound     MovementKind = "INBOUND"
	MovementOutbound    MovementKind = "OUTBOUND"
	MovementAdjustment  MovementKind = "ADJUSTMENT"
	MovementTransferOut MovementKind = "TRANSFER_OUT"
	MovementTransferIn  MovementKind = "TRANSFER_IN"
)

// Valid indica si el tipo es uno de los conocidos.
func (k MovementKind) Valid() bool {
	switch k {
	case MovementInbound, MovementOutbound, MovementAdjustment, MovementTransferOut, MovementTransferIn:
		return true
	}
	return false
}

// IsTransfer indica si es una de las dos piernas de un traslado.
func (k MovementKind) IsTransfer() bool {
	return k == MovementTransferOut || k == MovementTransferIn
}

// StockMovement es una fila inmutable del libro. Delta es el cambio exacto aplicado
// a la bodega (y al total del producto, salvo en traslados). Solo ReversedAt/ReversedBy cambian.
type StockMovement struct {
	ID                 string
	TenantID           string
	ProductID          string
	WarehouseID        string // vacío en ajustes sin bodega
	CounterWarehouseID string // contraparte del traslado
	Kind               MovementKind
	Delta              int64
	TransferGroupID    string
	UnitCost           decimal.NullDecimal
	Reason             string
	Notes              string
	ReferenceID        string
	CreatedBy          string
	CreatedAt          time.Time
	ReversedAt         *time.Time
	ReversedBy         string
}

// IsReversed indica si el movimiento ya fue revertido.
func (m *StockMovement) IsReversed() bool {
	return m.ReversedAt != nil
}

// TotalDelta es el efecto del movimiento sobre Product.TotalStock.
func (m *StockMovement) TotalDelta() int64 {
	if m.Kind.IsTransfer() {
		return 0
	}
	return m.Delta
}
