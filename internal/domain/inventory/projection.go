package inventory

import (
	"math"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

// Balances saldos de un producto antes o después de aplicar un movimiento.
// Warehouse solo tiene sentido cuando el movimiento nombra una bodega.
type Balances struct {
	Warehouse int64
	Total     int64
}

// Project calcula los saldos resultantes de aplicar warehouseDelta a la bodega y totalDelta
// al total. Nunca deja un saldo negativo: devuelve *domain.StockError en ese caso.
// Un delta que desborda int64 es ErrInvalidQuantity.
func Project(productID, warehouseID string, current Balances, warehouseDelta, totalDelta int64) (Balances, error) {
	if overflows(current.Warehouse, warehouseDelta) || overflows(current.Total, totalDelta) {
		return current, domain.ErrInvalidQuantity
	}
	next := Balances{
		Warehouse: current.Warehouse + warehouseDelta,
		Total:     current.Total + totalDelta,
	}
	if warehouseID != "" && next.Warehouse < 0 {
		return current, &domain.StockError{
			Kind:        domain.ErrInsufficientWarehouseStock,
			ProductID:   productID,
			WarehouseID: warehouseID,
			Available:   current.Warehouse,
			Requested:   -warehouseDelta,
		}
	}
	if next.Total < 0 {
		return current, &domain.StockError{
			Kind:      domain.ErrInsufficientTotalStock,
			ProductID: productID,
			Available: current.Total,
			Requested: -totalDelta,
		}
	}
	return next, nil
}

// ResolveAdjustment devuelve el delta firmado de un ajuste.
// Con target (cantidad absoluta para la bodega) el delta es target - current; si no, se usa delta tal cual.
func ResolveAdjustment(current int64, target, delta *int64) (int64, error) {
	var d int64
	switch {
	case target != nil && delta != nil:
		return 0, domain.ErrInvalidInput
	case target != nil:
		if *target < 0 {
			return 0, domain.ErrInvalidQuantity
		}
		d = *target - current
	case delta != nil:
		if *delta == math.MinInt64 {
			return 0, domain.ErrInvalidQuantity
		}
		d = *delta
	default:
		return 0, domain.ErrInvalidInput
	}
	if d == 0 {
		return 0, domain.ErrNoChange
	}
	return d, nil
}

func overflows(a, b int64) bool {
	if b > 0 {
		return a > math.MaxInt64-b
	}
	return a < math.MinInt64-b
}

// Replay suma desde cero los deltas de los movimientos vivos.
// Es la definición de verdad contra la que se comparan los agregados.
func Replay(movements []*entity.StockMovement) *repository.LedgerReplay {
	out := &repository.LedgerReplay{ByWarehouse: map[string]int64{}}
	for _, m := range movements {
		if m.IsReversed() {
			continue
		}
		out.Total += m.TotalDelta()
		if m.WarehouseID != "" {
			out.ByWarehouse[m.WarehouseID] += m.Delta
		}
	}
	return out
}
