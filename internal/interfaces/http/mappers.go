package http

import (
	"github.com/jhoicas/stock-ledger/internal/application/dto"
	"github.com/jhoicas/stock-ledger/internal/application/inventory"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

func toMovementDTO(m *entity.StockMovement) dto.MovementDTO {
	out := dto.MovementDTO{
		ID:                 m.ID,
		ProductID:          m.ProductID,
		WarehouseID:        m.WarehouseID,
		CounterWarehouseID: m.CounterWarehouseID,
		Kind:               string(m.Kind),
		Delta:              m.Delta,
		TransferGroupID:    m.TransferGroupID,
		Reason:             m.Reason,
		Notes:              m.Notes,
		ReferenceID:        m.ReferenceID,
		CreatedBy:          m.CreatedBy,
		CreatedAt:          m.CreatedAt,
		ReversedAt:         m.ReversedAt,
		ReversedBy:         m.ReversedBy,
	}
	if m.UnitCost.Valid {
		cost := m.UnitCost.Decimal
		out.UnitCost = &cost
	}
	return out
}

func toMovementResponse(res *inventory.MovementResult) dto.MovementResponse {
	out := dto.MovementResponse{
		Movements: make([]dto.MovementDTO, 0, len(res.Movements)),
		Totals:    make([]dto.ProductTotalDTO, 0, len(res.Totals)),
		Balances:  make([]dto.BalanceDTO, 0, len(res.Balances)),
	}
	for _, m := range res.Movements {
		out.Movements = append(out.Movements, toMovementDTO(m))
	}
	for _, t := range res.Totals {
		out.Totals = append(out.Totals, dto.ProductTotalDTO{ProductID: t.ProductID, TotalStock: t.TotalStock})
	}
	for _, b := range res.Balances {
		out.Balances = append(out.Balances, dto.BalanceDTO{ProductID: b.ProductID, WarehouseID: b.WarehouseID, Quantity: b.Quantity})
	}
	return out
}

func toProductStockResponse(ps *inventory.ProductStock) dto.ProductStockResponse {
	out := dto.ProductStockResponse{
		ProductID:  ps.Product.ID,
		SKU:        ps.Product.SKU,
		TotalStock: ps.Product.TotalStock,
		Cost:       ps.Product.Cost,
		Warehouses: make([]dto.BalanceDTO, 0, len(ps.Warehouses)),
	}
	for _, w := range ps.Warehouses {
		out.Warehouses = append(out.Warehouses, dto.BalanceDTO{ProductID: w.ProductID, WarehouseID: w.WarehouseID, Quantity: w.Quantity})
	}
	return out
}
