package inventory

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// BatchLine una línea de un documento externo (venta, despacho, devolución, recepción).
type BatchLine struct {
	ProductID   string
	WarehouseID string
	Quantity    int64
	UnitCost    *decimal.Decimal
}

// BatchInput documento completo: todas las líneas son del mismo Kind (INBOUND u OUTBOUND)
// y comparten ReferenceID.
type BatchInput struct {
	TenantID    string
	UserID      string
	Kind        entity.MovementKind
	ReferenceID string
	Reason      string
	Notes       string
	Lines       []BatchLine
}

// RecordBatch aplica todas las líneas de un documento en una sola transacción: o entran todas o ninguna.
// Los bloqueos se toman por adelantado en orden (producto, bodega) para no cruzarse con otros documentos.
func (s *MovementService) RecordBatch(ctx context.Context, in BatchInput) (*MovementResult, error) {
	const op = "batch"
	if err := requireIDs(in.TenantID); err != nil {
		return nil, s.reject(op, err)
	}
	if in.Kind != entity.MovementInbound && in.Kind != entity.MovementOutbound {
		return nil, s.reject(op, domain.ErrInvalidInput)
	}
	if len(in.Lines) == 0 {
		return nil, s.reject(op, domain.ErrInvalidInput)
	}
	keys := make([]stockKey, 0, len(in.Lines))
	for _, l := range in.Lines {
		if err := requireIDs(l.ProductID, l.WarehouseID); err != nil {
			return nil, s.reject(op, err)
		}
		if l.Quantity <= 0 {
			return nil, s.reject(op, domain.ErrInvalidQuantity)
		}
		if l.UnitCost != nil && (in.Kind != entity.MovementInbound || l.UnitCost.IsNegative()) {
			return nil, s.reject(op, domain.ErrInvalidInput)
		}
		keys = append(keys, stockKey{ProductID: l.ProductID, WarehouseID: l.WarehouseID})
	}

	res, err := s.run(ctx, in.TenantID, func(ctx context.Context, p *projector) error {
		if err := p.prelock(ctx, keys...); err != nil {
			return err
		}
		for _, l := range in.Lines {
			delta := l.Quantity
			if in.Kind == entity.MovementOutbound {
				delta = -l.Quantity
			}
			mov := p.newMovement(in.Kind, l.ProductID, l.WarehouseID, delta,
				in.UserID, in.Reason, in.Notes, in.ReferenceID)
			if l.UnitCost != nil {
				if err := p.updateCost(ctx, l.ProductID, l.Quantity, *l.UnitCost); err != nil {
					return err
				}
				mov.UnitCost = decimal.NewNullDecimal(*l.UnitCost)
			}
			if err := p.apply(ctx, mov); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, s.reject(op, err)
	}
	s.recorded(res)
	return res, nil
}
