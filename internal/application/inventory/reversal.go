package inventory

import (
	"context"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// ReverseInput identifica el movimiento a deshacer.
type ReverseInput struct {
	TenantID   string
	UserID     string
	MovementID string
}

// ReverseMovement deshace un movimiento vivo aplicando -delta y marcando reversed_at.
// Es el único camino para anular una fila del libro. Las dos piernas de un traslado
// se revierten juntas o ninguna. Un movimiento revertido no vuelve a revertirse (ErrAlreadyReversed).
func (s *MovementService) ReverseMovement(ctx context.Context, in ReverseInput) (*MovementResult, error) {
	const op = "reverse"
	if err := requireIDs(in.TenantID, in.MovementID); err != nil {
		return nil, s.reject(op, err)
	}

	res, err := s.run(ctx, in.TenantID, func(ctx context.Context, p *projector) error {
		legs, err := lockMovementLegs(ctx, p, in.MovementID)
		if err != nil {
			return err
		}
		keys := make([]stockKey, 0, len(legs))
		for _, leg := range legs {
			if leg.IsReversed() {
				return domain.ErrAlreadyReversed
			}
			keys = append(keys, stockKey{ProductID: leg.ProductID, WarehouseID: leg.WarehouseID})
		}
		if err := p.prelock(ctx, keys...); err != nil {
			return err
		}
		for _, leg := range legs {
			if err := p.revert(ctx, leg, in.UserID); err != nil {
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

// lockMovementLegs bloquea la fila a revertir. Para traslados bloquea el grupo completo en orden
// de id, sin bloquear antes una pierna suelta: dos reversiones del mismo par no se cruzan.
func lockMovementLegs(ctx context.Context, p *projector, movementID string) ([]*entity.StockMovement, error) {
	mov, err := p.movRepo.GetByID(ctx, p.tenantID, movementID)
	if err != nil {
		return nil, err
	}
	if mov == nil {
		return nil, domain.ErrUnknownMovement
	}
	if !mov.Kind.IsTransfer() {
		locked, err := p.movRepo.GetForUpdate(ctx, p.tenantID, movementID)
		if err != nil {
			return nil, err
		}
		if locked == nil {
			return nil, domain.ErrUnknownMovement
		}
		return []*entity.StockMovement{locked}, nil
	}
	legs, err := p.movRepo.ListTransferGroupForUpdate(ctx, p.tenantID, mov.TransferGroupID)
	if err != nil {
		return nil, err
	}
	if len(legs) != 2 {
		return nil, domain.ErrConflict
	}
	return legs, nil
}
