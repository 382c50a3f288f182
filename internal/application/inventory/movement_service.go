package inventory

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	dominv "github.com/jhoicas/stock-ledger/internal/domain/inventory"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

// MovementService es el único punto de entrada autorizado para escribir en el libro de stock.
// Cada operación corre en una sola transacción (TxRunner) con bloqueo de filas (SELECT FOR UPDATE):
// el chequeo de saldo y la escritura ocurren bajo el mismo bloqueo.
type MovementService struct {
	txRunner     TxRunner
	productRepo  repository.ProductRepository
	stockRepo    repository.WarehouseStockRepository
	movementRepo repository.StockMovementRepository
	metrics      Metrics
	now          func() time.Time
}

// NewMovementService construye el servicio. Los repos sin tx se usan solo para lecturas.
func NewMovementService(
	txRunner TxRunner,
	productRepo repository.ProductRepository,
	stockRepo repository.WarehouseStockRepository,
	movementRepo repository.StockMovementRepository,
	metrics Metrics,
) *MovementService {
	if metrics == nil {
		metrics = noopMetrics{}
	}
	return &MovementService{
		txRunner:     txRunner,
		productRepo:  productRepo,
		stockRepo:    stockRepo,
		movementRepo: movementRepo,
		metrics:      metrics,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// InboundInput entrada para RecordInbound. UnitCost es opcional y recalcula el costo promedio.
type InboundInput struct {
	TenantID    string
	UserID      string
	ProductID   string
	WarehouseID string
	Quantity    int64
	UnitCost    *decimal.Decimal
	Reason      string
	Notes       string
	ReferenceID string
}

// OutboundInput entrada para RecordOutbound.
type OutboundInput struct {
	TenantID    string
	UserID      string
	ProductID   string
	WarehouseID string
	Quantity    int64
	Reason      string
	Notes       string
	ReferenceID string
}

// AdjustmentInput entrada para RecordAdjustment: TargetQuantity (cantidad absoluta en la bodega)
// o Delta (firmado). Sin WarehouseID solo se admite Delta y corrige el total del producto.
type AdjustmentInput struct {
	TenantID       string
	UserID         string
	ProductID      string
	WarehouseID    string
	TargetQuantity *int64
	Delta          *int64
	Reason         string
	Notes          string
	ReferenceID    string
}

// TransferInput entrada para RecordTransfer.
type TransferInput struct {
	TenantID        string
	UserID          string
	ProductID       string
	FromWarehouseID string
	ToWarehouseID   string
	Quantity        int64
	Reason          string
	Notes           string
	ReferenceID     string
}

// Balance saldo de un producto en una bodega después de la operación.
type Balance struct {
	ProductID   string
	WarehouseID string
	Quantity    int64
}

// ProductTotal total del producto después de la operación.
type ProductTotal struct {
	ProductID  string
	TotalStock int64
}

// MovementResult movimientos creados o revertidos y saldos resultantes.
type MovementResult struct {
	Movements []*entity.StockMovement
	Totals    []ProductTotal
	Balances  []Balance
}

// Total devuelve el total resultante de un producto (0 si no fue tocado).
func (r *MovementResult) Total(productID string) int64 {
	for _, t := range r.Totals {
		if t.ProductID == productID {
			return t.TotalStock
		}
	}
	return 0
}

// Quantity devuelve el saldo resultante en una bodega (0 si no fue tocada).
func (r *MovementResult) Quantity(productID, warehouseID string) int64 {
	for _, b := range r.Balances {
		if b.ProductID == productID && b.WarehouseID == warehouseID {
			return b.Quantity
		}
	}
	return 0
}

func requireIDs(ids ...string) error {
	for _, id := range ids {
		if id == "" {
			return domain.ErrInvalidInput
		}
	}
	return nil
}

// RecordInbound suma quantity a la bodega y al total (delta=+quantity).
func (s *MovementService) RecordInbound(ctx context.Context, in InboundInput) (*MovementResult, error) {
	const op = "inbound"
	if err := requireIDs(in.TenantID, in.ProductID, in.WarehouseID); err != nil {
		return nil, s.reject(op, err)
	}
	if in.Quantity <= 0 {
		return nil, s.reject(op, domain.ErrInvalidQuantity)
	}
	if in.UnitCost != nil && in.UnitCost.IsNegative() {
		return nil, s.reject(op, domain.ErrInvalidInput)
	}

	res, err := s.run(ctx, in.TenantID, func(ctx context.Context, p *projector) error {
		if err := p.prelock(ctx, stockKey{ProductID: in.ProductID, WarehouseID: in.WarehouseID}); err != nil {
			return err
		}
		mov := p.newMovement(entity.MovementInbound, in.ProductID, in.WarehouseID, in.Quantity,
			in.UserID, in.Reason, in.Notes, in.ReferenceID)
		if in.UnitCost != nil {
			if err := p.updateCost(ctx, in.ProductID, in.Quantity, *in.UnitCost); err != nil {
				return err
			}
			mov.UnitCost = decimal.NewNullDecimal(*in.UnitCost)
		}
		return p.apply(ctx, mov)
	})
	if err != nil {
		return nil, s.reject(op, err)
	}
	s.recorded(res)
	return res, nil
}

// RecordOutbound descuenta quantity de la bodega y del total (delta=-quantity).
// Falla con *domain.StockError (ErrInsufficientWarehouseStock) si el saldo bloqueado no alcanza.
func (s *MovementService) RecordOutbound(ctx context.Context, in OutboundInput) (*MovementResult, error) {
	const op = "outbound"
	if err := requireIDs(in.TenantID, in.ProductID, in.WarehouseID); err != nil {
		return nil, s.reject(op, err)
	}
	if in.Quantity <= 0 {
		return nil, s.reject(op, domain.ErrInvalidQuantity)
	}

	res, err := s.run(ctx, in.TenantID, func(ctx context.Context, p *projector) error {
		if err := p.prelock(ctx, stockKey{ProductID: in.ProductID, WarehouseID: in.WarehouseID}); err != nil {
			return err
		}
		mov := p.newMovement(entity.MovementOutbound, in.ProductID, in.WarehouseID, -in.Quantity,
			in.UserID, in.Reason, in.Notes, in.ReferenceID)
		return p.apply(ctx, mov)
	})
	if err != nil {
		return nil, s.reject(op, err)
	}
	s.recorded(res)
	return res, nil
}

// RecordAdjustment registra un ajuste con el delta firmado ya resuelto.
func (s *MovementService) RecordAdjustment(ctx context.Context, in AdjustmentInput) (*MovementResult, error) {
	const op = "adjustment"
	if err := requireIDs(in.TenantID, in.ProductID); err != nil {
		return nil, s.reject(op, err)
	}
	if in.WarehouseID == "" && in.TargetQuantity != nil {
		// Sin bodega no hay cantidad absoluta contra la cual comparar.
		return nil, s.reject(op, domain.ErrInvalidInput)
	}

	res, err := s.run(ctx, in.TenantID, func(ctx context.Context, p *projector) error {
		key := stockKey{ProductID: in.ProductID, WarehouseID: in.WarehouseID}
		if err := p.prelock(ctx, key); err != nil {
			return err
		}
		var current int64
		if in.WarehouseID != "" {
			current = p.stocks[key].Quantity
		}
		delta, err := dominv.ResolveAdjustment(current, in.TargetQuantity, in.Delta)
		if err != nil {
			return err
		}
		mov := p.newMovement(entity.MovementAdjustment, in.ProductID, in.WarehouseID, delta,
			in.UserID, in.Reason, in.Notes, in.ReferenceID)
		return p.apply(ctx, mov)
	})
	if err != nil {
		return nil, s.reject(op, err)
	}
	s.recorded(res)
	return res, nil
}

// RecordTransfer mueve stock entre bodegas: dos filas enlazadas por TransferGroupID,
// TRANSFER_OUT (-q en origen) y TRANSFER_IN (+q en destino). El total no cambia.
func (s *MovementService) RecordTransfer(ctx context.Context, in TransferInput) (*MovementResult, error) {
	const op = "transfer"
	if err := requireIDs(in.TenantID, in.ProductID, in.FromWarehouseID, in.ToWarehouseID); err != nil {
		return nil, s.reject(op, err)
	}
	if in.FromWarehouseID == in.ToWarehouseID {
		return nil, s.reject(op, domain.ErrSameWarehouse)
	}
	if in.Quantity <= 0 {
		return nil, s.reject(op, domain.ErrInvalidQuantity)
	}

	res, err := s.run(ctx, in.TenantID, func(ctx context.Context, p *projector) error {
		// prelock ordena ambas filas por warehouse_id: dos traslados opuestos no se bloquean mutuamente.
		if err := p.prelock(ctx,
			stockKey{ProductID: in.ProductID, WarehouseID: in.FromWarehouseID},
			stockKey{ProductID: in.ProductID, WarehouseID: in.ToWarehouseID},
		); err != nil {
			return err
		}
		groupID := uuid.New().String()
		out := p.newMovement(entity.MovementTransferOut, in.ProductID, in.FromWarehouseID, -in.Quantity,
			in.UserID, in.Reason, in.Notes, in.ReferenceID)
		out.CounterWarehouseID = in.ToWarehouseID
		out.TransferGroupID = groupID
		inLeg := p.newMovement(entity.MovementTransferIn, in.ProductID, in.ToWarehouseID, in.Quantity,
			in.UserID, in.Reason, in.Notes, in.ReferenceID)
		inLeg.CounterWarehouseID = in.FromWarehouseID
		inLeg.TransferGroupID = groupID

		if err := p.apply(ctx, out); err != nil {
			return err
		}
		return p.apply(ctx, inLeg)
	})
	if err != nil {
		return nil, s.reject(op, err)
	}
	s.recorded(res)
	return res, nil
}

// updateCost recalcula el costo promedio ponderado con el total previo a la entrada.
func (p *projector) updateCost(ctx context.Context, productID string, qty int64, unitCost decimal.Decimal) error {
	product, err := p.lockProduct(ctx, productID)
	if err != nil {
		return err
	}
	cost := dominv.CostCalculator(product.TotalStock, qty, product.Cost, unitCost)
	if err := p.productRepo.UpdateCost(ctx, p.tenantID, productID, cost); err != nil {
		return err
	}
	product.Cost = cost
	return nil
}

// run abre la transacción y construye el proyector con los repos atados a ella.
func (s *MovementService) run(ctx context.Context, tenantID string, fn func(ctx context.Context, p *projector) error) (*MovementResult, error) {
	var res *MovementResult
	now := s.now()
	err := s.txRunner.Run(ctx, func(
		movRepo repository.StockMovementRepository,
		stockRepo repository.WarehouseStockRepository,
		productRepo repository.ProductRepository,
		warehouseRepo repository.WarehouseRepository,
	) error {
		p := newProjector(movRepo, stockRepo, productRepo, warehouseRepo, tenantID, now)
		if err := fn(ctx, p); err != nil {
			return err
		}
		res = p.result()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (s *MovementService) reject(op string, err error) error {
	s.metrics.MovementRejected(op, err)
	return err
}

func (s *MovementService) recorded(res *MovementResult) {
	for _, m := range res.Movements {
		if m.IsReversed() {
			s.metrics.MovementReversed(m.Kind)
			continue
		}
		s.metrics.MovementRecorded(m.Kind)
	}
}
