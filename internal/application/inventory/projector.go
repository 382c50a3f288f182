package inventory

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	dominv "github.com/jhoicas/stock-ledger/internal/domain/inventory"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

type stockKey struct {
	ProductID   string
	WarehouseID string
}

func sortKeys(keys []stockKey) {
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].ProductID != keys[j].ProductID {
			return keys[i].ProductID < keys[j].ProductID
		}
		return keys[i].WarehouseID < keys[j].WarehouseID
	})
}

// projector es el único camino de escritura de saldos: dentro de la tx del TxRunner bloquea
// producto, bodega y fila de stock, valida con dominv.Project y escribe las tres cosas juntas.
// Orden de bloqueo fijo: productos (id asc), bodegas FOR SHARE (id asc), filas de stock (producto, bodega asc).
type projector struct {
	movRepo       repository.StockMovementRepository
	stockRepo     repository.WarehouseStockRepository
	productRepo   repository.ProductRepository
	warehouseRepo repository.WarehouseRepository

	tenantID   string
	now        time.Time
	products   map[string]*entity.Product
	warehouses map[string]*entity.Warehouse
	stocks     map[stockKey]*entity.WarehouseStock

	movements []*entity.StockMovement
	touched   []stockKey
	touchedP  []string
}

func newProjector(
	movRepo repository.StockMovementRepository,
	stockRepo repository.WarehouseStockRepository,
	productRepo repository.ProductRepository,
	warehouseRepo repository.WarehouseRepository,
	tenantID string,
	now time.Time,
) *projector {
	return &projector{
		movRepo:       movRepo,
		stockRepo:     stockRepo,
		productRepo:   productRepo,
		warehouseRepo: warehouseRepo,
		tenantID:      tenantID,
		now:           now,
		products:      map[string]*entity.Product{},
		warehouses:    map[string]*entity.Warehouse{},
		stocks:        map[stockKey]*entity.WarehouseStock{},
	}
}

// prelock toma todos los bloqueos que va a necesitar la operación, en orden fijo.
// Una clave con WarehouseID vacío solo bloquea el producto.
func (p *projector) prelock(ctx context.Context, keys ...stockKey) error {
	keys = append([]stockKey(nil), keys...)
	sortKeys(keys)

	for _, k := range keys {
		if _, err := p.lockProduct(ctx, k.ProductID); err != nil {
			return err
		}
	}
	whIDs := make([]string, 0, len(keys))
	for _, k := range keys {
		if k.WarehouseID != "" {
			whIDs = append(whIDs, k.WarehouseID)
		}
	}
	sort.Strings(whIDs)
	for _, id := range whIDs {
		if _, err := p.lockWarehouse(ctx, id); err != nil {
			return err
		}
	}
	for _, k := range keys {
		if k.WarehouseID == "" {
			continue
		}
		if _, err := p.lockStock(ctx, k); err != nil {
			return err
		}
	}
	return nil
}

func (p *projector) lockProduct(ctx context.Context, productID string) (*entity.Product, error) {
	if pr, ok := p.products[productID]; ok {
		return pr, nil
	}
	pr, err := p.productRepo.GetForUpdate(ctx, p.tenantID, productID)
	if err != nil {
		return nil, err
	}
	if pr == nil {
		return nil, domain.ErrUnknownProduct
	}
	p.products[productID] = pr
	return pr, nil
}

func (p *projector) lockWarehouse(ctx context.Context, warehouseID string) (*entity.Warehouse, error) {
	if wh, ok := p.warehouses[warehouseID]; ok {
		return wh, nil
	}
	wh, err := p.warehouseRepo.GetForShare(ctx, p.tenantID, warehouseID)
	if err != nil {
		return nil, err
	}
	if wh == nil {
		return nil, domain.ErrUnknownWarehouse
	}
	p.warehouses[warehouseID] = wh
	return wh, nil
}

func (p *projector) lockStock(ctx context.Context, k stockKey) (*entity.WarehouseStock, error) {
	if st, ok := p.stocks[k]; ok {
		return st, nil
	}
	st, err := p.stockRepo.GetForUpdate(ctx, p.tenantID, k.ProductID, k.WarehouseID)
	if err != nil {
		return nil, err
	}
	p.stocks[k] = st
	return st, nil
}

// newMovement arma una fila del libro con ID y fecha de la operación en curso.
func (p *projector) newMovement(kind entity.MovementKind, productID, warehouseID string, delta int64, userID, reason, notes, referenceID string) *entity.StockMovement {
	return &entity.StockMovement{
		ID:          uuid.New().String(),
		TenantID:    p.tenantID,
		ProductID:   productID,
		WarehouseID: warehouseID,
		Kind:        kind,
		Delta:       delta,
		Reason:      reason,
		Notes:       notes,
		ReferenceID: referenceID,
		CreatedBy:   userID,
		CreatedAt:   p.now,
	}
}

// apply registra el movimiento y actualiza saldo de bodega y total del producto en la misma tx.
func (p *projector) apply(ctx context.Context, m *entity.StockMovement) error {
	if err := p.shift(ctx, m.ProductID, m.WarehouseID, m.Delta, m.TotalDelta()); err != nil {
		return err
	}
	if err := p.movRepo.Create(ctx, m); err != nil {
		return err
	}
	p.movements = append(p.movements, m)
	return nil
}

// revert aplica -delta y marca la fila como revertida. Un saldo negativo se reporta como
// ErrReversalWouldUnderflow con el detalle del StockError original.
func (p *projector) revert(ctx context.Context, m *entity.StockMovement, userID string) error {
	if m.IsReversed() {
		return domain.ErrAlreadyReversed
	}
	err := p.shift(ctx, m.ProductID, m.WarehouseID, -m.Delta, -m.TotalDelta())
	if err != nil {
		var se *domain.StockError
		if errors.As(err, &se) {
			se.Kind = domain.ErrReversalWouldUnderflow
			return se
		}
		return err
	}
	if err := p.movRepo.MarkReversed(ctx, p.tenantID, m.ID, p.now, userID); err != nil {
		return err
	}
	at := p.now
	m.ReversedAt = &at
	m.ReversedBy = userID
	p.movements = append(p.movements, m)
	return nil
}

func (p *projector) shift(ctx context.Context, productID, warehouseID string, warehouseDelta, totalDelta int64) error {
	product, err := p.lockProduct(ctx, productID)
	if err != nil {
		return err
	}
	cur := dominv.Balances{Total: product.TotalStock}

	var st *entity.WarehouseStock
	if warehouseID != "" {
		wh, err := p.lockWarehouse(ctx, warehouseID)
		if err != nil {
			return err
		}
		if !wh.Active && warehouseDelta > 0 {
			return domain.ErrWarehouseInactive
		}
		st, err = p.lockStock(ctx, stockKey{ProductID: productID, WarehouseID: warehouseID})
		if err != nil {
			return err
		}
		cur.Warehouse = st.Quantity
	} else {
		warehouseDelta = 0
	}

	next, err := dominv.Project(productID, warehouseID, cur, warehouseDelta, totalDelta)
	if err != nil {
		return err
	}

	if st != nil && warehouseDelta != 0 {
		st.Quantity = next.Warehouse
		st.UpdatedAt = p.now
		if err := p.stockRepo.Upsert(ctx, st); err != nil {
			return err
		}
		p.touch(stockKey{ProductID: productID, WarehouseID: warehouseID})
	}
	if totalDelta != 0 {
		if err := p.productRepo.UpdateTotalStock(ctx, p.tenantID, productID, next.Total); err != nil {
			return err
		}
		product.TotalStock = next.Total
	}
	p.touchProduct(productID)
	return nil
}

func (p *projector) touch(k stockKey) {
	for _, t := range p.touched {
		if t == k {
			return
		}
	}
	p.touched = append(p.touched, k)
}

func (p *projector) touchProduct(id string) {
	for _, t := range p.touchedP {
		if t == id {
			return
		}
	}
	p.touchedP = append(p.touchedP, id)
}

// result arma la respuesta con los saldos finales de todo lo que se tocó.
func (p *projector) result() *MovementResult {
	res := &MovementResult{Movements: p.movements}
	for _, id := range p.touchedP {
		res.Totals = append(res.Totals, ProductTotal{ProductID: id, TotalStock: p.products[id].TotalStock})
	}
	for _, k := range p.touched {
		res.Balances = append(res.Balances, Balance{
			ProductID:   k.ProductID,
			WarehouseID: k.WarehouseID,
			Quantity:    p.stocks[k].Quantity,
		})
	}
	return res
}
