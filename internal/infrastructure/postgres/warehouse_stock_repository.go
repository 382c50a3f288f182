package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

var _ repository.WarehouseStockRepository = (*WarehouseStockRepo)(nil)

// WarehouseStockRepo saldos por producto+bodega sobre PostgreSQL (usable con pool o tx).
type WarehouseStockRepo struct {
	q Querier
}

// NewWarehouseStockRepository construye el adaptador de stock. Pasar pool o tx (Querier).
func NewWarehouseStockRepository(q Querier) *WarehouseStockRepo {
	return &WarehouseStockRepo{q: q}
}

// GetForUpdate obtiene el saldo y bloquea la fila (SELECT FOR UPDATE).
// La fila se crea en 0 si no existe, así siempre hay algo que bloquear.
func (r *WarehouseStockRepo) GetForUpdate(ctx context.Context, tenantID, productID, warehouseID string) (*entity.WarehouseStock, error) {
	_, err := r.q.Exec(ctx, `
		INSERT INTO warehouse_stock (tenant_id, product_id, warehouse_id, quantity, updated_at)
		VALUES ($1, $2, $3, 0, now())
		ON CONFLICT (product_id, warehouse_id) DO NOTHING`,
		tenantID, productID, warehouseID)
	if err != nil {
		return nil, fmt.Errorf("ensure stock row: %w", err)
	}
	query := `
		SELECT tenant_id, product_id, warehouse_id, quantity, updated_at
		FROM warehouse_stock WHERE tenant_id = $1 AND product_id = $2 AND warehouse_id = $3
		FOR UPDATE`
	var s entity.WarehouseStock
	err = r.q.QueryRow(ctx, query, tenantID, productID, warehouseID).Scan(
		&s.TenantID, &s.ProductID, &s.WarehouseID, &s.Quantity, &s.UpdatedAt,
	)
	if err != nil {
		if isNotFound(err) {
			// La fila existe pero es de otro tenant.
			return nil, domain.ErrUnknownProduct
		}
		return nil, fmt.Errorf("get stock for update: %w", err)
	}
	return &s, nil
}

// Upsert inserta o actualiza la cantidad en stock (por producto y bodega).
func (r *WarehouseStockRepo) Upsert(ctx context.Context, stock *entity.WarehouseStock) error {
	query := `
		INSERT INTO warehouse_stock (tenant_id, product_id, warehouse_id, quantity, updated_at)
		VALUES ($1, $2, $3, $4, now())
		ON CONFLICT (product_id, warehouse_id)
		DO UPDATE SET quantity = EXCLUDED.quantity, updated_at = now()`
	_, err := r.q.Exec(ctx, query, stock.TenantID, stock.ProductID, stock.WarehouseID, stock.Quantity)
	if err != nil {
		if isCheckViolation(err, "warehouse_stock_quantity_nonnegative") {
			return domain.ErrInsufficientWarehouseStock
		}
		return fmt.Errorf("upsert stock: %w", err)
	}
	return nil
}

// ListByProduct saldos del producto en todas las bodegas (sin bloqueo).
func (r *WarehouseStockRepo) ListByProduct(ctx context.Context, tenantID, productID string) ([]*entity.WarehouseStock, error) {
	return r.list(ctx, "list stock by product", `
		SELECT tenant_id, product_id, warehouse_id, quantity, updated_at
		FROM warehouse_stock WHERE tenant_id = $1 AND product_id = $2
		ORDER BY warehouse_id`, tenantID, productID)
}

// LockByProduct igual que ListByProduct pero bloqueando las filas en orden de bodega.
func (r *WarehouseStockRepo) LockByProduct(ctx context.Context, tenantID, productID string) ([]*entity.WarehouseStock, error) {
	return r.list(ctx, "lock stock by product", `
		SELECT tenant_id, product_id, warehouse_id, quantity, updated_at
		FROM warehouse_stock WHERE tenant_id = $1 AND product_id = $2
		ORDER BY warehouse_id
		FOR UPDATE`, tenantID, productID)
}

// ListByWarehouse saldos de una bodega con paginación.
func (r *WarehouseStockRepo) ListByWarehouse(ctx context.Context, tenantID, warehouseID string, limit, offset int) ([]*entity.WarehouseStock, error) {
	return r.list(ctx, "list stock by warehouse", `
		SELECT tenant_id, product_id, warehouse_id, quantity, updated_at
		FROM warehouse_stock WHERE tenant_id = $1 AND warehouse_id = $2
		ORDER BY product_id LIMIT $3 OFFSET $4`, tenantID, warehouseID, limit, offset)
}

// HasStock indica si la bodega tiene alguna fila con cantidad distinta de cero.
func (r *WarehouseStockRepo) HasStock(ctx context.Context, tenantID, warehouseID string) (bool, error) {
	var has bool
	err := r.q.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM warehouse_stock
			WHERE tenant_id = $1 AND warehouse_id = $2 AND quantity <> 0
		)`, tenantID, warehouseID).Scan(&has)
	if err != nil {
		return false, fmt.Errorf("check warehouse stock: %w", err)
	}
	return has, nil
}

func (r *WarehouseStockRepo) list(ctx context.Context, op, query string, args ...any) ([]*entity.WarehouseStock, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()
	var list []*entity.WarehouseStock
	for rows.Next() {
		var s entity.WarehouseStock
		if err := rows.Scan(&s.TenantID, &s.ProductID, &s.WarehouseID, &s.Quantity, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan stock: %w", err)
		}
		list = append(list, &s)
	}
	if err := rows.Err(); err != nil {
		// Un filtro con id mal formado equivale a "sin resultados".
		if isNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return list, nil
}
