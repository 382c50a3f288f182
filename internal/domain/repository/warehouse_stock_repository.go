package repository

import (
	"context"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// WarehouseStockRepository define el puerto para saldos por producto+bodega.
// Usado dentro de transacciones para garantizar consistencia.
type WarehouseStockRepository interface {
	// GetForUpdate bloquea la fila (SELECT FOR UPDATE). Si no existe devuelve cantidad 0.
	GetForUpdate(ctx context.Context, tenantID, productID, warehouseID string) (*entity.WarehouseStock, error)
	Upsert(ctx context.Context, stock *entity.WarehouseStock) error
	ListByProduct(ctx context.Context, tenantID, productID string) ([]*entity.WarehouseStock, error)
	// LockByProduct bloquea todas las filas del producto en orden de warehouse_id.
	LockByProduct(ctx context.Context, tenantID, productID string) ([]*entity.WarehouseStock, error)
	ListByWarehouse(ctx context.Context, tenantID, warehouseID string, limit, offset int) ([]*entity.WarehouseStock, error)
	// HasStock indica si alguna fila de la bodega tiene cantidad distinta de cero.
	HasStock(ctx context.Context, tenantID, warehouseID string) (bool, error)
}
