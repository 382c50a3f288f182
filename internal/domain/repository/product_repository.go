package repository

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// ProductRepository define el puerto de persistencia para el lado de stock de Product (DIP).
// El alta y edición de productos vive en el catálogo; aquí solo Create para siembra y pruebas.
type ProductRepository interface {
	Create(ctx context.Context, product *entity.Product) error
	GetByID(ctx context.Context, tenantID, id string) (*entity.Product, error)
	// GetForUpdate bloquea la fila del producto (SELECT FOR UPDATE). nil si no existe.
	GetForUpdate(ctx context.Context, tenantID, id string) (*entity.Product, error)
	UpdateTotalStock(ctx context.Context, tenantID, id string, totalStock int64) error
	UpdateCost(ctx context.Context, tenantID, id string, cost decimal.Decimal) error
	// ListIDs pagina ids de productos del tenant en orden ascendente, después de afterID.
	ListIDs(ctx context.Context, tenantID, afterID string, limit int) ([]string, error)
	ListTenantIDs(ctx context.Context) ([]string, error)
}
