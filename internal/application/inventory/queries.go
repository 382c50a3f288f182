package inventory

import (
	"context"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

// ProductStock total del producto y sus saldos por bodega.
type ProductStock struct {
	Product    *entity.Product
	Warehouses []*entity.WarehouseStock
}

// GetProductStock lee el total y los saldos por bodega (sin bloqueo).
func (s *MovementService) GetProductStock(ctx context.Context, tenantID, productID string) (*ProductStock, error) {
	product, err := s.productRepo.GetByID(ctx, tenantID, productID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, domain.ErrUnknownProduct
	}
	rows, err := s.stockRepo.ListByProduct(ctx, tenantID, productID)
	if err != nil {
		return nil, err
	}
	return &ProductStock{Product: product, Warehouses: rows}, nil
}

// GetMovement obtiene una fila del libro.
func (s *MovementService) GetMovement(ctx context.Context, tenantID, id string) (*entity.StockMovement, error) {
	m, err := s.movementRepo.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, domain.ErrUnknownMovement
	}
	return m, nil
}

// ListMovements lista el libro con filtros; TenantID es obligatorio.
func (s *MovementService) ListMovements(ctx context.Context, filter repository.MovementFilter) ([]*entity.StockMovement, error) {
	if filter.TenantID == "" {
		return nil, domain.ErrInvalidInput
	}
	if filter.Kind != "" && !filter.Kind.Valid() {
		return nil, domain.ErrInvalidInput
	}
	if filter.Limit <= 0 || filter.Limit > 500 {
		filter.Limit = 100
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	return s.movementRepo.List(ctx, filter)
}
