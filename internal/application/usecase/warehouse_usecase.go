package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/stock-ledger/internal/application/dto"
	"github.com/jhoicas/stock-ledger/internal/application/inventory"
	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

// WarehouseUseCase registro de bodegas: alta, consulta, activación y saldos.
type WarehouseUseCase struct {
	repo      repository.WarehouseRepository
	stockRepo repository.WarehouseStockRepository
	txRunner  inventory.TxRunner
}

// NewWarehouseUseCase construye el caso de uso. txRunner se usa para desactivar bajo bloqueo.
func NewWarehouseUseCase(repo repository.WarehouseRepository, stockRepo repository.WarehouseStockRepository, txRunner inventory.TxRunner) *WarehouseUseCase {
	return &WarehouseUseCase{repo: repo, stockRepo: stockRepo, txRunner: txRunner}
}

// Create crea una nueva bodega activa.
func (uc *WarehouseUseCase) Create(ctx context.Context, tenantID string, in dto.CreateWarehouseRequest) (*dto.WarehouseResponse, error) {
	name := strings.TrimSpace(in.Name)
	if tenantID == "" || name == "" {
		return nil, domain.ErrInvalidInput
	}
	now := time.Now().UTC()
	warehouse := &entity.Warehouse{
		ID:        uuid.New().String(),
		TenantID:  tenantID,
		Name:      name,
		Address:   strings.TrimSpace(in.Address),
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := uc.repo.Create(ctx, warehouse); err != nil {
		return nil, err
	}
	return toWarehouseResponse(warehouse), nil
}

// GetByID obtiene una bodega por ID.
func (uc *WarehouseUseCase) GetByID(ctx context.Context, tenantID, id string) (*dto.WarehouseResponse, error) {
	warehouse, err := uc.repo.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if warehouse == nil {
		return nil, domain.ErrUnknownWarehouse
	}
	return toWarehouseResponse(warehouse), nil
}

// List lista bodegas del tenant con paginación.
func (uc *WarehouseUseCase) List(ctx context.Context, tenantID string, limit, offset int) (*dto.WarehouseListResponse, error) {
	list, err := uc.repo.ListByTenant(ctx, tenantID, limit, offset)
	if err != nil {
		return nil, err
	}
	items := make([]dto.WarehouseResponse, 0, len(list))
	for _, w := range list {
		items = append(items, *toWarehouseResponse(w))
	}
	return &dto.WarehouseListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: limit, Offset: offset},
	}, nil
}

// Stock lista los saldos de una bodega.
func (uc *WarehouseUseCase) Stock(ctx context.Context, tenantID, id string, limit, offset int) (*dto.WarehouseStockResponse, error) {
	if _, err := uc.GetByID(ctx, tenantID, id); err != nil {
		return nil, err
	}
	rows, err := uc.stockRepo.ListByWarehouse(ctx, tenantID, id, limit, offset)
	if err != nil {
		return nil, err
	}
	items := make([]dto.WarehouseStockItem, 0, len(rows))
	for _, r := range rows {
		items = append(items, dto.WarehouseStockItem{ProductID: r.ProductID, Quantity: r.Quantity, UpdatedAt: r.UpdatedAt})
	}
	return &dto.WarehouseStockResponse{
		WarehouseID: id,
		Items:       items,
		Page:        dto.PageResponse{Limit: limit, Offset: offset},
	}, nil
}

// Deactivate desactiva la bodega solo si todos sus saldos están en cero. La bodega se bloquea
// en exclusiva: un movimiento en curso (FOR SHARE) termina antes de que se revise el stock.
func (uc *WarehouseUseCase) Deactivate(ctx context.Context, tenantID, id string) (*dto.WarehouseResponse, error) {
	return uc.setActive(ctx, tenantID, id, false)
}

// Activate reactiva una bodega.
func (uc *WarehouseUseCase) Activate(ctx context.Context, tenantID, id string) (*dto.WarehouseResponse, error) {
	return uc.setActive(ctx, tenantID, id, true)
}

func (uc *WarehouseUseCase) setActive(ctx context.Context, tenantID, id string, active bool) (*dto.WarehouseResponse, error) {
	var out *entity.Warehouse
	err := uc.txRunner.Run(ctx, func(
		_ repository.StockMovementRepository,
		stockRepo repository.WarehouseStockRepository,
		_ repository.ProductRepository,
		warehouseRepo repository.WarehouseRepository,
	) error {
		wh, err := warehouseRepo.GetForUpdate(ctx, tenantID, id)
		if err != nil {
			return err
		}
		if wh == nil {
			return domain.ErrUnknownWarehouse
		}
		if wh.Active == active {
			out = wh
			return nil
		}
		if !active {
			has, err := stockRepo.HasStock(ctx, tenantID, id)
			if err != nil {
				return err
			}
			if has {
				return domain.ErrWarehouseHasStock
			}
		}
		if err := warehouseRepo.SetActive(ctx, tenantID, id, active); err != nil {
			return err
		}
		wh.Active = active
		wh.UpdatedAt = time.Now().UTC()
		out = wh
		return nil
	})
	if err != nil {
		return nil, err
	}
	return toWarehouseResponse(out), nil
}

func toWarehouseResponse(w *entity.Warehouse) *dto.WarehouseResponse {
	if w == nil {
		return nil
	}
	return &dto.WarehouseResponse{
		ID:        w.ID,
		TenantID:  w.TenantID,
		Name:      w.Name,
		Address:   w.Address,
		Active:    w.Active,
		CreatedAt: w.CreatedAt,
		UpdatedAt: w.UpdatedAt,
	}
}
