package repository

import (
	"context"
	"time"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// MovementFilter criterios de listado del libro.
type MovementFilter struct {
	TenantID    string
	ProductID   string
	WarehouseID string
	ReferenceID string
	Kind        entity.MovementKind
	From, To    *time.Time
	Limit       int
	Offset      int
}

// LedgerReplay es el resultado de sumar los deltas vivos de un producto desde cero.
type LedgerReplay struct {
	Total       int64
	ByWarehouse map[string]int64
}

// StockMovementRepository define el puerto de persistencia del libro (solo inserción + marca de reversión).
type StockMovementRepository interface {
	Create(ctx context.Context, movement *entity.StockMovement) error
	GetByID(ctx context.Context, tenantID, id string) (*entity.StockMovement, error)
	// GetForUpdate bloquea la fila del movimiento para serializar reversiones.
	GetForUpdate(ctx context.Context, tenantID, id string) (*entity.StockMovement, error)
	// ListTransferGroupForUpdate devuelve y bloquea las dos piernas de un traslado.
	ListTransferGroupForUpdate(ctx context.Context, tenantID, groupID string) ([]*entity.StockMovement, error)
	MarkReversed(ctx context.Context, tenantID, id string, at time.Time, by string) error
	List(ctx context.Context, filter MovementFilter) ([]*entity.StockMovement, error)
	ReplayProduct(ctx context.Context, tenantID, productID string) (*LedgerReplay, error)
}
