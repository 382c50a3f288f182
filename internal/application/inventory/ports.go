package inventory

import (
	"context"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción de BD, pasando repositorios atados a esa tx.
// Garantiza atomicidad para el motor de inventario: si fn retorna error se hace Rollback.
// Los errores de bloqueo (lock_timeout, deadlock) se devuelven como domain.ErrConcurrencyTimeout.
type TxRunner interface {
	Run(ctx context.Context, fn func(
		movRepo repository.StockMovementRepository,
		stockRepo repository.WarehouseStockRepository,
		productRepo repository.ProductRepository,
		warehouseRepo repository.WarehouseRepository,
	) error) error
}

// Metrics puerto de observabilidad del libro. La implementación vive en infrastructure/metrics.
type Metrics interface {
	MovementRecorded(kind entity.MovementKind)
	MovementRejected(operation string, err error)
	MovementReversed(kind entity.MovementKind)
	ReconciliationDrift(tenantID string, delta int64)
}

type noopMetrics struct{}

func (noopMetrics) MovementRecorded(entity.MovementKind) {}
func (noopMetrics) MovementRejected(string, error) {}
func (noopMetrics) MovementReversed(entity.MovementKind) {}
func (noopMetrics) ReconciliationDrift(string, int64) {}
