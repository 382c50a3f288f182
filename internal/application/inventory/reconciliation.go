package inventory

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
	"github.com/jhoicas/stock-ledger/pkg/logger"
)

// ReconciliationReason motivo que llevan los ajustes emitidos por la conciliación.
const ReconciliationReason = "reconciliation"

// ReconcileOptions alcance de una corrida. TenantID vacío recorre todos los tenants.
type ReconcileOptions struct {
	TenantID string
	DryRun   bool
	UserID   string
}

// ProductDrift descuadre entre Σ WarehouseStock y Product.TotalStock.
type ProductDrift struct {
	TenantID     string `json:"tenant_id"`
	ProductID    string `json:"product_id"`
	TotalStock   int64  `json:"total_stock"`
	WarehouseSum int64  `json:"warehouse_sum"`
	Delta        int64  `json:"delta"`
	MovementID   string `json:"movement_id,omitempty"`
}

// ReplayMismatch agregado que no coincide con la suma de movimientos vivos del libro.
// WarehouseID vacío significa el total del producto. Se reporta; no se corrige solo.
type ReplayMismatch struct {
	TenantID    string `json:"tenant_id"`
	ProductID   string `json:"product_id"`
	WarehouseID string `json:"warehouse_id,omitempty"`
	Aggregate   int64  `json:"aggregate"`
	Ledger      int64  `json:"ledger"`
}

// ReconcileReport resultado de una corrida completa.
type ReconcileReport struct {
	StartedAt        time.Time        `json:"started_at"`
	FinishedAt       time.Time        `json:"finished_at"`
	DryRun           bool             `json:"dry_run"`
	Tenants          int              `json:"tenants"`
	ProductsChecked  int              `json:"products_checked"`
	Failures         int              `json:"failures"`
	Drifts           []ProductDrift   `json:"drifts"`
	ReplayMismatches []ReplayMismatch `json:"replay_mismatches"`
}

// ReconciliationJob recalcula Product.TotalStock contra Σ WarehouseStock y emite ajustes
// correctivos sin bodega. Cada producto es una transacción independiente: se puede
// intercalar con el tráfico vivo.
type ReconciliationJob struct {
	txRunner    TxRunner
	productRepo repository.ProductRepository
	log         *logger.Logger
	metrics     Metrics
	workers     int
	pageSize    int
	now         func() time.Time
}

// NewReconciliationJob construye el job. workers acota cuántos productos se concilian en paralelo.
func NewReconciliationJob(
	txRunner TxRunner,
	productRepo repository.ProductRepository,
	log *logger.Logger,
	metrics Metrics,
	workers int,
) *ReconciliationJob {
	if log == nil {
		log = logger.Nop()
	}
	if metrics == nil {
		metrics = noopMetrics{}
	}
	if workers <= 0 {
		workers = 1
	}
	return &ReconciliationJob{
		txRunner:    txRunner,
		productRepo: productRepo,
		log:         log.Component("reconciliation"),
		metrics:     metrics,
		workers:     workers,
		pageSize:    200,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Run concilia todos los productos del alcance. Un fallo en un producto se registra y se cuenta;
// solo la cancelación del contexto o un error al listar detienen la corrida.
func (j *ReconciliationJob) Run(ctx context.Context, opts ReconcileOptions) (*ReconcileReport, error) {
	report := &ReconcileReport{
		StartedAt:        j.now(),
		DryRun:           opts.DryRun,
		Drifts:           []ProductDrift{},
		ReplayMismatches: []ReplayMismatch{},
	}

	tenants := []string{opts.TenantID}
	if opts.TenantID == "" {
		ids, err := j.productRepo.ListTenantIDs(ctx)
		if err != nil {
			return nil, err
		}
		tenants = ids
	}

	var mu sync.Mutex
	for _, tenantID := range tenants {
		report.Tenants++
		afterID := ""
		for {
			ids, err := j.productRepo.ListIDs(ctx, tenantID, afterID, j.pageSize)
			if err != nil {
				return nil, err
			}
			if len(ids) == 0 {
				break
			}
			afterID = ids[len(ids)-1]

			g, gctx := errgroup.WithContext(ctx)
			g.SetLimit(j.workers)
			for _, productID := range ids {
				productID := productID
				g.Go(func() error {
					drift, mismatches, err := j.ReconcileProduct(gctx, tenantID, productID, opts)
					mu.Lock()
					defer mu.Unlock()
					report.ProductsChecked++
					if err != nil {
						if gctx.Err() != nil {
							return gctx.Err()
						}
						report.Failures++
						j.log.Error().Err(err).
							Str("tenant_id", tenantID).
							Str("product_id", productID).
							Msg("conciliación de producto fallida")
						return nil
					}
					if drift != nil {
						report.Drifts = append(report.Drifts, *drift)
					}
					report.ReplayMismatches = append(report.ReplayMismatches, mismatches...)
					return nil
				})
			}
			if err := g.Wait(); err != nil {
				return nil, err
			}
			if len(ids) < j.pageSize {
				break
			}
		}
	}

	sort.Slice(report.Drifts, func(a, b int) bool {
		if report.Drifts[a].TenantID != report.Drifts[b].TenantID {
			return report.Drifts[a].TenantID < report.Drifts[b].TenantID
		}
		return report.Drifts[a].ProductID < report.Drifts[b].ProductID
	})
	report.FinishedAt = j.now()
	j.log.Info().
		Int("tenants", report.Tenants).
		Int("products", report.ProductsChecked).
		Int("drifts", len(report.Drifts)).
		Int("replay_mismatches", len(report.ReplayMismatches)).
		Int("failures", report.Failures).
		Bool("dry_run", opts.DryRun).
		Dur("elapsed", report.FinishedAt.Sub(report.StartedAt)).
		Msg("conciliación terminada")
	return report, nil
}

// ReconcileProduct concilia un producto en su propia transacción. Devuelve el descuadre
// corregido (nil si cuadraba) y los agregados que no coinciden con el replay del libro.
func (j *ReconciliationJob) ReconcileProduct(ctx context.Context, tenantID, productID string, opts ReconcileOptions) (*ProductDrift, []ReplayMismatch, error) {
	var (
		drift      *ProductDrift
		mismatches []ReplayMismatch
	)
	now := j.now()
	err := j.txRunner.Run(ctx, func(
		movRepo repository.StockMovementRepository,
		stockRepo repository.WarehouseStockRepository,
		productRepo repository.ProductRepository,
		warehouseRepo repository.WarehouseRepository,
	) error {
		drift, mismatches = nil, nil
		p := newProjector(movRepo, stockRepo, productRepo, warehouseRepo, tenantID, now)
		product, err := p.lockProduct(ctx, productID)
		if err != nil {
			return err
		}
		rows, err := stockRepo.LockByProduct(ctx, tenantID, productID)
		if err != nil {
			return err
		}
		var sum int64
		for _, r := range rows {
			sum += r.Quantity
		}

		replay, err := movRepo.ReplayProduct(ctx, tenantID, productID)
		if err != nil {
			return err
		}
		mismatches = compareReplay(tenantID, productID, product.TotalStock, rows, replay)

		if sum == product.TotalStock {
			return nil
		}
		drift = &ProductDrift{
			TenantID:     tenantID,
			ProductID:    productID,
			TotalStock:   product.TotalStock,
			WarehouseSum: sum,
			Delta:        sum - product.TotalStock,
		}
		if opts.DryRun {
			return nil
		}
		mov := p.newMovement(entity.MovementAdjustment, productID, "", drift.Delta, opts.UserID,
			ReconciliationReason, "ajuste automático: total distinto a la suma de bodegas", "")
		if err := p.apply(ctx, mov); err != nil {
			return err
		}
		drift.MovementID = mov.ID
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrUnknownProduct) {
			// Borrado entre el listado y el bloqueo.
			return nil, nil, nil
		}
		return nil, nil, err
	}

	for _, m := range mismatches {
		j.log.Warn().
			Str("tenant_id", m.TenantID).
			Str("product_id", m.ProductID).
			Str("warehouse_id", m.WarehouseID).
			Int64("aggregate", m.Aggregate).
			Int64("ledger", m.Ledger).
			Msg("agregado distinto al replay del libro")
	}
	if drift != nil {
		j.metrics.ReconciliationDrift(tenantID, drift.Delta)
		j.log.Warn().
			Str("tenant_id", tenantID).
			Str("product_id", productID).
			Int64("total_stock", drift.TotalStock).
			Int64("warehouse_sum", drift.WarehouseSum).
			Int64("delta", drift.Delta).
			Str("movement_id", drift.MovementID).
			Bool("dry_run", opts.DryRun).
			Msg("descuadre de stock")
	}
	return drift, mismatches, nil
}

func compareReplay(tenantID, productID string, total int64, rows []*entity.WarehouseStock, replay *repository.LedgerReplay) []ReplayMismatch {
	var out []ReplayMismatch
	if replay.Total != total {
		out = append(out, ReplayMismatch{TenantID: tenantID, ProductID: productID, Aggregate: total, Ledger: replay.Total})
	}
	seen := make(map[string]bool, len(rows))
	for _, r := range rows {
		seen[r.WarehouseID] = true
		if ledger := replay.ByWarehouse[r.WarehouseID]; ledger != r.Quantity {
			out = append(out, ReplayMismatch{
				TenantID: tenantID, ProductID: productID, WarehouseID: r.WarehouseID,
				Aggregate: r.Quantity, Ledger: ledger,
			})
		}
	}
	// Bodegas con historia en el libro pero sin fila de saldo.
	whIDs := make([]string, 0, len(replay.ByWarehouse))
	for id := range replay.ByWarehouse {
		whIDs = append(whIDs, id)
	}
	sort.Strings(whIDs)
	for _, id := range whIDs {
		if seen[id] || replay.ByWarehouse[id] == 0 {
			continue
		}
		out = append(out, ReplayMismatch{
			TenantID: tenantID, ProductID: productID, WarehouseID: id,
			Aggregate: 0, Ledger: replay.ByWarehouse[id],
		})
	}
	return out
}
