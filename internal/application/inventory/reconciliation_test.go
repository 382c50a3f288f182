package inventory_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-ledger/internal/application/inventory"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

type driftMetrics struct {
	mu     sync.Mutex
	drifts map[string]int64
}

func (m *driftMetrics) MovementRecorded(entity.MovementKind) {}
func (m *driftMetrics) MovementRejected(string, error) {}
func (m *driftMetrics) MovementReversed(entity.MovementKind) {}
func (m *driftMetrics) ReconciliationDrift(tenantID string, delta int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.drifts[tenantID] += delta
}

func newJob(f *fixture, workers int) (*inventory.ReconciliationJob, *driftMetrics) {
	m := &driftMetrics{drifts: map[string]int64{}}
	return inventory.NewReconciliationJob(f.store, f.store.Products(), nil, m, workers), m
}

func TestReconciliation_SinDescuadre(t *testing.T) {
	f := newFixture(t)
	f.inbound(t, prodP, whW1, 10)
	f.inbound(t, prodQ, whW2, 3)
	job, _ := newJob(f, 2)

	report, err := job.Run(context.Background(), inventory.ReconcileOptions{TenantID: tenant})
	require.NoError(t, err)
	assert.Equal(t, 2, report.ProductsChecked)
	assert.Empty(t, report.Drifts)
	assert.Empty(t, report.ReplayMismatches)
	assert.Zero(t, report.Failures)
}

// Un ajuste sin bodega deja el total por encima de Σ bodegas; la conciliación lo cierra.
func TestReconciliation_CorrigeDescuadreDelLibro(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.inbound(t, prodP, whW1, 5)
	_, err := f.svc.RecordAdjustment(ctx, inventory.AdjustmentInput{TenantID: tenant, ProductID: prodP, Delta: ptr(2)})
	require.NoError(t, err)

	job, metrics := newJob(f, 1)
	report, err := job.Run(ctx, inventory.ReconcileOptions{TenantID: tenant, UserID: "system"})
	require.NoError(t, err)
	require.Len(t, report.Drifts, 1)
	drift := report.Drifts[0]
	assert.Equal(t, prodP, drift.ProductID)
	assert.Equal(t, int64(7), drift.TotalStock)
	assert.Equal(t, int64(5), drift.WarehouseSum)
	assert.Equal(t, int64(-2), drift.Delta)
	require.NotEmpty(t, drift.MovementID)
	assert.Empty(t, report.ReplayMismatches, "el total coincidía con el libro")
	assert.Equal(t, int64(-2), metrics.drifts[tenant])

	mov, err := f.svc.GetMovement(ctx, tenant, drift.MovementID)
	require.NoError(t, err)
	assert.Equal(t, entity.MovementAdjustment, mov.Kind)
	assert.Equal(t, inventory.ReconciliationReason, mov.Reason)
	assert.Empty(t, mov.WarehouseID)
	assert.Equal(t, int64(-2), mov.Delta)
	f.assertConsistent(t, prodP)

	// Idempotente: la segunda corrida no encuentra nada.
	again, err := job.Run(ctx, inventory.ReconcileOptions{TenantID: tenant})
	require.NoError(t, err)
	assert.Empty(t, again.Drifts)
	assert.Empty(t, again.ReplayMismatches)
}

// Σ bodegas manda: un ajuste sin bodega que baja el total se compensa en la siguiente corrida
// y ambos movimientos quedan en el libro.
func TestReconciliation_AjusteSinBodegaNegativoSeCompensa(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.inbound(t, prodP, whW1, 10)

	adj, err := f.svc.RecordAdjustment(ctx, inventory.AdjustmentInput{TenantID: tenant, ProductID: prodP, Delta: ptr(-3)})
	require.NoError(t, err)
	assert.Equal(t, int64(7), adj.Total(prodP))

	job, _ := newJob(f, 1)
	report, err := job.Run(ctx, inventory.ReconcileOptions{TenantID: tenant, UserID: "system"})
	require.NoError(t, err)
	require.Len(t, report.Drifts, 1)
	assert.Equal(t, int64(3), report.Drifts[0].Delta)

	qty, total := f.balances(t, prodP, whW1)
	assert.Equal(t, int64(10), qty)
	assert.Equal(t, int64(10), total)
	f.assertConsistent(t, prodP)

	ledger := f.ledger(t, prodP)
	require.Len(t, ledger, 3)
	var adjustments []int64
	for _, m := range ledger {
		if m.Kind == entity.MovementAdjustment {
			assert.False(t, m.IsReversed())
			adjustments = append(adjustments, m.Delta)
		}
	}
	assert.ElementsMatch(t, []int64{-3, 3}, adjustments)
}

func TestReconciliation_DryRunNoEscribe(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.inbound(t, prodP, whW1, 10)
	// Descuadre introducido por fuera del libro.
	require.NoError(t, f.store.Products().UpdateTotalStock(ctx, tenant, prodP, 13))

	job, _ := newJob(f, 1)
	report, err := job.Run(ctx, inventory.ReconcileOptions{TenantID: tenant, DryRun: true})
	require.NoError(t, err)
	assert.True(t, report.DryRun)
	require.Len(t, report.Drifts, 1)
	assert.Equal(t, int64(-3), report.Drifts[0].Delta)
	assert.Empty(t, report.Drifts[0].MovementID)

	require.Len(t, report.ReplayMismatches, 1)
	mm := report.ReplayMismatches[0]
	assert.Empty(t, mm.WarehouseID, "el descuadre está en el total")
	assert.Equal(t, int64(13), mm.Aggregate)
	assert.Equal(t, int64(10), mm.Ledger)

	_, total := f.balances(t, prodP, whW1)
	assert.Equal(t, int64(13), total, "dry run no corrige")
	assert.Len(t, f.ledger(t, prodP), 1)
}

func TestReconciliation_ReportaBodegaDistintaAlReplay(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.inbound(t, prodP, whW1, 10)
	require.NoError(t, f.store.Stock().Upsert(ctx, &entity.WarehouseStock{
		TenantID: tenant, ProductID: prodP, WarehouseID: whW1, Quantity: 8,
	}))

	job, _ := newJob(f, 1)
	report, err := job.Run(ctx, inventory.ReconcileOptions{TenantID: tenant})
	require.NoError(t, err)
	require.Len(t, report.Drifts, 1)
	assert.Equal(t, int64(-2), report.Drifts[0].Delta)
	require.Len(t, report.ReplayMismatches, 1)
	assert.Equal(t, whW1, report.ReplayMismatches[0].WarehouseID)
	assert.Equal(t, int64(8), report.ReplayMismatches[0].Aggregate)
	assert.Equal(t, int64(10), report.ReplayMismatches[0].Ledger)

	_, total := f.balances(t, prodP, whW1)
	assert.Equal(t, int64(8), total, "el total se alinea con Σ bodegas")
}

func TestReconciliation_TodosLosTenantsConParalelismo(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	now := time.Now().UTC()

	const otherTenant = "tenant-2"
	require.NoError(t, f.store.Warehouses().Create(ctx, &entity.Warehouse{ID: "wh-t2", TenantID: otherTenant, Name: "t2", Active: true}))
	for i := 0; i < 25; i++ {
		id := fmt.Sprintf("t2-prod-%02d", i)
		require.NoError(t, f.store.Products().Create(ctx, &entity.Product{ID: id, TenantID: otherTenant, SKU: id, Name: id, Cost: decimal.Zero, CreatedAt: now}))
		_, err := f.svc.RecordInbound(ctx, inventory.InboundInput{TenantID: otherTenant, ProductID: id, WarehouseID: "wh-t2", Quantity: int64(i + 1)})
		require.NoError(t, err)
		if i%5 == 0 {
			require.NoError(t, f.store.Products().UpdateTotalStock(ctx, otherTenant, id, int64(i+100)))
		}
	}

	job, metrics := newJob(f, 4)
	report, err := job.Run(ctx, inventory.ReconcileOptions{})
	require.NoError(t, err)
	assert.Equal(t, 2, report.Tenants)
	assert.Equal(t, 27, report.ProductsChecked)
	assert.Len(t, report.Drifts, 5)
	assert.Equal(t, int64(-99*5), metrics.drifts[otherTenant])
	for i := 1; i < len(report.Drifts); i++ {
		assert.Less(t, report.Drifts[i-1].ProductID, report.Drifts[i].ProductID, "el reporte sale ordenado")
	}

	for i := 0; i < 25; i += 5 {
		id := fmt.Sprintf("t2-prod-%02d", i)
		ps, err := f.svc.GetProductStock(ctx, otherTenant, id)
		require.NoError(t, err)
		assert.Equal(t, int64(i+1), ps.Product.TotalStock)
	}
}

func TestReconciliation_ContextoCancelado(t *testing.T) {
	f := newFixture(t)
	f.inbound(t, prodP, whW1, 1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	job, _ := newJob(f, 1)
	_, err := job.Run(ctx, inventory.ReconcileOptions{TenantID: tenant})
	assert.Error(t, err)
}

