//go:build integration

package postgres_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/jhoicas/stock-ledger/internal/application/inventory"
	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/postgres"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test: PostgreSQL real en contenedor + migraciones embebidas
// ──────────────────────────────────────────────────────────────────────────────

type ledgerDB struct {
	pool     *pgxpool.Pool
	svc      *inventory.MovementService
	tenantID string
	product  string
	w1, w2   string
}

func newLedgerDB(t *testing.T, lockTimeout time.Duration) *ledgerDB {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("ledger_test"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err, "no se pudo iniciar el contenedor PostgreSQL")
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	m, err := postgres.NewMigrator(dsn, nil)
	require.NoError(t, err)
	require.NoError(t, m.Up())
	require.NoError(t, m.Close())

	pool, err := postgres.NewPoolFromURL(ctx, dsn, 10)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	db := &ledgerDB{
		pool:     pool,
		tenantID: uuid.NewString(),
		product:  uuid.NewString(),
		w1:       uuid.NewString(),
		w2:       uuid.NewString(),
	}
	now := time.Now().UTC()
	require.NoError(t, postgres.NewProductRepository(pool).Create(ctx, &entity.Product{
		ID: db.product, TenantID: db.tenantID, SKU: "SKU-1", Name: "Producto", Cost: decimal.Zero, CreatedAt: now, UpdatedAt: now,
	}))
	whRepo := postgres.NewWarehouseRepository(pool)
	for i, id := range []string{db.w1, db.w2} {
		require.NoError(t, whRepo.Create(ctx, &entity.Warehouse{
			ID: id, TenantID: db.tenantID, Name: []string{"Principal", "Secundaria"}[i], Active: true, CreatedAt: now, UpdatedAt: now,
		}))
	}

	db.svc = inventory.NewMovementService(
		postgres.NewTxRunner(pool, lockTimeout),
		postgres.NewProductRepository(pool),
		postgres.NewWarehouseStockRepository(pool),
		postgres.NewStockMovementRepository(pool),
		nil,
	)
	return db
}

func (db *ledgerDB) inbound(t *testing.T, warehouseID string, qty int64) *inventory.MovementResult {
	t.Helper()
	res, err := db.svc.RecordInbound(context.Background(), inventory.InboundInput{
		TenantID: db.tenantID, ProductID: db.product, WarehouseID: warehouseID, Quantity: qty,
	})
	require.NoError(t, err)
	return res
}

// ──────────────────────────────────────────────────────────────────────────────
// Tests
// ──────────────────────────────────────────────────────────────────────────────

func TestPostgres_SalidasConcurrentesNoSobregiran(t *testing.T) {
	db := newLedgerDB(t, 5*time.Second)
	db.inbound(t, db.w1, 10)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = db.svc.RecordOutbound(context.Background(), inventory.OutboundInput{
				TenantID: db.tenantID, ProductID: db.product, WarehouseID: db.w1, Quantity: 6,
			})
		}(i)
	}
	wg.Wait()

	failed := 0
	for _, err := range errs {
		if err != nil {
			assert.ErrorIs(t, err, domain.ErrInsufficientWarehouseStock)
			failed++
		}
	}
	assert.Equal(t, 1, failed, "exactamente una salida debe fallar")

	ps, err := db.svc.GetProductStock(context.Background(), db.tenantID, db.product)
	require.NoError(t, err)
	assert.Equal(t, int64(4), ps.Product.TotalStock)
	require.Len(t, ps.Warehouses, 1)
	assert.Equal(t, int64(4), ps.Warehouses[0].Quantity)
}

func TestPostgres_TrasladoYReversion(t *testing.T) {
	db := newLedgerDB(t, 5*time.Second)
	ctx := context.Background()
	db.inbound(t, db.w1, 10)

	tr, err := db.svc.RecordTransfer(ctx, inventory.TransferInput{
		TenantID: db.tenantID, ProductID: db.product, FromWarehouseID: db.w1, ToWarehouseID: db.w2, Quantity: 4,
	})
	require.NoError(t, err)
	require.Len(t, tr.Movements, 2)

	res, err := db.svc.ReverseMovement(ctx, inventory.ReverseInput{TenantID: db.tenantID, MovementID: tr.Movements[0].ID})
	require.NoError(t, err)
	assert.Equal(t, int64(10), res.Quantity(db.product, db.w1))
	assert.Equal(t, int64(0), res.Quantity(db.product, db.w2))

	_, err = db.svc.ReverseMovement(ctx, inventory.ReverseInput{TenantID: db.tenantID, MovementID: tr.Movements[1].ID})
	assert.ErrorIs(t, err, domain.ErrAlreadyReversed)

	replay, err := postgres.NewStockMovementRepository(db.pool).ReplayProduct(ctx, db.tenantID, db.product)
	require.NoError(t, err)
	assert.Equal(t, int64(10), replay.Total)
	assert.Equal(t, int64(10), replay.ByWarehouse[db.w1])
	assert.Equal(t, int64(0), replay.ByWarehouse[db.w2])
}

func TestPostgres_BloqueoRetenidoDevuelveConcurrencyTimeout(t *testing.T) {
	db := newLedgerDB(t, 200*time.Millisecond)
	ctx := context.Background()
	db.inbound(t, db.w1, 10)

	holder, err := db.pool.Begin(ctx)
	require.NoError(t, err)
	defer func() { _ = holder.Rollback(ctx) }()
	_, err = holder.Exec(ctx, `SELECT id FROM products WHERE id = $1 FOR UPDATE`, db.product)
	require.NoError(t, err)

	start := time.Now()
	_, err = db.svc.RecordOutbound(ctx, inventory.OutboundInput{
		TenantID: db.tenantID, ProductID: db.product, WarehouseID: db.w1, Quantity: 1,
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrConcurrencyTimeout), "error: %v", err)
	assert.True(t, domain.IsRetryable(err))
	assert.Less(t, time.Since(start), 3*time.Second)
}

func TestPostgres_ConciliacionCorrigeTotal(t *testing.T) {
	db := newLedgerDB(t, 5*time.Second)
	ctx := context.Background()
	db.inbound(t, db.w1, 7)
	_, err := db.pool.Exec(ctx, `UPDATE products SET total_stock = 9 WHERE id = $1`, db.product)
	require.NoError(t, err)

	job := inventory.NewReconciliationJob(postgres.NewTxRunner(db.pool, time.Second), postgres.NewProductRepository(db.pool), nil, nil, 2)
	report, err := job.Run(ctx, inventory.ReconcileOptions{})
	require.NoError(t, err)
	require.Len(t, report.Drifts, 1)
	assert.Equal(t, int64(-2), report.Drifts[0].Delta)

	mov, err := db.svc.GetMovement(ctx, db.tenantID, report.Drifts[0].MovementID)
	require.NoError(t, err)
	assert.Equal(t, entity.MovementAdjustment, mov.Kind)
	assert.Empty(t, mov.WarehouseID)

	ps, err := db.svc.GetProductStock(ctx, db.tenantID, db.product)
	require.NoError(t, err)
	assert.Equal(t, int64(7), ps.Product.TotalStock)
}
