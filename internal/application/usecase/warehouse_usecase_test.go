package usecase_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-ledger/internal/application/dto"
	"github.com/jhoicas/stock-ledger/internal/application/inventory"
	"github.com/jhoicas/stock-ledger/internal/application/usecase"
	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/memory"
)

const tenant = "tenant-1"

func newWarehouseUseCase(t *testing.T) (*usecase.WarehouseUseCase, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	require.NoError(t, store.Products().Create(context.Background(), &entity.Product{
		ID: "p1", TenantID: tenant, SKU: "SKU-1", Name: "Producto", Cost: decimal.Zero, CreatedAt: time.Now(),
	}))
	return usecase.NewWarehouseUseCase(store.Warehouses(), store.Stock(), store), store
}

func TestWarehouseUseCase_CrearYConsultar(t *testing.T) {
	uc, _ := newWarehouseUseCase(t)
	ctx := context.Background()

	created, err := uc.Create(ctx, tenant, dto.CreateWarehouseRequest{Name: "  Principal ", Address: "Calle 1"})
	require.NoError(t, err)
	assert.Equal(t, "Principal", created.Name)
	assert.True(t, created.Active, "una bodega nueva nace activa")

	got, err := uc.GetByID(ctx, tenant, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)

	_, err = uc.GetByID(ctx, "otro-tenant", created.ID)
	assert.ErrorIs(t, err, domain.ErrUnknownWarehouse)

	list, err := uc.List(ctx, tenant, 20, 0)
	require.NoError(t, err)
	assert.Len(t, list.Items, 1)

	_, err = uc.Create(ctx, tenant, dto.CreateWarehouseRequest{Name: "   "})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestWarehouseUseCase_DesactivarSoloSinStock(t *testing.T) {
	uc, store := newWarehouseUseCase(t)
	ctx := context.Background()
	wh, err := uc.Create(ctx, tenant, dto.CreateWarehouseRequest{Name: "Principal"})
	require.NoError(t, err)

	svc := inventory.NewMovementService(store, store.Products(), store.Stock(), store.Movements(), nil)
	in, err := svc.RecordInbound(ctx, inventory.InboundInput{TenantID: tenant, ProductID: "p1", WarehouseID: wh.ID, Quantity: 3})
	require.NoError(t, err)

	_, err = uc.Deactivate(ctx, tenant, wh.ID)
	assert.ErrorIs(t, err, domain.ErrWarehouseHasStock)

	stock, err := uc.Stock(ctx, tenant, wh.ID, 20, 0)
	require.NoError(t, err)
	require.Len(t, stock.Items, 1)
	assert.Equal(t, int64(3), stock.Items[0].Quantity)

	// Con el saldo en cero (la fila queda) ya se puede desactivar.
	_, err = svc.ReverseMovement(ctx, inventory.ReverseInput{TenantID: tenant, MovementID: in.Movements[0].ID})
	require.NoError(t, err)
	off, err := uc.Deactivate(ctx, tenant, wh.ID)
	require.NoError(t, err)
	assert.False(t, off.Active)

	_, err = svc.RecordInbound(ctx, inventory.InboundInput{TenantID: tenant, ProductID: "p1", WarehouseID: wh.ID, Quantity: 1})
	assert.ErrorIs(t, err, domain.ErrWarehouseInactive)

	on, err := uc.Activate(ctx, tenant, wh.ID)
	require.NoError(t, err)
	assert.True(t, on.Active)
}

func TestWarehouseUseCase_DesconocidaAlDesactivar(t *testing.T) {
	uc, _ := newWarehouseUseCase(t)
	_, err := uc.Deactivate(context.Background(), tenant, "nope")
	assert.ErrorIs(t, err, domain.ErrUnknownWarehouse)
}
