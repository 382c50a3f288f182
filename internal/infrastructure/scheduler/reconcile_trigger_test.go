package scheduler_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-ledger/internal/application/inventory"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/scheduler"
)

type fakeReconciler struct {
	calls  atomic.Int32
	userID atomic.Value
	err    error
}

func (f *fakeReconciler) Run(ctx context.Context, opts inventory.ReconcileOptions) (*inventory.ReconcileReport, error) {
	f.calls.Add(1)
	f.userID.Store(opts.UserID)
	if f.err != nil {
		return nil, f.err
	}
	return &inventory.ReconcileReport{ProductsChecked: 3}, nil
}

func TestReconcileTrigger_CorrePeriodicamente(t *testing.T) {
	rec := &fakeReconciler{}
	trig := scheduler.NewReconcileTrigger(scheduler.Config{Interval: 10 * time.Millisecond, RunOnStart: true}, rec, nil)

	require.NoError(t, trig.Start(context.Background()))
	require.Eventually(t, func() bool { return trig.Runs() >= 3 }, 2*time.Second, 5*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, trig.Stop(ctx))

	after := rec.calls.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, after, rec.calls.Load(), "no debe correr después de Stop")
	assert.Equal(t, "system", rec.userID.Load())
	require.NotNil(t, trig.LastReport())
	assert.Equal(t, 3, trig.LastReport().ProductsChecked)
}

func TestReconcileTrigger_IntervaloCeroNoArranca(t *testing.T) {
	rec := &fakeReconciler{}
	trig := scheduler.NewReconcileTrigger(scheduler.Config{RunOnStart: true}, rec, nil)

	require.NoError(t, trig.Start(context.Background()))
	require.NoError(t, trig.Stop(context.Background()))
	assert.Zero(t, rec.calls.Load())
}

func TestReconcileTrigger_ErrorNoDetieneElLoop(t *testing.T) {
	rec := &fakeReconciler{err: errors.New("db caída")}
	trig := scheduler.NewReconcileTrigger(scheduler.Config{Interval: 5 * time.Millisecond}, rec, nil)

	require.NoError(t, trig.Start(context.Background()))
	require.Eventually(t, func() bool { return rec.calls.Load() >= 2 }, 2*time.Second, 5*time.Millisecond)
	require.NoError(t, trig.Stop(context.Background()))
	assert.Zero(t, trig.Runs())
	assert.Nil(t, trig.LastReport())
}
