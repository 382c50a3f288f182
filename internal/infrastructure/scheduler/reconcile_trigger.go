// Package scheduler dispara la conciliación de stock de forma periódica.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/jhoicas/stock-ledger/internal/application/inventory"
	"github.com/jhoicas/stock-ledger/pkg/logger"
)

// Reconciler es lo que el trigger necesita del job de conciliación.
type Reconciler interface {
	Run(ctx context.Context, opts inventory.ReconcileOptions) (*inventory.ReconcileReport, error)
}

// Config intervalo entre corridas y si se corre una al arrancar.
type Config struct {
	Interval   time.Duration
	RunOnStart bool
	UserID     string // created_by de los ajustes correctivos
}

// ReconcileTrigger corre el job cada Interval. Nunca hay dos corridas a la vez:
// si una corrida tarda más que el intervalo, los ticks intermedios se descartan.
type ReconcileTrigger struct {
	config     Config
	reconciler Reconciler
	log        *logger.Logger

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
	runs      int
	lastRun   *inventory.ReconcileReport
}

// NewReconcileTrigger construye el trigger.
func NewReconcileTrigger(config Config, reconciler Reconciler, log *logger.Logger) *ReconcileTrigger {
	if config.UserID == "" {
		config.UserID = "system"
	}
	if log == nil {
		log = logger.Nop()
	}
	return &ReconcileTrigger{
		config:     config,
		reconciler: reconciler,
		log:        log.Component("reconcile-scheduler"),
	}
}

// Start arranca el loop. Con Interval <= 0 no hace nada.
func (t *ReconcileTrigger) Start(ctx context.Context) error {
	if t.config.Interval <= 0 {
		t.log.Info().Msg("conciliación programada desactivada")
		return nil
	}
	t.mu.Lock()
	if t.isRunning {
		t.mu.Unlock()
		return nil
	}
	t.isRunning = true
	t.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	t.cancel = cancel

	t.wg.Add(1)
	go t.runLoop(ctx)

	t.log.Info().
		Dur("interval", t.config.Interval).
		Bool("run_on_start", t.config.RunOnStart).
		Msg("conciliación programada iniciada")
	return nil
}

// Stop detiene el loop y espera la corrida en curso (o hasta que ctx venza).
func (t *ReconcileTrigger) Stop(ctx context.Context) error {
	t.mu.Lock()
	if !t.isRunning {
		t.mu.Unlock()
		return nil
	}
	t.isRunning = false
	t.mu.Unlock()

	if t.cancel != nil {
		t.cancel()
	}

	done := make(chan struct{})
	go func() {
		t.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		t.log.Info().Msg("conciliación programada detenida")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (t *ReconcileTrigger) runLoop(ctx context.Context) {
	defer t.wg.Done()

	if t.config.RunOnStart {
		t.runOnce(ctx)
	}

	ticker := time.NewTicker(t.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.runOnce(ctx)
		}
	}
}

func (t *ReconcileTrigger) runOnce(ctx context.Context) {
	report, err := t.reconciler.Run(ctx, inventory.ReconcileOptions{UserID: t.config.UserID})
	if err != nil {
		if ctx.Err() == nil {
			t.log.Error().Err(err).Msg("conciliación programada fallida")
		}
		return
	}
	t.mu.Lock()
	t.runs++
	t.lastRun = report
	t.mu.Unlock()
}

// Runs corridas completadas; /health lo publica.
func (t *ReconcileTrigger) Runs() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.runs
}

// LastReport último reporte completo, nil si aún no hubo corrida.
func (t *ReconcileTrigger) LastReport() *inventory.ReconcileReport {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.lastRun
}
