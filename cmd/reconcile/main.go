package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/jhoicas/stock-ledger/internal/application/inventory"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/postgres"
	"github.com/jhoicas/stock-ledger/pkg/config"
	"github.com/jhoicas/stock-ledger/pkg/logger"
)

// Corre una conciliación completa contra PostgreSQL y escribe el reporte JSON en stdout.
// Sale con código 2 si encontró descuadres o diferencias con el libro.
func main() {
	var (
		tenantID string
		dryRun   bool
		workers  int
		userID   string
	)
	flag.StringVar(&tenantID, "tenant", "", "Inquilino a conciliar (vacío = todos)")
	flag.BoolVar(&dryRun, "dry-run", false, "Solo reportar, sin escribir ajustes")
	flag.IntVar(&workers, "workers", 0, "Productos en paralelo (0 = LEDGER_RECONCILE_WORKERS)")
	flag.StringVar(&userID, "user", "reconcile-cli", "created_by de los ajustes correctivos")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.Log.Level, Output: os.Stderr})
	if workers <= 0 {
		workers = cfg.Ledger.ReconcileWorkers
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	job := inventory.NewReconciliationJob(
		postgres.NewTxRunner(pool, cfg.Ledger.LockTimeout),
		postgres.NewProductRepository(pool),
		log,
		nil,
		workers,
	)
	report, err := job.Run(ctx, inventory.ReconcileOptions{TenantID: tenantID, DryRun: dryRun, UserID: userID})
	if err != nil {
		log.Fatal().Err(err).Msg("conciliación")
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		log.Fatal().Err(err).Msg("escribir reporte")
	}
	if len(report.Drifts) > 0 || len(report.ReplayMismatches) > 0 {
		pool.Close()
		os.Exit(2)
	}
}
