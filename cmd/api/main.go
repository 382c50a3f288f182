package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/jhoicas/stock-ledger/internal/application/integration"
	"github.com/jhoicas/stock-ledger/internal/application/inventory"
	"github.com/jhoicas/stock-ledger/internal/application/usecase"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/memory"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/metrics"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/postgres"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/scheduler"
	httpRouter "github.com/jhoicas/stock-ledger/internal/interfaces/http"
	"github.com/jhoicas/stock-ledger/pkg/config"
	"github.com/jhoicas/stock-ledger/pkg/logger"
)

// storage repos de lectura fuera de transacción más el runner transaccional.
type storage struct {
	txRunner   inventory.TxRunner
	products   repository.ProductRepository
	warehouses repository.WarehouseRepository
	stock      repository.WarehouseStockRepository
	movements  repository.StockMovementRepository
	ping       func(ctx context.Context) error
	close      func()
}

func openStorage(ctx context.Context, cfg *config.Config, log *logger.Logger) (*storage, error) {
	if cfg.DB.Driver == "memory" {
		log.Warn().Msg("driver memory: los datos no se persisten")
		store := memory.NewStore().WithLockTimeout(cfg.Ledger.LockTimeout)
		return &storage{
			txRunner:   store,
			products:   store.Products(),
			warehouses: store.Warehouses(),
			stock:      store.Stock(),
			movements:  store.Movements(),
			ping:       func(context.Context) error { return nil },
			close:      func() {},
		}, nil
	}

	if cfg.DB.AutoMigrate {
		m, err := postgres.NewMigrator(cfg.DB.ConnectionString(), log)
		if err != nil {
			return nil, err
		}
		err = m.Up()
		_ = m.Close()
		if err != nil {
			return nil, err
		}
	}
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		return nil, err
	}
	return &storage{
		txRunner:   postgres.NewTxRunner(pool, cfg.Ledger.LockTimeout),
		products:   postgres.NewProductRepository(pool),
		warehouses: postgres.NewWarehouseRepository(pool),
		stock:      postgres.NewWarehouseStockRepository(pool),
		movements:  postgres.NewStockMovementRepository(pool),
		ping:       pool.Ping,
		close:      pool.Close,
	}, nil
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.Log.Level,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("db_driver", cfg.DB.Driver).
		Dur("lock_timeout", cfg.Ledger.LockTimeout).
		Msg("iniciando aplicación")

	ctx := context.Background()
	store, err := openStorage(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("inicializar almacenamiento")
	}
	defer store.close()

	m := metrics.New("stock_ledger")
	movementSvc := inventory.NewMovementService(store.txRunner, store.products, store.stock, store.movements, m)
	reconcileJob := inventory.NewReconciliationJob(store.txRunner, store.products, log, m, cfg.Ledger.ReconcileWorkers)
	warehouseUC := usecase.NewWarehouseUseCase(store.warehouses, store.stock, store.txRunner)
	productUC := usecase.NewProductUseCase(store.products)
	consumers := integration.NewConsumers(movementSvc)

	trigger := scheduler.NewReconcileTrigger(scheduler.Config{
		Interval:   cfg.Ledger.ReconcileInterval,
		RunOnStart: cfg.Ledger.ReconcileOnStart,
	}, reconcileJob, log)
	if err := trigger.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("arrancar conciliación programada")
	}

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 30,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())
	app.Use(m.FiberMiddleware())

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "Stock Ledger API",
	}))

	app.Get("/health", httpRouter.HealthHandler(httpRouter.HealthDeps{
		Service:   cfg.App.Name,
		Ping:      store.ping,
		Reconcile: trigger,
	}))
	app.Get("/metrics", adaptor.HTTPHandler(m.Handler()))

	httpRouter.Router(app, httpRouter.RouterDeps{
		Movements:      movementSvc,
		Reconciliation: reconcileJob,
		WarehouseUC:    warehouseUC,
		ProductUC:      productUC,
		Consumers:      consumers,
		JWTSecret:      cfg.JWT.Secret,
		Log:            log,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}
	if err := trigger.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("detener conciliación programada")
	}

	log.Info().Msg("aplicación detenida")
}
