package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jhoicas/retail-ledger/internal/application/inventory"
	"github.com/jhoicas/retail-ledger/internal/application/pricing"
	"github.com/jhoicas/retail-ledger/internal/application/sales"
	"github.com/jhoicas/retail-ledger/internal/application/transfers"
	"github.com/jhoicas/retail-ledger/internal/infrastructure/cache"
	"github.com/jhoicas/retail-ledger/internal/infrastructure/catalog"
	"github.com/jhoicas/retail-ledger/internal/infrastructure/memory"
	infrapdf "github.com/jhoicas/retail-ledger/internal/infrastructure/pdf"
	"github.com/jhoicas/retail-ledger/internal/infrastructure/postgres"
	httpRouter "github.com/jhoicas/retail-ledger/internal/interfaces/http"
	"github.com/jhoicas/retail-ledger/pkg/config"
	"github.com/jhoicas/retail-ledger/pkg/logger"
	"github.com/jhoicas/retail-ledger/pkg/telemetry"
)

const swaggerFile = "./docs/swagger.json"

// txRunner lo cumplen postgres.TxRunner y memory.TxRunner.
type txRunner interface {
	inventory.TxRunner
	pricing.TxRunner
	sales.TxRunner
	transfers.TxRunner
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:     cfg.App.Env,
		Level:   cfg.App.LogLevel,
		Service: cfg.App.Name,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("storage", cfg.App.StorageDriver).
		Msg("iniciando aplicación")

	ctx := context.Background()

	shutdownTracing, err := telemetry.Setup(ctx, telemetry.Config{
		Endpoint:    cfg.Telemetry.Endpoint,
		ServiceName: cfg.Telemetry.ServiceName,
		Insecure:    cfg.App.Env != "production",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("configurar trazas")
	}

	var runner txRunner
	switch cfg.App.StorageDriver {
	case config.StorageMemory:
		db := memory.NewDB()
		if cfg.Catalog.File != "" {
			loadCatalog(ctx, log, cfg.Catalog, memory.NewCatalogSink(db))
		}
		runner = memory.NewTxRunner(db)
		log.Warn().Msg("almacenamiento en memoria: los datos se pierden al reiniciar")
	default:
		if cfg.App.MigrationsAuto {
			migrateUp(log, cfg.DB.ConnectionString())
		}
		pool, err := postgres.NewPool(ctx, cfg.DB)
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a PostgreSQL")
		}
		defer pool.Close()
		runner = postgres.NewTxRunner(pool)
	}

	idemStore, idemCloser, err := cache.NewIdempotencyStore(ctx, cache.RedisConfig{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}, cfg.App.Env != "production", log.Component("idempotency"))
	if err != nil {
		log.Fatal().Err(err).Msg("store de idempotencia")
	}
	defer idemCloser.Close()

	stockSvc := inventory.NewStockService(runner, log.Component("stock"))
	resolver := pricing.NewResolver(runner)
	saleSvc := sales.NewSaleService(runner, stockSvc, resolver, log.Component("sales"))
	receiptSvc := sales.NewReceiptService(saleSvc, infrapdf.NewMarotoReceiptGenerator(cfg.App.Name))
	transferSvc := transfers.NewTransferService(runner, stockSvc, log.Component("transfers"))

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 30,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs (docs generados con swag init)
	if _, err := os.Stat(swaggerFile); err == nil {
		app.Use(swagger.New(swagger.Config{
			BasePath: "/",
			FilePath: swaggerFile,
			Path:     "docs",
			Title:    "Retail Ledger API",
		}))
	}

	httpRouter.Router(app, httpRouter.RouterDeps{
		Stock:          stockSvc,
		Sales:          saleSvc,
		Receipts:       receiptSvc,
		Transfers:      transferSvc,
		Prices:         resolver,
		Idempotency:    idemStore,
		IdempotencyTTL: cfg.Idempotency.TTL,
		JWTSecret:      cfg.JWT.Secret,
		JWTIssuer:      cfg.JWT.Issuer,
		ServiceName:    cfg.App.Name,
		Logger:         log.Component("http"),
		RequestTimeout: cfg.HTTP.RequestTimeout,
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
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado de trazas")
	}

	log.Info().Msg("aplicación detenida")
}

func migrateUp(log *logger.Logger, databaseURL string) {
	m, err := postgres.NewMigrator(databaseURL, log.Component("migrate"))
	if err != nil {
		log.Fatal().Err(err).Msg("preparar migraciones")
	}
	defer m.Close()
	if err := m.Up(); err != nil {
		log.Fatal().Err(err).Msg("aplicar migraciones")
	}
}

func loadCatalog(ctx context.Context, log *logger.Logger, cfg config.CatalogConfig, sink catalog.Sink) {
	f, err := os.Open(cfg.File)
	if err != nil {
		log.Fatal().Err(err).Str("file", cfg.File).Msg("abrir catálogo")
	}
	defer f.Close()

	cat, err := catalog.Parse(f, cfg.TenantID, cfg.Encoding)
	if err != nil {
		log.Fatal().Err(err).Str("file", cfg.File).Msg("leer catálogo")
	}
	sum, err := cat.Apply(ctx, sink)
	if err != nil {
		log.Fatal().Err(err).Msg("cargar catálogo")
	}
	log.Info().
		Int("stores", sum.Stores).
		Int("variants", sum.Variants).
		Int("prices", sum.Prices).
		Msg("catálogo cargado")
}
