package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bsm/redislock"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/kassa-pos/kassa/internal/app"
	"github.com/kassa-pos/kassa/internal/catalog"
	"github.com/kassa-pos/kassa/internal/debt"
	"github.com/kassa-pos/kassa/internal/income"
	"github.com/kassa-pos/kassa/internal/observability"
	"github.com/kassa-pos/kassa/internal/platform/cache"
	"github.com/kassa-pos/kassa/internal/platform/db"
	"github.com/kassa-pos/kassa/internal/returns"
	"github.com/kassa-pos/kassa/internal/sales"
	"github.com/kassa-pos/kassa/internal/shared"
	"github.com/kassa-pos/kassa/internal/stock"
	"github.com/kassa-pos/kassa/internal/workshop"
	"github.com/kassa-pos/kassa/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	dbpool, err := db.New(ctx, cfg.PGDSN, cfg.PGMaxConns)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	if cfg.AutoMigrate {
		if err := db.ApplySchema(ctx, dbpool); err != nil {
			logger.Error("apply schema", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("schema applied")
	}

	// Redis backs the stock cache, the workshop branch lock and the job
	// queue. Without it the ledger still runs, just without those.
	var (
		redisClient *redis.Client
		locker      *redislock.Client
		stockCache  *stock.Cache
		jobClient   *jobs.Client
		inspector   *asynq.Inspector
	)
	redisClient, err = cache.New(ctx, cache.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
	if err != nil {
		logger.Warn("redis unavailable, running without cache and jobs", slog.Any("error", err))
	} else {
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		}()
		locker = cache.NewLocker(redisClient)
		stockCache = stock.NewCache(redisClient, cfg.StockCacheTTL, logger)

		redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB}
		jobClient = jobs.NewClient(redisOpts, cfg.JobQueue)
		defer func() {
			if err := jobClient.Close(); err != nil {
				logger.Warn("job client close", slog.Any("error", err))
			}
		}()
		inspector = asynq.NewInspector(redisOpts)
		defer func() {
			if err := inspector.Close(); err != nil {
				logger.Warn("inspector close", slog.Any("error", err))
			}
		}()
	}

	metrics := observability.NewMetrics()
	auditLogger := shared.NewAuditLogger(dbpool)
	idempotencyStore := shared.NewIdempotencyStore()

	var (
		invalidator stock.CacheInvalidator
		notifier    stock.LowStockNotifier
	)
	if stockCache != nil {
		invalidator = stockCache
	}
	if jobClient != nil {
		notifier = jobClient
	}
	publisher := stock.NewPublisher(invalidator, notifier, logger)

	catalogRepo := catalog.NewRepository(dbpool)
	workshopResolver := catalog.NewWorkshopResolver(catalogRepo, locker, cfg.WorkshopBranchName, logger)

	stockService := stock.NewService(stock.NewRepository(dbpool), stockCache)

	debtService := debt.NewService(debt.NewRepository(dbpool), auditLogger, logger)

	salesService := sales.NewService(sales.NewRepository(dbpool, idempotencyStore), sales.ServiceDeps{
		Audit:     auditLogger,
		Publisher: publisher,
		Metrics:   metrics,
		Logger:    logger,
	})
	returnsService := returns.NewService(returns.NewRepository(dbpool), returns.ServiceDeps{
		Audit:     auditLogger,
		Publisher: publisher,
		Metrics:   metrics,
		Logger:    logger,
	})
	incomeService := income.NewService(income.NewRepository(dbpool), income.ServiceDeps{
		Audit:     auditLogger,
		Publisher: publisher,
		Metrics:   metrics,
		Logger:    logger,
		Workshop:  workshopResolver,
	})
	workshopService := workshop.NewService(workshop.NewRepository(dbpool), workshopResolver, workshop.ServiceDeps{
		Audit:     auditLogger,
		Publisher: publisher,
		Metrics:   metrics,
		Logger:    logger,
	})

	router := app.NewRouter(app.RouterParams{
		Logger:          logger,
		Config:          cfg,
		Metrics:         metrics,
		StockHandler:    stock.NewHandler(logger, stockService),
		DebtHandler:     debt.NewHandler(logger, debtService),
		SalesHandler:    sales.NewHandler(logger, salesService),
		ReturnsHandler:  returns.NewHandler(logger, returnsService),
		IncomeHandler:   income.NewHandler(logger, incomeService),
		WorkshopHandler: workshop.NewHandler(logger, workshopService, stockService, incomeService),
		JobHandler:      jobs.NewHandler(inspector, cfg.JobQueue, logger),
		Ready: func(r *http.Request) error {
			return dbpool.Ping(r.Context())
		},
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil {
		logger.Error("http server", slog.Any("error", err))
		os.Exit(1)
	}
}
