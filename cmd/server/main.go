package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/Freeeeeet/speaking_scheduler/internal/app"
	"github.com/Freeeeeet/speaking_scheduler/internal/auth"
	"github.com/Freeeeeet/speaking_scheduler/internal/config"
	"github.com/Freeeeeet/speaking_scheduler/internal/controller"
	"github.com/Freeeeeet/speaking_scheduler/internal/lock"
	"github.com/Freeeeeet/speaking_scheduler/internal/metrics"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := app.NewLogger(cfg.Environment, cfg.LogLevel)
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("Server stopped with error", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("Starting speaking scheduler", zap.String("environment", cfg.Environment))

	pool, err := app.NewPool(ctx, cfg.DBDSN)
	if err != nil {
		return err
	}
	defer pool.Close()

	migrator, err := app.NewMigrator(pool, logger)
	if err != nil {
		return err
	}
	err = migrator.Run(ctx)
	_ = migrator.Close()
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	services, err := app.NewServices(pool, cfg, m, logger)
	if err != nil {
		return err
	}

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := controller.NewRouter(controller.RouterDeps{
		Schedules:    services.Schedules,
		Slots:        services.Slots,
		Tokens:       auth.NewManager(cfg.JWTSecret, cfg.JWTTTL),
		DB:           pool,
		Gatherer:     reg,
		Metrics:      m,
		AllowOrigins: cfg.CORSAllowOrigins,
		Logger:       logger,
	})

	if cfg.Autogen.Enabled {
		opts, err := cfg.Autogen.Options()
		if err != nil {
			return err
		}

		var locker app.Locker
		if cfg.RedisAddr != "" {
			rdb, err := lock.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
			if err != nil {
				return err
			}
			defer rdb.Close()
			locker = lock.NewRedisLocker(rdb, logger)
		}

		scheduler := app.NewScheduler(services.Schedules, locker, opts, cfg.Autogen.Interval, logger)
		scheduler.Start(ctx)
		defer scheduler.Stop()
	}

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
