package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/Freeeeeet/speaking_scheduler/internal/app"
	"github.com/Freeeeeet/speaking_scheduler/internal/auth"
	"github.com/Freeeeeet/speaking_scheduler/internal/config"
	"github.com/Freeeeeet/speaking_scheduler/internal/service"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load()
	if err != nil {
		log.Printf("Failed to load config: %v", err)
		return 1
	}

	logger := app.NewLogger(cfg.Environment, cfg.LogLevel)
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var pool *pgxpool.Pool
	connect := func(ctx context.Context) (*pgxpool.Pool, error) {
		if pool != nil {
			return pool, nil
		}
		pool, err = app.NewPool(ctx, cfg.DBDSN)
		return pool, err
	}
	defer func() {
		if pool != nil {
			pool.Close()
		}
	}()

	cli := &commandLine{
		out: os.Stdout,
		migrator: func(ctx context.Context) (migrator, error) {
			p, err := connect(ctx)
			if err != nil {
				return nil, err
			}
			return app.NewMigrator(p, logger)
		},
		generator: func(ctx context.Context) (slotGenerator, error) {
			p, err := connect(ctx)
			if err != nil {
				return nil, err
			}
			services, err := app.NewServices(p, cfg, nil, logger)
			if err != nil {
				return nil, err
			}
			return services.Schedules, nil
		},
		tokens: func() (tokenIssuer, error) {
			return auth.NewManager(cfg.JWTSecret, cfg.JWTTTL), nil
		},
		autogenOpts: func() (service.AutoGenerateOptions, error) {
			return cfg.Autogen.Options()
		},
	}

	if err := cli.run(ctx, os.Args); err != nil {
		if errors.Is(err, errHelp) {
			return 2
		}
		logger.Error("Command failed", zap.Error(err))
		return 1
	}
	return 0
}
