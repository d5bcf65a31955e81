package app

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/Freeeeeet/speaking_scheduler/internal/config"
	"github.com/Freeeeeet/speaking_scheduler/internal/metrics"
	"github.com/Freeeeeet/speaking_scheduler/internal/notify"
	"github.com/Freeeeeet/speaking_scheduler/internal/repository"
	"github.com/Freeeeeet/speaking_scheduler/internal/repository/base"
	"github.com/Freeeeeet/speaking_scheduler/internal/service"
)

// NewPool connects to PostgreSQL and checks the connection.
func NewPool(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse db dsn: %w", err)
	}
	poolCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create db pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	return pool, nil
}

// Services holds the wired business layer.
type Services struct {
	Schedules *service.ScheduleService
	Slots     *service.SpeakingSlotService
}

// NewServices builds repositories and services on top of pool. Teachers are
// notified over Telegram when a token is configured, otherwise events are only logged.
func NewServices(pool *pgxpool.Pool, cfg *config.Config, m *metrics.Metrics, logger *zap.Logger) (*Services, error) {
	b := base.NewRepository(pool)
	tx := base.NewTxManager(pool)

	templates := repository.NewScheduleTemplateRepository(b, logger)
	teachers := repository.NewTeacherRepository(b)
	students := repository.NewStudentRepository(b)
	sessions := repository.NewTestSessionRepository(b)
	slots := repository.NewSpeakingSlotRepository(b)

	var notifier service.Notifier = notify.NewLog(logger)
	if cfg.TelegramToken != "" {
		tgBot, err := notify.NewTelegramBot(cfg.TelegramToken)
		if err != nil {
			return nil, err
		}
		notifier = notify.NewTelegram(tgBot, teachers, logger)
		logger.Info("Telegram notifications enabled")
	}

	return &Services{
		Schedules: service.NewScheduleService(templates, teachers, slots, tx, m, logger),
		Slots:     service.NewSpeakingSlotService(slots, sessions, students, tx, notifier, m, logger),
	}, nil
}
