package app

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/Freeeeeet/speaking_scheduler/internal/service"
)

const autogenLockName = "autogen"

// AutoGenerator creates upcoming slots for every active teacher
type AutoGenerator interface {
	AutoGenerateSlots(ctx context.Context, opts service.AutoGenerateOptions) (*service.AutoGenerateResult, error)
}

// Locker keeps replicas from running the same cycle twice
type Locker interface {
	TryLock(ctx context.Context, name string, ttl time.Duration) (release func(), ok bool, err error)
}

// Scheduler управляет фоновыми задачами
type Scheduler struct {
	generator AutoGenerator
	locker    Locker
	opts      service.AutoGenerateOptions
	interval  time.Duration
	logger    *zap.Logger

	stopChan chan struct{}
	stopOnce sync.Once
	started  atomic.Bool
	done     chan struct{}
}

// NewScheduler создаёт новый планировщик. locker может быть nil, если реплика одна.
func NewScheduler(generator AutoGenerator, locker Locker, opts service.AutoGenerateOptions, interval time.Duration, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		generator: generator,
		locker:    locker,
		opts:      opts,
		interval:  interval,
		logger:    logger,
		stopChan:  make(chan struct{}),
		done:      make(chan struct{}),
	}
}

// Start запускает фоновые задачи
func (s *Scheduler) Start(ctx context.Context) {
	s.logger.Info("Starting background scheduler", zap.Duration("interval", s.interval))
	s.started.Store(true)

	go s.runSlotGenerationTask(ctx)
}

// Stop останавливает фоновые задачи и ждёт завершения текущего цикла
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		s.logger.Info("Stopping background scheduler")
		close(s.stopChan)
	})
	if s.started.Load() {
		<-s.done
	}
}

func (s *Scheduler) runSlotGenerationTask(ctx context.Context) {
	defer close(s.done)

	// Первый запуск сразу при старте
	s.RunOnce(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.RunOnce(ctx)
		case <-s.stopChan:
			s.logger.Info("Slot generation task stopped")
			return
		case <-ctx.Done():
			s.logger.Info("Slot generation task cancelled")
			return
		}
	}
}

// RunOnce runs a single generation cycle, skipping it when another replica
// holds the lock.
func (s *Scheduler) RunOnce(ctx context.Context) {
	if s.locker != nil {
		release, ok, err := s.locker.TryLock(ctx, autogenLockName, s.interval/2)
		if err != nil {
			s.logger.Error("Failed to take slot generation lock", zap.Error(err))
			return
		}
		if !ok {
			s.logger.Info("Slot generation is running elsewhere, skipping")
			return
		}
		defer release()
	}

	s.logger.Info("Starting automatic slot generation")

	opts := s.opts
	opts.Now = time.Now()
	result, err := s.generator.AutoGenerateSlots(ctx, opts)
	if err != nil {
		s.logger.Error("Failed to generate slots", zap.Error(err))
		if result == nil {
			return
		}
	}

	s.logger.Info("Automatic slot generation completed",
		zap.Int("teachers_processed", result.TeachersProcessed),
		zap.Int("total_teachers", result.TotalTeachers),
		zap.Int64("slots_created", result.SlotsCreated),
	)
}
