package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Freeeeeet/speaking_scheduler/internal/metrics"
	"github.com/Freeeeeet/speaking_scheduler/internal/model"
)

// Upper bounds for a single generation request.
const (
	MaxSlotDurationMinutes = 24 * 60
	MaxGenerateDays        = 366
)

// GenerateResult is the outcome of a generation run
type GenerateResult struct {
	SlotsCreated int64 `json:"slotsCreated"`
}

// AutoGenerateOptions controls AutoGenerateSlots.
type AutoGenerateOptions struct {
	DaysAhead    int
	WindowStart  model.ClockTime
	WindowEnd    model.ClockTime
	SlotDuration int
	Now          time.Time // zero means time.Now()
}

// DefaultAutoGenerateOptions covers the next three days, 13:00 to 16:00 in
// 15 minute slots.
func DefaultAutoGenerateOptions() AutoGenerateOptions {
	return AutoGenerateOptions{
		DaysAhead:    3,
		WindowStart:  model.NewClockTime(13, 0),
		WindowEnd:    model.NewClockTime(16, 0),
		SlotDuration: 15,
	}
}

type AutoGenerateResult struct {
	TeachersProcessed int   `json:"teachersProcessed"`
	TotalTeachers     int   `json:"totalTeachers"`
	SlotsCreated      int64 `json:"slotsCreated"`
}

// ScheduleService manages teacher templates and turns them into slots.
type ScheduleService struct {
	templates TemplateRepository
	teachers  TeacherRepository
	slots     SlotRepository
	tx        Transactor
	metrics   *metrics.Metrics
	logger    *zap.Logger
}

func NewScheduleService(
	templates TemplateRepository,
	teachers TeacherRepository,
	slots SlotRepository,
	tx Transactor,
	m *metrics.Metrics,
	logger *zap.Logger,
) *ScheduleService {
	return &ScheduleService{
		templates: templates,
		teachers:  teachers,
		slots:     slots,
		tx:        tx,
		metrics:   m,
		logger:    logger,
	}
}

// CreateTemplate создаёт шаблон расписания учителя
func (s *ScheduleService) CreateTemplate(ctx context.Context, teacherID uuid.UUID, dayOfWeek int, start, end model.ClockTime) (*model.TeacherScheduleTemplate, error) {
	if dayOfWeek < 0 || dayOfWeek > 6 {
		return nil, ErrInvalidDayOfWeek
	}
	if end <= start {
		return nil, ErrInvalidTimeWindow
	}

	if err := s.requireTeacher(ctx, teacherID); err != nil {
		return nil, err
	}

	tpl := &model.TeacherScheduleTemplate{
		TeacherID: teacherID,
		DayOfWeek: dayOfWeek,
		StartTime: start,
		EndTime:   end,
		IsActive:  true,
	}
	if err := s.templates.Create(ctx, tpl); err != nil {
		return nil, fmt.Errorf("create template: %w", err)
	}

	s.logger.Info("Schedule template created",
		zap.String("template_id", tpl.ID.String()),
		zap.String("teacher_id", teacherID.String()),
		zap.Int("day_of_week", dayOfWeek),
		zap.Stringer("start", start),
		zap.Stringer("end", end),
	)

	return tpl, nil
}

// CreateTemplatesFromWeeklySchedule creates one template per scheduled day,
// all or none.
func (s *ScheduleService) CreateTemplatesFromWeeklySchedule(ctx context.Context, teacherID uuid.UUID, schedule model.WeeklySchedule) ([]*model.TeacherScheduleTemplate, error) {
	if err := schedule.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSchedule, err)
	}
	if err := s.requireTeacher(ctx, teacherID); err != nil {
		return nil, err
	}

	templates := schedule.Templates()
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		for _, tpl := range templates {
			tpl.TeacherID = teacherID
			if err := s.templates.Create(ctx, tpl); err != nil {
				return fmt.Errorf("create template for day %d: %w", tpl.DayOfWeek, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Weekly schedule created",
		zap.String("teacher_id", teacherID.String()),
		zap.Int("templates", len(templates)),
	)

	return templates, nil
}

// ListActiveTemplates возвращает активные шаблоны учителя
func (s *ScheduleService) ListActiveTemplates(ctx context.Context, teacherID uuid.UUID) ([]*model.TeacherScheduleTemplate, error) {
	templates, err := s.templates.ListActiveByTeacher(ctx, teacherID)
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	return templates, nil
}

// DeactivateTemplate выключает шаблон. Созданные по нему слоты остаются.
func (s *ScheduleService) DeactivateTemplate(ctx context.Context, templateID uuid.UUID) error {
	ok, err := s.templates.Deactivate(ctx, templateID)
	if err != nil {
		return fmt.Errorf("deactivate template: %w", err)
	}
	if !ok {
		return ErrTemplateNotFound
	}

	s.logger.Info("Schedule template deactivated", zap.String("template_id", templateID.String()))
	return nil
}

// GenerateSlotsFromTemplate expands the teacher's active templates over
// [startDate, endDate] and inserts the slots in one transaction. Existing
// slots are not checked, so overlapping runs create duplicates.
func (s *ScheduleService) GenerateSlotsFromTemplate(ctx context.Context, teacherID uuid.UUID, startDate, endDate time.Time, slotDurationMinutes int) (*GenerateResult, error) {
	if slotDurationMinutes <= 0 || slotDurationMinutes > MaxSlotDurationMinutes {
		return nil, ErrInvalidSlotDuration
	}
	if model.DateOf(endDate).Sub(model.DateOf(startDate)) > MaxGenerateDays*24*time.Hour {
		return nil, ErrDateRangeTooLong
	}

	templates, err := s.templates.ListActiveByTeacher(ctx, teacherID)
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	if len(templates) == 0 {
		return nil, ErrNoActiveTemplates
	}

	candidates := ExpandTemplates(templates, startDate, endDate, slotDurationMinutes)
	if len(candidates) == 0 {
		s.logger.Info("No slots to generate",
			zap.String("teacher_id", teacherID.String()),
			zap.Time("start_date", startDate),
			zap.Time("end_date", endDate),
		)
		return &GenerateResult{}, nil
	}

	var created int64
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		n, err := s.slots.CreateBatch(ctx, candidates)
		created = n
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("insert slots: %w", err)
	}

	s.metrics.AddGenerated(created)
	s.logger.Info("Speaking slots generated",
		zap.String("teacher_id", teacherID.String()),
		zap.Int("templates", len(templates)),
		zap.Int64("slots_created", created),
	)

	return &GenerateResult{SlotsCreated: created}, nil
}

// AutoGenerateSlots makes sure every active teacher has slots on each of the
// next DaysAhead days. A day that already has any slot for the teacher is
// skipped. Each teacher-day batch is inserted atomically; a failing teacher
// does not stop the others.
func (s *ScheduleService) AutoGenerateSlots(ctx context.Context, opts AutoGenerateOptions) (*AutoGenerateResult, error) {
	if opts.SlotDuration <= 0 || opts.SlotDuration > MaxSlotDurationMinutes {
		return nil, ErrInvalidSlotDuration
	}
	if opts.WindowEnd <= opts.WindowStart {
		return nil, ErrInvalidTimeWindow
	}
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}
	started := time.Now()

	teachers, err := s.teachers.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("list teachers: %w", err)
	}

	result := &AutoGenerateResult{TotalTeachers: len(teachers)}
	today := model.DateOf(now)

	var errs []error
	for _, teacher := range teachers {
		created, err := s.fillTeacherDays(ctx, teacher.ID, today, opts)
		if err != nil {
			s.logger.Error("Failed to generate slots for teacher",
				zap.String("teacher_id", teacher.ID.String()),
				zap.Error(err),
			)
			errs = append(errs, fmt.Errorf("teacher %s: %w", teacher.ID, err))
		}
		if created > 0 {
			result.TeachersProcessed++
			result.SlotsCreated += created
		}
	}

	s.metrics.AddGenerated(result.SlotsCreated)
	s.metrics.ObserveAutogen(time.Since(started).Seconds())
	s.logger.Info("Automatic slot generation finished",
		zap.Int("teachers_processed", result.TeachersProcessed),
		zap.Int("total_teachers", result.TotalTeachers),
		zap.Int64("slots_created", result.SlotsCreated),
	)

	return result, errors.Join(errs...)
}

func (s *ScheduleService) fillTeacherDays(ctx context.Context, teacherID uuid.UUID, today time.Time, opts AutoGenerateOptions) (int64, error) {
	var created int64
	for i := 1; i <= opts.DaysAhead; i++ {
		date := today.AddDate(0, 0, i)

		existing, err := s.slots.CountByTeacherAndDate(ctx, teacherID, date)
		if err != nil {
			return created, fmt.Errorf("count slots on %s: %w", date.Format(model.DateLayout), err)
		}
		if existing > 0 {
			continue
		}

		slots := windowSlots(teacherID, date, opts.WindowStart, opts.WindowEnd, opts.SlotDuration)
		var n int64
		err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
			var err error
			n, err = s.slots.CreateBatch(ctx, slots)
			return err
		})
		if err != nil {
			return created, fmt.Errorf("insert slots on %s: %w", date.Format(model.DateLayout), err)
		}
		created += n
	}
	return created, nil
}

func (s *ScheduleService) requireTeacher(ctx context.Context, teacherID uuid.UUID) error {
	teacher, err := s.teachers.GetByID(ctx, teacherID)
	if err != nil {
		return fmt.Errorf("get teacher: %w", err)
	}
	if teacher == nil {
		return ErrTeacherNotFound
	}
	return nil
}
