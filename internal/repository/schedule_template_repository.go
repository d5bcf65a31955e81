package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"go.uber.org/zap"

	"github.com/Freeeeeet/speaking_scheduler/internal/model"
	"github.com/Freeeeeet/speaking_scheduler/internal/repository/base"
)

const templateColumns = `id, teacher_id, day_of_week, start_time, end_time, is_active, created_at, updated_at`

// ScheduleTemplateRepository управляет шаблонами недельного расписания учителей
type ScheduleTemplateRepository struct {
	*base.Repository
	logger *zap.Logger
}

// NewScheduleTemplateRepository создаёт новый репозиторий
func NewScheduleTemplateRepository(b *base.Repository, logger *zap.Logger) *ScheduleTemplateRepository {
	return &ScheduleTemplateRepository{
		Repository: b,
		logger:     logger,
	}
}

// Create создаёт новый шаблон
func (r *ScheduleTemplateRepository) Create(ctx context.Context, tpl *model.TeacherScheduleTemplate) error {
	query := `
		INSERT INTO teacher_schedule_templates (teacher_id, day_of_week, start_time, end_time, is_active)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`

	err := r.QueryRow(
		ctx,
		query,
		tpl.TeacherID,
		tpl.DayOfWeek,
		base.ClockToPg(tpl.StartTime),
		base.ClockToPg(tpl.EndTime),
		tpl.IsActive,
	).Scan(&tpl.ID, &tpl.CreatedAt, &tpl.UpdatedAt)

	if err != nil {
		return fmt.Errorf("create schedule template: %w", err)
	}

	return nil
}

// GetByID получает шаблон по ID
func (r *ScheduleTemplateRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.TeacherScheduleTemplate, error) {
	query := `SELECT ` + templateColumns + ` FROM teacher_schedule_templates WHERE id = $1`

	tpl, err := scanTemplate(r.QueryRow(ctx, query, id))
	if base.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get schedule template by id: %w", err)
	}

	return tpl, nil
}

// ListActiveByTeacher получает активные шаблоны учителя
func (r *ScheduleTemplateRepository) ListActiveByTeacher(ctx context.Context, teacherID uuid.UUID) ([]*model.TeacherScheduleTemplate, error) {
	query := `
		SELECT ` + templateColumns + `
		FROM teacher_schedule_templates
		WHERE teacher_id = $1 AND is_active = true
		ORDER BY day_of_week, start_time
	`

	rows, err := r.Query(ctx, query, teacherID)
	if err != nil {
		return nil, fmt.Errorf("list active schedule templates: %w", err)
	}
	defer rows.Close()

	var templates []*model.TeacherScheduleTemplate
	for rows.Next() {
		tpl, err := scanTemplate(rows)
		if err != nil {
			return nil, fmt.Errorf("scan schedule template: %w", err)
		}
		templates = append(templates, tpl)
	}

	return templates, rows.Err()
}

// Deactivate деактивирует шаблон. Возвращает false, если активного шаблона с таким ID нет.
func (r *ScheduleTemplateRepository) Deactivate(ctx context.Context, id uuid.UUID) (bool, error) {
	query := `UPDATE teacher_schedule_templates SET is_active = false, updated_at = NOW() WHERE id = $1 AND is_active`

	n, err := r.ExecAffected(ctx, query, id)
	if err != nil {
		return false, fmt.Errorf("deactivate schedule template: %w", err)
	}

	r.logger.Debug("Schedule template deactivated", zap.String("template_id", id.String()), zap.Int64("rows", n))
	return n > 0, nil
}

func scanTemplate(row interface{ Scan(...any) error }) (*model.TeacherScheduleTemplate, error) {
	var (
		tpl        model.TeacherScheduleTemplate
		start, end pgtype.Time
	)
	err := row.Scan(
		&tpl.ID,
		&tpl.TeacherID,
		&tpl.DayOfWeek,
		&start,
		&end,
		&tpl.IsActive,
		&tpl.CreatedAt,
		&tpl.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	tpl.StartTime = base.ClockFromPg(start)
	tpl.EndTime = base.ClockFromPg(end)
	return &tpl, nil
}
