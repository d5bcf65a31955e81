package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/Freeeeeet/speaking_scheduler/internal/model"
	"github.com/Freeeeeet/speaking_scheduler/internal/repository/base"
)

type TeacherRepository struct {
	*base.Repository
}

func NewTeacherRepository(b *base.Repository) *TeacherRepository {
	return &TeacherRepository{Repository: b}
}

// GetByID получает учителя по ID
func (r *TeacherRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Teacher, error) {
	query := `SELECT id, first_name, last_name, is_active, telegram_chat_id FROM teachers WHERE id = $1`

	var t model.Teacher
	err := r.QueryRow(ctx, query, id).Scan(&t.ID, &t.FirstName, &t.LastName, &t.IsActive, &t.TelegramChatID)
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get teacher by id: %w", err)
	}
	return &t, nil
}

// ListActive получает всех активных учителей
func (r *TeacherRepository) ListActive(ctx context.Context) ([]*model.Teacher, error) {
	query := `
		SELECT id, first_name, last_name, is_active, telegram_chat_id
		FROM teachers
		WHERE is_active = true
		ORDER BY last_name, first_name
	`

	rows, err := r.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list active teachers: %w", err)
	}
	defer rows.Close()

	var teachers []*model.Teacher
	for rows.Next() {
		var t model.Teacher
		if err := rows.Scan(&t.ID, &t.FirstName, &t.LastName, &t.IsActive, &t.TelegramChatID); err != nil {
			return nil, fmt.Errorf("scan teacher: %w", err)
		}
		teachers = append(teachers, &t)
	}
	return teachers, rows.Err()
}

type StudentRepository struct {
	*base.Repository
}

func NewStudentRepository(b *base.Repository) *StudentRepository {
	return &StudentRepository{Repository: b}
}

// GetByID получает студента по ID
func (r *StudentRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Student, error) {
	query := `SELECT id, first_name, last_name, current_level FROM students WHERE id = $1`

	var (
		s     model.Student
		level *string
	)
	err := r.QueryRow(ctx, query, id).Scan(&s.ID, &s.FirstName, &s.LastName, &level)
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get student by id: %w", err)
	}
	s.CurrentLevel = toLevel(level)
	return &s, nil
}

// UpdateCurrentLevel обновляет текущий уровень студента
func (r *StudentRepository) UpdateCurrentLevel(ctx context.Context, id uuid.UUID, level model.Level) error {
	n, err := r.ExecAffected(ctx, `UPDATE students SET current_level = $2 WHERE id = $1`, id, string(level))
	if err != nil {
		return fmt.Errorf("update student level: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("update student level: student %s not found", id)
	}
	return nil
}

type TestSessionRepository struct {
	*base.Repository
}

func NewTestSessionRepository(b *base.Repository) *TestSessionRepository {
	return &TestSessionRepository{Repository: b}
}

// GetByID получает тестовую сессию по ID
func (r *TestSessionRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.TestSession, error) {
	query := `SELECT id, student_id, status FROM test_sessions WHERE id = $1`

	var (
		s      model.TestSession
		status string
	)
	err := r.QueryRow(ctx, query, id).Scan(&s.ID, &s.StudentID, &status)
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get test session by id: %w", err)
	}
	s.Status = model.TestSessionStatus(status)
	return &s, nil
}

// UpdateStatus обновляет статус тестовой сессии
func (r *TestSessionRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.TestSessionStatus) error {
	n, err := r.ExecAffected(ctx, `UPDATE test_sessions SET status = $2 WHERE id = $1`, id, string(status))
	if err != nil {
		return fmt.Errorf("update test session status: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("update test session status: session %s not found", id)
	}
	return nil
}
