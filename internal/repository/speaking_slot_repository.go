package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/Freeeeeet/speaking_scheduler/internal/model"
	"github.com/Freeeeeet/speaking_scheduler/internal/repository/base"
)

// BookingConstraint is the partial unique index allowing one active booking per student and session.
const BookingConstraint = "uq_speaking_slots_session_student"

// ErrDuplicateBooking is returned by Book when the student already holds an
// active slot for the session.
var ErrDuplicateBooking = errors.New("duplicate speaking booking")

const slotColumns = `
	s.id, s.teacher_id, s.slot_date, s.slot_time, s.duration_minutes, s.status,
	s.student_id, s.test_session_id, s.score, s.feedback,
	s.mcq_level, s.speaking_level, s.final_level, s.created_at, s.updated_at`

const slotOrder = `ORDER BY s.slot_date, s.slot_time, s.id`

// SpeakingSlotRepository хранит слоты устного тестирования
type SpeakingSlotRepository struct {
	*base.Repository
}

func NewSpeakingSlotRepository(b *base.Repository) *SpeakingSlotRepository {
	return &SpeakingSlotRepository{Repository: b}
}

// CreateBatch inserts all slots with a single COPY. Callers wanting
// all-or-nothing semantics run it inside a transaction.
func (r *SpeakingSlotRepository) CreateBatch(ctx context.Context, slots []*model.SpeakingSlot) (int64, error) {
	now := time.Now()
	rows := make([][]any, 0, len(slots))
	for _, slot := range slots {
		if slot.ID == uuid.Nil {
			slot.ID = uuid.New()
		}
		slot.CreatedAt, slot.UpdatedAt = now, now
		rows = append(rows, []any{
			slot.ID,
			slot.TeacherID,
			slot.SlotDate,
			base.ClockToPg(slot.SlotTime),
			slot.DurationMinutes,
			string(slot.Status),
			now,
			now,
		})
	}

	n, err := r.CopyFrom(ctx, "speaking_slots", []string{
		"id", "teacher_id", "slot_date", "slot_time", "duration_minutes", "status", "created_at", "updated_at",
	}, rows)
	if err != nil {
		return 0, fmt.Errorf("copy speaking slots: %w", err)
	}
	return n, nil
}

// GetByID получает слот по ID
func (r *SpeakingSlotRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.SpeakingSlot, error) {
	query := `SELECT ` + slotColumns + ` FROM speaking_slots s WHERE s.id = $1`

	slot, err := scanSlot(r.QueryRow(ctx, query, id))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get speaking slot by id: %w", err)
	}
	return slot, nil
}

// FindActiveBooking returns a slot other than excludeSlotID that the student
// holds for the session in BOOKED or COMPLETED state.
func (r *SpeakingSlotRepository) FindActiveBooking(ctx context.Context, sessionID, studentID, excludeSlotID uuid.UUID) (*model.SpeakingSlot, error) {
	query := `
		SELECT ` + slotColumns + `
		FROM speaking_slots s
		WHERE s.test_session_id = $1
		  AND s.student_id = $2
		  AND s.id <> $3
		  AND s.status IN ('BOOKED', 'COMPLETED')
		LIMIT 1
	`

	slot, err := scanSlot(r.QueryRow(ctx, query, sessionID, studentID, excludeSlotID))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("find active speaking booking: %w", err)
	}
	return slot, nil
}

// Book books the slot. The update only applies while the slot is still
// AVAILABLE; nil is returned when another booking got there first.
func (r *SpeakingSlotRepository) Book(ctx context.Context, slotID, studentID, sessionID uuid.UUID) (*model.SpeakingSlot, error) {
	query := `
		UPDATE speaking_slots s
		SET status = 'BOOKED', student_id = $2, test_session_id = $3, updated_at = NOW()
		WHERE s.id = $1 AND s.status = 'AVAILABLE'
		RETURNING ` + slotColumns

	slot, err := r.updateReturning(ctx, "book speaking slot", query, slotID, studentID, sessionID)
	if base.IsUniqueViolation(err, BookingConstraint) {
		return nil, ErrDuplicateBooking
	}
	return slot, err
}

// Complete records the result on a slot booked against sessionID.
func (r *SpeakingSlotRepository) Complete(ctx context.Context, slotID, sessionID uuid.UUID, result model.SpeakingResult) (*model.SpeakingSlot, error) {
	query := `
		UPDATE speaking_slots s
		SET status = 'COMPLETED', score = $3, feedback = $4,
		    mcq_level = $5, speaking_level = $6, final_level = $7, updated_at = NOW()
		WHERE s.id = $1 AND s.test_session_id = $2 AND s.status IN ('BOOKED', 'COMPLETED')
		RETURNING ` + slotColumns

	return r.updateReturning(ctx, "complete speaking slot", query,
		slotID, sessionID, result.Score, result.Feedback,
		string(result.MCQLevel), string(result.SpeakingLevel), string(result.FinalLevel),
	)
}

// Release returns a BOOKED slot to AVAILABLE and clears everything the booking set.
func (r *SpeakingSlotRepository) Release(ctx context.Context, slotID, sessionID uuid.UUID) (*model.SpeakingSlot, error) {
	query := `
		UPDATE speaking_slots s
		SET status = 'AVAILABLE', student_id = NULL, test_session_id = NULL,
		    score = NULL, feedback = NULL, mcq_level = NULL, speaking_level = NULL, final_level = NULL,
		    updated_at = NOW()
		WHERE s.id = $1 AND s.test_session_id = $2 AND s.status = 'BOOKED'
		RETURNING ` + slotColumns

	return r.updateReturning(ctx, "release speaking slot", query, slotID, sessionID)
}

// TransitionStatus moves an unbooked slot from one status to another.
func (r *SpeakingSlotRepository) TransitionStatus(ctx context.Context, slotID uuid.UUID, from, to model.SlotStatus) (*model.SpeakingSlot, error) {
	query := `
		UPDATE speaking_slots s
		SET status = $3, updated_at = NOW()
		WHERE s.id = $1 AND s.status = $2 AND s.student_id IS NULL
		RETURNING ` + slotColumns

	return r.updateReturning(ctx, "update speaking slot status", query, slotID, string(from), string(to))
}

// ListAvailable returns AVAILABLE slots, optionally bounded by slot date (inclusive).
func (r *SpeakingSlotRepository) ListAvailable(ctx context.Context, from, to *time.Time) ([]*model.SpeakingSlot, error) {
	query := `
		SELECT ` + slotColumns + `, t.id, t.first_name, t.last_name, t.is_active
		FROM speaking_slots s
		JOIN teachers t ON t.id = s.teacher_id
		WHERE s.status = 'AVAILABLE'
		  AND ($1::date IS NULL OR s.slot_date >= $1::date)
		  AND ($2::date IS NULL OR s.slot_date <= $2::date)
		` + slotOrder

	rows, err := r.Query(ctx, query, from, to)
	if err != nil {
		return nil, fmt.Errorf("list available speaking slots: %w", err)
	}
	defer rows.Close()

	var slots []*model.SpeakingSlot
	for rows.Next() {
		var teacher model.Teacher
		slot, err := scanSlot(rows, &teacher.ID, &teacher.FirstName, &teacher.LastName, &teacher.IsActive)
		if err != nil {
			return nil, fmt.Errorf("scan speaking slot: %w", err)
		}
		slot.Teacher = &teacher
		slots = append(slots, slot)
	}
	return slots, rows.Err()
}

// ListAll returns every slot
func (r *SpeakingSlotRepository) ListAll(ctx context.Context) ([]*model.SpeakingSlot, error) {
	query := `SELECT ` + slotColumns + ` FROM speaking_slots s ` + slotOrder

	return r.list(ctx, "list speaking slots", query)
}

// ListByTeacher получает все слоты учителя вместе с записанным студентом
func (r *SpeakingSlotRepository) ListByTeacher(ctx context.Context, teacherID uuid.UUID) ([]*model.SpeakingSlot, error) {
	query := `
		SELECT ` + slotColumns + `, st.id, st.first_name, st.last_name
		FROM speaking_slots s
		LEFT JOIN students st ON st.id = s.student_id
		WHERE s.teacher_id = $1
		` + slotOrder

	rows, err := r.Query(ctx, query, teacherID)
	if err != nil {
		return nil, fmt.Errorf("list speaking slots by teacher: %w", err)
	}
	defer rows.Close()

	var slots []*model.SpeakingSlot
	for rows.Next() {
		var (
			studentID           *uuid.UUID
			firstName, lastName *string
		)
		slot, err := scanSlot(rows, &studentID, &firstName, &lastName)
		if err != nil {
			return nil, fmt.Errorf("scan speaking slot: %w", err)
		}
		if studentID != nil {
			slot.Student = &model.Student{ID: *studentID, FirstName: deref(firstName), LastName: deref(lastName)}
		}
		slots = append(slots, slot)
	}
	return slots, rows.Err()
}

// CountByTeacherAndDate считает слоты учителя на дату
func (r *SpeakingSlotRepository) CountByTeacherAndDate(ctx context.Context, teacherID uuid.UUID, date time.Time) (int, error) {
	query := `SELECT COUNT(*) FROM speaking_slots WHERE teacher_id = $1 AND slot_date = $2`

	var count int
	if err := r.QueryRow(ctx, query, teacherID, date).Scan(&count); err != nil {
		return 0, fmt.Errorf("count speaking slots: %w", err)
	}
	return count, nil
}

func (r *SpeakingSlotRepository) updateReturning(ctx context.Context, op, query string, args ...any) (*model.SpeakingSlot, error) {
	slot, err := scanSlot(r.QueryRow(ctx, query, args...))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return slot, nil
}

func (r *SpeakingSlotRepository) list(ctx context.Context, op, query string, args ...any) ([]*model.SpeakingSlot, error) {
	rows, err := r.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var slots []*model.SpeakingSlot
	for rows.Next() {
		slot, err := scanSlot(rows)
		if err != nil {
			return nil, fmt.Errorf("scan speaking slot: %w", err)
		}
		slots = append(slots, slot)
	}
	return slots, rows.Err()
}

// scanSlot reads slotColumns followed by any extra destinations.
func scanSlot(row pgx.Row, extra ...any) (*model.SpeakingSlot, error) {
	var (
		slot                      model.SpeakingSlot
		status                    string
		slotTime                  pgtype.Time
		mcq, speaking, finalLevel *string
	)

	dest := []any{
		&slot.ID,
		&slot.TeacherID,
		&slot.SlotDate,
		&slotTime,
		&slot.DurationMinutes,
		&status,
		&slot.StudentID,
		&slot.TestSessionID,
		&slot.Score,
		&slot.Feedback,
		&mcq,
		&speaking,
		&finalLevel,
		&slot.CreatedAt,
		&slot.UpdatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}

	slot.Status = model.SlotStatus(status)
	slot.SlotTime = base.ClockFromPg(slotTime)
	slot.MCQLevel = toLevel(mcq)
	slot.SpeakingLevel = toLevel(speaking)
	slot.FinalLevel = toLevel(finalLevel)
	return &slot, nil
}

func toLevel(s *string) *model.Level {
	if s == nil {
		return nil
	}
	l := model.Level(*s)
	return &l
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
