package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/Freeeeeet/speaking_scheduler/internal/model"
)

// Repository contracts consumed by the services. Implemented by
// internal/repository; lookups return nil, nil for missing rows.

type TemplateRepository interface {
	Create(ctx context.Context, tpl *model.TeacherScheduleTemplate) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.TeacherScheduleTemplate, error)
	ListActiveByTeacher(ctx context.Context, teacherID uuid.UUID) ([]*model.TeacherScheduleTemplate, error)
	Deactivate(ctx context.Context, id uuid.UUID) (bool, error)
}

type SlotRepository interface {
	CreateBatch(ctx context.Context, slots []*model.SpeakingSlot) (int64, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.SpeakingSlot, error)
	FindActiveBooking(ctx context.Context, sessionID, studentID, excludeSlotID uuid.UUID) (*model.SpeakingSlot, error)
	Book(ctx context.Context, slotID, studentID, sessionID uuid.UUID) (*model.SpeakingSlot, error)
	Complete(ctx context.Context, slotID, sessionID uuid.UUID, result model.SpeakingResult) (*model.SpeakingSlot, error)
	Release(ctx context.Context, slotID, sessionID uuid.UUID) (*model.SpeakingSlot, error)
	TransitionStatus(ctx context.Context, slotID uuid.UUID, from, to model.SlotStatus) (*model.SpeakingSlot, error)
	ListAvailable(ctx context.Context, from, to *time.Time) ([]*model.SpeakingSlot, error)
	ListAll(ctx context.Context) ([]*model.SpeakingSlot, error)
	ListByTeacher(ctx context.Context, teacherID uuid.UUID) ([]*model.SpeakingSlot, error)
	CountByTeacherAndDate(ctx context.Context, teacherID uuid.UUID, date time.Time) (int, error)
}

type TeacherRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Teacher, error)
	ListActive(ctx context.Context) ([]*model.Teacher, error)
}

type StudentRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Student, error)
	UpdateCurrentLevel(ctx context.Context, id uuid.UUID, level model.Level) error
}

type TestSessionRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.TestSession, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status model.TestSessionStatus) error
}

// Transactor runs fn in one database transaction.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Notifier tells a teacher about changes to their bookings.
type Notifier interface {
	SlotBooked(ctx context.Context, slot *model.SpeakingSlot, student *model.Student) error
	SlotCancelled(ctx context.Context, slot *model.SpeakingSlot) error
}
