package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Freeeeeet/speaking_scheduler/internal/metrics"
	"github.com/Freeeeeet/speaking_scheduler/internal/model"
	"github.com/Freeeeeet/speaking_scheduler/internal/repository"
)

const notifyTimeout = 10 * time.Second

// Caller identifies who performs an operation. ProfileID is the caller's
// student or teacher record and is uuid.Nil for admins.
type Caller struct {
	Role      model.Role
	ProfileID uuid.UUID
}

type SubmitResultInput struct {
	SessionID     uuid.UUID
	SlotID        uuid.UUID
	MCQLevel      model.Level
	SpeakingLevel model.Level
	FinalLevel    model.Level
	Score         *float64
	Feedback      *string
}

// SpeakingSlotService drives the slot lifecycle:
// AVAILABLE -> BOOKED -> COMPLETED, BOOKED -> AVAILABLE on cancel and
// AVAILABLE <-> CANCELLED when a teacher withdraws or restores a slot.
type SpeakingSlotService struct {
	slots    SlotRepository
	sessions TestSessionRepository
	students StudentRepository
	tx       Transactor
	notifier Notifier
	metrics  *metrics.Metrics
	logger   *zap.Logger
}

func NewSpeakingSlotService(
	slots SlotRepository,
	sessions TestSessionRepository,
	students StudentRepository,
	tx Transactor,
	notifier Notifier,
	m *metrics.Metrics,
	logger *zap.Logger,
) *SpeakingSlotService {
	return &SpeakingSlotService{
		slots:    slots,
		sessions: sessions,
		students: students,
		tx:       tx,
		notifier: notifier,
		metrics:  m,
		logger:   logger,
	}
}

// BookSpeakingSlot books a slot for the student within a test session.
// The AVAILABLE -> BOOKED write is conditional on the status, so among
// concurrent bookings of one slot exactly one succeeds.
func (s *SpeakingSlotService) BookSpeakingSlot(ctx context.Context, sessionID, slotID, studentID uuid.UUID) (*model.SpeakingSlot, error) {
	var (
		slot    *model.SpeakingSlot
		session *model.TestSession
		student *model.Student
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		if slot, err = s.slots.GetByID(gctx, slotID); err != nil {
			return fmt.Errorf("get slot: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if session, err = s.sessions.GetByID(gctx, sessionID); err != nil {
			return fmt.Errorf("get session: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if student, err = s.students.GetByID(gctx, studentID); err != nil {
			return fmt.Errorf("get student: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	switch {
	case slot == nil:
		return nil, ErrSlotNotFound
	case !slot.IsAvailable():
		s.metrics.Booking("conflict")
		return nil, ErrSlotNotAvailable
	case session == nil:
		return nil, ErrSessionNotFound
	case student == nil:
		return nil, ErrStudentNotFound
	case session.StudentID != studentID:
		return nil, ErrAccessDenied
	}

	existing, err := s.slots.FindActiveBooking(ctx, sessionID, studentID, slotID)
	if err != nil {
		return nil, fmt.Errorf("check existing booking: %w", err)
	}
	if existing != nil {
		s.metrics.Booking("duplicate")
		return nil, ErrAlreadyBooked
	}

	var booked *model.SpeakingSlot
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		booked, err = s.slots.Book(ctx, slotID, studentID, sessionID)
		if errors.Is(err, repository.ErrDuplicateBooking) {
			return ErrAlreadyBooked
		}
		if err != nil {
			return fmt.Errorf("book slot: %w", err)
		}
		if booked == nil {
			return ErrSlotNotAvailable
		}

		if err := s.sessions.UpdateStatus(ctx, sessionID, model.TestSessionStatusSpeakingScheduled); err != nil {
			return fmt.Errorf("update session status: %w", err)
		}
		return nil
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrSlotNotAvailable):
			s.metrics.Booking("conflict")
		case errors.Is(err, ErrAlreadyBooked):
			s.metrics.Booking("duplicate")
		}
		return nil, err
	}

	s.metrics.Booking("booked")
	s.metrics.Transition(string(model.SlotStatusBooked))
	s.logger.Info("Speaking slot booked",
		zap.String("slot_id", slotID.String()),
		zap.String("session_id", sessionID.String()),
		zap.String("student_id", studentID.String()),
	)

	s.notify(ctx, "booked", booked, func(ctx context.Context) error {
		return s.notifier.SlotBooked(ctx, booked, student)
	})

	return booked, nil
}

// SubmitSpeakingResult completes a booked slot and records the levels. The
// session becomes SPEAKING_COMPLETED and the final level becomes the
// student's current level.
func (s *SpeakingSlotService) SubmitSpeakingResult(ctx context.Context, input SubmitResultInput) (*model.SpeakingSlot, error) {
	for _, l := range []model.Level{input.MCQLevel, input.SpeakingLevel, input.FinalLevel} {
		if !l.IsValid() {
			return nil, fmt.Errorf("%w: %q", ErrInvalidLevel, l)
		}
	}

	var score *float64
	if input.Score != nil {
		if *input.Score < 0 || *input.Score > 100 || math.IsNaN(*input.Score) {
			return nil, ErrInvalidScore
		}
		rounded := math.Round(*input.Score*100) / 100
		score = &rounded
	}

	slot, err := s.slots.GetByID(ctx, input.SlotID)
	if err != nil {
		return nil, fmt.Errorf("get slot: %w", err)
	}
	if slot == nil {
		return nil, ErrSlotNotFound
	}
	if !slot.BelongsToSession(input.SessionID) {
		return nil, ErrSlotSessionMismatch
	}

	result := model.SpeakingResult{
		MCQLevel:      input.MCQLevel,
		SpeakingLevel: input.SpeakingLevel,
		FinalLevel:    input.FinalLevel,
		Score:         score,
		Feedback:      input.Feedback,
	}

	var completed *model.SpeakingSlot
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		completed, err = s.slots.Complete(ctx, input.SlotID, input.SessionID, result)
		if err != nil {
			return fmt.Errorf("complete slot: %w", err)
		}
		if completed == nil {
			// cancelled between the read and the write
			return ErrSlotSessionMismatch
		}

		if err := s.sessions.UpdateStatus(ctx, input.SessionID, model.TestSessionStatusSpeakingCompleted); err != nil {
			return fmt.Errorf("update session status: %w", err)
		}
		if err := s.students.UpdateCurrentLevel(ctx, *completed.StudentID, input.FinalLevel); err != nil {
			return fmt.Errorf("update student level: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.Transition(string(model.SlotStatusCompleted))
	s.logger.Info("Speaking result submitted",
		zap.String("slot_id", input.SlotID.String()),
		zap.String("session_id", input.SessionID.String()),
		zap.String("final_level", string(input.FinalLevel)),
	)

	return completed, nil
}

// CancelSpeakingSlot releases a booked slot back to AVAILABLE and moves the
// session back to MCQ_COMPLETED so the student can book again.
func (s *SpeakingSlotService) CancelSpeakingSlot(ctx context.Context, slotID, sessionID uuid.UUID, caller Caller) (*model.SpeakingSlot, error) {
	slot, err := s.slots.GetByID(ctx, slotID)
	if err != nil {
		return nil, fmt.Errorf("get slot: %w", err)
	}
	if slot == nil || !slot.BelongsToSession(sessionID) {
		return nil, ErrSlotNotFound
	}

	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}

	if slot.StudentID == nil || *slot.StudentID != session.StudentID {
		return nil, ErrAccessDenied
	}
	if caller.Role == model.RoleStudent && caller.ProfileID != *slot.StudentID {
		return nil, ErrAccessDenied
	}

	if !slot.IsBooked() {
		return nil, ErrSlotNotBooked
	}

	var released *model.SpeakingSlot
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		released, err = s.slots.Release(ctx, slotID, sessionID)
		if err != nil {
			return fmt.Errorf("release slot: %w", err)
		}
		if released == nil {
			return ErrSlotNotBooked
		}

		if err := s.sessions.UpdateStatus(ctx, sessionID, model.TestSessionStatusMCQCompleted); err != nil {
			return fmt.Errorf("update session status: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.Transition(string(model.SlotStatusAvailable))
	s.logger.Info("Speaking slot booking cancelled",
		zap.String("slot_id", slotID.String()),
		zap.String("session_id", sessionID.String()),
		zap.String("caller_role", string(caller.Role)),
	)

	s.notify(ctx, "cancelled", released, func(ctx context.Context) error {
		return s.notifier.SlotCancelled(ctx, released)
	})

	return released, nil
}

// WithdrawSlot убирает свободный слот из записи
func (s *SpeakingSlotService) WithdrawSlot(ctx context.Context, slotID uuid.UUID) (*model.SpeakingSlot, error) {
	return s.transition(ctx, slotID, model.SlotStatusAvailable, model.SlotStatusCancelled, ErrSlotNotAvailable)
}

// RestoreSlot возвращает отменённый слот в запись
func (s *SpeakingSlotService) RestoreSlot(ctx context.Context, slotID uuid.UUID) (*model.SpeakingSlot, error) {
	return s.transition(ctx, slotID, model.SlotStatusCancelled, model.SlotStatusAvailable, ErrSlotNotCancelled)
}

func (s *SpeakingSlotService) transition(ctx context.Context, slotID uuid.UUID, from, to model.SlotStatus, wrongState error) (*model.SpeakingSlot, error) {
	slot, err := s.slots.TransitionStatus(ctx, slotID, from, to)
	if err != nil {
		return nil, fmt.Errorf("update slot status: %w", err)
	}
	if slot != nil {
		s.metrics.Transition(string(to))
		s.logger.Info("Speaking slot status changed",
			zap.String("slot_id", slotID.String()),
			zap.String("from", string(from)),
			zap.String("to", string(to)),
		)
		return slot, nil
	}

	existing, err := s.slots.GetByID(ctx, slotID)
	if err != nil {
		return nil, fmt.Errorf("get slot: %w", err)
	}
	if existing == nil {
		return nil, ErrSlotNotFound
	}
	return nil, wrongState
}

// GetAvailableSpeakingSlots returns AVAILABLE slots ordered by date and time,
// optionally limited to slot dates within [from, to].
func (s *SpeakingSlotService) GetAvailableSpeakingSlots(ctx context.Context, from, to *time.Time) ([]*model.SpeakingSlot, error) {
	slots, err := s.slots.ListAvailable(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("list available slots: %w", err)
	}
	return slots, nil
}

func (s *SpeakingSlotService) GetAllSpeakingSlots(ctx context.Context) ([]*model.SpeakingSlot, error) {
	slots, err := s.slots.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list slots: %w", err)
	}
	return slots, nil
}

func (s *SpeakingSlotService) ListSpeakingSlotsForTeacher(ctx context.Context, teacherID uuid.UUID) ([]*model.SpeakingSlot, error) {
	slots, err := s.slots.ListByTeacher(ctx, teacherID)
	if err != nil {
		return nil, fmt.Errorf("list teacher slots: %w", err)
	}
	return slots, nil
}

// notify runs send in the background; failures are logged and never reach the caller.
func (s *SpeakingSlotService) notify(ctx context.Context, event string, slot *model.SpeakingSlot, send func(ctx context.Context) error) {
	if s.notifier == nil {
		return
	}
	ctx = context.WithoutCancel(ctx)

	go func() {
		ctx, cancel := context.WithTimeout(ctx, notifyTimeout)
		defer cancel()

		if err := send(ctx); err != nil {
			s.metrics.NotificationFailed()
			s.logger.Warn("Failed to notify teacher",
				zap.String("event", event),
				zap.String("slot_id", slot.ID.String()),
				zap.String("teacher_id", slot.TeacherID.String()),
				zap.Error(err),
			)
		}
	}()
}
