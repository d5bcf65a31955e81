package notify

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/Freeeeeet/speaking_scheduler/internal/model"
)

// Log writes booking events to the application log. Used when no Telegram
// token is configured.
type Log struct {
	logger *zap.Logger
}

func NewLog(logger *zap.Logger) *Log {
	return &Log{logger: logger}
}

func (n *Log) SlotBooked(_ context.Context, slot *model.SpeakingSlot, student *model.Student) error {
	n.logger.Info("Speaking slot booked",
		zap.String("slot_id", slot.ID.String()),
		zap.String("teacher_id", slot.TeacherID.String()),
		zap.String("student", fullName(student.FirstName, student.LastName)),
		zap.String("starts_at", formatSlot(slot)),
	)
	return nil
}

func (n *Log) SlotCancelled(_ context.Context, slot *model.SpeakingSlot) error {
	n.logger.Info("Speaking slot booking cancelled",
		zap.String("slot_id", slot.ID.String()),
		zap.String("teacher_id", slot.TeacherID.String()),
		zap.String("starts_at", formatSlot(slot)),
	)
	return nil
}

func formatSlot(slot *model.SpeakingSlot) string {
	return fmt.Sprintf("%s %s-%s",
		slot.SlotDate.Format(model.DateLayout), slot.SlotTime, slot.EndTime())
}

func fullName(first, last string) string {
	return strings.TrimSpace(first + " " + last)
}
