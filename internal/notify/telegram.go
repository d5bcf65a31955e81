package notify

import (
	"context"
	"fmt"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Freeeeeet/speaking_scheduler/internal/model"
)

// Sender is the part of *bot.Bot used for notifications
type Sender interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
}

type TeacherLookup interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Teacher, error)
}

// Telegram sends booking events to the teacher's Telegram chat.
type Telegram struct {
	sender   Sender
	teachers TeacherLookup
	logger   *zap.Logger
}

// NewTelegramBot creates a send-only bot client. getMe is skipped so startup
// does not depend on Telegram being reachable.
func NewTelegramBot(token string) (*bot.Bot, error) {
	b, err := bot.New(token, bot.WithSkipGetMe())
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}
	return b, nil
}

func NewTelegram(sender Sender, teachers TeacherLookup, logger *zap.Logger) *Telegram {
	return &Telegram{
		sender:   sender,
		teachers: teachers,
		logger:   logger,
	}
}

func (n *Telegram) SlotBooked(ctx context.Context, slot *model.SpeakingSlot, student *model.Student) error {
	text := fmt.Sprintf("📅 New speaking test booking\n\n👤 %s\n🕐 %s",
		fullName(student.FirstName, student.LastName), formatSlot(slot))
	return n.send(ctx, slot.TeacherID, text)
}

func (n *Telegram) SlotCancelled(ctx context.Context, slot *model.SpeakingSlot) error {
	text := fmt.Sprintf("❌ Speaking test booking cancelled\n\n🕐 %s\nThe slot is open for booking again.", formatSlot(slot))
	return n.send(ctx, slot.TeacherID, text)
}

func (n *Telegram) send(ctx context.Context, teacherID uuid.UUID, text string) error {
	teacher, err := n.teachers.GetByID(ctx, teacherID)
	if err != nil {
		return fmt.Errorf("get teacher: %w", err)
	}
	if teacher == nil || teacher.TelegramChatID == nil {
		n.logger.Debug("Teacher has no telegram chat, skipping notification",
			zap.String("teacher_id", teacherID.String()))
		return nil
	}

	_, err = n.sender.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: *teacher.TelegramChatID,
		Text:   text,
	})
	if err != nil {
		return fmt.Errorf("send telegram message: %w", err)
	}
	return nil
}
