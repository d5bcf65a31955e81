package controller

import (
	"context"
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Freeeeeet/speaking_scheduler/internal/controller/response"
	"github.com/Freeeeeet/speaking_scheduler/internal/model"
	"github.com/Freeeeeet/speaking_scheduler/internal/service"
)

type SlotService interface {
	BookSpeakingSlot(ctx context.Context, sessionID, slotID, studentID uuid.UUID) (*model.SpeakingSlot, error)
	SubmitSpeakingResult(ctx context.Context, input service.SubmitResultInput) (*model.SpeakingSlot, error)
	CancelSpeakingSlot(ctx context.Context, slotID, sessionID uuid.UUID, caller service.Caller) (*model.SpeakingSlot, error)
	WithdrawSlot(ctx context.Context, slotID uuid.UUID) (*model.SpeakingSlot, error)
	RestoreSlot(ctx context.Context, slotID uuid.UUID) (*model.SpeakingSlot, error)
	GetAvailableSpeakingSlots(ctx context.Context, from, to *time.Time) ([]*model.SpeakingSlot, error)
	GetAllSpeakingSlots(ctx context.Context) ([]*model.SpeakingSlot, error)
	ListSpeakingSlotsForTeacher(ctx context.Context, teacherID uuid.UUID) ([]*model.SpeakingSlot, error)
}

// SlotHandler serves /api/speaking-slots
type SlotHandler struct {
	slots  SlotService
	logger *zap.Logger
}

func NewSlotHandler(slots SlotService, logger *zap.Logger) *SlotHandler {
	return &SlotHandler{slots: slots, logger: logger}
}

// ListAll GET /api/speaking-slots
func (h *SlotHandler) ListAll(c *gin.Context) {
	slots, err := h.slots.GetAllSpeakingSlots(c.Request.Context())
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.List(c, toSlotResponses(slots), len(slots))
}

// ListAvailable GET /api/speaking-slots/available?startDate=&endDate=
func (h *SlotHandler) ListAvailable(c *gin.Context) {
	from, ok := dateQuery(c, "startDate")
	if !ok {
		return
	}
	to, ok := dateQuery(c, "endDate")
	if !ok {
		return
	}

	slots, err := h.slots.GetAvailableSpeakingSlots(c.Request.Context(), from, to)
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.List(c, toSlotResponses(slots), len(slots))
}

// ListForTeacher GET /api/speaking-slots/teacher/:teacherId
// Teachers may only list their own slots.
func (h *SlotHandler) ListForTeacher(c *gin.Context) {
	teacherID, ok := uuidParam(c, "teacherId")
	if !ok {
		return
	}
	if caller := callerFrom(c); caller.Role == model.RoleTeacher && caller.ProfileID != teacherID {
		response.Forbidden(c, service.ErrAccessDenied.Error())
		return
	}

	slots, err := h.slots.ListSpeakingSlotsForTeacher(c.Request.Context(), teacherID)
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.List(c, toSlotResponses(slots), len(slots))
}

// Book POST /api/speaking-slots/book
func (h *SlotHandler) Book(c *gin.Context) {
	var req BookSlotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, validationMessage(err))
		return
	}

	studentID := uuid.MustParse(req.StudentID)
	if caller := callerFrom(c); caller.Role == model.RoleStudent && caller.ProfileID != studentID {
		response.Forbidden(c, "students can only book for themselves")
		return
	}

	slot, err := h.slots.BookSpeakingSlot(c.Request.Context(), uuid.MustParse(req.SessionID), uuid.MustParse(req.SlotID), studentID)
	if err != nil {
		h.handleError(c, err)
		return
	}

	response.OKMessage(c, "Speaking slot booked successfully", toSlotResponse(slot))
}

// SubmitResult POST /api/speaking-slots/submit-result
func (h *SlotHandler) SubmitResult(c *gin.Context) {
	var req SubmitResultRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, validationMessage(err))
		return
	}

	slot, err := h.slots.SubmitSpeakingResult(c.Request.Context(), service.SubmitResultInput{
		SessionID:     uuid.MustParse(req.SessionID),
		SlotID:        uuid.MustParse(req.SlotID),
		MCQLevel:      model.Level(req.MCQLevel),
		SpeakingLevel: model.Level(req.SpeakingLevel),
		FinalLevel:    model.Level(req.FinalLevel),
		Score:         req.Score,
		Feedback:      req.Feedback,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}

	response.OKMessage(c, "Speaking result submitted successfully", toSlotResponse(slot))
}

// Cancel PUT /api/speaking-slots/:id/cancel
func (h *SlotHandler) Cancel(c *gin.Context) {
	slotID, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	var req CancelSlotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, validationMessage(err))
		return
	}

	slot, err := h.slots.CancelSpeakingSlot(c.Request.Context(), slotID, uuid.MustParse(req.SessionID), callerFrom(c))
	if err != nil {
		h.handleError(c, err)
		return
	}

	response.OKMessage(c, "Speaking slot cancelled successfully", toSlotResponse(slot))
}

// Withdraw PUT /api/speaking-slots/:id/withdraw
func (h *SlotHandler) Withdraw(c *gin.Context) {
	h.changeStatus(c, h.slots.WithdrawSlot, "Speaking slot withdrawn")
}

// Restore PUT /api/speaking-slots/:id/restore
func (h *SlotHandler) Restore(c *gin.Context) {
	h.changeStatus(c, h.slots.RestoreSlot, "Speaking slot restored")
}

func (h *SlotHandler) changeStatus(c *gin.Context, change func(context.Context, uuid.UUID) (*model.SpeakingSlot, error), message string) {
	slotID, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	slot, err := change(c.Request.Context(), slotID)
	if err != nil {
		h.handleError(c, err)
		return
	}

	response.OKMessage(c, message, toSlotResponse(slot))
}

func (h *SlotHandler) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrSlotNotFound),
		errors.Is(err, service.ErrSessionNotFound),
		errors.Is(err, service.ErrStudentNotFound):
		response.NotFound(c, err.Error())
	case errors.Is(err, service.ErrAccessDenied):
		response.Forbidden(c, err.Error())
	case errors.Is(err, service.ErrSlotNotAvailable),
		errors.Is(err, service.ErrAlreadyBooked),
		errors.Is(err, service.ErrSlotSessionMismatch),
		errors.Is(err, service.ErrSlotNotBooked),
		errors.Is(err, service.ErrSlotNotCancelled),
		errors.Is(err, service.ErrInvalidLevel),
		errors.Is(err, service.ErrInvalidScore):
		response.BadRequest(c, err.Error())
	default:
		h.logger.Error("Speaking slot request failed", zap.Error(err), zap.String("path", c.FullPath()))
		_ = c.Error(err)
		response.InternalError(c)
	}
}

// callerFrom builds the service caller from the token claims. A malformed
// profile id leaves ProfileID as uuid.Nil, which matches no record.
func callerFrom(c *gin.Context) service.Caller {
	claims, ok := claimsFrom(c)
	if !ok {
		return service.Caller{}
	}
	profileID, _ := uuid.Parse(claims.ProfileID)
	return service.Caller{Role: claims.Role, ProfileID: profileID}
}

// dateQuery reads an optional YYYY-MM-DD query parameter.
func dateQuery(c *gin.Context, name string) (*time.Time, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	d, err := model.ParseDate(raw)
	if err != nil {
		response.BadRequest(c, name+" must be a date in YYYY-MM-DD format")
		return nil, false
	}
	return &d, true
}
