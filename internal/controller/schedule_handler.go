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

type ScheduleService interface {
	CreateTemplate(ctx context.Context, teacherID uuid.UUID, dayOfWeek int, start, end model.ClockTime) (*model.TeacherScheduleTemplate, error)
	CreateTemplatesFromWeeklySchedule(ctx context.Context, teacherID uuid.UUID, schedule model.WeeklySchedule) ([]*model.TeacherScheduleTemplate, error)
	ListActiveTemplates(ctx context.Context, teacherID uuid.UUID) ([]*model.TeacherScheduleTemplate, error)
	DeactivateTemplate(ctx context.Context, templateID uuid.UUID) error
	GenerateSlotsFromTemplate(ctx context.Context, teacherID uuid.UUID, startDate, endDate time.Time, slotDurationMinutes int) (*service.GenerateResult, error)
}

// ScheduleHandler serves /api/teacher-schedules
type ScheduleHandler struct {
	schedules ScheduleService
	logger    *zap.Logger
}

func NewScheduleHandler(schedules ScheduleService, logger *zap.Logger) *ScheduleHandler {
	return &ScheduleHandler{schedules: schedules, logger: logger}
}

// CreateTemplate POST /api/teacher-schedules/templates
func (h *ScheduleHandler) CreateTemplate(c *gin.Context) {
	var req CreateTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, validationMessage(err))
		return
	}

	start, _ := model.ParseClockTime(req.StartTime)
	end, _ := model.ParseClockTime(req.EndTime)

	tpl, err := h.schedules.CreateTemplate(c.Request.Context(), uuid.MustParse(req.TeacherID), *req.DayOfWeek, start, end)
	if err != nil {
		h.handleError(c, err)
		return
	}

	response.Created(c, "Schedule template created", tpl)
}

// CreateWeeklySchedule POST /api/teacher-schedules/weekly
func (h *ScheduleHandler) CreateWeeklySchedule(c *gin.Context) {
	var req WeeklyScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, validationMessage(err))
		return
	}

	schedule := model.WeeklySchedule{Days: make([]time.Weekday, 0, len(req.Days))}
	for _, d := range req.Days {
		schedule.Days = append(schedule.Days, time.Weekday(d))
	}
	schedule.Start, _ = model.ParseClockTime(req.StartTime)
	schedule.End, _ = model.ParseClockTime(req.EndTime)

	templates, err := h.schedules.CreateTemplatesFromWeeklySchedule(c.Request.Context(), uuid.MustParse(req.TeacherID), schedule)
	if err != nil {
		h.handleError(c, err)
		return
	}

	response.Created(c, "Weekly schedule created", templates)
}

// ListTemplates GET /api/teacher-schedules/templates/:teacherId
func (h *ScheduleHandler) ListTemplates(c *gin.Context) {
	teacherID, ok := uuidParam(c, "teacherId")
	if !ok {
		return
	}

	templates, err := h.schedules.ListActiveTemplates(c.Request.Context(), teacherID)
	if err != nil {
		h.handleError(c, err)
		return
	}

	if templates == nil {
		templates = []*model.TeacherScheduleTemplate{}
	}
	response.List(c, templates, len(templates))
}

// DeactivateTemplate DELETE /api/teacher-schedules/templates/:id
func (h *ScheduleHandler) DeactivateTemplate(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	if err := h.schedules.DeactivateTemplate(c.Request.Context(), id); err != nil {
		h.handleError(c, err)
		return
	}

	response.OKMessage(c, "Schedule template deactivated", nil)
}

// GenerateSlots POST /api/teacher-schedules/generate-slots
func (h *ScheduleHandler) GenerateSlots(c *gin.Context) {
	var req GenerateSlotsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, validationMessage(err))
		return
	}

	startDate, err := model.ParseDate(req.StartDate)
	if err != nil {
		response.BadRequest(c, "startDate must be a date in YYYY-MM-DD format")
		return
	}
	endDate, err := model.ParseDate(req.EndDate)
	if err != nil {
		response.BadRequest(c, "endDate must be a date in YYYY-MM-DD format")
		return
	}

	result, err := h.schedules.GenerateSlotsFromTemplate(c.Request.Context(), uuid.MustParse(req.TeacherID), startDate, endDate, req.SlotDuration)
	if err != nil {
		h.handleError(c, err)
		return
	}

	response.OKMessage(c, "Speaking slots generated", result)
}

func (h *ScheduleHandler) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrTeacherNotFound),
		errors.Is(err, service.ErrTemplateNotFound):
		response.NotFound(c, err.Error())
	case errors.Is(err, service.ErrInvalidDayOfWeek),
		errors.Is(err, service.ErrInvalidTimeWindow),
		errors.Is(err, service.ErrInvalidSlotDuration),
		errors.Is(err, service.ErrDateRangeTooLong),
		errors.Is(err, service.ErrInvalidSchedule),
		errors.Is(err, service.ErrNoActiveTemplates):
		response.BadRequest(c, err.Error())
	default:
		h.logger.Error("Schedule request failed", zap.Error(err), zap.String("path", c.FullPath()))
		_ = c.Error(err)
		response.InternalError(c)
	}
}

// uuidParam parses a path parameter, answering 400 when it is not a UUID.
func uuidParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		response.BadRequest(c, name+" must be a valid UUID")
		return uuid.Nil, false
	}
	return id, true
}
