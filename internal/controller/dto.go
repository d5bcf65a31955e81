package controller

import (
	"time"

	"github.com/google/uuid"

	"github.com/Freeeeeet/speaking_scheduler/internal/model"
)

// ── Requests ──

type CreateTemplateRequest struct {
	TeacherID string `json:"teacherId" binding:"required,uuid"`
	DayOfWeek *int   `json:"dayOfWeek" binding:"required,min=0,max=6"`
	StartTime string `json:"startTime" binding:"required,clock"`
	EndTime   string `json:"endTime" binding:"required,clock"`
}

type WeeklyScheduleRequest struct {
	TeacherID string `json:"teacherId" binding:"required,uuid"`
	Days      []int  `json:"days" binding:"required,min=1,max=7,dive,min=0,max=6"`
	StartTime string `json:"startTime" binding:"required,clock"`
	EndTime   string `json:"endTime" binding:"required,clock"`
}

type GenerateSlotsRequest struct {
	TeacherID    string `json:"teacherId" binding:"required,uuid"`
	StartDate    string `json:"startDate" binding:"required"`
	EndDate      string `json:"endDate" binding:"required"`
	SlotDuration int    `json:"slotDuration" binding:"required,min=1,max=1440"`
}

type BookSlotRequest struct {
	SessionID string `json:"sessionId" binding:"required,uuid"`
	SlotID    string `json:"slotId" binding:"required,uuid"`
	StudentID string `json:"studentId" binding:"required,uuid"`
}

type SubmitResultRequest struct {
	SessionID     string   `json:"sessionId" binding:"required,uuid"`
	SlotID        string   `json:"slotId" binding:"required,uuid"`
	MCQLevel      string   `json:"mcqLevel" binding:"required,cefr"`
	SpeakingLevel string   `json:"speakingLevel" binding:"required,cefr"`
	FinalLevel    string   `json:"finalLevel" binding:"required,cefr"`
	Score         *float64 `json:"score" binding:"omitempty,gte=0,lte=100"`
	Feedback      *string  `json:"feedback" binding:"omitempty,max=2000"`
}

type CancelSlotRequest struct {
	SessionID string `json:"sessionId" binding:"required,uuid"`
}

// ── Responses ──

type PersonBrief struct {
	ID        uuid.UUID `json:"id"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
}

// SlotResponse is a slot as the front end sees it: the date as YYYY-MM-DD
// plus computed start and end times.
type SlotResponse struct {
	ID              uuid.UUID        `json:"id"`
	TeacherID       uuid.UUID        `json:"teacherId"`
	SlotDate        string           `json:"slotDate"`
	SlotTime        string           `json:"slotTime"`
	StartTime       string           `json:"startTime"`
	EndTime         string           `json:"endTime"`
	DurationMinutes int              `json:"durationMinutes"`
	Status          model.SlotStatus `json:"status"`
	StudentID       *uuid.UUID       `json:"studentId"`
	TestSessionID   *uuid.UUID       `json:"testSessionId"`
	Score           *float64         `json:"score"`
	Feedback        *string          `json:"feedback"`
	MCQLevel        *model.Level     `json:"mcqLevel"`
	SpeakingLevel   *model.Level     `json:"speakingLevel"`
	FinalLevel      *model.Level     `json:"finalLevel"`
	Teacher         *PersonBrief     `json:"teacher,omitempty"`
	Student         *PersonBrief     `json:"student,omitempty"`
	CreatedAt       time.Time        `json:"createdAt"`
	UpdatedAt       time.Time        `json:"updatedAt"`
}

func toSlotResponse(s *model.SpeakingSlot) SlotResponse {
	resp := SlotResponse{
		ID:              s.ID,
		TeacherID:       s.TeacherID,
		SlotDate:        s.SlotDate.Format(model.DateLayout),
		SlotTime:        s.SlotTime.LongString(),
		StartTime:       s.SlotTime.LongString(),
		EndTime:         s.EndTime().LongString(),
		DurationMinutes: s.DurationMinutes,
		Status:          s.Status,
		StudentID:       s.StudentID,
		TestSessionID:   s.TestSessionID,
		Score:           s.Score,
		Feedback:        s.Feedback,
		MCQLevel:        s.MCQLevel,
		SpeakingLevel:   s.SpeakingLevel,
		FinalLevel:      s.FinalLevel,
		CreatedAt:       s.CreatedAt,
		UpdatedAt:       s.UpdatedAt,
	}
	if s.Teacher != nil {
		resp.Teacher = &PersonBrief{ID: s.Teacher.ID, FirstName: s.Teacher.FirstName, LastName: s.Teacher.LastName}
	}
	if s.Student != nil {
		resp.Student = &PersonBrief{ID: s.Student.ID, FirstName: s.Student.FirstName, LastName: s.Student.LastName}
	}
	return resp
}

func toSlotResponses(slots []*model.SpeakingSlot) []SlotResponse {
	out := make([]SlotResponse, 0, len(slots))
	for _, s := range slots {
		out = append(out, toSlotResponse(s))
	}
	return out
}
