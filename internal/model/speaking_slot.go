package model

import (
	"time"

	"github.com/google/uuid"
)

type SlotStatus string

const (
	SlotStatusAvailable SlotStatus = "AVAILABLE"
	SlotStatusBooked    SlotStatus = "BOOKED"
	SlotStatusCompleted SlotStatus = "COMPLETED"
	SlotStatusCancelled SlotStatus = "CANCELLED"
)

// SpeakingSlot is one bookable speaking-test appointment.
type SpeakingSlot struct {
	ID              uuid.UUID  `json:"id"`
	TeacherID       uuid.UUID  `json:"teacherId"`
	SlotDate        time.Time  `json:"slotDate"`
	SlotTime        ClockTime  `json:"slotTime"`
	DurationMinutes int        `json:"durationMinutes"`
	Status          SlotStatus `json:"status"`
	StudentID       *uuid.UUID `json:"studentId"`     // nil until booked
	TestSessionID   *uuid.UUID `json:"testSessionId"` // nil until booked
	Score           *float64   `json:"score"`
	Feedback        *string    `json:"feedback"`
	MCQLevel        *Level     `json:"mcqLevel"`
	SpeakingLevel   *Level     `json:"speakingLevel"`
	FinalLevel      *Level     `json:"finalLevel"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`

	// Populated by listing queries, not stored on the slot row
	Teacher *Teacher `json:"teacher,omitempty"`
	Student *Student `json:"student,omitempty"`
}

// EndTime is the wall-clock time the appointment ends.
func (s *SpeakingSlot) EndTime() ClockTime {
	return s.SlotTime.Add(s.DurationMinutes)
}

// StartsAt returns the slot start as an instant on its date.
func (s *SpeakingSlot) StartsAt() time.Time {
	return s.SlotTime.On(s.SlotDate)
}

func (s *SpeakingSlot) IsAvailable() bool {
	return s.Status == SlotStatusAvailable
}

func (s *SpeakingSlot) IsBooked() bool {
	return s.Status == SlotStatusBooked
}

// BelongsToSession reports whether the slot is booked against the given test session.
func (s *SpeakingSlot) BelongsToSession(sessionID uuid.UUID) bool {
	return s.TestSessionID != nil && *s.TestSessionID == sessionID
}

// SpeakingResult is what an examiner records when completing a slot.
type SpeakingResult struct {
	MCQLevel      Level
	SpeakingLevel Level
	FinalLevel    Level
	Score         *float64 // two decimal places
	Feedback      *string
}
