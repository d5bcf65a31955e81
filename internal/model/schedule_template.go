package model

import (
	"time"

	"github.com/google/uuid"
)

// TeacherScheduleTemplate is a recurring weekly availability window of a teacher.
type TeacherScheduleTemplate struct {
	ID        uuid.UUID `json:"id"`
	TeacherID uuid.UUID `json:"teacherId"`
	DayOfWeek int       `json:"dayOfWeek"` // 0 = Sunday, 6 = Saturday
	StartTime ClockTime `json:"startTime"`
	EndTime   ClockTime `json:"endTime"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Weekday returns the template day as time.Weekday
func (t *TeacherScheduleTemplate) Weekday() time.Weekday {
	return time.Weekday(t.DayOfWeek)
}
