package model

import (
	"errors"
	"time"
)

var (
	errNoDays        = errors.New("schedule must list at least one day")
	errBadWeekday    = errors.New("weekday must be between 0 (Sunday) and 6 (Saturday)")
	errDuplicateDay  = errors.New("schedule lists the same day twice")
	errEmptyInterval = errors.New("end time must be after start time")
)

// WeeklySchedule is a set of weekdays sharing one daily time window.
type WeeklySchedule struct {
	Days  []time.Weekday `json:"days"`
	Start ClockTime      `json:"startTime"`
	End   ClockTime      `json:"endTime"`
}

// Validate checks the day list and that the window is non-empty.
func (w WeeklySchedule) Validate() error {
	if len(w.Days) == 0 {
		return errNoDays
	}
	seen := make(map[time.Weekday]bool, len(w.Days))
	for _, d := range w.Days {
		if d < time.Sunday || d > time.Saturday {
			return errBadWeekday
		}
		if seen[d] {
			return errDuplicateDay
		}
		seen[d] = true
	}
	if w.End <= w.Start {
		return errEmptyInterval
	}
	return nil
}

// Templates expands the schedule into one template per day.
func (w WeeklySchedule) Templates() []*TeacherScheduleTemplate {
	out := make([]*TeacherScheduleTemplate, 0, len(w.Days))
	for _, d := range w.Days {
		out = append(out, &TeacherScheduleTemplate{
			DayOfWeek: int(d),
			StartTime: w.Start,
			EndTime:   w.End,
			IsActive:  true,
		})
	}
	return out
}
