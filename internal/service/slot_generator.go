package service

import (
	"time"

	"github.com/google/uuid"

	"github.com/Freeeeeet/speaking_scheduler/internal/model"
)

// ExpandTemplates turns weekly templates into AVAILABLE slots for every
// calendar day in [from, to]. Slots start every duration minutes from the
// template start while the start is before the template end; the last slot
// may run past the end. Inactive templates are ignored, and so is a duration
// outside 1..MaxSlotDurationMinutes.
func ExpandTemplates(templates []*model.TeacherScheduleTemplate, from, to time.Time, duration int) []*model.SpeakingSlot {
	if duration <= 0 || duration > MaxSlotDurationMinutes {
		return nil
	}

	byDay := make(map[time.Weekday][]*model.TeacherScheduleTemplate, 7)
	for _, tpl := range templates {
		if !tpl.IsActive {
			continue
		}
		byDay[tpl.Weekday()] = append(byDay[tpl.Weekday()], tpl)
	}

	var slots []*model.SpeakingSlot
	last := model.DateOf(to)
	for day := model.DateOf(from); !day.After(last); day = day.AddDate(0, 0, 1) {
		for _, tpl := range byDay[day.Weekday()] {
			for cursor := tpl.StartTime; cursor < tpl.EndTime; cursor += model.ClockTime(duration) {
				slots = append(slots, &model.SpeakingSlot{
					TeacherID:       tpl.TeacherID,
					SlotDate:        day,
					SlotTime:        cursor,
					DurationMinutes: duration,
					Status:          model.SlotStatusAvailable,
				})
			}
		}
	}
	return slots
}

// windowSlots lays out a fixed daily window for one teacher and date.
func windowSlots(teacherID uuid.UUID, date time.Time, start, end model.ClockTime, duration int) []*model.SpeakingSlot {
	tpl := &model.TeacherScheduleTemplate{
		TeacherID: teacherID,
		DayOfWeek: int(date.Weekday()),
		StartTime: start,
		EndTime:   end,
		IsActive:  true,
	}
	return ExpandTemplates([]*model.TeacherScheduleTemplate{tpl}, date, date, duration)
}
