package service

import "errors"

// Validation
var (
	ErrInvalidSlotDuration = errors.New("slot duration must be a positive number of minutes")
	ErrInvalidTimeWindow   = errors.New("end time must be after start time")
	ErrInvalidDayOfWeek    = errors.New("day of week must be between 0 (Sunday) and 6 (Saturday)")
	ErrInvalidLevel        = errors.New("level must be one of A1, A2, B1, B2, C1, C2")
	ErrInvalidSchedule     = errors.New("invalid weekly schedule")
	ErrInvalidScore        = errors.New("score must be between 0 and 100")
	ErrDateRangeTooLong    = errors.New("date range must not exceed 366 days")
)

// Not found
var (
	ErrTeacherNotFound  = errors.New("teacher not found")
	ErrTemplateNotFound = errors.New("schedule template not found")
	ErrSlotNotFound     = errors.New("speaking slot not found")
	ErrSessionNotFound  = errors.New("test session not found")
	ErrStudentNotFound  = errors.New("student not found")
)

// Business rules
var (
	ErrNoActiveTemplates   = errors.New("teacher has no active schedule templates")
	ErrSlotNotAvailable    = errors.New("speaking slot is not available")
	ErrAlreadyBooked       = errors.New("student already booked a speaking test for this session")
	ErrSlotSessionMismatch = errors.New("speaking slot does not belong to this test session")
	ErrSlotNotBooked       = errors.New("speaking slot is not booked")
	ErrSlotNotCancelled    = errors.New("speaking slot is not cancelled")
)

var ErrAccessDenied = errors.New("access denied")
