package model

import "github.com/google/uuid"

type TestSessionStatus string

const (
	TestSessionStatusMCQCompleted      TestSessionStatus = "MCQ_COMPLETED"
	TestSessionStatusSpeakingScheduled TestSessionStatus = "SPEAKING_SCHEDULED"
	TestSessionStatusSpeakingCompleted TestSessionStatus = "SPEAKING_COMPLETED"
)

// TestSession is the placement-test session a speaking slot is booked against.
// Only the fields this service reads or writes are mapped.
type TestSession struct {
	ID        uuid.UUID         `json:"id"`
	StudentID uuid.UUID         `json:"studentId"`
	Status    TestSessionStatus `json:"status"`
}
