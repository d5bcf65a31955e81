package model

// Level is a CEFR proficiency label.
type Level string

const (
	LevelA1 Level = "A1"
	LevelA2 Level = "A2"
	LevelB1 Level = "B1"
	LevelB2 Level = "B2"
	LevelC1 Level = "C1"
	LevelC2 Level = "C2"
)

var levels = []Level{LevelA1, LevelA2, LevelB1, LevelB2, LevelC1, LevelC2}

// IsValid checks the label against the six CEFR levels
func (l Level) IsValid() bool {
	for _, v := range levels {
		if l == v {
			return true
		}
	}
	return false
}
