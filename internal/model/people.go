package model

import "github.com/google/uuid"

type Teacher struct {
	ID             uuid.UUID `json:"id"`
	FirstName      string    `json:"firstName"`
	LastName       string    `json:"lastName"`
	IsActive       bool      `json:"isActive"`
	TelegramChatID *int64    `json:"-"` // chat for booking notifications, optional
}

type Student struct {
	ID           uuid.UUID `json:"id"`
	FirstName    string    `json:"firstName"`
	LastName     string    `json:"lastName"`
	CurrentLevel *Level    `json:"currentLevel"`
}
