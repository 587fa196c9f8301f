package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const ReminderTypeWash = "wash_reminder"

// ReminderTemplate messages may use the [CustomerName], [WashType] and [Date] placeholders.
type ReminderTemplate struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	Type      string    `gorm:"type:varchar(20);not null;index" json:"type"`
	Message   string    `gorm:"type:text;not null" json:"message"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (t *ReminderTemplate) BeforeCreate(tx *gorm.DB) (err error) {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return
}
