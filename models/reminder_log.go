package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	ReminderSent   = "sent"
	ReminderFailed = "failed"

	ChannelSMS      = "sms"
	ChannelWhatsApp = "whatsapp"
)

type ReminderLog struct {
	ID           uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	LeadID       uint      `gorm:"index;not null" json:"leadId"`
	WashRecordID uuid.UUID `gorm:"type:uuid;index;not null" json:"washRecordId"`
	TemplateID   uuid.UUID `gorm:"type:uuid;index" json:"templateId"`
	Message      string    `gorm:"type:text" json:"message"`
	Status       string    `gorm:"type:varchar(10)" json:"status"`
	ErrorMessage string    `gorm:"type:text" json:"errorMessage,omitempty"`
	Channel      string    `gorm:"type:varchar(10)" json:"channel"`
	SentAt       time.Time `json:"sentAt"`
	CreatedAt    time.Time `json:"createdAt"`
}

func (r *ReminderLog) BeforeCreate(tx *gorm.DB) (err error) {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return
}
