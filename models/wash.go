package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Wash record kinds. Every wash is stored once; the kind says how it was booked.
const (
	WashKindAdhoc        = "adhoc"
	WashKindOneTime      = "onetime"
	WashKindSubscription = "subscription"
)

const (
	WashStatusScheduled    = "scheduled"
	WashStatusPending      = "pending"
	WashStatusInProgress   = "in-progress"
	WashStatusCompleted    = "completed"
	WashStatusNotCompleted = "notcompleted"
	WashStatusCancelled    = "cancelled"
)

var WashTypes = []string{"Basic", "Premium", "Deluxe"}

type WashRecord struct {
	ID     uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	LeadID uint      `gorm:"index;not null" json:"leadId"`
	Lead   *Lead     `gorm:"foreignKey:LeadID" json:"-"`

	Kind           string `gorm:"type:varchar(12);not null;index" json:"kind"`
	SubscriptionID *uint  `gorm:"index" json:"subscriptionId,omitempty"`
	WashNumber     int    `json:"washNumber,omitempty"`

	WashType string     `gorm:"not null" json:"washType"`
	WasherID *uint      `gorm:"index" json:"washerId,omitempty"`
	Washer   *User      `gorm:"foreignKey:WasherID" json:"washer,omitempty"`
	Amount   float64    `gorm:"type:decimal(10,2);not null" json:"amount"`
	Date     time.Time  `gorm:"not null;index" json:"date"`
	Feedback string     `gorm:"type:text" json:"feedback,omitempty"`
	IsPaid   bool       `gorm:"default:false" json:"is_amountPaid"`
	Status   string     `gorm:"type:varchar(15);not null;index" json:"washStatus"`
	Interior bool       `gorm:"default:false" json:"interior"`
	Started  *time.Time `json:"startTime,omitempty"`
	Ended    *time.Time `json:"endTime,omitempty"`
	Duration int        `json:"duration"`

	CompletedAt *time.Time `json:"completedDate,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (w *WashRecord) BeforeCreate(tx *gorm.DB) (err error) {
	if w.ID == uuid.Nil {
		w.ID = uuid.New()
	}
	return
}

// IsConverted reports whether the wash was performed, paid or not.
// Conversion views count these.
func (w *WashRecord) IsConverted() bool {
	return w.Status == WashStatusCompleted
}

// IsRevenueEligible reports whether the wash counts toward revenue:
// it must be both completed and paid.
func (w *WashRecord) IsRevenueEligible() bool {
	return w.Status == WashStatusCompleted && w.IsPaid
}

func (w *WashRecord) IsTerminal() bool {
	switch w.Status {
	case WashStatusCompleted, WashStatusNotCompleted, WashStatusCancelled:
		return true
	}
	return false
}

func ValidWashStatus(s string) bool {
	switch s {
	case WashStatusScheduled, WashStatusPending, WashStatusInProgress,
		WashStatusCompleted, WashStatusNotCompleted, WashStatusCancelled:
		return true
	}
	return false
}

func ValidWashType(t string) bool {
	for _, wt := range WashTypes {
		if wt == t {
			return true
		}
	}
	return false
}
