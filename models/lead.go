package models

import (
	"sort"
	"time"
)

const (
	LeadTypeOneTime = "One-time"
	LeadTypeMonthly = "Monthly"
)

const (
	LeadStatusNew       = "New"
	LeadStatusConverted = "Converted"
)

var LeadSources = []string{"Pamphlet", "WhatsApp", "Referral", "Walk-in", "Social Media", "Other"}

// Location is a GeoJSON point; coordinates are [longitude, latitude].
type Location struct {
	Type        string     `json:"type"`
	Coordinates [2]float64 `json:"coordinates"`
}

type Reminder struct {
	Date *time.Time `json:"date,omitempty"`
	Note string     `json:"note,omitempty"`
}

type Lead struct {
	ID           uint   `gorm:"primaryKey" json:"id"`
	LeadType     string `gorm:"type:varchar(10);not null;index" json:"leadType"`
	LeadSource   string `gorm:"type:varchar(20);not null;index" json:"leadSource"`
	CustomerName string `gorm:"not null" json:"customerName"`
	Phone        string `gorm:"uniqueIndex;not null" json:"phone"`
	Area         string `gorm:"not null;index" json:"area"`
	CarModel     string `json:"carModel"`
	Notes        string `gorm:"type:text" json:"notes"`

	Longitude float64 `json:"-"`
	Latitude  float64 `json:"-"`

	ReminderDate *time.Time `json:"-"`
	ReminderNote string     `json:"-"`

	Status string `gorm:"type:varchar(10);default:'New';index" json:"status"`

	AssignedWasherID *uint `gorm:"index" json:"assignedWasherId,omitempty"`
	AssignedWasher   *User `gorm:"foreignKey:AssignedWasherID" json:"assignedWasher,omitempty"`

	WashHistory   []WashRecord   `gorm:"foreignKey:LeadID;constraint:OnDelete:CASCADE" json:"washHistory"`
	Subscriptions []Subscription `gorm:"foreignKey:LeadID;constraint:OnDelete:CASCADE" json:"-"`

	// Derived views over WashHistory and Subscriptions, filled by PrepareViews.
	Location            Location      `gorm:"-" json:"location"`
	Reminder            *Reminder     `gorm:"-" json:"reminder,omitempty"`
	OneTimeWash         *WashRecord   `gorm:"-" json:"oneTimeWash,omitempty"`
	MonthlySubscription *Subscription `gorm:"-" json:"monthlySubscription,omitempty"`

	CreatedAt time.Time `gorm:"index" json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (l *Lead) IsConverted() bool {
	return l.Status == LeadStatusConverted
}

// Convert moves the lead to Converted. There is no way back to New.
func (l *Lead) Convert() {
	l.Status = LeadStatusConverted
}

func (l *Lead) SetLocation(coords []float64) {
	if len(coords) == 2 {
		l.Longitude, l.Latitude = coords[0], coords[1]
	}
}

// PrepareViews fills the JSON-only fields from the stored columns and
// preloaded associations.
func (l *Lead) PrepareViews() {
	l.Location = Location{Type: "Point", Coordinates: [2]float64{l.Longitude, l.Latitude}}
	if l.ReminderDate != nil || l.ReminderNote != "" {
		l.Reminder = &Reminder{Date: l.ReminderDate, Note: l.ReminderNote}
	}

	sort.SliceStable(l.WashHistory, func(i, j int) bool {
		return l.WashHistory[i].Date.Before(l.WashHistory[j].Date)
	})
	// the latest one-time wash is the current one, matching AssignOneTime
	l.OneTimeWash = nil
	for i := range l.WashHistory {
		if l.WashHistory[i].Kind == WashKindOneTime {
			l.OneTimeWash = &l.WashHistory[i]
		}
	}

	l.MonthlySubscription = nil
	for i := range l.Subscriptions {
		s := &l.Subscriptions[i]
		if l.MonthlySubscription == nil || s.ID > l.MonthlySubscription.ID {
			l.MonthlySubscription = s
		}
	}
	if l.MonthlySubscription != nil {
		l.MonthlySubscription.SortSlots()
	}
}

func ValidLeadType(t string) bool {
	return t == LeadTypeOneTime || t == LeadTypeMonthly
}

func ValidLeadSource(s string) bool {
	for _, src := range LeadSources {
		if src == s {
			return true
		}
	}
	return false
}
