package models

import (
	"sort"
	"time"
)

const (
	PackageBasic   = "Basic"
	PackagePremium = "Premium"
	PackageDeluxe  = "Deluxe"
	PackageCustom  = "Custom"
)

// SubscriptionPeriod is how long a monthly package runs from its start date.
const SubscriptionPeriod = 30 * 24 * time.Hour

type Subscription struct {
	ID     uint `gorm:"primaryKey" json:"id"`
	LeadID uint `gorm:"index;not null" json:"leadId"`

	PackageType         string  `gorm:"type:varchar(10);not null" json:"packageType"`
	CustomPlanName      string  `json:"customPlanName,omitempty"`
	TotalWashes         int     `gorm:"not null" json:"totalWashes"`
	TotalInteriorWashes int     `json:"totalInteriorWashes"`
	UsedInteriorWashes  int     `json:"usedInteriorWashes"`
	Price               float64 `gorm:"type:decimal(10,2);not null" json:"price"`
	// PricingAdjustment is Price minus the sum of slot amounts; per-wash
	// rounding drift is tracked here instead of being folded into a slot.
	PricingAdjustment float64 `gorm:"type:decimal(10,2);default:0" json:"pricingAdjustment"`

	StartDate       time.Time `json:"startDate"`
	EndDate         time.Time `json:"endDate"`
	IsActive        bool      `gorm:"default:true" json:"isActive"`
	IsPaid          bool      `gorm:"default:false" json:"isPaid"`
	CompletedWashes int       `gorm:"default:0" json:"completedWashes"`

	ScheduledWashes []WashRecord `gorm:"foreignKey:SubscriptionID" json:"scheduledWashes"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// PlanName is the wash type recorded on the subscription's slots.
func (s *Subscription) PlanName() string {
	if s.PackageType == PackageCustom && s.CustomPlanName != "" {
		return s.CustomPlanName
	}
	return s.PackageType
}

// SyncProgress recomputes CompletedWashes from the slots and derives IsActive.
func (s *Subscription) SyncProgress() {
	completed := 0
	for i := range s.ScheduledWashes {
		if s.ScheduledWashes[i].Status == WashStatusCompleted {
			completed++
		}
	}
	s.CompletedWashes = completed
	s.IsActive = completed < s.TotalWashes
}

func (s *Subscription) SortSlots() {
	sort.SliceStable(s.ScheduledWashes, func(i, j int) bool {
		return s.ScheduledWashes[i].WashNumber < s.ScheduledWashes[j].WashNumber
	})
}

func (s *Subscription) SlotTotal() float64 {
	var total float64
	for i := range s.ScheduledWashes {
		total += s.ScheduledWashes[i].Amount
	}
	return total
}
