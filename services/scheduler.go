package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"carwash-backend/config"
	"carwash-backend/models"
	"carwash-backend/utils"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// PackagePlan is the wash count, price and interior allotment of a package.
type PackagePlan struct {
	Washes   int
	Price    float64
	Interior int
}

var PackagePricing = map[string]PackagePlan{
	models.PackageBasic:   {Washes: 3, Price: 300, Interior: 1},
	models.PackagePremium: {Washes: 4, Price: 400, Interior: 2},
	models.PackageDeluxe:  {Washes: 5, Price: 500, Interior: 3},
}

var customDefaults = PackagePlan{Washes: 3, Price: 300}

// SubscriptionRequest describes a monthly package booking.
type SubscriptionRequest struct {
	PackageType         string
	CustomPlanName      string
	TotalWashes         int
	Price               float64
	TotalInteriorWashes int
	Dates               []time.Time
	IsPaid              bool
	WasherID            *uint
	AutoGenerate        bool
}

// ResolvePackage returns the wash count, price and interior allotment for a request.
func ResolvePackage(req SubscriptionRequest) (PackagePlan, error) {
	if req.PackageType == "" {
		return PackagePlan{}, fmt.Errorf("%w: packageType is required", ErrInvalidInput)
	}
	if req.PackageType != models.PackageCustom {
		plan, ok := PackagePricing[req.PackageType]
		if !ok {
			return PackagePlan{}, fmt.Errorf("%w: unknown packageType %q", ErrInvalidInput, req.PackageType)
		}
		return plan, nil
	}

	plan := PackagePlan{Washes: req.TotalWashes, Price: req.Price, Interior: req.TotalInteriorWashes}
	if plan.Washes <= 0 {
		plan.Washes = customDefaults.Washes
	}
	if plan.Price <= 0 {
		plan.Price = customDefaults.Price
	}
	if plan.Interior < 0 || plan.Interior > plan.Washes {
		return PackagePlan{}, fmt.Errorf("%w: totalInteriorWashes must be between 0 and %d", ErrInvalidInput, plan.Washes)
	}
	return plan, nil
}

// PerWashAmount is price / n rounded to the nearest whole currency unit.
func PerWashAmount(price float64, n int) float64 {
	if n <= 0 {
		return 0
	}
	return decimal.NewFromFloat(price).
		Div(decimal.NewFromInt(int64(n))).
		Round(0).
		InexactFloat64()
}

// BuildSubscription turns a package choice into a subscription with one
// scheduled slot per supplied date, and updates the lead for the purchase.
// now decides which slots fall on today or tomorrow.
func BuildSubscription(lead *models.Lead, req SubscriptionRequest, now time.Time) (*models.Subscription, error) {
	plan, err := ResolvePackage(req)
	if err != nil {
		return nil, err
	}
	if len(req.Dates) == 0 {
		return nil, fmt.Errorf("%w: at least one wash date is required", ErrInvalidInput)
	}
	if len(req.Dates) > plan.Washes {
		return nil, fmt.Errorf("%w: %d dates supplied for a %d-wash package", ErrInvalidInput, len(req.Dates), plan.Washes)
	}

	divisor := len(req.Dates)
	if req.AutoGenerate {
		divisor = plan.Washes
	}
	amount := PerWashAmount(plan.Price, divisor)

	dates := append([]time.Time(nil), req.Dates...)
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	start := utils.BeginningOfDay(dates[0])
	sub := &models.Subscription{
		LeadID:              lead.ID,
		PackageType:         req.PackageType,
		TotalWashes:         plan.Washes,
		TotalInteriorWashes: plan.Interior,
		Price:               plan.Price,
		StartDate:           start,
		EndDate:             start.Add(models.SubscriptionPeriod),
		IsActive:            true,
		IsPaid:              req.IsPaid,
	}
	if req.PackageType == models.PackageCustom {
		sub.CustomPlanName = req.CustomPlanName
	}

	tomorrow := now.AddDate(0, 0, 1)
	for i, d := range dates {
		slot := newSlot(lead.ID, sub, i+1, d, amount)
		if req.WasherID != nil && (utils.SameDay(d, now) || utils.SameDay(d, tomorrow)) {
			id := *req.WasherID
			slot.WasherID = &id
			lead.AssignedWasherID = &id
		}
		sub.ScheduledWashes = append(sub.ScheduledWashes, slot)
	}

	sub.PricingAdjustment = decimal.NewFromFloat(plan.Price).
		Sub(decimal.NewFromFloat(amount).Mul(decimal.NewFromInt(int64(divisor)))).
		InexactFloat64()

	lead.LeadType = models.LeadTypeMonthly
	lead.Convert()
	return sub, nil
}

func newSlot(leadID uint, sub *models.Subscription, number int, date time.Time, amount float64) models.WashRecord {
	return models.WashRecord{
		LeadID:     leadID,
		Kind:       models.WashKindSubscription,
		WashNumber: number,
		WashType:   sub.PlanName(),
		Amount:     amount,
		Date:       date,
		IsPaid:     sub.IsPaid,
		Status:     models.WashStatusScheduled,
	}
}

// RemainingSlots fills a subscription up to TotalWashes, spacing the new slots
// 30/TotalWashes days apart (at least one day) after the last existing slot.
func RemainingSlots(sub *models.Subscription) []models.WashRecord {
	existing := len(sub.ScheduledWashes)
	if existing == 0 || existing >= sub.TotalWashes {
		return nil
	}
	sub.SortSlots()
	last := sub.ScheduledWashes[existing-1]

	spacing := 30 / sub.TotalWashes
	if spacing < 1 {
		spacing = 1
	}

	var slots []models.WashRecord
	date := last.Date
	for n := existing + 1; n <= sub.TotalWashes; n++ {
		date = date.AddDate(0, 0, spacing)
		slot := newSlot(sub.LeadID, sub, n, date, last.Amount)
		if sub.ID != 0 {
			id := sub.ID
			slot.SubscriptionID = &id
		}
		slots = append(slots, slot)
	}
	return slots
}

// Scheduler creates subscriptions and completes their slots.
type Scheduler struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewScheduler(db *gorm.DB, log *zap.Logger) *Scheduler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Scheduler{db: db, log: log}
}

// CreateSubscription stores a new subscription for the lead. Auto-generation
// of the remaining slots runs after the commit and only logs its failures.
func (s *Scheduler) CreateSubscription(ctx context.Context, leadID uint, req SubscriptionRequest) (*models.Subscription, error) {
	var sub *models.Subscription
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		lead, err := findLead(tx, leadID)
		if err != nil {
			return err
		}
		if req.WasherID != nil {
			if _, err := findWasher(tx, *req.WasherID); err != nil {
				return err
			}
		}

		sub, err = BuildSubscription(lead, req, utils.Now())
		if err != nil {
			return err
		}
		if err := closeSubscriptions(tx, lead.ID); err != nil {
			return err
		}
		if err := tx.Create(sub).Error; err != nil {
			return err
		}
		return tx.Model(&models.Lead{}).Where("id = ?", lead.ID).Updates(map[string]interface{}{
			"lead_type":          lead.LeadType,
			"status":             lead.Status,
			"assigned_washer_id": lead.AssignedWasherID,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	config.SubscriptionsCreated.WithLabelValues(sub.PackageType).Inc()

	if req.AutoGenerate {
		if slots := RemainingSlots(sub); len(slots) > 0 {
			if err := s.db.WithContext(ctx).Create(&slots).Error; err != nil {
				s.log.Error("auto-generating subscription slots failed",
					zap.Uint("lead_id", leadID), zap.Uint("subscription_id", sub.ID), zap.Error(err))
			} else {
				sub.ScheduledWashes = append(sub.ScheduledWashes, slots...)
			}
		}
	}
	return sub, nil
}

// closeSubscriptions deactivates the lead's running subscriptions and cancels
// their open slots. A lead has at most one active subscription.
func closeSubscriptions(tx *gorm.DB, leadID uint) error {
	var ids []uint
	if err := tx.Model(&models.Subscription{}).
		Where("lead_id = ? AND is_active = ?", leadID, true).
		Pluck("id", &ids).Error; err != nil {
		return err
	}
	if len(ids) == 0 {
		return nil
	}
	if err := tx.Model(&models.WashRecord{}).
		Where("subscription_id IN ? AND status IN ?", ids,
			[]string{models.WashStatusScheduled, models.WashStatusPending, models.WashStatusInProgress}).
		Update("status", models.WashStatusCancelled).Error; err != nil {
		return err
	}
	return tx.Model(&models.Subscription{}).Where("id IN ?", ids).Update("is_active", false).Error
}

// LatestSubscription returns the lead's most recent subscription with its slots in order.
func (s *Scheduler) LatestSubscription(ctx context.Context, leadID uint) (*models.Subscription, error) {
	return latestSubscription(s.db.WithContext(ctx), leadID)
}

func latestSubscription(db *gorm.DB, leadID uint) (*models.Subscription, error) {
	var sub models.Subscription
	err := db.Preload("ScheduledWashes.Washer").
		Where("lead_id = ?", leadID).
		Order("id DESC").
		First(&sub).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: lead %d has no monthly subscription", ErrNotFound, leadID)
	}
	if err != nil {
		return nil, err
	}
	sub.SortSlots()
	return &sub, nil
}

// SlotCompletion carries the details recorded when a slot is completed.
type SlotCompletion struct {
	IsPaid   *bool
	Feedback string
	WasherID *uint
	Duration int
	Interior bool
}

// CompleteSlot marks one subscription slot completed. slotRef is either the
// slot's record id or its wash number.
func (s *Scheduler) CompleteSlot(ctx context.Context, leadID uint, slotRef string, in SlotCompletion) (*models.Subscription, error) {
	var sub *models.Subscription
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		sub, err = latestSubscription(tx, leadID)
		if err != nil {
			return err
		}
		if !sub.IsActive {
			return fmt.Errorf("%w: subscription has already used all its washes", ErrInvalidState)
		}

		slot := findSlot(sub, slotRef)
		if slot == nil {
			return fmt.Errorf("%w: scheduled wash %s", ErrNotFound, slotRef)
		}
		if slot.Status == models.WashStatusCompleted {
			return fmt.Errorf("%w: scheduled wash %d is already completed", ErrInvalidState, slot.WashNumber)
		}

		if in.Interior {
			if sub.UsedInteriorWashes >= sub.TotalInteriorWashes {
				return fmt.Errorf("%w: no interior washes left on this package", ErrInvalidInput)
			}
			sub.UsedInteriorWashes++
			slot.Interior = true
		}
		if in.WasherID != nil {
			washer, err := findWasher(tx, *in.WasherID)
			if err != nil {
				return err
			}
			slot.WasherID = &washer.ID
			slot.Washer = washer
		}

		status := models.WashStatusCompleted
		upd := WashUpdate{Status: &status, IsPaid: in.IsPaid}
		if in.Feedback != "" {
			upd.Feedback = &in.Feedback
		}
		if in.Duration > 0 {
			upd.Duration = &in.Duration
		}
		if err := ApplyWashUpdate(slot, upd, utils.Now()); err != nil {
			return err
		}
		if err := tx.Omit("Washer", "Lead").Save(slot).Error; err != nil {
			return err
		}

		sub.SyncProgress()
		sub.IsPaid = allPaid(sub.ScheduledWashes)
		return tx.Model(&models.Subscription{}).Where("id = ?", sub.ID).Updates(map[string]interface{}{
			"completed_washes":     sub.CompletedWashes,
			"is_active":            sub.IsActive,
			"is_paid":              sub.IsPaid,
			"used_interior_washes": sub.UsedInteriorWashes,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	config.WashesCompleted.WithLabelValues(models.WashKindSubscription).Inc()
	return sub, nil
}

// ResyncSubscription recomputes progress after a slot was edited through the
// wash-history path.
func ResyncSubscription(tx *gorm.DB, subscriptionID uint) error {
	var sub models.Subscription
	if err := tx.Preload("ScheduledWashes").First(&sub, subscriptionID).Error; err != nil {
		return err
	}
	sub.SyncProgress()
	sub.IsPaid = allPaid(sub.ScheduledWashes)
	return tx.Model(&models.Subscription{}).Where("id = ?", sub.ID).Updates(map[string]interface{}{
		"completed_washes": sub.CompletedWashes,
		"is_active":        sub.IsActive,
		"is_paid":          sub.IsPaid,
	}).Error
}

func findSlot(sub *models.Subscription, ref string) *models.WashRecord {
	for i := range sub.ScheduledWashes {
		slot := &sub.ScheduledWashes[i]
		if slot.ID.String() == ref || fmt.Sprint(slot.WashNumber) == ref {
			return slot
		}
	}
	return nil
}

func allPaid(slots []models.WashRecord) bool {
	if len(slots) == 0 {
		return false
	}
	for i := range slots {
		if !slots[i].IsPaid {
			return false
		}
	}
	return true
}

func findLead(db *gorm.DB, id uint) (*models.Lead, error) {
	var lead models.Lead
	err := db.First(&lead, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: lead %d", ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return &lead, nil
}

func findWasher(db *gorm.DB, id uint) (*models.User, error) {
	var washer models.User
	err := db.First(&washer, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) || (err == nil && !washer.IsWasher()) {
		return nil, fmt.Errorf("%w: washer %d", ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return &washer, nil
}
