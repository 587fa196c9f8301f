package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"carwash-backend/config"
	"carwash-backend/models"
	"carwash-backend/utils"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var washTransitions = map[string][]string{
	models.WashStatusScheduled: {models.WashStatusPending, models.WashStatusInProgress,
		models.WashStatusCompleted, models.WashStatusNotCompleted, models.WashStatusCancelled},
	models.WashStatusPending: {models.WashStatusScheduled, models.WashStatusInProgress,
		models.WashStatusCompleted, models.WashStatusNotCompleted, models.WashStatusCancelled},
	models.WashStatusInProgress: {models.WashStatusCompleted, models.WashStatusNotCompleted,
		models.WashStatusCancelled},
	// terminal states can only be corrected among themselves
	models.WashStatusCompleted:    {models.WashStatusNotCompleted, models.WashStatusCancelled},
	models.WashStatusNotCompleted: {models.WashStatusCompleted, models.WashStatusCancelled},
	models.WashStatusCancelled:    {models.WashStatusCompleted, models.WashStatusNotCompleted},
}

// TransitionAllowed reports whether a wash may move from one status to another.
func TransitionAllowed(from, to string) bool {
	if from == to {
		return true
	}
	for _, next := range washTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// ComputeDuration returns whole minutes between start and end when both are
// set, otherwise the supplied duration, never negative.
func ComputeDuration(start, end *time.Time, supplied int) int {
	if start != nil && end != nil {
		if d := int(end.Sub(*start).Minutes()); d > 0 {
			return d
		}
		return 0
	}
	if supplied > 0 {
		return supplied
	}
	return 0
}

// WashUpdate carries optional changes to a wash record; nil fields are left alone.
type WashUpdate struct {
	Status    *string
	IsPaid    *bool
	Feedback  *string
	Amount    *float64
	WashType  *string
	Date      *time.Time
	WasherID  *uint
	StartTime *time.Time
	EndTime   *time.Time
	Duration  *int
}

// ApplyWashUpdate mutates w in place, enforcing the wash state machine.
func ApplyWashUpdate(w *models.WashRecord, u WashUpdate, now time.Time) error {
	if u.Amount != nil {
		if *u.Amount < 0 {
			return fmt.Errorf("%w: amount must not be negative", ErrInvalidInput)
		}
		w.Amount = *u.Amount
	}
	if u.WashType != nil && *u.WashType != "" {
		w.WashType = *u.WashType
	}
	if u.Date != nil {
		w.Date = *u.Date
	}
	if u.WasherID != nil {
		w.WasherID = u.WasherID
		w.Washer = nil
	}
	if u.IsPaid != nil {
		w.IsPaid = *u.IsPaid
	}
	if u.Feedback != nil {
		w.Feedback = *u.Feedback
	}
	if u.StartTime != nil {
		w.Started = u.StartTime
	}
	if u.EndTime != nil {
		w.Ended = u.EndTime
	}

	supplied := w.Duration
	if u.Duration != nil {
		supplied = *u.Duration
	}

	if u.Status != nil && *u.Status != w.Status {
		to := *u.Status
		if !models.ValidWashStatus(to) {
			return fmt.Errorf("%w: unknown washStatus %q", ErrInvalidInput, to)
		}
		if !TransitionAllowed(w.Status, to) {
			return fmt.Errorf("%w: cannot move wash from %s to %s", ErrInvalidState, w.Status, to)
		}
		switch to {
		case models.WashStatusInProgress:
			if w.Started == nil {
				t := now
				w.Started = &t
			}
		case models.WashStatusCompleted:
			if w.Ended == nil {
				t := now
				w.Ended = &t
			}
			end := *w.Ended
			w.CompletedAt = &end
		}
		if to != models.WashStatusCompleted {
			w.CompletedAt = nil
		}
		w.Status = to
	}

	if w.Started != nil && w.Ended != nil && w.Ended.Before(*w.Started) {
		return fmt.Errorf("%w: endTime is before startTime", ErrInvalidInput)
	}
	w.Duration = ComputeDuration(w.Started, w.Ended, supplied)
	return nil
}

// LeadService applies wash and assignment changes to leads.
type LeadService struct {
	db *gorm.DB
}

func NewLeadService(db *gorm.DB) *LeadService {
	return &LeadService{db: db}
}

// WashEntry is a new wash for a lead.
type WashEntry struct {
	WashType  string
	WasherID  *uint
	Amount    float64
	Date      time.Time
	Feedback  string
	IsPaid    bool
	Status    string
	StartTime *time.Time
	EndTime   *time.Time
	Duration  int
}

func (e WashEntry) record(leadID uint, kind string, now time.Time) (*models.WashRecord, error) {
	if e.Amount < 0 {
		return nil, fmt.Errorf("%w: amount must not be negative", ErrInvalidInput)
	}
	date := e.Date
	if date.IsZero() {
		date = now
	}
	initial := models.WashStatusPending
	if kind == models.WashKindOneTime {
		initial = models.WashStatusScheduled
	}
	w := &models.WashRecord{
		LeadID:   leadID,
		Kind:     kind,
		WashType: e.WashType,
		WasherID: e.WasherID,
		Amount:   e.Amount,
		Date:     date,
		Status:   initial,
		Started:  e.StartTime,
		Ended:    e.EndTime,
	}
	status := e.Status
	if status == "" {
		status = initial
	}
	feedback, isPaid, duration := e.Feedback, e.IsPaid, e.Duration
	upd := WashUpdate{Status: &status, Feedback: &feedback, IsPaid: &isPaid, Duration: &duration}
	if err := ApplyWashUpdate(w, upd, now); err != nil {
		return nil, err
	}
	return w, nil
}

// AddWash appends an ad hoc wash to the lead's history. The first wash
// converts the lead.
func (s *LeadService) AddWash(ctx context.Context, leadID uint, entry WashEntry) (*models.WashRecord, error) {
	var rec *models.WashRecord
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		lead, err := findLead(tx, leadID)
		if err != nil {
			return err
		}
		if entry.WasherID != nil {
			if _, err := findWasher(tx, *entry.WasherID); err != nil {
				return err
			}
		}
		rec, err = entry.record(lead.ID, models.WashKindAdhoc, utils.Now())
		if err != nil {
			return err
		}
		if err := tx.Create(rec).Error; err != nil {
			return err
		}
		return convertLead(tx, lead)
	})
	if err != nil {
		return nil, err
	}
	if rec.Status == models.WashStatusCompleted {
		config.WashesCompleted.WithLabelValues(rec.Kind).Inc()
	}
	return rec, nil
}

// UpdateWash applies a correction or state change to one of the lead's wash records.
func (s *LeadService) UpdateWash(ctx context.Context, leadID uint, recordID string, u WashUpdate) (*models.WashRecord, error) {
	id, err := uuid.Parse(recordID)
	if err != nil {
		return nil, fmt.Errorf("%w: wash entry %s", ErrNotFound, recordID)
	}

	var rec models.WashRecord
	completedNow := false
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("id = ? AND lead_id = ?", id, leadID).First(&rec).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: wash entry %s", ErrNotFound, recordID)
		}
		if err != nil {
			return err
		}
		if u.WasherID != nil {
			if _, err := findWasher(tx, *u.WasherID); err != nil {
				return err
			}
		}

		before := rec.Status
		if err := ApplyWashUpdate(&rec, u, utils.Now()); err != nil {
			return err
		}
		completedNow = before != models.WashStatusCompleted && rec.Status == models.WashStatusCompleted
		if err := tx.Omit("Washer", "Lead").Save(&rec).Error; err != nil {
			return err
		}

		if completedNow && rec.Kind == models.WashKindOneTime {
			lead, err := findLead(tx, leadID)
			if err != nil {
				return err
			}
			if err := convertLead(tx, lead); err != nil {
				return err
			}
		}
		if rec.SubscriptionID != nil {
			return ResyncSubscription(tx, *rec.SubscriptionID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if completedNow {
		config.WashesCompleted.WithLabelValues(rec.Kind).Inc()
	}
	return &rec, nil
}

// AssignOneTime schedules (or reschedules) the lead's one-time wash and assigns the washer.
func (s *LeadService) AssignOneTime(ctx context.Context, leadID uint, entry WashEntry) (*models.WashRecord, error) {
	if entry.WasherID == nil {
		return nil, fmt.Errorf("%w: washerId is required", ErrInvalidInput)
	}
	var rec *models.WashRecord
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		lead, err := findLead(tx, leadID)
		if err != nil {
			return err
		}
		if _, err := findWasher(tx, *entry.WasherID); err != nil {
			return err
		}

		var existing models.WashRecord
		err = tx.Where("lead_id = ? AND kind = ?", leadID, models.WashKindOneTime).Order("date DESC").First(&existing).Error
		switch {
		case err == nil && !existing.IsTerminal():
			existing.WashType = entry.WashType
			existing.WasherID = entry.WasherID
			existing.Amount = entry.Amount
			if !entry.Date.IsZero() {
				existing.Date = entry.Date
			}
			existing.IsPaid = entry.IsPaid
			if err := tx.Omit("Washer", "Lead").Save(&existing).Error; err != nil {
				return err
			}
			rec = &existing
		case err == nil || errors.Is(err, gorm.ErrRecordNotFound):
			entry.Status = ""
			rec, err = entry.record(leadID, models.WashKindOneTime, utils.Now())
			if err != nil {
				return err
			}
			if err := tx.Create(rec).Error; err != nil {
				return err
			}
		default:
			return err
		}

		return tx.Model(&models.Lead{}).Where("id = ?", lead.ID).
			Update("assigned_washer_id", *entry.WasherID).Error
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// AssignWasher binds a washer to the lead and to its open, unassigned washes.
func (s *LeadService) AssignWasher(ctx context.Context, leadID, washerID uint) (*models.Lead, error) {
	var lead *models.Lead
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		lead, err = findLead(tx, leadID)
		if err != nil {
			return err
		}
		if _, err := findWasher(tx, washerID); err != nil {
			return err
		}
		if err := tx.Model(&models.Lead{}).Where("id = ?", leadID).
			Update("assigned_washer_id", washerID).Error; err != nil {
			return err
		}
		lead.AssignedWasherID = &washerID
		return tx.Model(&models.WashRecord{}).
			Where("lead_id = ? AND washer_id IS NULL AND status IN ?", leadID,
				[]string{models.WashStatusScheduled, models.WashStatusPending}).
			Update("washer_id", washerID).Error
	})
	if err != nil {
		return nil, err
	}
	return lead, nil
}

func convertLead(tx *gorm.DB, lead *models.Lead) error {
	if lead.IsConverted() {
		return nil
	}
	lead.Convert()
	return tx.Model(&models.Lead{}).Where("id = ?", lead.ID).Update("status", lead.Status).Error
}

// CheckStatusChange rejects any attempt to move a converted lead back to New.
func CheckStatusChange(lead *models.Lead, requested string) error {
	if requested == "" || requested == lead.Status {
		return nil
	}
	if requested != models.LeadStatusNew && requested != models.LeadStatusConverted {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidInput, requested)
	}
	if lead.IsConverted() && requested == models.LeadStatusNew {
		return fmt.Errorf("%w: a converted lead cannot return to New", ErrInvalidInput)
	}
	return nil
}
