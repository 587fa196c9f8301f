package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"carwash-backend/models"
	"carwash-backend/utils"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	ClockIn  = "in"
	ClockOut = "out"
)

// HoursBetween is the worked time in hours rounded to two decimals, never negative.
func HoursBetween(in, out time.Time) float64 {
	if !out.After(in) {
		return 0
	}
	return decimal.NewFromFloat(out.Sub(in).Hours()).Round(2).InexactFloat64()
}

// MarkAttendance applies a clock-in or clock-out to the day's entry. A nil
// entry means nothing has been recorded for the day yet.
func MarkAttendance(entry *models.Attendance, userID uint, kind string, now time.Time) (*models.Attendance, error) {
	switch kind {
	case ClockIn:
		if entry != nil && entry.TimeIn != nil {
			return nil, fmt.Errorf("%w: time-in already marked for today", ErrInvalidInput)
		}
		if entry == nil {
			entry = &models.Attendance{UserID: userID, Date: utils.BeginningOfDay(now)}
		}
		t := now
		entry.TimeIn = &t
		entry.Status = models.AttendanceIncomplete
	case ClockOut:
		if entry == nil || entry.TimeIn == nil {
			return nil, fmt.Errorf("%w: must mark time-in before marking time-out", ErrInvalidInput)
		}
		if entry.TimeOut != nil {
			return nil, fmt.Errorf("%w: time-out already marked for today", ErrInvalidInput)
		}
		t := now
		entry.TimeOut = &t
		entry.Duration = HoursBetween(*entry.TimeIn, t)
		entry.Status = models.AttendancePresent
	default:
		return nil, fmt.Errorf("%w: type must be \"in\" or \"out\"", ErrInvalidInput)
	}
	return entry, nil
}

// AttendanceService stores washer attendance.
type AttendanceService struct {
	db *gorm.DB
}

func NewAttendanceService(db *gorm.DB) *AttendanceService {
	return &AttendanceService{db: db}
}

// Mark records a clock-in or clock-out for the washer at now.
func (s *AttendanceService) Mark(ctx context.Context, washerID uint, kind string, now time.Time) (*models.Attendance, error) {
	var result *models.Attendance
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := findWasher(tx, washerID); err != nil {
			return err
		}

		var existing models.Attendance
		var entry *models.Attendance
		err := tx.Where("user_id = ? AND date = ?", washerID, utils.BeginningOfDay(now)).First(&existing).Error
		switch {
		case err == nil:
			entry = &existing
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return err
		}

		result, err = MarkAttendance(entry, washerID, kind, now)
		if err != nil {
			return err
		}
		return tx.Save(result).Error
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// AttendanceStats summarizes attendance entries.
type AttendanceStats struct {
	TotalDays            int     `json:"totalDays"`
	PresentDays          int     `json:"presentDays"`
	IncompleteDays       int     `json:"incompleteDays"`
	TotalHours           float64 `json:"totalHours"`
	AttendancePercentage float64 `json:"attendancePercentage"`
}

// SummarizeAttendance computes stats over the recorded days. The percentage
// is present days over recorded days.
func SummarizeAttendance(entries []models.Attendance) AttendanceStats {
	var stats AttendanceStats
	hours := decimal.Zero
	for _, a := range entries {
		stats.TotalDays++
		switch {
		case a.TimeIn != nil && a.TimeOut != nil:
			stats.PresentDays++
		case a.TimeIn != nil:
			stats.IncompleteDays++
		}
		hours = hours.Add(decimal.NewFromFloat(a.Duration))
	}
	stats.TotalHours = hours.Round(2).InexactFloat64()
	stats.AttendancePercentage = Percentage(stats.PresentDays, stats.TotalDays)
	return stats
}

// History returns the washer's attendance in r, newest first.
func (s *AttendanceService) History(ctx context.Context, washerID uint, r utils.DateRange) ([]models.Attendance, AttendanceStats, error) {
	if _, err := findWasher(s.db.WithContext(ctx), washerID); err != nil {
		return nil, AttendanceStats{}, err
	}
	var all []models.Attendance
	if err := s.db.WithContext(ctx).Where("user_id = ?", washerID).Find(&all).Error; err != nil {
		return nil, AttendanceStats{}, err
	}
	entries := make([]models.Attendance, 0, len(all))
	for _, a := range all {
		if r.Contains(a.Date) {
			entries = append(entries, a)
		}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Date.After(entries[j].Date) })
	return entries, SummarizeAttendance(entries), nil
}
