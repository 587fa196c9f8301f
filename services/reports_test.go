package services

import (
	"context"
	"testing"
	"time"

	"carwash-backend/models"
	"carwash-backend/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func seedLead(t *testing.T, db *gorm.DB, phone, leadType, status string, created time.Time) *models.Lead {
	t.Helper()
	l := &models.Lead{
		CustomerName: "Lead " + phone,
		Phone:        phone,
		Area:         "Thane",
		LeadType:     leadType,
		LeadSource:   "Referral",
		Status:       status,
		CreatedAt:    created,
	}
	require.NoError(t, db.Create(l).Error)
	return l
}

func seedWash(t *testing.T, db *gorm.DB, lead *models.Lead, kind, status string, amount float64, paid bool, date time.Time, washerID *uint) *models.WashRecord {
	t.Helper()
	w := &models.WashRecord{
		LeadID:   lead.ID,
		Kind:     kind,
		WashType: "Basic",
		Amount:   amount,
		Date:     date,
		IsPaid:   paid,
		Status:   status,
		WasherID: washerID,
	}
	require.NoError(t, db.Create(w).Error)
	return w
}

func TestReports_Stats(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	now := day(2026, 3, 20, 12, 0)

	converted := seedLead(t, db, "9100000001", models.LeadTypeOneTime, models.LeadStatusConverted, day(2026, 3, 20, 9, 0))
	seedLead(t, db, "9100000002", models.LeadTypeMonthly, models.LeadStatusNew, day(2026, 3, 19, 9, 0))
	old := seedLead(t, db, "9100000003", models.LeadTypeOneTime, models.LeadStatusConverted, day(2026, 3, 10, 9, 0))

	seedWash(t, db, converted, models.WashKindAdhoc, models.WashStatusCompleted, 300, true, day(2026, 3, 20, 10, 0), nil)
	seedWash(t, db, old, models.WashKindAdhoc, models.WashStatusCompleted, 200, true, day(2026, 3, 11, 10, 0), nil)

	stats, err := NewReports(db).Stats(ctx, utils.DashboardRange("7d", now), now)
	require.NoError(t, err)

	assert.Equal(t, 2.0, stats.PeriodCustomers.Value)
	assert.Equal(t, 1.0, stats.TodayLeads.Value)
	assert.Equal(t, 300.0, stats.Income.Value)
	assert.Equal(t, 50.0, stats.Income.Change)
	assert.True(t, stats.Income.Increasing)
	assert.Equal(t, 50.0, stats.ConversionRate.Value)
	assert.Equal(t, 2, stats.ConversionRate.Total)
}

func TestReports_DirectRevenue(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	now := day(2026, 3, 20, 12, 0)
	lead := seedLead(t, db, "9100000010", models.LeadTypeMonthly, models.LeadStatusConverted, day(2026, 3, 1, 9, 0))

	seedWash(t, db, lead, models.WashKindAdhoc, models.WashStatusCompleted, 150, true, day(2026, 3, 18, 10, 0), nil)
	seedWash(t, db, lead, models.WashKindOneTime, models.WashStatusCompleted, 250, true, day(2026, 3, 18, 11, 0), nil)
	seedWash(t, db, lead, models.WashKindSubscription, models.WashStatusCompleted, 100, true, day(2026, 3, 19, 10, 0), nil)
	seedWash(t, db, lead, models.WashKindSubscription, models.WashStatusScheduled, 100, false, day(2026, 3, 26, 10, 0), nil)

	out, err := NewReports(db).DirectRevenue(ctx, utils.DashboardRange("7d", now))
	require.NoError(t, err)
	assert.Equal(t, 400.0, out.DirectRevenue.Value)
	assert.Equal(t, 100.0, out.SubscriptionRevenue.Value)
	assert.Equal(t, 500.0, out.TotalRevenue)
}

func TestReports_TodayTomorrowWashCount(t *testing.T) {
	db := setupTestDB(t)
	now := day(2026, 3, 20, 12, 0)
	lead := seedLead(t, db, "9100000020", models.LeadTypeOneTime, models.LeadStatusNew, now)

	seedWash(t, db, lead, models.WashKindOneTime, models.WashStatusScheduled, 100, false, day(2026, 3, 20, 16, 0), nil)
	seedWash(t, db, lead, models.WashKindAdhoc, models.WashStatusCancelled, 100, false, day(2026, 3, 20, 17, 0), nil)
	seedWash(t, db, lead, models.WashKindAdhoc, models.WashStatusPending, 100, false, day(2026, 3, 21, 9, 0), nil)
	seedWash(t, db, lead, models.WashKindAdhoc, models.WashStatusPending, 100, false, day(2026, 3, 22, 9, 0), nil)

	counts, err := NewReports(db).TodayTomorrowWashCount(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, 1, counts.TodayCount)
	assert.Equal(t, 1, counts.TomorrowCount)
}

func TestReports_UpcomingWashes(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	ravi := createWasher(t, db, "ravi")
	anil := createWasher(t, db, "anil")

	withWash := seedLead(t, db, "9100000030", models.LeadTypeOneTime, models.LeadStatusNew, day(2026, 3, 1, 9, 0))
	seedWash(t, db, withWash, models.WashKindOneTime, models.WashStatusScheduled, 200, false, day(2026, 3, 21, 9, 0), &ravi.ID)
	seedWash(t, db, withWash, models.WashKindAdhoc, models.WashStatusCancelled, 200, false, day(2026, 3, 21, 10, 0), &ravi.ID)

	assigned := seedLead(t, db, "9100000031", models.LeadTypeMonthly, models.LeadStatusNew, day(2026, 3, 20, 8, 0))
	require.NoError(t, db.Model(assigned).Update("assigned_washer_id", anil.ID).Error)

	start := day(2026, 3, 20, 0, 0)
	end := day(2026, 3, 27, 0, 0)
	rng := utils.DateRange{Start: &start, End: &end}

	all, err := NewReports(db).UpcomingWashes(ctx, rng, nil)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "lead_"+itoa(assigned.ID), all[0].ID)
	assert.Equal(t, "lead", all[0].Kind)
	assert.Equal(t, models.WashKindOneTime, all[1].Kind)
	assert.Equal(t, "ravi", all[1].Washer.Name)

	mine, err := NewReports(db).UpcomingWashes(ctx, rng, &ravi.ID)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, withWash.ID, mine[0].LeadID)
}

func TestCalculateSalary(t *testing.T) {
	in := day(2026, 3, 2, 9, 0)
	out := day(2026, 3, 2, 17, 0)
	attendance := []models.Attendance{
		{TimeIn: &in, TimeOut: &out, Duration: 8},
		{TimeIn: &in, TimeOut: &out, Duration: 8},
		{TimeIn: &in},
	}
	w := models.User{ID: 4, Name: "ravi", Salary: models.Salary{Base: 15500, Bonus: 500}}

	line := CalculateSalary(w, attendance, 300, 31)
	assert.Equal(t, 2, line.PresentDays)
	assert.Equal(t, 3, line.RecordedDays)
	assert.Equal(t, 1000.0, line.EarnedBase)
	assert.Equal(t, 1500.0, line.Gross)
	assert.Equal(t, 1200.0, line.Balance)

	empty := CalculateSalary(w, nil, 0, 0)
	assert.Zero(t, empty.EarnedBase)
	assert.Equal(t, 500.0, empty.Gross)
}

func TestReports_SalaryCalculation(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	washer := createWasher(t, db, "suresh")

	svc := NewAttendanceService(db)
	for d := 2; d <= 4; d++ {
		_, err := svc.Mark(ctx, washer.ID, ClockIn, day(2026, 4, d, 9, 0))
		require.NoError(t, err)
		_, err = svc.Mark(ctx, washer.ID, ClockOut, day(2026, 4, d, 18, 0))
		require.NoError(t, err)
	}
	require.NoError(t, db.Create(&models.Expense{
		Category: models.ExpenseCategorySalary, Amount: 1000, Description: "advance",
		PaidTo: "suresh", Date: day(2026, 4, 10, 0, 0),
	}).Error)

	lines, err := NewReports(db).SalaryCalculation(ctx, "2026-04")
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, 3, lines[0].PresentDays)
	assert.Equal(t, 30, lines[0].DaysInMonth)
	assert.Equal(t, 1500.0, lines[0].EarnedBase)
	assert.Equal(t, 1000.0, lines[0].Balance)

	_, err = NewReports(db).SalaryCalculation(ctx, "April")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestReports_WasherSummaries(t *testing.T) {
	db := setupTestDB(t)
	washer := createWasher(t, db, "mahesh")
	lead := seedLead(t, db, "9100000040", models.LeadTypeOneTime, models.LeadStatusConverted, day(2026, 3, 1, 9, 0))
	require.NoError(t, db.Model(lead).Update("assigned_washer_id", washer.ID).Error)

	seedWash(t, db, lead, models.WashKindAdhoc, models.WashStatusCompleted, 100, true, day(2026, 3, 2, 9, 0), &washer.ID)
	seedWash(t, db, lead, models.WashKindAdhoc, models.WashStatusPending, 100, false, day(2026, 3, 3, 9, 0), nil)

	summaries, err := NewReports(db).WasherSummaries(context.Background())
	require.NoError(t, err)
	assert.Equal(t, WasherSummary{Total: 2, Completed: 1, Pending: 1}, summaries[washer.ID])
}
