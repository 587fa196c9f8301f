package services

import (
	"context"
	"testing"
	"time"

	"carwash-backend/models"
	"carwash-backend/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }
func boolPtr(b bool) *bool    { return &b }

func TestTransitionAllowed(t *testing.T) {
	cases := []struct {
		from, to string
		want     bool
	}{
		{models.WashStatusScheduled, models.WashStatusCompleted, true},
		{models.WashStatusPending, models.WashStatusInProgress, true},
		{models.WashStatusInProgress, models.WashStatusCompleted, true},
		{models.WashStatusInProgress, models.WashStatusScheduled, false},
		{models.WashStatusCompleted, models.WashStatusPending, false},
		{models.WashStatusCompleted, models.WashStatusNotCompleted, true},
		{models.WashStatusCancelled, models.WashStatusInProgress, false},
		{models.WashStatusCompleted, models.WashStatusCompleted, true},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, TransitionAllowed(tc.from, tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestComputeDuration(t *testing.T) {
	start := day(2026, 3, 1, 10, 0)
	end := day(2026, 3, 1, 11, 30)
	assert.Equal(t, 90, ComputeDuration(&start, &end, 20))
	assert.Equal(t, 0, ComputeDuration(&end, &start, 20))
	assert.Equal(t, 20, ComputeDuration(&start, nil, 20))
	assert.Equal(t, 0, ComputeDuration(nil, nil, -5))
}

func TestApplyWashUpdate(t *testing.T) {
	now := day(2026, 3, 1, 12, 0)

	t.Run("completion stamps the end and completion time", func(t *testing.T) {
		w := &models.WashRecord{Status: models.WashStatusScheduled}
		require.NoError(t, ApplyWashUpdate(w, WashUpdate{Status: strPtr(models.WashStatusCompleted)}, now))
		assert.Equal(t, models.WashStatusCompleted, w.Status)
		require.NotNil(t, w.CompletedAt)
		assert.Equal(t, now, *w.CompletedAt)
		assert.Equal(t, now, *w.Ended)
	})

	t.Run("in-progress stamps the start and times the wash", func(t *testing.T) {
		w := &models.WashRecord{Status: models.WashStatusPending}
		require.NoError(t, ApplyWashUpdate(w, WashUpdate{Status: strPtr(models.WashStatusInProgress)}, now))
		require.NotNil(t, w.Started)

		later := now.Add(45 * time.Minute)
		require.NoError(t, ApplyWashUpdate(w, WashUpdate{Status: strPtr(models.WashStatusCompleted)}, later))
		assert.Equal(t, 45, w.Duration)
	})

	t.Run("completed cannot go back to pending", func(t *testing.T) {
		w := &models.WashRecord{Status: models.WashStatusCompleted}
		err := ApplyWashUpdate(w, WashUpdate{Status: strPtr(models.WashStatusPending)}, now)
		assert.ErrorIs(t, err, ErrInvalidState)
		assert.Equal(t, models.WashStatusCompleted, w.Status)
	})

	t.Run("unknown status", func(t *testing.T) {
		w := &models.WashRecord{Status: models.WashStatusPending}
		err := ApplyWashUpdate(w, WashUpdate{Status: strPtr("done")}, now)
		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("end before start", func(t *testing.T) {
		start := now
		end := now.Add(-time.Hour)
		w := &models.WashRecord{Status: models.WashStatusPending}
		err := ApplyWashUpdate(w, WashUpdate{StartTime: &start, EndTime: &end}, now)
		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("negative amount", func(t *testing.T) {
		amount := -10.0
		w := &models.WashRecord{Status: models.WashStatusPending}
		assert.ErrorIs(t, ApplyWashUpdate(w, WashUpdate{Amount: &amount}, now), ErrInvalidInput)
	})

	t.Run("leaving completed clears the completion time", func(t *testing.T) {
		done := now
		w := &models.WashRecord{Status: models.WashStatusCompleted, CompletedAt: &done}
		require.NoError(t, ApplyWashUpdate(w, WashUpdate{Status: strPtr(models.WashStatusNotCompleted)}, now))
		assert.Nil(t, w.CompletedAt)
	})
}

func TestCheckStatusChange(t *testing.T) {
	converted := &models.Lead{Status: models.LeadStatusConverted}
	assert.ErrorIs(t, CheckStatusChange(converted, models.LeadStatusNew), ErrInvalidInput)
	assert.NoError(t, CheckStatusChange(converted, models.LeadStatusConverted))
	assert.NoError(t, CheckStatusChange(converted, ""))

	fresh := &models.Lead{Status: models.LeadStatusNew}
	assert.NoError(t, CheckStatusChange(fresh, models.LeadStatusConverted))
	assert.ErrorIs(t, CheckStatusChange(fresh, "Lost"), ErrInvalidInput)
}

func TestLeadService_AddWashConvertsLead(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	now := day(2026, 3, 10, 11, 0)
	freezeNow(t, now)

	lead := createLead(t, db, "9000000001", models.LeadTypeOneTime)
	rec, err := NewLeadService(db).AddWash(ctx, lead.ID, WashEntry{
		WashType: "Basic",
		Amount:   200,
		IsPaid:   true,
		Status:   models.WashStatusCompleted,
	})
	require.NoError(t, err)
	assert.Equal(t, models.WashKindAdhoc, rec.Kind)
	assert.Equal(t, now, rec.Date)

	var stored models.Lead
	require.NoError(t, db.First(&stored, lead.ID).Error)
	assert.Equal(t, models.LeadStatusConverted, stored.Status)

	rng := utils.DashboardRange("1d", now)
	rep, err := RevenueFor(ctx, db, RevenueFilter{Range: rng})
	require.NoError(t, err)
	assert.Equal(t, 200.0, rep.TotalRevenue)
	assert.Equal(t, 1, rep.TotalCustomers)
}

func TestLeadService_UnpaidWashIsNotRevenue(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	freezeNow(t, day(2026, 3, 10, 11, 0))

	lead := createLead(t, db, "9000000005", models.LeadTypeOneTime)
	_, err := NewLeadService(db).AddWash(ctx, lead.ID, WashEntry{
		WashType: "Premium",
		Amount:   350,
		Status:   models.WashStatusCompleted,
	})
	require.NoError(t, err)

	rep, err := RevenueFor(ctx, db, RevenueFilter{})
	require.NoError(t, err)
	assert.Zero(t, rep.TotalRevenue)
	assert.Equal(t, 350.0, rep.PaymentSummary.Unpaid)
	assert.Empty(t, rep.Transactions)
}

func TestLeadService_UpdateWash(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	freezeNow(t, day(2026, 3, 10, 11, 0))

	svc := NewLeadService(db)
	lead := createLead(t, db, "9000000006", models.LeadTypeOneTime)
	rec, err := svc.AddWash(ctx, lead.ID, WashEntry{WashType: "Basic", Amount: 150})
	require.NoError(t, err)
	assert.Equal(t, models.WashStatusPending, rec.Status)

	updated, err := svc.UpdateWash(ctx, lead.ID, rec.ID.String(), WashUpdate{
		Status: strPtr(models.WashStatusCompleted),
		IsPaid: boolPtr(true),
	})
	require.NoError(t, err)
	assert.Equal(t, models.WashStatusCompleted, updated.Status)
	assert.True(t, updated.IsPaid)

	_, err = svc.UpdateWash(ctx, lead.ID, rec.ID.String(), WashUpdate{Status: strPtr(models.WashStatusPending)})
	assert.ErrorIs(t, err, ErrInvalidState)

	_, err = svc.UpdateWash(ctx, lead.ID+1, rec.ID.String(), WashUpdate{})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.UpdateWash(ctx, lead.ID, "not-a-uuid", WashUpdate{})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLeadService_AssignOneTime(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	freezeNow(t, day(2026, 3, 10, 11, 0))

	svc := NewLeadService(db)
	washer := createWasher(t, db, "ravi")
	lead := createLead(t, db, "9000000007", models.LeadTypeOneTime)

	_, err := svc.AssignOneTime(ctx, lead.ID, WashEntry{WashType: "Basic", Amount: 200})
	assert.ErrorIs(t, err, ErrInvalidInput)

	first, err := svc.AssignOneTime(ctx, lead.ID, WashEntry{WashType: "Basic", Amount: 200, WasherID: &washer.ID, Date: day(2026, 3, 11, 9, 0)})
	require.NoError(t, err)
	assert.Equal(t, models.WashStatusScheduled, first.Status)

	// an open one-time wash is rescheduled in place
	second, err := svc.AssignOneTime(ctx, lead.ID, WashEntry{WashType: "Premium", Amount: 300, WasherID: &washer.ID, Date: day(2026, 3, 12, 9, 0)})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "Premium", second.WashType)

	var stored models.Lead
	require.NoError(t, db.First(&stored, lead.ID).Error)
	require.NotNil(t, stored.AssignedWasherID)
	assert.Equal(t, washer.ID, *stored.AssignedWasherID)
	assert.Equal(t, models.LeadStatusNew, stored.Status, "scheduling alone does not convert")
}

func TestLeadService_OneTimeViewFollowsReassignment(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	freezeNow(t, day(2026, 3, 2, 8, 0))

	svc := NewLeadService(db)
	washer := createWasher(t, db, "ravi")
	lead := createLead(t, db, "9000000017", models.LeadTypeOneTime)

	first, err := svc.AssignOneTime(ctx, lead.ID, WashEntry{WashType: "Basic", Amount: 200, WasherID: &washer.ID, Date: day(2026, 3, 2, 9, 0)})
	require.NoError(t, err)
	_, err = svc.UpdateWash(ctx, lead.ID, first.ID.String(), WashUpdate{Status: strPtr(models.WashStatusCompleted), IsPaid: boolPtr(true)})
	require.NoError(t, err)

	second, err := svc.AssignOneTime(ctx, lead.ID, WashEntry{WashType: "Premium", Amount: 300, WasherID: &washer.ID, Date: day(2026, 3, 9, 9, 0)})
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)

	var stored models.Lead
	require.NoError(t, db.Preload("WashHistory").First(&stored, lead.ID).Error)
	stored.PrepareViews()
	require.NotNil(t, stored.OneTimeWash)
	assert.Equal(t, second.ID, stored.OneTimeWash.ID)
	assert.Equal(t, "Premium", stored.OneTimeWash.WashType)
	assert.Len(t, stored.WashHistory, 2)
}

func TestLeadService_AssignWasher(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	freezeNow(t, day(2026, 3, 10, 11, 0))

	svc := NewLeadService(db)
	washer := createWasher(t, db, "anil")
	lead := createLead(t, db, "9000000008", models.LeadTypeOneTime)
	rec, err := svc.AddWash(ctx, lead.ID, WashEntry{WashType: "Basic", Amount: 100})
	require.NoError(t, err)

	_, err = svc.AssignWasher(ctx, lead.ID, washer.ID)
	require.NoError(t, err)

	var stored models.WashRecord
	require.NoError(t, db.First(&stored, "id = ?", rec.ID).Error)
	require.NotNil(t, stored.WasherID)
	assert.Equal(t, washer.ID, *stored.WasherID)

	_, err = svc.AssignWasher(ctx, lead.ID, 999)
	assert.ErrorIs(t, err, ErrNotFound)
}
