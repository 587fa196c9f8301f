package services

import (
	"context"
	"testing"
	"time"

	"carwash-backend/models"
	"carwash-backend/utils"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPercentChange(t *testing.T) {
	assert.Equal(t, 50.0, PercentChange(150, 100))
	assert.Equal(t, -50.0, PercentChange(50, 100))
	assert.Equal(t, -66.7, PercentChange(1, 3))
	assert.Equal(t, 0.0, PercentChange(10, 0))
	assert.Equal(t, 0.0, PercentChange(0, 0))
}

func TestCustomerTypeFilter(t *testing.T) {
	assert.Equal(t, "", CustomerTypeFilter(" "))
	assert.Equal(t, models.LeadTypeMonthly, CustomerTypeFilter("MONTHLY"))
	assert.Equal(t, models.LeadTypeOneTime, CustomerTypeFilter("One-time"))
	assert.Equal(t, models.LeadTypeOneTime, CustomerTypeFilter("weekly"))
}

func TestPercentage(t *testing.T) {
	assert.Equal(t, 33.3, Percentage(1, 3))
	assert.Equal(t, 100.0, Percentage(4, 4))
	assert.Equal(t, 0.0, Percentage(3, 0))
}

func washRecord(kind, status string, amount float64, paid bool, date time.Time, lead *models.Lead) models.WashRecord {
	return models.WashRecord{
		ID:       uuid.New(),
		LeadID:   lead.ID,
		Lead:     lead,
		Kind:     kind,
		WashType: "Basic",
		Amount:   amount,
		Date:     date,
		IsPaid:   paid,
		Status:   status,
	}
}

func TestReconcile(t *testing.T) {
	monthly := &models.Lead{ID: 1, LeadType: models.LeadTypeMonthly, Status: models.LeadStatusConverted, Area: "Bandra"}
	oneTime := &models.Lead{ID: 2, LeadType: models.LeadTypeOneTime, Status: models.LeadStatusConverted, Area: "Powai"}
	stale := &models.Lead{ID: 3, LeadType: models.LeadTypeOneTime, Status: models.LeadStatusNew}

	march := day(2026, 3, 5, 10, 0)
	records := []models.WashRecord{
		washRecord(models.WashKindSubscription, models.WashStatusCompleted, 100, true, march, monthly),
		washRecord(models.WashKindSubscription, models.WashStatusCompleted, 100, true, march.AddDate(0, 0, 7), monthly),
		washRecord(models.WashKindSubscription, models.WashStatusScheduled, 100, true, march.AddDate(0, 0, 14), monthly),
		washRecord(models.WashKindOneTime, models.WashStatusCompleted, 250, true, march, oneTime),
		washRecord(models.WashKindAdhoc, models.WashStatusCompleted, 80, false, march, oneTime),
		washRecord(models.WashKindAdhoc, models.WashStatusCompleted, 999, true, march, stale),
		washRecord(models.WashKindAdhoc, models.WashStatusCompleted, 500, true, day(2026, 2, 1, 10, 0), oneTime),
	}
	expenses := []models.Expense{
		{Amount: 120, Date: march},
		{Amount: 1000, Date: day(2026, 1, 1, 0, 0)},
	}

	rng, _, err := utils.MonthRange("2026-03")
	require.NoError(t, err)
	rep := Reconcile(records, expenses, RevenueFilter{Range: rng})

	assert.Equal(t, 450.0, rep.TotalRevenue)
	assert.Equal(t, 120.0, rep.TotalExpenses)
	assert.Equal(t, 330.0, rep.NetRevenue)
	assert.Equal(t, 3, rep.TotalWashes)
	assert.Equal(t, 2, rep.TotalCustomers)
	assert.Equal(t, 200.0, rep.RevenueBySource[models.WashKindSubscription])
	assert.Equal(t, 250.0, rep.RevenueBySource[models.WashKindOneTime])
	assert.Equal(t, 200.0, rep.RevenueByCustomerType[models.LeadTypeMonthly])
	assert.Equal(t, 450.0, rep.RevenueByMonth["2026-03"])
	assert.Equal(t, 80.0, rep.PaymentSummary.Unpaid)
	assert.Equal(t, 530.0, rep.PaymentSummary.Total)

	t.Run("area filter", func(t *testing.T) {
		rep := Reconcile(records, nil, RevenueFilter{Range: rng, Area: "bandra"})
		assert.Equal(t, 200.0, rep.TotalRevenue)
	})

	t.Run("customer type filter", func(t *testing.T) {
		rep := Reconcile(records, nil, RevenueFilter{Range: rng, CustomerType: models.LeadTypeOneTime})
		assert.Equal(t, 250.0, rep.TotalRevenue)
	})

	t.Run("customer type is normalized", func(t *testing.T) {
		monthly := Reconcile(records, nil, RevenueFilter{Range: rng, CustomerType: "monthly"})
		assert.Equal(t, 200.0, monthly.TotalRevenue)
		other := Reconcile(records, nil, RevenueFilter{Range: rng, CustomerType: "onetime"})
		assert.Equal(t, 250.0, other.TotalRevenue)
	})

	t.Run("wash type filter", func(t *testing.T) {
		rep := Reconcile(records, nil, RevenueFilter{Range: rng, WashType: "Deluxe"})
		assert.Zero(t, rep.TotalRevenue)
		assert.NotNil(t, rep.Transactions)
	})
}

func TestReconcile_SameTotalWhateverTheBookingPath(t *testing.T) {
	lead := &models.Lead{ID: 1, LeadType: models.LeadTypeOneTime, Status: models.LeadStatusConverted}
	date := day(2026, 3, 5, 10, 0)

	for _, kind := range []string{models.WashKindAdhoc, models.WashKindOneTime, models.WashKindSubscription} {
		rep := Reconcile([]models.WashRecord{washRecord(kind, models.WashStatusCompleted, 200, true, date, lead)}, nil, RevenueFilter{})
		assert.Equal(t, 200.0, rep.TotalRevenue, kind)
	}
}

func TestExpensesInRange(t *testing.T) {
	db := setupTestDB(t)
	for _, e := range []models.Expense{
		{Category: "Supplies", Amount: 50, Description: "soap", Date: day(2026, 3, 2, 0, 0)},
		{Category: "Supplies", Amount: 70, Description: "wax", Date: day(2026, 4, 2, 0, 0)},
	} {
		e := e
		require.NoError(t, db.Create(&e).Error)
	}

	rng, _, err := utils.MonthRange("2026-03")
	require.NoError(t, err)
	got, err := ExpensesInRange(context.Background(), db, rng)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "soap", got[0].Description)
}
