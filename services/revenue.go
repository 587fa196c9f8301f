package services

import (
	"context"
	"sort"
	"strings"
	"time"

	"carwash-backend/models"
	"carwash-backend/utils"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CustomerTypeFilter maps a customerType query value onto a lead type:
// "Monthly" (any case) stays monthly, any other non-empty value means one-time.
func CustomerTypeFilter(v string) string {
	v = strings.TrimSpace(v)
	switch {
	case v == "":
		return ""
	case strings.EqualFold(v, models.LeadTypeMonthly):
		return models.LeadTypeMonthly
	}
	return models.LeadTypeOneTime
}

// RevenueFilter narrows the records a revenue report covers. Empty fields match everything.
type RevenueFilter struct {
	Range        utils.DateRange
	WashType     string
	Area         string
	CustomerType string
}

// Matches applies the filter to a wash record. The record's Lead must be loaded
// for the area and customer-type filters to match.
func (f RevenueFilter) Matches(w *models.WashRecord) bool {
	if !f.Range.Contains(w.Date) {
		return false
	}
	if f.WashType != "" && !strings.EqualFold(w.WashType, f.WashType) {
		return false
	}
	if f.Area != "" {
		if w.Lead == nil || !strings.Contains(strings.ToLower(w.Lead.Area), strings.ToLower(f.Area)) {
			return false
		}
	}
	if f.CustomerType != "" {
		if w.Lead == nil || w.Lead.LeadType != CustomerTypeFilter(f.CustomerType) {
			return false
		}
	}
	return true
}

// Transaction is one revenue line in the report feed.
type Transaction struct {
	TransactionID string    `json:"transactionId"`
	CustomerID    uint      `json:"customerId"`
	CustomerName  string    `json:"customerName"`
	Area          string    `json:"area"`
	WashType      string    `json:"washType"`
	Amount        float64   `json:"amount"`
	Date          time.Time `json:"date"`
	WasherName    string    `json:"washerName"`
	CustomerType  string    `json:"customerType"`
	Source        string    `json:"source"`
	IsPaid        bool      `json:"isPaid"`
}

type PaymentSummary struct {
	Total  float64 `json:"total"`
	Paid   float64 `json:"paid"`
	Unpaid float64 `json:"unpaid"`
}

// RevenueReport is the reconciled revenue for a filter.
type RevenueReport struct {
	TotalRevenue          float64            `json:"totalRevenue"`
	TotalExpenses         float64            `json:"totalExpenses"`
	NetRevenue            float64            `json:"netRevenue"`
	TotalWashes           int                `json:"totalWashes"`
	TotalCustomers        int                `json:"totalCustomers"`
	RevenueByWashType     map[string]float64 `json:"revenueByWashType"`
	WashesByType          map[string]int     `json:"washesByType"`
	RevenueByCustomerType map[string]float64 `json:"revenueByCustomerType"`
	CustomersByType       map[string]int     `json:"customersByType"`
	RevenueBySource       map[string]float64 `json:"revenueBySource"`
	RevenueByMonth        map[string]float64 `json:"revenueByMonth"`
	PaymentSummary        PaymentSummary     `json:"paymentSummary"`
	Transactions          []Transaction      `json:"recentTransactions"`
}

type sums map[string]decimal.Decimal

func (s sums) add(key string, amount decimal.Decimal) {
	s[key] = s[key].Add(amount)
}

func (s sums) floats() map[string]float64 {
	out := make(map[string]float64, len(s))
	for k, v := range s {
		out[k] = v.InexactFloat64()
	}
	return out
}

// Reconcile folds completed wash records and expenses into one revenue report.
// Only completed and paid washes count toward revenue, whatever kind of
// booking produced them; completed unpaid washes appear in the payment
// summary. Expenses are counted when their date falls in the filter's range.
func Reconcile(records []models.WashRecord, expenses []models.Expense, f RevenueFilter) RevenueReport {
	var (
		total, paid, unpaid decimal.Decimal
		byType              = sums{}
		byCustomerType      = sums{}
		bySource            = sums{}
		byMonth             = sums{}
		washesByType        = map[string]int{}
		customers           = map[uint]string{}
		transactions        []Transaction
	)

	for i := range records {
		w := &records[i]
		if !w.IsConverted() || !f.Matches(w) {
			continue
		}
		if w.Lead != nil && !w.Lead.IsConverted() {
			continue
		}
		amount := decimal.NewFromFloat(w.Amount)
		if !w.IsRevenueEligible() {
			unpaid = unpaid.Add(amount)
			continue
		}
		paid = paid.Add(amount)
		total = total.Add(amount)

		customerType := ""
		if w.Lead != nil {
			customerType = w.Lead.LeadType
			customers[w.LeadID] = customerType
		}
		byType.add(w.WashType, amount)
		washesByType[w.WashType]++
		byCustomerType.add(customerType, amount)
		bySource.add(w.Kind, amount)
		byMonth.add(w.Date.In(utils.Location()).Format("2006-01"), amount)
		transactions = append(transactions, toTransaction(w))
	}

	var expenseTotal decimal.Decimal
	for i := range expenses {
		if f.Range.Contains(expenses[i].Date) {
			expenseTotal = expenseTotal.Add(decimal.NewFromFloat(expenses[i].Amount))
		}
	}

	customersByType := map[string]int{}
	for _, t := range customers {
		customersByType[t]++
	}

	sort.SliceStable(transactions, func(i, j int) bool {
		return transactions[i].Date.After(transactions[j].Date)
	})
	if transactions == nil {
		transactions = []Transaction{}
	}

	return RevenueReport{
		TotalRevenue:          total.InexactFloat64(),
		TotalExpenses:         expenseTotal.InexactFloat64(),
		NetRevenue:            total.Sub(expenseTotal).InexactFloat64(),
		TotalWashes:           len(transactions),
		TotalCustomers:        len(customers),
		RevenueByWashType:     byType.floats(),
		WashesByType:          washesByType,
		RevenueByCustomerType: byCustomerType.floats(),
		CustomersByType:       customersByType,
		RevenueBySource:       bySource.floats(),
		RevenueByMonth:        byMonth.floats(),
		PaymentSummary: PaymentSummary{
			Total:  paid.Add(unpaid).InexactFloat64(),
			Paid:   paid.InexactFloat64(),
			Unpaid: unpaid.InexactFloat64(),
		},
		Transactions: transactions,
	}
}

func toTransaction(w *models.WashRecord) Transaction {
	t := Transaction{
		TransactionID: w.ID.String(),
		CustomerID:    w.LeadID,
		WashType:      w.WashType,
		Amount:        w.Amount,
		Date:          w.Date,
		Source:        w.Kind,
		IsPaid:        w.IsPaid,
	}
	if w.Lead != nil {
		t.CustomerName = w.Lead.CustomerName
		t.Area = w.Lead.Area
		t.CustomerType = w.Lead.LeadType
	}
	if w.Washer != nil {
		t.WasherName = w.Washer.Name
	}
	return t
}

// PercentChange is (current - previous) / previous * 100 rounded to one
// decimal, or 0 when there is no previous value.
func PercentChange(current, previous float64) float64 {
	if previous == 0 {
		return 0
	}
	cur := decimal.NewFromFloat(current)
	prev := decimal.NewFromFloat(previous)
	return cur.Sub(prev).Div(prev).Mul(decimal.NewFromInt(100)).Round(1).InexactFloat64()
}

// Percentage is part / whole * 100 rounded to one decimal, 0 for an empty whole.
func Percentage(part, whole int) float64 {
	if whole == 0 {
		return 0
	}
	return decimal.NewFromInt(int64(part)).
		Div(decimal.NewFromInt(int64(whole))).
		Mul(decimal.NewFromInt(100)).
		Round(1).
		InexactFloat64()
}

// CompletedWashes loads every completed wash with its lead and washer.
// Date and attribute filtering happens in Reconcile.
func CompletedWashes(ctx context.Context, db *gorm.DB) ([]models.WashRecord, error) {
	var records []models.WashRecord
	err := db.WithContext(ctx).
		Preload("Lead").
		Preload("Washer").
		Where("status = ?", models.WashStatusCompleted).
		Find(&records).Error
	return records, err
}

// ExpensesInRange loads the expenses dated inside r.
func ExpensesInRange(ctx context.Context, db *gorm.DB, r utils.DateRange) ([]models.Expense, error) {
	var all []models.Expense
	if err := db.WithContext(ctx).Order("date DESC").Find(&all).Error; err != nil {
		return nil, err
	}
	expenses := make([]models.Expense, 0, len(all))
	for _, e := range all {
		if r.Contains(e.Date) {
			expenses = append(expenses, e)
		}
	}
	return expenses, nil
}

// RevenueFor runs Reconcile against the store.
func RevenueFor(ctx context.Context, db *gorm.DB, f RevenueFilter) (RevenueReport, error) {
	records, err := CompletedWashes(ctx, db)
	if err != nil {
		return RevenueReport{}, err
	}
	expenses, err := ExpensesInRange(ctx, db, f.Range)
	if err != nil {
		return RevenueReport{}, err
	}
	return Reconcile(records, expenses, f), nil
}
