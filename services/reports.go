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

// Reports builds the dashboard widgets and reports.
type Reports struct {
	db *gorm.DB
}

func NewReports(db *gorm.DB) *Reports {
	return &Reports{db: db}
}

// Metric is a value with its change against the previous period.
type Metric struct {
	Value      float64 `json:"value"`
	Change     float64 `json:"change"`
	Increasing bool    `json:"increasing"`
}

func metric(current, previous float64) Metric {
	change := PercentChange(current, previous)
	return Metric{Value: current, Change: change, Increasing: change > 0}
}

func (r *Reports) leads(ctx context.Context) ([]models.Lead, error) {
	var leads []models.Lead
	err := r.db.WithContext(ctx).Preload("AssignedWasher").Order("id DESC").Find(&leads).Error
	return leads, err
}

func (r *Reports) washers(ctx context.Context, activeOnly bool) ([]models.User, error) {
	q := r.db.WithContext(ctx).Where("role = ?", models.RoleWasher)
	if activeOnly {
		q = q.Where("status = ?", models.UserStatusActive)
	}
	var washers []models.User
	err := q.Order("name").Find(&washers).Error
	return washers, err
}

func (r *Reports) washRecords(ctx context.Context) ([]models.WashRecord, error) {
	var records []models.WashRecord
	err := r.db.WithContext(ctx).Preload("Lead").Preload("Washer").Find(&records).Error
	return records, err
}

func leadsCreatedIn(leads []models.Lead, rng utils.DateRange) []models.Lead {
	out := make([]models.Lead, 0, len(leads))
	for _, l := range leads {
		if rng.Contains(l.CreatedAt) {
			out = append(out, l)
		}
	}
	return out
}

type ConversionRate struct {
	Value     float64 `json:"value"`
	Total     int     `json:"total"`
	Converted int     `json:"converted"`
}

// DashboardStats is the headline dashboard widget.
type DashboardStats struct {
	PeriodCustomers Metric         `json:"periodCustomers"`
	Income          Metric         `json:"income"`
	TodayLeads      Metric         `json:"todayLeads"`
	ConversionRate  ConversionRate `json:"conversionRate"`
}

// Stats compares the window against the preceding window of equal length.
func (r *Reports) Stats(ctx context.Context, rng utils.DateRange, now time.Time) (*DashboardStats, error) {
	leads, err := r.leads(ctx)
	if err != nil {
		return nil, err
	}
	records, err := CompletedWashes(ctx, r.db)
	if err != nil {
		return nil, err
	}
	prev := rng.Previous()

	current := leadsCreatedIn(leads, rng)
	previous := leadsCreatedIn(leads, prev)
	converted := 0
	for _, l := range current {
		if l.IsConverted() {
			converted++
		}
	}

	income := Reconcile(records, nil, RevenueFilter{Range: rng}).TotalRevenue
	prevIncome := Reconcile(records, nil, RevenueFilter{Range: prev}).TotalRevenue

	today := utils.BeginningOfDay(now)
	todayEnd := utils.EndOfDay(now)
	yesterday := today.AddDate(0, 0, -1)
	yesterdayEnd := today.Add(-time.Millisecond)
	todayLeads := len(leadsCreatedIn(leads, utils.DateRange{Start: &today, End: &todayEnd}))
	yesterdayLeads := len(leadsCreatedIn(leads, utils.DateRange{Start: &yesterday, End: &yesterdayEnd}))

	return &DashboardStats{
		PeriodCustomers: metric(float64(len(current)), float64(len(previous))),
		Income:          metric(income, prevIncome),
		TodayLeads:      metric(float64(todayLeads), float64(yesterdayLeads)),
		ConversionRate: ConversionRate{
			Value:     Percentage(converted, len(current)),
			Total:     len(current),
			Converted: converted,
		},
	}, nil
}

type DailyAcquisition struct {
	Date         string `json:"date"`
	MonthlyCount int    `json:"monthlyCount"`
	OneTimeCount int    `json:"oneTimeCount"`
}

// LeadAcquisition counts new leads per type for each of the last seven days.
func (r *Reports) LeadAcquisition(ctx context.Context, now time.Time) ([]DailyAcquisition, error) {
	leads, err := r.leads(ctx)
	if err != nil {
		return nil, err
	}
	data := make([]DailyAcquisition, 0, 7)
	for i := 6; i >= 0; i-- {
		day := utils.BeginningOfDay(now).AddDate(0, 0, -i)
		end := utils.EndOfDay(day)
		entry := DailyAcquisition{Date: day.Format("2006-01-02")}
		for _, l := range leadsCreatedIn(leads, utils.DateRange{Start: &day, End: &end}) {
			switch l.LeadType {
			case models.LeadTypeMonthly:
				entry.MonthlyCount++
			case models.LeadTypeOneTime:
				entry.OneTimeCount++
			}
		}
		data = append(data, entry)
	}
	return data, nil
}

type WasherPerformance struct {
	WasherID uint    `json:"washerId"`
	Name     string  `json:"name"`
	Washes   int     `json:"washes"`
	Revenue  float64 `json:"revenue"`
}

// WasherPerformance counts each washer's washes in rng.
func (r *Reports) WasherPerformance(ctx context.Context, rng utils.DateRange) ([]WasherPerformance, error) {
	washers, err := r.washers(ctx, false)
	if err != nil {
		return nil, err
	}
	records, err := CompletedWashes(ctx, r.db)
	if err != nil {
		return nil, err
	}

	perf := make(map[uint]*WasherPerformance, len(washers))
	revenue := map[uint]decimal.Decimal{}
	out := make([]WasherPerformance, 0, len(washers))
	for _, w := range washers {
		perf[w.ID] = &WasherPerformance{WasherID: w.ID, Name: w.Name}
	}
	for i := range records {
		rec := &records[i]
		if rec.WasherID == nil || !rng.Contains(rec.Date) {
			continue
		}
		p, ok := perf[*rec.WasherID]
		if !ok {
			continue
		}
		p.Washes++
		if rec.IsRevenueEligible() {
			revenue[p.WasherID] = revenue[p.WasherID].Add(decimal.NewFromFloat(rec.Amount))
		}
	}
	for _, w := range washers {
		p := perf[w.ID]
		p.Revenue = revenue[w.ID].InexactFloat64()
		out = append(out, *p)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Washes > out[j].Washes })
	return out, nil
}

type RecentLead struct {
	ID             uint      `json:"id"`
	CustomerName   string    `json:"customerName"`
	Phone          string    `json:"phone"`
	Area           string    `json:"area"`
	LeadType       string    `json:"leadType"`
	LeadSource     string    `json:"leadSource"`
	CarModel       string    `json:"carModel"`
	AssignedWasher *string   `json:"assignedWasher"`
	Date           time.Time `json:"date"`
	Status         string    `json:"status"`
}

// RecentLeads returns the newest leads.
func (r *Reports) RecentLeads(ctx context.Context, limit int) ([]RecentLead, error) {
	var leads []models.Lead
	err := r.db.WithContext(ctx).Preload("AssignedWasher").
		Order("created_at DESC").Order("id DESC").
		Limit(limit).Find(&leads).Error
	if err != nil {
		return nil, err
	}
	out := make([]RecentLead, 0, len(leads))
	for _, l := range leads {
		rl := RecentLead{
			ID: l.ID, CustomerName: l.CustomerName, Phone: l.Phone, Area: l.Area,
			LeadType: l.LeadType, LeadSource: l.LeadSource, CarModel: l.CarModel,
			Date: l.CreatedAt, Status: l.Status,
		}
		if l.AssignedWasher != nil {
			name := l.AssignedWasher.Name
			rl.AssignedWasher = &name
		}
		out = append(out, rl)
	}
	return out, nil
}

type WasherAttendance struct {
	WasherID uint   `json:"washerId"`
	Name     string `json:"name"`
	AttendanceStats
}

// WasherAttendance summarizes each active washer's attendance in the window.
func (r *Reports) WasherAttendance(ctx context.Context, rng utils.DateRange) ([]WasherAttendance, error) {
	washers, err := r.washers(ctx, false)
	if err != nil {
		return nil, err
	}
	var entries []models.Attendance
	if err := r.db.WithContext(ctx).Find(&entries).Error; err != nil {
		return nil, err
	}
	byUser := map[uint][]models.Attendance{}
	for _, a := range entries {
		if rng.Contains(a.Date) {
			byUser[a.UserID] = append(byUser[a.UserID], a)
		}
	}
	out := make([]WasherAttendance, 0, len(washers))
	for _, w := range washers {
		out = append(out, WasherAttendance{
			WasherID:        w.ID,
			Name:            w.Name,
			AttendanceStats: SummarizeAttendance(byUser[w.ID]),
		})
	}
	return out, nil
}

type ServiceRevenue struct {
	ServiceType string  `json:"serviceType"`
	Revenue     float64 `json:"revenue"`
	Count       int     `json:"count"`
}

// RevenueByService sums revenue per wash type.
func (r *Reports) RevenueByService(ctx context.Context, rng utils.DateRange) ([]ServiceRevenue, error) {
	report, err := RevenueFor(ctx, r.db, RevenueFilter{Range: rng})
	if err != nil {
		return nil, err
	}
	out := make([]ServiceRevenue, 0, len(report.RevenueByWashType))
	for t, amount := range report.RevenueByWashType {
		out = append(out, ServiceRevenue{ServiceType: t, Revenue: amount, Count: report.WashesByType[t]})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Revenue > out[j].Revenue })
	return out, nil
}

type SourceStats struct {
	Source         string  `json:"source"`
	TotalLeads     int     `json:"totalLeads"`
	ConvertedLeads int     `json:"convertedLeads"`
	ConversionRate float64 `json:"conversionRate"`
}

// LeadSources counts leads and conversions per source.
func (r *Reports) LeadSources(ctx context.Context, rng utils.DateRange) ([]SourceStats, error) {
	leads, err := r.leads(ctx)
	if err != nil {
		return nil, err
	}
	bySource := map[string]*SourceStats{}
	for _, l := range leadsCreatedIn(leads, rng) {
		s, ok := bySource[l.LeadSource]
		if !ok {
			s = &SourceStats{Source: l.LeadSource}
			bySource[l.LeadSource] = s
		}
		s.TotalLeads++
		if l.IsConverted() {
			s.ConvertedLeads++
		}
	}
	out := make([]SourceStats, 0, len(bySource))
	for _, s := range bySource {
		s.ConversionRate = Percentage(s.ConvertedLeads, s.TotalLeads)
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TotalLeads > out[j].TotalLeads })
	return out, nil
}

type AreaStats struct {
	Area            string `json:"area"`
	TotalLeads      int    `json:"totalLeads"`
	ActiveCustomers int    `json:"activeCustomers"`
}

// AreaDistribution counts leads per area.
func (r *Reports) AreaDistribution(ctx context.Context) ([]AreaStats, error) {
	var rows []AreaStats
	err := r.db.WithContext(ctx).Model(&models.Lead{}).
		Select("area, COUNT(*) AS total_leads, SUM(CASE WHEN lead_type = ? THEN 1 ELSE 0 END) AS active_customers", models.LeadTypeMonthly).
		Group("area").
		Order("total_leads DESC").
		Scan(&rows).Error
	return rows, err
}

type FeedbackStats struct {
	TotalServices    int     `json:"totalServices"`
	FeedbackReceived int     `json:"feedbackReceived"`
	FeedbackRate     float64 `json:"feedbackRate"`
}

// FeedbackAnalytics counts completed washes and the share that received feedback.
func (r *Reports) FeedbackAnalytics(ctx context.Context, rng utils.DateRange) (*FeedbackStats, error) {
	records, err := CompletedWashes(ctx, r.db)
	if err != nil {
		return nil, err
	}
	var stats FeedbackStats
	for i := range records {
		if !rng.Contains(records[i].Date) {
			continue
		}
		stats.TotalServices++
		if strings.TrimSpace(records[i].Feedback) != "" {
			stats.FeedbackReceived++
		}
	}
	stats.FeedbackRate = Percentage(stats.FeedbackReceived, stats.TotalServices)
	return &stats, nil
}

type WashCounts struct {
	TodayCount    int `json:"todayCount"`
	TomorrowCount int `json:"tomorrowCount"`
}

// TodayTomorrowWashCount counts non-cancelled washes dated today and tomorrow.
func (r *Reports) TodayTomorrowWashCount(ctx context.Context, now time.Time) (*WashCounts, error) {
	var records []models.WashRecord
	if err := r.db.WithContext(ctx).Where("status <> ?", models.WashStatusCancelled).Find(&records).Error; err != nil {
		return nil, err
	}
	tomorrow := now.AddDate(0, 0, 1)
	var counts WashCounts
	for i := range records {
		switch {
		case utils.SameDay(records[i].Date, now):
			counts.TodayCount++
		case utils.SameDay(records[i].Date, tomorrow):
			counts.TomorrowCount++
		}
	}
	return &counts, nil
}

type CustomerStats struct {
	TotalCustomers      int    `json:"totalCustomers"`
	MonthlyCustomers    int    `json:"monthlyCustomers"`
	OneTimeCustomers    int    `json:"oneTimeCustomers"`
	ActiveSubscriptions int    `json:"activeSubscriptions"`
	NewCustomers        Metric `json:"newCustomers"`
	TotalLeads          int    `json:"totalLeads"`
}

// CustomerStats counts converted leads overall and those converted leads
// created in the window.
func (r *Reports) CustomerStats(ctx context.Context, rng utils.DateRange) (*CustomerStats, error) {
	leads, err := r.leads(ctx)
	if err != nil {
		return nil, err
	}
	var active int64
	if err := r.db.WithContext(ctx).Model(&models.Subscription{}).Where("is_active = ?", true).Count(&active).Error; err != nil {
		return nil, err
	}

	stats := &CustomerStats{TotalLeads: len(leads), ActiveSubscriptions: int(active)}
	for _, l := range leads {
		if !l.IsConverted() {
			continue
		}
		stats.TotalCustomers++
		if l.LeadType == models.LeadTypeMonthly {
			stats.MonthlyCustomers++
		} else {
			stats.OneTimeCustomers++
		}
	}
	count := func(ls []models.Lead) int {
		n := 0
		for _, l := range ls {
			if l.IsConverted() {
				n++
			}
		}
		return n
	}
	stats.NewCustomers = metric(float64(count(leadsCreatedIn(leads, rng))), float64(count(leadsCreatedIn(leads, rng.Previous()))))
	return stats, nil
}

type RevenueStats struct {
	TotalRevenue    Metric             `json:"totalRevenue"`
	PaymentSummary  PaymentSummary     `json:"paymentSummary"`
	RevenueBySource map[string]float64 `json:"revenueBySource"`
	TotalWashes     int                `json:"totalWashes"`
	AverageTicket   float64            `json:"averageTicket"`
}

// RevenueStats compares revenue in rng with the previous period.
func (r *Reports) RevenueStats(ctx context.Context, rng utils.DateRange) (*RevenueStats, error) {
	records, err := CompletedWashes(ctx, r.db)
	if err != nil {
		return nil, err
	}
	cur := Reconcile(records, nil, RevenueFilter{Range: rng})
	prev := Reconcile(records, nil, RevenueFilter{Range: rng.Previous()})
	stats := &RevenueStats{
		TotalRevenue:    metric(cur.TotalRevenue, prev.TotalRevenue),
		PaymentSummary:  cur.PaymentSummary,
		RevenueBySource: cur.RevenueBySource,
		TotalWashes:     cur.TotalWashes,
	}
	if cur.TotalWashes > 0 {
		stats.AverageTicket = decimal.NewFromFloat(cur.TotalRevenue).
			Div(decimal.NewFromInt(int64(cur.TotalWashes))).Round(2).InexactFloat64()
	}
	return stats, nil
}

type DirectRevenue struct {
	DirectRevenue       Metric  `json:"directRevenue"`
	SubscriptionRevenue Metric  `json:"subscriptionRevenue"`
	TotalRevenue        float64 `json:"totalRevenue"`
}

// DirectRevenue splits revenue between washes booked directly (ad hoc and
// one-time) and subscription slots.
func (r *Reports) DirectRevenue(ctx context.Context, rng utils.DateRange) (*DirectRevenue, error) {
	records, err := CompletedWashes(ctx, r.db)
	if err != nil {
		return nil, err
	}
	split := func(rep RevenueReport) (direct, sub float64) {
		d := decimal.NewFromFloat(rep.RevenueBySource[models.WashKindAdhoc]).
			Add(decimal.NewFromFloat(rep.RevenueBySource[models.WashKindOneTime]))
		return d.InexactFloat64(), rep.RevenueBySource[models.WashKindSubscription]
	}
	cur := Reconcile(records, nil, RevenueFilter{Range: rng})
	prev := Reconcile(records, nil, RevenueFilter{Range: rng.Previous()})
	cd, cs := split(cur)
	pd, ps := split(prev)
	return &DirectRevenue{
		DirectRevenue:       metric(cd, pd),
		SubscriptionRevenue: metric(cs, ps),
		TotalRevenue:        cur.TotalRevenue,
	}, nil
}

type ExpenseStats struct {
	TotalExpenses Metric             `json:"totalExpenses"`
	ByCategory    map[string]float64 `json:"byCategory"`
	Count         int                `json:"count"`
	NetRevenue    float64            `json:"netRevenue"`
}

// ExpensesStats sums expenses in rng by category.
func (r *Reports) ExpensesStats(ctx context.Context, rng utils.DateRange) (*ExpenseStats, error) {
	cur, err := RevenueFor(ctx, r.db, RevenueFilter{Range: rng})
	if err != nil {
		return nil, err
	}
	prevExpenses, err := ExpensesInRange(ctx, r.db, rng.Previous())
	if err != nil {
		return nil, err
	}
	expenses, err := ExpensesInRange(ctx, r.db, rng)
	if err != nil {
		return nil, err
	}
	byCategory := sums{}
	for _, e := range expenses {
		byCategory.add(e.Category, decimal.NewFromFloat(e.Amount))
	}
	var prevTotal decimal.Decimal
	for _, e := range prevExpenses {
		prevTotal = prevTotal.Add(decimal.NewFromFloat(e.Amount))
	}
	return &ExpenseStats{
		TotalExpenses: metric(cur.TotalExpenses, prevTotal.InexactFloat64()),
		ByCategory:    byCategory.floats(),
		Count:         len(expenses),
		NetRevenue:    cur.NetRevenue,
	}, nil
}
