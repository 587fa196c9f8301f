package services

import (
	"context"
	"sort"
	"time"

	"carwash-backend/models"
	"carwash-backend/utils"

	"github.com/shopspring/decimal"
)

type CustomerSummary struct {
	ID          uint   `json:"id"`
	Name        string `json:"name"`
	Area        string `json:"area"`
	Phone       string `json:"phone"`
	TotalWashes int    `json:"totalWashes"`
}

// CustomerGroup is one customer type in the customers report.
type CustomerGroup struct {
	LeadType  string            `json:"leadType"`
	Count     int               `json:"count"`
	Customers []CustomerSummary `json:"customers"`
}

// Customers groups converted leads created in the window by lead type.
func (r *Reports) Customers(ctx context.Context, rng utils.DateRange, leadType string) ([]CustomerGroup, error) {
	var leads []models.Lead
	q := r.db.WithContext(ctx).Preload("WashHistory").Where("status = ?", models.LeadStatusConverted)
	if leadType != "" {
		q = q.Where("lead_type = ?", leadType)
	}
	if err := q.Order("id").Find(&leads).Error; err != nil {
		return nil, err
	}

	groups := map[string]*CustomerGroup{}
	for _, l := range leadsCreatedIn(leads, rng) {
		g, ok := groups[l.LeadType]
		if !ok {
			g = &CustomerGroup{LeadType: l.LeadType, Customers: []CustomerSummary{}}
			groups[l.LeadType] = g
		}
		g.Count++
		g.Customers = append(g.Customers, CustomerSummary{
			ID: l.ID, Name: l.CustomerName, Area: l.Area, Phone: l.Phone, TotalWashes: len(l.WashHistory),
		})
	}
	out := make([]CustomerGroup, 0, len(groups))
	for _, g := range groups {
		out = append(out, *g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LeadType < out[j].LeadType })
	return out, nil
}

type WasherWash struct {
	ID           string    `json:"id"`
	LeadID       uint      `json:"leadId"`
	CustomerName string    `json:"customerName"`
	Phone        string    `json:"customerPhone,omitempty"`
	Area         string    `json:"area"`
	CarModel     string    `json:"carModel,omitempty"`
	WashType     string    `json:"washType"`
	Amount       float64   `json:"amount"`
	Date         time.Time `json:"date"`
	Status       string    `json:"status"`
	Feedback     string    `json:"feedback,omitempty"`
	IsPaid       bool      `json:"isPaid"`
	LeadType     string    `json:"leadType"`
	Kind         string    `json:"kind"`
}

func toWasherWash(w *models.WashRecord) WasherWash {
	ww := WasherWash{
		ID: w.ID.String(), LeadID: w.LeadID, WashType: w.WashType, Amount: w.Amount,
		Date: w.Date, Status: w.Status, Feedback: w.Feedback, IsPaid: w.IsPaid, Kind: w.Kind,
	}
	if w.Lead != nil {
		ww.CustomerName = w.Lead.CustomerName
		ww.Phone = w.Lead.Phone
		ww.Area = w.Lead.Area
		ww.CarModel = w.Lead.CarModel
		ww.LeadType = w.Lead.LeadType
	}
	return ww
}

// WasherReport is one washer in the washers report.
type WasherReport struct {
	WasherID        uint         `json:"washerId"`
	Name            string       `json:"name"`
	TotalWashes     int          `json:"totalWashes"`
	TotalRevenue    float64      `json:"totalRevenue"`
	CompletedWashes []WasherWash `json:"completedWashes"`
}

// Washers reports completed washes per washer. Revenue counts paid washes only.
func (r *Reports) Washers(ctx context.Context, rng utils.DateRange, washerID *uint) ([]WasherReport, error) {
	washers, err := r.washers(ctx, false)
	if err != nil {
		return nil, err
	}
	records, err := CompletedWashes(ctx, r.db)
	if err != nil {
		return nil, err
	}

	byWasher := map[uint][]*models.WashRecord{}
	for i := range records {
		rec := &records[i]
		if rec.WasherID != nil && rng.Contains(rec.Date) {
			byWasher[*rec.WasherID] = append(byWasher[*rec.WasherID], rec)
		}
	}

	out := []WasherReport{}
	for _, w := range washers {
		if washerID != nil && w.ID != *washerID {
			continue
		}
		recs := byWasher[w.ID]
		if len(recs) == 0 && washerID == nil {
			continue
		}
		rep := WasherReport{WasherID: w.ID, Name: w.Name, CompletedWashes: []WasherWash{}}
		total := decimal.Zero
		for _, rec := range recs {
			rep.TotalWashes++
			if rec.IsRevenueEligible() {
				total = total.Add(decimal.NewFromFloat(rec.Amount))
			}
			rep.CompletedWashes = append(rep.CompletedWashes, toWasherWash(rec))
		}
		rep.TotalRevenue = total.InexactFloat64()
		out = append(out, rep)
	}
	return out, nil
}

type WasherSummary struct {
	Total     int `json:"total"`
	Completed int `json:"completed"`
	Pending   int `json:"pending"`
}

// WasherSummaries counts each washer's washes, keyed by washer id. A wash
// belongs to its own washer, or to the lead's assigned washer when unset.
func (r *Reports) WasherSummaries(ctx context.Context) (map[uint]WasherSummary, error) {
	records, err := r.washRecords(ctx)
	if err != nil {
		return nil, err
	}
	out := map[uint]WasherSummary{}
	for i := range records {
		id := effectiveWasher(&records[i])
		if id == nil {
			continue
		}
		s := out[*id]
		s.Total++
		switch records[i].Status {
		case models.WashStatusCompleted:
			s.Completed++
		case models.WashStatusNotCompleted, models.WashStatusPending, models.WashStatusScheduled:
			s.Pending++
		}
		out[*id] = s
	}
	return out, nil
}

func effectiveWasher(w *models.WashRecord) *uint {
	if w.WasherID != nil {
		return w.WasherID
	}
	if w.Lead != nil {
		return w.Lead.AssignedWasherID
	}
	return nil
}

// WasherDetails is a washer with all assigned washes.
type WasherDetails struct {
	Washer *models.User `json:"washer"`
	Stats  struct {
		TotalEarnings   float64 `json:"totalEarnings"`
		TotalWashes     int     `json:"totalWashes"`
		CompletedWashes int     `json:"completedWashes"`
		CompletionRate  float64 `json:"completionRate"`
	} `json:"stats"`
	RecentWashes []WasherWash `json:"recentWashes"`
	AllWashes    []WasherWash `json:"allWashes"`
}

// WasherDetails lists every wash done by the washer, newest first.
func (r *Reports) WasherDetails(ctx context.Context, washerID uint) (*WasherDetails, error) {
	washer, err := findWasher(r.db.WithContext(ctx), washerID)
	if err != nil {
		return nil, err
	}
	var records []models.WashRecord
	if err := r.db.WithContext(ctx).Preload("Lead").
		Where("washer_id = ?", washerID).Find(&records).Error; err != nil {
		return nil, err
	}
	sort.Slice(records, func(i, j int) bool { return records[i].Date.After(records[j].Date) })

	d := &WasherDetails{Washer: washer, AllWashes: make([]WasherWash, 0, len(records))}
	earnings := decimal.Zero
	for i := range records {
		rec := &records[i]
		d.Stats.TotalWashes++
		if rec.IsConverted() {
			d.Stats.CompletedWashes++
		}
		if rec.IsRevenueEligible() {
			earnings = earnings.Add(decimal.NewFromFloat(rec.Amount))
		}
		d.AllWashes = append(d.AllWashes, toWasherWash(rec))
	}
	d.Stats.TotalEarnings = earnings.InexactFloat64()
	d.Stats.CompletionRate = Percentage(d.Stats.CompletedWashes, d.Stats.TotalWashes)
	d.RecentWashes = d.AllWashes
	if len(d.RecentWashes) > 10 {
		d.RecentWashes = d.RecentWashes[:10]
	}
	return d, nil
}

// AttendanceReport is the per-washer attendance summary for a window.
func (r *Reports) AttendanceReport(ctx context.Context, rng utils.DateRange) ([]WasherAttendance, error) {
	return r.WasherAttendance(ctx, rng)
}

// SalaryLine is one washer's salary for a month.
type SalaryLine struct {
	WasherID     uint    `json:"washerId"`
	Name         string  `json:"name"`
	PresentDays  int     `json:"presentDays"`
	RecordedDays int     `json:"recordedDays"`
	DaysInMonth  int     `json:"daysInMonth"`
	BaseSalary   float64 `json:"baseSalary"`
	EarnedBase   float64 `json:"earnedBase"`
	Bonus        float64 `json:"bonus"`
	Gross        float64 `json:"gross"`
	AlreadyPaid  float64 `json:"alreadyPaid"`
	Balance      float64 `json:"balance"`
}

// CalculateSalary prorates a washer's base salary by present days over the
// days in the month, adds the bonus and subtracts salary payments already made.
func CalculateSalary(w models.User, attendance []models.Attendance, salaryPaid float64, daysInMonth int) SalaryLine {
	stats := SummarizeAttendance(attendance)
	line := SalaryLine{
		WasherID:     w.ID,
		Name:         w.Name,
		PresentDays:  stats.PresentDays,
		RecordedDays: stats.TotalDays,
		DaysInMonth:  daysInMonth,
		BaseSalary:   w.Salary.Base,
		Bonus:        w.Salary.Bonus,
		AlreadyPaid:  salaryPaid,
	}
	earned := decimal.Zero
	if daysInMonth > 0 {
		earned = decimal.NewFromFloat(w.Salary.Base).
			Mul(decimal.NewFromInt(int64(stats.PresentDays))).
			Div(decimal.NewFromInt(int64(daysInMonth))).
			Round(2)
	}
	gross := earned.Add(decimal.NewFromFloat(w.Salary.Bonus))
	line.EarnedBase = earned.InexactFloat64()
	line.Gross = gross.InexactFloat64()
	line.Balance = gross.Sub(decimal.NewFromFloat(salaryPaid)).Round(2).InexactFloat64()
	return line
}

// SalaryCalculation runs CalculateSalary for every active washer for month (YYYY-MM).
func (r *Reports) SalaryCalculation(ctx context.Context, month string) ([]SalaryLine, error) {
	rng, days, err := utils.MonthRange(month)
	if err != nil {
		return nil, wrapInput(err)
	}
	washers, err := r.washers(ctx, true)
	if err != nil {
		return nil, err
	}
	var attendance []models.Attendance
	if err := r.db.WithContext(ctx).Find(&attendance).Error; err != nil {
		return nil, err
	}
	expenses, err := ExpensesInRange(ctx, r.db, rng)
	if err != nil {
		return nil, err
	}

	byUser := map[uint][]models.Attendance{}
	for _, a := range attendance {
		if rng.Contains(a.Date) {
			byUser[a.UserID] = append(byUser[a.UserID], a)
		}
	}
	paid := map[string]decimal.Decimal{}
	for _, e := range expenses {
		if e.Category == models.ExpenseCategorySalary {
			paid[e.PaidTo] = paid[e.PaidTo].Add(decimal.NewFromFloat(e.Amount))
		}
	}

	out := make([]SalaryLine, 0, len(washers))
	for _, w := range washers {
		out = append(out, CalculateSalary(w, byUser[w.ID], paid[w.Name].InexactFloat64(), days))
	}
	return out, nil
}

// UpcomingWash is one entry in the upcoming-wash calendar.
type UpcomingWash struct {
	ID            string            `json:"id"`
	LeadID        uint              `json:"leadId"`
	CustomerName  string            `json:"customerName"`
	Phone         string            `json:"phone"`
	Area          string            `json:"area"`
	CarModel      string            `json:"carModel"`
	WashType      string            `json:"washType"`
	ScheduledDate time.Time         `json:"scheduledDate"`
	Washer        *models.WasherRef `json:"washer"`
	Kind          string            `json:"kind"`
	Status        string            `json:"status"`
}

// UpcomingWashes is the calendar feed: every wash in the window that has a
// washer (its own or the lead's), plus assigned leads with no washes yet,
// placed on the day they were created.
func (r *Reports) UpcomingWashes(ctx context.Context, rng utils.DateRange, washerID *uint) ([]UpcomingWash, error) {
	var leads []models.Lead
	if err := r.db.WithContext(ctx).
		Preload("AssignedWasher").
		Preload("WashHistory.Washer").
		Find(&leads).Error; err != nil {
		return nil, err
	}

	out := []UpcomingWash{}
	for i := range leads {
		l := &leads[i]
		for j := range l.WashHistory {
			w := &l.WashHistory[j]
			if !rng.Contains(w.Date) || w.Status == models.WashStatusCancelled {
				continue
			}
			washer := w.Washer
			if washer == nil {
				washer = l.AssignedWasher
			}
			if washer == nil || (washerID != nil && washer.ID != *washerID) {
				continue
			}
			status := models.WashStatusPending
			if w.Status == models.WashStatusCompleted {
				status = models.WashStatusCompleted
			}
			out = append(out, UpcomingWash{
				ID: w.ID.String(), LeadID: l.ID, CustomerName: l.CustomerName, Phone: l.Phone,
				Area: l.Area, CarModel: l.CarModel, WashType: w.WashType, ScheduledDate: w.Date,
				Washer: washer.Ref(), Kind: w.Kind, Status: status,
			})
		}

		if len(l.WashHistory) > 0 || l.AssignedWasher == nil {
			continue
		}
		if washerID != nil && l.AssignedWasher.ID != *washerID {
			continue
		}
		day := utils.BeginningOfDay(l.CreatedAt)
		if !rng.Contains(day) {
			continue
		}
		out = append(out, UpcomingWash{
			ID: "lead_" + itoa(l.ID), LeadID: l.ID, CustomerName: l.CustomerName, Phone: l.Phone,
			Area: l.Area, CarModel: l.CarModel, WashType: l.LeadType, ScheduledDate: day,
			Washer: l.AssignedWasher.Ref(), Kind: "lead", Status: models.WashStatusPending,
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ScheduledDate.Before(out[j].ScheduledDate) })
	return out, nil
}

type LeadOverview struct {
	TotalLeads       int            `json:"totalLeads"`
	NewToday         int            `json:"newToday"`
	ConvertedLeads   int            `json:"convertedLeads"`
	TotalRevenue     float64        `json:"totalRevenue"`
	TotalWashes      int            `json:"totalWashes"`
	AreaDistribution map[string]int `json:"areaDistribution"`
	TypeDistribution map[string]int `json:"typeDistribution"`
}

// LeadFilter holds the lead list filters.
type LeadFilter struct {
	LeadType   string
	LeadSource string
	Status     string
	Range      utils.DateRange
}

func (f LeadFilter) matches(l *models.Lead) bool {
	return (f.LeadType == "" || l.LeadType == f.LeadType) &&
		(f.LeadSource == "" || l.LeadSource == f.LeadSource) &&
		(f.Status == "" || l.Status == f.Status) &&
		f.Range.Contains(l.CreatedAt)
}

// LeadOverview counts the leads matching f by status and type.
func (r *Reports) LeadOverview(ctx context.Context, f LeadFilter, now time.Time) (*LeadOverview, error) {
	leads, err := r.leads(ctx)
	if err != nil {
		return nil, err
	}
	records, err := CompletedWashes(ctx, r.db)
	if err != nil {
		return nil, err
	}

	ov := &LeadOverview{AreaDistribution: map[string]int{}, TypeDistribution: map[string]int{}}
	included := map[uint]bool{}
	today := utils.BeginningOfDay(now)
	for i := range leads {
		l := &leads[i]
		if !f.matches(l) {
			continue
		}
		ov.TotalLeads++
		if !l.CreatedAt.Before(today) {
			ov.NewToday++
		}
		if l.IsConverted() {
			ov.ConvertedLeads++
			included[l.ID] = true
			ov.AreaDistribution[l.Area]++
			ov.TypeDistribution[l.LeadType]++
		}
	}

	subset := make([]models.WashRecord, 0, len(records))
	for _, rec := range records {
		if included[rec.LeadID] {
			subset = append(subset, rec)
		}
	}
	rep := Reconcile(subset, nil, RevenueFilter{})
	ov.TotalRevenue = rep.TotalRevenue
	ov.TotalWashes = rep.TotalWashes
	return ov, nil
}
