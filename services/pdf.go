package services

import (
	"bytes"
	"fmt"
	"sort"
	"time"

	"carwash-backend/models"
	"carwash-backend/utils"

	"github.com/jung-kurt/gofpdf/v2"
)

// RevenuePDF renders the revenue-and-income report with the expenses behind it.
func RevenuePDF(rep RevenueReport, expenses []models.Expense, rng utils.DateRange, generated time.Time) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(10, 10, 10)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(190, 10, "Car Wash - Revenue & Income Report", "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(190, 6, "Period: "+periodLabel(rng), "", 1, "C", false, 0, "")
	pdf.CellFormat(190, 6, fmt.Sprintf("Generated: %s", generated.Format("02-Jan-2006 03:04 PM")), "", 1, "C", false, 0, "")
	pdf.Ln(5)

	pdf.SetFillColor(240, 240, 240)
	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(190, 8, "Summary", "1", 1, "L", true, 0, "")
	pdf.SetFont("Arial", "", 11)
	pdf.CellFormat(63, 8, fmt.Sprintf("Revenue: Rs. %.2f", rep.TotalRevenue), "1", 0, "C", false, 0, "")
	pdf.CellFormat(63, 8, fmt.Sprintf("Expenses: Rs. %.2f", rep.TotalExpenses), "1", 0, "C", false, 0, "")
	pdf.CellFormat(64, 8, fmt.Sprintf("Net: Rs. %.2f", rep.NetRevenue), "1", 1, "C", false, 0, "")
	pdf.CellFormat(95, 8, fmt.Sprintf("Washes: %d", rep.TotalWashes), "1", 0, "C", false, 0, "")
	pdf.CellFormat(95, 8, fmt.Sprintf("Unpaid completed: Rs. %.2f", rep.PaymentSummary.Unpaid), "1", 1, "C", false, 0, "")
	pdf.Ln(5)

	if len(rep.RevenueByWashType) > 0 {
		pdf.SetFont("Arial", "B", 12)
		pdf.CellFormat(190, 8, "Revenue by Wash Type", "1", 1, "L", true, 0, "")
		pdf.SetFont("Arial", "", 10)
		for _, k := range sortedKeys(rep.RevenueByWashType) {
			pdf.CellFormat(95, 6, fmt.Sprintf("%s (%d)", k, rep.WashesByType[k]), "1", 0, "L", false, 0, "")
			pdf.CellFormat(95, 6, fmt.Sprintf("Rs. %.2f", rep.RevenueByWashType[k]), "1", 1, "R", false, 0, "")
		}
		pdf.Ln(5)
	}

	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(190, 8, "Transactions", "1", 1, "L", true, 0, "")
	pdf.SetFont("Arial", "B", 10)
	pdf.SetFillColor(200, 200, 200)
	pdf.CellFormat(30, 7, "Date", "1", 0, "C", true, 0, "")
	pdf.CellFormat(55, 7, "Customer", "1", 0, "C", true, 0, "")
	pdf.CellFormat(35, 7, "Wash Type", "1", 0, "C", true, 0, "")
	pdf.CellFormat(35, 7, "Source", "1", 0, "C", true, 0, "")
	pdf.CellFormat(35, 7, "Amount", "1", 1, "C", true, 0, "")
	pdf.SetFont("Arial", "", 10)
	for _, t := range rep.Transactions {
		pdf.CellFormat(30, 6, t.Date.In(utils.Location()).Format("02-Jan-2006"), "1", 0, "C", false, 0, "")
		pdf.CellFormat(55, 6, truncate(t.CustomerName, 28), "1", 0, "L", false, 0, "")
		pdf.CellFormat(35, 6, t.WashType, "1", 0, "C", false, 0, "")
		pdf.CellFormat(35, 6, t.Source, "1", 0, "C", false, 0, "")
		pdf.CellFormat(35, 6, fmt.Sprintf("Rs. %.2f", t.Amount), "1", 1, "R", false, 0, "")
	}

	if len(expenses) > 0 {
		pdf.Ln(5)
		pdf.SetFillColor(240, 240, 240)
		pdf.SetFont("Arial", "B", 12)
		pdf.CellFormat(190, 8, "Expenses", "1", 1, "L", true, 0, "")
		pdf.SetFont("Arial", "", 10)
		for _, e := range expenses {
			pdf.CellFormat(30, 6, e.Date.In(utils.Location()).Format("02-Jan-2006"), "1", 0, "C", false, 0, "")
			pdf.CellFormat(35, 6, e.Category, "1", 0, "C", false, 0, "")
			pdf.CellFormat(90, 6, truncate(e.Description, 45), "1", 0, "L", false, 0, "")
			pdf.CellFormat(35, 6, fmt.Sprintf("Rs. %.2f", e.Amount), "1", 1, "R", false, 0, "")
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func periodLabel(rng utils.DateRange) string {
	switch {
	case rng.Start != nil && rng.End != nil:
		return rng.Start.Format("02-Jan-2006") + " to " + rng.End.Format("02-Jan-2006")
	case rng.Start != nil:
		return "from " + rng.Start.Format("02-Jan-2006")
	case rng.End != nil:
		return "until " + rng.End.Format("02-Jan-2006")
	}
	return "all time"
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func truncate(s string, n int) string {
	if len(s) > n {
		return s[:n-3] + "..."
	}
	return s
}
