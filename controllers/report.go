package controllers

import (
	"fmt"
	"net/http"

	"carwash-backend/services"
	"carwash-backend/utils"

	"github.com/gin-gonic/gin"
)

// ReportController serves the /api/reports pages.
type ReportController struct {
	Reports *services.Reports
}

func revenueFilter(c *gin.Context) (services.RevenueFilter, bool) {
	rng, ok := queryRange(c)
	if !ok {
		return services.RevenueFilter{}, false
	}
	return services.RevenueFilter{
		Range:        rng,
		WashType:     c.Query("washType"),
		Area:         c.Query("area"),
		CustomerType: services.CustomerTypeFilter(c.Query("customerType")),
	}, true
}

// Revenue returns the reconciled revenue report for the filters.
func (rc *ReportController) Revenue(c *gin.Context) {
	f, ok := revenueFilter(c)
	if !ok {
		return
	}
	rep, err := services.RevenueFor(c.Request.Context(), db(c), f)
	if err != nil {
		internalError(c, err, "build revenue report")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"totalRevenue":     rep.TotalRevenue,
		"revenueByMonth":   rep.RevenueByMonth,
		"revenueByService": rep.RevenueByWashType,
		"revenueBySource":  rep.RevenueBySource,
		"paymentSummary":   rep.PaymentSummary,
	})
}

// Customers returns customers grouped by type.
func (rc *ReportController) Customers(c *gin.Context) {
	rng, ok := queryRange(c)
	if !ok {
		return
	}
	groups, err := rc.Reports.Customers(c.Request.Context(), rng, c.Query("type"))
	if err != nil {
		internalError(c, err, "build customer report")
		return
	}
	c.JSON(http.StatusOK, groups)
}

// Washers returns the washes done by each washer.
func (rc *ReportController) Washers(c *gin.Context) {
	rng, ok := queryRange(c)
	if !ok {
		return
	}
	var washerID *uint
	if v := c.Query("washerId"); v != "" {
		id, err := parseUint(v)
		if err != nil {
			utils.RespondWithError(c, http.StatusBadRequest, "Invalid washerId")
			return
		}
		washerID = &id
	}
	report, err := rc.Reports.Washers(c.Request.Context(), rng, washerID)
	if err != nil {
		internalError(c, err, "build washer report")
		return
	}
	c.JSON(http.StatusOK, report)
}

// RevenueAndIncome is the full reconciliation: revenue, expenses, net and
// the transaction feed.
func (rc *ReportController) RevenueAndIncome(c *gin.Context) {
	f, ok := revenueFilter(c)
	if !ok {
		return
	}
	rep, err := services.RevenueFor(c.Request.Context(), db(c), f)
	if err != nil {
		internalError(c, err, "build revenue report")
		return
	}
	c.JSON(http.StatusOK, rep)
}

// RevenueAndIncomePDF renders the revenue-and-income report as a PDF download.
func (rc *ReportController) RevenueAndIncomePDF(c *gin.Context) {
	f, ok := revenueFilter(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	rep, err := services.RevenueFor(ctx, db(c), f)
	if err != nil {
		internalError(c, err, "build revenue report")
		return
	}
	expenses, err := services.ExpensesInRange(ctx, db(c), f.Range)
	if err != nil {
		internalError(c, err, "build revenue report")
		return
	}
	now := utils.Now()
	pdf, err := services.RevenuePDF(rep, expenses, f.Range, now)
	if err != nil {
		internalError(c, err, "render revenue report")
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="revenue_%s.pdf"`, now.Format("20060102")))
	c.Data(http.StatusOK, "application/pdf", pdf)
}

// Attendance returns attendance per washer.
func (rc *ReportController) Attendance(c *gin.Context) {
	rng, ok := queryRange(c)
	if !ok {
		return
	}
	report, err := rc.Reports.AttendanceReport(c.Request.Context(), rng)
	if err != nil {
		internalError(c, err, "build attendance report")
		return
	}
	c.JSON(http.StatusOK, report)
}
