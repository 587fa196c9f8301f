package controllers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"carwash-backend/services"
	"carwash-backend/utils"

	"github.com/gin-gonic/gin"
)

// DashboardController serves the dashboard widgets. Each widget reads
// ?range=1d|3d|5d|7d|2w|1m|3m (default 1m) and is cached when redis is set up.
type DashboardController struct {
	Reports *services.Reports
	Cache   *services.DashboardCache
}

type widget func(ctx context.Context, rng utils.DateRange, now time.Time) (interface{}, error)

// widgetKey is the cache key for a widget; unknown ranges share the "1m" entry.
func widgetKey(name, rangeKey string) string {
	return name + ":" + utils.DashboardRangeKey(rangeKey)
}

func (dc *DashboardController) serve(name string, build widget) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := utils.DashboardRangeKey(c.Query("range"))
		cacheKey := widgetKey(name, key)
		if data, ok := dc.Cache.Get(c.Request.Context(), cacheKey); ok {
			c.Data(http.StatusOK, "application/json; charset=utf-8", data)
			return
		}

		now := utils.Now()
		out, err := build(c.Request.Context(), utils.DashboardRange(key, now), now)
		if err != nil {
			internalError(c, err, "fetch "+name)
			return
		}
		dc.Cache.Set(c.Request.Context(), cacheKey, out)
		c.JSON(http.StatusOK, out)
	}
}

// Stats serves the headline counters with previous-period change.
func (dc *DashboardController) Stats() gin.HandlerFunc {
	return dc.serve("stats", func(ctx context.Context, rng utils.DateRange, now time.Time) (interface{}, error) {
		return dc.Reports.Stats(ctx, rng, now)
	})
}

// LeadAcquisition serves new leads per day.
func (dc *DashboardController) LeadAcquisition() gin.HandlerFunc {
	return dc.serve("lead-acquisition", func(ctx context.Context, _ utils.DateRange, now time.Time) (interface{}, error) {
		return dc.Reports.LeadAcquisition(ctx, now)
	})
}

// WasherPerformance serves completed washes and revenue per washer.
func (dc *DashboardController) WasherPerformance() gin.HandlerFunc {
	return dc.serve("washer-performance", func(ctx context.Context, rng utils.DateRange, _ time.Time) (interface{}, error) {
		return dc.Reports.WasherPerformance(ctx, rng)
	})
}

// RecentLeads ignores the range; ?limit defaults to 5.
func (dc *DashboardController) RecentLeads(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "5"))
	if err != nil || limit <= 0 || limit > 100 {
		limit = 5
	}
	leads, err := dc.Reports.RecentLeads(c.Request.Context(), limit)
	if err != nil {
		internalError(c, err, "fetch recent leads")
		return
	}
	c.JSON(http.StatusOK, leads)
}

// WasherAttendance serves attendance percentages per washer.
func (dc *DashboardController) WasherAttendance() gin.HandlerFunc {
	return dc.serve("washer-attendance", func(ctx context.Context, rng utils.DateRange, _ time.Time) (interface{}, error) {
		return dc.Reports.WasherAttendance(ctx, rng)
	})
}

// RevenueByService serves revenue per wash type.
func (dc *DashboardController) RevenueByService() gin.HandlerFunc {
	return dc.serve("revenue-by-service", func(ctx context.Context, rng utils.DateRange, _ time.Time) (interface{}, error) {
		return dc.Reports.RevenueByService(ctx, rng)
	})
}

// LeadSources serves lead counts and conversions per source.
func (dc *DashboardController) LeadSources() gin.HandlerFunc {
	return dc.serve("lead-sources", func(ctx context.Context, rng utils.DateRange, _ time.Time) (interface{}, error) {
		return dc.Reports.LeadSources(ctx, rng)
	})
}

// AreaDistribution serves lead counts per area.
func (dc *DashboardController) AreaDistribution() gin.HandlerFunc {
	return dc.serve("area-distribution", func(ctx context.Context, _ utils.DateRange, _ time.Time) (interface{}, error) {
		return dc.Reports.AreaDistribution(ctx)
	})
}

// FeedbackAnalytics serves wash feedback totals.
func (dc *DashboardController) FeedbackAnalytics() gin.HandlerFunc {
	return dc.serve("feedback-analytics", func(ctx context.Context, rng utils.DateRange, _ time.Time) (interface{}, error) {
		return dc.Reports.FeedbackAnalytics(ctx, rng)
	})
}

// TodayTomorrowWashCount is not cached; the counts move as washers work.
func (dc *DashboardController) TodayTomorrowWashCount(c *gin.Context) {
	counts, err := dc.Reports.TodayTomorrowWashCount(c.Request.Context(), utils.Now())
	if err != nil {
		internalError(c, err, "fetch wash counts")
		return
	}
	c.JSON(http.StatusOK, counts)
}

// CustomerStats serves customer counts by type.
func (dc *DashboardController) CustomerStats() gin.HandlerFunc {
	return dc.serve("customer-stats", func(ctx context.Context, rng utils.DateRange, _ time.Time) (interface{}, error) {
		return dc.Reports.CustomerStats(ctx, rng)
	})
}

// RevenueStats serves revenue with previous-period change.
func (dc *DashboardController) RevenueStats() gin.HandlerFunc {
	return dc.serve("revenue-stats", func(ctx context.Context, rng utils.DateRange, _ time.Time) (interface{}, error) {
		return dc.Reports.RevenueStats(ctx, rng)
	})
}

// DirectRevenue splits revenue into direct washes and subscriptions.
func (dc *DashboardController) DirectRevenue() gin.HandlerFunc {
	return dc.serve("direct-revenue", func(ctx context.Context, rng utils.DateRange, _ time.Time) (interface{}, error) {
		return dc.Reports.DirectRevenue(ctx, rng)
	})
}

// ExpensesStats serves expense totals by category.
func (dc *DashboardController) ExpensesStats() gin.HandlerFunc {
	return dc.serve("expenses-stats", func(ctx context.Context, rng utils.DateRange, _ time.Time) (interface{}, error) {
		return dc.Reports.ExpensesStats(ctx, rng)
	})
}
