package routes

import (
	"net/http"

	"carwash-backend/config"
	"carwash-backend/controllers"
	"carwash-backend/models"
	"carwash-backend/services"
	"carwash-backend/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Deps is everything the router needs from main.
type Deps struct {
	Config *config.Config
	Logger *zap.Logger
	DB     *gorm.DB
	Cache  *services.DashboardCache
}

var (
	admins    = []string{models.RoleSuperAdmin, models.RoleAdmin}
	readers   = []string{models.RoleSuperAdmin, models.RoleAdmin, models.RoleLimitedAdmin}
	anyRole   = []string{models.RoleSuperAdmin, models.RoleAdmin, models.RoleLimitedAdmin, models.RoleWasher}
	adminOnly = utils.Authorize(utils.Capability{Roles: admins})
	readOnly  = utils.Authorize(utils.Capability{Roles: readers})
	signedIn  = utils.Authorize(utils.Capability{Roles: anyRole})
)

// washerSelf lets admins through and washers only for resources they own.
func washerSelf(owner utils.OwnerFunc) gin.HandlerFunc {
	return utils.Authorize(utils.Capability{Roles: admins, SelfRole: models.RoleWasher, Owner: owner})
}

func SetupRouter(d Deps) *gin.Engine {
	if d.Config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     d.Config.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition", "X-Request-ID"},
		AllowCredentials: true,
	}))
	r.Use(config.RequestLogger(d.Logger), config.Recovery(d.Logger))

	r.GET("/health", func(c *gin.Context) {
		sqlDB, err := d.DB.DB()
		if err != nil || sqlDB.PingContext(c.Request.Context()) != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "cache": d.Cache.Enabled()})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	tokens := utils.TokenIssuer{Secret: d.Config.JWT.Secret, Expiry: d.Config.TokenTTL()}
	reports := services.NewReports(d.DB)

	authController := &controllers.AuthController{Tokens: tokens}
	leadController := &controllers.LeadController{
		Leads:     services.NewLeadService(d.DB),
		Scheduler: services.NewScheduler(d.DB, d.Logger),
		Reports:   reports,
		Cache:     d.Cache,
	}
	washerController := &controllers.WasherController{
		Attendance: services.NewAttendanceService(d.DB),
		Reports:    reports,
		Cache:      d.Cache,
	}
	expenseController := &controllers.ExpenseController{Reports: reports, Cache: d.Cache}
	reportController := &controllers.ReportController{Reports: reports}
	dashboardController := &controllers.DashboardController{Reports: reports, Cache: d.Cache}

	api := r.Group("/api")

	api.POST("/auth/login", authController.Login)

	api.Use(utils.AuthMiddleware(tokens))

	auth := api.Group("/auth")
	{
		auth.POST("/register", adminOnly, authController.Register)
		auth.GET("/me", signedIn, authController.Me)
		auth.PUT("/profile", signedIn, controllers.UpdateProfile)
	}

	leads := api.Group("/leads")
	{
		leads.GET("/upcoming-washes", signedIn, leadController.UpcomingWashes)
		leads.GET("/stats/overview", readOnly, leadController.StatsOverview)

		leads.GET("", readOnly, leadController.ListLeads)
		leads.POST("", adminOnly, leadController.CreateLead)
		leads.GET("/:id", readOnly, leadController.GetLead)
		leads.PUT("/:id", adminOnly, leadController.UpdateLead)
		leads.DELETE("/:id", adminOnly, leadController.DeleteLead)

		leads.GET("/:id/wash-history", readOnly, leadController.GetWashHistory)
		leads.POST("/:id/wash-history", adminOnly, leadController.AddWashHistory)
		leads.PUT("/:id/wash-history/:entryId", washerSelf(controllers.WashEntryOwner), leadController.UpdateWashHistory)

		leads.PUT("/:id/assign", adminOnly, leadController.AssignWasher)
		leads.POST("/:id/assign-onetime", adminOnly, leadController.AssignOneTime)
		leads.POST("/:id/convert-to-monthly", adminOnly, leadController.ConvertToMonthly)
		leads.POST("/:id/monthly-subscription", adminOnly, leadController.CreateSubscription)
		leads.GET("/:id/monthly-subscription", readOnly, leadController.GetSubscription)
		leads.PUT("/:id/monthly-subscription/wash/:washId", washerSelf(controllers.SubscriptionSlotOwner), leadController.CompleteSubscriptionWash)
	}

	washer := api.Group("/washer")
	{
		washer.GET("/list", readOnly, washerController.ListWashers)
		washer.POST("/create", adminOnly, washerController.CreateWasher)
		washer.POST("/attendance", washerSelf(controllers.AttendanceOwner), washerController.MarkAttendance)
		washer.GET("/:id", readOnly, washerController.GetWasher)
		washer.GET("/:id/attendance", washerSelf(controllers.WasherParamOwner), washerController.AttendanceHistory)
		washer.POST("/:id/status", adminOnly, washerController.UpdateStatus)
		washer.PUT("/:id/status", adminOnly, washerController.UpdateStatus)
		washer.GET("/:id/wash-details", washerSelf(controllers.WasherParamOwner), washerController.WashDetails)
		washer.PUT("/:id/personal-details", washerSelf(controllers.WasherParamOwner), washerController.UpdatePersonalDetails)
	}

	expenses := api.Group("/expenses", adminOnly)
	{
		expenses.GET("", expenseController.ListExpenses)
		expenses.POST("", expenseController.CreateExpense)
		expenses.GET("/washers", expenseController.ExpenseWashers)
		expenses.GET("/salary-calculation", expenseController.SalaryCalculation)
		expenses.PUT("/:id", expenseController.UpdateExpense)
		expenses.DELETE("/:id", expenseController.DeleteExpense)
	}

	reportRoutes := api.Group("/reports")
	{
		reportRoutes.GET("/revenue", adminOnly, reportController.Revenue)
		reportRoutes.GET("/revenue_and_income", adminOnly, reportController.RevenueAndIncome)
		reportRoutes.GET("/revenue_and_income/pdf", adminOnly, reportController.RevenueAndIncomePDF)
		reportRoutes.GET("/customers", readOnly, reportController.Customers)
		reportRoutes.GET("/washers", readOnly, reportController.Washers)
		reportRoutes.GET("/attendance", readOnly, reportController.Attendance)
	}

	dashboard := api.Group("/dashboard", readOnly)
	{
		dashboard.GET("/stats", dashboardController.Stats())
		dashboard.GET("/lead-acquisition", dashboardController.LeadAcquisition())
		dashboard.GET("/washer-performance", dashboardController.WasherPerformance())
		dashboard.GET("/recent-leads", dashboardController.RecentLeads)
		dashboard.GET("/washer-attendance", dashboardController.WasherAttendance())
		dashboard.GET("/revenue-by-service", dashboardController.RevenueByService())
		dashboard.GET("/lead-sources", dashboardController.LeadSources())
		dashboard.GET("/area-distribution", dashboardController.AreaDistribution())
		dashboard.GET("/feedback-analytics", dashboardController.FeedbackAnalytics())
		dashboard.GET("/today-tomorrow-wash-count", dashboardController.TodayTomorrowWashCount)
		dashboard.GET("/customer-stats", dashboardController.CustomerStats())
		dashboard.GET("/revenue-stats", dashboardController.RevenueStats())
		dashboard.GET("/direct-revenue", dashboardController.DirectRevenue())
		dashboard.GET("/expenses-stats", dashboardController.ExpensesStats())
	}

	templates := api.Group("/reminders/templates", adminOnly)
	{
		templates.GET("", controllers.GetReminderTemplates)
		templates.POST("", controllers.CreateReminderTemplate)
		templates.PUT("/:id", controllers.UpdateReminderTemplate)
		templates.DELETE("/:id", controllers.DeleteReminderTemplate)
	}

	return r
}
