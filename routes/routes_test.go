package routes

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"carwash-backend/config"
	"carwash-backend/models"
	"carwash-backend/services"
	"carwash-backend/utils"

	"github.com/gin-gonic/gin"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testSecret = "routes-test-secret"

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	if err := utils.SetLocation("UTC"); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

type testServer struct {
	t      *testing.T
	db     *gorm.DB
	router *gin.Engine
	tokens utils.TokenIssuer
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Discard})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, config.Migrate(db))

	prev := config.DB
	config.DB = db
	t.Cleanup(func() { config.DB = prev })

	cfg := &config.Config{
		Env:         "test",
		CORSOrigins: []string{"http://localhost:3000"},
		JWT:         config.JWTConfig{Secret: testSecret, ExpiryHours: 1},
	}
	log := zap.NewNop()
	router := SetupRouter(Deps{
		Config: cfg,
		Logger: log,
		DB:     db,
		Cache:  services.NewDashboardCache(config.RedisConfig{}, log),
	})
	return &testServer{
		t:      t,
		db:     db,
		router: router,
		tokens: utils.TokenIssuer{Secret: testSecret, Expiry: time.Hour},
	}
}

func (s *testServer) user(name, role string) (*models.User, string) {
	s.t.Helper()
	u := &models.User{Name: name, Email: name + "@carwash.test", Password: "secret123", Role: role}
	require.NoError(s.t, s.db.Create(u).Error)
	token, err := s.tokens.Generate(u.ID, u.Role)
	require.NoError(s.t, err)
	return u, token
}

func (s *testServer) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	s.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(s.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}

func TestHealthAndMetrics(t *testing.T) {
	s := newTestServer(t)
	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, "/health", "", nil).Code)
	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, "/metrics", "", nil).Code)
}

func TestLogin(t *testing.T) {
	s := newTestServer(t)
	s.user("owner", models.RoleAdmin)

	w := s.do(http.MethodPost, "/api/auth/login", "", gin.H{"email": "OWNER@carwash.test", "password": "secret123"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var out struct {
		Token string `json:"token"`
	}
	decode(t, w, &out)
	require.NotEmpty(t, out.Token)

	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, "/api/auth/me", out.Token, nil).Code)
	assert.Equal(t, http.StatusUnauthorized,
		s.do(http.MethodPost, "/api/auth/login", "", gin.H{"email": "owner@carwash.test", "password": "nope"}).Code)
}

func TestOneTimeLeadWashIsRevenue(t *testing.T) {
	s := newTestServer(t)
	_, admin := s.user("admin", models.RoleAdmin)

	w := s.do(http.MethodPost, "/api/leads", admin, gin.H{
		"name":       "Rahul",
		"phone":      "9000000001",
		"area":       "Andheri",
		"carModel":   "Swift",
		"leadType":   models.LeadTypeOneTime,
		"leadSource": "WhatsApp",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var lead models.Lead
	decode(t, w, &lead)
	assert.Equal(t, models.LeadStatusNew, lead.Status)

	dup := s.do(http.MethodPost, "/api/leads", admin, gin.H{
		"name": "Other", "phone": "9000000001", "area": "Powai",
		"leadType": models.LeadTypeOneTime, "leadSource": "Referral",
	})
	assert.Equal(t, http.StatusConflict, dup.Code)

	w = s.do(http.MethodPost, fmt.Sprintf("/api/leads/%d/wash-history", lead.ID), admin, gin.H{"washType": "Gold", "amount": 200})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodPost, fmt.Sprintf("/api/leads/%d/wash-history", lead.ID), admin, gin.H{
		"washType":      "Basic",
		"amount":        200,
		"washStatus":    models.WashStatusCompleted,
		"is_amountPaid": true,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.do(http.MethodGet, fmt.Sprintf("/api/leads/%d", lead.ID), admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &lead)
	assert.Equal(t, models.LeadStatusConverted, lead.Status)
	require.Len(t, lead.WashHistory, 1)

	today := utils.Now().Format("2006-01-02")
	w = s.do(http.MethodGet, "/api/reports/revenue?startDate="+today+"&endDate="+today, admin, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var rev struct {
		TotalRevenue float64 `json:"totalRevenue"`
	}
	decode(t, w, &rev)
	assert.Equal(t, 200.0, rev.TotalRevenue)

	// converted leads never go back to New
	w = s.do(http.MethodPut, fmt.Sprintf("/api/leads/%d", lead.ID), admin, gin.H{"status": models.LeadStatusNew})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMonthlySubscriptionFlow(t *testing.T) {
	s := newTestServer(t)
	_, admin := s.user("admin", models.RoleAdmin)

	lead := models.Lead{CustomerName: "Meera", Phone: "9000000002", Area: "Bandra", LeadType: models.LeadTypeMonthly, LeadSource: "Referral", Status: models.LeadStatusNew}
	require.NoError(t, s.db.Create(&lead).Error)

	base := utils.BeginningOfDay(utils.Now()).AddDate(0, 0, 2)
	dates := []string{}
	for i := 0; i < 4; i++ {
		dates = append(dates, base.AddDate(0, 0, 7*i).Format("2006-01-02"))
	}
	w := s.do(http.MethodPost, fmt.Sprintf("/api/leads/%d/monthly-subscription", lead.ID), admin, gin.H{
		"packageType":    models.PackagePremium,
		"scheduledDates": dates,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = s.do(http.MethodGet, fmt.Sprintf("/api/leads/%d/monthly-subscription", lead.ID), admin, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var sub models.Subscription
	decode(t, w, &sub)
	assert.Equal(t, 4, sub.TotalWashes)
	assert.True(t, sub.IsActive)
	require.Len(t, sub.ScheduledWashes, 4)
	for _, slot := range sub.ScheduledWashes {
		assert.Equal(t, 100.0, slot.Amount)
	}

	for n := 1; n <= 4; n++ {
		w = s.do(http.MethodPut, fmt.Sprintf("/api/leads/%d/monthly-subscription/wash/%d", lead.ID, n), admin, gin.H{
			"is_amountPaid": true,
		})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	}

	w = s.do(http.MethodGet, fmt.Sprintf("/api/leads/%d/monthly-subscription", lead.ID), admin, nil)
	decode(t, w, &sub)
	assert.Equal(t, 4, sub.CompletedWashes)
	assert.False(t, sub.IsActive)

	w = s.do(http.MethodGet, "/api/reports/revenue", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var rev struct {
		TotalRevenue float64 `json:"totalRevenue"`
	}
	decode(t, w, &rev)
	assert.Equal(t, 400.0, rev.TotalRevenue)
}

func TestRoleGates(t *testing.T) {
	s := newTestServer(t)
	_, admin := s.user("admin", models.RoleAdmin)
	_, limited := s.user("viewer", models.RoleLimitedAdmin)
	washer, washerToken := s.user("ravi", models.RoleWasher)
	other, _ := s.user("anil", models.RoleWasher)

	newLead := gin.H{"name": "X", "phone": "9000000009", "area": "Juhu", "leadType": models.LeadTypeOneTime, "leadSource": "Other"}

	assert.Equal(t, http.StatusUnauthorized, s.do(http.MethodGet, "/api/leads", "", nil).Code)
	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, "/api/leads", limited, nil).Code)
	assert.Equal(t, http.StatusForbidden, s.do(http.MethodPost, "/api/leads", limited, newLead).Code)
	assert.Equal(t, http.StatusForbidden, s.do(http.MethodGet, "/api/leads", washerToken, nil).Code)

	assert.Equal(t, http.StatusForbidden, s.do(http.MethodGet, "/api/expenses", limited, nil).Code)
	assert.Equal(t, http.StatusForbidden, s.do(http.MethodGet, "/api/expenses", washerToken, nil).Code)
	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, "/api/expenses", admin, nil).Code)

	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, "/api/dashboard/stats?range=7d", limited, nil).Code)
	assert.Equal(t, http.StatusForbidden, s.do(http.MethodGet, "/api/dashboard/stats", washerToken, nil).Code)
	assert.Equal(t, http.StatusForbidden, s.do(http.MethodGet, "/api/reports/revenue", limited, nil).Code)
	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, "/api/reports/customers", limited, nil).Code)

	assert.Equal(t, http.StatusForbidden,
		s.do(http.MethodPost, "/api/auth/register", limited, gin.H{"name": "n", "email": "n@carwash.test", "password": "secret123"}).Code)
	assert.Equal(t, http.StatusForbidden,
		s.do(http.MethodPost, "/api/auth/register", admin, gin.H{"name": "n", "email": "n@carwash.test", "password": "secret123", "role": models.RoleSuperAdmin}).Code)
	assert.Equal(t, http.StatusCreated,
		s.do(http.MethodPost, "/api/auth/register", admin, gin.H{"name": "n", "email": "n@carwash.test", "password": "secret123", "role": models.RoleLimitedAdmin}).Code)

	// washers reach only their own records
	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, fmt.Sprintf("/api/washer/%d/attendance", washer.ID), washerToken, nil).Code)
	assert.Equal(t, http.StatusForbidden, s.do(http.MethodGet, fmt.Sprintf("/api/washer/%d/attendance", other.ID), washerToken, nil).Code)
	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, "/api/leads/upcoming-washes", washerToken, nil).Code)
}

func TestWasherAttendanceSelfService(t *testing.T) {
	s := newTestServer(t)
	washer, token := s.user("ravi", models.RoleWasher)
	other, _ := s.user("anil", models.RoleWasher)
	_, admin := s.user("admin", models.RoleAdmin)

	clock := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	prev := utils.Now
	utils.Now = func() time.Time { return clock }
	t.Cleanup(func() { utils.Now = prev })

	w := s.do(http.MethodPost, "/api/washer/attendance", token, gin.H{"type": "in"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.do(http.MethodPost, "/api/washer/attendance", token, gin.H{"type": "in"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodPost, "/api/washer/attendance", token, gin.H{"type": "in", "washerId": other.ID})
	assert.Equal(t, http.StatusForbidden, w.Code)

	clock = time.Date(2026, 3, 2, 17, 30, 0, 0, time.UTC)
	w = s.do(http.MethodPost, "/api/washer/attendance", token, gin.H{"type": "out", "washerId": washer.ID})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var out struct {
		Attendance models.Attendance `json:"attendance"`
	}
	decode(t, w, &out)
	assert.Equal(t, 8.5, out.Attendance.Duration)
	assert.Equal(t, models.AttendancePresent, out.Attendance.Status)

	// admins may clock washers in
	w = s.do(http.MethodPost, "/api/washer/attendance", admin, gin.H{"type": "in", "washerId": other.ID})
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.do(http.MethodPost, "/api/washer/attendance", admin, gin.H{"type": "lunch", "washerId": washer.ID})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	// an unreadable body never resolves to the caller
	w = s.do(http.MethodPost, "/api/washer/attendance", token, gin.H{"type": "lunch"})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestWasherCompletesAssignedWash(t *testing.T) {
	s := newTestServer(t)
	_, admin := s.user("admin", models.RoleAdmin)
	washer, washerToken := s.user("ravi", models.RoleWasher)
	other, otherToken := s.user("anil", models.RoleWasher)

	lead := models.Lead{CustomerName: "Kiran", Phone: "9000000003", Area: "Powai", LeadType: models.LeadTypeOneTime, LeadSource: "Pamphlet", Status: models.LeadStatusNew}
	require.NoError(t, s.db.Create(&lead).Error)

	w := s.do(http.MethodPost, fmt.Sprintf("/api/leads/%d/assign-onetime", lead.ID), admin, gin.H{
		"washType": "Basic", "amount": 250, "washerId": washer.ID,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var rec models.WashRecord
	require.NoError(t, s.db.Where("lead_id = ?", lead.ID).First(&rec).Error)
	path := fmt.Sprintf("/api/leads/%d/wash-history/%s", lead.ID, rec.ID)
	done := gin.H{"washStatus": models.WashStatusCompleted, "feedback": "spotless"}

	assert.Equal(t, http.StatusForbidden, s.do(http.MethodPut, path, otherToken, done).Code)

	// washers cannot reprice, hand off or settle their washes
	for _, body := range []gin.H{
		{"amount": 1},
		{"washerId": other.ID},
		{"is_amountPaid": true},
		{"washStatus": models.WashStatusCompleted, "amountPaid": true},
	} {
		w := s.do(http.MethodPut, path, washerToken, body)
		assert.Equal(t, http.StatusForbidden, w.Code, w.Body.String())
	}
	require.NoError(t, s.db.First(&rec, "id = ?", rec.ID).Error)
	assert.Equal(t, 250.0, rec.Amount)
	assert.Equal(t, washer.ID, *rec.WasherID)
	assert.False(t, rec.IsPaid)

	require.Equal(t, http.StatusOK, s.do(http.MethodPut, path, washerToken, done).Code)

	var stored models.Lead
	require.NoError(t, s.db.First(&stored, lead.ID).Error)
	assert.Equal(t, models.LeadStatusConverted, stored.Status)

	// admins still record the payment
	require.Equal(t, http.StatusOK, s.do(http.MethodPut, path, admin, gin.H{"is_amountPaid": true}).Code)
	require.NoError(t, s.db.First(&rec, "id = ?", rec.ID).Error)
	assert.True(t, rec.IsPaid)
}

func invalidations(t *testing.T) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, config.DashboardCacheInvalidations.Write(&m))
	return m.GetCounter().GetValue()
}

func TestWasherWritesInvalidateDashboard(t *testing.T) {
	s := newTestServer(t)
	_, admin := s.user("admin", models.RoleAdmin)
	washer, token := s.user("ravi", models.RoleWasher)

	lead := models.Lead{CustomerName: "Nisha", Phone: "9000000004", Area: "Thane", LeadType: models.LeadTypeOneTime, LeadSource: "Other", Status: models.LeadStatusNew}
	require.NoError(t, s.db.Create(&lead).Error)

	writes := []struct {
		name   string
		method string
		path   string
		token  string
		body   gin.H
		code   int
	}{
		{"clock in", http.MethodPost, "/api/washer/attendance", token, gin.H{"type": "in"}, http.StatusOK},
		{"assign washer", http.MethodPut, fmt.Sprintf("/api/leads/%d/assign", lead.ID), admin, gin.H{"washerId": washer.ID}, http.StatusOK},
		{"washer status", http.MethodPut, fmt.Sprintf("/api/washer/%d/status", washer.ID), admin, gin.H{"status": models.UserStatusInactive}, http.StatusOK},
		{"create washer", http.MethodPost, "/api/washer/create", admin, gin.H{"name": "anil", "email": "anil@carwash.test", "password": "secret123"}, http.StatusCreated},
	}
	for _, tc := range writes {
		t.Run(tc.name, func(t *testing.T) {
			before := invalidations(t)
			w := s.do(tc.method, tc.path, tc.token, tc.body)
			require.Equal(t, tc.code, w.Code, w.Body.String())
			assert.Equal(t, before+1, invalidations(t))
		})
	}
}

func TestWasherCompletesSubscriptionSlot(t *testing.T) {
	s := newTestServer(t)
	_, admin := s.user("admin", models.RoleAdmin)
	washer, washerToken := s.user("ravi", models.RoleWasher)

	lead := models.Lead{CustomerName: "Farah", Phone: "9000000006", Area: "Juhu", LeadType: models.LeadTypeMonthly, LeadSource: "Referral", Status: models.LeadStatusNew, AssignedWasherID: &washer.ID}
	require.NoError(t, s.db.Create(&lead).Error)

	start := utils.BeginningOfDay(utils.Now()).AddDate(0, 0, 3)
	w := s.do(http.MethodPost, fmt.Sprintf("/api/leads/%d/monthly-subscription", lead.ID), admin, gin.H{
		"packageType":    models.PackageBasic,
		"scheduledDates": []string{start.Format("2006-01-02"), start.AddDate(0, 0, 10).Format("2006-01-02")},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	path := fmt.Sprintf("/api/leads/%d/monthly-subscription/wash/1", lead.ID)
	assert.Equal(t, http.StatusForbidden, s.do(http.MethodPut, path, washerToken, gin.H{"is_amountPaid": true}).Code)

	w = s.do(http.MethodPut, path, washerToken, gin.H{"feedback": "done", "duration": 40})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var sub models.Subscription
	decode(t, w, &sub)
	assert.Equal(t, 1, sub.CompletedWashes)
	assert.False(t, sub.ScheduledWashes[0].IsPaid)
}
