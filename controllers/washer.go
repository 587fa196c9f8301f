package controllers

import (
	"errors"
	"net/http"
	"strings"

	"carwash-backend/models"
	"carwash-backend/services"
	"carwash-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"gorm.io/gorm"
)

// CreateWasherInput defines the input for creating a washer.
type CreateWasherInput struct {
	Name     string         `json:"name" binding:"required"`
	Email    string         `json:"email" binding:"required,email"`
	Phone    string         `json:"phone"`
	Password string         `json:"password" binding:"required,min=6"`
	Salary   *models.Salary `json:"salary"`
}

// AttendanceInput is a clock-in or clock-out.
type AttendanceInput struct {
	WasherID uint   `json:"washerId"`
	Type     string `json:"type" binding:"required,oneof=in out"`
}

// PersonalDetailsInput defines the editable washer details.
type PersonalDetailsInput struct {
	Address              *string        `json:"address"`
	DateOfBirth          string         `json:"dateOfBirth"`
	Email                *string        `json:"email"`
	Phone                *string        `json:"phone"`
	Password             string         `json:"password"`
	KeepExistingPassword bool           `json:"keepExistingPassword"`
	Salary               *models.Salary `json:"salary"`
}

// WasherController manages washer accounts and attendance.
type WasherController struct {
	Attendance *services.AttendanceService
	Reports    *services.Reports
	Cache      *services.DashboardCache
}

type washerWithSummary struct {
	models.User
	Summary services.WasherSummary `json:"summary"`
}

func findWasherUser(c *gin.Context, id uint) (*models.User, bool) {
	var washer models.User
	err := db(c).Where("role = ?", models.RoleWasher).First(&washer, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusNotFound, "Washer not found")
		} else {
			internalError(c, err, "fetch washer")
		}
		return nil, false
	}
	return &washer, true
}

// ListWashers returns active washers with their wash counts; ?status=all
// includes inactive ones.
func (wc *WasherController) ListWashers(c *gin.Context) {
	q := db(c).Where("role = ?", models.RoleWasher)
	if c.Query("status") != "all" {
		q = q.Where("status = ?", models.UserStatusActive)
	}
	var washers []models.User
	if err := q.Order("name").Find(&washers).Error; err != nil {
		internalError(c, err, "fetch washers")
		return
	}
	summaries, err := wc.Reports.WasherSummaries(c.Request.Context())
	if err != nil {
		internalError(c, err, "fetch washers")
		return
	}

	out := make([]washerWithSummary, 0, len(washers))
	for _, w := range washers {
		out = append(out, washerWithSummary{User: w, Summary: summaries[w.ID]})
	}
	c.JSON(http.StatusOK, out)
}

// GetWasher returns the washer with the washes scheduled for them today.
func (wc *WasherController) GetWasher(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	washer, ok := findWasherUser(c, id)
	if !ok {
		return
	}

	now := utils.Now()
	today := utils.DateRange{}
	start, end := utils.BeginningOfDay(now), utils.EndOfDay(now)
	today.Start, today.End = &start, &end
	washes, err := wc.Reports.UpcomingWashes(c.Request.Context(), today, &washer.ID)
	if err != nil {
		internalError(c, err, "fetch washer")
		return
	}
	c.JSON(http.StatusOK, gin.H{"washer": washer, "todayWashes": washes})
}

// CreateWasher creates a washer account.
func (wc *WasherController) CreateWasher(c *gin.Context) {
	var input CreateWasherInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}
	email := strings.ToLower(strings.TrimSpace(input.Email))
	var existing models.User
	if err := db(c).Where("email = ?", email).First(&existing).Error; err == nil {
		utils.RespondWithError(c, http.StatusConflict, "Email already registered")
		return
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		internalError(c, err, "create washer")
		return
	}

	washer := models.User{
		Name:     strings.TrimSpace(input.Name),
		Email:    email,
		Phone:    utils.NormalizePhone(input.Phone),
		Password: input.Password,
		Role:     models.RoleWasher,
	}
	if input.Salary != nil {
		washer.Salary = *input.Salary
	}
	if err := db(c).Create(&washer).Error; err != nil {
		internalError(c, err, "create washer")
		return
	}
	wc.Cache.Invalidate(c.Request.Context())
	c.JSON(http.StatusCreated, washer)
}

func bindAttendance(c *gin.Context) (AttendanceInput, error) {
	var input AttendanceInput
	err := c.ShouldBindBodyWith(&input, binding.JSON)
	if err == nil && input.WasherID == 0 {
		input.WasherID = utils.CurrentUserID(c)
	}
	return input, err
}

// AttendanceOwner is the washer named in the clock-in/out body; a body
// without washerId targets the caller.
func AttendanceOwner(c *gin.Context) (uint, bool) {
	input, err := bindAttendance(c)
	if err != nil {
		return 0, false
	}
	return input.WasherID, true
}

// WasherParamOwner treats the :id path parameter as the owning washer.
func WasherParamOwner(c *gin.Context) (uint, bool) {
	id, err := parseUint(c.Param("id"))
	return id, err == nil
}

// MarkAttendance clocks a washer in or out for today.
func (wc *WasherController) MarkAttendance(c *gin.Context) {
	input, err := bindAttendance(c)
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}
	entry, err := wc.Attendance.Mark(c.Request.Context(), input.WasherID, input.Type, utils.Now())
	if err != nil {
		respondServiceError(c, err, "mark attendance")
		return
	}
	wc.Cache.Invalidate(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{
		"message":    "Time-" + input.Type + " marked successfully",
		"attendance": entry,
	})
}

// AttendanceHistory returns a washer's attendance with stats.
func (wc *WasherController) AttendanceHistory(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	rng, ok := queryRange(c)
	if !ok {
		return
	}
	entries, stats, err := wc.Attendance.History(c.Request.Context(), id, rng)
	if err != nil {
		respondServiceError(c, err, "fetch attendance")
		return
	}
	c.JSON(http.StatusOK, gin.H{"attendance": entries, "stats": stats})
}

// UpdateStatus activates or deactivates a washer.
func (wc *WasherController) UpdateStatus(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var input struct {
		Status string `json:"status" binding:"required,oneof=Active Inactive"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "status must be Active or Inactive")
		return
	}
	if _, ok := findWasherUser(c, id); !ok {
		return
	}
	if err := db(c).Model(&models.User{}).Where("id = ?", id).Update("status", input.Status).Error; err != nil {
		internalError(c, err, "update washer status")
		return
	}
	wc.Cache.Invalidate(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"message": "Washer status updated successfully"})
}

// WashDetails returns a washer's washes and totals.
func (wc *WasherController) WashDetails(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	details, err := wc.Reports.WasherDetails(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err, "fetch wash details")
		return
	}
	c.JSON(http.StatusOK, details)
}

// UpdatePersonalDetails edits contact details. The password changes only
// when one is supplied and keepExistingPassword is not set. Salary can only
// be changed by an admin.
func (wc *WasherController) UpdatePersonalDetails(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var input PersonalDetailsInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}
	washer, ok := findWasherUser(c, id)
	if !ok {
		return
	}

	updates := map[string]interface{}{}
	if input.Address != nil {
		updates["address"] = *input.Address
	}
	if input.DateOfBirth != "" {
		dob, err := utils.ParseDate(input.DateOfBirth)
		if err != nil {
			utils.RespondWithError(c, http.StatusBadRequest, err.Error())
			return
		}
		updates["date_of_birth"] = dob
	}
	if input.Phone != nil {
		updates["phone"] = utils.NormalizePhone(*input.Phone)
	}
	if input.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*input.Email))
		if email != washer.Email {
			var other models.User
			if err := db(c).Where("email = ? AND id <> ?", email, id).First(&other).Error; err == nil {
				utils.RespondWithError(c, http.StatusConflict, "Email already registered")
				return
			}
			updates["email"] = email
		}
	}
	if !input.KeepExistingPassword && input.Password != "" {
		hashed, err := utils.HashPassword(input.Password)
		if err != nil {
			internalError(c, err, "update personal details")
			return
		}
		updates["password"] = hashed
	}
	if input.Salary != nil {
		if utils.CurrentRole(c) == models.RoleWasher {
			utils.RespondWithError(c, http.StatusForbidden, "Access denied")
			return
		}
		updates["salary_base"] = input.Salary.Base
		updates["salary_bonus"] = input.Salary.Bonus
	}

	if len(updates) > 0 {
		if err := db(c).Model(&models.User{}).Where("id = ?", id).Updates(updates).Error; err != nil {
			internalError(c, err, "update personal details")
			return
		}
	}
	db(c).First(washer, id)
	c.JSON(http.StatusOK, washer)
}
