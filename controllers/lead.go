package controllers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"carwash-backend/models"
	"carwash-backend/services"
	"carwash-backend/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// ReminderInput is an optional follow-up reminder on a lead.
type ReminderInput struct {
	Date string `json:"date"`
	Note string `json:"note"`
}

// CreateLeadInput defines the input for creating a lead.
type CreateLeadInput struct {
	Name           string         `json:"name" binding:"required"`
	Phone          string         `json:"phone" binding:"required"`
	Area           string         `json:"area" binding:"required"`
	CarModel       string         `json:"carModel"`
	LeadType       string         `json:"leadType" binding:"required"`
	LeadSource     string         `json:"leadSource" binding:"required"`
	AssignedWasher *uint          `json:"assignedWasher"`
	Notes          string         `json:"notes"`
	Coordinates    []float64      `json:"coordinates"`
	Reminder       *ReminderInput `json:"reminder"`
}

// UpdateLeadInput defines the input for updating a lead. Nil fields are left unchanged.
type UpdateLeadInput struct {
	Name           *string        `json:"name"`
	Phone          *string        `json:"phone"`
	Area           *string        `json:"area"`
	CarModel       *string        `json:"carModel"`
	LeadType       *string        `json:"leadType"`
	LeadSource     *string        `json:"leadSource"`
	AssignedWasher *uint          `json:"assignedWasher"`
	Notes          *string        `json:"notes"`
	Status         *string        `json:"status"`
	Coordinates    []float64      `json:"coordinates"`
	Reminder       *ReminderInput `json:"reminder"`
}

// WashInput defines the input for adding or updating a wash entry.
type WashInput struct {
	WashType     *string  `json:"washType"`
	WasherID     *uint    `json:"washerId"`
	Amount       *float64 `json:"amount"`
	Date         string   `json:"date"`
	Feedback     *string  `json:"feedback"`
	AmountPaid   *bool    `json:"amountPaid"`
	IsAmountPaid *bool    `json:"is_amountPaid"`
	WashStatus   *string  `json:"washStatus"`
	StartTime    string   `json:"startTime"`
	EndTime      string   `json:"endTime"`
	Duration     *int     `json:"duration"`
}

func (in WashInput) paid() *bool {
	if in.IsAmountPaid != nil {
		return in.IsAmountPaid
	}
	return in.AmountPaid
}

func optionalDate(s string) (*time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	t, err := utils.ParseDate(s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// washerLocked lists the fields a washer may not change on their own washes.
// Washers report status, timing, duration and feedback only.
func (in WashInput) washerLocked() []string {
	var locked []string
	if in.Amount != nil {
		locked = append(locked, "amount")
	}
	if in.WashType != nil {
		locked = append(locked, "washType")
	}
	if in.WasherID != nil {
		locked = append(locked, "washerId")
	}
	if in.Date != "" {
		locked = append(locked, "date")
	}
	if in.paid() != nil {
		locked = append(locked, "is_amountPaid")
	}
	return locked
}

func (in WashInput) update() (services.WashUpdate, error) {
	u := services.WashUpdate{
		Status:   in.WashStatus,
		IsPaid:   in.paid(),
		Feedback: in.Feedback,
		Amount:   in.Amount,
		WashType: in.WashType,
		WasherID: in.WasherID,
		Duration: in.Duration,
	}
	var err error
	if u.Date, err = optionalDate(in.Date); err != nil {
		return u, err
	}
	if u.StartTime, err = optionalDate(in.StartTime); err != nil {
		return u, err
	}
	u.EndTime, err = optionalDate(in.EndTime)
	return u, err
}

func (in WashInput) entry() (services.WashEntry, error) {
	u, err := in.update()
	if err != nil {
		return services.WashEntry{}, err
	}
	e := services.WashEntry{WasherID: in.WasherID, StartTime: u.StartTime, EndTime: u.EndTime}
	if in.WashType != nil {
		e.WashType = *in.WashType
	}
	if in.Amount != nil {
		e.Amount = *in.Amount
	}
	if u.Date != nil {
		e.Date = *u.Date
	}
	if in.Feedback != nil {
		e.Feedback = *in.Feedback
	}
	if p := in.paid(); p != nil {
		e.IsPaid = *p
	}
	if in.WashStatus != nil {
		e.Status = *in.WashStatus
	}
	if in.Duration != nil {
		e.Duration = *in.Duration
	}
	return e, nil
}

// SubscriptionInput defines the input for booking a monthly package.
type SubscriptionInput struct {
	PackageType         string   `json:"packageType"`
	CustomPlanName      string   `json:"customPlanName"`
	TotalWashes         int      `json:"totalWashes"`
	Price               float64  `json:"price"`
	TotalInteriorWashes int      `json:"totalInteriorWashes"`
	Dates               []string `json:"scheduledDates"`
	IsPaid              bool     `json:"isPaid"`
	WasherID            *uint    `json:"washerId"`
	AutoGenerate        bool     `json:"autoGenerate"`
}

func (in SubscriptionInput) request() (services.SubscriptionRequest, error) {
	req := services.SubscriptionRequest{
		PackageType:         in.PackageType,
		CustomPlanName:      in.CustomPlanName,
		TotalWashes:         in.TotalWashes,
		Price:               in.Price,
		TotalInteriorWashes: in.TotalInteriorWashes,
		IsPaid:              in.IsPaid,
		WasherID:            in.WasherID,
		AutoGenerate:        in.AutoGenerate,
	}
	for _, d := range in.Dates {
		t, err := utils.ParseDate(d)
		if err != nil {
			return req, err
		}
		req.Dates = append(req.Dates, t)
	}
	return req, nil
}

// CompleteWashInput is the body for completing one subscription slot.
type CompleteWashInput struct {
	IsPaid   *bool  `json:"is_amountPaid"`
	Feedback string `json:"feedback"`
	WasherID *uint  `json:"washerId"`
	Duration int    `json:"duration"`
	Interior bool   `json:"interior"`
}

func (in CompleteWashInput) washerLocked() []string {
	var locked []string
	if in.IsPaid != nil {
		locked = append(locked, "is_amountPaid")
	}
	if in.WasherID != nil {
		locked = append(locked, "washerId")
	}
	return locked
}

// rejectLocked answers 403 when a washer sends admin-only fields.
func rejectLocked(c *gin.Context, locked []string) bool {
	if utils.CurrentRole(c) != models.RoleWasher || len(locked) == 0 {
		return false
	}
	utils.RespondWithError(c, http.StatusForbidden, "Washers cannot change: "+strings.Join(locked, ", "))
	return true
}

// LeadController handles leads, their washes and subscriptions.
type LeadController struct {
	Leads     *services.LeadService
	Scheduler *services.Scheduler
	Reports   *services.Reports
	Cache     *services.DashboardCache
}

func loadLead(c *gin.Context, id uint) (*models.Lead, error) {
	var lead models.Lead
	err := db(c).
		Preload("AssignedWasher").
		Preload("WashHistory.Washer").
		Preload("Subscriptions.ScheduledWashes.Washer").
		First(&lead, id).Error
	if err != nil {
		return nil, err
	}
	lead.PrepareViews()
	return &lead, nil
}

func (lc *LeadController) respondLead(c *gin.Context, code int, id uint) {
	lead, err := loadLead(c, id)
	if err != nil {
		respondServiceError(c, err, "load lead")
		return
	}
	c.JSON(code, lead)
}

func applyReminder(lead *models.Lead, r *ReminderInput) error {
	if r == nil {
		return nil
	}
	date, err := optionalDate(r.Date)
	if err != nil {
		return err
	}
	lead.ReminderDate = date
	lead.ReminderNote = r.Note
	return nil
}

func phoneTaken(c *gin.Context, phone string, exceptID uint) (bool, error) {
	var other models.Lead
	err := db(c).Where("phone = ? AND id <> ?", phone, exceptID).First(&other).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	return err == nil, err
}

// ListLeads supports searchQuery (name, phone or area), leadType, leadSource,
// status and a creation date range.
func (lc *LeadController) ListLeads(c *gin.Context) {
	rng, ok := queryRange(c)
	if !ok {
		return
	}
	q := db(c).
		Preload("AssignedWasher").
		Preload("WashHistory.Washer").
		Preload("Subscriptions.ScheduledWashes.Washer")
	if s := strings.TrimSpace(c.Query("searchQuery")); s != "" {
		like := "%" + strings.ToLower(s) + "%"
		q = q.Where("LOWER(customer_name) LIKE ? OR phone LIKE ? OR LOWER(area) LIKE ?", like, like, like)
	}
	for param, column := range map[string]string{"leadType": "lead_type", "leadSource": "lead_source", "status": "status"} {
		if v := c.Query(param); v != "" {
			q = q.Where(column+" = ?", v)
		}
	}

	var leads []models.Lead
	if err := q.Order("id DESC").Find(&leads).Error; err != nil {
		internalError(c, err, "fetch leads")
		return
	}
	out := make([]models.Lead, 0, len(leads))
	for i := range leads {
		if rng.Contains(leads[i].CreatedAt) {
			leads[i].PrepareViews()
			out = append(out, leads[i])
		}
	}
	c.JSON(http.StatusOK, out)
}

// CreateLead creates a lead. The phone number must be unique.
func (lc *LeadController) CreateLead(c *gin.Context) {
	var input CreateLeadInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}
	phone := utils.NormalizePhone(input.Phone)
	if !utils.ValidatePhone(phone) {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid phone number format")
		return
	}
	if !models.ValidLeadType(input.LeadType) {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid leadType")
		return
	}
	if !models.ValidLeadSource(input.LeadSource) {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid leadSource")
		return
	}
	if taken, err := phoneTaken(c, phone, 0); err != nil {
		internalError(c, err, "create lead")
		return
	} else if taken {
		utils.RespondWithError(c, http.StatusConflict, "A lead with this phone number already exists")
		return
	}

	lead := models.Lead{
		CustomerName:     strings.TrimSpace(input.Name),
		Phone:            phone,
		Area:             strings.TrimSpace(input.Area),
		CarModel:         input.CarModel,
		LeadType:         input.LeadType,
		LeadSource:       input.LeadSource,
		Notes:            input.Notes,
		Status:           models.LeadStatusNew,
		AssignedWasherID: input.AssignedWasher,
	}
	lead.SetLocation(input.Coordinates)
	if err := applyReminder(&lead, input.Reminder); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, err.Error())
		return
	}
	if lead.AssignedWasherID != nil {
		if err := db(c).Where("role = ?", models.RoleWasher).First(&models.User{}, *lead.AssignedWasherID).Error; err != nil {
			respondServiceError(c, err, "create lead")
			return
		}
	}

	if err := db(c).Create(&lead).Error; err != nil {
		internalError(c, err, "create lead")
		return
	}
	lc.Cache.Invalidate(c.Request.Context())
	lc.respondLead(c, http.StatusCreated, lead.ID)
}

// GetLead returns a lead with its washes and latest subscription.
func (lc *LeadController) GetLead(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	lead, err := loadLead(c, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusNotFound, "Lead not found")
			return
		}
		internalError(c, err, "fetch lead")
		return
	}
	c.JSON(http.StatusOK, lead)
}

// UpdateLead edits a lead. A converted lead cannot return to New.
func (lc *LeadController) UpdateLead(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var input UpdateLeadInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	var lead models.Lead
	if err := db(c).First(&lead, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusNotFound, "Lead not found")
			return
		}
		internalError(c, err, "update lead")
		return
	}

	updates := map[string]interface{}{}
	if input.Status != nil {
		if err := services.CheckStatusChange(&lead, *input.Status); err != nil {
			respondServiceError(c, err, "update lead")
			return
		}
		updates["status"] = *input.Status
	}
	if input.Name != nil {
		updates["customer_name"] = strings.TrimSpace(*input.Name)
	}
	if input.Phone != nil {
		phone := utils.NormalizePhone(*input.Phone)
		if !utils.ValidatePhone(phone) {
			utils.RespondWithError(c, http.StatusBadRequest, "Invalid phone number format")
			return
		}
		if taken, err := phoneTaken(c, phone, lead.ID); err != nil {
			internalError(c, err, "update lead")
			return
		} else if taken {
			utils.RespondWithError(c, http.StatusConflict, "A lead with this phone number already exists")
			return
		}
		updates["phone"] = phone
	}
	if input.Area != nil {
		updates["area"] = strings.TrimSpace(*input.Area)
	}
	if input.CarModel != nil {
		updates["car_model"] = *input.CarModel
	}
	if input.LeadType != nil {
		if !models.ValidLeadType(*input.LeadType) {
			utils.RespondWithError(c, http.StatusBadRequest, "Invalid leadType")
			return
		}
		updates["lead_type"] = *input.LeadType
	}
	if input.LeadSource != nil {
		if !models.ValidLeadSource(*input.LeadSource) {
			utils.RespondWithError(c, http.StatusBadRequest, "Invalid leadSource")
			return
		}
		updates["lead_source"] = *input.LeadSource
	}
	if input.AssignedWasher != nil {
		updates["assigned_washer_id"] = *input.AssignedWasher
	}
	if input.Notes != nil {
		updates["notes"] = *input.Notes
	}
	if len(input.Coordinates) == 2 {
		updates["longitude"], updates["latitude"] = input.Coordinates[0], input.Coordinates[1]
	}
	if input.Reminder != nil {
		if err := applyReminder(&lead, input.Reminder); err != nil {
			utils.RespondWithError(c, http.StatusBadRequest, err.Error())
			return
		}
		updates["reminder_date"], updates["reminder_note"] = lead.ReminderDate, lead.ReminderNote
	}

	if len(updates) > 0 {
		if err := db(c).Model(&models.Lead{}).Where("id = ?", id).Updates(updates).Error; err != nil {
			internalError(c, err, "update lead")
			return
		}
		lc.Cache.Invalidate(c.Request.Context())
	}
	lc.respondLead(c, http.StatusOK, id)
}

// DeleteLead removes the lead together with its washes and subscriptions.
func (lc *LeadController) DeleteLead(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	err := db(c).Transaction(func(tx *gorm.DB) error {
		res := tx.Delete(&models.Lead{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		if err := tx.Where("lead_id = ?", id).Delete(&models.WashRecord{}).Error; err != nil {
			return err
		}
		return tx.Where("lead_id = ?", id).Delete(&models.Subscription{}).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusNotFound, "Lead not found")
			return
		}
		internalError(c, err, "delete lead")
		return
	}
	lc.Cache.Invalidate(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"message": "Lead deleted successfully"})
}

func (lc *LeadController) respondHistory(c *gin.Context, id uint) {
	lead, err := loadLead(c, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusNotFound, "Lead not found")
			return
		}
		internalError(c, err, "fetch wash history")
		return
	}
	c.JSON(http.StatusOK, lead.WashHistory)
}

// GetWashHistory returns every wash of the lead by date.
func (lc *LeadController) GetWashHistory(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	lc.respondHistory(c, id)
}

// AddWashHistory records a wash and converts the lead.
func (lc *LeadController) AddWashHistory(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var input WashInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}
	if input.WashType == nil || !models.ValidWashType(*input.WashType) {
		utils.RespondWithError(c, http.StatusBadRequest, "washType must be one of Basic, Premium, Deluxe")
		return
	}
	entry, err := input.entry()
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, err.Error())
		return
	}
	if _, err := lc.Leads.AddWash(c.Request.Context(), id, entry); err != nil {
		respondServiceError(c, err, "add wash entry")
		return
	}
	lc.Cache.Invalidate(c.Request.Context())
	lc.respondHistory(c, id)
}

// UpdateWashHistory changes status, payment or feedback of a wash entry.
func (lc *LeadController) UpdateWashHistory(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var input WashInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}
	if rejectLocked(c, input.washerLocked()) {
		return
	}
	upd, err := input.update()
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, err.Error())
		return
	}
	if _, err := lc.Leads.UpdateWash(c.Request.Context(), id, c.Param("entryId"), upd); err != nil {
		respondServiceError(c, err, "update wash entry")
		return
	}
	lc.Cache.Invalidate(c.Request.Context())
	lc.respondHistory(c, id)
}

// AssignWasher binds a washer to the lead.
func (lc *LeadController) AssignWasher(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var input struct {
		WasherID uint `json:"washerId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Washer ID is required")
		return
	}
	if _, err := lc.Leads.AssignWasher(c.Request.Context(), id, input.WasherID); err != nil {
		respondServiceError(c, err, "assign washer")
		return
	}
	lc.Cache.Invalidate(c.Request.Context())
	lc.respondLead(c, http.StatusOK, id)
}

// AssignOneTime schedules the lead's one-time wash with a washer.
func (lc *LeadController) AssignOneTime(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var input WashInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}
	entry, err := input.entry()
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, err.Error())
		return
	}
	if entry.WashType == "" {
		entry.WashType = models.PackageBasic
	}
	if _, err := lc.Leads.AssignOneTime(c.Request.Context(), id, entry); err != nil {
		respondServiceError(c, err, "assign one-time wash")
		return
	}
	lc.Cache.Invalidate(c.Request.Context())
	lc.respondLead(c, http.StatusOK, id)
}

func (lc *LeadController) createSubscription(c *gin.Context, autoGenerate bool) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var input SubscriptionInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}
	req, err := input.request()
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, err.Error())
		return
	}
	req.AutoGenerate = req.AutoGenerate || autoGenerate

	if _, err := lc.Scheduler.CreateSubscription(c.Request.Context(), id, req); err != nil {
		respondServiceError(c, err, "create subscription")
		return
	}
	lc.Cache.Invalidate(c.Request.Context())
	lc.respondLead(c, http.StatusCreated, id)
}

// CreateSubscription books a monthly package on the supplied dates.
func (lc *LeadController) CreateSubscription(c *gin.Context) {
	lc.createSubscription(c, false)
}

// ConvertToMonthly books a monthly package and fills the remaining slots
// after the supplied dates.
func (lc *LeadController) ConvertToMonthly(c *gin.Context) {
	lc.createSubscription(c, true)
}

// GetSubscription returns the lead's latest subscription.
func (lc *LeadController) GetSubscription(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	sub, err := lc.Scheduler.LatestSubscription(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err, "fetch subscription")
		return
	}
	c.JSON(http.StatusOK, sub)
}

// CompleteSubscriptionWash completes one slot, addressed by id or wash number.
func (lc *LeadController) CompleteSubscriptionWash(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var input CompleteWashInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}
	if rejectLocked(c, input.washerLocked()) {
		return
	}
	sub, err := lc.Scheduler.CompleteSlot(c.Request.Context(), id, c.Param("washId"), services.SlotCompletion{
		IsPaid:   input.IsPaid,
		Feedback: input.Feedback,
		WasherID: input.WasherID,
		Duration: input.Duration,
		Interior: input.Interior,
	})
	if err != nil {
		respondServiceError(c, err, "complete scheduled wash")
		return
	}
	lc.Cache.Invalidate(c.Request.Context())
	c.JSON(http.StatusOK, sub)
}

// UpcomingWashes defaults to today through seven days ahead. Washers only
// see their own washes.
func (lc *LeadController) UpcomingWashes(c *gin.Context) {
	rng, ok := queryRange(c)
	if !ok {
		return
	}
	now := utils.Now()
	if rng.Start == nil {
		start := utils.BeginningOfDay(now)
		rng.Start = &start
	}
	if rng.End == nil {
		end := utils.EndOfDay(rng.Start.AddDate(0, 0, 7))
		rng.End = &end
	}

	var washerID *uint
	if utils.CurrentRole(c) == models.RoleWasher {
		self := utils.CurrentUserID(c)
		washerID = &self
	}
	washes, err := lc.Reports.UpcomingWashes(c.Request.Context(), rng, washerID)
	if err != nil {
		internalError(c, err, "fetch upcoming washes")
		return
	}
	c.JSON(http.StatusOK, washes)
}

// StatsOverview returns lead counts for the list filters.
func (lc *LeadController) StatsOverview(c *gin.Context) {
	rng, ok := queryRange(c)
	if !ok {
		return
	}
	ov, err := lc.Reports.LeadOverview(c.Request.Context(), services.LeadFilter{
		LeadType:   c.Query("leadType"),
		LeadSource: c.Query("leadSource"),
		Status:     c.Query("status"),
		Range:      rng,
	}, utils.Now())
	if err != nil {
		internalError(c, err, "fetch lead stats")
		return
	}
	c.JSON(http.StatusOK, ov)
}

// washRecordOwner resolves the washer responsible for the wash entry in the
// path: the record's own washer, else the lead's assigned washer.
func washRecordOwner(param string) utils.OwnerFunc {
	return func(c *gin.Context) (uint, bool) {
		var rec models.WashRecord
		q := db(c).Preload("Lead").Where("lead_id = ?", c.Param("id"))
		if param == "washId" {
			q = q.Where("kind = ?", models.WashKindSubscription).
				Where("CAST(id AS TEXT) = ? OR CAST(wash_number AS TEXT) = ?", c.Param(param), c.Param(param)).
				Order("subscription_id DESC")
		} else {
			q = q.Where("id = ?", c.Param(param))
		}
		if err := q.First(&rec).Error; err != nil {
			return 0, false
		}
		if rec.WasherID != nil {
			return *rec.WasherID, true
		}
		if rec.Lead != nil && rec.Lead.AssignedWasherID != nil {
			return *rec.Lead.AssignedWasherID, true
		}
		return 0, false
	}
}

// WashEntryOwner and SubscriptionSlotOwner feed the authorization gate for
// washer self-service routes.
var (
	WashEntryOwner        = washRecordOwner("entryId")
	SubscriptionSlotOwner = washRecordOwner("washId")
)
