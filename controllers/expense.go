package controllers

import (
	"errors"
	"net/http"
	"strings"

	"carwash-backend/models"
	"carwash-backend/services"
	"carwash-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ExpenseInput defines the input for creating or updating an expense.
type ExpenseInput struct {
	Category    string  `json:"category" binding:"required"`
	Amount      float64 `json:"amount" binding:"required,gt=0"`
	Description string  `json:"description"`
	Reason      string  `json:"reason"`
	PaidTo      string  `json:"paidTo"`
	WasherName  string  `json:"washerName"`
	Date        string  `json:"date"`
}

// apply validates the input onto e. reason and washerName are accepted as
// aliases of description and paidTo.
func (in ExpenseInput) apply(e *models.Expense) error {
	if !models.ValidExpenseCategory(in.Category) {
		return errors.New("Invalid category")
	}
	desc := strings.TrimSpace(in.Description)
	if desc == "" {
		desc = strings.TrimSpace(in.Reason)
	}
	if desc == "" {
		return errors.New("description is required")
	}
	paidTo := in.PaidTo
	if paidTo == "" {
		paidTo = in.WasherName
	}
	date := utils.Now()
	if in.Date != "" {
		d, err := utils.ParseDate(in.Date)
		if err != nil {
			return err
		}
		date = d
	}
	e.Category = in.Category
	e.Amount = in.Amount
	e.Description = desc
	e.PaidTo = strings.TrimSpace(paidTo)
	e.Date = date
	return nil
}

// ExpenseController handles expenses and salary calculation.
type ExpenseController struct {
	Reports *services.Reports
	Cache   *services.DashboardCache
}

// ListExpenses returns expenses, newest first.
func (ec *ExpenseController) ListExpenses(c *gin.Context) {
	rng, ok := queryRange(c)
	if !ok {
		return
	}
	expenses, err := services.ExpensesInRange(c.Request.Context(), db(c), rng)
	if err != nil {
		internalError(c, err, "fetch expenses")
		return
	}
	if cat := c.Query("category"); cat != "" {
		filtered := expenses[:0]
		for _, e := range expenses {
			if e.Category == cat {
				filtered = append(filtered, e)
			}
		}
		expenses = filtered
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "expenses": expenses})
}

// CreateExpense records an expense added by the caller.
func (ec *ExpenseController) CreateExpense(c *gin.Context) {
	var input ExpenseInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}
	expense := models.Expense{AddedByID: utils.CurrentUserID(c)}
	if err := input.apply(&expense); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, err.Error())
		return
	}
	if err := db(c).Create(&expense).Error; err != nil {
		internalError(c, err, "create expense")
		return
	}
	ec.Cache.Invalidate(c.Request.Context())
	c.JSON(http.StatusCreated, gin.H{"success": true, "expense": expense})
}

func findExpense(c *gin.Context) (*models.Expense, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid expense ID format")
		return nil, false
	}
	var expense models.Expense
	if err := db(c).First(&expense, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusNotFound, "Expense not found")
		} else {
			internalError(c, err, "fetch expense")
		}
		return nil, false
	}
	return &expense, true
}

// UpdateExpense edits an existing expense.
func (ec *ExpenseController) UpdateExpense(c *gin.Context) {
	expense, ok := findExpense(c)
	if !ok {
		return
	}
	var input ExpenseInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}
	if input.Date == "" {
		input.Date = expense.Date.Format("2006-01-02T15:04:05Z07:00")
	}
	if err := input.apply(expense); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, err.Error())
		return
	}
	if err := db(c).Save(expense).Error; err != nil {
		internalError(c, err, "update expense")
		return
	}
	ec.Cache.Invalidate(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"success": true, "expense": expense})
}

// DeleteExpense removes an expense.
func (ec *ExpenseController) DeleteExpense(c *gin.Context) {
	expense, ok := findExpense(c)
	if !ok {
		return
	}
	if err := db(c).Delete(expense).Error; err != nil {
		internalError(c, err, "delete expense")
		return
	}
	ec.Cache.Invalidate(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Expense deleted successfully"})
}

// ExpenseWashers lists active washers as payee options.
func (ec *ExpenseController) ExpenseWashers(c *gin.Context) {
	var washers []models.User
	if err := db(c).Where("role = ? AND status = ?", models.RoleWasher, models.UserStatusActive).
		Order("name").Find(&washers).Error; err != nil {
		internalError(c, err, "fetch washers")
		return
	}
	refs := make([]*models.WasherRef, 0, len(washers))
	for i := range washers {
		refs = append(refs, washers[i].Ref())
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "washers": refs})
}

// SalaryCalculation returns the salary lines for ?month=YYYY-MM.
func (ec *ExpenseController) SalaryCalculation(c *gin.Context) {
	month := c.Query("month")
	if month == "" {
		month = utils.Now().Format("2006-01")
	}
	lines, err := ec.Reports.SalaryCalculation(c.Request.Context(), month)
	if err != nil {
		respondServiceError(c, err, "calculate salaries")
		return
	}
	c.JSON(http.StatusOK, gin.H{"month": month, "salaries": lines})
}
