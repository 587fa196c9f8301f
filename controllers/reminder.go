package controllers

import (
	"errors"
	"net/http"

	"carwash-backend/models"
	"carwash-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CreateReminderTemplateInput defines the input for creating a reminder template.
type CreateReminderTemplateInput struct {
	Type     string `json:"type" binding:"required,oneof=wash_reminder"`
	Message  string `json:"message" binding:"required"`
	IsActive *bool  `json:"isActive"`
}

// UpdateReminderTemplateInput defines the input for updating a reminder template.
type UpdateReminderTemplateInput struct {
	Message  *string `json:"message"`
	IsActive *bool   `json:"isActive"`
}

// CreateReminderTemplate stores the template for a reminder type. There is
// at most one template per type.
func CreateReminderTemplate(c *gin.Context) {
	var input CreateReminderTemplateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	var existing models.ReminderTemplate
	if err := db(c).Where("type = ?", input.Type).First(&existing).Error; err == nil {
		utils.RespondWithError(c, http.StatusConflict, "Template for this type already exists")
		return
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		internalError(c, err, "create reminder template")
		return
	}

	tmpl := models.ReminderTemplate{Type: input.Type, Message: input.Message, IsActive: true}
	if input.IsActive != nil {
		tmpl.IsActive = *input.IsActive
	}
	if err := db(c).Create(&tmpl).Error; err != nil {
		internalError(c, err, "create reminder template")
		return
	}
	c.JSON(http.StatusCreated, tmpl)
}

// GetReminderTemplates lists the reminder templates.
func GetReminderTemplates(c *gin.Context) {
	var templates []models.ReminderTemplate
	if err := db(c).Order("created_at").Find(&templates).Error; err != nil {
		internalError(c, err, "fetch reminder templates")
		return
	}
	c.JSON(http.StatusOK, templates)
}

func findTemplate(c *gin.Context) (*models.ReminderTemplate, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid template ID format")
		return nil, false
	}
	var tmpl models.ReminderTemplate
	if err := db(c).First(&tmpl, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusNotFound, "Template not found")
		} else {
			internalError(c, err, "fetch reminder template")
		}
		return nil, false
	}
	return &tmpl, true
}

// UpdateReminderTemplate edits a reminder template.
func UpdateReminderTemplate(c *gin.Context) {
	tmpl, ok := findTemplate(c)
	if !ok {
		return
	}
	var input UpdateReminderTemplateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	updates := map[string]interface{}{}
	if input.Message != nil {
		if *input.Message == "" {
			utils.RespondWithError(c, http.StatusBadRequest, "message must not be empty")
			return
		}
		updates["message"] = *input.Message
	}
	if input.IsActive != nil {
		updates["is_active"] = *input.IsActive
	}
	if len(updates) > 0 {
		if err := db(c).Model(tmpl).Updates(updates).Error; err != nil {
			internalError(c, err, "update reminder template")
			return
		}
	}
	c.JSON(http.StatusOK, tmpl)
}

// DeleteReminderTemplate removes a reminder template.
func DeleteReminderTemplate(c *gin.Context) {
	tmpl, ok := findTemplate(c)
	if !ok {
		return
	}
	if err := db(c).Delete(tmpl).Error; err != nil {
		internalError(c, err, "delete reminder template")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Template deleted successfully"})
}
