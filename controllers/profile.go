package controllers

import (
	"errors"
	"net/http"
	"strings"

	"carwash-backend/models"
	"carwash-backend/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// UpdateProfileInput defines the input for updating the caller's profile.
type UpdateProfileInput struct {
	Name            *string `json:"name"`
	Email           *string `json:"email"`
	Phone           *string `json:"phone"`
	Address         *string `json:"address"`
	CurrentPassword string  `json:"currentPassword"`
	NewPassword     string  `json:"newPassword"`
}

// UpdateProfile lets any signed-in user edit their own account. A password
// change needs the current password.
func UpdateProfile(c *gin.Context) {
	var input UpdateProfileInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input")
		return
	}

	var user models.User
	if err := db(c).First(&user, utils.CurrentUserID(c)).Error; err != nil {
		utils.RespondWithError(c, http.StatusNotFound, "User not found")
		return
	}

	updates := map[string]interface{}{}
	if input.Name != nil && strings.TrimSpace(*input.Name) != "" {
		updates["name"] = strings.TrimSpace(*input.Name)
	}
	if input.Phone != nil {
		updates["phone"] = utils.NormalizePhone(*input.Phone)
	}
	if input.Address != nil {
		updates["address"] = *input.Address
	}
	if input.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*input.Email))
		if email != user.Email {
			var other models.User
			err := db(c).Where("email = ? AND id <> ?", email, user.ID).First(&other).Error
			if err == nil {
				utils.RespondWithError(c, http.StatusConflict, "Email already registered")
				return
			} else if !errors.Is(err, gorm.ErrRecordNotFound) {
				internalError(c, err, "update profile")
				return
			}
			updates["email"] = email
		}
	}
	if input.NewPassword != "" {
		if !utils.CheckPasswordHash(input.CurrentPassword, user.Password) {
			utils.RespondWithError(c, http.StatusBadRequest, "Current password is incorrect")
			return
		}
		if len(input.NewPassword) < 6 {
			utils.RespondWithError(c, http.StatusBadRequest, "New password must be at least 6 characters")
			return
		}
		hashed, err := utils.HashPassword(input.NewPassword)
		if err != nil {
			internalError(c, err, "update profile")
			return
		}
		updates["password"] = hashed
	}

	if len(updates) > 0 {
		if err := db(c).Model(&models.User{}).Where("id = ?", user.ID).Updates(updates).Error; err != nil {
			internalError(c, err, "update profile")
			return
		}
	}
	db(c).First(&user, user.ID)
	c.JSON(http.StatusOK, gin.H{"message": "Profile updated", "user": userResponse(&user)})
}
