package controllers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"carwash-backend/models"
	"carwash-backend/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// RegisterInput defines the input for creating a staff account.
type RegisterInput struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Phone    string `json:"phone"`
	Password string `json:"password" binding:"required,min=6"`
	Role     string `json:"role"`
}

// LoginInput defines the login credentials.
type LoginInput struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// AuthController handles login, registration and the current user.
type AuthController struct {
	Tokens utils.TokenIssuer
}

func userResponse(u *models.User) gin.H {
	return gin.H{
		"id":     u.ID,
		"name":   u.Name,
		"email":  u.Email,
		"phone":  u.Phone,
		"role":   u.Role,
		"status": u.Status,
	}
}

// Register creates a staff account. Only a superadmin may create another superadmin.
func (ac *AuthController) Register(c *gin.Context) {
	var input RegisterInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}
	if input.Role == "" {
		input.Role = models.RoleAdmin
	}
	if !models.ValidRole(input.Role) {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid role")
		return
	}
	if input.Role == models.RoleSuperAdmin && utils.CurrentRole(c) != models.RoleSuperAdmin {
		utils.RespondWithError(c, http.StatusForbidden, "Only a superadmin can create a superadmin")
		return
	}

	email := strings.ToLower(strings.TrimSpace(input.Email))
	var existing models.User
	err := db(c).Where("email = ?", email).First(&existing).Error
	if err == nil {
		utils.RespondWithError(c, http.StatusConflict, "Email already registered")
		return
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		internalError(c, err, "register user")
		return
	}

	user := models.User{
		Name:     input.Name,
		Email:    email,
		Phone:    utils.NormalizePhone(input.Phone),
		Password: input.Password, // hashed in BeforeCreate
		Role:     input.Role,
	}
	if err := db(c).Create(&user).Error; err != nil {
		internalError(c, err, "register user")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Registration successful",
		"user":    userResponse(&user),
	})
}

// Login checks the credentials and returns a signed token.
func (ac *AuthController) Login(c *gin.Context) {
	var input LoginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input")
		return
	}

	var user models.User
	err := db(c).Where("email = ?", strings.ToLower(strings.TrimSpace(input.Email))).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusUnauthorized, "Invalid credentials")
		} else {
			internalError(c, err, "log in")
		}
		return
	}
	if !utils.CheckPasswordHash(input.Password, user.Password) {
		utils.RespondWithError(c, http.StatusUnauthorized, "Invalid credentials")
		return
	}
	if user.Status != models.UserStatusActive {
		utils.RespondWithError(c, http.StatusForbidden, "Account is inactive")
		return
	}

	token, err := ac.Tokens.Generate(user.ID, user.Role)
	if err != nil {
		internalError(c, err, "generate token")
		return
	}

	now := time.Now()
	db(c).Model(&user).Update("last_login", &now)

	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"user":  userResponse(&user),
	})
}

// Me returns the authenticated user.
func (ac *AuthController) Me(c *gin.Context) {
	var user models.User
	if err := db(c).First(&user, utils.CurrentUserID(c)).Error; err != nil {
		utils.RespondWithError(c, http.StatusUnauthorized, "User not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": userResponse(&user)})
}
