package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"carwash-backend/config"
	"carwash-backend/services"
	"carwash-backend/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// db scopes the shared connection to the request context.
func db(c *gin.Context) *gorm.DB {
	return config.DB.WithContext(c.Request.Context())
}

func parseUint(s string) (uint, error) {
	id, err := strconv.ParseUint(s, 10, 64)
	return uint(id), err
}

func paramID(c *gin.Context, name string) (uint, bool) {
	id, err := parseUint(c.Param(name))
	if err != nil || id == 0 {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid "+name)
		return 0, false
	}
	return id, true
}

// queryRange reads startDate/endDate from the query string.
func queryRange(c *gin.Context) (utils.DateRange, bool) {
	rng, err := utils.ParseDateRange(c.Query("startDate"), c.Query("endDate"))
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, err.Error())
		return rng, false
	}
	return rng, true
}

// respondServiceError maps service sentinels to status codes. Anything
// unrecognised is logged and answered with a generic 500.
func respondServiceError(c *gin.Context, err error, action string) {
	switch {
	case errors.Is(err, services.ErrInvalidInput), errors.Is(err, services.ErrInvalidState):
		utils.RespondWithError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, services.ErrNotFound), errors.Is(err, gorm.ErrRecordNotFound):
		utils.RespondWithError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, services.ErrConflict):
		utils.RespondWithError(c, http.StatusConflict, err.Error())
	default:
		internalError(c, err, action)
	}
}

func internalError(c *gin.Context, err error, action string) {
	config.GetLogger(c).Error(action, zap.Error(err))
	utils.RespondWithError(c, http.StatusInternalServerError, "Failed to "+action)
}
