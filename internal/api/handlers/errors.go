package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/irfndi/fdtrend-go/internal/database"
	"github.com/irfndi/fdtrend-go/internal/forecast"
	"github.com/irfndi/fdtrend-go/internal/middleware"
	"github.com/irfndi/fdtrend-go/internal/utils"
	"github.com/sirupsen/logrus"
)

// respondError maps service errors onto status codes. notFound is the 404 message.
func respondError(c *gin.Context, logger *logrus.Logger, err error, notFound string) {
	if validationErr, ok := utils.AsValidationError(err); ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": validationErr.Error()})
		return
	}
	if errors.Is(err, forecast.ErrInsufficientData) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if errors.Is(err, database.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": notFound})
		return
	}

	middleware.RecordError(c, err, "request failed")
	logger.WithError(err).WithFields(logrus.Fields{
		"method": c.Request.Method,
		"path":   c.FullPath(),
	}).Error("Request failed")
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
}
