package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/irfndi/fdtrend-go/internal/database"
	"github.com/irfndi/fdtrend-go/internal/middleware"
	"github.com/irfndi/fdtrend-go/internal/models"
	"github.com/irfndi/fdtrend-go/internal/services"
	"github.com/sirupsen/logrus"
)

// ForecastHandler serves forecasts and the prediction log.
type ForecastHandler struct {
	forecasts *services.ForecastService
	logger    *logrus.Logger
}

func NewForecastHandler(forecasts *services.ForecastService, logger *logrus.Logger) *ForecastHandler {
	return &ForecastHandler{forecasts: forecasts, logger: logger}
}

// Predict forecasts the next rate for {bankName, tenure}.
func (h *ForecastHandler) Predict(c *gin.Context) {
	var req models.PredictRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bankName and tenure are required"})
		return
	}

	userID, _ := middleware.UserID(c)
	middleware.AddSpanAttribute(c, "fd.bank_name", req.BankName)
	middleware.AddSpanAttribute(c, "fd.tenure_months", req.TenureMonths)

	resp, err := h.forecasts.Predict(c.Request.Context(), req, userID)
	if err != nil {
		respondError(c, h.logger, err, "")
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ListPredictions returns the newest prediction log entries. ?limit= caps the count.
func (h *ForecastHandler) ListPredictions(c *gin.Context) {
	limit := database.DefaultPredictionListLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit: must be a positive whole number"})
			return
		}
		limit = parsed
	}

	predictions, err := h.forecasts.Recent(c.Request.Context(), limit)
	if err != nil {
		respondError(c, h.logger, err, "")
		return
	}
	if predictions == nil {
		predictions = []models.Prediction{}
	}
	c.JSON(http.StatusOK, predictions)
}
