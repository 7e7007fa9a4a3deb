package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/irfndi/fdtrend-go/internal/middleware"
	"github.com/irfndi/fdtrend-go/internal/models"
	"github.com/irfndi/fdtrend-go/internal/services"
	"github.com/sirupsen/logrus"
)

// RateHandler serves FD rate observations and the bank list.
type RateHandler struct {
	rates      *services.RateService
	history    *services.RateHistoryService
	defaultSMA int
	logger     *logrus.Logger
}

func NewRateHandler(rates *services.RateService, history *services.RateHistoryService, defaultSMA int, logger *logrus.Logger) *RateHandler {
	return &RateHandler{rates: rates, history: history, defaultSMA: defaultSMA, logger: logger}
}

// CreateRate records a new observation.
func (h *RateHandler) CreateRate(c *gin.Context) {
	var req models.FDRateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	userID, _ := middleware.UserID(c)
	rate, err := h.rates.Create(c.Request.Context(), req, userID)
	if err != nil {
		respondError(c, h.logger, err, "")
		return
	}
	c.JSON(http.StatusCreated, rate)
}

// ListRates returns every observation, newest first.
func (h *RateHandler) ListRates(c *gin.Context) {
	rates, err := h.rates.List(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err, "")
		return
	}
	c.JSON(http.StatusOK, rates)
}

// GetRateSeries returns one bank/tenure series in ascending date order.
// ?sma=N overrides the default moving average period; sma=0 disables the overlay.
func (h *RateHandler) GetRateSeries(c *gin.Context) {
	tenure, err := strconv.Atoi(c.Param("tenure"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "tenure: must be a whole number of months"})
		return
	}

	period := h.defaultSMA
	if raw, ok := c.GetQuery("sma"); ok {
		if period, err = strconv.Atoi(raw); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "sma: must be a whole number"})
			return
		}
	}

	history, err := h.history.History(c.Request.Context(), c.Param("bankName"), tenure, period)
	if err != nil {
		respondError(c, h.logger, err, "")
		return
	}
	c.JSON(http.StatusOK, history)
}

// DeleteRate removes an observation by id.
func (h *RateHandler) DeleteRate(c *gin.Context) {
	if err := h.rates.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, h.logger, err, "FD rate not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "FD Rate deleted successfully"})
}

// ListBanks returns the distinct bank names.
func (h *RateHandler) ListBanks(c *gin.Context) {
	banks, err := h.rates.Banks(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err, "")
		return
	}
	if banks == nil {
		banks = []string{}
	}
	c.JSON(http.StatusOK, banks)
}
