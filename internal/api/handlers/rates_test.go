package handlers

import (
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/irfndi/fdtrend-go/internal/database"
	"github.com/irfndi/fdtrend-go/internal/models"
	"github.com/irfndi/fdtrend-go/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newRateHandler() (*RateHandler, *services.MockRateStore, *services.MockBankListCache) {
	store := new(services.MockRateStore)
	banks := new(services.MockBankListCache)
	logger := nullLogger()
	handler := NewRateHandler(
		services.NewRateService(store, banks, logger),
		services.NewRateHistoryService(store),
		3,
		logger,
	)
	return handler, store, banks
}

func sampleRates(rates ...float64) []models.FDRate {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	out := make([]models.FDRate, len(rates))
	for i, r := range rates {
		out[i] = models.FDRate{
			ID:           "rate",
			BankName:     "SBI",
			TenureMonths: 12,
			InterestRate: r,
			ObservedAt:   base.AddDate(0, i, 0),
			MinAmount:    models.DefaultMinAmount,
		}
	}
	return out
}

func TestRateHandler_CreateRate(t *testing.T) {
	t.Run("created", func(t *testing.T) {
		handler, store, banks := newRateHandler()
		store.On("Create", mock.Anything, mock.MatchedBy(func(r *models.FDRate) bool {
			return r.BankName == "SBI" && r.InterestRate == 7.25 && r.CreatedBy != nil && *r.CreatedBy == "user-1"
		})).Run(func(args mock.Arguments) {
			args.Get(1).(*models.FDRate).ID = "rate-1"
		}).Return(nil)
		banks.On("Invalidate", mock.Anything).Return(nil)

		c, w := newContext(http.MethodPost, "/api/v1/fd-rates", map[string]interface{}{
			"bankName":     "SBI",
			"tenure":       12,
			"interestRate": 7.25,
			"date":         "2025-03-01T00:00:00Z",
			"minAmount":    "5000.00",
		}, "user-1")
		handler.CreateRate(c)

		require.Equal(t, http.StatusCreated, w.Code)
		var rate models.FDRate
		decode(t, w, &rate)
		assert.Equal(t, "rate-1", rate.ID)
		assert.Equal(t, "5000", rate.MinAmount.String())
		assert.Equal(t, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), rate.ObservedAt)
	})

	t.Run("validation failure", func(t *testing.T) {
		handler, store, _ := newRateHandler()
		c, w := newContext(http.MethodPost, "/api/v1/fd-rates", map[string]interface{}{
			"bankName":     "SBI",
			"tenure":       12,
			"interestRate": 120,
		}, "")
		handler.CreateRate(c)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, errorOf(t, w), "interestRate")
		store.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("missing rate", func(t *testing.T) {
		handler, _, _ := newRateHandler()
		c, w := newContext(http.MethodPost, "/api/v1/fd-rates", map[string]interface{}{"bankName": "SBI", "tenure": 12}, "")
		handler.CreateRate(c)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestRateHandler_ListRates(t *testing.T) {
	handler, store, _ := newRateHandler()
	store.On("List", mock.Anything).Return(sampleRates(7.1, 7.0), nil)

	c, w := newContext(http.MethodGet, "/api/v1/fd-rates", nil, "")
	handler.ListRates(c)

	require.Equal(t, http.StatusOK, w.Code)
	var rates []models.FDRate
	decode(t, w, &rates)
	assert.Len(t, rates, 2)
}

func TestRateHandler_ListRatesError(t *testing.T) {
	handler, store, _ := newRateHandler()
	store.On("List", mock.Anything).Return(nil, errors.New("db down"))

	c, w := newContext(http.MethodGet, "/api/v1/fd-rates", nil, "")
	handler.ListRates(c)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestRateHandler_GetRateSeries(t *testing.T) {
	t.Run("default overlay", func(t *testing.T) {
		handler, store, _ := newRateHandler()
		store.On("ListByBankTenure", mock.Anything, "HDFC Bank", 12).Return(sampleRates(6.0, 7.0, 8.0, 9.0), nil)

		c, w := newContext(http.MethodGet, "/api/v1/fd-rates/HDFC%20Bank/12", nil, "")
		c.Params = gin.Params{{Key: "bankName", Value: "HDFC Bank"}, {Key: "tenure", Value: "12"}}
		handler.GetRateSeries(c)

		require.Equal(t, http.StatusOK, w.Code)
		var history models.RateHistory
		decode(t, w, &history)
		assert.Len(t, history.Rates, 4)
		assert.Equal(t, 3, history.SMAPeriod)
		require.Len(t, history.MovingAverage, 2)
		assert.InDelta(t, 7.0, history.MovingAverage[0].Rate, 1e-9)
		assert.InDelta(t, 8.0, history.MovingAverage[1].Rate, 1e-9)
	})

	t.Run("overlay disabled", func(t *testing.T) {
		handler, store, _ := newRateHandler()
		store.On("ListByBankTenure", mock.Anything, "SBI", 6).Return(sampleRates(6.0), nil)

		c, w := newContext(http.MethodGet, "/api/v1/fd-rates/SBI/6?sma=0", nil, "")
		c.Params = gin.Params{{Key: "bankName", Value: "SBI"}, {Key: "tenure", Value: "6"}}
		handler.GetRateSeries(c)

		require.Equal(t, http.StatusOK, w.Code)
		assert.NotContains(t, w.Body.String(), "movingAverage")
	})

	t.Run("bad tenure", func(t *testing.T) {
		handler, _, _ := newRateHandler()
		c, w := newContext(http.MethodGet, "/api/v1/fd-rates/SBI/abc", nil, "")
		c.Params = gin.Params{{Key: "bankName", Value: "SBI"}, {Key: "tenure", Value: "abc"}}
		handler.GetRateSeries(c)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("bad sma", func(t *testing.T) {
		handler, _, _ := newRateHandler()
		c, w := newContext(http.MethodGet, "/api/v1/fd-rates/SBI/12?sma=x", nil, "")
		c.Params = gin.Params{{Key: "bankName", Value: "SBI"}, {Key: "tenure", Value: "12"}}
		handler.GetRateSeries(c)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestRateHandler_DeleteRate(t *testing.T) {
	t.Run("deleted", func(t *testing.T) {
		handler, store, banks := newRateHandler()
		store.On("Delete", mock.Anything, "rate-1").Return(nil)
		banks.On("Invalidate", mock.Anything).Return(nil)

		c, w := newContext(http.MethodDelete, "/api/v1/fd-rates/rate-1", nil, "user-1")
		c.Params = gin.Params{{Key: "id", Value: "rate-1"}}
		handler.DeleteRate(c)

		require.Equal(t, http.StatusOK, w.Code)
		var body map[string]string
		decode(t, w, &body)
		assert.Equal(t, "FD Rate deleted successfully", body["message"])
	})

	t.Run("not found", func(t *testing.T) {
		handler, store, _ := newRateHandler()
		store.On("Delete", mock.Anything, "missing").Return(database.ErrNotFound)

		c, w := newContext(http.MethodDelete, "/api/v1/fd-rates/missing", nil, "user-1")
		c.Params = gin.Params{{Key: "id", Value: "missing"}}
		handler.DeleteRate(c)

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "FD rate not found", errorOf(t, w))
	})
}

func TestRateHandler_ListBanks(t *testing.T) {
	handler, _, banks := newRateHandler()
	banks.On("GetOrLoad", mock.Anything, mock.Anything).Return([]string{"Axis Bank", "HDFC Bank"}, nil)

	c, w := newContext(http.MethodGet, "/api/v1/banks", nil, "")
	handler.ListBanks(c)

	require.Equal(t, http.StatusOK, w.Code)
	var names []string
	decode(t, w, &names)
	assert.Equal(t, []string{"Axis Bank", "HDFC Bank"}, names)
}
