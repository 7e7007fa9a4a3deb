package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/irfndi/fdtrend-go/internal/forecast"
	"github.com/irfndi/fdtrend-go/internal/models"
	"github.com/irfndi/fdtrend-go/internal/telemetry"
	"github.com/irfndi/fdtrend-go/internal/utils"
	"github.com/sirupsen/logrus"
	logrustest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func rateSeries(bank string, tenure int, rates ...float64) []models.FDRate {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	series := make([]models.FDRate, len(rates))
	for i, r := range rates {
		series[i] = models.FDRate{
			ID:           "rate-" + string(rune('a'+i)),
			BankName:     bank,
			TenureMonths: tenure,
			InterestRate: r,
			ObservedAt:   base.AddDate(0, i, 0),
			MinAmount:    models.DefaultMinAmount,
		}
	}
	return series
}

type forecastFixture struct {
	rates       *MockRateStore
	predictions *MockPredictionStore
	recorder    *MockForecastRecorder
	users       *MockUserLookup
	notifier    *MockForecastNotifier
	logs        *logrustest.Hook
	service     *ForecastService
}

func newForecastFixture() *forecastFixture {
	logger, hook := logrustest.NewNullLogger()
	f := &forecastFixture{
		rates:       new(MockRateStore),
		predictions: new(MockPredictionStore),
		recorder:    new(MockForecastRecorder),
		users:       new(MockUserLookup),
		notifier:    new(MockForecastNotifier),
		logs:        hook,
	}
	f.service = NewForecastService(f.rates, f.predictions, logger, forecast.DefaultMaxHistoryWindow,
		WithForecastRecorder(f.recorder),
		WithNotifications(f.users, f.notifier),
	)
	f.service.now = func() time.Time { return time.Date(2025, 7, 1, 12, 0, 0, 0, time.UTC) }
	return f
}

func TestForecastService_Predict(t *testing.T) {
	f := newForecastFixture()
	ctx := context.Background()

	f.rates.On("RecentWindow", mock.Anything, "HDFC Bank", 12, 50).
		Return(rateSeries("HDFC Bank", 12, 6.5, 7.0, 7.5), nil)
	f.recorder.On("RecordForecast", "increasing", 8.0).Return()
	f.predictions.On("Create", mock.Anything, mock.MatchedBy(func(p *models.Prediction) bool {
		return p.BankName == "HDFC Bank" &&
			p.TenureMonths == 12 &&
			p.PredictedRate == 8.0 &&
			p.Confidence == 88 &&
			p.Trend == "increasing" &&
			p.BasedOnDataPoints == 3 &&
			p.RequestedBy == nil &&
			p.PredictionDate.Equal(time.Date(2025, 7, 1, 12, 0, 0, 0, time.UTC))
	})).Return(nil)

	resp, err := f.service.Predict(ctx, models.PredictRequest{BankName: "  HDFC Bank ", TenureMonths: 12}, "")
	require.NoError(t, err)

	assert.Equal(t, 8.0, resp.PredictedRate)
	assert.Equal(t, 88, resp.Confidence)
	assert.Equal(t, "increasing", resp.Trend)
	assert.Equal(t, 3, resp.DataPoints)
	require.Len(t, resp.HistoricalData, 3)
	assert.Equal(t, 6.5, resp.HistoricalData[0].Rate)
	assert.Equal(t, 7.5, resp.HistoricalData[2].Rate)

	f.rates.AssertExpectations(t)
	f.predictions.AssertExpectations(t)
	f.recorder.AssertExpectations(t)
	f.users.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
}

func TestForecastService_PredictValidation(t *testing.T) {
	tests := []struct {
		name  string
		req   models.PredictRequest
		field string
	}{
		{name: "blank bank", req: models.PredictRequest{BankName: "   ", TenureMonths: 12}, field: "bankName"},
		{name: "zero tenure", req: models.PredictRequest{BankName: "SBI"}, field: "tenure"},
		{name: "negative tenure", req: models.PredictRequest{BankName: "SBI", TenureMonths: -6}, field: "tenure"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := newForecastFixture()
			_, err := f.service.Predict(context.Background(), tc.req, "")

			validationErr, ok := utils.AsValidationError(err)
			require.True(t, ok)
			assert.Equal(t, tc.field, validationErr.Field)
			f.rates.AssertNotCalled(t, "RecentWindow", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestForecastService_PredictInsufficientData(t *testing.T) {
	for _, history := range [][]models.FDRate{nil, rateSeries("SBI", 24, 7.1)} {
		f := newForecastFixture()
		f.rates.On("RecentWindow", mock.Anything, "SBI", 24, 50).Return(history, nil)
		f.recorder.On("RecordForecastFailure", "insufficient_data").Return()

		resp, err := f.service.Predict(context.Background(), models.PredictRequest{BankName: "SBI", TenureMonths: 24}, "")
		assert.Nil(t, resp)
		require.Error(t, err)
		assert.True(t, errors.Is(err, forecast.ErrInsufficientData))
		assert.Equal(t, "Insufficient data for prediction. Need at least 2 data points.", err.Error())

		f.recorder.AssertExpectations(t)
		f.predictions.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	}
}

func TestForecastService_PredictStorageError(t *testing.T) {
	f := newForecastFixture()
	f.rates.On("RecentWindow", mock.Anything, "SBI", 12, 50).Return(nil, errors.New("connection reset"))
	f.recorder.On("RecordForecastFailure", "storage").Return()

	_, err := f.service.Predict(context.Background(), models.PredictRequest{BankName: "SBI", TenureMonths: 12}, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load rate history")
	assert.False(t, errors.Is(err, forecast.ErrInsufficientData))
	f.recorder.AssertExpectations(t)
}

func TestForecastService_PredictNonFiniteResult(t *testing.T) {
	f := newForecastFixture()
	f.rates.On("RecentWindow", mock.Anything, "SBI", 12, 50).Return(rateSeries("SBI", 12, -8e307, 8e307), nil)
	f.recorder.On("RecordForecastFailure", "regression").Return()

	resp, err := f.service.Predict(context.Background(), models.PredictRequest{BankName: "SBI", TenureMonths: 12}, "")
	assert.Nil(t, resp)
	assert.ErrorIs(t, err, forecast.ErrNonFiniteResult)
	f.recorder.AssertExpectations(t)
	f.predictions.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestForecastService_PredictionLogFailureStillServes(t *testing.T) {
	f := newForecastFixture()
	f.rates.On("RecentWindow", mock.Anything, "SBI", 12, 50).Return(rateSeries("SBI", 12, 7.0, 7.0), nil)
	f.recorder.On("RecordForecast", "stable", 7.0).Return()
	f.predictions.On("Create", mock.Anything, mock.Anything).Return(errors.New("disk full"))

	resp, err := f.service.Predict(context.Background(), models.PredictRequest{BankName: "SBI", TenureMonths: 12}, "")
	require.NoError(t, err)
	assert.Equal(t, 7.0, resp.PredictedRate)
	assert.Equal(t, 50, resp.Confidence)
	assert.Equal(t, "stable", resp.Trend)

	var warned bool
	for _, entry := range f.logs.AllEntries() {
		if entry.Level == logrus.WarnLevel && entry.Message == "Failed to record prediction" {
			warned = true
		}
	}
	assert.True(t, warned)
}

func TestForecastService_NotifiesLinkedUser(t *testing.T) {
	f := newForecastFixture()
	chatID := "123456"
	f.rates.On("RecentWindow", mock.Anything, "Axis Bank", 6, 50).Return(rateSeries("Axis Bank", 6, 7.5, 7.0, 6.5), nil)
	f.recorder.On("RecordForecast", "decreasing", 6.0).Return()
	f.predictions.On("Create", mock.Anything, mock.Anything).Return(nil)
	f.users.On("GetByID", mock.Anything, "user-1").Return(&models.User{ID: "user-1", TelegramChatID: &chatID}, nil)
	f.notifier.On("NotifyForecast", mock.Anything, chatID, mock.MatchedBy(func(p models.Prediction) bool {
		return p.RequestedBy != nil && *p.RequestedBy == "user-1" && p.Trend == "decreasing"
	})).Return(errors.New("telegram down"))

	resp, err := f.service.Predict(context.Background(), models.PredictRequest{BankName: "Axis Bank", TenureMonths: 6}, "user-1")
	require.NoError(t, err)
	assert.Equal(t, "decreasing", resp.Trend)
	f.notifier.AssertExpectations(t)
}

func TestForecastService_SkipsUserWithoutChat(t *testing.T) {
	f := newForecastFixture()
	f.rates.On("RecentWindow", mock.Anything, "SBI", 12, 50).Return(rateSeries("SBI", 12, 7.0, 7.2), nil)
	f.recorder.On("RecordForecast", mock.Anything, mock.Anything).Return()
	f.predictions.On("Create", mock.Anything, mock.Anything).Return(nil)
	f.users.On("GetByID", mock.Anything, "user-2").Return(&models.User{ID: "user-2"}, nil)

	_, err := f.service.Predict(context.Background(), models.PredictRequest{BankName: "SBI", TenureMonths: 12}, "user-2")
	require.NoError(t, err)
	f.notifier.AssertNotCalled(t, "NotifyForecast", mock.Anything, mock.Anything, mock.Anything)
}

func TestForecastService_Recent(t *testing.T) {
	f := newForecastFixture()
	expected := []models.Prediction{{ID: "p1"}, {ID: "p2"}}
	f.predictions.On("List", mock.Anything, 20).Return(expected, nil)

	got, err := f.service.Recent(context.Background(), 20)
	require.NoError(t, err)
	assert.Equal(t, expected, got)
}

func TestNewForecastService_WindowFallback(t *testing.T) {
	logger, _ := logrustest.NewNullLogger()
	s := NewForecastService(new(MockRateStore), new(MockPredictionStore), logger, 1)
	assert.Equal(t, forecast.DefaultMaxHistoryWindow, s.window)
}

func TestForecastService_PredictRecordsSpans(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	logger, _ := logrustest.NewNullLogger()

	rates := new(MockRateStore)
	predictions := new(MockPredictionStore)
	rates.On("RecentWindow", mock.Anything, "SBI", 12, 50).Return(rateSeries("SBI", 12, 6.5, 7.0, 7.5), nil).Once()
	rates.On("RecentWindow", mock.Anything, "SBI", 24, 50).Return(nil, nil).Once()
	predictions.On("Create", mock.Anything, mock.Anything).Return(nil)

	service := NewForecastService(rates, predictions, logger, forecast.DefaultMaxHistoryWindow,
		WithBusinessTracer(telemetry.NewBusinessTracerWith(provider.Tracer("test"))))

	_, err := service.Predict(context.Background(), models.PredictRequest{BankName: "SBI", TenureMonths: 12}, "")
	require.NoError(t, err)
	_, err = service.Predict(context.Background(), models.PredictRequest{BankName: "SBI", TenureMonths: 24}, "")
	require.ErrorIs(t, err, forecast.ErrInsufficientData)

	spans := recorder.Ended()
	require.Len(t, spans, 2)

	assert.Equal(t, "forecast.predict", spans[0].Name())
	attrs := map[attribute.Key]attribute.Value{}
	for _, kv := range spans[0].Attributes() {
		attrs[kv.Key] = kv.Value
	}
	assert.Equal(t, "increasing", attrs["forecast.trend"].AsString())
	assert.Equal(t, int64(3), attrs["forecast.data_points"].AsInt64())
	assert.Equal(t, codes.Unset, spans[0].Status().Code)

	assert.Equal(t, codes.Error, spans[1].Status().Code)
}
