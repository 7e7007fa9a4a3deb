package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/irfndi/fdtrend-go/internal/forecast"
	"github.com/irfndi/fdtrend-go/internal/models"
	"github.com/irfndi/fdtrend-go/internal/telemetry"
	"github.com/irfndi/fdtrend-go/internal/utils"
	"github.com/sirupsen/logrus"
)

// ForecastService loads a rate series, runs the regression and logs the outcome.
type ForecastService struct {
	rates       RateStore
	predictions PredictionStore
	users       UserLookup
	notifier    ForecastNotifier
	recorder    ForecastRecorder
	tracer      *telemetry.BusinessTracer
	logger      *logrus.Logger
	window      int
	now         func() time.Time
}

// ForecastServiceOption customizes optional collaborators.
type ForecastServiceOption func(*ForecastService)

// WithNotifications enables chat notifications for users who linked a Telegram chat.
func WithNotifications(users UserLookup, notifier ForecastNotifier) ForecastServiceOption {
	return func(s *ForecastService) {
		s.users = users
		s.notifier = notifier
	}
}

// WithForecastRecorder wires outcome metrics.
func WithForecastRecorder(recorder ForecastRecorder) ForecastServiceOption {
	return func(s *ForecastService) { s.recorder = recorder }
}

// WithBusinessTracer overrides the tracer used for forecast spans.
func WithBusinessTracer(tracer *telemetry.BusinessTracer) ForecastServiceOption {
	return func(s *ForecastService) { s.tracer = tracer }
}

// NewForecastService creates a forecast service. A window below two falls back to the default.
func NewForecastService(rates RateStore, predictions PredictionStore, logger *logrus.Logger, window int, opts ...ForecastServiceOption) *ForecastService {
	if window < forecast.MinSampleSize {
		window = forecast.DefaultMaxHistoryWindow
	}
	s := &ForecastService{
		rates:       rates,
		predictions: predictions,
		tracer:      telemetry.NewBusinessTracer(),
		logger:      logger,
		window:      window,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Predict forecasts the next rate for the requested series. requestedBy may be empty.
//
// Errors:
//   - *utils.ValidationError for a blank bank name or non-positive tenure.
//   - forecast.ErrInsufficientData (as *forecast.InsufficientDataError) when fewer than two observations exist.
func (s *ForecastService) Predict(ctx context.Context, req models.PredictRequest, requestedBy string) (*models.ForecastResponse, error) {
	bankName := strings.TrimSpace(req.BankName)
	if bankName == "" {
		return nil, utils.NewFieldError("bankName", "is required")
	}
	if req.TenureMonths <= 0 {
		return nil, utils.NewFieldError("tenure", "must be a positive number of months")
	}

	ctx, span := s.tracer.TraceForecast(ctx, bankName, req.TenureMonths)
	defer span.End()

	history, err := s.rates.RecentWindow(ctx, bankName, req.TenureMonths, s.window)
	if err != nil {
		s.recordFailure("storage")
		s.tracer.RecordError(span, err)
		return nil, fmt.Errorf("failed to load rate history: %w", err)
	}

	result, err := forecast.Forecast(toObservations(history), s.window)
	if err != nil {
		if errors.Is(err, forecast.ErrInsufficientData) {
			s.recordFailure("insufficient_data")
		} else {
			s.recordFailure("regression")
		}
		s.tracer.RecordError(span, err)
		return nil, err
	}

	s.tracer.RecordForecastResult(span, telemetry.ForecastOutcome{
		PredictedRate: result.PredictedRate,
		Confidence:    result.ConfidenceScore,
		Trend:         string(result.Trend),
		DataPoints:    result.SampleSize,
		Slope:         result.Regression.Slope,
	})
	if s.recorder != nil {
		s.recorder.RecordForecast(string(result.Trend), result.PredictedRate)
	}

	prediction := models.Prediction{
		BankName:          bankName,
		TenureMonths:      req.TenureMonths,
		PredictedRate:     result.PredictedRate,
		Confidence:        result.ConfidenceScore,
		Trend:             string(result.Trend),
		BasedOnDataPoints: result.SampleSize,
		PredictionDate:    s.now().UTC(),
	}
	if requestedBy != "" {
		prediction.RequestedBy = &requestedBy
	}

	// The forecast is still served when the log write fails.
	if err := s.predictions.Create(ctx, &prediction); err != nil {
		s.logger.WithError(err).WithFields(logrus.Fields{
			"bank_name": bankName,
			"tenure":    req.TenureMonths,
		}).Warn("Failed to record prediction")
	}

	s.logger.WithFields(logrus.Fields{
		"bank_name":      bankName,
		"tenure":         req.TenureMonths,
		"predicted_rate": result.PredictedRate,
		"confidence":     result.ConfidenceScore,
		"trend":          result.Trend,
		"data_points":    result.SampleSize,
	}).Info("Forecast generated")

	s.notify(ctx, requestedBy, prediction)

	return toForecastResponse(result), nil
}

// Recent returns the newest forecast log entries.
func (s *ForecastService) Recent(ctx context.Context, limit int) ([]models.Prediction, error) {
	return s.predictions.List(ctx, limit)
}

func (s *ForecastService) notify(ctx context.Context, userID string, prediction models.Prediction) {
	if userID == "" || s.users == nil || s.notifier == nil {
		return
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		s.logger.WithError(err).WithField("user_id", userID).Warn("Failed to load user for forecast notification")
		return
	}
	if user.TelegramChatID == nil || *user.TelegramChatID == "" {
		return
	}

	if err := s.notifier.NotifyForecast(ctx, *user.TelegramChatID, prediction); err != nil {
		s.logger.WithError(err).WithField("user_id", userID).Warn("Failed to send forecast notification")
	}
}

func (s *ForecastService) recordFailure(reason string) {
	if s.recorder != nil {
		s.recorder.RecordForecastFailure(reason)
	}
}

// toObservations maps stored rates, already in ascending date order, onto the regression series.
func toObservations(rates []models.FDRate) []forecast.Observation {
	observations := make([]forecast.Observation, len(rates))
	for i, rate := range rates {
		observations[i] = forecast.Observation{
			Rate:         rate.InterestRate,
			BankName:     rate.BankName,
			TenureMonths: rate.TenureMonths,
			ObservedAt:   rate.ObservedAt,
		}
	}
	return forecast.NewSeries(observations)
}

func toForecastResponse(result *forecast.Result) *models.ForecastResponse {
	historical := make([]models.RatePoint, len(result.SourceSeries))
	for i, obs := range result.SourceSeries {
		historical[i] = models.RatePoint{Date: obs.ObservedAt, Rate: obs.Rate}
	}
	return &models.ForecastResponse{
		PredictedRate:  result.PredictedRate,
		Confidence:     result.ConfidenceScore,
		Trend:          string(result.Trend),
		DataPoints:     result.SampleSize,
		HistoricalData: historical,
	}
}
