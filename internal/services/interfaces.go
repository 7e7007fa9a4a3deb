package services

import (
	"context"
	"time"

	"github.com/irfndi/fdtrend-go/internal/models"
)

// RateStore is the persistence surface the rate and forecast services need.
// *database.RateRepository satisfies it.
type RateStore interface {
	Create(ctx context.Context, rate *models.FDRate) error
	List(ctx context.Context) ([]models.FDRate, error)
	ListByBankTenure(ctx context.Context, bankName string, tenureMonths int) ([]models.FDRate, error)
	RecentWindow(ctx context.Context, bankName string, tenureMonths, limit int) ([]models.FDRate, error)
	DistinctBanks(ctx context.Context) ([]string, error)
	Delete(ctx context.Context, id string) error
	ReplaceAll(ctx context.Context, rates []models.FDRate) (int64, error)
}

// PredictionStore persists the forecast log.
type PredictionStore interface {
	Create(ctx context.Context, prediction *models.Prediction) error
	List(ctx context.Context, limit int) ([]models.Prediction, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// UserLookup resolves the requesting user for notifications.
type UserLookup interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
}

// BankListCache fronts DistinctBanks.
type BankListCache interface {
	GetOrLoad(ctx context.Context, load func(context.Context) ([]string, error)) ([]string, error)
	Invalidate(ctx context.Context) error
}

// ForecastRecorder receives forecast outcome metrics.
type ForecastRecorder interface {
	RecordForecast(trend string, predictedRate float64)
	RecordForecastFailure(reason string)
}

// ForecastNotifier pushes a forecast summary to a user's chat.
type ForecastNotifier interface {
	NotifyForecast(ctx context.Context, chatID string, prediction models.Prediction) error
}
