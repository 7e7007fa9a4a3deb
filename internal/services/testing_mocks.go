package services

import (
	"context"
	"time"

	"github.com/go-telegram/bot"
	tgmodels "github.com/go-telegram/bot/models"
	"github.com/irfndi/fdtrend-go/internal/models"
	"github.com/stretchr/testify/mock"
)

// MockRateStore implements RateStore for testing within the services package
type MockRateStore struct {
	mock.Mock
}

func (m *MockRateStore) Create(ctx context.Context, rate *models.FDRate) error {
	args := m.Called(ctx, rate)
	return args.Error(0)
}

func (m *MockRateStore) List(ctx context.Context) ([]models.FDRate, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.FDRate), args.Error(1)
}

func (m *MockRateStore) ListByBankTenure(ctx context.Context, bankName string, tenureMonths int) ([]models.FDRate, error) {
	args := m.Called(ctx, bankName, tenureMonths)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.FDRate), args.Error(1)
}

func (m *MockRateStore) RecentWindow(ctx context.Context, bankName string, tenureMonths, limit int) ([]models.FDRate, error) {
	args := m.Called(ctx, bankName, tenureMonths, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.FDRate), args.Error(1)
}

func (m *MockRateStore) DistinctBanks(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockRateStore) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockRateStore) ReplaceAll(ctx context.Context, rates []models.FDRate) (int64, error) {
	args := m.Called(ctx, rates)
	return args.Get(0).(int64), args.Error(1)
}

// MockPredictionStore implements PredictionStore for testing within the services package
type MockPredictionStore struct {
	mock.Mock
}

func (m *MockPredictionStore) Create(ctx context.Context, prediction *models.Prediction) error {
	args := m.Called(ctx, prediction)
	return args.Error(0)
}

func (m *MockPredictionStore) List(ctx context.Context, limit int) ([]models.Prediction, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Prediction), args.Error(1)
}

func (m *MockPredictionStore) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).(int64), args.Error(1)
}

type MockUserLookup struct {
	mock.Mock
}

func (m *MockUserLookup) GetByID(ctx context.Context, id string) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

type MockBankListCache struct {
	mock.Mock
}

func (m *MockBankListCache) GetOrLoad(ctx context.Context, load func(context.Context) ([]string, error)) ([]string, error) {
	args := m.Called(ctx, load)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockBankListCache) Invalidate(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

type MockForecastRecorder struct {
	mock.Mock
}

func (m *MockForecastRecorder) RecordForecast(trend string, predictedRate float64) {
	m.Called(trend, predictedRate)
}

func (m *MockForecastRecorder) RecordForecastFailure(reason string) {
	m.Called(reason)
}

type MockForecastNotifier struct {
	mock.Mock
}

func (m *MockForecastNotifier) NotifyForecast(ctx context.Context, chatID string, prediction models.Prediction) error {
	args := m.Called(ctx, chatID, prediction)
	return args.Error(0)
}

// MockMessageSender implements MessageSender for testing within the services package
type MockMessageSender struct {
	mock.Mock
}

func (m *MockMessageSender) SendMessage(ctx context.Context, params *bot.SendMessageParams) (*tgmodels.Message, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*tgmodels.Message), args.Error(1)
}
