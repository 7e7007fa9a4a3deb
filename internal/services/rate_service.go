package services

import (
	"context"
	"strings"
	"time"

	"github.com/irfndi/fdtrend-go/internal/models"
	"github.com/irfndi/fdtrend-go/internal/utils"
	"github.com/sirupsen/logrus"
)

const (
	// MaxTenureMonths caps tenures at fifty years.
	MaxTenureMonths = 600
	// MaxInterestRate is the exclusive upper bound for a recorded rate, in percent.
	MaxInterestRate = 100.0
)

// RateService validates and records FD rate observations.
type RateService struct {
	store  RateStore
	banks  BankListCache
	logger *logrus.Logger
}

// NewRateService creates a rate service. banks may be nil to disable caching.
func NewRateService(store RateStore, banks BankListCache, logger *logrus.Logger) *RateService {
	return &RateService{store: store, banks: banks, logger: logger}
}

// ValidateRateRequest checks a rate submission and returns the normalized bank name.
func ValidateRateRequest(req models.FDRateRequest) (string, error) {
	bankName := strings.TrimSpace(req.BankName)
	if bankName == "" {
		return "", utils.NewFieldError("bankName", "is required")
	}
	if req.TenureMonths < 1 || req.TenureMonths > MaxTenureMonths {
		return "", utils.NewFieldError("tenure", "must be between 1 and %d months", MaxTenureMonths)
	}
	if req.InterestRate == nil {
		return "", utils.NewFieldError("interestRate", "is required")
	}
	if rate := *req.InterestRate; rate < 0 || rate >= MaxInterestRate {
		return "", utils.NewFieldError("interestRate", "must be at least 0 and below %.0f", MaxInterestRate)
	}
	if req.MinAmount != nil && req.MinAmount.IsNegative() {
		return "", utils.NewFieldError("minAmount", "cannot be negative")
	}
	return bankName, nil
}

// Create validates and stores a rate. createdBy may be empty.
func (s *RateService) Create(ctx context.Context, req models.FDRateRequest, createdBy string) (*models.FDRate, error) {
	bankName, err := ValidateRateRequest(req)
	if err != nil {
		return nil, err
	}

	rate := &models.FDRate{
		BankName:     bankName,
		TenureMonths: req.TenureMonths,
		InterestRate: *req.InterestRate,
		MinAmount:    models.DefaultMinAmount,
	}
	if req.Date != nil {
		rate.ObservedAt = req.Date.UTC()
	} else {
		rate.ObservedAt = time.Now().UTC()
	}
	if req.MinAmount != nil {
		rate.MinAmount = *req.MinAmount
	}
	if createdBy != "" {
		rate.CreatedBy = &createdBy
	}

	if err := s.store.Create(ctx, rate); err != nil {
		return nil, err
	}
	s.invalidateBanks(ctx)

	s.logger.WithFields(logrus.Fields{
		"rate_id":   rate.ID,
		"bank_name": rate.BankName,
		"tenure":    rate.TenureMonths,
		"rate":      rate.InterestRate,
	}).Info("FD rate recorded")

	return rate, nil
}

// List returns all rates, newest first.
func (s *RateService) List(ctx context.Context) ([]models.FDRate, error) {
	return s.store.List(ctx)
}

// Banks returns the distinct bank names, served from cache when available.
func (s *RateService) Banks(ctx context.Context) ([]string, error) {
	if s.banks == nil {
		return s.store.DistinctBanks(ctx)
	}
	return s.banks.GetOrLoad(ctx, s.store.DistinctBanks)
}

// Delete removes a rate; database.ErrNotFound is passed through.
func (s *RateService) Delete(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return utils.NewFieldError("id", "is required")
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidateBanks(ctx)
	return nil
}

func (s *RateService) invalidateBanks(ctx context.Context) {
	if s.banks == nil {
		return
	}
	if err := s.banks.Invalidate(ctx); err != nil {
		s.logger.WithError(err).Warn("Failed to invalidate bank cache")
	}
}
