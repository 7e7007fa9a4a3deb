package services

import (
	"context"
	"math"
	"math/rand"
	"time"

	"github.com/irfndi/fdtrend-go/internal/models"
	"github.com/irfndi/fdtrend-go/internal/telemetry"
	"github.com/sirupsen/logrus"
)

var (
	// SampleBanks are the banks the seeder generates data for.
	SampleBanks = []string{"HDFC Bank", "ICICI Bank", "SBI", "Axis Bank"}
	// SampleTenures are the tenures, in months, the seeder generates data for.
	SampleTenures = []int{6, 12, 24, 36}
)

// SampleMonths is how many monthly observations are generated per series.
const SampleMonths = 6

// SeedService replaces all stored rates with generated sample data.
type SeedService struct {
	store  RateStore
	banks  BankListCache
	tracer *telemetry.BusinessTracer
	logger *logrus.Logger
	random func() float64
	now    func() time.Time
}

// NewSeedService creates a seeder. banks may be nil.
func NewSeedService(store RateStore, banks BankListCache, logger *logrus.Logger) *SeedService {
	return &SeedService{
		store:  store,
		banks:  banks,
		tracer: telemetry.NewBusinessTracer(),
		logger: logger,
		random: rand.Float64,
		now:    time.Now,
	}
}

// SampleRates builds monthly observations for every bank and tenure, oldest month first.
// Each rate is 6.5 plus a uniform draw from [0, 2) plus half a point per year of tenure,
// rounded to two decimals.
func SampleRates(now time.Time, random func() float64) []models.FDRate {
	rates := make([]models.FDRate, 0, SampleMonths*len(SampleBanks)*len(SampleTenures))
	for month := SampleMonths - 1; month >= 0; month-- {
		observedAt := now.AddDate(0, -month, 0).UTC()
		for _, bank := range SampleBanks {
			for _, tenure := range SampleTenures {
				base := 6.5 + random()*2
				rate := math.Round((base+float64(tenure)/12*0.5)*100) / 100
				rates = append(rates, models.FDRate{
					BankName:     bank,
					TenureMonths: tenure,
					InterestRate: rate,
					ObservedAt:   observedAt,
					MinAmount:    models.DefaultMinAmount,
				})
			}
		}
	}
	return rates
}

// Seed wipes the rate table and loads fresh sample data, returning the row count.
func (s *SeedService) Seed(ctx context.Context) (int64, error) {
	ctx, span := s.tracer.TraceSeed(ctx)
	defer span.End()

	rates := SampleRates(s.now(), s.random)
	count, err := s.store.ReplaceAll(ctx, rates)
	if err != nil {
		s.tracer.RecordError(span, err)
		return 0, err
	}

	if s.banks != nil {
		if err := s.banks.Invalidate(ctx); err != nil {
			s.logger.WithError(err).Warn("Failed to invalidate bank cache after seeding")
		}
	}

	s.logger.WithField("count", count).Info("Sample data seeded")
	return count, nil
}
