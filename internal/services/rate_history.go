package services

import (
	"context"
	"strings"

	"github.com/cinar/indicator/v2/helper"
	"github.com/cinar/indicator/v2/trend"
	"github.com/irfndi/fdtrend-go/internal/models"
	"github.com/irfndi/fdtrend-go/internal/utils"
)

// MaxSMAPeriod bounds the moving average window accepted from clients.
const MaxSMAPeriod = 24

// RateHistoryService serves a bank/tenure series with an optional moving average overlay.
type RateHistoryService struct {
	store RateStore
}

func NewRateHistoryService(store RateStore) *RateHistoryService {
	return &RateHistoryService{store: store}
}

// History returns the ascending series. smaPeriod of 0 skips the overlay.
// Series shorter than the period get no overlay points.
func (s *RateHistoryService) History(ctx context.Context, bankName string, tenureMonths, smaPeriod int) (*models.RateHistory, error) {
	bankName = strings.TrimSpace(bankName)
	if bankName == "" {
		return nil, utils.NewFieldError("bankName", "is required")
	}
	if tenureMonths <= 0 {
		return nil, utils.NewFieldError("tenure", "must be a positive number of months")
	}
	if smaPeriod < 0 || smaPeriod > MaxSMAPeriod {
		return nil, utils.NewFieldError("sma", "must be between 0 and %d", MaxSMAPeriod)
	}

	rates, err := s.store.ListByBankTenure(ctx, bankName, tenureMonths)
	if err != nil {
		return nil, err
	}

	history := &models.RateHistory{
		BankName:     bankName,
		TenureMonths: tenureMonths,
		Rates:        rates,
	}
	if smaPeriod > 0 {
		history.SMAPeriod = smaPeriod
		history.MovingAverage = movingAverage(rates, smaPeriod)
	}
	return history, nil
}

// movingAverage aligns each SMA value with the date of the last rate in its window.
func movingAverage(rates []models.FDRate, period int) []models.RatePoint {
	points := []models.RatePoint{}
	if period < 1 || len(rates) < period {
		return points
	}

	values := make([]float64, len(rates))
	for i, rate := range rates {
		values[i] = rate.InterestRate
	}

	sma := trend.NewSmaWithPeriod[float64](period)
	averages := helper.ChanToSlice(sma.Compute(helper.SliceToChan(values)))

	offset := len(rates) - len(averages)
	for i, avg := range averages {
		points = append(points, models.RatePoint{
			Date: rates[offset+i].ObservedAt,
			Rate: avg,
		})
	}
	return points
}
