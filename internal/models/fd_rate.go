package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// DefaultMinAmount is the minimum deposit recorded when a rate omits one.
var DefaultMinAmount = decimal.NewFromInt(10000)

// FDRate is a single observed fixed-deposit interest rate for a bank and tenure.
type FDRate struct {
	ID           string          `json:"id" db:"id"`
	BankName     string          `json:"bankName" db:"bank_name"`
	TenureMonths int             `json:"tenure" db:"tenure_months"`
	InterestRate float64         `json:"interestRate" db:"interest_rate"`
	ObservedAt   time.Time       `json:"date" db:"observed_at"`
	MinAmount    decimal.Decimal `json:"minAmount" db:"min_amount"`
	CreatedBy    *string         `json:"createdBy,omitempty" db:"created_by"`
	CreatedAt    time.Time       `json:"createdAt" db:"created_at"`
}

// FDRateRequest is the body accepted when recording a rate.
type FDRateRequest struct {
	BankName     string           `json:"bankName" binding:"required"`
	TenureMonths int              `json:"tenure" binding:"required"`
	InterestRate *float64         `json:"interestRate" binding:"required"`
	Date         *time.Time       `json:"date,omitempty"`
	MinAmount    *decimal.Decimal `json:"minAmount,omitempty"`
}

// RatePoint is the chart-friendly projection of an FDRate.
type RatePoint struct {
	Date time.Time `json:"date"`
	Rate float64   `json:"rate"`
}

// RateHistory is the ascending series for one bank/tenure with an optional moving average overlay.
type RateHistory struct {
	BankName      string      `json:"bankName"`
	TenureMonths  int         `json:"tenure"`
	Rates         []FDRate    `json:"rates"`
	SMAPeriod     int         `json:"smaPeriod,omitempty"`
	MovingAverage []RatePoint `json:"movingAverage,omitempty"`
}
