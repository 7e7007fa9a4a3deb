package models

import "time"

// Prediction is a forecast log entry, written every time a forecast is served.
type Prediction struct {
	ID                string    `json:"id" db:"id"`
	BankName          string    `json:"bankName" db:"bank_name"`
	TenureMonths      int       `json:"tenure" db:"tenure_months"`
	PredictedRate     float64   `json:"predictedRate" db:"predicted_rate"`
	Confidence        int       `json:"confidence" db:"confidence"`
	Trend             string    `json:"trend" db:"trend"`
	BasedOnDataPoints int       `json:"basedOnDataPoints" db:"based_on_data_points"`
	RequestedBy       *string   `json:"requestedBy,omitempty" db:"requested_by"`
	PredictionDate    time.Time `json:"predictionDate" db:"prediction_date"`
}

// PredictRequest selects the series to forecast.
type PredictRequest struct {
	BankName     string `json:"bankName" binding:"required"`
	TenureMonths int    `json:"tenure" binding:"required"`
}

// ForecastResponse is the flat forecast record returned to clients.
type ForecastResponse struct {
	PredictedRate  float64     `json:"predictedRate"`
	Confidence     int         `json:"confidence"`
	Trend          string      `json:"trend"`
	DataPoints     int         `json:"dataPoints"`
	HistoricalData []RatePoint `json:"historicalData"`
}
