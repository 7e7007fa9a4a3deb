package database

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/irfndi/fdtrend-go/internal/models"
)

// DefaultPredictionListLimit caps GET /predictions when no limit is given.
const DefaultPredictionListLimit = 20

// PredictionRepository stores the forecast log.
type PredictionRepository struct {
	pool DatabasePool
}

func NewPredictionRepository(pool DatabasePool) *PredictionRepository {
	return &PredictionRepository{pool: pool}
}

// Create appends a forecast log entry.
func (r *PredictionRepository) Create(ctx context.Context, p *models.Prediction) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.PredictionDate.IsZero() {
		p.PredictionDate = time.Now().UTC()
	}

	query := `
		INSERT INTO predictions (id, bank_name, tenure_months, predicted_rate, confidence, trend,
			based_on_data_points, requested_by, prediction_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.pool.Exec(ctx, query,
		p.ID,
		p.BankName,
		p.TenureMonths,
		p.PredictedRate,
		p.Confidence,
		p.Trend,
		p.BasedOnDataPoints,
		p.RequestedBy,
		p.PredictionDate,
	)
	if err != nil {
		return fmt.Errorf("failed to create prediction: %w", err)
	}
	return nil
}

// List returns the newest log entries first. A non-positive limit uses DefaultPredictionListLimit.
func (r *PredictionRepository) List(ctx context.Context, limit int) ([]models.Prediction, error) {
	if limit <= 0 {
		limit = DefaultPredictionListLimit
	}

	query := `
		SELECT id, bank_name, tenure_months, predicted_rate, confidence, trend,
			based_on_data_points, requested_by, prediction_date
		FROM predictions
		ORDER BY prediction_date DESC
		LIMIT $1
	`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list predictions: %w", err)
	}
	defer rows.Close()

	predictions := []models.Prediction{}
	for rows.Next() {
		var p models.Prediction
		if err := rows.Scan(
			&p.ID,
			&p.BankName,
			&p.TenureMonths,
			&p.PredictedRate,
			&p.Confidence,
			&p.Trend,
			&p.BasedOnDataPoints,
			&p.RequestedBy,
			&p.PredictionDate,
		); err != nil {
			return nil, fmt.Errorf("failed to scan prediction: %w", err)
		}
		predictions = append(predictions, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating predictions: %w", err)
	}

	return predictions, nil
}

// DeleteOlderThan prunes log entries created before cutoff and returns how many were removed.
func (r *PredictionRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.pool.Exec(ctx, `DELETE FROM predictions WHERE prediction_date < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete old predictions: %w", err)
	}
	return result.RowsAffected(), nil
}
