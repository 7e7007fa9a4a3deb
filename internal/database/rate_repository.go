package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/irfndi/fdtrend-go/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

const rateColumns = `id, bank_name, tenure_months, interest_rate, observed_at, min_amount, created_by, created_at`

var rateCopyColumns = []string{
	"id", "bank_name", "tenure_months", "interest_rate", "observed_at", "min_amount", "created_by", "created_at",
}

// RateRepository handles database operations for observed FD rates.
type RateRepository struct {
	pool DatabasePool
}

// NewRateRepository creates a new rate repository.
//
// Parameters:
//
//	pool: The database connection pool.
//
// Returns:
//
//	*RateRepository: The initialized repository.
func NewRateRepository(pool DatabasePool) *RateRepository {
	return &RateRepository{pool: pool}
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRate(row rowScanner) (models.FDRate, error) {
	var rate models.FDRate
	err := row.Scan(
		&rate.ID,
		&rate.BankName,
		&rate.TenureMonths,
		&rate.InterestRate,
		&rate.ObservedAt,
		&rate.MinAmount,
		&rate.CreatedBy,
		&rate.CreatedAt,
	)
	return rate, err
}

func collectRates(rows pgx.Rows) ([]models.FDRate, error) {
	defer rows.Close()

	rates := []models.FDRate{}
	for rows.Next() {
		rate, err := scanRate(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan fd rate: %w", err)
		}
		rates = append(rates, rate)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating fd rates: %w", err)
	}
	return rates, nil
}

// applyRateDefaults fills the id, observation date and minimum amount when they are unset.
func applyRateDefaults(rate *models.FDRate, now time.Time) {
	if rate.ID == "" {
		rate.ID = uuid.NewString()
	}
	if rate.ObservedAt.IsZero() {
		rate.ObservedAt = now
	}
	if rate.MinAmount.IsZero() {
		rate.MinAmount = models.DefaultMinAmount
	}
	if rate.CreatedAt.IsZero() {
		rate.CreatedAt = now
	}
}

// Create stores a new rate observation. The id, date and minimum amount are defaulted when unset.
//
// Parameters:
//
//	ctx: Context.
//	rate: The rate to store; CreatedAt is filled from the database.
//
// Returns:
//
//	error: Error if the insert fails.
func (r *RateRepository) Create(ctx context.Context, rate *models.FDRate) error {
	applyRateDefaults(rate, time.Now().UTC())

	query := `
		INSERT INTO fd_rates (id, bank_name, tenure_months, interest_rate, observed_at, min_amount, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at
	`

	err := r.pool.QueryRow(ctx, query,
		rate.ID,
		rate.BankName,
		rate.TenureMonths,
		rate.InterestRate,
		rate.ObservedAt,
		rate.MinAmount,
		rate.CreatedBy,
	).Scan(&rate.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create fd rate: %w", err)
	}

	return nil
}

// List returns every stored rate, newest observation first.
func (r *RateRepository) List(ctx context.Context) ([]models.FDRate, error) {
	query := `SELECT ` + rateColumns + ` FROM fd_rates ORDER BY observed_at DESC, created_at DESC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list fd rates: %w", err)
	}
	return collectRates(rows)
}

// ListByBankTenure returns the full series for one bank and tenure in ascending date order.
func (r *RateRepository) ListByBankTenure(ctx context.Context, bankName string, tenureMonths int) ([]models.FDRate, error) {
	query := `SELECT ` + rateColumns + `
		FROM fd_rates
		WHERE bank_name = $1 AND tenure_months = $2
		ORDER BY observed_at ASC, created_at ASC`

	rows, err := r.pool.Query(ctx, query, bankName, tenureMonths)
	if err != nil {
		return nil, fmt.Errorf("failed to list fd rates for %s/%d: %w", bankName, tenureMonths, err)
	}
	return collectRates(rows)
}

// RecentWindow returns the limit most recent rates for one bank and tenure, oldest first.
//
// Parameters:
//
//	ctx: Context.
//	bankName: Bank name, matched exactly.
//	tenureMonths: Tenure in months.
//	limit: Maximum number of observations.
//
// Returns:
//
//	[]models.FDRate: Ascending series, possibly empty.
//	error: Error if the query fails.
func (r *RateRepository) RecentWindow(ctx context.Context, bankName string, tenureMonths, limit int) ([]models.FDRate, error) {
	query := `SELECT ` + rateColumns + `
		FROM fd_rates
		WHERE bank_name = $1 AND tenure_months = $2
		ORDER BY observed_at DESC, created_at DESC
		LIMIT $3`

	rows, err := r.pool.Query(ctx, query, bankName, tenureMonths, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load recent fd rates: %w", err)
	}

	rates, err := collectRates(rows)
	if err != nil {
		return nil, err
	}

	// Reverse to chronological order
	for i, j := 0, len(rates)-1; i < j; i, j = i+1, j-1 {
		rates[i], rates[j] = rates[j], rates[i]
	}
	return rates, nil
}

// DistinctBanks returns the sorted set of bank names that have at least one rate.
func (r *RateRepository) DistinctBanks(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT DISTINCT bank_name FROM fd_rates ORDER BY bank_name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list banks: %w", err)
	}
	defer rows.Close()

	banks := []string{}
	for rows.Next() {
		var bank string
		if err := rows.Scan(&bank); err != nil {
			return nil, fmt.Errorf("failed to scan bank name: %w", err)
		}
		banks = append(banks, bank)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating banks: %w", err)
	}
	return banks, nil
}

// Delete removes a rate by id. ErrNotFound is returned when nothing matched.
func (r *RateRepository) Delete(ctx context.Context, id string) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM fd_rates WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete fd rate: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ReplaceAll wipes the rate table and bulk loads rates inside one transaction.
//
// Parameters:
//
//	ctx: Context.
//	rates: Rates to load; ids and defaults are filled in place.
//
// Returns:
//
//	int64: Number of rows copied.
//	error: Error if any step fails; the transaction is rolled back.
func (r *RateRepository) ReplaceAll(ctx context.Context, rates []models.FDRate) (int64, error) {
	now := time.Now().UTC()
	copyRows := make([][]interface{}, len(rates))
	for i := range rates {
		applyRateDefaults(&rates[i], now)
		rate := rates[i]
		copyRows[i] = []interface{}{
			rate.ID,
			rate.BankName,
			rate.TenureMonths,
			rate.InterestRate,
			rate.ObservedAt,
			numericFromDecimal(rate.MinAmount),
			rate.CreatedBy,
			rate.CreatedAt,
		}
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM fd_rates`); err != nil {
		_ = tx.Rollback(ctx)
		return 0, fmt.Errorf("failed to clear fd rates: %w", err)
	}

	copied, err := tx.CopyFrom(ctx, pgx.Identifier{"fd_rates"}, rateCopyColumns, pgx.CopyFromRows(copyRows))
	if err != nil {
		_ = tx.Rollback(ctx)
		return 0, fmt.Errorf("failed to copy fd rates: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit fd rates: %w", err)
	}

	return copied, nil
}

// numericFromDecimal converts to the binary-encodable pgtype used by COPY.
func numericFromDecimal(d decimal.Decimal) pgtype.Numeric {
	return pgtype.Numeric{Int: d.Coefficient(), Exp: d.Exponent(), Valid: true}
}

func isNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
