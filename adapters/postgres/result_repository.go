// Package postgres persists run summaries through sqlx.
package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"plskit/internal/errors"
	"plskit/ports"
)

// ResultRepositoryImpl implements ResultRepository for PostgreSQL
type ResultRepositoryImpl struct {
	db *sqlx.DB
}

// NewResultRepository creates a new PostgreSQL result repository
func NewResultRepository(db *sqlx.DB) ports.ResultRepository {
	return &ResultRepositoryImpl{db: db}
}

// EnsureSchema creates the results table when it does not exist.
func (r *ResultRepositoryImpl) EnsureSchema(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS analysis_runs (
			id UUID PRIMARY KEY,
			method TEXT NOT NULL,
			samples INTEGER NOT NULL,
			n_perm INTEGER NOT NULL,
			n_boot INTEGER NOT NULL,
			n_split INTEGER NOT NULL,
			seed BIGINT NOT NULL,
			singular_values DOUBLE PRECISION[] NOT NULL,
			p_values DOUBLE PRECISION[],
			var_explained DOUBLE PRECISION[] NOT NULL,
			elapsed_ns BIGINT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL
		)
	`)
	if err != nil {
		return errors.Wrap(err, "failed to create analysis_runs table")
	}
	return nil
}

// Save inserts one run summary.
func (r *ResultRepositoryImpl) Save(ctx context.Context, summary *ports.ResultSummary) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO analysis_runs (id, method, samples, n_perm, n_boot, n_split, seed,
			singular_values, p_values, var_explained, elapsed_ns, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`, summary.ID, summary.Method, summary.Samples, summary.NPerm, summary.NBoot,
		summary.NSplit, summary.Seed, pq.Array(summary.SingularVals),
		pq.Array(summary.PValues), pq.Array(summary.VarExplained),
		int64(summary.Elapsed), summary.CreatedAt)
	if err != nil {
		return errors.Wrap(err, "failed to insert run summary")
	}
	return nil
}

// Get retrieves a run summary by id.
func (r *ResultRepositoryImpl) Get(ctx context.Context, id uuid.UUID) (*ports.ResultSummary, error) {
	row := r.db.QueryRowxContext(ctx, `
		SELECT id, method, samples, n_perm, n_boot, n_split, seed,
			singular_values, p_values, var_explained, elapsed_ns, created_at
		FROM analysis_runs
		WHERE id = $1
	`, id)
	summary, err := scanSummary(row)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("run summary")
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to load run summary")
	}
	return summary, nil
}

// List returns the most recent run summaries, newest first.
func (r *ResultRepositoryImpl) List(ctx context.Context, limit int) ([]*ports.ResultSummary, error) {
	query := `
		SELECT id, method, samples, n_perm, n_boot, n_split, seed,
			singular_values, p_values, var_explained, elapsed_ns, created_at
		FROM analysis_runs
		ORDER BY created_at DESC
	`
	args := []interface{}{}
	if limit > 0 {
		query += " LIMIT $1"
		args = append(args, limit)
	}

	rows, err := r.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list run summaries")
	}
	defer rows.Close()

	var summaries []*ports.ResultSummary
	for rows.Next() {
		summary, err := scanSummary(rows)
		if err != nil {
			return nil, errors.Wrap(err, "failed to scan run summary")
		}
		summaries = append(summaries, summary)
	}
	return summaries, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSummary(row rowScanner) (*ports.ResultSummary, error) {
	var summary ports.ResultSummary
	var singular, pvals, varexp pq.Float64Array
	var elapsed int64
	err := row.Scan(
		&summary.ID,
		&summary.Method,
		&summary.Samples,
		&summary.NPerm,
		&summary.NBoot,
		&summary.NSplit,
		&summary.Seed,
		&singular,
		&pvals,
		&varexp,
		&elapsed,
		&summary.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	summary.SingularVals = []float64(singular)
	summary.PValues = []float64(pvals)
	summary.VarExplained = []float64(varexp)
	summary.Elapsed = time.Duration(elapsed)
	return &summary, nil
}
