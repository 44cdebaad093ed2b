package ports

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ResultSummary is the persisted view of a completed inference run: the
// scalar per-latent-variable statistics, not the full matrices.
type ResultSummary struct {
	ID           uuid.UUID     `db:"id"`
	Method       string        `db:"method"`
	Samples      int           `db:"samples"`
	NPerm        int           `db:"n_perm"`
	NBoot        int           `db:"n_boot"`
	NSplit       int           `db:"n_split"`
	Seed         int64         `db:"seed"`
	SingularVals []float64     `db:"singular_values"`
	PValues      []float64     `db:"p_values"`
	VarExplained []float64     `db:"var_explained"`
	Elapsed      time.Duration `db:"elapsed_ns"`
	CreatedAt    time.Time     `db:"created_at"`
}

// ResultRepository persists run summaries. The core never requires
// persistence; a nil repository disables it.
type ResultRepository interface {
	Save(ctx context.Context, summary *ResultSummary) error
	Get(ctx context.Context, id uuid.UUID) (*ResultSummary, error)
	List(ctx context.Context, limit int) ([]*ResultSummary, error)
}
