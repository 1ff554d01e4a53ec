package breakdowns

import (
	"context"

	"github.com/google/uuid"

	"github.com/JaimeStill/slate/internal/evidence"
	"github.com/JaimeStill/slate/pkg/pagination"
)

// System defines the public contract for breakdown operations.
type System interface {
	Handler() *Handler

	List(
		ctx context.Context,
		page pagination.PageRequest,
		filters Filters,
	) (*pagination.PageResult[Breakdown], error)

	Find(ctx context.Context, id uuid.UUID) (*Breakdown, error)
	FindByScript(ctx context.Context, scriptID uuid.UUID) (*Breakdown, error)

	// Analyze runs the breakdown workflow for a stored script and replaces
	// any previous breakdown for it.
	Analyze(ctx context.Context, scriptID uuid.UUID) (*Breakdown, error)
	Review(ctx context.Context, id uuid.UUID, cmd ReviewCommand) (*Breakdown, error)

	// Evidence returns the archived evidence ledger for a breakdown.
	Evidence(ctx context.Context, id uuid.UUID) (*evidence.Export, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
