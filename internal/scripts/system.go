package scripts

import (
	"context"

	"github.com/google/uuid"

	"github.com/JaimeStill/slate/pkg/pagination"
)

// System defines the public contract for script operations.
type System interface {
	Handler(maxUploadSize int64) *Handler

	List(
		ctx context.Context,
		page pagination.PageRequest,
		filters Filters,
	) (*pagination.PageResult[Script], error)

	Find(ctx context.Context, id uuid.UUID) (*Script, error)
	Create(ctx context.Context, cmd CreateCommand) (*Script, error)
	Delete(ctx context.Context, id uuid.UUID) error

	// Source returns the script row and its stored text.
	Source(ctx context.Context, id uuid.UUID) (*Script, string, error)
	SetStatus(ctx context.Context, id uuid.UUID, status Status) error
}
