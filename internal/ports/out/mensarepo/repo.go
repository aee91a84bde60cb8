package mensarepo

import (
	"context"

	"github.com/olivezebra/mensa-api/internal/domain"
)

// Repository provides read access to persisted mensas.
//
// Result ordering expectations:
// - List returns mensas ordered by Name ascending (ties broken by ID) to keep behavior deterministic.
type Repository interface {
	List(ctx context.Context) ([]domain.Mensa, error)

	// GetByID returns ErrNotFound when no mensa has the given id.
	GetByID(ctx context.Context, id domain.MensaID) (domain.Mensa, error)
}

// Writer stores mensas. It is used by seeding and tests only; the API never writes.
type Writer interface {
	// Save inserts or replaces the mensa together with its full table set.
	Save(ctx context.Context, m domain.Mensa) error
}
