package sessionrepo

import (
	"context"

	"github.com/olivezebra/mensa-api/internal/domain"
)

// Repository provides read access to group sessions.
type Repository interface {
	// ListByGroup returns the group's sessions ordered by Start ascending (ties broken by ID).
	// An unknown group yields an empty list, not an error.
	ListByGroup(ctx context.Context, group domain.GroupID) ([]domain.Session, error)
}

// Writer stores sessions. It is used by seeding and tests only.
type Writer interface {
	Save(ctx context.Context, s domain.Session) error
}
