package grouprepo

import (
	"context"

	"github.com/olivezebra/mensa-api/internal/domain"
)

// Repository provides read access to persisted groups.
type Repository interface {
	// GetByID returns ErrNotFound when no group has the given id.
	GetByID(ctx context.Context, id domain.GroupID) (domain.Group, error)

	// ListForUser returns every group whose member set contains user,
	// ordered by Name ascending (ties broken by ID).
	ListForUser(ctx context.Context, user domain.UserID) ([]domain.Group, error)
}

// Writer stores groups. It is used by seeding and tests only.
type Writer interface {
	// Save inserts or replaces the group, including its member set.
	Save(ctx context.Context, g domain.Group) error
}
