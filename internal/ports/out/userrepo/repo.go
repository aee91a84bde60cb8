package userrepo

import (
	"context"

	"github.com/olivezebra/mensa-api/internal/domain"
)

// Repository provides read access to persisted users.
type Repository interface {
	GetByID(ctx context.Context, id domain.UserID) (domain.User, error)
	GetBySubject(ctx context.Context, subject domain.SubjectID) (domain.User, error)
}

// Writer stores users. It is used by seeding and tests only.
type Writer interface {
	// Save inserts or replaces the user. A subject may be bound to one user only;
	// binding it to a second user fails with ErrSubjectAlreadyBound.
	Save(ctx context.Context, u domain.User) error
}
