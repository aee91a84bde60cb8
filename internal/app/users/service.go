// Package users resolves authenticated subjects to provisioned users.
package users

import (
	"context"
	"errors"
	"fmt"

	"github.com/olivezebra/mensa-api/internal/domain"
	"github.com/olivezebra/mensa-api/internal/ports/out/userrepo"
)

// ErrNotProvisioned is returned when the subject authenticated but has no user record.
var ErrNotProvisioned = errors.New("user not provisioned")

type Service struct {
	repo userrepo.Repository
}

func NewService(repo userrepo.Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Me(ctx context.Context, subject domain.SubjectID) (domain.User, error) {
	if subject == "" {
		return domain.User{}, ErrNotProvisioned
	}
	u, err := s.repo.GetBySubject(ctx, subject)
	if err != nil {
		if errors.Is(err, userrepo.ErrNotFound) {
			return domain.User{}, ErrNotProvisioned
		}
		return domain.User{}, fmt.Errorf("resolve subject: %w", err)
	}
	return u, nil
}
