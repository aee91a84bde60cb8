// Package groups implements the group-scoped read use cases.
// Every operation on a single group goes through the access guard first.
package groups

import (
	"context"
	"fmt"

	"github.com/olivezebra/mensa-api/internal/app/access"
	"github.com/olivezebra/mensa-api/internal/app/apperr"
	"github.com/olivezebra/mensa-api/internal/domain"
	clockport "github.com/olivezebra/mensa-api/internal/ports/out/clock"
	"github.com/olivezebra/mensa-api/internal/ports/out/grouprepo"
	"github.com/olivezebra/mensa-api/internal/ports/out/sessionrepo"
)

type Service struct {
	groups   grouprepo.Repository
	sessions sessionrepo.Repository
	guard    *access.Guard
	clk      clockport.Clock
}

func NewService(groups grouprepo.Repository, sessions sessionrepo.Repository, clk clockport.Clock) *Service {
	return &Service{
		groups:   groups,
		sessions: sessions,
		guard:    access.NewGuard(groups),
		clk:      clk,
	}
}

func (s *Service) ListMyGroups(ctx context.Context, user domain.UserID) ([]domain.Group, error) {
	gs, err := s.groups.ListForUser(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("list groups for user %s: %w", user, err)
	}
	return gs, nil
}

func (s *Service) GetGroup(ctx context.Context, groupID domain.GroupID, user domain.UserID) (domain.Group, error) {
	return s.guard.RequireAccess(ctx, groupID, user)
}

// GetActiveSession returns the group's session running now. When several overlap,
// the one that started last wins.
func (s *Service) GetActiveSession(ctx context.Context, groupID domain.GroupID, user domain.UserID) (domain.Session, error) {
	if _, err := s.guard.RequireAccess(ctx, groupID, user); err != nil {
		return domain.Session{}, err
	}

	ss, err := s.sessions.ListByGroup(ctx, groupID)
	if err != nil {
		return domain.Session{}, fmt.Errorf("list sessions for group %s: %w", groupID, err)
	}
	now := s.clk.Now()
	for i := len(ss) - 1; i >= 0; i-- {
		if ss[i].ActiveAt(now) {
			return ss[i], nil
		}
	}
	return domain.Session{}, apperr.NotFound(apperr.CodeNoActiveSession, "Group has no active session")
}
