// Package access enforces group membership before a group-scoped resource is returned.
package access

import (
	"context"
	"errors"
	"fmt"

	"github.com/olivezebra/mensa-api/internal/app/apperr"
	"github.com/olivezebra/mensa-api/internal/domain"
	"github.com/olivezebra/mensa-api/internal/ports/out/grouprepo"
)

// GroupLookup is the entity-lookup capability the guard needs.
// grouprepo.Repository satisfies it.
type GroupLookup interface {
	GetByID(ctx context.Context, id domain.GroupID) (domain.Group, error)
}

// Guard is a stateless membership check over a group lookup.
type Guard struct {
	groups GroupLookup
}

func NewGuard(groups GroupLookup) *Guard {
	return &Guard{groups: groups}
}

// RequireAccess returns the group when user is one of its members.
func (g *Guard) RequireAccess(ctx context.Context, groupID domain.GroupID, user domain.UserID) (domain.Group, error) {
	return RequireAccess(ctx, g.groups, groupID, user)
}

// RequireAccess loads the group and checks membership.
//
// A missing group fails with apperr.KindNotFound before membership is evaluated, so the
// result never reveals whether the user would have had access. An existing group that
// does not contain user fails with apperr.KindForbidden. Lookup failures other than
// absence are returned as-is.
func RequireAccess(ctx context.Context, lookup GroupLookup, groupID domain.GroupID, user domain.UserID) (domain.Group, error) {
	g, err := lookup.GetByID(ctx, groupID)
	if err != nil {
		if errors.Is(err, grouprepo.ErrNotFound) {
			return domain.Group{}, apperr.NotFound(apperr.CodeGroupNotFound, "No such group in database")
		}
		return domain.Group{}, fmt.Errorf("load group %s: %w", groupID, err)
	}
	if !g.HasMember(user) {
		return domain.Group{}, apperr.Forbidden(apperr.CodeNotGroupMember, "User is not in group")
	}
	return g, nil
}
