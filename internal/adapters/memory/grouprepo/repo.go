package grouprepo

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"github.com/olivezebra/mensa-api/internal/domain"
	"github.com/olivezebra/mensa-api/internal/ports/out/grouprepo"
)

// Repo is an in-memory implementation of grouprepo.Repository and grouprepo.Writer.
// It is safe for concurrent use.
type Repo struct {
	mu   sync.RWMutex
	byID map[domain.GroupID]domain.Group
}

func NewRepo() *Repo {
	return &Repo{byID: make(map[domain.GroupID]domain.Group)}
}

func (r *Repo) Save(ctx context.Context, g domain.Group) error {
	_ = ctx
	if g.ID == "" {
		return errors.New("group id is required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[g.ID] = cloneGroup(g)
	return nil
}

func (r *Repo) GetByID(ctx context.Context, id domain.GroupID) (domain.Group, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	g, ok := r.byID[id]
	if !ok {
		return domain.Group{}, grouprepo.ErrNotFound
	}
	return cloneGroup(g), nil
}

func (r *Repo) ListForUser(ctx context.Context, user domain.UserID) ([]domain.Group, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.Group, 0)
	for _, g := range r.byID {
		if g.HasMember(user) {
			out = append(out, cloneGroup(g))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		ni := strings.ToLower(out[i].Name)
		nj := strings.ToLower(out[j].Name)
		if ni == nj {
			return out[i].ID < out[j].ID
		}
		return ni < nj
	})
	return out, nil
}

func cloneGroup(g domain.Group) domain.Group {
	out := g
	if g.Members != nil {
		out.Members = append([]domain.UserID(nil), g.Members...)
	}
	return out
}
