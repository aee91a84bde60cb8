package sessionrepo

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/olivezebra/mensa-api/internal/domain"
)

// Repo is an in-memory implementation of sessionrepo.Repository and sessionrepo.Writer.
// It is safe for concurrent use.
type Repo struct {
	mu      sync.RWMutex
	byGroup map[domain.GroupID]map[domain.SessionID]domain.Session
	groupOf map[domain.SessionID]domain.GroupID
}

func NewRepo() *Repo {
	return &Repo{
		byGroup: make(map[domain.GroupID]map[domain.SessionID]domain.Session),
		groupOf: make(map[domain.SessionID]domain.GroupID),
	}
}

func (r *Repo) Save(ctx context.Context, s domain.Session) error {
	_ = ctx
	if s.ID == "" || s.GroupID == "" {
		return errors.New("session id and group id are required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	// A session may move between groups on re-save; drop the stale index entry.
	if prev, ok := r.groupOf[s.ID]; ok && prev != s.GroupID {
		delete(r.byGroup[prev], s.ID)
	}
	if r.byGroup[s.GroupID] == nil {
		r.byGroup[s.GroupID] = make(map[domain.SessionID]domain.Session)
	}
	r.byGroup[s.GroupID][s.ID] = cloneSession(s)
	r.groupOf[s.ID] = s.GroupID
	return nil
}

func (r *Repo) ListByGroup(ctx context.Context, group domain.GroupID) ([]domain.Session, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.Session, 0, len(r.byGroup[group]))
	for _, s := range r.byGroup[group] {
		out = append(out, cloneSession(s))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Start.Equal(out[j].Start) {
			return out[i].ID < out[j].ID
		}
		return out[i].Start.Before(out[j].Start)
	})
	return out, nil
}

func cloneSession(s domain.Session) domain.Session {
	out := s
	if s.TableID != nil {
		v := *s.TableID
		out.TableID = &v
	}
	if s.End != nil {
		v := *s.End
		out.End = &v
	}
	return out
}
