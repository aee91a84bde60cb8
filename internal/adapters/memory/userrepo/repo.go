package userrepo

import (
	"context"
	"errors"
	"sync"

	"github.com/olivezebra/mensa-api/internal/domain"
	"github.com/olivezebra/mensa-api/internal/ports/out/userrepo"
)

// Repo is an in-memory implementation of userrepo.Repository and userrepo.Writer.
// It is safe for concurrent use.
type Repo struct {
	mu sync.RWMutex

	byID    map[domain.UserID]domain.User
	idBySub map[domain.SubjectID]domain.UserID
}

func NewRepo() *Repo {
	return &Repo{
		byID:    make(map[domain.UserID]domain.User),
		idBySub: make(map[domain.SubjectID]domain.UserID),
	}
}

func (r *Repo) Save(ctx context.Context, u domain.User) error {
	_ = ctx
	if u.ID == "" {
		return errors.New("user id is required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if u.Subject != "" {
		if existingID, ok := r.idBySub[u.Subject]; ok && existingID != u.ID {
			return userrepo.ErrSubjectAlreadyBound
		}
	}
	if prev, ok := r.byID[u.ID]; ok && prev.Subject != u.Subject {
		delete(r.idBySub, prev.Subject)
	}

	r.byID[u.ID] = u
	if u.Subject != "" {
		r.idBySub[u.Subject] = u.ID
	}
	return nil
}

func (r *Repo) GetByID(ctx context.Context, id domain.UserID) (domain.User, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.byID[id]
	if !ok {
		return domain.User{}, userrepo.ErrNotFound
	}
	return u, nil
}

func (r *Repo) GetBySubject(ctx context.Context, subject domain.SubjectID) (domain.User, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.idBySub[subject]
	if !ok {
		return domain.User{}, userrepo.ErrNotFound
	}
	u, ok := r.byID[id]
	if !ok {
		return domain.User{}, userrepo.ErrNotFound
	}
	return u, nil
}
