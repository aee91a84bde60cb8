package mensarepo

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"github.com/olivezebra/mensa-api/internal/domain"
	"github.com/olivezebra/mensa-api/internal/ports/out/mensarepo"
)

// Repo is an in-memory implementation of mensarepo.Repository and mensarepo.Writer.
// It is safe for concurrent use.
type Repo struct {
	mu   sync.RWMutex
	byID map[domain.MensaID]domain.Mensa
}

func NewRepo() *Repo {
	return &Repo{byID: make(map[domain.MensaID]domain.Mensa)}
}

func (r *Repo) Save(ctx context.Context, m domain.Mensa) error {
	_ = ctx
	if m.ID == "" {
		return errors.New("mensa id is required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[m.ID] = cloneMensa(m)
	return nil
}

func (r *Repo) List(ctx context.Context) ([]domain.Mensa, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.Mensa, 0, len(r.byID))
	for _, m := range r.byID {
		out = append(out, cloneMensa(m))
	}
	sortMensasByName(out)
	return out, nil
}

func (r *Repo) GetByID(ctx context.Context, id domain.MensaID) (domain.Mensa, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.byID[id]
	if !ok {
		return domain.Mensa{}, mensarepo.ErrNotFound
	}
	return cloneMensa(m), nil
}

func cloneMensa(m domain.Mensa) domain.Mensa {
	out := m
	if m.Tables != nil {
		out.Tables = append([]domain.Table(nil), m.Tables...)
	}
	return out
}

func sortMensasByName(ms []domain.Mensa) {
	sort.Slice(ms, func(i, j int) bool {
		ni := strings.ToLower(ms[i].Name)
		nj := strings.ToLower(ms[j].Name)
		if ni == nj {
			return ms[i].ID < ms[j].ID
		}
		return ni < nj
	})
}
