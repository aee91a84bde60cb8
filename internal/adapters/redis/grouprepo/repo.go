package grouprepo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	redisadapter "github.com/olivezebra/mensa-api/internal/adapters/redis"
	"github.com/olivezebra/mensa-api/internal/domain"
	"github.com/olivezebra/mensa-api/internal/ports/out/grouprepo"
)

const kind = "group"

type groupDoc struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
	Members   []string  `json:"members"`
}

// Repo is a Redis implementation of grouprepo.Repository and grouprepo.Writer.
//
// Membership is indexed per user under idx:user-groups:<userID>.
type Repo struct {
	client *goredis.Client
	keys   redisadapter.Keys
}

func NewRepo(client *goredis.Client, keys redisadapter.Keys) *Repo {
	return &Repo{client: client, keys: keys}
}

func (r *Repo) userIndex(u string) string { return r.keys.Index("user-groups:" + u) }

func (r *Repo) Save(ctx context.Context, g domain.Group) error {
	if g.ID == "" {
		return errors.New("group id is required")
	}
	doc := groupDoc{
		ID:        string(g.ID),
		Name:      g.Name,
		CreatedAt: g.CreatedAt.UTC(),
		Members:   make([]string, 0, len(g.Members)),
	}
	for _, m := range g.Members {
		doc.Members = append(doc.Members, string(m))
	}
	b, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode group: %w", err)
	}

	key := r.keys.Doc(kind, string(g.ID))
	return r.client.Watch(ctx, func(tx *goredis.Tx) error {
		prev, err := r.load(ctx, tx, key)
		if err != nil && !errors.Is(err, grouprepo.ErrNotFound) {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(p goredis.Pipeliner) error {
			for _, m := range prev.Members {
				p.SRem(ctx, r.userIndex(string(m)), doc.ID)
			}
			p.Set(ctx, key, b, 0)
			for _, m := range doc.Members {
				p.SAdd(ctx, r.userIndex(m), doc.ID)
			}
			return nil
		})
		return err
	}, key)
}

func (r *Repo) GetByID(ctx context.Context, id domain.GroupID) (domain.Group, error) {
	return r.load(ctx, r.client, r.keys.Doc(kind, string(id)))
}

func (r *Repo) ListForUser(ctx context.Context, user domain.UserID) ([]domain.Group, error) {
	ids, err := r.client.SMembers(ctx, r.userIndex(string(user))).Result()
	if err != nil {
		return nil, err
	}
	out := make([]domain.Group, 0, len(ids))
	for _, id := range ids {
		g, err := r.GetByID(ctx, domain.GroupID(id))
		if err != nil {
			if errors.Is(err, grouprepo.ErrNotFound) {
				continue
			}
			return nil, err
		}
		// The index can lag a concurrent Save; the document is authoritative.
		if g.HasMember(user) {
			out = append(out, g)
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

func (r *Repo) load(ctx context.Context, c redisadapter.Getter, key string) (domain.Group, error) {
	b, err := c.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return domain.Group{}, grouprepo.ErrNotFound
		}
		return domain.Group{}, err
	}
	var d groupDoc
	if err := json.Unmarshal(b, &d); err != nil {
		return domain.Group{}, fmt.Errorf("decode group: %w", err)
	}
	g := domain.Group{
		ID:        domain.GroupID(d.ID),
		Name:      d.Name,
		CreatedAt: d.CreatedAt.UTC(),
		Members:   make([]domain.UserID, 0, len(d.Members)),
	}
	for _, m := range d.Members {
		g.Members = append(g.Members, domain.UserID(m))
	}
	return g, nil
}
