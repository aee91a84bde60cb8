package sessionrepo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	goredis "github.com/redis/go-redis/v9"

	redisadapter "github.com/olivezebra/mensa-api/internal/adapters/redis"
	"github.com/olivezebra/mensa-api/internal/domain"
)

const kind = "session"

type sessionDoc struct {
	ID      string     `json:"id"`
	GroupID string     `json:"groupId"`
	MensaID string     `json:"mensaId"`
	TableID *string    `json:"tableId,omitempty"`
	Start   time.Time  `json:"start"`
	End     *time.Time `json:"end,omitempty"`
}

// Repo is a Redis implementation of sessionrepo.Repository and sessionrepo.Writer.
type Repo struct {
	client *goredis.Client
	keys   redisadapter.Keys
}

func NewRepo(client *goredis.Client, keys redisadapter.Keys) *Repo {
	return &Repo{client: client, keys: keys}
}

func (r *Repo) groupIndex(g string) string { return r.keys.Index("group-sessions:" + g) }

func (r *Repo) Save(ctx context.Context, s domain.Session) error {
	if s.ID == "" || s.GroupID == "" {
		return errors.New("session id and group id are required")
	}
	d := sessionDoc{
		ID:      string(s.ID),
		GroupID: string(s.GroupID),
		MensaID: string(s.MensaID),
		Start:   s.Start.UTC(),
	}
	if s.TableID != nil {
		t := string(*s.TableID)
		d.TableID = &t
	}
	if s.End != nil {
		e := s.End.UTC()
		d.End = &e
	}
	b, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}

	key := r.keys.Doc(kind, d.ID)
	return r.client.Watch(ctx, func(tx *goredis.Tx) error {
		prev, err := r.load(ctx, tx, key)
		if err != nil && !errors.Is(err, goredis.Nil) {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(p goredis.Pipeliner) error {
			if prev.GroupID != "" && prev.GroupID != s.GroupID {
				p.SRem(ctx, r.groupIndex(string(prev.GroupID)), d.ID)
			}
			p.Set(ctx, key, b, 0)
			p.SAdd(ctx, r.groupIndex(d.GroupID), d.ID)
			return nil
		})
		return err
	}, key)
}

func (r *Repo) ListByGroup(ctx context.Context, group domain.GroupID) ([]domain.Session, error) {
	ids, err := r.client.SMembers(ctx, r.groupIndex(string(group))).Result()
	if err != nil {
		return nil, err
	}
	out := make([]domain.Session, 0, len(ids))
	for _, id := range ids {
		s, err := r.load(ctx, r.client, r.keys.Doc(kind, id))
		if err != nil {
			if errors.Is(err, goredis.Nil) {
				continue
			}
			return nil, err
		}
		if s.GroupID == group {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Start.Equal(out[j].Start) {
			return out[i].ID < out[j].ID
		}
		return out[i].Start.Before(out[j].Start)
	})
	return out, nil
}

// load returns goredis.Nil when the document is missing.
func (r *Repo) load(ctx context.Context, c redisadapter.Getter, key string) (domain.Session, error) {
	b, err := c.Get(ctx, key).Bytes()
	if err != nil {
		return domain.Session{}, err
	}
	var d sessionDoc
	if err := json.Unmarshal(b, &d); err != nil {
		return domain.Session{}, fmt.Errorf("decode session: %w", err)
	}
	s := domain.Session{
		ID:      domain.SessionID(d.ID),
		GroupID: domain.GroupID(d.GroupID),
		MensaID: domain.MensaID(d.MensaID),
		Start:   d.Start.UTC(),
	}
	if d.TableID != nil {
		t := domain.TableID(*d.TableID)
		s.TableID = &t
	}
	if d.End != nil {
		e := d.End.UTC()
		s.End = &e
	}
	return s, nil
}
