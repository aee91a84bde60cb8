package mensarepo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	goredis "github.com/redis/go-redis/v9"

	redisadapter "github.com/olivezebra/mensa-api/internal/adapters/redis"
	"github.com/olivezebra/mensa-api/internal/domain"
	"github.com/olivezebra/mensa-api/internal/ports/out/mensarepo"
)

const kind = "mensa"

type mensaDoc struct {
	ID     string         `json:"id"`
	Name   string         `json:"name"`
	X      int            `json:"x"`
	Y      int            `json:"y"`
	Width  int            `json:"width"`
	Height int            `json:"height"`
	Tables []domain.Table `json:"tables"`
}

// Repo is a Redis implementation of mensarepo.Repository and mensarepo.Writer.
type Repo struct {
	client *goredis.Client
	keys   redisadapter.Keys
}

func NewRepo(client *goredis.Client, keys redisadapter.Keys) *Repo {
	return &Repo{client: client, keys: keys}
}

func (r *Repo) Save(ctx context.Context, m domain.Mensa) error {
	if m.ID == "" {
		return errors.New("mensa id is required")
	}
	b, err := json.Marshal(mensaDoc{
		ID:     string(m.ID),
		Name:   m.Name,
		X:      m.X,
		Y:      m.Y,
		Width:  m.Width,
		Height: m.Height,
		Tables: m.Tables,
	})
	if err != nil {
		return fmt.Errorf("encode mensa: %w", err)
	}
	_, err = r.client.TxPipelined(ctx, func(p goredis.Pipeliner) error {
		p.Set(ctx, r.keys.Doc(kind, string(m.ID)), b, 0)
		p.SAdd(ctx, r.keys.Index("mensas"), string(m.ID))
		return nil
	})
	return err
}

func (r *Repo) List(ctx context.Context) ([]domain.Mensa, error) {
	ids, err := r.client.SMembers(ctx, r.keys.Index("mensas")).Result()
	if err != nil {
		return nil, err
	}
	out := make([]domain.Mensa, 0, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = r.keys.Doc(kind, id)
	}
	vals, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}
	for _, v := range vals {
		s, ok := v.(string)
		if !ok {
			// Index entry without a document.
			continue
		}
		m, err := decode([]byte(s))
		if err != nil {
			return nil, err
		}
		out = append(out, m)
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

func (r *Repo) GetByID(ctx context.Context, id domain.MensaID) (domain.Mensa, error) {
	b, err := r.client.Get(ctx, r.keys.Doc(kind, string(id))).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return domain.Mensa{}, mensarepo.ErrNotFound
		}
		return domain.Mensa{}, err
	}
	return decode(b)
}

func decode(b []byte) (domain.Mensa, error) {
	var d mensaDoc
	if err := json.Unmarshal(b, &d); err != nil {
		return domain.Mensa{}, fmt.Errorf("decode mensa: %w", err)
	}
	return domain.Mensa{
		ID:     domain.MensaID(d.ID),
		Name:   d.Name,
		X:      d.X,
		Y:      d.Y,
		Width:  d.Width,
		Height: d.Height,
		Tables: d.Tables,
	}, nil
}
