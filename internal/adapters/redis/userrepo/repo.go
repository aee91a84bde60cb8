package userrepo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	redisadapter "github.com/olivezebra/mensa-api/internal/adapters/redis"
	"github.com/olivezebra/mensa-api/internal/domain"
	"github.com/olivezebra/mensa-api/internal/ports/out/userrepo"
)

const kind = "user"

type userDoc struct {
	ID          string `json:"id"`
	Subject     string `json:"subject"`
	DisplayName string `json:"displayName"`
	Email       string `json:"email"`
}

// Repo is a Redis implementation of userrepo.Repository and userrepo.Writer.
//
// The subject binding lives under idx:subject:<sub> and points at the user id.
type Repo struct {
	client *goredis.Client
	keys   redisadapter.Keys
}

func NewRepo(client *goredis.Client, keys redisadapter.Keys) *Repo {
	return &Repo{client: client, keys: keys}
}

func (r *Repo) subjectKey(sub string) string { return r.keys.Index("subject:" + sub) }

func (r *Repo) Save(ctx context.Context, u domain.User) error {
	if u.ID == "" {
		return errors.New("user id is required")
	}
	b, err := json.Marshal(userDoc{
		ID:          string(u.ID),
		Subject:     string(u.Subject),
		DisplayName: u.DisplayName,
		Email:       u.Email,
	})
	if err != nil {
		return fmt.Errorf("encode user: %w", err)
	}

	docKey := r.keys.Doc(kind, string(u.ID))
	subKey := r.subjectKey(string(u.Subject))
	return r.client.Watch(ctx, func(tx *goredis.Tx) error {
		bound, err := tx.Get(ctx, subKey).Result()
		if err != nil && !errors.Is(err, goredis.Nil) {
			return err
		}
		if bound != "" && bound != string(u.ID) {
			return userrepo.ErrSubjectAlreadyBound
		}
		prev, err := r.load(ctx, tx, docKey)
		if err != nil && !errors.Is(err, userrepo.ErrNotFound) {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(p goredis.Pipeliner) error {
			if prev.Subject != "" && prev.Subject != u.Subject {
				p.Del(ctx, r.subjectKey(string(prev.Subject)))
			}
			p.Set(ctx, docKey, b, 0)
			if u.Subject != "" {
				p.Set(ctx, subKey, string(u.ID), 0)
			}
			return nil
		})
		return err
	}, docKey, subKey)
}

func (r *Repo) GetByID(ctx context.Context, id domain.UserID) (domain.User, error) {
	return r.load(ctx, r.client, r.keys.Doc(kind, string(id)))
}

func (r *Repo) GetBySubject(ctx context.Context, subject domain.SubjectID) (domain.User, error) {
	id, err := r.client.Get(ctx, r.subjectKey(string(subject))).Result()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return domain.User{}, userrepo.ErrNotFound
		}
		return domain.User{}, err
	}
	return r.GetByID(ctx, domain.UserID(id))
}

func (r *Repo) load(ctx context.Context, c redisadapter.Getter, key string) (domain.User, error) {
	b, err := c.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return domain.User{}, userrepo.ErrNotFound
		}
		return domain.User{}, err
	}
	var d userDoc
	if err := json.Unmarshal(b, &d); err != nil {
		return domain.User{}, fmt.Errorf("decode user: %w", err)
	}
	return domain.User{
		ID:          domain.UserID(d.ID),
		Subject:     domain.SubjectID(d.Subject),
		DisplayName: d.DisplayName,
		Email:       d.Email,
	}, nil
}
