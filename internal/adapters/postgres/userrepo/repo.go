package userrepo

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/olivezebra/mensa-api/internal/adapters/postgres"
	"github.com/olivezebra/mensa-api/internal/domain"
	"github.com/olivezebra/mensa-api/internal/ports/out/userrepo"
)

// Repo is a Postgres implementation of userrepo.Repository and userrepo.Writer.
type Repo struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

func (r *Repo) Save(ctx context.Context, u domain.User) error {
	if r.pool == nil {
		return errors.New("nil postgres pool")
	}
	id, err := uuid.Parse(string(u.ID))
	if err != nil {
		return fmt.Errorf("invalid user id: %w", err)
	}
	_, err = r.pool.Exec(ctx, `
		INSERT INTO users (id, subject, display_name, email)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET
			subject = EXCLUDED.subject,
			display_name = EXCLUDED.display_name,
			email = EXCLUDED.email
	`, id, string(u.Subject), u.DisplayName, u.Email)
	if err != nil {
		if pe, ok := postgres.AsPgError(err); ok && pe.Code == postgres.UniqueViolationCode && pe.ConstraintName == "users_subject_unique" {
			return userrepo.ErrSubjectAlreadyBound
		}
		return err
	}
	return nil
}

func (r *Repo) GetByID(ctx context.Context, id domain.UserID) (domain.User, error) {
	if r.pool == nil {
		return domain.User{}, errors.New("nil postgres pool")
	}
	uid, err := uuid.Parse(string(id))
	if err != nil {
		return domain.User{}, userrepo.ErrNotFound
	}
	return scanUser(r.pool.QueryRow(ctx, `
		SELECT id, subject, display_name, email FROM users WHERE id = $1
	`, uid))
}

func (r *Repo) GetBySubject(ctx context.Context, subject domain.SubjectID) (domain.User, error) {
	if r.pool == nil {
		return domain.User{}, errors.New("nil postgres pool")
	}
	return scanUser(r.pool.QueryRow(ctx, `
		SELECT id, subject, display_name, email FROM users WHERE subject = $1
	`, string(subject)))
}

func scanUser(row pgx.Row) (domain.User, error) {
	var (
		id          uuid.UUID
		subject     string
		displayName string
		email       string
	)
	if err := row.Scan(&id, &subject, &displayName, &email); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.User{}, userrepo.ErrNotFound
		}
		return domain.User{}, err
	}
	return domain.User{
		ID:          domain.UserID(id.String()),
		Subject:     domain.SubjectID(subject),
		DisplayName: displayName,
		Email:       email,
	}, nil
}
