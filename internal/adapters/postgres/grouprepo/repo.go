package grouprepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/olivezebra/mensa-api/internal/domain"
	"github.com/olivezebra/mensa-api/internal/ports/out/grouprepo"
)

// Repo is a Postgres implementation of grouprepo.Repository and grouprepo.Writer.
type Repo struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

func (r *Repo) Save(ctx context.Context, g domain.Group) error {
	if r.pool == nil {
		return errors.New("nil postgres pool")
	}
	id, err := uuid.Parse(string(g.ID))
	if err != nil {
		return fmt.Errorf("invalid group id: %w", err)
	}
	members, err := parseUserIDs(g.Members)
	if err != nil {
		return err
	}
	createdAt := g.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO groups (id, name, created_at)
			VALUES ($1, $2, $3)
			ON CONFLICT (id) DO UPDATE SET
				name = EXCLUDED.name,
				created_at = EXCLUDED.created_at
		`, id, g.Name, createdAt.UTC())
		if err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `DELETE FROM group_members WHERE group_id = $1`, id); err != nil {
			return err
		}
		if len(members) == 0 {
			return nil
		}
		_, err = tx.Exec(ctx, `
			INSERT INTO group_members (group_id, user_id)
			SELECT $1, u FROM unnest($2::uuid[]) AS u
			ON CONFLICT DO NOTHING
		`, id, members)
		return err
	})
}

func (r *Repo) GetByID(ctx context.Context, id domain.GroupID) (domain.Group, error) {
	if r.pool == nil {
		return domain.Group{}, errors.New("nil postgres pool")
	}
	uid, err := uuid.Parse(string(id))
	if err != nil {
		return domain.Group{}, grouprepo.ErrNotFound
	}
	row := r.pool.QueryRow(ctx, `
		SELECT g.id, g.name, g.created_at,
		       COALESCE(array_agg(m.user_id) FILTER (WHERE m.user_id IS NOT NULL), '{}')
		FROM groups g
		LEFT JOIN group_members m ON m.group_id = g.id
		WHERE g.id = $1
		GROUP BY g.id
	`, uid)
	return scanGroup(row)
}

func (r *Repo) ListForUser(ctx context.Context, user domain.UserID) ([]domain.Group, error) {
	if r.pool == nil {
		return nil, errors.New("nil postgres pool")
	}
	uid, err := uuid.Parse(string(user))
	if err != nil {
		// Not a storable id, so not a member of anything.
		return []domain.Group{}, nil
	}
	rows, err := r.pool.Query(ctx, `
		SELECT g.id, g.name, g.created_at,
		       COALESCE(array_agg(m.user_id) FILTER (WHERE m.user_id IS NOT NULL), '{}')
		FROM groups g
		LEFT JOIN group_members m ON m.group_id = g.id
		WHERE EXISTS (
			SELECT 1 FROM group_members gm WHERE gm.group_id = g.id AND gm.user_id = $1
		)
		GROUP BY g.id
		ORDER BY lower(g.name) ASC, g.id ASC
	`, uid)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.Group, 0)
	for rows.Next() {
		g, err := scanGroup(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func scanGroup(row pgx.Row) (domain.Group, error) {
	var (
		id        uuid.UUID
		name      string
		createdAt time.Time
		members   []uuid.UUID
	)
	if err := row.Scan(&id, &name, &createdAt, &members); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Group{}, grouprepo.ErrNotFound
		}
		return domain.Group{}, err
	}
	g := domain.Group{
		ID:        domain.GroupID(id.String()),
		Name:      name,
		CreatedAt: createdAt.UTC(),
		Members:   make([]domain.UserID, 0, len(members)),
	}
	for _, m := range members {
		g.Members = append(g.Members, domain.UserID(m.String()))
	}
	return g, nil
}

func parseUserIDs(ids []domain.UserID) ([]uuid.UUID, error) {
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		u, err := uuid.Parse(string(id))
		if err != nil {
			return nil, fmt.Errorf("invalid member id %q: %w", id, err)
		}
		out = append(out, u)
	}
	return out, nil
}
