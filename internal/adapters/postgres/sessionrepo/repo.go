package sessionrepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/olivezebra/mensa-api/internal/domain"
)

// Repo is a Postgres implementation of sessionrepo.Repository and sessionrepo.Writer.
type Repo struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

func (r *Repo) Save(ctx context.Context, s domain.Session) error {
	if r.pool == nil {
		return errors.New("nil postgres pool")
	}
	id, err := uuid.Parse(string(s.ID))
	if err != nil {
		return fmt.Errorf("invalid session id: %w", err)
	}
	groupID, err := uuid.Parse(string(s.GroupID))
	if err != nil {
		return fmt.Errorf("invalid group id: %w", err)
	}
	mensaID, err := uuid.Parse(string(s.MensaID))
	if err != nil {
		return fmt.Errorf("invalid mensa id: %w", err)
	}
	var tableID *uuid.UUID
	if s.TableID != nil {
		tid, err := uuid.Parse(string(*s.TableID))
		if err != nil {
			return fmt.Errorf("invalid table id: %w", err)
		}
		tableID = &tid
	}
	var endsAt *time.Time
	if s.End != nil {
		e := s.End.UTC()
		endsAt = &e
	}

	_, err = r.pool.Exec(ctx, `
		INSERT INTO sessions (id, group_id, mensa_id, table_id, starts_at, ends_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			group_id = EXCLUDED.group_id,
			mensa_id = EXCLUDED.mensa_id,
			table_id = EXCLUDED.table_id,
			starts_at = EXCLUDED.starts_at,
			ends_at = EXCLUDED.ends_at
	`, id, groupID, mensaID, tableID, s.Start.UTC(), endsAt)
	return err
}

func (r *Repo) ListByGroup(ctx context.Context, group domain.GroupID) ([]domain.Session, error) {
	if r.pool == nil {
		return nil, errors.New("nil postgres pool")
	}
	gid, err := uuid.Parse(string(group))
	if err != nil {
		return []domain.Session{}, nil
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id, group_id, mensa_id, table_id, starts_at, ends_at
		FROM sessions
		WHERE group_id = $1
		ORDER BY starts_at ASC, id ASC
	`, gid)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.Session, 0)
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func scanSession(row pgx.Row) (domain.Session, error) {
	var (
		id, groupID, mensaID uuid.UUID
		tableID              *uuid.UUID
		startsAt             time.Time
		endsAt               *time.Time
	)
	if err := row.Scan(&id, &groupID, &mensaID, &tableID, &startsAt, &endsAt); err != nil {
		return domain.Session{}, err
	}
	s := domain.Session{
		ID:      domain.SessionID(id.String()),
		GroupID: domain.GroupID(groupID.String()),
		MensaID: domain.MensaID(mensaID.String()),
		Start:   startsAt.UTC(),
	}
	if tableID != nil {
		t := domain.TableID(tableID.String())
		s.TableID = &t
	}
	if endsAt != nil {
		e := endsAt.UTC()
		s.End = &e
	}
	return s, nil
}
