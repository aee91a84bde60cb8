package mensarepo

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/olivezebra/mensa-api/internal/domain"
	"github.com/olivezebra/mensa-api/internal/ports/out/mensarepo"
)

// Repo is a Postgres implementation of mensarepo.Repository and mensarepo.Writer.
type Repo struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

func (r *Repo) Save(ctx context.Context, m domain.Mensa) error {
	if r.pool == nil {
		return errors.New("nil postgres pool")
	}
	id, err := uuid.Parse(string(m.ID))
	if err != nil {
		return fmt.Errorf("invalid mensa id: %w", err)
	}
	tableIDs := make([]uuid.UUID, len(m.Tables))
	for i, t := range m.Tables {
		tid, err := uuid.Parse(string(t.ID))
		if err != nil {
			return fmt.Errorf("invalid table id %q: %w", t.ID, err)
		}
		tableIDs[i] = tid
	}

	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO mensas (id, name, x, y, width, height)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (id) DO UPDATE SET
				name = EXCLUDED.name,
				x = EXCLUDED.x,
				y = EXCLUDED.y,
				width = EXCLUDED.width,
				height = EXCLUDED.height
		`, id, m.Name, m.X, m.Y, m.Width, m.Height)
		if err != nil {
			return err
		}

		// The table set is replaced wholesale.
		if _, err := tx.Exec(ctx, `DELETE FROM mensa_tables WHERE mensa_id = $1`, id); err != nil {
			return err
		}
		for i, t := range m.Tables {
			_, err := tx.Exec(ctx, `
				INSERT INTO mensa_tables (id, mensa_id, x, y, width, height, seats)
				VALUES ($1, $2, $3, $4, $5, $6, $7)
				ON CONFLICT (id) DO UPDATE SET
					mensa_id = EXCLUDED.mensa_id,
					x = EXCLUDED.x,
					y = EXCLUDED.y,
					width = EXCLUDED.width,
					height = EXCLUDED.height,
					seats = EXCLUDED.seats
			`, tableIDs[i], id, t.X, t.Y, t.Width, t.Height, t.Seats)
			if err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *Repo) List(ctx context.Context) ([]domain.Mensa, error) {
	if r.pool == nil {
		return nil, errors.New("nil postgres pool")
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, x, y, width, height
		FROM mensas
		ORDER BY lower(name) ASC, id ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.Mensa, 0)
	index := make(map[domain.MensaID]int)
	for rows.Next() {
		m, err := scanMensa(rows)
		if err != nil {
			return nil, err
		}
		index[m.ID] = len(out)
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	tables, err := r.pool.Query(ctx, `
		SELECT mensa_id, id, x, y, width, height, seats
		FROM mensa_tables
		ORDER BY mensa_id, id
	`)
	if err != nil {
		return nil, err
	}
	defer tables.Close()
	for tables.Next() {
		mensaID, t, err := scanTable(tables)
		if err != nil {
			return nil, err
		}
		if i, ok := index[mensaID]; ok {
			out[i].Tables = append(out[i].Tables, t)
		}
	}
	if err := tables.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Repo) GetByID(ctx context.Context, id domain.MensaID) (domain.Mensa, error) {
	if r.pool == nil {
		return domain.Mensa{}, errors.New("nil postgres pool")
	}
	uid, err := uuid.Parse(string(id))
	if err != nil {
		return domain.Mensa{}, mensarepo.ErrNotFound
	}

	m, err := scanMensa(r.pool.QueryRow(ctx, `
		SELECT id, name, x, y, width, height
		FROM mensas
		WHERE id = $1
	`, uid))
	if err != nil {
		return domain.Mensa{}, err
	}

	rows, err := r.pool.Query(ctx, `
		SELECT mensa_id, id, x, y, width, height, seats
		FROM mensa_tables
		WHERE mensa_id = $1
		ORDER BY id
	`, uid)
	if err != nil {
		return domain.Mensa{}, err
	}
	defer rows.Close()
	for rows.Next() {
		_, t, err := scanTable(rows)
		if err != nil {
			return domain.Mensa{}, err
		}
		m.Tables = append(m.Tables, t)
	}
	if err := rows.Err(); err != nil {
		return domain.Mensa{}, err
	}
	return m, nil
}

func scanMensa(row pgx.Row) (domain.Mensa, error) {
	var (
		id                  uuid.UUID
		name                string
		x, y, width, height int
	)
	if err := row.Scan(&id, &name, &x, &y, &width, &height); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Mensa{}, mensarepo.ErrNotFound
		}
		return domain.Mensa{}, err
	}
	return domain.Mensa{
		ID:     domain.MensaID(id.String()),
		Name:   name,
		X:      x,
		Y:      y,
		Width:  width,
		Height: height,
	}, nil
}

func scanTable(row pgx.Row) (domain.MensaID, domain.Table, error) {
	var (
		mensaID, id                uuid.UUID
		x, y, width, height, seats int
	)
	if err := row.Scan(&mensaID, &id, &x, &y, &width, &height, &seats); err != nil {
		return "", domain.Table{}, err
	}
	return domain.MensaID(mensaID.String()), domain.Table{
		ID:     domain.TableID(id.String()),
		X:      x,
		Y:      y,
		Width:  width,
		Height: height,
		Seats:  seats,
	}, nil
}
