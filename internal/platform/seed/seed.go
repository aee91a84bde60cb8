// Package seed loads the facility and group catalogue from a YAML file.
//
// The service has no write API; seeding is how mensas, tables, users, groups and
// sessions get into any storage backend.
package seed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/olivezebra/mensa-api/internal/domain"
	"github.com/olivezebra/mensa-api/internal/ports/out/grouprepo"
	"github.com/olivezebra/mensa-api/internal/ports/out/mensarepo"
	"github.com/olivezebra/mensa-api/internal/ports/out/sessionrepo"
	"github.com/olivezebra/mensa-api/internal/ports/out/userrepo"
)

// Stores are the writers a seed file is applied to.
type Stores struct {
	Mensas   mensarepo.Writer
	Groups   grouprepo.Writer
	Users    userrepo.Writer
	Sessions sessionrepo.Writer
}

type File struct {
	Users    []User    `yaml:"users"`
	Mensas   []Mensa   `yaml:"mensas"`
	Groups   []Group   `yaml:"groups"`
	Sessions []Session `yaml:"sessions"`
}

type User struct {
	ID          string `yaml:"id"`
	Subject     string `yaml:"subject"`
	DisplayName string `yaml:"displayName"`
	Email       string `yaml:"email"`
}

type Mensa struct {
	ID     string         `yaml:"id"`
	Name   string         `yaml:"name"`
	X      int            `yaml:"x"`
	Y      int            `yaml:"y"`
	Width  int            `yaml:"width"`
	Height int            `yaml:"height"`
	Tables []domain.Table `yaml:"tables"`
}

type Group struct {
	ID        string   `yaml:"id"`
	Name      string   `yaml:"name"`
	CreatedAt string   `yaml:"createdAt"`
	Members   []string `yaml:"members"`
}

type Session struct {
	ID    string `yaml:"id"`
	Group string `yaml:"group"`
	Mensa string `yaml:"mensa"`
	Table string `yaml:"table"`
	Start string `yaml:"start"`
	End   string `yaml:"end"`
}

// Summary counts what Apply wrote.
type Summary struct {
	Users    int
	Mensas   int
	Groups   int
	Sessions int
}

// Parse decodes a seed document. Unknown keys are rejected so typos surface early.
func Parse(r io.Reader) (File, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var f File
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return File{}, nil
		}
		return File{}, fmt.Errorf("decode seed: %w", err)
	}
	return f, nil
}

// LoadFile parses the file at path and applies it.
func LoadFile(ctx context.Context, path string, stores Stores) (Summary, error) {
	fh, err := os.Open(path)
	if err != nil {
		return Summary{}, fmt.Errorf("open seed file: %w", err)
	}
	defer fh.Close()

	f, err := Parse(fh)
	if err != nil {
		return Summary{}, err
	}
	return Apply(ctx, f, stores)
}

// Apply validates every entry and saves it. Users go first, then mensas, groups
// and sessions. Saves are upserts, so applying the same file twice is harmless.
func Apply(ctx context.Context, f File, stores Stores) (Summary, error) {
	users, err := convertUsers(f.Users)
	if err != nil {
		return Summary{}, err
	}
	mensas, err := convertMensas(f.Mensas)
	if err != nil {
		return Summary{}, err
	}
	groups, err := convertGroups(f.Groups)
	if err != nil {
		return Summary{}, err
	}
	sessions, err := convertSessions(f.Sessions)
	if err != nil {
		return Summary{}, err
	}

	var sum Summary
	for _, u := range users {
		if err := stores.Users.Save(ctx, u); err != nil {
			return sum, fmt.Errorf("save user %s: %w", u.ID, err)
		}
		sum.Users++
	}
	for _, m := range mensas {
		if err := stores.Mensas.Save(ctx, m); err != nil {
			return sum, fmt.Errorf("save mensa %s: %w", m.ID, err)
		}
		sum.Mensas++
	}
	for _, g := range groups {
		if err := stores.Groups.Save(ctx, g); err != nil {
			return sum, fmt.Errorf("save group %s: %w", g.ID, err)
		}
		sum.Groups++
	}
	for _, s := range sessions {
		if err := stores.Sessions.Save(ctx, s); err != nil {
			return sum, fmt.Errorf("save session %s: %w", s.ID, err)
		}
		sum.Sessions++
	}
	return sum, nil
}

func convertUsers(in []User) ([]domain.User, error) {
	out := make([]domain.User, 0, len(in))
	for i, u := range in {
		id, err := normalizeID(u.ID)
		if err != nil {
			return nil, fmt.Errorf("users[%d].id: %w", i, err)
		}
		if u.Subject == "" {
			return nil, fmt.Errorf("users[%d].subject: required", i)
		}
		out = append(out, domain.User{
			ID:          domain.UserID(id),
			Subject:     domain.SubjectID(u.Subject),
			DisplayName: u.DisplayName,
			Email:       u.Email,
		})
	}
	return out, nil
}

func convertMensas(in []Mensa) ([]domain.Mensa, error) {
	out := make([]domain.Mensa, 0, len(in))
	for i, m := range in {
		id, err := normalizeID(m.ID)
		if err != nil {
			return nil, fmt.Errorf("mensas[%d].id: %w", i, err)
		}
		if m.Name == "" {
			return nil, fmt.Errorf("mensas[%d].name: required", i)
		}
		tables := make([]domain.Table, 0, len(m.Tables))
		for j, t := range m.Tables {
			tid, err := normalizeID(string(t.ID))
			if err != nil {
				return nil, fmt.Errorf("mensas[%d].tables[%d].id: %w", i, j, err)
			}
			if t.Seats < 0 {
				return nil, fmt.Errorf("mensas[%d].tables[%d].seats: must not be negative", i, j)
			}
			t.ID = domain.TableID(tid)
			tables = append(tables, t)
		}
		out = append(out, domain.Mensa{
			ID:     domain.MensaID(id),
			Name:   m.Name,
			X:      m.X,
			Y:      m.Y,
			Width:  m.Width,
			Height: m.Height,
			Tables: tables,
		})
	}
	return out, nil
}

func convertGroups(in []Group) ([]domain.Group, error) {
	out := make([]domain.Group, 0, len(in))
	for i, g := range in {
		id, err := normalizeID(g.ID)
		if err != nil {
			return nil, fmt.Errorf("groups[%d].id: %w", i, err)
		}
		createdAt := time.Unix(0, 0).UTC()
		if g.CreatedAt != "" {
			createdAt, err = parseTime(g.CreatedAt)
			if err != nil {
				return nil, fmt.Errorf("groups[%d].createdAt: %w", i, err)
			}
		}
		members := make([]domain.UserID, 0, len(g.Members))
		seen := make(map[string]struct{}, len(g.Members))
		for j, m := range g.Members {
			uid, err := normalizeID(m)
			if err != nil {
				return nil, fmt.Errorf("groups[%d].members[%d]: %w", i, j, err)
			}
			if _, dup := seen[uid]; dup {
				continue
			}
			seen[uid] = struct{}{}
			members = append(members, domain.UserID(uid))
		}
		out = append(out, domain.Group{
			ID:        domain.GroupID(id),
			Name:      g.Name,
			CreatedAt: createdAt,
			Members:   members,
		})
	}
	return out, nil
}

func convertSessions(in []Session) ([]domain.Session, error) {
	out := make([]domain.Session, 0, len(in))
	for i, s := range in {
		id, err := normalizeID(s.ID)
		if err != nil {
			return nil, fmt.Errorf("sessions[%d].id: %w", i, err)
		}
		gid, err := normalizeID(s.Group)
		if err != nil {
			return nil, fmt.Errorf("sessions[%d].group: %w", i, err)
		}
		mid, err := normalizeID(s.Mensa)
		if err != nil {
			return nil, fmt.Errorf("sessions[%d].mensa: %w", i, err)
		}
		start, err := parseTime(s.Start)
		if err != nil {
			return nil, fmt.Errorf("sessions[%d].start: %w", i, err)
		}

		sess := domain.Session{
			ID:      domain.SessionID(id),
			GroupID: domain.GroupID(gid),
			MensaID: domain.MensaID(mid),
			Start:   start,
		}
		if s.Table != "" {
			tid, err := normalizeID(s.Table)
			if err != nil {
				return nil, fmt.Errorf("sessions[%d].table: %w", i, err)
			}
			t := domain.TableID(tid)
			sess.TableID = &t
		}
		if s.End != "" {
			end, err := parseTime(s.End)
			if err != nil {
				return nil, fmt.Errorf("sessions[%d].end: %w", i, err)
			}
			if !end.After(start) {
				return nil, fmt.Errorf("sessions[%d].end: must be after start", i)
			}
			sess.End = &end
		}
		out = append(out, sess)
	}
	return out, nil
}

func normalizeID(s string) (string, error) {
	if s == "" {
		return "", errors.New("required")
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return "", fmt.Errorf("invalid uuid %q", s)
	}
	return id.String(), nil
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid RFC3339 timestamp %q", s)
	}
	return t.UTC(), nil
}
