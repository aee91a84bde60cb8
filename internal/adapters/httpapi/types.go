package httpapi

import (
	"time"

	"github.com/oapi-codegen/nullable"

	"github.com/olivezebra/mensa-api/internal/domain"
)

// ErrorResponse is the body of every non-2xx JSON response.
type ErrorResponse struct {
	Error struct {
		Code      string                            `json:"code"`
		Message   string                            `json:"message"`
		Details   nullable.Nullable[map[string]any] `json:"details,omitempty"`
		RequestId nullable.Nullable[string]         `json:"requestId,omitempty"`
	} `json:"error"`
}

type Table struct {
	Id     string `json:"id"`
	X      int    `json:"x"`
	Y      int    `json:"y"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Seats  int    `json:"seats"`
}

type Mensa struct {
	Id     string  `json:"id"`
	Name   string  `json:"name"`
	X      int     `json:"x"`
	Y      int     `json:"y"`
	Width  int     `json:"width"`
	Height int     `json:"height"`
	Tables []Table `json:"tables"`
}

type ListMensasResponse struct {
	Mensas []Mensa `json:"mensas"`
}

type ListTablesResponse struct {
	Tables []Table `json:"tables"`
}

type Group struct {
	Id        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
	Members   []string  `json:"members"`
}

type ListGroupsResponse struct {
	Groups []Group `json:"groups"`
}

type Session struct {
	Id      string                       `json:"id"`
	GroupId string                       `json:"groupId"`
	MensaId string                       `json:"mensaId"`
	TableId nullable.Nullable[string]    `json:"tableId"`
	Start   time.Time                    `json:"start"`
	End     nullable.Nullable[time.Time] `json:"end"`
}

type User struct {
	Id          string `json:"id"`
	DisplayName string `json:"displayName"`
	Email       string `json:"email"`
}

func tableFromDomain(t domain.Table) Table {
	return Table{
		Id:     string(t.ID),
		X:      t.X,
		Y:      t.Y,
		Width:  t.Width,
		Height: t.Height,
		Seats:  t.Seats,
	}
}

func tablesFromDomain(ts []domain.Table) []Table {
	out := make([]Table, 0, len(ts))
	for _, t := range ts {
		out = append(out, tableFromDomain(t))
	}
	return out
}

func mensaFromDomain(m domain.Mensa) Mensa {
	return Mensa{
		Id:     string(m.ID),
		Name:   m.Name,
		X:      m.X,
		Y:      m.Y,
		Width:  m.Width,
		Height: m.Height,
		Tables: tablesFromDomain(m.Tables),
	}
}

func groupFromDomain(g domain.Group) Group {
	members := make([]string, 0, len(g.Members))
	for _, m := range g.Members {
		members = append(members, string(m))
	}
	return Group{
		Id:        string(g.ID),
		Name:      g.Name,
		CreatedAt: g.CreatedAt.UTC(),
		Members:   members,
	}
}

func sessionFromDomain(s domain.Session) Session {
	out := Session{
		Id:      string(s.ID),
		GroupId: string(s.GroupID),
		MensaId: string(s.MensaID),
		Start:   s.Start.UTC(),
		TableId: nullable.NewNullNullable[string](),
		End:     nullable.NewNullNullable[time.Time](),
	}
	if s.TableID != nil {
		out.TableId = nullable.NewNullableWithValue(string(*s.TableID))
	}
	if s.End != nil {
		out.End = nullable.NewNullableWithValue(s.End.UTC())
	}
	return out
}

func userFromDomain(u domain.User) User {
	return User{
		Id:          string(u.ID),
		DisplayName: u.DisplayName,
		Email:       u.Email,
	}
}
