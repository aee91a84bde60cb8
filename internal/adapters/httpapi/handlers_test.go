package httpapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	memclock "github.com/olivezebra/mensa-api/internal/adapters/memory/clock"
	memgrouprepo "github.com/olivezebra/mensa-api/internal/adapters/memory/grouprepo"
	memmensarepo "github.com/olivezebra/mensa-api/internal/adapters/memory/mensarepo"
	memsessionrepo "github.com/olivezebra/mensa-api/internal/adapters/memory/sessionrepo"
	memuserrepo "github.com/olivezebra/mensa-api/internal/adapters/memory/userrepo"
	"github.com/olivezebra/mensa-api/internal/app/groups"
	"github.com/olivezebra/mensa-api/internal/app/layout"
	"github.com/olivezebra/mensa-api/internal/app/mensas"
	"github.com/olivezebra/mensa-api/internal/app/users"
	"github.com/olivezebra/mensa-api/internal/domain"
)

type apiFixture struct {
	h http.Handler

	mensaID  string
	emptyID  string
	groupID  string
	otherID  string
	aliceSub string
	bobSub   string
}

// newAPIFixture wires the real services over memory repos. render answers POST /render.
func newAPIFixture(t *testing.T, render http.HandlerFunc) apiFixture {
	t.Helper()
	ctx := context.Background()

	renderer := httptest.NewServer(render)
	t.Cleanup(renderer.Close)

	f := apiFixture{
		mensaID:  uuid.NewString(),
		emptyID:  uuid.NewString(),
		groupID:  uuid.NewString(),
		otherID:  uuid.NewString(),
		aliceSub: "sub-alice",
		bobSub:   "sub-bob",
	}
	alice := domain.User{ID: domain.UserID(uuid.NewString()), Subject: domain.SubjectID(f.aliceSub), DisplayName: "Alice"}
	bob := domain.User{ID: domain.UserID(uuid.NewString()), Subject: domain.SubjectID(f.bobSub), DisplayName: "Bob"}

	userRepo := memuserrepo.NewRepo()
	for _, u := range []domain.User{alice, bob} {
		if err := userRepo.Save(ctx, u); err != nil {
			t.Fatalf("Save user: %v", err)
		}
	}

	mensaRepo := memmensarepo.NewRepo()
	for _, m := range []domain.Mensa{
		{ID: domain.MensaID(f.mensaID), Name: "Polymensa", X: 10, Y: 20, Width: 300, Height: 200, Tables: []domain.Table{
			{ID: domain.TableID(uuid.NewString()), X: 1, Y: 2, Width: 3, Height: 4, Seats: 6},
		}},
		{ID: domain.MensaID(f.emptyID), Name: "Annex"},
	} {
		if err := mensaRepo.Save(ctx, m); err != nil {
			t.Fatalf("Save mensa: %v", err)
		}
	}

	groupRepo := memgrouprepo.NewRepo()
	for _, g := range []domain.Group{
		{ID: domain.GroupID(f.groupID), Name: "Lunch", Members: []domain.UserID{alice.ID, bob.ID}},
		{ID: domain.GroupID(f.otherID), Name: "Alice only", Members: []domain.UserID{alice.ID}},
	} {
		if err := groupRepo.Save(ctx, g); err != nil {
			t.Fatalf("Save group: %v", err)
		}
	}

	now := time.Date(2024, 5, 6, 12, 0, 0, 0, time.UTC)
	sessionRepo := memsessionrepo.NewRepo()
	table := domain.TableID(uuid.NewString())
	if err := sessionRepo.Save(ctx, domain.Session{
		ID:      domain.SessionID(uuid.NewString()),
		GroupID: domain.GroupID(f.groupID),
		MensaID: domain.MensaID(f.mensaID),
		TableID: &table,
		Start:   now.Add(-15 * time.Minute),
	}); err != nil {
		t.Fatalf("Save session: %v", err)
	}

	proxy := layout.NewProxy(renderer.Client(), renderer.URL, nil)
	proxy.Timeout = 200 * time.Millisecond

	api := NewServer(
		mensas.NewService(mensaRepo, proxy),
		groups.NewService(groupRepo, sessionRepo, memclock.NewManualClock(now)),
		users.NewService(userRepo),
		nil,
	)
	f.h = NewRouterWithOptions(api, RouterOptions{AuthMiddleware: NewDevAuthMiddleware("")})
	return f
}

func svgRenderer(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "image/svg+xml")
	_, _ = io.WriteString(w, `<svg xmlns="http://www.w3.org/2000/svg"/>`)
}

func (f apiFixture) do(t *testing.T, path, subject string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if subject != "" {
		req.Header.Set("X-Debug-Subject", subject)
	}
	rec := httptest.NewRecorder()
	f.h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v body=%s", err, rec.Body.String())
	}
	return out
}

func requireError(t *testing.T, rec *httptest.ResponseRecorder, status int, code string) {
	t.Helper()
	if rec.Code != status {
		t.Fatalf("status=%d want %d body=%s", rec.Code, status, rec.Body.String())
	}
	if got := decode[ErrorResponse](t, rec); got.Error.Code != code {
		t.Fatalf("code=%q want %q", got.Error.Code, code)
	}
}

func TestHealthz(t *testing.T) {
	t.Parallel()
	f := newAPIFixture(t, svgRenderer)

	rec := f.do(t, "/healthz", "")
	if rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Fatalf("healthz: %d %q", rec.Code, rec.Body.String())
	}
}

func TestListMensas(t *testing.T) {
	t.Parallel()
	f := newAPIFixture(t, svgRenderer)

	rec := f.do(t, "/mensa", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}
	got := decode[ListMensasResponse](t, rec)
	if len(got.Mensas) != 2 || got.Mensas[0].Name != "Annex" || got.Mensas[1].Id != f.mensaID {
		t.Fatalf("mensas=%+v", got.Mensas)
	}
	if got.Mensas[0].Tables == nil {
		t.Fatalf("tables must encode as [] not null")
	}
}

func TestGetMensa(t *testing.T) {
	t.Parallel()
	f := newAPIFixture(t, svgRenderer)

	rec := f.do(t, "/mensa/"+f.mensaID, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}
	m := decode[Mensa](t, rec)
	if m.Id != f.mensaID || m.Width != 300 || len(m.Tables) != 1 || m.Tables[0].Seats != 6 {
		t.Fatalf("mensa=%+v", m)
	}

	requireError(t, f.do(t, "/mensa/"+uuid.NewString(), ""), http.StatusNotFound, "MENSA_NOT_FOUND")
	requireError(t, f.do(t, "/mensa/not-a-uuid", ""), http.StatusBadRequest, codeInvalidParameter)
}

func TestGetMensaTables(t *testing.T) {
	t.Parallel()
	f := newAPIFixture(t, svgRenderer)

	got := decode[ListTablesResponse](t, f.do(t, "/mensa/"+f.mensaID+"/tables", ""))
	if len(got.Tables) != 1 || got.Tables[0].Width != 3 {
		t.Fatalf("tables=%+v", got.Tables)
	}

	rec := f.do(t, "/mensa/"+f.emptyID+"/tables", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d", rec.Code)
	}
	if empty := decode[ListTablesResponse](t, rec); empty.Tables == nil || len(empty.Tables) != 0 {
		t.Fatalf("empty tables=%#v", empty.Tables)
	}

	requireError(t, f.do(t, "/mensa/"+uuid.NewString()+"/tables", ""), http.StatusNotFound, "MENSA_NOT_FOUND")
}

func TestGetMensaLayout(t *testing.T) {
	t.Parallel()

	var payload map[string]any
	got := make(chan map[string]any, 1)
	f := newAPIFixture(t, func(w http.ResponseWriter, r *http.Request) {
		var p map[string]any
		_ = json.NewDecoder(r.Body).Decode(&p)
		got <- p
		svgRenderer(w, r)
	})

	rec := f.do(t, "/mensa/"+f.mensaID+"/layout", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "image/svg+xml" {
		t.Fatalf("content-type=%q", ct)
	}
	if rec.Body.String() != `<svg xmlns="http://www.w3.org/2000/svg"/>` {
		t.Fatalf("body=%q", rec.Body.String())
	}

	payload = <-got
	if payload["id"] != f.mensaID || payload["width"] != float64(300) {
		t.Fatalf("renderer payload=%v", payload)
	}
}

func TestGetMensaLayout_RendererFailuresAre503(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		render func(release <-chan struct{}) http.HandlerFunc
	}{
		{name: "empty body", render: func(<-chan struct{}) http.HandlerFunc {
			return func(w http.ResponseWriter, r *http.Request) {}
		}},
		{name: "server error", render: func(<-chan struct{}) http.HandlerFunc {
			return func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			}
		}},
		{name: "timeout", render: func(release <-chan struct{}) http.HandlerFunc {
			return func(w http.ResponseWriter, r *http.Request) {
				select {
				case <-r.Context().Done():
				case <-release:
				}
			}
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			release := make(chan struct{})
			f := newAPIFixture(t, tt.render(release))
			// Runs before the renderer's Close so a blocked handler cannot stall cleanup.
			t.Cleanup(func() { close(release) })
			requireError(t, f.do(t, "/mensa/"+f.mensaID+"/layout", ""), http.StatusServiceUnavailable, "LAYOUT_UNAVAILABLE")
		})
	}
}

func TestGetMensaLayout_MissingMensaIs404(t *testing.T) {
	t.Parallel()
	f := newAPIFixture(t, svgRenderer)

	requireError(t, f.do(t, "/mensa/"+uuid.NewString()+"/layout", ""), http.StatusNotFound, "MENSA_NOT_FOUND")
}

func TestGetMe(t *testing.T) {
	t.Parallel()
	f := newAPIFixture(t, svgRenderer)

	rec := f.do(t, "/users/me", f.aliceSub)
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}
	if u := decode[User](t, rec); u.DisplayName != "Alice" {
		t.Fatalf("user=%+v", u)
	}

	requireError(t, f.do(t, "/users/me", ""), http.StatusUnauthorized, codeUnauthorized)
	requireError(t, f.do(t, "/users/me", "sub-stranger"), http.StatusUnauthorized, codeUserNotProvisioned)
}

func TestListMyGroups(t *testing.T) {
	t.Parallel()
	f := newAPIFixture(t, svgRenderer)

	alice := decode[ListGroupsResponse](t, f.do(t, "/groups", f.aliceSub))
	if len(alice.Groups) != 2 || alice.Groups[0].Name != "Alice only" {
		t.Fatalf("alice groups=%+v", alice.Groups)
	}
	bob := decode[ListGroupsResponse](t, f.do(t, "/groups", f.bobSub))
	if len(bob.Groups) != 1 || bob.Groups[0].Id != f.groupID {
		t.Fatalf("bob groups=%+v", bob.Groups)
	}
}

func TestGetGroup(t *testing.T) {
	t.Parallel()
	f := newAPIFixture(t, svgRenderer)

	rec := f.do(t, "/groups/"+f.groupID, f.bobSub)
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}
	if g := decode[Group](t, rec); g.Id != f.groupID || len(g.Members) != 2 {
		t.Fatalf("group=%+v", g)
	}

	requireError(t, f.do(t, "/groups/"+f.otherID, f.bobSub), http.StatusForbidden, "NOT_GROUP_MEMBER")
	requireError(t, f.do(t, "/groups/"+uuid.NewString(), f.bobSub), http.StatusNotFound, "GROUP_NOT_FOUND")
	requireError(t, f.do(t, "/groups/xyz", f.bobSub), http.StatusBadRequest, codeInvalidParameter)
	requireError(t, f.do(t, "/groups/"+f.groupID, ""), http.StatusUnauthorized, codeUnauthorized)
}

func TestGetGroupSession(t *testing.T) {
	t.Parallel()
	f := newAPIFixture(t, svgRenderer)

	rec := f.do(t, "/groups/"+f.groupID+"/session", f.aliceSub)
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}
	s := decode[Session](t, rec)
	if s.GroupId != f.groupID || s.MensaId != f.mensaID {
		t.Fatalf("session=%+v", s)
	}
	if !s.End.IsNull() {
		t.Fatalf("open-ended session should encode end as null")
	}
	if tid, err := s.TableId.Get(); err != nil || tid == "" {
		t.Fatalf("tableId=%q err=%v", tid, err)
	}

	requireError(t, f.do(t, "/groups/"+f.otherID+"/session", f.aliceSub), http.StatusNotFound, "NO_ACTIVE_SESSION")
	requireError(t, f.do(t, "/groups/"+f.otherID+"/session", f.bobSub), http.StatusForbidden, "NOT_GROUP_MEMBER")
}

func TestRouter_NoAuthConfiguredDeniesProtectedRoutes(t *testing.T) {
	t.Parallel()

	h := NewRouter(NewServer(nil, nil, nil, nil))
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/groups", nil)
	req.Header.Set("X-Debug-Subject", "sub-alice")
	h.ServeHTTP(rec, req)
	requireError(t, rec, http.StatusUnauthorized, codeUnauthorized)
}

func TestRouter_UnknownRoute(t *testing.T) {
	t.Parallel()
	f := newAPIFixture(t, svgRenderer)

	requireError(t, f.do(t, "/nope", ""), http.StatusNotFound, "NOT_FOUND")
}
