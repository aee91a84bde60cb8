package contracttest

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/olivezebra/mensa-api/internal/domain"
	grouprepoport "github.com/olivezebra/mensa-api/internal/ports/out/grouprepo"
	mensarepoport "github.com/olivezebra/mensa-api/internal/ports/out/mensarepo"
	sessionrepoport "github.com/olivezebra/mensa-api/internal/ports/out/sessionrepo"
	userrepoport "github.com/olivezebra/mensa-api/internal/ports/out/userrepo"
)

type CleanupFunc = func()

// Each store under test must offer the read port plus the seeding Writer.
type MensaStore interface {
	mensarepoport.Repository
	mensarepoport.Writer
}

type GroupStore interface {
	grouprepoport.Repository
	grouprepoport.Writer
}

type UserStore interface {
	userrepoport.Repository
	userrepoport.Writer
}

type SessionStore interface {
	sessionrepoport.Repository
	sessionrepoport.Writer
}

type MensaRepoFactory func(t *testing.T) (MensaStore, CleanupFunc)
type GroupRepoFactory func(t *testing.T) (GroupStore, CleanupFunc)
type UserRepoFactory func(t *testing.T) (UserStore, CleanupFunc)
type SessionRepoFactory func(t *testing.T) (SessionStore, CleanupFunc)

func newID() string { return uuid.NewString() }

func RunMensaRepo(t *testing.T, newRepo MensaRepoFactory) {
	t.Helper()
	ctx := context.Background()

	repo, cleanup := newRepo(t)
	if cleanup != nil {
		t.Cleanup(cleanup)
	}

	if _, err := repo.GetByID(ctx, domain.MensaID(newID())); !errors.Is(err, mensarepoport.ErrNotFound) {
		t.Fatalf("GetByID(missing) err=%v, want ErrNotFound", err)
	}

	poly := domain.Mensa{
		ID:     domain.MensaID(newID()),
		Name:   "Polymensa",
		X:      10,
		Y:      20,
		Width:  100,
		Height: 50,
		Tables: []domain.Table{
			{ID: domain.TableID(newID()), X: 1, Y: 1, Width: 2, Height: 1, Seats: 4},
			{ID: domain.TableID(newID()), X: 4, Y: 1, Width: 2, Height: 1, Seats: 6},
		},
	}
	alumni := domain.Mensa{
		ID:     domain.MensaID(newID()),
		Name:   "alumni lounge",
		X:      0,
		Y:      0,
		Width:  30,
		Height: 30,
	}
	for _, m := range []domain.Mensa{poly, alumni} {
		if err := repo.Save(ctx, m); err != nil {
			t.Fatalf("Save(%s): %v", m.Name, err)
		}
	}

	got, err := repo.GetByID(ctx, poly.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Name != poly.Name || got.X != 10 || got.Y != 20 || got.Width != 100 || got.Height != 50 {
		t.Fatalf("unexpected mensa: %+v", got)
	}
	if !sameTables(got.Tables, poly.Tables) {
		t.Fatalf("tables=%+v, want %+v", got.Tables, poly.Tables)
	}

	// Deterministic list ordering by name (case-insensitive).
	ms, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	idx := map[domain.MensaID]int{}
	for i, m := range ms {
		idx[m.ID] = i
	}
	ia, okA := idx[alumni.ID]
	ip, okP := idx[poly.ID]
	if !okA || !okP || ia > ip {
		t.Fatalf("unexpected ordering: %#v", ms)
	}

	// Save replaces the table set.
	poly.Tables = poly.Tables[:1]
	poly.Name = "Polymensa (renovated)"
	if err := repo.Save(ctx, poly); err != nil {
		t.Fatalf("Save overwrite: %v", err)
	}
	got, err = repo.GetByID(ctx, poly.ID)
	if err != nil || got.Name != poly.Name || !sameTables(got.Tables, poly.Tables) {
		t.Fatalf("after overwrite got=%+v err=%v", got, err)
	}
}

func RunGroupRepo(t *testing.T, newRepo GroupRepoFactory) {
	t.Helper()
	ctx := context.Background()

	repo, cleanup := newRepo(t)
	if cleanup != nil {
		t.Cleanup(cleanup)
	}

	if _, err := repo.GetByID(ctx, domain.GroupID(newID())); !errors.Is(err, grouprepoport.ErrNotFound) {
		t.Fatalf("GetByID(missing) err=%v, want ErrNotFound", err)
	}

	u1 := domain.UserID(newID())
	u2 := domain.UserID(newID())
	u3 := domain.UserID(newID())
	now := time.Unix(1000, 0).UTC()

	lunch := domain.Group{ID: domain.GroupID(newID()), Name: "Lunch", CreatedAt: now, Members: []domain.UserID{u1, u2}}
	coffee := domain.Group{ID: domain.GroupID(newID()), Name: "coffee", CreatedAt: now, Members: []domain.UserID{u2}}
	empty := domain.Group{ID: domain.GroupID(newID()), Name: "Empty", CreatedAt: now}
	for _, g := range []domain.Group{lunch, coffee, empty} {
		if err := repo.Save(ctx, g); err != nil {
			t.Fatalf("Save(%s): %v", g.Name, err)
		}
	}

	got, err := repo.GetByID(ctx, lunch.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Name != "Lunch" || !got.CreatedAt.Equal(now) || !sameMembers(got.Members, lunch.Members) {
		t.Fatalf("unexpected group: %+v", got)
	}
	if got, err := repo.GetByID(ctx, empty.ID); err != nil || len(got.Members) != 0 {
		t.Fatalf("empty group got=%+v err=%v", got, err)
	}

	gs, err := repo.ListForUser(ctx, u2)
	if err != nil {
		t.Fatalf("ListForUser: %v", err)
	}
	if len(gs) != 2 || gs[0].ID != coffee.ID || gs[1].ID != lunch.ID {
		t.Fatalf("ListForUser(u2)=%#v, want [coffee lunch]", gs)
	}
	if gs, err := repo.ListForUser(ctx, u3); err != nil || len(gs) != 0 {
		t.Fatalf("ListForUser(u3)=%#v err=%v, want empty", gs, err)
	}

	// Save replaces the member set.
	lunch.Members = []domain.UserID{u3}
	if err := repo.Save(ctx, lunch); err != nil {
		t.Fatalf("Save overwrite: %v", err)
	}
	got, err = repo.GetByID(ctx, lunch.ID)
	if err != nil || !sameMembers(got.Members, []domain.UserID{u3}) {
		t.Fatalf("after overwrite got=%+v err=%v", got, err)
	}
	if gs, _ := repo.ListForUser(ctx, u1); len(gs) != 0 {
		t.Fatalf("u1 should have lost membership, got %#v", gs)
	}
}

func RunUserRepo(t *testing.T, newRepo UserRepoFactory) {
	t.Helper()
	ctx := context.Background()

	repo, cleanup := newRepo(t)
	if cleanup != nil {
		t.Cleanup(cleanup)
	}

	alice := domain.User{
		ID:          domain.UserID(newID()),
		Subject:     domain.SubjectID("sub-" + newID()),
		DisplayName: "Alice Johnson",
		Email:       "alice@example.com",
	}
	if err := repo.Save(ctx, alice); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if got, err := repo.GetByID(ctx, alice.ID); err != nil || got != alice {
		t.Fatalf("GetByID got=%+v err=%v", got, err)
	}
	if got, err := repo.GetBySubject(ctx, alice.Subject); err != nil || got.ID != alice.ID {
		t.Fatalf("GetBySubject got=%+v err=%v", got, err)
	}
	if _, err := repo.GetBySubject(ctx, "sub-unknown"); !errors.Is(err, userrepoport.ErrNotFound) {
		t.Fatalf("GetBySubject(unknown) err=%v, want ErrNotFound", err)
	}
	if _, err := repo.GetByID(ctx, domain.UserID(newID())); !errors.Is(err, userrepoport.ErrNotFound) {
		t.Fatalf("GetByID(unknown) err=%v, want ErrNotFound", err)
	}

	// Subject uniqueness.
	mallory := domain.User{
		ID:          domain.UserID(newID()),
		Subject:     alice.Subject,
		DisplayName: "Mallory",
		Email:       "mallory@example.com",
	}
	if err := repo.Save(ctx, mallory); !errors.Is(err, userrepoport.ErrSubjectAlreadyBound) {
		t.Fatalf("Save(dup subject) err=%v, want ErrSubjectAlreadyBound", err)
	}

	// Re-saving the same user updates it in place.
	alice.DisplayName = "Alice J."
	if err := repo.Save(ctx, alice); err != nil {
		t.Fatalf("Save update: %v", err)
	}
	if got, _ := repo.GetBySubject(ctx, alice.Subject); got.DisplayName != "Alice J." {
		t.Fatalf("update not visible: %+v", got)
	}
}

func RunSessionRepo(t *testing.T, newRepo SessionRepoFactory) {
	t.Helper()
	ctx := context.Background()

	repo, cleanup := newRepo(t)
	if cleanup != nil {
		t.Cleanup(cleanup)
	}

	group := domain.GroupID(newID())
	other := domain.GroupID(newID())
	mensa := domain.MensaID(newID())
	table := domain.TableID(newID())

	if ss, err := repo.ListByGroup(ctx, group); err != nil || len(ss) != 0 {
		t.Fatalf("ListByGroup(empty)=%#v err=%v", ss, err)
	}

	t0 := time.Unix(10_000, 0).UTC()
	end := t0.Add(time.Hour)
	early := domain.Session{ID: domain.SessionID(newID()), GroupID: group, MensaID: mensa, Start: t0, End: &end}
	late := domain.Session{ID: domain.SessionID(newID()), GroupID: group, MensaID: mensa, TableID: &table, Start: t0.Add(24 * time.Hour)}
	foreign := domain.Session{ID: domain.SessionID(newID()), GroupID: other, MensaID: mensa, Start: t0}
	for _, s := range []domain.Session{late, foreign, early} {
		if err := repo.Save(ctx, s); err != nil {
			t.Fatalf("Save: %v", err)
		}
	}

	ss, err := repo.ListByGroup(ctx, group)
	if err != nil {
		t.Fatalf("ListByGroup: %v", err)
	}
	if len(ss) != 2 || ss[0].ID != early.ID || ss[1].ID != late.ID {
		t.Fatalf("ListByGroup=%#v, want [early late]", ss)
	}
	if ss[0].End == nil || !ss[0].End.Equal(end) || ss[0].TableID != nil {
		t.Fatalf("early session fields lost: %+v", ss[0])
	}
	if ss[1].End != nil || ss[1].TableID == nil || *ss[1].TableID != table || !ss[1].Start.Equal(late.Start) {
		t.Fatalf("late session fields lost: %+v", ss[1])
	}
}

func sameTables(a, b []domain.Table) bool {
	if len(a) != len(b) {
		return false
	}
	ac := append([]domain.Table(nil), a...)
	bc := append([]domain.Table(nil), b...)
	sort.Slice(ac, func(i, j int) bool { return ac[i].ID < ac[j].ID })
	sort.Slice(bc, func(i, j int) bool { return bc[i].ID < bc[j].ID })
	for i := range ac {
		if ac[i] != bc[i] {
			return false
		}
	}
	return true
}

func sameMembers(a, b []domain.UserID) bool {
	if len(a) != len(b) {
		return false
	}
	set := make(map[domain.UserID]int, len(a))
	for _, u := range a {
		set[u]++
	}
	for _, u := range b {
		set[u]--
		if set[u] < 0 {
			return false
		}
	}
	return true
}
