package mensarepo

import (
	"context"
	"testing"

	"github.com/olivezebra/mensa-api/internal/domain"
)

func TestRepo_ReturnsCopies(t *testing.T) {
	t.Parallel()

	r := NewRepo()
	m := domain.Mensa{
		ID:     "m1",
		Name:   "Polymensa",
		Tables: []domain.Table{{ID: "t1", Seats: 4}},
	}
	if err := r.Save(context.Background(), m); err != nil {
		t.Fatalf("Save() err=%v", err)
	}

	// Mutating the caller's slice after Save must not leak into the store.
	m.Tables[0].Seats = 99

	got, err := r.GetByID(context.Background(), "m1")
	if err != nil {
		t.Fatalf("GetByID() err=%v", err)
	}
	if got.Tables[0].Seats != 4 {
		t.Fatalf("stored seats=%d, want 4", got.Tables[0].Seats)
	}

	got.Tables[0].Seats = 7
	again, _ := r.GetByID(context.Background(), "m1")
	if again.Tables[0].Seats != 4 {
		t.Fatalf("returned mensa aliases stored tables")
	}
}

func TestRepo_SaveRequiresID(t *testing.T) {
	t.Parallel()

	if err := NewRepo().Save(context.Background(), domain.Mensa{Name: "x"}); err == nil {
		t.Fatalf("Save() without id err=nil, want error")
	}
}
