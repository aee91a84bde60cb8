package apperr

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindOf_WrappedError(t *testing.T) {
	t.Parallel()

	base := Forbidden(CodeNotGroupMember, "User is not in group")
	wrapped := fmt.Errorf("get group: %w", base)

	k, ok := KindOf(wrapped)
	if !ok || k != KindForbidden {
		t.Fatalf("KindOf()=(%v,%v), want (%v,true)", k, ok, KindForbidden)
	}
	if !Is(wrapped, KindForbidden) || Is(wrapped, KindNotFound) {
		t.Fatalf("Is() mismatch for %v", wrapped)
	}
}

func TestKindOf_PlainError(t *testing.T) {
	t.Parallel()

	if _, ok := KindOf(errors.New("boom")); ok {
		t.Fatalf("expected ok=false for unclassified error")
	}
	if _, ok := KindOf(nil); ok {
		t.Fatalf("expected ok=false for nil")
	}
}

func TestRenderUnavailable_UnwrapsCause(t *testing.T) {
	t.Parallel()

	cause := errors.New("dial tcp: connection refused")
	err := RenderUnavailable(CodeLayoutUnavailable, "Failed to render layout svg", cause)
	if !errors.Is(err, cause) {
		t.Fatalf("expected cause to be reachable via errors.Is")
	}
	if err.Error() != "Failed to render layout svg" {
		t.Fatalf("Error()=%q", err.Error())
	}
}

func TestKind_String(t *testing.T) {
	t.Parallel()

	cases := map[Kind]string{
		KindNotFound:          "not_found",
		KindForbidden:         "forbidden",
		KindRenderUnavailable: "render_unavailable",
		Kind(0):               "unknown",
	}
	for k, want := range cases {
		if got := k.String(); got != want {
			t.Fatalf("Kind(%d).String()=%q, want %q", int(k), got, want)
		}
	}
}
