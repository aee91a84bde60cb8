package httpapi

import (
	"context"

	"github.com/olivezebra/mensa-api/internal/domain"
)

type subjectKey struct{}

// WithSubject stores the authenticated subject for the handlers behind the auth middleware.
func WithSubject(ctx context.Context, sub domain.SubjectID) context.Context {
	return context.WithValue(ctx, subjectKey{}, sub)
}

func SubjectFromContext(ctx context.Context) (domain.SubjectID, bool) {
	v, ok := ctx.Value(subjectKey{}).(domain.SubjectID)
	return v, ok && v != ""
}
