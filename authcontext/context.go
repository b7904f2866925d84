package authcontext

import "context"

const (
	// Anonymous is the subject of a visitor who has not signed in.
	Anonymous = "system:anonymous"
)

type contextKeySubject struct{}

// GetSubject returns the acting subject stored in ctx, or Anonymous.
func GetSubject(ctx context.Context) string {
	subject, ok := ctx.Value(contextKeySubject{}).(string)
	if !ok || subject == "" {
		return Anonymous
	}

	return subject
}

func IsAnonymous(ctx context.Context) bool {
	return GetSubject(ctx) == Anonymous
}

func WithSubject(ctx context.Context, subject string) context.Context {
	return context.WithValue(ctx, contextKeySubject{}, subject)
}
