package session

import "context"

type contextKey struct{}

// ContextWith stores the session in the request context. Each request gets
// its own value; nothing session-shaped lives in package state.
func ContextWith(ctx context.Context, sess *Session) context.Context {
	return context.WithValue(ctx, contextKey{}, sess)
}

// FromContext extracts the session from context, nil when anonymous.
func FromContext(ctx context.Context) *Session {
	sess, _ := ctx.Value(contextKey{}).(*Session)
	return sess
}

type restoreFailedKey struct{}

// ContextWithRestoreFailure marks a request whose durable record could not
// be read or parsed. The request proceeds anonymously; handlers surface the
// failure as a warning banner instead of a silent login page.
func ContextWithRestoreFailure(ctx context.Context) context.Context {
	return context.WithValue(ctx, restoreFailedKey{}, true)
}

// RestoreFailed reports whether session restoration failed for this request.
func RestoreFailed(ctx context.Context) bool {
	failed, _ := ctx.Value(restoreFailedKey{}).(bool)
	return failed
}
