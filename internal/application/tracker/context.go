package tracker

import "context"

type sessionKey struct{}

// WithSession attaches s to ctx.
func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, s)
}

// FromContext returns the session attached by WithSession and panics when
// there is none. The HTTP server attaches it on every gamification route.
func FromContext(ctx context.Context) *Session {
	s, ok := ctx.Value(sessionKey{}).(*Session)
	if !ok || s == nil {
		panic("tracker: no session in context; open one and attach it with WithSession")
	}
	return s
}
