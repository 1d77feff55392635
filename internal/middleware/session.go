package middleware

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"ticket-storefront/internal/session"
)

type sessionKey struct{}

// SessionMiddleware attaches the browser session's state to each request
type SessionMiddleware struct {
	identity *session.Identity
	registry *session.Registry
}

// NewSessionMiddleware creates a new session middleware
func NewSessionMiddleware(identity *session.Identity, registry *session.Registry) *SessionMiddleware {
	return &SessionMiddleware{identity: identity, registry: registry}
}

// LoadSession issues a session cookie when missing and loads the session state.
func (m *SessionMiddleware) LoadSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := m.identity.Ensure(w, r)
		if err != nil {
			LoggerFromContext(r.Context()).Error("failed to issue session cookie", zap.Error(err))
			WriteError(w, r, http.StatusInternalServerError, "session_error", "Your session could not be started. Please reload the page.")
			return
		}

		state, err := m.registry.GetOrCreate(id)
		if err != nil {
			LoggerFromContext(r.Context()).Error("failed to load session", zap.Error(err))
			WriteError(w, r, http.StatusInternalServerError, "session_error", "Your session could not be started. Please reload the page.")
			return
		}

		ctx := WithSession(r.Context(), state)
		ctx = WithLogger(ctx, LoggerFromContext(ctx).With(zap.String("session_id", shortSessionID(id))))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// WithSession stores state on ctx
func WithSession(ctx context.Context, state *session.State) context.Context {
	return context.WithValue(ctx, sessionKey{}, state)
}

// GetSessionFromContext retrieves the session state from the request context
func GetSessionFromContext(ctx context.Context) *session.State {
	if state, ok := ctx.Value(sessionKey{}).(*session.State); ok {
		return state
	}
	return nil
}

func shortSessionID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// SecureHeaders adds security headers to responses
func SecureHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		// Only set HSTS for HTTPS
		if r.TLS != nil {
			w.Header().Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}

		next.ServeHTTP(w, r)
	})
}
