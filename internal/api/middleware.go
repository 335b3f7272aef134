// Package api implements the notekeeper REST API using chi.
package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/starford/notekeeper/internal/store"
)

type sessionKey struct{}

// SessionMiddleware acquires one scoped store connection per request and
// releases it once the handler returns, whatever the outcome. Handlers reach
// it through notesFrom.
func SessionMiddleware(open store.Opener) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, err := open(r.Context())
			if err != nil {
				internalError(w, "acquire session failed", err)
				return
			}
			defer func() {
				if err := sess.Close(); err != nil {
					slog.Warn("release session failed", slog.String("error", err.Error()))
				}
			}()
			ctx := context.WithValue(r.Context(), sessionKey{}, store.Notes(sess))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// notesFrom returns the request-scoped store. It panics when the route was
// registered without SessionMiddleware, which is a wiring bug.
func notesFrom(r *http.Request) store.Notes {
	n, ok := r.Context().Value(sessionKey{}).(store.Notes)
	if !ok {
		panic("api: no store session in request context")
	}
	return n
}
