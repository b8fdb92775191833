// Package actor carries the caller's user id through a request.
//
// Authentication happens upstream (the identity provider's gateway).
// The gateway forwards the verified user id in the X-User-ID header;
// this package only reads it. Nothing here validates credentials.
package actor

import (
	"context"
	"net/http"
	"strings"
)

// Header is the request header the gateway sets with the verified user id.
const Header = "X-User-ID"

type contextKey struct{}

// WithID returns a copy of ctx carrying the actor id.
func WithID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

// FromContext returns the actor id, if any.
func FromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(contextKey{}).(string)
	return id, ok && id != ""
}

// Require rejects requests without an actor id with 401 and stores the id
// in the request context otherwise.
func Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(Header))
		if id == "" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"missing actor","kind":"Unauthorized"}`))
			return
		}
		next.ServeHTTP(w, r.WithContext(WithID(r.Context(), id)))
	})
}
