package server

import (
	"context"
	"errors"
	"net/http"
	"strings"
)

type ctxKey int

const ctxKeyUser ctxKey = iota

var errNoSession = errors.New("no valid session")

func userFromRequest(r *http.Request, store Store) (User, error) {
	auth := r.Header.Get("Authorization")
	token, found := strings.CutPrefix(auth, "Bearer ")
	if !found || token == "" {
		return User{}, errNoSession
	}
	user, err := store.UserFromToken(r.Context(), token)
	if errors.Is(err, ErrNotFound) {
		return User{}, errNoSession
	}
	return user, err
}

// authMiddleware resolves the bearer token to a user and stores it on the
// request context.
func authMiddleware(store Store) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, err := userFromRequest(r, store)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "invalid or missing session token")
				return
			}
			ctx := context.WithValue(r.Context(), ctxKeyUser, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func userFrom(r *http.Request) User {
	return r.Context().Value(ctxKeyUser).(User)
}
