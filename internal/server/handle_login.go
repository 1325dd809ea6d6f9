package server

import (
	"net/http"
	"strings"
	"unicode/utf8"
)

// LoginRequest is the request body for POST /api/auth/login.
type LoginRequest struct {
	Username string `json:"username"`
}

// LoginResponse carries the identity and bearer token for later requests.
type LoginResponse struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
	Token    string `json:"token"`
}

// handleLogin creates the user on first sight and mints a session token.
// There is no password: a username is an identity claim the same way the
// join link is in a casual game night.
func handleLogin(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req LoginRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		req.Username = strings.TrimSpace(req.Username)
		if utf8.RuneCountInString(req.Username) < 2 {
			writeError(w, http.StatusBadRequest, "username must be at least 2 characters")
			return
		}

		user, token, err := store.LoginUser(r.Context(), req.Username)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		writeJSON(w, http.StatusOK, LoginResponse{
			UserID:   user.ID,
			Username: user.Username,
			Token:    token,
		})
	}
}
