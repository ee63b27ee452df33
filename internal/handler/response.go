package handler

import (
	"encoding/json"
	"net/http"

	"github.com/witthawin/mediverse-api/internal/model"
	"github.com/witthawin/mediverse-api/internal/session"
)

// response is the uniform envelope returned by every endpoint.
type response struct {
	Message string       `json:"message"`
	Success bool         `json:"success"`
	User    *userPayload `json:"user,omitempty"`
}

// userPayload is the public-safe projection of a user returned after
// registration and sign-in. The password hash is never included.
type userPayload struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// sessionResponse carries the claims snapshot of the current session.
type sessionResponse struct {
	Success bool        `json:"success"`
	User    sessionUser `json:"user"`
}

type sessionUser struct {
	ID            string          `json:"id"`
	Email         string          `json:"email"`
	Username      string          `json:"username"`
	Favorites     model.Favorites `json:"favorites"`
	SearchHistory []model.Search  `json:"searchHistory"`
}

func newUserPayload(user *model.User) *userPayload {
	return &userPayload{
		ID:       user.ID.Hex(),
		Username: user.Username,
		Email:    user.Email,
	}
}

func newSessionResponse(claims *session.Claims) sessionResponse {
	return sessionResponse{
		Success: true,
		User: sessionUser{
			ID:            claims.UserID,
			Email:         claims.Email,
			Username:      claims.Username,
			Favorites:     claims.Favorites,
			SearchHistory: claims.SearchHistory,
		},
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeMessage(w http.ResponseWriter, status int, message string, success bool) {
	writeJSON(w, status, response{Message: message, Success: success})
}
