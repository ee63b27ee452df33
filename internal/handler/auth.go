package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/witthawin/mediverse-api/internal/config"
	"github.com/witthawin/mediverse-api/internal/model"
	"github.com/witthawin/mediverse-api/internal/session"
	"github.com/witthawin/mediverse-api/internal/usecase"
	"github.com/witthawin/mediverse-api/internal/validation"
)

const stateCookieName = "mediverse.oauth-state"

// AuthHandler serves the authentication endpoints.
type AuthHandler struct {
	authUsecase   usecase.AuthUsecase
	sessions      *session.Manager
	google        usecase.GoogleProvider
	validate      *validation.Validator
	secureCookies bool
	logger        *zerolog.Logger
}

// NewAuthHandler creates an AuthHandler. A nil Google provider disables the
// federated sign-in routes.
func NewAuthHandler(
	authUsecase usecase.AuthUsecase,
	sessions *session.Manager,
	google usecase.GoogleProvider,
	validate *validation.Validator,
	cfg *config.Config,
	logger *zerolog.Logger,
) *AuthHandler {
	return &AuthHandler{
		authUsecase:   authUsecase,
		sessions:      sessions,
		google:        google,
		validate:      validate,
		secureCookies: cfg.IsProduction(),
		logger:        logger,
	}
}

type signUpRequest struct {
	Username string `json:"username" validate:"required,min=3,max=30,username"`
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

type signInRequest struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

// CheckNameUnique reports whether a candidate username is available.
// Format-invalid input is rejected without querying the store.
func (h *AuthHandler) CheckNameUnique(w http.ResponseWriter, r *http.Request) {
	username := r.URL.Query().Get("username")

	check, err := h.authUsecase.CheckUsername(r.Context(), username)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to check username")
		writeMessage(w, http.StatusInternalServerError, "Error checking username", false)
		return
	}

	if !check.Available {
		writeMessage(w, http.StatusBadRequest, check.Reason, false)
		return
	}

	writeMessage(w, http.StatusOK, check.Reason, true)
}

// SignUp registers a new user account.
func (h *AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	var req signUpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body", false)
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)

	if req.Username == "" || req.Email == "" || req.Password == "" {
		writeMessage(w, http.StatusBadRequest, "All fields are required", false)
		return
	}

	if err := h.validate.Struct(req); err != nil {
		writeMessage(w, http.StatusBadRequest, err.Error(), false)
		return
	}

	user, err := h.authUsecase.Register(r.Context(), usecase.RegisterParams{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrUsernameTaken):
			writeMessage(w, http.StatusConflict, "Username already taken", false)
		case errors.Is(err, usecase.ErrEmailTaken):
			writeMessage(w, http.StatusConflict, "Email already registered", false)
		default:
			h.logger.Error().Err(err).Msg("failed to register user")
			writeMessage(w, http.StatusInternalServerError, "Internal server error", false)
		}
		return
	}

	writeJSON(w, http.StatusCreated, response{
		Message: "User registered successfully",
		Success: true,
		User:    newUserPayload(user),
	})
}

// SignIn authenticates an identifier and password and issues a session
// cookie. The reason for a rejection is logged but never revealed to the
// caller.
func (h *AuthHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	var req signInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body", false)
		return
	}

	if req.Identifier == "" || req.Password == "" {
		writeMessage(w, http.StatusBadRequest, "Email/Username and password are required", false)
		return
	}

	user, err := h.authUsecase.Login(r.Context(), usecase.LoginParams{
		Identifier: req.Identifier,
		Password:   req.Password,
	})
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrUserNotFound), errors.Is(err, usecase.ErrInvalidPassword):
			h.logger.Warn().Err(err).Msg("sign-in rejected")
			writeMessage(w, http.StatusUnauthorized, "Invalid email/username or password", false)
		default:
			h.logger.Error().Err(err).Msg("failed to sign in user")
			writeMessage(w, http.StatusInternalServerError, "Internal server error", false)
		}
		return
	}

	if !h.issueSession(w, user) {
		return
	}

	writeJSON(w, http.StatusOK, response{
		Message: "Signed in successfully",
		Success: true,
		User:    newUserPayload(user),
	})
}

// SignOut clears the session cookie.
func (h *AuthHandler) SignOut(w http.ResponseWriter, _ *http.Request) {
	h.sessions.Clear(w)
	writeMessage(w, http.StatusOK, "Signed out successfully", true)
}

// Session validates the session cookie and returns the claims snapshot. A
// valid session is re-issued with a fresh validity window on every call;
// claim data still reflects the state at the last authentication.
func (h *AuthHandler) Session(w http.ResponseWriter, r *http.Request) {
	claims, err := h.sessions.FromRequest(r)
	if err != nil {
		writeMessage(w, http.StatusUnauthorized, "Not authenticated", false)
		return
	}

	token, err := h.sessions.Reissue(claims)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to reissue session")
		writeMessage(w, http.StatusInternalServerError, "Internal server error", false)
		return
	}
	h.sessions.Write(w, token)

	writeJSON(w, http.StatusOK, newSessionResponse(claims))
}

// GoogleStart redirects to the Google consent page with an anti-forgery
// state nonce stored in a short-lived cookie.
func (h *AuthHandler) GoogleStart(w http.ResponseWriter, r *http.Request) {
	state := uuid.NewString()

	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    state,
		Path:     "/",
		MaxAge:   600,
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, h.google.AuthCodeURL(state), http.StatusFound)
}

// GoogleCallback completes the federated sign-in. The federated identity is
// linked to a local account by verified email only; unknown emails are told
// to sign up first rather than auto-provisioned.
func (h *AuthHandler) GoogleCallback(w http.ResponseWriter, r *http.Request) {
	if errParam := r.URL.Query().Get("error"); errParam != "" {
		h.logger.Warn().Str("error", errParam).Msg("google sign-in denied")
		writeMessage(w, http.StatusUnauthorized, "Google sign-in was cancelled or failed", false)
		return
	}

	stateCookie, err := r.Cookie(stateCookieName)
	if err != nil || stateCookie.Value == "" || stateCookie.Value != r.URL.Query().Get("state") {
		writeMessage(w, http.StatusBadRequest, "Invalid OAuth state", false)
		return
	}
	h.clearStateCookie(w)

	code := r.URL.Query().Get("code")
	if code == "" {
		writeMessage(w, http.StatusBadRequest, "Missing authorization code", false)
		return
	}

	user, err := h.authUsecase.LoginWithGoogle(r.Context(), code)
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrNoLinkedAccount):
			writeMessage(w, http.StatusForbidden, "No account exists for this Google email. Please sign up first.", false)
		case errors.Is(err, usecase.ErrUnverifiedEmail):
			writeMessage(w, http.StatusForbidden, "Google account email is not verified", false)
		default:
			h.logger.Error().Err(err).Msg("google sign-in failed")
			writeMessage(w, http.StatusInternalServerError, "Internal server error", false)
		}
		return
	}

	if !h.issueSession(w, user) {
		return
	}

	writeJSON(w, http.StatusOK, response{
		Message: "Signed in successfully",
		Success: true,
		User:    newUserPayload(user),
	})
}

// issueSession signs a token for the user and writes the session cookie. It
// reports false when an error response has already been written.
func (h *AuthHandler) issueSession(w http.ResponseWriter, user *model.User) bool {
	token, err := h.sessions.Issue(user)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to issue session")
		writeMessage(w, http.StatusInternalServerError, "Internal server error", false)
		return false
	}
	h.sessions.Write(w, token)

	return true
}

func (h *AuthHandler) clearStateCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}
