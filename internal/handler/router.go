// Package handler exposes the authentication API over HTTP.
package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// NewRouter builds the chi router for the auth API. The Google routes are
// registered only when federated sign-in is configured.
func NewRouter(h *AuthHandler, logger *zerolog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(RequestLogger(logger))
	r.Use(chimiddleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Get("/checkNameUnique", h.CheckNameUnique)
		r.Post("/signUp", h.SignUp)
		r.Post("/signIn", h.SignIn)
		r.Post("/signOut", h.SignOut)
		r.Get("/session", h.Session)

		if h.google != nil {
			r.Route("/auth/google", func(r chi.Router) {
				r.Get("/", h.GoogleStart)
				r.Get("/callback", h.GoogleCallback)
			})
		}
	})

	return r
}

// RequestLogger logs one line per completed request.
func RequestLogger(logger *zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			logger.Info().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Dur("duration", time.Since(start)).
				Str("request_id", chimiddleware.GetReqID(r.Context())).
				Msg("request completed")
		})
	}
}
