// Package session issues and validates stateless signed session tokens and
// manages their transport as HTTP cookies.
package session

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/witthawin/mediverse-api/internal/config"
	"github.com/witthawin/mediverse-api/internal/model"
)

const issuer = "mediverse"

// Claims is the snapshot of the authenticated user embedded in the session
// token. Favorites and search history reflect the state at issuance time and
// refresh only when a new token is issued.
type Claims struct {
	UserID        string          `json:"id"`
	Email         string          `json:"email"`
	Username      string          `json:"username"`
	Favorites     model.Favorites `json:"favorites"`
	SearchHistory []model.Search  `json:"searchHistory"`
	jwt.RegisteredClaims
}

var (
	// ErrNoSession is returned when the request carries no session cookie.
	ErrNoSession = errors.New("no session cookie")

	// ErrInvalidSession is returned when the session token fails validation.
	ErrInvalidSession = errors.New("invalid session token")
)

// Manager signs session claims into HS256 tokens and reads them back from
// request cookies. Validation is self-contained; no store lookup is involved.
type Manager struct {
	secret       string
	ttl          time.Duration
	cookieName   string
	cookieDomain string
	secure       bool
}

// NewManager creates a session Manager from the service configuration.
func NewManager(cfg *config.Config) *Manager {
	return &Manager{
		secret:       cfg.SessionSecret,
		ttl:          cfg.SessionTTL,
		cookieName:   cfg.CookieName,
		cookieDomain: cfg.CookieDomain,
		secure:       cfg.IsProduction(),
	}
}

// Issue signs a fresh session token for the given user.
func (m *Manager) Issue(user *model.User) (string, error) {
	return m.sign(&Claims{
		UserID:        user.ID.Hex(),
		Email:         user.Email,
		Username:      user.Username,
		Favorites:     user.Favorites,
		SearchHistory: user.SearchHistory,
	})
}

// Reissue signs a new token carrying the same identity snapshot as the given
// claims, restarting the validity window.
func (m *Manager) Reissue(claims *Claims) (string, error) {
	return m.sign(&Claims{
		UserID:        claims.UserID,
		Email:         claims.Email,
		Username:      claims.Username,
		Favorites:     claims.Favorites,
		SearchHistory: claims.SearchHistory,
	})
}

func (m *Manager) sign(claims *Claims) (string, error) {
	now := time.Now()
	claims.RegisteredClaims = jwt.RegisteredClaims{
		Issuer:    issuer,
		Audience:  jwt.ClaimStrings{issuer},
		Subject:   claims.UserID,
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	tokenStr, err := token.SignedString([]byte(m.secret))
	if err != nil {
		return "", err
	}

	return tokenStr, nil
}

// Validate parses and verifies a session token and returns its claims.
func (m *Manager) Validate(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}

		return []byte(m.secret), nil
	},
		jwt.WithExpirationRequired(),
		jwt.WithAudience(issuer),
		jwt.WithIssuer(issuer),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSession, err)
	}

	if !token.Valid {
		return nil, ErrInvalidSession
	}

	return claims, nil
}

// FromRequest reads the session cookie from the request and validates it.
func (m *Manager) FromRequest(r *http.Request) (*Claims, error) {
	cookie, err := r.Cookie(m.cookieName)
	if err != nil {
		return nil, ErrNoSession
	}

	return m.Validate(cookie.Value)
}

// Write stores the session token as an HTTP-only, same-site-restricted cookie
// scoped to the whole application path.
func (m *Manager) Write(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     m.cookieName,
		Value:    token,
		Path:     "/",
		Domain:   m.cookieDomain,
		MaxAge:   int(m.ttl.Seconds()),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Clear expires the session cookie.
func (m *Manager) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     m.cookieName,
		Value:    "",
		Path:     "/",
		Domain:   m.cookieDomain,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
}
