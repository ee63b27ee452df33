// Package provider integrates external OAuth identity providers.
package provider

import (
	"context"
	"errors"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	googleoauth2 "google.golang.org/api/oauth2/v2"
	"google.golang.org/api/option"
)

// ErrInvalidGoogleAudience is returned when an ID token was issued for a
// different OAuth client.
var ErrInvalidGoogleAudience = errors.New("invalid google audience")

// GoogleOAuthProvider handles the Google authorization-code flow. Google owns
// the authentication UI; this provider only exchanges the callback code and
// fetches the federated profile.
type GoogleOAuthProvider struct {
	clientID    string
	oauthConfig *oauth2.Config
}

// NewGoogleOAuthProvider creates a provider for the given OAuth client.
func NewGoogleOAuthProvider(clientID, clientSecret, redirectURL string) *GoogleOAuthProvider {
	return &GoogleOAuthProvider{
		clientID: clientID,
		oauthConfig: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint:     google.Endpoint,
		},
	}
}

// AuthCodeURL returns the Google consent page URL carrying the given
// anti-forgery state.
func (p *GoogleOAuthProvider) AuthCodeURL(state string) string {
	return p.oauthConfig.AuthCodeURL(state)
}

// Exchange converts the callback authorization code into a token.
func (p *GoogleOAuthProvider) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	return p.oauthConfig.Exchange(ctx, code)
}

// UserInfo fetches the Google profile for an exchanged token.
func (p *GoogleOAuthProvider) UserInfo(ctx context.Context, token *oauth2.Token) (*googleoauth2.Userinfo, error) {
	service, err := googleoauth2.NewService(ctx, option.WithHTTPClient(p.oauthConfig.Client(ctx, token)))
	if err != nil {
		return nil, err
	}

	userInfo, err := service.Userinfo.Get().Do()
	if err != nil {
		return nil, err
	}

	return userInfo, nil
}

// ValidateIDToken verifies a Google ID token and checks that it was issued
// for this OAuth client.
func (p *GoogleOAuthProvider) ValidateIDToken(ctx context.Context, idToken string) (*googleoauth2.Tokeninfo, error) {
	service, err := googleoauth2.NewService(ctx, option.WithoutAuthentication())
	if err != nil {
		return nil, err
	}

	tokenInfoCall := service.Tokeninfo()
	tokenInfoCall.IdToken(idToken)
	tokenInfo, err := tokenInfoCall.Do()
	if err != nil {
		return nil, err
	}

	if tokenInfo.Audience != p.clientID {
		return nil, ErrInvalidGoogleAudience
	}

	return tokenInfo, nil
}
