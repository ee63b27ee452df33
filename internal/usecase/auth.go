package usecase

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
	googleoauth2 "google.golang.org/api/oauth2/v2"

	"github.com/witthawin/mediverse-api/internal/model"
	"github.com/witthawin/mediverse-api/internal/repository"
	"github.com/witthawin/mediverse-api/internal/security"
	"github.com/witthawin/mediverse-api/internal/validation"
)

// AuthUsecase defines the interface for authentication-related use cases.
type AuthUsecase interface {
	Register(ctx context.Context, params RegisterParams) (*model.User, error)
	Login(ctx context.Context, params LoginParams) (*model.User, error)
	LoginWithGoogle(ctx context.Context, code string) (*model.User, error)
	CheckUsername(ctx context.Context, username string) (*UsernameCheck, error)
}

// GoogleProvider is the slice of the Google OAuth provider the usecase
// depends on.
type GoogleProvider interface {
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (*oauth2.Token, error)
	ValidateIDToken(ctx context.Context, idToken string) (*googleoauth2.Tokeninfo, error)
	UserInfo(ctx context.Context, token *oauth2.Token) (*googleoauth2.Userinfo, error)
}

// WelcomeMailer sends the post-registration welcome email.
type WelcomeMailer interface {
	SendWelcome(to, username string) error
}

// RegisterParams defines the parameters for user registration.
type RegisterParams struct {
	Username string
	Email    string
	Password string
}

// LoginParams defines the parameters for credential sign-in. The identifier
// matches either a username or an email.
type LoginParams struct {
	Identifier string
	Password   string
}

// UsernameCheck is the result of a username availability query.
type UsernameCheck struct {
	Available bool
	Reason    string
}

var (
	ErrUsernameTaken   = errors.New("username already taken")
	ErrEmailTaken      = errors.New("email already registered")
	ErrUserNotFound    = errors.New("no user found with this email or username")
	ErrInvalidPassword = errors.New("invalid password")
	ErrNoLinkedAccount = errors.New("no account registered for this google email")
	ErrUnverifiedEmail = errors.New("google account email is not verified")
	ErrMissingIDToken  = errors.New("missing id token in provider response")
)

type authUsecase struct {
	userRepo repository.UserRepository
	validate *validation.Validator
	google   GoogleProvider
	mailer   WelcomeMailer
	logger   *zerolog.Logger
}

// NewAuthUsecase creates an AuthUsecase. The Google provider and the mailer
// are optional; a nil provider disables federated sign-in and a nil mailer
// skips the welcome email.
func NewAuthUsecase(
	userRepo repository.UserRepository,
	validate *validation.Validator,
	google GoogleProvider,
	mailer WelcomeMailer,
	logger *zerolog.Logger,
) AuthUsecase {
	return &authUsecase{
		userRepo: userRepo,
		validate: validate,
		google:   google,
		mailer:   mailer,
		logger:   logger,
	}
}

// Register validates the input, rejects duplicates, hashes the password, and
// persists the new user. The existence pre-checks only pick the right error
// message; two racing registrations are arbitrated by the store's unique
// indexes at insert time.
func (u *authUsecase) Register(ctx context.Context, params RegisterParams) (*model.User, error) {
	username := strings.TrimSpace(params.Username)
	email := strings.ToLower(strings.TrimSpace(params.Email))

	if _, err := u.userRepo.GetUserByUsername(ctx, username); err == nil {
		return nil, ErrUsernameTaken
	} else if !errors.Is(err, repository.ErrUserNotFound) {
		return nil, err
	}

	if _, err := u.userRepo.GetUserByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, repository.ErrUserNotFound) {
		return nil, err
	}

	passwordHash, err := security.HashPassword(params.Password)
	if err != nil {
		return nil, err
	}

	user, err := u.userRepo.CreateUser(ctx, &model.User{
		Username:      username,
		Email:         email,
		PasswordHash:  passwordHash,
		Favorites:     model.NewFavorites(),
		SearchHistory: []model.Search{},
	})
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicateUsername):
			return nil, ErrUsernameTaken
		case errors.Is(err, repository.ErrDuplicateEmail):
			return nil, ErrEmailTaken
		default:
			return nil, err
		}
	}

	if u.mailer != nil {
		if err := u.mailer.SendWelcome(user.Email, user.Username); err != nil {
			u.logger.Error().Err(err).Str("email", user.Email).Msg("failed to send welcome email")
		}
	}

	return user, nil
}

// Login verifies an identifier and password against the credential store and
// returns the matching user.
func (u *authUsecase) Login(ctx context.Context, params LoginParams) (*model.User, error) {
	user, err := u.userRepo.GetUserByIdentifier(ctx, strings.TrimSpace(params.Identifier))
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}

		return nil, err
	}

	if ok, err := security.VerifyPassword(params.Password, user.PasswordHash); err != nil {
		return nil, err
	} else if !ok {
		return nil, ErrInvalidPassword
	}

	return user, nil
}

// LoginWithGoogle exchanges the callback code, verifies the ID token was
// issued for this OAuth client, and links the federated profile to a local
// account by verified email. Accounts are never auto-provisioned; an unknown
// email must sign up first.
func (u *authUsecase) LoginWithGoogle(ctx context.Context, code string) (*model.User, error) {
	token, err := u.google.Exchange(ctx, code)
	if err != nil {
		return nil, err
	}

	idToken, _ := token.Extra("id_token").(string)
	if idToken == "" {
		return nil, ErrMissingIDToken
	}

	if _, err := u.google.ValidateIDToken(ctx, idToken); err != nil {
		return nil, err
	}

	info, err := u.google.UserInfo(ctx, token)
	if err != nil {
		return nil, err
	}

	if info.VerifiedEmail == nil || !*info.VerifiedEmail {
		return nil, ErrUnverifiedEmail
	}

	user, err := u.userRepo.GetUserByEmail(ctx, strings.ToLower(info.Email))
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrNoLinkedAccount
		}

		return nil, err
	}

	return user, nil
}

// CheckUsername validates the candidate's format and, only when the format is
// acceptable, queries the store for an existing record. It is a read-only,
// idempotent operation.
func (u *authUsecase) CheckUsername(ctx context.Context, username string) (*UsernameCheck, error) {
	username = strings.TrimSpace(username)

	if err := u.validate.Username(username); err != nil {
		return &UsernameCheck{Available: false, Reason: err.Error()}, nil
	}

	_, err := u.userRepo.GetUserByUsername(ctx, username)
	if err == nil {
		return &UsernameCheck{Available: false, Reason: "Username already taken"}, nil
	}
	if !errors.Is(err, repository.ErrUserNotFound) {
		return nil, err
	}

	return &UsernameCheck{Available: true, Reason: "Username is unique"}, nil
}
