package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
	googleoauth2 "google.golang.org/api/oauth2/v2"

	"github.com/witthawin/mediverse-api/internal/model"
	"github.com/witthawin/mediverse-api/internal/provider"
	"github.com/witthawin/mediverse-api/internal/repository"
	"github.com/witthawin/mediverse-api/internal/security"
	"github.com/witthawin/mediverse-api/internal/validation"
)

type fakeGoogleProvider struct {
	email       string
	verified    bool
	exchangeErr error
	audienceErr error
	omitIDToken bool

	validatedIDTokens []string
}

func (f *fakeGoogleProvider) AuthCodeURL(state string) string {
	return "https://accounts.google.com/o/oauth2/auth?state=" + state
}

func (f *fakeGoogleProvider) Exchange(_ context.Context, code string) (*oauth2.Token, error) {
	if f.exchangeErr != nil {
		return nil, f.exchangeErr
	}

	token := &oauth2.Token{AccessToken: "access-" + code}
	if f.omitIDToken {
		return token, nil
	}

	return token.WithExtra(map[string]any{"id_token": "id-token-" + code}), nil
}

func (f *fakeGoogleProvider) ValidateIDToken(_ context.Context, idToken string) (*googleoauth2.Tokeninfo, error) {
	f.validatedIDTokens = append(f.validatedIDTokens, idToken)

	if f.audienceErr != nil {
		return nil, f.audienceErr
	}

	return &googleoauth2.Tokeninfo{Audience: "client-id", Email: f.email}, nil
}

func (f *fakeGoogleProvider) UserInfo(_ context.Context, _ *oauth2.Token) (*googleoauth2.Userinfo, error) {
	verified := f.verified
	return &googleoauth2.Userinfo{Email: f.email, VerifiedEmail: &verified}, nil
}

type fakeMailer struct {
	to       []string
	username []string
	err      error
}

func (f *fakeMailer) SendWelcome(to, username string) error {
	f.to = append(f.to, to)
	f.username = append(f.username, username)
	return f.err
}

func newTestUsecase(t *testing.T, repo repository.UserRepository, google GoogleProvider, mailer WelcomeMailer) AuthUsecase {
	t.Helper()

	validate, err := validation.New()
	require.NoError(t, err)

	logger := zerolog.Nop()

	return NewAuthUsecase(repo, validate, google, mailer, &logger)
}

func TestRegister_Success(t *testing.T) {
	t.Parallel()

	repo := repository.NewInMemoryUserRepository()
	uc := newTestUsecase(t, repo, nil, nil)

	user, err := uc.Register(context.Background(), RegisterParams{
		Username: "  alice  ",
		Email:    "Alice@X.COM",
		Password: "secret1",
	})
	require.NoError(t, err)

	assert.False(t, user.ID.IsZero())
	assert.Equal(t, "alice", user.Username, "username is trimmed")
	assert.Equal(t, "alice@x.com", user.Email, "email is lowercase-normalized")
	assert.NotEqual(t, "secret1", user.PasswordHash)

	ok, err := security.VerifyPassword("secret1", user.PasswordHash)
	require.NoError(t, err)
	assert.True(t, ok)

	assert.NotNil(t, user.Favorites.Movies)
	assert.Empty(t, user.Favorites.Movies)
	assert.Empty(t, user.Favorites.Series)
	assert.Empty(t, user.Favorites.Books)
	assert.Empty(t, user.Favorites.Songs)
	assert.Empty(t, user.SearchHistory)
}

func TestRegister_Duplicates(t *testing.T) {
	t.Parallel()

	repo := repository.NewInMemoryUserRepository()
	uc := newTestUsecase(t, repo, nil, nil)

	_, err := uc.Register(context.Background(), RegisterParams{
		Username: "alice", Email: "a@x.com", Password: "secret1",
	})
	require.NoError(t, err)

	_, err = uc.Register(context.Background(), RegisterParams{
		Username: "alice", Email: "other@x.com", Password: "secret1",
	})
	assert.ErrorIs(t, err, ErrUsernameTaken)

	_, err = uc.Register(context.Background(), RegisterParams{
		Username: "bob", Email: "a@x.com", Password: "secret1",
	})
	assert.ErrorIs(t, err, ErrEmailTaken)
}

// racingRepo simulates the window where both existence pre-checks pass but a
// concurrent insert wins the race; the unique index rejects the second write.
type racingRepo struct {
	*repository.InMemoryUserRepository
	createErr error
}

func (r *racingRepo) CreateUser(context.Context, *model.User) (*model.User, error) {
	return nil, r.createErr
}

func TestRegister_InsertConflictBackstop(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		createErr error
		want      error
	}{
		{name: "username index", createErr: repository.ErrDuplicateUsername, want: ErrUsernameTaken},
		{name: "email index", createErr: repository.ErrDuplicateEmail, want: ErrEmailTaken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			repo := &racingRepo{
				InMemoryUserRepository: repository.NewInMemoryUserRepository(),
				createErr:              tt.createErr,
			}
			uc := newTestUsecase(t, repo, nil, nil)

			_, err := uc.Register(context.Background(), RegisterParams{
				Username: "alice", Email: "a@x.com", Password: "secret1",
			})
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestRegister_SendsWelcomeEmail(t *testing.T) {
	t.Parallel()

	mailer := &fakeMailer{}
	uc := newTestUsecase(t, repository.NewInMemoryUserRepository(), nil, mailer)

	_, err := uc.Register(context.Background(), RegisterParams{
		Username: "alice", Email: "a@x.com", Password: "secret1",
	})
	require.NoError(t, err)

	require.Len(t, mailer.to, 1)
	assert.Equal(t, "a@x.com", mailer.to[0])
	assert.Equal(t, "alice", mailer.username[0])
}

func TestRegister_WelcomeEmailFailureIsNotFatal(t *testing.T) {
	t.Parallel()

	mailer := &fakeMailer{err: errors.New("smtp down")}
	uc := newTestUsecase(t, repository.NewInMemoryUserRepository(), nil, mailer)

	_, err := uc.Register(context.Background(), RegisterParams{
		Username: "alice", Email: "a@x.com", Password: "secret1",
	})
	assert.NoError(t, err)
}

func TestLogin(t *testing.T) {
	t.Parallel()

	repo := repository.NewInMemoryUserRepository()
	uc := newTestUsecase(t, repo, nil, nil)

	_, err := uc.Register(context.Background(), RegisterParams{
		Username: "alice", Email: "a@x.com", Password: "secret1",
	})
	require.NoError(t, err)

	tests := []struct {
		name       string
		identifier string
		password   string
		wantErr    error
	}{
		{name: "by username", identifier: "alice", password: "secret1"},
		{name: "by email", identifier: "a@x.com", password: "secret1"},
		{name: "by uppercase email", identifier: "A@X.com", password: "secret1"},
		{name: "wrong password", identifier: "alice", password: "wrong", wantErr: ErrInvalidPassword},
		{name: "unknown identifier", identifier: "nobody", password: "secret1", wantErr: ErrUserNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			user, err := uc.Login(context.Background(), LoginParams{
				Identifier: tt.identifier,
				Password:   tt.password,
			})
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, user, "a rejection never yields a partial result")
				return
			}

			require.NoError(t, err)
			assert.Equal(t, "alice", user.Username)
			assert.Equal(t, "a@x.com", user.Email)
			assert.NotNil(t, user.Favorites.Movies)
			assert.NotNil(t, user.SearchHistory)
		})
	}
}

func TestCheckUsername(t *testing.T) {
	t.Parallel()

	repo := repository.NewInMemoryUserRepository()
	uc := newTestUsecase(t, repo, nil, nil)

	_, err := uc.Register(context.Background(), RegisterParams{
		Username: "alice", Email: "a@x.com", Password: "secret1",
	})
	require.NoError(t, err)

	lookupsBefore := repo.Lookups

	check, err := uc.CheckUsername(context.Background(), "ab")
	require.NoError(t, err)
	assert.False(t, check.Available)
	assert.Contains(t, check.Reason, "at least 3")
	assert.Equal(t, lookupsBefore, repo.Lookups, "format-invalid input must not query the store")

	check, err = uc.CheckUsername(context.Background(), "alice")
	require.NoError(t, err)
	assert.False(t, check.Available)
	assert.Equal(t, "Username already taken", check.Reason)

	check, err = uc.CheckUsername(context.Background(), "bob")
	require.NoError(t, err)
	assert.True(t, check.Available)
	assert.Equal(t, "Username is unique", check.Reason)
}

func TestLoginWithGoogle(t *testing.T) {
	t.Parallel()

	repo := repository.NewInMemoryUserRepository()
	registered := newTestUsecase(t, repo, nil, nil)

	_, err := registered.Register(context.Background(), RegisterParams{
		Username: "alice", Email: "a@x.com", Password: "secret1",
	})
	require.NoError(t, err)

	t.Run("linked email", func(t *testing.T) {
		t.Parallel()

		google := &fakeGoogleProvider{email: "A@x.com", verified: true}
		uc := newTestUsecase(t, repo, google, nil)

		user, err := uc.LoginWithGoogle(context.Background(), "auth-code")
		require.NoError(t, err)
		assert.Equal(t, "alice", user.Username)
		assert.Equal(t, []string{"id-token-auth-code"}, google.validatedIDTokens,
			"the profile must not be trusted before the ID token is verified")
	})

	t.Run("unknown email is not auto-provisioned", func(t *testing.T) {
		t.Parallel()

		uc := newTestUsecase(t, repo, &fakeGoogleProvider{email: "nobody@x.com", verified: true}, nil)

		_, err := uc.LoginWithGoogle(context.Background(), "auth-code")
		assert.ErrorIs(t, err, ErrNoLinkedAccount)
	})

	t.Run("unverified email", func(t *testing.T) {
		t.Parallel()

		uc := newTestUsecase(t, repo, &fakeGoogleProvider{email: "a@x.com", verified: false}, nil)

		_, err := uc.LoginWithGoogle(context.Background(), "auth-code")
		assert.ErrorIs(t, err, ErrUnverifiedEmail)
	})

	t.Run("exchange failure", func(t *testing.T) {
		t.Parallel()

		providerErr := errors.New("provider unavailable")
		uc := newTestUsecase(t, repo, &fakeGoogleProvider{exchangeErr: providerErr}, nil)

		_, err := uc.LoginWithGoogle(context.Background(), "auth-code")
		assert.ErrorIs(t, err, providerErr)
	})

	t.Run("id token for another client", func(t *testing.T) {
		t.Parallel()

		google := &fakeGoogleProvider{
			email:       "a@x.com",
			verified:    true,
			audienceErr: provider.ErrInvalidGoogleAudience,
		}
		uc := newTestUsecase(t, repo, google, nil)

		_, err := uc.LoginWithGoogle(context.Background(), "auth-code")
		assert.ErrorIs(t, err, provider.ErrInvalidGoogleAudience)
	})

	t.Run("missing id token", func(t *testing.T) {
		t.Parallel()

		google := &fakeGoogleProvider{email: "a@x.com", verified: true, omitIDToken: true}
		uc := newTestUsecase(t, repo, google, nil)

		_, err := uc.LoginWithGoogle(context.Background(), "auth-code")
		assert.ErrorIs(t, err, ErrMissingIDToken)
		assert.Empty(t, google.validatedIDTokens)
	})
}
