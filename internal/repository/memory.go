package repository

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/witthawin/mediverse-api/internal/model"
)

// InMemoryUserRepository is a map-backed UserRepository used in tests. It
// enforces the same uniqueness rules as the MongoDB implementation.
type InMemoryUserRepository struct {
	mu    sync.RWMutex
	users map[bson.ObjectID]*model.User

	// Lookups counts read queries, letting tests assert that format-invalid
	// input never reaches the store.
	Lookups int
}

// NewInMemoryUserRepository creates an empty in-memory user repository.
func NewInMemoryUserRepository() *InMemoryUserRepository {
	return &InMemoryUserRepository{users: make(map[bson.ObjectID]*model.User)}
}

func (r *InMemoryUserRepository) CreateUser(_ context.Context, user *model.User) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.users {
		if existing.Username == user.Username {
			return nil, ErrDuplicateUsername
		}
		if existing.Email == user.Email {
			return nil, ErrDuplicateEmail
		}
	}

	now := time.Now()
	user.ID = bson.NewObjectID()
	user.CreatedAt = now
	user.UpdatedAt = now

	clone := *user
	r.users[user.ID] = &clone

	return user, nil
}

func (r *InMemoryUserRepository) GetUserByUsername(_ context.Context, username string) (*model.User, error) {
	return r.find(func(u *model.User) bool { return u.Username == username })
}

func (r *InMemoryUserRepository) GetUserByEmail(_ context.Context, email string) (*model.User, error) {
	return r.find(func(u *model.User) bool { return u.Email == email })
}

func (r *InMemoryUserRepository) GetUserByIdentifier(_ context.Context, identifier string) (*model.User, error) {
	email := strings.ToLower(identifier)
	return r.find(func(u *model.User) bool { return u.Username == identifier || u.Email == email })
}

func (r *InMemoryUserRepository) find(match func(*model.User) bool) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.Lookups++

	for _, u := range r.users {
		if match(u) {
			clone := *u
			return &clone, nil
		}
	}

	return nil, ErrUserNotFound
}
