package model

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// User represents a registered account in the media recommendation system.
// The password is stored only as a bcrypt hash and is never serialized to JSON.
type User struct {
	ID            bson.ObjectID `bson:"_id,omitempty"  json:"id"`
	Username      string        `bson:"username"       json:"username"`
	Email         string        `bson:"email"          json:"email"`
	PasswordHash  string        `bson:"password_hash"  json:"-"`
	Favorites     Favorites     `bson:"favorites"      json:"favorites"`
	SearchHistory []Search      `bson:"search_history" json:"searchHistory"`
	CreatedAt     time.Time     `bson:"created_at"     json:"createdAt"`
	UpdatedAt     time.Time     `bson:"updated_at"     json:"updatedAt"`
}

// Favorites groups the user's saved references to external content entities.
// The referenced documents live in their own collections.
type Favorites struct {
	Movies []bson.ObjectID `bson:"movies" json:"movies"`
	Series []bson.ObjectID `bson:"series" json:"series"`
	Books  []bson.ObjectID `bson:"books"  json:"books"`
	Songs  []bson.ObjectID `bson:"songs"  json:"songs"`
}

// NewFavorites returns an empty Favorites value with non-nil lists so that
// a fresh user serializes with empty arrays rather than nulls.
func NewFavorites() Favorites {
	return Favorites{
		Movies: []bson.ObjectID{},
		Series: []bson.ObjectID{},
		Books:  []bson.ObjectID{},
		Songs:  []bson.ObjectID{},
	}
}
