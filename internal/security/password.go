// Package security provides password hashing for the credential store.
package security

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// hashCost is the bcrypt work factor applied to new passwords.
const hashCost = 10

// HashPassword hashes a plaintext password with bcrypt. The salt is generated
// per call, so hashing the same password twice yields different hashes.
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), hashCost)
	if err != nil {
		return "", err
	}

	return string(bytes), nil
}

// VerifyPassword reports whether the plaintext password matches the stored
// bcrypt hash. A mismatch is not an error; errors indicate a malformed hash.
func VerifyPassword(password, hash string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	if err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return false, nil
		}

		return false, err
	}

	return true, nil
}
