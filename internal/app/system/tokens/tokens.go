// Package tokens generates registration tokens for homebuyer invitations.
package tokens

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
)

const (
	// TokenBytes is the length of a registration token in bytes
	// (32 bytes = 64 hex chars).
	TokenBytes = 32

	// TokenLength is the length of a registration token as stored and
	// sent in invitation links.
	TokenLength = 64

	// maxAttempts bounds the collision retry loop in NewUnique.
	maxAttempts = 10
)

// ErrExhausted is returned when NewUnique cannot find an unused token.
// With 256 bits of randomness this indicates a broken Taken check, not
// genuine collisions.
var ErrExhausted = errors.New("could not generate a unique token")

// New generates a random 64-character hex registration token.
// Panics if the system's cryptographic random number generator fails.
func New() string {
	b := make([]byte, TokenBytes)
	if _, err := rand.Read(b); err != nil {
		panic("crypto/rand.Read failed: " + err.Error())
	}
	return hex.EncodeToString(b)
}

// NewUnique generates a token that taken reports as unused, retrying on
// collision.
func NewUnique(ctx context.Context, taken func(ctx context.Context, token string) (bool, error)) (string, error) {
	for i := 0; i < maxAttempts; i++ {
		token := New()
		inUse, err := taken(ctx, token)
		if err != nil {
			return "", fmt.Errorf("check token: %w", err)
		}
		if !inUse {
			return token, nil
		}
	}
	return "", ErrExhausted
}
