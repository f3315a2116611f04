// Package auth resolves API keys to caller identities. Storefront keys are
// bound to a customer; admin console keys carry the admin scope instead.
package auth

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"

	"github.com/go-faster/errors"
)

// ScopeAdmin marks keys issued to the admin console.
const ScopeAdmin = "admin"

// ErrUnauthorized is returned for missing, unknown, or inactive keys.
var ErrUnauthorized = errors.New("unauthorized")

// Identity is the resolved caller of an authenticated request.
type Identity struct {
	KeyID      int64
	KeyHash    string
	Name       string
	CustomerID *int64
	Scopes     []string
}

// IsAdmin reports whether the identity carries the admin scope.
func (id *Identity) IsAdmin() bool {
	for _, s := range id.Scopes {
		if s == ScopeAdmin {
			return true
		}
	}
	return false
}

// Repository provides lookup of active API keys by their HMAC-SHA256 hash.
type Repository interface {
	FindByHash(ctx context.Context, hash string) (*Identity, error)
}

// HashKey computes the hex HMAC-SHA256 of an API key under the pepper.
// Keys are stored and looked up by this hash only.
func HashKey(key string, pepper []byte) string {
	mac := hmac.New(sha256.New, pepper)
	mac.Write([]byte(key))
	return hex.EncodeToString(mac.Sum(nil))
}

// Authenticator validates presented API keys against the repository.
type Authenticator struct {
	keys   Repository
	pepper []byte
}

// NewAuthenticator creates an Authenticator with the given key repository
// and HMAC pepper.
func NewAuthenticator(keys Repository, pepper []byte) *Authenticator {
	return &Authenticator{keys: keys, pepper: pepper}
}

// Authenticate resolves a raw API key to its identity. The stored hash is
// compared in constant time to guard against timing side-channels.
func (a *Authenticator) Authenticate(ctx context.Context, key string) (*Identity, error) {
	if key == "" {
		return nil, ErrUnauthorized
	}

	hash := HashKey(key, a.pepper)
	id, err := a.keys.FindByHash(ctx, hash)
	if err != nil {
		return nil, ErrUnauthorized
	}

	stored, err := hex.DecodeString(id.KeyHash)
	if err != nil {
		return nil, ErrUnauthorized
	}
	computed, _ := hex.DecodeString(hash)
	if subtle.ConstantTimeCompare(computed, stored) != 1 {
		return nil, ErrUnauthorized
	}
	return id, nil
}
