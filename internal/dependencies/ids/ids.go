package ids

import (
	"crypto/rand"
	"encoding/base64"

	"github.com/google/uuid"
)

// Generator produces identifiers for new records and sessions
type Generator interface {
	// NewID returns a new unique record identifier
	NewID() string

	// Token returns an unguessable opaque token with the given prefix
	Token(prefix string) string
}

// UUIDGenerator issues random (v4) UUIDs and crypto/rand tokens
type UUIDGenerator struct{}

// New creates a new UUIDGenerator
func New() *UUIDGenerator {
	return &UUIDGenerator{}
}

// NewID returns a random UUID string
func (g *UUIDGenerator) NewID() string {
	return uuid.NewString()
}

// Token returns prefix followed by 128 random bits, base64url encoded
func (g *UUIDGenerator) Token(prefix string) string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return prefix + base64.RawURLEncoding.EncodeToString(b)
}
