// Package token generates the random values used for account activation,
// password reset, and remember-me logins.
//
// A token has two forms: the raw value, which is shown to the user exactly
// once (embedded in an emailed URL or a cookie), and its SHA-256 digest,
// which is the only form ever persisted. Holding the database does not
// reveal any usable token.
package token

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
)

const rawLen = 32

// ErrInvalidToken is returned when a received value cannot be a token
// produced by Generate.
var ErrInvalidToken = errors.New("invalid token")

// Token is a random value sent to users via email or stored in a cookie.
// Tokens are confidential and should never be logged or persisted in
// plaintext; persist Digest() instead.
type Token [rawLen]byte

// Generate creates a new cryptographically random token.
func Generate() (Token, error) {
	var t Token
	if _, err := rand.Read(t[:]); err != nil {
		return Token{}, fmt.Errorf("generate token: %w", err)
	}
	return t, nil
}

// Parse parses a raw token value received from a URL or cookie.
func Parse(raw string) (Token, error) {
	if len(raw) != rawLen*2 {
		return Token{}, ErrInvalidToken
	}
	b, err := hex.DecodeString(raw)
	if err != nil {
		return Token{}, ErrInvalidToken
	}
	return Token(b), nil
}

// String returns the raw value as it appears in URLs and cookies.
func (t Token) String() string {
	return hex.EncodeToString(t[:])
}

// Digest returns the SHA-256 hex digest of the token, the only form
// that may be stored server-side.
func (t Token) Digest() string {
	sum := sha256.Sum256(t[:])
	return hex.EncodeToString(sum[:])
}

// DigestOf recomputes the digest for a received raw value so it can be
// looked up against stored digests. Deterministic by construction.
func DigestOf(raw string) (string, error) {
	t, err := Parse(raw)
	if err != nil {
		return "", err
	}
	return t.Digest(), nil
}

// HashString returns the SHA-256 hex digest of an arbitrary string.
// Used for persisting digests of values that are not Tokens, such as
// JWT refresh tokens.
func HashString(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}
