// Package cryptox wraps password hashing and opaque code generation.
package cryptox

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"

	"github.com/dmitrijs2005/storefront/internal/common"
	"golang.org/x/crypto/bcrypt"
)

// bcrypt silently truncates input beyond 72 bytes; reject instead.
const maxPasswordBytes = 72

var ErrPasswordTooLong = errors.New("password is too long")

// HashPassword returns the bcrypt hash of password at the default cost.
func HashPassword(password string) (string, error) {
	if len(password) > maxPasswordBytes {
		return "", ErrPasswordTooLong
	}
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}

// CheckPassword reports whether password matches the stored bcrypt hash.
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// NewResetCode returns a random 64-char hex code. Only its digest should be stored.
func NewResetCode() string {
	return hex.EncodeToString(common.GenerateRandByteArray(32))
}

// DigestCode returns the hex SHA-256 of code, suitable as a lookup key.
func DigestCode(code string) string {
	sum := sha256.Sum256([]byte(code))
	return hex.EncodeToString(sum[:])
}
