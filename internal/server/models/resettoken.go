package models

import "time"

// PasswordResetToken stores the digest of an emailed reset code; the
// plain code is never persisted.
type PasswordResetToken struct {
	ID         int64
	UserID     int64
	CodeDigest string
	ExpiresAt  time.Time
	CreatedAt  time.Time
}
