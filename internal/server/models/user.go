// Package models defines server-side data models persisted in the database.
package models

import "time"

// User is an account of the users-permissions plugin. JSON encoding yields
// the sanitized public shape; the password hash never leaves the server.
type User struct {
	ID           int64     `json:"id"`
	DocumentID   string    `json:"documentId"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Provider     string    `json:"provider"`
	Confirmed    bool      `json:"confirmed"`
	Blocked      bool      `json:"blocked"`
	RoleID       int64     `json:"-"`
	Slug         *string   `json:"slug,omitempty"`
	Location     *string   `json:"location,omitempty"`
	PhoneNumber  *string   `json:"phoneNumber,omitempty"`
	AvatarURL    *string   `json:"avatarUrl,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// UserPatch lists the mutable profile fields. A nil field is left untouched.
type UserPatch struct {
	Username    *string `json:"username,omitempty"`
	Email       *string `json:"email,omitempty"`
	Location    *string `json:"location,omitempty"`
	PhoneNumber *string `json:"phoneNumber,omitempty"`
	Slug        *string `json:"slug,omitempty"`
	AvatarURL   *string `json:"avatarUrl,omitempty"`
}

// Empty reports whether the patch changes nothing.
func (p UserPatch) Empty() bool {
	return p.Username == nil && p.Email == nil && p.Location == nil &&
		p.PhoneNumber == nil && p.Slug == nil && p.AvatarURL == nil
}

// Apply writes the non-nil fields of p into u.
func (p UserPatch) Apply(u *User) {
	if p.Username != nil {
		u.Username = *p.Username
	}
	if p.Email != nil {
		u.Email = *p.Email
	}
	if p.Location != nil {
		u.Location = p.Location
	}
	if p.PhoneNumber != nil {
		u.PhoneNumber = p.PhoneNumber
	}
	if p.Slug != nil {
		u.Slug = p.Slug
	}
	if p.AvatarURL != nil {
		u.AvatarURL = p.AvatarURL
	}
}

// AuthResult is returned by login, registration and password reset.
type AuthResult struct {
	JWT  string `json:"jwt"`
	User *User  `json:"user"`
}
