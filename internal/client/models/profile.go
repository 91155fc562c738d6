// Package models holds the client-side view of CMS data.
package models

// Profile is the cached account of the signed-in user. It is stored as JSON
// under the auth.user key, so the JSON shape is the persisted format.
type Profile struct {
	ID          int64  `json:"id"`
	Username    string `json:"username"`
	Email       string `json:"email"`
	Slug        string `json:"slug,omitempty"`
	Location    string `json:"location,omitempty"`
	PhoneNumber string `json:"phoneNumber,omitempty"`
	AvatarURL   string `json:"avatarUrl,omitempty"`
	CreatedAt   string `json:"createdAt,omitempty"`
}

// ProfilePatch carries a partial profile update. Nil fields are omitted
// from the request body and never sent as null.
type ProfilePatch struct {
	Username    *string `json:"username,omitempty"`
	Email       *string `json:"email,omitempty"`
	Location    *string `json:"location,omitempty"`
	PhoneNumber *string `json:"phoneNumber,omitempty"`
	AvatarURL   *string `json:"avatarUrl,omitempty"`
}

// Empty reports whether the patch carries no fields.
func (p ProfilePatch) Empty() bool {
	return p.Username == nil && p.Email == nil && p.Location == nil &&
		p.PhoneNumber == nil && p.AvatarURL == nil
}

// ProfileExtras are the fields fetched from GraphQL after authentication.
type ProfileExtras struct {
	AvatarURL string `json:"avatarUrl"`
	CreatedAt string `json:"createdAt"`
}

// Session is the token plus the profile it belongs to.
type Session struct {
	Token   string   `json:"jwt"`
	Profile *Profile `json:"user"`
}

// UploadedFile is the descriptor returned by the upload endpoint.
type UploadedFile struct {
	ID   int64   `json:"id"`
	Name string  `json:"name"`
	Mime string  `json:"mime"`
	Size float64 `json:"size"`
	URL  string  `json:"url"`
}
