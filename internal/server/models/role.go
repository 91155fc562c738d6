package models

// Role types seeded by migration.
const (
	RoleTypePublic        = "public"
	RoleTypeAuthenticated = "authenticated"
)

type Role struct {
	ID          int64
	Name        string
	Type        string
	Description string
}

// Permission grants Action (e.g. "api::article.article.find") to a role.
type Permission struct {
	ID     int64
	Action string
	RoleID int64
}
