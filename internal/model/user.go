package model

import "time"

// Role identifies what kind of actor a user is.  The value is carried
// in the JWT "role" claim and checked by the role middleware, so the
// string forms here must match what the identity provider issues.
type Role string

const (
	RoleClient  Role = "CLIENT"
	RoleArtisan Role = "ARTISAN"
	RoleAdmin   Role = "ADMIN"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleClient, RoleArtisan, RoleAdmin:
		return true
	}
	return false
}

// User is an authenticated identity.  Users are fabricated by the
// identity provider on login or registration and cached in the local
// key-value store for session restore.  They are never edited in
// place; a changed identity comes back through a fresh authentication.
//
// Fields:
//  ID        – opaque unique identifier ("u_" prefixed).
//  Name      – display name.
//  Email     – email address used to authenticate.
//  Phone     – contact phone number, may be empty for federated logins.
//  Role      – CLIENT, ARTISAN or ADMIN.
//  AvatarURL – optional avatar image reference.
//  CreatedAt – when the identity was first issued.
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Role      Role      `json:"role"`
	AvatarURL string    `json:"avatarUrl,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}
