package authkit

import (
	"time"

	"github.com/uptrace/bun"
)

// User is the identity record managed by the engine. The engine never deletes
// users except to roll back a registration whose confirmation email could not
// be delivered.
type User struct {
	bun.BaseModel `bun:"table:users,alias:usr"`

	ID           int64      `bun:"id,pk,autoincrement" json:"id,omitempty"`
	Username     string     `bun:"username,unique,nullzero" json:"username,omitempty"`
	Email        string     `bun:"email,unique,nullzero" json:"email,omitempty"`
	PasswordHash string     `bun:"password_hash" json:"-"`
	Verified     bool       `bun:"verified,notnull,default:false" json:"verified"`
	Active       bool       `bun:"active,notnull,default:true" json:"active"`
	Locale       string     `bun:"locale" json:"locale,omitempty"`
	FirstSeen    *time.Time `bun:"first_seen,nullzero" json:"first_seen,omitempty"`
	LastSeen     *time.Time `bun:"last_seen,nullzero" json:"last_seen,omitempty"`
	VerifiedAt   *time.Time `bun:"verified_at,nullzero" json:"verified_at,omitempty"`

	Roles []*RoleRecord `bun:"m2m:user_roles,join:User=Role" json:"roles,omitempty"`
}

// RoleRecord is a named role with many-to-many membership to users.
// Roles are created on first reference and never deleted by the engine.
type RoleRecord struct {
	bun.BaseModel `bun:"table:roles,alias:rol"`

	ID   int64  `bun:"id,pk,autoincrement" json:"id,omitempty"`
	Name string `bun:"name,unique,notnull" json:"name"`
}

// UserRole is the join row between users and roles.
type UserRole struct {
	bun.BaseModel `bun:"table:user_roles,alias:usrrol"`

	UserID int64       `bun:"user_id,pk"`
	RoleID int64       `bun:"role_id,pk"`
	User   *User       `bun:"rel:belongs-to,join:user_id=id"`
	Role   *RoleRecord `bun:"rel:belongs-to,join:role_id=id"`
}
