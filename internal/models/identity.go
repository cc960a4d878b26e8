package models

import (
	"fmt"
	"time"
)

// Role discriminates the three credential domains. Each role has its own
// backing table and its own identifier semantics (admins log in by
// username, mentors by email, project teams by profile name).
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleMentor  Role = "mentor"
	RoleProject Role = "project"
)

// ParseRole validates a role string from an untrusted source.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleAdmin, RoleMentor, RoleProject:
		return Role(s), nil
	}
	return "", fmt.Errorf("unknown role: %q", s)
}

// Identity is the unified view of a credential record from any of the
// three role tables.
type Identity struct {
	Role              Role
	ID                int64
	Identifier        string // username / email / profile name, unique per role
	PasswordHash      string
	IsActive          bool
	FailedAttempts    int
	LockedUntil       *time.Time
	PasswordChangedAt *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Locked reports whether a durable lockout is in effect at the given time.
func (i *Identity) Locked(now time.Time) bool {
	return i.LockedUntil != nil && now.Before(*i.LockedUntil)
}

// IdentityPatch is an atomic partial update applied by the credential
// store. Nil fields are left untouched.
type IdentityPatch struct {
	PasswordHash   *string
	IsActive       *bool
	FailedAttempts *int
	LockedUntil    *time.Time
	ClearLock      bool // sets locked_until to NULL
}
