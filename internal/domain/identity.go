package domain

import (
	"strings"
	"unicode/utf8"
)

// Column widths of the identity fields stored with tickets and comments.
const (
	MaxNameLength  = 255
	MaxEmailLength = 320
)

// Role names issued by the identity provider.
const (
	RoleSupport = "soporte"
	RoleAdmin   = "admin"
)

// Identity is the caller as asserted by a verified token. It lives for a
// single request and is never persisted.
type Identity struct {
	Email string
	Name  string
	Roles []string
}

// HasRole reports whether the exact role string was granted.
func (i Identity) HasRole(role string) bool {
	for _, r := range i.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// IsStaff reports whether the caller may see every ticket.
func (i Identity) IsStaff() bool {
	return i.HasRole(RoleSupport) || i.HasRole(RoleAdmin)
}

// CommentRole is the label persisted with comments written by this caller.
// Only the support role earns the support label; admins write as users.
func (i Identity) CommentRole() string {
	if i.HasRole(RoleSupport) {
		return CommentRoleSupport
	}
	return CommentRoleUser
}

// StorableName drops NUL bytes, which Postgres text cannot hold, and cuts
// name to MaxNameLength runes.
func StorableName(name string) string {
	name = strings.ReplaceAll(name, "\x00", "")
	if utf8.RuneCountInString(name) <= MaxNameLength {
		return name
	}
	return string([]rune(name)[:MaxNameLength])
}
