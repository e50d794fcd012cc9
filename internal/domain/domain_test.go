package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIdentityRoles(t *testing.T) {
	user := Identity{Email: "a@x.com", Roles: []string{"offline_access"}}
	support := Identity{Email: "s@x.com", Roles: []string{"soporte"}}
	admin := Identity{Email: "root@x.com", Roles: []string{"admin"}}

	assert.False(t, user.IsStaff())
	assert.True(t, support.IsStaff())
	assert.True(t, admin.IsStaff())

	assert.Equal(t, CommentRoleUser, user.CommentRole())
	assert.Equal(t, CommentRoleSupport, support.CommentRole())
	assert.Equal(t, CommentRoleUser, admin.CommentRole())
}

func TestIdentityHasRoleIsExact(t *testing.T) {
	id := Identity{Roles: []string{"Soporte", "admins"}}
	assert.False(t, id.HasRole(RoleSupport))
	assert.False(t, id.HasRole(RoleAdmin))
}

func TestEnumValidity(t *testing.T) {
	assert.True(t, TicketStatusResolved.Valid())
	assert.False(t, TicketStatus("RESOLVED").Valid())
	assert.False(t, TicketStatus("").Valid())

	assert.True(t, TicketPriorityCritical.Valid())
	assert.False(t, TicketPriority("URGENT").Valid())
}
