package access

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRole_IsValid(t *testing.T) {
	require.True(t, RoleOwner.IsValid())
	require.True(t, RoleMember.IsValid())
	require.False(t, Role("viewer").IsValid())
	require.False(t, Role("").IsValid())
}

func TestRole_CanEdit(t *testing.T) {
	require.True(t, RoleOwner.CanEdit())
	require.True(t, RoleMember.CanEdit())
	require.False(t, Role("viewer").CanEdit())
}
