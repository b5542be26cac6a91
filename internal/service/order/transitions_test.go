package order

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Additional-Code/mesa/internal/entity"
)

var allStatuses = []entity.Status{
	entity.StatusPending,
	entity.StatusCooking,
	entity.StatusCooked,
	entity.StatusPickedUp,
	entity.StatusDelivered,
	entity.StatusCanceled,
}

func TestTransitionTable(t *testing.T) {
	t.Run("valid edges carry the expected roles", func(t *testing.T) {
		assert.Equal(t, []entity.Role{entity.RoleOwner}, edgeRoles(entity.StatusPending, entity.StatusCooking))
		assert.Equal(t, []entity.Role{entity.RoleOwner}, edgeRoles(entity.StatusCooking, entity.StatusCooked))
		assert.Equal(t, []entity.Role{entity.RoleDelivery}, edgeRoles(entity.StatusCooked, entity.StatusPickedUp))
		assert.Equal(t, []entity.Role{entity.RoleDelivery}, edgeRoles(entity.StatusPickedUp, entity.StatusDelivered))
		assert.Equal(t, []entity.Role{entity.RoleClient, entity.RoleOwner}, edgeRoles(entity.StatusPending, entity.StatusCanceled))
	})

	t.Run("every pair outside the table has no edge", func(t *testing.T) {
		valid := map[edge]bool{
			{entity.StatusPending, entity.StatusCooking}:    true,
			{entity.StatusCooking, entity.StatusCooked}:     true,
			{entity.StatusCooked, entity.StatusPickedUp}:    true,
			{entity.StatusPickedUp, entity.StatusDelivered}: true,
			{entity.StatusPending, entity.StatusCanceled}:   true,
		}
		for _, from := range allStatuses {
			for _, to := range allStatuses {
				if valid[edge{from, to}] {
					continue
				}
				assert.Nil(t, edgeRoles(from, to), "unexpected edge %s -> %s", from, to)
			}
		}
	})

	t.Run("terminal statuses have no outgoing edges", func(t *testing.T) {
		for _, from := range []entity.Status{entity.StatusDelivered, entity.StatusCanceled} {
			require.True(t, from.Terminal())
			for _, to := range allStatuses {
				assert.Nil(t, edgeRoles(from, to), "terminal %s must not reach %s", from, to)
			}
		}
	})
}

func TestRoleMayRequest(t *testing.T) {
	cases := []struct {
		role    entity.Role
		target  entity.Status
		allowed bool
	}{
		{entity.RoleOwner, entity.StatusCooking, true},
		{entity.RoleOwner, entity.StatusCooked, true},
		{entity.RoleOwner, entity.StatusCanceled, true},
		{entity.RoleOwner, entity.StatusPickedUp, false},
		{entity.RoleOwner, entity.StatusDelivered, false},
		{entity.RoleOwner, entity.StatusPending, false},
		{entity.RoleClient, entity.StatusCanceled, true},
		{entity.RoleClient, entity.StatusCooking, false},
		{entity.RoleClient, entity.StatusCooked, false},
		{entity.RoleClient, entity.StatusPickedUp, false},
		{entity.RoleClient, entity.StatusDelivered, false},
		{entity.RoleDelivery, entity.StatusPickedUp, true},
		{entity.RoleDelivery, entity.StatusDelivered, true},
		{entity.RoleDelivery, entity.StatusCooking, false},
		{entity.RoleDelivery, entity.StatusCooked, false},
		{entity.RoleDelivery, entity.StatusCanceled, false},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.allowed, roleMayRequest(tc.role, tc.target),
			"%s requesting %s", tc.role, tc.target)
	}
}

func TestClaimableStatus(t *testing.T) {
	for _, s := range allStatuses {
		want := s == entity.StatusCooking || s == entity.StatusCooked
		assert.Equal(t, want, claimableStatus(s), "status %s", s)
	}
}
