package order

import "github.com/Additional-Code/mesa/internal/entity"

// edge is one permitted move in the order lifecycle.
type edge struct {
	from entity.Status
	to   entity.Status
}

// transitionTable is the single authority on how an order's status may move
// and which roles may drive each move. Anything not listed here is an invalid
// transition, including re-submitting an edge that already fired and any move
// out of a terminal status.
var transitionTable = map[edge][]entity.Role{
	{entity.StatusPending, entity.StatusCooking}:    {entity.RoleOwner},
	{entity.StatusCooking, entity.StatusCooked}:     {entity.RoleOwner},
	{entity.StatusCooked, entity.StatusPickedUp}:    {entity.RoleDelivery},
	{entity.StatusPickedUp, entity.StatusDelivered}: {entity.RoleDelivery},
	{entity.StatusPending, entity.StatusCanceled}:   {entity.RoleClient, entity.RoleOwner},
}

// roleTargets is derived from the table: every status a role may ever request,
// regardless of the order's current state. It backs the capability prefilter
// that rejects e.g. a customer asking for Cooking before any order is loaded.
var roleTargets = buildRoleTargets()

func buildRoleTargets() map[entity.Role]map[entity.Status]bool {
	targets := make(map[entity.Role]map[entity.Status]bool)
	for e, roles := range transitionTable {
		for _, role := range roles {
			if targets[role] == nil {
				targets[role] = make(map[entity.Status]bool)
			}
			targets[role][e.to] = true
		}
	}
	return targets
}

// roleMayRequest reports whether role is ever allowed to request target.
func roleMayRequest(role entity.Role, target entity.Status) bool {
	return roleTargets[role][target]
}

// edgeRoles returns the roles allowed to drive from->to, or nil when the
// lifecycle has no such edge.
func edgeRoles(from, to entity.Status) []entity.Role {
	return transitionTable[edge{from: from, to: to}]
}

// claimableStatus reports whether a courier may claim the delivery while the
// order sits in s. Claiming is open from acceptance until pickup.
func claimableStatus(s entity.Status) bool {
	return s == entity.StatusCooking || s == entity.StatusCooked
}
