package service

import (
	"fmt"

	"dispatch/internal/domain"
)

// ScopeAuthorizer gates every mutating operation on the caller's
// fleet/hub scope. Implementations return nil to allow and an
// ErrForbidden-wrapped error to deny.
type ScopeAuthorizer interface {
	CheckAccess(actor domain.Actor, resourceFleetID, resourceHubID string) error
}

// FleetScopeAuthorizer allows admins everywhere and restricts every
// other role to its own fleet, and to its hubs when it carries a hub
// list.
type FleetScopeAuthorizer struct{}

// NewFleetScopeAuthorizer creates a FleetScopeAuthorizer.
func NewFleetScopeAuthorizer() *FleetScopeAuthorizer {
	return &FleetScopeAuthorizer{}
}

// CheckAccess evaluates the actor's scope against the resource.
func (FleetScopeAuthorizer) CheckAccess(actor domain.Actor, resourceFleetID, resourceHubID string) error {
	switch actor.Role {
	case domain.ActorRoleAdmin:
		return nil

	case domain.ActorRoleOps, domain.ActorRoleDriver, domain.ActorRolePartner:
		if actor.FleetID != resourceFleetID {
			return fmt.Errorf("%w: actor fleet %s does not cover fleet %s", ErrForbidden, actor.FleetID, resourceFleetID)
		}
		if resourceHubID != "" && !actor.CanAccessHub(resourceHubID) {
			return fmt.Errorf("%w: actor scope does not cover hub %s", ErrForbidden, resourceHubID)
		}
		return nil

	default:
		return fmt.Errorf("%w: unknown role %q", ErrForbidden, actor.Role)
	}
}

// Ensure FleetScopeAuthorizer implements ScopeAuthorizer.
var _ ScopeAuthorizer = FleetScopeAuthorizer{}
