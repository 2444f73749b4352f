package domain

// ActorRole enumerates the caller roles the system distinguishes.
type ActorRole string

const (
	ActorRoleAdmin   ActorRole = "ADMIN"
	ActorRoleOps     ActorRole = "OPS"
	ActorRoleDriver  ActorRole = "DRIVER"
	ActorRolePartner ActorRole = "PARTNER"
)

// Actor identifies the caller of an operation and the fleet/hub scope
// it may act within. Admins carry an empty FleetID and see everything.
type Actor struct {
	ID      string
	Role    ActorRole
	FleetID string
	HubIDs  []string
}

// CanAccessHub reports whether the actor's hub scope includes hubID.
// An empty hub list means the whole fleet.
func (a Actor) CanAccessHub(hubID string) bool {
	if len(a.HubIDs) == 0 {
		return true
	}
	for _, h := range a.HubIDs {
		if h == hubID {
			return true
		}
	}
	return false
}
