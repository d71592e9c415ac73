// internal/model/user.go
package model

// User roles
const (
	RoleUser    = "user"
	RoleManager = "manager"
)

// Actor is the authenticated caller as asserted by the upstream auth layer.
type Actor struct {
	UserID int
	Role   string
}

func (a Actor) IsManager() bool {
	return a.Role == RoleManager
}

// CanAccess reports whether the actor may act on the campaign.
func (a Actor) CanAccess(c *Campaign) bool {
	return a.IsManager() || c.OwnedBy(a.UserID)
}

// Scope returns the statistics scope for the actor.
func (a Actor) Scope() Scope {
	if a.IsManager() {
		return Scope{All: true}
	}
	return Scope{UserID: a.UserID}
}
