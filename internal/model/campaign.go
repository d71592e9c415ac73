// internal/model/campaign.go
package model

import "time"

// Campaign statuses
const (
	StatusCreated   = "created"
	StatusStarted   = "started"
	StatusCompleted = "completed"
	StatusDisabled  = "disabled"
)

type Campaign struct {
	ID        int        `db:"id" json:"id"`
	StartTime time.Time  `db:"start_time" json:"start_time"`
	EndTime   time.Time  `db:"end_time" json:"end_time"`
	Status    string     `db:"status" json:"status"`
	MessageID int        `db:"message_id" json:"message_id"`
	OwnerID   *int       `db:"owner_id" json:"owner_id,omitempty"`
	IsActive  bool       `db:"is_active" json:"is_active"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt *time.Time `db:"updated_at" json:"updated_at,omitempty"`

	// ClientIDs is the recipient association as last loaded; dispatch never relies on it.
	ClientIDs []int `db:"-" json:"client_ids,omitempty"`
}

// OwnedBy reports whether userID owns the campaign. Legacy campaigns have no owner.
func (c *Campaign) OwnedBy(userID int) bool {
	return c.OwnerID != nil && *c.OwnerID == userID
}

// IsTerminal reports whether no automatic transition can leave the current status.
func (c *Campaign) IsTerminal() bool {
	return c.Status == StatusCompleted || c.Status == StatusDisabled
}
