package auditbus

import (
	"time"

	"github.com/google/uuid"
)

// The set of actions a transition can record.
const (
	ActionEnabled  = "enabled"
	ActionDisabled = "disabled"
)

// Entry represents a single recorded entitlement transition.
type Entry struct {
	ID        uuid.UUID
	TenantID  uuid.UUID
	ModuleID  uuid.UUID
	Action    string
	Reason    string
	Actor     string
	CreatedAt time.Time
}

// NewEntry contains information needed to record a transition.
type NewEntry struct {
	TenantID uuid.UUID
	ModuleID uuid.UUID
	Action   string
	Reason   string
	Actor    string
}

// Transition is an audit entry joined with module display metadata for
// history views.
type Transition struct {
	Entry
	ModuleKey         string
	ModuleDisplayName string
}
