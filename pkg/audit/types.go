package audit

import (
	"encoding/json"
	"time"

	"github.com/bulletinhq/bulletin/pkg/auth"
	"github.com/bulletinhq/bulletin/pkg/authz"
)

// Outcome classifies an audit event
type Outcome string

const (
	// OutcomeDenied is an ordinary authorization denial
	OutcomeDenied Outcome = "denied"
	// OutcomeConfigFault marks a denial caused by an identity carrying an
	// unrecognized role; operators alert on these separately
	OutcomeConfigFault Outcome = "configuration_fault"
	// OutcomeRoleChanged is a successful privileged role mutation
	OutcomeRoleChanged Outcome = "role_changed"
)

// Event is a single audit entry. Write-once, append-only from the
// decision core's perspective.
type Event struct {
	ActorID       string    `json:"actor_id"`
	ActorRole     string    `json:"actor_role"`
	Permission    string    `json:"permission"` // "resource:action"
	Outcome       Outcome   `json:"outcome"`
	CorrelationID string    `json:"correlation_id,omitempty"`
	Timestamp     time.Time `json:"timestamp"`

	// Role mutation fields, set only for OutcomeRoleChanged
	TargetUserID string `json:"target_user_id,omitempty"`
	PreviousRole string `json:"previous_role,omitempty"`
	NewRole      string `json:"new_role,omitempty"`

	Message string `json:"message,omitempty"`
}

// ToJSON serializes the event
func (e *Event) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// Denial builds an event for an ordinary authorization denial
func Denial(actor auth.IdentityClaim, perm authz.Permission, correlationID string) *Event {
	return &Event{
		ActorID:       actor.ID,
		ActorRole:     string(actor.Role),
		Permission:    perm.String(),
		Outcome:       OutcomeDenied,
		CorrelationID: correlationID,
		Timestamp:     time.Now().UTC(),
	}
}

// ConfigFault builds an event for a denial caused by an unrecognized role
func ConfigFault(actor auth.IdentityClaim, perm authz.Permission, correlationID string) *Event {
	return &Event{
		ActorID:       actor.ID,
		ActorRole:     string(actor.Role),
		Permission:    perm.String(),
		Outcome:       OutcomeConfigFault,
		CorrelationID: correlationID,
		Timestamp:     time.Now().UTC(),
		Message:       "identity carries a role outside the recognized set",
	}
}

// RoleChange builds an event for a successful role mutation
func RoleChange(actor auth.IdentityClaim, targetUserID string, previous, next authz.Role, correlationID string) *Event {
	return &Event{
		ActorID:       actor.ID,
		ActorRole:     string(actor.Role),
		Permission:    authz.Permission{Resource: authz.ResourceAdmin, Action: authz.ActionManageRoles}.String(),
		Outcome:       OutcomeRoleChanged,
		CorrelationID: correlationID,
		Timestamp:     time.Now().UTC(),
		TargetUserID:  targetUserID,
		PreviousRole:  string(previous),
		NewRole:       string(next),
	}
}
