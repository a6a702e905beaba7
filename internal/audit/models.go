package audit

import (
	"reflect"
	"time"
)

// Action classifies what the acting principal did.
type Action string

const (
	ActionLogin               Action = "login"
	ActionLogout              Action = "logout"
	ActionLoginFailed         Action = "login_failed"
	ActionCreate              Action = "create"
	ActionUpdate              Action = "update"
	ActionDelete              Action = "delete"
	ActionView                Action = "view"
	ActionExport              Action = "export"
	ActionInviteSent          Action = "invite_sent"
	ActionInviteAccepted      Action = "invite_accepted"
	ActionInviteRejected      Action = "invite_rejected"
	ActionSubscriptionChanged Action = "subscription_changed"
	ActionPaymentProcessed    Action = "payment_processed"
	ActionSettingsUpdated     Action = "settings_updated"
	ActionPasswordChanged     Action = "password_changed"
)

// EntityType names the business record an event refers to.
type EntityType string

const (
	EntityInvoice      EntityType = "invoice"
	EntityIncome       EntityType = "income"
	EntityExpense      EntityType = "expense"
	EntityClient       EntityType = "client"
	EntityTeam         EntityType = "team"
	EntityUser         EntityType = "user"
	EntitySettings     EntityType = "settings"
	EntitySubscription EntityType = "subscription"
	EntityReport       EntityType = "report"
)

// Change records a single field transition inside an update event.
type Change struct {
	From any `json:"from"`
	To   any `json:"to"`
}

// Event is an immutable activity record. ActorID and Action are always
// present; everything else is advisory context captured at the call site.
// An event lives in the writer's buffer until a flush moves it into the
// durable store; it is never mutated after Log accepts it.
type Event struct {
	ID         string            `json:"id"`
	ActorID    string            `json:"actor_id"`
	TeamID     string            `json:"team_id,omitempty"`
	Action     Action            `json:"action"`
	EntityType EntityType        `json:"entity_type,omitempty"`
	EntityID   string            `json:"entity_id,omitempty"`
	EntityName string            `json:"entity_name,omitempty"`
	Changes    map[string]Change `json:"changes,omitempty"`
	Metadata   map[string]any    `json:"metadata,omitempty"`
	IPAddress  string            `json:"ip_address,omitempty"`
	UserAgent  string            `json:"user_agent,omitempty"`
	Timestamp  time.Time         `json:"timestamp"`
}

// Diff computes the per-field changes between two record snapshots. Every key
// present in either snapshot whose values differ yields a {from, to} entry;
// identical values are omitted. Both snapshots may be nil.
func Diff(oldData, newData map[string]any) map[string]Change {
	changes := make(map[string]Change)
	for key, oldVal := range oldData {
		newVal, ok := newData[key]
		if !ok {
			changes[key] = Change{From: oldVal, To: nil}
			continue
		}
		if !reflect.DeepEqual(oldVal, newVal) {
			changes[key] = Change{From: oldVal, To: newVal}
		}
	}
	for key, newVal := range newData {
		if _, ok := oldData[key]; !ok {
			changes[key] = Change{From: nil, To: newVal}
		}
	}
	return changes
}

// Filter narrows an audit query. All fields are optional and conjunctive.
type Filter struct {
	ActorID    string
	TeamID     string
	EntityType EntityType
	EntityID   string
	Action     Action
	Since      *time.Time
	Until      *time.Time
	Limit      int
}

// Matches reports whether the event satisfies every set filter field.
func (f Filter) Matches(e Event) bool {
	if f.ActorID != "" && e.ActorID != f.ActorID {
		return false
	}
	if f.TeamID != "" && e.TeamID != f.TeamID {
		return false
	}
	if f.EntityType != "" && e.EntityType != f.EntityType {
		return false
	}
	if f.EntityID != "" && e.EntityID != f.EntityID {
		return false
	}
	if f.Action != "" && e.Action != f.Action {
		return false
	}
	if f.Since != nil && e.Timestamp.Before(*f.Since) {
		return false
	}
	if f.Until != nil && e.Timestamp.After(*f.Until) {
		return false
	}
	return true
}
