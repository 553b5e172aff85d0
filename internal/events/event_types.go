package events

import (
	"strings"
	"time"
)

// Event type tags. The tag travels in the AMQP Type property and is what
// consumers filter on.
const (
	TypeUserCreated        = "UserCreated"
	TypeProfileUpdated     = "ProfileUpdated"
	TypePasswordChanged    = "PasswordChanged"
	TypeRoleAssigned       = "RoleAssigned"
	TypeUserConfirmed      = "UserConfirmed"
	TypeActivityRegistered = "ActivityRegistered"
)

// Event is a domain event that can be put on the bus.
type Event interface {
	EventType() string
}

// UserCreated is emitted once a user is stored.
type UserCreated struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	LastName     string `json:"lastName"`
	Email        string `json:"email"`
	Phone        string `json:"phone"`
	Address      string `json:"address"`
	PasswordHash string `json:"passwordHash"`
	RoleID       int    `json:"roleId"`
	Verified     bool   `json:"verified"`
}

func (UserCreated) EventType() string { return TypeUserCreated }

// ProfileUpdated carries the full contact block after an edit.
type ProfileUpdated struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	LastName string `json:"lastName"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Address  string `json:"address"`
}

func (ProfileUpdated) EventType() string { return TypeProfileUpdated }

// PasswordChanged carries the new credential hash.
type PasswordChanged struct {
	ID           string `json:"id"`
	PasswordHash string `json:"passwordHash"`
}

func (PasswordChanged) EventType() string { return TypePasswordChanged }

// RoleAssigned carries the user's new role.
type RoleAssigned struct {
	ID     string `json:"id"`
	RoleID int    `json:"roleId"`
}

func (RoleAssigned) EventType() string { return TypeRoleAssigned }

// UserConfirmed marks an account as verified.
type UserConfirmed struct {
	ID       string `json:"id"`
	Verified bool   `json:"verified"`
}

func (UserConfirmed) EventType() string { return TypeUserConfirmed }

// ActivityRegistered mirrors an activity row.
type ActivityRegistered struct {
	ID         string    `json:"id"`
	UserID     string    `json:"userId"`
	Action     string    `json:"action"`
	Detail     string    `json:"detail"`
	OccurredAt time.Time `json:"occurredAt"`
}

func (ActivityRegistered) EventType() string { return TypeActivityRegistered }

// Route binds an event type to its routing key and consumer queue.
type Route struct {
	Type       string
	RoutingKey string
	Queue      string
}

var routes = []Route{
	{Type: TypeUserCreated, RoutingKey: "user.created", Queue: "user_created_queue"},
	{Type: TypeProfileUpdated, RoutingKey: "profile.updated", Queue: "profile_updated_queue"},
	{Type: TypePasswordChanged, RoutingKey: "user.password.changed", Queue: "password_changed_queue"},
	{Type: TypeRoleAssigned, RoutingKey: "role.assigned", Queue: "role_assigned_queue"},
	{Type: TypeUserConfirmed, RoutingKey: "user.confirmed", Queue: "user_confirmed_queue"},
	{Type: TypeActivityRegistered, RoutingKey: "activity.registered", Queue: "activity_registered_queue"},
}

// Routes lists every consumer route.
func Routes() []Route {
	out := make([]Route, len(routes))
	copy(out, routes)
	return out
}

// RouteFor returns the route of an event type.
func RouteFor(eventType string) (Route, bool) {
	for _, r := range routes {
		if MatchesType(r.Type, eventType) {
			return r, true
		}
	}
	return Route{}, false
}

// MatchesType compares type tags case-insensitively.
func MatchesType(expected, actual string) bool {
	return strings.EqualFold(expected, actual)
}
