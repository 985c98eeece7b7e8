// Package iface defines service interfaces for the btg CLI.
// These interfaces enable dependency injection and mocking for tests.
package iface

import (
	"context"
	"fmt"
)

// Role is the account type of a user, as spelled by the API
type Role string

const (
	RoleAdmin          Role = "Admin"
	RoleTourist        Role = "Tourist"
	RoleTourismOfficer Role = "Tourism Officer"
	RoleBusinessOwner  Role = "Business Owner"
	RoleEventOrganizer Role = "Event Organizer"
)

// Roles lists every role in the order they are offered at registration
var Roles = []Role{
	RoleTourist,
	RoleBusinessOwner,
	RoleEventOrganizer,
	RoleTourismOfficer,
	RoleAdmin,
}

// Valid reports whether r is a known role
func (r Role) Valid() bool {
	for _, known := range Roles {
		if r == known {
			return true
		}
	}
	return false
}

// ParseRole converts an API role string into a Role
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.Valid() {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return r, nil
}

// DashboardPath returns the web dashboard for the role
func (r Role) DashboardPath() string {
	switch r {
	case RoleAdmin:
		return "/dashboard/admin/"
	case RoleTourismOfficer:
		return "/dashboard/tourism/"
	case RoleBusinessOwner:
		return "/dashboard/business/"
	case RoleEventOrganizer:
		return "/dashboard/event/"
	default:
		return "/dashboard/tourist/"
	}
}

// Identity is the authenticated user as reported by the profile endpoint
type Identity struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     Role   `json:"role"`
}

// SessionState enumerates the observable authentication states
type SessionState int

const (
	StateLoggedOut SessionState = iota
	StatePending
	StateAuthenticated
	StateFailed
)

func (s SessionState) String() string {
	switch s {
	case StateLoggedOut:
		return "logged_out"
	case StatePending:
		return "pending"
	case StateAuthenticated:
		return "authenticated"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("SessionState(%d)", int(s))
	}
}

// Session is the authoritative authentication state.
// Identity and AccessToken are set only when State is StateAuthenticated.
// Err is set for StateFailed, and for a StatePending session whose
// bootstrap failed transiently.
type Session struct {
	State       SessionState
	Identity    *Identity
	AccessToken string
	Err         error
}

// IsAuthenticated reports whether the session carries a user
func (s Session) IsAuthenticated() bool {
	return s.State == StateAuthenticated && s.Identity != nil
}

// RegisterInput represents the input for creating an account
type RegisterInput struct {
	Username string
	Email    string
	Password string
	Role     Role
}

// Subscription identifies a registered session handler
type Subscription uint64

// AuthService defines the interface for session operations
type AuthService interface {
	// Bootstrap restores a stored session at process start
	Bootstrap(ctx context.Context) (Session, error)

	// Login authenticates with username and password
	Login(ctx context.Context, username, password string) (Session, error)

	// Register creates an account; it does not log the user in
	Register(ctx context.Context, input *RegisterInput) error

	// Logout ends the session locally and, best effort, on the server
	Logout(ctx context.Context)

	// Snapshot returns the current session
	Snapshot() Session

	// Subscribe registers handler for every session transition
	Subscribe(handler func(Session)) Subscription

	// Unsubscribe removes a handler registered with Subscribe
	Unsubscribe(sub Subscription)
}
