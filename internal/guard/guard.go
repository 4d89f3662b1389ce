// Package guard gates access to protected views. A check runs the
// loading -> authorized/denied state machine from the session's local
// expiry fast path, re-confirming the role against the backend whenever a
// route demands one. The locally decoded role never authorizes a
// role-gated route on its own.
package guard

import (
	"context"
	"log"
	"time"

	"github.com/lifelink/donorlink/internal/session"
	"github.com/lifelink/donorlink/internal/token"
)

// State is a guard check outcome.
type State int

const (
	// StateLoading is the transient entry state of a check.
	StateLoading State = iota
	// StateAuthorized renders the protected view.
	StateAuthorized
	// StateDenied redirects without rendering.
	StateDenied
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateAuthorized:
		return "authorized"
	case StateDenied:
		return "denied"
	default:
		return "unknown"
	}
}

// Redirect targets for denied checks.
const (
	RedirectLogin        = "/login"
	RedirectUnauthorized = "/unauthorized"
)

// Decision is the terminal result of one guard check. A fresh navigation
// runs a fresh check; there is no retry.
type Decision struct {
	State    State
	Redirect string // set only when State is StateDenied
	Role     string // resolved role when authorized
}

// Validator re-confirms a token server-side and returns the authoritative
// user. *api.Client satisfies it.
type Validator interface {
	Validate(ctx context.Context) (*session.User, error)
}

// Guard checks sessions against route requirements.
type Guard struct {
	store     session.Store
	validator Validator
	now       func() time.Time
}

// New creates a Guard. validator may be nil, in which case role-gated
// routes always deny (there is no trustworthy role source without it).
func New(store session.Store, validator Validator) *Guard {
	return &Guard{store: store, validator: validator, now: time.Now}
}

// Check gates a view that requires the given role; requiredRole "" means
// any authenticated user.
func (g *Guard) Check(ctx context.Context, requiredRole string) Decision {
	sess, err := g.store.Read(ctx)
	if err != nil || sess == nil || token.Expired(sess.Token, g.now()) {
		return Decision{State: StateDenied, Redirect: RedirectLogin}
	}

	if requiredRole == "" {
		// Local expiry check suffices; the role is informational here.
		role := ""
		if claims := token.Decode(sess.Token); claims != nil {
			role = claims.Role
		}
		if role == "" {
			role = sess.User.Role
		}
		return Decision{State: StateAuthorized, Role: role}
	}

	if g.validator == nil {
		log.Printf("[guard] role-gated route with no validator configured, denying")
		return Decision{State: StateDenied, Redirect: RedirectLogin}
	}

	user, err := g.validator.Validate(ctx)
	if err != nil {
		return Decision{State: StateDenied, Redirect: RedirectLogin}
	}
	if user.Role != requiredRole {
		return Decision{State: StateDenied, Redirect: RedirectUnauthorized}
	}
	return Decision{State: StateAuthorized, Role: user.Role}
}

// CheckRoute gates a navigation target by path, consulting the route
// table. Public routes authorize without touching the session.
func (g *Guard) CheckRoute(ctx context.Context, path string) Decision {
	requiredRole, guarded := RouteRequirement(path)
	if !guarded {
		return Decision{State: StateAuthorized}
	}
	return g.Check(ctx, requiredRole)
}
