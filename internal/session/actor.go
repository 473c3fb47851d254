// Package session models the authenticated actor driving a wizard and the
// tokens that prove it. The actor is carried explicitly through request
// context rather than looked up from ambient global state.
package session

import (
	"context"
	"fmt"

	dErrors "coopgate/pkg/domain-errors"
)

// Role is the closed set of permission levels known to the gateway.
type Role string

const (
	RoleMember     Role = "member"
	RoleAdmin      Role = "admin"
	RoleSuperAdmin Role = "superadmin"
)

// ParseRole validates a raw role string against the closed set.
func ParseRole(raw string) (Role, error) {
	switch Role(raw) {
	case RoleMember, RoleAdmin, RoleSuperAdmin:
		return Role(raw), nil
	default:
		return "", dErrors.New(dErrors.CodeInvalidInput, fmt.Sprintf("unknown role %q", raw))
	}
}

// Privileged reports whether the role submits through the authenticated
// member-creation endpoint rather than public self-registration.
func (r Role) Privileged() bool {
	return r == RoleAdmin || r == RoleSuperAdmin
}

// SkipsNextOfKin reports whether the wizard collapses to two steps for this
// role. Superadmins never see or fill the next-of-kin step.
func (r Role) SkipsNextOfKin() bool {
	return r == RoleSuperAdmin
}

// Actor is the authenticated principal for a request: who they are, what they
// may do, and the raw bearer token to forward upstream when required.
type Actor struct {
	Subject string
	Role    Role
	Token   string
}

type contextKeyActor struct{}

// WithActor stores the actor in the context.
func WithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, contextKeyActor{}, actor)
}

// FromContext retrieves the authenticated actor from the context.
// The second return is false for anonymous requests.
func FromContext(ctx context.Context) (Actor, bool) {
	actor, ok := ctx.Value(contextKeyActor{}).(Actor)
	return actor, ok
}
