package upstream

import "coopgate/internal/session"

// Route is the upstream destination for a registration submission.
type Route struct {
	Path          string
	Authenticated bool
}

// RouteFor maps an actor role to its submission route. Privileged roles
// create members through the authenticated admin endpoint with a bearer
// token; ordinary members self-register through the public endpoint with no
// auth header. Keeping this a pure function avoids repeating the role branch
// at call sites.
func RouteFor(role session.Role) Route {
	if role.Privileged() {
		return Route{Path: "/admin/members", Authenticated: true}
	}
	return Route{Path: "/members/register", Authenticated: false}
}
