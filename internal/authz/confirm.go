package authz

import (
	"context"
	stderrors "errors"

	"github.com/casadocigano/fidelidade/internal/auth"
	"github.com/casadocigano/fidelidade/internal/log"
)

// Identity fetches the caller's current profile from the backend.
// *platform.Client satisfies it through GET /api/auth/me.
type Identity interface {
	Me(ctx context.Context) (*auth.User, error)
}

// Reasons given by RoleGuard when it denies.
const (
	ReasonRejected    = "session rejected by the server"
	ReasonUnconfirmed = "role confirmation failed"
)

// RoleGuard confirms the role with the backend instead of trusting the
// cached profile, which may be stale or edited locally.
type RoleGuard struct {
	Identity Identity
	Required auth.Role
}

// NewAdminGuard returns a RoleGuard requiring ADMIN.
func NewAdminGuard(id Identity) *RoleGuard {
	return &RoleGuard{Identity: id, Required: auth.RoleAdmin}
}

// Check asks the backend who the caller is. The caller treats the time
// spent inside Check as the Unknown state.
//
// A denied user is still authenticated, so the redirect goes to the
// landing route rather than the login route. Request failures of any
// kind deny, including a 401 that the auth interceptor has already handled.
func (g *RoleGuard) Check(ctx context.Context) Decision {
	required := g.Required
	if required == "" {
		required = auth.RoleAdmin
	}

	me, err := g.Identity.Me(ctx)
	if err != nil {
		// The interceptor has already cleared the session and sent the
		// user to the login page. Router.Apply does not run the guard of
		// the redirect target, so a redirect to the landing route here
		// would show the dashboard to a signed-out user.
		if isAuthFailure(err) {
			return Deny(LoginRoute, ReasonRejected)
		}
		log.DefaultLogger().WithError(err).Debug("role confirmation failed")
		return Deny(LandingRoute, ReasonUnconfirmed)
	}
	if me == nil || me.Role != required {
		return Deny(LandingRoute, "role "+string(required)+" required")
	}
	return Allow()
}

// AdminPolicy is the canonical guard for administrative routes:
// session presence first, then backend role confirmation.
func AdminPolicy(store auth.Store, id Identity) Guard {
	return Chain(NewPresenceGuard(store), NewAdminGuard(id))
}

func isAuthFailure(err error) bool {
	var af interface{ IsAuthFailure() bool }
	return stderrors.As(err, &af) && af.IsAuthFailure()
}
