package authz

import (
	"context"

	"github.com/casadocigano/fidelidade/internal/auth"
	"github.com/casadocigano/fidelidade/internal/log"
)

// PresenceGuard allows navigation iff a session is loaded.
type PresenceGuard struct {
	Store auth.Store
}

// NewPresenceGuard creates a presence guard over store.
func NewPresenceGuard(store auth.Store) *PresenceGuard {
	return &PresenceGuard{Store: store}
}

// Check denies with a redirect to the login route when no session exists.
// A store that cannot be read counts as logged out.
func (g *PresenceGuard) Check(ctx context.Context) Decision {
	session, err := g.Store.Load(ctx)
	if err != nil {
		log.DefaultLogger().WithError(err).Warn("session store unreadable, treating as logged out")
		return Deny(LoginRoute, "session store unreadable")
	}
	if !session.Valid() {
		return Deny(LoginRoute, "not logged in")
	}
	return Allow()
}
