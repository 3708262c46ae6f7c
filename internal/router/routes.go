package router

import (
	"github.com/casadocigano/fidelidade/internal/auth"
	"github.com/casadocigano/fidelidade/internal/authz"
)

// Console routes.
const (
	RouteLogin     = authz.LoginRoute
	RouteDashboard = authz.LandingRoute
	RouteClientes  = "/clientes"
	RouteVisitas   = "/visitas"
	RouteResgates  = "/resgates"
	RouteAdmin     = "/admin"
)

// Route is a navigable screen.
type Route struct {
	Path  string
	Title string
	// AdminOnly hides the route from navigation for non-admin sessions.
	AdminOnly bool
	// Guard is evaluated on every navigation. Nil means public.
	Guard authz.Guard
}

// DefaultRoutes wires the console screens to their guards.
// Every screen but login needs a session; admin also needs backend role confirmation.
func DefaultRoutes(store auth.Store, id authz.Identity) []Route {
	presence := authz.NewPresenceGuard(store)
	return []Route{
		{Path: RouteLogin, Title: "Login"},
		{Path: RouteDashboard, Title: "Dashboard", Guard: presence},
		{Path: RouteClientes, Title: "Clientes", Guard: presence},
		{Path: RouteVisitas, Title: "Visitas", Guard: presence},
		{Path: RouteResgates, Title: "Resgates", Guard: presence},
		{Path: RouteAdmin, Title: "Admin", AdminOnly: true, Guard: authz.AdminPolicy(store, id)},
	}
}
