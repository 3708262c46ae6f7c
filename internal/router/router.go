// Package router owns console navigation.
//
// It is the only component that changes the current route. The HTTP
// layer reports rejected sessions through OnSessionInvalidated and the
// router moves to the login screen.
package router

import (
	"context"
	"sync"

	"github.com/casadocigano/fidelidade/internal/authz"
	"github.com/casadocigano/fidelidade/internal/log"
	"github.com/casadocigano/fidelidade/internal/platform"
)

// Listener is called after every route change with the new current route.
type Listener func(route string)

// Router evaluates guards and maintains history.
type Router struct {
	mu        sync.Mutex
	history   *History
	routes    map[string]Route
	order     []string
	loggedIn  func(ctx context.Context) bool
	listeners []Listener
}

// New creates a router starting at start. loggedIn decides the target of
// unknown routes: the dashboard when true, login otherwise.
func New(routes []Route, start string, loggedIn func(ctx context.Context) bool) *Router {
	r := &Router{
		history:  NewHistory(start),
		routes:   make(map[string]Route, len(routes)),
		loggedIn: loggedIn,
	}
	for _, rt := range routes {
		r.routes[rt.Path] = rt
		r.order = append(r.order, rt.Path)
	}
	return r
}

// Routes returns the registered routes in registration order.
func (r *Router) Routes() []Route {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Route, 0, len(r.order))
	for _, p := range r.order {
		out = append(out, r.routes[p])
	}
	return out
}

// Lookup returns the route registered at path.
func (r *Router) Lookup(path string) (Route, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rt, ok := r.routes[path]
	return rt, ok
}

// Current returns the active route.
func (r *Router) Current() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.history.Current()
}

// History returns a copy of the navigation stack.
func (r *Router) History() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.history.Entries()
}

// Subscribe registers a listener for route changes.
func (r *Router) Subscribe(l Listener) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listeners = append(r.listeners, l)
}

// Resolve maps path to a registered route and evaluates its guard without
// navigating. Unknown paths resolve to the dashboard when logged in and to
// login otherwise, matching a catch-all route.
//
// Resolve may block on the network for guards that ask the backend; callers
// treat that time as the Unknown state and render nothing protected.
func (r *Router) Resolve(ctx context.Context, path string) (string, authz.Decision) {
	rt, ok := r.Lookup(path)
	if !ok {
		target := RouteLogin
		if r.loggedIn != nil && r.loggedIn(ctx) {
			target = RouteDashboard
		}
		log.DefaultLogger().Debug("unknown route", "path", path, "redirect", target)
		return path, authz.Deny(target, "unknown route")
	}
	if rt.Guard == nil {
		return rt.Path, authz.Allow()
	}
	return rt.Path, rt.Guard.Check(ctx)
}

// Apply commits a decision for path: Allowed pushes path, Denied moves to
// the redirect, Unknown leaves history untouched.
//
// A replacing denial acts as if path had been pushed and then replaced by
// the redirect: the route the user came from stays reachable with Back and
// path itself never enters history. Only when path is already current, as
// after Back, is that entry replaced. The redirect target is not checked
// against its own guard.
func (r *Router) Apply(path string, d authz.Decision) string {
	r.mu.Lock()
	switch d.State {
	case authz.Allowed:
		if r.history.Current() != path {
			r.history.Push(path)
		}
	case authz.Denied:
		switch current := r.history.Current(); {
		case current == d.Redirect:
		case d.Replace && current == path:
			r.history.Replace(d.Redirect)
		default:
			r.history.Push(d.Redirect)
		}
	}
	current := r.history.Current()
	r.mu.Unlock()

	if d.State != authz.Unknown {
		r.notify(current)
	}
	return current
}

// Navigate resolves and applies in one step and returns the decision.
func (r *Router) Navigate(ctx context.Context, path string) authz.Decision {
	target, d := r.Resolve(ctx, path)
	r.Apply(target, d)
	return d
}

// Replace swaps the current entry for path without evaluating guards.
func (r *Router) Replace(path string) {
	r.mu.Lock()
	r.history.Replace(path)
	r.mu.Unlock()
	r.notify(path)
}

// Reset discards history and starts at path. Used after login so Back
// cannot return to the login screen.
func (r *Router) Reset(path string) {
	r.mu.Lock()
	r.history.Reset(path)
	r.mu.Unlock()
	r.notify(path)
}

// Back returns to the previous route. Guards are re-evaluated on the
// target; a denial replaces it with the guard's redirect.
func (r *Router) Back(ctx context.Context) (string, bool) {
	r.mu.Lock()
	prev, ok := r.history.Back()
	r.mu.Unlock()
	if !ok {
		return prev, false
	}

	target, d := r.Resolve(ctx, prev)
	if d.Denied() {
		return r.Apply(target, d), true
	}
	r.notify(prev)
	return prev, true
}

func (r *Router) notify(route string) {
	r.mu.Lock()
	listeners := append([]Listener(nil), r.listeners...)
	r.mu.Unlock()
	for _, l := range listeners {
		l(route)
	}
}

// OnSessionInvalidated moves to the login route unless already there.
// Repeated events are harmless.
func (r *Router) OnSessionInvalidated(ev platform.SessionInvalidated) {
	r.mu.Lock()
	if r.history.Current() == RouteLogin {
		r.mu.Unlock()
		return
	}
	r.history.Replace(RouteLogin)
	r.mu.Unlock()

	log.DefaultLogger().Info("redirecting to login", "status", ev.Status, "path", ev.Path)
	r.notify(RouteLogin)
}
