// Package authz decides whether a console route may be shown.
//
// Guards never navigate. They return a Decision and the router applies it.
package authz

import (
	"context"
	"fmt"
)

// Redirect targets used by the built-in guards.
const (
	LoginRoute   = "/login"
	LandingRoute = "/"
)

// State is the outcome of a guard evaluation.
type State int

const (
	// Unknown means the answer is still pending. Nothing protected is rendered.
	Unknown State = iota
	// Allowed means the protected content may be rendered.
	Allowed
	// Denied means the navigation must be redirected.
	Denied
)

func (s State) String() string {
	switch s {
	case Unknown:
		return "unknown"
	case Allowed:
		return "allowed"
	case Denied:
		return "denied"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Decision is a guard verdict plus the redirect to apply when denied.
type Decision struct {
	State    State
	Redirect string
	// Replace asks the router to replace the current history entry
	// instead of pushing, so Back cannot return to the denied route.
	Replace bool
	Reason  string
}

// Allow returns an Allowed decision.
func Allow() Decision {
	return Decision{State: Allowed}
}

// Pending returns an Unknown decision.
func Pending() Decision {
	return Decision{State: Unknown}
}

// Deny returns a Denied decision that replaces history with redirect.
func Deny(redirect, reason string) Decision {
	return Decision{State: Denied, Redirect: redirect, Replace: true, Reason: reason}
}

// Allowed reports whether the protected content may be rendered.
func (d Decision) Allowed() bool { return d.State == Allowed }

// Denied reports whether navigation must be redirected.
func (d Decision) Denied() bool { return d.State == Denied }

// Guard evaluates access to a route.
type Guard interface {
	Check(ctx context.Context) Decision
}

// GuardFunc adapts a function to Guard.
type GuardFunc func(ctx context.Context) Decision

// Check calls f.
func (f GuardFunc) Check(ctx context.Context) Decision {
	return f(ctx)
}

// Chain runs guards in order and returns the first decision that is not Allowed.
// An empty chain allows.
func Chain(guards ...Guard) Guard {
	return GuardFunc(func(ctx context.Context) Decision {
		for _, g := range guards {
			if d := g.Check(ctx); !d.Allowed() {
				return d
			}
		}
		return Allow()
	})
}
