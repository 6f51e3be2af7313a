// Package guard decides whether a route may be entered with the current session.
package guard

import "context"

// LoginRoute is where unauthenticated users are sent.
const LoginRoute = "login"

// Route is a navigable destination.
type Route struct {
	Name         string
	RequiresAuth bool
}

// Decision is the outcome of Resolve. Redirect is set only when Allowed is false.
type Decision struct {
	Allowed  bool
	Redirect string
}

// Session is the part of the session store the guard needs.
type Session interface {
	Initialize(ctx context.Context)
	IsAuthenticated() bool
}

// Guard gates routes on the session.
type Guard struct {
	session Session
}

// New returns a Guard backed by session.
func New(session Session) *Guard {
	return &Guard{session: session}
}

// Resolve restores the session if needed and decides on route.
func (g *Guard) Resolve(ctx context.Context, route Route) Decision {
	g.session.Initialize(ctx)
	if route.RequiresAuth && !g.session.IsAuthenticated() {
		return Decision{Redirect: LoginRoute}
	}
	return Decision{Allowed: true}
}
