// Package app wires the session store, API client and router into the
// console's application shell.
package app

import (
	"context"
	"sync"
	"time"

	"github.com/casadocigano/fidelidade/internal/auth"
	"github.com/casadocigano/fidelidade/internal/log"
	"github.com/casadocigano/fidelidade/internal/platform"
	"github.com/casadocigano/fidelidade/internal/router"
)

// Shell holds the in-memory identity and owns the session lifecycle:
// restore at startup, login, logout, and forced logout by the server.
type Shell struct {
	Store    auth.Store
	Client   *platform.Client
	Router   *router.Router
	Notifier *platform.Notifier

	mu      sync.RWMutex
	session *auth.Session
}

// New builds a shell around store and client. It installs the auth
// interceptor on client and subscribes the router to invalidation events.
func New(store auth.Store, client *platform.Client) *Shell {
	s := &Shell{
		Store:    store,
		Client:   client,
		Notifier: platform.NewNotifier(),
	}

	s.Router = router.New(router.DefaultRoutes(store, client), router.RouteLogin, s.loggedIn)
	client.Use(platform.AuthInterceptor(store, s.Notifier.Notify))

	s.Notifier.Subscribe(func(platform.SessionInvalidated) { s.setSession(nil) })
	s.Notifier.Subscribe(s.Router.OnSessionInvalidated)
	s.Router.Subscribe(func(route string) {
		log.DefaultLogger().Debug("route changed", "route", route)
	})
	return s
}

func (s *Shell) loggedIn(context.Context) bool {
	return s.LoggedIn()
}

func (s *Shell) setSession(session *auth.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session = session
}

// Session returns a copy of the in-memory session, or nil.
func (s *Shell) Session() *auth.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.session == nil {
		return nil
	}
	cp := *s.session
	return &cp
}

// LoggedIn reports whether a session is held in memory.
func (s *Shell) LoggedIn() bool {
	return s.Session().Valid()
}

// Restore loads the stored session once at startup.
//
// A stored session is trusted optimistically: the token is installed and the
// shell starts on the dashboard without contacting the backend. The first
// real request will hit the auth interceptor if the token is no longer valid.
func (s *Shell) Restore(ctx context.Context) (*auth.Session, error) {
	session, err := s.Store.Load(ctx)
	if err != nil {
		return nil, err
	}
	if !session.Valid() {
		s.setSession(nil)
		s.Client.SetToken("")
		s.Router.Reset(router.RouteLogin)
		return nil, nil
	}

	if session.Expired(time.Now()) {
		log.DefaultLogger().Warn("stored token looks expired; the server will decide")
	}

	s.Client.SetToken(session.Token)
	s.setSession(session)
	s.Router.Reset(router.RouteDashboard)
	return session, nil
}

// Login authenticates and, on success, runs LoginSuccess.
func (s *Shell) Login(ctx context.Context, email, password string) (*auth.Session, error) {
	resp, err := s.Client.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}
	if err := s.LoginSuccess(ctx, resp); err != nil {
		return nil, err
	}
	return s.Session(), nil
}

// LoginSuccess persists the session, installs the token and moves to the dashboard.
func (s *Shell) LoginSuccess(ctx context.Context, resp *platform.LoginResponse) error {
	session := resp.Session()
	if err := s.Store.Save(ctx, session); err != nil {
		return err
	}
	s.Client.SetToken(session.Token)
	s.setSession(&session)
	s.Router.Reset(router.RouteDashboard)

	log.DefaultLogger().Info("logged in", "user_id", session.User.ID, "role", session.User.Role.String())
	return nil
}

// Logout clears the stored session and token and replaces history with login.
func (s *Shell) Logout(ctx context.Context) error {
	err := s.Store.Clear(ctx)
	s.Client.SetToken("")
	s.setSession(nil)
	s.Router.Replace(router.RouteLogin)
	return err
}

// NavItem is an entry in the navigation menu.
type NavItem struct {
	Path  string
	Title string
}

// NavItems lists the menu for session. Admin-only routes appear only for
// ADMIN sessions; a nil session gets an empty menu.
func NavItems(routes []router.Route, session *auth.Session) []NavItem {
	if !session.Valid() {
		return nil
	}
	var items []NavItem
	for _, rt := range routes {
		if rt.Path == router.RouteLogin {
			continue
		}
		if rt.AdminOnly && !session.User.Role.IsAdmin() {
			continue
		}
		items = append(items, NavItem{Path: rt.Path, Title: rt.Title})
	}
	return items
}

// NavItems lists the menu for the current session.
func (s *Shell) NavItems() []NavItem {
	return NavItems(s.Router.Routes(), s.Session())
}

// TopBar summarizes the logged-in user.
type TopBar struct {
	Name       string
	Role       auth.Role
	StoreLabel string
}

// TopBar returns the header data for the current session.
func (s *Shell) TopBar() (TopBar, bool) {
	session := s.Session()
	if !session.Valid() {
		return TopBar{}, false
	}
	return TopBar{
		Name:       session.User.Name,
		Role:       session.User.Role,
		StoreLabel: session.User.StoreLabel(),
	}, true
}
