package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/casadocigano/fidelidade/internal/auth"
	"github.com/casadocigano/fidelidade/internal/authz"
	"github.com/casadocigano/fidelidade/internal/platform"
)

type staticIdentity struct {
	role auth.Role
	err  error
}

func (s staticIdentity) Me(context.Context) (*auth.User, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &auth.User{Role: s.role}, nil
}

func newTestRouter(t *testing.T, store auth.Store, id authz.Identity, start string) *Router {
	t.Helper()
	return New(DefaultRoutes(store, id), start, func(ctx context.Context) bool {
		s, err := store.Load(ctx)
		return err == nil && s.Valid()
	})
}

func loggedIn(t *testing.T, role auth.Role) *auth.MemoryStore {
	t.Helper()
	store := auth.NewMemoryStore()
	require.NoError(t, store.Save(context.Background(), auth.Session{Token: "abc", User: auth.User{ID: 1, Role: role}}))
	return store
}

func TestNavigate_PresenceDenied(t *testing.T) {
	ctx := context.Background()
	r := newTestRouter(t, auth.NewMemoryStore(), staticIdentity{role: auth.RoleAdmin}, RouteLogin)

	for _, path := range []string{RouteDashboard, RouteClientes, RouteVisitas, RouteResgates, RouteAdmin} {
		t.Run(path, func(t *testing.T) {
			d := r.Navigate(ctx, path)
			assert.True(t, d.Denied())
			assert.Equal(t, RouteLogin, r.Current())
			assert.Equal(t, []string{RouteLogin}, r.History(), "protected route never enters history")

			_, ok := r.Back(ctx)
			assert.False(t, ok)
		})
	}
}

func TestNavigate_Allowed(t *testing.T) {
	ctx := context.Background()
	r := newTestRouter(t, loggedIn(t, auth.RoleAtendente), staticIdentity{role: auth.RoleAtendente}, RouteDashboard)

	d := r.Navigate(ctx, RouteClientes)
	assert.True(t, d.Allowed())
	assert.Equal(t, []string{RouteDashboard, RouteClientes}, r.History())

	r.Navigate(ctx, RouteClientes)
	assert.Len(t, r.History(), 2, "navigating to the current route does not duplicate it")
}

func TestNavigate_AdminRoleDenied(t *testing.T) {
	ctx := context.Background()
	r := newTestRouter(t, loggedIn(t, auth.RoleAdmin), staticIdentity{role: auth.RoleGerente}, RouteDashboard)
	r.Navigate(ctx, RouteClientes)

	d := r.Navigate(ctx, RouteAdmin)
	assert.True(t, d.Denied())
	assert.Equal(t, RouteDashboard, r.Current(), "role denial lands on the dashboard, not login")
	assert.Equal(t, []string{RouteDashboard, RouteClientes, RouteDashboard}, r.History())

	route, ok := r.Back(ctx)
	assert.True(t, ok)
	assert.Equal(t, RouteClientes, route, "the page before the denied route stays reachable")
	assert.NotContains(t, r.History(), RouteAdmin)
}

func TestNavigate_AdminRoleDeniedFromDashboard(t *testing.T) {
	ctx := context.Background()
	r := newTestRouter(t, loggedIn(t, auth.RoleAdmin), staticIdentity{role: auth.RoleAtendente}, RouteDashboard)

	var changes []string
	r.Subscribe(func(route string) { changes = append(changes, route) })

	assert.True(t, r.Navigate(ctx, RouteAdmin).Denied())
	assert.Equal(t, []string{RouteDashboard}, r.History(), "already on the redirect target")
	assert.Equal(t, []string{RouteDashboard}, changes)
}

func TestNavigate_AdminAllowed(t *testing.T) {
	ctx := context.Background()
	r := newTestRouter(t, loggedIn(t, auth.RoleAdmin), staticIdentity{role: auth.RoleAdmin}, RouteDashboard)

	assert.True(t, r.Navigate(ctx, RouteAdmin).Allowed())
	assert.Equal(t, RouteAdmin, r.Current())
}

func TestNavigate_UnknownRoute(t *testing.T) {
	ctx := context.Background()

	anon := newTestRouter(t, auth.NewMemoryStore(), staticIdentity{}, RouteLogin)
	anon.Navigate(ctx, "/nope")
	assert.Equal(t, RouteLogin, anon.Current())

	user := newTestRouter(t, loggedIn(t, auth.RoleAtendente), staticIdentity{}, RouteClientes)
	user.Navigate(ctx, "/nope")
	assert.Equal(t, RouteDashboard, user.Current())
}

func TestApply_UnknownLeavesHistory(t *testing.T) {
	r := New(nil, RouteDashboard, nil)
	called := false
	r.Subscribe(func(string) { called = true })

	r.Apply(RouteAdmin, authz.Pending())
	assert.Equal(t, []string{RouteDashboard}, r.History())
	assert.False(t, called)
}

func TestBack_ReevaluatesGuards(t *testing.T) {
	ctx := context.Background()
	store := loggedIn(t, auth.RoleAtendente)
	r := newTestRouter(t, store, staticIdentity{}, RouteDashboard)
	r.Navigate(ctx, RouteClientes)
	r.Navigate(ctx, RouteVisitas)

	require.NoError(t, store.Clear(ctx))

	route, ok := r.Back(ctx)
	assert.True(t, ok)
	assert.Equal(t, RouteLogin, route, "going back into a protected route after logout lands on login")
}

func TestOnSessionInvalidated(t *testing.T) {
	ctx := context.Background()
	r := newTestRouter(t, loggedIn(t, auth.RoleAdmin), staticIdentity{role: auth.RoleAdmin}, RouteDashboard)
	r.Navigate(ctx, RouteAdmin)

	var changes []string
	r.Subscribe(func(route string) { changes = append(changes, route) })

	r.OnSessionInvalidated(platform.SessionInvalidated{Status: 401, Path: "/api/admin/users"})
	r.OnSessionInvalidated(platform.SessionInvalidated{Status: 401, Path: "/api/admin/stores"})

	assert.Equal(t, RouteLogin, r.Current())
	assert.Equal(t, []string{RouteLogin}, changes, "second event is a no-op")
	assert.NotContains(t, r.History(), RouteAdmin)
}

func TestOnSessionInvalidated_Concurrent(t *testing.T) {
	r := New(nil, RouteClientes, nil)

	var mu sync.Mutex
	count := 0
	r.Subscribe(func(string) {
		mu.Lock()
		count++
		mu.Unlock()
	})

	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.OnSessionInvalidated(platform.SessionInvalidated{Status: 422})
		}()
	}
	wg.Wait()

	assert.Equal(t, RouteLogin, r.Current())
	assert.Equal(t, 1, count)
}

func TestInterceptorDrivesRouter(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	ctx := context.Background()
	store := loggedIn(t, auth.RoleAtendente)
	notifier := platform.NewNotifier()
	client := platform.NewClient(srv.URL, platform.WithInterceptor(platform.AuthInterceptor(store, notifier.Notify)))
	r := newTestRouter(t, store, client, RouteDashboard)
	notifier.Subscribe(r.OnSessionInvalidated)

	r.Navigate(ctx, RouteClientes)
	_, err := client.ListCustomers(ctx, platform.CustomerQuery{Page: 1})
	require.Error(t, err)

	assert.Equal(t, RouteLogin, r.Current(), "router moved before the caller saw the error")
}

func TestNavigate_AdminWithRejectedSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	ctx := context.Background()
	store := loggedIn(t, auth.RoleAdmin)
	notifier := platform.NewNotifier()
	client := platform.NewClient(srv.URL, platform.WithInterceptor(platform.AuthInterceptor(store, notifier.Notify)))
	client.SetToken("abc")
	r := newTestRouter(t, store, client, RouteDashboard)
	notifier.Subscribe(r.OnSessionInvalidated)

	d := r.Navigate(ctx, RouteAdmin)

	assert.True(t, d.Denied())
	assert.Equal(t, RouteLogin, r.Current())
	assert.Equal(t, []string{RouteLogin}, r.History())
}

func TestRoutes(t *testing.T) {
	r := newTestRouter(t, auth.NewMemoryStore(), staticIdentity{}, RouteLogin)
	routes := r.Routes()
	require.Len(t, routes, 6)
	assert.Equal(t, RouteLogin, routes[0].Path)

	admin, ok := r.Lookup(RouteAdmin)
	require.True(t, ok)
	assert.True(t, admin.AdminOnly)
}
