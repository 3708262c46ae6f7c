package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/casadocigano/fidelidade/internal/auth"
	"github.com/casadocigano/fidelidade/internal/platform"
	"github.com/casadocigano/fidelidade/internal/router"
)

// fakeBackend answers login with an ADMIN session and lets tests flip
// every other endpoint to 401.
type fakeBackend struct {
	mu       sync.Mutex
	reject   bool
	role     string
	authSeen []string
}

func (b *fakeBackend) handler(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.authSeen = append(b.authSeen, r.Header.Get("Authorization"))
	w.Header().Set("Content-Type", "application/json")

	if r.URL.Path == "/api/auth/login" {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"token": "abc",
			"user":  map[string]any{"id": 1, "name": "Admin", "role": b.role, "store_id": nil},
		})
		return
	}
	if b.reject {
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]string{"msg": "Token has expired"})
		return
	}
	switch r.URL.Path {
	case "/api/auth/me":
		_ = json.NewEncoder(w).Encode(map[string]any{"id": 1, "role": b.role})
	case "/api/dashboard/kpis":
		_ = json.NewEncoder(w).Encode(map[string]int{"visitas_30d": 1})
	default:
		_ = json.NewEncoder(w).Encode(map[string]any{})
	}
}

func (b *fakeBackend) setReject(v bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.reject = v
}

func (b *fakeBackend) lastAuth() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.authSeen[len(b.authSeen)-1]
}

func newShell(t *testing.T, role string) (*Shell, *fakeBackend, auth.Store) {
	t.Helper()
	backend := &fakeBackend{role: role}
	srv := httptest.NewServer(http.HandlerFunc(backend.handler))
	t.Cleanup(srv.Close)

	store := auth.NewFileStore(t.TempDir())
	return New(store, platform.NewClient(srv.URL)), backend, store
}

func navTitles(items []NavItem) []string {
	var titles []string
	for _, it := range items {
		titles = append(titles, it.Title)
	}
	return titles
}

func TestLoginThenAuthFailure(t *testing.T) {
	ctx := context.Background()
	shell, backend, store := newShell(t, "ADMIN")

	// Login as admin.
	session, err := shell.Login(ctx, "admin@cdc.com", "123456")
	require.NoError(t, err)
	require.NotNil(t, session)

	_, err = shell.Client.KPIs(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Bearer abc", backend.lastAuth(), "token attached to subsequent requests")

	stored, err := store.Load(ctx)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, "abc", stored.Token)
	assert.Equal(t, auth.RoleAdmin, stored.User.Role)

	assert.Equal(t, router.RouteDashboard, shell.Router.Current())
	assert.Contains(t, navTitles(shell.NavItems()), "Admin")

	// The server now rejects the token.
	backend.setReject(true)
	_, err = shell.Client.KPIs(ctx)
	require.Error(t, err)
	assert.True(t, platform.IsAuthFailure(err))

	stored, err = store.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, stored, "session cleared")
	assert.Equal(t, router.RouteLogin, shell.Router.Current())
	assert.False(t, shell.LoggedIn())
	assert.NotContains(t, navTitles(shell.NavItems()), "Admin")
	assert.Empty(t, shell.NavItems())

	backend.setReject(false)
	_, _ = shell.Client.KPIs(ctx)
	assert.Empty(t, backend.lastAuth(), "no token sent after invalidation")
}

func TestNavItemsByRole(t *testing.T) {
	routes := router.DefaultRoutes(auth.NewMemoryStore(), nil)

	admin := &auth.Session{Token: "t", User: auth.User{Role: auth.RoleAdmin}}
	gerente := &auth.Session{Token: "t", User: auth.User{Role: auth.RoleGerente}}

	assert.Equal(t, []string{"Dashboard", "Clientes", "Visitas", "Resgates", "Admin"}, navTitles(NavItems(routes, admin)))
	assert.Equal(t, []string{"Dashboard", "Clientes", "Visitas", "Resgates"}, navTitles(NavItems(routes, gerente)))
	assert.Empty(t, NavItems(routes, nil))
}

func TestRestore(t *testing.T) {
	ctx := context.Background()

	t.Run("stored session is trusted without a backend call", func(t *testing.T) {
		shell, backend, store := newShell(t, "GERENTE")
		require.NoError(t, store.Save(ctx, auth.Session{Token: "abc", User: auth.User{ID: 2, Role: auth.RoleGerente, LockLoja: true}}))

		session, err := shell.Restore(ctx)
		require.NoError(t, err)
		require.NotNil(t, session)
		assert.Empty(t, backend.authSeen)
		assert.True(t, shell.Client.HasToken())
		assert.Equal(t, router.RouteDashboard, shell.Router.Current())

		bar, ok := shell.TopBar()
		require.True(t, ok)
		assert.Equal(t, "Loja Fixa", bar.StoreLabel)
	})

	t.Run("no stored session", func(t *testing.T) {
		shell, _, _ := newShell(t, "ADMIN")
		session, err := shell.Restore(ctx)
		require.NoError(t, err)
		assert.Nil(t, session)
		assert.False(t, shell.Client.HasToken())
		assert.Equal(t, router.RouteLogin, shell.Router.Current())

		_, ok := shell.TopBar()
		assert.False(t, ok)
	})

	t.Run("restored token rejected on first request", func(t *testing.T) {
		shell, backend, store := newShell(t, "ADMIN")
		require.NoError(t, store.Save(ctx, auth.Session{Token: "stale", User: auth.User{ID: 1, Role: auth.RoleAdmin}}))
		_, err := shell.Restore(ctx)
		require.NoError(t, err)

		backend.setReject(true)
		_, err = shell.Client.KPIs(ctx)
		require.Error(t, err)
		assert.False(t, shell.LoggedIn())
		assert.Equal(t, router.RouteLogin, shell.Router.Current())
	})
}

func TestLogout(t *testing.T) {
	ctx := context.Background()
	shell, _, store := newShell(t, "ATENDENTE")

	_, err := shell.Login(ctx, "a@cdc.com", "x")
	require.NoError(t, err)
	shell.Router.Navigate(ctx, router.RouteClientes)

	require.NoError(t, shell.Logout(ctx))
	require.NoError(t, shell.Logout(ctx), "logout twice is fine")

	stored, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, stored)
	assert.False(t, shell.Client.HasToken())
	assert.Equal(t, router.RouteLogin, shell.Router.Current())

	route, _ := shell.Router.Back(ctx)
	assert.Equal(t, router.RouteLogin, route, "back does not reach protected screens after logout")
}

func TestAdminRouteRequiresBackendConfirmation(t *testing.T) {
	ctx := context.Background()
	shell, backend, _ := newShell(t, "ADMIN")
	_, err := shell.Login(ctx, "admin@cdc.com", "123456")
	require.NoError(t, err)

	assert.True(t, shell.Router.Navigate(ctx, router.RouteAdmin).Allowed())

	backend.mu.Lock()
	backend.role = "ATENDENTE"
	backend.mu.Unlock()

	shell.Router.Navigate(ctx, router.RouteClientes)
	d := shell.Router.Navigate(ctx, router.RouteAdmin)
	assert.True(t, d.Denied())
	assert.Equal(t, router.RouteDashboard, shell.Router.Current())
	assert.True(t, shell.LoggedIn(), "role denial keeps the session")
}
