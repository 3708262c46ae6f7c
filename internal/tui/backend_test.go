package tui

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/casadocigano/fidelidade/internal/app"
	"github.com/casadocigano/fidelidade/internal/auth"
	"github.com/casadocigano/fidelidade/internal/platform"
)

// fakeAPI is a small in-memory backend for the screens.
type fakeAPI struct {
	mu sync.Mutex

	role      string
	reject    bool
	loginFail int
	failPath  map[string]int

	customers []platform.Customer
	users     []map[string]any
	queries   []string
	deleted   []string
	lastGift  string
}

func newFakeAPI(role string) *fakeAPI {
	api := &fakeAPI{role: role, failPath: map[string]int{}}
	for i := 1; i <= 25; i++ {
		api.customers = append(api.customers, platform.Customer{
			ID:   i,
			Name: fmt.Sprintf("Cliente %02d", i),
			CPF:  fmt.Sprintf("000000000%02d", i),
		})
	}
	api.users = []map[string]any{
		{"id": 1, "name": "Admin", "email": "admin@cdc.com", "role": "ADMIN", "store_id": nil},
		{"id": 2, "name": "Ana", "email": "ana@cdc.com", "role": "ATENDENTE", "store_id": 1},
	}
	return api
}

func (a *fakeAPI) set(fn func(a *fakeAPI)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	fn(a)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.mu.Lock()
	defer a.mu.Unlock()

	path := r.URL.Path
	if path == "/api/auth/login" {
		if a.loginFail != 0 {
			if a.loginFail == http.StatusBadRequest {
				writeJSON(w, a.loginFail, map[string]string{"error": "Credenciais inválidas"})
			} else {
				w.WriteHeader(a.loginFail)
			}
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"token": "tok",
			"user":  map[string]any{"id": 1, "name": "Maria", "role": a.role, "store_id": nil},
		})
		return
	}
	if a.reject {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"msg": "Token has expired"})
		return
	}
	if status, ok := a.failPath[r.Method+" "+path]; ok {
		writeJSON(w, status, map[string]string{"error": "falhou: " + path})
		return
	}

	switch {
	case path == "/api/auth/me":
		writeJSON(w, http.StatusOK, map[string]any{"id": 1, "role": a.role})
	case path == "/api/dashboard/kpis":
		writeJSON(w, http.StatusOK, map[string]int{"visitas_30d": 7, "clientes_total": 25, "resgates_30d": 2})
	case path == "/api/dashboard/aniversariantes":
		writeJSON(w, http.StatusOK, []map[string]any{{"id": 3, "name": "Bia", "cpf": "123", "birthday": "1990-10-01"}})
	case path == "/api/dashboard/aniversariantes_export":
		w.Header().Set("Content-Disposition", `attachment; filename="aniversariantes.xlsx"`)
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		_, _ = w.Write([]byte("PK-fake-xlsx"))
	case path == "/api/clientes" && r.Method == http.MethodGet:
		a.queries = append(a.queries, r.URL.RawQuery)
		writeJSON(w, http.StatusOK, a.customerPage(r))
	case path == "/api/clientes" && r.Method == http.MethodPost:
		writeJSON(w, http.StatusCreated, map[string]int{"id": 99})
	case path == "/api/visitas":
		writeJSON(w, http.StatusOK, map[string]any{
			"visit_id": 5, "visits_count": 10, "meta": 10, "eligible": true,
			"client": map[string]any{"id": 3, "name": "Bia", "cpf": "123"},
		})
	case path == "/api/resgates":
		var body struct {
			GiftName string `json:"gift_name"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		a.lastGift = body.GiftName
		writeJSON(w, http.StatusOK, map[string]any{"redemption_id": 12, "gift_name": body.GiftName, "when": "2026-10-16"})
	case path == "/api/admin/stores":
		writeJSON(w, http.StatusOK, []map[string]any{{"id": 1, "name": "Centro", "meta_visitas": 10}})
	case path == "/api/admin/users" && r.Method == http.MethodGet:
		writeJSON(w, http.StatusOK, a.users)
	case path == "/api/admin/users" && r.Method == http.MethodPost:
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		body["id"] = len(a.users) + 1
		delete(body, "password")
		a.users = append(a.users, body)
		writeJSON(w, http.StatusCreated, body)
	case strings.HasPrefix(path, "/api/admin/users/") && r.Method == http.MethodDelete:
		a.deleted = append(a.deleted, strings.TrimPrefix(path, "/api/admin/users/"))
		writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
	case strings.HasPrefix(path, "/api/admin/users/"):
		writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
	default:
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
	}
}

func (a *fakeAPI) customerPage(r *http.Request) platform.CustomerPage {
	cpf := r.URL.Query().Get("cpf")
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	per, _ := strconv.Atoi(r.URL.Query().Get("per_page"))

	var matched []platform.Customer
	for _, c := range a.customers {
		if cpf == "" || c.CPF == cpf {
			matched = append(matched, c)
		}
	}
	start := (page - 1) * per
	if start > len(matched) {
		start = len(matched)
	}
	end := start + per
	if end > len(matched) {
		end = len(matched)
	}
	return platform.CustomerPage{Items: matched[start:end], Total: len(matched)}
}

// newTestShell starts the fake backend and returns a logged out shell.
func newTestShell(t *testing.T, api *fakeAPI) *app.Shell {
	t.Helper()
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)
	return app.New(auth.NewMemoryStore(), platform.NewClient(srv.URL))
}

func loginShell(t *testing.T, shell *app.Shell) {
	t.Helper()
	if _, err := shell.Login(context.Background(), "admin@cdc.com", "secret"); err != nil {
		t.Fatalf("login: %v", err)
	}
}

func testEnv(shell *app.Shell) *env {
	return &env{
		ctx:    context.Background(),
		shell:  shell,
		opts:   Options{PerPage: 10}.withDefaults(),
		styles: DefaultStyles(),
	}
}

// collect runs a command built from request cmds and returns every message,
// flattening batches.
func collect(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, collect(c)...)
		}
		return out
	}
	if msg == nil {
		return nil
	}
	return []tea.Msg{msg}
}

func deliver(p page, msgs []tea.Msg) {
	for _, m := range msgs {
		p.Update(m)
	}
}
