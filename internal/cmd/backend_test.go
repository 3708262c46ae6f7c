package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/casadocigano/fidelidade/internal/errors"
	"github.com/casadocigano/fidelidade/internal/export"
	"github.com/casadocigano/fidelidade/internal/platform"
	"github.com/casadocigano/fidelidade/internal/tui"
)

const testToken = "tok-123"

// backend is an in-memory loyalty API.
type backend struct {
	mu sync.Mutex

	loginRole string
	meRole    string
	expired   bool

	customers []platform.Customer
	users     []map[string]any
	queries   []string
	created   []platform.NewCustomer
	gifts     []string
	updates   map[int]map[string]any
	deleted   []int
}

func newBackend() *backend {
	b := &backend{loginRole: "ADMIN", meRole: "ADMIN", updates: map[int]map[string]any{}}
	for i := 1; i <= 25; i++ {
		b.customers = append(b.customers, platform.Customer{
			ID:    i,
			Name:  fmt.Sprintf("Cliente %02d", i),
			CPF:   fmt.Sprintf("111000000%02d", i),
			Phone: "11999990000",
		})
	}
	b.users = []map[string]any{
		{"id": 1, "name": "Admin", "email": "admin@cdc.com", "role": "ADMIN", "store_id": nil},
		{"id": 2, "name": "Ana", "email": "ana@cdc.com", "role": "ATENDENTE", "store_id": 1},
	}
	return b
}

func (b *backend) set(fn func(b *backend)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	fn(b)
}

func reply(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (b *backend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()

	route := r.Method + " " + r.URL.Path
	switch route {
	case "GET /api/_health":
		reply(w, http.StatusOK, map[string]string{"status": "ok"})
		return
	case "POST /api/auth/login":
		var req platform.LoginRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.Password != "123456" {
			reply(w, http.StatusUnauthorized, map[string]string{"error": "Credenciais inválidas"})
			return
		}
		reply(w, http.StatusOK, map[string]any{
			"token": testToken,
			"user":  map[string]any{"id": 1, "name": "Admin", "email": req.Email, "role": b.loginRole, "store_id": nil},
		})
		return
	}

	if b.expired || r.Header.Get("Authorization") != "Bearer "+testToken {
		reply(w, http.StatusUnauthorized, map[string]string{"error": "token expirado"})
		return
	}

	switch {
	case route == "GET /api/auth/me":
		reply(w, http.StatusOK, map[string]any{"id": 1, "name": "Admin", "email": "admin@cdc.com", "role": b.meRole})

	case route == "GET /api/clientes":
		b.queries = append(b.queries, r.URL.RawQuery)
		reply(w, http.StatusOK, b.customerPage(r))

	case route == "POST /api/clientes":
		var in platform.NewCustomer
		_ = json.NewDecoder(r.Body).Decode(&in)
		b.created = append(b.created, in)
		reply(w, http.StatusCreated, map[string]int{"id": 99})

	case route == "POST /api/visitas":
		var in map[string]string
		_ = json.NewDecoder(r.Body).Decode(&in)
		if in["cpf"] == "000" {
			reply(w, http.StatusNotFound, map[string]string{"error": "Cliente não encontrado"})
			return
		}
		reply(w, http.StatusOK, map[string]any{
			"visit_id":     5,
			"client":       map[string]any{"id": 3, "name": "Maria", "cpf": in["cpf"], "phone": "11999990000"},
			"visits_count": 7,
			"meta":         10,
			"eligible":     false,
			"whatsapp_url": "https://wa.me/5511999990000",
		})

	case route == "POST /api/resgates":
		var in map[string]string
		_ = json.NewDecoder(r.Body).Decode(&in)
		b.gifts = append(b.gifts, in["gift_name"])
		reply(w, http.StatusCreated, map[string]any{"redemption_id": 3, "gift_name": in["gift_name"], "when": "2026-10-16"})

	case route == "GET /api/dashboard/kpis":
		reply(w, http.StatusOK, map[string]int{"visitas_30d": 40, "clientes_total": 25, "resgates_30d": 4})

	case route == "GET /api/dashboard/aniversariantes":
		reply(w, http.StatusOK, []map[string]any{{"id": 4, "name": "Bia", "cpf": "222", "birthday": "1990-10-20"}})

	case route == "GET /api/dashboard/aniversariantes_export":
		var buf bytes.Buffer
		if err := export.WriteCustomers(&buf, b.customers[:3], nil); err != nil {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Header().Set("Content-Disposition", `attachment; filename="aniversariantes_2026_10.xlsx"`)
		_, _ = w.Write(buf.Bytes())

	case route == "GET /api/admin/stores":
		reply(w, http.StatusOK, []map[string]any{{"id": 1, "name": "Centro", "meta_visitas": 10}})

	case route == "GET /api/admin/users":
		reply(w, http.StatusOK, b.users)

	case route == "POST /api/admin/users":
		var in map[string]any
		_ = json.NewDecoder(r.Body).Decode(&in)
		in["id"] = 3
		delete(in, "password")
		b.users = append(b.users, in)
		reply(w, http.StatusCreated, in)

	case strings.HasPrefix(r.URL.Path, "/api/admin/users/"):
		id, _ := strconv.Atoi(strings.TrimPrefix(r.URL.Path, "/api/admin/users/"))
		switch r.Method {
		case http.MethodPut:
			var in map[string]any
			_ = json.NewDecoder(r.Body).Decode(&in)
			b.updates[id] = in
			reply(w, http.StatusOK, map[string]bool{"ok": true})
		case http.MethodDelete:
			b.deleted = append(b.deleted, id)
			reply(w, http.StatusOK, map[string]bool{"ok": true})
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}

	default:
		reply(w, http.StatusNotFound, map[string]string{"error": "not found: " + route})
	}
}

func (b *backend) customerPage(r *http.Request) platform.CustomerPage {
	q := r.URL.Query()
	cpf := q.Get("cpf")
	page, _ := strconv.Atoi(q.Get("page"))
	perPage, _ := strconv.Atoi(q.Get("per_page"))
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 10
	}

	var match []platform.Customer
	for _, c := range b.customers {
		if strings.Contains(c.CPF, cpf) {
			match = append(match, c)
		}
	}
	start := (page - 1) * perPage
	if start > len(match) {
		start = len(match)
	}
	end := start + perPage
	if end > len(match) {
		end = len(match)
	}
	return platform.CustomerPage{Items: match[start:end], Total: len(match)}
}

// harness runs command trees against a backend in an isolated home.
type harness struct {
	t    *testing.T
	api  *backend
	srv  *httptest.Server
	home string

	prompter tui.Prompter
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	api := newBackend()
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	home := t.TempDir()
	t.Setenv("FIDELIDADE_HOME", home)
	t.Setenv("FIDELIDADE_API_BASE", srv.URL)
	t.Setenv("FIDELIDADE_SESSION_BACKEND", "file")

	return &harness{t: t, api: api, srv: srv, home: home, prompter: tui.NoPrompter{}}
}

// run executes args and returns what the command wrote to stdout.
func (h *harness) run(args ...string) (string, error) {
	return h.runWithInput("", args...)
}

func (h *harness) runWithInput(stdin string, args ...string) (string, error) {
	h.t.Helper()
	c := &cli{prompter: h.prompter}
	root := newRootCmd(c)

	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)

	err := root.ExecuteContext(context.Background())
	c.close()
	return out.String(), err
}

func (h *harness) login() {
	h.t.Helper()
	_, err := h.runWithInput("123456\n", "auth", "login", "--email", "admin@cdc.com", "--password-stdin")
	require.NoError(h.t, err)
}

// scripted answers prompts from a table keyed by prompt message.
type scripted struct {
	answers map[string]string
	confirm bool
}

func (s scripted) String(p tui.Prompt) (string, error) {
	if v, ok := s.answers[p.Message]; ok {
		return v, nil
	}
	return "", tui.ErrNoTerminal
}

func (s scripted) Password(message string) (string, error) {
	if v, ok := s.answers[message]; ok {
		return v, nil
	}
	return "", tui.ErrNoTerminal
}

func (s scripted) Select(message string, _ []tui.Option) (string, error) {
	if v, ok := s.answers[message]; ok {
		return v, nil
	}
	return "", tui.ErrNoTerminal
}

func (s scripted) Confirm(string, bool) (bool, error) {
	return s.confirm, nil
}

func requireCode(t *testing.T, err error, code errors.ErrorCode) {
	t.Helper()
	require.Error(t, err)
	var fe *errors.FidelidadeError
	require.True(t, stderrors.As(err, &fe), "expected a coded error, got %v", err)
	assert.Equal(t, code, fe.Code, "error: %v", err)
}
