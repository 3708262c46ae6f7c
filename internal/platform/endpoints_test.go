package platform

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/casadocigano/fidelidade/internal/auth"
	"github.com/casadocigano/fidelidade/internal/errors"
)

func TestLogin(t *testing.T) {
	srv, seen := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"token": "abc",
			"user": map[string]any{
				"id": 1, "name": "Admin", "email": "admin@cdc.com",
				"role": "ADMIN", "lock_loja": false, "store_id": nil,
			},
		})
	})
	c := NewClient(srv.URL)

	resp, err := c.Login(context.Background(), "admin@cdc.com", "123456")
	require.NoError(t, err)

	assert.Equal(t, "abc", resp.Token)
	assert.Equal(t, auth.RoleAdmin, resp.User.Role)
	assert.Nil(t, resp.User.StoreID)
	assert.False(t, c.HasToken(), "Login leaves token installation to the caller")
	assert.Equal(t, auth.Session{Token: "abc", User: resp.User}, resp.Session())

	req := (*seen)[0]
	assert.Equal(t, http.MethodPost, req.Method)
	assert.Equal(t, "/api/auth/login", req.Path)
	assert.JSONEq(t, `{"email":"admin@cdc.com","password":"123456"}`, string(req.Body))
}

func TestLogin_InvalidCredentials(t *testing.T) {
	srv, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Credenciais inválidas"})
	})
	c := NewClient(srv.URL)

	_, err := c.Login(context.Background(), "x@y.z", "bad")
	require.Error(t, err)
	assert.Equal(t, "Credenciais inválidas", Message(err, "Falha no login"))
}

func TestMe(t *testing.T) {
	srv, seen := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"id": 2, "role": "GERENTE", "store_id": 4, "lock_loja": true})
	})
	c := NewClient(srv.URL)
	c.SetToken("abc")

	me, err := c.Me(context.Background())
	require.NoError(t, err)
	assert.Equal(t, auth.RoleGerente, me.Role)
	require.NotNil(t, me.StoreID)
	assert.Equal(t, 4, *me.StoreID)
	assert.True(t, me.LockLoja)
	assert.Equal(t, "Bearer abc", (*seen)[0].Header.Get("Authorization"))
}

func TestListCustomers(t *testing.T) {
	srv, seen := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"total": 11,
			"items": []map[string]any{
				{"id": 1, "name": "Ana", "cpf": "111", "phone": "11999990000", "email": nil, "birthday": "1990-03-10", "store_id": 1},
			},
		})
	})
	c := NewClient(srv.URL)

	page, err := c.ListCustomers(context.Background(), CustomerQuery{CPF: " 111 ", Page: 2, PerPage: 10})
	require.NoError(t, err)
	assert.Equal(t, 11, page.Total)
	require.Len(t, page.Items, 1)
	assert.Nil(t, page.Items[0].Email)
	assert.Equal(t, "1990-03-10", *page.Items[0].Birthday)

	q := (*seen)[0].Query
	assert.Equal(t, "111", q.Get("cpf"))
	assert.Equal(t, "2", q.Get("page"))
	assert.Equal(t, "10", q.Get("per_page"))
}

func TestCustomerQueryValues(t *testing.T) {
	v := CustomerQuery{}.values()
	assert.Equal(t, "1", v.Get("page"), "page floors at 1")
	assert.Equal(t, "", v.Get("cpf"))
	assert.False(t, v.Has("per_page"))
}

func TestCreateCustomer(t *testing.T) {
	srv, seen := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusCreated, map[string]int{"id": 42})
	})
	c := NewClient(srv.URL)

	id, err := c.CreateCustomer(context.Background(), NewCustomer{Name: "Ana", CPF: "111", Birthday: "1990-03-10"})
	require.NoError(t, err)
	assert.Equal(t, 42, id)
	assert.JSONEq(t, `{"name":"Ana","cpf":"111","phone":"","email":"","birthday":"1990-03-10"}`, string((*seen)[0].Body))
}

func TestNewCustomerValidate(t *testing.T) {
	tests := []struct {
		name string
		in   NewCustomer
		code errors.ErrorCode
	}{
		{"ok", NewCustomer{Name: "Ana", CPF: "1"}, ""},
		{"missing name", NewCustomer{CPF: "1"}, errors.ErrCodeInputRequired},
		{"missing cpf", NewCustomer{Name: "Ana"}, errors.ErrCodeInputRequired},
		{"bad birthday", NewCustomer{Name: "Ana", CPF: "1", Birthday: "10/03/1990"}, errors.ErrCodeInputInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.in.Validate()
			if tt.code == "" {
				assert.NoError(t, err)
				return
			}
			var fe *errors.FidelidadeError
			require.ErrorAs(t, err, &fe)
			assert.Equal(t, tt.code, fe.Code)
		})
	}
}

func TestCreateCustomer_InvalidIsNotSent(t *testing.T) {
	srv, seen := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusCreated, map[string]int{"id": 1})
	})
	c := NewClient(srv.URL)

	_, err := c.CreateCustomer(context.Background(), NewCustomer{CPF: "1"})
	require.Error(t, err)
	assert.Empty(t, *seen)
}

func TestRegisterVisit(t *testing.T) {
	srv, seen := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"visit_id": 9, "visits_count": 3, "meta": 5, "eligible": false, "store_id": 1,
			"client":       map[string]any{"id": 1, "name": "Ana", "cpf": "111", "phone": "11999990000", "email": nil},
			"whatsapp_url": "https://wa.me/5511999990000?text=Oi",
		})
	})
	c := NewClient(srv.URL)

	v, err := c.RegisterVisit(context.Background(), " 111 ")
	require.NoError(t, err)
	assert.Equal(t, 3, v.VisitsCount)
	assert.Equal(t, 2, v.Remaining())
	assert.Equal(t, "Ana", v.Client.Name)
	require.NotNil(t, v.WhatsAppURL)
	assert.Nil(t, v.WhatsAppImageURL)
	assert.JSONEq(t, `{"cpf":"111"}`, string((*seen)[0].Body))
}

func TestVisitRemainingFloorsAtZero(t *testing.T) {
	assert.Equal(t, 0, (&VisitResult{VisitsCount: 7, Meta: 5}).Remaining())
}

func TestRedeem(t *testing.T) {
	srv, seen := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"redemption_id": 5, "gift_name": "Brinde", "when": "2025-03-01T10:00:00", "store_id": 1})
	})
	c := NewClient(srv.URL)

	r, err := c.Redeem(context.Background(), "111", "  ")
	require.NoError(t, err)
	assert.Equal(t, 5, r.RedemptionID)
	assert.JSONEq(t, `{"cpf":"111","gift_name":"Brinde"}`, string((*seen)[0].Body))
}

func TestRedeem_GoalNotReached(t *testing.T) {
	srv, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "Cliente ainda não atingiu a meta", "visits_count": 2, "meta": 5})
	})
	c := NewClient(srv.URL)

	_, err := c.Redeem(context.Background(), "111", "Caneca")
	assert.Equal(t, "Cliente ainda não atingiu a meta", Message(err, "Erro ao resgatar"))
	assert.False(t, IsAuthFailure(err))
}

func TestDashboard(t *testing.T) {
	srv, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/dashboard/kpis":
			writeJSON(w, http.StatusOK, map[string]int{"visitas_30d": 10, "clientes_total": 20, "resgates_30d": 3})
		case "/api/dashboard/aniversariantes":
			writeJSON(w, http.StatusOK, []map[string]any{{"id": 1, "name": "Ana", "cpf": "111", "birthday": "1990-03-10"}})
		case "/api/dashboard/aniversariantes_export":
			w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
			w.Header().Set("Content-Disposition", `attachment; filename="aniversariantes_2025_03.xlsx"`)
			_, _ = w.Write([]byte("PK\x03\x04"))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
	c := NewClient(srv.URL)
	ctx := context.Background()

	k, err := c.KPIs(ctx)
	require.NoError(t, err)
	assert.Equal(t, KPIs{Visitas30d: 10, ClientesTotal: 20, Resgates30d: 3}, *k)

	b, err := c.Birthdays(ctx)
	require.NoError(t, err)
	require.Len(t, b, 1)
	assert.Equal(t, "Ana", b[0].Name)

	d, err := c.ExportBirthdays(ctx)
	require.NoError(t, err)
	assert.Equal(t, "aniversariantes_2025_03.xlsx", d.Filename)
	assert.Equal(t, []byte("PK\x03\x04"), d.Data)
}

func TestAdminEndpoints(t *testing.T) {
	srv, seen := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/api/admin/stores":
			writeJSON(w, http.StatusOK, []map[string]any{{"id": 1, "name": "Centro", "meta_visitas": 5}})
		case r.URL.Path == "/api/admin/users" && r.Method == http.MethodGet:
			writeJSON(w, http.StatusOK, []map[string]any{{"id": 3, "name": "Bia", "email": "b@cdc.com", "role": "ATENDENTE", "lock_loja": true, "store_id": 1}})
		case r.URL.Path == "/api/admin/users" && r.Method == http.MethodPost:
			writeJSON(w, http.StatusCreated, map[string]any{"id": 4, "name": "Caio", "role": "GERENTE", "store_id": nil})
		default:
			writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
		}
	})
	c := NewClient(srv.URL)
	ctx := context.Background()

	stores, err := c.ListStores(ctx)
	require.NoError(t, err)
	assert.Equal(t, []Store{{ID: 1, Name: "Centro", MetaVisitas: 5}}, stores)

	users, err := c.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "Centro", StoreName(stores, users[0].StoreID))

	created, err := c.CreateUser(ctx, UserInput{Name: "Caio", Email: "c@cdc.com", Role: auth.RoleGerente, Password: "x"})
	require.NoError(t, err)
	assert.Equal(t, 4, created.ID)

	require.NoError(t, c.UpdateUser(ctx, 4, UserInput{Name: "Caio", Email: "c@cdc.com", Role: auth.RoleGerente}))
	require.NoError(t, c.DeleteUser(ctx, 4))

	require.Len(t, *seen, 5)
	assert.JSONEq(t, `{"name":"Caio","email":"c@cdc.com","role":"GERENTE","store_id":null,"password":"x"}`, string((*seen)[2].Body))
	assert.Equal(t, http.MethodPut, (*seen)[3].Method)
	assert.Equal(t, "/api/admin/users/4", (*seen)[3].Path)
	assert.JSONEq(t, `{"name":"Caio","email":"c@cdc.com","role":"GERENTE","store_id":null}`, string((*seen)[3].Body),
		"password is omitted on update when blank")
	assert.Equal(t, http.MethodDelete, (*seen)[4].Method)
}

func TestParseStoreID(t *testing.T) {
	tests := []struct {
		in      string
		want    *int
		wantErr bool
	}{
		{"all", nil, false},
		{"ALL", nil, false},
		{"", nil, false},
		{"3", intPtr(3), false},
		{"0", nil, true},
		{"loja", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseStoreID(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStoreName(t *testing.T) {
	stores := []Store{{ID: 1, Name: "Centro"}}
	assert.Equal(t, "Todas", StoreName(stores, nil))
	assert.Equal(t, "Centro", StoreName(stores, intPtr(1)))
	assert.Equal(t, "#9", StoreName(stores, intPtr(9)))
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	h, err := NewClient(srv.URL).Health(context.Background())
	require.NoError(t, err)
	assert.True(t, h.OK())
}

func intPtr(v int) *int { return &v }
