package cmd

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/casadocigano/fidelidade/internal/auth"
	"github.com/casadocigano/fidelidade/internal/errors"
	"github.com/casadocigano/fidelidade/internal/exitcode"
)

func TestAdminRoleIsConfirmedByBackend(t *testing.T) {
	tests := []struct {
		name      string
		loginRole string
		meRole    string
		wantCode  errors.ErrorCode
	}{
		{"admin", "ADMIN", "ADMIN", ""},
		{"gerente", "GERENTE", "GERENTE", errors.ErrCodeAuthForbidden},
		{"stale cached admin", "ADMIN", "ATENDENTE", errors.ErrCodeAuthForbidden},
		{"cached gerente promoted", "GERENTE", "ADMIN", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			h.api.set(func(b *backend) { b.loginRole = tt.loginRole })
			h.login()
			h.api.set(func(b *backend) { b.meRole = tt.meRole })

			out, err := h.run("admin", "stores")
			if tt.wantCode == "" {
				require.NoError(t, err)
				assert.Contains(t, out, "Centro")
				return
			}
			requireCode(t, err, tt.wantCode)
			assert.Equal(t, exitcode.Forbidden, exitcode.DetermineExitCode(err))
		})
	}
}

func TestAdminRejectedSession(t *testing.T) {
	h := newHarness(t)
	h.login()
	h.api.set(func(b *backend) { b.expired = true })

	_, err := h.run("admin", "users", "list")
	requireCode(t, err, errors.ErrCodeAuthSessionExpired)

	_, err = h.run("auth", "whoami")
	requireCode(t, err, errors.ErrCodeAuthNotLoggedIn)
}

func TestAdminUsersList(t *testing.T) {
	h := newHarness(t)
	h.login()

	out, err := h.run("admin", "users", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "ana@cdc.com")
	assert.Contains(t, out, "Centro", "store ids resolve to names")
	assert.Contains(t, out, "Todas")

	out, err = h.run("admin", "users", "list", "-f", "json")
	require.NoError(t, err)
	var users []auth.User
	require.NoError(t, json.Unmarshal([]byte(out), &users))
	assert.Len(t, users, 2)
}

func TestAdminUsersCreate(t *testing.T) {
	h := newHarness(t)
	h.login()

	out, err := h.runWithInput("s3nha\n", "admin", "users", "create",
		"--name", "Bruno", "--email", "bruno@cdc.com", "--role", "gerente", "--store", "1", "--password-stdin")
	require.NoError(t, err)
	assert.Contains(t, out, "Usuário bruno@cdc.com criado.")

	h.api.set(func(b *backend) {
		last := b.users[len(b.users)-1]
		assert.Equal(t, "GERENTE", last["role"])
		assert.EqualValues(t, 1, last["store_id"])
	})

	_, err = h.run("admin", "users", "create", "--name", "X", "--email", "x@cdc.com", "--role", "CHEFE", "--password", "p")
	requireCode(t, err, errors.ErrCodeInputInvalid)

	_, err = h.run("admin", "users", "create", "--name", "X", "--email", "x@cdc.com", "--password", "p")
	requireCode(t, err, errors.ErrCodeInputRequired)
}

func TestAdminUsersCreatePrompts(t *testing.T) {
	h := newHarness(t)
	h.login()
	h.prompter = scripted{answers: map[string]string{
		"Nome":   "Carla",
		"Email":  "carla@cdc.com",
		"Perfil": "ATENDENTE",
		"Senha":  "123",
	}}

	_, err := h.run("admin", "users", "create")
	require.NoError(t, err)
	h.api.set(func(b *backend) {
		last := b.users[len(b.users)-1]
		assert.Equal(t, "carla@cdc.com", last["email"])
		assert.Nil(t, last["store_id"], "store defaults to all")
	})
}

func TestAdminUsersUpdateKeepsUnsetFields(t *testing.T) {
	h := newHarness(t)
	h.login()

	out, err := h.run("admin", "users", "update", "2", "--role", "GERENTE")
	require.NoError(t, err)
	assert.Contains(t, out, "Usuário #2 atualizado.")

	h.api.set(func(b *backend) {
		body := b.updates[2]
		assert.Equal(t, "Ana", body["name"])
		assert.Equal(t, "ana@cdc.com", body["email"])
		assert.Equal(t, "GERENTE", body["role"])
		assert.EqualValues(t, 1, body["store_id"])
		assert.NotContains(t, body, "password", "password is kept when not given")
	})

	_, err = h.run("admin", "users", "update", "2", "--store", "all")
	require.NoError(t, err)
	h.api.set(func(b *backend) {
		assert.Nil(t, b.updates[2]["store_id"])
	})

	_, err = h.run("admin", "users", "update", "42", "--name", "Ninguém")
	requireCode(t, err, errors.ErrCodeInputInvalid)

	_, err = h.run("admin", "users", "update", "abc")
	requireCode(t, err, errors.ErrCodeInputInvalid)
}

func TestAdminUsersDelete(t *testing.T) {
	h := newHarness(t)
	h.login()

	_, err := h.run("admin", "users", "delete", "2")
	requireCode(t, err, errors.ErrCodeInputRequired)

	h.prompter = scripted{confirm: false}
	out, err := h.run("admin", "users", "delete", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "Cancelado.")

	out, err = h.run("admin", "users", "delete", "2", "--yes")
	require.NoError(t, err)
	assert.Contains(t, out, "Usuário #2 excluído.")

	h.api.set(func(b *backend) {
		assert.Equal(t, []int{2}, b.deleted)
	})
}
