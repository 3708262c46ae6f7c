package auth

import (
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Role is the staff role assigned by the backend.
type Role string

const (
	// RoleAtendente is front-desk staff
	RoleAtendente Role = "ATENDENTE"
	// RoleGerente is a store manager
	RoleGerente Role = "GERENTE"
	// RoleAdmin can manage users and stores
	RoleAdmin Role = "ADMIN"
)

// Roles lists every role the backend accepts, in display order.
func Roles() []Role {
	return []Role{RoleAtendente, RoleGerente, RoleAdmin}
}

// ParseRole normalizes s into a Role. The boolean is false for unknown roles.
func ParseRole(s string) (Role, bool) {
	r := Role(strings.ToUpper(strings.TrimSpace(s)))
	return r, r.Valid()
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAtendente, RoleGerente, RoleAdmin:
		return true
	}
	return false
}

// IsAdmin reports whether r grants access to administrative areas.
func (r Role) IsAdmin() bool {
	return r == RoleAdmin
}

func (r Role) String() string {
	return string(r)
}

// User is the profile returned by the login endpoint.
type User struct {
	ID       int    `json:"id"`
	Name     string `json:"name,omitempty"`
	Email    string `json:"email,omitempty"`
	Role     Role   `json:"role"`
	StoreID  *int   `json:"store_id"`
	LockLoja bool   `json:"lock_loja,omitempty"`
}

// StoreLabel is the store scope shown in the top bar.
func (u User) StoreLabel() string {
	if u.LockLoja {
		return "Loja Fixa"
	}
	return "Todas"
}

// Session is the authenticated identity held by the client.
type Session struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// Valid reports whether the session carries a token.
func (s *Session) Valid() bool {
	return s != nil && s.Token != ""
}

// ExpiresAt decodes the exp claim of the token without verifying it.
//
// The result is informational only. The backend remains the authority on
// whether a token is still accepted, so callers never skip a request based
// on it. The boolean is false when the token is not a JWT or has no exp.
func (s *Session) ExpiresAt() (time.Time, bool) {
	if !s.Valid() {
		return time.Time{}, false
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(s.Token, claims); err != nil {
		return time.Time{}, false
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}

// Expired reports whether the token's exp claim is in the past relative to now.
// Tokens without a readable exp are never considered expired.
func (s *Session) Expired(now time.Time) bool {
	exp, ok := s.ExpiresAt()
	return ok && now.After(exp)
}
