package platform

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/casadocigano/fidelidade/internal/auth"
)

// Store is a physical shop.
type Store struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	MetaVisitas int    `json:"meta_visitas"`
}

// UserInput is the body for creating or updating a staff user.
// StoreID is always sent; nil means the user is not pinned to a store.
// Password is omitted when empty, which keeps the current password on update.
type UserInput struct {
	Name     string    `json:"name"`
	Email    string    `json:"email"`
	Role     auth.Role `json:"role"`
	StoreID  *int      `json:"store_id"`
	Password string    `json:"password,omitempty"`
}

// ParseStoreID reads a store selector. "all" and "" mean no store.
func ParseStoreID(s string) (*int, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "all") {
		return nil, nil
	}
	id, err := strconv.Atoi(s)
	if err != nil || id <= 0 {
		return nil, fmt.Errorf("invalid store %q: use a store id or \"all\"", s)
	}
	return &id, nil
}

// StoreName resolves a store id against stores. A nil id is "Todas".
func StoreName(stores []Store, id *int) string {
	if id == nil {
		return "Todas"
	}
	for _, s := range stores {
		if s.ID == *id {
			return s.Name
		}
	}
	return "#" + strconv.Itoa(*id)
}

// ListStores returns every store.
func (c *Client) ListStores(ctx context.Context) ([]Store, error) {
	var stores []Store
	if err := c.get(ctx, "/api/admin/stores", nil, &stores); err != nil {
		return nil, err
	}
	return stores, nil
}

// ListUsers returns every staff user, newest first.
func (c *Client) ListUsers(ctx context.Context) ([]auth.User, error) {
	var users []auth.User
	if err := c.get(ctx, "/api/admin/users", nil, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// CreateUser creates a staff user.
func (c *Client) CreateUser(ctx context.Context, in UserInput) (*auth.User, error) {
	var u auth.User
	if err := c.send(ctx, http.MethodPost, "/api/admin/users", in, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// UpdateUser replaces a staff user's fields.
func (c *Client) UpdateUser(ctx context.Context, id int, in UserInput) error {
	return c.send(ctx, http.MethodPut, fmt.Sprintf("/api/admin/users/%d", id), in, nil)
}

// DeleteUser removes a staff user.
func (c *Client) DeleteUser(ctx context.Context, id int) error {
	_, err := c.Do(ctx, http.MethodDelete, fmt.Sprintf("/api/admin/users/%d", id), nil)
	return err
}
