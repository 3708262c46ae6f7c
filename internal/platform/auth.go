package platform

import (
	"context"
	"net/http"

	"github.com/casadocigano/fidelidade/internal/auth"
)

// LoginRequest is the body of POST /api/auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse is returned by a successful login.
type LoginResponse struct {
	Token string    `json:"token"`
	User  auth.User `json:"user"`
}

// Session converts the response into the value persisted by the session store.
func (r *LoginResponse) Session() auth.Session {
	return auth.Session{Token: r.Token, User: r.User}
}

// Login exchanges credentials for a token.
//
// It does not install the token on the client. Persisting the session and
// calling SetToken is the caller's job so both happen together.
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResponse, error) {
	var resp LoginResponse
	if err := c.send(ctx, http.MethodPost, "/api/auth/login", LoginRequest{Email: email, Password: password}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Me returns the profile of the token's owner as the backend sees it now.
func (c *Client) Me(ctx context.Context) (*auth.User, error) {
	var u auth.User
	if err := c.get(ctx, "/api/auth/me", nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}
