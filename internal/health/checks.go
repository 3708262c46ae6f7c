package health

import (
	"context"
	"os"
	"time"

	"github.com/casadocigano/fidelidade/internal/auth"
	"github.com/casadocigano/fidelidade/internal/config"
	"github.com/casadocigano/fidelidade/internal/platform"
)

// APIChecker probes the backend's health endpoint.
type APIChecker struct {
	client *platform.Client
}

func NewAPIChecker(client *platform.Client) *APIChecker {
	return &APIChecker{client: client}
}

func (c *APIChecker) Name() string { return "api" }

func (c *APIChecker) Check(ctx context.Context) *Result {
	h, err := c.client.Health(ctx)
	if err != nil {
		status := platform.StatusOf(err)
		if status == 0 {
			return Unhealthy("backend unreachable").
				WithDetail("url", c.client.BaseURL()).
				WithDetail("error", err.Error())
		}
		return Unhealthy("health endpoint failed").
			WithDetail("url", c.client.BaseURL()).
			WithDetail("status", status)
	}
	if !h.OK() {
		return Degraded("backend reported status " + h.Status).WithDetail("url", c.client.BaseURL())
	}
	return Healthy("backend is up").WithDetail("url", c.client.BaseURL())
}

// Identity asks the backend who owns the current token.
type Identity interface {
	Me(ctx context.Context) (*auth.User, error)
}

// SessionChecker reads the stored session and, when there is one and an
// Identity is given, asks the backend to confirm it.
type SessionChecker struct {
	store auth.Store
	id    Identity
	now   func() time.Time
}

func NewSessionChecker(store auth.Store, id Identity) *SessionChecker {
	return &SessionChecker{store: store, id: id, now: time.Now}
}

func (c *SessionChecker) Name() string { return "session" }

func (c *SessionChecker) Check(ctx context.Context) *Result {
	s, err := c.store.Load(ctx)
	if err != nil {
		return Unhealthy("cannot read the stored session").WithDetail("error", err.Error())
	}
	if !s.Valid() {
		return Degraded("not logged in")
	}

	res := Healthy("session stored").
		WithDetail("user_id", s.User.ID).
		WithDetail("role", s.User.Role.String())
	if exp, ok := s.ExpiresAt(); ok {
		res.WithDetail("expires_at", exp.Format(time.RFC3339))
		if c.now().After(exp) {
			res.Status = StatusDegraded
			res.Message = "token looks expired"
		}
	}

	if c.id == nil {
		return res
	}
	if _, err := c.id.Me(ctx); err != nil {
		if platform.IsAuthFailure(err) {
			return Unhealthy("session rejected by the server").WithDetail("status", platform.StatusOf(err))
		}
		res.Status = StatusDegraded
		res.Message = "session could not be confirmed"
		return res.WithDetail("error", err.Error())
	}
	res.Message = "session accepted by the server"
	return res
}

// ConfigChecker validates the loaded configuration.
type ConfigChecker struct {
	cfg *config.Config
}

func NewConfigChecker(cfg *config.Config) *ConfigChecker {
	return &ConfigChecker{cfg: cfg}
}

func (c *ConfigChecker) Name() string { return "config" }

func (c *ConfigChecker) Check(context.Context) *Result {
	if err := c.cfg.Validate(); err != nil {
		return Unhealthy("invalid configuration").WithDetail("error", err.Error())
	}

	res := Healthy("configuration is valid").
		WithDetail("api_base", c.cfg.APIBase).
		WithDetail("session_backend", c.cfg.Session.Backend)

	file := c.cfg.File()
	if _, err := os.Stat(file); err != nil {
		return res.WithDetail("file", file+" (defaults)")
	}
	return res.WithDetail("file", file)
}

// Pinger is implemented by session backends with a live connection.
type Pinger interface {
	Ping(ctx context.Context) error
}

// RedisChecker pings the Redis session backend.
type RedisChecker struct {
	addr string
	p    Pinger
}

func NewRedisChecker(addr string, p Pinger) *RedisChecker {
	return &RedisChecker{addr: addr, p: p}
}

func (c *RedisChecker) Name() string { return "redis" }

func (c *RedisChecker) Check(ctx context.Context) *Result {
	if err := c.p.Ping(ctx); err != nil {
		return Unhealthy("redis unreachable").
			WithDetail("addr", c.addr).
			WithDetail("error", err.Error())
	}
	return Healthy("redis answers").WithDetail("addr", c.addr)
}
