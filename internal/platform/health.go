package platform

import (
	"context"
)

// HealthStatus is the body of GET /api/_health.
type HealthStatus struct {
	Status string `json:"status"`
}

// OK reports whether the backend declared itself healthy.
func (h *HealthStatus) OK() bool {
	return h != nil && h.Status == "ok"
}

// Health probes the unauthenticated health endpoint.
func (c *Client) Health(ctx context.Context) (*HealthStatus, error) {
	var h HealthStatus
	if err := c.get(ctx, "/api/_health", nil, &h); err != nil {
		return nil, err
	}
	return &h, nil
}
