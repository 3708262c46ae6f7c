// Package health runs the diagnostics behind `fidelidade doctor`.
//
// Each Checker looks at one dependency of the console (the backend API,
// the stored session, the configuration, the Redis session backend) and
// reports a Result. A Manager runs them concurrently under a timeout and
// returns a Report in registration order:
//
//	m := health.NewManager()
//	m.AddChecker(health.NewConfigChecker(cfg))
//	m.AddChecker(health.NewAPIChecker(client))
//
//	report := m.Run(ctx)
//	for _, e := range report.Entries {
//	    log.Info("check", "name", e.Name, "status", e.Result.Status)
//	}
package health

import (
	"context"
	"time"
)

// Checker is one diagnostic.
type Checker interface {
	// Name is lowercase with hyphens, e.g. "api" or "session-store".
	Name() string

	// Check must return promptly once ctx is done.
	Check(ctx context.Context) *Result
}

// Status is the outcome of a check.
type Status string

const (
	// StatusHealthy means the component works.
	StatusHealthy Status = "healthy"

	// StatusDegraded means the console works with reduced functionality,
	// for example with no stored session.
	StatusDegraded Status = "degraded"

	// StatusUnhealthy means the component is broken.
	StatusUnhealthy Status = "unhealthy"
)

func (s Status) String() string {
	return string(s)
}

// rank orders statuses from best to worst.
func (s Status) rank() int {
	switch s {
	case StatusHealthy:
		return 0
	case StatusDegraded:
		return 1
	default:
		return 2
	}
}

// Result is what a Checker found.
type Result struct {
	Status  Status         `json:"status" yaml:"status"`
	Message string         `json:"message" yaml:"message"`
	Details map[string]any `json:"details,omitempty" yaml:"details,omitempty"`
	Latency time.Duration  `json:"latency_ns" yaml:"latency_ns"`
}

// NewResult creates a result with an empty details map.
func NewResult(status Status, message string) *Result {
	return &Result{Status: status, Message: message, Details: map[string]any{}}
}

// WithDetail records key and returns r for chaining.
func (r *Result) WithDetail(key string, value any) *Result {
	r.Details[key] = value
	return r
}

// WithLatency overrides the measured latency.
func (r *Result) WithLatency(latency time.Duration) *Result {
	r.Latency = latency
	return r
}

func Healthy(message string) *Result   { return NewResult(StatusHealthy, message) }
func Degraded(message string) *Result  { return NewResult(StatusDegraded, message) }
func Unhealthy(message string) *Result { return NewResult(StatusUnhealthy, message) }
