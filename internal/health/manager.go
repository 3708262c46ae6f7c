package health

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// DefaultTimeout bounds each check.
const DefaultTimeout = 5 * time.Second

// Manager runs checkers concurrently and collects their results.
type Manager struct {
	mu       sync.RWMutex
	checkers []Checker
	timeout  time.Duration
}

// NewManager creates a manager with DefaultTimeout.
func NewManager() *Manager {
	return &Manager{timeout: DefaultTimeout}
}

// WithTimeout sets the per-check timeout.
func (m *Manager) WithTimeout(timeout time.Duration) *Manager {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.timeout = timeout
	return m
}

// AddChecker registers c. The report lists checks in registration order.
func (m *Manager) AddChecker(c Checker) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.checkers = append(m.checkers, c)
}

// CheckNames returns the registered names in order.
func (m *Manager) CheckNames() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, len(m.checkers))
	for i, c := range m.checkers {
		names[i] = c.Name()
	}
	return names
}

// Count returns the number of registered checkers.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.checkers)
}

// Entry is one line of a Report.
type Entry struct {
	Name   string  `json:"name" yaml:"name"`
	Result *Result `json:"result" yaml:"result"`
}

// Report holds the results of one run.
type Report struct {
	Status  Status  `json:"status" yaml:"status"`
	Entries []Entry `json:"checks" yaml:"checks"`
}

// Get returns the result for name.
func (r *Report) Get(name string) (*Result, bool) {
	for _, e := range r.Entries {
		if e.Name == name {
			return e.Result, true
		}
	}
	return nil, false
}

// Healthy reports whether nothing is unhealthy. Degraded checks pass.
func (r *Report) Healthy() bool {
	return r.Status != StatusUnhealthy
}

// Run executes every checker in parallel, each under the manager timeout.
// A checker that panics or returns nil is reported unhealthy.
func (m *Manager) Run(ctx context.Context) *Report {
	m.mu.RLock()
	checkers := append([]Checker(nil), m.checkers...)
	timeout := m.timeout
	m.mu.RUnlock()

	entries := make([]Entry, len(checkers))
	var wg sync.WaitGroup
	for i, c := range checkers {
		wg.Add(1)
		go func(i int, c Checker) {
			defer wg.Done()
			entries[i] = Entry{Name: c.Name(), Result: runOne(ctx, c, timeout)}
		}(i, c)
	}
	wg.Wait()

	report := &Report{Status: StatusHealthy, Entries: entries}
	for _, e := range entries {
		if e.Result.Status.rank() > report.Status.rank() {
			report.Status = e.Result.Status
		}
	}
	return report
}

func runOne(ctx context.Context, c Checker, timeout time.Duration) (res *Result) {
	checkCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	defer func() {
		if p := recover(); p != nil {
			res = Unhealthy(fmt.Sprintf("check panicked: %v", p))
		}
		if res == nil {
			res = Unhealthy("check returned no result")
		}
		if res.Latency == 0 {
			res.Latency = time.Since(start)
		}
	}()
	return c.Check(checkCtx)
}
