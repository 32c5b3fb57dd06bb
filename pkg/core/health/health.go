// Package health provides a small registry of named health checks used by
// the relay gateway's /health endpoint.
package health

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// Status represents the health status of a component
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusDegraded  Status = "degraded"
	StatusUnhealthy Status = "unhealthy"
)

// CheckResult represents the result of a single health check
type CheckResult struct {
	Name     string        `json:"name"`
	Status   Status        `json:"status"`
	Message  string        `json:"message,omitempty"`
	Duration time.Duration `json:"duration,omitempty"`
}

// CheckFunc runs one health check
type CheckFunc func(ctx context.Context) CheckResult

// Registry manages named health checks for a service
type Registry struct {
	mu       sync.RWMutex
	checkers map[string]CheckFunc
	service  string
	version  string
	startAt  time.Time
}

// NewRegistry creates a new health check registry
func NewRegistry(service, version string) *Registry {
	return &Registry{
		checkers: make(map[string]CheckFunc),
		service:  service,
		version:  version,
		startAt:  time.Now(),
	}
}

// RegisterFunc adds a named check function to the registry
func (r *Registry) RegisterFunc(name string, fn CheckFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.checkers[name] = fn
}

// Unregister removes a checker from the registry
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.checkers, name)
}

// Check runs all registered checks and aggregates the worst status
func (r *Registry) Check(ctx context.Context) *Report {
	r.mu.RLock()
	names := make([]string, 0, len(r.checkers))
	for name := range r.checkers {
		names = append(names, name)
	}
	sort.Strings(names)
	checkers := make([]CheckFunc, len(names))
	for i, name := range names {
		checkers[i] = r.checkers[name]
	}
	r.mu.RUnlock()

	report := &Report{
		Service:   r.service,
		Version:   r.version,
		Status:    StatusHealthy,
		Uptime:    time.Since(r.startAt).Round(time.Second).String(),
		Timestamp: time.Now(),
		Checks:    make([]CheckResult, 0, len(checkers)),
	}

	for i, fn := range checkers {
		start := time.Now()
		result := fn(ctx)
		result.Duration = time.Since(start)
		if result.Name == "" {
			result.Name = names[i]
		}
		report.Checks = append(report.Checks, result)

		switch result.Status {
		case StatusUnhealthy:
			report.Status = StatusUnhealthy
		case StatusDegraded:
			if report.Status != StatusUnhealthy {
				report.Status = StatusDegraded
			}
		}
	}

	return report
}

// CheckWithTimeout runs all checks bounded by the given timeout
func (r *Registry) CheckWithTimeout(timeout time.Duration) *Report {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return r.Check(ctx)
}

// Report represents the overall health report
type Report struct {
	Service   string        `json:"service"`
	Version   string        `json:"version"`
	Status    Status        `json:"status"`
	Uptime    string        `json:"uptime"`
	Timestamp time.Time     `json:"timestamp"`
	Checks    []CheckResult `json:"checks,omitempty"`
}

// String returns a short representation of the report
func (r *Report) String() string {
	return fmt.Sprintf("%s: %s (uptime %s, %d checks)", r.Service, r.Status, r.Uptime, len(r.Checks))
}
