// Package health aggregates liveness and readiness for a cluster node.
//
// Checks are split into two severities: critical checks (the durable store)
// gate readiness outright, while advisory checks (ring membership) only
// degrade the reported status — a node with no peers yet is still usable on
// its own and should keep serving traffic rather than being pulled out of
// rotation.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Status represents the health status of a single check.
type Status string

const (
	StatusOK       Status = "ok"
	StatusDegraded Status = "degraded"
	StatusDown     Status = "down"
)

// Severity controls whether a failing check blocks readiness or only
// degrades the reported status.
type Severity int

const (
	// Critical checks must pass for the node to be marked ready — e.g. the
	// durable store backing every cache miss.
	Critical Severity = iota
	// Advisory checks never block readiness; a StatusDown result from one
	// only ever downgrades the overall status to StatusDegraded — e.g.
	// ring membership, where a lone node is still correct, just unscaled.
	Advisory
)

// CheckFunc is a function that checks one aspect of node health.
type CheckFunc func(ctx context.Context) Status

type registeredCheck struct {
	fn       CheckFunc
	severity Severity
}

// Checker aggregates named health checks for a node.
type Checker struct {
	mu     sync.RWMutex
	checks map[string]registeredCheck
	logger zerolog.Logger
}

// NewChecker creates a new health checker.
func NewChecker(logger zerolog.Logger) *Checker {
	return &Checker{
		checks: make(map[string]registeredCheck),
		logger: logger.With().Str("component", "health").Logger(),
	}
}

// Register adds a named health check at the given severity.
func (c *Checker) Register(name string, severity Severity, fn CheckFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.checks[name] = registeredCheck{fn: fn, severity: severity}
}

// Report is the outcome of running every registered check once.
type Report struct {
	Status Status            `json:"status"`
	Checks map[string]Status `json:"checks"`
}

// RunAll executes all registered checks concurrently and classifies the
// overall status: any critical check reporting StatusDown makes the whole
// report StatusDown; otherwise any check (critical or advisory) reporting
// non-OK makes it StatusDegraded; otherwise StatusOK.
func (c *Checker) RunAll(ctx context.Context) Report {
	c.mu.RLock()
	checks := make(map[string]registeredCheck, len(c.checks))
	for k, v := range c.checks {
		checks[k] = v
	}
	c.mu.RUnlock()

	results := make(map[string]Status, len(checks))
	var wg sync.WaitGroup
	var mu sync.Mutex

	for name, rc := range checks {
		wg.Add(1)
		go func(n string, rc registeredCheck) {
			defer wg.Done()
			checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			defer cancel()
			s := rc.fn(checkCtx)
			mu.Lock()
			results[n] = s
			mu.Unlock()
		}(name, rc)
	}

	wg.Wait()

	overall := StatusOK
	for name, s := range results {
		if s == StatusOK {
			continue
		}
		if checks[name].severity == Critical && s == StatusDown {
			overall = StatusDown
			continue
		}
		if overall != StatusDown {
			overall = StatusDegraded
		}
	}

	return Report{Status: overall, Checks: results}
}

// IsReady reports whether the node should be in rotation: true unless a
// critical check is down. A degraded-but-ready node (e.g. running alone,
// outside a cluster) still accepts traffic.
func (c *Checker) IsReady(ctx context.Context) bool {
	return c.RunAll(ctx).Status != StatusDown
}

// LivenessHandler returns an HTTP handler for the liveness probe: a process
// that can answer at all is alive, regardless of dependency health.
func LivenessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	}
}

// ReadinessHandler returns an HTTP handler for the readiness probe, serving
// StatusServiceUnavailable only when a critical check is down.
func (c *Checker) ReadinessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		report := c.RunAll(r.Context())

		body := map[string]any{
			"status": "ready",
			"checks": report.Checks,
		}
		if report.Status == StatusDown {
			body["status"] = "not_ready"
			w.WriteHeader(http.StatusServiceUnavailable)
		} else {
			if report.Status == StatusDegraded {
				body["status"] = "ready_degraded"
			}
			w.WriteHeader(http.StatusOK)
		}

		json.NewEncoder(w).Encode(body)
	}
}
