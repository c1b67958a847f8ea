// Package health serves liveness and readiness probes.
//
// Registered checks run together on every tick of a single background loop.
// A check turns unhealthy only after failureThreshold consecutive failures
// and healthy again after one success.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
)

const failureThreshold = 3

// CheckFunc returns nil when the checked component is healthy.
type CheckFunc func(ctx context.Context) error

type check struct {
	name    string
	timeout time.Duration
	fn      CheckFunc

	mu       sync.Mutex
	failures int
	lastErr  error
}

func (c *check) run(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	err := c.fn(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastErr = err
	if err != nil {
		c.failures++
	} else {
		c.failures = 0
	}
}

// state returns "" when healthy, or the last error message.
func (c *check) state() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failures < failureThreshold {
		return ""
	}
	return c.lastErr.Error()
}

// Health holds the probe checks of one process. Register checks before
// Start.
type Health struct {
	ready atomic.Bool

	live    []*check
	readies []*check

	stop context.CancelFunc
	done chan struct{}
}

// New returns a Health that reports not ready until SetReady(true).
func New() *Health {
	return &Health{}
}

// AddLivenessCheck registers a check that restarts the process when failing.
func (h *Health) AddLivenessCheck(name string, timeout time.Duration, fn CheckFunc) {
	h.live = append(h.live, &check{name: name, timeout: timeout, fn: fn})
}

// AddReadinessCheck registers a check that takes the process out of
// rotation when failing.
func (h *Health) AddReadinessCheck(name string, timeout time.Duration, fn CheckFunc) {
	h.readies = append(h.readies, &check{name: name, timeout: timeout, fn: fn})
}

// Start runs every check immediately and then once per interval until Stop
// or ctx is done.
func (h *Health) Start(ctx context.Context, interval time.Duration) {
	ctx, h.stop = context.WithCancel(ctx)
	h.done = make(chan struct{})

	checks := append(append([]*check{}, h.live...), h.readies...)
	go func() {
		defer close(h.done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			runAll(ctx, checks)
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()
}

func runAll(ctx context.Context, checks []*check) {
	var g errgroup.Group
	for _, c := range checks {
		g.Go(func() error {
			c.run(ctx)
			return nil
		})
	}
	_ = g.Wait()
}

// Stop ends the check loop and waits for it to exit.
func (h *Health) Stop() {
	if h.stop == nil {
		return
	}
	h.stop()
	<-h.done
	h.stop = nil
}

// SetReady flips the manual readiness switch, used at startup and drain.
func (h *Health) SetReady(ready bool) {
	h.ready.Store(ready)
}

// IsReady reports whether the switch is on and all readiness checks pass.
func (h *Health) IsReady() bool {
	return h.ready.Load() && len(failing(h.readies)) == 0
}

// LiveEndpoint serves /livez.
func (h *Health) LiveEndpoint(w http.ResponseWriter, _ *http.Request) {
	writeStatus(w, failing(h.live))
}

// ReadyEndpoint serves /readyz.
func (h *Health) ReadyEndpoint(w http.ResponseWriter, _ *http.Request) {
	failures := failing(h.readies)
	if !h.ready.Load() {
		failures["_readiness"] = "service is not ready"
	}
	writeStatus(w, failures)
}

func failing(checks []*check) map[string]string {
	out := make(map[string]string)
	for _, c := range checks {
		if msg := c.state(); msg != "" {
			out[c.name] = msg
		}
	}
	return out
}

type statusResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

func writeStatus(w http.ResponseWriter, failures map[string]string) {
	resp := statusResponse{Status: "ok"}
	code := http.StatusOK
	if len(failures) > 0 {
		resp = statusResponse{Status: "unhealthy", Checks: failures}
		code = http.StatusServiceUnavailable
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(resp)
}
