package health

import (
	"context"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	apperrors "github.com/rosterd/rosterd/internal/errors"
)

// Status represents the health status of a component
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusUnhealthy Status = "unhealthy"
	StatusDegraded  Status = "degraded"
)

// ComponentHealth represents the health of a single component
type ComponentHealth struct {
	Status   Status `json:"status"`
	Message  string `json:"message,omitempty"`
	Duration string `json:"duration,omitempty"`
}

// HealthResponse represents the full health check response
type HealthResponse struct {
	Status     Status                     `json:"status"`
	Timestamp  string                     `json:"timestamp"`
	Version    string                     `json:"version,omitempty"`
	Components map[string]ComponentHealth `json:"components,omitempty"`
}

// Pinger is anything that can report its own reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Probe is one dependency checked on readiness. A failing optional probe
// degrades the service instead of taking it out of rotation.
type Probe struct {
	Name     string
	Pinger   Pinger
	Optional bool
}

// Checker performs health checks on various components
type Checker struct {
	probes       []Probe
	version      string
	checkTimeout time.Duration
	now          func() time.Time
}

// CheckerConfig holds configuration for the health checker
type CheckerConfig struct {
	Probes  []Probe
	Version string
	Timeout time.Duration
}

// NewChecker creates a new health checker
func NewChecker(cfg *CheckerConfig) *Checker {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 5 * time.Second
	}
	return &Checker{
		probes:       cfg.Probes,
		version:      cfg.Version,
		checkTimeout: timeout,
		now:          time.Now,
	}
}

func (c *Checker) checkProbe(ctx context.Context, p Probe) ComponentHealth {
	start := time.Now()

	if p.Pinger == nil {
		return ComponentHealth{
			Status:  StatusUnhealthy,
			Message: p.Name + " not configured",
		}
	}

	ctx, cancel := context.WithTimeout(ctx, c.checkTimeout)
	defer cancel()

	if err := p.Pinger.Ping(ctx); err != nil {
		status := StatusUnhealthy
		if p.Optional {
			status = StatusDegraded
		}
		return ComponentHealth{
			Status:   status,
			Message:  p.Name + " ping failed",
			Duration: time.Since(start).String(),
		}
	}

	return ComponentHealth{
		Status:   StatusHealthy,
		Duration: time.Since(start).String(),
	}
}

// Check performs a basic health check (liveness)
func (c *Checker) Check(ctx context.Context) *HealthResponse {
	return &HealthResponse{
		Status:    StatusHealthy,
		Timestamp: c.now().UTC().Format(time.RFC3339),
		Version:   c.version,
	}
}

// DeepCheck runs every probe in parallel (readiness).
func (c *Checker) DeepCheck(ctx context.Context) *HealthResponse {
	response := &HealthResponse{
		Status:     StatusHealthy,
		Timestamp:  c.now().UTC().Format(time.RFC3339),
		Version:    c.version,
		Components: make(map[string]ComponentHealth, len(c.probes)),
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	for _, p := range c.probes {
		p := p
		g.Go(func() error {
			result := c.checkProbe(gctx, p)
			mu.Lock()
			response.Components[p.Name] = result
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	for _, comp := range response.Components {
		if comp.Status == StatusUnhealthy {
			response.Status = StatusUnhealthy
			break
		} else if comp.Status == StatusDegraded && response.Status == StatusHealthy {
			response.Status = StatusDegraded
		}
	}

	return response
}

// Handler provides HTTP handlers for health endpoints
type Handler struct {
	checker *Checker
}

// NewHandler creates a new health handler
func NewHandler(checker *Checker) *Handler {
	return &Handler{checker: checker}
}

// LivenessHandler handles liveness probe requests
func (h *Handler) LivenessHandler(w http.ResponseWriter, r *http.Request) {
	response := h.checker.Check(r.Context())

	status := http.StatusOK
	if response.Status != StatusHealthy {
		status = http.StatusServiceUnavailable
	}
	apperrors.WriteJSON(w, apperrors.GetRequestID(r.Context()), status, response)
}

// ReadinessHandler handles readiness probe requests. Degraded still accepts
// traffic.
func (h *Handler) ReadinessHandler(w http.ResponseWriter, r *http.Request) {
	response := h.checker.DeepCheck(r.Context())

	status := http.StatusOK
	if response.Status == StatusUnhealthy {
		status = http.StatusServiceUnavailable
	}
	apperrors.WriteJSON(w, apperrors.GetRequestID(r.Context()), status, response)
}

// HealthHandler serves /health; ?deep=true runs the readiness checks.
func (h *Handler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("deep") == "true" {
		h.ReadinessHandler(w, r)
		return
	}
	h.LivenessHandler(w, r)
}
