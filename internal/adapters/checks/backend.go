package checks

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/jsamuelsen11/healthgate/internal/domain"
	"github.com/jsamuelsen11/healthgate/internal/platform/httpclient"
	"github.com/jsamuelsen11/healthgate/internal/ports"
)

// Compile-time interface check.
var _ ports.ConfigurableCheck = (*Backend)(nil)

const defaultBackendTimeout = 5 * time.Second

// BackendOptions is the check-specific options section
// (health.checks.{name}.options) for the backend probe.
type BackendOptions struct {
	// Path is requested relative to the client's base URL.
	Path string `koanf:"path"`

	// ExpectStatus is the HTTP status code that counts as a passing probe.
	ExpectStatus int `koanf:"expect_status"`
}

// Backend probes the downstream service over HTTP through the instrumented
// client. Probes ride the same circuit breaker and retry policy as ordinary
// traffic, so the check observes the downstream exactly as request handling
// does.
type Backend struct {
	client *httpclient.Client
	opts   BackendOptions
}

// NewBackend creates a backend probe check for the given client. The check's
// name is the client's downstream service name.
func NewBackend(client *httpclient.Client) *Backend {
	return &Backend{
		client: client,
		opts: BackendOptions{
			Path:         "/health/live",
			ExpectStatus: http.StatusOK,
		},
	}
}

// Name returns the downstream service identifier.
func (b *Backend) Name() string {
	return b.client.ServiceName()
}

// ConfigureDefaults tightens the evaluation timeout: a liveness probe that
// takes longer than a few seconds is as good as failed.
func (b *Backend) ConfigureDefaults(opts *domain.CheckOptions) {
	opts.Timeout = defaultBackendTimeout
}

// Options exposes the probe's options struct for configuration binding.
func (b *Backend) Options() any {
	return &b.opts
}

// Evaluate issues one GET probe. An expected status from a closed breaker is
// Healthy; the same response while the breaker is half-open is Degraded, since
// the downstream is still proving itself. Breaker rejections, transport
// errors, and unexpected statuses are Unhealthy.
func (b *Backend) Evaluate(ctx context.Context) (domain.Status, error) {
	url := b.client.BaseURL() + b.opts.Path

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return domain.StatusUnhealthy, fmt.Errorf("building probe request: %w", err)
	}

	resp, err := b.client.Do(ctx, req)
	if resp != nil {
		defer func() {
			_, _ = io.Copy(io.Discard, resp.Body)
			_ = resp.Body.Close()
		}()
	}

	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return domain.StatusUnhealthy, fmt.Errorf("%s: circuit breaker open", b.Name())
	case err != nil:
		return domain.StatusUnhealthy, err
	case resp.StatusCode != b.opts.ExpectStatus:
		return domain.StatusUnhealthy, fmt.Errorf("%s: probe returned %d, want %d", b.Name(), resp.StatusCode, b.opts.ExpectStatus)
	case b.client.BreakerState() == gobreaker.StateHalfOpen:
		return domain.StatusDegraded, nil
	default:
		return domain.StatusHealthy, nil
	}
}
