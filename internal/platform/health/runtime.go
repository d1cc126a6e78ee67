package health

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/jsamuelsen11/healthgate/internal/domain"
	"github.com/jsamuelsen11/healthgate/internal/platform/telemetry"
	"github.com/jsamuelsen11/healthgate/internal/ports"
)

// registration pairs a check with its explicit builder options (nil when
// registered without any) and, after Startup, its resolved options.
type registration struct {
	check    ports.Check
	explicit *domain.CheckOptions
	opts     domain.CheckOptions // resolved during Startup
}

// Runtime owns the two-phase check lifecycle: a blocking startup pass over
// startup-blocking checks, then background periodic evaluation of all checks.
// Construct it once per service instance and share the Registry with the
// readiness consumer.
type Runtime struct {
	registry *Registry
	resolver *Resolver
	logger   *slog.Logger
	metrics  *telemetry.Metrics // nil skips metric recording

	mu   sync.Mutex
	regs []*registration

	started     chan struct{}
	releaseOnce sync.Once
	startupErr  error // written before the gate closes
}

// NewRuntime creates a runtime over the given registry and resolver.
// Pass nil metrics to disable metric recording.
func NewRuntime(registry *Registry, resolver *Resolver, logger *slog.Logger, metrics *telemetry.Metrics) *Runtime {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Runtime{
		registry: registry,
		resolver: resolver,
		logger:   logger,
		metrics:  metrics,
		started:  make(chan struct{}),
	}
}

// Add registers a check whose options come from its own defaults and the
// configuration section. Registering the same identity twice (names compare
// case-insensitively) is an error raised before any evaluation occurs.
func (rt *Runtime) Add(check ports.Check) error {
	return rt.add(check, nil)
}

// AddWithOptions registers a check with explicit options. Explicit options
// are authoritative: they replace the check's defaults entirely and suppress
// configuration overrides for this check.
func (rt *Runtime) AddWithOptions(check ports.Check, opts domain.CheckOptions) error {
	return rt.add(check, &opts)
}

func (rt *Runtime) add(check ports.Check, explicit *domain.CheckOptions) error {
	name := check.Name()
	if strings.TrimSpace(name) == "" {
		return errors.New("check name must not be empty")
	}

	rt.mu.Lock()
	defer rt.mu.Unlock()

	key := strings.ToLower(name)
	for _, reg := range rt.regs {
		if strings.ToLower(reg.check.Name()) == key {
			return fmt.Errorf("%w: %q", domain.ErrDuplicateName, name)
		}
	}

	rt.regs = append(rt.regs, &registration{check: check, explicit: explicit})
	return nil
}

// Started returns a channel closed once the startup phase has finished,
// whether it succeeded or failed. The background scheduler waits on it.
func (rt *Runtime) Started() <-chan struct{} {
	return rt.started
}

// releaseGate closes the started gate exactly once, recording the startup
// outcome first so Run can observe it after the gate opens.
func (rt *Runtime) releaseGate(err error) {
	rt.releaseOnce.Do(func() {
		rt.startupErr = err
		close(rt.started)
	})
}

// registrations returns a stable copy of the registration list.
func (rt *Runtime) registrations() []*registration {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	regs := make([]*registration, len(rt.regs))
	copy(regs, rt.regs)
	return regs
}

// outcome classifies a single evaluation for the caller. recorded is false
// only when host shutdown aborted the evaluation, in which case nothing was
// written to the registry.
type outcome struct {
	status   domain.Status
	errMsg   string
	recorded bool
}

// evaluate runs one evaluation of reg's check under a fresh timeout scope,
// emits the tracing span, records metrics, and writes the classified result
// into the registry. ctx is the host-lifetime context; its cancellation means
// shutdown and is deliberately not recorded as a failure.
func (rt *Runtime) evaluate(ctx context.Context, reg *registration) outcome {
	name := reg.check.Name()
	opts := reg.opts

	evalCtx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	tracer := otel.GetTracerProvider().Tracer("health")
	spanCtx, span := tracer.Start(evalCtx, "HealthCheck: "+name,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attribute.String("check.name", name)),
	)
	defer span.End()

	start := time.Now()
	status, err := runChecked(spanCtx, reg.check)
	elapsed := time.Since(start)

	if ctx.Err() != nil {
		// Host shutdown, not a check failure. Nothing is recorded.
		span.SetAttributes(attribute.String("check.status", "canceled"))
		return outcome{recorded: false}
	}

	var errMsg string
	switch {
	case err != nil && (errors.Is(err, context.DeadlineExceeded) || evalCtx.Err() != nil):
		status = domain.StatusUnhealthy
		errMsg = fmt.Sprintf("evaluation timed out after %s", opts.Timeout)
	case err != nil:
		status = domain.StatusUnhealthy
		errMsg = err.Error()
	case status == domain.StatusUnknown:
		// A check must resolve to a concrete status.
		status = domain.StatusUnhealthy
		errMsg = "check returned no status"
	}

	span.SetAttributes(attribute.String("check.status", status.String()))
	if errMsg != "" {
		span.SetStatus(codes.Error, errMsg)
	}

	rt.recordMetrics(ctx, name, status, elapsed)
	rt.registry.UpdateAndRecompute(name, status, elapsed, errMsg)

	return outcome{status: status, errMsg: errMsg, recorded: true}
}

// runChecked invokes the check's Evaluate, converting a panic into an
// unhealthy result so one faulty check can never crash the process.
func runChecked(ctx context.Context, check ports.Check) (status domain.Status, err error) {
	defer func() {
		if v := recover(); v != nil {
			status = domain.StatusUnhealthy
			err = fmt.Errorf("check panicked: %v", v)
		}
	}()
	return check.Evaluate(ctx)
}

// recordMetrics records evaluation duration and count. Safe with nil metrics.
func (rt *Runtime) recordMetrics(ctx context.Context, name string, status domain.Status, elapsed time.Duration) {
	if rt.metrics == nil {
		return
	}

	attrs := metric.WithAttributes(
		telemetry.AttrCheckName.String(name),
		telemetry.AttrCheckStatus.String(status.String()),
	)
	rt.metrics.CheckDuration.Record(ctx, elapsed.Seconds(), attrs)
	rt.metrics.CheckTotal.Add(ctx, 1, attrs)
}
