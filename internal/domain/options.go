package domain

import (
	"fmt"
	"time"
)

// ReadinessThreshold selects which statuses count as passing when the
// registry recomputes a check's readiness contribution.
type ReadinessThreshold string

const (
	// ThresholdDegraded treats both Healthy and Degraded results as passing.
	// This is the default: a degraded dependency usually still serves traffic.
	ThresholdDegraded ReadinessThreshold = "degraded"

	// ThresholdHealthy treats only Healthy results as passing.
	ThresholdHealthy ReadinessThreshold = "healthy"
)

// DefaultTimeout bounds a single evaluation when a check does not configure
// its own timeout.
const DefaultTimeout = 30 * time.Second

// CheckOptions holds the resolved, per-check configuration. A zero Interval
// means "use the runtime's global default"; every other field is concrete
// after resolution.
type CheckOptions struct {
	// Interval between background evaluations. Zero falls back to the global
	// default interval; negative values fail validation.
	Interval time.Duration

	// AffectsReadiness controls whether this check participates in the
	// aggregate readiness verdict.
	AffectsReadiness bool

	// BlockOnStartup makes the startup evaluator run this check before the
	// service may report started; an unhealthy result aborts startup.
	BlockOnStartup bool

	// ReadinessThreshold selects which statuses count as passing.
	ReadinessThreshold ReadinessThreshold

	// FailureThreshold is the number of consecutive failing results required
	// before the check stops passing for readiness.
	FailureThreshold int

	// SuccessThreshold is the number of consecutive passing results required
	// before a failing check passes for readiness again.
	SuccessThreshold int

	// Timeout bounds each individual evaluation.
	Timeout time.Duration
}

// DefaultCheckOptions returns the built-in option values applied before a
// check's own defaults, explicit registration, or configuration overrides.
func DefaultCheckOptions() CheckOptions {
	return CheckOptions{
		AffectsReadiness:   true,
		BlockOnStartup:     true,
		ReadinessThreshold: ThresholdDegraded,
		FailureThreshold:   1,
		SuccessThreshold:   1,
		Timeout:            DefaultTimeout,
	}
}

// Passing reports whether the given evaluation result counts as passing
// under this check's readiness threshold.
func (o CheckOptions) Passing(s Status) bool {
	return s == StatusHealthy || (s == StatusDegraded && o.ReadinessThreshold == ThresholdDegraded)
}

// Validate checks every field and reports all violations together as a single
// *ValidationError naming the check. It never stops at the first violation.
func (o CheckOptions) Validate(check string) error {
	fields := make(map[string]string)

	if o.Interval < 0 {
		fields["interval"] = fmt.Sprintf("must be positive when set, got %s", o.Interval)
	}
	if o.FailureThreshold < 1 {
		fields["failure_threshold"] = fmt.Sprintf("must be >= 1, got %d", o.FailureThreshold)
	}
	if o.SuccessThreshold < 1 {
		fields["success_threshold"] = fmt.Sprintf("must be >= 1, got %d", o.SuccessThreshold)
	}
	if o.Timeout <= 0 {
		fields["timeout"] = fmt.Sprintf("must be positive, got %s", o.Timeout)
	}
	switch o.ReadinessThreshold {
	case ThresholdDegraded, ThresholdHealthy:
	default:
		fields["readiness_threshold"] = fmt.Sprintf("must be one of: degraded, healthy; got %q", o.ReadinessThreshold)
	}

	if len(fields) > 0 {
		return &ValidationError{Check: check, Fields: fields}
	}
	return nil
}
