package ports

import (
	"context"

	"github.com/jsamuelsen11/healthgate/internal/domain"
)

// Check is implemented by any component whose health the runtime tracks.
// Examples: downstream API clients, database connections, process self-checks.
type Check interface {
	// Name returns the stable identifier for this check. It is used as the
	// configuration key (health.checks.{name}) and the snapshot identifier.
	// Names are compared case-insensitively.
	Name() string

	// ConfigureDefaults seeds check-type-specific defaults onto opts before
	// configuration overrides and explicit registrations are applied. A check
	// with no opinions should leave opts untouched.
	ConfigureDefaults(opts *domain.CheckOptions)

	// Evaluate performs one health evaluation. Implementations must respect
	// context cancellation and deadlines; the runtime bounds every call with
	// the check's configured timeout.
	//
	// Return StatusHealthy or StatusDegraded with a nil error for usable
	// dependencies. A non-nil error forces StatusUnhealthy regardless of the
	// returned status.
	Evaluate(ctx context.Context) (domain.Status, error)
}

// ConfigurableCheck is implemented by checks that accept a strongly-typed
// options object bound from the health.checks.{name}.options configuration
// sub-section. The section is optional; when absent the check's own defaults
// apply and Options is never decoded into.
type ConfigurableCheck interface {
	Check

	// Options returns a pointer to the check's options struct. The startup
	// evaluator decodes the configuration sub-section into it before the
	// first evaluation.
	Options() any
}

// StateReader exposes read-only health state to readiness consumers.
// Implemented by the health registry.
type StateReader interface {
	// Snapshots returns a point-in-time copy of all check states, sorted by
	// check name.
	Snapshots() []domain.Snapshot

	// Ready reports the aggregate readiness verdict over all checks that
	// affect readiness.
	Ready() bool
}
