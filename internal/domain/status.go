package domain

// Status is the tri-state outcome of a single health-check evaluation, plus
// the Unknown zero value a check holds before its first evaluation.
type Status int

const (
	// StatusUnknown means the check has never been evaluated. It is never a
	// legal evaluation result; only freshly registered checks carry it.
	StatusUnknown Status = iota

	// StatusHealthy means the dependency is fully operational.
	StatusHealthy

	// StatusDegraded means the dependency works but with reduced capacity or
	// elevated latency. Whether it counts as passing depends on the check's
	// readiness threshold.
	StatusDegraded

	// StatusUnhealthy means the dependency is not usable.
	StatusUnhealthy
)

// String returns the lowercase name of the status.
func (s Status) String() string {
	switch s {
	case StatusHealthy:
		return "healthy"
	case StatusDegraded:
		return "degraded"
	case StatusUnhealthy:
		return "unhealthy"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler so snapshots serialize the
// status as its name rather than a bare integer.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}
