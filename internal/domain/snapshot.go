package domain

import "time"

// Snapshot is an immutable, point-in-time copy of a single check's state.
// It is safe to hand to external consumers without any lock contention.
type Snapshot struct {
	Name                 string             `json:"name"`
	Status               Status             `json:"status"`
	LastCheckedAt        time.Time          `json:"last_checked_at"`
	Duration             time.Duration      `json:"duration"`
	Error                string             `json:"error,omitempty"`
	AffectsReadiness     bool               `json:"affects_readiness"`
	ReadinessThreshold   ReadinessThreshold `json:"readiness_threshold"`
	ConsecutiveFailures  int                `json:"consecutive_failures"`
	ConsecutiveSuccesses int                `json:"consecutive_successes"`
	Passing              bool               `json:"passing"`
}

// Ready computes the aggregate readiness verdict: the logical AND of Passing
// over every snapshot that affects readiness. An empty slice is ready.
func Ready(snapshots []Snapshot) bool {
	for _, s := range snapshots {
		if s.AffectsReadiness && !s.Passing {
			return false
		}
	}
	return true
}
