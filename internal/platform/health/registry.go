// Package health implements the health-check runtime: a thread-safe registry
// that turns raw evaluation results into a debounced readiness verdict, a
// blocking startup evaluator, and a background scheduler running one periodic
// evaluation loop per check.
//
// The readiness verdict uses threshold hysteresis: a check stops passing only
// after FailureThreshold consecutive failing results, and a failing check
// passes again only after SuccessThreshold consecutive passing results. This
// keeps the orchestrator-facing readiness signal stable across transient
// blips.
package health

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jsamuelsen11/healthgate/internal/domain"
	"github.com/jsamuelsen11/healthgate/internal/ports"
)

// Compile-time interface check.
var _ ports.StateReader = (*Registry)(nil)

// checkState is the mutable per-check state owned exclusively by the
// Registry. It carries a copy of the threshold-relevant options so that
// recomputation never reaches outside the registry's lock.
type checkState struct {
	name string // as registered; map key is the lowercase form

	status        domain.Status
	lastCheckedAt time.Time
	duration      time.Duration
	err           string

	affectsReadiness   bool
	readinessThreshold domain.ReadinessThreshold
	failureThreshold   int
	successThreshold   int

	consecutiveFailures  int
	consecutiveSuccesses int
	passing              bool
}

// Registry is the thread-safe store of per-check state. All three operations
// are serialized on a single mutex; evaluations themselves run outside any
// lock, only the bookkeeping is a critical section.
type Registry struct {
	mu     sync.Mutex
	states map[string]*checkState
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{states: make(map[string]*checkState)}
}

// Register initializes state for a check: Status starts Unknown, counters at
// zero, and the check passes for readiness until evaluated. Registering the
// same name twice is a caller error guarded upstream in the Runtime; the
// registry itself keeps the first registration.
func (r *Registry) Register(name string, opts domain.CheckOptions) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := strings.ToLower(name)
	if _, ok := r.states[key]; ok {
		return
	}

	r.states[key] = &checkState{
		name:               name,
		status:             domain.StatusUnknown,
		affectsReadiness:   opts.AffectsReadiness,
		readinessThreshold: opts.ReadinessThreshold,
		failureThreshold:   opts.FailureThreshold,
		successThreshold:   opts.SuccessThreshold,
		passing:            true,
	}
}

// UpdateAndRecompute records a raw evaluation result and recomputes the
// check's readiness contribution.
//
// A passing result resets the failure streak; the check only recovers its
// readiness contribution once the success streak reaches SuccessThreshold.
// A failing result resets the success streak; the check keeps passing until
// the failure streak reaches FailureThreshold. An unknown name is a no-op.
func (r *Registry) UpdateAndRecompute(name string, status domain.Status, duration time.Duration, errMsg string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	st, ok := r.states[strings.ToLower(name)]
	if !ok {
		return
	}

	st.status = status
	st.lastCheckedAt = time.Now()
	st.duration = duration
	st.err = errMsg

	passing := status == domain.StatusHealthy ||
		(status == domain.StatusDegraded && st.readinessThreshold == domain.ThresholdDegraded)

	if passing {
		st.consecutiveSuccesses++
		st.consecutiveFailures = 0
		if !st.passing && st.consecutiveSuccesses >= st.successThreshold {
			st.passing = true
		}
	} else {
		st.consecutiveFailures++
		st.consecutiveSuccesses = 0
		st.passing = st.consecutiveFailures < st.failureThreshold
	}
}

// Snapshots returns a point-in-time copy of all check states, sorted by name.
// The returned values are detached from the live state.
func (r *Registry) Snapshots() []domain.Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	snaps := make([]domain.Snapshot, 0, len(r.states))
	for _, st := range r.states {
		snaps = append(snaps, domain.Snapshot{
			Name:                 st.name,
			Status:               st.status,
			LastCheckedAt:        st.lastCheckedAt,
			Duration:             st.duration,
			Error:                st.err,
			AffectsReadiness:     st.affectsReadiness,
			ReadinessThreshold:   st.readinessThreshold,
			ConsecutiveFailures:  st.consecutiveFailures,
			ConsecutiveSuccesses: st.consecutiveSuccesses,
			Passing:              st.passing,
		})
	}

	sort.Slice(snaps, func(i, j int) bool { return snaps[i].Name < snaps[j].Name })
	return snaps
}

// Ready reports the aggregate readiness verdict: every readiness-affecting
// check must currently be passing.
func (r *Registry) Ready() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, st := range r.states {
		if st.affectsReadiness && !st.passing {
			return false
		}
	}
	return true
}
