package health_test

import (
	"testing"
	"time"

	"github.com/jsamuelsen11/healthgate/internal/domain"
	"github.com/jsamuelsen11/healthgate/internal/platform/health"
)

func defaultOpts() domain.CheckOptions {
	return domain.DefaultCheckOptions()
}

func TestRegistry_Empty(t *testing.T) {
	t.Parallel()

	r := health.NewRegistry()

	if snaps := r.Snapshots(); len(snaps) != 0 {
		t.Errorf("Snapshots() = %d entries, want 0", len(snaps))
	}
	if !r.Ready() {
		t.Error("Ready() = false for empty registry, want true")
	}
}

func TestRegister_InitialState(t *testing.T) {
	t.Parallel()

	r := health.NewRegistry()
	r.Register("db", defaultOpts())

	snaps := r.Snapshots()
	if len(snaps) != 1 {
		t.Fatalf("Snapshots() = %d entries, want 1", len(snaps))
	}

	s := snaps[0]
	if s.Name != "db" {
		t.Errorf("Name = %q, want %q", s.Name, "db")
	}
	if s.Status != domain.StatusUnknown {
		t.Errorf("Status = %v, want %v", s.Status, domain.StatusUnknown)
	}
	if s.ConsecutiveFailures != 0 || s.ConsecutiveSuccesses != 0 {
		t.Errorf("counters = (%d, %d), want (0, 0)", s.ConsecutiveFailures, s.ConsecutiveSuccesses)
	}
	if !s.Passing {
		t.Error("Passing = false for never-evaluated check, want true")
	}
	if !r.Ready() {
		t.Error("Ready() = false before first evaluation, want true")
	}
}

func TestRegister_FirstRegistrationWins(t *testing.T) {
	t.Parallel()

	first := defaultOpts()
	first.FailureThreshold = 5

	second := defaultOpts()
	second.FailureThreshold = 1

	r := health.NewRegistry()
	r.Register("db", first)
	r.Register("DB", second)

	snaps := r.Snapshots()
	if len(snaps) != 1 {
		t.Fatalf("Snapshots() = %d entries, want 1 (case-insensitive identity)", len(snaps))
	}

	// First options are kept: one failure must not flip readiness.
	r.UpdateAndRecompute("db", domain.StatusUnhealthy, time.Millisecond, "down")
	if !r.Snapshots()[0].Passing {
		t.Error("Passing = false after 1 failure with FailureThreshold=5, want true")
	}
}

func TestUpdateAndRecompute_UnknownName_NoOp(t *testing.T) {
	t.Parallel()

	r := health.NewRegistry()
	r.UpdateAndRecompute("ghost", domain.StatusHealthy, time.Millisecond, "")

	if snaps := r.Snapshots(); len(snaps) != 0 {
		t.Errorf("Snapshots() = %d entries after unknown-name update, want 0", len(snaps))
	}
}

func TestUpdateAndRecompute_DefaultThresholds_ImmediateFlip(t *testing.T) {
	t.Parallel()

	r := health.NewRegistry()
	r.Register("db", defaultOpts())

	// One failure flips readiness immediately.
	r.UpdateAndRecompute("db", domain.StatusUnhealthy, time.Millisecond, "down")
	if r.Snapshots()[0].Passing {
		t.Error("Passing = true after failure with FailureThreshold=1, want false")
	}
	if r.Ready() {
		t.Error("Ready() = true with one failing check, want false")
	}

	// One success restores it immediately.
	r.UpdateAndRecompute("db", domain.StatusHealthy, time.Millisecond, "")
	if !r.Snapshots()[0].Passing {
		t.Error("Passing = false after success with SuccessThreshold=1, want true")
	}
	if !r.Ready() {
		t.Error("Ready() = false after recovery, want true")
	}
}

func TestUpdateAndRecompute_Hysteresis(t *testing.T) {
	t.Parallel()

	opts := defaultOpts()
	opts.FailureThreshold = 3
	opts.SuccessThreshold = 2

	r := health.NewRegistry()
	r.Register("db", opts)

	stream := []domain.Status{
		domain.StatusHealthy,
		domain.StatusUnhealthy,
		domain.StatusUnhealthy,
		domain.StatusUnhealthy,
		domain.StatusHealthy,
		domain.StatusHealthy,
	}
	wantPassing := []bool{true, true, true, false, false, true}

	for i, status := range stream {
		r.UpdateAndRecompute("db", status, time.Millisecond, "")
		if got := r.Snapshots()[0].Passing; got != wantPassing[i] {
			t.Errorf("after result %d (%v): Passing = %v, want %v", i, status, got, wantPassing[i])
		}
	}
}

func TestUpdateAndRecompute_CounterResets(t *testing.T) {
	t.Parallel()

	opts := defaultOpts()
	opts.FailureThreshold = 3
	opts.SuccessThreshold = 3

	r := health.NewRegistry()
	r.Register("db", opts)

	r.UpdateAndRecompute("db", domain.StatusUnhealthy, time.Millisecond, "down")
	r.UpdateAndRecompute("db", domain.StatusUnhealthy, time.Millisecond, "down")

	s := r.Snapshots()[0]
	if s.ConsecutiveFailures != 2 {
		t.Errorf("ConsecutiveFailures = %d, want 2", s.ConsecutiveFailures)
	}

	// A single passing result resets the failure streak.
	r.UpdateAndRecompute("db", domain.StatusHealthy, time.Millisecond, "")

	s = r.Snapshots()[0]
	if s.ConsecutiveFailures != 0 {
		t.Errorf("ConsecutiveFailures = %d after success, want 0", s.ConsecutiveFailures)
	}
	if s.ConsecutiveSuccesses != 1 {
		t.Errorf("ConsecutiveSuccesses = %d, want 1", s.ConsecutiveSuccesses)
	}

	// A single failing result resets the success streak.
	r.UpdateAndRecompute("db", domain.StatusUnhealthy, time.Millisecond, "down")

	s = r.Snapshots()[0]
	if s.ConsecutiveSuccesses != 0 {
		t.Errorf("ConsecutiveSuccesses = %d after failure, want 0", s.ConsecutiveSuccesses)
	}
}

func TestUpdateAndRecompute_ReadinessThreshold(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		threshold   domain.ReadinessThreshold
		status      domain.Status
		wantPassing bool
	}{
		{"degraded counts as passing under degraded threshold", domain.ThresholdDegraded, domain.StatusDegraded, true},
		{"degraded counts as failing under healthy threshold", domain.ThresholdHealthy, domain.StatusDegraded, false},
		{"healthy passes under healthy threshold", domain.ThresholdHealthy, domain.StatusHealthy, true},
		{"unknown counts as failing", domain.ThresholdDegraded, domain.StatusUnknown, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			opts := defaultOpts()
			opts.ReadinessThreshold = tt.threshold

			r := health.NewRegistry()
			r.Register("db", opts)
			r.UpdateAndRecompute("db", tt.status, time.Millisecond, "")

			if got := r.Snapshots()[0].Passing; got != tt.wantPassing {
				t.Errorf("Passing = %v, want %v", got, tt.wantPassing)
			}
		})
	}
}

func TestReady_IgnoresNonReadinessChecks(t *testing.T) {
	t.Parallel()

	advisory := defaultOpts()
	advisory.AffectsReadiness = false

	r := health.NewRegistry()
	r.Register("memory", advisory)
	r.Register("db", defaultOpts())

	r.UpdateAndRecompute("memory", domain.StatusUnhealthy, time.Millisecond, "heap pressure")
	r.UpdateAndRecompute("db", domain.StatusHealthy, time.Millisecond, "")

	if !r.Ready() {
		t.Error("Ready() = false while only a non-readiness check fails, want true")
	}

	r.UpdateAndRecompute("db", domain.StatusUnhealthy, time.Millisecond, "down")
	if r.Ready() {
		t.Error("Ready() = true with a failing readiness check, want false")
	}
}

func TestSnapshots_SortedAndDetached(t *testing.T) {
	t.Parallel()

	r := health.NewRegistry()
	r.Register("zeta", defaultOpts())
	r.Register("alpha", defaultOpts())
	r.Register("mid", defaultOpts())

	snaps := r.Snapshots()
	if len(snaps) != 3 {
		t.Fatalf("Snapshots() = %d entries, want 3", len(snaps))
	}
	for i, want := range []string{"alpha", "mid", "zeta"} {
		if snaps[i].Name != want {
			t.Errorf("snaps[%d].Name = %q, want %q", i, snaps[i].Name, want)
		}
	}

	// Mutating the registry after the fact must not change taken snapshots.
	r.UpdateAndRecompute("alpha", domain.StatusUnhealthy, time.Millisecond, "down")
	if snaps[0].Status != domain.StatusUnknown {
		t.Error("snapshot mutated by later update, want detached copy")
	}
}

func TestUpdateAndRecompute_RecordsResultFields(t *testing.T) {
	t.Parallel()

	r := health.NewRegistry()
	r.Register("db", defaultOpts())

	before := time.Now()
	r.UpdateAndRecompute("db", domain.StatusUnhealthy, 42*time.Millisecond, "connection refused")

	s := r.Snapshots()[0]
	if s.Status != domain.StatusUnhealthy {
		t.Errorf("Status = %v, want %v", s.Status, domain.StatusUnhealthy)
	}
	if s.Duration != 42*time.Millisecond {
		t.Errorf("Duration = %v, want 42ms", s.Duration)
	}
	if s.Error != "connection refused" {
		t.Errorf("Error = %q, want %q", s.Error, "connection refused")
	}
	if s.LastCheckedAt.Before(before) {
		t.Errorf("LastCheckedAt = %v, want >= %v", s.LastCheckedAt, before)
	}
}
