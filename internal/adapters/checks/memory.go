package checks

import (
	"context"
	"fmt"
	"runtime"

	"github.com/jsamuelsen11/healthgate/internal/domain"
	"github.com/jsamuelsen11/healthgate/internal/ports"
)

// Compile-time interface check.
var _ ports.ConfigurableCheck = (*Memory)(nil)

// MemoryOptions is the check-specific options section for the memory check.
// Ratios are fractions of memory obtained from the OS (runtime.MemStats.Sys).
type MemoryOptions struct {
	WarnRatio     float64 `koanf:"warn_ratio"`
	CriticalRatio float64 `koanf:"critical_ratio"`
}

// Memory is a process self-check over heap usage. It reports Degraded above
// the warn ratio and Unhealthy above the critical ratio. By default it does
// not gate readiness or startup; it exists to surface memory pressure in
// snapshots and metrics before the OOM killer does.
type Memory struct {
	opts MemoryOptions
}

// NewMemory creates a memory self-check with 80%/95% thresholds.
func NewMemory() *Memory {
	return &Memory{opts: MemoryOptions{WarnRatio: 0.8, CriticalRatio: 0.95}}
}

// Name returns "memory".
func (m *Memory) Name() string {
	return "memory"
}

// ConfigureDefaults keeps the check out of the readiness verdict and the
// startup gate; memory pressure is a warning signal, not a traffic gate.
func (m *Memory) ConfigureDefaults(opts *domain.CheckOptions) {
	opts.AffectsReadiness = false
	opts.BlockOnStartup = false
}

// Options exposes the check's options struct for configuration binding.
func (m *Memory) Options() any {
	return &m.opts
}

// Evaluate reads runtime memory statistics and classifies heap usage.
func (m *Memory) Evaluate(_ context.Context) (domain.Status, error) {
	var stats runtime.MemStats
	runtime.ReadMemStats(&stats)

	if stats.Sys == 0 {
		return domain.StatusHealthy, nil
	}

	ratio := float64(stats.HeapAlloc) / float64(stats.Sys)

	switch {
	case ratio >= m.opts.CriticalRatio:
		return domain.StatusUnhealthy, fmt.Errorf("heap usage critical: %.1f%% of %d bytes", ratio*100, stats.Sys)
	case ratio >= m.opts.WarnRatio:
		return domain.StatusDegraded, nil
	default:
		return domain.StatusHealthy, nil
	}
}
