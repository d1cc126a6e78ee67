package health

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Run is the background phase. It waits for the startup gate, runs one eager
// concurrent evaluation pass over all checks so none remains Unknown, then
// drives one independent periodic loop per check until ctx is canceled.
//
// If the startup phase failed, Run returns that failure without evaluating
// anything: the gate releases so Run never deadlocks, but a failed startup
// must not be followed by background evaluations.
//
// Run blocks until shutdown and returns nil on a clean exit.
func (rt *Runtime) Run(ctx context.Context) error {
	select {
	case <-rt.started:
	case <-ctx.Done():
		return ctx.Err()
	}

	if rt.startupErr != nil {
		return fmt.Errorf("background scheduler not starting: %w", rt.startupErr)
	}

	regs := rt.registrations()

	// Eager pass: every check evaluated once, concurrently, each under its
	// own timeout.
	var wg sync.WaitGroup
	for _, reg := range regs {
		wg.Add(1)
		go func(reg *registration) {
			defer wg.Done()
			rt.evaluate(ctx, reg)
		}(reg)
	}
	wg.Wait()

	rt.logger.InfoContext(ctx, "eager health pass complete", slog.Int("checks", len(regs)))

	// Steady state: one loop per check at its resolved interval.
	for _, reg := range regs {
		wg.Add(1)
		go func(reg *registration) {
			defer wg.Done()
			rt.runLoop(ctx, reg)
		}(reg)
	}
	wg.Wait()

	rt.logger.Info("health scheduler stopped")
	return nil
}

// runLoop drives the periodic evaluations of a single check. Failures of any
// kind are contained inside the tick: evaluate converts timeouts and panics
// into recorded unhealthy results, so the loop always reaches its next tick.
// The loop exits only on host shutdown.
func (rt *Runtime) runLoop(ctx context.Context, reg *registration) {
	interval := reg.opts.Interval
	if interval <= 0 {
		interval = rt.resolver.DefaultInterval()
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rt.evaluate(ctx, reg)
		}
	}
}
