package health

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jsamuelsen11/healthgate/internal/domain"
)

// Startup runs the one-shot blocking phase. It resolves and registers every
// check, binds check-specific option sections, then evaluates the checks
// flagged BlockOnStartup sequentially in registration order. Sequential
// evaluation is deliberate: startup failures stay deterministic and
// attributable, and cold dependencies are not hit by a thundering herd.
//
// The first blocking check that resolves to Unhealthy (including timeouts and
// panics) aborts the sequence and returns a fatal error wrapping
// domain.ErrStartupFailed; the host must not report started on that path.
// Whatever happens, the started gate is released so the background scheduler
// is never deadlocked by a startup failure elsewhere in the host.
func (rt *Runtime) Startup(ctx context.Context) (err error) {
	defer func() { rt.releaseGate(err) }()

	regs := rt.registrations()

	for _, reg := range regs {
		opts, resolveErr := rt.resolver.Resolve(reg.check, reg.explicit)
		if resolveErr != nil {
			return resolveErr
		}
		reg.opts = opts

		rt.registry.Register(reg.check.Name(), opts)

		if bindErr := rt.resolver.BindCheckOptions(reg.check); bindErr != nil {
			return bindErr
		}
	}

	for _, reg := range regs {
		if !reg.opts.BlockOnStartup {
			continue
		}

		name := reg.check.Name()
		rt.logger.InfoContext(ctx, "evaluating startup health check", slog.String("check", name))

		out := rt.evaluate(ctx, reg)
		if !out.recorded {
			return fmt.Errorf("startup aborted by shutdown during check %q: %w", name, ctx.Err())
		}
		if out.status == domain.StatusUnhealthy {
			return fmt.Errorf("%w: check %q: %s", domain.ErrStartupFailed, name, out.errMsg)
		}

		rt.logger.InfoContext(ctx, "startup health check passed",
			slog.String("check", name),
			slog.String("status", out.status.String()),
		)
	}

	// Non-blocking checks stay Unknown until the scheduler's eager pass;
	// Unknown never degrades readiness, so this is safe.
	return nil
}
