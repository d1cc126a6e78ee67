package health

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"

	"github.com/jsamuelsen11/healthgate/internal/domain"
	"github.com/jsamuelsen11/healthgate/internal/platform/config"
	"github.com/jsamuelsen11/healthgate/internal/ports"
)

// Resolver merges the three option tiers for a check into a validated,
// immutable-per-resolution options value:
//
//  1. built-in defaults, refined by the check's ConfigureDefaults;
//  2. an explicit builder registration, which replaces the seeded value
//     entirely (never merged field-by-field);
//  3. otherwise, the health.checks.{name} configuration section, overlaid
//     field-by-field so unset fields keep their defaults.
//
// Resolution is deterministic and side-effect-free apart from validation
// errors.
type Resolver struct {
	defaultInterval time.Duration
	overrides       map[string]config.CheckOverrides // keyed lowercase
}

// NewResolver creates a resolver backed by the health configuration section.
func NewResolver(cfg config.HealthConfig) *Resolver {
	overrides := make(map[string]config.CheckOverrides, len(cfg.Checks))
	for name, ov := range cfg.Checks {
		overrides[strings.ToLower(name)] = ov
	}
	return &Resolver{
		defaultInterval: cfg.Interval,
		overrides:       overrides,
	}
}

// DefaultInterval returns the global evaluation interval applied to checks
// that do not set their own.
func (r *Resolver) DefaultInterval() time.Duration {
	return r.defaultInterval
}

// Resolve produces the final options for a check. A non-nil explicit value is
// the authoritative tier and suppresses configuration overrides. After the
// merge the options are validated as a whole; every violation is reported
// together in a single error naming the check.
func (r *Resolver) Resolve(check ports.Check, explicit *domain.CheckOptions) (domain.CheckOptions, error) {
	name := check.Name()

	opts := domain.DefaultCheckOptions()
	check.ConfigureDefaults(&opts)

	if explicit != nil {
		opts = *explicit
	} else if ov, ok := r.overrides[strings.ToLower(name)]; ok {
		applyOverrides(&opts, ov)
	}

	if err := opts.Validate(name); err != nil {
		return domain.CheckOptions{}, err
	}

	if opts.Interval == 0 {
		opts.Interval = r.defaultInterval
	}
	return opts, nil
}

// BindCheckOptions decodes the health.checks.{name}.options sub-section into
// the check's own options struct. Checks without a ConfigurableCheck
// implementation, and checks whose section is absent, are skipped silently so
// their built-in defaults apply.
func (r *Resolver) BindCheckOptions(check ports.Check) error {
	cc, ok := check.(ports.ConfigurableCheck)
	if !ok {
		return nil
	}

	ov, ok := r.overrides[strings.ToLower(check.Name())]
	if !ok || len(ov.Options) == 0 {
		return nil
	}

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.TextUnmarshallerHookFunc(),
		),
		Result:           cc.Options(),
		TagName:          "koanf",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return fmt.Errorf("building options decoder for check %q: %w", check.Name(), err)
	}
	if err := dec.Decode(ov.Options); err != nil {
		return fmt.Errorf("binding options for check %q: %w", check.Name(), err)
	}
	return nil
}

// applyOverrides overlays the configuration tier onto opts, field by field.
// Only fields present in the configuration (non-nil pointers) are applied.
func applyOverrides(opts *domain.CheckOptions, ov config.CheckOverrides) {
	if ov.Interval != nil {
		opts.Interval = *ov.Interval
	}
	if ov.AffectsReadiness != nil {
		opts.AffectsReadiness = *ov.AffectsReadiness
	}
	if ov.BlockOnStartup != nil {
		opts.BlockOnStartup = *ov.BlockOnStartup
	}
	if ov.ReadinessThreshold != nil {
		opts.ReadinessThreshold = domain.ReadinessThreshold(strings.ToLower(*ov.ReadinessThreshold))
	}
	if ov.FailureThreshold != nil {
		opts.FailureThreshold = *ov.FailureThreshold
	}
	if ov.SuccessThreshold != nil {
		opts.SuccessThreshold = *ov.SuccessThreshold
	}
	if ov.Timeout != nil {
		opts.Timeout = *ov.Timeout
	}
}
