package model

import (
	"errors"
	"fmt"

	"go.uber.org/multierr"
)

// ErrInvalidConfiguration is returned when a problem cannot be constructed
var ErrInvalidConfiguration = errors.New("invalid configuration")

// ValidateConfig checks grid dimensions and the action cost table.
// Every problem found is reported, not just the first one.
func ValidateConfig(cfg Config) error {
	var errs error

	if cfg.Rows < MinGridSize || cfg.Rows > MaxGridSize {
		errs = multierr.Append(errs, fmt.Errorf("rows must be between %d and %d, got %d", MinGridSize, MaxGridSize, cfg.Rows))
	}
	if cfg.Columns < MinGridSize || cfg.Columns > MaxGridSize {
		errs = multierr.Append(errs, fmt.Errorf("columns must be between %d and %d, got %d", MinGridSize, MaxGridSize, cfg.Columns))
	}

	seen := make(map[Action]bool)
	for _, a := range cfg.declaredActions() {
		if !a.IsKnown() {
			errs = multierr.Append(errs, fmt.Errorf("unknown action %q", a))
			continue
		}
		if seen[a] {
			errs = multierr.Append(errs, fmt.Errorf("action %s declared more than once", a))
			continue
		}
		seen[a] = true

		cost, ok := cfg.ActionCosts[a]
		if !ok {
			errs = multierr.Append(errs, fmt.Errorf("action_costs is missing an entry for %s", a))
			continue
		}
		if cost <= 0 {
			errs = multierr.Append(errs, fmt.Errorf("cost of %s must be positive, got %g", a, cost))
		}
	}

	if errs != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfiguration, errs)
	}
	return nil
}

// validatePlacement checks that the start and all dirt lie on the grid
func validatePlacement(cfg Config, initial Position, dirty []Position) error {
	var errs error

	if !inBounds(cfg, initial) {
		errs = multierr.Append(errs, fmt.Errorf("initial position %s is outside the %dx%d grid", initial, cfg.Rows, cfg.Columns))
	}
	for _, p := range dirty {
		if !inBounds(cfg, p) {
			errs = multierr.Append(errs, fmt.Errorf("dirty cell %s is outside the %dx%d grid", p, cfg.Rows, cfg.Columns))
		}
	}

	if errs != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfiguration, errs)
	}
	return nil
}

func inBounds(cfg Config, p Position) bool {
	return p.Row >= 1 && p.Row <= cfg.Rows && p.Col >= 1 && p.Col <= cfg.Columns
}
