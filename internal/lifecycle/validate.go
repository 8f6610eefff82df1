package lifecycle

import (
	"strconv"
	"strings"

	"github.com/taskcurve/taskcurve/internal/domain"
)

// validateTask enforces the well-formedness invariants a Create/Update must
// satisfy before ever reaching the store: non-empty title, valid windows,
// an internally consistent curve config, and a sane estimate.
func validateTask(t *domain.Task) error {
	title := strings.TrimSpace(t.Title)
	if title == "" {
		return domain.NewValidation("title must not be empty")
	}
	if len(title) > 500 {
		return domain.NewValidation("title must be at most 500 characters")
	}
	if t.EstimateMinutes != nil && *t.EstimateMinutes <= 0 {
		return domain.NewValidation("estimate_minutes must be positive")
	}
	if err := validateWindow(t.WindowStart, t.WindowEnd); err != nil {
		return err
	}
	if err := validateCurveConfig(t.CurveConfig); err != nil {
		return err
	}
	seen := make(map[int64]bool, len(t.Dependencies))
	for _, dep := range t.Dependencies {
		if dep == t.ID {
			return domain.NewValidation("task cannot depend on itself")
		}
		if seen[dep] {
			return domain.NewValidation("duplicate dependency %d", dep)
		}
		seen[dep] = true
	}
	return nil
}

// validateWindow enforces I5: if one of the pair is set, both must be set
// and both must be valid HH:MM (midnight-crossing windows are allowed and
// handled by the curve evaluator, not rejected here).
func validateWindow(start, end string) error {
	if start == "" && end == "" {
		return nil
	}
	if start == "" || end == "" {
		return domain.NewValidation("window_start and window_end must both be set or both empty")
	}
	if start == end {
		return domain.NewValidation("window_start and window_end must differ")
	}
	if !isValidHHMM(start) {
		return domain.NewValidation("window_start %q is not a valid HH:MM", start)
	}
	if !isValidHHMM(end) {
		return domain.NewValidation("window_end %q is not a valid HH:MM", end)
	}
	return nil
}

func isValidHHMM(s string) bool {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return false
	}
	h, err1 := strconv.Atoi(parts[0])
	m, err2 := strconv.Atoi(parts[1])
	if err1 != nil || err2 != nil {
		return false
	}
	return h >= 0 && h <= 23 && m >= 0 && m <= 59
}

// validateCurveConfig enforces I8: each variant's parameters must be
// internally consistent.
func validateCurveConfig(cfg domain.CurveConfig) error {
	switch cfg.Variant {
	case domain.CurveLinear:
		if cfg.Linear == nil {
			return domain.NewValidation("linear curve requires parameters")
		}
		if !cfg.Linear.Deadline.After(cfg.Linear.StartDate) {
			return domain.NewValidation("linear curve deadline must be after start_date")
		}
	case domain.CurveExponential:
		if cfg.Exponential == nil {
			return domain.NewValidation("exponential curve requires parameters")
		}
		if !cfg.Exponential.Deadline.After(cfg.Exponential.StartDate) {
			return domain.NewValidation("exponential curve deadline must be after start_date")
		}
		if cfg.Exponential.Exponent < 1 || cfg.Exponential.Exponent > 5 {
			return domain.NewValidation("exponential curve exponent must be in [1,5]")
		}
	case domain.CurveHardWindow:
		if cfg.HardWindow == nil {
			return domain.NewValidation("hard_window curve requires parameters")
		}
		if !cfg.HardWindow.WindowEnd.After(cfg.HardWindow.WindowStart) {
			return domain.NewValidation("hard_window curve window_end must be after window_start")
		}
	case domain.CurveBlocked:
		if cfg.Blocked == nil || cfg.Blocked.ThenCurve == nil {
			return domain.NewValidation("blocked curve requires a then_curve")
		}
		return validateCurveConfig(*cfg.Blocked.ThenCurve)
	case domain.CurveAccumulator:
		if cfg.Accumulator == nil {
			return domain.NewValidation("accumulator curve requires parameters")
		}
	default:
		return domain.NewUnsupported("unrecognized curve variant %q", cfg.Variant)
	}
	return nil
}
