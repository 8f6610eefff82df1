package domain

import "time"

// CurveVariant names the member of the CurveConfig tagged union. Adding a
// variant here forces every switch in internal/curve to be updated.
type CurveVariant string

const (
	CurveLinear      CurveVariant = "linear"
	CurveExponential CurveVariant = "exponential"
	CurveHardWindow  CurveVariant = "hard_window"
	CurveBlocked     CurveVariant = "blocked"
	CurveAccumulator CurveVariant = "accumulator"
)

// LinearParams is shared by Linear and the in-range portion of Exponential.
type LinearParams struct {
	StartDate time.Time `json:"start_date"`
	Deadline  time.Time `json:"deadline"`
}

// ExponentialParams extends LinearParams with a shaping exponent.
type ExponentialParams struct {
	LinearParams
	Exponent float64 `json:"exponent"` // [1,5], default 2.0
}

// HardWindowParams defines an absolute datetime window, distinct from the
// universal HH:MM-of-day window gate that applies to every variant.
type HardWindowParams struct {
	WindowStart time.Time `json:"window_start"`
	WindowEnd   time.Time `json:"window_end"`
	Priority    float64   `json:"priority"` // [0,2], default 1.0
}

// BlockedParams wraps another curve variant, active only once all of the
// task's dependencies are Completed. Task.Dependencies is the authoritative
// list; see DESIGN.md for why.
type BlockedParams struct {
	ThenCurve *CurveConfig `json:"then_curve"`
}

// AccumulatorParams drives a stepped/ramped buildup toward a recurrence's
// next occurrence.
type AccumulatorParams struct {
	BuildupRate float64 `json:"buildup_rate"` // default 0.1
}

// CurveConfig is the closed tagged union of priority curve variants. Exactly
// the fields relevant to Variant are populated; the evaluator dispatches
// exhaustively on Variant.
type CurveConfig struct {
	Variant     CurveVariant       `json:"variant"`
	Linear      *LinearParams      `json:"linear,omitempty"`
	Exponential *ExponentialParams `json:"exponential,omitempty"`
	HardWindow  *HardWindowParams  `json:"hard_window,omitempty"`
	Blocked     *BlockedParams     `json:"blocked,omitempty"`
	Accumulator *AccumulatorParams `json:"accumulator,omitempty"`
}

// DefaultLinear builds the fallback curve: Linear(now, now+7d).
func DefaultLinear(now time.Time) CurveConfig {
	return CurveConfig{
		Variant: CurveLinear,
		Linear: &LinearParams{
			StartDate: now,
			Deadline:  now.Add(7 * 24 * time.Hour),
		},
	}
}

// InferCurve picks a sensible default curve for a task that was not given
// one explicitly: a hard window if it has a time-of-day window, a blocked
// linear ramp if it has dependencies, an accumulator if it recurs, and a
// plain linear ramp to its deadline (or now+7d) otherwise.
func InferCurve(t *Task, now time.Time) CurveConfig {
	switch {
	case t.HasWindow():
		return CurveConfig{
			Variant: CurveHardWindow,
			HardWindow: &HardWindowParams{
				WindowStart: now,
				WindowEnd:   now.Add(24 * time.Hour),
				Priority:    1.0,
			},
		}
	case len(t.Dependencies) > 0:
		deadline := now.Add(7 * 24 * time.Hour)
		if t.Deadline != nil {
			deadline = *t.Deadline
		}
		wrapped := CurveConfig{Variant: CurveLinear, Linear: &LinearParams{StartDate: now, Deadline: deadline}}
		return CurveConfig{Variant: CurveBlocked, Blocked: &BlockedParams{ThenCurve: &wrapped}}
	case t.HasRecurrence():
		return CurveConfig{Variant: CurveAccumulator, Accumulator: &AccumulatorParams{BuildupRate: 0.1}}
	default:
		deadline := now.Add(7 * 24 * time.Hour)
		if t.Deadline != nil {
			deadline = *t.Deadline
		}
		return CurveConfig{Variant: CurveLinear, Linear: &LinearParams{StartDate: now, Deadline: deadline}}
	}
}
