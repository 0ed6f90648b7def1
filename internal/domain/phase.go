package domain

// Phase is the discrete scheduler state restricting which agents may
// run (spec.md glossary "Phase"). Grounded on
// original_source/services/phase_service.py's ProjectPhase enum.
type Phase string

const (
	PhaseExpansion   Phase = "expansion"
	PhaseConvergence Phase = "convergence"
)

// Phase transition thresholds, restored from
// original_source/services/phase_service.py (Open Question 3 in
// spec.md §9: "recommended but unconfirmed" to externalise — resolved
// here by exposing them as Config-overridable defaults rather than
// compile-time constants; see DESIGN.md).
const (
	DefaultModelTokenLimit      = 128_000
	DefaultConvergenceThreshold = 0.60
	DefaultExpansionThreshold   = 0.50
)

// PhaseThresholds holds the token-budget boundaries used to transition
// between expansion and convergence.
type PhaseThresholds struct {
	ModelTokenLimit      int
	ConvergenceThreshold float64
	ExpansionThreshold   float64
}

// DefaultPhaseThresholds returns the thresholds hard-coded in the
// original implementation.
func DefaultPhaseThresholds() PhaseThresholds {
	return PhaseThresholds{
		ModelTokenLimit:      DefaultModelTokenLimit,
		ConvergenceThreshold: DefaultConvergenceThreshold,
		ExpansionThreshold:   DefaultExpansionThreshold,
	}
}

func (t PhaseThresholds) convergenceTokens() int {
	return int(float64(t.ModelTokenLimit) * t.ConvergenceThreshold)
}

func (t PhaseThresholds) expansionTokens() int {
	return int(float64(t.ModelTokenLimit) * t.ExpansionThreshold)
}

// Determine computes the phase for a given total token count, given
// the current phase (hysteresis: phase only changes when a threshold
// is crossed, matching phase_service.py's determine_phase).
func (t PhaseThresholds) Determine(current Phase, totalTokens int) Phase {
	switch {
	case totalTokens > t.convergenceTokens():
		return PhaseConvergence
	case totalTokens < t.expansionTokens():
		return PhaseExpansion
	default:
		return current
	}
}

// StatusIcon mirrors phase_service.py's get_status_info thresholds on
// usage percent of the model token limit.
func (t PhaseThresholds) StatusIcon(totalTokens int) string {
	usage := float64(totalTokens) / float64(t.ModelTokenLimit) * 100
	switch {
	case usage < 55:
		return "✓"
	case usage < 60:
		return "⚠"
	default:
		return "🔴"
	}
}
