package classify

import "github.com/couchcryptid/storm-mcc-search/internal/domain"

// Transition advances the lifecycle state for one node given its criteria
// results. It returns the node's stage and the new state. Criterion B is only
// meaningful when A holds.
//
// Maturity needs both shields. Losing the inner shield after maturity starts
// decay, which then persists; before maturity the node is still initiating.
// A node failing the outer shield keeps the current state.
func Transition(state domain.Stage, a, b bool) (stage, next domain.Stage) {
	switch {
	case a && b:
		return domain.StageMaturity, domain.StageMaturity
	case a:
		if state == domain.StageInitiation || state == domain.StageUnset {
			return domain.StageInitiation, domain.StageInitiation
		}
		return domain.StageDecay, domain.StageDecay
	default:
		if state == domain.StageDecay {
			return domain.StageDecay, state
		}
		return domain.StageInitiation, state
	}
}
