package engine

import (
	"fabula/internal/story"
)

// ApplyEffects returns the state produced by applying a path's effects in
// authored order. The input state is never mutated. Effects referencing a
// variable absent from the snapshot are skipped. Division by zero propagates
// the numeric result (Infinity or NaN) rather than failing.
func ApplyEffects(state story.VariableState, effects []story.Effect) story.VariableState {
	if len(effects) == 0 {
		return state
	}

	next := state.Clone()
	for _, effect := range effects {
		snapshot, ok := next[effect.VariableID]
		if !ok {
			continue
		}
		if effect.Operator == story.SetAssign {
			snapshot.Value = effect.Value
			next[effect.VariableID] = snapshot
			continue
		}

		current := story.ToNumber(snapshot.Value)
		operand := story.ToNumber(effect.Value)
		var result float64
		switch effect.Operator {
		case story.SetAdd:
			result = current + operand
		case story.SetSubtract:
			result = current - operand
		case story.SetMultiply:
			result = current * operand
		case story.SetDivide:
			result = current / operand
		default:
			continue
		}
		snapshot.Value = story.FormatNumber(result)
		next[effect.VariableID] = snapshot
	}
	return next
}
