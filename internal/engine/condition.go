// Package engine implements the narrative interpreter: condition and path
// resolution, effect application, and the live event log with bookmark-based
// resume and version migration.
package engine

import (
	"math"
	"strings"

	"fabula/internal/story"
)

// EvaluateConditions reports whether a path guarded by the given conditions
// is open under state, plus the number of authored conditions. Zero
// conditions means vacuously open. A condition whose variable is missing from
// the authored set or the state snapshot is skipped rather than counted as
// false; that is an authoring-data integrity concern, not a runtime failure.
func EvaluateConditions(state story.VariableState, kind story.ConditionsType, conditions []story.Condition, vars map[string]story.Variable) (bool, int) {
	if len(conditions) == 0 {
		return true, 0
	}

	evaluated := 0
	anyTrue := false
	allTrue := true
	for _, condition := range conditions {
		variable, ok := vars[condition.VariableID]
		if !ok {
			continue
		}
		snapshot, ok := state[condition.VariableID]
		if !ok {
			continue
		}
		evaluated++
		if compare(variable.Type, snapshot.Value, condition.Operator, condition.Value) {
			anyTrue = true
		} else {
			allTrue = false
		}
	}

	if evaluated == 0 {
		return true, len(conditions)
	}
	if kind == story.ConditionsAny {
		return anyTrue, len(conditions)
	}
	return allTrue, len(conditions)
}

// compare resolves by the variable's authored type, not the snapshot's, to
// tolerate stale snapshots recorded before a type change.
func compare(variableType story.VariableType, current string, op story.CompareOperator, literal string) bool {
	if variableType == story.VariableNumber {
		return compareNumbers(story.ToNumber(current), op, story.ToNumber(literal))
	}
	if op.Ordering() {
		// Ordering operators are only authored against numbers.
		return false
	}
	equal := strings.EqualFold(current, literal)
	if op == story.CompareNotEqual {
		return !equal
	}
	return equal
}

func compareNumbers(left float64, op story.CompareOperator, right float64) bool {
	if math.IsNaN(left) || math.IsNaN(right) {
		// NaN matches Number() semantics: every comparison fails except !=.
		return op == story.CompareNotEqual
	}
	switch op {
	case story.CompareEqual:
		return left == right
	case story.CompareNotEqual:
		return left != right
	case story.CompareGreater:
		return left > right
	case story.CompareGreaterOrEqual:
		return left >= right
	case story.CompareLess:
		return left < right
	case story.CompareLessOrEqual:
		return left <= right
	}
	return false
}
