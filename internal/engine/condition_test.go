package engine

import (
	"testing"

	"fabula/internal/story"
)

func conditionVars() map[string]story.Variable {
	return map[string]story.Variable{
		"v-hp":   {ID: "v-hp", Title: "hp", Type: story.VariableNumber},
		"v-name": {ID: "v-name", Title: "name", Type: story.VariableString},
		"v-key":  {ID: "v-key", Title: "hasKey", Type: story.VariableBoolean},
	}
}

func conditionState() story.VariableState {
	return story.VariableState{
		"v-hp":   {Title: "hp", Type: story.VariableNumber, Value: "10"},
		"v-name": {Title: "name", Type: story.VariableString, Value: "Ann"},
		"v-key":  {Title: "hasKey", Type: story.VariableBoolean, Value: "true"},
	}
}

func TestEvaluateConditions(t *testing.T) {
	vars := conditionVars()

	t.Run("zero conditions is vacuously open", func(t *testing.T) {
		open, count := EvaluateConditions(conditionState(), story.ConditionsAll, nil, vars)
		if !open || count != 0 {
			t.Fatalf("got open=%v count=%d", open, count)
		}
	})

	t.Run("all requires every condition", func(t *testing.T) {
		conditions := []story.Condition{
			{PathID: "p", VariableID: "v-hp", Operator: story.CompareGreater, Value: "5"},
			{PathID: "p", VariableID: "v-name", Operator: story.CompareEqual, Value: "ann"},
			{PathID: "p", VariableID: "v-key", Operator: story.CompareEqual, Value: "false"},
		}
		open, count := EvaluateConditions(conditionState(), story.ConditionsAll, conditions, vars)
		if open {
			t.Fatalf("ALL with one false condition should be closed")
		}
		if count != 3 {
			t.Fatalf("count = %d", count)
		}
	})

	t.Run("any requires one condition", func(t *testing.T) {
		conditions := []story.Condition{
			{PathID: "p", VariableID: "v-hp", Operator: story.CompareLess, Value: "5"},
			{PathID: "p", VariableID: "v-name", Operator: story.CompareEqual, Value: "Bob"},
			{PathID: "p", VariableID: "v-key", Operator: story.CompareEqual, Value: "true"},
		}
		open, _ := EvaluateConditions(conditionState(), story.ConditionsAny, conditions, vars)
		if !open {
			t.Fatalf("ANY with one true condition should be open")
		}
	})

	t.Run("string equality folds case", func(t *testing.T) {
		conditions := []story.Condition{
			{PathID: "p", VariableID: "v-name", Operator: story.CompareEqual, Value: "ANN"},
		}
		open, _ := EvaluateConditions(conditionState(), story.ConditionsAll, conditions, vars)
		if !open {
			t.Fatalf("string compare should be case-insensitive")
		}
	})

	t.Run("numeric comparisons use authored type", func(t *testing.T) {
		cases := []struct {
			op    story.CompareOperator
			value string
			want  bool
		}{
			{story.CompareEqual, "10", true},
			{story.CompareNotEqual, "10", false},
			{story.CompareGreater, "9", true},
			{story.CompareGreaterOrEqual, "10", true},
			{story.CompareLess, "10", false},
			{story.CompareLessOrEqual, "10", true},
		}
		for _, tc := range cases {
			conditions := []story.Condition{
				{PathID: "p", VariableID: "v-hp", Operator: tc.op, Value: tc.value},
			}
			open, _ := EvaluateConditions(conditionState(), story.ConditionsAll, conditions, vars)
			if open != tc.want {
				t.Fatalf("hp %s %s: got %v, want %v", tc.op, tc.value, open, tc.want)
			}
		}
	})

	t.Run("ordering on non-number is closed", func(t *testing.T) {
		conditions := []story.Condition{
			{PathID: "p", VariableID: "v-name", Operator: story.CompareGreater, Value: "5"},
		}
		open, _ := EvaluateConditions(conditionState(), story.ConditionsAll, conditions, vars)
		if open {
			t.Fatalf("ordering operator on a string variable should close the path")
		}
	})

	t.Run("missing variable is skipped", func(t *testing.T) {
		conditions := []story.Condition{
			{PathID: "p", VariableID: "v-gone", Operator: story.CompareEqual, Value: "x"},
			{PathID: "p", VariableID: "v-hp", Operator: story.CompareGreater, Value: "5"},
		}
		open, count := EvaluateConditions(conditionState(), story.ConditionsAll, conditions, vars)
		if !open {
			t.Fatalf("skipped condition must not contribute false")
		}
		if count != 2 {
			t.Fatalf("count = %d", count)
		}
	})

	t.Run("all conditions skipped is open", func(t *testing.T) {
		conditions := []story.Condition{
			{PathID: "p", VariableID: "v-gone", Operator: story.CompareEqual, Value: "x"},
		}
		open, _ := EvaluateConditions(conditionState(), story.ConditionsAny, conditions, vars)
		if !open {
			t.Fatalf("fully skipped condition set should leave the path open")
		}
	})
}
