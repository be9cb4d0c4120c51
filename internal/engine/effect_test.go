package engine

import (
	"reflect"
	"testing"

	"fabula/internal/story"
)

func effectState() story.VariableState {
	return story.VariableState{
		"v-hp":   {Title: "hp", Type: story.VariableNumber, Value: "10"},
		"v-name": {Title: "name", Type: story.VariableString, Value: "Ann"},
	}
}

func TestApplyEffects(t *testing.T) {
	t.Run("no effects returns unchanged content", func(t *testing.T) {
		state := effectState()
		got := ApplyEffects(state, nil)
		if !reflect.DeepEqual(got, state) {
			t.Fatalf("state changed: %#v", got)
		}
	})

	t.Run("never mutates the input", func(t *testing.T) {
		state := effectState()
		ApplyEffects(state, []story.Effect{
			{PathID: "p", VariableID: "v-hp", Operator: story.SetAdd, Value: "5"},
		})
		if state["v-hp"].Value != "10" {
			t.Fatalf("input state mutated: %#v", state["v-hp"])
		}
	})

	t.Run("arithmetic operators", func(t *testing.T) {
		cases := []struct {
			name string
			op   story.SetOperator
			lit  string
			want string
		}{
			{"assign", story.SetAssign, "3", "3"},
			{"add", story.SetAdd, "5", "15"},
			{"subtract", story.SetSubtract, "4", "6"},
			{"multiply", story.SetMultiply, "2", "20"},
			{"divide", story.SetDivide, "4", "2.5"},
			{"add zero is a no-op", story.SetAdd, "0", "10"},
			{"multiply one is a no-op", story.SetMultiply, "1", "10"},
		}
		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				got := ApplyEffects(effectState(), []story.Effect{
					{PathID: "p", VariableID: "v-hp", Operator: tc.op, Value: tc.lit},
				})
				if got["v-hp"].Value != tc.want {
					t.Fatalf("got %q, want %q", got["v-hp"].Value, tc.want)
				}
				if got["v-name"].Value != "Ann" {
					t.Fatalf("untouched variable changed: %#v", got["v-name"])
				}
			})
		}
	})

	t.Run("divide by zero propagates infinity", func(t *testing.T) {
		got := ApplyEffects(effectState(), []story.Effect{
			{PathID: "p", VariableID: "v-hp", Operator: story.SetDivide, Value: "0"},
		})
		if got["v-hp"].Value != "Infinity" {
			t.Fatalf("got %q", got["v-hp"].Value)
		}
	})

	t.Run("missing variable is skipped", func(t *testing.T) {
		state := effectState()
		got := ApplyEffects(state, []story.Effect{
			{PathID: "p", VariableID: "v-gone", Operator: story.SetAssign, Value: "3"},
		})
		if !reflect.DeepEqual(got, state) {
			t.Fatalf("state changed: %#v", got)
		}
	})

	t.Run("effects apply independently in order", func(t *testing.T) {
		got := ApplyEffects(effectState(), []story.Effect{
			{PathID: "p", VariableID: "v-hp", Operator: story.SetAdd, Value: "5"},
			{PathID: "p", VariableID: "v-name", Operator: story.SetAssign, Value: "Bob"},
		})
		if got["v-hp"].Value != "15" || got["v-name"].Value != "Bob" {
			t.Fatalf("got %#v", got)
		}
	})
}
