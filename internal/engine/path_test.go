package engine

import (
	"math/rand"
	"testing"

	"fabula/internal/story"
)

func TestResolvePath(t *testing.T) {
	vars := conditionVars()
	state := conditionState()

	openCondition := func(pathID string) story.Condition {
		return story.Condition{PathID: pathID, VariableID: "v-hp", Operator: story.CompareGreater, Value: "5"}
	}
	closedCondition := func(pathID string) story.Condition {
		return story.Condition{PathID: pathID, VariableID: "v-hp", Operator: story.CompareLess, Value: "5"}
	}

	t.Run("no candidates resolves to none", func(t *testing.T) {
		if got := ResolvePath(nil, state, nil, vars, fixedRand{}); got != nil {
			t.Fatalf("got %#v", got)
		}
	})

	t.Run("single open candidate always selected", func(t *testing.T) {
		paths := []story.Path{{ID: "p1", ConditionsType: story.ConditionsAll}}
		for range 20 {
			got := ResolvePath(paths, state, nil, vars, NewRand())
			if got == nil || got.ID != "p1" {
				t.Fatalf("got %#v", got)
			}
		}
	})

	t.Run("closed paths filtered out", func(t *testing.T) {
		paths := []story.Path{
			{ID: "p1", ConditionsType: story.ConditionsAll},
			{ID: "p2", ConditionsType: story.ConditionsAll},
		}
		conditions := map[string][]story.Condition{
			"p1": {closedCondition("p1")},
		}
		got := ResolvePath(paths, state, conditions, vars, fixedRand{})
		if got == nil || got.ID != "p2" {
			t.Fatalf("got %#v", got)
		}
	})

	t.Run("all closed resolves to none", func(t *testing.T) {
		paths := []story.Path{{ID: "p1", ConditionsType: story.ConditionsAll}}
		conditions := map[string][]story.Condition{
			"p1": {closedCondition("p1")},
		}
		if got := ResolvePath(paths, state, conditions, vars, fixedRand{}); got != nil {
			t.Fatalf("got %#v", got)
		}
	})

	t.Run("guarded open path shadows unconditional fallback", func(t *testing.T) {
		paths := []story.Path{
			{ID: "p-fallback", ConditionsType: story.ConditionsAll},
			{ID: "p-guarded", ConditionsType: story.ConditionsAll},
		}
		conditions := map[string][]story.Condition{
			"p-guarded": {openCondition("p-guarded")},
		}
		for range 20 {
			got := ResolvePath(paths, state, conditions, vars, NewRand())
			if got == nil || got.ID != "p-guarded" {
				t.Fatalf("got %#v", got)
			}
		}
	})

	t.Run("ties select uniformly", func(t *testing.T) {
		paths := []story.Path{
			{ID: "p1", ConditionsType: story.ConditionsAll},
			{ID: "p2", ConditionsType: story.ConditionsAll},
			{ID: "p3", ConditionsType: story.ConditionsAll},
		}
		rng := rand.New(rand.NewSource(7))
		counts := make(map[string]int)
		const trials = 3000
		for range trials {
			got := ResolvePath(paths, state, nil, vars, rng)
			if got == nil {
				t.Fatalf("expected a selection")
			}
			counts[got.ID]++
		}
		for _, path := range paths {
			// Loose bound: each of three equal candidates should land
			// well within a third of the trials.
			if counts[path.ID] < trials/6 {
				t.Fatalf("selection skewed: %#v", counts)
			}
		}
	})
}
