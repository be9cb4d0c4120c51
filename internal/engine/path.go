package engine

import (
	"fabula/internal/story"
)

// ResolvePath selects exactly one traversable path from the candidates
// leaving a single origin, or nil when none is open. Open paths carrying at
// least one condition are treated as more intentional than unconditional
// fallbacks and shadow them. Ties are broken by uniform random selection;
// replaying the same state can legitimately reach different destinations.
func ResolvePath(candidates []story.Path, state story.VariableState, conditions map[string][]story.Condition, vars map[string]story.Variable, rng Rander) *story.Path {
	var open []story.Path
	var guarded []story.Path
	for _, path := range candidates {
		isOpen, count := EvaluateConditions(state, path.ConditionsType, conditions[path.ID], vars)
		if !isOpen {
			continue
		}
		open = append(open, path)
		if count > 0 {
			guarded = append(guarded, path)
		}
	}

	pool := open
	if len(guarded) > 0 {
		pool = guarded
	}

	switch len(pool) {
	case 0:
		return nil
	case 1:
		return &pool[0]
	}
	if rng == nil {
		rng = NewRand()
	}
	selected := pool[rng.Intn(len(pool))]
	return &selected
}
