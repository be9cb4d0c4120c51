package ingest

import (
	"fmt"
	"strings"

	"fabula/internal/story"
)

var variableTypes = map[story.VariableType]bool{
	story.VariableString:  true,
	story.VariableNumber:  true,
	story.VariableBoolean: true,
	story.VariableImage:   true,
	story.VariableURL:     true,
}

var compareOperators = map[story.CompareOperator]bool{
	story.CompareEqual:          true,
	story.CompareNotEqual:       true,
	story.CompareGreater:        true,
	story.CompareGreaterOrEqual: true,
	story.CompareLess:           true,
	story.CompareLessOrEqual:    true,
}

var setOperators = map[story.SetOperator]bool{
	story.SetAssign:   true,
	story.SetAdd:      true,
	story.SetSubtract: true,
	story.SetMultiply: true,
	story.SetDivide:   true,
}

// validateFile checks structural integrity before anything is written:
// required fields, enum values, and that every cross-reference resolves
// inside the file.
func validateFile(file *worldFile) []error {
	var errs []error
	fail := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	if strings.TrimSpace(file.World.ID) == "" {
		fail("world id is required")
	}
	if strings.TrimSpace(file.World.Title) == "" {
		fail("world title is required")
	}
	if strings.TrimSpace(file.World.Version) == "" {
		fail("world version is required")
	}

	variables := make(map[string]bool)
	for i, v := range file.Variables {
		if strings.TrimSpace(v.Title) == "" {
			fail("variable %d: title is required", i)
		}
		if !variableTypes[story.VariableType(v.Type)] {
			fail("variable %q: unknown type %q", v.Title, v.Type)
		}
		if variables[v.ID] {
			fail("duplicate variable id %q", v.ID)
		}
		variables[v.ID] = true
	}

	characters := make(map[string]bool)
	for _, ch := range file.Characters {
		characters[ch.ID] = true
	}

	scenes := make(map[string]bool)
	events := make(map[string]bool)
	choices := make(map[string]bool)
	inputs := make(map[string]bool)
	for _, sc := range file.Scenes {
		if scenes[sc.ID] {
			fail("duplicate scene id %q", sc.ID)
		}
		scenes[sc.ID] = true
		for _, ev := range sc.Events {
			if events[ev.ID] {
				fail("duplicate event id %q", ev.ID)
			}
			events[ev.ID] = true

			switch story.EventType(ev.Type) {
			case story.EventChoice, story.EventInput:
			default:
				fail("event %q: unknown type %q", ev.ID, ev.Type)
			}
			if ev.Character != "" && !characters[ev.Character] {
				fail("event %q: unknown character %q", ev.ID, ev.Character)
			}
			if story.EventType(ev.Type) == story.EventInput && ev.Input == nil {
				fail("event %q: INPUT event needs an input", ev.ID)
			}
			for _, c := range ev.Choices {
				if choices[c.ID] {
					fail("duplicate choice id %q", c.ID)
				}
				choices[c.ID] = true
			}
			if ev.Input != nil {
				inputs[ev.Input.ID] = true
				if !variables[ev.Input.Variable] {
					fail("event %q: input references unknown variable %q", ev.ID, ev.Input.Variable)
				}
			}
		}
	}

	if file.World.StartingEvent != "" && !events[file.World.StartingEvent] {
		fail("starting event %q not found", file.World.StartingEvent)
	}

	for _, p := range file.Paths {
		if !events[p.Origin] {
			fail("path %q: unknown origin %q", p.ID, p.Origin)
		}
		switch story.DestinationType(p.DestinationType) {
		case "", story.DestinationEvent:
			if !events[p.Destination] {
				fail("path %q: unknown destination %q", p.ID, p.Destination)
			}
		case story.DestinationScene:
			if !scenes[p.Destination] {
				fail("path %q: unknown destination scene %q", p.ID, p.Destination)
			}
		default:
			fail("path %q: unknown destination type %q", p.ID, p.DestinationType)
		}
		if p.Scene != "" && !scenes[p.Scene] {
			fail("path %q: unknown scene %q", p.ID, p.Scene)
		}
		if p.Choice != "" && p.Input != "" {
			fail("path %q: bound to both a choice and an input", p.ID)
		}
		if p.Choice != "" && !choices[p.Choice] {
			fail("path %q: unknown choice %q", p.ID, p.Choice)
		}
		if p.Input != "" && !inputs[p.Input] {
			fail("path %q: unknown input %q", p.ID, p.Input)
		}
		if p.ConditionsType != "" {
			switch story.ConditionsType(p.ConditionsType) {
			case story.ConditionsAll, story.ConditionsAny:
			default:
				fail("path %q: unknown conditions type %q", p.ID, p.ConditionsType)
			}
		}
		for _, clause := range p.Conditions {
			if !variables[clause.Variable] {
				fail("path %q: condition references unknown variable %q", p.ID, clause.Variable)
			}
			if !compareOperators[story.CompareOperator(clause.Operator)] {
				fail("path %q: unknown condition operator %q", p.ID, clause.Operator)
			}
		}
		for _, clause := range p.Effects {
			if !variables[clause.Variable] {
				fail("path %q: effect references unknown variable %q", p.ID, clause.Variable)
			}
			if !setOperators[story.SetOperator(clause.Operator)] {
				fail("path %q: unknown effect operator %q", p.ID, clause.Operator)
			}
		}
	}

	return errs
}
