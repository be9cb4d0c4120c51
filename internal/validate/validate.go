// Package validate reports authoring integrity problems in a stored world:
// broken references, type mismatches, and narrative dead ends a designer
// should fix before shipping.
package validate

import (
	"context"
	"fmt"

	"fabula/internal/story"
	"fabula/internal/template"
)

type Severity string

const (
	SeverityError Severity = "error"
	SeverityWarn  Severity = "warning"
)

const (
	codeDanglingDestination = "dangling_destination"
	codeDanglingOrigin      = "dangling_origin"
	codeUnknownVariable     = "unknown_variable"
	codeOrderedNonNumber    = "ordering_on_non_number"
	codeTemplateError       = "template_error"
	codeNoOutgoingPaths     = "no_outgoing_paths"
	codeNoStartingEvent     = "no_starting_event"
	codeUnreachableChoice   = "choice_without_paths"
)

type Issue struct {
	Severity Severity
	Code     string
	Message  string
	// Subject is the id of the offending entity.
	Subject string
}

type Report struct {
	WorldID string
	Issues  []Issue
}

func (r *Report) Errors() int {
	n := 0
	for _, issue := range r.Issues {
		if issue.Severity == SeverityError {
			n++
		}
	}
	return n
}

// Storyworld is the slice of the store validation reads from.
type Storyworld interface {
	World(ctx context.Context, id string) (*story.World, error)
	Events(ctx context.Context, worldID string) ([]story.Event, error)
	Variables(ctx context.Context, worldID string) ([]story.Variable, error)
	Paths(ctx context.Context, worldID string) ([]story.Path, error)
	ConditionsByPaths(ctx context.Context, pathIDs []string) ([]story.Condition, error)
	EffectsByPath(ctx context.Context, pathID string) ([]story.Effect, error)
}

func Run(ctx context.Context, db Storyworld, worldID string) (*Report, error) {
	world, err := db.World(ctx, worldID)
	if err != nil {
		return nil, fmt.Errorf("loading world: %w", err)
	}
	if world == nil {
		return nil, fmt.Errorf("world %s not found", worldID)
	}

	events, err := db.Events(ctx, worldID)
	if err != nil {
		return nil, fmt.Errorf("loading events: %w", err)
	}
	variables, err := db.Variables(ctx, worldID)
	if err != nil {
		return nil, fmt.Errorf("loading variables: %w", err)
	}
	paths, err := db.Paths(ctx, worldID)
	if err != nil {
		return nil, fmt.Errorf("loading paths: %w", err)
	}

	report := &Report{WorldID: worldID}
	add := func(severity Severity, code, subject, format string, args ...any) {
		report.Issues = append(report.Issues, Issue{
			Severity: severity,
			Code:     code,
			Message:  fmt.Sprintf(format, args...),
			Subject:  subject,
		})
	}

	eventByID := make(map[string]story.Event, len(events))
	sceneHasEvents := make(map[string]bool)
	for _, ev := range events {
		eventByID[ev.ID] = ev
		if ev.SceneID != "" {
			sceneHasEvents[ev.SceneID] = true
		}
	}
	varByID := make(map[string]story.Variable, len(variables))
	state := make(story.VariableState, len(variables))
	for _, v := range variables {
		varByID[v.ID] = v
		state[v.ID] = story.VariableSnapshot{Title: v.Title, Type: v.Type, Value: v.InitialValue}
	}

	if world.StartingEventID == "" {
		add(SeverityError, codeNoStartingEvent, worldID, "world has no starting event")
	} else if _, ok := eventByID[world.StartingEventID]; !ok {
		add(SeverityError, codeNoStartingEvent, worldID, "starting event %s does not exist", world.StartingEventID)
	}

	outgoing := make(map[string]int)
	choiceHasPath := make(map[string]bool)
	inputHasPath := make(map[string]bool)

	pathIDs := make([]string, 0, len(paths))
	pathByID := make(map[string]story.Path, len(paths))
	for _, p := range paths {
		pathIDs = append(pathIDs, p.ID)
		pathByID[p.ID] = p
		outgoing[p.OriginID]++
		if p.ChoiceID != "" {
			choiceHasPath[p.ChoiceID] = true
		}
		if p.InputID != "" {
			inputHasPath[p.InputID] = true
		}

		if _, ok := eventByID[p.OriginID]; !ok {
			add(SeverityError, codeDanglingOrigin, p.ID, "path origin %s does not exist", p.OriginID)
		}
		if p.DestinationType == story.DestinationScene {
			if !sceneHasEvents[p.DestinationID] {
				add(SeverityError, codeDanglingDestination, p.ID, "path destination scene %s has no events", p.DestinationID)
			}
		} else if _, ok := eventByID[p.DestinationID]; !ok {
			add(SeverityError, codeDanglingDestination, p.ID, "path destination %s does not exist", p.DestinationID)
		}
	}

	conditions, err := db.ConditionsByPaths(ctx, pathIDs)
	if err != nil {
		return nil, fmt.Errorf("loading conditions: %w", err)
	}
	for _, cond := range conditions {
		v, ok := varByID[cond.VariableID]
		if !ok {
			add(SeverityError, codeUnknownVariable, cond.ID, "condition references unknown variable %s", cond.VariableID)
			continue
		}
		if cond.Operator.Ordering() && v.Type != story.VariableNumber {
			add(SeverityError, codeOrderedNonNumber, cond.ID,
				"condition orders %s variable %q; the path can never open", v.Type, v.Title)
		}
	}

	for _, p := range paths {
		effects, err := db.EffectsByPath(ctx, p.ID)
		if err != nil {
			return nil, fmt.Errorf("loading effects for path %s: %w", p.ID, err)
		}
		for _, effect := range effects {
			if _, ok := varByID[effect.VariableID]; !ok {
				add(SeverityError, codeUnknownVariable, effect.ID, "effect references unknown variable %s", effect.VariableID)
			}
		}
	}

	for _, ev := range events {
		if !ev.Ending && outgoing[ev.ID] == 0 {
			add(SeverityWarn, codeNoOutgoingPaths, ev.ID,
				"event %q is not an ending but has no outgoing paths; play loops back here", ev.Title)
		}
		for _, choiceID := range ev.ChoiceIDs {
			if !choiceHasPath[choiceID] {
				add(SeverityWarn, codeUnreachableChoice, choiceID, "choice on event %q has no paths", ev.Title)
			}
		}
		if ev.InputID != "" && !inputHasPath[ev.InputID] {
			add(SeverityWarn, codeUnreachableChoice, ev.InputID, "input on event %q has no paths", ev.Title)
		}

		rendered := template.Render(ev.Content, state, template.Options{})
		for _, span := range rendered.Spans {
			if span.Err != nil {
				add(SeverityWarn, codeTemplateError, ev.ID,
					"event %q: expression %s renders as ERROR: %v", ev.Title, span.Raw, span.Err)
			}
		}
	}

	return report, nil
}
