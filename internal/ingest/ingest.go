// Package ingest imports packaged storyworld files into the store. A package
// is one YAML document holding the world and all of its authored content;
// import is all-or-nothing after validation.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"fabula/internal/story"
)

// Store is the slice of the persistence surface ingest needs.
type Store interface {
	EnsureSchema(ctx context.Context) error
	PutWorld(ctx context.Context, w story.World) error
	PutScene(ctx context.Context, s story.Scene) error
	PutEvent(ctx context.Context, e story.Event) error
	PutChoice(ctx context.Context, c story.Choice) error
	PutInput(ctx context.Context, i story.Input) error
	PutPath(ctx context.Context, p story.Path) error
	PutCondition(ctx context.Context, c story.Condition) error
	PutEffect(ctx context.Context, e story.Effect) error
	PutVariable(ctx context.Context, v story.Variable) error
	PutCharacter(ctx context.Context, c story.Character) error
	DeleteWorldContent(ctx context.Context, worldID string) error
}

type Result struct {
	WorldID    string
	Scenes     int
	Events     int
	Choices    int
	Inputs     int
	Paths      int
	Conditions int
	Effects    int
	Variables  int
	Characters int
}

type Options struct {
	// Replace drops the world's existing authored content before import.
	// Live events and bookmarks are kept; resume reconciles them.
	Replace bool
	// StudioID stamps the imported world.
	StudioID string
}

func Run(ctx context.Context, db Store, path string, options Options) (*Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading world file: %w", err)
	}

	var file worldFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing world file: %w", err)
	}

	assignIDs(&file)
	if errs := validateFile(&file); len(errs) > 0 {
		return nil, fmt.Errorf("invalid world file %s: %w", path, errors.Join(errs...))
	}

	if err := db.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensuring schema: %w", err)
	}
	if options.Replace {
		if err := db.DeleteWorldContent(ctx, file.World.ID); err != nil {
			return nil, fmt.Errorf("replacing world %s: %w", file.World.ID, err)
		}
	}

	return write(ctx, db, &file, options)
}

// assignIDs fills generated ids in for entities the file left anonymous.
// Cross-references always use authored ids, so a generated id can only land
// on an entity nothing else points at.
func assignIDs(file *worldFile) {
	fill := func(id *string) {
		if *id == "" {
			*id = uuid.NewString()
		}
	}
	for i := range file.Variables {
		fill(&file.Variables[i].ID)
	}
	for i := range file.Characters {
		fill(&file.Characters[i].ID)
	}
	for i := range file.Scenes {
		scene := &file.Scenes[i]
		fill(&scene.ID)
		for j := range scene.Events {
			event := &scene.Events[j]
			fill(&event.ID)
			for k := range event.Choices {
				fill(&event.Choices[k].ID)
			}
			if event.Input != nil {
				fill(&event.Input.ID)
			}
		}
	}
	for i := range file.Paths {
		path := &file.Paths[i]
		fill(&path.ID)
		for j := range path.Conditions {
			fill(&path.Conditions[j].ID)
		}
		for j := range path.Effects {
			fill(&path.Effects[j].ID)
		}
	}
}

func write(ctx context.Context, db Store, file *worldFile, options Options) (*Result, error) {
	result := &Result{WorldID: file.World.ID}

	// Sequential timestamps preserve authored order for readers that sort
	// by (updated, id).
	stamp := time.Now().UnixMilli()
	next := func() int64 {
		stamp++
		return stamp
	}

	world := story.World{
		ID:              file.World.ID,
		StudioID:        options.StudioID,
		Title:           file.World.Title,
		Designer:        file.World.Designer,
		Version:         file.World.Version,
		StartingEventID: file.World.StartingEvent,
		Updated:         next(),
	}
	if err := db.PutWorld(ctx, world); err != nil {
		return nil, err
	}

	for _, v := range file.Variables {
		variable := story.Variable{
			ID:           v.ID,
			WorldID:      world.ID,
			Title:        v.Title,
			Type:         story.VariableType(v.Type),
			InitialValue: v.Initial,
			Updated:      next(),
		}
		if err := db.PutVariable(ctx, variable); err != nil {
			return nil, err
		}
		result.Variables++
	}

	for _, ch := range file.Characters {
		character := story.Character{
			ID:          ch.ID,
			WorldID:     world.ID,
			Title:       ch.Title,
			Description: ch.Description,
			Updated:     next(),
		}
		if err := db.PutCharacter(ctx, character); err != nil {
			return nil, err
		}
		result.Characters++
	}

	for _, sc := range file.Scenes {
		scene := story.Scene{ID: sc.ID, WorldID: world.ID, Title: sc.Title, Updated: next()}
		for _, ev := range sc.Events {
			scene.EventIDs = append(scene.EventIDs, ev.ID)
		}
		if err := db.PutScene(ctx, scene); err != nil {
			return nil, err
		}
		result.Scenes++

		for _, ev := range sc.Events {
			event := story.Event{
				ID:          ev.ID,
				WorldID:     world.ID,
				SceneID:     sc.ID,
				CharacterID: ev.Character,
				Type:        story.EventType(ev.Type),
				Title:       ev.Title,
				Content:     ev.Content,
				Ending:      ev.Ending,
				Updated:     next(),
			}
			for _, c := range ev.Choices {
				event.ChoiceIDs = append(event.ChoiceIDs, c.ID)
			}
			if ev.Input != nil {
				event.InputID = ev.Input.ID
			}
			if err := db.PutEvent(ctx, event); err != nil {
				return nil, err
			}
			result.Events++

			for _, c := range ev.Choices {
				choice := story.Choice{ID: c.ID, WorldID: world.ID, EventID: ev.ID, Title: c.Title, Updated: next()}
				if err := db.PutChoice(ctx, choice); err != nil {
					return nil, err
				}
				result.Choices++
			}
			if ev.Input != nil {
				input := story.Input{ID: ev.Input.ID, WorldID: world.ID, EventID: ev.ID, VariableID: ev.Input.Variable, Updated: next()}
				if err := db.PutInput(ctx, input); err != nil {
					return nil, err
				}
				result.Inputs++
			}
		}
	}

	for _, p := range file.Paths {
		conditionsType := story.ConditionsType(p.ConditionsType)
		if conditionsType == "" {
			conditionsType = story.ConditionsAll
		}
		destinationType := story.DestinationType(p.DestinationType)
		if destinationType == "" {
			destinationType = story.DestinationEvent
		}
		path := story.Path{
			ID:              p.ID,
			WorldID:         world.ID,
			SceneID:         p.Scene,
			Title:           p.Title,
			OriginID:        p.Origin,
			DestinationID:   p.Destination,
			DestinationType: destinationType,
			ChoiceID:        p.Choice,
			InputID:         p.Input,
			ConditionsType:  conditionsType,
			Updated:         next(),
		}
		if err := db.PutPath(ctx, path); err != nil {
			return nil, err
		}
		result.Paths++

		for _, clause := range p.Conditions {
			condition := story.Condition{
				ID:         clause.ID,
				WorldID:    world.ID,
				PathID:     p.ID,
				VariableID: clause.Variable,
				Operator:   story.CompareOperator(clause.Operator),
				Value:      clause.Value,
				Updated:    next(),
			}
			if err := db.PutCondition(ctx, condition); err != nil {
				return nil, err
			}
			result.Conditions++
		}
		for _, clause := range p.Effects {
			effect := story.Effect{
				ID:         clause.ID,
				WorldID:    world.ID,
				PathID:     p.ID,
				VariableID: clause.Variable,
				Operator:   story.SetOperator(clause.Operator),
				Value:      clause.Value,
				Updated:    next(),
			}
			if err := db.PutEffect(ctx, effect); err != nil {
				return nil, err
			}
			result.Effects++
		}
	}

	return result, nil
}
