package ingest

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"fabula/internal/story"
)

type fakeStore struct {
	worlds     map[string]story.World
	scenes     map[string]story.Scene
	events     map[string]story.Event
	choices    map[string]story.Choice
	inputs     map[string]story.Input
	paths      map[string]story.Path
	conditions []story.Condition
	effects    []story.Effect
	variables  map[string]story.Variable
	characters map[string]story.Character
	replaced   []string
}

var _ Store = (*fakeStore)(nil)

func newFakeStore() *fakeStore {
	return &fakeStore{
		worlds:     make(map[string]story.World),
		scenes:     make(map[string]story.Scene),
		events:     make(map[string]story.Event),
		choices:    make(map[string]story.Choice),
		inputs:     make(map[string]story.Input),
		paths:      make(map[string]story.Path),
		variables:  make(map[string]story.Variable),
		characters: make(map[string]story.Character),
	}
}

func (f *fakeStore) EnsureSchema(ctx context.Context) error { return nil }
func (f *fakeStore) PutWorld(ctx context.Context, w story.World) error {
	f.worlds[w.ID] = w
	return nil
}
func (f *fakeStore) PutScene(ctx context.Context, s story.Scene) error {
	f.scenes[s.ID] = s
	return nil
}
func (f *fakeStore) PutEvent(ctx context.Context, e story.Event) error {
	f.events[e.ID] = e
	return nil
}
func (f *fakeStore) PutChoice(ctx context.Context, c story.Choice) error {
	f.choices[c.ID] = c
	return nil
}
func (f *fakeStore) PutInput(ctx context.Context, i story.Input) error {
	f.inputs[i.ID] = i
	return nil
}
func (f *fakeStore) PutPath(ctx context.Context, p story.Path) error {
	f.paths[p.ID] = p
	return nil
}
func (f *fakeStore) PutCondition(ctx context.Context, c story.Condition) error {
	f.conditions = append(f.conditions, c)
	return nil
}
func (f *fakeStore) PutEffect(ctx context.Context, e story.Effect) error {
	f.effects = append(f.effects, e)
	return nil
}
func (f *fakeStore) PutVariable(ctx context.Context, v story.Variable) error {
	f.variables[v.ID] = v
	return nil
}
func (f *fakeStore) PutCharacter(ctx context.Context, c story.Character) error {
	f.characters[c.ID] = c
	return nil
}
func (f *fakeStore) DeleteWorldContent(ctx context.Context, worldID string) error {
	f.replaced = append(f.replaced, worldID)
	return nil
}

const sampleWorld = `
world:
  id: w-hollow
  title: The Hollow Crown
  designer: R. Vane
  version: 1.0.0
  starting_event: ev-start
variables:
  - id: v-hp
    title: hp
    type: NUMBER
    initial: "10"
  - id: v-name
    title: name
    type: STRING
characters:
  - id: ch-narrator
    title: Narrator
scenes:
  - id: sc-1
    title: Act One
    events:
      - id: ev-start
        type: CHOICE
        title: Crossroads
        content: "You reach a fork, {name}."
        character: ch-narrator
        choices:
          - id: c-north
            title: Go north
      - id: ev-north
        type: INPUT
        title: The Gate
        content: "State your name."
        input:
          id: i-name
          variable: v-name
      - id: ev-end
        type: CHOICE
        title: The End
        ending: true
paths:
  - id: p-north
    origin: ev-start
    destination: ev-north
    choice: c-north
    conditions_type: ALL
    conditions:
      - variable: v-hp
        operator: ">"
        value: "0"
    effects:
      - variable: v-hp
        operator: "-"
        value: "2"
      - variable: v-hp
        operator: "+"
        value: "1"
  - id: p-name
    origin: ev-north
    destination: ev-end
    input: i-name
`

func writeWorldFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "world.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing world file: %v", err)
	}
	return path
}

func TestRunImportsWorld(t *testing.T) {
	ctx := context.Background()
	db := newFakeStore()
	path := writeWorldFile(t, sampleWorld)

	result, err := Run(ctx, db, path, Options{StudioID: "studio-1"})
	if err != nil {
		t.Fatalf("running ingest: %v", err)
	}

	if result.WorldID != "w-hollow" {
		t.Fatalf("world id = %q", result.WorldID)
	}
	if result.Scenes != 1 || result.Events != 3 || result.Choices != 1 || result.Inputs != 1 {
		t.Fatalf("unexpected counts: %+v", result)
	}
	if result.Paths != 2 || result.Conditions != 1 || result.Effects != 2 {
		t.Fatalf("unexpected path counts: %+v", result)
	}
	if result.Variables != 2 || result.Characters != 1 {
		t.Fatalf("unexpected catalog counts: %+v", result)
	}

	world := db.worlds["w-hollow"]
	if world.StudioID != "studio-1" || world.StartingEventID != "ev-start" || world.Version != "1.0.0" {
		t.Fatalf("world row: %+v", world)
	}

	start := db.events["ev-start"]
	if len(start.ChoiceIDs) != 1 || start.ChoiceIDs[0] != "c-north" {
		t.Fatalf("start event choices: %v", start.ChoiceIDs)
	}
	if start.CharacterID != "ch-narrator" || start.SceneID != "sc-1" {
		t.Fatalf("start event linkage: %+v", start)
	}

	gate := db.events["ev-north"]
	if gate.Type != story.EventInput || gate.InputID != "i-name" {
		t.Fatalf("gate event: %+v", gate)
	}
	if db.inputs["i-name"].VariableID != "v-name" {
		t.Fatalf("input row: %+v", db.inputs["i-name"])
	}

	if !db.events["ev-end"].Ending {
		t.Fatal("ev-end should be an ending")
	}

	if db.paths["p-name"].InputID != "i-name" || db.paths["p-name"].ChoiceID != "" {
		t.Fatalf("input path: %+v", db.paths["p-name"])
	}
}

func TestRunPreservesEffectOrder(t *testing.T) {
	ctx := context.Background()
	db := newFakeStore()
	path := writeWorldFile(t, sampleWorld)

	if _, err := Run(ctx, db, path, Options{}); err != nil {
		t.Fatalf("running ingest: %v", err)
	}

	if len(db.effects) != 2 {
		t.Fatalf("effect count = %d", len(db.effects))
	}
	if db.effects[0].Operator != story.SetSubtract || db.effects[1].Operator != story.SetAdd {
		t.Fatalf("effect order: %s then %s", db.effects[0].Operator, db.effects[1].Operator)
	}
	if db.effects[0].Updated >= db.effects[1].Updated {
		t.Fatalf("effect timestamps not increasing: %d, %d", db.effects[0].Updated, db.effects[1].Updated)
	}
}

func TestRunReplace(t *testing.T) {
	ctx := context.Background()
	db := newFakeStore()
	path := writeWorldFile(t, sampleWorld)

	if _, err := Run(ctx, db, path, Options{Replace: true}); err != nil {
		t.Fatalf("running ingest: %v", err)
	}
	if len(db.replaced) != 1 || db.replaced[0] != "w-hollow" {
		t.Fatalf("replaced worlds: %v", db.replaced)
	}
}

func TestRunSceneDestination(t *testing.T) {
	ctx := context.Background()
	db := newFakeStore()
	path := writeWorldFile(t, `
world:
  id: w-acts
  title: Two Acts
  version: 1.0.0
  starting_event: ev-open
scenes:
  - id: sc-1
    title: Act One
    events:
      - id: ev-open
        type: CHOICE
        title: Curtain
        choices:
          - id: c-on
            title: Press on
  - id: sc-2
    title: Act Two
    events:
      - id: ev-close
        type: CHOICE
        title: Finale
        ending: true
paths:
  - id: p-act
    scene: sc-1
    origin: ev-open
    destination: sc-2
    destination_type: SCENE
    choice: c-on
`)

	if _, err := Run(ctx, db, path, Options{}); err != nil {
		t.Fatalf("running ingest: %v", err)
	}

	p := db.paths["p-act"]
	if p.DestinationType != story.DestinationScene || p.DestinationID != "sc-2" {
		t.Fatalf("scene path destination: %+v", p)
	}
	if p.SceneID != "sc-1" {
		t.Fatalf("scene path scene id: %+v", p)
	}
}

func TestRunGeneratesMissingIDs(t *testing.T) {
	ctx := context.Background()
	db := newFakeStore()
	path := writeWorldFile(t, `
world:
  id: w-min
  title: Minimal
  version: 1.0.0
variables:
  - title: hp
    type: NUMBER
scenes:
  - title: Only
    events:
      - id: ev-only
        type: CHOICE
        title: Alone
`)

	if _, err := Run(ctx, db, path, Options{}); err != nil {
		t.Fatalf("running ingest: %v", err)
	}
	if len(db.variables) != 1 {
		t.Fatalf("variable count = %d", len(db.variables))
	}
	for id := range db.variables {
		if id == "" {
			t.Fatal("variable id was not generated")
		}
	}
	for id := range db.scenes {
		if id == "" {
			t.Fatal("scene id was not generated")
		}
	}
}

func TestRunValidation(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(string) string
		wantErr string
	}{
		{
			name:    "missing world id",
			mutate:  func(s string) string { return strings.Replace(s, "id: w-hollow", "id: \"\"", 1) },
			wantErr: "world id is required",
		},
		{
			name:    "unknown destination",
			mutate:  func(s string) string { return strings.Replace(s, "destination: ev-end", "destination: ev-missing", 1) },
			wantErr: "unknown destination",
		},
		{
			name: "unknown destination scene",
			mutate: func(s string) string {
				return strings.Replace(s, "destination: ev-end", "destination: ev-end\n    destination_type: SCENE", 1)
			},
			wantErr: "unknown destination scene",
		},
		{
			name: "unknown destination type",
			mutate: func(s string) string {
				return strings.Replace(s, "destination: ev-end", "destination: ev-end\n    destination_type: PORTAL", 1)
			},
			wantErr: "unknown destination type",
		},
		{
			name:    "unknown path scene",
			mutate:  func(s string) string { return strings.Replace(s, "- id: p-name", "- id: p-name\n    scene: sc-missing", 1) },
			wantErr: "unknown scene",
		},
		{
			name:    "unknown condition variable",
			mutate:  func(s string) string { return strings.Replace(s, "- variable: v-hp\n        operator: \">\"", "- variable: v-missing\n        operator: \">\"", 1) },
			wantErr: "unknown variable",
		},
		{
			name:    "bad variable type",
			mutate:  func(s string) string { return strings.Replace(s, "type: NUMBER", "type: FLOAT", 1) },
			wantErr: "unknown type",
		},
		{
			name:    "input event without input",
			mutate:  func(s string) string { return strings.Replace(s, "        input:\n          id: i-name\n          variable: v-name\n", "", 1) },
			wantErr: "INPUT event needs an input",
		},
		{
			name:    "bad starting event",
			mutate:  func(s string) string { return strings.Replace(s, "starting_event: ev-start", "starting_event: ev-missing", 1) },
			wantErr: "starting event",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ctx := context.Background()
			db := newFakeStore()
			path := writeWorldFile(t, tc.mutate(sampleWorld))

			_, err := Run(ctx, db, path, Options{})
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("error %q does not mention %q", err, tc.wantErr)
			}
			if len(db.worlds) != 0 {
				t.Fatal("nothing should be written on validation failure")
			}
		})
	}
}
