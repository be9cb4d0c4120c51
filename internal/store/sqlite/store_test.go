package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"fabula/internal/story"
)

func openTestClient(t *testing.T) *Client {
	t.Helper()
	ctx := context.Background()
	dsn := "sqlite://" + filepath.Join(t.TempDir(), "test.db")
	client, err := New(ctx, dsn)
	if err != nil {
		t.Fatalf("opening sqlite client: %v", err)
	}
	t.Cleanup(func() { client.Close(ctx) })
	if err := client.EnsureSchema(ctx); err != nil {
		t.Fatalf("ensuring schema: %v", err)
	}
	return client
}

func TestEnsureSchemaIdempotent(t *testing.T) {
	ctx := context.Background()
	client := openTestClient(t)
	if err := client.EnsureSchema(ctx); err != nil {
		t.Fatalf("second EnsureSchema: %v", err)
	}
	version, err := client.currentSchemaVersion(ctx)
	if err != nil {
		t.Fatalf("reading schema version: %v", err)
	}
	if version != schemaVersion {
		t.Fatalf("schema version = %d, want %d", version, schemaVersion)
	}
}

func TestWorldRoundTrip(t *testing.T) {
	ctx := context.Background()
	client := openTestClient(t)

	world := story.World{
		ID:              "w1",
		StudioID:        "studio-1",
		Title:           "The Hollow Crown",
		Designer:        "R. Vane",
		Version:         "1.2.0",
		StartingEventID: "ev-start",
		Updated:         42,
	}
	if err := client.PutWorld(ctx, world); err != nil {
		t.Fatalf("putting world: %v", err)
	}

	got, err := client.World(ctx, "w1")
	if err != nil {
		t.Fatalf("reading world: %v", err)
	}
	if got == nil {
		t.Fatal("world not found after put")
	}
	if *got != world {
		t.Fatalf("world round trip: got %+v, want %+v", *got, world)
	}

	missing, err := client.World(ctx, "nope")
	if err != nil {
		t.Fatalf("reading missing world: %v", err)
	}
	if missing != nil {
		t.Fatalf("expected nil for missing world, got %+v", missing)
	}
}

func TestEventRoundTrip(t *testing.T) {
	ctx := context.Background()
	client := openTestClient(t)

	event := story.Event{
		ID:        "ev1",
		WorldID:   "w1",
		SceneID:   "sc1",
		Type:      story.EventChoice,
		Title:     "Crossroads",
		Content:   "You reach a fork. {name} hesitates.",
		ChoiceIDs: []string{"c1", "c2"},
		Ending:    false,
		Updated:   7,
	}
	if err := client.PutEvent(ctx, event); err != nil {
		t.Fatalf("putting event: %v", err)
	}

	got, err := client.Event(ctx, "ev1")
	if err != nil {
		t.Fatalf("reading event: %v", err)
	}
	if got == nil {
		t.Fatal("event not found after put")
	}
	if got.Title != event.Title || got.Type != event.Type || got.Ending {
		t.Fatalf("event round trip: got %+v", *got)
	}
	if len(got.ChoiceIDs) != 2 || got.ChoiceIDs[0] != "c1" || got.ChoiceIDs[1] != "c2" {
		t.Fatalf("choice ids round trip: got %v", got.ChoiceIDs)
	}
}

func TestPassthroughPathsExcludeBoundPaths(t *testing.T) {
	ctx := context.Background()
	client := openTestClient(t)

	paths := []story.Path{
		{ID: "p1", WorldID: "w1", OriginID: "ev1", DestinationID: "ev2", ConditionsType: story.ConditionsAll, Updated: 1},
		{ID: "p2", WorldID: "w1", OriginID: "ev1", DestinationID: "ev3", ChoiceID: "c1", ConditionsType: story.ConditionsAll, Updated: 2},
		{ID: "p3", WorldID: "w1", OriginID: "ev1", DestinationID: "ev4", InputID: "i1", ConditionsType: story.ConditionsAll, Updated: 3},
	}
	for _, p := range paths {
		if err := client.PutPath(ctx, p); err != nil {
			t.Fatalf("putting path %s: %v", p.ID, err)
		}
	}

	passthrough, err := client.PassthroughPaths(ctx, "ev1")
	if err != nil {
		t.Fatalf("querying passthrough paths: %v", err)
	}
	if len(passthrough) != 1 || passthrough[0].ID != "p1" {
		t.Fatalf("passthrough paths = %+v, want only p1", passthrough)
	}

	fromChoice, err := client.PathsFromChoice(ctx, "c1")
	if err != nil {
		t.Fatalf("querying choice paths: %v", err)
	}
	if len(fromChoice) != 1 || fromChoice[0].ID != "p2" {
		t.Fatalf("choice paths = %+v, want only p2", fromChoice)
	}
}

func TestConditionsByPathsOrdering(t *testing.T) {
	ctx := context.Background()
	client := openTestClient(t)

	conditions := []story.Condition{
		{ID: "cond-b", WorldID: "w1", PathID: "p1", VariableID: "v1", Operator: story.CompareEqual, Value: "x", Updated: 2},
		{ID: "cond-a", WorldID: "w1", PathID: "p1", VariableID: "v1", Operator: story.CompareGreater, Value: "3", Updated: 1},
		{ID: "cond-c", WorldID: "w1", PathID: "p2", VariableID: "v2", Operator: story.CompareNotEqual, Value: "", Updated: 3},
	}
	for _, cond := range conditions {
		if err := client.PutCondition(ctx, cond); err != nil {
			t.Fatalf("putting condition %s: %v", cond.ID, err)
		}
	}

	got, err := client.ConditionsByPaths(ctx, []string{"p1", "p2"})
	if err != nil {
		t.Fatalf("querying conditions: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("condition count = %d, want 3", len(got))
	}
	if got[0].ID != "cond-a" || got[1].ID != "cond-b" || got[2].ID != "cond-c" {
		t.Fatalf("condition order = %s, %s, %s", got[0].ID, got[1].ID, got[2].ID)
	}

	none, err := client.ConditionsByPaths(ctx, nil)
	if err != nil {
		t.Fatalf("querying with no paths: %v", err)
	}
	if none != nil {
		t.Fatalf("expected nil for empty path list, got %+v", none)
	}
}

func TestLiveEventResultAndState(t *testing.T) {
	ctx := context.Background()
	client := openTestClient(t)

	event := story.LiveEvent{
		ID:          story.InitialLiveEventID("w1"),
		WorldID:     "w1",
		Destination: "ev-start",
		State: story.VariableState{
			"v-hp": {Title: "hp", Type: story.VariableNumber, Value: "10"},
		},
		Type:    story.LiveEventInitial,
		Version: "1.0.0",
		Updated: 100,
	}
	if err := client.PutLiveEvent(ctx, event); err != nil {
		t.Fatalf("putting live event: %v", err)
	}

	got, err := client.LiveEvent(ctx, event.ID)
	if err != nil {
		t.Fatalf("reading live event: %v", err)
	}
	if got == nil {
		t.Fatal("live event not found after put")
	}
	if got.Result != nil {
		t.Fatalf("fresh live event has result %+v", got.Result)
	}
	if snap := got.State["v-hp"]; snap.Value != "10" || snap.Type != story.VariableNumber {
		t.Fatalf("state round trip: got %+v", got.State)
	}

	result := story.LiveEventResult{ID: "c1", Value: "Go north"}
	if err := client.SetLiveEventResult(ctx, event.ID, result, "le-2"); err != nil {
		t.Fatalf("setting result: %v", err)
	}
	got, err = client.LiveEvent(ctx, event.ID)
	if err != nil {
		t.Fatalf("re-reading live event: %v", err)
	}
	if got.Result == nil || got.Result.ID != "c1" || got.Result.Value != "Go north" {
		t.Fatalf("result round trip: got %+v", got.Result)
	}
	if got.NextID != "le-2" {
		t.Fatalf("next id = %q, want le-2", got.NextID)
	}

	if err := client.SetLiveEventResult(ctx, "missing", result, ""); err == nil {
		t.Fatal("expected error when setting result on missing live event")
	}
}

func TestDeleteWorldContentKeepsHistory(t *testing.T) {
	ctx := context.Background()
	client := openTestClient(t)

	if err := client.PutWorld(ctx, story.World{ID: "w1", Title: "T", Version: "1.0.0"}); err != nil {
		t.Fatalf("putting world: %v", err)
	}
	if err := client.PutVariable(ctx, story.Variable{ID: "v1", WorldID: "w1", Title: "hp", Type: story.VariableNumber}); err != nil {
		t.Fatalf("putting variable: %v", err)
	}
	live := story.LiveEvent{
		ID: "le1", WorldID: "w1", Destination: "ev1",
		State: story.VariableState{}, Type: story.LiveEventInitial, Version: "1.0.0",
	}
	if err := client.PutLiveEvent(ctx, live); err != nil {
		t.Fatalf("putting live event: %v", err)
	}

	if err := client.DeleteWorldContent(ctx, "w1"); err != nil {
		t.Fatalf("deleting world content: %v", err)
	}

	world, err := client.World(ctx, "w1")
	if err != nil {
		t.Fatalf("reading world: %v", err)
	}
	if world != nil {
		t.Fatalf("world survived delete: %+v", world)
	}
	vars, err := client.Variables(ctx, "w1")
	if err != nil {
		t.Fatalf("reading variables: %v", err)
	}
	if len(vars) != 0 {
		t.Fatalf("variables survived delete: %+v", vars)
	}
	kept, err := client.LiveEvent(ctx, "le1")
	if err != nil {
		t.Fatalf("reading live event: %v", err)
	}
	if kept == nil {
		t.Fatal("live event should survive authored content delete")
	}
}
