// Package store defines the persistence surface for storyworlds and their
// played history. Authored rows are written by ingest and read by the
// interpreter; live events and bookmarks are written by the interpreter only.
// Lookups return (nil, nil) when the id does not resolve.
package store

import (
	"context"

	"fabula/internal/story"
)

type Store interface {
	Close(ctx context.Context) error
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
	// DeleteWorldContent removes a world's authored rows ahead of a full
	// re-ingest. Live events and bookmarks are kept; resume recovers them
	// against the new content.
	DeleteWorldContent(ctx context.Context, worldID string) error

	World(ctx context.Context, id string) (*story.World, error)
	Worlds(ctx context.Context) ([]story.World, error)
	Scene(ctx context.Context, id string) (*story.Scene, error)
	Event(ctx context.Context, id string) (*story.Event, error)
	Events(ctx context.Context, worldID string) ([]story.Event, error)
	// SceneEvents returns a scene's events in authored order; a path with a
	// SCENE destination lands on the first of them.
	SceneEvents(ctx context.Context, sceneID string) ([]story.Event, error)
	Choice(ctx context.Context, id string) (*story.Choice, error)
	Input(ctx context.Context, id string) (*story.Input, error)
	Character(ctx context.Context, id string) (*story.Character, error)
	Variables(ctx context.Context, worldID string) ([]story.Variable, error)

	Paths(ctx context.Context, worldID string) ([]story.Path, error)
	PathsFromChoice(ctx context.Context, choiceID string) ([]story.Path, error)
	PathsFromInput(ctx context.Context, inputID string) ([]story.Path, error)
	PassthroughPaths(ctx context.Context, eventID string) ([]story.Path, error)
	ConditionsByPaths(ctx context.Context, pathIDs []string) ([]story.Condition, error)
	EffectsByPath(ctx context.Context, pathID string) ([]story.Effect, error)

	LiveEvent(ctx context.Context, id string) (*story.LiveEvent, error)
	PutLiveEvent(ctx context.Context, event story.LiveEvent) error
	SetLiveEventResult(ctx context.Context, id string, result story.LiveEventResult, nextID string) error
	// RecentLiveEvents returns up to limit live events for a world at a
	// content version, most recent first.
	RecentLiveEvents(ctx context.Context, worldID, version string, limit int) ([]story.LiveEvent, error)
	DeleteLiveEvents(ctx context.Context, worldID string) error
	Bookmark(ctx context.Context, id string) (*story.Bookmark, error)
	PutBookmark(ctx context.Context, bookmark story.Bookmark) error
	DeleteBookmark(ctx context.Context, id string) error
}
