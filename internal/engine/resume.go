package engine

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"fabula/internal/bus"
	"fabula/internal/story"
)

// ResumeOrInitialize returns the live event playback should continue from.
// A fresh world gets an INITIAL live event and auto bookmark. A bookmark
// pointing at a destination that no longer exists is walked backward along
// prev links to the nearest still-valid live event; if the whole chain is
// unresolvable the history is reset and regenerated. A world whose content
// version advanced past the bookmark's gets a migrated live event seeded
// from the old state where variable ids survived.
func (e *Engine) ResumeOrInitialize(ctx context.Context, worldID string) (*story.LiveEvent, error) {
	lock := e.worldLock(worldID)
	lock.Lock()
	defer lock.Unlock()

	world, err := e.store.World(ctx, worldID)
	if err != nil {
		return nil, fmt.Errorf("get world: %w", err)
	}
	if world == nil {
		return nil, ErrWorldNotFound
	}

	bookmark, err := e.store.Bookmark(ctx, story.AutoBookmarkID(worldID))
	if err != nil {
		return nil, fmt.Errorf("get bookmark: %w", err)
	}
	if bookmark == nil || bookmark.LiveEventID == "" {
		return e.initialize(ctx, world)
	}

	found, err := e.nearestValid(ctx, bookmark.LiveEventID)
	if err != nil {
		return nil, err
	}
	if found == nil {
		if err := e.reset(ctx, worldID); err != nil {
			return nil, err
		}
		return e.initialize(ctx, world)
	}

	if bookmark.Version != world.Version {
		return e.migrate(ctx, world, found)
	}

	if found.ID != bookmark.LiveEventID {
		if err := e.moveBookmark(ctx, world, found.ID); err != nil {
			return nil, err
		}
	}
	return found, nil
}

// nearestValid walks prev links from the given live event until one whose
// destination still resolves is found. Authored content may have been edited
// or removed since the event was recorded.
func (e *Engine) nearestValid(ctx context.Context, liveEventID string) (*story.LiveEvent, error) {
	id := liveEventID
	for id != "" {
		le, err := e.store.LiveEvent(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("get live event: %w", err)
		}
		if le == nil {
			return nil, nil
		}
		destination, err := e.store.Event(ctx, le.Destination)
		if err != nil {
			return nil, fmt.Errorf("get destination event: %w", err)
		}
		if destination != nil {
			return le, nil
		}
		id = le.PrevID
	}
	return nil, nil
}

// migrate synthesizes a live event at the current content version from the
// current variable set, preserving values for variable ids that survived the
// upgrade and seeding new ones from their authored initial value.
func (e *Engine) migrate(ctx context.Context, world *story.World, from *story.LiveEvent) (*story.LiveEvent, error) {
	list, err := e.store.Variables(ctx, world.ID)
	if err != nil {
		return nil, fmt.Errorf("list variables: %w", err)
	}

	state := make(story.VariableState, len(list))
	for _, v := range list {
		value := v.InitialValue
		if old, ok := from.State[v.ID]; ok {
			value = old.Value
		}
		state[v.ID] = story.VariableSnapshot{
			Title: v.Title,
			Type:  v.Type,
			Value: value,
		}
	}

	next := story.LiveEvent{
		ID:          uuid.NewString(),
		WorldID:     world.ID,
		Destination: from.Destination,
		Origin:      from.Origin,
		PrevID:      from.ID,
		State:       state,
		Type:        from.Type,
		Version:     world.Version,
		Updated:     now(),
	}
	if err := e.store.PutLiveEvent(ctx, next); err != nil {
		return nil, fmt.Errorf("append migrated live event: %w", err)
	}
	if err := e.moveBookmark(ctx, world, next.ID); err != nil {
		return nil, err
	}
	e.publish(bus.Message{Kind: bus.EventAppended, WorldID: world.ID, LiveEventID: next.ID})
	return &next, nil
}

func (e *Engine) initialize(ctx context.Context, world *story.World) (*story.LiveEvent, error) {
	start, err := e.store.Event(ctx, world.StartingEventID)
	if err != nil {
		return nil, fmt.Errorf("get starting event: %w", err)
	}
	if start == nil {
		return nil, fmt.Errorf("world %s: starting event %q not found", world.ID, world.StartingEventID)
	}

	state, err := e.initialState(ctx, world.ID)
	if err != nil {
		return nil, err
	}

	le := story.LiveEvent{
		ID:          story.InitialLiveEventID(world.ID),
		WorldID:     world.ID,
		Destination: start.ID,
		State:       state,
		Type:        story.LiveEventInitial,
		Version:     world.Version,
		Updated:     now(),
	}
	if err := e.store.PutLiveEvent(ctx, le); err != nil {
		return nil, fmt.Errorf("append initial live event: %w", err)
	}
	if err := e.moveBookmark(ctx, world, le.ID); err != nil {
		return nil, err
	}
	e.publish(bus.Message{Kind: bus.EventAppended, WorldID: world.ID, LiveEventID: le.ID})
	return &le, nil
}

func (e *Engine) reset(ctx context.Context, worldID string) error {
	if err := e.store.DeleteLiveEvents(ctx, worldID); err != nil {
		return fmt.Errorf("delete live events: %w", err)
	}
	if err := e.store.DeleteBookmark(ctx, story.AutoBookmarkID(worldID)); err != nil {
		return fmt.Errorf("delete bookmark: %w", err)
	}
	e.publish(bus.Message{Kind: bus.WorldReset, WorldID: worldID})
	return nil
}

func (e *Engine) moveBookmark(ctx context.Context, world *story.World, liveEventID string) error {
	bookmark := story.Bookmark{
		ID:          story.AutoBookmarkID(world.ID),
		WorldID:     world.ID,
		Title:       "auto",
		LiveEventID: liveEventID,
		Version:     world.Version,
		Updated:     now(),
	}
	if err := e.store.PutBookmark(ctx, bookmark); err != nil {
		return fmt.Errorf("move bookmark: %w", err)
	}
	e.publish(bus.Message{Kind: bus.BookmarkMoved, WorldID: world.ID, LiveEventID: liveEventID})
	return nil
}
