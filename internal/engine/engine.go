package engine

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"fabula/internal/bus"
	"fabula/internal/story"
)

var (
	// ErrWorldNotFound reports an unknown world id.
	ErrWorldNotFound = errors.New("world not found")
	// ErrNotPlaying reports an action against a world with no active
	// playthrough; callers must ResumeOrInitialize first.
	ErrNotPlaying = errors.New("world has no active playthrough")
	// ErrStaleEvent reports an action against an event that is no longer
	// the bookmarked one, usually a double-submitted player input.
	ErrStaleEvent = errors.New("event is not the current live event")
)

// Storyworld is the read surface the interpreter needs from the store, plus
// the live event and bookmark writes it owns. Lookups return (nil, nil) when
// the id does not resolve.
type Storyworld interface {
	World(ctx context.Context, id string) (*story.World, error)
	Event(ctx context.Context, id string) (*story.Event, error)
	SceneEvents(ctx context.Context, sceneID string) ([]story.Event, error)
	Choice(ctx context.Context, id string) (*story.Choice, error)
	Input(ctx context.Context, id string) (*story.Input, error)
	Variables(ctx context.Context, worldID string) ([]story.Variable, error)
	PathsFromChoice(ctx context.Context, choiceID string) ([]story.Path, error)
	PathsFromInput(ctx context.Context, inputID string) ([]story.Path, error)
	PassthroughPaths(ctx context.Context, eventID string) ([]story.Path, error)
	ConditionsByPaths(ctx context.Context, pathIDs []string) ([]story.Condition, error)
	EffectsByPath(ctx context.Context, pathID string) ([]story.Effect, error)

	LiveEvent(ctx context.Context, id string) (*story.LiveEvent, error)
	PutLiveEvent(ctx context.Context, event story.LiveEvent) error
	SetLiveEventResult(ctx context.Context, id string, result story.LiveEventResult, nextID string) error
	DeleteLiveEvents(ctx context.Context, worldID string) error
	Bookmark(ctx context.Context, id string) (*story.Bookmark, error)
	PutBookmark(ctx context.Context, bookmark story.Bookmark) error
	DeleteBookmark(ctx context.Context, id string) error
}

// Engine resolves player actions against a storyworld. Every action is one
// atomic unit per world: path resolution, effect application, log append and
// bookmark advance happen under the world's lock so the prev/next linkage and
// the bookmark never diverge.
type Engine struct {
	store  Storyworld
	rng    Rander
	events *bus.Bus

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// New creates an engine. rng may be nil for a crypto-seeded default; events
// may be nil when no caller listens.
func New(store Storyworld, rng Rander, events *bus.Bus) *Engine {
	if rng == nil {
		rng = NewRand()
	}
	return &Engine{
		store:  store,
		rng:    rng,
		events: events,
		locks:  make(map[string]*sync.Mutex),
	}
}

func (e *Engine) worldLock(worldID string) *sync.Mutex {
	e.mu.Lock()
	defer e.mu.Unlock()
	lock, ok := e.locks[worldID]
	if !ok {
		lock = &sync.Mutex{}
		e.locks[worldID] = lock
	}
	return lock
}

func (e *Engine) publish(m bus.Message) {
	if e.events != nil {
		e.events.Publish(m)
	}
}

// ResolveChoice advances the world by the given choice on the current event.
func (e *Engine) ResolveChoice(ctx context.Context, worldID, eventID, choiceID string) (story.Outcome, error) {
	lock := e.worldLock(worldID)
	lock.Lock()
	defer lock.Unlock()

	cur, err := e.current(ctx, worldID, eventID)
	if err != nil {
		return nil, err
	}

	choice, err := e.store.Choice(ctx, choiceID)
	if err != nil {
		return nil, fmt.Errorf("get choice: %w", err)
	}
	if choice == nil || choice.EventID != eventID {
		return story.NoOpenPath{OriginID: eventID}, nil
	}

	paths, err := e.store.PathsFromChoice(ctx, choiceID)
	if err != nil {
		return nil, fmt.Errorf("paths from choice: %w", err)
	}

	result := story.LiveEventResult{ID: choiceID, Value: choice.Title}
	return e.advance(ctx, cur, paths, cur.State, result, story.LiveEventChoice, story.LiveEventChoiceLoopback)
}

// ResolvePassthrough advances the world along the current event's
// auto-advance paths.
func (e *Engine) ResolvePassthrough(ctx context.Context, worldID, eventID string) (story.Outcome, error) {
	lock := e.worldLock(worldID)
	lock.Lock()
	defer lock.Unlock()

	cur, err := e.current(ctx, worldID, eventID)
	if err != nil {
		return nil, err
	}

	paths, err := e.store.PassthroughPaths(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("passthrough paths: %w", err)
	}

	return e.advance(ctx, cur, paths, cur.State, story.LiveEventResult{}, story.LiveEventChoice, story.LiveEventChoiceLoopback)
}

// ResolveInput validates the typed value against the event's input variable,
// stages it into state, and advances along the input's paths.
func (e *Engine) ResolveInput(ctx context.Context, worldID, eventID, rawValue string) (story.Outcome, error) {
	lock := e.worldLock(worldID)
	lock.Lock()
	defer lock.Unlock()

	cur, err := e.current(ctx, worldID, eventID)
	if err != nil {
		return nil, err
	}

	event, err := e.store.Event(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("get event: %w", err)
	}
	if event == nil || event.InputID == "" {
		return story.NoOpenPath{OriginID: eventID}, nil
	}
	input, err := e.store.Input(ctx, event.InputID)
	if err != nil {
		return nil, fmt.Errorf("get input: %w", err)
	}
	if input == nil {
		return story.NoOpenPath{OriginID: eventID}, nil
	}

	vars, err := e.variables(ctx, worldID)
	if err != nil {
		return nil, err
	}
	variable, ok := vars[input.VariableID]
	if !ok {
		return story.NoOpenPath{OriginID: eventID}, nil
	}

	value, reason := normalizeInput(variable.Type, rawValue)
	if reason != "" {
		return story.InvalidInput{Reason: reason}, nil
	}

	staged := cur.State.Clone()
	staged[variable.ID] = story.VariableSnapshot{
		Title: variable.Title,
		Type:  variable.Type,
		Value: value,
	}

	paths, err := e.store.PathsFromInput(ctx, input.ID)
	if err != nil {
		return nil, fmt.Errorf("paths from input: %w", err)
	}

	result := story.LiveEventResult{ID: input.VariableID, Value: value}
	return e.advance(ctx, cur, paths, staged, result, story.LiveEventInput, story.LiveEventInputLoopback)
}

// Restart begins a new playthrough chain: variable state is rebuilt from
// authored initial values, and the new chain head keeps the old terminal
// event as prev so history stays traceable across restarts.
func (e *Engine) Restart(ctx context.Context, worldID string) (story.Outcome, error) {
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

	start, err := e.store.Event(ctx, world.StartingEventID)
	if err != nil {
		return nil, fmt.Errorf("get starting event: %w", err)
	}
	if start == nil {
		return story.NoOpenPath{}, nil
	}

	cur, err := e.bookmarkedLiveEvent(ctx, worldID)
	if err != nil {
		return nil, err
	}
	if cur == nil {
		return nil, ErrNotPlaying
	}

	state, err := e.initialState(ctx, worldID)
	if err != nil {
		return nil, err
	}

	next := story.LiveEvent{
		ID:          uuid.NewString(),
		WorldID:     worldID,
		Destination: start.ID,
		PrevID:      cur.ID,
		State:       state,
		Type:        story.LiveEventRestart,
		Version:     world.Version,
		Updated:     now(),
	}
	if err := e.append(ctx, cur, next, story.LiveEventResult{Value: story.RestartResultValue}); err != nil {
		return nil, err
	}
	e.publish(bus.Message{Kind: bus.WorldReset, WorldID: worldID, LiveEventID: next.ID})

	return story.NextStep{LiveEvent: next, Event: *start}, nil
}

// advance runs the shared tail of every resolution: pick a path, apply its
// effects, append the new live event (or a loopback when the destination
// dead-ends), and move the bookmark.
func (e *Engine) advance(ctx context.Context, cur *story.LiveEvent, candidates []story.Path, state story.VariableState, result story.LiveEventResult, stepType, loopbackType story.LiveEventType) (story.Outcome, error) {
	vars, err := e.variables(ctx, cur.WorldID)
	if err != nil {
		return nil, err
	}
	conditions, err := e.conditionsFor(ctx, candidates)
	if err != nil {
		return nil, err
	}

	selected := ResolvePath(candidates, state, conditions, vars, e.rng)
	if selected == nil {
		return story.NoOpenPath{OriginID: cur.Destination}, nil
	}

	effects, err := e.store.EffectsByPath(ctx, selected.ID)
	if err != nil {
		return nil, fmt.Errorf("effects by path: %w", err)
	}
	nextState := ApplyEffects(state, effects)

	destination, err := e.destinationEvent(ctx, selected)
	if err != nil {
		return nil, err
	}
	if destination == nil {
		return story.NoOpenPath{OriginID: cur.Destination}, nil
	}

	if result.ID == "" && result.Value == "" {
		result = story.LiveEventResult{ID: selected.ID, Value: selected.Title}
	}

	next := story.LiveEvent{
		ID:          uuid.NewString(),
		WorldID:     cur.WorldID,
		Destination: destination.ID,
		Origin:      selected.ID,
		PrevID:      cur.ID,
		State:       nextState,
		Type:        stepType,
		Version:     cur.Version,
		Updated:     now(),
	}

	// A reached event with no open route and no ending bounces the player
	// back to the path's origin without consuming a result.
	loopback := false
	if !destination.Ending {
		routable, err := e.hasOpenRoute(ctx, destination, nextState, vars)
		if err != nil {
			return nil, err
		}
		if !routable {
			origin, err := e.store.Event(ctx, selected.OriginID)
			if err != nil {
				return nil, fmt.Errorf("get origin event: %w", err)
			}
			if origin == nil {
				return story.NoOpenPath{OriginID: cur.Destination}, nil
			}
			destination = origin
			next.Destination = origin.ID
			next.Type = loopbackType
			result = story.LiveEventResult{Value: story.LoopbackResultValue}
			loopback = true
		}
	}

	if err := e.append(ctx, cur, next, result); err != nil {
		return nil, err
	}
	e.publish(bus.Message{Kind: bus.EventAppended, WorldID: cur.WorldID, LiveEventID: next.ID})

	return story.NextStep{LiveEvent: next, Event: *destination, Loopback: loopback}, nil
}

func (e *Engine) append(ctx context.Context, cur *story.LiveEvent, next story.LiveEvent, result story.LiveEventResult) error {
	if err := e.store.PutLiveEvent(ctx, next); err != nil {
		return fmt.Errorf("append live event: %w", err)
	}
	if err := e.store.SetLiveEventResult(ctx, cur.ID, result, next.ID); err != nil {
		return fmt.Errorf("set live event result: %w", err)
	}
	bookmark := story.Bookmark{
		ID:          story.AutoBookmarkID(cur.WorldID),
		WorldID:     cur.WorldID,
		Title:       "auto",
		LiveEventID: next.ID,
		Version:     next.Version,
		Updated:     now(),
	}
	if err := e.store.PutBookmark(ctx, bookmark); err != nil {
		return fmt.Errorf("advance bookmark: %w", err)
	}
	e.publish(bus.Message{Kind: bus.BookmarkMoved, WorldID: cur.WorldID, LiveEventID: next.ID})
	return nil
}

// hasOpenRoute reports whether any route leaves the event under state: an
// open choice path, an open passthrough path, or an input prompt with at
// least one path (input paths depend on the yet-untyped value, so they are
// always considered routable).
func (e *Engine) hasOpenRoute(ctx context.Context, event *story.Event, state story.VariableState, vars map[string]story.Variable) (bool, error) {
	if event.Type == story.EventInput && event.InputID != "" {
		paths, err := e.store.PathsFromInput(ctx, event.InputID)
		if err != nil {
			return false, fmt.Errorf("paths from input: %w", err)
		}
		return len(paths) > 0, nil
	}

	var candidates []story.Path
	for _, choiceID := range event.ChoiceIDs {
		paths, err := e.store.PathsFromChoice(ctx, choiceID)
		if err != nil {
			return false, fmt.Errorf("paths from choice: %w", err)
		}
		candidates = append(candidates, paths...)
	}
	passthrough, err := e.store.PassthroughPaths(ctx, event.ID)
	if err != nil {
		return false, fmt.Errorf("passthrough paths: %w", err)
	}
	candidates = append(candidates, passthrough...)

	conditions, err := e.conditionsFor(ctx, candidates)
	if err != nil {
		return false, err
	}
	for _, path := range candidates {
		if open, _ := EvaluateConditions(state, path.ConditionsType, conditions[path.ID], vars); open {
			return true, nil
		}
	}
	return false, nil
}

// current loads the bookmarked live event and guards against actions on a
// stale event, the re-entrancy failure mode of double-submitted input.
// destinationEvent resolves a path's landing event. A SCENE destination
// lands on the scene's first event in authored order; an empty or missing
// scene resolves to nil, like a missing event.
func (e *Engine) destinationEvent(ctx context.Context, path *story.Path) (*story.Event, error) {
	if path.DestinationType == story.DestinationScene {
		events, err := e.store.SceneEvents(ctx, path.DestinationID)
		if err != nil {
			return nil, fmt.Errorf("get destination scene events: %w", err)
		}
		if len(events) == 0 {
			return nil, nil
		}
		return &events[0], nil
	}
	destination, err := e.store.Event(ctx, path.DestinationID)
	if err != nil {
		return nil, fmt.Errorf("get destination event: %w", err)
	}
	return destination, nil
}

func (e *Engine) current(ctx context.Context, worldID, eventID string) (*story.LiveEvent, error) {
	cur, err := e.bookmarkedLiveEvent(ctx, worldID)
	if err != nil {
		return nil, err
	}
	if cur == nil {
		return nil, ErrNotPlaying
	}
	if cur.Destination != eventID {
		return nil, ErrStaleEvent
	}
	return cur, nil
}

func (e *Engine) bookmarkedLiveEvent(ctx context.Context, worldID string) (*story.LiveEvent, error) {
	bookmark, err := e.store.Bookmark(ctx, story.AutoBookmarkID(worldID))
	if err != nil {
		return nil, fmt.Errorf("get bookmark: %w", err)
	}
	if bookmark == nil {
		return nil, nil
	}
	cur, err := e.store.LiveEvent(ctx, bookmark.LiveEventID)
	if err != nil {
		return nil, fmt.Errorf("get live event: %w", err)
	}
	return cur, nil
}

func (e *Engine) variables(ctx context.Context, worldID string) (map[string]story.Variable, error) {
	list, err := e.store.Variables(ctx, worldID)
	if err != nil {
		return nil, fmt.Errorf("list variables: %w", err)
	}
	vars := make(map[string]story.Variable, len(list))
	for _, v := range list {
		vars[v.ID] = v
	}
	return vars, nil
}

func (e *Engine) conditionsFor(ctx context.Context, paths []story.Path) (map[string][]story.Condition, error) {
	if len(paths) == 0 {
		return nil, nil
	}
	ids := make([]string, 0, len(paths))
	for _, path := range paths {
		ids = append(ids, path.ID)
	}
	conditions, err := e.store.ConditionsByPaths(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("conditions by paths: %w", err)
	}
	byPath := make(map[string][]story.Condition)
	for _, condition := range conditions {
		byPath[condition.PathID] = append(byPath[condition.PathID], condition)
	}
	return byPath, nil
}

func (e *Engine) initialState(ctx context.Context, worldID string) (story.VariableState, error) {
	list, err := e.store.Variables(ctx, worldID)
	if err != nil {
		return nil, fmt.Errorf("list variables: %w", err)
	}
	state := make(story.VariableState, len(list))
	for _, v := range list {
		state[v.ID] = story.VariableSnapshot{
			Title: v.Title,
			Type:  v.Type,
			Value: v.InitialValue,
		}
	}
	return state, nil
}

// normalizeInput validates a raw typed value against the variable type and
// returns the canonical stored form, or a rejection reason.
func normalizeInput(variableType story.VariableType, rawValue string) (string, string) {
	trimmed := strings.TrimSpace(rawValue)
	if trimmed == "" {
		return "", "a value is required"
	}
	switch variableType {
	case story.VariableNumber:
		n := story.ToNumber(trimmed)
		if math.IsNaN(n) {
			return "", "a number is required"
		}
		return story.FormatNumber(n), ""
	case story.VariableBoolean:
		switch strings.ToLower(trimmed) {
		case "true", "false":
			return strings.ToLower(trimmed), ""
		}
		return "", "true or false is required"
	default:
		return trimmed, ""
	}
}

func now() int64 {
	return time.Now().UnixMilli()
}
