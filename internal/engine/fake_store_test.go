package engine

import (
	"context"
	"sort"

	"fabula/internal/story"
)

// fakeStore is an in-memory Storyworld for engine tests.
type fakeStore struct {
	worlds     map[string]story.World
	events     map[string]story.Event
	choices    map[string]story.Choice
	inputs     map[string]story.Input
	paths      map[string]story.Path
	conditions map[string]story.Condition
	effects    map[string]story.Effect
	variables  map[string]story.Variable

	liveEvents map[string]story.LiveEvent
	bookmarks  map[string]story.Bookmark
}

var _ Storyworld = (*fakeStore)(nil)

func newFakeStore() *fakeStore {
	return &fakeStore{
		worlds:     make(map[string]story.World),
		events:     make(map[string]story.Event),
		choices:    make(map[string]story.Choice),
		inputs:     make(map[string]story.Input),
		paths:      make(map[string]story.Path),
		conditions: make(map[string]story.Condition),
		effects:    make(map[string]story.Effect),
		variables:  make(map[string]story.Variable),
		liveEvents: make(map[string]story.LiveEvent),
		bookmarks:  make(map[string]story.Bookmark),
	}
}

func (f *fakeStore) World(ctx context.Context, id string) (*story.World, error) {
	if w, ok := f.worlds[id]; ok {
		return &w, nil
	}
	return nil, nil
}

func (f *fakeStore) Event(ctx context.Context, id string) (*story.Event, error) {
	if e, ok := f.events[id]; ok {
		return &e, nil
	}
	return nil, nil
}

func (f *fakeStore) Choice(ctx context.Context, id string) (*story.Choice, error) {
	if c, ok := f.choices[id]; ok {
		return &c, nil
	}
	return nil, nil
}

func (f *fakeStore) Input(ctx context.Context, id string) (*story.Input, error) {
	if in, ok := f.inputs[id]; ok {
		return &in, nil
	}
	return nil, nil
}

func (f *fakeStore) SceneEvents(ctx context.Context, sceneID string) ([]story.Event, error) {
	var out []story.Event
	for _, e := range f.events {
		if e.SceneID == sceneID {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Updated != out[j].Updated {
			return out[i].Updated < out[j].Updated
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (f *fakeStore) Variables(ctx context.Context, worldID string) ([]story.Variable, error) {
	var out []story.Variable
	for _, v := range f.variables {
		if v.WorldID == worldID {
			out = append(out, v)
		}
	}
	return out, nil
}

func (f *fakeStore) PathsFromChoice(ctx context.Context, choiceID string) ([]story.Path, error) {
	var out []story.Path
	for _, p := range f.paths {
		if p.ChoiceID == choiceID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeStore) PathsFromInput(ctx context.Context, inputID string) ([]story.Path, error) {
	var out []story.Path
	for _, p := range f.paths {
		if p.InputID == inputID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeStore) PassthroughPaths(ctx context.Context, eventID string) ([]story.Path, error) {
	var out []story.Path
	for _, p := range f.paths {
		if p.OriginID == eventID && p.IsPassthrough() {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeStore) ConditionsByPaths(ctx context.Context, pathIDs []string) ([]story.Condition, error) {
	wanted := make(map[string]bool, len(pathIDs))
	for _, id := range pathIDs {
		wanted[id] = true
	}
	var out []story.Condition
	for _, c := range f.conditions {
		if wanted[c.PathID] {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeStore) EffectsByPath(ctx context.Context, pathID string) ([]story.Effect, error) {
	var out []story.Effect
	for _, e := range f.effects {
		if e.PathID == pathID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeStore) LiveEvent(ctx context.Context, id string) (*story.LiveEvent, error) {
	if le, ok := f.liveEvents[id]; ok {
		return &le, nil
	}
	return nil, nil
}

func (f *fakeStore) PutLiveEvent(ctx context.Context, event story.LiveEvent) error {
	f.liveEvents[event.ID] = event
	return nil
}

func (f *fakeStore) SetLiveEventResult(ctx context.Context, id string, result story.LiveEventResult, nextID string) error {
	le, ok := f.liveEvents[id]
	if !ok {
		return nil
	}
	le.Result = &result
	le.NextID = nextID
	f.liveEvents[id] = le
	return nil
}

func (f *fakeStore) DeleteLiveEvents(ctx context.Context, worldID string) error {
	for id, le := range f.liveEvents {
		if le.WorldID == worldID {
			delete(f.liveEvents, id)
		}
	}
	return nil
}

func (f *fakeStore) Bookmark(ctx context.Context, id string) (*story.Bookmark, error) {
	if b, ok := f.bookmarks[id]; ok {
		return &b, nil
	}
	return nil, nil
}

func (f *fakeStore) PutBookmark(ctx context.Context, bookmark story.Bookmark) error {
	f.bookmarks[bookmark.ID] = bookmark
	return nil
}

func (f *fakeStore) DeleteBookmark(ctx context.Context, id string) error {
	delete(f.bookmarks, id)
	return nil
}

// fixedRand always picks the same index, making multi-candidate resolution
// deterministic when a test needs it.
type fixedRand struct {
	index int
}

func (r fixedRand) Intn(n int) int {
	if r.index >= n {
		return n - 1
	}
	return r.index
}
