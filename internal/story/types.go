// Package story defines the shared data model for authored storyworlds and
// their played history. Authored types (World, Scene, Event, Choice, Input,
// Path, Condition, Effect, Variable, Character) are read-only at play time;
// LiveEvent and Bookmark are written exclusively by the interpreter.
package story

type VariableType string

const (
	VariableString  VariableType = "STRING"
	VariableNumber  VariableType = "NUMBER"
	VariableBoolean VariableType = "BOOLEAN"
	VariableImage   VariableType = "IMAGE"
	VariableURL     VariableType = "URL"
)

type Variable struct {
	ID           string
	WorldID      string
	Title        string
	Type         VariableType
	InitialValue string
	Updated      int64
}

// VariableSnapshot is a point-in-time copy of one variable. Snapshots are
// duplicated into every live event so history stays replayable even after the
// authored variable is renamed or deleted.
type VariableSnapshot struct {
	Title string
	Type  VariableType
	Value string
}

// VariableState maps variable id to its snapshot for one live event.
type VariableState map[string]VariableSnapshot

// Clone returns an independent copy. Snapshots are plain values, so a
// per-entry copy is a full copy.
func (s VariableState) Clone() VariableState {
	out := make(VariableState, len(s))
	for id, snapshot := range s {
		out[id] = snapshot
	}
	return out
}

// ByTitle returns the id and snapshot of the variable with the given title,
// matched exactly. Templates reference variables by title, not id.
func (s VariableState) ByTitle(title string) (string, VariableSnapshot, bool) {
	for id, snapshot := range s {
		if snapshot.Title == title {
			return id, snapshot, true
		}
	}
	return "", VariableSnapshot{}, false
}

type CompareOperator string

const (
	CompareEqual          CompareOperator = "="
	CompareNotEqual       CompareOperator = "!="
	CompareGreater        CompareOperator = ">"
	CompareGreaterOrEqual CompareOperator = ">="
	CompareLess           CompareOperator = "<"
	CompareLessOrEqual    CompareOperator = "<="
)

// Ordering reports whether the operator requires numeric operands.
func (op CompareOperator) Ordering() bool {
	switch op {
	case CompareGreater, CompareGreaterOrEqual, CompareLess, CompareLessOrEqual:
		return true
	}
	return false
}

type Condition struct {
	ID         string
	WorldID    string
	PathID     string
	VariableID string
	Operator   CompareOperator
	Value      string
	Updated    int64
}

type SetOperator string

const (
	SetAssign   SetOperator = "="
	SetAdd      SetOperator = "+"
	SetSubtract SetOperator = "-"
	SetMultiply SetOperator = "*"
	SetDivide   SetOperator = "/"
)

type Effect struct {
	ID         string
	WorldID    string
	PathID     string
	VariableID string
	Operator   SetOperator
	Value      string
	Updated    int64
}

type ConditionsType string

const (
	ConditionsAll ConditionsType = "ALL"
	ConditionsAny ConditionsType = "ANY"
)

// Path is an authored, conditionally guarded edge between narrative events.
// A path bound to neither a choice nor an input is a passthrough: it advances
// automatically when open.
// DestinationType tells the player surface what kind of element a path lands
// on. Playback always routes to events; SCENE destinations are an authoring
// affordance for jumping between scene entry points.
type DestinationType string

const (
	DestinationEvent DestinationType = "EVENT"
	DestinationScene DestinationType = "SCENE"
)

type Path struct {
	ID              string
	WorldID         string
	SceneID         string
	Title           string
	OriginID        string
	DestinationID   string
	DestinationType DestinationType
	ChoiceID        string
	InputID         string
	ConditionsType  ConditionsType
	Updated         int64
}

func (p Path) IsPassthrough() bool {
	return p.ChoiceID == "" && p.InputID == ""
}

type EventType string

const (
	EventChoice EventType = "CHOICE"
	EventInput  EventType = "INPUT"
)

// Event is one authored narrative unit (a passage): prose plus either a set
// of choices or a typed input prompt.
type Event struct {
	ID          string
	WorldID     string
	SceneID     string
	CharacterID string
	Type        EventType
	Title       string
	Content     string
	ChoiceIDs   []string
	InputID     string
	Ending      bool
	Updated     int64
}

type Choice struct {
	ID      string
	WorldID string
	EventID string
	Title   string
	Updated int64
}

// Input prompts the player for a typed value, stored under VariableID before
// the input's paths are resolved.
type Input struct {
	ID         string
	WorldID    string
	EventID    string
	VariableID string
	Updated    int64
}

type Scene struct {
	ID       string
	WorldID  string
	Title    string
	EventIDs []string
	Updated  int64
}

type World struct {
	ID              string
	StudioID        string
	Title           string
	Designer        string
	Version         string
	StartingEventID string
	Updated         int64
}

type Character struct {
	ID          string
	WorldID     string
	Title       string
	Description string
	Updated     int64
}

type LiveEventType string

const (
	LiveEventInitial        LiveEventType = "INITIAL"
	LiveEventChoice         LiveEventType = "CHOICE"
	LiveEventChoiceLoopback LiveEventType = "CHOICE_LOOPBACK"
	LiveEventInput          LiveEventType = "INPUT"
	LiveEventInputLoopback  LiveEventType = "INPUT_LOOPBACK"
	LiveEventRestart        LiveEventType = "RESTART"
)

// LoopbackResultValue marks a live event whose player "acted" by returning to
// a prior decision point rather than consuming one of its results.
const LoopbackResultValue = "___loopback___"

// RestartResultValue marks the terminal live event of a playthrough that the
// player restarted.
const RestartResultValue = "___restart___"

// LiveEventResult records what the player did on a live event: the choice id
// (or accepted input value) and its display value.
type LiveEventResult struct {
	ID    string `json:"id,omitempty"`
	Value string `json:"value"`
}

// LiveEvent is one played instance of an authored event. Live events form a
// singly linked history per world through PrevID/NextID. Destination and
// State never change after creation; Result and NextID are attached once the
// player acts.
type LiveEvent struct {
	ID          string
	WorldID     string
	Destination string
	Origin      string
	PrevID      string
	NextID      string
	Result      *LiveEventResult
	State       VariableState
	Type        LiveEventType
	Version     string
	Updated     int64
}

// Bookmark points at the most recently played live event of a world so
// playback can resume after interruption.
type Bookmark struct {
	ID          string
	WorldID     string
	Title       string
	LiveEventID string
	Version     string
	Updated     int64
}

// InitialLiveEventID is the sentinel id of a world's first live event.
func InitialLiveEventID(worldID string) string {
	return "initial-" + worldID
}

// AutoBookmarkID is the id of a world's single automatic bookmark.
func AutoBookmarkID(worldID string) string {
	return "auto-" + worldID
}

// Outcome is the result of resolving one player action. It is a closed set:
// NextStep, NoOpenPath, or InvalidInput.
type Outcome interface {
	outcome()
}

// NextStep reports a successful transition: the appended live event and the
// authored event it landed on.
type NextStep struct {
	LiveEvent LiveEvent
	Event     Event
	// Loopback is set when the step bounced back to a prior decision point
	// instead of advancing.
	Loopback bool
}

// NoOpenPath reports that no traversable route exists from the origin. The
// caller renders a "route required" state rather than faulting.
type NoOpenPath struct {
	OriginID string
}

// InvalidInput reports a typed input value that failed validation against
// the input's variable type.
type InvalidInput struct {
	Reason string
}

func (NextStep) outcome()     {}
func (NoOpenPath) outcome()   {}
func (InvalidInput) outcome() {}
