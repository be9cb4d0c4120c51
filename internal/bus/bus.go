// Package bus carries playback notifications between the interpreter and
// interested callers (play shell, authoring preview). A Bus is passed by
// reference wherever it is needed; there is no ambient global dispatch.
package bus

import "sync"

type Kind string

const (
	EventAppended Kind = "event_appended"
	BookmarkMoved Kind = "bookmark_moved"
	WorldReset    Kind = "world_reset"
)

type Message struct {
	Kind        Kind
	WorldID     string
	LiveEventID string
}

type Handler func(Message)

type Bus struct {
	mu       sync.Mutex
	handlers []Handler
}

func New() *Bus {
	return &Bus{}
}

func (b *Bus) Subscribe(h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers = append(b.handlers, h)
}

// Publish delivers the message to every subscriber synchronously, in
// subscription order.
func (b *Bus) Publish(m Message) {
	b.mu.Lock()
	handlers := make([]Handler, len(b.handlers))
	copy(handlers, b.handlers)
	b.mu.Unlock()

	for _, h := range handlers {
		h(m)
	}
}
