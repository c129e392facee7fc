// internal/repo/events.go
package repo

import (
	"sort"

	"patchwork/internal/graph"
)

// EventType is the closed set of changes a Repository reports.
type EventType string

const (
	ContentChanged EventType = "content_changed"
	Staged         EventType = "staged"
	Committed      EventType = "committed"
	CheckedOut     EventType = "checked_out"
)

// Event describes one structural change. Hash is set for graph events,
// Names for content events.
type Event struct {
	Type  EventType
	Hash  graph.Hash
	Names []string
}

type Listener func(Event)

// Listen registers fn. Listeners are called in registration order, on the
// goroutine performing the change. A panicking listener is not recovered.
func (r *Repository) Listen(fn Listener) {
	r.listeners = append(r.listeners, fn)
}

func (r *Repository) notify(e Event) {
	for _, fn := range r.listeners {
		fn(e)
	}
}

func sortedNames(names []string) []string {
	sort.Strings(names)
	return names
}
