// internal/repo/state.go
package repo

import (
	"fmt"

	"patchwork/internal/content"
	"patchwork/internal/errors"
	"patchwork/internal/graph"

	"go.uber.org/zap"
)

// State is the full exportable state of a repository. Commit content is
// kept as stored, never resolved. Every field may be missing on import.
type State struct {
	Counter uint64                      `json:"counter"`
	Commits map[graph.Hash]graph.Commit `json:"commits"`
	Stage   *content.Store              `json:"stage"`
	Working *content.Store              `json:"working"`
	Head    *graph.Hash                 `json:"head"`
}

// Export returns a deep copy of the repository state.
func (r *Repository) Export() State {
	s := State{
		Counter: r.graph.Counter(),
		Commits: r.graph.Commits(),
		Stage:   r.stage.Clone(),
		Working: r.working.Clone(),
	}
	if r.head != "" {
		head := r.head
		s.Head = &head
	}
	return s
}

// Import replaces the repository state with s. A missing counter is taken
// from head and raised to cover every imported hash. A missing working
// directory is rebuilt from head. On error nothing changes.
func (r *Repository) Import(s State) error {
	var head graph.Hash
	if s.Head != nil {
		head = *s.Head
	}

	counter := s.Counter
	if counter == 0 && head != "" {
		if n, ok := head.Seq(); ok {
			counter = n
		}
	}

	g, err := graph.New(graph.Options{CacheSize: r.cacheSize})
	if err != nil {
		return fmt.Errorf("creating commit graph: %w", err)
	}
	if err := g.Restore(counter, s.Commits); err != nil {
		return fmt.Errorf("importing commits: %w", err)
	}
	if head != "" && !g.Has(head) {
		return errors.InvalidInput(fmt.Sprintf("head %s is not an imported commit", head), head)
	}

	stage := content.NewStore()
	if s.Stage != nil {
		stage = s.Stage.Clone()
	}

	working := content.NewStore()
	switch {
	case s.Working != nil:
		working = s.Working.Clone()
	case head != "":
		text, err := g.Accumulate(head)
		if err != nil {
			return fmt.Errorf("resolving head %s: %w", head, err)
		}
		working, err = content.Decode(text)
		if err != nil {
			return fmt.Errorf("decoding head %s: %w", head, err)
		}
	}

	r.graph = g
	r.head = head
	r.stage = stage
	r.working = working

	r.logger.Debug("Imported state",
		zap.Int("commits", g.Len()),
		zap.Uint64("counter", g.Counter()),
		zap.String("head", string(head)))
	r.notify(Event{Type: CheckedOut, Hash: head})
	return nil
}
