// internal/repo/surgery.go
package repo

import (
	"fmt"

	"patchwork/internal/content"
	"patchwork/internal/errors"
	"patchwork/internal/graph"

	"go.uber.org/zap"
)

// Changes lists what Amend rewrites. Nil fields keep the commit's current
// value. Content replaces the whole snapshot; records are stored in name
// order.
type Changes struct {
	Message *string
	Meta    content.Record
	Content map[string]content.Record
}

// Amend rewrites message, meta or content of h in place. Hash and parent
// are kept and the patches of every descendant are recomputed. An empty h
// means head.
func (r *Repository) Amend(h graph.Hash, changes Changes) error {
	if h == "" {
		h = r.head
	}
	if !r.graph.Has(h) {
		return errors.NotFound("there is no commit with hash %q", h)
	}

	a := graph.Amendment{Message: changes.Message}
	if changes.Meta != nil {
		meta, err := content.Normalize(changes.Meta)
		if err != nil {
			return fmt.Errorf("amend meta: %w", err)
		}
		a.Meta = meta
	}
	if changes.Content != nil {
		store := content.NewStore()
		if len(changes.Content) > 0 {
			if err := store.SaveBatch(changes.Content); err != nil {
				return fmt.Errorf("amend content: %w", err)
			}
		}
		text, err := content.Encode(store)
		if err != nil {
			return err
		}
		a.Content = &text
	}

	return r.amend(h, a)
}

// AmendHead replaces the content of head with the working directory.
func (r *Repository) AmendHead() error {
	if r.head == "" {
		return errors.NotFound("there is no commit to amend")
	}
	text, err := content.Encode(r.working)
	if err != nil {
		return err
	}
	return r.amend(r.head, graph.Amendment{Content: &text})
}

func (r *Repository) amend(h graph.Hash, a graph.Amendment) error {
	clean, err := r.Clean()
	if err != nil {
		return err
	}

	commits, err := r.graph.PlanAmend(h, a)
	if err != nil {
		return fmt.Errorf("amending %s: %w", h, err)
	}

	// head's snapshot only changes when head itself is amended
	var working *content.Store
	if h == r.head && a.Content != nil && clean {
		working, err = content.Decode(*a.Content)
		if err != nil {
			return err
		}
	}

	r.graph.Replace(commits)
	if working != nil {
		r.working = working
	}

	r.logger.Debug("Amended",
		zap.String("hash", string(h)),
		zap.Bool("content", a.Content != nil),
		zap.Bool("resynced", working != nil))
	r.notify(Event{Type: Committed, Hash: h})
	return nil
}

// Adios deletes h and repairs the graph around it. Children of h move to
// h's parent; deleting the root promotes its first child. Accumulated
// content of every other commit is unchanged. When head is deleted the
// repository is force-checked out at h's parent, or the new root, or left
// empty. Adios on an empty graph does nothing and returns nil.
func (r *Repository) Adios(h graph.Hash) (*graph.Commit, error) {
	if r.graph.Len() == 0 {
		return nil, nil
	}
	target, err := r.graph.Get(h)
	if err != nil {
		return nil, err
	}

	commits, err := r.graph.PlanRemove(h)
	if err != nil {
		return nil, fmt.Errorf("removing %s: %w", h, err)
	}

	moveHead := r.head == h
	var (
		newHead graph.Hash
		working = content.NewStore()
	)
	if moveHead {
		newHead = target.Parent
		if newHead == "" {
			newHead = rootOf(commits)
		}
		if newHead != "" {
			// accumulated content survives the rewrite, so the old graph
			// still answers for newHead
			working, err = r.checkoutStore(newHead)
			if err != nil {
				return nil, err
			}
		}
	}

	r.graph.Replace(commits)
	if moveHead {
		r.head = newHead
		r.working = working
		r.stage = content.NewStore()
	}

	r.logger.Debug("Removed commit",
		zap.String("hash", string(h)),
		zap.Int("remaining", len(commits)),
		zap.String("head", string(r.head)))
	r.notify(Event{Type: Committed, Hash: h})
	if moveHead {
		r.notify(Event{Type: CheckedOut, Hash: newHead})
	}

	return &target, nil
}

func rootOf(commits map[graph.Hash]graph.Commit) graph.Hash {
	for h, c := range commits {
		if c.IsRoot() {
			return h
		}
	}
	return ""
}
