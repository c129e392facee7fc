// internal/repo/checkout.go
package repo

import (
	"patchwork/internal/content"
	"patchwork/internal/errors"
	"patchwork/internal/graph"

	"go.uber.org/zap"
)

// Clean reports whether the stage is empty and the working directory
// matches head.
func (r *Repository) Clean() (bool, error) {
	if r.stage.Len() > 0 {
		return false, nil
	}
	return r.workingMatchesHead()
}

func (r *Repository) workingMatchesHead() (bool, error) {
	if r.head == "" {
		return r.working.Len() == 0, nil
	}
	base, err := r.graph.Accumulate(r.head)
	if err != nil {
		return false, err
	}
	current, err := content.Encode(r.working)
	if err != nil {
		return false, err
	}
	return base == current, nil
}

// Checkout replaces the working directory with the content of h and moves
// head there. An empty h means head. Unless force is set the repository
// has to be clean; a forced checkout also empties the stage.
func (r *Repository) Checkout(h graph.Hash, force bool) error {
	if h == "" {
		if r.head == "" {
			return errors.NotFound("there is no commit to check out")
		}
		h = r.head
	}

	if !force {
		if r.stage.Len() > 0 {
			return errors.UncommittedChanges("there are staged changes that are not committed yet")
		}
		same, err := r.workingMatchesHead()
		if err != nil {
			return err
		}
		if !same {
			return errors.UnstagedChanges("the working directory has changes that are not staged")
		}
	}

	store, err := r.checkoutStore(h)
	if err != nil {
		return err
	}

	r.head = h
	r.working = store
	if force {
		r.stage = content.NewStore()
	}

	r.logger.Debug("Checked out",
		zap.String("hash", string(h)),
		zap.Bool("force", force))
	r.notify(Event{Type: CheckedOut, Hash: h})
	return nil
}

// Discard throws away staged and unstaged changes.
func (r *Repository) Discard() error {
	if r.head == "" {
		r.working = content.NewStore()
		r.stage = content.NewStore()
		r.notify(Event{Type: CheckedOut})
		return nil
	}
	return r.Checkout(r.head, true)
}
