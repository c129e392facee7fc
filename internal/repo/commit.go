// internal/repo/commit.go
package repo

import (
	"fmt"

	"patchwork/internal/content"
	"patchwork/internal/diff"
	"patchwork/internal/errors"
	"patchwork/internal/graph"

	"go.uber.org/zap"
)

// Snapshot is a commit with its content resolved into records.
type Snapshot struct {
	Hash    graph.Hash      `json:"hash"`
	Message string          `json:"message"`
	Parent  graph.Hash      `json:"parent,omitempty"`
	Content []content.Entry `json:"content"`
	Meta    content.Record  `json:"meta,omitempty"`
}

// Commit records the staged snapshot as a child of head and clears the
// stage.
func (r *Repository) Commit(message string, meta content.Record) (graph.Hash, error) {
	if r.stage.Len() == 0 {
		return "", errors.NothingToCommit("nothing to commit, the staging area is empty")
	}

	if meta != nil {
		norm, err := content.Normalize(meta)
		if err != nil {
			return "", fmt.Errorf("commit meta: %w", err)
		}
		meta = norm
	}

	snapshot, err := content.Encode(r.stage)
	if err != nil {
		return "", err
	}

	text := snapshot
	if r.head != "" {
		parent, err := r.graph.Accumulate(r.head)
		if err != nil {
			return "", fmt.Errorf("resolving head %s: %w", r.head, err)
		}
		text = diff.Text(parent, snapshot)
		if text == "" && r.policy == RejectEmpty {
			return "", errors.NothingToCommit("nothing to commit, staged content matches head")
		}
	}

	c := graph.Commit{
		Message: message,
		Parent:  r.head,
		Content: text,
		Meta:    meta,
	}
	h, err := r.graph.Append(c)
	if err != nil {
		return "", fmt.Errorf("recording commit: %w", err)
	}

	r.head = h
	r.stage = content.NewStore()

	r.logger.Debug("Committed",
		zap.String("hash", string(h)),
		zap.String("parent", string(c.Parent)),
		zap.Int("content_size", len(text)))
	r.notify(Event{Type: Committed, Hash: h})

	return h, nil
}

// Show resolves a commit. Without a hash it shows head.
func (r *Repository) Show(hash ...graph.Hash) (*Snapshot, error) {
	h := r.head
	if len(hash) > 0 && hash[0] != "" {
		h = hash[0]
	}
	if h == "" {
		return nil, errors.NotFound("there is no commit to show")
	}
	return r.resolve(h)
}

func (r *Repository) resolve(h graph.Hash) (*Snapshot, error) {
	c, err := r.graph.Get(h)
	if err != nil {
		return nil, err
	}
	store, err := r.checkoutStore(h)
	if err != nil {
		return nil, err
	}
	return &Snapshot{
		Hash:    h,
		Message: c.Message,
		Parent:  c.Parent,
		Content: store.All(),
		Meta:    c.Meta.Copy(),
	}, nil
}

// checkoutStore decodes the accumulated content of h into a fresh store.
func (r *Repository) checkoutStore(h graph.Hash) (*content.Store, error) {
	text, err := r.graph.Accumulate(h)
	if err != nil {
		return nil, err
	}
	store, err := content.Decode(text)
	if err != nil {
		return nil, fmt.Errorf("decoding commit %s: %w", h, err)
	}
	return store, nil
}

// Log returns every commit with its content as stored.
func (r *Repository) Log() map[graph.Hash]graph.Commit {
	return r.graph.Commits()
}

// LogAccumulated returns every commit with its content resolved.
func (r *Repository) LogAccumulated() (map[graph.Hash]*Snapshot, error) {
	out := make(map[graph.Hash]*Snapshot, r.graph.Len())
	for _, h := range r.graph.Hashes() {
		s, err := r.resolve(h)
		if err != nil {
			return nil, err
		}
		out[h] = s
	}
	return out, nil
}

// LogAsTree returns the commit tree, or nil before the first commit.
func (r *Repository) LogAsTree() *graph.Node {
	return r.graph.Tree()
}

// Diff compares the working directory with head. It returns nil when they
// match.
func (r *Repository) Diff() (*diff.Result, error) {
	base, err := r.headText()
	if err != nil {
		return nil, err
	}
	current, err := content.Encode(r.working)
	if err != nil {
		return nil, err
	}
	return diff.Compare(base, current)
}

// CommitDiffHTML renders the patch stored on a commit. The root stores a
// full snapshot, so it renders as "".
func (r *Repository) CommitDiffHTML(h graph.Hash) (string, error) {
	c, err := r.graph.Get(h)
	if err != nil {
		return "", err
	}
	if c.IsRoot() {
		return "", nil
	}
	return diff.HTML(c.Content)
}

// headText is the encoded content of head, or of an empty store when there
// is no head.
func (r *Repository) headText() (string, error) {
	if r.head == "" {
		return content.MustEncode(content.NewStore()), nil
	}
	return r.graph.Accumulate(r.head)
}
