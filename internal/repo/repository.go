// internal/repo/repository.go
package repo

import (
	"fmt"

	"patchwork/internal/content"
	"patchwork/internal/errors"
	"patchwork/internal/graph"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// EmptyCommitPolicy decides what Commit does when the staged snapshot is
// identical to head.
type EmptyCommitPolicy int

const (
	// RejectEmpty fails with NothingToCommit and leaves the stage intact.
	RejectEmpty EmptyCommitPolicy = iota
	// AllowEmpty records a commit whose patch is empty.
	AllowEmpty
)

func (p EmptyCommitPolicy) String() string {
	switch p {
	case RejectEmpty:
		return "reject"
	case AllowEmpty:
		return "allow"
	default:
		return fmt.Sprintf("EmptyCommitPolicy(%d)", int(p))
	}
}

// Options configures Repository behavior
type Options struct {
	Logger       *zap.Logger       // Defaults to a no-op logger
	EmptyCommits EmptyCommitPolicy // What to do with commits that change nothing
	CacheSize    int               // Accumulated snapshots kept in memory
}

// Repository holds one working directory, one staging area and one commit
// graph. It is not safe for concurrent use; listeners run synchronously on
// the calling goroutine.
type Repository struct {
	id        string
	logger    *zap.Logger
	policy    EmptyCommitPolicy
	cacheSize int
	graph     *graph.Graph
	working   *content.Store
	stage     *content.Store
	head      graph.Hash // "" before the first commit
	listeners []Listener
}

func New(opts Options) (*Repository, error) {
	g, err := graph.New(graph.Options{CacheSize: opts.CacheSize})
	if err != nil {
		return nil, fmt.Errorf("creating commit graph: %w", err)
	}

	id := uuid.NewString()
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Repository{
		id:        id,
		logger:    logger.With(zap.String("repo_id", id)),
		policy:    opts.EmptyCommits,
		cacheSize: opts.CacheSize,
		graph:     g,
		working:   content.NewStore(),
		stage:     content.NewStore(),
	}, nil
}

// ID identifies this repository instance in logs.
func (r *Repository) ID() string {
	return r.id
}

// Head returns the checked out commit, if any.
func (r *Repository) Head() (graph.Hash, bool) {
	return r.head, r.head != ""
}

// Working returns the working directory. Mutations made directly on the
// returned store do not notify listeners; use the Repository methods for
// that.
func (r *Repository) Working() *content.Store {
	return r.working
}

// Staged returns the staging area.
func (r *Repository) Staged() *content.Store {
	return r.stage
}

// Save merges attrs into the working record called name.
func (r *Repository) Save(name string, attrs content.Record) (content.Record, error) {
	record, err := r.working.Save(name, attrs)
	if err != nil {
		return nil, err
	}
	r.notify(Event{Type: ContentChanged, Names: []string{name}})
	return record, nil
}

func (r *Repository) SaveBatch(batch map[string]content.Record) error {
	if err := r.working.SaveBatch(batch); err != nil {
		return err
	}
	names := make([]string, 0, len(batch))
	for name := range batch {
		names = append(names, name)
	}
	r.notify(Event{Type: ContentChanged, Names: sortedNames(names)})
	return nil
}

// SaveAll merges attrs into every working record.
func (r *Repository) SaveAll(attrs content.Record) error {
	if err := r.working.SaveAll(attrs); err != nil {
		return err
	}
	r.notify(Event{Type: ContentChanged, Names: r.working.Names()})
	return nil
}

func (r *Repository) Delete(name string) error {
	if err := r.working.Delete(name); err != nil {
		return err
	}
	r.notify(Event{Type: ContentChanged, Names: []string{name}})
	return nil
}

// DeleteRecord removes the working record identical to record.
func (r *Repository) DeleteRecord(record content.Record) error {
	name, err := r.working.NameOf(record)
	if err != nil {
		return err
	}
	return r.Delete(name)
}

func (r *Repository) Rename(oldName, newName string) error {
	if err := r.working.Rename(oldName, newName); err != nil {
		return err
	}
	r.notify(Event{Type: ContentChanged, Names: []string{oldName, newName}})
	return nil
}

// Add copies working records into the stage. With no names the stage
// becomes a full copy of the working directory.
func (r *Repository) Add(names ...string) error {
	if len(names) == 0 {
		r.stage = r.working.Clone()
		r.notify(Event{Type: Staged, Names: r.stage.Names()})
		return nil
	}

	next := r.stage.Clone()
	for _, name := range names {
		record, ok := r.working.Lookup(name)
		if !ok {
			return errors.NotFound("there is no record named %q in the working directory", name)
		}
		if err := next.Put(name, record); err != nil {
			return err
		}
	}
	r.stage = next
	r.notify(Event{Type: Staged, Names: names})
	return nil
}
