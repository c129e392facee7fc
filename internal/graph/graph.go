// internal/graph/graph.go
package graph

import (
	"fmt"

	"patchwork/internal/errors"

	lru "github.com/hashicorp/golang-lru/v2"
)

const DefaultCacheSize = 256

// Options configures Graph behavior
type Options struct {
	// Number of accumulated snapshots to keep in memory
	CacheSize int
}

// Graph is a flat, hash-keyed commit arena. Parent links are stored on the
// commits; children are found by scanning, never through embedded pointers.
// Graph is not safe for concurrent use.
type Graph struct {
	counter uint64
	commits map[Hash]Commit
	cache   *lru.Cache[Hash, string] // accumulated content by hash
}

func New(opts Options) (*Graph, error) {
	if opts.CacheSize <= 0 {
		opts.CacheSize = DefaultCacheSize
	}

	cache, err := lru.New[Hash, string](opts.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("creating cache: %w", err)
	}

	return &Graph{
		commits: make(map[Hash]Commit),
		cache:   cache,
	}, nil
}

// Allocate reserves the next hash. Hashes are never handed out twice by
// the same graph, even after the commit holding one is removed.
func (g *Graph) Allocate() Hash {
	g.counter++
	return FormatHash(g.counter)
}

func (g *Graph) Counter() uint64 {
	return g.counter
}

func (g *Graph) Len() int {
	return len(g.commits)
}

func (g *Graph) Has(h Hash) bool {
	_, ok := g.commits[h]
	return ok
}

func (g *Graph) Get(h Hash) (Commit, error) {
	c, ok := g.commits[h]
	if !ok {
		return Commit{}, errors.NotFound("there is no commit with hash %q", h)
	}
	return c.Copy(), nil
}

// Add records c under h. The first commit must be a root; every later one
// must name an existing parent.
func (g *Graph) Add(h Hash, c Commit) error {
	if err := g.check(h, c); err != nil {
		return err
	}
	g.commits[h] = c.Copy()
	return nil
}

// Append records c under the next hash. The counter only advances when c
// is accepted.
func (g *Graph) Append(c Commit) (Hash, error) {
	if err := g.check(FormatHash(g.counter+1), c); err != nil {
		return "", err
	}
	h := g.Allocate()
	g.commits[h] = c.Copy()
	return h, nil
}

func (g *Graph) check(h Hash, c Commit) error {
	if g.Has(h) {
		return errors.InvalidInput(fmt.Sprintf("commit %s already exists", h), h)
	}
	if c.IsRoot() {
		if len(g.commits) > 0 {
			return errors.InvalidInput("the graph already has a root commit", h)
		}
	} else if !g.Has(c.Parent) {
		return errors.NotFound("parent commit %q of %s does not exist", c.Parent, h)
	}
	return nil
}

// Hashes returns every hash in counter order.
func (g *Graph) Hashes() []Hash {
	hashes := make([]Hash, 0, len(g.commits))
	for h := range g.commits {
		hashes = append(hashes, h)
	}
	SortHashes(hashes)
	return hashes
}

// Commits returns a deep copy of the commit map.
func (g *Graph) Commits() map[Hash]Commit {
	out := make(map[Hash]Commit, len(g.commits))
	for h, c := range g.commits {
		out[h] = c.Copy()
	}
	return out
}

func (g *Graph) Root() (Hash, bool) {
	for _, h := range g.Hashes() {
		if g.commits[h].IsRoot() {
			return h, true
		}
	}
	return "", false
}

// Children returns the direct children of h in counter order.
func (g *Graph) Children(h Hash) []Hash {
	var children []Hash
	for _, c := range g.Hashes() {
		if g.commits[c].Parent == h && !g.commits[c].IsRoot() {
			children = append(children, c)
		}
	}
	return children
}

// Descendants returns every commit below h, breadth first.
func (g *Graph) Descendants(h Hash) []Hash {
	index := g.childIndex()
	var out []Hash
	queue := append([]Hash(nil), index[h]...)
	for len(queue) > 0 {
		next := queue[0]
		queue = queue[1:]
		out = append(out, next)
		queue = append(queue, index[next]...)
	}
	return out
}

func (g *Graph) childIndex() map[Hash][]Hash {
	index := make(map[Hash][]Hash, len(g.commits))
	for _, h := range g.Hashes() {
		c := g.commits[h]
		if !c.IsRoot() {
			index[c.Parent] = append(index[c.Parent], h)
		}
	}
	return index
}

// Replace swaps in a fully computed set of commits and drops every cached
// snapshot. The counter is left alone.
func (g *Graph) Replace(commits map[Hash]Commit) {
	g.commits = commits
	g.cache.Purge()
}

// Restore loads an imported graph. The commits must form a single tree;
// the counter is raised to cover every hash present.
func (g *Graph) Restore(counter uint64, commits map[Hash]Commit) error {
	fresh := make(map[Hash]Commit, len(commits))
	for h, c := range commits {
		fresh[h] = c.Copy()
	}
	if err := validateTree(fresh); err != nil {
		return err
	}

	for h := range fresh {
		if n, ok := h.Seq(); ok && n > counter {
			counter = n
		}
	}

	g.counter = counter
	g.Replace(fresh)
	return nil
}

// validateTree checks that commits form exactly one rooted tree.
func validateTree(commits map[Hash]Commit) error {
	if len(commits) == 0 {
		return nil
	}

	roots := 0
	for h, c := range commits {
		if c.IsRoot() {
			roots++
			continue
		}
		if _, ok := commits[c.Parent]; !ok {
			return errors.InvalidInput(fmt.Sprintf("commit %s references missing parent %s", h, c.Parent), h)
		}
	}
	if roots != 1 {
		return errors.InvalidInput(fmt.Sprintf("expected exactly one root commit, found %d", roots), roots)
	}

	// every walk must reach the root or an already reached commit
	reached := make(map[Hash]bool, len(commits))
	for h := range commits {
		path := map[Hash]bool{}
		for cur := h; !reached[cur]; cur = commits[cur].Parent {
			if path[cur] {
				return errors.InvalidInput(fmt.Sprintf("commit %s is part of a cycle", h), h)
			}
			path[cur] = true
			if commits[cur].IsRoot() {
				break
			}
		}
		for p := range path {
			reached[p] = true
		}
	}
	return nil
}
