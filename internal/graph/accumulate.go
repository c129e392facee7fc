// internal/graph/accumulate.go
package graph

import (
	"fmt"

	"patchwork/internal/diff"
	"patchwork/internal/errors"
)

// Accumulate reconstructs the full content of h by replaying the patch
// chain from the root (or the nearest cached ancestor) down to h.
func (g *Graph) Accumulate(h Hash) (string, error) {
	if text, ok := g.cache.Get(h); ok {
		return text, nil
	}
	if !g.Has(h) {
		return "", errors.NotFound("there is no commit with hash %q", h)
	}

	var (
		chain []Hash
		base  string
		seen  = make(map[Hash]struct{})
	)
	for cur := h; ; {
		if _, ok := seen[cur]; ok {
			return "", errors.Internal(fmt.Sprintf("cycle in parent chain of %s", h), cur)
		}
		seen[cur] = struct{}{}

		if text, ok := g.cache.Get(cur); ok {
			base = text
			break
		}
		c, ok := g.commits[cur]
		if !ok {
			return "", errors.Internal(fmt.Sprintf("commit %s references missing parent %s", chain[len(chain)-1], cur), cur)
		}
		chain = append(chain, cur)
		if c.IsRoot() {
			break
		}
		cur = c.Parent
	}

	text := base
	for i := len(chain) - 1; i >= 0; i-- {
		c := g.commits[chain[i]]
		if c.IsRoot() {
			text = c.Content
		} else {
			next, err := diff.Apply(c.Content, text)
			if err != nil {
				return "", fmt.Errorf("replaying commit %s: %w", chain[i], err)
			}
			text = next
		}
		g.cache.Add(chain[i], text)
	}

	return text, nil
}

// Resolve accumulates every commit in the graph.
func (g *Graph) Resolve() (map[Hash]string, error) {
	resolved := make(map[Hash]string, len(g.commits))
	for _, h := range g.Hashes() {
		text, err := g.Accumulate(h)
		if err != nil {
			return nil, err
		}
		resolved[h] = text
	}
	return resolved, nil
}
