// internal/graph/rewrite.go
package graph

import (
	"patchwork/internal/content"
	"patchwork/internal/diff"
)

// Amendment describes the changes to apply to one commit. Nil fields keep
// the current value.
type Amendment struct {
	Message *string
	Meta    content.Record
	Content *string // full encoded snapshot, not a patch
}

// PlanAmend computes the commit set that results from amending h. The graph
// itself is not modified; pass the result to Replace.
func (g *Graph) PlanAmend(h Hash, a Amendment) (map[Hash]Commit, error) {
	target, err := g.Get(h)
	if err != nil {
		return nil, err
	}
	resolved, err := g.Resolve()
	if err != nil {
		return nil, err
	}

	commits := g.Commits()
	if a.Message != nil {
		target.Message = *a.Message
	}
	if a.Meta != nil {
		target.Meta = a.Meta.Copy()
	}
	commits[h] = target.Copy()

	if a.Content != nil {
		resolved[h] = *a.Content
		rediff(commits, resolved, h)
		for _, d := range g.Descendants(h) {
			rediff(commits, resolved, d)
		}
	}

	return commits, nil
}

// PlanRemove computes the commit set that results from deleting h. Children
// of h move to h's parent. When h is the root its first child becomes the
// new root and adopts the remaining children. Every surviving commit keeps
// its accumulated content.
func (g *Graph) PlanRemove(h Hash) (map[Hash]Commit, error) {
	target, err := g.Get(h)
	if err != nil {
		return nil, err
	}
	resolved, err := g.Resolve()
	if err != nil {
		return nil, err
	}

	commits := g.Commits()
	delete(commits, h)

	children := g.Children(h)
	newParent := target.Parent
	if target.IsRoot() && len(children) > 0 {
		promoted := commits[children[0]]
		promoted.Parent = ""
		commits[children[0]] = promoted
		newParent, children = children[0], children[1:]
	}
	for _, child := range children {
		c := commits[child]
		c.Parent = newParent
		commits[child] = c
	}

	for x := range commits {
		rediff(commits, resolved, x)
	}

	return commits, nil
}

// rediff recomputes the stored content of x from resolved texts.
func rediff(commits map[Hash]Commit, resolved map[Hash]string, x Hash) {
	c := commits[x]
	if c.IsRoot() {
		c.Content = resolved[x]
	} else {
		c.Content = diff.Text(resolved[c.Parent], resolved[x])
	}
	commits[x] = c
}
