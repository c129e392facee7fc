// internal/graph/tree.go
package graph

// Node is a commit decorated with its hash and its children.
type Node struct {
	Hash        Hash    `json:"hash"`
	Commit      Commit  `json:"commit"`
	Derivatives []*Node `json:"derivatives"`
}

// Tree returns the graph as a nested structure rooted at the root commit,
// or nil when the graph is empty. Content is left as stored.
func (g *Graph) Tree() *Node {
	rootHash, ok := g.Root()
	if !ok {
		return nil
	}

	index := g.childIndex()
	root := &Node{Hash: rootHash, Commit: g.commits[rootHash].Copy(), Derivatives: []*Node{}}

	queue := []*Node{root}
	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		for _, child := range index[node.Hash] {
			n := &Node{Hash: child, Commit: g.commits[child].Copy(), Derivatives: []*Node{}}
			node.Derivatives = append(node.Derivatives, n)
			queue = append(queue, n)
		}
	}

	return root
}

// Walk visits the tree depth first, children in hash order.
func (n *Node) Walk(fn func(node *Node, depth int)) {
	type item struct {
		node  *Node
		depth int
	}
	stack := []item{{n, 0}}
	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		fn(top.node, top.depth)
		for i := len(top.node.Derivatives) - 1; i >= 0; i-- {
			stack = append(stack, item{top.node.Derivatives[i], top.depth + 1})
		}
	}
}
