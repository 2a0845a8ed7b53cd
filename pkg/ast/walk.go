package ast

import (
	"sort"

	"github.com/leapstack-labs/leapdbml/pkg/core"
	"github.com/leapstack-labs/leapdbml/pkg/token"
)

// Inspect traverses the tree depth-first in source order. If fn returns
// false, the children of that node are skipped.
func Inspect(n Node, fn func(Node) bool) {
	if IsNil(n) || !fn(n) {
		return
	}
	for _, c := range n.Children() {
		Inspect(c, fn)
	}
}

// Index maps node ids to nodes for one tree.
type Index struct {
	nodes map[core.NodeID]Node
}

// NewIndex indexes every node reachable from root.
func NewIndex(root Node) *Index {
	idx := &Index{nodes: make(map[core.NodeID]Node)}
	Inspect(root, func(n Node) bool {
		idx.nodes[n.ID()] = n
		return true
	})
	return idx
}

// Get returns the node with the given id.
func (i *Index) Get(id core.NodeID) (Node, bool) {
	n, ok := i.nodes[id]
	return n, ok
}

// Len returns the number of indexed nodes.
func (i *Index) Len() int {
	return len(i.nodes)
}

// NodeAt returns the innermost node whose span contains offset.
func NodeAt(root Node, offset int) Node {
	var found Node
	Inspect(root, func(n Node) bool {
		if !n.Span().Contains(offset) {
			return false
		}
		found = n
		return true
	})
	return found
}

// CollectTokens returns every token owned by the tree, ordered by offset.
// Trivia stays attached to the returned tokens.
func CollectTokens(root Node) []*token.Token {
	var out []*token.Token
	Inspect(root, func(n Node) bool {
		out = append(out, n.Tokens()...)
		return true
	})
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Span.Start.Offset < out[j].Span.Start.Offset
	})
	return out
}

// Source re-emits the text covered by the tree, trivia included.
func Source(root Node, source string) string {
	var buf []byte
	for _, t := range CollectTokens(root) {
		for _, f := range t.Flatten() {
			buf = append(buf, f.Text(source)...)
		}
	}
	return string(buf)
}

// SkippedTokens returns the tokens the parser discarded during error
// recovery, ordered by offset.
func SkippedTokens(root Node) []*token.Token {
	var out []*token.Token
	for _, t := range CollectTokens(root) {
		for _, f := range t.Flatten() {
			if f.Invalid {
				out = append(out, f)
			}
		}
	}
	return out
}
