// Package dag orders the tables of a database by their foreign keys.
// It supports cycle detection, creation ordering in parallel levels and
// impact analysis for dropped or altered tables.
package dag

import (
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/leapstack-labs/leapdbml/pkg/model"
)

// Node is a table in the graph.
type Node struct {
	// ID is the qualified table name
	ID    string
	Table model.Table
}

// Graph is a dependency graph of tables. An edge runs from a referenced
// table to the table holding the foreign key.
type Graph struct {
	nodes   map[string]*Node
	edges   map[string][]string // referenced -> dependents
	parents map[string][]string // dependent -> referenced

	selfRefs   []model.Ref
	manyToMany []model.Ref
}

// CycleError reports foreign keys that form a loop. Path starts and ends
// with the same table.
type CycleError struct {
	Path []string
}

func (e *CycleError) Error() string {
	return "cycle detected: " + strings.Join(e.Path, " -> ")
}

// NewGraph creates a new empty graph.
func NewGraph() *Graph {
	return &Graph{
		nodes:   make(map[string]*Node),
		edges:   make(map[string][]string),
		parents: make(map[string][]string),
	}
}

// FromDatabase builds the graph of every table in db. Refs whose
// endpoints name unknown tables are skipped; self references and
// many-to-many refs are recorded but add no edge.
func FromDatabase(db *model.Database) *Graph {
	g := NewGraph()
	if db == nil {
		return g
	}
	for _, t := range db.Tables {
		g.AddTable(t)
	}
	for _, ref := range db.Refs {
		dependent, referenced, ok := ForeignKeySide(ref)
		if !ok {
			g.manyToMany = append(g.manyToMany, ref)
			continue
		}
		from, to := referenced.TableName(), dependent.TableName()
		if from == to {
			g.selfRefs = append(g.selfRefs, ref)
			continue
		}
		_ = g.AddEdge(from, to)
	}
	return g
}

// ForeignKeySide splits a ref into the endpoint holding the foreign key and
// the endpoint it points at. The many side holds the key; for one-to-one
// refs the first endpoint does. Many-to-many refs need a junction table
// and report false.
func ForeignKeySide(ref model.Ref) (dependent, referenced model.Endpoint, ok bool) {
	a, b := ref.Endpoints[0], ref.Endpoints[1]
	switch {
	case a.Relation == model.Many && b.Relation == model.Many:
		return model.Endpoint{}, model.Endpoint{}, false
	case a.Relation == model.One && b.Relation == model.Many:
		return b, a, true
	default:
		return a, b, true
	}
}

// AddTable adds a table node, replacing the data of an existing one.
func (g *Graph) AddTable(t model.Table) {
	id := t.QualifiedName()
	if node, exists := g.nodes[id]; exists {
		node.Table = t
		return
	}
	g.nodes[id] = &Node{ID: id, Table: t}
	g.edges[id] = []string{}
	g.parents[id] = []string{}
}

// AddEdge records that child holds a foreign key into parent.
func (g *Graph) AddEdge(parentID, childID string) error {
	if _, exists := g.nodes[parentID]; !exists {
		return fmt.Errorf("table %q does not exist", parentID)
	}
	if _, exists := g.nodes[childID]; !exists {
		return fmt.Errorf("table %q does not exist", childID)
	}
	if parentID == childID {
		return fmt.Errorf("self reference: %s", parentID)
	}

	if !slices.Contains(g.edges[parentID], childID) {
		g.edges[parentID] = append(g.edges[parentID], childID)
	}
	if !slices.Contains(g.parents[childID], parentID) {
		g.parents[childID] = append(g.parents[childID], parentID)
	}
	return nil
}

// Node returns a table by qualified name.
func (g *Graph) Node(id string) (*Node, bool) {
	node, exists := g.nodes[id]
	return node, exists
}

// Dependencies returns the tables id holds foreign keys into, sorted.
func (g *Graph) Dependencies(id string) []string {
	return sorted(g.parents[id])
}

// Dependents returns the tables holding foreign keys into id, sorted.
func (g *Graph) Dependents(id string) []string {
	return sorted(g.edges[id])
}

// Nodes returns every table sorted by qualified name.
func (g *Graph) Nodes() []*Node {
	nodes := make([]*Node, 0, len(g.nodes))
	for _, node := range g.nodes {
		nodes = append(nodes, node)
	}
	sort.Slice(nodes, func(i, j int) bool {
		return nodes[i].ID < nodes[j].ID
	})
	return nodes
}

// NodeCount returns the number of tables.
func (g *Graph) NodeCount() int {
	return len(g.nodes)
}

// EdgeCount returns the number of distinct table dependencies.
func (g *Graph) EdgeCount() int {
	count := 0
	for _, children := range g.edges {
		count += len(children)
	}
	return count
}

// SelfReferences returns refs between columns of one table.
func (g *Graph) SelfReferences() []model.Ref {
	return g.selfRefs
}

// ManyToMany returns refs that need a junction table.
func (g *Graph) ManyToMany() []model.Ref {
	return g.manyToMany
}

// FindCycle returns one foreign key cycle, or nil. Tables are visited in
// name order so the reported cycle is stable.
func (g *Graph) FindCycle() []string {
	const (
		unvisited = iota
		onStack
		done
	)
	state := make(map[string]int, len(g.nodes))
	var stack []string
	var cycle []string

	var dfs func(id string) bool
	dfs = func(id string) bool {
		state[id] = onStack
		stack = append(stack, id)
		for _, child := range sorted(g.edges[id]) {
			switch state[child] {
			case unvisited:
				if dfs(child) {
					return true
				}
			case onStack:
				start := slices.Index(stack, child)
				cycle = append(append([]string{}, stack[start:]...), child)
				return true
			}
		}
		stack = stack[:len(stack)-1]
		state[id] = done
		return false
	}

	for _, node := range g.Nodes() {
		if state[node.ID] == unvisited && dfs(node.ID) {
			return cycle
		}
	}
	return nil
}

// TopologicalSort returns the tables in creation order: every table comes
// after the tables it references. Ties break by name.
func (g *Graph) TopologicalSort() ([]*Node, error) {
	levels, err := g.Levels()
	if err != nil {
		return nil, err
	}
	result := make([]*Node, 0, len(g.nodes))
	for _, level := range levels {
		for _, id := range level {
			result = append(result, g.nodes[id])
		}
	}
	return result, nil
}

// Levels groups tables into creation batches with Kahn's algorithm. Level
// 0 holds tables without foreign keys; tables in one level only reference
// earlier levels and can be created together.
func (g *Graph) Levels() ([][]string, error) {
	inDegree := make(map[string]int, len(g.nodes))
	var ready []string
	for id := range g.nodes {
		inDegree[id] = len(g.parents[id])
		if inDegree[id] == 0 {
			ready = append(ready, id)
		}
	}

	var levels [][]string
	placed := 0
	for len(ready) > 0 {
		sort.Strings(ready)
		levels = append(levels, ready)
		placed += len(ready)

		var next []string
		for _, id := range ready {
			for _, child := range g.edges[id] {
				inDegree[child]--
				if inDegree[child] == 0 {
					next = append(next, child)
				}
			}
		}
		ready = next
	}

	if placed != len(g.nodes) {
		return nil, &CycleError{Path: g.FindCycle()}
	}
	return levels, nil
}

// Affected returns the given tables and every table that transitively
// references them, sorted.
func (g *Graph) Affected(ids []string) []string {
	affected := make(map[string]bool)

	var mark func(id string)
	mark = func(id string) {
		if affected[id] {
			return
		}
		affected[id] = true
		for _, child := range g.edges[id] {
			mark(child)
		}
	}

	for _, id := range ids {
		if _, exists := g.nodes[id]; exists {
			mark(id)
		}
	}
	return keys(affected)
}

// Upstream returns every table id transitively references, sorted.
func (g *Graph) Upstream(id string) []string {
	upstream := make(map[string]bool)

	var mark func(nodeID string)
	mark = func(nodeID string) {
		for _, parent := range g.parents[nodeID] {
			if !upstream[parent] {
				upstream[parent] = true
				mark(parent)
			}
		}
	}

	mark(id)
	return keys(upstream)
}

// Roots returns tables without foreign keys.
func (g *Graph) Roots() []string {
	var roots []string
	for id := range g.nodes {
		if len(g.parents[id]) == 0 {
			roots = append(roots, id)
		}
	}
	sort.Strings(roots)
	return roots
}

// Leaves returns tables nothing references.
func (g *Graph) Leaves() []string {
	var leaves []string
	for id := range g.nodes {
		if len(g.edges[id]) == 0 {
			leaves = append(leaves, id)
		}
	}
	sort.Strings(leaves)
	return leaves
}

// Subgraph returns a graph of the given tables and the edges among them.
func (g *Graph) Subgraph(ids []string) *Graph {
	sub := NewGraph()
	include := make(map[string]bool, len(ids))
	for _, id := range ids {
		if node, exists := g.nodes[id]; exists {
			include[id] = true
			sub.AddTable(node.Table)
		}
	}
	for id := range include {
		for _, child := range g.edges[id] {
			if include[child] {
				_ = sub.AddEdge(id, child)
			}
		}
	}
	for _, ref := range g.selfRefs {
		if dep, _, _ := ForeignKeySide(ref); include[dep.TableName()] {
			sub.selfRefs = append(sub.selfRefs, ref)
		}
	}
	return sub
}

func sorted(ids []string) []string {
	out := append([]string(nil), ids...)
	sort.Strings(out)
	return out
}

func keys(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
