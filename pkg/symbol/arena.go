package symbol

import "github.com/leapstack-labs/leapdbml/pkg/core"

// Arena owns every symbol of one compilation.
type Arena struct {
	ids     *core.IDGenerator
	symbols map[core.SymbolID]*Symbol
	root    *Symbol
}

// NewArena creates an arena with the root public schema already in place.
// Symbol ids are drawn from ids.
func NewArena(ids *core.IDGenerator) *Arena {
	a := &Arena{ids: ids, symbols: make(map[core.SymbolID]*Symbol)}
	a.root = a.New(KindSchema, DefaultSchema, 0, nil)
	return a
}

// Root returns the public schema.
func (a *Arena) Root() *Symbol {
	return a.root
}

// New creates a symbol. Container kinds get an empty member table. The
// symbol is not registered in any table.
func (a *Arena) New(kind Kind, name string, decl core.NodeID, parent *Symbol) *Symbol {
	s := &Symbol{
		ID:          core.SymbolID(a.ids.Next()),
		Kind:        kind,
		Name:        name,
		Declaration: decl,
		Parent:      parent,
	}
	if kind.IsContainer() {
		s.Members = NewTable(s)
	}
	a.symbols[s.ID] = s
	return s
}

// Get returns the symbol with the given id.
func (a *Arena) Get(id core.SymbolID) (*Symbol, bool) {
	s, ok := a.symbols[id]
	return s, ok
}

// Len returns the number of symbols.
func (a *Arena) Len() int {
	return len(a.symbols)
}

// Resolve walks names from the root: all but the last are schemas, the
// last is looked up with kind. A leading "public" segment names the root.
func (a *Arena) Resolve(kind Kind, names ...string) (*Symbol, bool) {
	if len(names) == 0 {
		return nil, false
	}
	if len(names) > 1 && names[0] == DefaultSchema {
		if _, ok := a.root.Members.Get(KindSchema, DefaultSchema); !ok {
			names = names[1:]
		}
	}
	cur := a.root
	for _, n := range names[:len(names)-1] {
		next, ok := cur.Members.Get(KindSchema, n)
		if !ok {
			return nil, false
		}
		cur = next
	}
	return cur.Members.Get(kind, names[len(names)-1])
}

// Walk visits every symbol reachable from the root depth-first in
// insertion order.
func (a *Arena) Walk(fn func(s *Symbol, depth int)) {
	var visit func(s *Symbol, depth int)
	visit = func(s *Symbol, depth int) {
		fn(s, depth)
		if s.Members == nil {
			return
		}
		for _, child := range s.Members.Symbols() {
			if child.Parent == s {
				visit(child, depth+1)
			}
		}
	}
	visit(a.root, 0)
}
