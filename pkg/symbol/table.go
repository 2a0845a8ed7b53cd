package symbol

import "sort"

// Table maps indices to symbols within one container.
type Table struct {
	Owner   *Symbol
	entries map[Index]*Symbol
	order   []Index
}

// NewTable creates an empty table owned by owner.
func NewTable(owner *Symbol) *Table {
	return &Table{Owner: owner, entries: make(map[Index]*Symbol)}
}

// Lookup returns the symbol registered under idx.
func (t *Table) Lookup(idx Index) (*Symbol, bool) {
	s, ok := t.entries[idx]
	return s, ok
}

// Get is Lookup by kind and name.
func (t *Table) Get(kind Kind, name string) (*Symbol, bool) {
	return t.Lookup(Index{Kind: kind, Name: name})
}

// Insert registers sym under idx. If the index is taken, the existing
// symbol is returned with false.
func (t *Table) Insert(idx Index, sym *Symbol) (*Symbol, bool) {
	if existing, ok := t.entries[idx]; ok {
		return existing, false
	}
	t.entries[idx] = sym
	t.order = append(t.order, idx)
	return sym, true
}

// Len returns the number of entries.
func (t *Table) Len() int {
	return len(t.order)
}

// Entries returns the indices in insertion order.
func (t *Table) Entries() []Index {
	return append([]Index(nil), t.order...)
}

// Symbols returns the distinct symbols in insertion order. Aliases that
// point at an already listed symbol are skipped.
func (t *Table) Symbols() []*Symbol {
	seen := make(map[*Symbol]bool, len(t.order))
	out := make([]*Symbol, 0, len(t.order))
	for _, idx := range t.order {
		s := t.entries[idx]
		if seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

// Names returns the names registered for kind, sorted.
func (t *Table) Names(kind Kind) []string {
	var out []string
	for _, idx := range t.order {
		if idx.Kind == kind {
			out = append(out, idx.Name)
		}
	}
	sort.Strings(out)
	return out
}
