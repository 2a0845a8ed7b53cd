// Package symbol models the named entities of a DBML document.
//
// Symbols live in an Arena addressed by core.SymbolID. Container kinds own a
// Table mapping (kind, name) indices to nested symbols. Links from symbols
// to syntax nodes are stored as core.NodeID values.
package symbol

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/leapdbml/pkg/core"
)

// Kind is the kind of a symbol.
type Kind int

// Symbol kinds.
const (
	KindSchema Kind = iota + 1
	KindTable
	KindColumn
	KindEnum
	KindEnumField
	KindTableGroup
	KindTableGroupField
)

var kindNames = map[Kind]string{
	KindSchema:          "Schema",
	KindTable:           "Table",
	KindColumn:          "Column",
	KindEnum:            "Enum",
	KindEnumField:       "EnumField",
	KindTableGroup:      "TableGroup",
	KindTableGroupField: "TableGroupField",
}

func (k Kind) String() string {
	if n, ok := kindNames[k]; ok {
		return n
	}
	return "Unknown"
}

// Kinds returns every symbol kind in declaration order.
func Kinds() []Kind {
	return []Kind{KindSchema, KindTable, KindColumn, KindEnum, KindEnumField, KindTableGroup, KindTableGroupField}
}

// IsContainer reports whether symbols of this kind own a nested table.
func (k Kind) IsContainer() bool {
	switch k {
	case KindSchema, KindTable, KindEnum, KindTableGroup:
		return true
	}
	return false
}

// DefaultSchema is the name of the root schema.
const DefaultSchema = "public"

// Index is the composite key of a symbol table entry. Names are
// case-sensitive.
type Index struct {
	Kind Kind
	Name string
}

// String renders the index as Kind:name.
func (i Index) String() string {
	return fmt.Sprintf("%s:%s", i.Kind, i.Name)
}

// Symbol is a named, kind-tagged entity.
type Symbol struct {
	ID   core.SymbolID
	Kind Kind
	Name string

	// Declaration is the declaring node; zero for the root schema.
	Declaration core.NodeID
	// Parent is the enclosing container; nil for the root schema.
	Parent *Symbol
	// Members is the nested table of container kinds; nil otherwise.
	Members *Table
	// References lists the nodes that resolved to this symbol, in binding
	// order.
	References []core.NodeID
}

// Index returns the composite key of the symbol.
func (s *Symbol) Index() Index {
	return Index{Kind: s.Kind, Name: s.Name}
}

// AddReference records a referring node.
func (s *Symbol) AddReference(node core.NodeID) {
	s.References = append(s.References, node)
}

// Path returns the names from the outermost non-root container down to s.
func (s *Symbol) Path() []string {
	var out []string
	for cur := s; cur != nil && cur.Parent != nil; cur = cur.Parent {
		out = append(out, cur.Name)
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// QualifiedName joins Path with dots.
func (s *Symbol) QualifiedName() string {
	return strings.Join(s.Path(), ".")
}

// SchemaName returns the dotted path of the schemas enclosing s, or "" if s
// sits directly in the root schema.
func (s *Symbol) SchemaName() string {
	var parts []string
	for cur := s.Parent; cur != nil && cur.Parent != nil; cur = cur.Parent {
		if cur.Kind == KindSchema {
			parts = append(parts, cur.Name)
		}
	}
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return strings.Join(parts, ".")
}

// Container returns the nearest enclosing symbol of the given kind.
func (s *Symbol) Container(kind Kind) *Symbol {
	for cur := s.Parent; cur != nil; cur = cur.Parent {
		if cur.Kind == kind {
			return cur
		}
	}
	return nil
}
