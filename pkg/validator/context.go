package validator

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/leapdbml/pkg/ast"
	"github.com/leapstack-labs/leapdbml/pkg/core"
	"github.com/leapstack-labs/leapdbml/pkg/symbol"
)

// Context is handed to rule hooks. It gives access to the symbol arena,
// diagnostic reporting and the deferred reference list.
type Context struct {
	arena       *symbol.Arena
	unresolved  []*Unresolved
	diagnostics core.Diagnostics
}

// Arena returns the symbol arena being populated.
func (c *Context) Arena() *symbol.Arena {
	return c.arena
}

// Report records an error against node and returns it so callers can add
// hints.
func (c *Context) Report(code core.ErrorCode, node ast.Node, format string, args ...any) *core.Diagnostic {
	d := core.NodeDiagnostic(code, node.ID(), node.Span(), format, args...)
	c.diagnostics = append(c.diagnostics, d)
	return d
}

// Defer records a name reference for the binder.
func (c *Context) Defer(u *Unresolved) {
	if u == nil || len(u.Chain) == 0 {
		return
	}
	c.unresolved = append(c.unresolved, u)
}

// DeferChain records a reference spelled by vars. The trailing segments take
// the kinds in tail and any leading segments are schemas. References with
// fewer segments than tail are ignored.
func (c *Context) DeferChain(owner *ast.ElementDeclaration, node ast.Node, vars []*ast.Variable, lenient bool, tail ...symbol.Kind) {
	chain, ok := QualifierChain(vars, tail...)
	if !ok {
		return
	}
	c.Defer(&Unresolved{Chain: chain, Owner: owner, Node: node, Lenient: lenient})
}

// QualifierChain pairs vars with the kinds they are looked up as. The last
// len(tail) segments take the tail kinds and the rest are schemas.
func QualifierChain(vars []*ast.Variable, tail ...symbol.Kind) ([]Qualifier, bool) {
	if len(vars) < len(tail) || len(vars) == 0 {
		return nil, false
	}
	chain := make([]Qualifier, len(vars))
	schemas := len(vars) - len(tail)
	for i, v := range vars {
		kind := symbol.KindSchema
		if i >= schemas {
			kind = tail[i-schemas]
		}
		chain[i] = Qualifier{Index: symbol.Index{Kind: kind, Name: v.Name()}, Node: v}
	}
	return chain, true
}

// ---------- Registration ----------

// declare registers a qualified name. Leading segments create or reuse
// schemas below the root; a leading "public" names the root itself. The
// declared symbol is returned even when the name is taken, detached from
// any table, so the element's own members can still be checked.
func (c *Context) declare(kind symbol.Kind, vars []*ast.Variable, decl ast.Node) (*symbol.Symbol, bool) {
	scope := c.schemaFor(vars[:len(vars)-1])
	last := vars[len(vars)-1]
	sym := c.arena.New(kind, last.Name(), decl.ID(), scope)
	decl.SetSymbol(sym.ID)
	if existing, ok := scope.Members.Insert(sym.Index(), sym); !ok {
		c.Report(core.ErrDuplicateName, decl, "%s '%s' is already defined", describeKind(kind), qualified(existing))
		return sym, false
	}
	return sym, true
}

func (c *Context) schemaFor(vars []*ast.Variable) *symbol.Symbol {
	scope := c.arena.Root()
	if len(vars) > 0 && vars[0].Name() == symbol.DefaultSchema {
		vars = vars[1:]
	}
	for _, v := range vars {
		next, ok := scope.Members.Get(symbol.KindSchema, v.Name())
		if !ok {
			next = c.arena.New(symbol.KindSchema, v.Name(), v.ID(), scope)
			scope.Members.Insert(next.Index(), next)
		}
		scope = next
	}
	return scope
}

// declareMember registers a member of a container symbol.
func (c *Context) declareMember(owner *symbol.Symbol, kind symbol.Kind, name string, decl ast.Node) (*symbol.Symbol, bool) {
	sym := c.arena.New(kind, name, decl.ID(), owner)
	decl.SetSymbol(sym.ID)
	if existing, ok := owner.Members.Insert(sym.Index(), sym); !ok {
		c.Report(core.ErrDuplicateName, decl, "%s '%s' is already defined in %s '%s'",
			describeKind(kind), existing.Name, describeKind(owner.Kind), owner.Name)
		return sym, false
	}
	return sym, true
}

// IsRegistered reports whether s is the symbol its container resolves its
// index to. Symbols of duplicate declarations are not registered.
func IsRegistered(s *symbol.Symbol) bool {
	if s == nil || s.Parent == nil {
		return s != nil
	}
	got, ok := s.Parent.Members.Lookup(s.Index())
	return ok && got == s
}

func describeKind(k symbol.Kind) string {
	switch k {
	case symbol.KindEnumField:
		return "enum value"
	case symbol.KindTableGroup:
		return "table group"
	case symbol.KindTableGroupField:
		return "table group member"
	default:
		return strings.ToLower(k.String())
	}
}

func qualified(s *symbol.Symbol) string {
	if schema := s.SchemaName(); schema != "" {
		return fmt.Sprintf("%s.%s", schema, s.Name)
	}
	return s.Name
}
