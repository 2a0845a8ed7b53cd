// Package binder settles the references the validator deferred.
//
// Each unresolved reference is walked segment by segment: the first
// segment is looked up in the scope selected by its owning element, every
// following segment inside the symbol table of the previous one. Binding
// never declares symbols.
package binder

import (
	"log/slog"
	"strings"

	"github.com/leapstack-labs/leapdbml/pkg/ast"
	"github.com/leapstack-labs/leapdbml/pkg/core"
	"github.com/leapstack-labs/leapdbml/pkg/symbol"
	"github.com/leapstack-labs/leapdbml/pkg/validator"
)

// Option configures a Binder.
type Option func(*Binder)

// WithLogger sets the logger used for debug output.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Binder) { b.logger = logger }
}

// Binder resolves deferred references against a symbol arena.
type Binder struct {
	arena       *symbol.Arena
	logger      *slog.Logger
	diagnostics core.Diagnostics
	bound       int
}

// New creates a binder over arena.
func New(arena *symbol.Arena, opts ...Option) *Binder {
	b := &Binder{arena: arena}
	for _, opt := range opts {
		opt(b)
	}
	if b.logger == nil {
		b.logger = slog.New(slog.DiscardHandler)
	}
	return b
}

// Bind resolves every unresolved reference of result in discovery order.
// A reference that fails to resolve is reported and abandoned without
// affecting the others.
func Bind(result *validator.Result, opts ...Option) core.Report[*validator.Result] {
	b := New(result.Arena, opts...)
	for _, u := range result.Unresolved {
		b.Resolve(u)
	}
	b.logger.Debug("bound references",
		slog.Int("references", len(result.Unresolved)),
		slog.Int("bound", b.bound),
		slog.Int("diagnostics", len(b.diagnostics)))
	return core.NewReport(result, b.diagnostics)
}

// Diagnostics returns the errors reported so far.
func (b *Binder) Diagnostics() core.Diagnostics {
	return b.diagnostics
}

// Resolve binds one reference and returns its target symbol.
func (b *Binder) Resolve(u *validator.Unresolved) (*symbol.Symbol, bool) {
	container, ok := b.startScope(u.Owner)
	if !ok {
		return nil, false
	}

	chain := u.Chain
	if len(chain) > 1 && container == b.arena.Root() && isDefaultSchema(chain[0]) {
		// `public.x` names the root unless a schema called public exists
		if _, exists := container.Members.Lookup(chain[0].Index); !exists {
			b.link(chain[0].Node, container)
			chain = chain[1:]
		}
	}

	var target *symbol.Symbol
	for i, q := range chain {
		if container.Members == nil {
			if !u.Lenient {
				b.report(core.ErrNotAContainer, q.Node, "%s '%s' has no members", kindName(container.Kind), container.Name)
			}
			return nil, false
		}
		sym, found := container.Members.Lookup(q.Index)
		if !found {
			if !u.Lenient {
				b.notFound(q, container)
			}
			return nil, false
		}
		switch {
		case i < len(chain)-1:
			b.link(q.Node, sym)
		case q.Node != u.Node:
			b.setReferee(q.Node, sym)
		}
		container = sym
		target = sym
	}

	if target != nil {
		b.link(u.Node, target)
		b.bound++
	}
	return target, target != nil
}

// startScope picks the table the first segment is looked up in.
func (b *Binder) startScope(owner *ast.ElementDeclaration) (*symbol.Symbol, bool) {
	if owner == nil {
		return b.arena.Root(), true
	}
	def, ok := validator.Lookup(owner.Keyword())
	if !ok || def.Rules().ReferenceScope == validator.ScopeRoot {
		return b.arena.Root(), true
	}
	// ScopeEnclosingTable
	parent := owner.Parent
	if parent == nil || parent.Symbol() == 0 {
		return nil, false
	}
	return b.arena.Get(parent.Symbol())
}

// link points node at sym and records the reference. A node already bound
// to sym is left alone, so shared prefixes of composite references are
// recorded once.
func (b *Binder) link(node ast.Node, sym *symbol.Symbol) {
	if b.setReferee(node, sym) {
		sym.AddReference(node.ID())
	}
}

func (b *Binder) setReferee(node ast.Node, sym *symbol.Symbol) bool {
	if ast.IsNil(node) {
		return false
	}
	if node.Referee() == sym.ID {
		return false
	}
	if !node.SetReferee(sym.ID) {
		b.logger.Debug("node already bound",
			slog.Int("node", int(node.ID())),
			slog.Int("referee", int(node.Referee())),
			slog.Int("symbol", int(sym.ID)))
		return false
	}
	return true
}

func (b *Binder) notFound(q validator.Qualifier, container *symbol.Symbol) {
	var where string
	if container == b.arena.Root() {
		where = "the default schema"
	} else {
		where = kindName(container.Kind) + " '" + container.QualifiedName() + "'"
	}
	d := b.report(core.ErrBindingNotFound, q.Node, "%s '%s' not found in %s", kindName(q.Index.Kind), q.Index.Name, where)
	d.Hints = validator.Suggest(q.Index.Name, container.Members.Names(q.Index.Kind))
}

func (b *Binder) report(code core.ErrorCode, node ast.Node, format string, args ...any) *core.Diagnostic {
	d := core.NodeDiagnostic(code, node.ID(), node.Span(), format, args...)
	b.diagnostics = append(b.diagnostics, d)
	return d
}

func isDefaultSchema(q validator.Qualifier) bool {
	return q.Index.Kind == symbol.KindSchema && q.Index.Name == symbol.DefaultSchema
}

func kindName(k symbol.Kind) string {
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
