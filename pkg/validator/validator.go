// Package validator checks a parsed DBML program against the per-kind
// element rules and builds the symbol tables.
//
// Element kinds are registered in a Registry keyed by their type keyword;
// the rule data lives in package validator/elements and the traversal here
// never switches on a concrete kind. Name references are not resolved here:
// they are collected as Unresolved entries for the binder.
package validator

import (
	"log/slog"

	"github.com/leapstack-labs/leapdbml/pkg/ast"
	"github.com/leapstack-labs/leapdbml/pkg/core"
	"github.com/leapstack-labs/leapdbml/pkg/symbol"
)

// Qualifier is one segment of a deferred reference.
type Qualifier struct {
	Index symbol.Index
	Node  ast.Node
}

// Unresolved is a name reference waiting for the binder.
type Unresolved struct {
	// Chain lists the segments, outermost first.
	Chain []Qualifier
	// Owner is the element holding the reference; it selects the starting
	// scope.
	Owner *ast.ElementDeclaration
	// Node is the whole referring expression.
	Node ast.Node
	// Lenient references are dropped silently when they do not resolve.
	Lenient bool
}

// Result is the output of validation.
type Result struct {
	Program    *ast.Program
	Arena      *symbol.Arena
	Unresolved []*Unresolved
}

// Option configures a Validator.
type Option func(*Validator)

// WithLogger sets the logger used for debug output.
func WithLogger(logger *slog.Logger) Option {
	return func(v *Validator) { v.logger = logger }
}

// Validator walks a program and applies element rules.
type Validator struct {
	ctx    *Context
	logger *slog.Logger
	// global counts elements per uniqueness key across the compilation.
	global map[string]bool
}

// New creates a validator drawing symbol ids from ids.
func New(ids *core.IDGenerator, opts ...Option) *Validator {
	v := &Validator{
		ctx:    &Context{arena: symbol.NewArena(ids)},
		global: make(map[string]bool),
	}
	for _, opt := range opts {
		opt(v)
	}
	if v.logger == nil {
		v.logger = slog.New(slog.DiscardHandler)
	}
	return v
}

// Validate checks program and returns the populated symbol arena together
// with the deferred references. Validation always produces a result; rule
// violations are reported as diagnostics.
func Validate(program *ast.Program, ids *core.IDGenerator, opts ...Option) core.Report[*Result] {
	v := New(ids, opts...)
	return v.Run(program)
}

// Run validates program.
func (v *Validator) Run(program *ast.Program) core.Report[*Result] {
	top := &frame{kind: KindProgram, seen: make(map[string]bool)}
	for _, elem := range program.Body {
		v.visitElement(elem, top)
	}
	v.logger.Debug("validated program",
		slog.Int("symbols", v.ctx.arena.Len()),
		slog.Int("unresolved", len(v.ctx.unresolved)),
		slog.Int("diagnostics", len(v.ctx.diagnostics)))

	return core.NewReport(&Result{
		Program:    program,
		Arena:      v.ctx.arena,
		Unresolved: v.ctx.unresolved,
	}, v.ctx.diagnostics)
}

// frame is the traversal state of one element.
type frame struct {
	elem   *ast.ElementDeclaration
	kind   ElementKind
	def    Element
	parent *frame
	// sym is the symbol declared by the element, if any.
	sym *symbol.Symbol
	// seen records the uniqueness keys of nested elements.
	seen map[string]bool
}

func (f *frame) display() string {
	if f.elem == nil {
		return f.kind.Display()
	}
	if f.kind == KindCustom {
		return "'" + f.elem.Keyword() + "'"
	}
	return f.kind.Display()
}

func (v *Validator) visitElement(elem *ast.ElementDeclaration, parent *frame) {
	if elem == nil || elem.Type == nil {
		return
	}
	def, ok := Lookup(elem.Keyword())
	if !ok {
		v.ctx.Report(core.ErrInvalidContext, elem, "unknown element type '%s'", elem.Keyword())
		return
	}
	f := &frame{elem: elem, kind: def.Kind(), def: def, parent: parent, seen: make(map[string]bool)}
	rules := def.Rules()

	if !v.checkContext(f, rules) && rules.Context.Stop {
		return
	}
	if !v.checkUnique(f, rules) && rules.Unique.Stop {
		return
	}
	if !v.checkName(f, rules) && rules.Name.Stop {
		return
	}
	if !v.checkAlias(f, rules) && rules.Alias.Stop {
		return
	}
	settings, ok := v.ctx.checkSettings(elem.Attributes, rules.Settings.Specs, elem, f.display())
	if !ok && rules.Settings.Stop {
		return
	}
	bodyOK := v.checkBody(f, rules)
	if !bodyOK && rules.Body.Stop {
		return
	}
	if bodyOK && rules.Check != nil {
		rules.Check(v.ctx, elem, settings)
	}
	v.visitBody(f, rules)
}

// ---------- Categories ----------

func (v *Validator) checkContext(f *frame, rules *Rules) bool {
	for _, p := range rules.Context.Parents {
		if p == f.parent.kind {
			return true
		}
	}
	if f.kind == KindCustom && f.parent.kind == KindProgram {
		v.ctx.Report(core.ErrInvalidContext, f.elem, "unknown element type '%s'", f.elem.Keyword()).
			Hints = suggest(f.elem.Keyword(), topLevelKeywords())
		return false
	}
	if f.kind == KindCustom {
		v.ctx.Report(core.ErrInvalidContext, f.elem, "unexpected element '%s' inside %s", f.elem.Keyword(), f.parent.display())
		return false
	}
	v.ctx.Report(core.ErrInvalidContext, f.elem, "%s cannot appear inside %s", f.display(), f.parent.display())
	return false
}

func (v *Validator) checkUnique(f *frame, rules *Rules) bool {
	rule := rules.Unique
	key := string(f.kind)
	if rule.ByKeyword {
		key += ":" + f.elem.Keyword()
	}
	switch rule.Scope {
	case UniqueGlobal:
		if v.global[key] {
			v.ctx.Report(core.ErrDuplicateElement, f.elem, "only one %s is allowed", f.display())
			return false
		}
		v.global[key] = true
	case UniqueInParent:
		if len(rule.Within) > 0 && !containsKind(rule.Within, f.parent.kind) {
			return true
		}
		if f.parent.seen[key] {
			v.ctx.Report(core.ErrDuplicateElement, f.elem, "%s is already defined in this %s", f.display(), f.parent.display())
			return false
		}
		f.parent.seen[key] = true
	}
	return true
}

func (v *Validator) checkName(f *frame, rules *Rules) bool {
	rule := rules.Name
	elem := f.elem
	if ast.IsNil(elem.Name) {
		if rule.Presence == Required {
			v.ctx.Report(core.ErrMissingName, elem, "%s must have a name", f.display())
			return false
		}
		return true
	}
	if rule.Presence == Forbidden {
		v.ctx.Report(core.ErrUnexpectedName, elem.Name, "%s must not have a name", f.display())
		return false
	}
	vars, ok := ast.VariableChain(elem.Name)
	if !ok {
		v.ctx.Report(core.ErrInvalidName, elem.Name, "invalid %s name", f.display())
		return false
	}
	if len(vars) > 1 && !rule.Qualified {
		v.ctx.Report(core.ErrInvalidName, elem.Name, "%s name must not be schema-qualified", f.display())
		return false
	}
	if rule.Register == 0 {
		return true
	}
	sym, ok := v.ctx.declare(rule.Register, vars, elem)
	f.sym = sym
	return ok
}

func (v *Validator) checkAlias(f *frame, rules *Rules) bool {
	rule := rules.Alias
	elem := f.elem
	if elem.As == nil && ast.IsNil(elem.Alias) {
		return true
	}
	if !rule.Allowed {
		n := elem.Alias
		if ast.IsNil(n) {
			v.ctx.Report(core.ErrUnexpectedAlias, elem, "%s must not have an alias", f.display())
		} else {
			v.ctx.Report(core.ErrUnexpectedAlias, n, "%s must not have an alias", f.display())
		}
		return false
	}
	alias, ok := ast.AsVariable(elem.Alias)
	if !ok {
		if ast.IsNil(elem.Alias) {
			v.ctx.Report(core.ErrInvalidAlias, elem, "missing alias after 'as'")
		} else {
			v.ctx.Report(core.ErrInvalidAlias, elem.Alias, "alias must be a simple name")
		}
		return false
	}
	if !rule.Register || f.sym == nil || !IsRegistered(f.sym) {
		return true
	}
	idx := symbol.Index{Kind: f.sym.Kind, Name: alias.Name()}
	if existing, ok := v.ctx.arena.Root().Members.Insert(idx, f.sym); !ok && existing != f.sym {
		v.ctx.Report(core.ErrDuplicateAlias, alias, "alias '%s' is already used by %s", alias.Name(), qualified(existing))
		return false
	}
	return true
}

func (v *Validator) checkBody(f *frame, rules *Rules) bool {
	rule := rules.Body
	elem := f.elem
	if ast.IsNil(elem.Body) {
		// the parser has already reported the missing body
		return false
	}
	if elem.IsSimple() {
		if !rule.Simple {
			v.ctx.Report(core.ErrInvalidBody, elem.Body, "%s must have a block body", f.display())
			return false
		}
		if rule.ValidateSimple != nil {
			return rule.ValidateSimple(v.ctx, elem, elem.Body)
		}
		return true
	}
	if !rule.Complex {
		v.ctx.Report(core.ErrInvalidBody, elem.Body, "%s must have a simple body introduced by ':'", f.display())
		return false
	}
	return true
}

// ---------- Body ----------

func (v *Validator) visitBody(f *frame, rules *Rules) {
	block := f.elem.Block()
	if block == nil {
		return
	}
	for _, item := range block.Body {
		if child, ok := item.(*ast.ElementDeclaration); ok {
			v.visitElement(child, f)
			continue
		}
		if !rules.Subfield.Allowed {
			v.ctx.Report(core.ErrInvalidSubfield, item, "%s does not accept fields", f.display())
			continue
		}
		if !v.visitSubfield(f, rules, item) && rules.Subfield.Stop {
			return
		}
	}
}

func (v *Validator) visitSubfield(f *frame, rules *Rules, item ast.Node) bool {
	rule := rules.Subfield
	sf := NewSubfield(item)

	required := 0
	for _, a := range rule.Args {
		if !a.Optional {
			required++
		}
	}
	if len(sf.Args) < required || len(sf.Args) > len(rule.Args) {
		v.ctx.Report(core.ErrInvalidSubfield, item, "invalid %s field: expected %s", f.display(), argSummary(rule.Args))
		return false
	}
	ok := true
	for i, arg := range sf.Args {
		if spec := rule.Args[i]; spec.Validate != nil && !spec.Validate(arg) {
			v.ctx.Report(core.ErrInvalidSubfield, arg, "invalid %s: expected %s", spec.Name, spec.Expect)
			ok = false
		}
	}
	if !ok {
		return false
	}

	if rule.Register != 0 && f.sym != nil {
		name, named := subfieldName(rule, sf)
		if named {
			if _, declared := v.ctx.declareMember(f.sym, rule.Register, name, item); !declared {
				ok = false
			}
		}
	}
	settings, settingsOK := v.ctx.checkSettings(sf.Settings, rule.Settings, f.elem, f.display()+" field")
	if !settingsOK {
		ok = false
	}
	if rule.Defer != nil {
		rule.Defer(v.ctx, f.elem, sf)
	}
	if rule.Check != nil && !rule.Check(v.ctx, f.elem, sf, settings) {
		ok = false
	}
	return ok
}

func subfieldName(rule SubfieldRule, sf *Subfield) (string, bool) {
	if rule.RegisterName != nil {
		return rule.RegisterName(sf)
	}
	if len(sf.Args) == 0 {
		return "", false
	}
	v, ok := ast.AsVariable(sf.Args[0])
	if !ok {
		return "", false
	}
	return v.Name(), true
}

func argSummary(args []ArgRule) string {
	out := ""
	for i, a := range args {
		if i > 0 {
			out += " "
		}
		if a.Optional {
			out += "[" + a.Name + "]"
		} else {
			out += "<" + a.Name + ">"
		}
	}
	return out
}

func containsKind(kinds []ElementKind, k ElementKind) bool {
	for _, c := range kinds {
		if c == k {
			return true
		}
	}
	return false
}

func topLevelKeywords() []string {
	var out []string
	for _, kw := range Keywords() {
		if e, ok := Lookup(kw); ok && containsKind(e.Rules().Context.Parents, KindProgram) {
			out = append(out, kw)
		}
	}
	return out
}
