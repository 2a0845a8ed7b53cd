package validator

import (
	"github.com/leapstack-labs/leapdbml/pkg/ast"
	"github.com/leapstack-labs/leapdbml/pkg/symbol"
)

// ElementKind names a kind of element declaration.
type ElementKind string

// Element kinds. KindProgram stands for the top level.
const (
	KindProgram    ElementKind = "program"
	KindTable      ElementKind = "table"
	KindEnum       ElementKind = "enum"
	KindRef        ElementKind = "ref"
	KindNote       ElementKind = "note"
	KindIndexes    ElementKind = "indexes"
	KindTableGroup ElementKind = "tablegroup"
	KindProject    ElementKind = "project"
	KindCustom     ElementKind = "custom"
)

// Display returns the name used in messages.
func (k ElementKind) Display() string {
	switch k {
	case KindProgram:
		return "the top level"
	case KindTableGroup:
		return "TableGroup"
	case KindIndexes:
		return "Indexes"
	default:
		if k == "" {
			return ""
		}
		return string(k[0]-'a'+'A') + string(k[1:])
	}
}

// Element is the rule configuration of one element kind.
type Element interface {
	// Kind returns the element kind.
	Kind() ElementKind
	// Keywords returns the lower-case type keywords selecting this kind.
	Keywords() []string
	// Rules returns the declarative rule set.
	Rules() *Rules
}

// Rules is the declarative rule set of an element kind. Categories run in
// field order; a failing category with Stop set skips the rest of the
// element.
type Rules struct {
	Context  ContextRule
	Unique   UniqueRule
	Name     NameRule
	Alias    AliasRule
	Settings SettingsRule
	Body     BodyRule
	Subfield SubfieldRule

	// Check runs kind-specific checks once the header and body shape are
	// known to be valid.
	Check func(c *Context, elem *ast.ElementDeclaration, settings Settings) bool

	// ReferenceScope selects where references owned by this element start
	// resolving.
	ReferenceScope Scope
}

// Scope selects the starting symbol table for deferred references.
type Scope int

// Reference scopes.
const (
	// ScopeRoot starts at the public schema.
	ScopeRoot Scope = iota
	// ScopeEnclosingTable starts at the members of the enclosing Table.
	ScopeEnclosingTable
)

// ContextRule restricts where an element may appear.
type ContextRule struct {
	Parents []ElementKind
	Stop    bool
}

// Uniqueness is the uniqueness policy of an element kind.
type Uniqueness int

// Uniqueness policies.
const (
	UniqueNone Uniqueness = iota
	// UniqueGlobal allows one element of the kind per compilation.
	UniqueGlobal
	// UniqueInParent allows one element of the kind per enclosing element.
	UniqueInParent
)

// UniqueRule limits repetition of an element kind.
type UniqueRule struct {
	Scope Uniqueness
	// Within restricts UniqueInParent to these parent kinds; empty means all.
	Within []ElementKind
	// ByKeyword keys uniqueness by the element keyword instead of the kind.
	ByKeyword bool
	Stop      bool
}

// Presence says whether a header part may or must appear.
type Presence int

// Presence values.
const (
	Forbidden Presence = iota
	Optional
	Required
)

// NameRule describes the element name.
type NameRule struct {
	Presence  Presence
	Qualified bool
	// Register is the symbol kind the name declares; zero for none.
	Register symbol.Kind
	Stop     bool
}

// AliasRule describes the `as alias` part.
type AliasRule struct {
	Allowed bool
	// Register adds the alias to the root schema next to the name.
	Register bool
	Stop     bool
}

// SettingsRule describes the header settings list. A nil Specs forbids the
// list.
type SettingsRule struct {
	Specs SettingSpecs
	Stop  bool
}

// BodyRule describes the body shape.
type BodyRule struct {
	Simple  bool
	Complex bool
	// ValidateSimple checks a colon-introduced body.
	ValidateSimple func(c *Context, elem *ast.ElementDeclaration, body ast.Node) bool
	Stop           bool
}

// ArgRule validates one positional argument of a subfield.
type ArgRule struct {
	Name     string
	Expect   string
	Optional bool
	Validate func(ast.Node) bool
}

// SubfieldRule describes the non-element lines of a complex body.
type SubfieldRule struct {
	Allowed bool
	Args    []ArgRule
	// Settings are the per-subfield settings; nil forbids a list.
	Settings SettingSpecs
	// Register is the symbol kind the leading argument declares in the
	// element's own table; zero for none.
	Register symbol.Kind
	// RegisterName overrides the registered name, e.g. for qualified
	// table-group members.
	RegisterName func(f *Subfield) (string, bool)
	// Defer records name references held by the subfield.
	Defer func(c *Context, owner *ast.ElementDeclaration, f *Subfield)
	Check func(c *Context, owner *ast.ElementDeclaration, f *Subfield, settings Settings) bool
	Stop  bool
}

// Def is a declarative Element.
type Def struct {
	ElementKind ElementKind
	Words       []string
	RuleSet     *Rules
}

// Kind implements Element.
func (d *Def) Kind() ElementKind { return d.ElementKind }

// Keywords implements Element.
func (d *Def) Keywords() []string { return d.Words }

// Rules implements Element.
func (d *Def) Rules() *Rules { return d.RuleSet }
