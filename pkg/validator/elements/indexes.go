package elements

import (
	"github.com/leapstack-labs/leapdbml/pkg/ast"
	"github.com/leapstack-labs/leapdbml/pkg/core"
	"github.com/leapstack-labs/leapdbml/pkg/symbol"
	"github.com/leapstack-labs/leapdbml/pkg/validator"
)

// Indexes declares the indexes of the enclosing table.
var Indexes = &validator.Def{
	ElementKind: validator.KindIndexes,
	Words:       []string{"indexes"},
	RuleSet: &validator.Rules{
		Context: validator.ContextRule{
			Parents: []validator.ElementKind{validator.KindTable},
			Stop:    true,
		},
		Unique: validator.UniqueRule{Scope: validator.UniqueInParent, Stop: true},
		Body:   validator.BodyRule{Complex: true, Stop: true},
		Subfield: validator.SubfieldRule{
			Allowed: true,
			Args: []validator.ArgRule{{
				Name:     "index",
				Expect:   "a column, a backtick expression or a tuple of them",
				Validate: IsIndexTarget,
			}},
			Settings: IndexSettings,
			Defer:    deferIndexColumns,
			Check:    checkIndex,
		},
		ReferenceScope: validator.ScopeEnclosingTable,
	},
}

// IndexSettings are the settings of one index.
var IndexSettings = validator.SettingSpecs{
	{Name: "unique"},
	{Name: "pk"},
	{Name: "name", Value: validator.IsString, Expect: "a string"},
	{Name: "type", Value: validator.OneOf("btree", "hash"), Expect: "btree or hash"},
	noteSetting,
}

// IndexParts returns the columns and expressions of an index target.
func IndexParts(n ast.Node) []ast.Node {
	if tuple, ok := ast.Unwrap(n).(*ast.TupleExpression); ok {
		return tuple.Elements
	}
	return []ast.Node{n}
}

// IsIndexTarget accepts a column name, a backtick expression or a tuple
// mixing both.
func IsIndexTarget(n ast.Node) bool {
	parts := IndexParts(n)
	if len(parts) == 0 {
		return false
	}
	for _, p := range parts {
		if !validator.IsName(p) && !validator.IsFunction(p) {
			return false
		}
	}
	return true
}

func deferIndexColumns(c *validator.Context, owner *ast.ElementDeclaration, f *validator.Subfield) {
	for _, p := range IndexParts(f.Args[0]) {
		if v, ok := ast.AsVariable(p); ok {
			c.DeferChain(owner, v, []*ast.Variable{v}, false, symbol.KindColumn)
		}
	}
}

func checkIndex(c *validator.Context, _ *ast.ElementDeclaration, f *validator.Subfield, settings validator.Settings) bool {
	if attr, ok := settings.First("pk"); ok && settings.Has("unique") {
		c.Report(core.ErrConflictingSettings, attr, "settings 'pk' and 'unique' cannot be combined")
		return false
	}
	return true
}
