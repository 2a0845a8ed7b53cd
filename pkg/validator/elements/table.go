package elements

import (
	"github.com/leapstack-labs/leapdbml/pkg/ast"
	"github.com/leapstack-labs/leapdbml/pkg/core"
	"github.com/leapstack-labs/leapdbml/pkg/symbol"
	"github.com/leapstack-labs/leapdbml/pkg/validator"
)

// Table declares a table and its columns.
var Table = &validator.Def{
	ElementKind: validator.KindTable,
	Words:       []string{"table"},
	RuleSet: &validator.Rules{
		Context: validator.ContextRule{
			Parents: []validator.ElementKind{validator.KindProgram, validator.KindProject},
			Stop:    true,
		},
		Name: validator.NameRule{
			Presence:  validator.Required,
			Qualified: true,
			Register:  symbol.KindTable,
		},
		Alias: validator.AliasRule{Allowed: true, Register: true},
		Settings: validator.SettingsRule{
			Specs: validator.SettingSpecs{headerColorSetting, noteSetting},
		},
		Body: validator.BodyRule{Complex: true, Stop: true},
		Subfield: validator.SubfieldRule{
			Allowed: true,
			Args: []validator.ArgRule{
				{Name: "column name", Expect: "a name", Validate: validator.IsName},
				{Name: "column type", Expect: "a type like int, varchar(255) or schema.enum", Validate: validator.IsColumnType},
			},
			Settings: ColumnSettings,
			Register: symbol.KindColumn,
			Defer:    deferColumnType,
			Check:    checkColumn,
		},
		Check: func(c *validator.Context, elem *ast.ElementDeclaration, _ validator.Settings) bool {
			if countFields(elem) == 0 {
				c.Report(core.ErrEmptyBody, elem, "Table must have at least one column")
				return false
			}
			return true
		},
	},
}

// ColumnSettings are the settings accepted after a column definition.
var ColumnSettings = validator.SettingSpecs{
	{Name: "pk", Aliases: []string{"primary key"}},
	{Name: "null"},
	{Name: "not null"},
	{Name: "unique"},
	{Name: "increment"},
	noteSetting,
	{Name: "default", Value: validator.Any, Expect: "a value", Defer: deferEnumDefault},
	{Name: "ref", Value: IsInlineRef, Expect: "a relationship like '> table.column'", Repeatable: true, Defer: deferInlineRef},
	{Name: "check", Value: validator.IsFunction, Expect: "a backtick expression", Repeatable: true},
}

// IsInlineRef accepts `<op> table.column` with a single column.
func IsInlineRef(n ast.Node) bool {
	prefix, ok := ast.Unwrap(n).(*ast.PrefixExpression)
	if !ok || !validator.IsRelationOp(prefix.Op) || ast.IsNil(prefix.Expression) {
		return false
	}
	ep, ok := validator.ParseEndpoint(prefix.Expression)
	return ok && !ep.Composite()
}

func deferInlineRef(c *validator.Context, owner *ast.ElementDeclaration, attr *ast.Attribute) {
	prefix := ast.Unwrap(attr.Value).(*ast.PrefixExpression)
	ep, _ := validator.ParseEndpoint(prefix.Expression)
	deferEndpoint(c, owner, ep)
}

// deferEnumDefault defers `enum.value` defaults.
func deferEnumDefault(c *validator.Context, owner *ast.ElementDeclaration, attr *ast.Attribute) {
	vars, ok := ast.VariableChain(attr.Value)
	if !ok || len(vars) < 2 {
		return
	}
	c.DeferChain(owner, attr.Value, vars, false, symbol.KindEnum, symbol.KindEnumField)
}

// deferColumnType defers column types that may name an enum. Built-in
// types do not resolve, so the reference is lenient.
func deferColumnType(c *validator.Context, owner *ast.ElementDeclaration, f *validator.Subfield) {
	if len(f.Args) < 2 {
		return
	}
	vars, ok := ast.VariableChain(f.Args[1])
	if !ok {
		return
	}
	c.DeferChain(owner, f.Args[1], vars, true, symbol.KindEnum)
}

var conflictingColumnSettings = [][2]string{
	{"null", "not null"},
	{"pk", "null"},
}

func checkColumn(c *validator.Context, _ *ast.ElementDeclaration, f *validator.Subfield, settings validator.Settings) bool {
	ok := true
	for _, pair := range conflictingColumnSettings {
		if settings.Has(pair[0]) && settings.Has(pair[1]) {
			attr, _ := settings.First(pair[1])
			c.Report(core.ErrConflictingSettings, attr, "settings '%s' and '%s' cannot be combined", pair[0], pair[1])
			ok = false
		}
	}
	return ok
}

// deferEndpoint defers every column of a relationship endpoint.
func deferEndpoint(c *validator.Context, owner *ast.ElementDeclaration, ep *validator.Endpoint) {
	for _, col := range ep.Columns {
		vars := make([]*ast.Variable, 0, len(ep.Table)+1)
		vars = append(vars, ep.Table...)
		vars = append(vars, col)
		node := ast.Node(col)
		if !ep.Composite() {
			node = ep.Node
		}
		c.DeferChain(owner, node, vars, false, symbol.KindTable, symbol.KindColumn)
	}
}
