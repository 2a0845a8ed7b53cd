package interpreter

import (
	"strings"

	"github.com/leapstack-labs/leapdbml/pkg/ast"
	"github.com/leapstack-labs/leapdbml/pkg/core"
	"github.com/leapstack-labs/leapdbml/pkg/model"
	"github.com/leapstack-labs/leapdbml/pkg/symbol"
	"github.com/leapstack-labs/leapdbml/pkg/token"
	"github.com/leapstack-labs/leapdbml/pkg/validator"
	"github.com/leapstack-labs/leapdbml/pkg/validator/elements"
)

func (in *Interpreter) table(elem *ast.ElementDeclaration) {
	sym, ok := in.declared(elem)
	if !ok {
		return
	}
	t := model.Table{
		Name:        sym.Name,
		Schema:      sym.SchemaName(),
		Note:        settingString(elem.Attributes, "note"),
		HeaderColor: settingColor(elem.Attributes, "headercolor"),
		Columns:     []model.Column{},
	}
	if alias, ok := ast.AsVariable(elem.Alias); ok {
		t.Alias = alias.Name()
		in.db.Aliases = append(in.db.Aliases, model.Alias{Name: t.Alias, Schema: t.Schema, Table: t.Name})
	}

	// refs are emitted after the table so they follow it in the output
	var nested []*ast.ElementDeclaration
	for _, item := range blockItems(elem) {
		if child, ok := item.(*ast.ElementDeclaration); ok {
			switch kindOf(child) {
			case validator.KindNote:
				t.Note = noteContent(child)
			case validator.KindIndexes:
				t.Indexes = append(t.Indexes, in.indexes(child)...)
			case validator.KindRef:
				nested = append(nested, child)
			}
			continue
		}
		if col, ok := in.column(sym, item); ok {
			t.Columns = append(t.Columns, col)
		}
	}
	in.db.Tables = append(in.db.Tables, t)

	for _, item := range blockItems(elem) {
		if _, ok := item.(*ast.ElementDeclaration); ok {
			continue
		}
		in.inlineRefs(sym, item)
	}
	for _, child := range nested {
		in.refElement(child)
	}
}

func blockItems(elem *ast.ElementDeclaration) []ast.Node {
	if block := elem.Block(); block != nil {
		return block.Body
	}
	return nil
}

// ---------- Columns ----------

func (in *Interpreter) column(table *symbol.Symbol, item ast.Node) (model.Column, bool) {
	sym, ok := in.declared(item)
	if !ok || sym.Parent != table {
		return model.Column{}, false
	}
	sf := validator.NewSubfield(item)
	if len(sf.Args) < 2 {
		return model.Column{}, false
	}
	col := model.Column{
		Name: sym.Name,
		Type: in.columnType(sf.Args[1]),
	}
	for _, attr := range attributes(sf.Settings) {
		switch attr.SettingName() {
		case "pk", "primary key":
			col.PrimaryKey = true
		case "unique":
			col.Unique = true
		case "not null":
			col.NotNull = true
		case "null":
			col.NotNull = false
		case "increment":
			col.Increment = true
		case "note":
			col.Note, _ = ast.StringValue(attr.Value)
		case "default":
			if !ast.IsNil(attr.Value) {
				col.Default = in.defaultValue(attr.Value)
			}
		case "check":
			if fn, ok := ast.Unwrap(attr.Value).(*ast.FunctionExpression); ok {
				col.Checks = append(col.Checks, fn.Value.Literal)
			}
		}
	}
	return col, true
}

func (in *Interpreter) columnType(n ast.Node) model.ColumnType {
	var typ model.ColumnType
	name := n
	if call, ok := ast.Unwrap(n).(*ast.CallExpression); ok {
		name = call.Callee
		typ.Args = in.tupleText(call.Args)
	}
	vars, ok := ast.VariableChain(name)
	if !ok {
		typ.Name = in.text(name)
		return typ
	}
	names := ast.ChainNames(vars)
	typ.Name = names[len(names)-1]
	typ.Schema = strings.Join(trimDefaultSchema(names[:len(names)-1]), ".")

	if enum, ok := in.referee(n); ok && enum.Kind == symbol.KindEnum {
		typ.Enum = true
		typ.Name = enum.Name
		typ.Schema = enum.SchemaName()
	}
	return typ
}

// tupleText renders the elements of a tuple separated by commas.
func (in *Interpreter) tupleText(t *ast.TupleExpression) string {
	parts := make([]string, len(t.Elements))
	for i, el := range t.Elements {
		parts[i] = strings.TrimSpace(in.text(el))
	}
	return strings.Join(parts, ",")
}

func trimDefaultSchema(names []string) []string {
	if len(names) > 0 && names[0] == symbol.DefaultSchema {
		return names[1:]
	}
	return names
}

// ---------- Defaults ----------

// defaultValue classifies a default: a boolean keyword, a signed number, a
// string, a backtick expression or an enum value. Anything else is
// reported.
func (in *Interpreter) defaultValue(n ast.Node) *model.DefaultValue {
	switch v := ast.Unwrap(n).(type) {
	case *ast.Literal:
		switch v.Literal.Kind {
		case token.NUMBER:
			return &model.DefaultValue{Kind: model.DefaultNumber, Value: v.Literal.Literal}
		case token.STRING:
			return &model.DefaultValue{Kind: model.DefaultString, Value: v.Literal.Literal}
		}
	case *ast.PrefixExpression:
		if lit, ok := ast.AsLiteral(v.Expression); ok && lit.Literal.Kind == token.NUMBER {
			switch v.Op.Literal {
			case "-":
				return &model.DefaultValue{Kind: model.DefaultNumber, Value: "-" + lit.Literal.Literal}
			case "+":
				return &model.DefaultValue{Kind: model.DefaultNumber, Value: lit.Literal.Literal}
			}
		}
	case *ast.FunctionExpression:
		return &model.DefaultValue{Kind: model.DefaultExpression, Value: v.Value.Literal}
	case *ast.Variable:
		if v.Variable.Kind == token.IDENT {
			switch w := strings.ToLower(v.Name()); w {
			case "true", "false", "null":
				return &model.DefaultValue{Kind: model.DefaultBoolean, Value: w}
			}
		}
	case *ast.InfixExpression:
		if ast.IsMemberAccess(v) {
			return in.enumDefault(n)
		}
	}
	in.report(core.ErrUnsupportedDefault, n, "unsupported default value '%s'", strings.TrimSpace(in.text(n)))
	return nil
}

func (in *Interpreter) enumDefault(n ast.Node) *model.DefaultValue {
	if _, ok := ast.VariableChain(n); !ok {
		in.report(core.ErrUnsupportedQualifier, n, "enum default '%s' must be a chain of names", strings.TrimSpace(in.text(n)))
		return nil
	}
	field, ok := in.referee(n)
	if !ok || field.Kind != symbol.KindEnumField {
		// the binder has reported the unresolved name
		return nil
	}
	return &model.DefaultValue{Kind: model.DefaultEnum, Value: field.Parent.QualifiedName() + "." + field.Name}
}

// ---------- Indexes ----------

func (in *Interpreter) indexes(elem *ast.ElementDeclaration) []model.Index {
	var out []model.Index
	for _, item := range blockItems(elem) {
		if _, ok := item.(*ast.ElementDeclaration); ok {
			continue
		}
		sf := validator.NewSubfield(item)
		if len(sf.Args) != 1 || !elements.IsIndexTarget(sf.Args[0]) {
			continue
		}
		idx := model.Index{
			Name:       settingString(sf.Settings, "name"),
			Unique:     hasFlag(sf.Settings, "unique"),
			PrimaryKey: hasFlag(sf.Settings, "pk"),
			Type:       strings.ToLower(settingWords(sf.Settings, "type")),
			Note:       settingString(sf.Settings, "note"),
		}
		for _, part := range elements.IndexParts(sf.Args[0]) {
			if v, ok := ast.AsVariable(part); ok {
				idx.Parts = append(idx.Parts, model.IndexPart{Kind: model.IndexColumn, Value: v.Name()})
				continue
			}
			if fn, ok := ast.Unwrap(part).(*ast.FunctionExpression); ok {
				idx.Parts = append(idx.Parts, model.IndexPart{Kind: model.IndexExpression, Value: fn.Value.Literal})
			}
		}
		out = append(out, idx)
	}
	return out
}
