package interpreter

import (
	"strings"

	"github.com/leapstack-labs/leapdbml/pkg/ast"
	"github.com/leapstack-labs/leapdbml/pkg/model"
	"github.com/leapstack-labs/leapdbml/pkg/symbol"
	"github.com/leapstack-labs/leapdbml/pkg/validator"
)

func (in *Interpreter) enum(elem *ast.ElementDeclaration) {
	sym, ok := in.declared(elem)
	if !ok {
		return
	}
	e := model.Enum{Name: sym.Name, Schema: sym.SchemaName(), Values: []model.EnumValue{}}
	for _, item := range blockItems(elem) {
		field, ok := in.declared(item)
		if !ok || field.Parent != sym {
			continue
		}
		sf := validator.NewSubfield(item)
		e.Values = append(e.Values, model.EnumValue{
			Name: field.Name,
			Note: settingString(sf.Settings, "note"),
		})
	}
	in.db.Enums = append(in.db.Enums, e)
}

func (in *Interpreter) tableGroup(elem *ast.ElementDeclaration) {
	sym, ok := in.declared(elem)
	if !ok {
		return
	}
	g := model.TableGroup{
		Name:   sym.Name,
		Schema: sym.SchemaName(),
		Color:  settingColor(elem.Attributes, "color"),
		Note:   settingString(elem.Attributes, "note"),
		Tables: []model.TableToken{},
	}
	for _, item := range blockItems(elem) {
		if child, ok := item.(*ast.ElementDeclaration); ok {
			if kindOf(child) == validator.KindNote {
				g.Note = noteContent(child)
			}
			continue
		}
		if _, ok := in.declared(item); !ok {
			continue
		}
		sf := validator.NewSubfield(item)
		table, ok := in.referee(sf.Args[0])
		if !ok || table.Kind != symbol.KindTable {
			continue
		}
		g.Tables = append(g.Tables, model.TableToken{Schema: table.SchemaName(), Name: table.Name})
	}
	in.db.TableGroups = append(in.db.TableGroups, g)
}

// stickyNote lowers a named top-level Note.
func (in *Interpreter) stickyNote(elem *ast.ElementDeclaration) {
	name, ok := ast.QualifiedName(elem.Name)
	if !ok || ast.IsNil(elem.Name) {
		return
	}
	in.db.Notes = append(in.db.Notes, model.StickyNote{
		Name:        name,
		Content:     noteContent(elem),
		HeaderColor: settingColor(elem.Attributes, "headercolor"),
	})
}

// project records the project block and splices its elements into the
// top-level collections.
func (in *Interpreter) project(elem *ast.ElementDeclaration) {
	p := &model.Project{}
	if name, ok := ast.QualifiedName(elem.Name); ok && !ast.IsNil(elem.Name) {
		p.Name = name
	}
	in.db.Project = p

	for _, item := range blockItems(elem) {
		child, ok := item.(*ast.ElementDeclaration)
		if !ok {
			continue
		}
		switch kindOf(child) {
		case validator.KindNote:
			p.Note = noteContent(child)
		case validator.KindCustom:
			if !child.IsSimple() || ast.IsNil(child.Body) {
				continue
			}
			value := in.fieldValue(child.Body)
			p.Fields = append(p.Fields, model.Field{Key: child.Keyword(), Value: value})
			if strings.EqualFold(child.Keyword(), "database_type") {
				p.DatabaseType = value
			}
		case validator.KindTable, validator.KindEnum, validator.KindRef, validator.KindTableGroup:
			in.element(child)
		}
	}
}

// fieldValue returns a string value unquoted and anything else verbatim.
func (in *Interpreter) fieldValue(n ast.Node) string {
	if s, ok := ast.StringValue(n); ok {
		return s
	}
	return strings.TrimSpace(in.text(n))
}
