// Package format prints a database model back as canonical DBML.
//
// The output is deterministic: elements are written in model order with
// two-space indentation, names are quoted only when needed and strings
// use single quotes with escapes. Comments and the original layout are
// not preserved.
package format

import (
	"strings"

	"github.com/leapstack-labs/leapdbml/pkg/model"
)

// Database formats db as DBML source.
func Database(db *model.Database) string {
	p := newPrinter()
	if db == nil {
		return p.String()
	}

	inline := inlineRefs(db)
	var blocks []func()
	if db.Project != nil {
		blocks = append(blocks, func() { p.formatProject(db.Project) })
	}
	for i := range db.Enums {
		blocks = append(blocks, func() { p.formatEnum(db.Enums[i]) })
	}
	for i := range db.Tables {
		blocks = append(blocks, func() { p.formatTable(db.Tables[i], inline) })
	}
	for _, ref := range db.Refs {
		if canInline(ref) {
			continue
		}
		blocks = append(blocks, func() { p.formatRef(ref) })
	}
	for i := range db.TableGroups {
		blocks = append(blocks, func() { p.formatTableGroup(db.TableGroups[i]) })
	}
	for i := range db.Notes {
		blocks = append(blocks, func() { p.formatStickyNote(db.Notes[i]) })
	}

	p.formatList(len(blocks), func(i int) { blocks[i]() }, "", true)
	return p.String()
}

// ---------- Elements ----------

func (p *Printer) formatProject(proj *model.Project) {
	header := "Project"
	if proj.Name != "" {
		header += " " + Name(proj.Name)
	}
	p.open(header)
	for _, f := range proj.Fields {
		p.line(f.Key + ": " + String(f.Value))
	}
	if proj.Note != "" {
		p.line("Note: " + String(proj.Note))
	}
	p.close()
}

func (p *Printer) formatEnum(e model.Enum) {
	p.open("Enum " + QualifiedName(e.Schema, e.Name))
	for _, v := range e.Values {
		p.write(Name(v.Name))
		if v.Note != "" {
			p.settings([]string{"note: " + String(v.Note)})
		}
		p.writeln()
	}
	p.close()
}

func (p *Printer) formatTable(t model.Table, inline inlineIndex) {
	header := "Table " + QualifiedName(t.Schema, t.Name)
	if t.Alias != "" {
		header += " as " + Name(t.Alias)
	}
	p.write(header)
	if t.HeaderColor != "" {
		p.settings([]string{"headercolor: " + t.HeaderColor})
	}
	p.space()
	p.write("{")
	p.writeln()
	p.indent()

	for _, c := range t.Columns {
		p.write(Name(c.Name) + " " + ColumnType(c.Type))
		p.settings(columnSettings(c, inline.forColumn(t.QualifiedName(), c.Name)))
		p.writeln()
	}

	if len(t.Indexes) > 0 {
		p.writeln()
		p.open("indexes")
		for _, idx := range t.Indexes {
			p.write(indexTarget(idx))
			p.settings(indexSettings(idx))
			p.writeln()
		}
		p.close()
	}

	if t.Note != "" {
		p.writeln()
		p.line("Note: " + String(t.Note))
	}
	p.close()
}

func (p *Printer) formatRef(ref model.Ref) {
	header := "Ref"
	if ref.Name != "" {
		header += " " + QualifiedName(ref.Schema, ref.Name)
	}
	p.write(header + ": " + Endpoint(ref.Endpoints[0]) + " " + RelationOp(ref) + " " + Endpoint(ref.Endpoints[1]))
	p.settings(refSettings(ref))
	p.writeln()
}

func (p *Printer) formatTableGroup(g model.TableGroup) {
	p.write("TableGroup " + QualifiedName(g.Schema, g.Name))
	if g.Color != "" {
		p.settings([]string{"color: " + g.Color})
	}
	p.space()
	p.write("{")
	p.writeln()
	p.indent()
	for _, t := range g.Tables {
		p.line(QualifiedName(t.Schema, t.Name))
	}
	if g.Note != "" {
		p.writeln()
		p.line("Note: " + String(g.Note))
	}
	p.close()
}

func (p *Printer) formatStickyNote(n model.StickyNote) {
	p.write("Note " + Name(n.Name))
	if n.HeaderColor != "" {
		p.settings([]string{"headercolor: " + n.HeaderColor})
	}
	p.space()
	p.write("{")
	p.writeln()
	p.indent()
	p.line(String(n.Content))
	p.close()
}

// ---------- Settings ----------

func columnSettings(c model.Column, refs []string) []string {
	var out []string
	if c.PrimaryKey {
		out = append(out, "pk")
	}
	if c.Unique {
		out = append(out, "unique")
	}
	if c.NotNull {
		out = append(out, "not null")
	}
	if c.Increment {
		out = append(out, "increment")
	}
	if c.Default != nil {
		out = append(out, "default: "+DefaultValue(*c.Default))
	}
	for _, r := range refs {
		out = append(out, "ref: "+r)
	}
	for _, check := range c.Checks {
		out = append(out, "check: "+Expression(check))
	}
	if c.Note != "" {
		out = append(out, "note: "+String(c.Note))
	}
	return out
}

func indexTarget(idx model.Index) string {
	parts := make([]string, len(idx.Parts))
	for i, part := range idx.Parts {
		if part.Kind == model.IndexExpression {
			parts[i] = Expression(part.Value)
		} else {
			parts[i] = Name(part.Value)
		}
	}
	if len(parts) == 1 {
		return parts[0]
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

func indexSettings(idx model.Index) []string {
	var out []string
	if idx.PrimaryKey {
		out = append(out, "pk")
	}
	if idx.Unique {
		out = append(out, "unique")
	}
	if idx.Name != "" {
		out = append(out, "name: "+String(idx.Name))
	}
	if idx.Type != "" {
		out = append(out, "type: "+idx.Type)
	}
	if idx.Note != "" {
		out = append(out, "note: "+String(idx.Note))
	}
	return out
}

func refSettings(ref model.Ref) []string {
	var out []string
	if ref.OnDelete != "" {
		out = append(out, "delete: "+ref.OnDelete)
	}
	if ref.OnUpdate != "" {
		out = append(out, "update: "+ref.OnUpdate)
	}
	if ref.Color != "" {
		out = append(out, "color: "+ref.Color)
	}
	return out
}

// ---------- Inline refs ----------

type columnKey struct {
	table  string
	column string
}

// inlineIndex maps columns to the inline refs written in their settings.
type inlineIndex struct {
	byColumn map[columnKey][]string
}

// inlineRefs collects refs that can be written back as column settings:
// refs declared inline with single-column endpoints, no name and no
// settings.
func inlineRefs(db *model.Database) inlineIndex {
	idx := inlineIndex{byColumn: make(map[columnKey][]string)}
	for _, ref := range db.Refs {
		if !canInline(ref) {
			continue
		}
		from := ref.Endpoints[0]
		key := columnKey{table: from.TableName(), column: from.Columns[0]}
		idx.byColumn[key] = append(idx.byColumn[key], RelationOp(ref)+" "+Endpoint(ref.Endpoints[1]))
	}
	return idx
}

func canInline(ref model.Ref) bool {
	return ref.Inline && ref.Name == "" && ref.OnDelete == "" && ref.OnUpdate == "" && ref.Color == "" &&
		len(ref.Endpoints[0].Columns) == 1 && len(ref.Endpoints[1].Columns) == 1
}

func (x inlineIndex) forColumn(table, column string) []string {
	return x.byColumn[columnKey{table: table, column: column}]
}
