package lsp

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/leapdbml/internal/provider"
	"github.com/leapstack-labs/leapdbml/pkg/ast"
	"github.com/leapstack-labs/leapdbml/pkg/model"
	"github.com/leapstack-labs/leapdbml/pkg/symbol"
	"github.com/leapstack-labs/leapdbml/pkg/token"
	"github.com/leapstack-labs/leapdbml/pkg/validator"
)

// target is the symbol under the cursor and the span naming it.
type target struct {
	sym  *symbol.Symbol
	span token.Span
	decl bool
}

// ---------- Resolution ----------

// symbolAt resolves the symbol at pos. A position just past a name still
// resolves, so a cursor at the end of an identifier works.
func (s *Server) symbolAt(uri string, pos Position) (*Document, *provider.Document, *target) {
	doc, compiled := s.compiled(uri)
	if doc == nil || compiled.Result.Program == nil || compiled.Result.Symbols == nil {
		return doc, compiled, nil
	}
	offset := doc.PositionToOffset(pos)
	if t := resolveAt(compiled, offset); t != nil {
		return doc, compiled, t
	}
	if offset > 0 {
		return doc, compiled, resolveAt(compiled, offset-1)
	}
	return doc, compiled, nil
}

func resolveAt(compiled *provider.Document, offset int) *target {
	res := compiled.Result
	path := nodePath(res.Program, offset)
	for i := len(path) - 1; i >= 0; i-- {
		n := path[i]
		if id := n.Referee(); id != 0 {
			if sym, ok := res.Symbols.Get(id); ok {
				return &target{sym: sym, span: n.Span()}
			}
		}
		if id := n.Symbol(); id != 0 {
			sym, ok := res.Symbols.Get(id)
			if !ok {
				continue
			}
			if t := declarationTarget(n, sym, offset); t != nil {
				return t
			}
		}
	}
	return nil
}

// nodePath returns the nodes covering offset, outermost first.
func nodePath(root ast.Node, offset int) []ast.Node {
	var path []ast.Node
	ast.Inspect(root, func(n ast.Node) bool {
		if !n.Span().Contains(offset) {
			return false
		}
		path = append(path, n)
		return true
	})
	return path
}

// declarationTarget matches offset against the name of a declaring node.
// Leading schema segments of a qualified element name resolve to the
// schema symbols they create.
func declarationTarget(n ast.Node, sym *symbol.Symbol, offset int) *target {
	elem, ok := n.(*ast.ElementDeclaration)
	if !ok {
		span := declSpan(n)
		if span.Contains(offset) {
			return &target{sym: sym, span: span, decl: true}
		}
		return nil
	}
	if ast.IsNil(elem.Name) {
		if elem.Type != nil && elem.Type.Span.Contains(offset) {
			return &target{sym: sym, span: elem.Type.Span, decl: true}
		}
		return nil
	}
	vars, ok := ast.VariableChain(elem.Name)
	if !ok || len(vars) == 0 {
		if elem.Name.Span().Contains(offset) {
			return &target{sym: sym, span: elem.Name.Span(), decl: true}
		}
		return nil
	}
	for i, v := range vars {
		if !v.Span().Contains(offset) {
			continue
		}
		cur := sym
		for range len(vars) - 1 - i {
			if cur == nil {
				break
			}
			cur = cur.Parent
		}
		if cur == nil || cur.Parent == nil {
			return nil
		}
		return &target{sym: cur, span: v.Span(), decl: cur == sym}
	}
	return nil
}

// declSpan returns the span of the name a declaring node introduces.
func declSpan(n ast.Node) token.Span {
	if elem, ok := n.(*ast.ElementDeclaration); ok {
		if !ast.IsNil(elem.Name) {
			return elem.Name.Span()
		}
		if elem.Type != nil {
			return elem.Type.Span
		}
		return elem.Span()
	}
	sf := validator.NewSubfield(n)
	if len(sf.Args) > 0 && !ast.IsNil(sf.Args[0]) {
		return sf.Args[0].Span()
	}
	return n.Span()
}

// ---------- Definition & references ----------

func (s *Server) getDefinition(params DefinitionParams) []Location {
	doc, compiled, t := s.symbolAt(params.TextDocument.URI, params.Position)
	if t == nil {
		return []Location{}
	}
	loc, ok := declarationLocation(doc, compiled, t.sym)
	if !ok {
		return []Location{}
	}
	return []Location{loc}
}

func (s *Server) getReferences(params ReferenceParams) []Location {
	doc, compiled, t := s.symbolAt(params.TextDocument.URI, params.Position)
	if t == nil {
		return nil
	}
	index := ast.NewIndex(compiled.Result.Program)

	var out []Location
	if params.Context.IncludeDeclaration {
		if loc, ok := declarationLocation(doc, compiled, t.sym); ok {
			out = append(out, loc)
		}
	}
	for _, id := range t.sym.References {
		n, ok := index.Get(id)
		if !ok {
			continue
		}
		out = append(out, Location{URI: doc.URI, Range: doc.SpanToRange(n.Span())})
	}
	return out
}

func declarationLocation(doc *Document, compiled *provider.Document, sym *symbol.Symbol) (Location, bool) {
	if sym.Declaration == 0 {
		return Location{}, false
	}
	n, ok := ast.NewIndex(compiled.Result.Program).Get(sym.Declaration)
	if !ok {
		return Location{}, false
	}
	span := n.Span()
	if _, isVar := n.(*ast.Variable); !isVar {
		span = declSpan(n)
	}
	return Location{URI: doc.URI, Range: doc.SpanToRange(span)}, true
}

// ---------- Hover ----------

func (s *Server) getHover(params HoverParams) *Hover {
	doc, compiled, t := s.symbolAt(params.TextDocument.URI, params.Position)
	if t == nil {
		return nil
	}
	rng := doc.SpanToRange(t.span)
	return &Hover{
		Contents: MarkupContent{
			Kind:  MarkupKindMarkdown,
			Value: describeSymbol(t.sym, compiled.Database()),
		},
		Range: &rng,
	}
}

// describeSymbol renders markdown for a symbol, enriched with the
// interpreted model when available.
func describeSymbol(sym *symbol.Symbol, db *model.Database) string {
	var b strings.Builder
	fmt.Fprintf(&b, "**%s** `%s`\n", kindLabel(sym.Kind), displayName(sym))

	if db == nil {
		return b.String()
	}

	switch sym.Kind {
	case symbol.KindTable:
		if tbl, ok := db.Table(sym.QualifiedName()); ok {
			writeTable(&b, tbl)
		}
	case symbol.KindColumn:
		if owner := sym.Container(symbol.KindTable); owner != nil {
			if tbl, ok := db.Table(owner.QualifiedName()); ok {
				if col, ok := tbl.Column(sym.Name); ok {
					writeColumn(&b, col)
				}
			}
		}
	case symbol.KindEnum:
		if e, ok := db.Enum(sym.QualifiedName()); ok {
			b.WriteString("\n")
			for _, v := range e.Values {
				fmt.Fprintf(&b, "- `%s`", v.Name)
				if v.Note != "" {
					fmt.Fprintf(&b, " %s", v.Note)
				}
				b.WriteString("\n")
			}
		}
	case symbol.KindEnumField:
		if owner := sym.Container(symbol.KindEnum); owner != nil {
			if e, ok := db.Enum(owner.QualifiedName()); ok {
				for _, v := range e.Values {
					if v.Name == sym.Name && v.Note != "" {
						fmt.Fprintf(&b, "\n%s\n", v.Note)
					}
				}
			}
		}
	case symbol.KindTableGroup:
		if g, ok := tableGroup(db, sym.QualifiedName()); ok {
			if g.Note != "" {
				fmt.Fprintf(&b, "\n%s\n", g.Note)
			}
			b.WriteString("\n")
			for _, t := range g.Tables {
				fmt.Fprintf(&b, "- `%s`\n", qualify(t.Schema, t.Name))
			}
		}
	}
	return b.String()
}

func writeTable(b *strings.Builder, tbl model.Table) {
	if tbl.Alias != "" {
		fmt.Fprintf(b, "\nalias `%s`\n", tbl.Alias)
	}
	if tbl.Note != "" {
		fmt.Fprintf(b, "\n%s\n", tbl.Note)
	}
	if len(tbl.Columns) == 0 {
		return
	}
	b.WriteString("\n| Column | Type | Settings |\n|---|---|---|\n")
	for _, c := range tbl.Columns {
		fmt.Fprintf(b, "| %s | %s | %s |\n", c.Name, c.Type.String(), strings.Join(columnSettings(c), ", "))
	}
}

func writeColumn(b *strings.Builder, col model.Column) {
	fmt.Fprintf(b, "\ntype `%s`\n", col.Type.String())
	if settings := columnSettings(col); len(settings) > 0 {
		fmt.Fprintf(b, "\n%s\n", strings.Join(settings, ", "))
	}
	if col.Note != "" {
		fmt.Fprintf(b, "\n%s\n", col.Note)
	}
}

func columnSettings(c model.Column) []string {
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
		out = append(out, "default: "+c.Default.Value)
	}
	return out
}

func tableGroup(db *model.Database, qualified string) (model.TableGroup, bool) {
	for _, g := range db.TableGroups {
		if qualify(g.Schema, g.Name) == qualified {
			return g, true
		}
	}
	return model.TableGroup{}, false
}

func qualify(schema, name string) string {
	if schema == "" || schema == symbol.DefaultSchema {
		return name
	}
	return schema + "." + name
}

func displayName(sym *symbol.Symbol) string {
	if name := sym.QualifiedName(); name != "" {
		return name
	}
	return symbol.DefaultSchema
}

func kindLabel(k symbol.Kind) string {
	switch k {
	case symbol.KindEnumField:
		return "Enum Value"
	case symbol.KindTableGroupField:
		return "Group Member"
	case symbol.KindTableGroup:
		return "Table Group"
	default:
		return k.String()
	}
}

// ---------- Document symbols ----------

func (s *Server) getDocumentSymbols(uri string) []DocumentSymbol {
	doc, compiled := s.compiled(uri)
	if doc == nil || compiled.Result.Program == nil || compiled.Result.Symbols == nil {
		return nil
	}
	index := ast.NewIndex(compiled.Result.Program)
	return childSymbols(doc, index, compiled.Result.Symbols.Root())
}

func childSymbols(doc *Document, index *ast.Index, parent *symbol.Symbol) []DocumentSymbol {
	if parent.Members == nil {
		return nil
	}
	var out []DocumentSymbol
	for _, child := range parent.Members.Symbols() {
		if child.Parent != parent {
			continue
		}
		if ds, ok := documentSymbol(doc, index, child); ok {
			out = append(out, ds)
		}
	}
	return out
}

func documentSymbol(doc *Document, index *ast.Index, sym *symbol.Symbol) (DocumentSymbol, bool) {
	children := childSymbols(doc, index, sym)
	ds := DocumentSymbol{
		Name:     sym.Name,
		Detail:   kindLabel(sym.Kind),
		Kind:     lspSymbolKind(sym.Kind),
		Children: children,
	}

	if sym.Kind == symbol.KindSchema {
		// Schemas have no body; they span their members.
		if len(children) == 0 {
			return ds, false
		}
		ds.Range = children[0].Range
		ds.Range.End = children[len(children)-1].Range.End
		if n, ok := index.Get(sym.Declaration); ok {
			ds.SelectionRange = doc.SpanToRange(n.Span())
		} else {
			ds.SelectionRange = children[0].SelectionRange
		}
		return ds, true
	}

	n, ok := index.Get(sym.Declaration)
	if !ok {
		return ds, false
	}
	ds.Range = doc.SpanToRange(n.Span())
	ds.SelectionRange = doc.SpanToRange(declSpan(n))
	return ds, true
}

func lspSymbolKind(k symbol.Kind) SymbolKind {
	switch k {
	case symbol.KindSchema:
		return SymbolKindNamespace
	case symbol.KindTable:
		return SymbolKindStruct
	case symbol.KindColumn:
		return SymbolKindField
	case symbol.KindEnum:
		return SymbolKindEnum
	case symbol.KindEnumField:
		return SymbolKindEnumMember
	case symbol.KindTableGroup:
		return SymbolKindModule
	default:
		return SymbolKindVariable
	}
}
