package lsp

import (
	"regexp"
	"sort"
	"strings"

	"github.com/leapstack-labs/leapdbml/pkg/ast"
	"github.com/leapstack-labs/leapdbml/pkg/symbol"
	"github.com/leapstack-labs/leapdbml/pkg/validator"
)

var (
	// memberChainPattern matches `a.b.` or `a.b.par` at the end of a line.
	memberChainPattern = regexp.MustCompile(`((?:(?:[A-Za-z_][A-Za-z0-9_]*|"[^"]*")\.)+)([A-Za-z0-9_]*)$`)
	// loneWordPattern matches a line holding at most one partial word.
	loneWordPattern = regexp.MustCompile(`^\s*[A-Za-z_]*$`)
)

// getCompletions returns completion items for the given position.
func (s *Server) getCompletions(params CompletionParams) []CompletionItem {
	doc, compiled := s.compiled(params.TextDocument.URI)
	if doc == nil {
		return nil
	}

	offset := doc.PositionToOffset(params.Position)
	prefix := doc.GetLinePrefix(params.Position)
	res := compiled.Result

	var root *symbol.Symbol
	if res.Symbols != nil {
		root = res.Symbols.Root()
	}
	elem := enclosingElement(res.Program, offset)

	// Member access: users. or myschema.users.
	if m := memberChainPattern.FindStringSubmatch(prefix); m != nil && root != nil {
		return memberCompletions(root, splitChain(m[1]))
	}

	// Settings list: [pk, not n
	if inSettings, inValue := settingsContext(prefix); inSettings {
		if inValue {
			return rootCompletions(root)
		}
		return settingCompletions(elem, offset)
	}

	kind := validator.KindProgram
	inBody := elem != nil && bodyContains(elem, offset)
	if inBody {
		if def, ok := validator.Lookup(elem.Keyword()); ok {
			kind = def.Kind()
		}
	}

	if loneWordPattern.MatchString(prefix) {
		items := keywordCompletions(kind)
		switch kind {
		case validator.KindTableGroup, validator.KindRef:
			items = append(items, rootCompletions(root)...)
		}
		return items
	}

	return rootCompletions(root)
}

// enclosingElement returns the innermost element whose extent covers
// offset. An element without a closing brace still covers the end of the
// document.
func enclosingElement(prog *ast.Program, offset int) *ast.ElementDeclaration {
	if prog == nil {
		return nil
	}
	var found *ast.ElementDeclaration
	ast.Inspect(prog, func(n ast.Node) bool {
		span := n.Span()
		if offset < span.Start.Offset {
			return false
		}
		elem, isElem := n.(*ast.ElementDeclaration)
		if offset > span.End.Offset && !(isElem && unclosed(elem)) {
			return false
		}
		if isElem {
			found = elem
		}
		return true
	})
	return found
}

func unclosed(elem *ast.ElementDeclaration) bool {
	b := elem.Block()
	return b != nil && b.LBrace != nil && b.RBrace == nil
}

// bodyContains reports whether offset lies between the braces of elem.
func bodyContains(elem *ast.ElementDeclaration, offset int) bool {
	b := elem.Block()
	if b == nil || b.LBrace == nil {
		return false
	}
	if offset < b.LBrace.Span.End.Offset {
		return false
	}
	return b.RBrace == nil || offset <= b.RBrace.Span.Start.Offset
}

// settingsContext reports whether prefix ends inside an unclosed settings
// list, and whether the cursor is past the colon of the current entry.
func settingsContext(prefix string) (inSettings bool, inValue bool) {
	open := strings.LastIndex(prefix, "[")
	if open < 0 || strings.LastIndex(prefix, "]") > open {
		return false, false
	}
	entry := prefix[open+1:]
	if comma := strings.LastIndex(entry, ","); comma >= 0 {
		entry = entry[comma+1:]
	}
	return true, strings.Contains(entry, ":")
}

func splitChain(chain string) []string {
	var names []string
	for _, part := range strings.Split(strings.TrimSuffix(chain, "."), ".") {
		names = append(names, strings.Trim(part, `"`))
	}
	return names
}

// ---------- Sources ----------

func keywordCompletions(parent validator.ElementKind) []CompletionItem {
	seen := make(map[validator.ElementKind]bool)
	var items []CompletionItem
	for _, kw := range validator.Keywords() {
		def, ok := validator.Lookup(kw)
		if !ok || seen[def.Kind()] {
			continue
		}
		seen[def.Kind()] = true
		for _, p := range def.Rules().Context.Parents {
			if p != parent {
				continue
			}
			items = append(items, CompletionItem{
				Label:    def.Kind().Display(),
				Kind:     CompletionItemKindKeyword,
				Detail:   "element",
				SortText: "0" + kw,
			})
			break
		}
	}
	return items
}

func settingCompletions(elem *ast.ElementDeclaration, offset int) []CompletionItem {
	if elem == nil {
		return nil
	}
	def, ok := validator.Lookup(elem.Keyword())
	if !ok {
		return nil
	}
	rules := def.Rules()
	specs := rules.Settings.Specs
	detail := def.Kind().Display() + " setting"
	if bodyContains(elem, offset) {
		specs = rules.Subfield.Settings
		detail = "field setting"
	}

	var items []CompletionItem
	for _, spec := range specs {
		names := append([]string{spec.Name}, spec.Aliases...)
		for i, name := range names {
			item := CompletionItem{
				Label:         name,
				Kind:          CompletionItemKindProperty,
				Detail:        detail,
				Documentation: spec.Expect,
				SortText:      "1" + name,
			}
			if i > 0 {
				item.Detail = "alias of " + spec.Name
			}
			if spec.Value != nil {
				item.InsertText = name + ": "
			}
			items = append(items, item)
		}
	}
	return items
}

// rootCompletions lists the names visible at the top of the default
// schema.
func rootCompletions(root *symbol.Symbol) []CompletionItem {
	if root == nil {
		return nil
	}
	return entryCompletions(root, []symbol.Kind{
		symbol.KindSchema, symbol.KindTable, symbol.KindEnum, symbol.KindTableGroup,
	})
}

// memberCompletions resolves a dotted chain from the root and lists the
// members of the container it names.
func memberCompletions(root *symbol.Symbol, chain []string) []CompletionItem {
	cur := root
	for i, name := range chain {
		if i == 0 && name == symbol.DefaultSchema {
			if _, ok := cur.Members.Get(symbol.KindSchema, name); !ok {
				continue
			}
		}
		next, ok := lookupContainer(cur, name)
		if !ok {
			return nil
		}
		cur = next
	}
	return entryCompletions(cur, symbol.Kinds())
}

func lookupContainer(scope *symbol.Symbol, name string) (*symbol.Symbol, bool) {
	if scope.Members == nil {
		return nil, false
	}
	for _, kind := range []symbol.Kind{symbol.KindSchema, symbol.KindTable, symbol.KindEnum, symbol.KindTableGroup} {
		if sym, ok := scope.Members.Get(kind, name); ok && sym.Members != nil {
			return sym, true
		}
	}
	return nil, false
}

func entryCompletions(scope *symbol.Symbol, kinds []symbol.Kind) []CompletionItem {
	if scope.Members == nil {
		return nil
	}
	wanted := make(map[symbol.Kind]bool, len(kinds))
	for _, k := range kinds {
		wanted[k] = true
	}

	var items []CompletionItem
	for _, idx := range scope.Members.Entries() {
		if !wanted[idx.Kind] {
			continue
		}
		sym, ok := scope.Members.Lookup(idx)
		if !ok {
			continue
		}
		item := CompletionItem{
			Label:      idx.Name,
			Kind:       completionKind(idx.Kind),
			Detail:     kindLabel(idx.Kind),
			SortText:   "2" + idx.Name,
			InsertText: quoteName(idx.Name),
		}
		if sym.Name != idx.Name {
			item.Detail = "alias of " + sym.QualifiedName()
		}
		items = append(items, item)
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].SortText < items[j].SortText })
	return items
}

func completionKind(k symbol.Kind) CompletionItemKind {
	switch k {
	case symbol.KindSchema:
		return CompletionItemKindFolder
	case symbol.KindTable:
		return CompletionItemKindStruct
	case symbol.KindColumn:
		return CompletionItemKindField
	case symbol.KindEnum:
		return CompletionItemKindEnum
	case symbol.KindEnumField:
		return CompletionItemKindEnumMember
	case symbol.KindTableGroup:
		return CompletionItemKindModule
	default:
		return CompletionItemKindVariable
	}
}
