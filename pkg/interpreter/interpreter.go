// Package interpreter lowers a bound DBML tree into the plain model.
//
// Elements are lowered in source order. Nested Project bodies are spliced
// into the top-level collections. Relationships are checked by symbol
// identity: a ref whose endpoints are the same columns, or whose endpoint
// pair was already emitted, is reported and dropped.
package interpreter

import (
	"log/slog"

	"github.com/leapstack-labs/leapdbml/pkg/ast"
	"github.com/leapstack-labs/leapdbml/pkg/core"
	"github.com/leapstack-labs/leapdbml/pkg/model"
	"github.com/leapstack-labs/leapdbml/pkg/symbol"
	"github.com/leapstack-labs/leapdbml/pkg/validator"
	_ "github.com/leapstack-labs/leapdbml/pkg/validator/elements" // element kinds
)

// Option configures an Interpreter.
type Option func(*Interpreter)

// WithLogger sets the logger. Dropped refs are logged at warn level.
func WithLogger(logger *slog.Logger) Option {
	return func(in *Interpreter) { in.logger = logger }
}

// Interpreter lowers one bound program.
type Interpreter struct {
	arena       *symbol.Arena
	source      string
	logger      *slog.Logger
	diagnostics core.Diagnostics

	db   *model.Database
	refs map[refKey]bool
}

// New creates an interpreter. source is the compiled text; it is used to
// copy expressions such as type arguments verbatim.
func New(arena *symbol.Arena, source string, opts ...Option) *Interpreter {
	in := &Interpreter{
		arena:  arena,
		source: source,
		db: &model.Database{
			Tables:      []model.Table{},
			Refs:        []model.Ref{},
			Enums:       []model.Enum{},
			TableGroups: []model.TableGroup{},
		},
		refs: make(map[refKey]bool),
	}
	for _, opt := range opts {
		opt(in)
	}
	if in.logger == nil {
		in.logger = slog.New(slog.DiscardHandler)
	}
	return in
}

// Interpret lowers a validated and bound program.
func Interpret(result *validator.Result, source string, opts ...Option) core.Report[*model.Database] {
	in := New(result.Arena, source, opts...)
	return in.Run(result.Program)
}

// Run lowers program.
func (in *Interpreter) Run(program *ast.Program) core.Report[*model.Database] {
	for _, elem := range program.Body {
		in.element(elem)
	}
	in.logger.Debug("interpreted program",
		slog.Int("tables", len(in.db.Tables)),
		slog.Int("refs", len(in.db.Refs)),
		slog.Int("enums", len(in.db.Enums)),
		slog.Int("table_groups", len(in.db.TableGroups)))
	return core.NewReport(in.db, in.diagnostics)
}

func (in *Interpreter) element(elem *ast.ElementDeclaration) {
	def, ok := validator.Lookup(elem.Keyword())
	if !ok {
		return
	}
	switch def.Kind() {
	case validator.KindTable:
		in.table(elem)
	case validator.KindEnum:
		in.enum(elem)
	case validator.KindRef:
		in.refElement(elem)
	case validator.KindTableGroup:
		in.tableGroup(elem)
	case validator.KindNote:
		in.stickyNote(elem)
	case validator.KindProject:
		in.project(elem)
	}
}

// declared returns the registered symbol declared by n.
func (in *Interpreter) declared(n ast.Node) (*symbol.Symbol, bool) {
	if ast.IsNil(n) || n.Symbol() == 0 {
		return nil, false
	}
	s, ok := in.arena.Get(n.Symbol())
	if !ok || !validator.IsRegistered(s) {
		return nil, false
	}
	return s, true
}

// referee returns the symbol n is bound to.
func (in *Interpreter) referee(n ast.Node) (*symbol.Symbol, bool) {
	if ast.IsNil(n) || n.Referee() == 0 {
		return nil, false
	}
	return in.arena.Get(n.Referee())
}

func (in *Interpreter) report(code core.ErrorCode, node ast.Node, format string, args ...any) *core.Diagnostic {
	d := core.NodeDiagnostic(code, node.ID(), node.Span(), format, args...)
	in.diagnostics = append(in.diagnostics, d)
	return d
}

// text returns the source text of n.
func (in *Interpreter) text(n ast.Node) string {
	return n.Span().Text(in.source)
}

// ---------- Shared lowering helpers ----------

// settingString returns the first string value of a setting.
func settingString(list *ast.ListExpression, name string) string {
	for _, attr := range attributes(list) {
		if attr.SettingName() == name {
			if s, ok := ast.StringValue(attr.Value); ok {
				return s
			}
		}
	}
	return ""
}

// settingColor returns the first color value of a setting.
func settingColor(list *ast.ListExpression, name string) string {
	for _, attr := range attributes(list) {
		if attr.SettingName() != name {
			continue
		}
		if l, ok := ast.AsLiteral(attr.Value); ok && validator.IsColor(l) {
			return l.Literal.Literal
		}
	}
	return ""
}

// settingWords returns the first identifier-word value of a setting.
func settingWords(list *ast.ListExpression, name string) string {
	for _, attr := range attributes(list) {
		if attr.SettingName() == name {
			if w, ok := ast.WordStream(attr.Value); ok {
				return w
			}
		}
	}
	return ""
}

func hasFlag(list *ast.ListExpression, names ...string) bool {
	for _, attr := range attributes(list) {
		for _, n := range names {
			if attr.SettingName() == n {
				return true
			}
		}
	}
	return false
}

func attributes(list *ast.ListExpression) []*ast.Attribute {
	if list == nil {
		return nil
	}
	out := make([]*ast.Attribute, 0, len(list.Elements))
	for _, a := range list.Elements {
		if a != nil && a.Name != nil {
			out = append(out, a)
		}
	}
	return out
}

// noteContent returns the text of a Note element.
func noteContent(elem *ast.ElementDeclaration) string {
	if elem.IsSimple() {
		s, _ := ast.StringValue(elem.Body)
		return s
	}
	if block := elem.Block(); block != nil {
		for _, item := range block.Body {
			if s, ok := ast.StringValue(item); ok {
				return s
			}
		}
	}
	return ""
}

// kindOf returns the element kind of a nested element.
func kindOf(elem *ast.ElementDeclaration) validator.ElementKind {
	def, ok := validator.Lookup(elem.Keyword())
	if !ok {
		return ""
	}
	return def.Kind()
}
