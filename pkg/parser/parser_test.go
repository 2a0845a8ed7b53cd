package parser_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapdbml/pkg/ast"
	"github.com/leapstack-labs/leapdbml/pkg/core"
	"github.com/leapstack-labs/leapdbml/pkg/lexer"
	"github.com/leapstack-labs/leapdbml/pkg/parser"
	"github.com/leapstack-labs/leapdbml/pkg/token"
)

func parse(t *testing.T, src string) (*ast.Program, core.Diagnostics) {
	t.Helper()
	r := parser.ParseSource(src, core.NewIDGenerator())
	program, ok := r.Value()
	require.True(t, ok)
	require.NotNil(t, program)
	return program, r.Diagnostics()
}

func TestParse_Table(t *testing.T) {
	src := `Table public.users as U [headercolor: #3498db] {
  id integer [pk, increment]
  name varchar(255) [not null, note: 'full name']
  Note: 'people'
}`
	program, diags := parse(t, src)
	require.Empty(t, diags)
	require.Len(t, program.Body, 1)

	table := program.Body[0]
	assert.Equal(t, "Table", table.Keyword())
	name, ok := ast.QualifiedName(table.Name)
	require.True(t, ok)
	assert.Equal(t, "public.users", name)
	require.NotNil(t, table.As)
	assert.True(t, ast.IsIdentifier(table.Alias))
	require.NotNil(t, table.Attributes)
	assert.Equal(t, "headercolor", table.Attributes.Elements[0].SettingName())

	block := table.Block()
	require.NotNil(t, block)
	require.Len(t, block.Body, 3)

	col, ok := block.Body[0].(*ast.FunctionApplication)
	require.True(t, ok)
	require.Len(t, col.Args, 2)
	list, ok := col.Args[1].(*ast.ListExpression)
	require.True(t, ok)
	assert.Equal(t, "pk", list.Elements[0].SettingName())

	varchar, ok := block.Body[1].(*ast.FunctionApplication)
	require.True(t, ok)
	call, ok := varchar.Args[0].(*ast.CallExpression)
	require.True(t, ok)
	require.Len(t, call.Args.Elements, 1)
	notNull := varchar.Args[1].(*ast.ListExpression).Elements[0]
	assert.Equal(t, "not null", notNull.SettingName())

	note, ok := block.Body[2].(*ast.ElementDeclaration)
	require.True(t, ok)
	assert.True(t, note.IsSimple())
	assert.Same(t, table, note.Parent)
	s, ok := ast.StringValue(note.Body)
	require.True(t, ok)
	assert.Equal(t, "people", s)
}

func TestParse_RefExpression(t *testing.T) {
	program, diags := parse(t, "Ref fk: a.x > s.b.y [delete: set null]")
	require.Empty(t, diags)
	ref := program.Body[0]
	assert.True(t, ref.IsSimple())

	app, ok := ref.Body.(*ast.FunctionApplication)
	require.True(t, ok)
	infix, ok := app.Callee.(*ast.InfixExpression)
	require.True(t, ok)
	assert.Equal(t, ">", infix.Op.Literal)

	left, ok := ast.QualifiedName(infix.Left)
	require.True(t, ok)
	assert.Equal(t, "a.x", left)
	right, ok := ast.QualifiedName(infix.Right)
	require.True(t, ok)
	assert.Equal(t, "s.b.y", right)

	setting := app.Args[0].(*ast.ListExpression).Elements[0]
	words, ok := ast.WordStream(setting.Value)
	require.True(t, ok)
	assert.Equal(t, "set null", words)
}

func TestParse_CompositeRef(t *testing.T) {
	program, diags := parse(t, "Ref: a.(x, y) <> b.(p, q)")
	require.Empty(t, diags)
	infix := program.Body[0].Body.(*ast.InfixExpression)
	assert.Equal(t, "<>", infix.Op.Literal)
	frags := ast.Fragments(infix.Left)
	require.Len(t, frags, 2)
	tuple, ok := frags[1].(*ast.TupleExpression)
	require.True(t, ok)
	assert.Len(t, tuple.Elements, 2)
}

func TestParse_InlineRefIsPrefix(t *testing.T) {
	program, diags := parse(t, "Table t {\n  a int [ref: > u.id, default: -1]\n}")
	require.Empty(t, diags)
	col := program.Body[0].Block().Body[0].(*ast.FunctionApplication)
	attrs := col.Args[1].(*ast.ListExpression).Elements
	prefix, ok := attrs[0].Value.(*ast.PrefixExpression)
	require.True(t, ok)
	assert.Equal(t, ">", prefix.Op.Literal)
	assert.True(t, ast.IsMemberAccess(prefix.Expression))

	neg, ok := attrs[1].Value.(*ast.PrefixExpression)
	require.True(t, ok)
	assert.Equal(t, "-", neg.Op.Literal)
}

func TestParse_Precedence(t *testing.T) {
	program, diags := parse(t, "X: a + b * c - d")
	require.Empty(t, diags)
	top := program.Body[0].Body.(*ast.InfixExpression)
	assert.Equal(t, "-", top.Op.Literal)
	left := top.Left.(*ast.InfixExpression)
	assert.Equal(t, "+", left.Op.Literal)
	mul := left.Right.(*ast.InfixExpression)
	assert.Equal(t, "*", mul.Op.Literal)
}

func TestParse_NestedElementsFromJuxtaposition(t *testing.T) {
	src := `Project shop {
  database_type: 'PostgreSQL'
  Table orders as O [headercolor: #fff] {
    id int
  }
  Note {
    'project note'
  }
}`
	program, diags := parse(t, src)
	require.Empty(t, diags)
	body := program.Body[0].Block().Body
	require.Len(t, body, 3)

	custom := body[0].(*ast.ElementDeclaration)
	assert.Equal(t, "database_type", custom.Keyword())

	table := body[1].(*ast.ElementDeclaration)
	assert.Equal(t, "Table", table.Keyword())
	assert.NotNil(t, table.As)
	assert.NotNil(t, table.Attributes)
	assert.Len(t, table.Block().Body, 1)
	assert.Same(t, program.Body[0], table.Parent)

	note := body[2].(*ast.ElementDeclaration)
	assert.Nil(t, note.Name)
	assert.False(t, note.IsSimple())
}

func TestParse_Indexes(t *testing.T) {
	src := "Table t {\n  indexes {\n    (a, b) [unique]\n    `lower(name)`\n    id [pk]\n  }\n}"
	program, diags := parse(t, src)
	require.Empty(t, diags)
	indexes := program.Body[0].Block().Body[0].(*ast.ElementDeclaration)
	items := indexes.Block().Body
	require.Len(t, items, 3)
	app := items[0].(*ast.FunctionApplication)
	_, ok := app.Callee.(*ast.TupleExpression)
	assert.True(t, ok)
	_, ok = items[1].(*ast.FunctionExpression)
	assert.True(t, ok)
}

func TestParse_PostfixOperator(t *testing.T) {
	program, diags := parse(t, "Ref: a.x >")
	require.Empty(t, diags)
	_, ok := program.Body[0].Body.(*ast.PostfixExpression)
	assert.True(t, ok)
}

func TestParse_Recovery(t *testing.T) {
	tests := []struct {
		name      string
		src       string
		code      core.ErrorCode
		elements  int
		lastTable string
	}{
		{
			name:      "unclosed list unwinds to block",
			src:       "Table a {\n  id int [pk\n}\nTable b {\n  id int\n}",
			code:      core.ErrMissingToken,
			elements:  2,
			lastTable: "b",
		},
		{
			name:      "garbage line inside block",
			src:       "Table a {\n  id int\n  ) ) )\n  name text\n}\nTable b {}",
			code:      core.ErrUnexpectedToken,
			elements:  2,
			lastTable: "b",
		},
		{
			name:      "stray closer at top level",
			src:       "}\nTable b { id int }",
			code:      core.ErrUnexpectedToken,
			elements:  1,
			lastTable: "b",
		},
		{
			name:      "missing body",
			src:       "Table a\nTable b { id int }",
			code:      core.ErrMissingToken,
			elements:  2,
			lastTable: "b",
		},
		{
			name:      "two items on one line",
			src:       "Table a { id int [pk], name text\n}\nTable b {}",
			code:      core.ErrExpectedNewline,
			elements:  2,
			lastTable: "b",
		},
		{
			name:      "unclosed tuple",
			src:       "Table a {\n  indexes {\n    (a, b\n  }\n}\nTable b {}",
			code:      core.ErrMissingToken,
			elements:  2,
			lastTable: "b",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			program, diags := parse(t, tt.src)
			require.NotEmpty(t, diags)
			assert.Equal(t, tt.code, diags[0].Code)
			require.Len(t, program.Body, tt.elements)
			last := program.Body[len(program.Body)-1]
			name, _ := ast.QualifiedName(last.Name)
			assert.Equal(t, tt.lastTable, name)
		})
	}
}

var roundtripInputs = []string{
	"",
	"Table users {\n  id int [pk] // key\n}\n",
	"Table a {\n  id int [pk\n}\nTable b {\n  id int\n}",
	"}}} ]]] ))) Table x { ( [ { }",
	"Ref: a.x > \nTable t { a int [ref: >, note: ] }",
	"Project p {\n  database_type: 'x'\n  Table q { id int }\n}\n/* unterminated",
	"Enum e {\n  a\n  b [note: 'x'\n}\n@@",
	"Table t {\n  a int\n  indexes {\n    (a, ,b) [name: 'x']\n  }\n}",
	"Table t { Note: }",
	"'string at top' Table t {}",
}

func TestParse_Roundtrip(t *testing.T) {
	for _, src := range roundtripInputs {
		t.Run(src, func(t *testing.T) {
			program, _ := parse(t, src)
			assert.Equal(t, src, ast.Source(program, src))
		})
	}
}

func TestParse_UniqueIDsAndDerivedSpans(t *testing.T) {
	src := "Table users {\n  id int [pk]\n}\nRef: users.id < posts.user_id"
	program, _ := parse(t, src)

	seen := map[core.NodeID]bool{}
	ast.Inspect(program, func(n ast.Node) bool {
		assert.False(t, seen[n.ID()], "duplicate id %d", n.ID())
		seen[n.ID()] = true
		for _, c := range n.Children() {
			assert.LessOrEqual(t, n.Span().Start.Offset, c.Span().Start.Offset)
			assert.GreaterOrEqual(t, n.Span().End.Offset, c.Span().End.Offset)
		}
		return true
	})

	table := program.Body[0]
	assert.Equal(t, "Table users {\n  id int [pk]\n}", table.Span().Text(src))
}

func TestParse_IndependentCompilations(t *testing.T) {
	a, _ := parse(t, "Table a {}")
	b, _ := parse(t, "Table b {}")
	assert.Equal(t, a.Body[0].ID(), b.Body[0].ID())
}

func TestParse_LeavesInputTokensUntouched(t *testing.T) {
	src := "Table a { ) \n}"
	tokens := lexer.Lex(src).MustValue()
	leading := make([]int, len(tokens))
	for i, tok := range tokens {
		leading[i] = len(tok.Leading)
	}

	r := parser.Parse(tokens, core.NewIDGenerator())
	require.Len(t, r.Diagnostics(), 1)
	for i, tok := range tokens {
		assert.False(t, tok.Invalid, "token %q", tok.Literal)
		assert.Len(t, tok.Leading, leading[i], "token %q", tok.Literal)
	}
}

func TestParse_SkippedTokensAreMarkedInvalid(t *testing.T) {
	src := "Table a { ) \n}"
	program, diags := parse(t, src)
	require.Len(t, diags, 1)
	rbrace := program.Body[0].Block().RBrace
	require.NotNil(t, rbrace)
	var invalid []*token.Token
	for _, l := range rbrace.Leading {
		if l.Invalid {
			invalid = append(invalid, l)
		}
	}
	require.Len(t, invalid, 1)
	assert.Equal(t, ")", invalid[0].Literal)
}
