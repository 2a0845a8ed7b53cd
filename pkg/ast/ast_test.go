package ast_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapdbml/pkg/ast"
	"github.com/leapstack-labs/leapdbml/pkg/core"
	"github.com/leapstack-labs/leapdbml/pkg/parser"
)

func parse(t *testing.T, src string) *ast.Program {
	t.Helper()
	r := parser.ParseSource(src, core.NewIDGenerator())
	require.Empty(t, r.Diagnostics())
	p, ok := r.Value()
	require.True(t, ok)
	return p
}

// settingValue returns the value of the first setting of the first column.
func settingValue(t *testing.T, src string) ast.Node {
	t.Helper()
	p := parse(t, src)
	require.Len(t, p.Body, 1)
	block := p.Body[0].Block()
	require.NotNil(t, block)
	require.NotEmpty(t, block.Body)

	var value ast.Node
	ast.Inspect(block.Body[0], func(n ast.Node) bool {
		if a, ok := n.(*ast.Attribute); ok && value == nil {
			value = a.Value
			return false
		}
		return true
	})
	require.NotNil(t, value)
	return value
}

func TestSource_RoundTrip(t *testing.T) {
	src := `// users
Table public.users as U [note: 'x'] {
  id int [pk] // key
  /* block */ name varchar(255)
}

Ref: orders.user_id > users.id
`
	p := parse(t, src)
	assert.Equal(t, src, ast.Source(p, src))
}

func TestIndex(t *testing.T) {
	p := parse(t, "Table users {\n  id int\n}\n")
	idx := ast.NewIndex(p)

	seen := 0
	ast.Inspect(p, func(n ast.Node) bool {
		seen++
		got, ok := idx.Get(n.ID())
		assert.True(t, ok)
		assert.Same(t, n, got)
		return true
	})
	assert.Equal(t, seen, idx.Len())

	_, ok := idx.Get(core.NodeID(10_000))
	assert.False(t, ok)
}

func TestNodeAt(t *testing.T) {
	src := "Table users {\n  id int\n}\n"
	p := parse(t, src)

	n := ast.NodeAt(p, 7)
	v, ok := n.(*ast.Variable)
	require.True(t, ok, "got %T", n)
	assert.Equal(t, "users", v.Name())

	assert.IsType(t, &ast.ElementDeclaration{}, ast.NodeAt(p, 0))
}

func TestInspect_SkipsChildren(t *testing.T) {
	p := parse(t, "Table users {\n  id int\n}\n")
	var kinds []ast.Kind
	ast.Inspect(p, func(n ast.Node) bool {
		kinds = append(kinds, n.Kind())
		return n.Kind() == ast.PROGRAM
	})
	assert.Equal(t, []ast.Kind{ast.PROGRAM, ast.ELEMENT_DECLARATION}, kinds)
}

func TestQualifiedName(t *testing.T) {
	p := parse(t, "Table a.b.c {\n}\n")
	name, ok := ast.QualifiedName(p.Body[0].Name)
	require.True(t, ok)
	assert.Equal(t, "a.b.c", name)

	vars, ok := ast.VariableChain(p.Body[0].Name)
	require.True(t, ok)
	assert.Equal(t, []string{"a", "b", "c"}, ast.ChainNames(vars))
	assert.True(t, ast.IsMemberAccess(p.Body[0].Name))
}

func TestWordStream(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
		ok   bool
	}{
		{"single word", "Table t {\n  c int [x: cascade]\n}\n", "cascade", true},
		{"two words", "Table t {\n  c int [x: set null]\n}\n", "set null", true},
		{"string", "Table t {\n  c int [x: 'set null']\n}\n", "", false},
		{"number", "Table t {\n  c int [x: 1]\n}\n", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ast.WordStream(settingValue(t, tt.src))
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStringValue(t *testing.T) {
	got, ok := ast.StringValue(settingValue(t, "Table t {\n  c int [note: 'hi']\n}\n"))
	require.True(t, ok)
	assert.Equal(t, "hi", got)

	_, ok = ast.StringValue(settingValue(t, "Table t {\n  c int [note: hi]\n}\n"))
	assert.False(t, ok)
}

func TestNodeInfo_SetOnce(t *testing.T) {
	p := parse(t, "Table users {\n}\n")
	elem := p.Body[0]

	assert.True(t, elem.SetSymbol(3))
	assert.False(t, elem.SetSymbol(4))
	assert.Equal(t, core.SymbolID(3), elem.Symbol())

	assert.True(t, elem.SetReferee(5))
	assert.False(t, elem.SetReferee(6))
	assert.Equal(t, core.SymbolID(5), elem.Referee())
}

func TestElementDeclaration_Keyword(t *testing.T) {
	p := parse(t, "TABLE users {\n}\nNote: 'x'\n")
	assert.Equal(t, "TABLE", p.Body[0].Keyword())
	assert.False(t, p.Body[0].IsSimple())
	assert.True(t, p.Body[1].IsSimple())
	assert.Nil(t, p.Body[1].Block())
}
