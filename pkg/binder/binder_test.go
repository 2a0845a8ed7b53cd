package binder_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapdbml/pkg/ast"
	"github.com/leapstack-labs/leapdbml/pkg/binder"
	"github.com/leapstack-labs/leapdbml/pkg/core"
	"github.com/leapstack-labs/leapdbml/pkg/parser"
	"github.com/leapstack-labs/leapdbml/pkg/symbol"
	"github.com/leapstack-labs/leapdbml/pkg/validator"
	_ "github.com/leapstack-labs/leapdbml/pkg/validator/elements"
)

func bind(t *testing.T, src string) (*validator.Result, core.Diagnostics) {
	t.Helper()
	parsed := parser.ParseSource(src, core.NewIDGenerator())
	require.Empty(t, parsed.Diagnostics())
	validated := validator.Validate(parsed.MustValue(), core.NewIDGenerator())
	require.Empty(t, validated.Diagnostics())
	r := binder.Bind(validated.MustValue())
	return r.MustValue(), r.Diagnostics()
}

func resolve(t *testing.T, result *validator.Result, kind symbol.Kind, names ...string) *symbol.Symbol {
	t.Helper()
	s, ok := result.Arena.Resolve(kind, names...)
	require.True(t, ok, "%s %v", kind, names)
	return s
}

func column(t *testing.T, result *validator.Result, table, col string) *symbol.Symbol {
	t.Helper()
	s, ok := resolve(t, result, symbol.KindTable, table).Members.Get(symbol.KindColumn, col)
	require.True(t, ok)
	return s
}

func TestBind_ForwardReference(t *testing.T) {
	result, diags := bind(t, "Ref: a.x > b.y\nTable a {\n  x int\n}\nTable b {\n  y int\n}")
	require.Empty(t, diags)

	y := column(t, result, "b", "y")
	require.Len(t, y.References, 1)

	index := ast.NewIndex(result.Program)
	node, ok := index.Get(y.References[0])
	require.True(t, ok)
	assert.Equal(t, y.ID, node.Referee())

	b := resolve(t, result, symbol.KindTable, "b")
	assert.Len(t, b.References, 1)
}

func TestBind_QualifiedLookup(t *testing.T) {
	src := "Table org.sales.orders {\n  id int\n}\nTable users {\n  order_id int [ref: > org.sales.orders.id]\n}"
	result, diags := bind(t, src)
	require.Empty(t, diags)

	org, ok := result.Arena.Root().Members.Get(symbol.KindSchema, "org")
	require.True(t, ok)
	sales, ok := org.Members.Get(symbol.KindSchema, "sales")
	require.True(t, ok)
	orders, ok := sales.Members.Get(symbol.KindTable, "orders")
	require.True(t, ok)
	id, ok := orders.Members.Get(symbol.KindColumn, "id")
	require.True(t, ok)

	for _, s := range []*symbol.Symbol{org, sales, orders, id} {
		assert.Len(t, s.References, 1, s.Name)
	}
}

func TestBind_DefaultSchemaPrefix(t *testing.T) {
	result, diags := bind(t, "Table users {\n  id int\n}\nTable posts {\n  uid int [ref: > public.users.id]\n}")
	require.Empty(t, diags)
	assert.Len(t, column(t, result, "users", "id").References, 1)
	assert.Len(t, result.Arena.Root().References, 1)
}

func TestBind_Alias(t *testing.T) {
	result, diags := bind(t, "Table users as U {\n  id int\n}\nTable posts {\n  uid int [ref: > U.id]\n}")
	require.Empty(t, diags)
	assert.Len(t, column(t, result, "users", "id").References, 1)
}

func TestBind_NotFound(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		message string
		hint    string
	}{
		{
			name:    "table",
			src:     "Table users {\n  id int\n}\nRef: user.id > users.id",
			message: "table 'user' not found in the default schema",
			hint:    "did you mean 'users'?",
		},
		{
			name:    "column",
			src:     "Table a {\n  name int\n}\nRef: a.nam > a.name",
			message: "column 'nam' not found in table 'a'",
			hint:    "did you mean 'name'?",
		},
		{
			name:    "schema",
			src:     "Table s.t {\n  id int\n}\nTable u {\n  id int [ref: > x.t.id]\n}",
			message: "schema 'x' not found in the default schema",
		},
		{
			name:    "index column",
			src:     "Table a {\n  id int\n  indexes {\n    idd\n  }\n}",
			message: "column 'idd' not found in table 'a'",
		},
		{
			name:    "enum value",
			src:     "Enum status {\n  active\n}\nTable a {\n  s status [default: status.actve]\n}",
			message: "enum value 'actve' not found in enum 'status'",
			hint:    "did you mean 'active'?",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, diags := bind(t, tt.src)
			require.Len(t, diags, 1)
			assert.Equal(t, core.ErrBindingNotFound, diags[0].Code)
			assert.Equal(t, tt.message, diags[0].Message)
			if tt.hint != "" {
				assert.Contains(t, diags[0].Hints, tt.hint)
			}
		})
	}
}

func TestBind_FailureIsolation(t *testing.T) {
	src := "Table a {\n  x int\n}\nRef: a.x > missing.y\nRef: missing.z > a.x"
	result, diags := bind(t, src)
	require.Len(t, diags, 2)
	assert.Len(t, column(t, result, "a", "x").References, 2)
}

func TestBind_LenientColumnTypes(t *testing.T) {
	src := "Table a {\n  s status\n  n int\n}\nEnum status {\n  on\n}"
	result, diags := bind(t, src)
	require.Empty(t, diags)
	assert.Len(t, resolve(t, result, symbol.KindEnum, "status").References, 1)
}

func TestBind_CompositeSharesTablePrefix(t *testing.T) {
	src := "Table a {\n  x int\n  y int\n}\nTable b {\n  p int\n  q int\n}\nRef: a.(x, y) > b.(p, q)"
	result, diags := bind(t, src)
	require.Empty(t, diags)
	assert.Len(t, resolve(t, result, symbol.KindTable, "a").References, 1)
	assert.Len(t, column(t, result, "b", "q").References, 1)
}

func TestBind_TableGroupMembers(t *testing.T) {
	result, diags := bind(t, "TableGroup g {\n  users\n}\nTable users {\n  id int\n}")
	require.Empty(t, diags)
	assert.Len(t, resolve(t, result, symbol.KindTable, "users").References, 1)
}
