package symbol_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapdbml/pkg/core"
	"github.com/leapstack-labs/leapdbml/pkg/symbol"
)

func TestArena_RootSchema(t *testing.T) {
	a := symbol.NewArena(core.NewIDGenerator())
	root := a.Root()
	assert.Equal(t, symbol.KindSchema, root.Kind)
	assert.Equal(t, "public", root.Name)
	assert.Zero(t, root.Declaration)
	assert.NotNil(t, root.Members)
	assert.Equal(t, core.SymbolID(1), root.ID)
}

func TestTable_CompositeIndex(t *testing.T) {
	a := symbol.NewArena(core.NewIDGenerator())
	root := a.Root()

	users := a.New(symbol.KindTable, "users", 10, root)
	_, ok := root.Members.Insert(users.Index(), users)
	require.True(t, ok)

	// same name, different kind
	enum := a.New(symbol.KindEnum, "users", 11, root)
	_, ok = root.Members.Insert(enum.Index(), enum)
	require.True(t, ok)

	// duplicate keeps the first
	dup := a.New(symbol.KindTable, "users", 12, root)
	existing, ok := root.Members.Insert(dup.Index(), dup)
	assert.False(t, ok)
	assert.Same(t, users, existing)

	// case-sensitive
	_, found := root.Members.Get(symbol.KindTable, "Users")
	assert.False(t, found)
	assert.Equal(t, 2, root.Members.Len())
}

func TestSymbol_PathAndSchema(t *testing.T) {
	a := symbol.NewArena(core.NewIDGenerator())
	org := a.New(symbol.KindSchema, "org", 1, a.Root())
	a.Root().Members.Insert(org.Index(), org)
	sales := a.New(symbol.KindSchema, "sales", 2, org)
	org.Members.Insert(sales.Index(), sales)
	orders := a.New(symbol.KindTable, "orders", 3, sales)
	sales.Members.Insert(orders.Index(), orders)
	id := a.New(symbol.KindColumn, "id", 4, orders)
	orders.Members.Insert(id.Index(), id)

	assert.Equal(t, "org.sales.orders.id", id.QualifiedName())
	assert.Equal(t, "org.sales", orders.SchemaName())
	assert.Equal(t, "org.sales", id.SchemaName())
	assert.Same(t, orders, id.Container(symbol.KindTable))
	assert.Nil(t, id.Members)

	got, ok := a.Resolve(symbol.KindTable, "org", "sales", "orders")
	require.True(t, ok)
	assert.Same(t, orders, got)

	var visited []string
	a.Walk(func(s *symbol.Symbol, depth int) {
		visited = append(visited, s.Name)
	})
	assert.Equal(t, []string{"public", "org", "sales", "orders", "id"}, visited)
}

func TestArena_ResolvePublicPrefix(t *testing.T) {
	a := symbol.NewArena(core.NewIDGenerator())
	users := a.New(symbol.KindTable, "users", 1, a.Root())
	a.Root().Members.Insert(users.Index(), users)

	got, ok := a.Resolve(symbol.KindTable, "public", "users")
	require.True(t, ok)
	assert.Same(t, users, got)
	assert.Equal(t, "", users.SchemaName())
}

func TestTable_SymbolsSkipsAliases(t *testing.T) {
	a := symbol.NewArena(core.NewIDGenerator())
	users := a.New(symbol.KindTable, "users", 1, a.Root())
	a.Root().Members.Insert(users.Index(), users)
	a.Root().Members.Insert(symbol.Index{Kind: symbol.KindTable, Name: "U"}, users)

	assert.Len(t, a.Root().Members.Symbols(), 1)
	assert.Equal(t, []string{"U", "users"}, a.Root().Members.Names(symbol.KindTable))
}
