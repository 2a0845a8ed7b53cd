package format

import (
	"strings"
	"testing"

	"github.com/leapstack-labs/leapdbml/pkg/compiler"
	"github.com/leapstack-labs/leapdbml/pkg/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lines(ls ...string) string {
	return strings.Join(ls, "\n") + "\n"
}

func TestFormat_Database(t *testing.T) {
	db := &model.Database{
		Project: &model.Project{
			Name:   "shop",
			Note:   "Main store",
			Fields: []model.Field{{Key: "database_type", Value: "PostgreSQL"}},
		},
		Enums: []model.Enum{{
			Name:   "status",
			Values: []model.EnumValue{{Name: "active"}, {Name: "on hold", Note: "paused"}},
		}},
		Tables: []model.Table{
			{
				Name:        "users",
				Alias:       "U",
				HeaderColor: "#3498db",
				Note:        "it's users",
				Columns: []model.Column{
					{Name: "id", Type: model.ColumnType{Name: "int"}, PrimaryKey: true, Increment: true},
					{Name: "email", Type: model.ColumnType{Name: "varchar", Args: "255"}, Unique: true, NotNull: true, Note: "login"},
				},
			},
			{
				Name: "orders",
				Columns: []model.Column{
					{Name: "id", Type: model.ColumnType{Name: "int"}, PrimaryKey: true},
					{Name: "user_id", Type: model.ColumnType{Name: "int"}},
					{Name: "status", Type: model.ColumnType{Name: "status", Enum: true}, Default: &model.DefaultValue{Kind: model.DefaultEnum, Value: "status.active"}},
					{Name: "created_at", Type: model.ColumnType{Name: "timestamp"}, Default: &model.DefaultValue{Kind: model.DefaultExpression, Value: "now()"}},
				},
				Indexes: []model.Index{
					{Parts: []model.IndexPart{{Kind: model.IndexColumn, Value: "user_id"}, {Kind: model.IndexColumn, Value: "status"}}, Unique: true, Name: "idx_user_status"},
					{Parts: []model.IndexPart{{Kind: model.IndexExpression, Value: "lower(status)"}}, Type: "btree"},
				},
			},
		},
		Refs: []model.Ref{
			{
				Endpoints: [2]model.Endpoint{
					{Table: "orders", Columns: []string{"user_id"}, Relation: model.Many},
					{Table: "users", Columns: []string{"id"}, Relation: model.One},
				},
				Cardinality: model.ManyToOne,
				Inline:      true,
			},
			{
				Name: "fk_pair",
				Endpoints: [2]model.Endpoint{
					{Table: "orders", Columns: []string{"id", "user_id"}, Relation: model.Many},
					{Table: "users", Columns: []string{"id", "email"}, Relation: model.Many},
				},
				Cardinality: model.ManyToMany,
				OnDelete:    "cascade",
				Color:       "#aaa",
			},
		},
		TableGroups: []model.TableGroup{{
			Name:   "core",
			Color:  "#111",
			Note:   "hot path",
			Tables: []model.TableToken{{Name: "users"}, {Name: "orders"}},
		}},
		Notes: []model.StickyNote{{Name: "todo", Content: "line1\nline2", HeaderColor: "#fff"}},
	}

	expected := lines(
		"Project shop {",
		"  database_type: 'PostgreSQL'",
		"  Note: 'Main store'",
		"}",
		"",
		"Enum status {",
		"  active",
		`  "on hold" [note: 'paused']`,
		"}",
		"",
		"Table users as U [headercolor: #3498db] {",
		"  id int [pk, increment]",
		"  email varchar(255) [unique, not null, note: 'login']",
		"",
		`  Note: 'it\'s users'`,
		"}",
		"",
		"Table orders {",
		"  id int [pk]",
		"  user_id int [ref: > users.id]",
		"  status status [default: status.active]",
		"  created_at timestamp [default: `now()`]",
		"",
		"  indexes {",
		"    (user_id, status) [unique, name: 'idx_user_status']",
		"    `lower(status)` [type: btree]",
		"  }",
		"}",
		"",
		"Ref fk_pair: orders.(id, user_id) <> users.(id, email) [delete: cascade, color: #aaa]",
		"",
		"TableGroup core [color: #111] {",
		"  users",
		"  orders",
		"",
		"  Note: 'hot path'",
		"}",
		"",
		"Note todo [headercolor: #fff] {",
		`  'line1\nline2'`,
		"}",
	)
	assert.Equal(t, expected, Database(db))
}

func TestFormat_Empty(t *testing.T) {
	assert.Equal(t, "", Database(nil))
	assert.Equal(t, "", Database(&model.Database{}))
}

func TestFormat_SchemaQualified(t *testing.T) {
	db := &model.Database{
		Tables: []model.Table{{
			Name:   "events",
			Schema: "audit",
			Columns: []model.Column{
				{Name: "user id", Type: model.ColumnType{Name: "double precision"}},
				{Name: "note", Type: model.ColumnType{Schema: "audit", Name: "kind", Enum: true}},
			},
		}},
	}
	expected := lines(
		"Table audit.events {",
		`  "user id" "double precision"`,
		`  "note" audit.kind`,
		"}",
	)
	assert.Equal(t, expected, Database(db))
}

func TestQuoting(t *testing.T) {
	tests := []struct {
		name string
		got  string
		want string
	}{
		{"plain name", Name("users"), "users"},
		{"unicode name", Name("usuários"), "usuários"},
		{"leading digit", Name("1st"), `"1st"`},
		{"space", Name("line items"), `"line items"`},
		{"reserved", Name("Indexes"), `"Indexes"`},
		{"embedded quote", Name(`a"b`), `"a\"b"`},
		{"qualified", QualifiedName("my schema", "t"), `"my schema".t`},
		{"string escapes", String("it's\\\n"), `'it\'s\\\n'`},
		{"expression", Expression("a`b"), "`a\\`b`"},
		{"number default", DefaultValue(model.DefaultValue{Kind: model.DefaultNumber, Value: "-1.5"}), "-1.5"},
		{"boolean default", DefaultValue(model.DefaultValue{Kind: model.DefaultBoolean, Value: "null"}), "null"},
		{"string default", DefaultValue(model.DefaultValue{Kind: model.DefaultString, Value: "x"}), "'x'"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.got)
		})
	}
}

func TestRelationOp(t *testing.T) {
	ref := func(a, b model.Relation) model.Ref {
		return model.Ref{Endpoints: [2]model.Endpoint{{Relation: a}, {Relation: b}}}
	}
	assert.Equal(t, "<", RelationOp(ref(model.One, model.Many)))
	assert.Equal(t, ">", RelationOp(ref(model.Many, model.One)))
	assert.Equal(t, "-", RelationOp(ref(model.One, model.One)))
	assert.Equal(t, "<>", RelationOp(ref(model.Many, model.Many)))
}

const roundTripSource = `Project shop {
  database_type: 'PostgreSQL'
  Note: '''
    Main store
    second line
  '''
}

Enum status {
  active
  "on hold" [note: 'paused']
}

Table users as U [headercolor: #3498db, note: 'people'] {
  id int [pk, increment]
  email varchar(255) [unique, not null]
  manager_id int [ref: > users.id]
}

Table orders {
  id int [pk]
  user_id int [ref: > U.id]
  reviewer_id int
  status status [default: status.active]
  total decimal(10, 2) [default: 0, note: 'order\'s total']
  created_at timestamp [default: ` + "`now()`" + `]

  indexes {
    (user_id, status) [unique, name: 'idx_user_status']
    ` + "`lower(status)`" + `
  }
}

Ref fk_reviewer: orders.reviewer_id > users.id [delete: set null]

TableGroup core {
  users
  orders
}

Note todo {
  'ship it'
}
`

func TestFormat_RoundTrip(t *testing.T) {
	first := compiler.Compile(roundTripSource)
	require.Empty(t, first.Diagnostics)

	printed := Database(first.Database)
	second := compiler.Compile(printed)
	require.Empty(t, second.Diagnostics, printed)

	assert.Equal(t, first.Database, second.Database)
	assert.Equal(t, printed, Database(second.Database))
	assert.Contains(t, printed, "  user_id int [ref: > users.id]")
	assert.Contains(t, printed, "Ref fk_reviewer: orders.reviewer_id > users.id [delete: set null]")
}
