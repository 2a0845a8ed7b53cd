// Package model defines the plain relational model produced by the
// interpreter. Values hold no references into the syntax tree or the symbol
// tables and can be serialized as JSON or YAML.
package model

// Database is the interpreted content of one DBML document.
type Database struct {
	Project     *Project     `json:"project,omitempty" yaml:"project,omitempty"`
	Tables      []Table      `json:"tables" yaml:"tables"`
	Refs        []Ref        `json:"refs" yaml:"refs"`
	Enums       []Enum       `json:"enums" yaml:"enums"`
	TableGroups []TableGroup `json:"tableGroups" yaml:"tableGroups"`
	Notes       []StickyNote `json:"notes,omitempty" yaml:"notes,omitempty"`
	Aliases     []Alias      `json:"aliases,omitempty" yaml:"aliases,omitempty"`
}

// Project holds the optional project block.
type Project struct {
	Name         string  `json:"name,omitempty" yaml:"name,omitempty"`
	Note         string  `json:"note,omitempty" yaml:"note,omitempty"`
	DatabaseType string  `json:"databaseType,omitempty" yaml:"databaseType,omitempty"`
	Fields       []Field `json:"fields,omitempty" yaml:"fields,omitempty"`
}

// Field is a free-form `key: value` entry of a project, kept verbatim.
type Field struct {
	Key   string `json:"key" yaml:"key"`
	Value string `json:"value" yaml:"value"`
}

// Table is one table.
type Table struct {
	Name        string   `json:"name" yaml:"name"`
	Schema      string   `json:"schema,omitempty" yaml:"schema,omitempty"`
	Alias       string   `json:"alias,omitempty" yaml:"alias,omitempty"`
	Note        string   `json:"note,omitempty" yaml:"note,omitempty"`
	HeaderColor string   `json:"headerColor,omitempty" yaml:"headerColor,omitempty"`
	Columns     []Column `json:"columns" yaml:"columns"`
	Indexes     []Index  `json:"indexes,omitempty" yaml:"indexes,omitempty"`
}

// QualifiedName returns schema.name, or name for the default schema.
func (t Table) QualifiedName() string {
	return qualify(t.Schema, t.Name)
}

// Column returns the column with the given name.
func (t Table) Column(name string) (Column, bool) {
	for _, c := range t.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// Column is one column of a table.
type Column struct {
	Name       string        `json:"name" yaml:"name"`
	Type       ColumnType    `json:"type" yaml:"type"`
	PrimaryKey bool          `json:"pk,omitempty" yaml:"pk,omitempty"`
	Unique     bool          `json:"unique,omitempty" yaml:"unique,omitempty"`
	NotNull    bool          `json:"notNull,omitempty" yaml:"notNull,omitempty"`
	Increment  bool          `json:"increment,omitempty" yaml:"increment,omitempty"`
	Note       string        `json:"note,omitempty" yaml:"note,omitempty"`
	Default    *DefaultValue `json:"default,omitempty" yaml:"default,omitempty"`
	Checks     []string      `json:"checks,omitempty" yaml:"checks,omitempty"`
}

// ColumnType is the declared type of a column. Schema is set for
// enum-typed columns living outside the default schema.
type ColumnType struct {
	Schema string `json:"schema,omitempty" yaml:"schema,omitempty"`
	Name   string `json:"name" yaml:"name"`
	Args   string `json:"args,omitempty" yaml:"args,omitempty"`
	// Enum is true when the type resolved to a declared enum.
	Enum bool `json:"enum,omitempty" yaml:"enum,omitempty"`
}

// String renders the type as written, e.g. varchar(255).
func (t ColumnType) String() string {
	s := qualify(t.Schema, t.Name)
	if t.Args != "" {
		s += "(" + t.Args + ")"
	}
	return s
}

// DefaultKind classifies a default value.
type DefaultKind string

// Default value kinds.
const (
	DefaultNumber     DefaultKind = "number"
	DefaultString     DefaultKind = "string"
	DefaultBoolean    DefaultKind = "boolean"
	DefaultExpression DefaultKind = "expression"
	DefaultEnum       DefaultKind = "enum"
)

// DefaultValue is a column default.
type DefaultValue struct {
	Kind  DefaultKind `json:"type" yaml:"type"`
	Value string      `json:"value" yaml:"value"`
}

// IndexColumnKind says whether an index part is a plain column or an
// expression.
type IndexColumnKind string

// Index part kinds.
const (
	IndexColumn     IndexColumnKind = "column"
	IndexExpression IndexColumnKind = "expression"
)

// IndexPart is one column or expression of an index.
type IndexPart struct {
	Kind  IndexColumnKind `json:"type" yaml:"type"`
	Value string          `json:"value" yaml:"value"`
}

// Index is one entry of an indexes block.
type Index struct {
	Name       string      `json:"name,omitempty" yaml:"name,omitempty"`
	Parts      []IndexPart `json:"columns" yaml:"columns"`
	Unique     bool        `json:"unique,omitempty" yaml:"unique,omitempty"`
	PrimaryKey bool        `json:"pk,omitempty" yaml:"pk,omitempty"`
	Type       string      `json:"type,omitempty" yaml:"type,omitempty"`
	Note       string      `json:"note,omitempty" yaml:"note,omitempty"`
}

// Columns returns the plain column parts.
func (i Index) Columns() []string {
	return i.parts(IndexColumn)
}

// Expressions returns the expression parts.
func (i Index) Expressions() []string {
	return i.parts(IndexExpression)
}

func (i Index) parts(kind IndexColumnKind) []string {
	var out []string
	for _, p := range i.Parts {
		if p.Kind == kind {
			out = append(out, p.Value)
		}
	}
	return out
}

// Relation is the multiplicity of one endpoint.
type Relation string

// Relations.
const (
	One  Relation = "1"
	Many Relation = "*"
)

// Endpoint is one side of a relationship.
type Endpoint struct {
	Schema   string   `json:"schema,omitempty" yaml:"schema,omitempty"`
	Table    string   `json:"table" yaml:"table"`
	Columns  []string `json:"columns" yaml:"columns"`
	Relation Relation `json:"relation" yaml:"relation"`
}

// TableName returns schema.table, or table for the default schema.
func (e Endpoint) TableName() string {
	return qualify(e.Schema, e.Table)
}

// Cardinality is the kind of a relationship.
type Cardinality string

// Cardinalities, named from the first endpoint's side.
const (
	OneToMany  Cardinality = "one-to-many"
	ManyToOne  Cardinality = "many-to-one"
	OneToOne   Cardinality = "one-to-one"
	ManyToMany Cardinality = "many-to-many"
)

// Ref is a relationship between two endpoints.
type Ref struct {
	Name        string      `json:"name,omitempty" yaml:"name,omitempty"`
	Schema      string      `json:"schema,omitempty" yaml:"schema,omitempty"`
	Endpoints   [2]Endpoint `json:"endpoints" yaml:"endpoints"`
	Cardinality Cardinality `json:"cardinality" yaml:"cardinality"`
	OnDelete    string      `json:"onDelete,omitempty" yaml:"onDelete,omitempty"`
	OnUpdate    string      `json:"onUpdate,omitempty" yaml:"onUpdate,omitempty"`
	Color       string      `json:"color,omitempty" yaml:"color,omitempty"`
	// Inline is true for refs declared as a column setting.
	Inline bool `json:"inline,omitempty" yaml:"inline,omitempty"`
}

// Enum is an enumeration.
type Enum struct {
	Name   string      `json:"name" yaml:"name"`
	Schema string      `json:"schema,omitempty" yaml:"schema,omitempty"`
	Values []EnumValue `json:"values" yaml:"values"`
}

// QualifiedName returns schema.name, or name for the default schema.
func (e Enum) QualifiedName() string {
	return qualify(e.Schema, e.Name)
}

// EnumValue is one value of an enum.
type EnumValue struct {
	Name string `json:"name" yaml:"name"`
	Note string `json:"note,omitempty" yaml:"note,omitempty"`
}

// TableGroup groups tables.
type TableGroup struct {
	Name   string       `json:"name" yaml:"name"`
	Schema string       `json:"schema,omitempty" yaml:"schema,omitempty"`
	Color  string       `json:"color,omitempty" yaml:"color,omitempty"`
	Note   string       `json:"note,omitempty" yaml:"note,omitempty"`
	Tables []TableToken `json:"tables" yaml:"tables"`
}

// TableToken names a table by schema and name.
type TableToken struct {
	Schema string `json:"schema,omitempty" yaml:"schema,omitempty"`
	Name   string `json:"name" yaml:"name"`
}

// StickyNote is a named top-level note.
type StickyNote struct {
	Name        string `json:"name" yaml:"name"`
	Content     string `json:"content" yaml:"content"`
	HeaderColor string `json:"headerColor,omitempty" yaml:"headerColor,omitempty"`
}

// Alias maps an alias to a table.
type Alias struct {
	Name   string `json:"name" yaml:"name"`
	Schema string `json:"schema,omitempty" yaml:"schema,omitempty"`
	Table  string `json:"table" yaml:"table"`
}

// Table returns the table with the given qualified name.
func (d *Database) Table(qualified string) (Table, bool) {
	for _, t := range d.Tables {
		if t.QualifiedName() == qualified {
			return t, true
		}
	}
	return Table{}, false
}

// Enum returns the enum with the given qualified name.
func (d *Database) Enum(qualified string) (Enum, bool) {
	for _, e := range d.Enums {
		if e.QualifiedName() == qualified {
			return e, true
		}
	}
	return Enum{}, false
}

func qualify(schema, name string) string {
	if schema == "" {
		return name
	}
	return schema + "." + name
}
