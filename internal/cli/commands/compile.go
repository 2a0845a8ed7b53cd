package commands

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapdbml/internal/cli/output"
	"github.com/leapstack-labs/leapdbml/pkg/compiler"
	"github.com/leapstack-labs/leapdbml/pkg/core"
	"github.com/leapstack-labs/leapdbml/pkg/model"
)

// CompileOutput is the JSON/YAML output of the compile command.
type CompileOutput struct {
	File        string             `json:"file" yaml:"file"`
	Database    *model.Database    `json:"database" yaml:"database"`
	Diagnostics []DiagnosticOutput `json:"diagnostics" yaml:"diagnostics"`
}

// NewCompileCommand creates the compile command.
func NewCompileCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "compile <file>",
		Short: "Compile a DBML file and print the database model",
		Long: `Run the full pipeline over one DBML file and print the resulting
database model together with any diagnostics.

Use "-" to read from standard input.

Output adapts to environment:
  - Terminal: Styled summary tables
  - Piped/Scripted: Markdown format
  - JSON/YAML: The complete model`,
		Example: `  # Summarize a schema
  leapdbml compile schema.dbml

  # Emit the model as JSON
  leapdbml compile schema.dbml -o json

  # Read from stdin
  cat schema.dbml | leapdbml compile - -o yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(cmd, args[0])
		},
	}
}

func runCompile(cmd *cobra.Command, path string) error {
	cc := NewCommandContext(cmd)
	r := cc.Renderer

	source, err := readSource(cmd, path)
	if err != nil {
		return err
	}

	res := compiler.Compile(source, compiler.WithLogger(cc.Logger.With("file", path)))
	diags := cc.Cfg.Diagnostics.Apply(res.Diagnostics)

	wrote, err := r.Data(&CompileOutput{
		File:        path,
		Database:    res.Database,
		Diagnostics: toDiagnosticOutputs(path, diags),
	})
	if err != nil {
		return err
	}
	if !wrote {
		if res.Database != nil {
			renderDatabase(r, path, res.Database)
		}
		renderDiagnostics(r, path, source, diags)
	}

	return failure(cc, path, diags)
}

// failure returns ErrDiagnostics when diags reach the fail_on severity.
func failure(cc *CommandContext, file string, diags core.Diagnostics) error {
	if !cc.Cfg.Diagnostics.Fails(diags) {
		return nil
	}
	errs, warnings := countBySeverity(diags)
	return fmt.Errorf("%s: %d error(s), %d warning(s): %w", file, errs, warnings, ErrDiagnostics)
}

// ---------- Database rendering ----------

func renderDatabase(r *output.Renderer, title string, db *model.Database) {
	md := r.EffectiveMode() == output.ModeMarkdown

	r.Header(1, title)
	if p := db.Project; p != nil {
		if md {
			r.Println(output.FormatKeyValue("Project", p.Name))
			if p.DatabaseType != "" {
				r.Println(output.FormatKeyValue("Database type", p.DatabaseType))
			}
			r.Println("")
		} else {
			line := "Project " + p.Name
			if p.DatabaseType != "" {
				line += " (" + p.DatabaseType + ")"
			}
			r.Println(r.Styles().Bold.Render(line))
		}
	}

	if len(db.Tables) > 0 {
		r.Header(2, "Tables")
		rows := make([][]string, 0, len(db.Tables))
		for _, t := range db.Tables {
			rows = append(rows, []string{
				t.QualifiedName(),
				t.Alias,
				strconv.Itoa(len(t.Columns)),
				primaryKey(t),
				strconv.Itoa(len(t.Indexes)),
				oneLine(t.Note),
			})
		}
		r.Table([]string{"Table", "Alias", "Columns", "Primary key", "Indexes", "Note"}, rows)
	}

	if len(db.Refs) > 0 {
		r.Header(2, "Refs")
		rows := make([][]string, 0, len(db.Refs))
		for _, ref := range db.Refs {
			rows = append(rows, []string{
				ref.Name,
				endpointString(ref.Endpoints[0]),
				string(ref.Cardinality),
				endpointString(ref.Endpoints[1]),
				ref.OnDelete,
				ref.OnUpdate,
			})
		}
		r.Table([]string{"Name", "From", "Cardinality", "To", "On delete", "On update"}, rows)
	}

	if len(db.Enums) > 0 {
		r.Header(2, "Enums")
		rows := make([][]string, 0, len(db.Enums))
		for _, e := range db.Enums {
			values := make([]string, len(e.Values))
			for i, v := range e.Values {
				values[i] = v.Name
			}
			rows = append(rows, []string{e.QualifiedName(), strings.Join(values, ", ")})
		}
		r.Table([]string{"Enum", "Values"}, rows)
	}

	if len(db.TableGroups) > 0 {
		r.Header(2, "Table groups")
		rows := make([][]string, 0, len(db.TableGroups))
		for _, g := range db.TableGroups {
			tables := make([]string, len(g.Tables))
			for i, t := range g.Tables {
				tables[i] = qualify(t.Schema, t.Name)
			}
			rows = append(rows, []string{qualify(g.Schema, g.Name), strings.Join(tables, ", ")})
		}
		r.Table([]string{"Group", "Tables"}, rows)
	}

	if len(db.Notes) > 0 {
		r.Header(2, "Notes")
		rows := make([][]string, 0, len(db.Notes))
		for _, n := range db.Notes {
			rows = append(rows, []string{n.Name, oneLine(n.Content)})
		}
		r.Table([]string{"Note", "Content"}, rows)
	}
}

func primaryKey(t model.Table) string {
	var cols []string
	for _, c := range t.Columns {
		if c.PrimaryKey {
			cols = append(cols, c.Name)
		}
	}
	for _, idx := range t.Indexes {
		if idx.PrimaryKey {
			cols = append(cols, idx.Columns()...)
		}
	}
	return strings.Join(cols, ", ")
}

func endpointString(e model.Endpoint) string {
	cols := strings.Join(e.Columns, ", ")
	if len(e.Columns) > 1 {
		cols = "(" + cols + ")"
	}
	return e.TableName() + "." + cols
}

func qualify(schema, name string) string {
	if schema == "" {
		return name
	}
	return schema + "." + name
}

func oneLine(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if len(s) <= 60 {
		return s
	}
	return s[:57] + "..."
}
