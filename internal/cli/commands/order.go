package commands

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapdbml/internal/dag"
	"github.com/leapstack-labs/leapdbml/pkg/compiler"
	"github.com/leapstack-labs/leapdbml/pkg/model"
)

// OrderOutput is the JSON/YAML output of the order command.
type OrderOutput struct {
	File           string             `json:"file" yaml:"file"`
	Tables         []TableOrderOutput `json:"tables" yaml:"tables"`
	Levels         [][]string         `json:"levels" yaml:"levels"`
	SelfReferences []string           `json:"selfReferences,omitempty" yaml:"selfReferences,omitempty"`
	ManyToMany     []string           `json:"manyToMany,omitempty" yaml:"manyToMany,omitempty"`
	Cycle          []string           `json:"cycle,omitempty" yaml:"cycle,omitempty"`
}

// TableOrderOutput is one table in creation order.
type TableOrderOutput struct {
	Name       string   `json:"name" yaml:"name"`
	Level      int      `json:"level" yaml:"level"`
	References []string `json:"references" yaml:"references"`
}

// NewOrderCommand creates the order command.
func NewOrderCommand() *cobra.Command {
	var (
		tables     []string
		dependents bool
	)
	cmd := &cobra.Command{
		Use:   "order <file>",
		Short: "Print tables in foreign key creation order",
		Long: `Compile a DBML file and order its tables so that every table comes
after the tables its foreign keys reference. Tables on the same level do
not depend on each other and can be created together.

With --table the output is limited to the named tables and everything
they reference. Adding --dependents instead lists the named tables and
every table that references them, which is what a drop would affect.

Foreign key cycles are reported as an error.`,
		Example: `  # Creation order of every table
  leapdbml order schema.dbml

  # What must exist before orders can be created
  leapdbml order schema.dbml --table orders

  # What is affected by dropping users
  leapdbml order schema.dbml --table users --dependents`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOrder(cmd, args[0], tables, dependents)
		},
	}
	cmd.Flags().StringSliceVar(&tables, "table", nil, "Limit output to these tables (qualified names)")
	cmd.Flags().BoolVar(&dependents, "dependents", false, "With --table, follow referencing tables instead of referenced ones")
	return cmd
}

func runOrder(cmd *cobra.Command, path string, tables []string, dependents bool) error {
	cc := NewCommandContext(cmd)
	r := cc.Renderer

	source, err := readSource(cmd, path)
	if err != nil {
		return err
	}
	res := compiler.Compile(source, compiler.WithLogger(cc.Logger.With("file", path)))
	diags := cc.Cfg.Diagnostics.Apply(res.Diagnostics)
	if diags.HasErrors() || res.Database == nil {
		renderDiagnostics(r, path, source, diags)
		return fmt.Errorf("cannot order %s: %w", path, ErrDiagnostics)
	}

	g := dag.FromDatabase(res.Database)
	if len(tables) > 0 {
		for _, t := range tables {
			if _, ok := g.Node(t); !ok {
				return fmt.Errorf("table %q not found in %s", t, path)
			}
		}
		var keep []string
		if dependents {
			keep = g.Affected(tables)
		} else {
			keep = append(keep, tables...)
			for _, t := range tables {
				keep = append(keep, g.Upstream(t)...)
			}
		}
		g = g.Subgraph(keep)
	}

	out := OrderOutput{
		File:           path,
		SelfReferences: describeRefs(g.SelfReferences()),
		ManyToMany:     describeRefs(g.ManyToMany()),
	}
	levels, orderErr := g.Levels()
	var cycleErr *dag.CycleError
	switch {
	case errors.As(orderErr, &cycleErr):
		out.Cycle = cycleErr.Path
	case orderErr != nil:
		return orderErr
	}
	out.Levels = levels
	for i, level := range levels {
		for _, id := range level {
			out.Tables = append(out.Tables, TableOrderOutput{
				Name:       id,
				Level:      i,
				References: g.Dependencies(id),
			})
		}
	}

	wrote, err := r.Data(out)
	if err != nil {
		return err
	}
	if !wrote {
		renderOrder(cc, path, out)
	}
	if orderErr != nil {
		return fmt.Errorf("%s: %w", path, orderErr)
	}
	return nil
}

func renderOrder(cc *CommandContext, path string, out OrderOutput) {
	r := cc.Renderer
	r.Header(1, path)

	if len(out.Cycle) > 0 {
		r.Error("Foreign key cycle: " + strings.Join(out.Cycle, " -> "))
		return
	}
	if len(out.Tables) == 0 {
		r.Muted("No tables")
		return
	}

	rows := make([][]string, 0, len(out.Tables))
	for i, t := range out.Tables {
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			strconv.Itoa(t.Level),
			t.Name,
			strings.Join(t.References, ", "),
		})
	}
	r.Table([]string{"#", "Level", "Table", "References"}, rows)

	if len(out.SelfReferences) > 0 {
		r.Header(2, "Self references")
		for _, s := range out.SelfReferences {
			r.Println("  " + s)
		}
	}
	if len(out.ManyToMany) > 0 {
		r.Header(2, "Many-to-many (need a junction table)")
		for _, s := range out.ManyToMany {
			r.Println("  " + s)
		}
	}
}

func describeRefs(refs []model.Ref) []string {
	if len(refs) == 0 {
		return nil
	}
	out := make([]string, 0, len(refs))
	for _, ref := range refs {
		out = append(out, fmt.Sprintf("%s %s %s",
			endpointName(ref.Endpoints[0]), relationOp(ref), endpointName(ref.Endpoints[1])))
	}
	return out
}

func endpointName(e model.Endpoint) string {
	cols := strings.Join(e.Columns, ", ")
	if len(e.Columns) > 1 {
		cols = "(" + cols + ")"
	}
	return e.TableName() + "." + cols
}

func relationOp(ref model.Ref) string {
	a, b := ref.Endpoints[0].Relation, ref.Endpoints[1].Relation
	switch {
	case a == model.Many && b == model.Many:
		return "<>"
	case a == model.Many:
		return ">"
	case b == model.Many:
		return "<"
	default:
		return "-"
	}
}
