package commands

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/leapstack-labs/leapdbml/pkg/compiler"
	"github.com/leapstack-labs/leapdbml/pkg/symbol"
)

// SymbolOutput is the JSON/YAML form of one symbol.
type SymbolOutput struct {
	ID         int    `json:"id" yaml:"id"`
	Kind       string `json:"kind" yaml:"kind"`
	Name       string `json:"name" yaml:"name"`
	Qualified  string `json:"qualified" yaml:"qualified"`
	Depth      int    `json:"depth" yaml:"depth"`
	References int    `json:"references" yaml:"references"`
}

// NewSymbolsCommand creates the symbols command.
func NewSymbolsCommand() *cobra.Command {
	var kinds []string
	cmd := &cobra.Command{
		Use:   "symbols <file>",
		Short: "Print the symbol tree of a DBML file",
		Long: `Validate and bind a DBML file, then print every declared symbol with
the number of references that resolved to it.`,
		Example: `  # Show the symbol tree
  leapdbml symbols schema.dbml

  # Only tables and columns
  leapdbml symbols schema.dbml --kind table,column`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSymbols(cmd, args[0], kinds)
		},
	}
	cmd.Flags().StringSliceVar(&kinds, "kind", nil, "Only show these symbol kinds")
	_ = cmd.RegisterFlagCompletionFunc("kind", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		var names []string
		for _, k := range symbol.Kinds() {
			names = append(names, strings.ToLower(k.String()))
		}
		return names, cobra.ShellCompDirectiveNoFileComp
	})
	return cmd
}

func runSymbols(cmd *cobra.Command, path string, kinds []string) error {
	cc := NewCommandContext(cmd)
	r := cc.Renderer

	source, err := readSource(cmd, path)
	if err != nil {
		return err
	}
	res := compiler.Compile(source, compiler.WithLogger(cc.Logger.With("file", path)))

	want := make(map[string]bool, len(kinds))
	for _, k := range kinds {
		want[strings.ToLower(k)] = true
	}

	var out []SymbolOutput
	if res.Symbols != nil {
		res.Symbols.Walk(func(s *symbol.Symbol, depth int) {
			if s.Parent == nil {
				return
			}
			if len(want) > 0 && !want[strings.ToLower(s.Kind.String())] {
				return
			}
			out = append(out, SymbolOutput{
				ID:         int(s.ID),
				Kind:       s.Kind.String(),
				Name:       s.Name,
				Qualified:  s.QualifiedName(),
				Depth:      depth - 1,
				References: len(s.References),
			})
		})
	}

	wrote, err := r.Data(out)
	if err != nil {
		return err
	}

	diags := cc.Cfg.Diagnostics.Apply(res.Diagnostics)
	if !wrote {
		rows := make([][]string, 0, len(out))
		counts := make(map[string]int)
		for _, s := range out {
			rows = append(rows, []string{
				strings.Repeat("  ", s.Depth) + s.Name,
				s.Kind,
				s.Qualified,
				strconv.Itoa(s.References),
			})
			counts[s.Kind]++
		}
		r.Header(1, path)
		r.Table([]string{"Symbol", "Kind", "Qualified name", "References"}, rows)

		r.Header(2, "Summary")
		title := cases.Title(language.English)
		summary := make([][]string, 0, len(counts))
		for _, k := range symbol.Kinds() {
			if n := counts[k.String()]; n > 0 {
				summary = append(summary, []string{title.String(splitWords(k.String())), strconv.Itoa(n)})
			}
		}
		r.Table([]string{"Kind", "Count"}, summary)

		renderDiagnostics(r, path, source, diags)
	}
	return failure(cc, path, diags)
}

// splitWords turns "TableGroupField" into "table group field".
func splitWords(s string) string {
	var b strings.Builder
	for i, ch := range s {
		if i > 0 && unicode.IsUpper(ch) {
			b.WriteByte(' ')
		}
		b.WriteRune(unicode.ToLower(ch))
	}
	return b.String()
}
