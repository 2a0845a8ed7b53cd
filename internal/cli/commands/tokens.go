package commands

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapdbml/pkg/ast"
	"github.com/leapstack-labs/leapdbml/pkg/compiler"
	"github.com/leapstack-labs/leapdbml/pkg/token"
)

// TokenOutput is the JSON/YAML form of one token.
type TokenOutput struct {
	Kind    string `json:"kind" yaml:"kind"`
	Literal string `json:"literal" yaml:"literal"`
	Line    int    `json:"line" yaml:"line"`
	Column  int    `json:"column" yaml:"column"`
	Offset  int    `json:"offset" yaml:"offset"`
	Length  int    `json:"length" yaml:"length"`
	Trivia  bool   `json:"trivia,omitempty" yaml:"trivia,omitempty"`
	Invalid bool   `json:"invalid,omitempty" yaml:"invalid,omitempty"`
}

// NewTokensCommand creates the tokens command.
func NewTokensCommand() *cobra.Command {
	var trivia bool
	cmd := &cobra.Command{
		Use:   "tokens <file>",
		Short: "Print the token stream of a DBML file",
		Long: `Lex and parse a DBML file and print its significant tokens.

Tokens the parser skipped while recovering from a syntax error are flagged
as invalid. With --trivia, whitespace and comments are listed as well, in
source order.`,
		Example: `  # Show significant tokens
  leapdbml tokens schema.dbml

  # Include trivia, as JSON
  leapdbml tokens schema.dbml --trivia -o json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTokens(cmd, args[0], trivia)
		},
	}
	cmd.Flags().BoolVar(&trivia, "trivia", false, "Include whitespace and comment tokens")
	return cmd
}

func runTokens(cmd *cobra.Command, path string, trivia bool) error {
	cc := NewCommandContext(cmd)
	r := cc.Renderer

	source, err := readSource(cmd, path)
	if err != nil {
		return err
	}

	c := compiler.New(compiler.WithLogger(cc.Logger.With("file", path)))
	c.SetSource(source)
	report := c.Tokens()
	parsed := c.Program()

	skipped := make(map[int]bool)
	if program, ok := parsed.Value(); ok {
		for _, t := range ast.SkippedTokens(program) {
			skipped[t.Span.Start.Offset] = true
		}
	}

	var toks []*token.Token
	if trivia {
		for _, t := range report.MustValue() {
			toks = append(toks, t.Flatten()...)
		}
	} else {
		toks = report.MustValue()
	}

	out := make([]TokenOutput, 0, len(toks))
	for _, t := range toks {
		invalid := t.Invalid || (!t.Kind.IsTrivia() && skipped[t.Span.Start.Offset])
		out = append(out, TokenOutput{
			Kind:    t.Kind.String(),
			Literal: t.Literal,
			Line:    t.Span.Start.Line,
			Column:  t.Span.Start.Column,
			Offset:  t.Span.Start.Offset,
			Length:  t.Span.End.Offset - t.Span.Start.Offset,
			Trivia:  t.Kind.IsTrivia(),
			Invalid: invalid,
		})
	}

	wrote, err := r.Data(out)
	if err != nil {
		return err
	}
	if !wrote {
		rows := make([][]string, 0, len(out))
		for _, t := range out {
			kind := t.Kind
			if t.Invalid {
				kind += " (skipped)"
			}
			rows = append(rows, []string{
				strconv.Itoa(t.Line) + ":" + strconv.Itoa(t.Column),
				kind,
				strconv.Quote(t.Literal),
			})
		}
		r.Header(1, path)
		r.Table([]string{"Position", "Kind", "Literal"}, rows)
	}

	diags := cc.Cfg.Diagnostics.Apply(parsed.Diagnostics())
	if !wrote {
		renderDiagnostics(r, path, source, diags)
	}
	return failure(cc, path, diags)
}
