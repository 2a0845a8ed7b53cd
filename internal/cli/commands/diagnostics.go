package commands

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/leapstack-labs/leapdbml/internal/cli/output"
	"github.com/leapstack-labs/leapdbml/pkg/core"
)

// DiagnosticOutput is the JSON/YAML form of one diagnostic.
type DiagnosticOutput struct {
	File      string   `json:"file" yaml:"file"`
	Line      int      `json:"line" yaml:"line"`
	Column    int      `json:"column" yaml:"column"`
	EndLine   int      `json:"end_line" yaml:"end_line"`
	EndColumn int      `json:"end_column" yaml:"end_column"`
	Severity  string   `json:"severity" yaml:"severity"`
	Code      string   `json:"code" yaml:"code"`
	Name      string   `json:"name" yaml:"name"`
	Category  string   `json:"category" yaml:"category"`
	Message   string   `json:"message" yaml:"message"`
	Hints     []string `json:"hints,omitempty" yaml:"hints,omitempty"`
}

func toDiagnosticOutputs(file string, diags core.Diagnostics) []DiagnosticOutput {
	out := make([]DiagnosticOutput, 0, len(diags))
	for _, d := range diags {
		out = append(out, DiagnosticOutput{
			File:      file,
			Line:      d.Span.Start.Line,
			Column:    d.Span.Start.Column,
			EndLine:   d.Span.End.Line,
			EndColumn: d.Span.End.Column,
			Severity:  d.Severity.String(),
			Code:      d.Code.String(),
			Name:      d.Code.Name(),
			Category:  string(d.Code.Category()),
			Message:   d.Message,
			Hints:     d.Hints,
		})
	}
	return out
}

// renderDiagnostics writes diags for one file in text or markdown form.
func renderDiagnostics(r *output.Renderer, file, source string, diags core.Diagnostics) {
	if len(diags) == 0 {
		return
	}
	if r.EffectiveMode() == output.ModeMarkdown {
		renderDiagnosticsMarkdown(r, file, diags)
		return
	}

	styles := r.Styles()
	lines := strings.Split(source, "\n")
	for _, d := range diags {
		sev := severityStyle(styles, d.Severity).Render(fmt.Sprintf("%s[%s]", d.Severity, d.Code))
		r.Printf("%s:%s: %s %s\n", file, d.Span.Start, sev, d.Message)

		if snippet := sourceSnippet(lines, d); snippet != "" {
			r.Println(styles.Muted.Render(snippet))
		}
		for _, h := range d.Hints {
			r.Println(styles.Hint.Render("    = hint: " + h))
		}
	}
}

func renderDiagnosticsMarkdown(r *output.Renderer, file string, diags core.Diagnostics) {
	for _, d := range diags {
		r.Printf("- `%s:%s` **%s** %s (%s): %s\n", file, d.Span.Start, d.Severity, d.Code, d.Code.Name(), d.Message)
		for _, h := range d.Hints {
			r.Printf("  - %s\n", h)
		}
	}
	r.Println("")
}

// sourceSnippet renders the first line of the diagnostic span with a
// caret underline.
func sourceSnippet(lines []string, d *core.Diagnostic) string {
	line := d.Span.Start.Line
	if line < 1 || line > len(lines) {
		return ""
	}
	text := strings.TrimRight(lines[line-1], "\r")
	col := d.Span.Start.Column
	if col < 1 {
		col = 1
	}
	if col > len(text)+1 {
		col = len(text) + 1
	}

	width := d.Span.End.Offset - d.Span.Start.Offset
	if d.Span.End.Line != line || col-1+width > len(text) {
		width = len(text) - (col - 1)
	}
	if width < 1 {
		width = 1
	}

	gutter := fmt.Sprintf("%5d | ", line)
	pad := strings.Repeat(" ", len(gutter)-2) + "| "
	return gutter + text + "\n" + pad + strings.Repeat(" ", col-1) + strings.Repeat("^", width)
}

func severityStyle(styles *output.Styles, sev core.Severity) lipgloss.Style {
	switch sev {
	case core.SeverityError:
		return styles.Error
	case core.SeverityWarning:
		return styles.Warning
	case core.SeverityInfo:
		return styles.Info
	default:
		return styles.Muted
	}
}

// countBySeverity returns error and warning counts.
func countBySeverity(diags core.Diagnostics) (errs, warnings int) {
	for _, d := range diags {
		switch d.Severity {
		case core.SeverityError:
			errs++
		case core.SeverityWarning:
			warnings++
		}
	}
	return errs, warnings
}
