package format

import (
	"bytes"
	"strings"
)

const indentSize = 2

// Printer writes DBML with block indentation.
type Printer struct {
	output      *bytes.Buffer
	depth       int
	atLineStart bool
}

func newPrinter() *Printer {
	return &Printer{
		output:      &bytes.Buffer{},
		atLineStart: true,
	}
}

// String returns the formatted output with a single trailing newline.
func (p *Printer) String() string {
	out := strings.TrimRight(p.output.String(), "\n")
	if out == "" {
		return ""
	}
	return out + "\n"
}

func (p *Printer) write(s string) {
	if p.atLineStart && len(s) > 0 && s[0] != '\n' {
		p.writeIndent()
	}
	p.output.WriteString(s)
	p.atLineStart = false
}

func (p *Printer) writeln() {
	p.output.WriteByte('\n')
	p.atLineStart = true
}

// line writes s on its own line.
func (p *Printer) line(s string) {
	p.write(s)
	p.writeln()
}

func (p *Printer) writeIndent() {
	for i := 0; i < p.depth*indentSize; i++ {
		p.output.WriteByte(' ')
	}
	p.atLineStart = false
}

func (p *Printer) indent() {
	p.depth++
}

func (p *Printer) dedent() {
	if p.depth > 0 {
		p.depth--
	}
}

func (p *Printer) space() {
	p.output.WriteByte(' ')
}

// open writes `header {` and indents the body.
func (p *Printer) open(header string) {
	p.write(header)
	p.space()
	p.write("{")
	p.writeln()
	p.indent()
}

func (p *Printer) close() {
	p.dedent()
	p.line("}")
}

// settings writes ` [a, b: c]` when there is at least one entry.
func (p *Printer) settings(entries []string) {
	if len(entries) == 0 {
		return
	}
	p.space()
	p.write("[")
	p.formatList(len(entries), func(i int) { p.write(entries[i]) }, ", ", false)
	p.write("]")
}

// formatList prints a list of items with separators.
// count is the number of items, format is called for each index,
// sep is the separator string, multiline adds newlines after separators.
func (p *Printer) formatList(count int, format func(i int), sep string, multiline bool) {
	for i := 0; i < count; i++ {
		format(i)
		if i < count-1 {
			p.write(sep)
			if multiline {
				p.writeln()
			}
		}
	}
}
