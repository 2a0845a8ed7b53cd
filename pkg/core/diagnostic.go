package core

import (
	"fmt"
	"sort"

	"github.com/leapstack-labs/leapdbml/pkg/token"
)

// Diagnostic is a single problem found while compiling a source text.
type Diagnostic struct {
	Code     ErrorCode
	Severity Severity
	Message  string
	Span     token.Span

	// Node is the offending syntax node, if the diagnostic was raised
	// against one. Token is set for token-level diagnostics.
	Node  NodeID
	Token *token.Token

	// Hints are optional follow-up suggestions ("did you mean ...").
	Hints []string
}

// NewDiagnostic creates an error-severity diagnostic over span.
func NewDiagnostic(code ErrorCode, span token.Span, format string, args ...any) *Diagnostic {
	return &Diagnostic{
		Code:     code,
		Severity: SeverityError,
		Message:  fmt.Sprintf(format, args...),
		Span:     span,
	}
}

// TokenDiagnostic creates a diagnostic raised against a token.
func TokenDiagnostic(code ErrorCode, tok *token.Token, format string, args ...any) *Diagnostic {
	d := NewDiagnostic(code, tok.Span, format, args...)
	d.Token = tok
	return d
}

// NodeDiagnostic creates a diagnostic raised against a node.
func NodeDiagnostic(code ErrorCode, node NodeID, span token.Span, format string, args ...any) *Diagnostic {
	d := NewDiagnostic(code, span, format, args...)
	d.Node = node
	return d
}

// Error implements the error interface.
func (d *Diagnostic) Error() string {
	return fmt.Sprintf("%s: %s [%s]", d.Span.Start, d.Message, d.Code)
}

// Start returns the starting byte offset.
func (d *Diagnostic) Start() int { return d.Span.Start.Offset }

// End returns the ending byte offset.
func (d *Diagnostic) End() int { return d.Span.End.Offset }

// Diagnostics is an ordered list of diagnostics.
type Diagnostics []*Diagnostic

// Sort orders the list by start offset. Diagnostics starting at the same
// offset keep their discovery order.
func (ds Diagnostics) Sort() {
	sort.SliceStable(ds, func(i, j int) bool {
		return ds[i].Span.Start.Offset < ds[j].Span.Start.Offset
	})
}

// HasErrors reports whether any diagnostic has error severity.
func (ds Diagnostics) HasErrors() bool {
	for _, d := range ds {
		if d.Severity == SeverityError {
			return true
		}
	}
	return false
}

// WithCode returns the diagnostics carrying the given code.
func (ds Diagnostics) WithCode(code ErrorCode) Diagnostics {
	var out Diagnostics
	for _, d := range ds {
		if d.Code == code {
			out = append(out, d)
		}
	}
	return out
}

// Codes returns the code of each diagnostic in order.
func (ds Diagnostics) Codes() []ErrorCode {
	out := make([]ErrorCode, len(ds))
	for i, d := range ds {
		out[i] = d.Code
	}
	return out
}
