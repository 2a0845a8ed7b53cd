package lsp

import (
	"strings"

	"github.com/leapstack-labs/leapdbml/pkg/core"
)

// publishDiagnostics compiles the document and sends its diagnostics.
func (s *Server) publishDiagnostics(uri string) {
	doc, compiled := s.compiled(uri)
	if doc == nil {
		return
	}

	diags := s.diagnostics.Apply(compiled.Diagnostics())
	out := make([]Diagnostic, 0, len(diags))
	var fixes []cachedFix
	for _, d := range diags {
		lspDiag := toLSPDiagnostic(doc, d)
		out = append(out, lspDiag)
		if fix, ok := fixFor(lspDiag, d); ok {
			fixes = append(fixes, fix)
		}
	}
	s.fixes.set(uri, fixes)

	s.logger.Debug("publishing diagnostics", "uri", uri, "version", doc.Version, "count", len(out))
	s.sendNotification("textDocument/publishDiagnostics", &PublishDiagnosticsParams{
		URI:         uri,
		Version:     doc.Version,
		Diagnostics: out,
	})
}

func toLSPDiagnostic(doc *Document, d *core.Diagnostic) Diagnostic {
	msg := d.Message
	if len(d.Hints) > 0 {
		msg += " (" + strings.Join(d.Hints, "; ") + ")"
	}
	return Diagnostic{
		Range:    doc.SpanToRange(d.Span),
		Severity: toLSPSeverity(d.Severity),
		Code:     d.Code.String(),
		Source:   "leapdbml",
		Message:  msg,
	}
}

func toLSPSeverity(s core.Severity) DiagnosticSeverity {
	switch s {
	case core.SeverityError:
		return DiagnosticSeverityError
	case core.SeverityWarning:
		return DiagnosticSeverityWarning
	case core.SeverityInfo:
		return DiagnosticSeverityInformation
	default:
		return DiagnosticSeverityHint
	}
}
