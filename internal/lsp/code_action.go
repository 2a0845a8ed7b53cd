package lsp

import (
	"encoding/json"
	"fmt"
	"regexp"
	"sync"

	"github.com/leapstack-labs/leapdbml/pkg/core"
)

// hintPattern extracts the candidate from a "did you mean" hint.
var hintPattern = regexp.MustCompile(`^did you mean '(.+)'\?$`)

// cachedFix holds replacement texts for one published diagnostic.
type cachedFix struct {
	Range       Range
	Code        string
	Suggestions []string
}

// fixCache keeps the fixes of the last published diagnostics per document.
type fixCache struct {
	mu    sync.RWMutex
	byURI map[string][]cachedFix
}

func newFixCache() *fixCache {
	return &fixCache{byURI: make(map[string][]cachedFix)}
}

func (c *fixCache) set(uri string, fixes []cachedFix) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(fixes) == 0 {
		delete(c.byURI, uri)
		return
	}
	c.byURI[uri] = fixes
}

func (c *fixCache) get(uri string) []cachedFix {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.byURI[uri]
}

func (c *fixCache) clearURI(uri string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.byURI, uri)
}

// fixFor derives a quick fix from a diagnostic whose span is exactly the
// misspelled name.
func fixFor(lspDiag Diagnostic, d *core.Diagnostic) (cachedFix, bool) {
	switch d.Code {
	case core.ErrBindingNotFound, core.ErrUnknownSetting:
	default:
		return cachedFix{}, false
	}

	var suggestions []string
	for _, h := range d.Hints {
		if m := hintPattern.FindStringSubmatch(h); m != nil {
			name := m[1]
			if d.Code == core.ErrBindingNotFound {
				name = quoteName(name)
			}
			suggestions = append(suggestions, name)
		}
	}
	if len(suggestions) == 0 {
		return cachedFix{}, false
	}
	return cachedFix{Range: lspDiag.Range, Code: lspDiag.Code, Suggestions: suggestions}, true
}

func (s *Server) handleCodeAction(msg *JSONRPCMessage) error {
	var params CodeActionParams
	if err := s.decodeParams(msg, &params); err != nil {
		return err
	}

	actions := s.getCodeActions(params)
	if actions == nil {
		actions = []CodeAction{}
	}
	s.sendResponse(msg.ID, actions, nil)
	return nil
}

func (s *Server) getCodeActions(params CodeActionParams) []CodeAction {
	uri := params.TextDocument.URI
	var actions []CodeAction
	for _, fix := range s.fixes.get(uri) {
		if !rangesOverlap(fix.Range, params.Range) {
			continue
		}
		diag := matchingDiagnostic(params.Context.Diagnostics, fix)
		for i, suggestion := range fix.Suggestions {
			action := CodeAction{
				Title:       fmt.Sprintf("Change to '%s'", suggestion),
				Kind:        CodeActionKindQuickFix,
				IsPreferred: i == 0,
				Edit: &WorkspaceEdit{
					Changes: map[string][]TextEdit{
						uri: {{Range: fix.Range, NewText: suggestion}},
					},
				},
			}
			if diag != nil {
				action.Diagnostics = []Diagnostic{*diag}
			}
			actions = append(actions, action)
		}
	}
	return actions
}

func matchingDiagnostic(diags []Diagnostic, fix cachedFix) *Diagnostic {
	for i := range diags {
		if diags[i].Range == fix.Range && diags[i].Code == fix.Code {
			return &diags[i]
		}
	}
	return nil
}

// quoteName double-quotes names that are not plain identifiers.
func quoteName(name string) string {
	for i := 0; i < len(name); i++ {
		c := name[i]
		if !isWordChar(c) || (i == 0 && c >= '0' && c <= '9') {
			b, _ := json.Marshal(name)
			return string(b)
		}
	}
	return name
}

func rangesOverlap(a, b Range) bool {
	return !positionLess(a.End, b.Start) && !positionLess(b.End, a.Start)
}

func positionLess(a, b Position) bool {
	if a.Line != b.Line {
		return a.Line < b.Line
	}
	return a.Character < b.Character
}
