package parser

import (
	"github.com/leapstack-labs/leapdbml/pkg/core"
	"github.com/leapstack-labs/leapdbml/pkg/token"
)

// contextKind is an open delimiter context.
type contextKind int

const (
	ctxProgram contextKind = iota
	ctxBlock               // { ... }
	ctxList                // [ ... ]
	ctxParen               // ( ... )
)

// unwind is returned by parse functions that hit a token they cannot use.
// depth is the number of enclosing contexts that must close before one can
// consume the offending token. The context that receives depth 0 skips to a
// safe point and resumes.
type unwind struct {
	depth int
}

func (p *Parser) push(k contextKind) {
	p.contexts = append(p.contexts, k)
}

func (p *Parser) pop() {
	p.contexts = p.contexts[:len(p.contexts)-1]
}

// fail records an error at tok and computes how far to unwind.
func (p *Parser) fail(code core.ErrorCode, tok *token.Token, format string, args ...any) *unwind {
	p.addError(code, tok, format, args...)
	return &unwind{depth: p.unwindDepth(tok.Kind)}
}

// unwindDepth returns the number of contexts above the nearest one that
// accepts kind, or 0 if none does. Blocks stop the search for commas.
func (p *Parser) unwindDepth(kind token.Kind) int {
	top := len(p.contexts) - 1
	for i := top; i >= 0; i-- {
		ctx := p.contexts[i]
		if accepts(ctx, kind) {
			return top - i
		}
		if kind == token.COMMA && (ctx == ctxBlock || ctx == ctxProgram) {
			return 0
		}
	}
	return 0
}

// accepts reports whether ctx consumes tokens of kind itself.
func accepts(ctx contextKind, kind token.Kind) bool {
	switch ctx {
	case ctxBlock:
		return kind == token.RBRACE
	case ctxList:
		return kind == token.RBRACKET || kind == token.COMMA
	case ctxParen:
		return kind == token.RPAREN || kind == token.COMMA
	}
	return false
}

// anyAccepts reports whether some open context consumes kind.
func (p *Parser) anyAccepts(kind token.Kind) bool {
	for _, ctx := range p.contexts {
		if accepts(ctx, kind) {
			return true
		}
	}
	return false
}

func isOpener(kind token.Kind) bool {
	return kind == token.LBRACE || kind == token.LBRACKET || kind == token.LPAREN
}

func isCloser(kind token.Kind) bool {
	return kind == token.RBRACE || kind == token.RBRACKET || kind == token.RPAREN
}

// synchronize skips tokens until a safe point for ctx: a token ctx accepts,
// a closer an enclosing context accepts, or the start of a new line. Tokens inside nested
// delimiters are skipped as a unit. itemStart is the position at which the
// failed item began; until the parser has moved past it, at least one
// token is skipped so every loop makes progress.
func (p *Parser) synchronize(ctx contextKind, itemStart int) {
	nesting := 0
	for !p.atEnd() {
		t := p.current()
		if nesting == 0 {
			if accepts(ctx, t.Kind) {
				return
			}
			if p.pos > itemStart && ((isCloser(t.Kind) && p.anyAccepts(t.Kind)) || p.startsLine()) {
				return
			}
		}
		switch {
		case isOpener(t.Kind):
			nesting++
		case isCloser(t.Kind) && nesting > 0:
			nesting--
		}
		p.skip()
	}
}
