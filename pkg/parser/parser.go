// Package parser builds a DBML syntax tree from a folded token stream.
//
// # Usage
//
//	tokens := lexer.Lex(src).MustValue()
//	report := parser.Parse(tokens, core.NewIDGenerator())
//	program, _ := report.Value()
//
// The parser always returns a Program. Syntax errors are reported as
// diagnostics and the offending tokens are moved into the trivia of the
// next token the parser keeps, so the tree still covers the whole source.
//
// # Grammar Overview
//
//	program      → element*
//	element      → IDENT [name] ["as" alias] [list] (":" expression | block)
//	block        → "{" (item NEWLINE)* "}"
//	item         → expression | IDENT [name] ":" expression
//	expression   → operand operand*          (juxtaposition, one line)
//	operand      → Pratt expression over prefix/infix/postfix operators,
//	               member access "." and calls "f(...)"
//	list         → "[" attribute ("," attribute)* "]"
//	attribute    → IDENT+ [":" expression]
//
// A juxtaposed run whose callee is a bare identifier and whose last operand
// is a block becomes a nested element declaration, which covers
// `Table users { ... }` inside other blocks.
package parser

import (
	"fmt"
	"slices"

	"github.com/leapstack-labs/leapdbml/pkg/ast"
	"github.com/leapstack-labs/leapdbml/pkg/core"
	"github.com/leapstack-labs/leapdbml/pkg/lexer"
	"github.com/leapstack-labs/leapdbml/pkg/token"
)

// Parser parses DBML tokens into a syntax tree.
type Parser struct {
	tokens []*token.Token
	pos    int
	nodes  *ast.Builder

	contexts []contextKind
	// skipped tokens waiting to be attached to the next kept token
	pending []*token.Token

	diagnostics core.Diagnostics
}

// New creates a parser over a folded token stream ending in EOF. Node ids
// are drawn from ids. The parser works on copies of the tokens, so the
// caller's stream keeps its trivia lists and Invalid flags unchanged.
func New(tokens []*token.Token, ids *core.IDGenerator) *Parser {
	tokens = cloneTokens(tokens)
	if len(tokens) == 0 || tokens[len(tokens)-1].Kind != token.EOF {
		tokens = append(tokens, &token.Token{Kind: token.EOF})
	}
	return &Parser{
		tokens: tokens,
		nodes:  ast.NewBuilder(ids),
	}
}

// cloneTokens copies the significant tokens and their trivia lists. Trivia
// tokens are shared since the parser never modifies them.
func cloneTokens(tokens []*token.Token) []*token.Token {
	out := make([]*token.Token, len(tokens), len(tokens)+1)
	for i, t := range tokens {
		c := *t
		c.Leading = slices.Clone(t.Leading)
		c.Trailing = slices.Clone(t.Trailing)
		out[i] = &c
	}
	return out
}

// Parse parses tokens into a Program.
func Parse(tokens []*token.Token, ids *core.IDGenerator) core.Report[*ast.Program] {
	p := New(tokens, ids)
	program := p.ParseProgram()
	return core.NewReport(program, p.diagnostics)
}

// ParseSource lexes and parses src.
func ParseSource(src string, ids *core.IDGenerator) core.Report[*ast.Program] {
	return core.Chain(lexer.Lex(src), func(tokens []*token.Token) core.Report[*ast.Program] {
		return Parse(tokens, ids)
	})
}

// Diagnostics returns the syntax errors collected so far.
func (p *Parser) Diagnostics() core.Diagnostics {
	return p.diagnostics
}

// ---------- Token Helpers ----------

// current returns the token under examination.
func (p *Parser) current() *token.Token {
	return p.tokens[p.pos]
}

// previous returns the last token before the current one, or nil.
func (p *Parser) previous() *token.Token {
	if p.pos == 0 {
		return nil
	}
	return p.tokens[p.pos-1]
}

// check returns true if the current token is of the given kind.
func (p *Parser) check(k token.Kind) bool {
	return p.current().Kind == k
}

// atEnd returns true at EOF.
func (p *Parser) atEnd() bool {
	return p.check(token.EOF)
}

// startsLine returns true if the current token is the first on its line.
func (p *Parser) startsLine() bool {
	return lexer.StartsLine(p.tokens, p.pos)
}

// sameLine returns true if the current token continues the previous line.
func (p *Parser) sameLine() bool {
	return !p.atEnd() && !p.startsLine()
}

// consume returns the current token and advances. Tokens skipped since the
// last consume are prepended to its leading trivia.
func (p *Parser) consume() *token.Token {
	t := p.current()
	if len(p.pending) > 0 {
		t.Leading = append(p.pending, t.Leading...)
		p.pending = nil
	}
	if !p.atEnd() {
		p.pos++
	}
	return t
}

// skip discards the current token into the invalid bucket.
func (p *Parser) skip() {
	if p.atEnd() {
		return
	}
	t := p.current()
	t.Invalid = true
	p.pending = append(p.pending, t)
	p.pos++
}

// addError records a syntax error against tok.
func (p *Parser) addError(code core.ErrorCode, tok *token.Token, format string, args ...any) {
	p.diagnostics = append(p.diagnostics, core.TokenDiagnostic(code, tok, format, args...))
}

// describe renders a token for error messages.
func describe(t *token.Token) string {
	switch t.Kind {
	case token.EOF:
		return "end of input"
	case token.STRING:
		return "string literal"
	case token.QUOTED_IDENT:
		return fmt.Sprintf("%q", t.Literal)
	case token.FUNCTION:
		return "function expression"
	default:
		return fmt.Sprintf("'%s'", t.Literal)
	}
}

// canStartOperand reports whether the current token can begin an operand
// of a juxtaposed run.
func (p *Parser) canStartOperand() bool {
	switch k := p.current().Kind; k {
	case token.IDENT, token.QUOTED_IDENT, token.LPAREN, token.LBRACKET, token.LBRACE:
		return true
	default:
		return k.IsLiteral()
	}
}

// canStartExpression additionally accepts prefix operators.
func (p *Parser) canStartExpression() bool {
	if p.check(token.OP) {
		return isPrefixOperator(p.current().Literal)
	}
	return p.canStartOperand()
}
