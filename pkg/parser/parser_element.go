package parser

import (
	"github.com/leapstack-labs/leapdbml/pkg/ast"
	"github.com/leapstack-labs/leapdbml/pkg/core"
	"github.com/leapstack-labs/leapdbml/pkg/token"
)

// Element parsing
//
//	element  → IDENT [name] ["as" alias] [list] (":" expression | block)
//	block    → "{" (item NEWLINE)* "}"
//	item     → expression | IDENT [name] ":" expression

// ParseProgram parses the whole token stream.
func (p *Parser) ParseProgram() *ast.Program {
	p.push(ctxProgram)
	defer p.pop()

	var body []*ast.ElementDeclaration
	for !p.atEnd() {
		itemStart := p.pos
		if !p.check(token.IDENT) {
			p.fail(core.ErrUnexpectedToken, p.current(), "expected an element declaration, found %s", describe(p.current()))
			p.synchronize(ctxProgram, itemStart)
			continue
		}
		elem, sig := p.parseElementDeclaration()
		body = append(body, elem)
		if sig != nil {
			p.synchronize(ctxProgram, itemStart)
		}
	}
	eof := p.consume()
	return p.nodes.Program(body, eof)
}

// parseElementDeclaration parses a top-level element starting at its type
// keyword.
func (p *Parser) parseElementDeclaration() (*ast.ElementDeclaration, *unwind) {
	var tmpl ast.ElementDeclaration
	var sig *unwind
	tmpl.Type = p.consume()

	if p.sameLine() && !p.check(token.COLON) && !p.check(token.LBRACE) && !p.check(token.LBRACKET) && !p.isAs() {
		tmpl.Name, sig = p.parseExpressionWithPrecedence(PrecedenceAssignment)
		if sig != nil {
			return p.element(tmpl), sig
		}
	}

	if p.sameLine() && p.isAs() {
		tmpl.As = p.consume()
		if p.sameLine() && p.canStartOperand() && !p.check(token.LBRACKET) && !p.check(token.LBRACE) {
			tmpl.Alias, sig = p.parseExpressionWithPrecedence(PrecedenceAssignment)
			if sig != nil {
				return p.element(tmpl), sig
			}
		} else {
			p.addError(core.ErrMissingToken, tmpl.As, "expected an alias after 'as'")
		}
	}

	if p.sameLine() && p.check(token.LBRACKET) {
		tmpl.Attributes, sig = p.parseList()
		if sig != nil {
			return p.element(tmpl), sig
		}
	}

	switch {
	case p.check(token.COLON):
		tmpl.BodyColon = p.consume()
		if p.startsLine() || !p.canStartExpression() {
			p.addError(core.ErrMissingToken, tmpl.BodyColon, "expected an expression after ':'")
			return p.element(tmpl), nil
		}
		tmpl.Body, sig = p.parseExpression()
		return p.element(tmpl), sig
	case p.check(token.LBRACE):
		tmpl.Body, sig = p.parseBlock()
		return p.element(tmpl), sig
	default:
		return p.element(tmpl), p.fail(core.ErrMissingToken, p.current(),
			"expected ':' or '{' after %s header, found %s", tmpl.Type.Literal, describe(p.current()))
	}
}

// isAs reports whether the current token is the `as` keyword.
func (p *Parser) isAs() bool {
	return p.current().Is(token.IDENT, "as")
}

// element builds an element node and links nested elements to it.
func (p *Parser) element(tmpl ast.ElementDeclaration) *ast.ElementDeclaration {
	if ast.IsNil(tmpl.Body) {
		tmpl.Body = nil
	}
	elem := p.nodes.ElementDeclaration(tmpl)
	if block := elem.Block(); block != nil {
		for _, item := range block.Body {
			if child, ok := item.(*ast.ElementDeclaration); ok {
				child.Parent = elem
			}
		}
	}
	return elem
}

// parseBlock parses `{ item* }`.
func (p *Parser) parseBlock() (*ast.BlockExpression, *unwind) {
	lbrace := p.consume()
	p.push(ctxBlock)
	defer p.pop()

	var body []ast.Node
	for {
		if p.check(token.RBRACE) {
			return p.nodes.Block(lbrace, body, p.consume()), nil
		}
		if p.atEnd() {
			p.addError(core.ErrUnclosedDelimiter, lbrace, "unclosed '{'")
			return p.nodes.Block(lbrace, body, nil), nil
		}

		itemStart := p.pos
		item, sig := p.parseBlockItem()
		if !ast.IsNil(item) {
			body = append(body, item)
		}
		if sig != nil {
			if sig.depth > 0 {
				return p.nodes.Block(lbrace, body, nil), &unwind{depth: sig.depth - 1}
			}
			p.synchronize(ctxBlock, itemStart)
			continue
		}

		if !p.check(token.RBRACE) && p.sameLine() {
			at := p.pos
			sig := p.fail(core.ErrExpectedNewline, p.current(), "expected a line break before %s", describe(p.current()))
			if sig.depth > 0 {
				return p.nodes.Block(lbrace, body, nil), &unwind{depth: sig.depth - 1}
			}
			p.synchronize(ctxBlock, at)
		}
	}
}

// parseBlockItem parses one line of a block: an expression, a nested
// complex element, or a simple element `Note: 'text'`.
func (p *Parser) parseBlockItem() (ast.Node, *unwind) {
	head, sig := p.parseExpression()
	if sig != nil {
		return head, sig
	}
	if p.check(token.COLON) && p.sameLine() {
		return p.parseSimpleElement(head)
	}
	return head, nil
}

// parseSimpleElement turns `head : expression` into an element whose head
// is `Type [name]`.
func (p *Parser) parseSimpleElement(head ast.Node) (ast.Node, *unwind) {
	var tmpl ast.ElementDeclaration
	switch h := head.(type) {
	case *ast.FunctionApplication:
		v, ok := ast.AsVariable(h.Callee)
		if !ok || v.Variable.Kind != token.IDENT || len(h.Args) == 0 {
			return head, p.fail(core.ErrInvalidElementHeader, p.current(), "invalid element header before ':'")
		}
		tmpl.Type = v.Variable
		tmpl.Name = h.Args[0]
		tmpl.Stray = h.Args[1:]
		for _, s := range tmpl.Stray {
			p.diagnostics = append(p.diagnostics, core.NodeDiagnostic(core.ErrInvalidElementHeader, s.ID(), s.Span(), "unexpected expression in element header"))
		}
	default:
		v, ok := ast.AsVariable(head)
		if !ok || v.Variable.Kind != token.IDENT {
			return head, p.fail(core.ErrInvalidElementHeader, p.current(), "invalid element header before ':'")
		}
		tmpl.Type = v.Variable
	}

	tmpl.BodyColon = p.consume()
	if !p.sameLine() || !p.canStartExpression() {
		p.addError(core.ErrMissingToken, tmpl.BodyColon, "expected an expression after ':'")
		return p.element(tmpl), nil
	}
	body, sig := p.parseExpression()
	tmpl.Body = body
	return p.element(tmpl), sig
}

// elementFromApplication reinterprets `Type [name] [as alias] [list] {block}`
// written as a juxtaposed run.
func (p *Parser) elementFromApplication(callee *ast.Variable, args []ast.Node) *ast.ElementDeclaration {
	var tmpl ast.ElementDeclaration
	tmpl.Type = callee.Variable
	tmpl.Body = args[len(args)-1]
	rest := args[:len(args)-1]

	isAs := func(n ast.Node) bool {
		v, ok := ast.AsVariable(n)
		return ok && v.Variable.Is(token.IDENT, "as")
	}
	isList := func(n ast.Node) bool {
		_, ok := n.(*ast.ListExpression)
		return ok
	}

	i := 0
	if i < len(rest) && !isList(rest[i]) && !isAs(rest[i]) {
		tmpl.Name = rest[i]
		i++
	}
	if i < len(rest) && isAs(rest[i]) {
		v, _ := ast.AsVariable(rest[i])
		tmpl.As = v.Variable
		i++
		if i < len(rest) && !isList(rest[i]) {
			tmpl.Alias = rest[i]
			i++
		} else {
			p.addError(core.ErrMissingToken, tmpl.As, "expected an alias after 'as'")
		}
	}
	if i < len(rest) && isList(rest[i]) {
		tmpl.Attributes = rest[i].(*ast.ListExpression)
		i++
	}
	for ; i < len(rest); i++ {
		tmpl.Stray = append(tmpl.Stray, rest[i])
		p.diagnostics = append(p.diagnostics, core.NodeDiagnostic(core.ErrInvalidElementHeader, rest[i].ID(), rest[i].Span(),
			"unexpected expression in %s header", tmpl.Type.Literal))
	}
	return p.element(tmpl)
}
