package parser

import (
	"github.com/leapstack-labs/leapdbml/pkg/ast"
	"github.com/leapstack-labs/leapdbml/pkg/core"
	"github.com/leapstack-labs/leapdbml/pkg/token"
)

// Expression parsing uses a Pratt parser.
//
// Precedence levels:
//
//	PrecedenceNone       = 0
//	PrecedenceAssignment = 1  (=, right-associative)
//	PrecedenceEquality   = 2  (==, !=)
//	PrecedenceComparison = 3  (<, >, <=, >=, <>)
//	PrecedenceAddition   = 4  (+, -)
//	PrecedenceMultiply   = 5  (*, /, %)
//	PrecedenceUnary      = 6  (+, -, <, >, <>, !)
//	PrecedenceCall       = 7  (f(...))
//	PrecedenceMember     = 8  (.)
//
// Operators never continue onto the next line.
const (
	PrecedenceNone = iota
	PrecedenceAssignment
	PrecedenceEquality
	PrecedenceComparison
	PrecedenceAddition
	PrecedenceMultiply
	PrecedenceUnary
	PrecedenceCall
	PrecedenceMember
)

var infixPrecedence = map[string]int{
	"=":  PrecedenceAssignment,
	"==": PrecedenceEquality,
	"!=": PrecedenceEquality,
	"<":  PrecedenceComparison,
	">":  PrecedenceComparison,
	"<=": PrecedenceComparison,
	">=": PrecedenceComparison,
	"<>": PrecedenceComparison,
	"+":  PrecedenceAddition,
	"-":  PrecedenceAddition,
	"*":  PrecedenceMultiply,
	"/":  PrecedenceMultiply,
	"%":  PrecedenceMultiply,
	".":  PrecedenceMember,
}

func isPrefixOperator(op string) bool {
	switch op {
	case "+", "-", "<", ">", "<>", "!":
		return true
	}
	return false
}

// parseExpression parses a juxtaposed run of operands on one line. A single
// operand is returned as is.
func (p *Parser) parseExpression() (ast.Node, *unwind) {
	callee, sig := p.parseExpressionWithPrecedence(PrecedenceAssignment)
	if sig != nil {
		return callee, sig
	}

	var args []ast.Node
	for p.sameLine() && p.canStartOperand() {
		arg, sig := p.parseExpressionWithPrecedence(PrecedenceAssignment)
		if !ast.IsNil(arg) {
			args = append(args, arg)
		}
		if sig != nil {
			return p.application(callee, args), sig
		}
	}
	return p.application(callee, args), nil
}

// application folds callee and args into a FunctionApplication, or into an
// element declaration when the callee is a bare identifier and the last
// argument is a block.
func (p *Parser) application(callee ast.Node, args []ast.Node) ast.Node {
	if len(args) == 0 {
		return callee
	}
	if v, ok := ast.AsVariable(callee); ok && v.Variable.Kind == token.IDENT {
		if _, ok := args[len(args)-1].(*ast.BlockExpression); ok {
			return p.elementFromApplication(v, args)
		}
	}
	return p.nodes.Application(callee, args)
}

// parseExpressionWithPrecedence implements Pratt parsing.
func (p *Parser) parseExpressionWithPrecedence(minPrecedence int) (ast.Node, *unwind) {
	left, sig := p.parsePrefixExpr()
	if sig != nil {
		return left, sig
	}

	for p.sameLine() {
		tok := p.current()
		switch {
		case tok.Kind == token.OP:
			prec, ok := infixPrecedence[tok.Literal]
			if !ok {
				return left, p.fail(core.ErrInvalidOperator, tok, "unknown operator '%s'", tok.Literal)
			}
			if prec < minPrecedence {
				return left, nil
			}
			left, sig = p.parseInfixExpr(left, prec)
			if sig != nil {
				return left, sig
			}

		case tok.Kind == token.LPAREN && !p.previous().HasTrailingTrivia():
			if PrecedenceCall < minPrecedence {
				return left, nil
			}
			args, sig := p.parseParenthesized(true)
			tuple, _ := args.(*ast.TupleExpression)
			left = p.nodes.Call(left, tuple)
			if sig != nil {
				return left, sig
			}

		default:
			return left, nil
		}
	}
	return left, nil
}

// parseInfixExpr parses the operator at the current token and its right
// operand. An operator with nothing after it on the line is postfix.
func (p *Parser) parseInfixExpr(left ast.Node, prec int) (ast.Node, *unwind) {
	op := p.consume()

	if op.Literal == "." {
		right, sig := p.parseMemberOperand()
		return p.nodes.Infix(op, left, right), sig
	}

	if !p.sameLine() || !p.canStartExpression() {
		return p.nodes.Postfix(op, left), nil
	}

	next := prec + 1
	if prec == PrecedenceAssignment {
		next = prec
	}
	right, sig := p.parseExpressionWithPrecedence(next)
	return p.nodes.Infix(op, left, right), sig
}

// parseMemberOperand parses the right side of `.`: a name or a tuple of
// names as in `table.(a, b)`.
func (p *Parser) parseMemberOperand() (ast.Node, *unwind) {
	if !p.sameLine() {
		return nil, p.fail(core.ErrMissingToken, p.current(), "expected a name after '.'")
	}
	switch p.current().Kind {
	case token.IDENT, token.QUOTED_IDENT:
		return p.nodes.Variable(p.consume()), nil
	case token.LPAREN:
		return p.parseParenthesized(true)
	default:
		return nil, p.fail(core.ErrMissingToken, p.current(), "expected a name after '.', found %s", describe(p.current()))
	}
}

// parsePrefixExpr parses prefix operators and primary expressions.
func (p *Parser) parsePrefixExpr() (ast.Node, *unwind) {
	tok := p.current()
	switch tok.Kind {
	case token.OP:
		if !isPrefixOperator(tok.Literal) {
			return nil, p.fail(core.ErrInvalidOperator, tok, "operator '%s' cannot start an expression", tok.Literal)
		}
		op := p.consume()
		if !p.sameLine() || !p.canStartExpression() {
			return p.nodes.Prefix(op, nil), p.fail(core.ErrMissingToken, p.current(),
				"expected an expression after '%s', found %s", op.Literal, describe(p.current()))
		}
		expr, sig := p.parseExpressionWithPrecedence(PrecedenceUnary)
		return p.nodes.Prefix(op, expr), sig

	case token.IDENT, token.QUOTED_IDENT:
		return p.nodes.Variable(p.consume()), nil

	case token.FUNCTION:
		return p.nodes.Function(p.consume()), nil

	case token.LPAREN:
		return p.parseParenthesized(false)

	case token.LBRACKET:
		return p.parseList()

	case token.LBRACE:
		return p.parseBlock()

	default:
		if tok.Kind.IsLiteral() {
			return p.nodes.Literal(p.consume()), nil
		}
		return nil, p.fail(core.ErrUnexpectedToken, tok, "unexpected %s", describe(tok))
	}
}

// parseParenthesized parses `( expr, ... )`. A single element without
// commas is a group unless forceTuple is set (call arguments, composite
// member access).
func (p *Parser) parseParenthesized(forceTuple bool) (ast.Node, *unwind) {
	lparen := p.consume()
	p.push(ctxParen)
	defer p.pop()

	var elems []ast.Node
	var commas []*token.Token
	build := func(rparen *token.Token) ast.Node {
		if !forceTuple && len(elems) == 1 && len(commas) == 0 && rparen != nil {
			return p.nodes.Group(lparen, elems[0], rparen)
		}
		return p.nodes.Tuple(lparen, elems, commas, rparen)
	}

	for {
		if p.check(token.RPAREN) {
			return build(p.consume()), nil
		}
		if p.atEnd() {
			p.addError(core.ErrUnclosedDelimiter, lparen, "unclosed '('")
			return build(nil), nil
		}
		if p.check(token.COMMA) && len(elems) == len(commas) {
			at := p.pos
			p.fail(core.ErrMissingToken, p.current(), "expected an expression before ','")
			p.synchronize(ctxParen, at)
			commas = append(commas, p.consumeIf(token.COMMA)...)
			continue
		}

		itemStart := p.pos
		elem, sig := p.parseExpression()
		if !ast.IsNil(elem) {
			elems = append(elems, elem)
		}
		if sig != nil {
			if sig.depth > 0 {
				return build(nil), &unwind{depth: sig.depth - 1}
			}
			p.synchronize(ctxParen, itemStart)
			commas = append(commas, p.consumeIf(token.COMMA)...)
			continue
		}

		switch {
		case p.check(token.COMMA):
			commas = append(commas, p.consume())
		case p.check(token.RPAREN):
		default:
			at := p.pos
			sig := p.fail(core.ErrMissingToken, p.current(), "expected ',' or ')', found %s", describe(p.current()))
			if sig.depth > 0 {
				return build(nil), &unwind{depth: sig.depth - 1}
			}
			p.synchronize(ctxParen, at)
			commas = append(commas, p.consumeIf(token.COMMA)...)
		}
	}
}

// parseList parses a settings list `[ attribute, ... ]`.
func (p *Parser) parseList() (*ast.ListExpression, *unwind) {
	lbracket := p.consume()
	p.push(ctxList)
	defer p.pop()

	var elems []*ast.Attribute
	var commas []*token.Token
	for {
		if p.check(token.RBRACKET) {
			return p.nodes.List(lbracket, elems, commas, p.consume()), nil
		}
		if p.atEnd() {
			p.addError(core.ErrUnclosedDelimiter, lbracket, "unclosed '['")
			return p.nodes.List(lbracket, elems, commas, nil), nil
		}

		itemStart := p.pos
		attr, sig := p.parseAttribute()
		if attr != nil {
			elems = append(elems, attr)
		}
		if sig != nil {
			if sig.depth > 0 {
				return p.nodes.List(lbracket, elems, commas, nil), &unwind{depth: sig.depth - 1}
			}
			p.synchronize(ctxList, itemStart)
			commas = append(commas, p.consumeIf(token.COMMA)...)
			continue
		}

		switch {
		case p.check(token.COMMA):
			commas = append(commas, p.consume())
		case p.check(token.RBRACKET):
		default:
			at := p.pos
			sig := p.fail(core.ErrMissingToken, p.current(), "expected ',' or ']', found %s", describe(p.current()))
			if sig.depth > 0 {
				return p.nodes.List(lbracket, elems, commas, nil), &unwind{depth: sig.depth - 1}
			}
			p.synchronize(ctxList, at)
			commas = append(commas, p.consumeIf(token.COMMA)...)
		}
	}
}

// parseAttribute parses `name words [: value]`.
func (p *Parser) parseAttribute() (*ast.Attribute, *unwind) {
	var idents []*token.Token
	for p.check(token.IDENT) {
		idents = append(idents, p.consume())
	}
	if len(idents) == 0 {
		return nil, p.fail(core.ErrUnexpectedToken, p.current(), "expected a setting name, found %s", describe(p.current()))
	}
	name := p.nodes.IdentifierStream(idents)
	if !p.check(token.COLON) {
		return p.nodes.Attribute(name, nil, nil), nil
	}
	colon := p.consume()
	if !p.canStartExpression() {
		p.addError(core.ErrMissingToken, colon, "expected a value after '%s:'", name.Text())
		return p.nodes.Attribute(name, colon, nil), nil
	}
	value, sig := p.parseExpression()
	return p.nodes.Attribute(name, colon, value), sig
}

// consumeIf consumes the current token if it has the given kind.
func (p *Parser) consumeIf(k token.Kind) []*token.Token {
	if p.check(k) {
		return []*token.Token{p.consume()}
	}
	return nil
}
