package ast

import (
	"reflect"

	"github.com/leapstack-labs/leapdbml/pkg/core"
	"github.com/leapstack-labs/leapdbml/pkg/token"
)

// Builder creates nodes with ids drawn from one compilation's generator and
// spans derived from their tokens and children.
type Builder struct {
	ids *core.IDGenerator
}

// NewBuilder returns a Builder drawing ids from ids.
func NewBuilder(ids *core.IDGenerator) *Builder {
	return &Builder{ids: ids}
}

func (b *Builder) init(n Node, info *NodeInfo) {
	info.id = core.NodeID(b.ids.Next())
	var span token.Span
	for _, t := range n.Tokens() {
		span = span.Union(t.Span)
	}
	for _, c := range n.Children() {
		span = span.Union(c.Span())
	}
	info.span = span
}

// Program creates a Program node.
func (b *Builder) Program(body []*ElementDeclaration, eof *token.Token) *Program {
	n := &Program{Body: body, EOF: eof}
	b.init(n, &n.NodeInfo)
	return n
}

// ElementDeclaration creates an element node from a filled-in template.
func (b *Builder) ElementDeclaration(tmpl ElementDeclaration) *ElementDeclaration {
	n := &tmpl
	n.NodeInfo = NodeInfo{}
	b.init(n, &n.NodeInfo)
	return n
}

// Attribute creates an Attribute node.
func (b *Builder) Attribute(name *IdentifierStream, colon *token.Token, value Node) *Attribute {
	n := &Attribute{Name: name, Colon: colon, Value: value}
	b.init(n, &n.NodeInfo)
	return n
}

// IdentifierStream creates an IdentifierStream node.
func (b *Builder) IdentifierStream(idents []*token.Token) *IdentifierStream {
	n := &IdentifierStream{Identifiers: idents}
	b.init(n, &n.NodeInfo)
	return n
}

// Literal creates a Literal wrapped in a PrimaryExpression.
func (b *Builder) Literal(tok *token.Token) *PrimaryExpression {
	lit := &Literal{Literal: tok}
	b.init(lit, &lit.NodeInfo)
	return b.Primary(lit)
}

// Variable creates a Variable wrapped in a PrimaryExpression.
func (b *Builder) Variable(tok *token.Token) *PrimaryExpression {
	v := &Variable{Variable: tok}
	b.init(v, &v.NodeInfo)
	return b.Primary(v)
}

// Primary creates a PrimaryExpression around a Literal or Variable.
func (b *Builder) Primary(inner Node) *PrimaryExpression {
	n := &PrimaryExpression{Expression: inner}
	b.init(n, &n.NodeInfo)
	return n
}

// Prefix creates a PrefixExpression.
func (b *Builder) Prefix(op *token.Token, expr Node) *PrefixExpression {
	n := &PrefixExpression{Op: op, Expression: expr}
	b.init(n, &n.NodeInfo)
	return n
}

// Infix creates an InfixExpression.
func (b *Builder) Infix(op *token.Token, left, right Node) *InfixExpression {
	n := &InfixExpression{Op: op, Left: left, Right: right}
	b.init(n, &n.NodeInfo)
	return n
}

// Postfix creates a PostfixExpression.
func (b *Builder) Postfix(op *token.Token, expr Node) *PostfixExpression {
	n := &PostfixExpression{Op: op, Expression: expr}
	b.init(n, &n.NodeInfo)
	return n
}

// Function creates a FunctionExpression.
func (b *Builder) Function(tok *token.Token) *FunctionExpression {
	n := &FunctionExpression{Value: tok}
	b.init(n, &n.NodeInfo)
	return n
}

// Application creates a FunctionApplication.
func (b *Builder) Application(callee Node, args []Node) *FunctionApplication {
	n := &FunctionApplication{Callee: callee, Args: args}
	b.init(n, &n.NodeInfo)
	return n
}

// Block creates a BlockExpression. rbrace is nil when the block is unclosed.
func (b *Builder) Block(lbrace *token.Token, body []Node, rbrace *token.Token) *BlockExpression {
	n := &BlockExpression{LBrace: lbrace, Body: body, RBrace: rbrace}
	b.init(n, &n.NodeInfo)
	return n
}

// List creates a ListExpression.
func (b *Builder) List(lbracket *token.Token, elems []*Attribute, commas []*token.Token, rbracket *token.Token) *ListExpression {
	n := &ListExpression{LBracket: lbracket, Elements: elems, Commas: commas, RBracket: rbracket}
	b.init(n, &n.NodeInfo)
	return n
}

// Tuple creates a TupleExpression.
func (b *Builder) Tuple(lparen *token.Token, elems []Node, commas []*token.Token, rparen *token.Token) *TupleExpression {
	n := &TupleExpression{LParen: lparen, Elements: elems, Commas: commas, RParen: rparen}
	b.init(n, &n.NodeInfo)
	return n
}

// Call creates a CallExpression.
func (b *Builder) Call(callee Node, args *TupleExpression) *CallExpression {
	n := &CallExpression{Callee: callee, Args: args}
	b.init(n, &n.NodeInfo)
	return n
}

// Group creates a GroupExpression.
func (b *Builder) Group(lparen *token.Token, expr Node, rparen *token.Token) *GroupExpression {
	n := &GroupExpression{LParen: lparen, Expression: expr, RParen: rparen}
	b.init(n, &n.NodeInfo)
	return n
}

// IsNil reports whether n is nil or a typed nil pointer.
func IsNil(n Node) bool {
	if n == nil {
		return true
	}
	v := reflect.ValueOf(n)
	return v.Kind() == reflect.Ptr && v.IsNil()
}
