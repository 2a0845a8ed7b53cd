package ast

import (
	"strings"

	"github.com/leapstack-labs/leapdbml/pkg/token"
)

// ---------- Program and declarations ----------

// Program is the root of a parse tree.
type Program struct {
	NodeInfo
	Body []*ElementDeclaration
	EOF  *token.Token
}

// ElementDeclaration is `Type [name] [as alias] [settings] (: body | { ... })`.
type ElementDeclaration struct {
	NodeInfo
	Type       *token.Token
	Name       Node
	As         *token.Token
	Alias      Node
	Attributes *ListExpression
	BodyColon  *token.Token
	// Body is a *BlockExpression for complex elements and any expression
	// for simple elements.
	Body Node
	// Stray holds header fragments that fit no header slot.
	Stray []Node

	// Parent is the enclosing element, nil at top level.
	Parent *ElementDeclaration
}

// Keyword returns the element type keyword as written.
func (e *ElementDeclaration) Keyword() string {
	if e.Type == nil {
		return ""
	}
	return e.Type.Literal
}

// IsSimple reports whether the element has a colon-introduced body.
func (e *ElementDeclaration) IsSimple() bool {
	return e.BodyColon != nil
}

// Block returns the body block of a complex element, or nil.
func (e *ElementDeclaration) Block() *BlockExpression {
	b, _ := e.Body.(*BlockExpression)
	return b
}

// Attribute is one entry of a settings list: `name[: value]`.
type Attribute struct {
	NodeInfo
	Name  *IdentifierStream
	Colon *token.Token
	Value Node
}

// SettingName returns the normalised setting name ("not null").
func (a *Attribute) SettingName() string {
	if a.Name == nil {
		return ""
	}
	return strings.ToLower(a.Name.Text())
}

// IdentifierStream is a run of identifiers such as `primary key`.
type IdentifierStream struct {
	NodeInfo
	Identifiers []*token.Token
}

// Text joins the identifiers with single spaces.
func (s *IdentifierStream) Text() string {
	parts := make([]string, len(s.Identifiers))
	for i, t := range s.Identifiers {
		parts[i] = t.Literal
	}
	return strings.Join(parts, " ")
}

// ---------- Expressions ----------

// Literal is a number, string or color literal.
type Literal struct {
	NodeInfo
	Literal *token.Token
}

// Variable is an identifier or quoted identifier.
type Variable struct {
	NodeInfo
	Variable *token.Token
}

// Name returns the identifier value.
func (v *Variable) Name() string {
	return v.Variable.Literal
}

// PrimaryExpression wraps a Literal or Variable in expression position.
type PrimaryExpression struct {
	NodeInfo
	Expression Node
}

// PrefixExpression is `op expr`.
type PrefixExpression struct {
	NodeInfo
	Op         *token.Token
	Expression Node
}

// InfixExpression is `left op right`.
type InfixExpression struct {
	NodeInfo
	Op    *token.Token
	Left  Node
	Right Node
}

// PostfixExpression is `expr op`.
type PostfixExpression struct {
	NodeInfo
	Op         *token.Token
	Expression Node
}

// FunctionExpression is a backtick literal.
type FunctionExpression struct {
	NodeInfo
	Value *token.Token
}

// FunctionApplication is a juxtaposed run `callee arg1 arg2 ...`.
type FunctionApplication struct {
	NodeInfo
	Callee Node
	Args   []Node
}

// BlockExpression is `{ ... }`. Body items are element declarations or
// expressions, one per line.
type BlockExpression struct {
	NodeInfo
	LBrace *token.Token
	Body   []Node
	RBrace *token.Token
}

// ListExpression is a settings list `[a, b: c]`.
type ListExpression struct {
	NodeInfo
	LBracket *token.Token
	Elements []*Attribute
	Commas   []*token.Token
	RBracket *token.Token
}

// TupleExpression is `(a, b, ...)`.
type TupleExpression struct {
	NodeInfo
	LParen   *token.Token
	Elements []Node
	Commas   []*token.Token
	RParen   *token.Token
}

// CallExpression is `callee(args)`.
type CallExpression struct {
	NodeInfo
	Callee Node
	Args   *TupleExpression
}

// GroupExpression is a parenthesised single expression.
type GroupExpression struct {
	NodeInfo
	LParen     *token.Token
	Expression Node
	RParen     *token.Token
}

// ---------- Kind ----------

func (*Program) Kind() Kind             { return PROGRAM }
func (*ElementDeclaration) Kind() Kind  { return ELEMENT_DECLARATION }
func (*Attribute) Kind() Kind           { return ATTRIBUTE }
func (*IdentifierStream) Kind() Kind    { return IDENTIFIER_STREAM }
func (*Literal) Kind() Kind             { return LITERAL }
func (*Variable) Kind() Kind            { return VARIABLE }
func (*PrimaryExpression) Kind() Kind   { return PRIMARY_EXPRESSION }
func (*PrefixExpression) Kind() Kind    { return PREFIX_EXPRESSION }
func (*InfixExpression) Kind() Kind     { return INFIX_EXPRESSION }
func (*PostfixExpression) Kind() Kind   { return POSTFIX_EXPRESSION }
func (*FunctionExpression) Kind() Kind  { return FUNCTION_EXPRESSION }
func (*FunctionApplication) Kind() Kind { return FUNCTION_APPLICATION }
func (*BlockExpression) Kind() Kind     { return BLOCK_EXPRESSION }
func (*ListExpression) Kind() Kind      { return LIST_EXPRESSION }
func (*TupleExpression) Kind() Kind     { return TUPLE_EXPRESSION }
func (*CallExpression) Kind() Kind      { return CALL_EXPRESSION }
func (*GroupExpression) Kind() Kind     { return GROUP_EXPRESSION }

// ---------- Children ----------

func (n *Program) Children() []Node {
	out := make([]Node, 0, len(n.Body))
	for _, e := range n.Body {
		out = append(out, e)
	}
	return out
}

func (n *ElementDeclaration) Children() []Node {
	var out []Node
	out = appendNode(out, n.Name)
	out = appendNode(out, n.Alias)
	if n.Attributes != nil {
		out = append(out, n.Attributes)
	}
	out = append(out, n.Stray...)
	return appendNode(out, n.Body)
}

func (n *Attribute) Children() []Node {
	var out []Node
	if n.Name != nil {
		out = append(out, n.Name)
	}
	return appendNode(out, n.Value)
}

func (n *IdentifierStream) Children() []Node   { return nil }
func (n *Literal) Children() []Node            { return nil }
func (n *Variable) Children() []Node           { return nil }
func (n *FunctionExpression) Children() []Node { return nil }

func (n *PrimaryExpression) Children() []Node { return appendNode(nil, n.Expression) }
func (n *PrefixExpression) Children() []Node  { return appendNode(nil, n.Expression) }
func (n *PostfixExpression) Children() []Node { return appendNode(nil, n.Expression) }
func (n *GroupExpression) Children() []Node   { return appendNode(nil, n.Expression) }

func (n *InfixExpression) Children() []Node {
	return appendNode(appendNode(nil, n.Left), n.Right)
}

func (n *FunctionApplication) Children() []Node {
	return append(appendNode(nil, n.Callee), n.Args...)
}

func (n *BlockExpression) Children() []Node {
	return append([]Node(nil), n.Body...)
}

func (n *ListExpression) Children() []Node {
	out := make([]Node, 0, len(n.Elements))
	for _, a := range n.Elements {
		out = append(out, a)
	}
	return out
}

func (n *TupleExpression) Children() []Node {
	return append([]Node(nil), n.Elements...)
}

func (n *CallExpression) Children() []Node {
	out := appendNode(nil, n.Callee)
	if n.Args != nil {
		out = append(out, n.Args)
	}
	return out
}

// ---------- Tokens ----------

func (n *Program) Tokens() []*token.Token            { return tokens(n.EOF) }
func (n *ElementDeclaration) Tokens() []*token.Token { return tokens(n.Type, n.As, n.BodyColon) }
func (n *Attribute) Tokens() []*token.Token          { return tokens(n.Colon) }
func (n *IdentifierStream) Tokens() []*token.Token {
	return append([]*token.Token(nil), n.Identifiers...)
}
func (n *Literal) Tokens() []*token.Token             { return tokens(n.Literal) }
func (n *Variable) Tokens() []*token.Token            { return tokens(n.Variable) }
func (n *PrimaryExpression) Tokens() []*token.Token   { return nil }
func (n *PrefixExpression) Tokens() []*token.Token    { return tokens(n.Op) }
func (n *InfixExpression) Tokens() []*token.Token     { return tokens(n.Op) }
func (n *PostfixExpression) Tokens() []*token.Token   { return tokens(n.Op) }
func (n *FunctionExpression) Tokens() []*token.Token  { return tokens(n.Value) }
func (n *FunctionApplication) Tokens() []*token.Token { return nil }
func (n *BlockExpression) Tokens() []*token.Token     { return tokens(n.LBrace, n.RBrace) }
func (n *ListExpression) Tokens() []*token.Token {
	return append(tokens(n.LBracket, n.RBracket), n.Commas...)
}
func (n *TupleExpression) Tokens() []*token.Token {
	return append(tokens(n.LParen, n.RParen), n.Commas...)
}
func (n *CallExpression) Tokens() []*token.Token  { return nil }
func (n *GroupExpression) Tokens() []*token.Token { return tokens(n.LParen, n.RParen) }

// appendNode appends n unless it is a nil interface or typed nil.
func appendNode(out []Node, n Node) []Node {
	if IsNil(n) {
		return out
	}
	return append(out, n)
}

func tokens(ts ...*token.Token) []*token.Token {
	out := make([]*token.Token, 0, len(ts))
	for _, t := range ts {
		if t != nil {
			out = append(out, t)
		}
	}
	return out
}
