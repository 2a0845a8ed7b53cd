// Package ast defines the DBML syntax tree.
//
// Every node has a compilation-scoped id and a span derived from the
// tokens and children it was built from. Declaration sites own a symbol and
// reference sites point at a referee symbol; both links are stored as ids
// and each is written at most once.
package ast

import (
	"github.com/leapstack-labs/leapdbml/pkg/core"
	"github.com/leapstack-labs/leapdbml/pkg/token"
)

// Kind identifies the shape of a node.
type Kind int

//nolint:revive // node kinds mirror the grammar productions
const (
	PROGRAM Kind = iota
	ELEMENT_DECLARATION
	ATTRIBUTE
	IDENTIFIER_STREAM
	LITERAL
	VARIABLE
	PRIMARY_EXPRESSION
	PREFIX_EXPRESSION
	INFIX_EXPRESSION
	POSTFIX_EXPRESSION
	FUNCTION_EXPRESSION
	FUNCTION_APPLICATION
	BLOCK_EXPRESSION
	LIST_EXPRESSION
	TUPLE_EXPRESSION
	CALL_EXPRESSION
	GROUP_EXPRESSION
)

var kindNames = [...]string{
	PROGRAM:              "Program",
	ELEMENT_DECLARATION:  "ElementDeclaration",
	ATTRIBUTE:            "Attribute",
	IDENTIFIER_STREAM:    "IdentifierStream",
	LITERAL:              "Literal",
	VARIABLE:             "Variable",
	PRIMARY_EXPRESSION:   "PrimaryExpression",
	PREFIX_EXPRESSION:    "PrefixExpression",
	INFIX_EXPRESSION:     "InfixExpression",
	POSTFIX_EXPRESSION:   "PostfixExpression",
	FUNCTION_EXPRESSION:  "FunctionExpression",
	FUNCTION_APPLICATION: "FunctionApplication",
	BLOCK_EXPRESSION:     "BlockExpression",
	LIST_EXPRESSION:      "ListExpression",
	TUPLE_EXPRESSION:     "TupleExpression",
	CALL_EXPRESSION:      "CallExpression",
	GROUP_EXPRESSION:     "GroupExpression",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "Unknown"
}

// Node is implemented by every syntax node.
type Node interface {
	ID() core.NodeID
	Kind() Kind
	Span() token.Span

	// Symbol is the symbol declared by this node, if any.
	Symbol() core.SymbolID
	SetSymbol(id core.SymbolID) bool
	// Referee is the symbol this node refers to, if any.
	Referee() core.SymbolID
	SetReferee(id core.SymbolID) bool

	// Children returns the direct child nodes in source order.
	Children() []Node
	// Tokens returns the tokens owned directly by this node.
	Tokens() []*token.Token
}

// NodeInfo holds the fields shared by all nodes.
type NodeInfo struct {
	id      core.NodeID
	span    token.Span
	symbol  core.SymbolID
	referee core.SymbolID
}

// ID returns the node id.
func (n *NodeInfo) ID() core.NodeID { return n.id }

// Span returns the node span.
func (n *NodeInfo) Span() token.Span { return n.span }

// Symbol returns the owned symbol id, or 0.
func (n *NodeInfo) Symbol() core.SymbolID { return n.symbol }

// Referee returns the referenced symbol id, or 0.
func (n *NodeInfo) Referee() core.SymbolID { return n.referee }

// SetSymbol records the owned symbol. It returns false if one was already set.
func (n *NodeInfo) SetSymbol(id core.SymbolID) bool {
	if n.symbol != 0 {
		return false
	}
	n.symbol = id
	return true
}

// SetReferee records the referenced symbol. It returns false if one was
// already set.
func (n *NodeInfo) SetReferee(id core.SymbolID) bool {
	if n.referee != 0 {
		return false
	}
	n.referee = id
	return true
}
