// Package token defines the lexical vocabulary of DBML: token kinds,
// source positions and the trivia model.
//
// Significant tokens carry the whitespace, newlines, comments and invalid
// fragments around them as Leading and Trailing trivia, so the primary
// stream never contains trivia while the source stays reconstructible.
package token

import "strings"

// Kind identifies the lexical class of a token.
type Kind int

//nolint:revive // ALL_CAPS kinds mirror the lexical grammar
const (
	// Special tokens
	EOF Kind = iota
	INVALID

	// Trivia
	SPACE         // run of spaces, tabs and lone carriage returns
	NEWLINE       // \n or \r\n
	LINE_COMMENT  // // ...
	BLOCK_COMMENT // /* ... */

	// Punctuation
	COMMA     // ,
	COLON     // :
	SEMICOLON // ;
	LPAREN    // (
	RPAREN    // )
	LBRACE    // {
	RBRACE    // }
	LBRACKET  // [
	RBRACKET  // ]

	// Operators
	OP // . < > <> - + ! = ...

	// Literals
	NUMBER       // 42, 3.14
	STRING       // 'text', '''multi line'''
	QUOTED_IDENT // "first name"
	COLOR        // #ff00aa
	FUNCTION     // `now()`

	IDENT // users, varchar
)

var kindNames = map[Kind]string{
	EOF:           "EOF",
	INVALID:       "INVALID",
	SPACE:         "SPACE",
	NEWLINE:       "NEWLINE",
	LINE_COMMENT:  "LINE_COMMENT",
	BLOCK_COMMENT: "BLOCK_COMMENT",
	COMMA:         ",",
	COLON:         ":",
	SEMICOLON:     ";",
	LPAREN:        "(",
	RPAREN:        ")",
	LBRACE:        "{",
	RBRACE:        "}",
	LBRACKET:      "[",
	RBRACKET:      "]",
	OP:            "OP",
	NUMBER:        "NUMBER",
	STRING:        "STRING",
	QUOTED_IDENT:  "QUOTED_IDENT",
	COLOR:         "COLOR",
	FUNCTION:      "FUNCTION",
	IDENT:         "IDENT",
}

// String returns the display name of the kind.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "UNKNOWN"
}

// IsTrivia reports whether tokens of this kind are folded into trivia lists.
// INVALID tokens are trivia: the lexer has already reported them.
func (k Kind) IsTrivia() bool {
	switch k {
	case SPACE, NEWLINE, LINE_COMMENT, BLOCK_COMMENT, INVALID:
		return true
	}
	return false
}

// IsLiteral reports whether the kind is a literal value.
func (k Kind) IsLiteral() bool {
	switch k {
	case NUMBER, STRING, COLOR, FUNCTION:
		return true
	}
	return false
}

// Token is a single lexical unit.
type Token struct {
	Kind Kind
	// Literal is the processed value: escapes decoded and quotes removed for
	// string-like tokens, the raw text otherwise.
	Literal string
	Span    Span

	Leading  []*Token
	Trailing []*Token

	// Invalid marks a significant token that the parser skipped during
	// error recovery. Such tokens live in trivia lists.
	Invalid bool
}

// Text returns the raw source text of the token itself (no trivia).
func (t *Token) Text(source string) string {
	return t.Span.Text(source)
}

// FullSpan returns the span of the token including its trivia.
func (t *Token) FullSpan() Span {
	s := t.Span
	if len(t.Leading) > 0 {
		s.Start = t.Leading[0].FullSpan().Start
	}
	if len(t.Trailing) > 0 {
		s.End = t.Trailing[len(t.Trailing)-1].FullSpan().End
	}
	return s
}

// EndsLine reports whether a newline follows the token before the next
// significant token.
func (t *Token) EndsLine() bool {
	for _, tr := range t.Trailing {
		if tr.Kind == NEWLINE {
			return true
		}
	}
	return false
}

// HasTrailingTrivia reports whether anything separates the token from the
// next one.
func (t *Token) HasTrailingTrivia() bool {
	return len(t.Trailing) > 0
}

// Is reports whether the token is an operator or identifier with the given
// text. Identifiers compare case-insensitively.
func (t *Token) Is(kind Kind, text string) bool {
	if t == nil || t.Kind != kind {
		return false
	}
	if kind == IDENT {
		return strings.EqualFold(t.Literal, text)
	}
	return t.Literal == text
}

// Flatten returns the token with its trivia expanded in source order.
func (t *Token) Flatten() []*Token {
	out := make([]*Token, 0, len(t.Leading)+len(t.Trailing)+1)
	for _, l := range t.Leading {
		out = append(out, l.Flatten()...)
	}
	out = append(out, &Token{Kind: t.Kind, Literal: t.Literal, Span: t.Span, Invalid: t.Invalid})
	for _, tr := range t.Trailing {
		out = append(out, tr.Flatten()...)
	}
	return out
}
