package lexer_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapdbml/pkg/core"
	"github.com/leapstack-labs/leapdbml/pkg/lexer"
	"github.com/leapstack-labs/leapdbml/pkg/token"
)

var losslessInputs = []string{
	"",
	"Table users {\n  id int [pk]\n}\n",
	"// comment only",
	"Table t { a int } /* trailing",
	"Ref: a.x > b.y\r\nTable b {\r\n\ty int\r\n}",
	"'unterminated\nTable x {}",
	"Note n { '''\n    multi\n      line\n  ''' }",
	"@@@ $ \\ \u00e9t\u00e9 12abc #zz # `now()` \"quoted \\u00e9\"",
	"Enum e {\n  \"in stock\" [note: 'it\\'s']\n}",
	"   \n\n  ",
}

func kinds(tokens []*token.Token) []token.Kind {
	out := make([]token.Kind, len(tokens))
	for i, t := range tokens {
		out[i] = t.Kind
	}
	return out
}

func flatten(tokens []*token.Token) []*token.Token {
	var out []*token.Token
	for _, t := range tokens {
		out = append(out, t.Flatten()...)
	}
	return out
}

func TestLex_Lossless(t *testing.T) {
	for _, input := range losslessInputs {
		t.Run(input, func(t *testing.T) {
			tokens, _ := lexer.Lex(input).Value()
			var b strings.Builder
			for _, tok := range flatten(tokens) {
				b.WriteString(tok.Text(input))
			}
			assert.Equal(t, input, b.String())
		})
	}
}

func TestLex_Contiguous(t *testing.T) {
	for _, input := range losslessInputs {
		t.Run(input, func(t *testing.T) {
			tokens, _ := lexer.Lex(input).Value()
			flat := flatten(tokens)
			require.NotEmpty(t, flat)
			assert.Equal(t, 0, flat[0].Span.Start.Offset)
			for i := 1; i < len(flat); i++ {
				assert.Equal(t, flat[i-1].Span.End.Offset, flat[i].Span.Start.Offset, "token %d", i)
			}
			assert.Equal(t, len(input), flat[len(flat)-1].Span.End.Offset)
		})
	}
}

func TestLex_NoTriviaInPrimaryStream(t *testing.T) {
	for _, input := range losslessInputs {
		tokens, _ := lexer.Lex(input).Value()
		for _, tok := range tokens {
			assert.False(t, tok.Kind.IsTrivia(), "%s in primary stream", tok.Kind)
		}
		assert.Equal(t, token.EOF, tokens[len(tokens)-1].Kind)
	}
}

func TestLex_Kinds(t *testing.T) {
	r := lexer.Lex("Table s.t as T [headercolor: #aabbcc] { id int(10) default: -1.5 `now()` }")
	assert.Empty(t, r.Diagnostics())
	assert.Equal(t, []token.Kind{
		token.IDENT, token.IDENT, token.OP, token.IDENT, token.IDENT, token.IDENT,
		token.LBRACKET, token.IDENT, token.COLON, token.COLOR, token.RBRACKET,
		token.LBRACE, token.IDENT, token.IDENT, token.LPAREN, token.NUMBER, token.RPAREN,
		token.IDENT, token.COLON, token.OP, token.NUMBER, token.FUNCTION, token.RBRACE, token.EOF,
	}, kinds(r.MustValue()))
}

func TestLex_Operators(t *testing.T) {
	tokens := lexer.Lex("a <> b < c > d - e.f").MustValue()
	var ops []string
	for _, tok := range tokens {
		if tok.Kind == token.OP {
			ops = append(ops, tok.Literal)
		}
	}
	assert.Equal(t, []string{"<>", "<", ">", "-", "."}, ops)
}

func TestLex_Escapes(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"tab", `'a\tb'`, "a\tb"},
		{"newline", `'a\nb'`, "a\nb"},
		{"quote", `'it\'s'`, "it's"},
		{"double quote", `'say \"hi\"'`, `say "hi"`},
		{"backslash", `'a\\b'`, `a\b`},
		{"nul", `'\0'`, "\x00"},
		{"backspace and vtab", `'\b\v'`, "\b\v"},
		{"unicode", `'\u00e9'`, "\u00e9"},
		{"unknown passes through", `'\q'`, `\q`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := lexer.Lex(tt.input)
			tokens := r.MustValue()
			require.Equal(t, token.STRING, tokens[0].Kind)
			assert.Equal(t, tt.want, tokens[0].Literal)
			assert.Empty(t, r.Diagnostics())
		})
	}
}

func TestLex_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		code  core.ErrorCode
	}{
		{"unterminated string", "'abc\nx", core.ErrUnterminatedString},
		{"unterminated quoted identifier", `"abc`, core.ErrUnterminatedString},
		{"unterminated comment", "/* abc", core.ErrUnterminatedComment},
		{"unknown character", "a @ b", core.ErrUnknownCharacter},
		{"malformed number", "12abc", core.ErrInvalidNumber},
		{"bad unicode escape", `'\u12g4'`, core.ErrInvalidEscape},
		{"bad color", "#12", core.ErrInvalidColor},
		{"bare hash", "# x", core.ErrInvalidColor},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			diags := lexer.Lex(tt.input).Diagnostics()
			require.Len(t, diags, 1)
			assert.Equal(t, tt.code, diags[0].Code)
		})
	}
}

func TestLex_MalformedNumberConsumesGreedily(t *testing.T) {
	tokens := lexer.Lex("12abc x").MustValue()
	require.Len(t, tokens, 3)
	assert.Equal(t, token.NUMBER, tokens[0].Kind)
	assert.Equal(t, "12abc", tokens[0].Literal)
	assert.Equal(t, "x", tokens[1].Literal)
}

func TestLex_UnterminatedCommentIsInvalidTrivia(t *testing.T) {
	tokens := lexer.Lex("Table /* never closed\n x").MustValue()
	require.Len(t, tokens, 2)
	require.Len(t, tokens[0].Trailing, 2)
	assert.Equal(t, token.INVALID, tokens[0].Trailing[1].Kind)
}

func TestLex_TripleQuotedStripsIndent(t *testing.T) {
	tokens := lexer.Lex("'''\n    first\n      second\n  '''").MustValue()
	assert.Equal(t, "first\n  second", tokens[0].Literal)
}

func TestLex_TripleQuotedLineContinuation(t *testing.T) {
	tokens := lexer.Lex("'''a \\\nb'''").MustValue()
	assert.Equal(t, "a b", tokens[0].Literal)
}

func TestFold_LeadingAndTrailing(t *testing.T) {
	input := "// header\nTable a { // note\n  id int\n}\n"
	tokens := lexer.Lex(input).MustValue()

	table := tokens[0]
	require.Len(t, table.Leading, 2)
	assert.Equal(t, token.LINE_COMMENT, table.Leading[0].Kind)
	assert.Equal(t, token.NEWLINE, table.Leading[1].Kind)
	assert.False(t, table.EndsLine())

	lbrace := tokens[2]
	assert.Equal(t, token.LBRACE, lbrace.Kind)
	assert.Equal(t, []token.Kind{token.SPACE, token.LINE_COMMENT, token.NEWLINE}, kinds(lbrace.Trailing))
	assert.True(t, lbrace.EndsLine())

	id := tokens[3]
	assert.True(t, lexer.StartsLine(tokens, 3))
	assert.Equal(t, []token.Kind{token.SPACE}, kinds(id.Leading))
	assert.False(t, lexer.StartsLine(tokens, 4))
}

func TestLex_Positions(t *testing.T) {
	tokens := lexer.Lex("a\n  bc").MustValue()
	require.Len(t, tokens, 3)
	assert.Equal(t, token.Position{Line: 2, Column: 3, Offset: 4}, tokens[1].Span.Start)
	assert.Equal(t, token.Position{Line: 2, Column: 5, Offset: 6}, tokens[1].Span.End)
}
