// Package lexer turns DBML source text into a lossless token stream.
//
// Scanning never stops on malformed input: bad fragments become INVALID
// tokens or carry a diagnostic while lexing continues. A second pass folds
// trivia into the adjacent significant tokens (see Fold).
package lexer

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/leapstack-labs/leapdbml/pkg/core"
	"github.com/leapstack-labs/leapdbml/pkg/token"
)

// Lexer scans DBML source.
type Lexer struct {
	input string
	pos   int // current byte offset
	line  int // current line number (1-based)
	col   int // current column number (1-based)

	tokens      []*token.Token
	diagnostics core.Diagnostics
}

// New creates a Lexer for the given input.
func New(input string) *Lexer {
	return &Lexer{
		input: input,
		line:  1,
		col:   1,
	}
}

// Lex scans input and returns the folded significant token stream, which
// always ends with an EOF token.
func Lex(input string) core.Report[[]*token.Token] {
	l := New(input)
	raw := l.Scan()
	return core.NewReport(Fold(raw), l.diagnostics)
}

// Scan returns the raw stream, trivia included, ending with EOF.
func (l *Lexer) Scan() []*token.Token {
	for !l.atEnd() {
		l.scanToken()
	}
	start := l.position()
	l.tokens = append(l.tokens, &token.Token{
		Kind: token.EOF,
		Span: token.Span{Start: start, End: start},
	})
	return l.tokens
}

// Diagnostics returns the lexical diagnostics collected by Scan.
func (l *Lexer) Diagnostics() core.Diagnostics {
	return l.diagnostics
}

// ---------- Character helpers ----------

func (l *Lexer) atEnd() bool {
	return l.pos >= len(l.input)
}

// peek returns the byte n positions ahead, or 0 past the end.
func (l *Lexer) peek(n int) byte {
	if l.pos+n >= len(l.input) {
		return 0
	}
	return l.input[l.pos+n]
}

func (l *Lexer) advance() {
	if l.atEnd() {
		return
	}
	if l.input[l.pos] == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	l.pos++
}

func (l *Lexer) advanceN(n int) {
	for i := 0; i < n; i++ {
		l.advance()
	}
}

func (l *Lexer) position() token.Position {
	return token.Position{Line: l.line, Column: l.col, Offset: l.pos}
}

func (l *Lexer) emit(kind token.Kind, start token.Position, literal string) *token.Token {
	tok := &token.Token{
		Kind:    kind,
		Literal: literal,
		Span:    token.Span{Start: start, End: l.position()},
	}
	l.tokens = append(l.tokens, tok)
	return tok
}

func (l *Lexer) errorf(code core.ErrorCode, span token.Span, format string, args ...any) {
	l.diagnostics = append(l.diagnostics, core.NewDiagnostic(code, span, format, args...))
}

// ---------- Scanning ----------

func (l *Lexer) scanToken() {
	start := l.position()
	ch := l.peek(0)

	switch {
	case ch == '\n':
		l.advance()
		l.emit(token.NEWLINE, start, "\n")
	case ch == '\r' && l.peek(1) == '\n':
		l.advanceN(2)
		l.emit(token.NEWLINE, start, "\r\n")
	case isSpace(ch) || ch == '\r':
		for !l.atEnd() && (isSpace(l.peek(0)) || (l.peek(0) == '\r' && l.peek(1) != '\n')) {
			l.advance()
		}
		l.emit(token.SPACE, start, l.input[start.Offset:l.pos])
	case ch == '/' && l.peek(1) == '/':
		l.scanLineComment(start)
	case ch == '/' && l.peek(1) == '*':
		l.scanBlockComment(start)
	case ch == ',':
		l.single(token.COMMA, start)
	case ch == ':':
		l.single(token.COLON, start)
	case ch == ';':
		l.single(token.SEMICOLON, start)
	case ch == '(':
		l.single(token.LPAREN, start)
	case ch == ')':
		l.single(token.RPAREN, start)
	case ch == '{':
		l.single(token.LBRACE, start)
	case ch == '}':
		l.single(token.RBRACE, start)
	case ch == '[':
		l.single(token.LBRACKET, start)
	case ch == ']':
		l.single(token.RBRACKET, start)
	case ch == '\'' && l.peek(1) == '\'' && l.peek(2) == '\'':
		l.scanTripleQuoted(start)
	case ch == '\'':
		l.scanQuoted(start, '\'', token.STRING, false)
	case ch == '"':
		l.scanQuoted(start, '"', token.QUOTED_IDENT, false)
	case ch == '`':
		l.scanQuoted(start, '`', token.FUNCTION, true)
	case ch == '#':
		l.scanColor(start)
	case isDigit(ch):
		l.scanNumber(start)
	case ch == '.':
		l.single(token.OP, start)
	case isOpChar(ch):
		l.scanOperator(start)
	default:
		r, size := utf8.DecodeRuneInString(l.input[l.pos:])
		if isIdentStart(r) {
			l.scanIdentifier(start)
			return
		}
		l.advanceN(size)
		tok := l.emit(token.INVALID, start, l.input[start.Offset:l.pos])
		l.errorf(core.ErrUnknownCharacter, tok.Span, "unknown character %q", r)
	}
}

func (l *Lexer) single(kind token.Kind, start token.Position) {
	l.advance()
	l.emit(kind, start, l.input[start.Offset:l.pos])
}

func (l *Lexer) scanLineComment(start token.Position) {
	for !l.atEnd() {
		ch := l.peek(0)
		if ch == '\n' || (ch == '\r' && l.peek(1) == '\n') {
			break
		}
		l.advance()
	}
	l.emit(token.LINE_COMMENT, start, l.input[start.Offset:l.pos])
}

// scanBlockComment reads /* ... */. An unterminated comment swallows the
// rest of the input as a single INVALID token.
func (l *Lexer) scanBlockComment(start token.Position) {
	l.advanceN(2)
	for !l.atEnd() {
		if l.peek(0) == '*' && l.peek(1) == '/' {
			l.advanceN(2)
			l.emit(token.BLOCK_COMMENT, start, l.input[start.Offset:l.pos])
			return
		}
		l.advance()
	}
	tok := l.emit(token.INVALID, start, l.input[start.Offset:l.pos])
	l.errorf(core.ErrUnterminatedComment, tok.Span, "unterminated block comment")
}

func (l *Lexer) scanIdentifier(start token.Position) {
	for !l.atEnd() {
		r, size := utf8.DecodeRuneInString(l.input[l.pos:])
		if !isIdentPart(r) {
			break
		}
		l.advanceN(size)
	}
	l.emit(token.IDENT, start, l.input[start.Offset:l.pos])
}

// scanNumber reads digits with an optional fraction. Letters glued to the
// digits are consumed too and reported.
func (l *Lexer) scanNumber(start token.Position) {
	for isDigit(l.peek(0)) {
		l.advance()
	}
	if l.peek(0) == '.' && isDigit(l.peek(1)) {
		l.advance()
		for isDigit(l.peek(0)) {
			l.advance()
		}
	}
	malformed := false
	for !l.atEnd() {
		r, size := utf8.DecodeRuneInString(l.input[l.pos:])
		if !isIdentPart(r) {
			break
		}
		malformed = true
		l.advanceN(size)
	}
	tok := l.emit(token.NUMBER, start, l.input[start.Offset:l.pos])
	if malformed {
		l.errorf(core.ErrInvalidNumber, tok.Span, "invalid numeric literal %q", tok.Literal)
	}
}

func (l *Lexer) scanColor(start token.Position) {
	l.advance()
	for !l.atEnd() {
		r, size := utf8.DecodeRuneInString(l.input[l.pos:])
		if !isIdentPart(r) {
			break
		}
		l.advanceN(size)
	}
	text := l.input[start.Offset:l.pos]
	if len(text) == 1 {
		tok := l.emit(token.INVALID, start, text)
		l.errorf(core.ErrInvalidColor, tok.Span, "expected hex digits after '#'")
		return
	}
	tok := l.emit(token.COLOR, start, text)
	if !IsHexColor(text) {
		l.errorf(core.ErrInvalidColor, tok.Span, "invalid color literal %q", text)
	}
}

func (l *Lexer) scanOperator(start token.Position) {
	for !l.atEnd() && isOpChar(l.peek(0)) {
		if l.peek(0) == '/' && (l.peek(1) == '/' || l.peek(1) == '*') && l.pos > start.Offset {
			break
		}
		l.advance()
	}
	l.emit(token.OP, start, l.input[start.Offset:l.pos])
}

// scanQuoted reads a literal delimited by quote. Single-line literals stop
// at the end of the line and report the missing delimiter.
func (l *Lexer) scanQuoted(start token.Position, quote byte, kind token.Kind, multiline bool) {
	l.advance()
	var b strings.Builder
	closed := false
	for !l.atEnd() {
		ch := l.peek(0)
		if ch == quote {
			l.advance()
			closed = true
			break
		}
		if !multiline && (ch == '\n' || (ch == '\r' && l.peek(1) == '\n')) {
			break
		}
		if ch == '\\' {
			l.scanEscape(&b, false)
			continue
		}
		b.WriteByte(ch)
		l.advance()
	}
	tok := l.emit(kind, start, b.String())
	if !closed {
		l.errorf(core.ErrUnterminatedString, tok.Span, "unterminated %s literal", quoteName(quote))
	}
}

func (l *Lexer) scanTripleQuoted(start token.Position) {
	l.advanceN(3)
	var b strings.Builder
	closed := false
	for !l.atEnd() {
		if l.peek(0) == '\'' && l.peek(1) == '\'' && l.peek(2) == '\'' {
			l.advanceN(3)
			closed = true
			break
		}
		if l.peek(0) == '\\' {
			l.scanEscape(&b, true)
			continue
		}
		b.WriteByte(l.peek(0))
		l.advance()
	}
	tok := l.emit(token.STRING, start, StripIndent(b.String()))
	if !closed {
		l.errorf(core.ErrUnterminatedString, tok.Span, "unterminated multi-line string literal")
	}
}

// scanEscape decodes one backslash escape into b. Unknown escapes are kept
// verbatim.
func (l *Lexer) scanEscape(b *strings.Builder, multiline bool) {
	escStart := l.position()
	l.advance()
	if l.atEnd() {
		b.WriteByte('\\')
		return
	}
	ch := l.peek(0)
	switch ch {
	case 't':
		b.WriteByte('\t')
	case 'n':
		b.WriteByte('\n')
	case 'r':
		b.WriteByte('\r')
	case '\\', '\'', '"', '`':
		b.WriteByte(ch)
	case '0':
		b.WriteByte(0)
	case 'b':
		b.WriteByte('\b')
	case 'v':
		b.WriteByte('\v')
	case 'u':
		l.scanUnicodeEscape(b, escStart)
		return
	case '\n':
		if !multiline {
			b.WriteByte('\\')
			return
		}
		// line continuation
	case '\r':
		if multiline && l.peek(1) == '\n' {
			l.advanceN(2)
			return
		}
		b.WriteByte('\\')
		return
	default:
		b.WriteByte('\\')
		b.WriteByte(ch)
	}
	l.advance()
}

func (l *Lexer) scanUnicodeEscape(b *strings.Builder, escStart token.Position) {
	l.advance() // u
	var r rune
	for i := 0; i < 4; i++ {
		d, ok := hexValue(l.peek(0))
		if !ok {
			span := token.Span{Start: escStart, End: l.position()}
			l.errorf(core.ErrInvalidEscape, span, "invalid unicode escape sequence")
			b.WriteString(l.input[escStart.Offset:l.pos])
			return
		}
		r = r<<4 | rune(d)
		l.advance()
	}
	b.WriteRune(r)
}

// ---------- Character classes ----------

func isSpace(ch byte) bool {
	return ch == ' ' || ch == '\t'
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

func isOpChar(ch byte) bool {
	return strings.IndexByte("+-*/%<>=!&|~^?", ch) >= 0
}

func isIdentStart(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

func isIdentPart(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

func hexValue(ch byte) (int, bool) {
	switch {
	case ch >= '0' && ch <= '9':
		return int(ch - '0'), true
	case ch >= 'a' && ch <= 'f':
		return int(ch-'a') + 10, true
	case ch >= 'A' && ch <= 'F':
		return int(ch-'A') + 10, true
	}
	return 0, false
}

func quoteName(q byte) string {
	switch q {
	case '"':
		return "quoted identifier"
	case '`':
		return "function expression"
	default:
		return "string"
	}
}

// IsHexColor reports whether s is #rgb or #rrggbb.
func IsHexColor(s string) bool {
	if !strings.HasPrefix(s, "#") {
		return false
	}
	digits := s[1:]
	if len(digits) != 3 && len(digits) != 6 {
		return false
	}
	for i := 0; i < len(digits); i++ {
		if _, ok := hexValue(digits[i]); !ok {
			return false
		}
	}
	return true
}

// StripIndent removes a blank first and last line and the indentation
// shared by the remaining non-blank lines.
func StripIndent(s string) string {
	lines := strings.Split(s, "\n")
	if len(lines) > 1 && strings.TrimSpace(lines[0]) == "" {
		lines = lines[1:]
	}
	if len(lines) > 1 && strings.TrimSpace(lines[len(lines)-1]) == "" {
		lines = lines[:len(lines)-1]
	}
	indent := -1
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		n := len(line) - len(strings.TrimLeft(line, " \t"))
		if indent < 0 || n < indent {
			indent = n
		}
	}
	if indent <= 0 {
		return strings.Join(lines, "\n")
	}
	for i, line := range lines {
		if len(line) >= indent {
			lines[i] = line[indent:]
		} else {
			lines[i] = strings.TrimLeft(line, " \t")
		}
	}
	return strings.Join(lines, "\n")
}
