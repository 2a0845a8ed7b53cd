package lexer

import "github.com/leapstack-labs/leapdbml/pkg/token"

// Fold attaches every trivia token of raw to a significant neighbour and
// returns the significant stream.
//
// Trivia following a token on the same line becomes its trailing trivia;
// a newline closes that run. Everything after the newline, up to the next
// significant token, becomes that token's leading trivia. Trivia at the end
// of input ends up in the EOF token's leading list.
func Fold(raw []*token.Token) []*token.Token {
	out := make([]*token.Token, 0, len(raw)/2+1)
	var pending []*token.Token
	var open *token.Token // token still collecting trailing trivia

	for _, t := range raw {
		switch {
		case t.Kind == token.EOF:
			t.Leading = pending
			pending = nil
			out = append(out, t)
			return out
		case t.Kind.IsTrivia():
			if open != nil {
				open.Trailing = append(open.Trailing, t)
				if t.Kind == token.NEWLINE {
					open = nil
				}
				continue
			}
			pending = append(pending, t)
		default:
			t.Leading = pending
			pending = nil
			out = append(out, t)
			open = t
		}
	}
	// raw always ends with EOF, but keep the trivia if it does not.
	if len(pending) > 0 {
		last := pending[len(pending)-1].Span.End
		out = append(out, &token.Token{Kind: token.EOF, Span: token.Span{Start: last, End: last}, Leading: pending})
	}
	return out
}

// StartsLine reports whether tokens[i] is the first significant token on its
// physical line.
func StartsLine(tokens []*token.Token, i int) bool {
	if i <= 0 {
		return true
	}
	return tokens[i-1].EndsLine()
}
