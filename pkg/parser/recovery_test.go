package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/leapstack-labs/leapdbml/pkg/core"
	"github.com/leapstack-labs/leapdbml/pkg/token"
)

func TestUnwindDepth(t *testing.T) {
	tests := []struct {
		name     string
		contexts []contextKind
		kind     token.Kind
		want     int
	}{
		{"closing bracket in list", []contextKind{ctxProgram, ctxBlock, ctxList}, token.RBRACKET, 0},
		{"closing brace from list", []contextKind{ctxProgram, ctxBlock, ctxList}, token.RBRACE, 1},
		{"closing brace from paren in list", []contextKind{ctxProgram, ctxBlock, ctxList, ctxParen}, token.RBRACE, 2},
		{"comma in paren", []contextKind{ctxProgram, ctxList, ctxParen}, token.COMMA, 0},
		{"comma stops at block", []contextKind{ctxProgram, ctxList, ctxBlock}, token.COMMA, 0},
		{"unmatched closer", []contextKind{ctxProgram, ctxBlock}, token.RPAREN, 0},
		{"ordinary token", []contextKind{ctxProgram, ctxBlock, ctxList}, token.IDENT, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := New(nil, core.NewIDGenerator())
			p.contexts = tt.contexts
			assert.Equal(t, tt.want, p.unwindDepth(tt.kind))
		})
	}
}
