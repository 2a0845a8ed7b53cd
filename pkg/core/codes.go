package core

import (
	"fmt"
	"sort"
)

// ErrorCode is a member of the closed diagnostic taxonomy. The thousands
// digit identifies the stage, the hundreds digit the semantic category.
type ErrorCode int

// Lexical errors.
const (
	ErrUnknownCharacter    ErrorCode = 1001
	ErrUnterminatedString  ErrorCode = 1002
	ErrUnterminatedComment ErrorCode = 1003
	ErrInvalidEscape       ErrorCode = 1004
	ErrInvalidNumber       ErrorCode = 1005
	ErrInvalidColor        ErrorCode = 1006
)

// Syntactic errors.
const (
	ErrUnexpectedToken      ErrorCode = 2001
	ErrMissingToken         ErrorCode = 2002
	ErrUnclosedDelimiter    ErrorCode = 2003
	ErrInvalidElementHeader ErrorCode = 2004
	ErrExpectedNewline      ErrorCode = 2005
	ErrInvalidOperator      ErrorCode = 2006
)

// Semantic errors: context.
const (
	ErrInvalidContext   ErrorCode = 3001
	ErrDuplicateElement ErrorCode = 3002
)

// Semantic errors: identity.
const (
	ErrMissingName     ErrorCode = 3101
	ErrUnexpectedName  ErrorCode = 3102
	ErrInvalidName     ErrorCode = 3103
	ErrDuplicateName   ErrorCode = 3104
	ErrUnexpectedAlias ErrorCode = 3105
	ErrInvalidAlias    ErrorCode = 3106
	ErrDuplicateAlias  ErrorCode = 3107
)

// Semantic errors: settings.
const (
	ErrUnexpectedSettings  ErrorCode = 3201
	ErrUnknownSetting      ErrorCode = 3202
	ErrDuplicateSetting    ErrorCode = 3203
	ErrInvalidSettingValue ErrorCode = 3204
	ErrConflictingSettings ErrorCode = 3205
)

// Semantic errors: shape.
const (
	ErrInvalidBody     ErrorCode = 3301
	ErrInvalidSubfield ErrorCode = 3302
	ErrInvalidRef      ErrorCode = 3303
	ErrEmptyBody       ErrorCode = 3304
)

// Semantic errors: binding.
const (
	ErrBindingNotFound ErrorCode = 3401
	ErrNotAContainer   ErrorCode = 3402
)

// Interpretation errors.
const (
	ErrUnsupportedDefault   ErrorCode = 5001
	ErrSameEndpoint         ErrorCode = 5002
	ErrDuplicateRef         ErrorCode = 5003
	ErrUnsupportedQualifier ErrorCode = 5004
)

// Category groups error codes by the stage and concern that raise them.
type Category string

// Diagnostic categories.
const (
	CategoryLexical        Category = "lexical"
	CategorySyntactic      Category = "syntactic"
	CategoryContext        Category = "context"
	CategoryIdentity       Category = "identity"
	CategorySetting        Category = "setting"
	CategoryShape          Category = "shape"
	CategoryBinding        Category = "binding"
	CategoryInterpretation Category = "interpretation"
	CategoryUnknown        Category = "unknown"
)

// Category returns the category a code belongs to.
func (c ErrorCode) Category() Category {
	switch {
	case c >= 1000 && c < 2000:
		return CategoryLexical
	case c >= 2000 && c < 3000:
		return CategorySyntactic
	case c >= 3000 && c < 3100:
		return CategoryContext
	case c >= 3100 && c < 3200:
		return CategoryIdentity
	case c >= 3200 && c < 3300:
		return CategorySetting
	case c >= 3300 && c < 3400:
		return CategoryShape
	case c >= 3400 && c < 3500:
		return CategoryBinding
	case c >= 5000 && c < 6000:
		return CategoryInterpretation
	default:
		return CategoryUnknown
	}
}

// String renders the code as E<number>.
func (c ErrorCode) String() string {
	return fmt.Sprintf("E%d", int(c))
}

// Known reports whether the code is part of the taxonomy.
func (c ErrorCode) Known() bool {
	_, ok := codeNames[c]
	return ok
}

// Name returns the symbolic name of the code.
func (c ErrorCode) Name() string {
	if n, ok := codeNames[c]; ok {
		return n
	}
	return "unknown"
}

var codeNames = map[ErrorCode]string{
	ErrUnknownCharacter:     "unknown-character",
	ErrUnterminatedString:   "unterminated-string",
	ErrUnterminatedComment:  "unterminated-comment",
	ErrInvalidEscape:        "invalid-escape",
	ErrInvalidNumber:        "invalid-number",
	ErrInvalidColor:         "invalid-color",
	ErrUnexpectedToken:      "unexpected-token",
	ErrMissingToken:         "missing-token",
	ErrUnclosedDelimiter:    "unclosed-delimiter",
	ErrInvalidElementHeader: "invalid-element-header",
	ErrExpectedNewline:      "expected-newline",
	ErrInvalidOperator:      "invalid-operator",
	ErrInvalidContext:       "invalid-context",
	ErrDuplicateElement:     "duplicate-element",
	ErrMissingName:          "missing-name",
	ErrUnexpectedName:       "unexpected-name",
	ErrInvalidName:          "invalid-name",
	ErrDuplicateName:        "duplicate-name",
	ErrUnexpectedAlias:      "unexpected-alias",
	ErrInvalidAlias:         "invalid-alias",
	ErrDuplicateAlias:       "duplicate-alias",
	ErrUnexpectedSettings:   "unexpected-settings",
	ErrUnknownSetting:       "unknown-setting",
	ErrDuplicateSetting:     "duplicate-setting",
	ErrInvalidSettingValue:  "invalid-setting-value",
	ErrConflictingSettings:  "conflicting-settings",
	ErrInvalidBody:          "invalid-body",
	ErrInvalidSubfield:      "invalid-subfield",
	ErrInvalidRef:           "invalid-ref",
	ErrEmptyBody:            "empty-body",
	ErrBindingNotFound:      "binding-not-found",
	ErrNotAContainer:        "not-a-container",
	ErrUnsupportedDefault:   "unsupported-default",
	ErrSameEndpoint:         "same-endpoint-ref",
	ErrDuplicateRef:         "duplicate-ref",
	ErrUnsupportedQualifier: "unsupported-qualifier",
}

// Codes returns every code of the taxonomy in ascending order.
func Codes() []ErrorCode {
	out := make([]ErrorCode, 0, len(codeNames))
	for c := range codeNames {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
