package core

// Report is the result of one pipeline stage: an optional value plus every
// diagnostic collected so far. A Report without a value short-circuits the
// stages chained after it while keeping the diagnostics.
type Report[T any] struct {
	value       T
	ok          bool
	diagnostics Diagnostics
}

// NewReport returns a report carrying value and diags.
func NewReport[T any](value T, diags Diagnostics) Report[T] {
	return Report[T]{value: value, ok: true, diagnostics: diags}
}

// Failed returns a report with no value.
func Failed[T any](diags Diagnostics) Report[T] {
	return Report[T]{diagnostics: diags}
}

// Value returns the carried value and whether one is present.
func (r Report[T]) Value() (T, bool) {
	return r.value, r.ok
}

// MustValue returns the value, or the zero value if absent.
func (r Report[T]) MustValue() T {
	return r.value
}

// OK reports whether a value is present.
func (r Report[T]) OK() bool {
	return r.ok
}

// Diagnostics returns the accumulated diagnostics.
func (r Report[T]) Diagnostics() Diagnostics {
	return r.diagnostics
}

// Chain runs next on the value of r and prepends r's diagnostics to the
// result. If r carries no value, next is skipped.
func Chain[T, U any](r Report[T], next func(T) Report[U]) Report[U] {
	if !r.ok {
		return Failed[U](r.diagnostics)
	}
	out := next(r.value)
	merged := make(Diagnostics, 0, len(r.diagnostics)+len(out.diagnostics))
	merged = append(merged, r.diagnostics...)
	merged = append(merged, out.diagnostics...)
	out.diagnostics = merged
	return out
}
