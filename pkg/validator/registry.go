package validator

import (
	"sort"
	"strings"
	"sync"
)

// globalRegistry holds the element kinds known to the validator.
var globalRegistry = &Registry{
	byKeyword: make(map[string]Element),
	byKind:    make(map[ElementKind]Element),
}

// Registry stores element definitions for keyword dispatch.
type Registry struct {
	mu        sync.RWMutex
	byKeyword map[string]Element
	byKind    map[ElementKind]Element
	fallback  Element
}

// Register adds an element definition. Call this from init() functions.
func Register(e Element) {
	globalRegistry.mu.Lock()
	defer globalRegistry.mu.Unlock()
	globalRegistry.byKind[e.Kind()] = e
	for _, kw := range e.Keywords() {
		globalRegistry.byKeyword[strings.ToLower(kw)] = e
	}
}

// RegisterFallback sets the definition used for unknown keywords.
func RegisterFallback(e Element) {
	globalRegistry.mu.Lock()
	defer globalRegistry.mu.Unlock()
	globalRegistry.byKind[e.Kind()] = e
	globalRegistry.fallback = e
}

// Lookup returns the definition for a type keyword, falling back to the
// catch-all definition. Keywords match case-insensitively.
func Lookup(keyword string) (Element, bool) {
	globalRegistry.mu.RLock()
	defer globalRegistry.mu.RUnlock()
	if e, ok := globalRegistry.byKeyword[strings.ToLower(keyword)]; ok {
		return e, true
	}
	return globalRegistry.fallback, globalRegistry.fallback != nil
}

// Keywords returns every registered keyword, sorted.
func Keywords() []string {
	globalRegistry.mu.RLock()
	defer globalRegistry.mu.RUnlock()
	out := make([]string, 0, len(globalRegistry.byKeyword))
	for kw := range globalRegistry.byKeyword {
		out = append(out, kw)
	}
	sort.Strings(out)
	return out
}

// Count returns the number of registered kinds.
func Count() int {
	globalRegistry.mu.RLock()
	defer globalRegistry.mu.RUnlock()
	return len(globalRegistry.byKind)
}
