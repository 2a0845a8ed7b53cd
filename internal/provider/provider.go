// Package provider caches compiled DBML documents so repeated requests for
// the same file and version share one compilation.
package provider

import (
	"log/slog"
	"sort"
	"sync"
)

// Provider caches compiled documents keyed by URI.
type Provider struct {
	documents   map[string]*Document
	documentsMu sync.RWMutex

	logger *slog.Logger
}

// Option configures a Provider.
type Option func(*Provider)

// WithLogger sets the logger used by the provider and its compilations.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Provider) { p.logger = logger }
}

// New creates an empty Provider.
func New(opts ...Option) *Provider {
	p := &Provider{documents: make(map[string]*Document)}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = slog.New(slog.DiscardHandler)
	}
	return p
}

// GetOrCompile returns a cached Document or compiles the content if the
// cached version is older than version. Thread-safe for concurrent access.
func (p *Provider) GetOrCompile(uri string, content string, version int) *Document {
	p.documentsMu.RLock()
	doc, exists := p.documents[uri]
	if exists && doc.Version >= version {
		p.documentsMu.RUnlock()
		return doc
	}
	p.documentsMu.RUnlock()

	p.documentsMu.Lock()
	defer p.documentsMu.Unlock()

	// Double-check after acquiring write lock
	doc, exists = p.documents[uri]
	if exists && doc.Version >= version {
		return doc
	}

	doc = Compile(content, uri, version, p.logger)
	p.documents[uri] = doc

	p.logger.Debug("compiled document",
		"uri", uri,
		"version", version,
		"diagnostics", len(doc.Diagnostics()),
		"duration", doc.Elapsed)
	return doc
}

// Get returns a cached Document without compiling.
// Returns nil if not cached.
func (p *Provider) Get(uri string) *Document {
	p.documentsMu.RLock()
	defer p.documentsMu.RUnlock()
	return p.documents[uri]
}

// URIs returns the cached URIs in sorted order.
func (p *Provider) URIs() []string {
	p.documentsMu.RLock()
	defer p.documentsMu.RUnlock()
	out := make([]string, 0, len(p.documents))
	for uri := range p.documents {
		out = append(out, uri)
	}
	sort.Strings(out)
	return out
}

// Invalidate removes a document from the cache.
func (p *Provider) Invalidate(uri string) {
	p.documentsMu.Lock()
	defer p.documentsMu.Unlock()
	delete(p.documents, uri)
}

// InvalidateAll clears the entire document cache.
func (p *Provider) InvalidateAll() {
	p.documentsMu.Lock()
	defer p.documentsMu.Unlock()
	p.documents = make(map[string]*Document)
}
