package provider

import (
	"log/slog"
	"time"

	"github.com/leapstack-labs/leapdbml/pkg/compiler"
	"github.com/leapstack-labs/leapdbml/pkg/core"
	"github.com/leapstack-labs/leapdbml/pkg/model"
)

// Document holds the compilation of a single DBML file.
type Document struct {
	URI     string
	Version int
	Content string

	Result *compiler.Result

	// Metadata
	CompiledAt time.Time
	Elapsed    time.Duration
}

// Compile creates a Document from content, running every stage once.
func Compile(content string, uri string, version int, logger *slog.Logger) *Document {
	start := time.Now()
	res := compiler.Compile(content, compiler.WithLogger(logger.With("uri", uri)))
	return &Document{
		URI:        uri,
		Version:    version,
		Content:    content,
		Result:     res,
		CompiledAt: start,
		Elapsed:    time.Since(start),
	}
}

// Database returns the interpreted database, or nil.
func (d *Document) Database() *model.Database {
	if d == nil || d.Result == nil {
		return nil
	}
	return d.Result.Database
}

// Diagnostics returns every diagnostic of the compilation in source order.
func (d *Document) Diagnostics() core.Diagnostics {
	if d == nil || d.Result == nil {
		return nil
	}
	return d.Result.Diagnostics
}

// HasErrors reports whether the compilation produced an error diagnostic.
func (d *Document) HasErrors() bool {
	return d.Diagnostics().HasErrors()
}
