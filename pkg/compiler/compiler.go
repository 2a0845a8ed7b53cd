// Package compiler chains the DBML stages into one pipeline.
//
// A Compiler owns the node and symbol id generators of its compilation and
// memoizes every stage for the current source revision, so callers can ask
// for any intermediate artifact without recompiling. Setting new source
// resets the generators and discards all artifacts.
package compiler

import (
	"log/slog"
	"sync"
	"time"

	"github.com/leapstack-labs/leapdbml/pkg/ast"
	"github.com/leapstack-labs/leapdbml/pkg/binder"
	"github.com/leapstack-labs/leapdbml/pkg/core"
	"github.com/leapstack-labs/leapdbml/pkg/interpreter"
	"github.com/leapstack-labs/leapdbml/pkg/lexer"
	"github.com/leapstack-labs/leapdbml/pkg/model"
	"github.com/leapstack-labs/leapdbml/pkg/parser"
	"github.com/leapstack-labs/leapdbml/pkg/symbol"
	"github.com/leapstack-labs/leapdbml/pkg/token"
	"github.com/leapstack-labs/leapdbml/pkg/validator"
	_ "github.com/leapstack-labs/leapdbml/pkg/validator/elements" // element kinds
)

// Stage names used in logs.
const (
	StageLex       = "lex"
	StageParse     = "parse"
	StageValidate  = "validate"
	StageBind      = "bind"
	StageInterpret = "interpret"
)

// Option configures a Compiler.
type Option func(*Compiler)

// WithLogger sets the logger. Each stage logs one debug record.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Compiler) { c.logger = logger }
}

// Compiler runs the pipeline over one source text at a time. It is safe
// for concurrent use; stages run at most once per revision.
type Compiler struct {
	mu       sync.Mutex
	logger   *slog.Logger
	source   string
	revision int

	nodeIDs   *core.IDGenerator
	symbolIDs *core.IDGenerator

	tokens    *core.Report[[]*token.Token]
	program   *core.Report[*ast.Program]
	validated *core.Report[*validator.Result]
	bound     *core.Report[*validator.Result]
	database  *core.Report[*model.Database]
}

// New creates a compiler with empty source.
func New(opts ...Option) *Compiler {
	c := &Compiler{
		nodeIDs:   core.NewIDGenerator(),
		symbolIDs: core.NewIDGenerator(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.New(slog.DiscardHandler)
	}
	return c
}

// SetSource replaces the source, resets the id generators and discards
// every memoized artifact.
func (c *Compiler) SetSource(source string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.source = source
	c.revision++
	c.nodeIDs.Reset()
	c.symbolIDs.Reset()
	c.tokens, c.program, c.validated, c.bound, c.database = nil, nil, nil, nil, nil
}

// Source returns the current source.
func (c *Compiler) Source() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.source
}

// Revision counts SetSource calls.
func (c *Compiler) Revision() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.revision
}

// Tokens returns the lexed token stream.
func (c *Compiler) Tokens() core.Report[[]*token.Token] {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lex()
}

// Program returns the parse tree.
func (c *Compiler) Program() core.Report[*ast.Program] {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.parse()
}

// Validated returns the validated tree with its symbol arena and deferred
// references.
func (c *Compiler) Validated() core.Report[*validator.Result] {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.validate()
}

// Bound returns the validated tree after binding.
func (c *Compiler) Bound() core.Report[*validator.Result] {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.bind()
}

// Database returns the interpreted model. Its diagnostics cover every
// stage.
func (c *Compiler) Database() core.Report[*model.Database] {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.interpret()
}

// ---------- Stages ----------

func (c *Compiler) lex() core.Report[[]*token.Token] {
	if c.tokens == nil {
		start := time.Now()
		r := lexer.Lex(c.source)
		c.tokens = &r
		c.logStage(StageLex, start, len(r.Diagnostics()), slog.Int("tokens", len(r.MustValue())))
	}
	return *c.tokens
}

func (c *Compiler) parse() core.Report[*ast.Program] {
	if c.program == nil {
		start := time.Now()
		r := core.Chain(c.lex(), func(tokens []*token.Token) core.Report[*ast.Program] {
			return parser.Parse(tokens, c.nodeIDs)
		})
		c.program = &r
		c.logStage(StageParse, start, len(r.Diagnostics()), slog.Int("nodes", c.nodeIDs.Issued()))
	}
	return *c.program
}

func (c *Compiler) validate() core.Report[*validator.Result] {
	if c.validated == nil {
		start := time.Now()
		r := core.Chain(c.parse(), func(program *ast.Program) core.Report[*validator.Result] {
			return validator.Validate(program, c.symbolIDs, validator.WithLogger(c.logger))
		})
		c.validated = &r
		c.logStage(StageValidate, start, len(r.Diagnostics()), slog.Int("symbols", c.symbolIDs.Issued()))
	}
	return *c.validated
}

func (c *Compiler) bind() core.Report[*validator.Result] {
	if c.bound == nil {
		start := time.Now()
		r := core.Chain(c.validate(), func(result *validator.Result) core.Report[*validator.Result] {
			return binder.Bind(result, binder.WithLogger(c.logger))
		})
		c.bound = &r
		c.logStage(StageBind, start, len(r.Diagnostics()))
	}
	return *c.bound
}

func (c *Compiler) interpret() core.Report[*model.Database] {
	if c.database == nil {
		start := time.Now()
		source := c.source
		r := core.Chain(c.bind(), func(result *validator.Result) core.Report[*model.Database] {
			return interpreter.Interpret(result, source, interpreter.WithLogger(c.logger))
		})
		c.database = &r
		c.logStage(StageInterpret, start, len(r.Diagnostics()))
	}
	return *c.database
}

func (c *Compiler) logStage(stage string, start time.Time, diagnostics int, attrs ...slog.Attr) {
	args := []any{
		slog.String("stage", stage),
		slog.Int("revision", c.revision),
		slog.Int("diagnostics", diagnostics),
		slog.Duration("elapsed", time.Since(start)),
	}
	for _, a := range attrs {
		args = append(args, a)
	}
	c.logger.Debug("stage complete", args...)
}

// ---------- Result ----------

// Result bundles every artifact of one compilation.
type Result struct {
	Source      string
	Tokens      []*token.Token
	Program     *ast.Program
	Symbols     *symbol.Arena
	Unresolved  []*validator.Unresolved
	Database    *model.Database
	Diagnostics core.Diagnostics
}

// Result runs the whole pipeline and returns every artifact with the
// diagnostics sorted by start offset.
func (c *Compiler) Result() *Result {
	c.mu.Lock()
	defer c.mu.Unlock()

	db := c.interpret()
	res := &Result{
		Source: c.source,
		Tokens: c.lex().MustValue(),
	}
	if p, ok := c.parse().Value(); ok {
		res.Program = p
	}
	if v, ok := c.bind().Value(); ok {
		res.Symbols = v.Arena
		res.Unresolved = v.Unresolved
	}
	res.Database, _ = db.Value()

	diags := append(core.Diagnostics(nil), db.Diagnostics()...)
	diags.Sort()
	res.Diagnostics = diags
	return res
}

// HasErrors reports whether any diagnostic is an error.
func (r *Result) HasErrors() bool {
	return r.Diagnostics.HasErrors()
}

// NodeAt returns the innermost node covering offset.
func (r *Result) NodeAt(offset int) ast.Node {
	if r.Program == nil {
		return nil
	}
	return ast.NodeAt(r.Program, offset)
}

// Compile runs the pipeline once over source with a fresh compiler.
func Compile(source string, opts ...Option) *Result {
	c := New(opts...)
	c.SetSource(source)
	return c.Result()
}
