package commands

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/leapstack-labs/leapdbml/internal/cli/output"
	"github.com/leapstack-labs/leapdbml/internal/provider"
	"github.com/leapstack-labs/leapdbml/pkg/core"
)

// CheckOutput is the JSON/YAML output of the check command.
type CheckOutput struct {
	Files       []FileSummary      `json:"files" yaml:"files"`
	Diagnostics []DiagnosticOutput `json:"diagnostics" yaml:"diagnostics"`
	Errors      int                `json:"errors" yaml:"errors"`
	Warnings    int                `json:"warnings" yaml:"warnings"`
}

// FileSummary is the per-file result of a check.
type FileSummary struct {
	File        string `json:"file" yaml:"file"`
	Tables      int    `json:"tables" yaml:"tables"`
	Refs        int    `json:"refs" yaml:"refs"`
	Diagnostics int    `json:"diagnostics" yaml:"diagnostics"`
}

type checkedFile struct {
	path   string
	source string
	doc    *provider.Document
	diags  core.Diagnostics
}

// NewCheckCommand creates the check command.
func NewCheckCommand() *cobra.Command {
	var jobs int
	cmd := &cobra.Command{
		Use:   "check [path...]",
		Short: "Validate DBML files",
		Long: `Compile every DBML file under the given paths and report diagnostics.

Directories are searched recursively for files matching the configured
include patterns (default *.dbml). Files are compiled concurrently; each
compilation is independent.

The command fails when any diagnostic reaches the configured fail_on
severity (default error).`,
		Example: `  # Check every schema under the current directory
  leapdbml check

  # Check specific files, failing on warnings too
  leapdbml check a.dbml b.dbml --fail-on warning

  # Hide a diagnostic code
  leapdbml check --disable E3202`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd, args, jobs)
		},
	}
	cmd.Flags().IntVarP(&jobs, "jobs", "j", runtime.NumCPU(), "Number of files compiled concurrently")
	return cmd
}

func runCheck(cmd *cobra.Command, paths []string, jobs int) error {
	cc := NewCommandContext(cmd)
	r := cc.Renderer

	files, err := discoverFiles(paths, cc.Cfg.Include)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		r.Warning("No DBML files found")
		return nil
	}

	prov := provider.New(provider.WithLogger(cc.Logger))
	results := make([]checkedFile, len(files))

	g, ctx := errgroup.WithContext(cmd.Context())
	if jobs > 0 {
		g.SetLimit(jobs)
	}
	for i, path := range files {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", path, err)
			}
			source := string(data)
			doc := prov.GetOrCompile(path, source, 1)
			results[i] = checkedFile{
				path:   path,
				source: source,
				doc:    doc,
				diags:  cc.Cfg.Diagnostics.Apply(doc.Diagnostics()),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	return reportCheck(cc, results)
}

func reportCheck(cc *CommandContext, results []checkedFile) error {
	r := cc.Renderer

	var (
		all      core.Diagnostics
		outDiags []DiagnosticOutput
		files    []FileSummary
	)
	for _, f := range results {
		db := f.doc.Database()
		s := FileSummary{File: f.path, Diagnostics: len(f.diags)}
		if db != nil {
			s.Tables, s.Refs = len(db.Tables), len(db.Refs)
		}
		files = append(files, s)
		all = append(all, f.diags...)
		outDiags = append(outDiags, toDiagnosticOutputs(f.path, f.diags)...)
	}
	errs, warnings := countBySeverity(all)

	wrote, err := r.Data(&CheckOutput{
		Files:       files,
		Diagnostics: outDiags,
		Errors:      errs,
		Warnings:    warnings,
	})
	if err != nil {
		return err
	}
	if !wrote {
		if r.EffectiveMode() == output.ModeMarkdown {
			r.Header(1, "Check")
		}
		for _, f := range results {
			renderDiagnostics(r, f.path, f.source, f.diags)
		}
		summary := fmt.Sprintf("%d file(s) checked: %d error(s), %d warning(s)", len(results), errs, warnings)
		if errs > 0 {
			r.Error(summary)
		} else {
			r.Success(summary)
		}
	}

	if cc.Cfg.Diagnostics.Fails(all) {
		return fmt.Errorf("%d error(s), %d warning(s): %w", errs, warnings, ErrDiagnostics)
	}
	return nil
}
