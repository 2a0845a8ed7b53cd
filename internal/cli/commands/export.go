package commands

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapdbml/pkg/compiler"
	"github.com/leapstack-labs/leapdbml/pkg/format"
)

// ExportOutput is the JSON/YAML output of the export command.
type ExportOutput struct {
	File string `json:"file" yaml:"file"`
	DBML string `json:"dbml" yaml:"dbml"`
}

// NewExportCommand creates the export command.
func NewExportCommand() *cobra.Command {
	var write bool
	cmd := &cobra.Command{
		Use:   "export <file>",
		Short: "Print a DBML file in canonical form",
		Long: `Compile a DBML file and print the interpreted model back as DBML.

The output is normalized: elements keep their order, settings are written
in a fixed order, table header notes become Note blocks and names are
quoted only when needed. Comments are not preserved.

Files with errors are not exported.`,
		Example: `  # Print the canonical form
  leapdbml export schema.dbml

  # Rewrite the file in place
  leapdbml export schema.dbml --write`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd, args[0], write)
		},
	}
	cmd.Flags().BoolVarP(&write, "write", "w", false, "Write the result back to the file instead of stdout")
	return cmd
}

func runExport(cmd *cobra.Command, path string, write bool) error {
	cc := NewCommandContext(cmd)
	r := cc.Renderer

	if write && path == "-" {
		return errors.New("cannot use --write with stdin")
	}
	source, err := readSource(cmd, path)
	if err != nil {
		return err
	}
	res := compiler.Compile(source, compiler.WithLogger(cc.Logger.With("file", path)))
	diags := cc.Cfg.Diagnostics.Apply(res.Diagnostics)
	if diags.HasErrors() || res.Database == nil {
		renderDiagnostics(r, path, source, diags)
		return fmt.Errorf("cannot export %s: %w", path, ErrDiagnostics)
	}

	text := format.Database(res.Database)
	if write {
		if text == source {
			r.Muted(fmt.Sprintf("%s already formatted", path))
			return nil
		}
		info, err := os.Stat(path)
		if err != nil {
			return err
		}
		if err := os.WriteFile(path, []byte(text), info.Mode().Perm()); err != nil {
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
		cc.Logger.Debug("exported", "file", path, "bytes", len(text))
		r.Success(fmt.Sprintf("Rewrote %s", path))
		return nil
	}

	if wrote, err := r.Data(ExportOutput{File: path, DBML: text}); wrote || err != nil {
		return err
	}
	_, err = io.WriteString(r.Writer(), text)
	return err
}
