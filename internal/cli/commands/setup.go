// Package commands implements the leapdbml subcommands.
package commands

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapdbml/internal/cli/output"
	"github.com/leapstack-labs/leapdbml/internal/config"
)

// ErrDiagnostics is returned when a command reports diagnostics at or
// above the configured fail_on severity.
var ErrDiagnostics = errors.New("diagnostics reported")

// StdinPath reads the source from standard input.
const StdinPath = "-"

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Renderer *output.Renderer
}

// NewCommandContext collects the config, logger and renderer stored on the
// command context by the root command.
func NewCommandContext(cmd *cobra.Command) *CommandContext {
	ctx := cmd.Context()
	cfg := config.FromContext(ctx)
	r := output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.Mode(cfg.Output))
	return &CommandContext{
		Cfg:      cfg,
		Logger:   config.GetLogger(ctx),
		Renderer: r,
	}
}

// readSource reads a DBML file, or standard input for "-".
func readSource(cmd *cobra.Command, path string) (string, error) {
	if path == StdinPath {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	return string(data), nil
}

// discoverFiles expands files and directories into the sorted list of DBML
// files to process. Directories are walked recursively and filtered by
// the include patterns; hidden directories are skipped.
func discoverFiles(paths []string, include []string) ([]string, error) {
	if len(paths) == 0 {
		paths = []string{"."}
	}

	seen := make(map[string]bool)
	var files []string
	add := func(p string) {
		if !seen[p] {
			seen[p] = true
			files = append(files, p)
		}
	}

	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("failed to stat %s: %w", p, err)
		}
		if !info.IsDir() {
			add(p)
			continue
		}
		err = filepath.WalkDir(p, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if path != p && len(d.Name()) > 0 && d.Name()[0] == '.' {
					return filepath.SkipDir
				}
				return nil
			}
			if matchesInclude(d.Name(), include) {
				add(path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to walk %s: %w", p, err)
		}
	}

	sort.Strings(files)
	return files, nil
}

func matchesInclude(name string, include []string) bool {
	if len(include) == 0 {
		include = []string{config.DefaultInclude}
	}
	for _, pattern := range include {
		if ok, _ := filepath.Match(pattern, name); ok {
			return true
		}
	}
	return false
}
