package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapdbml/internal/catalog"
	"github.com/leapstack-labs/leapdbml/pkg/compiler"
	"github.com/leapstack-labs/leapdbml/pkg/model"
)

// SnapshotOutput is the JSON/YAML form of a catalog snapshot.
type SnapshotOutput struct {
	ID         string          `json:"id" yaml:"id"`
	Name       string          `json:"name" yaml:"name"`
	SourcePath string          `json:"source_path" yaml:"source_path"`
	SourceHash string          `json:"source_hash" yaml:"source_hash"`
	CreatedAt  time.Time       `json:"created_at" yaml:"created_at"`
	Tables     int             `json:"tables" yaml:"tables"`
	Refs       int             `json:"refs" yaml:"refs"`
	Enums      int             `json:"enums" yaml:"enums"`
	Database   *model.Database `json:"database,omitempty" yaml:"database,omitempty"`
}

// TableEntryOutput is the JSON/YAML form of a catalog table match.
type TableEntryOutput struct {
	SnapshotID    string `json:"snapshot_id" yaml:"snapshot_id"`
	SnapshotName  string `json:"snapshot_name" yaml:"snapshot_name"`
	QualifiedName string `json:"qualified_name" yaml:"qualified_name"`
	Alias         string `json:"alias,omitempty" yaml:"alias,omitempty"`
	Columns       int    `json:"columns" yaml:"columns"`
	Note          string `json:"note,omitempty" yaml:"note,omitempty"`
}

func toSnapshotOutput(s *catalog.Snapshot) SnapshotOutput {
	return SnapshotOutput{
		ID:         s.ID,
		Name:       s.Name,
		SourcePath: s.SourcePath,
		SourceHash: s.SourceHash,
		CreatedAt:  s.CreatedAt.UTC(),
		Tables:     s.Tables,
		Refs:       s.Refs,
		Enums:      s.Enums,
		Database:   s.Database,
	}
}

// NewCatalogCommand creates the catalog command and its subcommands.
func NewCatalogCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Manage saved schema snapshots",
		Long: `Save compiled DBML schemas into a local SQLite catalog and inspect
them later.

The catalog location comes from catalog_path in leapdbml.yaml, the
LEAPDBML_CATALOG_PATH environment variable or the --catalog flag.`,
	}

	cmd.AddCommand(newCatalogSaveCommand())
	cmd.AddCommand(newCatalogListCommand())
	cmd.AddCommand(newCatalogShowCommand())
	cmd.AddCommand(newCatalogDeleteCommand())
	cmd.AddCommand(newCatalogFindCommand())
	return cmd
}

// openCatalog opens the configured catalog, creating its directory.
func openCatalog(cc *CommandContext) (*catalog.Store, error) {
	path := cc.Cfg.CatalogPath
	if path != catalog.MemoryPath {
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			return nil, fmt.Errorf("failed to create catalog directory: %w", err)
		}
	}
	store := catalog.NewStore()
	if err := store.Open(path); err != nil {
		return nil, err
	}
	cc.Logger.Debug("catalog opened", "path", path)
	return store, nil
}

func withCatalog(cmd *cobra.Command, fn func(ctx context.Context, cc *CommandContext, store *catalog.Store) error) error {
	cc := NewCommandContext(cmd)
	store, err := openCatalog(cc)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()
	return fn(cmd.Context(), cc, store)
}

// ---------- save ----------

func newCatalogSaveCommand() *cobra.Command {
	var name string
	var force bool

	cmd := &cobra.Command{
		Use:   "save <file>",
		Short: "Compile a DBML file and save it as a snapshot",
		Long: `Compile a DBML file and store the resulting model in the catalog.

Files with errors are refused unless --force is given.
The snapshot name defaults to the file name without extension.`,
		Example: `  leapdbml catalog save schema.dbml
  leapdbml catalog save schema.dbml --name billing`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCatalog(cmd, func(ctx context.Context, cc *CommandContext, store *catalog.Store) error {
				return runCatalogSave(ctx, cmd, cc, store, args[0], name, force)
			})
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Snapshot name (default: file name)")
	cmd.Flags().BoolVar(&force, "force", false, "Save even when the file has errors")
	return cmd
}

func runCatalogSave(ctx context.Context, cmd *cobra.Command, cc *CommandContext, store *catalog.Store, path, name string, force bool) error {
	r := cc.Renderer

	source, err := readSource(cmd, path)
	if err != nil {
		return err
	}
	if name == "" {
		name = snapshotName(path)
	}

	res := compiler.Compile(source, compiler.WithLogger(cc.Logger.With("file", path)))
	diags := cc.Cfg.Diagnostics.Apply(res.Diagnostics)
	if diags.HasErrors() && !force {
		renderDiagnostics(r, path, source, diags)
		return fmt.Errorf("refusing to save %s with errors (use --force): %w", path, ErrDiagnostics)
	}

	db := res.Database
	if db == nil {
		db = &model.Database{}
	}
	snap, err := store.Save(ctx, name, path, source, db)
	if err != nil {
		return err
	}

	if wrote, err := r.Data(toSnapshotOutput(snap)); wrote || err != nil {
		return err
	}
	r.Success(fmt.Sprintf("Saved snapshot %s (%s): %d table(s), %d ref(s), %d enum(s)",
		snap.Name, shortID(snap.ID), snap.Tables, snap.Refs, snap.Enums))
	return nil
}

func snapshotName(path string) string {
	if path == StdinPath {
		return "stdin"
	}
	base := filepath.Base(path)
	return base[:len(base)-len(filepath.Ext(base))]
}

// ---------- list ----------

func newCatalogListCommand() *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List saved snapshots, newest first",
		Example: `  leapdbml catalog list
  leapdbml catalog list --name billing -o json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withCatalog(cmd, func(ctx context.Context, cc *CommandContext, store *catalog.Store) error {
				return runCatalogList(ctx, cc, store, name)
			})
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Only list snapshots with this name")
	return cmd
}

func runCatalogList(ctx context.Context, cc *CommandContext, store *catalog.Store, name string) error {
	r := cc.Renderer

	snaps, err := store.List(ctx, name)
	if err != nil {
		return err
	}

	outputs := make([]SnapshotOutput, len(snaps))
	for i := range snaps {
		outputs[i] = toSnapshotOutput(&snaps[i])
	}
	if wrote, err := r.Data(outputs); wrote || err != nil {
		return err
	}

	if len(snaps) == 0 {
		r.Muted("No snapshots saved")
		return nil
	}

	r.Header(1, "Snapshots")
	rows := make([][]string, 0, len(snaps))
	for _, s := range snaps {
		rows = append(rows, []string{
			shortID(s.ID),
			s.Name,
			strconv.Itoa(s.Tables),
			strconv.Itoa(s.Refs),
			strconv.Itoa(s.Enums),
			s.CreatedAt.Local().Format(time.DateTime),
			s.SourcePath,
		})
	}
	r.Table([]string{"ID", "Name", "Tables", "Refs", "Enums", "Created", "Source"}, rows)
	return nil
}

// ---------- show ----------

func newCatalogShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id|name>",
		Short: "Show a snapshot by ID, or the latest snapshot with a name",
		Example: `  leapdbml catalog show billing
  leapdbml catalog show 3f0c2a1e-... -o yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCatalog(cmd, func(ctx context.Context, cc *CommandContext, store *catalog.Store) error {
				return runCatalogShow(ctx, cc, store, args[0])
			})
		},
	}
}

func runCatalogShow(ctx context.Context, cc *CommandContext, store *catalog.Store, ref string) error {
	r := cc.Renderer

	snap, err := store.Get(ctx, ref)
	if errors.Is(err, catalog.ErrNotFound) {
		snap, err = store.Latest(ctx, ref)
	}
	if err != nil {
		return err
	}

	if wrote, err := r.Data(toSnapshotOutput(snap)); wrote || err != nil {
		return err
	}

	title := fmt.Sprintf("%s (%s)", snap.Name, shortID(snap.ID))
	r.Println(r.Styles().Muted.Render(fmt.Sprintf("Saved %s from %s",
		snap.CreatedAt.Local().Format(time.DateTime), snap.SourcePath)))
	if snap.Database != nil {
		renderDatabase(r, title, snap.Database)
	}
	return nil
}

// ---------- delete ----------

func newCatalogDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "delete <id>",
		Short:   "Delete a snapshot",
		Example: `  leapdbml catalog delete 3f0c2a1e-...`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCatalog(cmd, func(ctx context.Context, cc *CommandContext, store *catalog.Store) error {
				if err := store.Delete(ctx, args[0]); err != nil {
					return err
				}
				cc.Renderer.Success("Deleted snapshot " + args[0])
				return nil
			})
		},
	}
}

// ---------- find ----------

func newCatalogFindCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "find <table>",
		Short: "Find snapshots containing a table",
		Long: `List every snapshot containing the given table. Tables declared with
a schema are matched by their qualified name.`,
		Example: `  leapdbml catalog find users
  leapdbml catalog find billing.invoices`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCatalog(cmd, func(ctx context.Context, cc *CommandContext, store *catalog.Store) error {
				return runCatalogFind(ctx, cc, store, args[0])
			})
		},
	}
}

func runCatalogFind(ctx context.Context, cc *CommandContext, store *catalog.Store, table string) error {
	r := cc.Renderer

	entries, err := store.FindTable(ctx, table)
	if err != nil {
		return err
	}

	outputs := make([]TableEntryOutput, len(entries))
	for i, e := range entries {
		outputs[i] = TableEntryOutput(e)
	}
	if wrote, err := r.Data(outputs); wrote || err != nil {
		return err
	}

	if len(entries) == 0 {
		r.Muted(fmt.Sprintf("No snapshot contains %s", table))
		return nil
	}

	r.Header(1, table)
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []string{shortID(e.SnapshotID), e.SnapshotName, e.Alias, strconv.Itoa(e.Columns), oneLine(e.Note)})
	}
	r.Table([]string{"Snapshot", "Name", "Alias", "Columns", "Note"}, rows)
	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
