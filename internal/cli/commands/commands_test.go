package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapdbml/internal/config"
	"github.com/leapstack-labs/leapdbml/internal/testutil"
	"github.com/leapstack-labs/leapdbml/pkg/core"
)

const validSchema = `Project shop {
  database_type: 'PostgreSQL'
}

Enum status {
  active
  archived
}

Table users as U {
  id int [pk]
  state status
}

Table orders {
  id int [pk]
  user_id int [ref: > U.id]
}
`

const brokenSchema = `Table users {
  org_id int [ref: > orgs.id]
  id int [bogus]
}
`

func testConfig(t *testing.T, out string) *config.Config {
	t.Helper()
	return &config.Config{
		Output:      out,
		CatalogPath: filepath.Join(t.TempDir(), "catalog.db"),
		Include:     []string{config.DefaultInclude},
		Diagnostics: config.DiagnosticsConfig{FailOn: config.DefaultFailOn},
		Watch:       config.WatchConfig{DebounceMS: 10},
	}
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func execute(cmd *cobra.Command, cfg *config.Config, args ...string) (string, string, error) {
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(config.WithConfig(context.Background(), cfg))
	return stdout.String(), stderr.String(), err
}

// ---------- metadata ----------

func TestCommandMetadata(t *testing.T) {
	tests := []struct {
		cmd   *cobra.Command
		use   string
		flags []string
	}{
		{NewCompileCommand(), "compile <file>", nil},
		{NewCheckCommand(), "check [path...]", []string{"jobs"}},
		{NewTokensCommand(), "tokens <file>", []string{"trivia"}},
		{NewSymbolsCommand(), "symbols <file>", []string{"kind"}},
		{NewWatchCommand(), "watch [path...]", nil},
		{NewCatalogCommand(), "catalog", nil},
		{NewLSPCommand("test"), "lsp", nil},
		{NewOrderCommand(), "order <file>", []string{"table", "dependents"}},
		{NewExportCommand(), "export <file>", []string{"write"}},
	}

	for _, tt := range tests {
		t.Run(tt.use, func(t *testing.T) {
			assert.Equal(t, tt.use, tt.cmd.Use)
			assert.NotEmpty(t, tt.cmd.Short, "Short should not be empty")
			assert.NotEmpty(t, tt.cmd.Long, "Long should not be empty")
			for _, flag := range tt.flags {
				assert.NotNil(t, tt.cmd.Flags().Lookup(flag), "flag %q should exist", flag)
			}
		})
	}
}

func TestCatalogSubcommands(t *testing.T) {
	cmd := NewCatalogCommand()

	var names []string
	for _, sub := range cmd.Commands() {
		names = append(names, sub.Name())
	}
	assert.ElementsMatch(t, []string{"save", "list", "show", "delete", "find"}, names)

	save, _, err := cmd.Find([]string{"save"})
	require.NoError(t, err)
	assert.NotNil(t, save.Flags().Lookup("name"))
	assert.NotNil(t, save.Flags().Lookup("force"))
}

func TestNewVersionCommand(t *testing.T) {
	cmd := NewVersionCommand("1.2.3")
	stdout, _, err := execute(cmd, testConfig(t, "text"))
	require.NoError(t, err)
	assert.Contains(t, stdout, "leapdbml v1.2.3")
}

// ---------- compile ----------

func TestCompile_JSON(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "shop.dbml", validSchema)

	stdout, _, err := execute(NewCompileCommand(), testConfig(t, "json"), path)
	require.NoError(t, err)

	var out struct {
		File     string `json:"file"`
		Database struct {
			Tables []struct {
				Name  string `json:"name"`
				Alias string `json:"alias"`
			} `json:"tables"`
			Refs []json.RawMessage `json:"refs"`
		} `json:"database"`
		Diagnostics []DiagnosticOutput `json:"diagnostics"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &out))

	assert.Equal(t, path, out.File)
	require.Len(t, out.Database.Tables, 2)
	assert.Equal(t, "users", out.Database.Tables[0].Name)
	assert.Equal(t, "U", out.Database.Tables[0].Alias)
	assert.Len(t, out.Database.Refs, 1)
	assert.Empty(t, out.Diagnostics)
}

func TestCompile_Markdown(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "shop.dbml", validSchema)

	stdout, _, err := execute(NewCompileCommand(), testConfig(t, "markdown"), path)
	require.NoError(t, err)

	assert.Contains(t, stdout, "# "+path)
	assert.Contains(t, stdout, "## Tables")
	assert.Contains(t, stdout, "| users ")
	assert.Contains(t, stdout, "## Enums")
	assert.NotContains(t, stdout, "\x1b[", "markdown output should not contain ANSI codes")
}

func TestCompile_Stdin(t *testing.T) {
	cmd := NewCompileCommand()
	cmd.SetIn(strings.NewReader(validSchema))

	stdout, _, err := execute(cmd, testConfig(t, "yaml"), StdinPath)
	require.NoError(t, err)
	assert.Contains(t, stdout, "file:")
	assert.Contains(t, stdout, "name: orders")
}

func TestCompile_Diagnostics(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "broken.dbml", brokenSchema)

	stdout, _, err := execute(NewCompileCommand(), testConfig(t, "json"), path)
	require.ErrorIs(t, err, ErrDiagnostics)

	var out CompileOutput
	require.NoError(t, json.Unmarshal([]byte(stdout), &out))
	require.Len(t, out.Diagnostics, 2)
	assert.Equal(t, core.ErrBindingNotFound.String(), out.Diagnostics[0].Code)
	assert.Equal(t, core.ErrUnknownSetting.String(), out.Diagnostics[1].Code)
	assert.Equal(t, "unknown-setting", out.Diagnostics[1].Name)
	assert.Equal(t, 3, out.Diagnostics[1].Line)
}

func TestCompile_DiagnosticsText(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "broken.dbml", brokenSchema)

	stdout, _, err := execute(NewCompileCommand(), testConfig(t, "text"), path)
	require.ErrorIs(t, err, ErrDiagnostics)

	assert.Contains(t, stdout, path+":3:")
	assert.Contains(t, stdout, core.ErrUnknownSetting.String())
	assert.Contains(t, stdout, "    3 |   id int [bogus]")
	assert.Contains(t, stdout, "^")
}

func TestCompile_DisabledCodes(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "broken.dbml", brokenSchema)

	cfg := testConfig(t, "json")
	cfg.Diagnostics.Disabled = []string{"binding-not-found", core.ErrUnknownSetting.String()}

	stdout, _, err := execute(NewCompileCommand(), cfg, path)
	require.NoError(t, err)

	var out CompileOutput
	require.NoError(t, json.Unmarshal([]byte(stdout), &out))
	assert.Empty(t, out.Diagnostics)
}

func TestCompile_SeverityOverride(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "broken.dbml", brokenSchema)

	cfg := testConfig(t, "json")
	cfg.Diagnostics.Severity = map[string]string{
		"binding-not-found": "warning",
		"unknown-setting":   "warning",
	}
	_, _, err := execute(NewCompileCommand(), cfg, path)
	require.NoError(t, err)

	cfg.Diagnostics.FailOn = "warning"
	_, _, err = execute(NewCompileCommand(), cfg, path)
	require.ErrorIs(t, err, ErrDiagnostics)
}

func TestCompile_MissingFile(t *testing.T) {
	_, _, err := execute(NewCompileCommand(), testConfig(t, "json"), filepath.Join(t.TempDir(), "nope.dbml"))
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrDiagnostics)
}

// ---------- check ----------

func TestCheck_Directory(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.dbml", validSchema)
	writeFile(t, dir, "nested/b.dbml", brokenSchema)
	writeFile(t, dir, ".hidden/c.dbml", brokenSchema)
	writeFile(t, dir, "notes.txt", "not dbml")

	stdout, _, err := execute(NewCheckCommand(), testConfig(t, "json"), dir, "--jobs", "2")
	require.ErrorIs(t, err, ErrDiagnostics)

	var out CheckOutput
	require.NoError(t, json.Unmarshal([]byte(stdout), &out))
	require.Len(t, out.Files, 2)
	assert.Equal(t, filepath.Join(dir, "a.dbml"), out.Files[0].File)
	assert.Equal(t, 2, out.Files[0].Tables)
	assert.Equal(t, 0, out.Files[0].Diagnostics)
	assert.Equal(t, filepath.Join(dir, "nested", "b.dbml"), out.Files[1].File)
	assert.Equal(t, 2, out.Files[1].Diagnostics)
	assert.Equal(t, 2, out.Errors)
	assert.Len(t, out.Diagnostics, 2)
}

func TestCheck_Clean(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.dbml", validSchema)

	_, stderr, err := execute(NewCheckCommand(), testConfig(t, "text"), dir)
	require.NoError(t, err)
	assert.Contains(t, stderr, "1 file(s) checked: 0 error(s), 0 warning(s)")
}

func TestCheck_NoFiles(t *testing.T) {
	_, stderr, err := execute(NewCheckCommand(), testConfig(t, "text"), t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, stderr, "No DBML files found")
}

// ---------- tokens / symbols ----------

func TestTokens(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "t.dbml", "Table users { id int }\n")

	stdout, _, err := execute(NewTokensCommand(), testConfig(t, "json"), path)
	require.NoError(t, err)

	var toks []TokenOutput
	require.NoError(t, json.Unmarshal([]byte(stdout), &toks))
	require.NotEmpty(t, toks)
	assert.Equal(t, "Table", toks[0].Literal)
	assert.Equal(t, 1, toks[0].Line)
	assert.Equal(t, 1, toks[0].Column)
	for _, tok := range toks {
		assert.False(t, tok.Trivia, "trivia should be hidden by default")
	}

	stdout, _, err = execute(NewTokensCommand(), testConfig(t, "json"), path, "--trivia")
	require.NoError(t, err)

	var all []TokenOutput
	require.NoError(t, json.Unmarshal([]byte(stdout), &all))
	assert.Greater(t, len(all), len(toks))

	var text strings.Builder
	for _, tok := range all {
		text.WriteString(tok.Literal)
	}
	assert.Equal(t, "Table users { id int }\n", text.String())
}

func TestTokens_FlagsSkippedTokens(t *testing.T) {
	src := "Table a { ) \n}\n"
	path := writeFile(t, t.TempDir(), "t.dbml", src)

	stdout, _, err := execute(NewTokensCommand(), testConfig(t, "json"), path, "--trivia")
	require.ErrorIs(t, err, ErrDiagnostics)

	var toks []TokenOutput
	require.NoError(t, json.Unmarshal([]byte(stdout), &toks))
	var invalid []string
	var text strings.Builder
	for _, tok := range toks {
		if tok.Invalid {
			invalid = append(invalid, tok.Literal)
		}
		text.WriteString(tok.Literal)
	}
	assert.Equal(t, []string{")"}, invalid)
	assert.Equal(t, src, text.String())
}

func TestSymbols(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "shop.dbml", validSchema)

	stdout, _, err := execute(NewSymbolsCommand(), testConfig(t, "json"), path, "--kind", "table")
	require.NoError(t, err)

	var syms []SymbolOutput
	require.NoError(t, json.Unmarshal([]byte(stdout), &syms))
	require.Len(t, syms, 2)
	assert.Equal(t, "users", syms[0].Name)
	assert.Equal(t, "Table", syms[0].Kind)
	assert.Equal(t, "orders", syms[1].Name)
}

func TestSymbols_Markdown(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "shop.dbml", validSchema)

	stdout, _, err := execute(NewSymbolsCommand(), testConfig(t, "markdown"), path)
	require.NoError(t, err)
	assert.Contains(t, stdout, "## Summary")
	assert.Contains(t, stdout, "Enum Field")
}

func TestSplitWords(t *testing.T) {
	assert.Equal(t, "table group field", splitWords("TableGroupField"))
	assert.Equal(t, "table", splitWords("Table"))
}

// ---------- catalog ----------

func TestCatalog_Lifecycle(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "shop.dbml", validSchema)
	cfg := testConfig(t, "json")

	stdout, _, err := execute(NewCatalogCommand(), cfg, "save", path)
	require.NoError(t, err)
	var saved SnapshotOutput
	require.NoError(t, json.Unmarshal([]byte(stdout), &saved))
	assert.Equal(t, "shop", saved.Name)
	assert.Equal(t, 2, saved.Tables)
	assert.Equal(t, 1, saved.Refs)
	assert.Equal(t, 1, saved.Enums)
	assert.FileExists(t, cfg.CatalogPath)

	stdout, _, err = execute(NewCatalogCommand(), cfg, "list")
	require.NoError(t, err)
	var listed []SnapshotOutput
	require.NoError(t, json.Unmarshal([]byte(stdout), &listed))
	require.Len(t, listed, 1)
	assert.Equal(t, saved.ID, listed[0].ID)
	assert.Nil(t, listed[0].Database)

	stdout, _, err = execute(NewCatalogCommand(), cfg, "show", "shop")
	require.NoError(t, err)
	var shown SnapshotOutput
	require.NoError(t, json.Unmarshal([]byte(stdout), &shown))
	assert.Equal(t, saved.ID, shown.ID)
	require.NotNil(t, shown.Database)
	assert.Len(t, shown.Database.Tables, 2)

	stdout, _, err = execute(NewCatalogCommand(), cfg, "find", "orders")
	require.NoError(t, err)
	var found []TableEntryOutput
	require.NoError(t, json.Unmarshal([]byte(stdout), &found))
	require.Len(t, found, 1)
	assert.Equal(t, saved.ID, found[0].SnapshotID)
	assert.Equal(t, 2, found[0].Columns)

	_, _, err = execute(NewCatalogCommand(), cfg, "delete", saved.ID)
	require.NoError(t, err)

	_, _, err = execute(NewCatalogCommand(), cfg, "show", saved.ID)
	require.Error(t, err)
}

func TestCatalog_SaveRefusesErrors(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "broken.dbml", brokenSchema)
	cfg := testConfig(t, "json")

	_, _, err := execute(NewCatalogCommand(), cfg, "save", path)
	require.ErrorIs(t, err, ErrDiagnostics)

	stdout, _, err := execute(NewCatalogCommand(), cfg, "save", path, "--force", "--name", "draft")
	require.NoError(t, err)
	var saved SnapshotOutput
	require.NoError(t, json.Unmarshal([]byte(stdout), &saved))
	assert.Equal(t, "draft", saved.Name)
}

func TestCatalog_ListMarkdown(t *testing.T) {
	cfg := testConfig(t, "markdown")

	_, stderr, err := execute(NewCatalogCommand(), cfg, "list")
	require.NoError(t, err)
	assert.Contains(t, stderr, "No snapshots saved")

	path := writeFile(t, t.TempDir(), "shop.dbml", validSchema)
	_, _, err = execute(NewCatalogCommand(), cfg, "save", path)
	require.NoError(t, err)

	stdout, _, err := execute(NewCatalogCommand(), cfg, "list")
	require.NoError(t, err)
	assert.Contains(t, stdout, "# Snapshots")
	assert.Contains(t, stdout, "| shop ")
}

func TestSnapshotName(t *testing.T) {
	assert.Equal(t, "shop", snapshotName("schemas/shop.dbml"))
	assert.Equal(t, "stdin", snapshotName(StdinPath))
	assert.Equal(t, "abcdef12", shortID("abcdef12-3456"))
	assert.Equal(t, "abc", shortID("abc"))
}

// ---------- discovery ----------

func TestDiscoverFiles(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.dbml", "")
	b := writeFile(t, dir, "sub/b.dbml", "")
	writeFile(t, dir, ".git/c.dbml", "")
	other := writeFile(t, dir, "x.sql", "")

	files, err := discoverFiles([]string{dir}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{a, b}, files)

	files, err = discoverFiles([]string{other, dir}, []string{"*.sql"})
	require.NoError(t, err)
	assert.Equal(t, []string{other}, files, "explicit files are kept and duplicates dropped")

	_, err = discoverFiles([]string{filepath.Join(dir, "missing")}, nil)
	require.Error(t, err)
}

// ---------- watch ----------

func newTestWatcher(t *testing.T) (*dbmlWatcher, *bytes.Buffer) {
	t.Helper()
	cmd := NewWatchCommand()
	var stdout bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stdout)

	ctx := config.WithConfig(context.Background(), testConfig(t, "markdown"))
	ctx = config.WithLogger(ctx, testutil.NewTestLogger(t))
	cmd.SetContext(ctx)

	return newDBMLWatcher(NewCommandContext(cmd)), &stdout
}

func TestWatcher_Recompile(t *testing.T) {
	w, out := newTestWatcher(t)
	path := writeFile(t, t.TempDir(), "shop.dbml", validSchema)

	doc, err := w.recompile(path)
	require.NoError(t, err)
	assert.Equal(t, 1, doc.Version)
	assert.False(t, doc.HasErrors())

	require.NoError(t, os.WriteFile(path, []byte(brokenSchema), 0o600))
	doc, err = w.recompile(path)
	require.NoError(t, err)
	assert.Equal(t, 2, doc.Version)
	assert.True(t, doc.HasErrors())
	assert.Contains(t, out.String(), "(v2): 2 error(s)")

	w.forget(path)
	assert.Nil(t, w.prov.Get(path))

	_, err = w.recompile(filepath.Join(t.TempDir(), "gone.dbml"))
	require.Error(t, err)
}

func TestWatcher_Loop(t *testing.T) {
	w, _ := newTestWatcher(t)
	dir := t.TempDir()
	path := writeFile(t, dir, "shop.dbml", validSchema)

	fw, err := fsnotify.NewWatcher()
	require.NoError(t, err)
	defer func() { _ = fw.Close() }()
	require.NoError(t, fw.Add(dir))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- w.loop(ctx, fw, func(name string) bool {
			return matchesInclude(filepath.Base(name), nil)
		}, 10*time.Millisecond)
	}()

	require.NoError(t, os.WriteFile(path, []byte(brokenSchema), 0o600))
	writeFile(t, dir, "ignored.txt", "x")

	assert.Eventually(t, func() bool {
		doc := w.prov.Get(path)
		return doc != nil && doc.HasErrors()
	}, 5*time.Second, 20*time.Millisecond)
	assert.Nil(t, w.prov.Get(filepath.Join(dir, "ignored.txt")))

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch loop did not stop")
	}
}

func TestWatchDirs(t *testing.T) {
	dir := t.TempDir()
	file := writeFile(t, dir, "sub/a.dbml", "")
	writeFile(t, dir, ".cache/x.dbml", "")

	dirs, err := watchDirs([]string{dir}, []string{file})
	require.NoError(t, err)
	assert.Equal(t, []string{dir, filepath.Join(dir, "sub")}, dirs)
}

// ---------- lsp ----------

func TestLSP_Session(t *testing.T) {
	frame := func(body string) string {
		return fmt.Sprintf("Content-Length: %d\r\n\r\n%s", len(body), body)
	}
	input := frame(`{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"rootUri":"file:///tmp"}}`) +
		frame(`{"jsonrpc":"2.0","method":"textDocument/didOpen","params":{"textDocument":{"uri":"file:///tmp/a.dbml","languageId":"dbml","version":1,"text":"Table users {\n  id int [bogus]\n}"}}}`) +
		frame(`{"jsonrpc":"2.0","id":2,"method":"shutdown"}`) +
		frame(`{"jsonrpc":"2.0","method":"exit"}`)

	cmd := NewLSPCommand("1.2.3")
	cmd.SetIn(strings.NewReader(input))
	out, _, err := execute(cmd, testConfig(t, "text"))
	require.NoError(t, err)

	assert.Contains(t, out, `"name":"leapdbml","version":"1.2.3"`)
	assert.Contains(t, out, `"method":"textDocument/publishDiagnostics"`)
	assert.Contains(t, out, `"code":"E3202"`)
}

// ---------- order ----------

const orderSchema = `Table users {
  id int [pk]
  manager_id int [ref: > users.id]
}

Table orders {
  id int [pk]
  user_id int [ref: > users.id]
}

Table line_items {
  order_id int [ref: > orders.id]
}

Table tags {
  id int [pk]
}

Ref: tags.id <> orders.id
`

func TestOrder_JSON(t *testing.T) {
	path := writeFile(t, t.TempDir(), "shop.dbml", orderSchema)

	out, _, err := execute(NewOrderCommand(), testConfig(t, "json"), path)
	require.NoError(t, err)

	var result OrderOutput
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, [][]string{{"tags", "users"}, {"orders"}, {"line_items"}}, result.Levels)
	require.Len(t, result.Tables, 4)
	assert.Equal(t, "orders", result.Tables[2].Name)
	assert.Equal(t, []string{"users"}, result.Tables[2].References)
	assert.Equal(t, []string{"users.manager_id > users.id"}, result.SelfReferences)
	assert.Equal(t, []string{"tags.id <> orders.id"}, result.ManyToMany)
	assert.Empty(t, result.Cycle)
}

func TestOrder_TableFilter(t *testing.T) {
	path := writeFile(t, t.TempDir(), "shop.dbml", orderSchema)

	out, _, err := execute(NewOrderCommand(), testConfig(t, "json"), path, "--table", "line_items")
	require.NoError(t, err)
	var upstream OrderOutput
	require.NoError(t, json.Unmarshal([]byte(out), &upstream))
	assert.Equal(t, [][]string{{"users"}, {"orders"}, {"line_items"}}, upstream.Levels)

	out, _, err = execute(NewOrderCommand(), testConfig(t, "json"), path, "--table", "orders", "--dependents")
	require.NoError(t, err)
	var affected OrderOutput
	require.NoError(t, json.Unmarshal([]byte(out), &affected))
	assert.Equal(t, [][]string{{"orders"}, {"line_items"}}, affected.Levels)

	_, _, err = execute(NewOrderCommand(), testConfig(t, "json"), path, "--table", "nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `table "nope" not found`)
}

func TestOrder_Cycle(t *testing.T) {
	src := "Table a {\n  id int [pk]\n  b_id int [ref: > b.id]\n}\nTable b {\n  id int [pk]\n  a_id int [ref: > a.id]\n}\n"
	path := writeFile(t, t.TempDir(), "cycle.dbml", src)

	_, stderr, err := execute(NewOrderCommand(), testConfig(t, "markdown"), path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cycle detected: a -> b -> a")
	assert.Contains(t, stderr, "Foreign key cycle: a -> b -> a")
}

func TestOrder_RefusesErrors(t *testing.T) {
	path := writeFile(t, t.TempDir(), "broken.dbml", brokenSchema)

	_, _, err := execute(NewOrderCommand(), testConfig(t, "json"), path)
	require.ErrorIs(t, err, ErrDiagnostics)
}

// ---------- export ----------

func TestExport_Stdout(t *testing.T) {
	path := writeFile(t, t.TempDir(), "shop.dbml", validSchema)

	out, _, err := execute(NewExportCommand(), testConfig(t, "markdown"), path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "Project shop {\n  database_type: 'PostgreSQL'\n}\n"))
	assert.Contains(t, out, "Table users as U {\n  id int [pk]\n  state status\n}\n")
	assert.Contains(t, out, "  user_id int [ref: > users.id]\n")
}

func TestExport_JSON(t *testing.T) {
	path := writeFile(t, t.TempDir(), "shop.dbml", validSchema)

	out, _, err := execute(NewExportCommand(), testConfig(t, "json"), path)
	require.NoError(t, err)
	var result ExportOutput
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, path, result.File)
	assert.Contains(t, result.DBML, "Enum status {")
}

func TestExport_Write(t *testing.T) {
	path := writeFile(t, t.TempDir(), "shop.dbml", "Table users {\n    id   int [pk] // key\n}\n")

	_, stderr, err := execute(NewExportCommand(), testConfig(t, "text"), path, "--write")
	require.NoError(t, err)
	assert.Contains(t, stderr, "Rewrote")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "Table users {\n  id int [pk]\n}\n", string(data))

	_, stderr, err = execute(NewExportCommand(), testConfig(t, "text"), path, "--write")
	require.NoError(t, err)
	assert.Contains(t, stderr, "already formatted")
}

func TestExport_Errors(t *testing.T) {
	path := writeFile(t, t.TempDir(), "broken.dbml", brokenSchema)
	_, _, err := execute(NewExportCommand(), testConfig(t, "json"), path)
	require.ErrorIs(t, err, ErrDiagnostics)

	_, _, err = execute(NewExportCommand(), testConfig(t, "json"), "-", "--write")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "stdin")
}
