package commands

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapdbml/internal/provider"
)

// NewWatchCommand creates the watch command.
func NewWatchCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "watch [path...]",
		Short: "Recompile DBML files when they change",
		Long: `Compile every DBML file under the given paths, then watch them and
report fresh diagnostics whenever a file is written.

Rapid successive writes are coalesced using watch.debounce_ms.
Press Ctrl+C to stop.`,
		Example: `  # Watch the current directory
  leapdbml watch

  # Watch one file with a longer debounce
  LEAPDBML_WATCH__DEBOUNCE_MS=500 leapdbml watch schema.dbml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			return runWatch(ctx, cmd, args)
		},
	}
}

// dbmlWatcher recompiles files through a shared provider, bumping the
// version of a file on every change.
type dbmlWatcher struct {
	cc   *CommandContext
	prov *provider.Provider

	mu       sync.Mutex
	versions map[string]int
}

func newDBMLWatcher(cc *CommandContext) *dbmlWatcher {
	return &dbmlWatcher{
		cc:       cc,
		prov:     provider.New(provider.WithLogger(cc.Logger)),
		versions: make(map[string]int),
	}
}

// recompile reads path and compiles it as a new version.
func (w *dbmlWatcher) recompile(path string) (*provider.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	w.mu.Lock()
	w.versions[path]++
	version := w.versions[path]
	defer w.mu.Unlock()

	doc := w.prov.GetOrCompile(path, string(data), version)
	w.report(doc)
	return doc, nil
}

// forget drops a removed file.
func (w *dbmlWatcher) forget(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.versions, path)
	w.prov.Invalidate(path)
	w.cc.Renderer.Muted(fmt.Sprintf("%s removed", path))
}

func (w *dbmlWatcher) report(doc *provider.Document) {
	r := w.cc.Renderer
	diags := w.cc.Cfg.Diagnostics.Apply(doc.Diagnostics())
	renderDiagnostics(r, doc.URI, doc.Content, diags)

	errs, warnings := countBySeverity(diags)
	msg := fmt.Sprintf("%s (v%d): %d error(s), %d warning(s) in %s",
		doc.URI, doc.Version, errs, warnings, doc.Elapsed.Round(time.Microsecond))
	if w.cc.Cfg.Diagnostics.Fails(diags) {
		r.Error(msg)
	} else {
		r.Success(msg)
	}
}

func runWatch(ctx context.Context, cmd *cobra.Command, paths []string) error {
	cc := NewCommandContext(cmd)
	w := newDBMLWatcher(cc)

	files, err := discoverFiles(paths, cc.Cfg.Include)
	if err != nil {
		return err
	}
	for _, f := range files {
		if _, err := w.recompile(f); err != nil {
			cc.Renderer.Error(err.Error())
		}
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() { _ = fw.Close() }()

	dirs, err := watchDirs(paths, files)
	if err != nil {
		return err
	}
	for _, d := range dirs {
		if err := fw.Add(d); err != nil {
			return fmt.Errorf("failed to watch %s: %w", d, err)
		}
	}
	cc.Renderer.Muted(fmt.Sprintf("Watching %d file(s) in %d director(ies). Press Ctrl+C to stop.", len(files), len(dirs)))

	explicit := make(map[string]bool)
	for _, p := range paths {
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			explicit[filepath.Clean(p)] = true
		}
	}
	relevant := func(name string) bool {
		if explicit[filepath.Clean(name)] {
			return true
		}
		return matchesInclude(filepath.Base(name), cc.Cfg.Include)
	}

	return w.loop(ctx, fw, relevant, cc.Cfg.Watch.Debounce())
}

// loop coalesces events per file and recompiles after the debounce delay.
func (w *dbmlWatcher) loop(ctx context.Context, fw *fsnotify.Watcher, relevant func(string) bool, debounce time.Duration) error {
	var (
		timersMu sync.Mutex
		timers   = make(map[string]*time.Timer)
	)
	defer func() {
		timersMu.Lock()
		for _, t := range timers {
			t.Stop()
		}
		timersMu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !relevant(event.Name) {
				continue
			}
			name := event.Name

			if event.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
				w.forget(name)
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}

			timersMu.Lock()
			if t, ok := timers[name]; ok {
				t.Stop()
			}
			timers[name] = time.AfterFunc(debounce, func() {
				w.cc.Logger.Debug("change detected", "file", name)
				if _, err := w.recompile(name); err != nil {
					w.cc.Renderer.Error(err.Error())
				}
			})
			timersMu.Unlock()

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.cc.Logger.Warn("watcher error", "error", err)
		}
	}
}

// watchDirs returns the directories to register: every non-hidden
// directory under directory arguments and the parent of each file.
func watchDirs(paths []string, files []string) ([]string, error) {
	set := make(map[string]bool)
	if len(paths) == 0 {
		paths = []string{"."}
	}
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("failed to stat %s: %w", p, err)
		}
		if !info.IsDir() {
			continue
		}
		err = filepath.WalkDir(p, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() {
				return nil
			}
			if path != p && len(d.Name()) > 0 && d.Name()[0] == '.' {
				return filepath.SkipDir
			}
			set[path] = true
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to walk %s: %w", p, err)
		}
	}
	for _, f := range files {
		set[filepath.Dir(f)] = true
	}

	dirs := make([]string, 0, len(set))
	for d := range set {
		dirs = append(dirs, d)
	}
	sort.Strings(dirs)
	return dirs, nil
}
