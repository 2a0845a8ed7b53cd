package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// Config file names, in lookup order.
const (
	ConfigFileName    = "leapdbml.yaml"
	ConfigFileNameAlt = "leapdbml.yml"
)

// EnvPrefix prefixes environment overrides. A double underscore separates
// nested keys: LEAPDBML_DIAGNOSTICS__FAIL_ON.
const EnvPrefix = "LEAPDBML_"

// Default configuration values.
const (
	DefaultOutput      = "auto"
	DefaultCatalogPath = ".leapdbml/catalog.db"
	DefaultFailOn      = "error"
	DefaultDebounceMS  = 200
	DefaultInclude     = "*.dbml"
)

// maxUpwardSearchLevels limits how far up the directory tree to search for config files.
const maxUpwardSearchLevels = 10

// flagKeys maps CLI flag names onto config keys.
var flagKeys = map[string]string{
	"output":   "output",
	"verbose":  "verbose",
	"catalog":  "catalog_path",
	"fail-on":  "diagnostics.fail_on",
	"disable":  "diagnostics.disabled",
	"debounce": "watch.debounce_ms",
	"include":  "include",
}

// Defaults returns the default key/value layer.
func Defaults() map[string]any {
	return map[string]any{
		"output":               DefaultOutput,
		"verbose":              false,
		"catalog_path":         DefaultCatalogPath,
		"include":              []string{DefaultInclude},
		"diagnostics.disabled": []string{},
		"diagnostics.severity": map[string]any{},
		"diagnostics.fail_on":  DefaultFailOn,
		"watch.debounce_ms":    DefaultDebounceMS,
	}
}

// Load reads configuration with the precedence
// flags > environment > config file > defaults.
// cfgFile may be empty, in which case leapdbml.yaml is searched upward
// from the working directory.
func Load(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	// 1. Defaults
	if err := k.Load(confmap.Provider(Defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Config file
	projectRoot := ""
	if cfgFile == "" {
		if cwd, err := os.Getwd(); err == nil {
			if root := FindProjectRoot(cwd); root != "" {
				projectRoot = root
				cfgFile = findConfigFile(root)
			}
		}
	}
	if cfgFile != "" {
		if err := k.Load(file.Provider(cfgFile), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", cfgFile, err)
		}
		if projectRoot == "" {
			if abs, err := filepath.Abs(cfgFile); err == nil {
				projectRoot = filepath.Dir(abs)
			}
		}
	}
	if projectRoot == "" {
		projectRoot, _ = os.Getwd()
		if projectRoot == "" {
			projectRoot = "."
		}
	}

	// 3. Environment: LEAPDBML_CATALOG_PATH -> catalog_path
	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 4. Explicitly set flags
	var flagCatalog string
	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			if !f.Changed {
				return "", nil
			}
			key, ok := flagKeys[f.Name]
			if !ok {
				return "", nil
			}
			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
		if f := flags.Lookup("catalog"); f != nil && f.Changed {
			flagCatalog = f.Value.String()
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	cfg.ProjectRoot = projectRoot
	cfg.File = cfgFile

	// Flag paths are relative to the working directory, everything else to
	// the project root.
	if flagCatalog != "" && flagCatalog != ":memory:" {
		if abs, err := filepath.Abs(flagCatalog); err == nil {
			cfg.CatalogPath = abs
		}
	} else if cfg.CatalogPath != ":memory:" {
		cfg.CatalogPath = resolvePathRelativeTo(cfg.CatalogPath, projectRoot)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(s, "__", ".")
}

// findConfigFile returns the config file inside dir, or "".
func findConfigFile(dir string) string {
	for _, name := range []string{ConfigFileName, ConfigFileNameAlt} {
		p := filepath.Join(dir, name)
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// FindProjectRoot walks up from startDir to the first directory holding a
// config file. Returns "" if none is found.
func FindProjectRoot(startDir string) string {
	dir := startDir
	for i := 0; i < maxUpwardSearchLevels; i++ {
		if findConfigFile(dir) != "" {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return ""
}

// resolvePathRelativeTo resolves path against baseDir unless it is empty or absolute.
func resolvePathRelativeTo(path, baseDir string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(baseDir, path)
}
