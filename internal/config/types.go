// Package config loads leapdbml configuration. Settings only affect how
// reports are filtered and rendered; they never change compilation.
package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/leapstack-labs/leapdbml/pkg/core"
)

// Config holds all configuration options.
type Config struct {
	Output      string            `koanf:"output"`
	Verbose     bool              `koanf:"verbose"`
	CatalogPath string            `koanf:"catalog_path"`
	Include     []string          `koanf:"include"`
	Diagnostics DiagnosticsConfig `koanf:"diagnostics"`
	Watch       WatchConfig       `koanf:"watch"`

	// ProjectRoot is the directory relative paths are resolved against.
	ProjectRoot string `koanf:"-"`
	// File is the config file that was loaded, if any.
	File string `koanf:"-"`
}

// DiagnosticsConfig controls which diagnostics are reported and how.
type DiagnosticsConfig struct {
	// Disabled lists codes hidden from reports ("E3202", "3202" or
	// "unknown-setting").
	Disabled []string `koanf:"disabled"`

	// Severity maps a code to a display severity (error, warning, info, hint).
	Severity map[string]string `koanf:"severity"`

	// FailOn is the lowest severity that makes a command fail.
	FailOn string `koanf:"fail_on"`
}

// WatchConfig holds watch mode options.
type WatchConfig struct {
	DebounceMS int `koanf:"debounce_ms"`
}

// Debounce returns the watch debounce interval.
func (w WatchConfig) Debounce() time.Duration {
	return time.Duration(w.DebounceMS) * time.Millisecond
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	switch c.Output {
	case "", "auto", "text", "markdown", "json", "yaml":
	default:
		return fmt.Errorf("invalid output %q: expected auto, text, markdown, json or yaml", c.Output)
	}
	if _, ok := core.ParseSeverity(c.Diagnostics.FailOn); !ok {
		return fmt.Errorf("invalid diagnostics.fail_on %q", c.Diagnostics.FailOn)
	}
	for _, code := range c.Diagnostics.Disabled {
		if _, ok := ParseCode(code); !ok {
			return fmt.Errorf("invalid diagnostics.disabled entry %q: unknown code", code)
		}
	}
	for code, sev := range c.Diagnostics.Severity {
		if _, ok := ParseCode(code); !ok {
			return fmt.Errorf("invalid diagnostics.severity key %q: unknown code", code)
		}
		if _, ok := core.ParseSeverity(sev); !ok {
			return fmt.Errorf("invalid severity %q for %s", sev, code)
		}
	}
	if c.Watch.DebounceMS < 0 {
		return fmt.Errorf("watch.debounce_ms must not be negative")
	}
	return nil
}

// ParseCode accepts "E3202", "3202" or a code name such as
// "unknown-setting".
func ParseCode(s string) (core.ErrorCode, bool) {
	s = strings.TrimSpace(s)
	digits := strings.TrimPrefix(strings.ToUpper(s), "E")
	if n, err := strconv.Atoi(digits); err == nil {
		c := core.ErrorCode(n)
		return c, c.Known()
	}
	name := strings.ToLower(s)
	for _, c := range core.Codes() {
		if c.Name() == name {
			return c, true
		}
	}
	return 0, false
}

// ---------- Report filtering ----------

// Apply drops disabled diagnostics and applies severity overrides. The
// input list is left untouched.
func (d DiagnosticsConfig) Apply(diags core.Diagnostics) core.Diagnostics {
	disabled := make(map[core.ErrorCode]bool, len(d.Disabled))
	for _, s := range d.Disabled {
		if c, ok := ParseCode(s); ok {
			disabled[c] = true
		}
	}
	overrides := make(map[core.ErrorCode]core.Severity, len(d.Severity))
	for k, v := range d.Severity {
		c, ok := ParseCode(k)
		sev, valid := core.ParseSeverity(v)
		if ok && valid {
			overrides[c] = sev
		}
	}

	out := make(core.Diagnostics, 0, len(diags))
	for _, diag := range diags {
		if disabled[diag.Code] {
			continue
		}
		if sev, ok := overrides[diag.Code]; ok && sev != diag.Severity {
			cp := *diag
			cp.Severity = sev
			diag = &cp
		}
		out = append(out, diag)
	}
	return out
}

// Fails reports whether diags contain a diagnostic at or above FailOn.
func (d DiagnosticsConfig) Fails(diags core.Diagnostics) bool {
	threshold, ok := core.ParseSeverity(d.FailOn)
	if !ok {
		threshold = core.SeverityError
	}
	for _, diag := range diags {
		// lower values are more severe
		if diag.Severity <= threshold {
			return true
		}
	}
	return false
}
