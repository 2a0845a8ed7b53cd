package validator

import (
	"strings"

	"github.com/leapstack-labs/leapdbml/pkg/ast"
	"github.com/leapstack-labs/leapdbml/pkg/core"
	"github.com/leapstack-labs/leapdbml/pkg/token"
)

// SettingSpec describes one accepted setting.
type SettingSpec struct {
	// Name is the canonical lower-case name.
	Name string
	// Aliases are alternative spellings, e.g. "primary key" for "pk".
	Aliases []string
	// Value validates the value; nil means the setting is a bare flag.
	Value func(ast.Node) bool
	// Expect describes valid values for messages.
	Expect string
	// Repeatable allows the setting more than once.
	Repeatable bool
	// Defer records references held by the value.
	Defer func(c *Context, owner *ast.ElementDeclaration, attr *ast.Attribute)
}

// SettingSpecs is a set of accepted settings.
type SettingSpecs []*SettingSpec

// Lookup finds the spec for a lower-cased setting name or alias.
func (s SettingSpecs) Lookup(name string) (*SettingSpec, bool) {
	for _, spec := range s {
		if spec.Name == name {
			return spec, true
		}
		for _, a := range spec.Aliases {
			if a == name {
				return spec, true
			}
		}
	}
	return nil, false
}

// Names returns the canonical names.
func (s SettingSpecs) Names() []string {
	out := make([]string, len(s))
	for i, spec := range s {
		out[i] = spec.Name
	}
	return out
}

// Settings maps canonical setting names to their attributes in source order.
type Settings map[string][]*ast.Attribute

// Has reports whether the setting appeared.
func (s Settings) Has(name string) bool {
	return len(s[name]) > 0
}

// First returns the first occurrence of a setting.
func (s Settings) First(name string) (*ast.Attribute, bool) {
	if attrs := s[name]; len(attrs) > 0 {
		return attrs[0], true
	}
	return nil, false
}

// CheckSettings validates a settings list against specs on behalf of owner.
// Valid attributes are collected under their canonical names. what names
// the setting holder in messages.
func (c *Context) CheckSettings(list *ast.ListExpression, specs SettingSpecs, owner *ast.ElementDeclaration, what string) (Settings, bool) {
	return c.checkSettings(list, specs, owner, what)
}

func (c *Context) checkSettings(list *ast.ListExpression, specs SettingSpecs, owner *ast.ElementDeclaration, what string) (Settings, bool) {
	settings := make(Settings)
	if list == nil {
		return settings, true
	}
	if specs == nil {
		c.Report(core.ErrUnexpectedSettings, list, "%s does not accept settings", what)
		return settings, false
	}
	ok := true
	for _, attr := range list.Elements {
		if attr == nil || attr.Name == nil {
			continue
		}
		name := attr.SettingName()
		spec, found := specs.Lookup(name)
		if !found {
			d := c.Report(core.ErrUnknownSetting, attr.Name, "unknown setting '%s' for %s", name, what)
			d.Hints = suggest(name, specs.Names())
			ok = false
			continue
		}
		if settings.Has(spec.Name) && !spec.Repeatable {
			c.Report(core.ErrDuplicateSetting, attr, "setting '%s' is specified more than once", spec.Name)
			ok = false
			continue
		}
		if !c.checkSettingValue(attr, spec) {
			ok = false
			continue
		}
		settings[spec.Name] = append(settings[spec.Name], attr)
		if spec.Defer != nil {
			spec.Defer(c, owner, attr)
		}
	}
	return settings, ok
}

func (c *Context) checkSettingValue(attr *ast.Attribute, spec *SettingSpec) bool {
	hasValue := attr.Colon != nil || !ast.IsNil(attr.Value)
	switch {
	case spec.Value == nil && hasValue:
		c.Report(core.ErrInvalidSettingValue, attr, "setting '%s' does not take a value", spec.Name)
		return false
	case spec.Value == nil:
		return true
	case ast.IsNil(attr.Value):
		c.Report(core.ErrInvalidSettingValue, attr, "setting '%s' expects %s", spec.Name, spec.Expect)
		return false
	case !spec.Value(attr.Value):
		c.Report(core.ErrInvalidSettingValue, attr.Value, "invalid value for '%s': expected %s", spec.Name, spec.Expect)
		return false
	}
	return true
}

// ---------- Value validators ----------

// IsString accepts a string literal.
func IsString(n ast.Node) bool {
	_, ok := ast.StringValue(n)
	return ok
}

// IsColor accepts a color literal.
func IsColor(n ast.Node) bool {
	l, ok := ast.AsLiteral(n)
	return ok && l.Literal.Kind == token.COLOR
}

// IsFunction accepts a backtick expression.
func IsFunction(n ast.Node) bool {
	_, ok := ast.Unwrap(n).(*ast.FunctionExpression)
	return ok
}

// OneOf accepts identifier words drawn from values, compared
// case-insensitively.
func OneOf(values ...string) func(ast.Node) bool {
	return func(n ast.Node) bool {
		w, ok := ast.WordStream(n)
		if !ok {
			return false
		}
		for _, v := range values {
			if strings.EqualFold(w, v) {
				return true
			}
		}
		return false
	}
}

// Any accepts every value.
func Any(ast.Node) bool { return true }
