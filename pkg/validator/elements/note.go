package elements

import (
	"github.com/leapstack-labs/leapdbml/pkg/ast"
	"github.com/leapstack-labs/leapdbml/pkg/core"
	"github.com/leapstack-labs/leapdbml/pkg/validator"
)

// Note attaches a note to its parent. A named top-level Note is a sticky
// note.
var Note = &validator.Def{
	ElementKind: validator.KindNote,
	Words:       []string{"note"},
	RuleSet: &validator.Rules{
		Context: validator.ContextRule{
			Parents: []validator.ElementKind{
				validator.KindProgram, validator.KindTable, validator.KindTableGroup, validator.KindProject,
			},
			Stop: true,
		},
		Unique: validator.UniqueRule{
			Scope:  validator.UniqueInParent,
			Within: []validator.ElementKind{validator.KindTable, validator.KindTableGroup, validator.KindProject},
			Stop:   true,
		},
		Name: validator.NameRule{Presence: validator.Optional},
		Settings: validator.SettingsRule{
			Specs: validator.SettingSpecs{headerColorSetting},
		},
		Body: validator.BodyRule{
			Simple:  true,
			Complex: true,
			ValidateSimple: func(c *validator.Context, _ *ast.ElementDeclaration, body ast.Node) bool {
				if !validator.IsString(body) {
					c.Report(core.ErrInvalidBody, body, "Note content must be a string")
					return false
				}
				return true
			},
		},
		Subfield: validator.SubfieldRule{
			Allowed: true,
			Args:    []validator.ArgRule{{Name: "note content", Expect: "a string", Validate: validator.IsString}},
		},
		Check: checkNote,
	},
}

func checkNote(c *validator.Context, elem *ast.ElementDeclaration, settings validator.Settings) bool {
	sticky := elem.Parent == nil
	ok := true
	switch {
	case sticky && ast.IsNil(elem.Name):
		c.Report(core.ErrMissingName, elem, "top-level Note must have a name")
		ok = false
	case !sticky && !ast.IsNil(elem.Name):
		c.Report(core.ErrUnexpectedName, elem.Name, "Note inside %s must not have a name", elem.Parent.Keyword())
		ok = false
	}
	if attr, has := settings.First("headercolor"); has && !sticky {
		c.Report(core.ErrUnexpectedSettings, attr, "only top-level Notes accept 'headercolor'")
		ok = false
	}
	if !elem.IsSimple() && countFields(elem) != 1 {
		c.Report(core.ErrInvalidBody, elem.Body, "Note block must contain exactly one string")
		ok = false
	}
	return ok
}
