package elements

import (
	"github.com/leapstack-labs/leapdbml/pkg/ast"
	"github.com/leapstack-labs/leapdbml/pkg/core"
	"github.com/leapstack-labs/leapdbml/pkg/symbol"
	"github.com/leapstack-labs/leapdbml/pkg/validator"
)

// Enum declares an enumeration and its values.
var Enum = &validator.Def{
	ElementKind: validator.KindEnum,
	Words:       []string{"enum"},
	RuleSet: &validator.Rules{
		Context: validator.ContextRule{
			Parents: []validator.ElementKind{validator.KindProgram, validator.KindProject},
			Stop:    true,
		},
		Name: validator.NameRule{
			Presence:  validator.Required,
			Qualified: true,
			Register:  symbol.KindEnum,
		},
		Body: validator.BodyRule{Complex: true, Stop: true},
		Subfield: validator.SubfieldRule{
			Allowed:  true,
			Args:     []validator.ArgRule{{Name: "enum value", Expect: "a name", Validate: validator.IsName}},
			Settings: validator.SettingSpecs{noteSetting},
			Register: symbol.KindEnumField,
		},
		Check: func(c *validator.Context, elem *ast.ElementDeclaration, _ validator.Settings) bool {
			if countFields(elem) == 0 {
				c.Report(core.ErrEmptyBody, elem, "Enum must have at least one value")
				return false
			}
			return true
		},
	},
}
