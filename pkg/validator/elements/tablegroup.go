package elements

import (
	"strings"

	"github.com/leapstack-labs/leapdbml/pkg/ast"
	"github.com/leapstack-labs/leapdbml/pkg/symbol"
	"github.com/leapstack-labs/leapdbml/pkg/validator"
)

// TableGroup groups tables under a name.
var TableGroup = &validator.Def{
	ElementKind: validator.KindTableGroup,
	Words:       []string{"tablegroup"},
	RuleSet: &validator.Rules{
		Context: validator.ContextRule{
			Parents: []validator.ElementKind{validator.KindProgram, validator.KindProject},
			Stop:    true,
		},
		Name: validator.NameRule{
			Presence:  validator.Required,
			Qualified: true,
			Register:  symbol.KindTableGroup,
		},
		Settings: validator.SettingsRule{
			Specs: validator.SettingSpecs{colorSetting, noteSetting},
		},
		Body: validator.BodyRule{Complex: true, Stop: true},
		Subfield: validator.SubfieldRule{
			Allowed:      true,
			Args:         []validator.ArgRule{{Name: "table", Expect: "a table name", Validate: validator.IsQualifiedName}},
			Register:     symbol.KindTableGroupField,
			RegisterName: groupMemberName,
			Defer: func(c *validator.Context, owner *ast.ElementDeclaration, f *validator.Subfield) {
				vars, _ := ast.VariableChain(f.Args[0])
				c.DeferChain(owner, f.Args[0], vars, false, symbol.KindTable)
			},
		},
	},
}

// groupMemberName is the qualified table name without the default schema.
func groupMemberName(f *validator.Subfield) (string, bool) {
	vars, ok := ast.VariableChain(f.Args[0])
	if !ok {
		return "", false
	}
	names := ast.ChainNames(vars)
	if len(names) > 1 && names[0] == symbol.DefaultSchema {
		names = names[1:]
	}
	return strings.Join(names, "."), true
}
