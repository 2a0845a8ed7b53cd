package elements

import (
	"github.com/leapstack-labs/leapdbml/pkg/ast"
	"github.com/leapstack-labs/leapdbml/pkg/validator"
)

// Project describes the whole document. It may hold tables, enums, refs,
// groups, a note and free-form key/value fields.
var Project = &validator.Def{
	ElementKind: validator.KindProject,
	Words:       []string{"project"},
	RuleSet: &validator.Rules{
		Context: validator.ContextRule{
			Parents: []validator.ElementKind{validator.KindProgram},
			Stop:    true,
		},
		Unique: validator.UniqueRule{Scope: validator.UniqueGlobal, Stop: true},
		Name:   validator.NameRule{Presence: validator.Optional},
		Body:   validator.BodyRule{Complex: true, Stop: true},
	},
}

// Custom is the catch-all for unknown keywords. Inside a Project it is a
// `key: value` field.
var Custom = &validator.Def{
	ElementKind: validator.KindCustom,
	RuleSet: &validator.Rules{
		Context: validator.ContextRule{
			Parents: []validator.ElementKind{validator.KindProject},
			Stop:    true,
		},
		Unique: validator.UniqueRule{Scope: validator.UniqueInParent, ByKeyword: true, Stop: true},
		Name:   validator.NameRule{Presence: validator.Forbidden, Stop: true},
		Body: validator.BodyRule{
			Simple: true,
			ValidateSimple: func(*validator.Context, *ast.ElementDeclaration, ast.Node) bool {
				return true
			},
		},
	},
}
