package elements

import (
	"github.com/leapstack-labs/leapdbml/pkg/ast"
	"github.com/leapstack-labs/leapdbml/pkg/core"
	"github.com/leapstack-labs/leapdbml/pkg/validator"
)

// Ref declares a relationship, either `Ref: a.x > b.y` or as a block
// holding one relationship line.
var Ref = &validator.Def{
	ElementKind: validator.KindRef,
	Words:       []string{"ref"},
	RuleSet: &validator.Rules{
		Context: validator.ContextRule{
			Parents: []validator.ElementKind{validator.KindProgram, validator.KindProject, validator.KindTable},
			Stop:    true,
		},
		Name: validator.NameRule{Presence: validator.Optional, Qualified: true},
		Body: validator.BodyRule{
			Simple:  true,
			Complex: true,
			ValidateSimple: func(c *validator.Context, elem *ast.ElementDeclaration, body ast.Node) bool {
				return validateRelationship(c, elem, body, true)
			},
			Stop: true,
		},
		Subfield: validator.SubfieldRule{
			Allowed:  true,
			Args:     []validator.ArgRule{{Name: "relationship"}},
			Settings: RefSettings,
			Check: func(c *validator.Context, owner *ast.ElementDeclaration, f *validator.Subfield, _ validator.Settings) bool {
				return validateRelationship(c, owner, f.Node, false)
			},
		},
		Check: func(c *validator.Context, elem *ast.ElementDeclaration, _ validator.Settings) bool {
			if elem.IsSimple() {
				return true
			}
			if n := countFields(elem); n != 1 {
				c.Report(core.ErrInvalidBody, elem.Body, "Ref block must contain exactly one relationship, found %d", n)
				return false
			}
			return true
		},
	},
}

// RefSettings are the settings of a relationship.
var RefSettings = validator.SettingSpecs{
	{Name: "delete", Value: referentialAction, Expect: "cascade, restrict, set null, set default or no action"},
	{Name: "update", Value: referentialAction, Expect: "cascade, restrict, set null, set default or no action"},
	colorSetting,
}

var referentialAction = validator.OneOf("cascade", "restrict", "set null", "set default", "no action")

func validateRelationship(c *validator.Context, owner *ast.ElementDeclaration, n ast.Node, withSettings bool) bool {
	rel, bad, ok := validator.ParseRelationship(n)
	if !ok {
		c.Report(core.ErrInvalidRef, bad, "invalid relationship: expected 'table.column <op> table.column' with <, >, - or <>")
		return false
	}
	if len(rel.Left.Columns) != len(rel.Right.Columns) {
		c.Report(core.ErrInvalidRef, n, "relationship endpoints name %d and %d columns", len(rel.Left.Columns), len(rel.Right.Columns))
		return false
	}
	if withSettings {
		if _, ok := c.CheckSettings(rel.Settings, RefSettings, owner, "Ref"); !ok {
			return false
		}
	}
	deferEndpoint(c, owner, rel.Left)
	deferEndpoint(c, owner, rel.Right)
	return true
}
