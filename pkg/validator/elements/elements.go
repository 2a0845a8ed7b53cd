// Package elements holds the rule sets of the DBML element kinds. Importing
// it registers every kind with the validator.
package elements

import (
	"github.com/leapstack-labs/leapdbml/pkg/ast"
	"github.com/leapstack-labs/leapdbml/pkg/validator"
)

func init() {
	validator.Register(Table)
	validator.Register(Enum)
	validator.Register(Ref)
	validator.Register(Note)
	validator.Register(Indexes)
	validator.Register(TableGroup)
	validator.Register(Project)
	validator.RegisterFallback(Custom)
}

// All returns every element definition, the fallback last.
func All() []validator.Element {
	return []validator.Element{Table, Enum, Ref, Note, Indexes, TableGroup, Project, Custom}
}

var (
	noteSetting = &validator.SettingSpec{Name: "note", Value: validator.IsString, Expect: "a string"}

	headerColorSetting = &validator.SettingSpec{Name: "headercolor", Value: validator.IsColor, Expect: "a color like #3498db"}

	colorSetting = &validator.SettingSpec{Name: "color", Value: validator.IsColor, Expect: "a color like #3498db"}
)

// countFields returns the number of non-element items in a block body.
func countFields(elem *ast.ElementDeclaration) int {
	block := elem.Block()
	if block == nil {
		return 0
	}
	n := 0
	for _, item := range block.Body {
		if _, ok := item.(*ast.ElementDeclaration); !ok {
			n++
		}
	}
	return n
}
