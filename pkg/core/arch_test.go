package core_test

import (
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const modulePath = "github.com/leapstack-labs/leapdbml/"

// layers lists, for each library package, the module packages it may
// import. Stages only look backwards along the pipeline.
var layers = map[string][]string{
	"token":              nil,
	"core":               {"pkg/token"},
	"lexer":              {"pkg/core", "pkg/token"},
	"ast":                {"pkg/core", "pkg/token"},
	"parser":             {"pkg/ast", "pkg/core", "pkg/lexer", "pkg/token"},
	"symbol":             {"pkg/core"},
	"validator":          {"pkg/ast", "pkg/core", "pkg/symbol", "pkg/token"},
	"validator/elements": {"pkg/ast", "pkg/core", "pkg/symbol", "pkg/validator"},
	"binder":             {"pkg/ast", "pkg/core", "pkg/symbol", "pkg/validator"},
	"model":              nil,
	"interpreter":        {"pkg/ast", "pkg/core", "pkg/model", "pkg/symbol", "pkg/token", "pkg/validator", "pkg/validator/elements"},
	"format":             {"pkg/model"},
}

func packageImports(t *testing.T, dir string) map[string][]string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("failed to read %s: %v", dir, err)
	}

	fset := token.NewFileSet()
	imports := make(map[string][]string)
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".go") || strings.HasSuffix(name, "_test.go") {
			continue
		}
		f, err := parser.ParseFile(fset, filepath.Join(dir, name), nil, parser.ImportsOnly)
		if err != nil {
			t.Errorf("failed to parse %s: %v", name, err)
			continue
		}
		for _, imp := range f.Imports {
			imports[name] = append(imports[name], strings.Trim(imp.Path.Value, `"`))
		}
	}
	return imports
}

// TestPipelineLayering verifies library packages import only earlier
// pipeline stages and never internal packages.
func TestPipelineLayering(t *testing.T) {
	for pkg, allowed := range layers {
		t.Run(pkg, func(t *testing.T) {
			ok := make(map[string]bool, len(allowed))
			for _, a := range allowed {
				ok[modulePath+a] = true
			}
			for file, imports := range packageImports(t, filepath.Join("..", pkg)) {
				for _, imp := range imports {
					if strings.Contains(imp, "/internal/") {
						t.Errorf("%s/%s imports internal package %s", pkg, file, imp)
						continue
					}
					if strings.HasPrefix(imp, modulePath) && !ok[imp] {
						t.Errorf("%s/%s imports %s, which is not an earlier stage", pkg, file, imp)
					}
				}
			}
		})
	}
}

// TestCoreImportsOnly verifies pkg/core stays on the standard library
// plus pkg/token.
func TestCoreImportsOnly(t *testing.T) {
	for file, imports := range packageImports(t, ".") {
		for _, imp := range imports {
			if !strings.Contains(imp, ".") || imp == modulePath+"pkg/token" {
				continue
			}
			t.Errorf("%s imports forbidden package: %s", file, imp)
		}
	}
}
