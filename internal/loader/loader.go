// Package loader reads one Go package from source and derives the
// member descriptors nilguard enumerates.
package loader

import (
	"fmt"
	"go/token"
	"path/filepath"
	"strings"

	"golang.org/x/tools/go/packages"
)

// LoadMode asks for the package's own syntax and type information.
// Dependencies are type-checked from export data only; Build never
// walks into them.
const LoadMode = packages.NeedName |
	packages.NeedFiles |
	packages.NeedTypes |
	packages.NeedSyntax |
	packages.NeedTypesInfo

// Result is a loaded package.
type Result struct {
	// Pkg is the loaded package, test files excluded.
	Pkg *packages.Package

	// Fset is the file set of Pkg.Syntax.
	Fset *token.FileSet

	// Dir is the directory holding the package sources.
	Dir string
}

// Load loads the single package matching pattern. Patterns matching
// several packages, packages without Go files and packages that fail to
// type-check are errors.
func Load(pattern string) (*Result, error) {
	pkgs, err := packages.Load(&packages.Config{Mode: LoadMode}, pattern)
	if err != nil {
		return nil, fmt.Errorf("loading package %q: %w", pattern, err)
	}

	switch len(pkgs) {
	case 0:
		return nil, fmt.Errorf("no packages found for pattern %q", pattern)
	case 1:
	default:
		return nil, fmt.Errorf("pattern %q matches %d packages, want one", pattern, len(pkgs))
	}
	pkg := pkgs[0]

	if len(pkg.Errors) > 0 {
		errs := make([]string, len(pkg.Errors))
		for i, e := range pkg.Errors {
			errs[i] = e.Error()
		}
		return nil, fmt.Errorf("package %q has errors:\n  %s",
			pattern, strings.Join(errs, "\n  "))
	}
	if len(pkg.GoFiles) == 0 {
		return nil, fmt.Errorf("package %s has no Go files", pkg.PkgPath)
	}

	return &Result{
		Pkg:  pkg,
		Fset: pkg.Fset,
		Dir:  filepath.Dir(pkg.GoFiles[0]),
	}, nil
}
