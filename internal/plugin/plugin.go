// Package plugin loads filter plugins: Go source files interpreted with
// yaegi that declare any of
//
//	func ExcludeType(typeName string) bool
//	func ExcludeMethod(typeName, method string) bool
//	func ExcludeParameter(typeName, method, param string) bool
//
// Type names are full names ("example.com/pkg.Store"). Each file is
// evaluated in its own interpreter with only the standard library
// available.
package plugin

import (
	"fmt"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"

	"github.com/unbound-force/nilguard/internal/config"
	"github.com/unbound-force/nilguard/internal/filter"
	"github.com/unbound-force/nilguard/internal/model"
)

// Filter adapts the functions found in one plugin file to the type,
// method and parameter filter contracts. Missing functions never
// exclude.
type Filter struct {
	name          string
	excludeType   func(string) bool
	excludeMethod func(string, string) bool
	excludeParam  func(string, string, string) bool
}

// Name returns the plugin file path.
func (f *Filter) Name() string { return "plugin:" + f.name }

// ExcludeType implements filter.TypeFilter.
func (f *Filter) ExcludeType(t *model.Type) bool {
	filter.MustType(t)
	return f.excludeType != nil && f.excludeType(t.FullName())
}

// ExcludeMethod implements filter.MethodFilter.
func (f *Filter) ExcludeMethod(t *model.Type, m *model.Method) bool {
	filter.MustMethod(t, m)
	return f.excludeMethod != nil && f.excludeMethod(t.FullName(), m.Name)
}

// ExcludeParameter implements filter.ParameterFilter.
func (f *Filter) ExcludeParameter(t *model.Type, m *model.Method, p *model.Param) bool {
	filter.MustParam(t, m, p)
	return f.excludeParam != nil && f.excludeParam(t.FullName(), m.Name, p.Name)
}

// Load scans cfg.Dir, relative to root unless absolute, and returns one
// Filter per file that declares at least one filter function. Files
// without any are logged and skipped; files that fail to evaluate are
// an error.
func Load(root string, cfg config.Plugins, logger *log.Logger) ([]*Filter, error) {
	if cfg.Dir == "" {
		return nil, nil
	}
	dir := cfg.Dir
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(root, dir)
	}

	files, err := Scan(dir, cfg)
	if err != nil {
		return nil, fmt.Errorf("scanning plugins in %s: %w", dir, err)
	}

	var out []*Filter
	for _, rel := range files {
		f, err := loadFile(filepath.Join(dir, rel))
		if err != nil {
			return nil, fmt.Errorf("loading plugin %s: %w", rel, err)
		}
		if f.excludeType == nil && f.excludeMethod == nil && f.excludeParam == nil {
			if logger != nil {
				logger.Warn("plugin declares no filter functions", "file", rel)
			}
			continue
		}
		f.name = rel
		if logger != nil {
			logger.Debug("loaded plugin", "file", rel)
		}
		out = append(out, f)
	}
	return out, nil
}

func loadFile(path string) (*Filter, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, path, src, parser.PackageClauseOnly)
	if err != nil {
		return nil, err
	}
	pkg := file.Name.Name

	i := interp.New(interp.Options{})
	if err := i.Use(stdlib.Symbols); err != nil {
		return nil, fmt.Errorf("loading stdlib: %w", err)
	}
	if _, err := i.Eval(string(src)); err != nil {
		return nil, fmt.Errorf("evaluating source: %w", err)
	}

	f := &Filter{}
	if v, err := i.Eval(pkg + ".ExcludeType"); err == nil {
		fn, ok := v.Interface().(func(string) bool)
		if !ok {
			return nil, fmt.Errorf("ExcludeType has signature %s, want func(string) bool", v.Type())
		}
		f.excludeType = fn
	}
	if v, err := i.Eval(pkg + ".ExcludeMethod"); err == nil {
		fn, ok := v.Interface().(func(string, string) bool)
		if !ok {
			return nil, fmt.Errorf("ExcludeMethod has signature %s, want func(string, string) bool", v.Type())
		}
		f.excludeMethod = fn
	}
	if v, err := i.Eval(pkg + ".ExcludeParameter"); err == nil {
		fn, ok := v.Interface().(func(string, string, string) bool)
		if !ok {
			return nil, fmt.Errorf("ExcludeParameter has signature %s, want func(string, string, string) bool", v.Type())
		}
		f.excludeParam = fn
	}
	return f, nil
}
