package plugin_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/unbound-force/nilguard/internal/config"
	"github.com/unbound-force/nilguard/internal/filter"
	"github.com/unbound-force/nilguard/internal/model"
	"github.com/unbound-force/nilguard/internal/plugin"
)

func writeFile(t *testing.T, dir, rel, content string) {
	t.Helper()
	path := filepath.Join(dir, rel)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("creating dir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("writing %s: %v", rel, err)
	}
}

const legacySource = `package legacy

import "strings"

func ExcludeType(name string) bool { return strings.HasSuffix(name, ".Legacy") }

func ExcludeParameter(typeName, method, param string) bool {
	return method == "Log" && param == "w"
}
`

func TestScan_FiltersFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.go", "package a\n")
	writeFile(t, dir, "b_test.go", "package b\n")
	writeFile(t, dir, "notes.md", "# notes\n")
	writeFile(t, dir, "nested/c.go", "package c\n")
	writeFile(t, dir, ".hidden/d.go", "package d\n")
	writeFile(t, dir, "testdata/e.go", "package e\n")

	files, err := plugin.Scan(dir, config.DefaultConfig().Plugins)
	if err != nil {
		t.Fatalf("Scan() failed: %v", err)
	}
	if diff := cmp.Diff([]string{"a.go", "nested/c.go"}, files); diff != "" {
		t.Errorf("Scan() mismatch (-want +got):\n%s", diff)
	}
}

func TestMatch(t *testing.T) {
	tests := []struct {
		name string
		rel  string
		cfg  config.Plugins
		want bool
	}{
		{"no patterns", "a.go", config.Plugins{}, true},
		{"excluded dir", "vendor/x.go", config.Plugins{Exclude: []string{"vendor/**"}}, false},
		{"excluded base name", "deep/gen.go", config.Plugins{Exclude: []string{"gen.go"}}, false},
		{"include miss", "b.go", config.Plugins{Include: []string{"a*.go"}}, false},
		{"include hit", "alpha.go", config.Plugins{Include: []string{"a*.go"}}, true},
		{"include then exclude", "alpha.go", config.Plugins{Include: []string{"a*.go"}, Exclude: []string{"alpha.go"}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := plugin.Match(tt.rel, tt.cfg); got != tt.want {
				t.Errorf("Match(%q) = %v, want %v", tt.rel, got, tt.want)
			}
		})
	}
}

func TestLoad_AdaptsDeclaredFunctions(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "plugins/legacy.go", legacySource)
	writeFile(t, root, "plugins/empty.go", "package empty\n\nfunc Helper() int { return 1 }\n")

	filters, err := plugin.Load(root, config.Plugins{Dir: "plugins"}, nil)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if len(filters) != 1 {
		t.Fatalf("expected 1 filter, got %d", len(filters))
	}
	f := filters[0]
	if f.Name() != "plugin:legacy.go" {
		t.Errorf("Name() = %q", f.Name())
	}

	legacy := &model.Type{PkgPath: "example.com/pkg", Name: "Legacy", Kind: model.KindStruct}
	store := &model.Type{PkgPath: "example.com/pkg", Name: "Store", Kind: model.KindStruct}
	logm := &model.Method{Name: "Log", Kind: model.MemberMethod, Declaring: store}
	w := &model.Param{Name: "w"}

	if !f.ExcludeType(legacy) || f.ExcludeType(store) {
		t.Error("ExcludeType did not follow the plugin")
	}
	if f.ExcludeMethod(store, logm) {
		t.Error("missing ExcludeMethod must not exclude")
	}
	if !f.ExcludeParameter(store, logm, w) {
		t.Error("ExcludeParameter did not follow the plugin")
	}

	for name, call := range map[string]func(){
		"type":      func() { f.ExcludeType(nil) },
		"method":    func() { f.ExcludeMethod(store, nil) },
		"parameter": func() { f.ExcludeParameter(store, logm, nil) },
	} {
		func() {
			defer func() {
				var argErr *filter.ArgumentError
				r, ok := recover().(error)
				if !ok || !errors.As(r, &argErr) || argErr.Name != name {
					t.Errorf("nil %s: expected *filter.ArgumentError panic, got %v", name, r)
				}
			}()
			call()
		}()
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		source  string
		wantMsg string
	}{
		{
			name:    "syntax error",
			source:  "package broken\n\nfunc ExcludeType(",
			wantMsg: "loading plugin broken.go",
		},
		{
			name:    "wrong signature",
			source:  "package broken\n\nfunc ExcludeType(n int) bool { return n > 0 }\n",
			wantMsg: "want func(string) bool",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := t.TempDir()
			writeFile(t, root, "broken.go", tt.source)
			_, err := plugin.Load(root, config.Plugins{Dir: "."}, nil)
			if err == nil || !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("Load() error = %v, want message containing %q", err, tt.wantMsg)
			}
		})
	}
}

func TestLoad_NoDir(t *testing.T) {
	filters, err := plugin.Load(t.TempDir(), config.Plugins{}, nil)
	if err != nil || filters != nil {
		t.Errorf("Load() = (%v, %v), want (nil, nil)", filters, err)
	}
}
