// Package gen writes the in-package test file that binds a package for
// nilguard: a symbol table of its functions, types and closable generic
// instantiations, plus a test running every nil-argument case.
package gen

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"

	"golang.org/x/tools/imports"

	"github.com/unbound-force/nilguard/internal/config"
	"github.com/unbound-force/nilguard/internal/generic"
	"github.com/unbound-force/nilguard/internal/loader"
	"github.com/unbound-force/nilguard/internal/mapping"
	"github.com/unbound-force/nilguard/internal/model"
)

// FileName is the name of the generated file.
const FileName = "nilguard_symbols_test.go"

// Options configures Run.
type Options struct {
	// Pattern selects the package. Defaults to ".".
	Pattern string

	// Config supplies stand-ins and name substitutions so generated
	// instantiations match what the fixture asks for.
	Config *config.Config

	// Force overwrites an existing file.
	Force bool

	// Version is recorded in the file header.
	Version string

	// Stdout receives the summary. Defaults to os.Stdout.
	Stdout io.Writer
}

// File is a generated symbol file.
type File struct {
	// Path is where the file is written.
	Path string

	// Source is the formatted file content.
	Source []byte

	// Symbols counts the table entries.
	Symbols int

	// Open lists generic declarations no instantiation could be
	// chosen for.
	Open []string
}

// Symbol is one table entry: the key the fixture looks up and the Go
// expression producing its value.
type Symbol struct {
	Key  string
	Expr string
}

// Run loads the package, generates its symbol file and writes it next
// to the package sources. An existing file is kept unless Force is set.
func Run(opts Options) (*File, error) {
	if opts.Pattern == "" {
		opts.Pattern = "."
	}
	if opts.Config == nil {
		opts.Config = config.DefaultConfig()
	}
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}

	res, err := loader.Load(opts.Pattern)
	if err != nil {
		return nil, err
	}
	asm := loader.Build(res)

	resolver, chain, err := setup(opts.Config)
	if err != nil {
		return nil, err
	}
	path := filepath.Join(res.Dir, FileName)
	f, err := Generate(asm, resolver, chain, opts.Version)
	if err != nil {
		return nil, err
	}
	f.Path = path

	if _, err := os.Stat(path); err == nil && !opts.Force {
		return nil, fmt.Errorf("%s already exists (use --force to overwrite)", path)
	}
	if err := os.WriteFile(path, f.Source, 0o644); err != nil {
		return nil, fmt.Errorf("writing %s: %w", path, err)
	}

	fmt.Fprintf(opts.Stdout, "wrote %s: %d symbol(s)\n", path, f.Symbols)
	for _, name := range f.Open {
		fmt.Fprintf(opts.Stdout, "  open: %s (register a stand-in to bind it)\n", name)
	}
	return f, nil
}

func setup(cfg *config.Config) (*generic.Resolver, mapping.Chain, error) {
	r := generic.NewResolver(nil)
	for constraint, typeName := range cfg.StandIns {
		if err := r.StandIn(constraint, typeName); err != nil {
			return nil, nil, err
		}
	}
	table := mapping.NewTable()
	for from, to := range cfg.Substitutions {
		if err := table.AddName(from, to); err != nil {
			return nil, nil, err
		}
	}
	return r, mapping.Chain{table}, nil
}

// Generate renders the symbol file for asm. Generic declarations are
// closed with r and chain, the same way the fixture closes them.
func Generate(asm *model.Assembly, r *generic.Resolver, chain mapping.Chain, version string) (*File, error) {
	syms, open := Symbols(asm, r, chain)

	var buf bytes.Buffer
	emit := func(format string, args ...any) {
		fmt.Fprintf(&buf, format, args...)
	}
	if version == "" {
		version = "dev"
	}

	emit("// Code generated by nilguard %s. DO NOT EDIT.\n\n", version)
	emit("package %s\n\n", asm.Name)
	emit("import (\n\t\"reflect\"\n\t\"testing\"\n\n\t\"github.com/unbound-force/nilguard\"\n)\n\n")
	emit("var nilguardSymbols = nilguard.Symbols{\n")
	for _, s := range syms {
		emit("\t%q: %s,\n", s.Key, s.Expr)
	}
	emit("}\n\n")
	emit("func TestNilArguments(t *testing.T) {\n")
	emit("\tf, err := nilguard.Load(\".\", nilguardSymbols)\n")
	emit("\tif err != nil {\n\t\tt.Fatal(err)\n\t}\n")
	emit("\tnilguard.Run(t, f)\n")
	emit("}\n")

	out, err := imports.Process(FileName, buf.Bytes(), nil)
	if err != nil {
		return nil, fmt.Errorf("formatting generated source: %w\n%s", err, buf.Bytes())
	}
	return &File{Source: out, Symbols: len(syms), Open: open}, nil
}

// Symbols lists the table entries for asm in key order, and the generic
// declarations left open. Methods are reached through their receiver
// type and get no entry of their own.
func Symbols(asm *model.Assembly, r *generic.Resolver, chain mapping.Chain) ([]Symbol, []string) {
	local := localQualifier(asm.Name)
	var (
		syms []Symbol
		open []string
	)
	for _, t := range asm.Types {
		if t.Kind != model.KindPackage && !t.Constraint {
			if !t.Generic() {
				syms = append(syms, Symbol{Key: t.Name, Expr: typeExpr(t.Name)})
			} else if args, err := r.Close(t.FullName(), t.TypeParams, chain); err == nil {
				syms = append(syms, Symbol{
					Key:  model.InstanceKey(t.Name, args),
					Expr: typeExpr(instance(t.Name, args, local)),
				})
			} else {
				open = append(open, t.Name)
			}
		}

		for _, m := range t.Members {
			if m.Kind == model.MemberMethod {
				continue
			}
			if !m.Generic() {
				syms = append(syms, Symbol{Key: m.Name, Expr: "reflect.ValueOf(" + m.Name + ")"})
				continue
			}
			args, err := r.Close(m.Declaring.PkgPath+"."+m.Name, m.TypeParams, chain)
			if err != nil {
				open = append(open, m.Name)
				continue
			}
			syms = append(syms, Symbol{
				Key:  model.InstanceKey(m.Name, args),
				Expr: "reflect.ValueOf(" + instance(m.Name, args, local) + ")",
			})
		}
	}
	sort.Slice(syms, func(i, j int) bool { return syms[i].Key < syms[j].Key })
	sort.Strings(open)
	return syms, open
}

func typeExpr(name string) string {
	return "reflect.ValueOf((*" + name + ")(nil))"
}

// instance spells name[args] as written inside the package itself,
// where the package's own qualifier is not in scope.
func instance(name string, args []string, local *regexp.Regexp) string {
	written := make([]string, len(args))
	for i, a := range args {
		written[i] = local.ReplaceAllString(a, "$1")
	}
	return model.InstanceKey(name, written)
}

func localQualifier(pkgName string) *regexp.Regexp {
	return regexp.MustCompile(`(^|[^\w.])` + regexp.QuoteMeta(pkgName) + `\.`)
}
