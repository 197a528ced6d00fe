package gen

import (
	"go/parser"
	"go/token"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/unbound-force/nilguard/internal/config"
	"github.com/unbound-force/nilguard/internal/generic"
	"github.com/unbound-force/nilguard/internal/loader"
	"github.com/unbound-force/nilguard/internal/mapping"
	"github.com/unbound-force/nilguard/internal/model"
)

const samplePath = "github.com/unbound-force/nilguard/internal/fixtures/sample"

func loadSample(t *testing.T) *model.Assembly {
	t.Helper()
	asm, err := loader.Assembly(samplePath)
	if err != nil {
		t.Fatalf("Assembly() failed: %v", err)
	}
	return asm
}

func keys(syms []Symbol) []string {
	out := make([]string, len(syms))
	for i, s := range syms {
		out[i] = s.Key
	}
	return out
}

func TestSymbols_Sample(t *testing.T) {
	syms, open := Symbols(loadSample(t), generic.NewResolver(nil), nil)

	want := []string{
		"Generated", "GeneratedHelper", "Item", "Labeler", "Level",
		"Lookup[int,any]", "Merge", "NewStore", "Stack[any]", "Store",
	}
	if diff := cmp.Diff(want, keys(syms)); diff != "" {
		t.Errorf("symbol keys mismatch (-want +got):\n%s", diff)
	}
	if len(open) != 0 {
		t.Errorf("expected every generic to close, open: %v", open)
	}

	for _, s := range syms {
		switch s.Key {
		case "Store":
			if s.Expr != "reflect.ValueOf((*Store)(nil))" {
				t.Errorf("Store: got %q", s.Expr)
			}
		case "Merge":
			if s.Expr != "reflect.ValueOf(Merge)" {
				t.Errorf("Merge: got %q", s.Expr)
			}
		case "Stack[any]":
			if s.Expr != "reflect.ValueOf((*Stack[any])(nil))" {
				t.Errorf("Stack: got %q", s.Expr)
			}
		}
	}
}

func shapesAssembly() *model.Assembly {
	pkg := &model.Type{PkgPath: "example.com/shapes", PkgName: "shapes", Name: "shapes", Kind: model.KindPackage}
	pkg.Members = []*model.Method{{
		Name: "Each", Kind: model.MemberFunction, Declaring: pkg,
		TypeParams: []*model.TypeParam{{Name: "S", Constraint: "shapes.Shape", Methods: 1}},
	}}
	number := &model.Type{PkgPath: "example.com/shapes", PkgName: "shapes", Name: "Number",
		Kind: model.KindInterface, Constraint: true}
	pair := &model.Type{PkgPath: "example.com/shapes", PkgName: "shapes", Name: "Pair", Kind: model.KindStruct,
		TypeParams: []*model.TypeParam{{
			Name: "T", Constraint: "interface{io.Reader; io.Writer}",
			Embedded: []string{"io.Reader", "io.Writer"},
		}}}
	return &model.Assembly{Path: "example.com/shapes", Name: "shapes", Types: []*model.Type{pkg, number, pair}}
}

func TestSymbols_Generics(t *testing.T) {
	tests := []struct {
		name     string
		standIns map[string]string
		subs     map[string]string
		want     []Symbol
		open     []string
	}{
		{
			name: "interface constraint, no stand-in",
			want: []Symbol{{Key: "Each[shapes.Shape]", Expr: "reflect.ValueOf(Each[Shape])"}},
			open: []string{"Pair"},
		},
		{
			name:     "stand-in closes the composite constraint",
			standIns: map[string]string{"interface{io.Reader;   io.Writer}": "*os.File"},
			want: []Symbol{
				{Key: "Each[shapes.Shape]", Expr: "reflect.ValueOf(Each[Shape])"},
				{Key: "Pair[*os.File]", Expr: "reflect.ValueOf((*Pair[*os.File])(nil))"},
			},
		},
		{
			name: "substitution by name",
			subs: map[string]string{"shapes.Shape": "*shapes.Square"},
			want: []Symbol{{Key: "Each[*shapes.Square]", Expr: "reflect.ValueOf(Each[*Square])"}},
			open: []string{"Pair"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.DefaultConfig()
			cfg.StandIns = tt.standIns
			cfg.Substitutions = tt.subs
			r, chain, err := setup(cfg)
			if err != nil {
				t.Fatal(err)
			}
			syms, open := Symbols(shapesAssembly(), r, chain)
			if diff := cmp.Diff(tt.want, syms); diff != "" {
				t.Errorf("symbols mismatch (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(tt.open, open); diff != "" {
				t.Errorf("open mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestInstance_LocalQualifier(t *testing.T) {
	local := localQualifier("shapes")
	tests := []struct {
		args []string
		want string
	}{
		{[]string{"shapes.Shape"}, "F[Shape]"},
		{[]string{"map[string]shapes.Shape", "*shapes.Square"}, "F[map[string]Shape,*Square]"},
		{[]string{"myshapes.Shape"}, "F[myshapes.Shape]"},
		{[]string{"io.Reader"}, "F[io.Reader]"},
	}
	for _, tt := range tests {
		if got := instance("F", tt.args, local); got != tt.want {
			t.Errorf("instance(%v) = %q, want %q", tt.args, got, tt.want)
		}
	}
}

func TestGenerate_Sample(t *testing.T) {
	f, err := Generate(loadSample(t), generic.NewResolver(nil), mapping.Chain{}, "v1.2.3")
	if err != nil {
		t.Fatalf("Generate() failed: %v", err)
	}
	if f.Symbols != 10 {
		t.Errorf("expected 10 symbols, got %d", f.Symbols)
	}

	src := string(f.Source)
	for _, want := range []string{
		"// Code generated by nilguard v1.2.3. DO NOT EDIT.",
		"package sample",
		`"github.com/unbound-force/nilguard"`,
		`"Lookup[int,any]":`,
		"reflect.ValueOf(Lookup[int, any])",
		"func TestNilArguments(t *testing.T) {",
		`nilguard.Load(".", nilguardSymbols)`,
		"nilguard.Run(t, f)",
	} {
		if !strings.Contains(src, want) {
			t.Errorf("generated source missing %q:\n%s", want, src)
		}
	}

	if _, err := parser.ParseFile(token.NewFileSet(), FileName, f.Source, 0); err != nil {
		t.Errorf("generated source does not parse: %v", err)
	}
}

func TestSetup_DuplicateStandIn(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.StandIns = map[string]string{
		"interface{io.Reader; io.Writer}":  "*os.File",
		"interface{io.Reader;  io.Writer}": "*bytes.Buffer",
	}
	if _, _, err := setup(cfg); err == nil {
		t.Error("expected error for a constraint registered twice")
	}
}

func TestRun_InvalidPattern(t *testing.T) {
	_, err := Run(Options{Pattern: "github.com/nonexistent/package/that/does/not/exist"})
	if err == nil {
		t.Error("expected error for nonexistent package")
	}
}
