package filter_test

import (
	"bytes"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/unbound-force/nilguard/internal/filter"
	"github.com/unbound-force/nilguard/internal/model"
)

func typ(name string, kind model.Kind) *model.Type {
	return &model.Type{PkgPath: "example.com/pkg", PkgName: "pkg", Name: name, Kind: kind}
}

func ptrParam(name string, i int) *model.Param {
	return &model.Param{
		Name:  name,
		Index: i,
		Type:  model.TypeRef{Name: "*pkg.Thing", Kind: reflect.Pointer, ElemKind: reflect.Struct},
	}
}

func param(name string, i int, ref model.TypeRef) *model.Param {
	return &model.Param{Name: name, Index: i, Type: ref}
}

var boolResult = []model.TypeRef{{Name: "bool", Kind: reflect.Bool}}

func TestClassOrStruct(t *testing.T) {
	tests := []struct {
		kind    model.Kind
		exclude bool
	}{
		{model.KindPackage, false},
		{model.KindStruct, false},
		{model.KindNamed, false},
		{model.KindInterface, true},
		{model.KindEnum, true},
	}
	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			got := filter.ClassOrStruct{}.ExcludeType(typ("T", tt.kind))
			if got != tt.exclude {
				t.Errorf("ExcludeType(%s) = %v, want %v", tt.kind, got, tt.exclude)
			}
		})
	}
}

func TestGenerated_ChecksOuterTypes(t *testing.T) {
	outer := typ("Outer", model.KindStruct)
	outer.Generated = true
	inner := typ("Inner", model.KindStruct)
	inner.Outer = outer

	if !(filter.Generated{}).ExcludeType(inner) {
		t.Error("type nested in a generated type should be excluded")
	}
	if (filter.Generated{}).ExcludeType(typ("Plain", model.KindStruct)) {
		t.Error("plain type should be kept")
	}

	m := &model.Method{Name: "Do", Kind: model.MemberMethod, Declaring: inner}
	if !(filter.GeneratedMember{}).ExcludeMethod(inner, m) {
		t.Error("member of a generated type should be excluded")
	}
}

func TestDenylist(t *testing.T) {
	d := filter.NewDenylist("example.com/pkg.Legacy")
	if !d.ExcludeType(typ("Legacy", model.KindStruct)) {
		t.Error("denylisted type should be excluded")
	}
	if d.ExcludeType(typ("Modern", model.KindStruct)) {
		t.Error("other types should be kept")
	}
}

func TestSetter(t *testing.T) {
	store := typ("Store", model.KindStruct)
	tests := []struct {
		name    string
		method  *model.Method
		exclude bool
	}{
		{"paired setter", &model.Method{Name: "SetName", Kind: model.MemberMethod, Setter: true}, true},
		{"unpaired Set prefix", &model.Method{Name: "SetName", Kind: model.MemberMethod}, false},
		{"constructor", &model.Method{Name: "SetupStore", Kind: model.MemberConstructor, Setter: true}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := (filter.Setter{}).ExcludeMethod(store, tt.method); got != tt.exclude {
				t.Errorf("ExcludeMethod() = %v, want %v", got, tt.exclude)
			}
		})
	}
}

func TestEquality(t *testing.T) {
	str := model.TypeRef{Name: "string", Kind: reflect.String}
	self := model.TypeRef{Name: "*pkg.Key", Kind: reflect.Pointer, ElemKind: reflect.Struct}
	anyRef := model.TypeRef{Name: "any", Kind: reflect.Interface}
	intRef := model.TypeRef{Name: "int", Kind: reflect.Int}
	key := typ("Key", model.KindStruct)
	pkg := typ("pkg", model.KindPackage)

	tests := []struct {
		name    string
		owner   *model.Type
		method  *model.Method
		exclude bool
	}{
		{
			name:  "Equal(other T) bool",
			owner: key,
			method: &model.Method{Name: "Equal", Kind: model.MemberMethod,
				Params: []*model.Param{param("other", 0, self)}, Results: boolResult},
			exclude: true,
		},
		{
			name:  "Equal(v any) bool",
			owner: key,
			method: &model.Method{Name: "Equal", Kind: model.MemberMethod,
				Params: []*model.Param{param("v", 0, anyRef)}, Results: boolResult},
			exclude: true,
		},
		{
			name:  "comparer Equal(a, b T) bool",
			owner: pkg,
			method: &model.Method{Name: "Equal", Kind: model.MemberFunction,
				Params: []*model.Param{param("a", 0, self), param("b", 1, self)}, Results: boolResult},
			exclude: true,
		},
		{
			name:  "Equal(s string, n int) bool overload",
			owner: key,
			method: &model.Method{Name: "Equal", Kind: model.MemberMethod,
				Params: []*model.Param{param("s", 0, str), param("n", 1, intRef)}, Results: boolResult},
			exclude: false,
		},
		{
			name:  "Equal without bool result",
			owner: key,
			method: &model.Method{Name: "Equal", Kind: model.MemberMethod,
				Params: []*model.Param{param("other", 0, self)}},
			exclude: false,
		},
		{
			name:  "package function with one parameter",
			owner: pkg,
			method: &model.Method{Name: "Equal", Kind: model.MemberFunction,
				Params: []*model.Param{param("v", 0, anyRef)}, Results: boolResult},
			exclude: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := (filter.Equality{}).ExcludeMethod(tt.owner, tt.method); got != tt.exclude {
				t.Errorf("ExcludeMethod() = %v, want %v", got, tt.exclude)
			}
		})
	}
}

func TestDefaulted(t *testing.T) {
	owner := typ("Client", model.KindStruct)
	defaulted := ptrParam("clock", 0)
	defaulted.Default = model.ValueDefault
	plain := ptrParam("log", 1)

	all := &model.Method{Name: "Configure", Kind: model.MemberMethod, Params: []*model.Param{defaulted}}
	mixed := &model.Method{Name: "Start", Kind: model.MemberMethod, Params: []*model.Param{defaulted, plain}}
	none := &model.Method{Name: "Count", Kind: model.MemberMethod}

	f := filter.Defaulted{}
	if !f.ExcludeMethod(owner, all) {
		t.Error("member whose nil-able parameters are all defaulted should be excluded")
	}
	if f.ExcludeMethod(owner, mixed) {
		t.Error("member with a non-defaulted parameter should be kept")
	}
	if f.ExcludeMethod(owner, none) {
		t.Error("member without nil-able parameters is left to the parameter filters")
	}

	targeted := filter.Defaulted{Targeted: func(_ *model.Type, m *model.Method) bool {
		return m.Name == "Configure"
	}}
	if targeted.ExcludeMethod(owner, all) {
		t.Error("explicitly targeted member should be kept")
	}
}

func TestUnbound(t *testing.T) {
	owner := typ("Store", model.KindStruct)
	m := &model.Method{Name: "Put", Kind: model.MemberMethod, Declaring: owner}
	if !(filter.Unbound{}).ExcludeMethod(owner, m) {
		t.Error("method of an unbound type should be excluded")
	}
	owner.Reflect = reflect.TypeOf(struct{}{})
	if (filter.Unbound{}).ExcludeMethod(owner, m) {
		t.Error("exported method of a bound type should be kept")
	}
	unexported := &model.Method{Name: "put", Kind: model.MemberMethod, Declaring: owner}
	if !(filter.Unbound{}).ExcludeMethod(owner, unexported) {
		t.Error("unexported method should be excluded")
	}
}

func TestParameterFilters(t *testing.T) {
	owner := typ("T", model.KindStruct)
	m := &model.Method{Name: "M", Kind: model.MemberMethod}

	out := ptrParam("dst", 0)
	out.Out = true
	allowNil := ptrParam("opts", 0)
	allowNil.Default = model.NilDefault
	variadic := param("xs", 0, model.TypeRef{Name: "[]int", Kind: reflect.Slice})
	variadic.Variadic = true
	scalarPtr := param("n", 0, model.TypeRef{Name: "*int", Kind: reflect.Pointer, ElemKind: reflect.Int})
	intParam := param("n", 0, model.TypeRef{Name: "int", Kind: reflect.Int})

	tests := []struct {
		name    string
		filter  filter.ParameterFilter
		param   *model.Param
		exclude bool
	}{
		{"non-nilable int", filter.NonNilable{}, intParam, true},
		{"non-nilable pointer", filter.NonNilable{}, ptrParam("p", 0), false},
		{"out", filter.Out{}, out, true},
		{"out unmarked", filter.Out{}, ptrParam("p", 0), false},
		{"nil default", filter.NilDefault{}, allowNil, true},
		{"variadic", filter.Variadic{}, variadic, true},
		{"nilable value", filter.NilableValue{}, scalarPtr, true},
		{"nilable value struct pointer", filter.NilableValue{}, ptrParam("p", 0), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.filter.ExcludeParameter(owner, m, tt.param); got != tt.exclude {
				t.Errorf("ExcludeParameter() = %v, want %v", got, tt.exclude)
			}
		})
	}
}

func TestNilArgumentsPanic(t *testing.T) {
	owner := typ("T", model.KindStruct)
	m := &model.Method{Name: "M", Kind: model.MemberMethod}

	tests := []struct {
		name string
		call func()
		arg  string
	}{
		{"type", func() { filter.ClassOrStruct{}.ExcludeType(nil) }, "type"},
		{"method", func() { filter.Abstract{}.ExcludeMethod(owner, nil) }, "method"},
		{"parameter", func() { filter.Out{}.ExcludeParameter(owner, m, nil) }, "parameter"},
		{"chain type", func() { filter.NewChain(nil).ExcludeType(nil) }, "type"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer func() {
				r := recover()
				err, ok := r.(error)
				if !ok {
					t.Fatalf("expected an error panic, got %v", r)
				}
				var argErr *filter.ArgumentError
				if !errors.As(err, &argErr) || argErr.Name != tt.arg {
					t.Errorf("expected ArgumentError for %q, got %v", tt.arg, err)
				}
			}()
			tt.call()
		})
	}
}

type named struct{}

func (named) Name() string { return "custom" }

func (named) ExcludeType(t *model.Type) bool { return t.Name == "Hidden" }

func TestChain_IntersectionAndTrace(t *testing.T) {
	var buf bytes.Buffer
	logger := log.NewWithOptions(&buf, log.Options{Level: log.DebugLevel})
	c := filter.NewChain(logger, filter.ClassOrStruct{}, named{})

	if c.ExcludeType(typ("Visible", model.KindStruct)) {
		t.Error("type passing every filter should be kept")
	}
	if !c.ExcludeType(typ("Hidden", model.KindStruct)) {
		t.Error("type excluded by any filter should be excluded")
	}
	if !c.ExcludeType(typ("Shape", model.KindInterface)) {
		t.Error("interface should be excluded")
	}

	out := buf.String()
	if !strings.Contains(out, "filter=custom") || !strings.Contains(out, "filter=class-or-struct") {
		t.Errorf("expected exclusions traced by filter name, got:\n%s", out)
	}
}

func TestChain_Remove(t *testing.T) {
	c := filter.NewChain(nil, filter.Setter{}, filter.Equality{}, filter.Setter{})
	n := c.Remove(func(f any) bool {
		_, ok := f.(filter.Setter)
		return ok
	})
	if n != 2 {
		t.Errorf("Remove() = %d, want 2", n)
	}
	if len(c.Filters()) != 1 {
		t.Errorf("expected 1 filter left, got %d", len(c.Filters()))
	}
}

func TestDefault_Options(t *testing.T) {
	names := func(fs []any) string {
		var out []string
		for _, f := range fs {
			out = append(out, filter.Name(f))
		}
		return strings.Join(out, ",")
	}

	base := names(filter.Default(filter.Options{}))
	if !strings.Contains(base, "unbound") {
		t.Errorf("default set should drop unbound members: %s", base)
	}
	if strings.Contains(base, "nilable-value") || strings.Contains(base, "defaulted") {
		t.Errorf("opt-in filters should be off by default: %s", base)
	}

	all := names(filter.Default(filter.Options{
		NilableValues: true,
		Defaulted:     true,
		KeepUnbound:   true,
		Denylist:      []string{"example.com/pkg.T"},
	}))
	for _, want := range []string{"nilable-value", "defaulted", "denylist"} {
		if !strings.Contains(all, want) {
			t.Errorf("expected %s in %s", want, all)
		}
	}
	if strings.Contains(all, "unbound") {
		t.Errorf("KeepUnbound should drop the unbound filter: %s", all)
	}
}
