// Package model defines the member descriptors that the discovery
// pipeline filters and the fixture turns into test cases. Descriptors
// are plain data: loaders fill them from go/types, tests build them by
// hand, and runtime values are attached through a symbol table.
package model

import (
	"fmt"
	"reflect"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Kind classifies a declared type.
type Kind string

// Type kinds.
const (
	// KindPackage is the synthetic type holding package-level functions.
	KindPackage   Kind = "package"
	KindStruct    Kind = "struct"
	KindNamed     Kind = "named"
	KindEnum      Kind = "enum"
	KindInterface Kind = "interface"
)

// MemberKind classifies a member of a type.
type MemberKind string

// Member kinds.
const (
	MemberFunction    MemberKind = "function"
	MemberMethod      MemberKind = "method"
	MemberConstructor MemberKind = "constructor"
)

// DefaultKind describes what a parameter falls back to when nil is
// passed.
type DefaultKind int

// Parameter default kinds.
const (
	NoDefault DefaultKind = iota
	// NilDefault means nil is an accepted value for the parameter.
	NilDefault
	// ValueDefault means the member substitutes a non-nil value for nil.
	ValueDefault
)

// Assembly is one loaded package.
type Assembly struct {
	// Path is the package import path.
	Path string

	// Name is the package name.
	Name string

	// Types lists the declared types. The synthetic package type, when
	// present, comes first.
	Types []*Type

	// Symbols binds declared names to runtime values. Nil when the
	// assembly was loaded for listing only.
	Symbols Symbols
}

// Type describes a declared type.
type Type struct {
	PkgPath string
	PkgName string
	Name    string
	Kind    Kind

	// Generated is set when the type is declared in a generated file.
	Generated bool

	// Constraint is set for interfaces with a type set, usable only
	// as type constraints.
	Constraint bool

	// Outer is the enclosing type for types declared in the scope of
	// another declaration. Nil for package-level types.
	Outer *Type

	// TypeParams lists the type parameters of a generic type.
	TypeParams []*TypeParam

	// Members lists declared functions, methods and constructors.
	Members []*Method

	// Reflect is the bound runtime type (the named type itself, not a
	// pointer to it). Nil when unbound or still generic.
	Reflect reflect.Type

	// Instances holds the bound runtime types of generic instantiations
	// keyed by InstanceKey.
	Instances map[string]reflect.Type
}

// FullName returns the import-path qualified type name.
func (t *Type) FullName() string {
	if t.Kind == KindPackage {
		return t.PkgPath
	}
	return t.PkgPath + "." + t.Name
}

// QualifiedName returns the type name qualified by package name, the
// form reflect.Type.String uses.
func (t *Type) QualifiedName() string {
	if t.Kind == KindPackage {
		return t.PkgName
	}
	return t.PkgName + "." + t.Name
}

// Generic reports whether the type declares type parameters.
func (t *Type) Generic() bool { return len(t.TypeParams) > 0 }

// Method describes a function, method or constructor.
type Method struct {
	Name string
	Kind MemberKind

	// Declaring is the type the member belongs to.
	Declaring *Type

	// PointerReceiver is set for methods declared on *T.
	PointerReceiver bool

	// Abstract is set for declarations without a body.
	Abstract bool

	// Generated is set for members declared in a generated file.
	Generated bool

	// Setter is set for SetX methods paired with an X getter.
	Setter bool

	// Ignored is set by a //nilguard:ignore directive.
	Ignored bool

	// Promoted is set for methods promoted from an embedded field.
	Promoted bool

	Params  []*Param
	Results []TypeRef

	// TypeParams lists the type parameters of a generic function.
	TypeParams []*TypeParam

	// Func is the bound function value for functions and
	// constructors. Invalid for methods and generic functions.
	Func reflect.Value

	// Instances holds bound generic instantiations keyed by
	// InstanceKey.
	Instances map[string]reflect.Value

	// Location is the source position of the declaration.
	Location string
}

// QualifiedName returns "Type.Name" for methods and constructors and
// the plain name for package functions.
func (m *Method) QualifiedName() string {
	if m.Declaring == nil || m.Declaring.Kind == KindPackage {
		return m.Name
	}
	return m.Declaring.Name + "." + m.Name
}

// Exported reports whether the member name is exported.
func (m *Method) Exported() bool { return IsExported(m.Name) }

// Static reports whether the member can be called without a receiver.
func (m *Method) Static() bool { return m.Kind != MemberMethod }

// Generic reports whether the member itself declares type parameters.
func (m *Method) Generic() bool { return len(m.TypeParams) > 0 }

// Variadic reports whether the last parameter is variadic.
func (m *Method) Variadic() bool {
	return len(m.Params) > 0 && m.Params[len(m.Params)-1].Variadic
}

// Invocable reports whether a runtime value is available, or can be
// looked up, for the member.
func (m *Method) Invocable() bool {
	switch {
	case m.Generic():
		return len(m.Instances) > 0
	case m.Kind == MemberMethod:
		t := m.Declaring
		if t.Generic() {
			return len(t.Instances) > 0 && m.Exported()
		}
		return t.Reflect != nil && m.Exported()
	default:
		return m.Func.IsValid()
	}
}

// TypeRef is a static reference to a parameter or result type.
type TypeRef struct {
	// Name is the type string qualified by package name.
	Name string

	// Kind is the reflect kind of the underlying type. Type parameters
	// report the kind their closing substitution will have.
	Kind reflect.Kind

	// ElemKind is the underlying kind of the pointee for pointers.
	ElemKind reflect.Kind

	// TypeParam names the type parameter when the type is one.
	TypeParam string
}

// Param describes one parameter.
type Param struct {
	Name     string
	Index    int
	Type     TypeRef
	Variadic bool
	Out      bool
	Default  DefaultKind
}

// Nilable reports whether nil is a representable value of the
// parameter type.
func (p *Param) Nilable() bool { return NilableKind(p.Type.Kind) }

// NilableValue reports whether the parameter is a pointer to a scalar,
// the optional-value idiom.
func (p *Param) NilableValue() bool {
	return p.Type.Kind == reflect.Pointer && scalarKind(p.Type.ElemKind)
}

// TypeParam describes a type parameter and its constraint.
type TypeParam struct {
	Name string

	// Constraint is the constraint as written, qualified by package name.
	Constraint string

	// Any is set for an empty constraint (any, interface{}).
	Any bool

	// Comparable is set when the constraint is comparable.
	Comparable bool

	// Terms lists the union terms of the type set, if any.
	Terms []string

	// Methods counts the methods the constraint requires.
	Methods int

	// Embedded lists the embedded interfaces of the constraint.
	Embedded []string
}

// Candidate is the (type, member, parameter) triple the pipeline
// iterates over.
type Candidate struct {
	Type   *Type
	Method *Method
	Param  *Param
}

// String formats the candidate as "pkg.Type.Method(param)".
func (c Candidate) String() string {
	var b strings.Builder
	if c.Type != nil {
		b.WriteString(c.Type.FullName())
	}
	if c.Method != nil {
		b.WriteString(".")
		b.WriteString(c.Method.Name)
	}
	if c.Param != nil {
		fmt.Fprintf(&b, "(%s)", c.Param.Name)
	}
	return b.String()
}

// Binding selects which members are enumerated.
type Binding uint

// Binding flags.
const (
	BindFunctions Binding = 1 << iota
	BindMethods
	BindConstructors
	BindExported
	BindUnexported
	// BindPromoted also enumerates methods promoted from embedded
	// fields. Off by default so each member is tested once, at its
	// declaring type.
	BindPromoted

	DefaultBinding = BindFunctions | BindMethods | BindConstructors |
		BindExported | BindUnexported
)

// Matches reports whether the member is selected by the binding.
func (b Binding) Matches(m *Method) bool {
	if m.Promoted && b&BindPromoted == 0 {
		return false
	}
	switch m.Kind {
	case MemberFunction:
		if b&BindFunctions == 0 {
			return false
		}
	case MemberMethod:
		if b&BindMethods == 0 {
			return false
		}
	case MemberConstructor:
		if b&BindConstructors == 0 {
			return false
		}
	}
	if m.Exported() {
		return b&BindExported != 0
	}
	return b&BindUnexported != 0
}

// NilableKind reports whether nil is a value of types of kind k.
func NilableKind(k reflect.Kind) bool {
	switch k {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice,
		reflect.Func, reflect.Chan, reflect.UnsafePointer:
		return true
	}
	return false
}

func scalarKind(k reflect.Kind) bool {
	switch k {
	case reflect.Bool, reflect.String,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64, reflect.Complex64, reflect.Complex128:
		return true
	}
	return false
}

// IsExported checks if a name starts with an uppercase letter.
func IsExported(name string) bool {
	if name == "" {
		return false
	}
	r, _ := utf8.DecodeRuneInString(name)
	return unicode.IsUpper(r)
}

// InstanceKey returns the symbol key of a generic instantiation, e.g.
// "Map[int,fmt.Stringer]".
func InstanceKey(name string, args []string) string {
	return name + "[" + strings.Join(args, ",") + "]"
}
