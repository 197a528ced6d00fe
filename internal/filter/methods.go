package filter

import (
	"strings"

	"github.com/unbound-force/nilguard/internal/model"
)

// Abstract excludes members declared without a body.
type Abstract struct{}

// Name implements the diagnostic label.
func (Abstract) Name() string { return "abstract" }

// ExcludeMethod implements MethodFilter.
func (Abstract) ExcludeMethod(t *model.Type, m *model.Method) bool {
	MustMethod(t, m)
	return m.Abstract
}

// GeneratedMember excludes members declared in generated files or on
// generated types.
type GeneratedMember struct{}

// Name implements the diagnostic label.
func (GeneratedMember) Name() string { return "generated-member" }

// ExcludeMethod implements MethodFilter.
func (GeneratedMember) ExcludeMethod(t *model.Type, m *model.Method) bool {
	MustMethod(t, m)
	if m.Generated {
		return true
	}
	if m.Declaring != nil && generatedType(m.Declaring) {
		return true
	}
	return generatedType(t)
}

// Setter excludes SetX methods paired with an X getter. Only methods
// are considered; constructors and functions never match.
type Setter struct{}

// Name implements the diagnostic label.
func (Setter) Name() string { return "setter" }

// ExcludeMethod implements MethodFilter.
func (Setter) ExcludeMethod(t *model.Type, m *model.Method) bool {
	MustMethod(t, m)
	return m.Kind == model.MemberMethod && m.Setter && strings.HasPrefix(m.Name, "Set")
}

// Equality excludes the Equal family: Equal(T) bool and Equal(any) bool
// on a type, and comparers of the form Equal(a, b T) bool. An Equal
// whose parameters match none of these shapes is kept. Constructors
// never match.
type Equality struct{}

// Name implements the diagnostic label.
func (Equality) Name() string { return "equality" }

// ExcludeMethod implements MethodFilter.
func (Equality) ExcludeMethod(t *model.Type, m *model.Method) bool {
	MustMethod(t, m)
	if m.Kind == model.MemberConstructor {
		return false
	}
	if m.Name != "Equal" && m.Name != "Equals" {
		return false
	}
	if len(m.Results) != 1 || m.Results[0].Name != "bool" {
		return false
	}
	switch len(m.Params) {
	case 1:
		// Equal(other T) on a type; a package function with one
		// parameter is not an equality check.
		return m.Kind == model.MemberMethod
	case 2:
		return m.Params[0].Type.Name == m.Params[1].Type.Name
	default:
		return false
	}
}

// Defaulted excludes members whose nil-able parameters all carry a
// non-nil default, unless Targeted reports the member as explicitly
// selected.
type Defaulted struct {
	Targeted func(t *model.Type, m *model.Method) bool
}

// Name implements the diagnostic label.
func (Defaulted) Name() string { return "defaulted" }

// ExcludeMethod implements MethodFilter.
func (d Defaulted) ExcludeMethod(t *model.Type, m *model.Method) bool {
	MustMethod(t, m)
	nilable := 0
	for _, p := range m.Params {
		if !p.Nilable() {
			continue
		}
		nilable++
		if p.Default != model.ValueDefault {
			return false
		}
	}
	if nilable == 0 {
		return false
	}
	if d.Targeted != nil && d.Targeted(t, m) {
		return false
	}
	return true
}

// Ignored excludes members annotated with //nilguard:ignore.
type Ignored struct{}

// Name implements the diagnostic label.
func (Ignored) Name() string { return "ignored" }

// ExcludeMethod implements MethodFilter.
func (Ignored) ExcludeMethod(t *model.Type, m *model.Method) bool {
	MustMethod(t, m)
	return m.Ignored
}

// Unbound excludes members without a reachable runtime value:
// unexported methods, and functions missing from the symbol table.
type Unbound struct{}

// Name implements the diagnostic label.
func (Unbound) Name() string { return "unbound" }

// ExcludeMethod implements MethodFilter.
func (Unbound) ExcludeMethod(t *model.Type, m *model.Method) bool {
	MustMethod(t, m)
	return !m.Invocable()
}
