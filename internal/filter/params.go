package filter

import "github.com/unbound-force/nilguard/internal/model"

// NonNilable excludes parameters whose type has no nil value.
type NonNilable struct{}

// Name implements the diagnostic label.
func (NonNilable) Name() string { return "non-nilable" }

// ExcludeParameter implements ParameterFilter.
func (NonNilable) ExcludeParameter(t *model.Type, m *model.Method, p *model.Param) bool {
	MustParam(t, m, p)
	return !p.Nilable()
}

// Out excludes parameters marked //nilguard:out.
type Out struct{}

// Name implements the diagnostic label.
func (Out) Name() string { return "out" }

// ExcludeParameter implements ParameterFilter.
func (Out) ExcludeParameter(t *model.Type, m *model.Method, p *model.Param) bool {
	MustParam(t, m, p)
	return p.Out
}

// NilDefault excludes parameters that accept nil by contract.
type NilDefault struct{}

// Name implements the diagnostic label.
func (NilDefault) Name() string { return "nil-default" }

// ExcludeParameter implements ParameterFilter.
func (NilDefault) ExcludeParameter(t *model.Type, m *model.Method, p *model.Param) bool {
	MustParam(t, m, p)
	return p.Default == model.NilDefault
}

// NilableValue excludes pointer-to-scalar parameters such as *int,
// which conventionally mean "optional value".
type NilableValue struct{}

// Name implements the diagnostic label.
func (NilableValue) Name() string { return "nilable-value" }

// ExcludeParameter implements ParameterFilter.
func (NilableValue) ExcludeParameter(t *model.Type, m *model.Method, p *model.Param) bool {
	MustParam(t, m, p)
	return p.NilableValue()
}

// Variadic excludes variadic parameters; a nil variadic slice is an
// empty argument list.
type Variadic struct{}

// Name implements the diagnostic label.
func (Variadic) Name() string { return "variadic" }

// ExcludeParameter implements ParameterFilter.
func (Variadic) ExcludeParameter(t *model.Type, m *model.Method, p *model.Param) bool {
	MustParam(t, m, p)
	return p.Variadic
}
