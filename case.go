package nilguard

import (
	"context"
	"slices"

	"github.com/unbound-force/nilguard/internal/execution"
	"github.com/unbound-force/nilguard/internal/model"
)

// MethodData is one case: a member called with exactly one parameter
// nil. It is immutable once built.
type MethodData struct {
	typ       *model.Type
	method    *model.Method
	instance  any
	args      []any
	nullIndex int
	nullParam string
	setup     execution.Setup
}

// Type returns the declaring type. Package functions report the
// package type.
func (d *MethodData) Type() *model.Type { return d.typ }

// Method returns the member under test.
func (d *MethodData) Method() *model.Method { return d.method }

// Instance returns the receiver, or nil for functions and constructors
// and for cases that could not be composed.
func (d *MethodData) Instance() any { return d.instance }

// Args returns a copy of the arguments. The entry at NullIndex is nil.
func (d *MethodData) Args() []any { return slices.Clone(d.args) }

// NullIndex returns the index of the nil parameter.
func (d *MethodData) NullIndex() int { return d.nullIndex }

// NullParam returns the name of the nil parameter.
func (d *MethodData) NullParam() string { return d.nullParam }

// Setup returns the execution strategy, *execution.Succeeded or
// *execution.Errored.
func (d *MethodData) Setup() Setup { return d.setup }

// Composed reports whether the case's arguments and receiver were
// built.
func (d *MethodData) Composed() bool {
	_, ok := d.setup.(*execution.Succeeded)
	return ok
}

// Call runs the case. The completion carries whatever the member
// returned, panicked with or reported asynchronously.
func (d *MethodData) Call(ctx context.Context) *Completion {
	return d.setup.Callable()(ctx)
}

// String formats the case as "Type.Method(param)", or "Func(param)"
// for package functions.
func (d *MethodData) String() string {
	return d.method.QualifiedName() + "(" + d.nullParam + ")"
}
