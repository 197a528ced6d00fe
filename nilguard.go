// Package nilguard generates nil-argument test cases for a Go package.
//
// For every function, method and constructor that survives the filter
// pipeline, and for every nil-able parameter of it, the fixture yields
// one case calling the member with exactly that parameter nil and every
// other argument set to a synthesized non-nil value. A well-behaved
// member fails such a call with an error naming the parameter, as
// guard.NotNil produces.
//
// A package test typically binds its own symbols (see nilguard gen) and
// runs every case as a subtest:
//
//	func TestNilArguments(t *testing.T) {
//		f, err := nilguard.Load(".", symbols)
//		if err != nil {
//			t.Fatal(err)
//		}
//		nilguard.Run(t, f)
//	}
package nilguard

import (
	"github.com/unbound-force/nilguard/internal/execution"
	"github.com/unbound-force/nilguard/internal/loader"
	"github.com/unbound-force/nilguard/internal/model"
)

type (
	// Symbols maps declared names to runtime values.
	Symbols = model.Symbols

	// Assembly is a loaded package.
	Assembly = model.Assembly

	// Type describes a declared type, or the package itself for
	// package-level functions.
	Type = model.Type

	// Method describes a function, method or constructor.
	Method = model.Method

	// Candidate is a (type, member, parameter) triple.
	Candidate = model.Candidate

	// Binding selects which members are enumerated.
	Binding = model.Binding

	// Setup turns a case into a callable.
	Setup = execution.Setup

	// Completion is the outcome of running a case.
	Completion = execution.Completion

	// CompositionError reports a case whose arguments or receiver
	// could not be built.
	CompositionError = execution.CompositionError

	// PanicError reports a recovered panic whose value is not an error.
	PanicError = execution.PanicError
)

// Binding flags.
const (
	BindFunctions    = model.BindFunctions
	BindMethods      = model.BindMethods
	BindConstructors = model.BindConstructors
	BindExported     = model.BindExported
	BindUnexported   = model.BindUnexported
	BindPromoted     = model.BindPromoted
	DefaultBinding   = model.DefaultBinding
)

// Load loads the package matching pattern, binds syms to it and returns
// a fixture over it.
func Load(pattern string, syms Symbols, opts ...Option) (*Fixture, error) {
	asm, err := loader.Assembly(pattern)
	if err != nil {
		return nil, err
	}
	if err := model.Bind(asm, syms); err != nil {
		return nil, err
	}
	return New(asm, opts...)
}
