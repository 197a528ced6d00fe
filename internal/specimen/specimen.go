// Package specimen supplies non-nil argument values and receivers for
// the members under test.
package specimen

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/unbound-force/nilguard/internal/model"
)

// ErrNoParameters is returned when specimens are requested for a member
// without parameters.
var ErrNoParameters = errors.New("specimen: parameter list is empty")

// Request describes one value to build.
type Request struct {
	// Type is the requested type.
	Type reflect.Type

	// Param is the parameter name, empty for receivers.
	Param string

	// Member is the qualified member name, used in errors.
	Member string

	depth int
}

func (r Request) String() string {
	if r.Param == "" {
		return fmt.Sprintf("receiver %s of %s", r.Type, r.Member)
	}
	return fmt.Sprintf("parameter %s %s of %s", r.Param, r.Type, r.Member)
}

// Builder returns a non-nil value satisfying the requested type, or an
// error when it cannot.
type Builder interface {
	Resolve(req Request) (reflect.Value, error)
}

// BuilderFunc adapts a function to Builder.
type BuilderFunc func(req Request) (reflect.Value, error)

// Resolve implements Builder.
func (f BuilderFunc) Resolve(req Request) (reflect.Value, error) { return f(req) }

// Parameter is a parameter slot to fill.
type Parameter struct {
	Name string
	Type reflect.Type
}

// IndexError reports a null index outside the parameter list.
type IndexError struct {
	Index int
	Len   int
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("specimen: null index %d out of range [0,%d)", e.Index, e.Len)
}

// Provider fills argument lists and receivers through a Builder.
type Provider struct {
	builder Builder
}

// NewProvider returns a provider over b.
func NewProvider(b Builder) *Provider {
	return &Provider{builder: b}
}

// GetParameterSpecimens returns one argument per parameter with the slot
// at nullIndex left nil. A single parameter yields []any{nil} without
// consulting the builder. Builder failures are returned as is, wrapped
// with the failing parameter.
func (p *Provider) GetParameterSpecimens(member string, params []Parameter, nullIndex int) ([]any, error) {
	if len(params) == 0 {
		return nil, ErrNoParameters
	}
	if nullIndex < 0 || nullIndex >= len(params) {
		return nil, &IndexError{Index: nullIndex, Len: len(params)}
	}
	if len(params) == 1 {
		return []any{nil}, nil
	}

	args := make([]any, len(params))
	for i, param := range params {
		if i == nullIndex {
			continue
		}
		v, err := p.resolve(Request{Type: param.Type, Param: param.Name, Member: member})
		if err != nil {
			return nil, err
		}
		args[i] = v
	}
	return args, nil
}

// CreateInstance returns a receiver of type t for member.
func (p *Provider) CreateInstance(member string, t reflect.Type) (any, error) {
	return p.resolve(Request{Type: t, Member: member})
}

func (p *Provider) resolve(req Request) (any, error) {
	v, err := p.builder.Resolve(req)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", req, err)
	}
	if !v.IsValid() || (model.NilableKind(v.Kind()) && v.IsNil()) {
		return nil, fmt.Errorf("resolving %s: builder returned nil", req)
	}
	return v.Interface(), nil
}
