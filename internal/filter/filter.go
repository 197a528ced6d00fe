// Package filter implements the include/exclude predicates that narrow
// the (type, member, parameter) candidates down to the testable set.
package filter

import (
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/unbound-force/nilguard/internal/model"
)

// TypeFilter decides whether a type is removed from consideration.
type TypeFilter interface {
	ExcludeType(t *model.Type) bool
}

// MethodFilter decides whether a member of a surviving type is removed.
type MethodFilter interface {
	ExcludeMethod(t *model.Type, m *model.Method) bool
}

// ParameterFilter decides whether a parameter of a surviving member is
// removed as a nil target.
type ParameterFilter interface {
	ExcludeParameter(t *model.Type, m *model.Method, p *model.Param) bool
}

// ArgumentError is the panic value raised when a filter is handed a nil
// descriptor.
type ArgumentError struct {
	// Name is the offending argument name.
	Name string
}

func (e *ArgumentError) Error() string {
	return fmt.Sprintf("filter: argument %q must not be nil", e.Name)
}

// MustType panics with an *ArgumentError when t is nil. Every filter
// entry point checks its descriptors this way.
func MustType(t *model.Type) {
	if t == nil {
		panic(&ArgumentError{Name: "type"})
	}
}

// MustMethod is MustType plus the member.
func MustMethod(t *model.Type, m *model.Method) {
	MustType(t)
	if m == nil {
		panic(&ArgumentError{Name: "method"})
	}
}

// MustParam is MustMethod plus the parameter.
func MustParam(t *model.Type, m *model.Method, p *model.Param) {
	MustMethod(t, m)
	if p == nil {
		panic(&ArgumentError{Name: "parameter"})
	}
}

// Name returns a short label for f, used in diagnostics.
func Name(f any) string {
	if n, ok := f.(interface{ Name() string }); ok {
		return n.Name()
	}
	return fmt.Sprintf("%T", f)
}

// Chain is an ordered filter list composed by intersection: a candidate
// survives only if no filter at its granularity excludes it. Members
// may implement any subset of the three filter contracts.
type Chain struct {
	filters []any
	logger  *log.Logger
}

// NewChain returns a chain over filters, tracing exclusions to logger
// at debug level. A nil logger disables tracing.
func NewChain(logger *log.Logger, filters ...any) *Chain {
	return &Chain{filters: filters, logger: logger}
}

// Filters returns the filters in evaluation order.
func (c *Chain) Filters() []any { return c.filters }

// Add appends f.
func (c *Chain) Add(f any) { c.filters = append(c.filters, f) }

// Remove drops every filter for which match returns true and reports
// how many were removed.
func (c *Chain) Remove(match func(f any) bool) int {
	kept := c.filters[:0]
	n := 0
	for _, f := range c.filters {
		if match(f) {
			n++
			continue
		}
		kept = append(kept, f)
	}
	c.filters = kept
	return n
}

// ExcludeType reports whether any type filter excludes t.
func (c *Chain) ExcludeType(t *model.Type) bool {
	MustType(t)
	for _, f := range c.filters {
		tf, ok := f.(TypeFilter)
		if ok && tf.ExcludeType(t) {
			c.trace(f, "type", t.FullName())
			return true
		}
	}
	return false
}

// ExcludeMethod reports whether any method filter excludes m.
func (c *Chain) ExcludeMethod(t *model.Type, m *model.Method) bool {
	MustMethod(t, m)
	for _, f := range c.filters {
		mf, ok := f.(MethodFilter)
		if ok && mf.ExcludeMethod(t, m) {
			c.trace(f, "method", t.FullName()+"."+m.Name)
			return true
		}
	}
	return false
}

// ExcludeParameter reports whether any parameter filter excludes p.
func (c *Chain) ExcludeParameter(t *model.Type, m *model.Method, p *model.Param) bool {
	MustParam(t, m, p)
	for _, f := range c.filters {
		pf, ok := f.(ParameterFilter)
		if ok && pf.ExcludeParameter(t, m, p) {
			c.trace(f, "param", model.Candidate{Type: t, Method: m, Param: p}.String())
			return true
		}
	}
	return false
}

func (c *Chain) trace(f any, level, target string) {
	if c.logger == nil {
		return
	}
	c.logger.Debug("excluded", "filter", Name(f), "level", level, "target", target)
}

// Options toggles the opt-in built-ins of the default set.
type Options struct {
	// NilableValues excludes pointer-to-scalar parameters.
	NilableValues bool

	// Defaulted excludes members whose nil-able parameters all carry
	// non-nil defaults, unless Targeted reports them as explicitly
	// selected.
	Defaulted bool

	// Targeted reports explicit selection for the Defaulted filter.
	Targeted func(t *model.Type, m *model.Method) bool

	// Denylist lists type full names to exclude.
	Denylist []string

	// KeepUnbound keeps members that have no runtime value. Listing
	// without symbols sets this.
	KeepUnbound bool
}

// Default returns the built-in filter set.
func Default(opts Options) []any {
	fs := []any{
		ClassOrStruct{},
		Generated{},
	}
	if len(opts.Denylist) > 0 {
		fs = append(fs, NewDenylist(opts.Denylist...))
	}
	fs = append(fs,
		Abstract{},
		GeneratedMember{},
		Setter{},
		Equality{},
		Ignored{},
	)
	if !opts.KeepUnbound {
		fs = append(fs, Unbound{})
	}
	if opts.Defaulted {
		fs = append(fs, Defaulted{Targeted: opts.Targeted})
	}
	fs = append(fs,
		NonNilable{},
		Out{},
		NilDefault{},
		Variadic{},
	)
	if opts.NilableValues {
		fs = append(fs, NilableValue{})
	}
	return fs
}
