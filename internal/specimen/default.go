package specimen

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/unbound-force/nilguard/internal/mapping"
)

var errorType = reflect.TypeFor[error]()

// DefaultMaxDepth bounds recursion through pointers, containers and
// struct fields.
const DefaultMaxDepth = 8

var (
	// ErrUnsupported is wrapped when no specimen can be built for a type.
	ErrUnsupported = errors.New("no specimen for type")

	// ErrDepth is wrapped when building recursed past the depth limit.
	ErrDepth = errors.New("specimen recursion limit reached")
)

// Default is the reflection-based builder. Lookups go, in order,
// through registered factories, the mapping chain and the structural
// rules for each reflect.Kind. Interfaces with methods need a factory
// or a mapping to a concrete type.
type Default struct {
	mu        sync.RWMutex
	factories map[reflect.Type]BuilderFunc
	mappings  mapping.Chain
	maxDepth  int
	seq       atomic.Int64
}

// DefaultOption configures a Default builder.
type DefaultOption func(*Default)

// WithMaxDepth sets the recursion limit.
func WithMaxDepth(n int) DefaultOption {
	return func(d *Default) { d.maxDepth = n }
}

// WithMappings sets the mapping chain consulted before the structural
// rules.
func WithMappings(c mapping.Chain) DefaultOption {
	return func(d *Default) { d.mappings = c }
}

// NewDefault returns a builder with factories for context.Context,
// error, io.Reader and io.Writer.
func NewDefault(opts ...DefaultOption) *Default {
	d := &Default{
		factories: make(map[reflect.Type]BuilderFunc),
		maxDepth:  DefaultMaxDepth,
	}
	d.Register(reflect.TypeFor[context.Context](), func(Request) (reflect.Value, error) {
		return reflect.ValueOf(context.Background()), nil
	})
	d.Register(errorType, func(Request) (reflect.Value, error) {
		return reflect.ValueOf(errors.New("specimen")), nil
	})
	d.Register(reflect.TypeFor[io.Reader](), func(r Request) (reflect.Value, error) {
		return reflect.ValueOf(strings.NewReader(d.text(r))), nil
	})
	d.Register(reflect.TypeFor[io.Writer](), func(Request) (reflect.Value, error) {
		return reflect.ValueOf(new(bytes.Buffer)), nil
	})
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Register installs f as the factory for t, replacing any previous one.
func (d *Default) Register(t reflect.Type, f BuilderFunc) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.factories[t] = f
}

// Registered reports whether a factory exists for t.
func (d *Default) Registered(t reflect.Type) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.factories[t]
	return ok
}

// RegisterConstructor installs fn, a function returning t or (t, error),
// as the factory for t. Its arguments are built by d; variadic
// parameters receive no values.
func (d *Default) RegisterConstructor(t reflect.Type, fn reflect.Value) error {
	ft := fn.Type()
	if fn.Kind() != reflect.Func {
		return fmt.Errorf("constructor for %s: expected func, got %s", t, ft)
	}
	switch {
	case ft.NumOut() == 1:
	case ft.NumOut() == 2 && ft.Out(1) == errorType:
	default:
		return fmt.Errorf("constructor for %s: must return %s or (%s, error)", t, t, t)
	}
	if !ft.Out(0).AssignableTo(t) {
		return fmt.Errorf("constructor for %s: returns %s", t, ft.Out(0))
	}

	d.Register(t, func(req Request) (v reflect.Value, err error) {
		n := ft.NumIn()
		if ft.IsVariadic() {
			n--
		}
		args := make([]reflect.Value, n)
		for i := range n {
			if args[i], err = d.build(req, ft.In(i), req.depth+1); err != nil {
				return reflect.Value{}, err
			}
		}
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("constructor for %s panicked: %v", t, r)
			}
		}()
		out := fn.Call(args)
		if len(out) == 2 && !out[1].IsNil() {
			return reflect.Value{}, fmt.Errorf("constructor for %s: %w", t, out[1].Interface().(error))
		}
		return out[0], nil
	})
	return nil
}

// SetMappings replaces the mapping chain.
func (d *Default) SetMappings(c mapping.Chain) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.mappings = c
}

// Resolve implements Builder.
func (d *Default) Resolve(req Request) (reflect.Value, error) {
	if req.Type == nil {
		return reflect.Value{}, fmt.Errorf("%w: nil type", ErrUnsupported)
	}
	return d.build(req, req.Type, 0)
}

func (d *Default) build(req Request, t reflect.Type, depth int) (reflect.Value, error) {
	if depth > d.maxDepth {
		return reflect.Value{}, fmt.Errorf("%w building %s", ErrDepth, t)
	}

	d.mu.RLock()
	f, ok := d.factories[t]
	chain := d.mappings
	d.mu.RUnlock()
	if ok {
		req.depth = depth
		v, err := f(req)
		if err != nil {
			return reflect.Value{}, err
		}
		return convert(v, t)
	}

	if to := chain.Map(t); to != nil && to != t {
		v, err := d.build(req, to, depth+1)
		if err != nil {
			return reflect.Value{}, err
		}
		return convert(v, t)
	}

	v := reflect.New(t).Elem()
	n := d.seq.Add(1)
	switch t.Kind() {
	case reflect.Bool:
		v.SetBool(true)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		v.SetInt(n % 100)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		v.SetUint(uint64(n % 100))
	case reflect.Float32, reflect.Float64:
		v.SetFloat(float64(n%100) + 0.5)
	case reflect.Complex64, reflect.Complex128:
		v.SetComplex(complex(float64(n%100), 1))
	case reflect.String:
		v.SetString(d.text(req))
	case reflect.Pointer:
		elem, err := d.build(req, t.Elem(), depth+1)
		if err != nil {
			return reflect.Value{}, err
		}
		p := reflect.New(t.Elem())
		p.Elem().Set(elem)
		return p, nil
	case reflect.Struct:
		for i := range t.NumField() {
			field := t.Field(i)
			if !field.IsExported() || field.Type.Kind() == reflect.Interface {
				continue
			}
			fv, err := d.build(req, field.Type, depth+1)
			if err != nil {
				// Fields are best effort; the zero value is still usable.
				continue
			}
			v.Field(i).Set(fv)
		}
	case reflect.Slice:
		elem, err := d.build(req, t.Elem(), depth+1)
		if err != nil {
			return reflect.Value{}, err
		}
		v = reflect.MakeSlice(t, 1, 1)
		v.Index(0).Set(elem)
	case reflect.Array:
		for i := range t.Len() {
			elem, err := d.build(req, t.Elem(), depth+1)
			if err != nil {
				return reflect.Value{}, err
			}
			v.Index(i).Set(elem)
		}
	case reflect.Map:
		key, err := d.build(req, t.Key(), depth+1)
		if err != nil {
			return reflect.Value{}, err
		}
		elem, err := d.build(req, t.Elem(), depth+1)
		if err != nil {
			return reflect.Value{}, err
		}
		v = reflect.MakeMap(t)
		v.SetMapIndex(key, elem)
	case reflect.Chan:
		v = reflect.MakeChan(t, 1)
	case reflect.Func:
		v = reflect.MakeFunc(t, func([]reflect.Value) []reflect.Value {
			out := make([]reflect.Value, t.NumOut())
			for i := range out {
				out[i] = reflect.Zero(t.Out(i))
			}
			return out
		})
	case reflect.Interface:
		if t.NumMethod() > 0 {
			return reflect.Value{}, fmt.Errorf("%w %s: register a factory or a mapping to a concrete type", ErrUnsupported, t)
		}
		v.Set(reflect.ValueOf(d.text(req)))
	default:
		return reflect.Value{}, fmt.Errorf("%w %s", ErrUnsupported, t)
	}
	return v, nil
}

func (d *Default) text(req Request) string {
	name := req.Param
	if name == "" {
		name = "specimen"
	}
	return fmt.Sprintf("%s-%d", name, d.seq.Add(1))
}

// convert adapts a value built for a substitute to the requested type.
func convert(v reflect.Value, t reflect.Type) (reflect.Value, error) {
	if !v.IsValid() {
		return reflect.Value{}, fmt.Errorf("%w %s: factory returned an invalid value", ErrUnsupported, t)
	}
	if v.Type() == t {
		return v, nil
	}
	if !v.Type().AssignableTo(t) {
		return reflect.Value{}, fmt.Errorf("%w %s: %s is not assignable", ErrUnsupported, t, v.Type())
	}
	out := reflect.New(t).Elem()
	out.Set(v)
	return out, nil
}
