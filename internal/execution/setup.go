package execution

import (
	"context"
	"fmt"
	"reflect"

	"github.com/unbound-force/nilguard/internal/model"
)

// Callable runs a case.
type Callable func(ctx context.Context) *Completion

// Setup is the strategy that turns a case into a Callable. It is either
// *Succeeded or *Errored.
type Setup interface {
	Callable() Callable
	setup()
}

// Succeeded invokes a bound member with composed arguments.
type Succeeded struct {
	// Func is the function or method value to call.
	Func reflect.Value

	// Args holds one value per parameter; nil entries pass the zero
	// value of the parameter type.
	Args []any
}

func (*Succeeded) setup() {}

// Callable implements Setup.
func (s *Succeeded) Callable() Callable {
	return func(ctx context.Context) *Completion {
		return Invoke(ctx, s.Func, s.Args)
	}
}

// Errored replays a composition failure.
type Errored struct {
	Err *CompositionError
}

func (*Errored) setup() {}

// Callable implements Setup. The completion is always already failed
// with the composition error.
func (e *Errored) Callable() Callable {
	return func(context.Context) *Completion {
		return Completed(e.Err)
	}
}

var (
	errorType = reflect.TypeFor[error]()
	waiter    = reflect.TypeFor[interface{ Wait() error }]()
)

// Invoke calls fn with args and normalizes every outcome into a
// Completion: a panic, a non-nil trailing error result, and the result
// of an awaited channel or Wait method all become its error. Invoke
// never panics itself. ctx bounds only the wait for asynchronous
// results.
func Invoke(ctx context.Context, fn reflect.Value, args []any) (c *Completion) {
	defer func() {
		if r := recover(); r != nil {
			c = Completed(fromPanic(r))
		}
	}()

	if !fn.IsValid() || fn.Kind() != reflect.Func || fn.IsNil() {
		return Completed(fmt.Errorf("invoke: no function bound"))
	}
	ft := fn.Type()
	if len(args) != ft.NumIn() {
		return Completed(fmt.Errorf("invoke: %s takes %d arguments, got %d", ft, ft.NumIn(), len(args)))
	}

	in := make([]reflect.Value, len(args))
	for i, a := range args {
		pt := ft.In(i)
		if a == nil {
			in[i] = reflect.Zero(pt)
			continue
		}
		v := reflect.ValueOf(a)
		if !v.Type().AssignableTo(pt) {
			return Completed(fmt.Errorf("invoke: argument %d: %s is not assignable to %s", i, v.Type(), pt))
		}
		in[i] = v
	}

	var out []reflect.Value
	if ft.IsVariadic() {
		out = fn.CallSlice(in)
	} else {
		out = fn.Call(in)
	}
	return settle(ctx, out)
}

func settle(ctx context.Context, out []reflect.Value) *Completion {
	for _, v := range out {
		if v.Type() == errorType && !v.IsNil() {
			return Completed(v.Interface().(error))
		}
	}
	for _, v := range out {
		if await, ok := awaitable(v); ok {
			c := newCompletion()
			go func() {
				defer func() {
					if r := recover(); r != nil {
						c.finish(fromPanic(r))
					}
				}()
				c.finish(await(ctx))
			}()
			return c
		}
	}
	return Completed(nil)
}

// awaitable recognizes the asynchronous result shapes: a receive-capable
// channel of error and a value with a Wait() error method. Nil values
// are treated as already complete.
func awaitable(v reflect.Value) (func(context.Context) error, bool) {
	t := v.Type()
	switch {
	case t.Kind() == reflect.Chan && t.Elem() == errorType && t.ChanDir()&reflect.RecvDir != 0:
		if v.IsNil() {
			return nil, false
		}
		return func(ctx context.Context) error {
			chosen, recv, ok := reflect.Select([]reflect.SelectCase{
				{Dir: reflect.SelectRecv, Chan: reflect.ValueOf(ctx.Done())},
				{Dir: reflect.SelectRecv, Chan: v},
			})
			if chosen == 0 {
				return ctx.Err()
			}
			if !ok || recv.IsNil() {
				return nil
			}
			return recv.Interface().(error)
		}, true
	case t.Implements(waiter):
		if model.NilableKind(t.Kind()) && v.IsNil() {
			return nil, false
		}
		w := v.Interface().(interface{ Wait() error })
		return func(ctx context.Context) error {
			done := make(chan error, 1)
			go func() {
				defer func() {
					if r := recover(); r != nil {
						done <- fromPanic(r)
					}
				}()
				done <- w.Wait()
			}()
			select {
			case err := <-done:
				return err
			case <-ctx.Done():
				return ctx.Err()
			}
		}, true
	}
	return nil, false
}
