package execution

import (
	"fmt"
	"runtime/debug"
)

// PanicError carries a recovered panic value that is not an error.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

// fromPanic returns the error a recovered value stands for. A panic
// with an error value reports that error itself.
func fromPanic(r any) error {
	if err, ok := r.(error); ok {
		return err
	}
	return &PanicError{Value: r, Stack: debug.Stack()}
}

// CompositionError reports that the arguments or receiver for a case
// could not be built.
type CompositionError struct {
	// Type is the full name of the declaring type.
	Type string

	// Method is the member name.
	Method string

	// Param is the name of the parameter the case passes as nil.
	Param string

	Err error
}

func (e *CompositionError) Error() string {
	return fmt.Sprintf("composing %s.%s with %s = nil: %v", e.Type, e.Method, e.Param, e.Err)
}

// Unwrap returns the underlying build failure.
func (e *CompositionError) Unwrap() error { return e.Err }
