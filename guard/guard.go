// Package guard provides the nil-argument error that code checked by
// nilguard returns, and a helper to produce it.
//
//	func NewStore(db *sql.DB, log *slog.Logger) (*Store, error) {
//		if err := guard.NotNil("db", db); err != nil {
//			return nil, err
//		}
//		...
//	}
package guard

import (
	"errors"
	"fmt"
	"reflect"
)

// ArgumentNilError reports a nil argument.
type ArgumentNilError struct {
	// Param is the parameter name.
	Param string
}

func (e *ArgumentNilError) Error() string {
	return fmt.Sprintf("argument %q must not be nil", e.Param)
}

// NilArgument returns the parameter name. Any error type with this
// method is recognized as a nil-argument error.
func (e *ArgumentNilError) NilArgument() string { return e.Param }

// NotNil returns an *ArgumentNilError naming param when v is nil,
// including a typed nil stored in an interface.
func NotNil(param string, v any) error {
	if IsNil(v) {
		return &ArgumentNilError{Param: param}
	}
	return nil
}

// IsNil reports whether v is nil or holds a nil pointer, map, slice,
// func, chan or unsafe pointer.
func IsNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func,
		reflect.Chan, reflect.UnsafePointer, reflect.Interface:
		return rv.IsNil()
	}
	return false
}

// ParamOf returns the parameter named by the first nil-argument error
// in err's tree.
func ParamOf(err error) (string, bool) {
	var na interface{ NilArgument() string }
	if errors.As(err, &na) {
		return na.NilArgument(), true
	}
	return "", false
}
