package model

import (
	"fmt"
	"reflect"
	"strings"
)

// Symbols maps declared names to runtime values, in the layout
// `yaegi extract` uses for a single package:
//
//	"Parse":      reflect.ValueOf(Parse),
//	"Store":      reflect.ValueOf((*Store)(nil)),
//	"Map[int]":   reflect.ValueOf(Map[int]),
//	"Stack[any]": reflect.ValueOf((*Stack[any])(nil)),
//
// Types are registered as typed nil pointers.
type Symbols map[string]reflect.Value

// Bind attaches runtime values from syms to the assembly's types and
// members. Names without a symbol stay unbound. A symbol whose shape
// does not match its declaration is an error.
func Bind(asm *Assembly, syms Symbols) error {
	if asm == nil {
		return fmt.Errorf("bind: nil assembly")
	}
	asm.Symbols = syms

	for _, t := range asm.Types {
		if t.Kind != KindPackage {
			if err := bindType(t, syms); err != nil {
				return err
			}
		}
		for _, m := range t.Members {
			if m.Kind == MemberMethod {
				continue
			}
			if err := bindFunc(m, syms); err != nil {
				return err
			}
		}
	}
	return nil
}

func bindType(t *Type, syms Symbols) error {
	if t.Generic() {
		t.Instances = make(map[string]reflect.Type)
		for key, v := range instancesOf(t.Name, syms) {
			rt, err := typeOfSymbol(key, v)
			if err != nil {
				return err
			}
			t.Instances[key] = rt
		}
		return nil
	}
	v, ok := syms[t.Name]
	if !ok {
		return nil
	}
	rt, err := typeOfSymbol(t.Name, v)
	if err != nil {
		return err
	}
	t.Reflect = rt
	return nil
}

func bindFunc(m *Method, syms Symbols) error {
	if m.Generic() {
		m.Instances = make(map[string]reflect.Value)
		for key, v := range instancesOf(m.Name, syms) {
			if v.Kind() != reflect.Func {
				return fmt.Errorf("symbol %q: expected func, got %s", key, v.Kind())
			}
			m.Instances[key] = v
		}
		return nil
	}
	v, ok := syms[m.Name]
	if !ok {
		return nil
	}
	if v.Kind() != reflect.Func {
		return fmt.Errorf("symbol %q: expected func, got %s", m.Name, v.Kind())
	}
	m.Func = v
	return nil
}

func typeOfSymbol(key string, v reflect.Value) (reflect.Type, error) {
	if !v.IsValid() || v.Kind() != reflect.Pointer {
		return nil, fmt.Errorf("symbol %q: types must be registered as typed nil pointers", key)
	}
	return v.Type().Elem(), nil
}

func instancesOf(name string, syms Symbols) map[string]reflect.Value {
	out := make(map[string]reflect.Value)
	prefix := name + "["
	for key, v := range syms {
		if strings.HasPrefix(key, prefix) && strings.HasSuffix(key, "]") {
			out[key] = v
		}
	}
	return out
}

// LookupType returns the runtime type registered under a package-name
// qualified type name such as "store.Memory" or "*store.Memory".
func (s Symbols) LookupType(pkgName, qualified string) (reflect.Type, bool) {
	ptr := strings.HasPrefix(qualified, "*")
	name := strings.TrimPrefix(qualified, "*")
	name = strings.TrimPrefix(name, pkgName+".")
	v, ok := s[name]
	if !ok || v.Kind() != reflect.Pointer {
		return nil, false
	}
	if ptr {
		return v.Type(), true
	}
	return v.Type().Elem(), true
}
