// Package mapping substitutes one requested type for another before a
// specimen or receiver is built: a concrete type for an interface, or a
// closed type argument for a generic parameter.
package mapping

import (
	"errors"
	"fmt"
	"reflect"
)

// ErrDuplicate is returned when a type is registered twice.
var ErrDuplicate = errors.New("duplicate type mapping")

// Mapping yields the type to construct instead of t. Returning t
// unchanged passes the request through.
type Mapping interface {
	Map(t reflect.Type) reflect.Type
}

// Func adapts a function to Mapping.
type Func func(t reflect.Type) reflect.Type

// Map implements Mapping.
func (f Func) Map(t reflect.Type) reflect.Type { return f(t) }

// Chain applies mappings in registration order.
type Chain []Mapping

// Map implements Mapping.
func (c Chain) Map(t reflect.Type) reflect.Type {
	for _, m := range c {
		t = m.Map(t)
	}
	return t
}

// MapName maps a package-name qualified type name, the form used for
// generic type arguments, through every Table in the chain.
func (c Chain) MapName(name string) string {
	for _, m := range c {
		if tbl, ok := m.(*Table); ok {
			name = tbl.MapName(name)
		}
	}
	return name
}

// Table is an explicit substitution table. Runtime entries are keyed by
// type; their names also feed MapName unless another type or AddName
// claimed the name first.
type Table struct {
	entries map[reflect.Type]reflect.Type
	names   map[string]string

	// owners records the runtime type each name entry came from.
	owners map[string]reflect.Type
}

// NewTable returns an empty table.
func NewTable() *Table {
	return &Table{
		entries: make(map[reflect.Type]reflect.Type),
		names:   make(map[string]string),
		owners:  make(map[string]reflect.Type),
	}
}

// Add registers "construct to wherever from is requested". A second
// registration for from, or a to that cannot stand in for from, is an
// error.
func (t *Table) Add(from, to reflect.Type) error {
	if from == nil || to == nil {
		return fmt.Errorf("type mapping: nil type")
	}
	if _, ok := t.entries[from]; ok {
		return fmt.Errorf("%w for %s", ErrDuplicate, from)
	}
	if !to.AssignableTo(from) {
		if from.Kind() != reflect.Interface || !to.Implements(from) {
			return fmt.Errorf("type mapping: %s cannot stand in for %s", to, from)
		}
	}
	t.entries[from] = to
	if name := from.String(); !t.hasName(name) {
		t.names[name] = to.String()
		t.owners[name] = from
	}
	return nil
}

// AddName registers a substitution between type names when no runtime
// type is available, as for generic arguments declared in config.
func (t *Table) AddName(from, to string) error {
	if from == "" || to == "" {
		return fmt.Errorf("type mapping: empty type name")
	}
	if t.hasName(from) {
		return fmt.Errorf("%w for %s", ErrDuplicate, from)
	}
	t.names[from] = to
	return nil
}

func (t *Table) hasName(name string) bool {
	_, ok := t.names[name]
	return ok
}

// Map implements Mapping.
func (t *Table) Map(rt reflect.Type) reflect.Type {
	if to, ok := t.entries[rt]; ok {
		return to
	}
	return rt
}

// MapName maps a type name.
func (t *Table) MapName(name string) string {
	if to, ok := t.names[name]; ok {
		return to
	}
	return name
}

// Len returns the number of entries.
func (t *Table) Len() int { return len(t.entries) + len(t.names) - len(t.owners) }

// Remove deletes the entry for from and reports whether it existed.
func (t *Table) Remove(from reflect.Type) bool {
	if _, ok := t.entries[from]; !ok {
		return false
	}
	delete(t.entries, from)
	if name := from.String(); t.owners[name] == from {
		delete(t.names, name)
		delete(t.owners, name)
	}
	return true
}

// RemoveName deletes a substitution registered with AddName and reports
// whether it existed. Names derived from runtime entries go with Remove.
func (t *Table) RemoveName(from string) bool {
	if _, owned := t.owners[from]; owned || !t.hasName(from) {
		return false
	}
	delete(t.names, from)
	return true
}
