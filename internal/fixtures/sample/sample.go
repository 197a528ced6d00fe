// Package sample is a fixture package for discovery and verification
// tests. Its members cover every exclusion the default filters apply
// and every verdict a case can reach.
package sample

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/unbound-force/nilguard/guard"
)

// Level is an enum; enums are never candidates.
type Level int

// Levels.
const (
	LevelDebug Level = iota
	LevelInfo
)

// Format writes the level name to w.
func (l Level) Format(w io.Writer) error {
	if err := guard.NotNil("w", w); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "level-%d", int(l))
	return err
}

// Labeler is an interface; interfaces are never candidates.
type Labeler interface {
	Label(prefix *string) string
}

// Item is a stored value.
type Item struct {
	SKU string
	Qty int
}

// Store is an in-memory item store.
type Store struct {
	name  string
	items map[string]*Item
	out   io.Writer
}

// NewStore returns a store that logs to out.
func NewStore(name string, out io.Writer) (*Store, error) {
	if err := guard.NotNil("out", out); err != nil {
		return nil, err
	}
	return &Store{name: name, items: make(map[string]*Item), out: out}, nil
}

// Put stores item under its SKU.
func (s *Store) Put(ctx context.Context, item *Item) error {
	if err := guard.NotNil("ctx", ctx); err != nil {
		return err
	}
	if err := guard.NotNil("item", item); err != nil {
		return err
	}
	s.items[item.SKU] = item
	return nil
}

// Get returns the item for sku. It does not check sku, so the nil case
// panics with a runtime error.
func (s *Store) Get(sku *string) (*Item, bool) {
	it, ok := s.items[*sku]
	return it, ok
}

// Rename checks the wrong parameter name.
func (s *Store) Rename(name *string) error {
	if name == nil {
		return &guard.ArgumentNilError{Param: "newName"}
	}
	s.name = *name
	return nil
}

// Touch accepts nil silently.
func (s *Store) Touch(at *int) {
	if at != nil {
		s.name = fmt.Sprint(s.name, *at)
	}
}

// Name returns the store name.
func (s *Store) Name() *string { return &s.name }

// SetName pairs with Name, so it is a setter.
func (s *Store) SetName(name *string) {
	s.name = *name
}

// Capacity returns the number of stored items.
func (s *Store) Capacity() int { return len(s.items) }

// SetCapacity is not a setter: Capacity returns another type.
func (s *Store) SetCapacity(n int64) { s.items = make(map[string]*Item, n) }

// Equal reports whether both stores hold the same name.
func (s *Store) Equal(other *Store) bool {
	return other != nil && s.name == other.name
}

// Dump writes every item accepted by keep to w.
//
//nilguard:allow-nil keep
func (s *Store) Dump(w io.Writer, keep func(*Item) bool) error {
	if err := guard.NotNil("w", w); err != nil {
		return err
	}
	for _, it := range s.items {
		if keep == nil || keep(it) {
			fmt.Fprintln(w, it.SKU, it.Qty)
		}
	}
	return nil
}

// Fill copies the items into dst.
//
//nilguard:out dst
func (s *Store) Fill(dst *[]Item) {
	for _, it := range s.items {
		*dst = append(*dst, *it)
	}
}

// Debug is excluded by directive.
//
//nilguard:ignore
func (s *Store) Debug(v any) {
	fmt.Fprintln(s.out, v)
}

// Watch reports asynchronously whether ctx is usable.
func (s *Store) Watch(ctx context.Context) <-chan error {
	ch := make(chan error, 1)
	go func() {
		defer close(ch)
		if ctx == nil {
			ch <- &guard.ArgumentNilError{Param: "ctx"}
		}
	}()
	return ch
}

// flush is unexported and unreachable through reflection.
func (s *Store) flush(w io.Writer) error {
	if w == nil {
		return errors.New("nil writer")
	}
	return nil
}

// Merge copies src into dst.
func Merge(dst, src *Store) error {
	if err := guard.NotNil("dst", dst); err != nil {
		return err
	}
	if err := guard.NotNil("src", src); err != nil {
		return err
	}
	for k, v := range src.items {
		dst.items[k] = v
	}
	return dst.flush(dst.out)
}

// Lookup returns m[key].
func Lookup[K comparable, V any](m map[K]V, key K) (V, error) {
	var zero V
	if m == nil {
		return zero, &guard.ArgumentNilError{Param: "m"}
	}
	v, ok := m[key]
	if !ok {
		return zero, fmt.Errorf("key %v not found", key)
	}
	return v, nil
}

// Stack is a generic stack.
type Stack[T any] struct {
	items []T
}

// PushAll appends items.
func (s *Stack[T]) PushAll(items []T) error {
	if items == nil {
		return &guard.ArgumentNilError{Param: "items"}
	}
	s.items = append(s.items, items...)
	return nil
}

// Len returns the number of items.
func (s *Stack[T]) Len() int { return len(s.items) }
