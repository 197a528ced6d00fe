package mapping_test

import (
	"bytes"
	"errors"
	"io"
	"math/rand"
	randv2 "math/rand/v2"
	"reflect"
	"strings"
	"testing"

	"github.com/unbound-force/nilguard/internal/mapping"
)

var (
	readerType = reflect.TypeFor[io.Reader]()
	writerType = reflect.TypeFor[io.Writer]()
)

func TestTable_Add(t *testing.T) {
	tbl := mapping.NewTable()
	if err := tbl.Add(readerType, reflect.TypeFor[*strings.Reader]()); err != nil {
		t.Fatalf("Add() failed: %v", err)
	}
	if got := tbl.Map(readerType); got != reflect.TypeFor[*strings.Reader]() {
		t.Errorf("Map(io.Reader) = %v", got)
	}
	if got := tbl.Map(writerType); got != writerType {
		t.Errorf("unmapped type should pass through, got %v", got)
	}

	err := tbl.Add(readerType, reflect.TypeFor[*bytes.Buffer]())
	if !errors.Is(err, mapping.ErrDuplicate) {
		t.Errorf("expected ErrDuplicate, got %v", err)
	}
	if err := tbl.Add(writerType, reflect.TypeFor[int]()); err == nil {
		t.Error("expected error for a type that does not implement io.Writer")
	}
	if tbl.Len() != 1 {
		t.Errorf("Len() = %d, want 1", tbl.Len())
	}
}

func TestTable_Names(t *testing.T) {
	tbl := mapping.NewTable()
	if err := tbl.Add(readerType, reflect.TypeFor[*bytes.Buffer]()); err != nil {
		t.Fatalf("Add() failed: %v", err)
	}
	if got := tbl.MapName("io.Reader"); got != "*bytes.Buffer" {
		t.Errorf("MapName(io.Reader) = %q", got)
	}
	if err := tbl.AddName("any", "string"); err != nil {
		t.Fatalf("AddName() failed: %v", err)
	}
	if err := tbl.AddName("any", "int"); !errors.Is(err, mapping.ErrDuplicate) {
		t.Errorf("expected ErrDuplicate, got %v", err)
	}
	if err := tbl.AddName("", "int"); err == nil {
		t.Error("expected error for empty name")
	}

	if !tbl.Remove(readerType) {
		t.Error("Remove() should report the existing entry")
	}
	if tbl.Remove(readerType) {
		t.Error("second Remove() should report nothing removed")
	}
	if got := tbl.MapName("io.Reader"); got != "io.Reader" {
		t.Errorf("removed name still mapped to %q", got)
	}
}

func TestTable_SameNameDistinctTypes(t *testing.T) {
	// Both print as "rand.Source".
	v1 := reflect.TypeFor[rand.Source]()
	v2 := reflect.TypeFor[randv2.Source]()
	if v1.String() != v2.String() {
		t.Fatalf("expected equal type strings, got %s and %s", v1, v2)
	}

	tbl := mapping.NewTable()
	if err := tbl.Add(v1, reflect.TypeOf(rand.NewSource(1))); err != nil {
		t.Fatalf("Add(math/rand.Source) failed: %v", err)
	}
	if err := tbl.Add(v2, reflect.TypeOf(randv2.NewPCG(1, 2))); err != nil {
		t.Fatalf("Add(math/rand/v2.Source) failed: %v", err)
	}
	if tbl.Map(v2) != reflect.TypeOf(randv2.NewPCG(1, 2)) {
		t.Errorf("Map(math/rand/v2.Source) = %v", tbl.Map(v2))
	}
	if tbl.Len() != 2 {
		t.Errorf("Len() = %d, want 2", tbl.Len())
	}

	// Removing the second type keeps the name the first one claimed.
	tbl.Remove(v2)
	if got := tbl.MapName("rand.Source"); got != reflect.TypeOf(rand.NewSource(1)).String() {
		t.Errorf("MapName(rand.Source) = %q after removing the v2 entry", got)
	}
}

func TestTable_RemoveName(t *testing.T) {
	tbl := mapping.NewTable()
	if err := tbl.AddName("any", "string"); err != nil {
		t.Fatal(err)
	}
	if err := tbl.Add(readerType, reflect.TypeFor[*bytes.Buffer]()); err != nil {
		t.Fatal(err)
	}
	if tbl.RemoveName("io.Reader") {
		t.Error("RemoveName() should not drop a name owned by a runtime entry")
	}
	if !tbl.RemoveName("any") {
		t.Error("RemoveName() should report the existing entry")
	}
	if tbl.RemoveName("any") {
		t.Error("second RemoveName() should report nothing removed")
	}
	if got := tbl.MapName("any"); got != "any" {
		t.Errorf("removed name still mapped to %q", got)
	}
	if tbl.Len() != 1 {
		t.Errorf("Len() = %d, want 1", tbl.Len())
	}
}

func TestChain(t *testing.T) {
	first := mapping.NewTable()
	second := mapping.NewTable()
	if err := first.AddName("any", "fmt.Stringer"); err != nil {
		t.Fatal(err)
	}
	if err := second.AddName("fmt.Stringer", "*strings.Builder"); err != nil {
		t.Fatal(err)
	}
	c := mapping.Chain{first, mapping.Func(func(t reflect.Type) reflect.Type { return t }), second}

	if got := c.MapName("any"); got != "*strings.Builder" {
		t.Errorf("MapName(any) = %q, want tables applied in order", got)
	}

	var calls int
	c = mapping.Chain{mapping.Func(func(t reflect.Type) reflect.Type {
		calls++
		if t == readerType {
			return reflect.TypeFor[*bytes.Reader]()
		}
		return t
	})}
	if got := c.Map(readerType); got != reflect.TypeFor[*bytes.Reader]() || calls != 1 {
		t.Errorf("Map() = %v after %d calls", got, calls)
	}
}
