package nilguard

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/unbound-force/nilguard/internal/rules"
)

var (
	// ErrAmbiguousType is returned when a customization names its type
	// both by reference and by name.
	ErrAmbiguousType = errors.New("customization sets both Type and TypeName")

	// ErrEmptyCustomization is returned when a customization selects
	// neither a type, a member nor a parameter.
	ErrEmptyCustomization = errors.New("customization selects no type, method or parameter")
)

const excludeAllName = "exclude-all"

// Customization is a declarative change to a fixture, applied by
// Customize or WithCustomizations.
type Customization interface {
	apply(f *Fixture) error
}

// Customize applies cs in order and stops at the first invalid one.
func (f *Fixture) Customize(cs ...Customization) error {
	for _, c := range cs {
		if c == nil {
			return errors.New("nilguard: nil customization")
		}
		if err := c.apply(f); err != nil {
			return err
		}
	}
	return nil
}

// ExcludeAll excludes every type. Later include rules select what is
// tested.
type ExcludeAll struct{}

func (ExcludeAll) apply(f *Fixture) error {
	return f.rules.Add(excludeAll())
}

func excludeAll() rules.Rule {
	return rules.Rule{Name: excludeAllName, Type: regexp.MustCompile(`.*`)}
}

// Selector picks candidates by type, member and parameter. Type matches
// the declaring type exactly; TypeName matches the type name with or
// without its package qualification. Empty fields match anything, but
// at least one must be set.
type Selector struct {
	Type     reflect.Type
	TypeName string
	Method   string
	Param    string
}

func (s Selector) rule(include bool) (rules.Rule, error) {
	if s.Type != nil && s.TypeName != "" {
		return rules.Rule{}, ErrAmbiguousType
	}
	if s.Type == nil && s.TypeName == "" && s.Method == "" && s.Param == "" {
		return rules.Rule{}, ErrEmptyCustomization
	}

	var typePattern, methodPattern, paramPattern string
	switch {
	case s.Type != nil:
		typePattern = "^" + regexp.QuoteMeta(fullName(s.Type)) + "$"
	case s.TypeName != "":
		typePattern = `(^|[./])` + regexp.QuoteMeta(s.TypeName) + "$"
	}
	if s.Method != "" {
		methodPattern = "^" + regexp.QuoteMeta(s.Method) + "$"
	}
	if s.Param != "" {
		paramPattern = "^" + regexp.QuoteMeta(s.Param) + "$"
	}
	return rules.New(s.String(), include, typePattern, methodPattern, paramPattern)
}

func (s Selector) String() string {
	var parts []string
	switch {
	case s.Type != nil:
		parts = append(parts, fullName(s.Type))
	case s.TypeName != "":
		parts = append(parts, s.TypeName)
	}
	if s.Method != "" {
		parts = append(parts, s.Method)
	}
	name := strings.Join(parts, ".")
	if s.Param != "" {
		name += "(" + s.Param + ")"
	}
	return name
}

// fullName returns the import-path qualified name of t, dropping
// pointers and generic arguments.
func fullName(t reflect.Type) string {
	for t.Kind() == reflect.Pointer && t.Name() == "" {
		t = t.Elem()
	}
	name, _, _ := strings.Cut(t.Name(), "[")
	if t.PkgPath() == "" {
		return name
	}
	return t.PkgPath() + "." + name
}

// Exclude removes the selected candidates.
type Exclude Selector

func (e Exclude) apply(f *Fixture) error {
	r, err := Selector(e).rule(false)
	if err != nil {
		return fmt.Errorf("exclude: %w", err)
	}
	return f.rules.Add(r)
}

// IncludeOnly tests only the selected candidates. It implies ExcludeAll
// ahead of every other rule; several IncludeOnly customizations add up.
type IncludeOnly Selector

func (i IncludeOnly) apply(f *Fixture) error {
	r, err := Selector(i).rule(true)
	if err != nil {
		return fmt.Errorf("include only: %w", err)
	}
	if rs := f.rules.Rules(); len(rs) == 0 || rs[0].Name != excludeAllName {
		if err := f.rules.Insert(0, excludeAll()); err != nil {
			return err
		}
	}
	return f.rules.Add(r)
}

// Substitute builds To wherever From is requested.
type Substitute struct {
	From reflect.Type
	To   reflect.Type
}

func (s Substitute) apply(f *Fixture) error {
	if err := f.table.Add(s.From, s.To); err != nil {
		return fmt.Errorf("substitute: %w", err)
	}
	return nil
}

// ExcludeNonPublic excludes unexported functions and methods.
type ExcludeNonPublic struct{}

func (ExcludeNonPublic) apply(f *Fixture) error {
	r, err := rules.New("exclude-non-public", false, "", `^[^\p{Lu}]`, "")
	if err != nil {
		return err
	}
	return f.rules.Add(r)
}
