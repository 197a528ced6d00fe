package filter

import "github.com/unbound-force/nilguard/internal/model"

// ClassOrStruct keeps concrete types: structs, other named non-interface
// types and the package type. Interfaces and enums are excluded.
type ClassOrStruct struct{}

// Name implements the diagnostic label.
func (ClassOrStruct) Name() string { return "class-or-struct" }

// ExcludeType implements TypeFilter.
func (ClassOrStruct) ExcludeType(t *model.Type) bool {
	MustType(t)
	switch t.Kind {
	case model.KindPackage, model.KindStruct, model.KindNamed:
		return false
	default:
		return true
	}
}

// Generated excludes types declared in generated files, checked
// through enclosing types.
type Generated struct{}

// Name implements the diagnostic label.
func (Generated) Name() string { return "generated-type" }

// ExcludeType implements TypeFilter.
func (Generated) ExcludeType(t *model.Type) bool {
	MustType(t)
	return generatedType(t)
}

func generatedType(t *model.Type) bool {
	for ; t != nil; t = t.Outer {
		if t.Generated {
			return true
		}
	}
	return false
}

// Denylist excludes types by full name.
type Denylist struct {
	names map[string]struct{}
}

// NewDenylist returns a Denylist over full type names.
func NewDenylist(names ...string) Denylist {
	d := Denylist{names: make(map[string]struct{}, len(names))}
	for _, n := range names {
		d.names[n] = struct{}{}
	}
	return d
}

// Name implements the diagnostic label.
func (Denylist) Name() string { return "denylist" }

// ExcludeType implements TypeFilter.
func (d Denylist) ExcludeType(t *model.Type) bool {
	MustType(t)
	_, ok := d.names[t.FullName()]
	return ok
}
