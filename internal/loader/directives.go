package loader

import (
	"go/ast"
	"strings"

	"github.com/unbound-force/nilguard/internal/model"
)

const directivePrefix = "nilguard:"

// directives collects the //nilguard: comments attached to a
// declaration:
//
//	//nilguard:ignore              skip the member
//	//nilguard:out buf             buf is written, never read
//	//nilguard:allow-nil opts      nil is a valid value for opts
//	//nilguard:default log, clock  nil is replaced by a non-nil default
type directives struct {
	ignore   bool
	out      map[string]struct{}
	defaults map[string]model.DefaultKind
}

func (d *directives) apply(m *model.Method) {
	if d.ignore {
		m.Ignored = true
	}
	for _, p := range m.Params {
		if _, ok := d.out[p.Name]; ok {
			p.Out = true
		}
		if k, ok := d.defaults[p.Name]; ok {
			p.Default = k
		}
	}
}

// parseDirective parses a single comment. ok is false for comments that
// are not nilguard directives.
func parseDirective(commentText string) (verb string, names []string, ok bool) {
	s := strings.TrimSpace(commentText)
	if strings.HasPrefix(s, "//") {
		s = strings.TrimPrefix(s, "//")
	} else if strings.HasPrefix(s, "/*") {
		s = strings.TrimSpace(strings.TrimPrefix(s, "/*"))
		s = strings.TrimSpace(strings.TrimSuffix(s, "*/"))
	}
	// Directives, like //go: ones, have no space after the slashes.
	if !strings.HasPrefix(s, directivePrefix) {
		return "", nil, false
	}

	rest := strings.TrimPrefix(s, directivePrefix)
	verb, args, _ := strings.Cut(rest, " ")
	for _, part := range strings.Split(args, ",") {
		if name := strings.TrimSpace(part); name != "" {
			names = append(names, name)
		}
	}
	return verb, names, true
}

func collectDirectives(groups ...*ast.CommentGroup) directives {
	var d directives
	for _, g := range groups {
		if g == nil {
			continue
		}
		for _, c := range g.List {
			verb, names, ok := parseDirective(c.Text)
			if !ok {
				continue
			}
			switch verb {
			case "ignore":
				d.ignore = true
			case "out":
				if d.out == nil {
					d.out = make(map[string]struct{})
				}
				for _, n := range names {
					d.out[n] = struct{}{}
				}
			case "allow-nil", "default":
				if d.defaults == nil {
					d.defaults = make(map[string]model.DefaultKind)
				}
				kind := model.NilDefault
				if verb == "default" {
					kind = model.ValueDefault
				}
				for _, n := range names {
					d.defaults[n] = kind
				}
			}
		}
	}
	return d
}

// fileIgnored reports whether a //nilguard:ignore comment precedes the
// package clause.
func fileIgnored(file *ast.File) bool {
	for _, g := range file.Comments {
		if g.End() >= file.Package {
			continue
		}
		for _, c := range g.List {
			if verb, _, ok := parseDirective(c.Text); ok && verb == "ignore" {
				return true
			}
		}
	}
	return false
}
