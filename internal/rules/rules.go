// Package rules implements the ordered regex rule engine behind the
// customization surface ("exclude every type, then include this one").
//
// Each rule carries optional patterns for the type full name, member
// name and parameter name. A rule with only a type pattern is a type
// rule, one with a member pattern and no parameter pattern is a method
// rule, and any rule with a parameter pattern is a parameter rule.
//
// For a candidate the engine finds, per granularity, the winning rule:
// the last rule in registration order whose patterns all match. The
// most specific winner decides (parameter over method over type). No
// winner at any level means include.
package rules

import (
	"errors"
	"fmt"
	"regexp"
	"slices"

	"github.com/unbound-force/nilguard/internal/filter"
	"github.com/unbound-force/nilguard/internal/model"
)

// Granularity is the level a rule applies at.
type Granularity int

// Rule granularities, least specific first.
const (
	TypeRule Granularity = iota
	MethodRule
	ParamRule
)

func (g Granularity) String() string {
	switch g {
	case TypeRule:
		return "type"
	case MethodRule:
		return "method"
	default:
		return "param"
	}
}

// ErrEmptyRule is returned when a rule carries no pattern.
var ErrEmptyRule = errors.New("rule has no type, method or parameter pattern")

// Rule is one include or exclude directive.
type Rule struct {
	Name    string
	Include bool

	Type   *regexp.Regexp
	Method *regexp.Regexp
	Param  *regexp.Regexp
}

// Granularity classifies the rule by its most specific pattern.
func (r Rule) Granularity() Granularity {
	switch {
	case r.Param != nil:
		return ParamRule
	case r.Method != nil:
		return MethodRule
	default:
		return TypeRule
	}
}

func (r Rule) String() string {
	verb := "exclude"
	if r.Include {
		verb = "include"
	}
	return fmt.Sprintf("%s %s rule %q", verb, r.Granularity(), r.Name)
}

func (r Rule) matchType(t *model.Type) bool {
	return r.Type == nil || r.Type.MatchString(t.FullName())
}

func (r Rule) matchMethod(m *model.Method) bool {
	return r.Method == nil || r.Method.MatchString(m.Name)
}

// New compiles a rule from pattern strings. Empty strings leave the
// corresponding pattern unset.
func New(name string, include bool, typePattern, methodPattern, paramPattern string) (Rule, error) {
	r := Rule{Name: name, Include: include}
	var err error
	if r.Type, err = compile("type", typePattern); err != nil {
		return Rule{}, err
	}
	if r.Method, err = compile("method", methodPattern); err != nil {
		return Rule{}, err
	}
	if r.Param, err = compile("param", paramPattern); err != nil {
		return Rule{}, err
	}
	if r.Type == nil && r.Method == nil && r.Param == nil {
		return Rule{}, fmt.Errorf("rule %q: %w", name, ErrEmptyRule)
	}
	return r, nil
}

func compile(field, pattern string) (*regexp.Regexp, error) {
	if pattern == "" {
		return nil, nil
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("compiling %s pattern %q: %w", field, pattern, err)
	}
	return re, nil
}

// Engine holds rules in registration order. It implements the type,
// method and parameter filter contracts.
type Engine struct {
	rules []Rule
}

// Name implements the diagnostic label.
func (e *Engine) Name() string { return "regex-rules" }

// Add appends a rule.
func (e *Engine) Add(r Rule) error {
	if r.Type == nil && r.Method == nil && r.Param == nil {
		return fmt.Errorf("rule %q: %w", r.Name, ErrEmptyRule)
	}
	e.rules = append(e.rules, r)
	return nil
}

// Insert places a rule at position i, clamped to the list bounds.
func (e *Engine) Insert(i int, r Rule) error {
	if r.Type == nil && r.Method == nil && r.Param == nil {
		return fmt.Errorf("rule %q: %w", r.Name, ErrEmptyRule)
	}
	if i < 0 {
		i = 0
	}
	if i > len(e.rules) {
		i = len(e.rules)
	}
	e.rules = append(e.rules, Rule{})
	copy(e.rules[i+1:], e.rules[i:])
	e.rules[i] = r
	return nil
}

// Rules returns a copy of the rule list.
func (e *Engine) Rules() []Rule {
	return append([]Rule(nil), e.rules...)
}

// Len returns the number of rules.
func (e *Engine) Len() int { return len(e.rules) }

// Winner returns the last rule of granularity g matching the candidate.
// m and p may be nil for coarser granularities.
func (e *Engine) Winner(g Granularity, t *model.Type, m *model.Method, p *model.Param) (Rule, bool) {
	for i := len(e.rules) - 1; i >= 0; i-- {
		r := e.rules[i]
		if r.Granularity() != g || !r.matchType(t) {
			continue
		}
		switch g {
		case MethodRule:
			if !r.matchMethod(m) {
				continue
			}
		case ParamRule:
			if !r.matchMethod(m) || !r.Param.MatchString(p.Name) {
				continue
			}
		}
		return r, true
	}
	return Rule{}, false
}

// ExcludeType implements filter.TypeFilter. A type excluded by its
// winning type rule stays in play when a method or parameter include
// rule could still select something inside it.
func (e *Engine) ExcludeType(t *model.Type) bool {
	filter.MustType(t)
	w, ok := e.Winner(TypeRule, t, nil, nil)
	if !ok || w.Include {
		return false
	}
	return !e.includeBelow(TypeRule, t, nil)
}

// ExcludeMethod implements filter.MethodFilter.
func (e *Engine) ExcludeMethod(t *model.Type, m *model.Method) bool {
	filter.MustMethod(t, m)
	w, ok := e.Winner(MethodRule, t, m, nil)
	if !ok {
		w, ok = e.Winner(TypeRule, t, nil, nil)
	}
	if !ok || w.Include {
		return false
	}
	return !e.includeBelow(MethodRule, t, m)
}

// ExcludeParameter implements filter.ParameterFilter.
func (e *Engine) ExcludeParameter(t *model.Type, m *model.Method, p *model.Param) bool {
	filter.MustParam(t, m, p)
	for g := ParamRule; g >= TypeRule; g-- {
		if w, ok := e.Winner(g, t, m, p); ok {
			return !w.Include
		}
	}
	return false
}

// Targets reports whether an include rule below type granularity
// selects the member explicitly: a method rule matching it, or a
// parameter rule matching it and one of its parameters.
func (e *Engine) Targets(t *model.Type, m *model.Method) bool {
	filter.MustMethod(t, m)
	for _, r := range e.rules {
		if !r.Include || r.Granularity() == TypeRule || !r.matchType(t) || !r.matchMethod(m) {
			continue
		}
		if r.Param == nil || slices.ContainsFunc(m.Params, func(p *model.Param) bool {
			return r.Param.MatchString(p.Name)
		}) {
			return true
		}
	}
	return false
}

// includeBelow reports whether an include rule finer than g could match
// inside the type (and member, when given).
func (e *Engine) includeBelow(g Granularity, t *model.Type, m *model.Method) bool {
	for _, r := range e.rules {
		if !r.Include || r.Granularity() <= g || !r.matchType(t) {
			continue
		}
		if m != nil && !r.matchMethod(m) {
			continue
		}
		return true
	}
	return false
}
