// Package generic closes generic functions and generic receiver types
// by choosing a type argument for each type parameter from its
// constraint.
//
// Policy, in priority order:
//
//  1. empty constraint (any): "any";
//  2. a type set with no methods: its first term, or "int" for
//     comparable;
//  3. a single method-only interface: that interface;
//  4. several embedded interfaces: the stand-in registered for the
//     constraint, unresolved when none is;
//  5. anything else (type set mixed with methods): unresolved, and the
//     member stays open so composition fails for its cases.
package generic

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/unbound-force/nilguard/internal/mapping"
	"github.com/unbound-force/nilguard/internal/model"
)

// ErrUnresolved is wrapped by errors for type parameters the policy
// could not close.
var ErrUnresolved = errors.New("type parameter cannot be closed automatically")

// Policy identifies the rule that produced a resolution.
type Policy int

// Resolution policies.
const (
	PolicyUnresolved Policy = iota
	PolicyAny
	PolicyValue
	PolicyInterface
	PolicyStandIn
)

func (p Policy) String() string {
	switch p {
	case PolicyAny:
		return "any"
	case PolicyValue:
		return "value"
	case PolicyInterface:
		return "interface"
	case PolicyStandIn:
		return "stand-in"
	default:
		return "unresolved"
	}
}

// Resolution is the outcome for one type parameter.
type Resolution struct {
	// Arg is the type argument name, empty when unresolved or when a
	// stand-in is required.
	Arg    string
	Policy Policy
}

// Cache memoizes resolutions per generic parameter. It is safe for
// concurrent use: lookups share a read lock, a miss takes the write
// lock and checks again before computing. Entries are never evicted.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]Resolution
}

// NewCache returns an empty cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[string]Resolution)}
}

// Load returns the cached resolution for key, computing and storing it
// on a miss. compute runs at most once per key and must not call back
// into the cache.
func (c *Cache) Load(key string, compute func() Resolution) Resolution {
	c.mu.RLock()
	r, ok := c.entries[key]
	c.mu.RUnlock()
	if ok {
		return r
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if r, ok := c.entries[key]; ok {
		return r
	}
	r = compute()
	c.entries[key] = r
	return r
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Resolver applies the policy.
type Resolver struct {
	cache    *Cache
	standIns map[string]string
}

// NewResolver returns a resolver backed by cache. A nil cache gets a
// private one.
func NewResolver(cache *Cache) *Resolver {
	if cache == nil {
		cache = NewCache()
	}
	return &Resolver{cache: cache, standIns: make(map[string]string)}
}

// StandIn registers typeName as the argument for type parameters whose
// constraint, as written, is constraint. Registering a constraint twice
// is an error.
func (r *Resolver) StandIn(constraint, typeName string) error {
	key := normalize(constraint)
	if _, ok := r.standIns[key]; ok {
		return fmt.Errorf("stand-in for %q already registered", constraint)
	}
	r.standIns[key] = typeName
	return nil
}

// Resolve returns the resolution for tp, declared by owner (a full
// type or function name).
func (r *Resolver) Resolve(owner string, tp *model.TypeParam) Resolution {
	res := r.cache.Load(owner+"["+tp.Name+" "+tp.Constraint+"]", func() Resolution {
		return classify(tp)
	})
	if res.Policy == PolicyStandIn {
		if arg, ok := r.standIns[normalize(tp.Constraint)]; ok {
			return Resolution{Arg: arg, Policy: PolicyStandIn}
		}
		return Resolution{Policy: PolicyUnresolved}
	}
	return res
}

// Close resolves every parameter and maps each argument through chain.
// Unresolved parameters yield an *UnresolvedError listing them.
func (r *Resolver) Close(owner string, params []*model.TypeParam, chain mapping.Chain) ([]string, error) {
	args := make([]string, len(params))
	var open []string
	for i, tp := range params {
		res := r.Resolve(owner, tp)
		if res.Policy == PolicyUnresolved {
			open = append(open, tp.Name+" "+tp.Constraint)
			continue
		}
		args[i] = chain.MapName(res.Arg)
	}
	if len(open) > 0 {
		return nil, &UnresolvedError{Owner: owner, Params: open}
	}
	return args, nil
}

// UnresolvedError lists the type parameters of Owner left open.
type UnresolvedError struct {
	Owner  string
	Params []string
}

func (e *UnresolvedError) Error() string {
	return fmt.Sprintf("%s: %s: %s", e.Owner, ErrUnresolved, strings.Join(e.Params, ", "))
}

// Unwrap returns ErrUnresolved.
func (e *UnresolvedError) Unwrap() error { return ErrUnresolved }

func classify(tp *model.TypeParam) Resolution {
	switch {
	case tp.Any:
		return Resolution{Arg: "any", Policy: PolicyAny}
	case len(tp.Terms) > 0:
		if tp.Methods > 0 || len(tp.Embedded) > 0 {
			return Resolution{Policy: PolicyUnresolved}
		}
		return Resolution{Arg: strings.TrimPrefix(tp.Terms[0], "~"), Policy: PolicyValue}
	case tp.Comparable:
		if tp.Methods > 0 || len(tp.Embedded) > 0 {
			return Resolution{Policy: PolicyUnresolved}
		}
		return Resolution{Arg: "int", Policy: PolicyValue}
	case len(tp.Embedded) > 1:
		return Resolution{Policy: PolicyStandIn}
	case tp.Methods > 0 || len(tp.Embedded) == 1:
		return Resolution{Arg: tp.Constraint, Policy: PolicyInterface}
	default:
		return Resolution{Arg: "any", Policy: PolicyAny}
	}
}

func normalize(constraint string) string {
	return strings.Join(strings.Fields(constraint), " ")
}
