package nilguard

import (
	"errors"
	"fmt"
	"iter"
	"os"
	"reflect"
	"slices"

	"github.com/charmbracelet/log"

	"github.com/unbound-force/nilguard/internal/config"
	"github.com/unbound-force/nilguard/internal/execution"
	"github.com/unbound-force/nilguard/internal/filter"
	"github.com/unbound-force/nilguard/internal/generic"
	"github.com/unbound-force/nilguard/internal/mapping"
	"github.com/unbound-force/nilguard/internal/model"
	"github.com/unbound-force/nilguard/internal/plugin"
	"github.com/unbound-force/nilguard/internal/rules"
	"github.com/unbound-force/nilguard/internal/specimen"
)

// Fixture drives the discovery pipeline over one assembly. Mutators
// must not run concurrently with enumeration.
type Fixture struct {
	asm      *model.Assembly
	builder  specimen.Builder
	provider *specimen.Provider
	filters  *filter.Chain
	rules    *rules.Engine
	table    *mapping.Table
	mappings mapping.Chain
	resolver *generic.Resolver
	binding  model.Binding
	logger   *log.Logger
	parallel int
}

func defaultLogger() *log.Logger {
	return log.NewWithOptions(os.Stderr, log.Options{
		Level:  log.WarnLevel,
		Prefix: "nilguard",
	})
}

// New returns a fixture over asm. Without options it uses the default
// specimen builder, the default filter set, an empty mapping table and
// DefaultBinding. Configuration errors are returned before any
// discovery runs.
func New(asm *model.Assembly, opts ...Option) (*Fixture, error) {
	if asm == nil {
		return nil, errors.New("nilguard: nil assembly")
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	cfg := o.cfg
	if o.cfgPath != "" {
		loaded, err := config.Load(o.cfgPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	f := &Fixture{
		asm:      asm,
		rules:    &rules.Engine{},
		table:    mapping.NewTable(),
		resolver: generic.NewResolver(o.cache),
		binding:  bindingOf(cfg.Binding),
		logger:   o.logger,
		parallel: cfg.Parallel,
	}
	if f.logger == nil {
		f.logger = defaultLogger()
	}
	if o.binding != nil {
		f.binding = *o.binding
	}

	for _, r := range cfg.Rules {
		rule, err := rules.New(r.Name, r.Include, r.Type, r.Method, r.Param)
		if err != nil {
			return nil, fmt.Errorf("config: %w", err)
		}
		if err := f.rules.Add(rule); err != nil {
			return nil, fmt.Errorf("config: %w", err)
		}
	}
	for from, to := range cfg.Substitutions {
		if err := f.table.AddName(from, to); err != nil {
			return nil, fmt.Errorf("config: %w", err)
		}
	}
	for _, s := range o.substitutions {
		if err := f.table.Add(s[0], s[1]); err != nil {
			return nil, err
		}
	}
	for constraint, typeName := range cfg.StandIns {
		if err := f.resolver.StandIn(constraint, typeName); err != nil {
			return nil, fmt.Errorf("config: %w", err)
		}
	}
	for _, s := range o.standIns {
		if err := f.resolver.StandIn(s[0], s[1]); err != nil {
			return nil, err
		}
	}
	f.mappings = append(mapping.Chain{f.table}, o.mappings...)

	fopts := filter.Options{
		NilableValues: cfg.Filters.NilableValues,
		Defaulted:     cfg.Filters.Defaulted,
		Denylist:      cfg.Denylist,
	}
	if o.filterOpts != nil {
		fopts = *o.filterOpts
	}
	fopts.Targeted = f.rules.Targets
	if asm.Symbols == nil {
		fopts.KeepUnbound = true
	}
	fs := filter.Default(fopts)
	if o.replaceFilters {
		fs = slices.Clone(o.filters)
	}
	fs = append(fs, f.rules)
	if o.pluginRoot != "" {
		plugins, err := plugin.Load(o.pluginRoot, cfg.Plugins, f.logger)
		if err != nil {
			return nil, err
		}
		for _, p := range plugins {
			fs = append(fs, p)
		}
	}
	f.filters = filter.NewChain(f.logger, fs...)

	f.builder = o.builder
	if f.builder == nil {
		f.builder = specimen.NewDefault(specimen.WithMaxDepth(cfg.Specimens.MaxDepth))
	}
	f.syncMappings()
	if d, ok := f.builder.(*specimen.Default); ok && cfg.Specimens.Constructors {
		f.registerConstructors(d)
	}
	f.provider = specimen.NewProvider(f.builder)

	if err := f.Customize(o.customizations...); err != nil {
		return nil, err
	}
	return f, nil
}

func bindingOf(b config.Binding) model.Binding {
	out := model.DefaultBinding
	if !b.Unexported {
		out &^= model.BindUnexported
	}
	if b.Promoted {
		out |= model.BindPromoted
	}
	return out
}

// registerConstructors installs every bound constructor as the factory
// for the type it returns, and for the pointee when it returns a
// pointer. Factories already registered are left alone.
func (f *Fixture) registerConstructors(d *specimen.Default) {
	for _, t := range f.asm.Types {
		for _, m := range t.Members {
			if m.Kind != model.MemberConstructor || !m.Func.IsValid() {
				continue
			}
			out := m.Func.Type().Out(0)
			if d.Registered(out) {
				continue
			}
			if err := d.RegisterConstructor(out, m.Func); err != nil {
				f.logger.Debug("constructor not registered", "constructor", m.Name, "err", err)
				continue
			}
			if out.Kind() != reflect.Pointer || d.Registered(out.Elem()) {
				continue
			}
			d.Register(out.Elem(), func(req specimen.Request) (reflect.Value, error) {
				v, err := d.Resolve(specimen.Request{Type: out, Param: req.Param, Member: req.Member})
				if err != nil {
					return reflect.Value{}, err
				}
				return v.Elem(), nil
			})
		}
	}
}

func (f *Fixture) syncMappings() {
	if d, ok := f.builder.(*specimen.Default); ok {
		d.SetMappings(f.mappings)
	}
}

// Assembly returns the package the fixture enumerates.
func (f *Fixture) Assembly() *model.Assembly { return f.asm }

// Filters returns the filter chain in evaluation order.
func (f *Fixture) Filters() []any { return f.filters.Filters() }

// AddFilter appends fl, a value implementing any of the type, method
// and parameter filter contracts. A nil filter panics.
func (f *Fixture) AddFilter(fl any) *Fixture {
	if fl == nil {
		panic(&filter.ArgumentError{Name: "filter"})
	}
	f.filters.Add(fl)
	return f
}

// RemoveFilter removes every filter of the same dynamic type as fl. The
// fixture's own rule engine stays, so Customize keeps taking effect.
func (f *Fixture) RemoveFilter(fl any) *Fixture {
	if fl == nil {
		panic(&filter.ArgumentError{Name: "filter"})
	}
	t := reflect.TypeOf(fl)
	n := f.filters.Remove(func(x any) bool {
		return reflect.TypeOf(x) == t && x != any(f.rules)
	})
	f.logger.Debug("removed filters", "filter", filter.Name(fl), "count", n)
	return f
}

// AddMapping appends m to the mapping chain.
func (f *Fixture) AddMapping(m mapping.Mapping) *Fixture {
	if m == nil {
		panic(&filter.ArgumentError{Name: "mapping"})
	}
	f.mappings = append(f.mappings, m)
	f.syncMappings()
	return f
}

// RemoveMapping removes every occurrence of m from the mapping chain.
// Only comparable mappings can be matched; the fixture's own
// substitution table is removed entry by entry with RemoveSubstitution.
func (f *Fixture) RemoveMapping(m mapping.Mapping) *Fixture {
	if m == nil {
		panic(&filter.ArgumentError{Name: "mapping"})
	}
	if !reflect.TypeOf(m).Comparable() {
		f.logger.Warn("mapping cannot be matched for removal", "mapping", fmt.Sprintf("%T", m))
		return f
	}
	n := len(f.mappings)
	f.mappings = slices.DeleteFunc(f.mappings, func(x mapping.Mapping) bool {
		return x == m && x != mapping.Mapping(f.table)
	})
	f.logger.Debug("removed mappings", "mapping", fmt.Sprintf("%T", m), "count", n-len(f.mappings))
	f.syncMappings()
	return f
}

// RemoveSubstitution drops the substitution registered for from, by
// WithSubstitution or Substitute.
func (f *Fixture) RemoveSubstitution(from reflect.Type) *Fixture {
	if from == nil {
		panic(&filter.ArgumentError{Name: "from"})
	}
	if !f.table.Remove(from) {
		f.logger.Debug("no substitution to remove", "type", from)
	}
	return f
}

// RemoveSubstitutionName drops a name substitution from the config's
// substitutions section.
func (f *Fixture) RemoveSubstitutionName(from string) *Fixture {
	if !f.table.RemoveName(from) {
		f.logger.Debug("no substitution to remove", "type", from)
	}
	return f
}

// SetBinding replaces the member binding mask.
func (f *Fixture) SetBinding(b Binding) *Fixture {
	f.binding = b
	return f
}

// Candidates returns the triples surviving the filters, without
// composing cases.
func (f *Fixture) Candidates() []model.Candidate {
	return slices.Collect(f.candidates())
}

func (f *Fixture) candidates() iter.Seq[model.Candidate] {
	return func(yield func(model.Candidate) bool) {
		for _, t := range f.asm.Types {
			if f.filters.ExcludeType(t) {
				continue
			}
			for _, m := range t.Members {
				if !f.binding.Matches(m) {
					f.logger.Debug("excluded", "filter", "binding", "level", "method", "target", t.FullName()+"."+m.Name)
					continue
				}
				if f.filters.ExcludeMethod(t, m) {
					continue
				}
				for _, p := range m.Params {
					if f.filters.ExcludeParameter(t, m, p) {
						continue
					}
					if !yield(model.Candidate{Type: t, Method: m, Param: p}) {
						return
					}
				}
			}
		}
	}
}

// Cases lazily yields one case per surviving (member, nil parameter)
// pair, in type, member, parameter order. A case whose arguments cannot
// be built is yielded with an errored setup; enumeration never stops
// early on its own.
func (f *Fixture) Cases() iter.Seq[*MethodData] {
	return func(yield func(*MethodData) bool) {
		for c := range f.candidates() {
			if !yield(f.compose(c)) {
				return
			}
		}
	}
}

// GetData returns every case.
func (f *Fixture) GetData() []*MethodData {
	return slices.Collect(f.Cases())
}

func (f *Fixture) compose(c model.Candidate) *MethodData {
	d := &MethodData{
		typ:       c.Type,
		method:    c.Method,
		nullIndex: c.Param.Index,
		nullParam: c.Param.Name,
	}
	fn, instance, args, err := f.bind(c)
	if err != nil {
		f.logger.Debug("composition failed", "case", c.String(), "err", err)
		d.setup = &execution.Errored{Err: &execution.CompositionError{
			Type:   c.Type.FullName(),
			Method: c.Method.Name,
			Param:  c.Param.Name,
			Err:    err,
		}}
		return d
	}
	d.instance = instance
	d.args = args
	d.setup = &execution.Succeeded{Func: fn, Args: slices.Clone(args)}
	return d
}

// bind resolves the callable for the candidate, builds every argument
// but the nil one, and builds the receiver for methods.
func (f *Fixture) bind(c model.Candidate) (fn reflect.Value, instance any, args []any, err error) {
	t, m := c.Type, c.Method

	var params []reflect.Type
	var recv reflect.Type
	switch {
	case m.Kind == model.MemberMethod:
		if recv, err = f.receiverType(t, m); err != nil {
			return
		}
		method, ok := recv.MethodByName(m.Name)
		if !ok {
			err = fmt.Errorf("%s has no method %s", recv, m.Name)
			return
		}
		params = inTypes(method.Type, 1)
	case m.Generic():
		if fn, err = f.instance(m); err != nil {
			return
		}
		params = inTypes(fn.Type(), 0)
	default:
		if !m.Func.IsValid() {
			err = fmt.Errorf("no symbol bound for %s", m.Name)
			return
		}
		fn = m.Func
		params = inTypes(fn.Type(), 0)
	}

	if len(params) != len(m.Params) {
		err = fmt.Errorf("bound %s takes %d parameters, declaration has %d", m.Name, len(params), len(m.Params))
		return
	}
	if pt := params[c.Param.Index]; !model.NilableKind(pt.Kind()) {
		err = fmt.Errorf("parameter %s closes to %s, which has no nil value", c.Param.Name, pt)
		return
	}

	specs := make([]specimen.Parameter, len(params))
	for i, pt := range params {
		specs[i] = specimen.Parameter{Name: m.Params[i].Name, Type: pt}
	}
	if args, err = f.provider.GetParameterSpecimens(m.QualifiedName(), specs, c.Param.Index); err != nil {
		return
	}

	if recv != nil {
		if instance, err = f.provider.CreateInstance(m.QualifiedName(), recv); err != nil {
			return
		}
		fn = reflect.ValueOf(instance).MethodByName(m.Name)
		if !fn.IsValid() {
			err = fmt.Errorf("%T has no method %s", instance, m.Name)
		}
	}
	return
}

// receiverType returns the runtime receiver type for a method, closing
// generic types and applying the mapping chain.
func (f *Fixture) receiverType(t *model.Type, m *model.Method) (reflect.Type, error) {
	rt := t.Reflect
	if t.Generic() {
		args, err := f.resolver.Close(t.FullName(), t.TypeParams, f.mappings)
		if err != nil {
			return nil, err
		}
		key := model.InstanceKey(t.Name, args)
		var ok bool
		if rt, ok = t.Instances[key]; !ok {
			return nil, fmt.Errorf("no symbol bound for %s", key)
		}
	}
	if rt == nil {
		return nil, fmt.Errorf("no symbol bound for type %s", t.Name)
	}
	if m.PointerReceiver {
		rt = reflect.PointerTo(rt)
	}
	if to := f.mappings.Map(rt); to != nil {
		rt = to
	}
	return rt, nil
}

// instance returns the bound instantiation of a generic function.
func (f *Fixture) instance(m *model.Method) (reflect.Value, error) {
	owner := m.Name
	if m.Declaring != nil {
		owner = m.Declaring.PkgPath + "." + m.Name
	}
	args, err := f.resolver.Close(owner, m.TypeParams, f.mappings)
	if err != nil {
		return reflect.Value{}, err
	}
	key := model.InstanceKey(m.Name, args)
	fn, ok := m.Instances[key]
	if !ok {
		return reflect.Value{}, fmt.Errorf("no symbol bound for %s", key)
	}
	return fn, nil
}

func inTypes(ft reflect.Type, skip int) []reflect.Type {
	out := make([]reflect.Type, 0, ft.NumIn()-skip)
	for i := skip; i < ft.NumIn(); i++ {
		out = append(out, ft.In(i))
	}
	return out
}
