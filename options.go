package nilguard

import (
	"reflect"

	"github.com/charmbracelet/log"

	"github.com/unbound-force/nilguard/internal/config"
	"github.com/unbound-force/nilguard/internal/filter"
	"github.com/unbound-force/nilguard/internal/generic"
	"github.com/unbound-force/nilguard/internal/mapping"
	"github.com/unbound-force/nilguard/internal/specimen"
)

// Option configures a Fixture.
type Option func(*options)

type options struct {
	builder        specimen.Builder
	filters        []any
	replaceFilters bool
	filterOpts     *filter.Options
	mappings       []mapping.Mapping
	substitutions  [][2]reflect.Type
	standIns       [][2]string
	binding        *Binding
	logger         *log.Logger
	cfg            *config.Config
	cfgPath        string
	pluginRoot     string
	customizations []Customization
	cache          *generic.Cache
}

// WithBuilder replaces the default reflection-based specimen builder.
// Constructors are registered automatically only with the default one
// or with a *specimen.Default passed here.
func WithBuilder(b specimen.Builder) Option {
	return func(o *options) { o.builder = b }
}

// WithFilters replaces the default filter set. The regex rules and
// loaded plugins are still appended.
func WithFilters(filters ...any) Option {
	return func(o *options) {
		o.filters = filters
		o.replaceFilters = true
	}
}

// WithFilterOptions toggles the opt-in built-in filters.
func WithFilterOptions(opts filter.Options) Option {
	return func(o *options) { o.filterOpts = &opts }
}

// WithMapping appends m to the mapping chain.
func WithMapping(m mapping.Mapping) Option {
	return func(o *options) { o.mappings = append(o.mappings, m) }
}

// WithSubstitution builds to wherever from is requested.
func WithSubstitution(from, to reflect.Type) Option {
	return func(o *options) { o.substitutions = append(o.substitutions, [2]reflect.Type{from, to}) }
}

// WithStandIn registers typeName as the argument for type parameters
// constrained by constraint, a combination of interfaces.
func WithStandIn(constraint, typeName string) Option {
	return func(o *options) { o.standIns = append(o.standIns, [2]string{constraint, typeName}) }
}

// WithBinding sets the member binding mask.
func WithBinding(b Binding) Option {
	return func(o *options) { o.binding = &b }
}

// WithLogger sets the diagnostic logger. Exclusions are traced at
// debug level.
func WithLogger(l *log.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithConfig applies cfg. Options given explicitly take precedence.
func WithConfig(cfg *config.Config) Option {
	return func(o *options) { o.cfg = cfg }
}

// WithConfigFile loads and applies a .nilguard.yaml file. A missing file
// yields the defaults.
func WithConfigFile(path string) Option {
	return func(o *options) { o.cfgPath = path }
}

// WithPlugins loads filter plugins from the configured plugin
// directory, resolved against root.
func WithPlugins(root string) Option {
	return func(o *options) { o.pluginRoot = root }
}

// WithCustomizations applies cs once the fixture is built.
func WithCustomizations(cs ...Customization) Option {
	return func(o *options) { o.customizations = append(o.customizations, cs...) }
}

// WithResolverCache shares a generic resolution cache between fixtures.
func WithResolverCache(c *generic.Cache) Option {
	return func(o *options) { o.cache = c }
}
