package reflectql

import (
	"reflect"

	"github.com/sirupsen/logrus"

	"github.com/ccbrown/api-fu/graphql"
)

// TypeFunction maps a raw Go type to a GraphQL output type descriptor. The
// builder is provided so implementations can recurse into nested object and
// interface shapes.
type TypeFunction func(b *Builder, t reflect.Type) (graphql.Type, error)

// TypeResolver determines the GraphQL type name for a concrete runtime value.
// Interfaces must reference a registered resolver so the engine can select
// the object type of values resolved through interface-typed fields.
type TypeResolver func(value interface{}) string

// ConnectionFunc adapts a raw fetched collection into the connection shape,
// applying the field's pagination arguments. Implementations own the slicing
// semantics; the builder only rewrites types and composes fetch strategies.
type ConnectionFunc func(ctx graphql.FieldContext, collection interface{}) (interface{}, error)

// DefaultValueFunc supplies an argument's default value at build time.
type DefaultValueFunc func() interface{}

// Config defines the capability registries and other parameters used by a
// Builder. Metadata references registry entries by key; a referenced key with
// no registration is a fatal configuration error at build time.
type Config struct {
	Logger logrus.FieldLogger

	// TypeFunctions are named output-type resolvers, referenced by
	// MemberMetadata.TypeFunction.
	TypeFunctions map[string]TypeFunction

	// DefaultTypeFunction optionally names the TypeFunctions entry used for
	// members with no explicit override. Empty selects the built-in default.
	DefaultTypeFunction string

	// Fetchers are named value-fetching strategies, referenced by
	// MemberMetadata.Fetcher.
	Fetchers map[string]Fetcher

	// TypeResolvers are named concrete-type resolvers, referenced by
	// TypeMetadata.TypeResolver.
	TypeResolvers map[string]TypeResolver

	// Connections are named connection wrappers, referenced by
	// ConnectionMetadata.Wrapper.
	Connections map[string]ConnectionFunc

	// DefaultValues are named default-value suppliers, referenced by
	// ArgumentMetadata.DefaultValue.
	DefaultValues map[string]DefaultValueFunc

	// TypeMappings maps Go types directly to GraphQL types. This is how
	// enumerations and custom scalars are made resolvable by the default type
	// function.
	TypeMappings map[reflect.Type]graphql.Type
}

// Builder derives GraphQL type descriptors from Go types and registered
// metadata. Named object and interface descriptors are built at most once per
// builder and reused wherever the type is reachable again, so a schema
// assembled from several builds on the same builder sees a single instance
// per named type. A Builder is not safe for concurrent use: register every
// model, then build, from a single goroutine.
type Builder struct {
	config *Config
	logger logrus.FieldLogger
	types  map[reflect.Type]*TypeMetadata

	// interfaces in registration order, for deterministic conformance checks
	interfaces []reflect.Type

	builtObjects    map[reflect.Type]*graphql.ObjectType
	builtInterfaces map[reflect.Type]*graphql.InterfaceType
}

// NewBuilder returns a builder using the given config. A nil config uses the
// built-in defaults.
func NewBuilder(cfg *Config) *Builder {
	if cfg == nil {
		cfg = &Config{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Builder{
		config:          cfg,
		logger:          logger,
		types:           map[reflect.Type]*TypeMetadata{},
		builtObjects:    map[reflect.Type]*graphql.ObjectType{},
		builtInterfaces: map[reflect.Type]*graphql.InterfaceType{},
	}
}

// RegisterType attaches metadata to a struct model. The model may be given as
// a value or a pointer.
func (b *Builder) RegisterType(model interface{}, meta *TypeMetadata) {
	b.types[normalizeModelType(reflect.TypeOf(model))] = meta
}

// RegisterInterface attaches metadata to an interface model, given as a nil
// pointer to the interface type, e.g. (*Character)(nil).
func (b *Builder) RegisterInterface(model interface{}, meta *TypeMetadata) {
	t := reflect.TypeOf(model)
	for t != nil && t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if _, ok := b.types[t]; !ok {
		b.interfaces = append(b.interfaces, t)
	}
	b.types[t] = meta
}

func normalizeModelType(t reflect.Type) reflect.Type {
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t
}
