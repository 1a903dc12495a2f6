package reflectql

import (
	"reflect"
	"time"

	"github.com/pkg/errors"

	"github.com/ccbrown/api-fu/graphql"
)

var timeType = reflect.TypeOf(time.Time{})

func (b *Builder) typeFunction(name string) (TypeFunction, error) {
	if name == "" {
		name = b.config.DefaultTypeFunction
	}
	if name == "" {
		return defaultTypeFunction, nil
	}
	fn, ok := b.config.TypeFunctions[name]
	if !ok {
		return nil, errors.Errorf("no type function registered for %q", name)
	}
	return fn, nil
}

// defaultTypeFunction resolves scalars, registered type mappings
// (enumerations and custom scalars), pointers, list shapes, and nested
// object and interface shapes. An unresolvable type is a configuration
// error, never silently defaulted.
func defaultTypeFunction(b *Builder, t reflect.Type) (graphql.Type, error) {
	if mapped, ok := b.config.TypeMappings[t]; ok {
		return mapped, nil
	}
	if t == timeType {
		return DateTimeType, nil
	}
	switch t.Kind() {
	case reflect.Ptr:
		return defaultTypeFunction(b, t.Elem())
	case reflect.String:
		return graphql.StringType, nil
	case reflect.Bool:
		return graphql.BooleanType, nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return graphql.IntType, nil
	case reflect.Float32, reflect.Float64:
		return graphql.FloatType, nil
	case reflect.Slice, reflect.Array:
		elem, err := defaultTypeFunction(b, t.Elem())
		if err != nil {
			return nil, err
		}
		return graphql.NewListType(elem), nil
	case reflect.Struct:
		return b.objectType(t)
	case reflect.Interface:
		return b.interfaceType(t)
	}
	return nil, errors.Errorf("cannot resolve a GraphQL type for %v", t)
}
