package reflectql

import (
	"reflect"

	"github.com/pkg/errors"

	"github.com/ccbrown/api-fu/graphql"
)

// Fetcher is the pluggable logic that produces a field's runtime value from
// the field's resolution context. The builder composes fetchers by wrapping:
// a Relay adapter unpacks the input argument before the underlying fetch, and
// a connection adapter withholds arguments from it and adapts its result.
type Fetcher interface {
	Fetch(ctx graphql.FieldContext) (interface{}, error)
}

// FetcherFunc adapts a function to the Fetcher interface.
type FetcherFunc func(ctx graphql.FieldContext) (interface{}, error)

func (f FetcherFunc) Fetch(ctx graphql.FieldContext) (interface{}, error) {
	return f(ctx)
}

// Optional is a container that may or may not hold a value. Values resolved
// by built fields are unwrapped before the engine's value completion: an
// empty container completes as null.
type Optional interface {
	OptionalValue() (interface{}, bool)
}

type optional struct {
	v  interface{}
	ok bool
}

func (o optional) OptionalValue() (interface{}, bool) {
	return o.v, o.ok
}

// Some returns an Optional holding v.
func Some(v interface{}) Optional {
	return optional{v: v, ok: true}
}

// None is the empty Optional.
var None Optional = optional{}

// unwrapOptional layers the optional-unwrap hook onto a resolver. It applies
// uniformly to every field the builder emits.
func unwrapOptional(resolve func(graphql.FieldContext) (interface{}, error)) func(graphql.FieldContext) (interface{}, error) {
	return func(ctx graphql.FieldContext) (interface{}, error) {
		v, err := resolve(ctx)
		if err != nil {
			return nil, err
		}
		if opt, ok := v.(Optional); ok {
			if v, ok := opt.OptionalValue(); ok {
				return v, nil
			}
			return nil, nil
		}
		return v, nil
	}
}

// structFieldFetcher reads a struct field by name from the resolved source
// object.
type structFieldFetcher struct {
	name string
}

func (f *structFieldFetcher) Fetch(ctx graphql.FieldContext) (interface{}, error) {
	v := reflect.ValueOf(ctx.Object)
	for v.Kind() == reflect.Ptr {
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return nil, errors.Errorf("cannot read field %v from %T", f.name, ctx.Object)
	}
	fv := v.FieldByName(f.name)
	if !fv.IsValid() {
		return nil, errors.Errorf("%T has no field %v", ctx.Object, f.name)
	}
	return fv.Interface(), nil
}

// methodFetcher invokes a method by name on the resolved source object,
// supplying engine handles for environment-typed parameters and converted
// field arguments for the rest.
type methodFetcher struct {
	name string
	args []*ArgumentMetadata
}

func (f *methodFetcher) Fetch(ctx graphql.FieldContext) (interface{}, error) {
	m := reflect.ValueOf(ctx.Object).MethodByName(f.name)
	if !m.IsValid() && reflect.ValueOf(ctx.Object).Kind() != reflect.Ptr {
		// pointer-receiver method invoked on a value
		pv := reflect.New(reflect.TypeOf(ctx.Object))
		pv.Elem().Set(reflect.ValueOf(ctx.Object))
		m = pv.MethodByName(f.name)
	}
	if !m.IsValid() {
		return nil, errors.Errorf("%T has no method %v", ctx.Object, f.name)
	}

	mt := m.Type()
	in := make([]reflect.Value, 0, mt.NumIn())
	next := 0
	for i := 0; i < mt.NumIn(); i++ {
		pt := mt.In(i)
		switch {
		case pt == fieldContextType:
			in = append(in, reflect.ValueOf(ctx))
		case pt == contextType:
			in = append(in, reflect.ValueOf(ctx.Context))
		default:
			if next >= len(f.args) {
				return nil, errors.Errorf("method %v has more parameters than argument metadata entries", f.name)
			}
			av, err := convertToType(ctx.Arguments[f.args[next].Name], pt)
			if err != nil {
				return nil, errors.Wrapf(err, "argument %v of %v", f.args[next].Name, f.name)
			}
			next++
			in = append(in, av)
		}
	}

	out := m.Call(in)
	var result interface{}
	for _, v := range out {
		if v.Type() == errorType {
			if !v.IsNil() {
				return nil, v.Interface().(error)
			}
			continue
		}
		if result == nil {
			result = v.Interface()
		}
	}
	return result, nil
}

// convertToType converts a coerced argument value into the method's declared
// parameter type. Coerced input objects arrive as maps keyed by derived field
// names and are decoded back into their struct shape.
func convertToType(v interface{}, t reflect.Type) (reflect.Value, error) {
	if v == nil {
		return reflect.Zero(t), nil
	}
	rv := reflect.ValueOf(v)
	if rv.Type().AssignableTo(t) {
		return rv, nil
	}
	switch t.Kind() {
	case reflect.Ptr:
		ev, err := convertToType(v, t.Elem())
		if err != nil {
			return reflect.Value{}, err
		}
		pv := reflect.New(t.Elem())
		pv.Elem().Set(ev)
		return pv, nil
	case reflect.Slice:
		if items, ok := v.([]interface{}); ok {
			out := reflect.MakeSlice(t, len(items), len(items))
			for i, item := range items {
				iv, err := convertToType(item, t.Elem())
				if err != nil {
					return reflect.Value{}, err
				}
				out.Index(i).Set(iv)
			}
			return out, nil
		}
	case reflect.Struct:
		if fields, ok := v.(map[string]interface{}); ok {
			out := reflect.New(t).Elem()
			for i := 0; i < t.NumField(); i++ {
				f := t.Field(i)
				if f.PkgPath != "" {
					continue
				}
				fv, ok := fields[lowerFirst(f.Name)]
				if !ok {
					continue
				}
				cv, err := convertToType(fv, f.Type)
				if err != nil {
					return reflect.Value{}, err
				}
				out.Field(i).Set(cv)
			}
			return out, nil
		}
	}
	if isNumericKind(rv.Kind()) && isNumericKind(t.Kind()) && rv.Type().ConvertibleTo(t) {
		return rv.Convert(t), nil
	}
	return reflect.Value{}, errors.Errorf("cannot convert %T to %v", v, t)
}

func isNumericKind(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}
