package reflectql

import (
	"context"
	"reflect"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/pkg/errors"

	"github.com/ccbrown/api-fu/graphql"
)

// defaultDeprecationReason is used when a member carries the legacy
// deprecation marker without an explicit reason.
const defaultDeprecationReason = "Deprecated"

// member is one structural member selected for exposure: a struct field, a
// struct method (paramOffset 1, for the receiver), or an interface method
// (paramOffset 0).
type member struct {
	goName      string
	meta        *MemberMetadata
	fieldType   reflect.Type
	methodType  reflect.Type
	paramOffset int
}

func (m *member) isMethod() bool {
	return m.methodType != nil
}

var (
	fieldContextType = reflect.TypeOf(graphql.FieldContext{})
	contextType      = reflect.TypeOf((*context.Context)(nil)).Elem()
	errorType        = reflect.TypeOf((*error)(nil)).Elem()
)

// buildField transforms one member into a field definition, returning the
// definition and the derived field name.
func (b *Builder) buildField(m *member) (*graphql.FieldDefinition, string, error) {
	name := deriveFieldName(m)

	typeFn, err := b.typeFunction(m.meta.TypeFunction)
	if err != nil {
		return nil, "", err
	}
	raw, err := m.rawType()
	if err != nil {
		return nil, "", err
	}
	t, err := typeFn(b, raw)
	if err != nil {
		return nil, "", err
	}

	var outputType graphql.Type = t
	if m.meta.NonNull {
		outputType = graphql.NewNonNullType(t)
	}

	def := &graphql.FieldDefinition{
		Description: m.meta.Description,
	}
	if m.meta.DeprecationReason != "" {
		def.DeprecationReason = m.meta.DeprecationReason
	} else if m.meta.Deprecated {
		def.DeprecationReason = defaultDeprecationReason
	}

	var conn *connectionSpec
	if m.meta.Connection != nil {
		if conn, err = b.synthesizeConnection(m.meta.Connection, t); err != nil {
			return nil, "", err
		}
		if conn != nil {
			outputType = conn.connectionType
			def.Arguments = connectionArguments()
		}
	}
	def.Type = outputType

	fetch, err := b.memberFetcher(m)
	if err != nil {
		return nil, "", err
	}

	if m.isMethod() {
		args, err := b.buildArguments(m, typeFn)
		if err != nil {
			return nil, "", err
		}
		if m.meta.RelayMutation {
			spec, err := b.synthesizeRelayMutation(name, args, outputType)
			if err != nil {
				return nil, "", err
			}
			def.Type = spec.payload
			def.Arguments = map[string]*graphql.InputValueDefinition{
				"input": {Type: graphql.NewNonNullType(spec.input)},
			}
			fetch = &relayInputFetcher{inner: fetch, argNames: argumentNames(args)}
		} else {
			if def.Arguments == nil {
				def.Arguments = map[string]*graphql.InputValueDefinition{}
			}
			for _, arg := range args {
				def.Arguments[arg.name] = arg.def
			}
		}
	}

	// Connection adaptation wraps outermost: the inner fetch never sees the
	// pagination arguments, and its raw collection is adapted afterward.
	if conn != nil {
		fetch = &connectionFetcher{wrap: conn.wrap, inner: fetch}
	}

	def.Resolve = unwrapOptional(fetch.Fetch)
	return def, name, nil
}

// rawType is the structural type the output type is resolved from: the field
// type, or the method's first return value.
func (m *member) rawType() (reflect.Type, error) {
	if !m.isMethod() {
		return m.fieldType, nil
	}
	if m.methodType.NumOut() == 0 || m.methodType.Out(0) == errorType {
		return nil, errors.Errorf("method %v must return a value", m.goName)
	}
	return m.methodType.Out(0), nil
}

func (b *Builder) memberFetcher(m *member) (Fetcher, error) {
	if m.meta.Fetcher != "" {
		fetch, ok := b.config.Fetchers[m.meta.Fetcher]
		if !ok {
			return nil, errors.Errorf("no fetcher registered for %q", m.meta.Fetcher)
		}
		return fetch, nil
	}
	if m.isMethod() {
		return &methodFetcher{name: m.goName, args: m.meta.Arguments}, nil
	}
	return &structFieldFetcher{name: m.goName}, nil
}

type argumentDef struct {
	name string
	def  *graphql.InputValueDefinition
}

func argumentNames(args []argumentDef) []string {
	names := make([]string, len(args))
	for i, arg := range args {
		names[i] = arg.name
	}
	return names
}

// buildArguments produces one argument definition per user-supplied method
// parameter, in declaration order. Parameters typed as the execution
// environment handle (graphql.FieldContext or context.Context) are injected
// by the engine and skipped. Object-shaped parameter types are mirrored to
// input types.
func (b *Builder) buildArguments(m *member, typeFn TypeFunction) ([]argumentDef, error) {
	var args []argumentDef
	next := 0
	for i := m.paramOffset; i < m.methodType.NumIn(); i++ {
		pt := m.methodType.In(i)
		if pt == fieldContextType || pt == contextType {
			continue
		}
		if next >= len(m.meta.Arguments) {
			return nil, errors.Errorf("method %v has more parameters than argument metadata entries", m.goName)
		}
		am := m.meta.Arguments[next]
		next++
		if am.Name == "" {
			return nil, errors.Errorf("method %v: argument %d has no name", m.goName, next)
		}

		t, err := typeFn(b, pt)
		if err != nil {
			return nil, errors.Wrapf(err, "resolving argument %v of %v", am.Name, m.goName)
		}
		if obj, ok := t.(*graphql.ObjectType); ok {
			t = MirrorInput(obj)
		}
		if am.NonNull {
			t = graphql.NewNonNullType(t)
		}

		def := &graphql.InputValueDefinition{
			Description: am.Description,
			Type:        t,
		}
		if am.DefaultValue != "" {
			supply, ok := b.config.DefaultValues[am.DefaultValue]
			if !ok {
				return nil, errors.Errorf("no default value supplier registered for %q", am.DefaultValue)
			}
			def.DefaultValue = supply()
		}
		args = append(args, argumentDef{name: am.Name, def: def})
	}
	if next < len(m.meta.Arguments) {
		return nil, errors.Errorf("method %v has fewer parameters than argument metadata entries", m.goName)
	}
	return args, nil
}

// deriveFieldName derives the exposed field name: an explicit name option
// always wins; otherwise accessor prefixes are stripped from method names and
// the first rune is lowered (GetFoo, IsFoo, and SetFoo all become foo).
func deriveFieldName(m *member) string {
	if m.meta.Name != "" {
		return m.meta.Name
	}
	name := m.goName
	if m.isMethod() {
		for _, prefix := range []string{"Get", "Is", "Set"} {
			if strings.HasPrefix(name, prefix) && len(name) > len(prefix) {
				name = name[len(prefix):]
				break
			}
		}
	}
	return lowerFirst(name)
}

func lowerFirst(s string) string {
	r, n := utf8.DecodeRuneInString(s)
	if n == 0 || !unicode.IsUpper(r) {
		return s
	}
	return string(unicode.ToLower(r)) + s[n:]
}

func upperFirst(s string) string {
	r, n := utf8.DecodeRuneInString(s)
	if n == 0 || !unicode.IsLower(r) {
		return s
	}
	return string(unicode.ToUpper(r)) + s[n:]
}
