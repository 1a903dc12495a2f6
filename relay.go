package reflectql

import (
	"github.com/pkg/errors"

	"github.com/ccbrown/api-fu/graphql"
)

type relayMutationSpec struct {
	input   *graphql.InputObjectType
	payload *graphql.ObjectType
}

// synthesizeRelayMutation wraps a mutation method's arguments into a single
// input object carrying a client-supplied correlation token, and its return
// type into a payload object echoing the token back. The method's resolved
// return shape must be an object type.
func (b *Builder) synthesizeRelayMutation(fieldName string, args []argumentDef, outputType graphql.Type) (*relayMutationSpec, error) {
	obj, ok := outputType.(*graphql.ObjectType)
	if !ok {
		return nil, errors.Errorf("relay mutation %v must resolve to an object type, not %v", fieldName, outputType)
	}
	title := upperFirst(fieldName)

	inputFields := map[string]*graphql.InputValueDefinition{
		"clientMutationId": {Type: graphql.NewNonNullType(graphql.StringType)},
	}
	for _, arg := range args {
		inputFields[arg.name] = arg.def
	}
	input := &graphql.InputObjectType{
		Name:   title + "Input",
		Fields: inputFields,
	}

	// The payload carries the original return fields, resolved against the
	// value the method returned, plus the echoed correlation token, which is
	// read from the request text rather than from the resolved value.
	payloadFields := map[string]*graphql.FieldDefinition{
		"clientMutationId": {
			Type:    graphql.NewNonNullType(graphql.StringType),
			Resolve: resolveClientMutationID,
		},
	}
	for name, field := range obj.Fields {
		def := *field
		payloadFields[name] = &def
	}
	payload := &graphql.ObjectType{
		Name:     title + "Payload",
		Fields:   payloadFields,
		IsTypeOf: obj.IsTypeOf,
	}

	return &relayMutationSpec{input: input, payload: payload}, nil
}

// relayInputFetcher unpacks the coerced input argument into the per-name
// arguments the underlying fetch logic expects.
type relayInputFetcher struct {
	inner    Fetcher
	argNames []string
}

func (f *relayInputFetcher) Fetch(ctx graphql.FieldContext) (interface{}, error) {
	input, ok := ctx.Arguments["input"].(map[string]interface{})
	if !ok {
		return nil, errors.New("relay mutation requires an input argument")
	}
	inner := ctx
	inner.Arguments = make(map[string]interface{}, len(f.argNames))
	for _, name := range f.argNames {
		if v, ok := input[name]; ok {
			inner.Arguments[name] = v
		}
	}
	return f.inner.Fetch(inner)
}
