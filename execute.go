package reflectql

import (
	"context"

	"github.com/pkg/errors"

	"github.com/ccbrown/api-fu/graphql"
	"github.com/ccbrown/api-fu/graphql/ast"
	"github.com/ccbrown/api-fu/graphql/parser"
)

type documentContextKeyType int

var documentContextKey documentContextKeyType

// WithDocument returns a context carrying the parsed request document.
// Resolvers that read the request text, such as the synthesized
// clientMutationId field, look the document up from their field context.
func WithDocument(ctx context.Context, doc *ast.Document) context.Context {
	return context.WithValue(ctx, documentContextKey, doc)
}

func documentFromContext(ctx context.Context) *ast.Document {
	doc, _ := ctx.Value(documentContextKey).(*ast.Document)
	return doc
}

// Execute runs a request through the host engine, first making the parsed
// document available to resolvers via the request context. Parse errors are
// left for the engine to report.
func (b *Builder) Execute(req *graphql.Request) *graphql.Response {
	r := *req
	if r.Document == nil && r.Query != "" {
		if doc, errs := parser.ParseDocument([]byte(r.Query)); len(errs) == 0 {
			ctx := r.Context
			if ctx == nil {
				ctx = context.Background()
			}
			r.Context = WithDocument(ctx, doc)
		}
	}
	return graphql.Execute(&r)
}

// ClientMutationID extracts the client-supplied correlation token from a
// parsed request: the first mutation operation's first selection must carry
// an input argument given as an object literal with a string
// clientMutationId field. Violated preconditions produce descriptive errors.
func ClientMutationID(doc *ast.Document) (string, error) {
	for _, def := range doc.Definitions {
		op, ok := def.(*ast.OperationDefinition)
		if !ok || op.OperationType == nil || op.OperationType.Value != "mutation" {
			continue
		}
		if op.SelectionSet == nil || len(op.SelectionSet.Selections) == 0 {
			return "", errors.New("mutation operation has no selections")
		}
		field, ok := op.SelectionSet.Selections[0].(*ast.Field)
		if !ok {
			return "", errors.New("first mutation selection is not a field")
		}
		for _, arg := range field.Arguments {
			if arg.Name.Name != "input" {
				continue
			}
			obj, ok := arg.Value.(*ast.ObjectValue)
			if !ok {
				return "", errors.New("input argument is not an object literal")
			}
			for _, f := range obj.Fields {
				if f.Name.Name != "clientMutationId" {
					continue
				}
				s, ok := f.Value.(*ast.StringValue)
				if !ok {
					return "", errors.New("clientMutationId is not a string literal")
				}
				return s.Value, nil
			}
			return "", errors.New("input literal has no clientMutationId field")
		}
		return "", errors.New("first mutation selection has no input argument")
	}
	return "", errors.New("request has no mutation operation")
}

// resolveClientMutationID resolves the synthesized correlation field of a
// mutation payload, bypassing the mutation's own resolved value entirely.
func resolveClientMutationID(ctx graphql.FieldContext) (interface{}, error) {
	doc := documentFromContext(ctx.Context)
	if doc == nil {
		return nil, errors.New("no parsed document in request context; execute requests with Builder.Execute")
	}
	return ClientMutationID(doc)
}
