package reflectql

import (
	"encoding/base64"
	"fmt"
	"reflect"

	"github.com/pkg/errors"
	"github.com/vmihailenco/msgpack"

	"github.com/ccbrown/api-fu/graphql"
)

// Connection is the runtime shape connection wrappers produce.
type Connection struct {
	Edges    []Edge
	PageInfo PageInfo
}

// Edge is one entry of a Connection.
type Edge struct {
	Cursor string
	Node   interface{}
}

// PageInfo describes a Connection's page boundaries.
type PageInfo struct {
	HasPreviousPage bool
	HasNextPage     bool
	StartCursor     string
	EndCursor       string
}

// PageInfoType implements the GraphQL type for a connection's page info. It
// is shared by every synthesized connection type.
var PageInfoType = &graphql.ObjectType{
	Name: "PageInfo",
	Fields: map[string]*graphql.FieldDefinition{
		"hasPreviousPage": nonNullPageInfoField(graphql.BooleanType, "HasPreviousPage"),
		"hasNextPage":     nonNullPageInfoField(graphql.BooleanType, "HasNextPage"),
		"startCursor":     nonNullPageInfoField(graphql.StringType, "StartCursor"),
		"endCursor":       nonNullPageInfoField(graphql.StringType, "EndCursor"),
	},
	IsTypeOf: func(v interface{}) bool {
		_, ok := v.(PageInfo)
		return ok
	},
}

func nonNullPageInfoField(t graphql.Type, fieldName string) *graphql.FieldDefinition {
	return &graphql.FieldDefinition{
		Type: graphql.NewNonNullType(t),
		Resolve: func(ctx graphql.FieldContext) (interface{}, error) {
			return reflect.ValueOf(ctx.Object).FieldByName(fieldName).Interface(), nil
		},
	}
}

type connectionSpec struct {
	connectionType *graphql.ObjectType
	wrap           ConnectionFunc
}

// connectionArguments returns the standard Relay pagination arguments.
func connectionArguments() map[string]*graphql.InputValueDefinition {
	return map[string]*graphql.InputValueDefinition{
		"first":  {Type: graphql.IntType},
		"last":   {Type: graphql.IntType},
		"before": {Type: graphql.StringType},
		"after":  {Type: graphql.StringType},
	}
}

// synthesizeConnection rewrites a list-of-objects type into an edge and
// connection type pair named after the element type (or the explicit name
// override). It returns nil when the resolved type is not a list of objects,
// leaving the plain field shape in place. The type pair is built per call; no
// instances are shared across builds.
func (b *Builder) synthesizeConnection(meta *ConnectionMetadata, t graphql.Type) (*connectionSpec, error) {
	list, ok := t.(*graphql.ListType)
	if !ok {
		return nil, nil
	}
	elem, ok := list.Type.(*graphql.ObjectType)
	if !ok {
		return nil, nil
	}

	wrap := SliceConnection
	if meta.Wrapper != "" {
		if wrap, ok = b.config.Connections[meta.Wrapper]; !ok {
			return nil, errors.Errorf("no connection wrapper registered for %q", meta.Wrapper)
		}
	}

	name := elem.Name
	if meta.Name != "" {
		name = meta.Name
	}

	edgeType := &graphql.ObjectType{
		Name: name + "Edge",
		Fields: map[string]*graphql.FieldDefinition{
			"cursor": {
				Type: graphql.NewNonNullType(graphql.StringType),
				Resolve: func(ctx graphql.FieldContext) (interface{}, error) {
					return ctx.Object.(Edge).Cursor, nil
				},
			},
			"node": {
				Type: elem,
				Resolve: func(ctx graphql.FieldContext) (interface{}, error) {
					return ctx.Object.(Edge).Node, nil
				},
			},
		},
		IsTypeOf: func(v interface{}) bool {
			_, ok := v.(Edge)
			return ok
		},
	}

	connectionType := &graphql.ObjectType{
		Name: name + "Connection",
		Fields: map[string]*graphql.FieldDefinition{
			"edges": {
				Type: graphql.NewNonNullType(graphql.NewListType(graphql.NewNonNullType(edgeType))),
				Resolve: func(ctx graphql.FieldContext) (interface{}, error) {
					return ctx.Object.(*Connection).Edges, nil
				},
			},
			"pageInfo": {
				Type: graphql.NewNonNullType(PageInfoType),
				Resolve: func(ctx graphql.FieldContext) (interface{}, error) {
					return ctx.Object.(*Connection).PageInfo, nil
				},
			},
		},
		IsTypeOf: func(v interface{}) bool {
			_, ok := v.(*Connection)
			return ok
		},
	}

	return &connectionSpec{connectionType: connectionType, wrap: wrap}, nil
}

// connectionFetcher fetches the underlying collection with the pagination
// arguments withheld, then adapts it into the connection shape.
type connectionFetcher struct {
	wrap  ConnectionFunc
	inner Fetcher
}

func (f *connectionFetcher) Fetch(ctx graphql.FieldContext) (interface{}, error) {
	inner := ctx
	inner.Arguments = map[string]interface{}{}
	collection, err := f.inner.Fetch(inner)
	if err != nil {
		return nil, err
	}
	return f.wrap(ctx, collection)
}

func serializeCursor(offset int) (string, error) {
	b, err := msgpack.Marshal(offset)
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func deserializeCursor(s string) (int, bool) {
	var offset int
	if b, err := base64.RawURLEncoding.DecodeString(s); err == nil {
		if err := msgpack.Unmarshal(b, &offset); err == nil {
			return offset, true
		}
	}
	return 0, false
}

// SliceConnection is the built-in connection wrapper: it adapts an in-memory
// slice into the connection shape using offset-based cursors.
func SliceConnection(ctx graphql.FieldContext, collection interface{}) (interface{}, error) {
	v := reflect.ValueOf(collection)
	for v.Kind() == reflect.Ptr {
		v = v.Elem()
	}
	if !v.IsValid() || (v.Kind() != reflect.Slice && v.Kind() != reflect.Array) {
		return nil, errors.Errorf("unexpected non-slice type %T for connection", collection)
	}

	if first, ok := ctx.Arguments["first"].(int); ok {
		if first < 0 {
			return nil, fmt.Errorf("The `first` argument cannot be negative.")
		} else if _, ok := ctx.Arguments["last"].(int); ok {
			return nil, fmt.Errorf("You cannot provide both `first` and `last` arguments.")
		}
	} else if last, ok := ctx.Arguments["last"].(int); ok && last < 0 {
		return nil, fmt.Errorf("The `last` argument cannot be negative.")
	}

	start, end := 0, v.Len()
	hasPreviousPage, hasNextPage := false, false

	if after, _ := ctx.Arguments["after"].(string); after != "" {
		offset, ok := deserializeCursor(after)
		if !ok {
			return nil, fmt.Errorf("Invalid after cursor.")
		}
		if offset+1 > start {
			start = offset + 1
			hasPreviousPage = true
		}
	}
	if before, _ := ctx.Arguments["before"].(string); before != "" {
		offset, ok := deserializeCursor(before)
		if !ok {
			return nil, fmt.Errorf("Invalid before cursor.")
		}
		if offset < end {
			end = offset
			hasNextPage = true
		}
	}
	if start > end {
		start = end
	}

	if first, ok := ctx.Arguments["first"].(int); ok && end-start > first {
		end = start + first
		hasNextPage = true
	}
	if last, ok := ctx.Arguments["last"].(int); ok && end-start > last {
		start = end - last
		hasPreviousPage = true
	}

	conn := &Connection{Edges: []Edge{}}
	for i := start; i < end; i++ {
		cursor, err := serializeCursor(i)
		if err != nil {
			return nil, errors.Wrap(err, "error serializing cursor")
		}
		conn.Edges = append(conn.Edges, Edge{Cursor: cursor, Node: v.Index(i).Interface()})
	}

	conn.PageInfo = PageInfo{
		HasPreviousPage: hasPreviousPage,
		HasNextPage:     hasNextPage,
	}
	if len(conn.Edges) > 0 {
		conn.PageInfo.StartCursor = conn.Edges[0].Cursor
		conn.PageInfo.EndCursor = conn.Edges[len(conn.Edges)-1].Cursor
	}
	return conn, nil
}
