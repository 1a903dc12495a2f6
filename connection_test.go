package reflectql

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ccbrown/api-fu/graphql"
)

type testShip struct {
	Name string
}

type testFleetQuery struct{}

func (testFleetQuery) GetShips() []testShip {
	return []testShip{{"Falcon"}, {"Executor"}, {"Home One"}, {"Raddus"}}
}

func newFleetBuilder(t *testing.T) (*Builder, *graphql.ObjectType) {
	b := NewBuilder(nil)
	b.RegisterType(testShip{}, &TypeMetadata{
		Name: "Ship",
		Members: map[string]*MemberMetadata{
			"Name": {NonNull: true},
		},
	})
	b.RegisterType(testFleetQuery{}, &TypeMetadata{
		Name: "Query",
		Members: map[string]*MemberMetadata{
			"GetShips": {Connection: &ConnectionMetadata{}},
		},
	})
	obj, err := b.Object(testFleetQuery{})
	require.NoError(t, err)
	return b, obj
}

func TestConnectionSynthesis(t *testing.T) {
	_, obj := newFleetBuilder(t)

	ships := obj.Fields["ships"]
	require.NotNil(t, ships)

	// The field's list type is replaced by a connection type whose edge node
	// type is the original element type.
	conn, ok := ships.Type.(*graphql.ObjectType)
	require.True(t, ok)
	assert.Equal(t, "ShipConnection", conn.Name)

	edges := conn.Fields["edges"]
	require.NotNil(t, edges)
	edgeType := edges.Type.(*graphql.NonNullType).Type.(*graphql.ListType).Type.(*graphql.NonNullType).Type.(*graphql.ObjectType)
	assert.Equal(t, "ShipEdge", edgeType.Name)

	node := edgeType.Fields["node"]
	require.NotNil(t, node)
	assert.Equal(t, "Ship", node.Type.(*graphql.ObjectType).Name)

	require.NotNil(t, edgeType.Fields["cursor"])
	require.NotNil(t, conn.Fields["pageInfo"])

	// The four standard pagination arguments are injected.
	for _, name := range []string{"first", "last", "before", "after"} {
		assert.Contains(t, ships.Arguments, name)
	}
}

func TestConnectionNameOverride(t *testing.T) {
	b := NewBuilder(nil)
	b.RegisterType(testShip{}, &TypeMetadata{
		Name:    "Ship",
		Members: map[string]*MemberMetadata{"Name": {}},
	})
	b.RegisterType(testFleetQuery{}, &TypeMetadata{
		Name: "Query",
		Members: map[string]*MemberMetadata{
			"GetShips": {Connection: &ConnectionMetadata{Name: "Fleet"}},
		},
	})

	obj, err := b.Object(testFleetQuery{})
	require.NoError(t, err)
	assert.Equal(t, "FleetConnection", obj.Fields["ships"].Type.(*graphql.ObjectType).Name)
}

func TestConnectionUnknownWrapper(t *testing.T) {
	b := NewBuilder(nil)
	b.RegisterType(testShip{}, &TypeMetadata{
		Name:    "Ship",
		Members: map[string]*MemberMetadata{"Name": {}},
	})
	b.RegisterType(testFleetQuery{}, &TypeMetadata{
		Name: "Query",
		Members: map[string]*MemberMetadata{
			"GetShips": {Connection: &ConnectionMetadata{Wrapper: "paged"}},
		},
	})

	_, err := b.Object(testFleetQuery{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"paged"`)
}

func TestConnectionNotAListOfObjects(t *testing.T) {
	b := NewBuilder(nil)
	b.RegisterType(testDroid{}, &TypeMetadata{
		Name: "Droid",
		Members: map[string]*MemberMetadata{
			// Not a list of objects, so the plain field shape stands.
			"GetName": {Connection: &ConnectionMetadata{}},
		},
	})

	obj, err := b.Object(testDroid{})
	require.NoError(t, err)
	assert.Equal(t, graphql.StringType, obj.Fields["name"].Type)
	assert.Empty(t, obj.Fields["name"].Arguments)
}

func TestSliceConnection(t *testing.T) {
	ships := testFleetQuery{}.GetShips()

	page := func(args map[string]interface{}) *Connection {
		v, err := SliceConnection(graphql.FieldContext{Arguments: args}, ships)
		require.NoError(t, err)
		return v.(*Connection)
	}

	all := page(map[string]interface{}{})
	require.Len(t, all.Edges, 4)
	assert.False(t, all.PageInfo.HasNextPage)
	assert.False(t, all.PageInfo.HasPreviousPage)
	assert.Equal(t, all.Edges[0].Cursor, all.PageInfo.StartCursor)
	assert.Equal(t, all.Edges[3].Cursor, all.PageInfo.EndCursor)

	firstTwo := page(map[string]interface{}{"first": 2})
	require.Len(t, firstTwo.Edges, 2)
	assert.Equal(t, testShip{"Falcon"}, firstTwo.Edges[0].Node)
	assert.True(t, firstTwo.PageInfo.HasNextPage)
	assert.False(t, firstTwo.PageInfo.HasPreviousPage)

	rest := page(map[string]interface{}{"after": firstTwo.Edges[1].Cursor})
	require.Len(t, rest.Edges, 2)
	assert.Equal(t, testShip{"Home One"}, rest.Edges[0].Node)
	assert.True(t, rest.PageInfo.HasPreviousPage)

	lastOne := page(map[string]interface{}{"last": 1})
	require.Len(t, lastOne.Edges, 1)
	assert.Equal(t, testShip{"Raddus"}, lastOne.Edges[0].Node)
	assert.True(t, lastOne.PageInfo.HasPreviousPage)

	before := page(map[string]interface{}{"before": all.Edges[1].Cursor})
	require.Len(t, before.Edges, 1)
	assert.Equal(t, testShip{"Falcon"}, before.Edges[0].Node)
	assert.True(t, before.PageInfo.HasNextPage)

	_, err := SliceConnection(graphql.FieldContext{Arguments: map[string]interface{}{"first": -1}}, ships)
	require.Error(t, err)

	_, err = SliceConnection(graphql.FieldContext{Arguments: map[string]interface{}{"first": 1, "last": 1}}, ships)
	require.Error(t, err)

	_, err = SliceConnection(graphql.FieldContext{Arguments: map[string]interface{}{"after": "not a cursor"}}, ships)
	require.Error(t, err)

	_, err = SliceConnection(graphql.FieldContext{}, 42)
	require.Error(t, err)
}

func TestConnectionExecution(t *testing.T) {
	b, obj := newFleetBuilder(t)
	schema := newTestSchema(t, obj, nil)

	data := executeTestRequest(t, b, schema, testFleetQuery{}, `{
		ships(first: 2) {
			edges {
				node {
					name
				}
			}
			pageInfo {
				hasNextPage
				hasPreviousPage
			}
		}
	}`)
	assert.JSONEq(t, `{
		"ships": {
			"edges": [
				{"node": {"name": "Falcon"}},
				{"node": {"name": "Executor"}}
			],
			"pageInfo": {"hasNextPage": true, "hasPreviousPage": false}
		}
	}`, data)
}
