package reflectql

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ccbrown/api-fu/graphql"
)

type testCrewMember struct {
	Name string
	Ship testShip
}

func TestMirrorInput(t *testing.T) {
	b := NewBuilder(nil)
	b.RegisterType(testShip{}, &TypeMetadata{
		Name:        "Ship",
		Description: "A starship.",
		Members: map[string]*MemberMetadata{
			"Name": {NonNull: true, Description: "The ship's name."},
		},
	})
	b.RegisterType(testCrewMember{}, &TypeMetadata{
		Name: "CrewMember",
		Members: map[string]*MemberMetadata{
			"Name": {},
			"Ship": {},
		},
	})

	obj, err := b.Object(testCrewMember{})
	require.NoError(t, err)

	mirror := MirrorInput(obj)
	assert.Equal(t, "CrewMember", mirror.Name)
	require.Len(t, mirror.Fields, 2)

	// Scalar leaves are reused as-is.
	assert.Equal(t, graphql.StringType, mirror.Fields["name"].Type)

	// Object-shaped fields are mirrored recursively, keeping names,
	// descriptions, and non-null wrapping.
	nested, ok := mirror.Fields["ship"].Type.(*graphql.InputObjectType)
	require.True(t, ok)
	assert.Equal(t, "Ship", nested.Name)
	assert.Equal(t, "A starship.", nested.Description)
	shipName := nested.Fields["name"]
	require.NotNil(t, shipName)
	assert.Equal(t, "The ship's name.", shipName.Description)
	assert.Equal(t, graphql.StringType, shipName.Type.(*graphql.NonNullType).Type)
}

func TestMirrorInputIndependence(t *testing.T) {
	b := NewBuilder(nil)
	b.RegisterType(testShip{}, &TypeMetadata{
		Name:    "Ship",
		Members: map[string]*MemberMetadata{"Name": {}},
	})
	b.RegisterType(testCrewMember{}, &TypeMetadata{
		Name: "CrewMember",
		Members: map[string]*MemberMetadata{
			"Name": {},
			"Ship": {},
		},
	})

	obj, err := b.Object(testCrewMember{})
	require.NoError(t, err)

	// Two mirrors are structurally equal but independently owned.
	a, c := MirrorInput(obj), MirrorInput(obj)
	assert.NotSame(t, a, c)
	assert.Equal(t, a.Name, c.Name)
	require.Len(t, c.Fields, len(a.Fields))
	for name, field := range a.Fields {
		assert.NotSame(t, field, c.Fields[name])
	}
	assert.NotSame(t, a.Fields["ship"].Type, c.Fields["ship"].Type)
}
