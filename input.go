package reflectql

import (
	"github.com/ccbrown/api-fu/graphql"
)

// MirrorInput converts an output object type into a structurally equivalent
// input object type: same name, description, and field names, with
// object-shaped field types mirrored recursively and all other field types
// reused as-is.
//
// The mirror is recomputed on every call with no identity sharing, so two
// mirrors of the same type are structurally equal but independently owned.
// Termination requires the object graph to be acyclic.
func MirrorInput(t *graphql.ObjectType) *graphql.InputObjectType {
	fields := make(map[string]*graphql.InputValueDefinition, len(t.Fields))
	for name, field := range t.Fields {
		fields[name] = &graphql.InputValueDefinition{
			Description: field.Description,
			Type:        mirrorInputType(field.Type),
		}
	}
	return &graphql.InputObjectType{
		Name:        t.Name,
		Description: t.Description,
		Fields:      fields,
	}
}

func mirrorInputType(t graphql.Type) graphql.Type {
	switch t := t.(type) {
	case *graphql.ObjectType:
		return MirrorInput(t)
	case *graphql.NonNullType:
		return graphql.NewNonNullType(mirrorInputType(t.Type))
	case *graphql.ListType:
		return graphql.NewListType(mirrorInputType(t.Type))
	}
	return t
}
