package reflectql

// TypeMetadata describes how a Go struct or interface type is exposed as a
// GraphQL type.
type TypeMetadata struct {
	// Name overrides the Go type's simple name.
	Name string

	Description string

	// TypeResolver names the Config.TypeResolvers entry used to determine the
	// concrete type of values resolved through this type. Required for
	// interfaces.
	TypeResolver string

	// Members holds the per-member options, keyed by the Go field or method
	// name. The presence of an entry marks the member for exposure.
	Members map[string]*MemberMetadata
}

// MemberMetadata holds the recognized options for one exposed member.
type MemberMetadata struct {
	// Name overrides the derived field name.
	Name string

	Description string

	// DeprecationReason deprecates the member with the given reason.
	// Deprecated marks it deprecated without one; the reason then defaults to
	// "Deprecated".
	DeprecationReason string
	Deprecated        bool

	// NonNull wraps the member's resolved output type in a non-null type.
	NonNull bool

	// TypeFunction names a Config.TypeFunctions entry that overrides the
	// default output type resolution for this member.
	TypeFunction string

	// Fetcher names a Config.Fetchers entry that overrides the default
	// by-name member access.
	Fetcher string

	// Connection marks a list-of-objects member as paginated, rewriting its
	// type into the Relay connection shape.
	Connection *ConnectionMetadata

	// RelayMutation wraps a method's arguments into a single input object and
	// its return type into a payload object, both carrying a client-supplied
	// clientMutationId.
	RelayMutation bool

	// Arguments describes a method's parameters positionally, excluding
	// engine-injected parameters (graphql.FieldContext or context.Context).
	// Go reflection exposes no parameter names, so every user-supplied
	// parameter needs an entry.
	Arguments []*ArgumentMetadata
}

// ConnectionMetadata configures a paginated member.
type ConnectionMetadata struct {
	// Wrapper names the Config.Connections entry that adapts fetched
	// collections into the connection shape. Empty selects SliceConnection.
	Wrapper string

	// Name overrides the element type name as the prefix for the synthesized
	// edge and connection type names.
	Name string
}

// ArgumentMetadata holds the recognized options for one method parameter.
type ArgumentMetadata struct {
	Name        string
	Description string
	NonNull     bool

	// DefaultValue names a Config.DefaultValues entry supplying the
	// argument's default value.
	DefaultValue string
}
