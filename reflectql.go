// Package reflectql derives GraphQL type descriptors from Go types and
// registered metadata. Given a struct or interface model and per-member
// options, it builds the object, interface, field, and argument definitions
// consumed by the github.com/ccbrown/api-fu/graphql engine, synthesizing the
// Relay constructs the metadata implies: connection/edge wrappers for
// paginated collections, mirrored input types for object-shaped arguments,
// and input/payload envelopes for Relay mutations.
package reflectql

import (
	"reflect"

	"github.com/pkg/errors"

	"github.com/ccbrown/api-fu/graphql"
)

// Object builds the object type descriptor for a struct model. The model may
// be given as a value or a pointer.
//
// Named object and interface descriptors are built at most once per builder:
// a type reachable from several fields, or from both an interface and one of
// its implementors, resolves to the same instance everywhere, including in
// self-referential models.
func (b *Builder) Object(model interface{}) (*graphql.ObjectType, error) {
	return b.objectType(normalizeModelType(reflect.TypeOf(model)))
}

// Interface builds the interface type descriptor for an interface model,
// given as a nil pointer to the interface type, e.g. (*Character)(nil).
func (b *Builder) Interface(model interface{}) (*graphql.InterfaceType, error) {
	t := reflect.TypeOf(model)
	for t != nil && t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t == nil {
		return nil, errors.New("interface model must be a non-nil pointer to an interface type")
	}
	return b.interfaceType(t)
}

func (b *Builder) objectType(t reflect.Type) (*graphql.ObjectType, error) {
	if t.Kind() != reflect.Struct {
		return nil, errors.Errorf("%v is not a struct", t)
	}
	if obj, ok := b.builtObjects[t]; ok {
		return obj, nil
	}
	meta := b.types[t]
	if meta == nil {
		return nil, errors.Errorf("no metadata registered for %v", t)
	}

	obj := &graphql.ObjectType{
		Name:        typeName(t, meta),
		Description: meta.Description,
		Fields:      map[string]*graphql.FieldDefinition{},
	}
	// The in-progress instance is registered before its fields are built so
	// recursive occurrences resolve to the same identity.
	b.builtObjects[t] = obj
	if err := b.populateObjectType(t, meta, obj); err != nil {
		delete(b.builtObjects, t)
		return nil, err
	}

	b.logger.WithField("type", obj.Name).Debug("built graphql object type")
	return obj, nil
}

func (b *Builder) populateObjectType(t reflect.Type, meta *TypeMetadata, obj *graphql.ObjectType) error {
	// sources maps each derived field name to the Go member it came from, so
	// two distinct members deriving the same name fail loudly instead of
	// silently overwriting each other.
	sources := map[string]string{}

	// Methods first. The pointer method set covers both receiver kinds, and
	// reflect reports it in a deterministic (sorted) order.
	pt := reflect.PtrTo(t)
	for i := 0; i < pt.NumMethod(); i++ {
		gm := pt.Method(i)
		declaring := b.furthestDeclaringType(t, gm)
		declMeta := b.types[declaring]
		if declMeta == nil {
			continue
		}
		mm := declMeta.Members[gm.Name]
		if mm == nil {
			continue
		}
		// Exposure is inherited from the declaring ancestor, but options
		// re-declared on the concrete type win.
		if own := meta.Members[gm.Name]; own != nil {
			mm = own
		}
		def, name, err := b.buildField(&member{
			goName:      gm.Name,
			meta:        mm,
			methodType:  gm.Func.Type(),
			paramOffset: 1,
		})
		if err != nil {
			return errors.Wrapf(err, "building field for %v.%v", t, gm.Name)
		}
		if prev, ok := sources[name]; ok {
			return errors.Errorf("%v: members %v and %v both map to field %q", t, prev, gm.Name, name)
		}
		sources[name] = gm.Name
		obj.Fields[name] = def
	}

	if err := b.collectStructFields(t, obj.Fields, sources); err != nil {
		return err
	}

	// Directly implemented registered interfaces that carry a type resolver
	// become conformance relationships, shared across implementing classes.
	var resolver TypeResolver
	for _, it := range b.interfaces {
		im := b.types[it]
		if im == nil || im.TypeResolver == "" {
			continue
		}
		if !t.Implements(it) && !pt.Implements(it) {
			continue
		}
		iface, err := b.interfaceType(it)
		if err != nil {
			return err
		}
		obj.ImplementedInterfaces = append(obj.ImplementedInterfaces, iface)
		if resolver == nil {
			resolver = b.config.TypeResolvers[im.TypeResolver]
		}
	}

	if resolver != nil {
		name := obj.Name
		obj.IsTypeOf = func(v interface{}) bool {
			return resolver(v) == name
		}
	} else {
		obj.IsTypeOf = func(v interface{}) bool {
			return v != nil && normalizeModelType(reflect.TypeOf(v)) == t
		}
	}
	return nil
}

func (b *Builder) interfaceType(t reflect.Type) (*graphql.InterfaceType, error) {
	if t.Kind() != reflect.Interface {
		return nil, errors.Errorf("%v is not an interface", t)
	}
	meta := b.types[t]
	if meta == nil {
		return nil, errors.Errorf("no metadata registered for interface %v", t)
	}
	if iface, ok := b.builtInterfaces[t]; ok {
		return iface, nil
	}
	name := typeName(t, meta)
	if meta.TypeResolver == "" {
		return nil, errors.Errorf("interface %v must have a type resolver", name)
	}
	if _, ok := b.config.TypeResolvers[meta.TypeResolver]; !ok {
		return nil, errors.Errorf("interface %v references unregistered type resolver %q", name, meta.TypeResolver)
	}

	iface := &graphql.InterfaceType{
		Name:        name,
		Description: meta.Description,
		Fields:      map[string]*graphql.FieldDefinition{},
	}
	b.builtInterfaces[t] = iface
	sources := map[string]string{}
	for i := 0; i < t.NumMethod(); i++ {
		gm := t.Method(i)
		mm := meta.Members[gm.Name]
		if mm == nil {
			continue
		}
		def, fieldName, err := b.buildField(&member{
			goName:     gm.Name,
			meta:       mm,
			methodType: gm.Type,
		})
		if err != nil {
			delete(b.builtInterfaces, t)
			return nil, errors.Wrapf(err, "building field for %v.%v", t, gm.Name)
		}
		if prev, ok := sources[fieldName]; ok {
			delete(b.builtInterfaces, t)
			return nil, errors.Errorf("%v: members %v and %v both map to field %q", t, prev, gm.Name, fieldName)
		}
		sources[fieldName] = gm.Name
		iface.Fields[fieldName] = def
	}

	b.logger.WithField("type", iface.Name).Debug("built graphql interface type")
	return iface, nil
}

// collectStructFields appends field definitions for the struct's exposed
// fields, recursing through embedded structs, whose members keep the
// exposure and options declared on the embedded type. A shadowed embedded
// field of the same Go name is skipped; two distinct members deriving the
// same field name are an error.
func (b *Builder) collectStructFields(t reflect.Type, fields map[string]*graphql.FieldDefinition, sources map[string]string) error {
	meta := b.types[t]
	var embedded []reflect.Type
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if f.Anonymous {
			if et := normalizeModelType(f.Type); et.Kind() == reflect.Struct {
				embedded = append(embedded, et)
			}
			continue
		}
		if meta == nil {
			continue
		}
		mm := meta.Members[f.Name]
		if mm == nil {
			continue
		}
		def, name, err := b.buildField(&member{
			goName:    f.Name,
			meta:      mm,
			fieldType: f.Type,
		})
		if err != nil {
			return errors.Wrapf(err, "building field for %v.%v", t, f.Name)
		}
		if prev, ok := sources[name]; ok {
			if prev == f.Name {
				continue
			}
			return errors.Errorf("%v: members %v and %v both map to field %q", t, prev, f.Name, name)
		}
		sources[name] = f.Name
		fields[name] = def
	}
	for _, et := range embedded {
		if err := b.collectStructFields(et, fields, sources); err != nil {
			return err
		}
	}
	return nil
}

// furthestDeclaringType returns the most distant ancestor of t declaring a
// method with the same name and signature: the deepest embedded struct that
// declares it, else a registered interface satisfied by t that declares it,
// else t itself. Exposure marking is checked on the returned type, so
// overriding a marked method inherits its exposure without re-marking.
func (b *Builder) furthestDeclaringType(t reflect.Type, m reflect.Method) reflect.Type {
	if et := furthestEmbeddedDeclarer(t, m); et != nil {
		return et
	}
	declaring := t
	for _, it := range b.interfaces {
		if !t.Implements(it) && !reflect.PtrTo(t).Implements(it) {
			continue
		}
		if im, ok := it.MethodByName(m.Name); ok && sameSignature(m.Func.Type(), 1, im.Type, 0) {
			declaring = it
		}
	}
	return declaring
}

func furthestEmbeddedDeclarer(t reflect.Type, m reflect.Method) reflect.Type {
	if t.Kind() != reflect.Struct {
		return nil
	}
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.Anonymous {
			continue
		}
		et := normalizeModelType(f.Type)
		if et.Kind() != reflect.Struct {
			continue
		}
		em, ok := reflect.PtrTo(et).MethodByName(m.Name)
		if !ok || !sameSignature(m.Func.Type(), 1, em.Func.Type(), 1) {
			continue
		}
		if deeper := furthestEmbeddedDeclarer(et, em); deeper != nil {
			return deeper
		}
		return et
	}
	return nil
}

// sameSignature compares two method function types, skipping the given
// number of leading (receiver) parameters on each.
func sameSignature(a reflect.Type, askip int, b reflect.Type, bskip int) bool {
	if a.NumIn()-askip != b.NumIn()-bskip || a.NumOut() != b.NumOut() {
		return false
	}
	for i := 0; i < a.NumIn()-askip; i++ {
		if a.In(i+askip) != b.In(i+bskip) {
			return false
		}
	}
	for i := 0; i < a.NumOut(); i++ {
		if a.Out(i) != b.Out(i) {
			return false
		}
	}
	return true
}

func typeName(t reflect.Type, meta *TypeMetadata) string {
	if meta.Name != "" {
		return meta.Name
	}
	return t.Name()
}
