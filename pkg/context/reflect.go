package context

import (
	"reflect"

	"github.com/crisp-lang/crisp/pkg/types"
)

// Deprecations lets a host register a human-readable obsolescence message
// for a member name. Go reflection has no equivalent of a GraphQL schema's
// deprecationReason or a doc-comment attribute, so FromStruct takes this as
// an explicit side-channel rather than trying to infer it.
type Deprecations map[string]string

// reflectDescriptor is the reference Descriptor implementation: it walks an
// arbitrary Go struct type (and any struct/pointer-to-struct types reachable
// from its exported fields and methods) via reflection, exposing exported
// fields as Field members, exported methods as Method members, and no
// concept of Property distinct from Field (spec.md §3's Property/Field
// split collapses to "exported struct field" for a Go host).
type reflectDescriptor struct {
	goType  reflect.Type
	reg     *Registry
	members map[string]Member
	order   []string
}

// Registry maps CrispType names to the Descriptors FromStruct discovered
// while walking the root context type, implementing the resolver's
// navigation needs (spec.md §4.5).
type Registry struct {
	byName map[string]*reflectDescriptor
}

// FromStruct builds a Registry rooted at a Go value's type (struct or
// pointer to struct). deprecations is optional and may be nil.
func FromStruct(root any, deprecations Deprecations) (*Registry, Descriptor) {
	reg := &Registry{byName: map[string]*reflectDescriptor{}}
	t := reflect.TypeOf(root)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	d := reg.describe(t, deprecations)
	return reg, d
}

// Describe adds another root type (e.g. a blackboard type distinct from the
// context type) to an existing Registry, so the resolver can later Lookup it
// by name (spec.md's `:blackboard Type` tree annotation names a type the
// resolver must look up independently of the context root).
func (r *Registry) Describe(root any, deprecations Deprecations) Descriptor {
	t := reflect.TypeOf(root)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return r.describe(t, deprecations)
}

// Lookup finds a previously-described type by its Go/Crisp type name.
func (r *Registry) Lookup(typeName string) (Descriptor, bool) {
	d, ok := r.byName[typeName]
	return d, ok
}

// describe returns the (possibly cached) descriptor for a struct type,
// registering it and recursively describing every reachable struct type
// before returning.
func (r *Registry) describe(t reflect.Type, dep Deprecations) *reflectDescriptor {
	name := t.Name()
	if d, ok := r.byName[name]; ok {
		return d
	}
	d := &reflectDescriptor{goType: t, reg: r, members: map[string]Member{}}
	r.byName[name] = d // inserted before recursing, so self-referential types terminate

	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		m := memberFromGoType(f.Name, Field, f.Type, dep)
		d.members[m.Name] = m
		d.order = append(d.order, m.Name)
		registerReachable(r, f.Type, dep)
	}

	pmt := reflect.PointerTo(t)
	for i := 0; i < pmt.NumMethod(); i++ {
		mm := pmt.Method(i)
		if !mm.IsExported() {
			continue
		}
		sig := mm.Type // receiver is argument 0
		var params []types.CrispType
		for p := 1; p < sig.NumIn(); p++ {
			params = append(params, crispTypeFor(sig.In(p)))
			registerReachable(r, sig.In(p), dep)
		}
		var ret reflect.Type
		if sig.NumOut() > 0 {
			ret = sig.Out(0)
		}
		m := memberFromGoType(mm.Name, Method, ret, dep)
		m.ParamTypes = params
		d.members[m.Name] = m
		d.order = append(d.order, m.Name)
		if ret != nil {
			registerReachable(r, ret, dep)
		}
	}
	return d
}

func registerReachable(r *Registry, t reflect.Type, dep Deprecations) {
	for t.Kind() == reflect.Pointer || t.Kind() == reflect.Slice || t.Kind() == reflect.Array {
		t = t.Elem()
	}
	if t.Kind() == reflect.Struct {
		r.describe(t, dep)
	}
}

// memberFromGoType maps a Go field/return type to a crisp Member, using
// spec.md §4.5's kebab-case-free Go identifier as the member name (the
// resolver applies the kebab-case candidate transforms, not this layer).
func memberFromGoType(name string, kind MemberKind, t reflect.Type, dep Deprecations) Member {
	m := Member{Name: name, Kind: kind}
	if t == nil {
		m.DeclaredType = types.Void
		return m
	}
	m.Nullable = nullabilityOf(t)
	m.DeclaredType = crispTypeFor(t)
	if msg, ok := dep[name]; ok {
		m.Obsolete = true
		m.ObsoleteMessage = msg
	}
	return m
}

func nullabilityOf(t reflect.Type) Nullability {
	switch t.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice:
		return Annotated
	case reflect.Interface:
		return Oblivious
	default:
		return NotAnnotated
	}
}

// crispTypeFor maps Go's primitive kinds onto Crisp's closed type set, and
// any named struct (directly or through a pointer) onto Custom(name). A Go
// type named "BtStatus" or "BtNode" maps onto the matching Crisp action
// result type, since Go has no built-in equivalent of those two carriers —
// the host is expected to name its status enum/type accordingly.
func crispTypeFor(t reflect.Type) types.CrispType {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	switch t.Name() {
	case "BtStatus":
		return types.BtStatus
	case "BtNode":
		return types.BtNode
	}
	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return types.Int
	case reflect.Float32, reflect.Float64:
		return types.Float
	case reflect.Bool:
		return types.Bool
	case reflect.String:
		return types.String
	case reflect.Struct:
		if t.Name() == "" {
			return types.Unknown // anonymous struct: nothing a defdec/member-path could stably name
		}
		return types.Custom(t.Name())
	case reflect.Interface:
		return types.Unknown
	default:
		return types.Unknown
	}
}

func (d *reflectDescriptor) TypeName() string { return d.goType.Name() }

func (d *reflectDescriptor) Member(name string) (Member, bool) {
	m, ok := d.members[name]
	return m, ok
}

func (d *reflectDescriptor) Members() []Member {
	out := make([]Member, 0, len(d.order))
	for _, n := range d.order {
		out = append(out, d.members[n])
	}
	return out
}

func (d *reflectDescriptor) Navigate(t types.CrispType) (Descriptor, bool) {
	if !t.IsCustom() {
		return nil, false
	}
	nd, ok := d.reg.byName[t.Name()]
	return nd, ok
}

// IsAssignable reports whether src's Go type and tgt's Go type are
// identical, or src's Go type embeds tgt's by name (a structural stand-in
// for interface/embedding-based subtyping, since Go has no nominal class
// hierarchy to walk).
func (d *reflectDescriptor) IsAssignable(src, tgt types.CrispType) bool {
	if src.Equal(tgt) {
		return true
	}
	if !src.IsCustom() || !tgt.IsCustom() {
		return false
	}
	sd, ok := d.reg.byName[src.Name()]
	if !ok {
		return false
	}
	return sd.embeds(tgt.Name())
}

func (d *reflectDescriptor) embeds(typeName string) bool {
	for i := 0; i < d.goType.NumField(); i++ {
		f := d.goType.Field(i)
		if !f.Anonymous {
			continue
		}
		ft := f.Type
		for ft.Kind() == reflect.Pointer {
			ft = ft.Elem()
		}
		if ft.Name() == typeName {
			return true
		}
		if ft.Kind() == reflect.Struct {
			if nd, ok := d.reg.byName[ft.Name()]; ok && nd != d && nd.embeds(typeName) {
				return true
			}
		}
	}
	return false
}
