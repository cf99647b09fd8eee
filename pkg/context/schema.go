package context

import (
	"github.com/pkg/errors"

	"github.com/crisp-lang/crisp/pkg/types"
)

// FieldDef declares one field-shaped member of a schema-described type.
type FieldDef struct {
	Name     string `toml:"name"`
	Type     string `toml:"type"`
	Nullable bool   `toml:"nullable"`
}

// MethodDef declares one method-shaped member: its parameter types (by
// name, resolved the same way Type is) and its return type.
type MethodDef struct {
	Name     string   `toml:"name"`
	Params   []string `toml:"params"`
	Returns  string   `toml:"returns"`
	Nullable bool     `toml:"nullable"`
}

// TypeDef declares one host type's shape: its fields, methods, and (for
// spec.md §3e's reference-subtype test) the names of types it embeds.
type TypeDef struct {
	Name    string      `toml:"name"`
	Embeds  []string    `toml:"embeds"`
	Fields  []FieldDef  `toml:"fields"`
	Methods []MethodDef `toml:"methods"`
}

// Schema is a declarative, TOML-loadable stand-in for a compiled Go
// struct's reflected shape — the same division of labor `dang`'s GraphQL
// schema plays for `pkg/dang/env.go`'s Env, letting a project describe its
// context type from data rather than requiring a custom CLI build linked
// against the host's actual Go types.
type Schema struct {
	Root  string             `toml:"root"`
	Types map[string]TypeDef `toml:"types"`
}

// schemaDescriptor is a Descriptor backed by a Schema entry, resolving
// nested/member types against the rest of the schema rather than via
// reflection.
type schemaDescriptor struct {
	def     TypeDef
	schema  Schema
	members map[string]Member
	order   []string
}

// FromSchema builds a Registry-equivalent set of Descriptors from a Schema,
// returning the root type's Descriptor and a lookup func usable directly as
// a sema.BlackboardLookup.
func FromSchema(schema Schema) (Descriptor, func(name string) (Descriptor, bool), error) {
	root, ok := schema.Types[schema.Root]
	if !ok {
		return nil, nil, errors.Errorf("schema root type %q not declared in [types]", schema.Root)
	}
	lookup := func(name string) (Descriptor, bool) {
		def, ok := schema.Types[name]
		if !ok {
			return nil, false
		}
		return newSchemaDescriptor(def, schema), true
	}
	return newSchemaDescriptor(root, schema), lookup, nil
}

func newSchemaDescriptor(def TypeDef, schema Schema) *schemaDescriptor {
	d := &schemaDescriptor{def: def, schema: schema, members: map[string]Member{}}
	for _, f := range def.Fields {
		m := Member{
			Name:         f.Name,
			Kind:         Field,
			DeclaredType: parseCrispType(f.Type),
			Nullable:     nullabilityFromBool(f.Nullable),
		}
		d.members[m.Name] = m
		d.order = append(d.order, m.Name)
	}
	for _, meth := range def.Methods {
		params := make([]types.CrispType, len(meth.Params))
		for i, p := range meth.Params {
			params[i] = parseCrispType(p)
		}
		m := Member{
			Name:         meth.Name,
			Kind:         Method,
			DeclaredType: parseCrispType(meth.Returns),
			Nullable:     nullabilityFromBool(meth.Nullable),
			ParamTypes:   params,
		}
		d.members[m.Name] = m
		d.order = append(d.order, m.Name)
	}
	return d
}

func nullabilityFromBool(nullable bool) Nullability {
	if nullable {
		return Annotated
	}
	return NotAnnotated
}

// parseCrispType resolves a schema's type name to a types.CrispType,
// recognizing the closed built-in set by name and falling back to a
// Custom type for anything else (spec.md §3's Custom(name)).
func parseCrispType(name string) types.CrispType {
	switch name {
	case "Int":
		return types.Int
	case "Float":
		return types.Float
	case "Bool":
		return types.Bool
	case "String":
		return types.String
	case "Void":
		return types.Void
	case "BtStatus":
		return types.BtStatus
	case "BtNode":
		return types.BtNode
	default:
		return types.Custom(name)
	}
}

func (d *schemaDescriptor) TypeName() string { return d.def.Name }

func (d *schemaDescriptor) Member(name string) (Member, bool) {
	m, ok := d.members[name]
	return m, ok
}

func (d *schemaDescriptor) Members() []Member {
	out := make([]Member, 0, len(d.order))
	for _, name := range d.order {
		out = append(out, d.members[name])
	}
	return out
}

func (d *schemaDescriptor) Navigate(t types.CrispType) (Descriptor, bool) {
	if !t.IsCustom() {
		return nil, false
	}
	def, ok := d.schema.Types[t.Name()]
	if !ok {
		return nil, false
	}
	return newSchemaDescriptor(def, d.schema), true
}

func (d *schemaDescriptor) IsAssignable(src, tgt types.CrispType) bool {
	if src.Name() == tgt.Name() {
		return true
	}
	if !src.IsCustom() {
		return false
	}
	def, ok := d.schema.Types[src.Name()]
	if !ok {
		return false
	}
	for _, embedded := range def.Embeds {
		if embedded == tgt.Name() {
			return true
		}
		if schemaDescriptorEmbeds(d.schema, embedded, tgt.Name()) {
			return true
		}
	}
	return false
}

func schemaDescriptorEmbeds(schema Schema, typeName, target string) bool {
	def, ok := schema.Types[typeName]
	if !ok {
		return false
	}
	for _, embedded := range def.Embeds {
		if embedded == target {
			return true
		}
		if schemaDescriptorEmbeds(schema, embedded, target) {
			return true
		}
	}
	return false
}
