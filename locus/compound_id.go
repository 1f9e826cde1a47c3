package locus

import (
	"encoding/base64"
	"fmt"
)

// Compound identifiers encode the hierarchical path of an object (dataset →
// variant set → variant, and so on) as a single opaque, URL-safe string.
// Containment is structural: a parent's compound ID is always a field-prefix
// of its children's, so a child can re-derive any ancestor's opaque ID
// without extra storage.
//
// The wire form is obfuscate(join(fields)): fields are JSON-escaped, joined
// as a JSON-style array, and the result is encoded with padding-free
// URL-safe base64 so it never leaks separators into a URL.

// -----------------------------------------------------------------------------
// Schemas
// -----------------------------------------------------------------------------

// IDSchema describes the compound-ID layout of one object kind: its ordered
// field names, fixed differentiator values, and its parent schema. Schemas
// are consulted by a single generic codec; there is one descriptor per kind.
type IDSchema struct {
	kind   string
	fields []string
	fixed  map[int]string
	parent *IDSchema
}

// idField is a field declaration used when building schema descriptors.
type idField struct {
	name  string
	fixed string
}

func field(name string) idField { return idField{name: name} }

// fixedField declares a differentiator: a field whose value is constant for
// the schema. Differentiators keep sibling kinds under the same parent from
// colliding (a variant set and a read group set with equal local IDs must
// still have distinct compound IDs).
func fixedField(name, value string) idField { return idField{name: name, fixed: value} }

func newIDSchema(kind string, parent *IDSchema, localFields ...idField) *IDSchema {
	s := &IDSchema{
		kind:   kind,
		fixed:  map[int]string{},
		parent: parent,
	}
	if parent != nil {
		s.fields = append(s.fields, parent.fields...)
		for i, v := range parent.fixed {
			s.fixed[i] = v
		}
	}
	for _, f := range localFields {
		if f.fixed != "" {
			s.fixed[len(s.fields)] = f.fixed
		}
		s.fields = append(s.fields, f.name)
	}
	return s
}

// Kind returns the object kind this schema describes.
func (s *IDSchema) Kind() string { return s.kind }

// NumFields returns the fixed field count of the schema.
func (s *IDSchema) NumFields() int { return len(s.fields) }

// numLocalFields is the number of caller-supplied values a constructor needs.
func (s *IDSchema) numLocalFields() int {
	n := len(s.fields)
	if s.parent != nil {
		n -= len(s.parent.fields)
	}
	return n - s.numLocalFixed()
}

func (s *IDSchema) numLocalFixed() int {
	parentLen := 0
	if s.parent != nil {
		parentLen = len(s.parent.fields)
	}
	n := 0
	for i := range s.fixed {
		if i >= parentLen {
			n++
		}
	}
	return n
}

// Compound-ID schema descriptors, one per object kind.
var (
	DatasetIDSchema      = newIDSchema("dataset", nil, field("dataset"))
	ReferenceSetIDSchema = newIDSchema("referenceSet", nil, field("referenceSet"))
	ReferenceIDSchema    = newIDSchema("reference", ReferenceSetIDSchema, field("reference"))

	VariantSetIDSchema = newIDSchema("variantSet", DatasetIDSchema,
		fixedField("vs", "vs"), field("variantSet"))
	CallSetIDSchema = newIDSchema("callSet", VariantSetIDSchema, field("name"))
	VariantIDSchema = newIDSchema("variant", VariantSetIDSchema,
		field("referenceName"), field("start"), field("md5"))

	VariantAnnotationSetIDSchema = newIDSchema("variantAnnotationSet",
		VariantSetIDSchema, field("variantAnnotationSet"))
	VariantAnnotationIDSchema = newIDSchema("variantAnnotation",
		VariantAnnotationSetIDSchema, field("referenceName"), field("start"), field("md5"))

	ReadGroupSetIDSchema = newIDSchema("readGroupSet", DatasetIDSchema,
		fixedField("rgs", "rgs"), field("readGroupSet"))
	ReadGroupIDSchema     = newIDSchema("readGroup", ReadGroupSetIDSchema, field("readGroup"))
	ReadAlignmentIDSchema = newIDSchema("readAlignment", ReadGroupSetIDSchema, field("readAlignment"))
	ExperimentIDSchema    = newIDSchema("experiment", ReadGroupIDSchema, field("experiment"))

	FeatureSetIDSchema = newIDSchema("featureSet", DatasetIDSchema, field("featureSet"))
	FeatureIDSchema    = newIDSchema("feature", FeatureSetIDSchema, field("feature"))
)

// -----------------------------------------------------------------------------
// CompoundID
// -----------------------------------------------------------------------------

// CompoundID is an immutable, schema-bound sequence of identifier fields.
// The zero value is not usable; construct with NewCompoundID or
// ParseCompoundID.
type CompoundID struct {
	schema *IDSchema
	values []string
}

// NewCompoundID builds a compound ID from explicit field values. Nested
// schemas require the parent's compound ID; top-level schemas require a nil
// parent. The number of local values must match the schema exactly.
func NewCompoundID(schema *IDSchema, parent *CompoundID, localValues ...string) (CompoundID, error) {
	if schema == nil {
		return CompoundID{}, fmt.Errorf("locus: schema is required")
	}
	if schema.parent != nil {
		if parent == nil {
			return CompoundID{}, fmt.Errorf("locus: %s id requires a %s parent id", schema.kind, schema.parent.kind)
		}
		if parent.schema != schema.parent {
			return CompoundID{}, fmt.Errorf("locus: %s id requires a %s parent id, got %s", schema.kind, schema.parent.kind, parent.schema.kind)
		}
	} else if parent != nil {
		return CompoundID{}, fmt.Errorf("locus: %s id takes no parent id", schema.kind)
	}
	if len(localValues) != schema.numLocalFields() {
		return CompoundID{}, fmt.Errorf("locus: %s id requires %d local identifiers, got %d",
			schema.kind, schema.numLocalFields(), len(localValues))
	}

	values := make([]string, 0, len(schema.fields))
	if parent != nil {
		values = append(values, parent.values...)
	}
	next := 0
	for i := len(values); i < len(schema.fields); i++ {
		if v, ok := schema.fixed[i]; ok {
			values = append(values, v)
			continue
		}
		values = append(values, localValues[next])
		next++
	}
	return CompoundID{schema: schema, values: values}, nil
}

// MustCompoundID is NewCompoundID for statically correct construction, such
// as package fixtures. It panics on error.
func MustCompoundID(schema *IDSchema, parent *CompoundID, localValues ...string) CompoundID {
	id, err := NewCompoundID(schema, parent, localValues...)
	if err != nil {
		panic(err)
	}
	return id
}

// ParseCompoundID deobfuscates and splits an opaque identifier, then checks
// the field count against the schema. A blank identifier is a
// BadIdentifierError; any decoding failure or arity mismatch is a
// NotFoundError carrying the offending string — a malformed ID and an ID for
// a missing object are indistinguishable to clients by design.
func ParseCompoundID(schema *IDSchema, id string) (CompoundID, error) {
	if id == "" {
		return CompoundID{}, &BadIdentifierError{Value: id}
	}
	decoded, err := DeobfuscateID(id)
	if err != nil {
		return CompoundID{}, &NotFoundError{Kind: schema.kind, ID: id}
	}
	values, err := SplitIDFields(decoded)
	if err != nil {
		return CompoundID{}, &NotFoundError{Kind: schema.kind, ID: id}
	}
	if len(values) != len(schema.fields) {
		return CompoundID{}, &NotFoundError{Kind: schema.kind, ID: id}
	}
	for i, want := range schema.fixed {
		if values[i] != want {
			return CompoundID{}, &NotFoundError{Kind: schema.kind, ID: id}
		}
	}
	return CompoundID{schema: schema, values: values}, nil
}

// Schema returns the schema this ID was built against.
func (c CompoundID) Schema() *IDSchema { return c.schema }

// Values returns a copy of the decoded field values, in schema order.
func (c CompoundID) Values() []string {
	out := make([]string, len(c.values))
	copy(out, c.values)
	return out
}

// Value returns the named field's decoded value.
func (c CompoundID) Value(fieldName string) (string, bool) {
	for i, name := range c.schema.fields {
		if name == fieldName {
			return c.values[i], true
		}
	}
	return "", false
}

// LocalID returns the last field value: the object's identifier local to its
// immediate container.
func (c CompoundID) LocalID() string {
	return c.values[len(c.values)-1]
}

// Container re-derives an ancestor's compound ID by kind. Containment is
// structural: the ancestor's fields are a prefix of this ID's fields.
func (c CompoundID) Container(kind string) (CompoundID, bool) {
	for s := c.schema.parent; s != nil; s = s.parent {
		if s.kind == kind {
			return CompoundID{schema: s, values: c.values[:len(s.fields)]}, true
		}
	}
	return CompoundID{}, false
}

// ContainerID returns the opaque string form of an ancestor's compound ID.
func (c CompoundID) ContainerID(kind string) (string, bool) {
	ancestor, ok := c.Container(kind)
	if !ok {
		return "", false
	}
	return ancestor.String(), true
}

// String renders the opaque, URL-safe wire form of the ID.
func (c CompoundID) String() string {
	return ObfuscateID(JoinIDFields(c.values))
}

// -----------------------------------------------------------------------------
// Field codec
// -----------------------------------------------------------------------------

// EncodeIDField escapes a field value so it can be embedded between quotes
// in the joined form. DecodeIDField is its exact left inverse.
func EncodeIDField(value string) string {
	quoted, err := jsonCodec.Marshal(value)
	if err != nil {
		// Strings always marshal.
		panic(err)
	}
	return string(quoted[1 : len(quoted)-1])
}

// DecodeIDField restores a field value escaped by EncodeIDField.
func DecodeIDField(encoded string) (string, error) {
	var value string
	if err := jsonCodec.Unmarshal([]byte(`"`+encoded+`"`), &value); err != nil {
		return "", fmt.Errorf("locus: malformed id field %q: %w", encoded, err)
	}
	return value, nil
}

// JoinIDFields renders field values as a JSON-array-like string, escaping
// each field so values may contain the separator and quote characters.
// Joining no fields yields "[]".
func JoinIDFields(values []string) string {
	if len(values) == 0 {
		return "[]"
	}
	joined, err := jsonCodec.Marshal(values)
	if err != nil {
		panic(err)
	}
	return string(joined)
}

// SplitIDFields is the inverse of JoinIDFields. It tolerates both compact
// and spaced array syntax.
func SplitIDFields(joined string) ([]string, error) {
	var values []string
	if err := jsonCodec.Unmarshal([]byte(joined), &values); err != nil {
		return nil, fmt.Errorf("locus: malformed compound id %q: %w", joined, err)
	}
	return values, nil
}

// ObfuscateID encodes a joined ID as a padding-free URL-safe token: the
// result never contains $ & + , / : ; = ? @ and is reversible.
func ObfuscateID(joined string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(joined))
}

// DeobfuscateID reverses ObfuscateID. It performs no field-count validation:
// a structurally invalid payload still decodes to a string, deferring schema
// checks to ParseCompoundID.
func DeobfuscateID(obfuscated string) (string, error) {
	decoded, err := base64.RawURLEncoding.DecodeString(obfuscated)
	if err != nil {
		return "", fmt.Errorf("locus: undecodable id %q: %w", obfuscated, err)
	}
	return string(decoded), nil
}
