// Package opendata defines the core data structures for OpenData parsing.
package opendata

import "strings"

// Synthetic keys added while transforming and resolving documents.
const (
	TypeKey   = "__type__"
	NameKey   = "__name__"
	ValueKey  = "__value__"
	StreamKey = "opendata"

	// DocumentType is the __type__ marker of every document mapping.
	DocumentType = "OpenData"
)

// Value represents any OpenData value.
//
// The concrete types are Int, Float, Text, Name, *Mapping, Sequence,
// *Tagged and *Document.
type Value interface {
	isValue()
}

// Int is a signed whole number literal.
type Int int64

// Float is a signed decimal literal.
type Float float64

// Text is a quoted string literal with its quotes removed.
type Text string

// SegmentForm records how a name segment was spelled in the source.
type SegmentForm uint8

const (
	SegmentPlain   SegmentForm = iota // identifier
	SegmentRef                        // @identifier
	SegmentDisplay                    // T"display name"
)

// Segment is one dot-separated part of a Name.
type Segment struct {
	Text string
	Form SegmentForm
}

// Name is a dotted identifier path such as Skeleton.Clip.
type Name struct {
	Segments []Segment
}

// NewName builds a Name from plain segments.
func NewName(parts ...string) Name {
	n := Name{Segments: make([]Segment, len(parts))}
	for i, p := range parts {
		n.Segments[i] = Segment{Text: p}
	}
	return n
}

// String returns the canonical form: segment texts joined by ".".
func (n Name) String() string {
	parts := make([]string, len(n.Segments))
	for i, s := range n.Segments {
		parts[i] = s.Text
	}
	return strings.Join(parts, ".")
}

// IsZero reports whether the name has no segments.
func (n Name) IsZero() bool {
	return len(n.Segments) == 0
}

// Mapping is an insertion-ordered collection of key/value pairs.
// Setting an existing key replaces its value but keeps its position.
type Mapping struct {
	keys   []string
	values map[string]Value
}

// NewMapping creates an empty Mapping.
func NewMapping() *Mapping {
	return &Mapping{values: make(map[string]Value)}
}

// Set stores v under key.
func (m *Mapping) Set(key string, v Value) {
	if m.values == nil {
		m.values = make(map[string]Value)
	}
	if _, ok := m.values[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.values[key] = v
}

// Get returns the value stored under key.
func (m *Mapping) Get(key string) (Value, bool) {
	if m == nil {
		return nil, false
	}
	v, ok := m.values[key]
	return v, ok
}

// Has reports whether key is present.
func (m *Mapping) Has(key string) bool {
	_, ok := m.Get(key)
	return ok
}

// Keys returns the keys in insertion order.
func (m *Mapping) Keys() []string {
	if m == nil {
		return nil
	}
	out := make([]string, len(m.keys))
	copy(out, m.keys)
	return out
}

// Len returns the number of entries.
func (m *Mapping) Len() int {
	if m == nil {
		return 0
	}
	return len(m.keys)
}

// Range calls fn for each entry in order until fn returns false.
func (m *Mapping) Range(fn func(key string, v Value) bool) {
	if m == nil {
		return
	}
	for _, k := range m.keys {
		if !fn(k, m.values[k]) {
			return
		}
	}
}

// Sequence is an ordered list of values.
type Sequence []Value

// Tagged pairs a tag name with exactly one inner value, e.g.
// `LengthProperty [ value:5.0; ]` or `PxStream "layout"`.
type Tagged struct {
	Tag   Name
	Value Value

	attached *Mapping
}

// Attach adds a synthetic entry that is emitted after __type__ and
// __value__ when the tagged value is serialized.
func (t *Tagged) Attach(key string, v Value) {
	if t.attached == nil {
		t.attached = NewMapping()
	}
	t.attached.Set(key, v)
}

// Attached returns the synthetic entries added with Attach, or nil.
func (t *Tagged) Attached() *Mapping {
	return t.attached
}

// Document is one `OPENDATA <name> [...];` unit. Its mapping holds the
// __type__ and __name__ markers followed by the body entries.
type Document struct {
	Name Name

	fields *Mapping
}

// NewDocument builds a Document from its declared name and body.
func NewDocument(name Name, body *Mapping) *Document {
	fields := NewMapping()
	fields.Set(TypeKey, Text(DocumentType))
	fields.Set(NameKey, Text(name.String()))
	body.Range(func(k string, v Value) bool {
		fields.Set(k, v)
		return true
	})
	return &Document{Name: name, fields: fields}
}

// Has reports whether key is present, including the synthetic markers.
func (d *Document) Has(key string) bool {
	return d.fields.Has(key)
}

// Get looks up key, including the synthetic markers.
func (d *Document) Get(key string) (Value, bool) {
	return d.fields.Get(key)
}

// Mapping returns the full mapping used for serialization.
func (d *Document) Mapping() *Mapping {
	return d.fields
}

// Body returns a copy of the entries declared in the source, without
// the synthetic markers.
func (d *Document) Body() *Mapping {
	body := NewMapping()
	d.fields.Range(func(k string, v Value) bool {
		if k != TypeKey && k != NameKey {
			body.Set(k, v)
		}
		return true
	})
	return body
}

func (Int) isValue()       {}
func (Float) isValue()     {}
func (Text) isValue()      {}
func (Name) isValue()      {}
func (*Mapping) isValue()  {}
func (Sequence) isValue()  {}
func (*Tagged) isValue()   {}
func (*Document) isValue() {}

// Equal reports whether two values are structurally identical.
// Attached entries of tagged values are compared as well.
func Equal(a, b Value) bool {
	switch va := a.(type) {
	case Int:
		vb, ok := b.(Int)
		return ok && va == vb
	case Float:
		vb, ok := b.(Float)
		return ok && va == vb
	case Text:
		vb, ok := b.(Text)
		return ok && va == vb
	case Name:
		vb, ok := b.(Name)
		return ok && va.String() == vb.String()
	case Sequence:
		vb, ok := b.(Sequence)
		if !ok || len(va) != len(vb) {
			return false
		}
		for i := range va {
			if !Equal(va[i], vb[i]) {
				return false
			}
		}
		return true
	case *Mapping:
		vb, ok := b.(*Mapping)
		return ok && mappingsEqual(va, vb)
	case *Tagged:
		vb, ok := b.(*Tagged)
		return ok && va.Tag.String() == vb.Tag.String() &&
			Equal(va.Value, vb.Value) && mappingsEqual(va.attached, vb.attached)
	case *Document:
		vb, ok := b.(*Document)
		return ok && mappingsEqual(va.fields, vb.fields)
	default:
		return a == nil && b == nil
	}
}

func mappingsEqual(a, b *Mapping) bool {
	if a.Len() != b.Len() {
		return false
	}
	ka, kb := a.Keys(), b.Keys()
	for i := range ka {
		if ka[i] != kb[i] {
			return false
		}
		va, _ := a.Get(ka[i])
		vb, _ := b.Get(kb[i])
		if !Equal(va, vb) {
			return false
		}
	}
	return true
}
