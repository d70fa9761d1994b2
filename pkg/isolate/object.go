package isolate

import "slices"

// Object is the generic property interface shared by plain objects and
// isolated views. Keys are own-property keys; only Get consults a
// prototype chain.
type Object interface {
	Get(key string) (any, bool)
	Set(key string, value any)
	Define(key string, desc Descriptor)
	Delete(key string)
	Has(key string) bool
	OwnKeys() []string
	Describe(key string) (Descriptor, bool)
}

// Descriptor describes an own data property.
type Descriptor struct {
	Value        any
	Writable     bool
	Enumerable   bool
	Configurable bool
}

// plain returns the descriptor of an ordinary assigned property.
func plain(v any) Descriptor {
	return Descriptor{Value: v, Writable: true, Enumerable: true, Configurable: true}
}

// Map is an ordered property bag with an optional prototype.
// Concurrent readers are safe; writers need external synchronisation.
type Map struct {
	props map[string]Descriptor
	order []string
	proto Object
}

// NewMap creates an empty object whose Get falls back to proto.
// proto may be nil.
func NewMap(proto Object) *Map {
	return &Map{
		props: make(map[string]Descriptor),
		proto: proto,
	}
}

// FromValues creates a prototype-less object holding the given values.
// Keys are inserted in the order given by keys; values without a key in
// keys are ignored.
func FromValues(values map[string]any, keys ...string) *Map {
	m := NewMap(nil)
	for _, k := range keys {
		if v, ok := values[k]; ok {
			m.Set(k, v)
		}
	}
	return m
}

func (m *Map) Get(key string) (any, bool) {
	if d, ok := m.props[key]; ok {
		return d.Value, true
	}
	if m.proto != nil {
		return m.proto.Get(key)
	}
	return nil, false
}

// Set assigns an own property. Assigning to an existing non-writable
// property is a no-op.
func (m *Map) Set(key string, value any) {
	if d, ok := m.props[key]; ok {
		if !d.Writable {
			return
		}
		d.Value = value
		m.props[key] = d
		return
	}
	m.insert(key, plain(value))
}

// Define installs desc as-is, replacing any configurable property.
func (m *Map) Define(key string, desc Descriptor) {
	if d, ok := m.props[key]; ok {
		if !d.Configurable {
			return
		}
		m.props[key] = desc
		return
	}
	m.insert(key, desc)
}

func (m *Map) insert(key string, desc Descriptor) {
	m.props[key] = desc
	m.order = append(m.order, key)
}

func (m *Map) Delete(key string) {
	d, ok := m.props[key]
	if !ok || !d.Configurable {
		return
	}
	delete(m.props, key)
	if i := slices.Index(m.order, key); i >= 0 {
		m.order = slices.Delete(m.order, i, i+1)
	}
}

func (m *Map) Has(key string) bool {
	_, ok := m.props[key]
	return ok
}

// OwnKeys returns own keys in insertion order. Non-enumerable
// properties are included.
func (m *Map) OwnKeys() []string {
	return slices.Clone(m.order)
}

func (m *Map) Describe(key string) (Descriptor, bool) {
	d, ok := m.props[key]
	return d, ok
}

// Snapshot copies the own properties of obj, as seen through Get, into a
// plain map.
func Snapshot(obj Object) map[string]any {
	keys := obj.OwnKeys()
	out := make(map[string]any, len(keys))
	for _, k := range keys {
		if v, ok := obj.Get(k); ok {
			out[k] = v
		}
	}
	return out
}
