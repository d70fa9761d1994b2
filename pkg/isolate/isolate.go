// Package isolate lets several independent views share one base object.
//
// A Wrapper answers reads from its own overlay first and from the base
// otherwise. Every write, redefinition and delete lands in the overlay,
// so the base and sibling wrappers never observe it. A Wrapper is itself
// an Object and can be the base of another Wrapper.
//
// A single Wrapper is not safe for concurrent use. Distinct wrappers over
// the same base are, as long as nobody writes to the base directly.
package isolate

type entry struct {
	value   any
	deleted bool
}

// Wrapper is an isolated view over a shared base object.
type Wrapper struct {
	base    Object
	overlay map[string]entry
	added   []string // overlay keys in first-set order
}

// New returns a fresh view over base. base is not copied.
func New(base Object) *Wrapper {
	return &Wrapper{
		base:    base,
		overlay: make(map[string]entry),
	}
}

func (w *Wrapper) Get(key string) (any, bool) {
	if e, ok := w.overlay[key]; ok {
		if e.deleted {
			return nil, false
		}
		return e.value, true
	}
	return w.base.Get(key)
}

func (w *Wrapper) Set(key string, value any) {
	w.record(key, entry{value: value})
}

// Define records desc.Value in the overlay. The flags of desc are not
// kept: overlay properties are always plain mutable properties.
func (w *Wrapper) Define(key string, desc Descriptor) {
	w.record(key, entry{value: desc.Value})
}

func (w *Wrapper) Delete(key string) {
	w.record(key, entry{deleted: true})
}

func (w *Wrapper) record(key string, e entry) {
	if _, seen := w.overlay[key]; !seen {
		w.added = append(w.added, key)
	}
	w.overlay[key] = e
}

func (w *Wrapper) Has(key string) bool {
	if e, ok := w.overlay[key]; ok {
		return !e.deleted
	}
	return w.base.Has(key)
}

// OwnKeys lists the base's own keys that were not deleted here, followed
// by keys that exist only in the overlay.
func (w *Wrapper) OwnKeys() []string {
	baseKeys := w.base.OwnKeys()
	keys := make([]string, 0, len(baseKeys)+len(w.added))
	onBase := make(map[string]struct{}, len(baseKeys))
	for _, k := range baseKeys {
		onBase[k] = struct{}{}
		if e, ok := w.overlay[k]; ok && e.deleted {
			continue
		}
		keys = append(keys, k)
	}
	for _, k := range w.added {
		if _, ok := onBase[k]; ok {
			continue
		}
		if e := w.overlay[k]; !e.deleted {
			keys = append(keys, k)
		}
	}
	return keys
}

// Describe only reports properties written through this wrapper. Keys
// that are merely visible from the base have no descriptor here, even
// though Get and Has see them.
func (w *Wrapper) Describe(key string) (Descriptor, bool) {
	e, ok := w.overlay[key]
	if !ok || e.deleted {
		return Descriptor{}, false
	}
	return plain(e.value), true
}

// Overridden reports whether the overlay holds a value or a deletion
// for key.
func (w *Wrapper) Overridden(key string) bool {
	_, ok := w.overlay[key]
	return ok
}
