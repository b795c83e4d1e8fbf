package reactive

import "sort"

// Object is an observed map. Keys present when it was observed are reactive
// properties; keys written afterwards through Set are plain entries that no
// watcher can depend on.
type Object struct {
	keys   []string
	props  map[string]*Property
	plain  map[string]any
	frozen bool
}

// Observe instruments value. A map[string]any becomes a new *Object with every
// key reactive and nested maps observed the same way; an *Object is returned
// as is. Anything else, slices included, is left alone and ok is false.
//
// The source map is read, not modified. Keys are instrumented in sorted order
// so Dep ids are deterministic.
func Observe(value any) (obj *Object, ok bool) {
	switch v := value.(type) {
	case *Object:
		return v, v != nil
	case map[string]any:
		if v == nil {
			return nil, false
		}
		obj = newObject()
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			// a fresh object is neither frozen nor holds k yet
			_, _ = DefineReactive(obj, k, v[k])
		}
		return obj, true
	default:
		return nil, false
	}
}

func newObject() *Object {
	return &Object{
		props: map[string]*Property{},
		plain: map[string]any{},
	}
}

// Get returns the value at key, subscribing the tracking watcher when key is
// reactive. Missing keys return nil.
func (o *Object) Get(key string) any {
	if p, ok := o.props[key]; ok {
		return p.Get()
	}
	return o.plain[key]
}

// Peek is Get without tracking.
func (o *Object) Peek(key string) any {
	if p, ok := o.props[key]; ok {
		return p.Peek()
	}
	return o.plain[key]
}

// Set writes key. Reactive keys go through Property.Set; other keys are stored
// as plain entries. A frozen object only accepts writes to reactive keys.
func (o *Object) Set(key string, value any) {
	if p, ok := o.props[key]; ok {
		p.Set(value)
		return
	}
	if o.frozen {
		return
	}
	if _, ok := o.plain[key]; !ok {
		o.keys = append(o.keys, key)
	}
	o.plain[key] = value
}

func (o *Object) Has(key string) bool {
	if _, ok := o.props[key]; ok {
		return true
	}
	_, ok := o.plain[key]
	return ok
}

// Reactive reports whether key is an instrumented property.
func (o *Object) Reactive(key string) bool {
	_, ok := o.props[key]
	return ok
}

// Property returns the reactive property for key.
func (o *Object) Property(key string) (*Property, bool) {
	p, ok := o.props[key]
	return p, ok
}

// Keys returns all keys in the order they were first added.
func (o *Object) Keys() []string {
	keys := make([]string, len(o.keys))
	copy(keys, o.keys)
	return keys
}

func (o *Object) Len() int {
	return len(o.keys)
}

// Freeze stops the object from gaining or changing plain keys and from having
// new keys instrumented. Reactive keys stay writable.
func (o *Object) Freeze() {
	o.frozen = true
}

func (o *Object) Frozen() bool {
	return o.frozen
}

// ToMap returns a deep plain copy of the object without tracking. Slices are
// shared, not copied.
func (o *Object) ToMap() map[string]any {
	m := make(map[string]any, len(o.keys))
	for _, k := range o.keys {
		v := o.Peek(k)
		if child, ok := v.(*Object); ok {
			v = child.ToMap()
		}
		m[k] = v
	}
	return m
}
