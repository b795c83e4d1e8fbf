package reactive

import "fmt"

// Property is one reactive key of an Object: its current value and the Dep
// of watchers that read it.
type Property struct {
	key string
	dep *Dep

	// value is what Get returns; maps are stored as their observed *Object.
	value any
	// raw is the value as it was last written, before observation.
	raw any
}

// DefineReactive instruments key on obj with the initial value val. Map
// values are observed transitively; slices are stored as they are.
func DefineReactive(obj *Object, key string, val any) (*Property, error) {
	if obj.frozen {
		return nil, fmt.Errorf("%w: %q on frozen object", ErrPropertyNotConfigurable, key)
	}
	if _, ok := obj.props[key]; ok {
		return nil, fmt.Errorf("%w: %q is already reactive", ErrPropertyNotConfigurable, key)
	}

	p := &Property{key: key, dep: NewDep()}
	p.store(val)

	if _, ok := obj.plain[key]; ok {
		delete(obj.plain, key)
	} else {
		obj.keys = append(obj.keys, key)
	}
	obj.props[key] = p
	return p, nil
}

func (p *Property) store(val any) {
	p.raw = val
	p.value = val
	if child, ok := Observe(val); ok {
		p.value = child
	}
}

func (p *Property) Key() string {
	return p.key
}

func (p *Property) Dep() *Dep {
	return p.dep
}

// Get returns the value and subscribes the watcher evaluating on this
// goroutine, if any.
func (p *Property) Get() any {
	p.dep.Depend()
	return p.value
}

// Peek returns the value without subscribing anything.
func (p *Property) Peek() any {
	return p.value
}

// Set stores val and notifies subscribers. Writing the identical value,
// as decided by Same, does nothing.
func (p *Property) Set(val any) {
	if Same(val, p.raw) || Same(val, p.value) {
		return
	}
	p.store(val)
	p.dep.Notify()
}
