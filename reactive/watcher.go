package reactive

import (
	"fmt"
	"sort"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/delaneyj/hue/expr"
)

// Getter computes a watcher's value from its context.
type Getter func(ctx any) any

// Callback receives the context the watcher was built with, the new value and
// the value it replaced.
type Callback func(ctx any, value, oldValue any)

type WatcherOption func(*Watcher)

// OnRun registers fn to be called after every re-evaluation triggered by a
// dependency change, whether or not the value changed.
func OnRun(fn func(w *Watcher)) WatcherOption {
	return func(w *Watcher) {
		w.onRun = fn
	}
}

// Watcher is one reactive computation. Every property it reads while
// evaluating subscribes it; when one of them changes it re-evaluates and calls
// its callback if the result is a different value.
//
// Subscriptions only accumulate: a property read once keeps the watcher
// subscribed even if later evaluations stop reading it. Dispose drops them all.
type Watcher struct {
	ctx        any
	expression string
	getter     Getter
	cb         Callback
	onRun      func(*Watcher)

	value    any
	depIDs   mapset.Set[uint64]
	deps     []*Dep
	disposed bool
}

// NewWatcher builds a watcher over ctx and evaluates it once, which records the
// baseline value and the initial subscriptions without calling cb.
//
// expOrFn is a dotted path string such as "user.name", a Getter, an
// expr.Accessor or a func(any) any. A path with characters outside [\w.$]
// fails with ErrInvalidExpressionPath.
func NewWatcher(ctx any, expOrFn any, cb Callback, opts ...WatcherOption) (*Watcher, error) {
	w := &Watcher{
		ctx:    ctx,
		cb:     cb,
		depIDs: mapset.NewThreadUnsafeSet[uint64](),
	}
	for _, opt := range opts {
		opt(w)
	}

	switch e := expOrFn.(type) {
	case string:
		accessor, ok := expr.Parse(e)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrInvalidExpressionPath, e)
		}
		w.expression = strings.TrimSpace(e)
		w.getter = Getter(accessor)
	case Getter:
		w.getter = e
	case expr.Accessor:
		w.getter = Getter(e)
	case func(any) any:
		w.getter = e
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedExpression, expOrFn)
	}
	if w.getter == nil {
		return nil, fmt.Errorf("%w: nil getter", ErrUnsupportedExpression)
	}

	w.value = w.Get()
	return w, nil
}

// Get evaluates the getter with w as the tracking watcher and returns the
// result. It does not touch the stored value. Tracking is restored even if the
// getter panics.
func (w *Watcher) Get() (value any) {
	withTarget(w, func() {
		value = w.getter(w.ctx)
	})
	return value
}

// AddDep subscribes w to d unless it already holds a subscription to a Dep
// with the same id.
func (w *Watcher) AddDep(d *Dep) {
	if w.disposed {
		return
	}
	id := d.ID()
	if w.depIDs.Contains(id) {
		return
	}
	d.AddSubscriber(w)
	w.depIDs.Add(id)
	w.deps = append(w.deps, d)
}

// OnDependencyChanged implements Subscriber.
func (w *Watcher) OnDependencyChanged() {
	w.Run()
}

// Run re-evaluates and, when the result is not Same as the stored value,
// stores it and calls the callback with the new and old values.
func (w *Watcher) Run() {
	if w.disposed {
		return
	}
	value := w.Get()
	if w.onRun != nil {
		w.onRun(w)
	}
	oldValue := w.value
	if Same(value, oldValue) {
		return
	}
	w.value = value
	if w.cb != nil {
		w.cb(w.ctx, value, oldValue)
	}
}

// Value returns the last computed value.
func (w *Watcher) Value() any {
	return w.value
}

// Context returns the object the watcher evaluates against.
func (w *Watcher) Context() any {
	return w.ctx
}

// Expression returns the trimmed path the watcher was built from, or "" for
// function watchers.
func (w *Watcher) Expression() string {
	return w.expression
}

// DepIDs returns the ids of every Dep w is subscribed to, ascending.
func (w *Watcher) DepIDs() []uint64 {
	ids := w.depIDs.ToSlice()
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Dispose unsubscribes w from every Dep it joined. A disposed watcher never
// runs or subscribes again.
func (w *Watcher) Dispose() {
	if w.disposed {
		return
	}
	w.disposed = true
	for _, d := range w.deps {
		d.RemoveSubscriber(w)
	}
	w.deps = nil
	w.depIDs.Clear()
}

func (w *Watcher) Disposed() bool {
	return w.disposed
}
