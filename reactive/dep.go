package reactive

import "sync/atomic"

// Subscriber is anything a Dep can notify. Watcher is the stock
// implementation; the view layer and tests supply their own.
type Subscriber interface {
	OnDependencyChanged()
}

var depIDCounter uint64

func nextDepID() uint64 {
	return atomic.AddUint64(&depIDCounter, 1)
}

// Dep is the set of subscribers of a single observed property.
type Dep struct {
	id   uint64
	subs []Subscriber
}

// NewDep returns an empty Dep with a fresh id. Ids increase monotonically and
// are never reused.
func NewDep() *Dep {
	return &Dep{id: nextDepID()}
}

func (d *Dep) ID() uint64 {
	return d.id
}

// AddSubscriber appends s. Duplicates are not checked here; Watcher.AddDep
// keeps each watcher to one subscription per Dep.
func (d *Dep) AddSubscriber(s Subscriber) {
	d.subs = append(d.subs, s)
}

// RemoveSubscriber removes the first occurrence of s, keeping the order of the
// rest. It is a no-op when s is not subscribed.
func (d *Dep) RemoveSubscriber(s Subscriber) {
	for i, sub := range d.subs {
		if sub == s {
			d.subs = append(d.subs[:i], d.subs[i+1:]...)
			return
		}
	}
}

// Depend subscribes the watcher evaluating on this goroutine, if any.
func (d *Dep) Depend() {
	if target := currentTarget(); target != nil {
		target.AddDep(d)
	}
}

// Notify calls OnDependencyChanged on every subscriber in subscription order.
// Subscribers added while notifying are not called until the next Notify.
func (d *Dep) Notify() {
	subs := make([]Subscriber, len(d.subs))
	copy(subs, d.subs)
	for _, sub := range subs {
		sub.OnDependencyChanged()
	}
}

// Subscribers returns the number of current subscribers.
func (d *Dep) Subscribers() int {
	return len(d.subs)
}
