// Package reactive observes plain data and re-runs watchers when the values
// they read change.
//
// An Object is built from a map[string]any by Observe. Every key present at
// that moment becomes a Property backed by its own Dep. Reading a Property
// while a Watcher is evaluating subscribes that Watcher to the Dep; writing a
// different value notifies every subscriber, synchronously and in the order
// they subscribed.
//
//	data, _ := reactive.Observe(map[string]any{"msg": "hello"})
//	reactive.NewWatcher(data, "msg", func(ctx, v, old any) {
//		log.Printf("%v -> %v", old, v)
//	})
//	data.Set("msg", "world") // logs "hello -> world"
//
// The watcher being evaluated is kept in a goroutine-local slot. An Object and
// the watchers reading it must be driven from one goroutine at a time.
//
// A getter that writes to an observed property runs the affected watchers
// inline, in the middle of its own evaluation. Reads made by those nested
// evaluations are attributed to the nested watcher; nothing guards against a
// watcher re-entering itself this way.
package reactive
