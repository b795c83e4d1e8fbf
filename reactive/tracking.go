package reactive

import (
	"runtime"
	"sync"
)

// trackingContext holds the watcher currently evaluating on one goroutine.
type trackingContext struct {
	target *Watcher
}

// trackingContexts maps goroutine id to *trackingContext.
var trackingContexts sync.Map

// goroutineID parses the id out of the "goroutine <id> [...]" stack header.
func goroutineID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)

	var id uint64
	for i := len("goroutine "); i < n; i++ {
		if buf[i] == ' ' {
			break
		}
		id = id*10 + uint64(buf[i]-'0')
	}
	return id
}

// currentTarget returns the watcher evaluating on this goroutine, or nil.
func currentTarget() *Watcher {
	ctx, ok := trackingContexts.Load(goroutineID())
	if !ok {
		return nil
	}
	return ctx.(*trackingContext).target
}

// setTarget installs w as the tracking watcher and returns the previous one.
// Passing nil drops the goroutine's entry so idle goroutines leave nothing behind.
func setTarget(w *Watcher) *Watcher {
	gid := goroutineID()
	var old *Watcher
	if ctx, ok := trackingContexts.Load(gid); ok {
		old = ctx.(*trackingContext).target
	}
	if w == nil {
		trackingContexts.Delete(gid)
	} else {
		trackingContexts.Store(gid, &trackingContext{target: w})
	}
	return old
}

// withTarget runs fn with w as the tracking watcher. The previous watcher is
// restored when fn returns or panics.
func withTarget(w *Watcher, fn func()) {
	old := setTarget(w)
	defer setTarget(old)
	fn()
}

// Tracking reports whether a watcher is evaluating on the calling goroutine.
func Tracking() bool {
	return currentTarget() != nil
}

// Untracked runs fn with tracking paused, so reads inside fn subscribe nothing.
func Untracked(fn func()) {
	withTarget(nil, fn)
}
