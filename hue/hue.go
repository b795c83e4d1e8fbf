// Package hue is the entry point for binding data to a template: it observes
// the data, proxies its keys, compiles the template and exposes Watch.
package hue

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/delaneyj/hue/expr"
	"github.com/delaneyj/hue/metrics"
	"github.com/delaneyj/hue/reactive"
	"github.com/delaneyj/hue/view"
)

var (
	// ErrNoTemplate is returned when rendering a VM created without a template.
	ErrNoTemplate = errors.New("hue: no template")

	// ErrNotObject is returned by SetPath when the path does not lead to an
	// observed object.
	ErrNotObject = errors.New("hue: path does not lead to an object")
)

type options struct {
	data     map[string]any
	template string
	logger   *slog.Logger
	metrics  *metrics.Collector
}

type Option func(*options)

// WithData sets the data to observe. Only keys present here are reactive.
func WithData(data map[string]any) Option {
	return func(o *options) {
		o.data = data
	}
}

// WithTemplate sets the HTML fragment to compile against the VM.
func WithTemplate(src string) Option {
	return func(o *options) {
		o.template = src
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

func WithMetrics(c *metrics.Collector) Option {
	return func(o *options) {
		o.metrics = c
	}
}

// VM owns an observed data object, the watchers created through it and an
// optional compiled view. Expressions are resolved against the VM itself, so
// "msg" reads the data key msg.
type VM struct {
	data     *reactive.Object
	view     *view.View
	watchers []*reactive.Watcher
	logger   *slog.Logger
	metrics  *metrics.Collector
}

// New observes the data and compiles the template, if any.
func New(opts ...Option) (*VM, error) {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.data == nil {
		o.data = map[string]any{}
	}
	if o.logger == nil {
		o.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	data, _ := reactive.Observe(o.data)
	vm := &VM{
		data:    data,
		logger:  o.logger,
		metrics: o.metrics,
	}

	if o.template != "" {
		v, err := view.Parse(o.template, vm,
			view.WithUpdateHook(vm.onRender),
			view.WithWatcherOptions(vm.watcherOptions()...),
		)
		if err != nil {
			return nil, fmt.Errorf("compile template: %w", err)
		}
		vm.view = v
		n := 0
		for _, b := range v.Bindings() {
			n += len(b.Watchers())
		}
		if vm.metrics != nil {
			vm.metrics.Watchers.Add(float64(n))
		}
		vm.logger.Debug("template compiled", "bindings", len(v.Bindings()), "watchers", n)
	}

	return vm, nil
}

func (vm *VM) watcherOptions() []reactive.WatcherOption {
	if vm.metrics == nil {
		return nil
	}
	return []reactive.WatcherOption{
		reactive.OnRun(func(*reactive.Watcher) {
			vm.metrics.WatcherRuns.Inc()
		}),
	}
}

// onRender runs from a binding watcher's callback, so it counts that callback
// as well as the rewrite.
func (vm *VM) onRender(b *view.Binding) {
	if vm.metrics != nil {
		vm.metrics.Callbacks.Inc()
		vm.metrics.Renders.Inc()
	}
	vm.logger.Debug("text updated", "expressions", b.Expressions(), "text", b.Text())
}

// Data returns the observed data object.
func (vm *VM) Data() *reactive.Object {
	return vm.data
}

// Get reads a data key, subscribing the tracking watcher.
func (vm *VM) Get(key string) any {
	return vm.data.Get(key)
}

// Set writes a data key.
func (vm *VM) Set(key string, value any) {
	vm.data.Set(key, value)
}

// Lookup resolves a dotted path against the VM.
func (vm *VM) Lookup(path string) (any, error) {
	return expr.Resolve(path, vm)
}

// SetPath writes the last segment of a dotted path on the object the rest of
// the path resolves to, e.g. "user.name" sets name on the user object.
func (vm *VM) SetPath(path string, value any) error {
	path = strings.TrimSpace(path)
	if _, ok := expr.Parse(path); !ok {
		return fmt.Errorf("%w: %q", reactive.ErrInvalidExpressionPath, path)
	}

	target := vm.data
	parent, key := "", path
	if i := strings.LastIndexByte(path, '.'); i >= 0 {
		parent, key = path[:i], path[i+1:]
		v, err := expr.Resolve(parent, vm)
		if err != nil {
			return err
		}
		obj, ok := v.(*reactive.Object)
		if !ok {
			return fmt.Errorf("%w: %q", ErrNotObject, parent)
		}
		target = obj
	}

	target.Set(key, value)
	vm.logger.Debug("set", "path", path, "value", value)
	return nil
}

// Watch creates a watcher over the VM. cb runs with the VM as its context
// whenever the value of expOrFn changes.
func (vm *VM) Watch(expOrFn any, cb reactive.Callback) (*reactive.Watcher, error) {
	w, err := reactive.NewWatcher(vm, expOrFn, func(ctx any, value, oldValue any) {
		if vm.metrics != nil {
			vm.metrics.Callbacks.Inc()
		}
		if cb != nil {
			cb(ctx, value, oldValue)
		}
	}, vm.watcherOptions()...)
	if err != nil {
		return nil, err
	}

	vm.watchers = append(vm.watchers, w)
	if vm.metrics != nil {
		vm.metrics.Watchers.Inc()
	}
	return w, nil
}

// View returns the compiled template, or nil.
func (vm *VM) View() *view.View {
	return vm.view
}

// Render writes the current HTML of the template.
func (vm *VM) Render(w io.Writer) error {
	if vm.view == nil {
		return ErrNoTemplate
	}
	return vm.view.Render(w)
}

// HTML returns the current HTML of the template.
func (vm *VM) HTML() (string, error) {
	if vm.view == nil {
		return "", ErrNoTemplate
	}
	return vm.view.HTML()
}

// Close disposes every watcher created by the VM and its view.
func (vm *VM) Close() {
	n := len(vm.watchers)
	for _, w := range vm.watchers {
		w.Dispose()
	}
	vm.watchers = nil

	if vm.view != nil {
		for _, b := range vm.view.Bindings() {
			n += len(b.Watchers())
		}
		vm.view.Dispose()
	}
	if vm.metrics != nil {
		vm.metrics.Watchers.Sub(float64(n))
	}
}
