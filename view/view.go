// Package view binds {{ path }} text interpolations in an HTML tree to
// reactive watchers, rewriting text nodes in place as the data changes.
package view

import (
	"bytes"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/cespare/xxhash/v2"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/delaneyj/hue/reactive"
)

var marker = regexp.MustCompile(`\{\{(.*?)\}\}`)

// rawText lists the elements whose text html.Render writes unescaped.
var rawText = map[atom.Atom]bool{
	atom.Iframe:    true,
	atom.Noembed:   true,
	atom.Noframes:  true,
	atom.Noscript:  true,
	atom.Plaintext: true,
	atom.Script:    true,
	atom.Style:     true,
	atom.Xmp:       true,
}

// UpdateHook is called after a binding rewrites its text node.
type UpdateHook func(b *Binding)

type Option func(*View)

// WithUpdateHook registers fn to run after every binding update.
func WithUpdateHook(fn UpdateHook) Option {
	return func(v *View) {
		v.onUpdate = fn
	}
}

// WithWatcherOptions passes opts to every watcher the view creates.
func WithWatcherOptions(opts ...reactive.WatcherOption) Option {
	return func(v *View) {
		v.watcherOpts = append(v.watcherOpts, opts...)
	}
}

// View is a compiled HTML tree whose text nodes follow a reactive context.
type View struct {
	root     *html.Node
	ctx      any
	bindings []*Binding
	onUpdate UpdateHook

	watcherOpts []reactive.WatcherOption

	lastHash uint64
	rendered bool
}

// Parse parses src as an HTML body fragment and compiles it against ctx.
func Parse(src string, ctx any, opts ...Option) (*View, error) {
	nodes, err := html.ParseFragment(strings.NewReader(src), &html.Node{
		Type:     html.ElementNode,
		Data:     "body",
		DataAtom: atom.Body,
	})
	if err != nil {
		return nil, fmt.Errorf("parse template: %w", err)
	}

	root := &html.Node{Type: html.DocumentNode}
	for _, n := range nodes {
		root.AppendChild(n)
	}
	return Compile(root, ctx, opts...)
}

// Compile walks root and binds every text node holding a {{ }} marker. Each
// marker becomes one watcher over ctx. Elements are only descended into;
// raw text elements such as script, style and noscript are left as they are.
//
// A marker whose expression is not a valid path fails the whole compile with
// reactive.ErrInvalidExpressionPath.
func Compile(root *html.Node, ctx any, opts ...Option) (*View, error) {
	v := &View{root: root, ctx: ctx}
	for _, opt := range opts {
		opt(v)
	}

	if err := v.compileElement(root); err != nil {
		v.Dispose()
		return nil, err
	}
	return v, nil
}

func (v *View) compileElement(n *html.Node) error {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		switch c.Type {
		case html.ElementNode:
			if rawText[c.DataAtom] {
				continue
			}
		case html.TextNode:
			if marker.MatchString(c.Data) {
				if err := v.compileText(c); err != nil {
					return err
				}
			}
		}

		if c.FirstChild != nil {
			if err := v.compileElement(c); err != nil {
				return err
			}
		}
	}
	return nil
}

func (v *View) compileText(n *html.Node) error {
	b := &Binding{node: n, source: n.Data, view: v}

	text := n.Data
	last := 0
	for _, loc := range marker.FindAllStringSubmatchIndex(text, -1) {
		if loc[0] > last {
			b.segments = append(b.segments, segment{text: text[last:loc[0]]})
		}
		exp := text[loc[2]:loc[3]]
		w, err := reactive.NewWatcher(v.ctx, exp, func(any, any, any) {
			b.update()
		}, v.watcherOpts...)
		if err != nil {
			b.dispose()
			return fmt.Errorf("bind %q: %w", strings.TrimSpace(text), err)
		}
		b.segments = append(b.segments, segment{watcher: w})
		last = loc[1]
	}
	if last < len(text) {
		b.segments = append(b.segments, segment{text: text[last:]})
	}

	b.render()
	v.bindings = append(v.bindings, b)
	return nil
}

// Root returns the compiled tree.
func (v *View) Root() *html.Node {
	return v.root
}

func (v *View) Bindings() []*Binding {
	return v.bindings
}

// Render writes the current tree as HTML.
func (v *View) Render(w io.Writer) error {
	return html.Render(w, v.root)
}

// HTML returns the current tree as an HTML string.
func (v *View) HTML() (string, error) {
	var buf bytes.Buffer
	if err := v.Render(&buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Changed renders the tree and reports whether the output differs from the
// previous call to Changed. The first call always reports a change.
func (v *View) Changed() (out string, changed bool, err error) {
	out, err = v.HTML()
	if err != nil {
		return "", false, err
	}
	sum := xxhash.Sum64String(out)
	changed = !v.rendered || sum != v.lastHash
	v.lastHash, v.rendered = sum, true
	return out, changed, nil
}

// Dispose detaches every binding watcher. Text nodes keep their last content.
func (v *View) Dispose() {
	for _, b := range v.bindings {
		b.dispose()
	}
	v.bindings = nil
}
