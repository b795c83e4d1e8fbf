package view

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"

	"github.com/delaneyj/hue/reactive"
)

type segment struct {
	text    string
	watcher *reactive.Watcher
}

// Binding ties one text node to the watchers of its {{ }} markers. Static
// text around the markers is kept.
type Binding struct {
	view     *View
	node     *html.Node
	source   string
	segments []segment
}

func (b *Binding) Node() *html.Node {
	return b.node
}

// Source returns the original text including markers.
func (b *Binding) Source() string {
	return b.source
}

// Text returns the node's current text.
func (b *Binding) Text() string {
	return b.node.Data
}

// Expressions returns the trimmed marker paths in order.
func (b *Binding) Expressions() []string {
	var exps []string
	for _, s := range b.segments {
		if s.watcher != nil {
			exps = append(exps, s.watcher.Expression())
		}
	}
	return exps
}

func (b *Binding) Watchers() []*reactive.Watcher {
	var ws []*reactive.Watcher
	for _, s := range b.segments {
		if s.watcher != nil {
			ws = append(ws, s.watcher)
		}
	}
	return ws
}

func (b *Binding) update() {
	b.render()
	if b.view.onUpdate != nil {
		b.view.onUpdate(b)
	}
}

func (b *Binding) render() {
	var sb strings.Builder
	for _, s := range b.segments {
		if s.watcher == nil {
			sb.WriteString(s.text)
			continue
		}
		sb.WriteString(Format(s.watcher.Value()))
	}
	b.node.Data = sb.String()
}

func (b *Binding) dispose() {
	for _, s := range b.segments {
		if s.watcher != nil {
			s.watcher.Dispose()
		}
	}
}

// Format renders a bound value as text. nil renders empty and observed
// objects render as their plain map.
func Format(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case *reactive.Object:
		return fmt.Sprint(x.ToMap())
	default:
		return fmt.Sprint(x)
	}
}
