// Package metrics exposes prometheus collectors for a hue VM.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Config configures the collectors.
type Config struct {
	// Namespace prefixes every metric name (default: "hue").
	Namespace string

	// ConstLabels are added to every metric.
	ConstLabels prometheus.Labels

	// Registry receives the collectors (default: prometheus.DefaultRegisterer).
	Registry prometheus.Registerer
}

type Option func(*Config)

func WithNamespace(namespace string) Option {
	return func(c *Config) {
		c.Namespace = namespace
	}
}

func WithConstLabels(labels prometheus.Labels) Option {
	return func(c *Config) {
		c.ConstLabels = labels
	}
}

func WithRegistry(registry prometheus.Registerer) Option {
	return func(c *Config) {
		c.Registry = registry
	}
}

// Collector counts watcher activity and renders.
type Collector struct {
	WatcherRuns prometheus.Counter
	Callbacks   prometheus.Counter
	Renders     prometheus.Counter
	Watchers    prometheus.Gauge
}

// New creates the collectors and registers them.
func New(opts ...Option) (*Collector, error) {
	cfg := Config{
		Namespace: "hue",
		Registry:  prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	c := &Collector{
		WatcherRuns: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   cfg.Namespace,
			Name:        "watcher_runs_total",
			Help:        "Watcher re-evaluations triggered by a dependency change.",
			ConstLabels: cfg.ConstLabels,
		}),
		Callbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   cfg.Namespace,
			Name:        "callbacks_total",
			Help:        "Watcher callbacks fired because the computed value changed.",
			ConstLabels: cfg.ConstLabels,
		}),
		Renders: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   cfg.Namespace,
			Name:        "renders_total",
			Help:        "Text nodes rewritten by view bindings.",
			ConstLabels: cfg.ConstLabels,
		}),
		Watchers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   cfg.Namespace,
			Name:        "watchers",
			Help:        "Live watchers.",
			ConstLabels: cfg.ConstLabels,
		}),
	}

	if cfg.Registry != nil {
		for _, col := range []prometheus.Collector{c.WatcherRuns, c.Callbacks, c.Renders, c.Watchers} {
			if err := cfg.Registry.Register(col); err != nil {
				return nil, err
			}
		}
	}
	return c, nil
}
