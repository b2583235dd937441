package publishers

import (
	"context"
	"fmt"
	"sync"
)

// Builder constructs a Publisher from its configuration.
type Builder func(ctx context.Context, cfg PublisherConfig, log Logger) (Publisher, error)

// Registry maps publisher kinds to their builders.
type Registry struct {
	mu       sync.RWMutex
	builders map[string]Builder
}

func NewRegistry() *Registry {
	return &Registry{builders: make(map[string]Builder)}
}

func (r *Registry) Register(kind string, b Builder) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.builders[kind] = b
}

func (r *Registry) BuilderFor(kind string) (Builder, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.builders[kind]
	if !ok {
		return nil, fmt.Errorf("no publisher builder registered for kind %q", kind)
	}
	return b, nil
}

// DefaultRegistry returns a registry with every built-in publisher kind.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(KindHTTP, NewHTTPPublisherFromConfig)
	r.Register(KindSQS, NewSQSPublisherFromConfig)
	r.Register(KindSNS, NewSNSPublisherFromConfig)
	r.Register(KindPubSub, NewPubSubPublisherFromConfig)
	return r
}

// BuildAll constructs every enabled publisher in cfgs. A single bad
// config fails the whole build so misconfiguration is caught at startup.
func BuildAll(ctx context.Context, reg *Registry, cfgs []PublisherConfig, log Logger) ([]Publisher, error) {
	var pubs []Publisher
	for _, cfg := range cfgs {
		if !cfg.Enabled {
			log.Debugf("publisher %s is disabled, skipping", cfg.Name)
			continue
		}
		b, err := reg.BuilderFor(cfg.Kind)
		if err != nil {
			closeAll(pubs)
			return nil, err
		}
		p, err := b(ctx, cfg, log)
		if err != nil {
			closeAll(pubs)
			return nil, fmt.Errorf("building publisher %s: %w", cfg.Name, err)
		}
		pubs = append(pubs, p)
	}
	return pubs, nil
}

func closeAll(pubs []Publisher) {
	for _, p := range pubs {
		_ = p.Close()
	}
}
