package sinks

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"NewsDesk/internal/domain"
)

// Sink delivers published-article events to one external system.
// Sinks holding client resources also implement io.Closer.
type Sink interface {
	ID() string
	Type() string
	Deliver(ctx context.Context, evt domain.PublishedEvent) error
}

// Builder creates a Sink from its config entry.
type Builder func(ctx context.Context, cfg Config, logger *slog.Logger) (Sink, error)

// Registry maps sink types to builders.
type Registry struct {
	mu       sync.RWMutex
	builders map[string]Builder
}

// NewRegistry returns a registry with the given builders pre-registered.
func NewRegistry(builders map[string]Builder) *Registry {
	r := &Registry{builders: make(map[string]Builder)}
	for typ, b := range builders {
		r.Register(typ, b)
	}
	return r
}

// DefaultRegistry knows every built-in sink type.
func DefaultRegistry() *Registry {
	return NewRegistry(map[string]Builder{
		TypeHTTP:     newHTTPSink,
		TypeQueue:    newQueueSink,
		TypeTelegram: newTelegramSink,
	})
}

// Register associates a builder with a sink type.
func (r *Registry) Register(typ string, builder Builder) {
	if typ = strings.ToLower(strings.TrimSpace(typ)); typ == "" || builder == nil {
		return
	}
	r.mu.Lock()
	r.builders[typ] = builder
	r.mu.Unlock()
}

// SinkFor builds the sink described by cfg.
func (r *Registry) SinkFor(ctx context.Context, cfg Config, logger *slog.Logger) (Sink, error) {
	r.mu.RLock()
	builder := r.builders[strings.ToLower(cfg.Type)]
	r.mu.RUnlock()

	if builder == nil {
		return nil, fmt.Errorf("no sink registered for type %q", cfg.Type)
	}
	return builder(ctx, cfg, logger)
}

// BuildAll instantiates every configured sink.
func (r *Registry) BuildAll(ctx context.Context, cfgs []Config, logger *slog.Logger) ([]Sink, error) {
	out := make([]Sink, 0, len(cfgs))
	for _, cfg := range cfgs {
		s, err := r.SinkFor(ctx, cfg, logger.With("sink", cfg.ID))
		if err != nil {
			return nil, fmt.Errorf("build sink %q: %w", cfg.ID, err)
		}
		out = append(out, s)
	}
	return out, nil
}
