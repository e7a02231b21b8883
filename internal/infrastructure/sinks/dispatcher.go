package sinks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"NewsDesk/internal/domain"
	"NewsDesk/internal/metrics"
	"NewsDesk/internal/ports"
)

const (
	defaultDispatchTimeout = 10 * time.Second
	maxParallelDeliveries  = 4
)

// Dispatcher mirrors published articles to every configured sink in the background.
type Dispatcher struct {
	sinks   []Sink
	timeout time.Duration
	logger  *slog.Logger
	wg      sync.WaitGroup
}

var _ ports.EventMirror = (*Dispatcher)(nil)

// NewDispatcher wires sinks. A zero timeout falls back to ten seconds per dispatch.
func NewDispatcher(sinks []Sink, timeout time.Duration, logger *slog.Logger) *Dispatcher {
	if timeout <= 0 {
		timeout = defaultDispatchTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{sinks: sinks, timeout: timeout, logger: logger}
}

// Mirror schedules delivery and returns immediately. Failures are logged only.
func (d *Dispatcher) Mirror(ctx context.Context, evt domain.PublishedEvent) {
	if len(d.sinks) == 0 {
		return
	}

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()

		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.timeout)
		defer cancel()

		if err := d.dispatch(ctx, evt); err != nil {
			d.logger.Warn("mirror incomplete", "article_id", evt.ArticleID, "error", err)
		}
	}()
}

// Wait blocks until every scheduled dispatch has finished.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// Close waits for pending dispatches and then closes every sink that holds resources.
func (d *Dispatcher) Close() error {
	d.wg.Wait()

	var errs []error
	for _, s := range d.sinks {
		c, ok := s.(io.Closer)
		if !ok {
			continue
		}
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close sink %s: %w", s.ID(), err))
		}
	}
	return errors.Join(errs...)
}

func (d *Dispatcher) dispatch(ctx context.Context, evt domain.PublishedEvent) error {
	var g errgroup.Group
	g.SetLimit(maxParallelDeliveries)

	for _, s := range d.sinks {
		g.Go(func() error {
			if err := s.Deliver(ctx, evt); err != nil {
				metrics.SinkDeliveries.WithLabelValues(s.ID(), "failed").Inc()
				d.logger.Error("sink delivery failed", "sink", s.ID(), "type", s.Type(), "article_id", evt.ArticleID, "error", err)
				return fmt.Errorf("sink %s: %w", s.ID(), err)
			}
			metrics.SinkDeliveries.WithLabelValues(s.ID(), "delivered").Inc()
			return nil
		})
	}
	return g.Wait()
}

func marshalEvent(evt domain.PublishedEvent) ([]byte, error) {
	payload, err := json.Marshal(evt)
	if err != nil {
		return nil, fmt.Errorf("marshal event: %w", err)
	}
	return payload, nil
}
