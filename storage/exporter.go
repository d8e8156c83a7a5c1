package storage

import (
	"context"
	"io"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/back2basic/linkcollector/logging"
	"github.com/back2basic/linkcollector/model"
)

// Sink receives periodic copies of the link table.
type Sink interface {
	Name() string
	Push(ctx context.Context, links []model.LinkStat) error
}

// Exporter pushes the most recent snapshot to slower sinks on its own
// interval, away from the poll loop.
type Exporter struct {
	clock    clock.Clock
	interval time.Duration
	sinks    []Sink
	pending  chan []model.LinkStat
	logger   *zap.Logger
}

func NewExporter(clk clock.Clock, interval time.Duration, sinks []Sink, logger *zap.Logger) *Exporter {
	if clk == nil {
		clk = clock.New()
	}
	return &Exporter{
		clock:    clk,
		interval: interval,
		sinks:    sinks,
		pending:  make(chan []model.LinkStat, 1),
		logger:   logging.OrNop(logger),
	}
}

// Offer hands over a snapshot without blocking. An unsent older snapshot is replaced.
// Offer must be called from a single goroutine.
func (e *Exporter) Offer(links []model.LinkStat) {
	select {
	case e.pending <- links:
		return
	default:
	}
	select {
	case <-e.pending:
	default:
	}
	select {
	case e.pending <- links:
	default:
	}
}

func (e *Exporter) Run(ctx context.Context) error {
	ticker := e.clock.Ticker(e.interval)
	defer ticker.Stop()

	var (
		current []model.LinkStat
		dirty   bool
	)
	for {
		select {
		case <-ctx.Done():
			return nil
		case links := <-e.pending:
			current, dirty = links, true
		case <-ticker.C:
			select {
			case links := <-e.pending:
				current, dirty = links, true
			default:
			}
			if !dirty {
				continue
			}
			e.push(ctx, current)
			dirty = false
		}
	}
}

func (e *Exporter) push(ctx context.Context, links []model.LinkStat) {
	for _, s := range e.sinks {
		if err := s.Push(ctx, links); err != nil {
			e.logger.Warn("export failed", zap.String("sink", s.Name()), zap.Error(err))
			continue
		}
		e.logger.Debug("exported links", zap.String("sink", s.Name()), zap.Int("links", len(links)))
	}
}

// Close closes every sink that holds resources.
func (e *Exporter) Close() error {
	var err error
	for _, s := range e.sinks {
		if c, ok := s.(io.Closer); ok {
			err = multierr.Append(err, c.Close())
		}
	}
	return err
}
