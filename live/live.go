package live

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"

	"github.com/back2basic/linkcollector/logging"
	"github.com/back2basic/linkcollector/model"
	"github.com/back2basic/linkcollector/storage"
)

// Live prints the stat file as a table on a fixed interval, the same view
// the map website gets.
type Live struct {
	path     string
	w        io.Writer
	interval time.Duration
	clock    clock.Clock
	logger   *zap.Logger
}

func New(path string, w io.Writer, interval time.Duration, clk clock.Clock, logger *zap.Logger) *Live {
	if clk == nil {
		clk = clock.New()
	}
	return &Live{
		path:     path,
		w:        w,
		interval: interval,
		clock:    clk,
		logger:   logging.OrNop(logger),
	}
}

func (l *Live) Run(ctx context.Context) error {
	ticker := l.clock.Ticker(l.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := l.PrintStats(); err != nil {
				l.logger.Debug("live: read stat file", zap.Error(err))
			}
		}
	}
}

func (l *Live) PrintStats() error {
	entries, err := storage.ReadStatFile(l.path)
	if err != nil {
		return err
	}

	fmt.Fprintln(l.w, "---- LIVE LINK TRAFFIC ----")
	for _, e := range entries {
		if e.Timestamp == model.UnsetTimestamp {
			fmt.Fprintf(l.w, "link %4d  no data yet\n", e.LinkID)
			continue
		}
		fmt.Fprintf(l.w, "link %4d  tx=%d  rx=%d  at %s\n", e.LinkID, e.TxBytes, e.RxBytes, e.Timestamp)
	}
	fmt.Fprintln(l.w, "---------------------------")
	return nil
}
