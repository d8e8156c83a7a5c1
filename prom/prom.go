package prom

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/back2basic/linkcollector/logging"
	"github.com/back2basic/linkcollector/model"
	"github.com/back2basic/linkcollector/poller"
)

// Collector exports the latest link counters and the poll loop's activity.
type Collector struct {
	poller.NopObserver

	mu     sync.RWMutex
	latest []model.LinkStat

	tx *prometheus.Desc
	rx *prometheus.Desc

	cycles     prometheus.Counter
	dispatched *prometheus.CounterVec
	timeouts   *prometheus.CounterVec
	failures   *prometheus.CounterVec
	replies    *prometheus.CounterVec
	malformed  *prometheus.CounterVec
	unknown    *prometheus.CounterVec
	unmatched  *prometheus.CounterVec
}

func New() *Collector {
	perPrefix := func(name, help string) *prometheus.CounterVec {
		return prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "linkcollector",
			Name:      name,
			Help:      help,
		}, []string{"prefix"})
	}

	return &Collector{
		tx: prometheus.NewDesc(
			"linkcollector_link_tx",
			"Last reported transmit counter per link",
			[]string{"link_id", "prefix", "address"},
			nil,
		),
		rx: prometheus.NewDesc(
			"linkcollector_link_rx",
			"Last reported receive counter per link",
			[]string{"link_id", "prefix", "address"},
			nil,
		),
		cycles: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "linkcollector",
			Name:      "poll_cycles_total",
			Help:      "Completed poll cycles",
		}),
		dispatched: perPrefix("requests_total", "Requests dispatched"),
		timeouts:   perPrefix("request_timeouts_total", "Requests that expired without a reply"),
		failures:   perPrefix("request_failures_total", "Requests that failed in transport"),
		replies:    perPrefix("replies_total", "Replies applied to the registry"),
		malformed:  perPrefix("replies_malformed_total", "Replies dropped because they did not decode"),
		unknown:    perPrefix("replies_unknown_prefix_total", "Replies for prefixes that are not registered"),
		unmatched:  perPrefix("reply_entries_unmatched_total", "Reply entries with no link for their address"),
	}
}

// Register adds the collector and its counters to reg.
func (c *Collector) Register(reg prometheus.Registerer) error {
	for _, col := range []prometheus.Collector{
		c, c.cycles, c.dispatched, c.timeouts, c.failures,
		c.replies, c.malformed, c.unknown, c.unmatched,
	} {
		if err := reg.Register(col); err != nil {
			return err
		}
	}
	return nil
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.tx
	ch <- c.rx
}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	for _, l := range c.Latest() {
		if !l.Updated() {
			continue
		}
		id := strconv.Itoa(l.ID)
		ch <- prometheus.MustNewConstMetric(c.tx, prometheus.GaugeValue, float64(l.TxBytes), id, l.Prefix, l.Address)
		ch <- prometheus.MustNewConstMetric(c.rx, prometheus.GaugeValue, float64(l.RxBytes), id, l.Prefix, l.Address)
	}
}

// Latest returns the snapshot from the most recent flush.
func (c *Collector) Latest() []model.LinkStat {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.latest
}

func (c *Collector) CycleCompleted(int)         { c.cycles.Inc() }
func (c *Collector) RequestDispatched(p string) { c.dispatched.WithLabelValues(p).Inc() }
func (c *Collector) RequestTimedOut(p string)   { c.timeouts.WithLabelValues(p).Inc() }
func (c *Collector) RequestFailed(p string)     { c.failures.WithLabelValues(p).Inc() }
func (c *Collector) ReplyMalformed(p string)    { c.malformed.WithLabelValues(p).Inc() }
func (c *Collector) PrefixUnknown(p string)     { c.unknown.WithLabelValues(p).Inc() }

func (c *Collector) ReplyApplied(p string, entries, matched int) {
	c.replies.WithLabelValues(p).Inc()
	if miss := entries - matched; miss > 0 {
		c.unmatched.WithLabelValues(p).Add(float64(miss))
	}
}

func (c *Collector) Flushed(links []model.LinkStat) {
	c.mu.Lock()
	c.latest = links
	c.mu.Unlock()
}

// Serve exposes /metrics on addr until ctx is done.
func Serve(ctx context.Context, addr string, g prometheus.Gatherer, logger *zap.Logger) error {
	logger = logging.OrNop(logger)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(g, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	logger.Info("metrics listening", zap.String("addr", addr))

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
