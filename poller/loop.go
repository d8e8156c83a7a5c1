package poller

import (
	"context"
	"fmt"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/back2basic/linkcollector/logging"
	"github.com/back2basic/linkcollector/model"
	"github.com/back2basic/linkcollector/registry"
	"github.com/back2basic/linkcollector/transport"
)

const (
	DefaultWarmup  = 100 * time.Millisecond
	DefaultPeriod  = time.Second
	DefaultTimeout = 500 * time.Millisecond
)

// ErrMalformedReply wraps reply payloads that could not be decoded.
var ErrMalformedReply = errors.New("malformed reply")

// Store persists the full link table.
type Store interface {
	Write(links []model.LinkStat) error
}

type Config struct {
	Warmup  time.Duration
	Period  time.Duration
	Timeout time.Duration
	Unit    model.CounterUnit
	Verbose bool
}

func (c *Config) setDefaults() {
	if c.Warmup <= 0 {
		c.Warmup = DefaultWarmup
	}
	if c.Period <= 0 {
		c.Period = DefaultPeriod
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
}

type Option func(*Loop)

func WithClock(c clock.Clock) Option {
	return func(l *Loop) { l.clock = c }
}

func WithObserver(o Observer) Option {
	return func(l *Loop) { l.observer = o }
}

func WithLogger(logger *zap.Logger) Option {
	return func(l *Loop) { l.logger = logger }
}

// result is a reply or failure for one dispatched request.
type result struct {
	req     model.Request
	payload []byte
	err     error
	panic   interface{}
}

// Loop is the collector's event loop. One goroutine owns the registry and
// handles cycle ticks, request results and shutdown in turn, so nothing
// it touches needs locking.
type Loop struct {
	reg       *registry.Registry
	transport transport.Transport
	store     Store
	cfg       Config

	clock    clock.Clock
	observer Observer
	logger   *zap.Logger

	sched   *Scheduler
	corr    *Correlator
	results chan result
	done    chan struct{}
}

func New(reg *registry.Registry, tr transport.Transport, store Store, cfg Config, opts ...Option) *Loop {
	cfg.setDefaults()
	l := &Loop{
		reg:       reg,
		transport: tr,
		store:     store,
		cfg:       cfg,
		results:   make(chan result),
		done:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.clock == nil {
		l.clock = clock.New()
	}
	if l.observer == nil {
		l.observer = NopObserver{}
	}
	l.logger = logging.OrNop(l.logger)
	l.sched = NewScheduler(l.clock, cfg.Warmup, cfg.Period)
	l.corr = NewCorrelator(reg, cfg.Unit, cfg.Verbose, l.logger)
	return l
}

// Start schedules the first poll cycle after the warm-up delay.
func (l *Loop) Start() {
	l.sched.Start()
}

// Run processes events until ctx is cancelled. Requests still in flight are
// abandoned; their results are dropped. A panic in a handler ends the loop
// with an error.
func (l *Loop) Run(ctx context.Context) (err error) {
	defer close(l.done)
	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("poll loop: %v", r)
			l.logger.Error("poll loop stopped", zap.Error(err))
		}
	}()

	l.Start()
	defer l.sched.Stop()

	for {
		select {
		case <-ctx.Done():
			l.logger.Info("stopping poll loop", zap.Int("cycles", l.sched.Cycles()))
			return nil
		case <-l.sched.C():
			n := l.dispatch(ctx)
			l.sched.reschedule()
			l.observer.CycleCompleted(n)
		case res := <-l.results:
			l.handle(res)
		}
	}
}

// dispatch sends one request per prefix and returns how many were sent.
func (l *Loop) dispatch(ctx context.Context) int {
	l.sched.begin()
	reqs := BuildRequests(l.reg)
	if l.cfg.Verbose {
		l.logger.Debug("about to send requests", zap.Int("prefixes", len(reqs)))
	}
	for _, req := range reqs {
		rctx, cancel := l.clock.WithTimeout(ctx, l.cfg.Timeout)
		go l.fetch(rctx, cancel, req)
		l.observer.RequestDispatched(req.Prefix)
		if l.cfg.Verbose {
			l.logger.Debug("sent", zap.String("name", req.Name()))
		}
	}
	return len(reqs)
}

// fetch runs off the loop and hands the outcome back to it. ctx carries the
// request lifetime.
func (l *Loop) fetch(ctx context.Context, cancel context.CancelFunc, req model.Request) {
	defer cancel()

	res := result{req: req}
	func() {
		defer func() {
			if r := recover(); r != nil {
				res.panic = r
			}
		}()
		res.payload, res.err = l.transport.Fetch(ctx, req)
	}()
	if res.err != nil && ctx.Err() == context.DeadlineExceeded {
		res.err = errors.Wrap(transport.ErrTimeout, res.err.Error())
	}

	select {
	case l.results <- res:
	case <-l.done:
	}
}

func (l *Loop) handle(res result) {
	if res.panic != nil {
		panic(fmt.Sprintf("fetch %s: %v", res.req.Name(), res.panic))
	}
	prefix := res.req.Prefix
	if res.err != nil {
		if transport.IsTimeout(res.err) {
			l.logger.Info("request timed out", zap.String("name", res.req.Name()))
			l.observer.RequestTimedOut(prefix)
			return
		}
		l.logger.Warn("request failed", zap.String("name", res.req.Name()), zap.Error(res.err))
		l.observer.RequestFailed(prefix)
		return
	}

	reply, err := transport.DecodeReply(res.payload)
	if err != nil {
		l.logger.Warn("dropping reply",
			zap.String("name", res.req.Name()),
			zap.Error(errors.Wrap(ErrMalformedReply, err.Error())),
		)
		l.observer.ReplyMalformed(prefix)
		return
	}
	l.logger.Info("data received", zap.String("name", res.req.Name()), zap.Int("entries", len(reply.Links)))

	l.apply(prefix, reply)
	l.flush()
}

func (l *Loop) apply(prefix string, reply model.Reply) {
	if len(reply.Links) == 0 {
		l.logger.Warn("received data is empty", zap.String("prefix", prefix))
	}

	matched, err := l.corr.Apply(prefix, reply)
	if errors.Is(err, registry.ErrPrefixNotFound) {
		l.logger.Error("failed to recognize the prefix", zap.String("prefix", prefix))
		l.observer.PrefixUnknown(prefix)
		return
	}
	l.observer.ReplyApplied(prefix, len(reply.Links), matched)
}

// flush rewrites the store from the current registry. A failed write is
// logged and the next flush tries again.
func (l *Loop) flush() {
	links := l.reg.Snapshot()
	if err := l.store.Write(links); err != nil {
		l.logger.Warn("flush failed", zap.Error(err))
		return
	}
	l.observer.Flushed(links)
}
