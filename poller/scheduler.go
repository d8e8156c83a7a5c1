package poller

import (
	"time"

	"github.com/benbjohnson/clock"

	"github.com/back2basic/linkcollector/model"
	"github.com/back2basic/linkcollector/registry"
)

// State is the scheduler's position in a poll cycle.
type State int

const (
	Idle State = iota
	Dispatching
)

func (s State) String() string {
	if s == Dispatching {
		return "dispatching"
	}
	return "idle"
}

// Scheduler arms the timer that starts each poll cycle: once after the
// warm-up delay, then one period after every cycle's dispatch.
type Scheduler struct {
	clock  clock.Clock
	warmup time.Duration
	period time.Duration
	timer  *clock.Timer
	state  State
	cycles int
}

func NewScheduler(clk clock.Clock, warmup, period time.Duration) *Scheduler {
	return &Scheduler{clock: clk, warmup: warmup, period: period}
}

// Start arms the first cycle. Calling it again has no effect.
func (s *Scheduler) Start() {
	if s.timer != nil {
		return
	}
	s.timer = s.clock.Timer(s.warmup)
}

func (s *Scheduler) Started() bool { return s.timer != nil }

// C fires when the next cycle is due.
func (s *Scheduler) C() <-chan time.Time {
	return s.timer.C
}

func (s *Scheduler) begin() {
	s.state = Dispatching
}

// reschedule arms the next cycle one period from now and returns to Idle.
func (s *Scheduler) reschedule() {
	s.timer.Reset(s.period)
	s.state = Idle
	s.cycles++
}

func (s *Scheduler) Stop() {
	if s.timer != nil {
		s.timer.Stop()
	}
}

func (s *Scheduler) State() State { return s.state }

// Cycles is the number of completed dispatch cycles.
func (s *Scheduler) Cycles() int { return s.cycles }

// BuildRequests makes one request per prefix naming all of its addresses.
func BuildRequests(reg *registry.Registry) []model.Request {
	groups := reg.Groups()
	out := make([]model.Request, 0, len(groups))
	for _, g := range groups {
		out = append(out, model.Request{Prefix: g.Prefix, Addresses: g.Addresses()})
	}
	return out
}
