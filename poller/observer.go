package poller

import "github.com/back2basic/linkcollector/model"

// Observer is told about everything the loop does. Calls are made on the
// loop goroutine and must not block.
type Observer interface {
	CycleCompleted(prefixes int)
	RequestDispatched(prefix string)
	RequestTimedOut(prefix string)
	RequestFailed(prefix string)
	ReplyApplied(prefix string, entries, matched int)
	ReplyMalformed(prefix string)
	PrefixUnknown(prefix string)
	Flushed(links []model.LinkStat)
}

// NopObserver ignores every event. Embed it to implement part of Observer.
type NopObserver struct{}

func (NopObserver) CycleCompleted(int)            {}
func (NopObserver) RequestDispatched(string)      {}
func (NopObserver) RequestTimedOut(string)        {}
func (NopObserver) RequestFailed(string)          {}
func (NopObserver) ReplyApplied(string, int, int) {}
func (NopObserver) ReplyMalformed(string)         {}
func (NopObserver) PrefixUnknown(string)          {}
func (NopObserver) Flushed([]model.LinkStat)      {}

// Observers fans every event out in order.
type Observers []Observer

func (o Observers) CycleCompleted(n int) {
	for _, x := range o {
		x.CycleCompleted(n)
	}
}

func (o Observers) RequestDispatched(p string) {
	for _, x := range o {
		x.RequestDispatched(p)
	}
}

func (o Observers) RequestTimedOut(p string) {
	for _, x := range o {
		x.RequestTimedOut(p)
	}
}

func (o Observers) RequestFailed(p string) {
	for _, x := range o {
		x.RequestFailed(p)
	}
}

func (o Observers) ReplyApplied(p string, entries, matched int) {
	for _, x := range o {
		x.ReplyApplied(p, entries, matched)
	}
}

func (o Observers) ReplyMalformed(p string) {
	for _, x := range o {
		x.ReplyMalformed(p)
	}
}

func (o Observers) PrefixUnknown(p string) {
	for _, x := range o {
		x.PrefixUnknown(p)
	}
}

func (o Observers) Flushed(links []model.LinkStat) {
	for _, x := range o {
		x.Flushed(links)
	}
}

type flushObserver struct {
	NopObserver
	fn func([]model.LinkStat)
}

func (f flushObserver) Flushed(links []model.LinkStat) { f.fn(links) }

// OnFlush adapts fn into an Observer that only sees flushes.
func OnFlush(fn func([]model.LinkStat)) Observer {
	return flushObserver{fn: fn}
}
