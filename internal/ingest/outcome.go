package ingest

import (
	"sync/atomic"
	"time"
)

// Outcome describes how one file left the pipeline.
type Outcome struct {
	ID          string
	RunID       string
	Path        string
	Name        string
	Size        int64
	Folder      string
	Destination string
	Category    string
	Confidence  float64
	Override    string
	State       State
	// Stage is the state in which a Failed outcome stopped.
	Stage State
	// Reason explains a Discarded outcome.
	Reason   string
	Err      error
	Warning  error
	Started  time.Time
	Duration time.Duration
}

// Moved reports whether the file reached its destination.
func (o Outcome) Moved() bool { return o.State == StateDone }

// Listener receives every Done and Failed outcome. Implementations must be
// safe for concurrent use and must not block for long.
type Listener interface {
	OnOutcome(Outcome)
}

// ListenerFunc adapts a function to Listener.
type ListenerFunc func(Outcome)

// OnOutcome calls f.
func (f ListenerFunc) OnOutcome(o Outcome) { f(o) }

// OutcomeQueue is a buffered channel Listener for front ends. Outcomes that
// arrive while the buffer is full are dropped and counted.
type OutcomeQueue struct {
	ch      chan Outcome
	dropped atomic.Int64
}

// NewOutcomeQueue returns a queue holding up to size outcomes.
func NewOutcomeQueue(size int) *OutcomeQueue {
	if size < 1 {
		size = 1
	}
	return &OutcomeQueue{ch: make(chan Outcome, size)}
}

// OnOutcome enqueues o without blocking.
func (q *OutcomeQueue) OnOutcome(o Outcome) {
	select {
	case q.ch <- o:
	default:
		q.dropped.Add(1)
	}
}

// Outcomes returns the receive side of the queue.
func (q *OutcomeQueue) Outcomes() <-chan Outcome { return q.ch }

// Dropped returns the number of outcomes discarded because the queue was full.
func (q *OutcomeQueue) Dropped() int64 { return q.dropped.Load() }
