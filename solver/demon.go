package solver

// Demon is a reaction attached to variable events. When an event fires the
// demon is enqueued; the propagation loop runs it. A demon whose stamp
// equals the queue's current stamp is already queued and is not queued
// again.
type Demon struct {
	run       func(*Solver)
	priority  Priority
	stamp     uint64
	inhibited bool // reversible; set through Inhibit
	name      string
}

// NewDemon builds a normal-priority demon running fn.
func NewDemon(name string, fn func(*Solver)) *Demon {
	return NewDemonWithPriority(name, fn, NormalPriority)
}

// NewDemonWithPriority builds a demon with an explicit priority.
// Panics on a nil fn or an unknown priority (programmer error).
func NewDemonWithPriority(name string, fn func(*Solver), p Priority) *Demon {
	if fn == nil {
		panic("solver: nil demon body")
	}
	if p < DelayedPriority || p > NormalPriority {
		panic("solver: unknown demon priority")
	}

	return &Demon{run: fn, priority: p, name: name}
}

// Priority returns the demon's queue priority.
func (d *Demon) Priority() Priority { return d.priority }

// String returns the demon's name for tracing.
func (d *Demon) String() string {
	if d.name == "" {
		return "Demon"
	}

	return d.name
}

// Inhibit reversibly silences the demon: enqueue becomes a no-op until the
// level is undone or Desinhibit runs.
func (d *Demon) Inhibit(s *Solver) {
	if !d.inhibited {
		s.SaveAndSetBool(&d.inhibited, true)
	}
}

// Desinhibit reversibly re-enables an inhibited demon.
func (d *Demon) Desinhibit(s *Solver) {
	if d.inhibited {
		s.SaveAndSetBool(&d.inhibited, false)
		// Drop out of the current stamp period so the next event enqueues.
		d.stamp = 0
	}
}

// EnqueueDemon queues d for execution, idempotently within the current
// stamp period. Exposed for constraints that fire demons directly.
func (s *Solver) EnqueueDemon(d *Demon) { s.queue.enqueue(d) }

// SetActionOnFail installs a one-shot action run when the next failure
// clears the propagation queue. Constraints use it to reset transient
// buffers that must not survive an unwind.
func (s *Solver) SetActionOnFail(fn func(*Solver)) { s.queue.setActionOnFail(fn) }

// ClearActionOnFail removes the pending action-on-fail.
func (s *Solver) ClearActionOnFail() { s.queue.clearActionOnFail() }

// FreezeQueue suppresses demon processing until the matching UnfreezeQueue,
// batching the work raised in between. Freezes nest.
func (s *Solver) FreezeQueue() { s.queue.freeze() }

// UnfreezeQueue undoes one FreezeQueue; the queue drains when the last
// freeze lifts.
func (s *Solver) UnfreezeQueue() { s.queue.unfreeze() }
