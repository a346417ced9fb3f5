package solver

// fifo is a simple ring-free FIFO of demons: a slice with a head index,
// compacted when fully drained.
type fifo struct {
	items []*Demon
	head  int
}

func (f *fifo) empty() bool { return f.head >= len(f.items) }

func (f *fifo) push(d *Demon) { f.items = append(f.items, d) }

func (f *fifo) pop() *Demon {
	if f.empty() {
		return nil
	}
	d := f.items[f.head]
	f.items[f.head] = nil
	f.head++
	if f.empty() {
		f.items = f.items[:0]
		f.head = 0
	}

	return d
}

func (f *fifo) clear() {
	for i := f.head; i < len(f.items); i++ {
		f.items[i] = nil
	}
	f.items = f.items[:0]
	f.head = 0
}

// queue drives demon execution: three independent FIFOs keyed by priority,
// a global stamp making enqueues idempotent within a stamp period, a freeze
// counter batching work, and the deferred-constraint list for additions
// made during search.
type queue struct {
	solver      *Solver
	containers  [numPriorities]fifo
	stamp       uint64
	freezeLevel int
	inProcess   bool
	clearAction func(*Solver)

	toAdd []Constraint
	inAdd bool
}

func newQueue(s *Solver) *queue {
	return &queue{solver: s, stamp: 1}
}

func (q *queue) increaseStamp() { q.stamp++ }

// freeze suppresses processing until the matching unfreeze.
func (q *queue) freeze() {
	q.freezeLevel++
	q.stamp++
}

// unfreeze decrements the freeze counter and drains when it reaches zero.
func (q *queue) unfreeze() {
	q.freezeLevel--
	q.processIfUnfrozen()
}

// enqueue queues d unless it already is under the current stamp.
func (q *queue) enqueue(d *Demon) {
	if d.inhibited || d.stamp >= q.stamp {
		return
	}
	d.stamp = q.stamp
	q.containers[d.priority].push(d)
	q.processIfUnfrozen()
}

func (q *queue) processIfUnfrozen() {
	if q.freezeLevel == 0 {
		q.process()
	}
}

// processOne runs the next demon of the given priority, if any.
func (q *queue) processOne(p Priority) {
	d := q.containers[p].pop()
	if d == nil {
		return
	}
	d.stamp = q.stamp - 1
	q.solver.demonRuns[p]++
	d.run(q.solver)
}

// process drains the queues in the priority staircase: all normal demons,
// then one var demon, repeating until both are empty; then one delayed
// demon, repeating the whole dance. Re-entrant calls are no-ops.
func (q *queue) process() {
	if q.inProcess {
		return
	}
	q.inProcess = true
	defer func() { q.inProcess = false }()

	for !q.containers[VarPriority].empty() ||
		!q.containers[NormalPriority].empty() ||
		!q.containers[DelayedPriority].empty() {
		for !q.containers[VarPriority].empty() || !q.containers[NormalPriority].empty() {
			for !q.containers[NormalPriority].empty() {
				if q.solver.topSearch().shouldFinish {
					q.solver.Fail()
				}
				q.processOne(NormalPriority)
			}
			q.processOne(VarPriority)
		}
		q.processOne(DelayedPriority)
	}
}

// afterFailure empties every queue, runs the one-shot clear action if set,
// and resets the freeze and re-entrancy guards.
func (q *queue) afterFailure() {
	for i := range q.containers {
		q.containers[i].clear()
	}
	if q.clearAction != nil {
		action := q.clearAction
		q.clearAction = nil
		action(q.solver)
	}
	q.freezeLevel = 0
	q.inProcess = false
	q.inAdd = false
	q.toAdd = q.toAdd[:0]
}

// setActionOnFail installs a one-shot action run by the next afterFailure.
func (q *queue) setActionOnFail(fn func(*Solver)) { q.clearAction = fn }

func (q *queue) clearActionOnFail() { q.clearAction = nil }

// addConstraint defers posting of c; deferred constraints are processed in
// FIFO order and may themselves add more.
func (q *queue) addConstraint(c Constraint) {
	q.toAdd = append(q.toAdd, c)
	q.processDeferred()
}

func (q *queue) processDeferred() {
	if q.inAdd {
		return
	}
	q.inAdd = true
	// Do not cache the length: posted constraints can add further ones.
	for i := 0; i < len(q.toAdd); i++ {
		PostAndPropagate(q.solver, q.toAdd[i])
	}
	q.inAdd = false
	q.toAdd = q.toAdd[:0]
}
