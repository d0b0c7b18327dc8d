package coroo

import "sync"

// DefaultStackSize is the built-in value of Config.DefaultStackSize (see
// config.go). Spawn does not read it: every Spawn call, package-level or
// on a Runtime, takes an explicit stack size.
const DefaultStackSize = 64 * 1024

// Stats reports scheduler activity counters, useful for the demo harness
// and for tests asserting on fiber-count invariants.
type Stats struct {
	Spawned  int64
	Exited   int64
	Reaped   int64
	Switches int64
}

// Runtime holds one scheduler's worth of process state: the main fiber,
// the current-fiber pointer, and the ready/waiting/dead lists.
// Stack-direction discovery remains process-wide (see stack.go) since it
// is a hardware fact, not per-instance state.
type Runtime struct {
	main    *Fiber
	current *Fiber

	ready   list
	waiting list
	dead    list

	scratch pollScratch

	stats Stats
}

// New constructs and initializes a Runtime. Most callers use the
// package-level functions (Init, Spawn, Yield, ...), which operate on a
// lazily constructed default Runtime; New exists for callers who want an
// explicit, independent instance.
func New() *Runtime {
	r := &Runtime{}
	initList(&r.ready)
	initList(&r.waiting)
	initList(&r.dead)

	r.main = &Fiber{resume: make(chan struct{}), pollExpiration: -1}
	r.current = r.main
	return r
}

// Spawn creates a new fiber with the given stack size, pushes the calling
// fiber onto the back of the ready list (so it keeps its FIFO place), and
// switches into the new fiber. Spawn does not return to
// its caller until the scheduler cycles back around to it — which, for a
// freshly spawned fiber that runs to completion or blocks without
// yielding, may happen immediately, and otherwise happens once every
// other ready fiber (including the new one, if it yields) has had a turn.
// Both the spawner and the new fiber are runnable at that point.
func (r *Runtime) Spawn(stackSize int, entry func(any), arg any) *Fiber {
	stack := newStack(stackSize)
	f := newFiber(entry, arg, stack)
	r.stats.Spawned++

	r.startFiberGoroutine(f)

	r.ready.pushBack(&r.current.link, r.current)
	r.contextSwitch(f)
	return f
}

// Yield re-queues the current fiber at the back of ready and runs the
// next ready fiber.
func (r *Runtime) Yield() {
	r.ready.pushBack(&r.current.link, r.current)
	r.runNext()
}

// Exit terminates the current fiber and runs the next ready fiber. It
// never returns: the current fiber's goroutine is left permanently parked
// on its own resume channel once its dead-list entry has been reaped.
func (r *Runtime) Exit() {
	r.dead.pushBack(&r.current.link, r.current)
	r.stats.Exited++
	r.runNext()
	panic("coroo: exited fiber resumed")
}

// runNext pops the head of the ready list and switches to it, invoking
// the readiness multiplexer first if ready is empty. If the head is the
// current fiber itself (possible right after it was just re-queued with
// nothing else runnable), it returns without switching.
func (r *Runtime) runNext() {
	for r.ready.empty() {
		r.waitForEvents()
	}
	next := r.ready.popFront().self.(*Fiber)
	if next == r.current {
		return
	}
	r.stats.Switches++
	r.contextSwitch(next)
}

// reapDead frees the stacks and records of every fiber on the dead list.
// Called after every non-trivial context switch, from the fiber that has
// just become current again — never from a fiber reaping itself.
func (r *Runtime) reapDead() {
	for !r.dead.empty() {
		f := r.dead.popFront().self.(*Fiber)
		if f == r.main {
			continue // must never happen; the main fiber is never exited
		}
		if f.stack != nil {
			f.stack.release()
		}
		r.stats.Reaped++
	}
}

// Stats returns a snapshot of scheduler activity counters.
func (r *Runtime) Stats() Stats { return r.stats }

// Current returns the fiber currently executing on this runtime.
func (r *Runtime) Current() *Fiber { return r.current }

var (
	defaultRuntime     *Runtime
	defaultRuntimeOnce sync.Once
)

// Init is idempotent: it discovers the stack direction, initializes the
// scheduler's queues, and registers the main fiber, by constructing the
// package-level default Runtime on first call. Subsequent calls are
// no-ops.
func Init() {
	defaultRuntimeOnce.Do(func() {
		determineStackDirection()
		defaultRuntime = New()
	})
}

func defaultRT() *Runtime {
	Init()
	return defaultRuntime
}

// Spawn creates a fiber on the default Runtime. See (*Runtime).Spawn.
func Spawn(stackSize int, entry func(any), arg any) *Fiber {
	return defaultRT().Spawn(stackSize, entry, arg)
}

// Yield re-queues the current fiber on the default Runtime and runs the
// next one.
func Yield() { defaultRT().Yield() }

// Exit terminates the current fiber on the default Runtime. Never returns.
func Exit() { defaultRT().Exit() }
