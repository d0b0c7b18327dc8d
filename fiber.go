package coroo

// Fiber is a lightweight, cooperatively scheduled thread of execution. Its
// zero value is not meaningful on its own; fibers are obtained from
// Spawn.
//
// A Fiber appears on at most one of {ready, waiting, dead} at any moment
// (or none, while it is the current fiber). The waiting-state fields
// below are conditionally meaningful: there is no separate Waiting
// subtype, just fields that matter only while the fiber sits on the
// waiting list.
type Fiber struct {
	link listElem

	resume chan struct{} // resume-context primitive, see context.go
	entry  func(any)
	arg    any

	stack   *Stack // nil for the main fiber, which owns the OS thread's stack
	debugID uint64 // opaque identifier for external memory-debugging tools

	pollFDs        []PollFD
	pollExpiration int64 // monotonic ms deadline; -1 means no deadline
	pollAcked      bool
}

func newFiber(entry func(any), arg any, stack *Stack) *Fiber {
	f := &Fiber{
		resume:         make(chan struct{}),
		entry:          entry,
		arg:            arg,
		stack:          stack,
		pollExpiration: -1,
	}
	if stack != nil {
		f.debugID = stack.debugID
	}
	return f
}

// DebugID returns an opaque identifier reserved for external
// memory-debugging tools. It is stable for the lifetime of the fiber and
// has no meaning beyond equality/uniqueness within one process.
func (f *Fiber) DebugID() uint64 { return f.debugID }
