package coroo

// contextSwitch transfers control from the calling fiber (r.current) to
// next, and blocks the calling goroutine until some later contextSwitch
// call names it as next again. A parked goroutine blocked on its own
// unbuffered channel stands in for a saved register file here: there is
// no way to redirect a live goroutine's stack pointer in Go, so the
// resume context is the goroutine itself, parked.
//
// The send-then-block sequence below is what makes "exactly one fiber
// executes at any point" true without any further synchronization:
// next's goroutine cannot proceed until the unbuffered send completes,
// and the caller's goroutine makes no further progress until some
// future contextSwitch sends to prev.resume.
func (r *Runtime) contextSwitch(next *Fiber) {
	prev := r.current
	r.current = next
	next.resume <- struct{}{}
	<-prev.resume
	r.reapDead()
}

// startFiberGoroutine launches f's goroutine parked on its own resume
// channel, standing in for landing a freshly captured context on the new
// fiber's stack before ever running its entry function. Nothing here
// runs user code until the scheduler's first contextSwitch into f.
func (r *Runtime) startFiberGoroutine(f *Fiber) {
	go func() {
		<-f.resume
		f.entry(f.arg)
		r.Exit()
	}()
}
