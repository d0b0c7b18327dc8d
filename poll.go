package coroo

import "golang.org/x/sys/unix"

// PollEvent mirrors the bit width and values of unix.PollFd's Events and
// Revents fields, so callers can pass the familiar POLLIN/POLLOUT/...
// constants without importing golang.org/x/sys/unix themselves.
type PollEvent int16

const (
	PollIn  PollEvent = PollEvent(unix.POLLIN)
	PollOut PollEvent = PollEvent(unix.POLLOUT)
	PollHup PollEvent = PollEvent(unix.POLLHUP)
	PollErr PollEvent = PollEvent(unix.POLLERR)
)

// PollFD is one descriptor/interest-set pair in a Poll call. Revents is
// filled in with the events that were actually observed once Poll
// returns (or once the per-fiber deadline elapses, in which case it is
// left zero).
type PollFD struct {
	Fd      int
	Events  PollEvent
	Revents PollEvent
}

// pollScratch holds the auxiliary arrays waitForEvents needs to build a
// single aggregate unix.Poll call across every waiting fiber. It is
// reused across calls (cleared, not reallocated, when it shrinks) instead
// of being rebuilt on every multiplexer pass.
type pollScratch struct {
	owners    []*Fiber
	originals []*PollFD
	effective []unix.PollFd
}

func (s *pollScratch) reset() {
	s.owners = s.owners[:0]
	s.originals = s.originals[:0]
	s.effective = s.effective[:0]
}

// waitForEvents is the readiness multiplexer: it gathers every descriptor
// from every waiting fiber into one unix.Poll call, computes the call's
// timeout as the minimum of the waiting fibers' remaining deadlines, and
// on return (or timeout) moves any fiber that had at least one event or
// whose deadline elapsed back onto the ready list, recording which of
// its descriptors fired (or none, on timeout).
//
// It is only ever called from runNext, and only when ready is empty, so
// the calling fiber is never on the ready list: it is on the waiting list
// (it came here from Poll) or on the dead list (it came here from Exit).
// Each call performs one blocking wait; runNext calls it again for as
// long as ready is still empty.
func (r *Runtime) waitForEvents() {
	if r.waiting.empty() {
		logFatal("waitForEvents called with nothing waiting and nothing ready: scheduler deadlock")
	}

	r.scratch.reset()
	deadline := int64(-1)
	now := nowMillis()

	for e := r.waiting.anchor.next; e != &r.waiting.anchor; e = e.next {
		f := e.self.(*Fiber)
		for i := range f.pollFDs {
			r.scratch.owners = append(r.scratch.owners, f)
			r.scratch.originals = append(r.scratch.originals, &f.pollFDs[i])
			r.scratch.effective = append(r.scratch.effective, unix.PollFd{
				Fd:     int32(f.pollFDs[i].Fd),
				Events: int16(f.pollFDs[i].Events),
			})
		}
		if f.pollExpiration >= 0 {
			remaining := f.pollExpiration - now
			if remaining < 0 {
				remaining = 0
			}
			if deadline < 0 || remaining < deadline {
				deadline = remaining
			}
		}
	}

	if err := pollRaw(r.scratch.effective, deadline); err != nil {
		logWarn("poll: %v", err)
	}

	now = nowMillis()
	woken := make(map[*Fiber]bool)

	for i, pfd := range r.scratch.effective {
		r.scratch.originals[i].Revents = PollEvent(pfd.Revents)
		if pfd.Revents == 0 {
			continue
		}
		owner := r.scratch.owners[i]
		if !owner.pollAcked {
			owner.pollAcked = true
			woken[owner] = true
		}
	}

	for e := r.waiting.anchor.next; e != &r.waiting.anchor; {
		f := e.self.(*Fiber)
		next := e.next
		timedOut := f.pollExpiration >= 0 && f.pollExpiration <= now
		if woken[f] || (!f.pollAcked && timedOut) {
			listRemove(e)
			r.ready.pushBack(e, f)
		}
		e = next
	}
}

// Poll blocks the calling fiber until at least one of fds is ready, or
// until timeoutMillis elapses (a negative value means wait forever). The
// slice is updated in place; each element's Revents reports what fired,
// left zero for descriptors that did not fire before a timeout.
func (r *Runtime) Poll(fds []PollFD, timeoutMillis int64) {
	f := r.current
	f.pollFDs = fds
	f.pollAcked = false
	if timeoutMillis < 0 {
		f.pollExpiration = -1
	} else {
		f.pollExpiration = nowMillis() + timeoutMillis
	}

	r.waiting.pushBack(&f.link, f)
	r.runNext()

	for i := range fds {
		fds[i].Revents = f.pollFDs[i].Revents
	}
	f.pollFDs = nil
}

// PollOne is the common single-descriptor case of Poll.
func (r *Runtime) PollOne(fd int, events PollEvent, timeoutMillis int64) PollEvent {
	fds := []PollFD{{Fd: fd, Events: events}}
	r.Poll(fds, timeoutMillis)
	return fds[0].Revents
}

// Poll waits on the default Runtime. See (*Runtime).Poll.
func Poll(fds []PollFD, timeoutMillis int64) { defaultRT().Poll(fds, timeoutMillis) }

// PollOne waits on the default Runtime. See (*Runtime).PollOne.
func PollOne(fd int, events PollEvent, timeoutMillis int64) PollEvent {
	return defaultRT().PollOne(fd, events, timeoutMillis)
}
