package coroo

import "golang.org/x/sys/unix"

// ring is a circular byte buffer kept in canonical form:
// length == 0 implies start == 0. All wrap arithmetic goes
// through wrap, so every mutation preserves the invariant.
type ring struct {
	buf    []byte
	start  int
	length int
}

func (r *ring) wrap(n int) int {
	if n >= len(r.buf) {
		return n - len(r.buf)
	}
	return n
}

// BufIO is a buffered, non-blocking adapter over one file descriptor: an
// incoming ring fed by reads, an outgoing ring drained by writes, both
// sized identically, sharing one *PollFD whose Events bits are kept in
// sync with how much room/data each ring currently holds. It operates on
// a raw fd rather than an *os.File or net.Conn so its lifetime is fully
// decoupled from any Go-side finalizer.
type BufIO struct {
	size int
	desc *PollFD

	incoming ring
	outgoing ring
}

// NewBufIO creates a buffered adapter of the given per-direction ring
// size over desc. desc's Events are set immediately to reflect the
// adapter's initial (empty) state.
func NewBufIO(size int, desc *PollFD) *BufIO {
	b := &BufIO{
		size:     size,
		desc:     desc,
		incoming: ring{buf: make([]byte, size)},
		outgoing: ring{buf: make([]byte, size)},
	}
	b.reflag()
	return b
}

// reflag recomputes the canonical-form start fields and the descriptor's
// interest bits: POLLIN while there is room to receive more, POLLOUT
// while there is queued data to send.
func (b *BufIO) reflag() {
	if b.incoming.length == 0 {
		b.incoming.start = 0
	}
	if b.outgoing.length == 0 {
		b.outgoing.start = 0
	}
	events := b.desc.Events
	if b.incoming.length < b.size {
		events |= PollIn
	} else {
		events &^= PollIn
	}
	if b.outgoing.length > 0 {
		events |= PollOut
	} else {
		events &^= PollOut
	}
	b.desc.Events = events
}

// Update consumes the descriptor's reported Revents: it drains available
// read capacity into the incoming ring and available outgoing data to
// the descriptor's fd, clearing the bits it has handled. It returns
// PollHup|PollErr immediately if either was set on entry, or PollHup if
// either syscall observes a closed connection (a zero-length read or
// write) or fails with an error other than EAGAIN/EINTR, and 0 otherwise. Callers are expected to call Update once per
// scheduler pass in which this adapter's descriptor had events, after
// Poll/PollOne returns.
func (b *BufIO) Update() PollEvent {
	rev := b.desc.Revents
	if rev&(PollHup|PollErr) != 0 {
		return rev & (PollHup | PollErr)
	}

	if rev&PollIn != 0 && b.incoming.length < b.size {
		b.desc.Revents &^= PollIn
		start := b.incoming.wrap(b.incoming.start + b.incoming.length)
		end := b.incoming.start
		if end == 0 {
			end = b.size
		}
		var n int
		var err error
		if start < end {
			n, err = unix.Read(b.desc.Fd, b.incoming.buf[start:end])
		} else {
			n, err = unix.Read(b.desc.Fd, b.incoming.buf[start:b.size])
			if err == nil {
				n2, err2 := unix.Read(b.desc.Fd, b.incoming.buf[:end])
				if err2 == nil && n2 > 0 {
					n += n2
				}
			}
		}
		transient := err == unix.EAGAIN || err == unix.EINTR
		if err != nil && !transient {
			logWarn("bufio: read: %v", err)
		}
		if n < 0 {
			n = 0
		}
		b.incoming.length += n
		if n == 0 && !transient {
			return PollHup
		}
	}

	if rev&PollOut != 0 && b.outgoing.length > 0 {
		b.desc.Revents &^= PollOut
		start := b.outgoing.start
		end := b.outgoing.wrap(b.outgoing.start + b.outgoing.length)
		var n int
		var err error
		if start < end {
			n, err = unix.Write(b.desc.Fd, b.outgoing.buf[start:end])
		} else {
			n, err = unix.Write(b.desc.Fd, b.outgoing.buf[start:b.size])
			if err == nil && n == b.size-start {
				n2, err2 := unix.Write(b.desc.Fd, b.outgoing.buf[:end])
				if err2 == nil && n2 > 0 {
					n += n2
				}
			}
		}
		transient := err == unix.EAGAIN || err == unix.EINTR
		if err != nil && !transient {
			logWarn("bufio: write: %v", err)
		}
		if n < 0 {
			n = 0
		}
		b.outgoing.start += n
		b.outgoing.length -= n
		b.outgoing.start = b.outgoing.wrap(b.outgoing.start)
		if n == 0 && !transient {
			return PollHup
		}
	}

	b.reflag()
	return 0
}

// Tunnel moves as many bytes as possible, with zero intermediate
// copying-to-a-third-buffer, from src's incoming ring directly into
// dst's outgoing ring: a single-hop splice between two adapters. It
// transfers min(dst's free outgoing space, src's available incoming
// data), in as few memmove-equivalent chunks as the two rings' wrap
// points require.
func (b *BufIO) Tunnel(src *BufIO) {
	dst := b
	dstAvailable := dst.size - dst.outgoing.length
	srcAvailable := src.incoming.length
	remaining := srcAvailable
	if dstAvailable < remaining {
		remaining = dstAvailable
	}

	for remaining > 0 {
		dstPtr := dst.outgoing.wrap(dst.outgoing.start + dst.outgoing.length)
		srcPtr := src.incoming.start
		dstChunk := dst.size - dstPtr
		srcChunk := src.size - srcPtr
		chunk := dstChunk
		if srcChunk < chunk {
			chunk = srcChunk
		}
		if remaining < chunk {
			chunk = remaining
		}

		copy(dst.outgoing.buf[dstPtr:dstPtr+chunk], src.incoming.buf[srcPtr:srcPtr+chunk])

		dst.outgoing.length += chunk
		src.incoming.start += chunk
		src.incoming.length -= chunk
		src.incoming.start = src.incoming.wrap(src.incoming.start)
		remaining -= chunk
	}

	dst.reflag()
	src.reflag()
}
