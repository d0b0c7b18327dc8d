//go:build linux || darwin || netbsd || freebsd || openbsd || dragonfly
// +build linux darwin netbsd freebsd openbsd dragonfly

package coroo

import (
	"sync"
	"sync/atomic"
	"unsafe"

	"golang.org/x/sys/unix"
)

// stackDirection records which way the CPU's native call stack grows on
// this platform, discovered once per process and shared by every Runtime
// (it is a fact about the hardware/ABI, not about any one runtime
// instance).
type stackDirection int

const (
	stackDirectionUnknown stackDirection = iota
	stackDirectionUp
	stackDirectionDown
)

var (
	directionOnce sync.Once
	direction     stackDirection
)

// clobberTarget is called indirectly, through a package variable written
// from a value the compiler cannot see as constant, so that
// determineStackDirection cannot be devirtualized and inlined into a
// tautological, compile-time-resolved comparison. It exists purely to
// defeat an optimizer smart enough to notice "caller frame vs. callee
// frame, same stack" and fold the branch away.
var clobberTarget func(*byte)

// clobberSeed holds a value whose provenance (a channel receive) the
// compiler cannot trace back to a literal, used to launder clobberTarget's
// assignment the same way.
var clobberSeed = make(chan int, 1)

func init() {
	clobberSeed <- 1
}

func launderedChoice() int {
	v := <-clobberSeed
	clobberSeed <- v
	return v
}

//go:noinline
func determineStackDirectionActual(prev *byte) {
	var local byte
	cur := uintptr(unsafe.Pointer(&local))
	prv := uintptr(unsafe.Pointer(prev))
	switch {
	case cur < prv:
		direction = stackDirectionDown
	case cur > prv:
		direction = stackDirectionUp
	default:
		logFatal("could not determine stack direction: addresses coincide")
	}
}

//go:noinline
func determineStackDirection() {
	directionOnce.Do(func() {
		fn := determineStackDirectionActual
		if launderedChoice() == 1 {
			clobberTarget = fn
		} else {
			// unreachable in practice; exists only so clobberTarget's
			// assignment is not provably fn at compile time.
			clobberTarget = func(*byte) {}
		}
		var probe byte
		clobberTarget(&probe)
	})
}

// Stack is a fiber's guarded stack region: an mmap'd span of
// requested-size-rounded-to-pages plus a guard page and a margin page,
// with the guard page made PROT_NONE on the side the stack grows toward.
//
// Execution of fiber code does not happen directly on this memory — Go
// goroutine stacks are runtime-managed and cannot be retargeted by hand —
// but the region is real, is really protected, and is really released at
// reap time.
type Stack struct {
	raw     []byte // nil if mapping failed (best-effort, see log.go)
	size    int    // total mapped size, including guard + margin
	usable  uintptr
	usableN int
	guardAt uintptr
	debugID uint64
	mapped  bool
}

var debugIDCounter uint64

func roundUpPage(n, page int) int {
	return (n + page - 1) &^ (page - 1)
}

// newStack allocates a guarded stack region of at least requested bytes.
// Failure to map or to protect the guard page is logged and otherwise
// ignored, on a best-effort policy — the fiber may fault later if it
// actually overruns an unguarded stack.
func newStack(requested int) *Stack {
	determineStackDirection()
	page := systemPageSize()
	size := roundUpPage(requested, page) + 2*page

	s := &Stack{size: size}

	data, err := unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE,
		unix.MAP_PRIVATE|unix.MAP_ANONYMOUS)
	if err != nil {
		logWarn("failed to map memory for fiber stack: %v", err)
		return s
	}
	s.raw = data
	s.mapped = true

	base := uintptr(unsafe.Pointer(&data[0]))
	switch direction {
	case stackDirectionDown:
		s.guardAt = base
		s.usable = base + uintptr(size) - uintptr(page)
	default: // stackDirectionUp
		s.guardAt = base + uintptr(size) - uintptr(page)
		s.usable = base + uintptr(page)
	}
	s.usableN = size - 2*page

	if err := unix.Mprotect(data[s.guardAt-base:s.guardAt-base+uintptr(page)], unix.PROT_NONE); err != nil {
		logWarn("failed to set guard page: %v", err)
	}

	s.debugID = atomic.AddUint64(&debugIDCounter, 1)
	return s
}

// contains reports whether addr lies within the usable (non-guard)
// portion of the stack.
func (s *Stack) contains(addr uintptr) bool {
	if !s.mapped {
		return true // nothing to check; mapping failed and was logged
	}
	if direction == stackDirectionDown {
		return addr <= s.usable && addr >= s.guardAt+uintptr(systemPageSize())
	}
	return addr >= s.usable && addr < s.guardAt
}

// release unmaps the stack's memory. Called only while another fiber is
// current, never by the fiber whose stack it is (see scheduler.go reap).
func (s *Stack) release() {
	if !s.mapped {
		return
	}
	if err := unix.Munmap(s.raw); err != nil {
		logWarn("failed to unmap fiber stack: %v", err)
	}
	s.mapped = false
	s.raw = nil
}
