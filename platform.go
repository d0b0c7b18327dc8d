//go:build linux || darwin || netbsd || freebsd || openbsd || dragonfly
// +build linux darwin netbsd freebsd openbsd dragonfly

package coroo

import (
	"golang.org/x/sys/unix"
)

// nowMillis reads the monotonic clock in millisecond resolution, the
// resolution fiber deadlines are tracked in.
func nowMillis() int64 {
	var ts unix.Timespec
	if err := unix.ClockGettime(unix.CLOCK_MONOTONIC, &ts); err != nil {
		// CLOCK_MONOTONIC is always available on every platform this
		// package targets; a failure here means the host is broken in a
		// way nothing downstream can recover from.
		logFatal("clock_gettime(CLOCK_MONOTONIC): %v", err)
	}
	return ts.Sec*1000 + ts.Nsec/1_000_000
}

var cachedPageSize int

// systemPageSize returns the host page size, aborting if it is not a
// power of two.
func systemPageSize() int {
	if cachedPageSize != 0 {
		return cachedPageSize
	}
	sz := unix.Getpagesize()
	if sz <= 0 || sz&(sz-1) != 0 {
		logFatal("page size %d is not a power of two", sz)
	}
	cachedPageSize = sz
	return cachedPageSize
}

// pollRaw performs one blocking multi-descriptor readiness wait, retrying
// on EINTR instead of silently treating it as "nothing ready".
func pollRaw(fds []unix.PollFd, timeoutMillis int64) error {
	timeout := int(timeoutMillis)
	if int64(timeout) != timeoutMillis {
		// clamp rather than overflow int on 32-bit platforms; a multi-day
		// poll timeout is not a meaningful use case for this runtime.
		timeout = int(^uint(0) >> 1)
	}
	for {
		_, err := unix.Poll(fds, timeout)
		if err == unix.EINTR {
			continue
		}
		return err
	}
}
