//go:build linux || darwin || freebsd || netbsd || openbsd

package binding

import "golang.org/x/sys/unix"

// unixClock reads CLOCK_MONOTONIC directly via golang.org/x/sys/unix,
// the same dependency the teacher's asyncio poller split (epoll/kqueue)
// already carries, rather than going through runtime.nanotime indirectly
// via time.Now().
type unixClock struct{}

func (unixClock) Now() uint64 {
	var ts unix.Timespec
	if err := unix.ClockGettime(unix.CLOCK_MONOTONIC, &ts); err != nil {
		return 0
	}

	return uint64(ts.Sec)*1e9 + uint64(ts.Nsec)
}

var clock monotonicClock = unixClock{}
