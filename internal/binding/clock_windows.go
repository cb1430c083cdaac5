//go:build windows

package binding

import "golang.org/x/sys/windows"

// windowsClock reads the high-resolution performance counter via
// golang.org/x/sys/windows, mirroring the teacher's IOCP poller files
// which already depend on this package for their own Windows-specific
// syscalls.
type windowsClock struct {
	freq int64
}

func newWindowsClock() windowsClock {
	var freq int64
	_ = windows.QueryPerformanceFrequency(&freq)

	if freq == 0 {
		freq = 1
	}

	return windowsClock{freq: freq}
}

func (c windowsClock) Now() uint64 {
	var counter int64
	if err := windows.QueryPerformanceCounter(&counter); err != nil {
		return 0
	}

	return uint64(counter) * 1e9 / uint64(c.freq)
}

var clock monotonicClock = newWindowsClock()
