//go:build linux || darwin

package main

import (
	"runtime"
	"time"

	"golang.org/x/sys/unix"
)

// resourceUsage reads the process CPU split and peak RSS from the kernel.
// Linux reports Maxrss in KiB, Darwin in bytes; normalized to KiB here.
func resourceUsage() (userCPU, sysCPU time.Duration, maxRSSKiB int64, ok bool) {
	var ru unix.Rusage
	if err := unix.Getrusage(unix.RUSAGE_SELF, &ru); err != nil {
		return 0, 0, 0, false
	}

	userCPU = time.Duration(ru.Utime.Sec)*time.Second + time.Duration(ru.Utime.Usec)*time.Microsecond
	sysCPU = time.Duration(ru.Stime.Sec)*time.Second + time.Duration(ru.Stime.Usec)*time.Microsecond

	maxRSSKiB = int64(ru.Maxrss)
	if runtime.GOOS == "darwin" {
		maxRSSKiB /= 1024
	}
	return userCPU, sysCPU, maxRSSKiB, true
}
