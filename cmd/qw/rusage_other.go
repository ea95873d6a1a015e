//go:build !linux && !darwin

package main

import "time"

// No rusage on this platform; the profile report drops the CPU block.
func resourceUsage() (userCPU, sysCPU time.Duration, maxRSSKiB int64, ok bool) {
	return 0, 0, 0, false
}
