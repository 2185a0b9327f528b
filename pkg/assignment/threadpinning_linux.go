//go:build linux

package assignment

import (
	"runtime"

	"github.com/rs/zerolog/log"
	"golang.org/x/sys/unix"
)

// pinCurrentThread locks the calling goroutine to its current OS thread
// and restricts that thread to core. Pinning is a scheduling hint, not a
// correctness requirement: a failure logs a warning and the goroutine
// keeps running unpinned.
func pinCurrentThread(core int) {
	runtime.LockOSThread()

	var set unix.CPUSet
	set.Zero()
	set.Set(core)
	if err := unix.SchedSetaffinity(0, &set); err != nil {
		log.Warn().Err(err).Int("core", core).Msg("failed to pin worker thread to core")
	}
}
