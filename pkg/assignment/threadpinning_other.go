//go:build !linux

package assignment

import "github.com/rs/zerolog/log"

// pinCurrentThread is a no-op on platforms without a supported affinity
// syscall; pinning is a scheduling hint only.
func pinCurrentThread(core int) {
	log.Debug().Int("core", core).Msg("core pinning not supported on this platform, running unpinned")
}
